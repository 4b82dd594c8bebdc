package console

import (
	"strings"
)

// promptReader is the part of *readline.Instance a confirmation needs.
type promptReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
}

// lineConfirmer asks yes/no questions on the console line. Anything but an
// explicit yes is a no, including read errors and Ctrl+C.
type lineConfirmer struct {
	rl     promptReader
	prompt func() string
}

func (c *lineConfirmer) Confirm(question string) bool {
	c.rl.SetPrompt(question + " [y/N] ")
	defer c.rl.SetPrompt(c.prompt())

	line, err := c.rl.Readline()
	if err != nil {
		return false
	}
	return isYes(line)
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "是", "确定":
		return true
	}
	return false
}
