package console

import (
	"strings"

	"github.com/chzyer/readline"

	"github.com/yockii/yoctl/internal/console/commands"
)

// registryCompleter completes command names for the first word and defers
// to the command's own Completions for the rest of the line.
type registryCompleter struct {
	registry *commands.Registry
}

var _ readline.AutoCompleter = (*registryCompleter)(nil)

// Do implements readline.AutoCompleter. It returns the suffixes to append
// and the length of the word being completed.
func (c *registryCompleter) Do(line []rune, pos int) ([][]rune, int) {
	input := strings.TrimLeft(string(line[:pos]), " ")
	word := currentWord(input)

	var candidates []string
	name, rest, hasArgs := strings.Cut(input, " ")
	if !hasArgs {
		candidates = c.registry.AllCompletions()
	} else if cmd, ok := c.registry.Get(strings.ToLower(name)); ok {
		candidates = cmd.Completions(strings.TrimLeft(rest, " "))
	}

	var out [][]rune
	for _, cand := range candidates {
		if strings.HasPrefix(cand, word) {
			out = append(out, []rune(cand[len(word):]+" "))
		}
	}
	return out, len([]rune(word))
}

// currentWord returns the partial word under the cursor, empty after a space.
func currentWord(input string) string {
	if input == "" || strings.HasSuffix(input, " ") {
		return ""
	}
	fields := strings.Fields(input)
	return fields[len(fields)-1]
}

// filterInput blocks Ctrl+Z, which would suspend the console.
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}
