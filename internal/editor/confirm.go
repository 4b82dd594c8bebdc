package editor

// Confirmer asks the user to approve a destructive change.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// AlwaysConfirm approves every prompt. It backs the --yes flag.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })
