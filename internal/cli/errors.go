package cli

import "errors"

// ErrPromptCancelled indicates that the user aborted an interactive prompt.
// Cancellation is not a failure: the process exits zero without state change.
var ErrPromptCancelled = errors.New("prompt cancelled")

// ErrNoTerminal indicates an interactive prompt was needed but stdin is not
// a terminal.
var ErrNoTerminal = errors.New("interactive prompt requires a terminal")
