package refit

import "errors"

var (
	// ErrNoSnapshot marks a run aborted before any fitting was touched
	// because the model could not be listed.
	ErrNoSnapshot = errors.New("model snapshot unavailable")

	// ErrGroup marks a run aborted because the run-level undo group
	// could not be opened.
	ErrGroup = errors.New("undo group unavailable")
)
