package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoModels is returned when there is no trained model to choose.
	ErrNoModels = errors.New("tui: no trained models available")
)
