package repositories

import "context"

// OperatorRepository is the interactive operator: whoever sits at the terminal.
// Both calls block until the operator answers; there is no timeout.
type OperatorRepository interface {
	// Choose shows header followed by the indexed choices and returns the
	// selected indices. An empty answer selects nothing.
	Choose(ctx context.Context, header string, choices []string) ([]int, error)
	// Edit writes text to path, lets the operator edit it and returns the result.
	// It returns entities.ErrEditorCancelled when the editor fails.
	Edit(ctx context.Context, path, text string) (string, error)
}
