//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/spine-tools/spine-conductor/internal/domain/repositories"
)

// StubOperatorRepository implements repositories.OperatorRepository with
// scripted answers.
type StubOperatorRepository struct {
	// --- Choose ---
	Selections [][]int // consumed in order; an exhausted queue selects nothing
	ChooseErr  error
	Headers    []string
	Choices    [][]string

	// --- Edit ---
	EditFunc    func(text string) string // defaults to returning text unchanged
	EditErr     error
	EditedPaths []string
	EditedTexts []string
}

var _ repositories.OperatorRepository = (*StubOperatorRepository)(nil)

func (o *StubOperatorRepository) Choose(_ context.Context, header string, choices []string) ([]int, error) {
	o.Headers = append(o.Headers, header)
	o.Choices = append(o.Choices, choices)
	if o.ChooseErr != nil {
		return nil, o.ChooseErr
	}
	if len(o.Selections) == 0 {
		return nil, nil
	}
	selected := o.Selections[0]
	o.Selections = o.Selections[1:]
	return selected, nil
}

func (o *StubOperatorRepository) Edit(_ context.Context, path, text string) (string, error) {
	o.EditedPaths = append(o.EditedPaths, path)
	o.EditedTexts = append(o.EditedTexts, text)
	if o.EditErr != nil {
		return "", o.EditErr
	}
	if o.EditFunc != nil {
		return o.EditFunc(text), nil
	}
	return text, nil
}
