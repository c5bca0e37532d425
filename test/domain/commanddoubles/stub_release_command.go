//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/spine-tools/spine-conductor/internal/domain/commands"
	"github.com/spine-tools/spine-conductor/internal/domain/entities"
)

// StubReleaseCommand is a stub implementation of commands.Release.
type StubReleaseCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Summary          *entities.TagSummary
	LastContext      entities.ReleaseContext
}

var _ commands.Release = (*StubReleaseCommand)(nil)

func (s *StubReleaseCommand) Execute(_ context.Context, rc entities.ReleaseContext) (*entities.TagSummary, error) {
	s.ExecuteCallCount++
	s.LastContext = rc
	if s.ExecuteErr != nil {
		return nil, s.ExecuteErr
	}
	if s.Summary == nil {
		return entities.NewTagSummary(nil), nil
	}
	return s.Summary, nil
}
