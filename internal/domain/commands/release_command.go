package commands

import (
	"context"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	"github.com/spine-tools/spine-conductor/internal/domain/repositories"
	infraRepos "github.com/spine-tools/spine-conductor/internal/infrastructure/repositories"
)

const summaryFileMode = 0o644

// Release is the interface for the release command.
type Release interface {
	Execute(ctx context.Context, rc entities.ReleaseContext) (*entities.TagSummary, error)
}

// ReleaseCommand orchestrates a fleet release:
// check branches -> plan versions -> tag every package -> write the summary.
type ReleaseCommand struct {
	repositories repositories.GitRepositoryFactory
	planner      *versionPlanner
	engine       *tagEngine
}

// NewReleaseCommand creates a new ReleaseCommand.
func NewReleaseCommand(
	factory repositories.GitRepositoryFactory,
	schemes *infraRepos.VersionSchemeRegistry,
	operator repositories.OperatorRepository,
) *ReleaseCommand {
	return &ReleaseCommand{
		repositories: factory,
		planner:      &versionPlanner{repositories: factory, schemes: schemes},
		engine:       &tagEngine{repositories: factory, operator: operator},
	}
}

// Execute releases the selected packages and persists the tag summary to
// rc.OutputPath. Packages are processed in configuration order.
func (it *ReleaseCommand) Execute(ctx context.Context, rc entities.ReleaseContext) (*entities.TagSummary, error) {
	if err := checkBranches(it.repositories, rc.Settings.Packages()); err != nil {
		return nil, err
	}

	plan, err := it.planner.plan(rc)
	if err != nil {
		return nil, err
	}

	releases := plan.Releases()
	outcomes := make([]entities.TagOutcome, 0, len(releases))
	for _, release := range releases {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		outcome, releaseErr := it.engine.release(ctx, rc, plan, release)
		if releaseErr != nil {
			return nil, releaseErr
		}
		outcomes = append(outcomes, outcome)
	}

	logOutcomes(outcomes)
	summary := entities.NewTagSummary(outcomes)
	if err = writeSummary(rc.OutputPath, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func logOutcomes(outcomes []entities.TagOutcome) {
	tagged, skipped, aborted := 0, 0, 0
	for _, outcome := range outcomes {
		switch outcome.Kind {
		case entities.OutcomeTagged:
			tagged++
		case entities.OutcomeSkipped:
			skipped++
			logger.Debugf("[%s] Skipped: %s", outcome.Package, outcome.Reason)
		case entities.OutcomeAborted:
			aborted++
			logger.Debugf("[%s] Aborted: %s", outcome.Package, outcome.Reason)
		}
	}
	logger.Infof("Release complete: %d tagged, %d skipped, %d aborted", tagged, skipped, aborted)
}

func writeSummary(path string, summary *entities.TagSummary) error {
	data, err := summary.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode tag summary: %w", err)
	}
	if err = os.WriteFile(path, data, summaryFileMode); err != nil {
		return fmt.Errorf("failed to write tag summary to %q: %w", path, err)
	}
	logger.Infof("Package tags summary written to %q", path)
	return nil
}
