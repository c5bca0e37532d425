package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	"github.com/spine-tools/spine-conductor/internal/domain/repositories"
)

// Publish is the interface for the publish command.
type Publish interface {
	Execute(ctx context.Context, settings *entities.Settings, opts PublishOptions) error
}

// PublishOptions holds runtime options for a single publish.
type PublishOptions struct {
	InputPath string
	DryRun    bool
}

// PublishCommand pushes the release branch and tag of every package named in
// a tag summary.
type PublishCommand struct {
	repositories repositories.GitRepositoryFactory
	operator     repositories.OperatorRepository
}

// NewPublishCommand creates a new PublishCommand.
func NewPublishCommand(
	factory repositories.GitRepositoryFactory,
	operator repositories.OperatorRepository,
) *PublishCommand {
	return &PublishCommand{repositories: factory, operator: operator}
}

// Execute reads the summary at opts.InputPath and pushes each listed package.
func (it *PublishCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts PublishOptions,
) error {
	summary, err := readSummary(opts.InputPath)
	if err != nil {
		return err
	}
	if summary.Len() == 0 {
		logger.Infof("Nothing to publish, %q lists no packages", opts.InputPath)
		return nil
	}

	published := make(map[string]bool, summary.Len())
	for _, pkg := range settings.Packages() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		repo, openErr := it.repositories.Open(pkg.Path)
		if openErr != nil {
			return openErr
		}
		remotes, remotesErr := repo.Remotes()
		if remotesErr != nil {
			return entities.Errorf(entities.ConfigErr, "[%s] %w", pkg.Name, remotesErr)
		}

		key := remoteIdentifier(pkg.Name, remotes)
		version, ok := summary.Get(key)
		if !ok {
			logger.Debugf("[%s] Not in %q, skipping", pkg.Name, opts.InputPath)
			continue
		}
		published[key] = true

		if err = it.push(ctx, pkg, repo, remotes, version, opts.DryRun); err != nil {
			return err
		}
	}

	for _, remote := range summary.Remotes() {
		if !published[remote] {
			logger.Warnf("%q is listed in %q but matches no configured package", remote, opts.InputPath)
		}
	}
	return nil
}

func (it *PublishCommand) push(
	ctx context.Context,
	pkg entities.Package,
	repo repositories.GitRepository,
	remotes []entities.Remote,
	version string,
	dryRun bool,
) error {
	remote, err := it.selectRemote(ctx, pkg, remotes)
	if err != nil {
		return err
	}

	branchRef := fmt.Sprintf("refs/heads/%[1]s:refs/heads/%[1]s", pkg.Branch)
	tagRef := fmt.Sprintf("refs/tags/%[1]s:refs/tags/%[1]s", version)
	if dryRun {
		logger.Infof("[%s] [DRY RUN] Would push branch %q and tag %q to %q", pkg.Name, pkg.Branch, version, remote.Name)
		return nil
	}

	if err = repo.Push(ctx, remote.Name, branchRef); err != nil {
		return entities.Errorf(entities.RemoteErr, "[%s] pushing branch %q to %q failed: %w",
			pkg.Name, pkg.Branch, remote.Name, err)
	}
	logger.Infof("[%s] Pushed branch %q to %q", pkg.Name, pkg.Branch, remote.Name)

	if err = repo.Push(ctx, remote.Name, tagRef); err != nil {
		return entities.Errorf(entities.DupTagErr, "[%s] pushing tag %q to %q failed: %w",
			pkg.Name, version, remote.Name, err)
	}
	logger.Infof("[%s] Pushed tag %q to %q", pkg.Name, version, remote.Name)
	return nil
}

// selectRemote returns the only remote, or asks the operator to pick one.
func (it *PublishCommand) selectRemote(
	ctx context.Context,
	pkg entities.Package,
	remotes []entities.Remote,
) (entities.Remote, error) {
	switch len(remotes) {
	case 0:
		return entities.Remote{}, entities.Errorf(entities.RemoteErr, "[%s] no remote configured", pkg.Name)
	case 1:
		return remotes[0], nil
	}

	choices := make([]string, len(remotes))
	for i, remote := range remotes {
		choices[i] = fmt.Sprintf("%s: %s", remote.Name, remote.URL)
	}
	selected, err := it.operator.Choose(ctx, fmt.Sprintf("Select the remote to push %s to", pkg.Name), choices)
	if err != nil {
		return entities.Remote{}, err
	}
	if len(selected) != 1 {
		return entities.Remote{}, entities.Errorf(entities.UserInputErr,
			"[%s] expected exactly one remote, got %d selections", pkg.Name, len(selected))
	}
	return remotes[selected[0]], nil
}

func readSummary(path string) (*entities.TagSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, entities.Errorf(entities.ConfigErr, "failed to read tag summary %q: %w", path, err)
	}
	var summary entities.TagSummary
	if err = json.Unmarshal(data, &summary); err != nil {
		return nil, entities.Errorf(entities.ConfigErr, "invalid tag summary %q: %w", path, err)
	}
	return &summary, nil
}
