package commands

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	"github.com/spine-tools/spine-conductor/internal/domain/repositories"
)

const commitMessageFile = "COMMIT_EDITMSG"

// tagEngine drives one package from its planned version to a tag:
// rewrite dependencies, stage, commit when needed, tag.
type tagEngine struct {
	repositories repositories.GitRepositoryFactory
	operator     repositories.OperatorRepository
}

// release returns the package outcome. Only a duplicate tag on a package in
// a dependency cycle, or an infrastructure failure, is returned as an error.
func (e *tagEngine) release(
	ctx context.Context,
	rc entities.ReleaseContext,
	plan *entities.VersionPlan,
	release entities.PlannedRelease,
) (entities.TagOutcome, error) {
	pkg := release.Package
	if release.IsNoOp() {
		logger.Infof("[%s] Already released as %s, nothing to do", pkg.Name, release.CurrentTag)
		return entities.Skipped(pkg.Name, "no-op"), nil
	}

	repo, err := e.repositories.Open(pkg.Path)
	if err != nil {
		return entities.TagOutcome{}, err
	}

	if err = rewriteManifest(repo, rc.Fleet.NamePattern, plan); err != nil {
		return entities.TagOutcome{}, fmt.Errorf("[%s] %w", pkg.Name, err)
	}

	if err = e.stage(ctx, pkg, repo); err != nil {
		return entities.TagOutcome{}, err
	}
	if blocked, checkErr := filesNeedingValidation(rc.Settings, repo); checkErr != nil {
		return entities.TagOutcome{}, checkErr
	} else if len(blocked) > 0 {
		reason := "staged files need validation that cannot run here: " + strings.Join(blocked, ", ")
		logger.Warnf("[%s] Aborting: %s", pkg.Name, reason)
		return entities.Aborted(pkg.Name, reason), nil
	}

	if reason, commitErr := e.commit(ctx, repo, release.NextVersion); commitErr != nil {
		return entities.TagOutcome{}, commitErr
	} else if reason != "" {
		logger.Warnf("[%s] %s: %s", pkg.Name, entities.CommitErr, reason)
		return entities.Aborted(pkg.Name, reason), nil
	}

	return e.tag(rc, pkg, repo, release.NextVersion)
}

func rewriteManifest(
	repo repositories.GitRepository,
	pattern *entities.NamePattern,
	plan *entities.VersionPlan,
) error {
	data, err := repo.ReadFile(entities.ManifestFile)
	if err != nil {
		return entities.Errorf(entities.ConfigErr, "failed to read %s: %w", entities.ManifestFile, err)
	}
	updated, changed, err := entities.UpdateDependencies(data, pattern, plan.NextVersions())
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err = repo.WriteFile(entities.ManifestFile, updated); err != nil {
		return fmt.Errorf("failed to write %s: %w", entities.ManifestFile, err)
	}
	return nil
}

// stage lets the operator pick the changes entering the release commit. The
// manifest is staged whenever it was modified.
func (e *tagEngine) stage(ctx context.Context, pkg entities.Package, repo repositories.GitRepository) error {
	status, err := repo.Status()
	if err != nil {
		return err
	}

	var (
		paths   []string
		choices []entities.FileStatus
	)
	for _, file := range status {
		if !file.IsModifiedInWorktree() {
			continue
		}
		if file.Path == entities.ManifestFile {
			paths = append(paths, file.Path)
			continue
		}
		choices = append(choices, file)
	}

	if len(choices) > 0 {
		lines := make([]string, len(choices))
		for i, file := range choices {
			lines[i] = file.String()
		}
		header := fmt.Sprintf("Repository: %s\nSelect the files to add to the release commit of %s", repo.Path(), pkg.Name)
		selected, chooseErr := e.operator.Choose(ctx, header, lines)
		if chooseErr != nil {
			return chooseErr
		}
		for _, index := range selected {
			paths = append(paths, choices[index].Path)
		}
	}

	if len(paths) == 0 {
		return nil
	}
	logger.Debugf("[%s] Staging %s", pkg.Name, strings.Join(paths, ", "))
	return repo.Stage(paths...)
}

func filesNeedingValidation(settings *entities.Settings, repo repositories.GitRepository) ([]string, error) {
	if len(settings.ValidationPatterns) == 0 {
		return nil, nil
	}
	status, err := repo.Status()
	if err != nil {
		return nil, err
	}
	var blocked []string
	for _, file := range status {
		if file.Staging == ' ' || file.Staging == '?' {
			continue
		}
		if settings.NeedsValidation(file.Path) {
			blocked = append(blocked, file.Path)
		}
	}
	return blocked, nil
}

// commit records the staged changes. A non-empty reason means the operator
// abandoned the commit.
func (e *tagEngine) commit(ctx context.Context, repo repositories.GitRepository, version string) (string, error) {
	staged, err := repo.StagedCount()
	if err != nil {
		return "", err
	}
	if staged == 0 {
		return "", nil
	}

	status, err := repo.StatusText()
	if err != nil {
		return "", err
	}
	template := entities.CommitTemplate(version, repo.Path(), status)
	edited, err := e.operator.Edit(ctx, filepath.Join(repo.GitDir(), commitMessageFile), template)
	if errors.Is(err, entities.ErrEditorCancelled) {
		return "aborting commit: " + err.Error(), nil
	}
	if err != nil {
		return "", err
	}

	message := entities.StripComments(edited)
	if entities.IsBlankMessage(message) {
		return "aborting commit: empty commit message", nil
	}
	return "", repo.Commit(message)
}

func (e *tagEngine) tag(
	rc entities.ReleaseContext,
	pkg entities.Package,
	repo repositories.GitRepository,
	version string,
) (entities.TagOutcome, error) {
	err := repo.CreateTag(version)
	if errors.Is(err, entities.ErrTagExists) {
		if rc.Fleet.DependencyGraph.IsCircular(pkg.Name) {
			return entities.TagOutcome{}, entities.Errorf(entities.DupTagErr,
				"[%s] tag %s already exists and the package is part of a dependency cycle", pkg.Name, version)
		}
		if dependents := rc.Fleet.DependencyGraph.Dependents(pkg.Name, rc.Fleet.Order); len(dependents) > 0 {
			logger.Warnf("[%s] Tag %s already exists, skipping; %s now require %s>=%s",
				pkg.Name, version, strings.Join(dependents, ", "), pkg.Name, version)
		} else {
			logger.Warnf("[%s] Tag %s already exists, skipping", pkg.Name, version)
		}
		return entities.Skipped(pkg.Name, "tag "+version+" already exists"), nil
	}
	if err != nil {
		return entities.TagOutcome{}, err
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return entities.TagOutcome{}, err
	}
	logger.Infof("[%s] Created tag %s", pkg.Name, version)
	return entities.Tagged(pkg.Name, remoteIdentifier(pkg.Name, remotes), version), nil
}

// remoteIdentifier names a repository in the tag summary: the file stem of
// its origin URL, e.g. "Spine-Database-API" for
// "git@github.com:spine-tools/Spine-Database-API.git".
func remoteIdentifier(pkgName string, remotes []entities.Remote) string {
	if len(remotes) == 0 {
		return pkgName
	}
	url := remotes[0].URL
	for _, remote := range remotes {
		if remote.Name == "origin" {
			url = remote.URL
			break
		}
	}
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndexAny(url, "/:\\"); i >= 0 {
		url = url[i+1:]
	}
	stem := strings.TrimSuffix(url, path.Ext(url))
	if stem == "" {
		return pkgName
	}
	return stem
}
