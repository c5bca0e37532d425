package commands

import (
	logger "github.com/sirupsen/logrus"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	"github.com/spine-tools/spine-conductor/internal/domain/repositories"
	infraRepos "github.com/spine-tools/spine-conductor/internal/infrastructure/repositories"
	"github.com/spine-tools/spine-conductor/internal/infrastructure/repositories/scheme"
)

// versionPlanner computes the next version of every package in the fleet.
type versionPlanner struct {
	repositories repositories.GitRepositoryFactory
	schemes      *infraRepos.VersionSchemeRegistry
}

// plan visits the whole fleet. Packages outside the selection are planned
// read-only so dependents can still be rewritten against them.
func (p *versionPlanner) plan(rc entities.ReleaseContext) (*entities.VersionPlan, error) {
	packages := rc.Fleet.Packages()
	releases := make([]entities.PlannedRelease, 0, len(packages))
	for _, pkg := range packages {
		selected := rc.IsSelected(pkg.Name)
		release, err := p.planPackage(pkg, rc.Bump)
		if err != nil {
			if selected {
				return nil, err
			}
			logger.Warnf("[%s] Not released this round and could not be planned: %v", pkg.Name, err)
			continue
		}
		release.Selected = selected
		logger.Infof("[%s] Current tag %q, next version %s", pkg.Name, release.CurrentTag, release.NextVersion)
		releases = append(releases, release)
	}
	return entities.NewVersionPlan(releases), nil
}

func (p *versionPlanner) planPackage(pkg entities.Package, bump entities.BumpPart) (entities.PlannedRelease, error) {
	repo, err := p.repositories.Open(pkg.Path)
	if err != nil {
		return entities.PlannedRelease{}, err
	}

	state, err := repositoryState(repo)
	if err != nil {
		return entities.PlannedRelease{}, entities.Errorf(entities.ConfigErr, "%s@%s: %w", pkg.Name, pkg.Path, err)
	}

	versionScheme, err := p.schemeFor(repo, bump)
	if err != nil {
		return entities.PlannedRelease{}, err
	}
	next, err := versionScheme.NextVersion(state)
	if err != nil {
		return entities.PlannedRelease{}, entities.Errorf(entities.ConfigErr, "%s: %w", pkg.Name, err)
	}
	if bump == entities.BumpMajor {
		if next, err = entities.BumpVersion(next, entities.BumpMajor); err != nil {
			return entities.PlannedRelease{}, entities.Errorf(entities.ConfigErr, "%s: %w", pkg.Name, err)
		}
	}

	release := entities.PlannedRelease{Package: pkg, CurrentTag: state.CurrentTag, NextVersion: next}
	if !release.IsNoOp() {
		warnExistingTag(pkg, repo, next)
	}
	return release, nil
}

// warnExistingTag reports ahead of any commit that the planned tag is taken.
func warnExistingTag(pkg entities.Package, repo repositories.GitRepository, version string) {
	exists, err := repo.TagExists(version)
	if err != nil {
		logger.Debugf("[%s] Could not look up tag %s: %v", pkg.Name, version, err)
		return
	}
	if exists {
		logger.Warnf("[%s] Tag %s already exists, tagging it again will fail", pkg.Name, version)
	}
}

// schemeFor reads [tool.setuptools_scm] version_scheme from the package
// manifest. Patch releases always use guess-next-dev. A missing or invalid
// manifest is a configuration error.
func (p *versionPlanner) schemeFor(
	repo repositories.GitRepository,
	bump entities.BumpPart,
) (repositories.VersionSchemeRepository, error) {
	name := scheme.GuessNextDev
	if bump != entities.BumpPatch {
		data, err := repo.ReadFile(entities.ManifestFile)
		if err != nil {
			return nil, entities.Errorf(entities.ConfigErr, "failed to read %s in %s: %w",
				entities.ManifestFile, repo.Path(), err)
		}
		manifest, err := entities.DecodeManifest(data)
		if err != nil {
			return nil, err
		}
		if configured := manifest.Tool.SetuptoolsSCM.VersionScheme; configured != "" {
			name = configured
		}
	}
	return p.schemes.Get(name)
}

func repositoryState(repo repositories.GitRepository) (entities.RepositoryState, error) {
	tags, err := repo.Tags()
	if err != nil {
		return entities.RepositoryState{}, err
	}
	current, _ := entities.LatestVersionTag(tags)

	distance, err := repo.CommitDistance(current)
	if err != nil {
		return entities.RepositoryState{}, err
	}
	dirty, err := repo.IsDirty()
	if err != nil {
		return entities.RepositoryState{}, err
	}
	branch, err := repo.ActiveBranch()
	if err != nil {
		branch = ""
	}
	return entities.RepositoryState{CurrentTag: current, Distance: distance, Dirty: dirty, Branch: branch}, nil
}
