package repositories

import "github.com/spine-tools/spine-conductor/internal/domain/entities"

// VersionSchemeRepository guesses the next release version from repository
// state, following one of the setuptools_scm version schemes.
type VersionSchemeRepository interface {
	// Name returns the scheme identifier (e.g. "guess-next-dev").
	Name() string

	// NextVersion returns the version the next release should carry. Without
	// unreleased changes it returns the current tag unchanged.
	NextVersion(state entities.RepositoryState) (string, error)
}
