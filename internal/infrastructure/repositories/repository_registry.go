package repositories

import (
	"path/filepath"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	domainRepos "github.com/spine-tools/spine-conductor/internal/domain/repositories"
)

// RepositoryOpener is a constructor function that opens a working tree at path.
type RepositoryOpener func(path string) (domainRepos.GitRepository, error)

// RepositoryRegistry opens each working tree once per process and hands out
// the same handle afterwards, so every step of a run sees the same index.
type RepositoryRegistry struct {
	open  RepositoryOpener
	repos map[string]domainRepos.GitRepository
}

var _ domainRepos.GitRepositoryFactory = (*RepositoryRegistry)(nil)

// NewRepositoryRegistry creates an empty registry backed by open.
func NewRepositoryRegistry(open RepositoryOpener) *RepositoryRegistry {
	return &RepositoryRegistry{
		open:  open,
		repos: make(map[string]domainRepos.GitRepository),
	}
}

// Open returns the repository at path, opening it on first use.
func (r *RepositoryRegistry) Open(path string) (domainRepos.GitRepository, error) {
	key := filepath.Clean(path)
	if repo, ok := r.repos[key]; ok {
		return repo, nil
	}
	repo, err := r.open(key)
	if err != nil {
		return nil, entities.Errorf(entities.ConfigErr, "failed to open repository %q: %w", path, err)
	}
	r.repos[key] = repo
	return repo, nil
}
