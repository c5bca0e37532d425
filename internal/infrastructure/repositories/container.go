package repositories

import (
	"go.uber.org/dig"

	domainRepos "github.com/spine-tools/spine-conductor/internal/domain/repositories"
	gitRepo "github.com/spine-tools/spine-conductor/internal/infrastructure/repositories/gogit"
	"github.com/spine-tools/spine-conductor/internal/infrastructure/repositories/scheme"
	"github.com/spine-tools/spine-conductor/internal/infrastructure/repositories/terminal"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register repository registry backed by go-git working trees
	if err := container.Provide(func() *RepositoryRegistry {
		return NewRepositoryRegistry(gitRepo.NewGitRepository)
	}); err != nil {
		return err
	}

	// Register version scheme registry with all built-in schemes
	if err := container.Provide(func() *VersionSchemeRegistry {
		reg := NewVersionSchemeRegistry()
		for _, s := range scheme.All() {
			reg.Register(s)
		}
		return reg
	}); err != nil {
		return err
	}

	// Register the terminal operator
	if err := container.Provide(terminal.NewOperatorRepository); err != nil {
		return err
	}

	// Bind interfaces to implementations
	if err := container.Provide(func(impl *RepositoryRegistry) domainRepos.GitRepositoryFactory {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *terminal.OperatorRepository) domainRepos.OperatorRepository {
		return impl
	}); err != nil {
		return err
	}

	return nil
}
