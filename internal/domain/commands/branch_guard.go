package commands

import (
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	"github.com/spine-tools/spine-conductor/internal/domain/repositories"
)

// checkBranches verifies that every repository has its release branch checked
// out. All violations are collected so the operator can fix them in one go.
func checkBranches(factory repositories.GitRepositoryFactory, packages []entities.Package) error {
	var violations []string
	for _, pkg := range packages {
		repo, err := factory.Open(pkg.Path)
		if err != nil {
			return err
		}

		branch, err := repo.ActiveBranch()
		switch {
		case err != nil:
			violations = append(violations, fmt.Sprintf("%s@%s: %v", pkg.Name, pkg.Path, err))
		case branch != pkg.Branch:
			violations = append(violations,
				fmt.Sprintf("%s@%s is on branch %q, not %q", pkg.Name, pkg.Path, branch, pkg.Branch))
		default:
			logger.Debugf("[%s] On release branch %q", pkg.Name, branch)
		}
	}

	if len(violations) > 0 {
		return entities.Errorf(entities.BranchErr,
			"repositories are not on their release branch:\n  %s", strings.Join(violations, "\n  "))
	}
	return nil
}
