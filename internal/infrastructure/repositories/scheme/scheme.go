package scheme

import (
	"regexp"
	"strings"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	"github.com/spine-tools/spine-conductor/internal/domain/repositories"
)

// Scheme names understood by setuptools_scm that the release engine supports.
const (
	GuessNextDev           = "guess-next-dev"
	NoGuessDev             = "no-guess-dev"
	PostRelease            = "post-release"
	ReleaseBranchSemver    = "release-branch-semver"
	PythonSimplifiedSemver = "python-simplified-semver"
	OnlyVersion            = "only-version"
)

// branchVersionPattern reads the version a branch name carries, as in
// "release-0.7" or "maint/v1.2.x".
var branchVersionPattern = regexp.MustCompile(`^(?:[\w-]+-)?[vV]?(\d+(?:\.\d+){0,2})`)

// PartChooser decides which component a scheme bumps for a repository.
type PartChooser func(state entities.RepositoryState) entities.BumpPart

// BumpSchemeRepository advances one version component whenever the
// repository has unreleased changes.
type BumpSchemeRepository struct {
	name   string
	choose PartChooser
}

var _ repositories.VersionSchemeRepository = (*BumpSchemeRepository)(nil)

// NewBumpSchemeRepository creates a scheme named name that always bumps part.
func NewBumpSchemeRepository(name string, part entities.BumpPart) *BumpSchemeRepository {
	return NewBranchAwareSchemeRepository(name, func(entities.RepositoryState) entities.BumpPart { return part })
}

// NewBranchAwareSchemeRepository creates a scheme whose bumped part depends
// on the repository state, usually its branch.
func NewBranchAwareSchemeRepository(name string, choose PartChooser) *BumpSchemeRepository {
	return &BumpSchemeRepository{name: name, choose: choose}
}

func (s *BumpSchemeRepository) Name() string { return s.name }

// NextVersion bumps the base tag, or returns the current tag untouched when
// nothing happened since it was created.
func (s *BumpSchemeRepository) NextVersion(state entities.RepositoryState) (string, error) {
	if !state.HasUnreleasedChanges() {
		return entities.BaseVersion(state.CurrentTag)
	}
	return entities.BumpVersion(state.BaseTag(), s.choose(state))
}

// ReleaseBranchPart bumps the patch on a maintenance branch whose version
// matches the tag up to the minor part, and the minor everywhere else.
func ReleaseBranchPart(state entities.RepositoryState) entities.BumpPart {
	if state.Branch == "" {
		return entities.BumpMinor
	}
	leaf := state.Branch[strings.LastIndex(state.Branch, "/")+1:]
	match := branchVersionPattern.FindStringSubmatch(leaf)
	if match == nil {
		return entities.BumpMinor
	}
	branchMinor := majorMinor(match[1])
	tagMinor := majorMinor(strings.TrimPrefix(state.BaseTag(), "v"))
	if strings.Join(branchMinor, ".") == strings.Join(tagMinor, ".") {
		return entities.BumpPatch
	}
	return entities.BumpMinor
}

// FeatureBranchPart bumps the minor on feature branches and the patch elsewhere.
func FeatureBranchPart(state entities.RepositoryState) entities.BumpPart {
	if strings.Contains(state.Branch, "feature") {
		return entities.BumpMinor
	}
	return entities.BumpPatch
}

func majorMinor(version string) []string {
	parts := strings.Split(version, ".")
	if len(parts) > 2 { //nolint:mnd // major and minor
		parts = parts[:2]
	}
	return parts
}

// ExactSchemeRepository releases the base version of the last tag. Schemes
// that only append post or dev segments to the tag land here, since their
// base version never moves.
type ExactSchemeRepository struct {
	name string
}

var _ repositories.VersionSchemeRepository = (*ExactSchemeRepository)(nil)

// NewExactSchemeRepository creates a scheme named name that keeps the tag version.
func NewExactSchemeRepository(name string) *ExactSchemeRepository {
	return &ExactSchemeRepository{name: name}
}

func (s *ExactSchemeRepository) Name() string { return s.name }

func (s *ExactSchemeRepository) NextVersion(state entities.RepositoryState) (string, error) {
	return entities.BaseVersion(state.BaseTag())
}

// All returns every built-in scheme.
func All() []repositories.VersionSchemeRepository {
	return []repositories.VersionSchemeRepository{
		NewBumpSchemeRepository(GuessNextDev, entities.BumpPatch),
		NewExactSchemeRepository(NoGuessDev),
		NewExactSchemeRepository(PostRelease),
		NewBranchAwareSchemeRepository(ReleaseBranchSemver, ReleaseBranchPart),
		NewBranchAwareSchemeRepository(PythonSimplifiedSemver, FeatureBranchPart),
		NewExactSchemeRepository(OnlyVersion),
	}
}
