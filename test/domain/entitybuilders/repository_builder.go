//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"fmt"
	"strings"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	doubles "github.com/spine-tools/spine-conductor/test/infrastructure/repositorydoubles"
)

// RepositoryBuilder helps create in-memory package repositories.
type RepositoryBuilder struct {
	*testkit.BaseBuilder
	path         string
	name         string
	branch       string
	tags         []string
	distance     int
	dirty        bool
	dependencies []string
	scheme       string
	remotes      []entities.Remote
}

// NewRepositoryBuilder creates a repository on master with one commit after tag 0.1.0.
func NewRepositoryBuilder(name string) *RepositoryBuilder {
	return &RepositoryBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		path:        "/src/" + name,
		name:        name,
		branch:      defaultBranch,
		tags:        []string{"0.1.0"},
		distance:    1,
		remotes: []entities.Remote{
			{Name: "origin", URL: fmt.Sprintf("git@github.com:spine-tools/%s.git", name)},
		},
	}
}

// WithBranch sets the checked-out branch.
func (b *RepositoryBuilder) WithBranch(branch string) *RepositoryBuilder {
	b.branch = branch
	return b
}

// WithTags replaces the tag list.
func (b *RepositoryBuilder) WithTags(tags ...string) *RepositoryBuilder {
	b.tags = tags
	return b
}

// WithDistance sets the number of commits since the latest tag.
func (b *RepositoryBuilder) WithDistance(distance int) *RepositoryBuilder {
	b.distance = distance
	return b
}

// WithDirty marks tracked files as modified.
func (b *RepositoryBuilder) WithDirty(dirty bool) *RepositoryBuilder {
	b.dirty = dirty
	return b
}

// WithDependencies sets the [project].dependencies of the manifest.
func (b *RepositoryBuilder) WithDependencies(dependencies ...string) *RepositoryBuilder {
	b.dependencies = dependencies
	return b
}

// WithVersionScheme sets [tool.setuptools_scm].version_scheme.
func (b *RepositoryBuilder) WithVersionScheme(scheme string) *RepositoryBuilder {
	b.scheme = scheme
	return b
}

// WithRemotes replaces the remotes.
func (b *RepositoryBuilder) WithRemotes(remotes ...entities.Remote) *RepositoryBuilder {
	b.remotes = remotes
	return b
}

// Build creates the repository (satisfies testkit.Builder interface).
func (b *RepositoryBuilder) Build() interface{} {
	return b.BuildRepository()
}

// BuildRepository creates the repository with a concrete return type.
func (b *RepositoryBuilder) BuildRepository() *doubles.StubGitRepository {
	return &doubles.StubGitRepository{
		RepoPath:   b.path,
		Branch:     b.branch,
		TagList:    append([]string(nil), b.tags...),
		Distance:   b.distance,
		Dirty:      b.dirty,
		Contents:   map[string][]byte{entities.ManifestFile: []byte(b.manifest())},
		RemoteList: append([]entities.Remote(nil), b.remotes...),
	}
}

func (b *RepositoryBuilder) manifest() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[project]\nname = %q\n", b.name)
	if len(b.dependencies) > 0 {
		sb.WriteString("dependencies = [\n")
		for _, dep := range b.dependencies {
			fmt.Fprintf(&sb, "    %q,\n", dep)
		}
		sb.WriteString("]\n")
	}
	if b.scheme != "" {
		fmt.Fprintf(&sb, "\n[tool.setuptools_scm]\nversion_scheme = %q\n", b.scheme)
	}
	return sb.String()
}

// Reset clears the builder state, allowing it to be reused.
func (b *RepositoryBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	fresh := NewRepositoryBuilder(b.name)
	fresh.BaseBuilder = b.BaseBuilder
	*b = *fresh
	return b
}

// Clone creates a deep copy of the RepositoryBuilder.
func (b *RepositoryBuilder) Clone() testkit.Builder {
	return &RepositoryBuilder{
		BaseBuilder:  b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		path:         b.path,
		name:         b.name,
		branch:       b.branch,
		tags:         append([]string(nil), b.tags...),
		distance:     b.distance,
		dirty:        b.dirty,
		dependencies: append([]string(nil), b.dependencies...),
		scheme:       b.scheme,
		remotes:      append([]entities.Remote(nil), b.remotes...),
	}
}
