//go:build unit

package scheme_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	"github.com/spine-tools/spine-conductor/internal/domain/repositories"
	"github.com/spine-tools/spine-conductor/internal/infrastructure/repositories/scheme"
)

func TestBumpSchemeRepository(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scheme string
		part   entities.BumpPart
		state  entities.RepositoryState
		want   string
	}{
		{
			name:   "should bump the patch",
			scheme: scheme.GuessNextDev,
			part:   entities.BumpPatch,
			state:  entities.RepositoryState{CurrentTag: "0.7.2", Distance: 3},
			want:   "0.7.3",
		},
		{
			name:   "should bump a dirty tree without new commits",
			scheme: scheme.GuessNextDev,
			part:   entities.BumpPatch,
			state:  entities.RepositoryState{CurrentTag: "0.2.3", Dirty: true},
			want:   "0.2.4",
		},
		{
			name:   "should keep the current tag without changes",
			scheme: scheme.GuessNextDev,
			part:   entities.BumpPatch,
			state:  entities.RepositoryState{CurrentTag: "0.2.3"},
			want:   "0.2.3",
		},
		{
			name:   "should start from 0.0.0 without any tag",
			scheme: scheme.GuessNextDev,
			part:   entities.BumpPatch,
			state:  entities.RepositoryState{Distance: 5},
			want:   "0.0.1",
		},
		{
			name:   "should drop the v prefix of the tag",
			scheme: scheme.GuessNextDev,
			part:   entities.BumpPatch,
			state:  entities.RepositoryState{CurrentTag: "v2.0.1", Distance: 1},
			want:   "2.0.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			s := scheme.NewBumpSchemeRepository(tt.scheme, tt.part)

			// when
			next, err := s.NextVersion(tt.state)

			// then
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
			assert.Equal(t, tt.scheme, s.Name())
		})
	}

	t.Run("should fail on a tag that is not a version", func(t *testing.T) {
		t.Parallel()

		// given
		s := scheme.NewBumpSchemeRepository(scheme.GuessNextDev, entities.BumpPatch)

		// when
		_, err := s.NextVersion(entities.RepositoryState{CurrentTag: "nightly", Distance: 1})

		// then
		assert.Error(t, err)
	})
}

func TestAllSchemesNextVersion(t *testing.T) {
	t.Parallel()

	schemes := make(map[string]repositories.VersionSchemeRepository)
	for _, s := range scheme.All() {
		schemes[s.Name()] = s
	}

	tests := []struct {
		name   string
		scheme string
		state  entities.RepositoryState
		want   string
	}{
		{
			name:   "should bump the patch for guess-next-dev",
			scheme: scheme.GuessNextDev,
			state:  entities.RepositoryState{CurrentTag: "0.7.2", Distance: 3, Branch: "master"},
			want:   "0.7.3",
		},
		{
			name:   "should keep the base version for no-guess-dev",
			scheme: scheme.NoGuessDev,
			state:  entities.RepositoryState{CurrentTag: "0.7.2", Distance: 3, Branch: "master"},
			want:   "0.7.2",
		},
		{
			name:   "should keep the base version for post-release",
			scheme: scheme.PostRelease,
			state:  entities.RepositoryState{CurrentTag: "0.7.2", Distance: 3, Branch: "master"},
			want:   "0.7.2",
		},
		{
			name:   "should keep the tag for only-version",
			scheme: scheme.OnlyVersion,
			state:  entities.RepositoryState{CurrentTag: "1.4.0", Distance: 12, Dirty: true},
			want:   "1.4.0",
		},
		{
			name:   "should bump the minor for release-branch-semver on a development branch",
			scheme: scheme.ReleaseBranchSemver,
			state:  entities.RepositoryState{CurrentTag: "0.7.2", Distance: 3, Branch: "master"},
			want:   "0.8.0",
		},
		{
			name:   "should bump the patch for release-branch-semver on a matching release branch",
			scheme: scheme.ReleaseBranchSemver,
			state:  entities.RepositoryState{CurrentTag: "0.7.2", Distance: 3, Branch: "release-0.7"},
			want:   "0.7.3",
		},
		{
			name:   "should bump the patch for release-branch-semver on a namespaced maintenance branch",
			scheme: scheme.ReleaseBranchSemver,
			state:  entities.RepositoryState{CurrentTag: "v1.2.0", Distance: 1, Branch: "maint/v1.2.x"},
			want:   "1.2.1",
		},
		{
			name:   "should bump the minor for release-branch-semver when the branch version differs",
			scheme: scheme.ReleaseBranchSemver,
			state:  entities.RepositoryState{CurrentTag: "0.7.2", Distance: 3, Branch: "release-0.6"},
			want:   "0.8.0",
		},
		{
			name:   "should bump the minor for release-branch-semver on a detached HEAD",
			scheme: scheme.ReleaseBranchSemver,
			state:  entities.RepositoryState{CurrentTag: "0.7.2", Distance: 3},
			want:   "0.8.0",
		},
		{
			name:   "should bump the patch for python-simplified-semver off feature branches",
			scheme: scheme.PythonSimplifiedSemver,
			state:  entities.RepositoryState{CurrentTag: "0.7.2", Distance: 3, Branch: "master"},
			want:   "0.7.3",
		},
		{
			name:   "should bump the minor for python-simplified-semver on a feature branch",
			scheme: scheme.PythonSimplifiedSemver,
			state:  entities.RepositoryState{CurrentTag: "0.7.2", Distance: 3, Branch: "feature/db-mapping"},
			want:   "0.8.0",
		},
		{
			name:   "should keep the tag for release-branch-semver without changes",
			scheme: scheme.ReleaseBranchSemver,
			state:  entities.RepositoryState{CurrentTag: "0.2.3", Branch: "master"},
			want:   "0.2.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			s, ok := schemes[tt.scheme]
			require.True(t, ok)

			// when
			next, err := s.NextVersion(tt.state)

			// then
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
		})
	}
}

func TestAll(t *testing.T) {
	t.Parallel()

	// when
	schemes := scheme.All()

	// then
	names := make([]string, 0, len(schemes))
	for _, s := range schemes {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{
		scheme.GuessNextDev,
		scheme.NoGuessDev,
		scheme.PostRelease,
		scheme.ReleaseBranchSemver,
		scheme.PythonSimplifiedSemver,
		scheme.OnlyVersion,
	}, names)
}
