//go:build unit

package commands_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spine-tools/spine-conductor/internal/domain/commands"
	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	"github.com/spine-tools/spine-conductor/test/domain/entitybuilders"
	doubles "github.com/spine-tools/spine-conductor/test/infrastructure/repositorydoubles"
)

func writeSummaryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pkgtags.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPublishCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should push the branch and then the tag of summarized packages", func(t *testing.T) {
		t.Parallel()

		// given
		foo, bar, baz, settings := fooBarBaz()
		cmd := commands.NewPublishCommand(newFactory(foo, bar, baz), &doubles.StubOperatorRepository{})
		opts := commands.PublishOptions{InputPath: writeSummaryFile(t, `{"foo": "0.8.0"}`)}

		// when
		err := cmd.Execute(context.Background(), settings, opts)

		// then
		require.NoError(t, err)
		assert.Equal(t, []doubles.PushCall{
			{Remote: "origin", Refspecs: []string{"refs/heads/master:refs/heads/master"}},
			{Remote: "origin", Refspecs: []string{"refs/tags/0.8.0:refs/tags/0.8.0"}},
		}, foo.Pushes)
		assert.Empty(t, bar.Pushes)
		assert.Empty(t, baz.Pushes)
	})

	t.Run("should not push anything on a dry run", func(t *testing.T) {
		t.Parallel()

		// given
		foo, bar, baz, settings := fooBarBaz()
		cmd := commands.NewPublishCommand(newFactory(foo, bar, baz), &doubles.StubOperatorRepository{})
		opts := commands.PublishOptions{InputPath: writeSummaryFile(t, `{"foo": "0.8.0"}`), DryRun: true}

		// when
		err := cmd.Execute(context.Background(), settings, opts)

		// then
		require.NoError(t, err)
		assert.Empty(t, foo.Pushes)
	})

	t.Run("should return RemoteErr when the branch push fails", func(t *testing.T) {
		t.Parallel()

		// given
		foo, bar, baz, settings := fooBarBaz()
		foo.PushErrs = map[string]error{"refs/heads/": errors.New("rejected")}
		cmd := commands.NewPublishCommand(newFactory(foo, bar, baz), &doubles.StubOperatorRepository{})
		opts := commands.PublishOptions{InputPath: writeSummaryFile(t, `{"foo": "0.8.0"}`)}

		// when
		err := cmd.Execute(context.Background(), settings, opts)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.RemoteErr, entities.CodeOf(err))
		assert.Len(t, foo.Pushes, 1)
	})

	t.Run("should return DupTagErr when the tag push fails", func(t *testing.T) {
		t.Parallel()

		// given
		foo, bar, baz, settings := fooBarBaz()
		foo.PushErrs = map[string]error{"refs/tags/": errors.New("already exists")}
		cmd := commands.NewPublishCommand(newFactory(foo, bar, baz), &doubles.StubOperatorRepository{})
		opts := commands.PublishOptions{InputPath: writeSummaryFile(t, `{"foo": "0.8.0"}`)}

		// when
		err := cmd.Execute(context.Background(), settings, opts)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.DupTagErr, entities.CodeOf(err))
	})

	t.Run("should let the operator pick among several remotes", func(t *testing.T) {
		t.Parallel()

		// given
		foo := entitybuilders.NewRepositoryBuilder("foo").WithRemotes(
			entities.Remote{Name: "origin", URL: "git@github.com:spine-tools/foo.git"},
			entities.Remote{Name: "mirror", URL: "https://mirror.example.org/foo.git"},
		).BuildRepository()
		settings := entitybuilders.NewSettingsBuilder().WithPackage("foo", foo.RepoPath).BuildSettings()
		operator := &doubles.StubOperatorRepository{Selections: [][]int{{1}}}
		cmd := commands.NewPublishCommand(newFactory(foo), operator)
		opts := commands.PublishOptions{InputPath: writeSummaryFile(t, `{"foo": "0.2.0"}`)}

		// when
		err := cmd.Execute(context.Background(), settings, opts)

		// then
		require.NoError(t, err)
		require.Len(t, operator.Choices, 1)
		assert.Equal(t, []string{
			"origin: git@github.com:spine-tools/foo.git",
			"mirror: https://mirror.example.org/foo.git",
		}, operator.Choices[0])
		require.Len(t, foo.Pushes, 2)
		assert.Equal(t, "mirror", foo.Pushes[0].Remote)
	})

	t.Run("should return UserInputErr on an empty remote selection", func(t *testing.T) {
		t.Parallel()

		// given
		foo := entitybuilders.NewRepositoryBuilder("foo").WithRemotes(
			entities.Remote{Name: "origin", URL: "git@github.com:spine-tools/foo.git"},
			entities.Remote{Name: "mirror", URL: "https://mirror.example.org/foo.git"},
		).BuildRepository()
		settings := entitybuilders.NewSettingsBuilder().WithPackage("foo", foo.RepoPath).BuildSettings()
		cmd := commands.NewPublishCommand(newFactory(foo), &doubles.StubOperatorRepository{})
		opts := commands.PublishOptions{InputPath: writeSummaryFile(t, `{"foo": "0.2.0"}`)}

		// when
		err := cmd.Execute(context.Background(), settings, opts)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.UserInputErr, entities.CodeOf(err))
		assert.Empty(t, foo.Pushes)
	})

	t.Run("should return ConfigErr when the summary cannot be read", func(t *testing.T) {
		t.Parallel()

		// given
		_, _, _, settings := fooBarBaz()
		cmd := commands.NewPublishCommand(newFactory(), &doubles.StubOperatorRepository{})
		opts := commands.PublishOptions{InputPath: filepath.Join(t.TempDir(), "missing.json")}

		// when
		err := cmd.Execute(context.Background(), settings, opts)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.ConfigErr, entities.CodeOf(err))
	})

	t.Run("should do nothing for an empty summary", func(t *testing.T) {
		t.Parallel()

		// given
		foo, bar, baz, settings := fooBarBaz()
		factory := newFactory(foo, bar, baz)
		cmd := commands.NewPublishCommand(factory, &doubles.StubOperatorRepository{})
		opts := commands.PublishOptions{InputPath: writeSummaryFile(t, `{}`)}

		// when
		err := cmd.Execute(context.Background(), settings, opts)

		// then
		require.NoError(t, err)
		assert.Empty(t, factory.Opened)
	})
}
