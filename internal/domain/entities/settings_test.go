//go:build unit

package entities_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
)

const pyprojectConfig = `[project]
name = "release-tools"

[tool.conductor]
packagename_regex = "spine[_a-z]+"
validation_patterns = ["**/CHANGELOG.md"]

[tool.conductor.repos]
spinetoolbox = "repos/toolbox"
spine_items = "repos/items"
spine_engine = "/abs/engine"

[tool.conductor.branches]
spine_engine = "release-0.9"

[tool.conductor.dependency_graph]
spinetoolbox = ["spine_items", "spine_engine"]
spine_items = ["spinetoolbox", "spine_engine"]
spine_engine = []
`

const yamlConfig = `packagename_regex: "spine[_a-z]+"
default_branch: main
repos:
  spine_items: repos/items
  spinetoolbox: repos/toolbox
dependency_graph:
  spinetoolbox: [spine_items]
  spine_items: []
`

func writeSettings(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewSettings(t *testing.T) {
	t.Parallel()

	t.Run("should read the tool.conductor section of a pyproject", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeSettings(t, "pyproject.toml", pyprojectConfig)
		dir := filepath.Dir(path)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"spinetoolbox", "spine_items", "spine_engine"}, settings.Order)
		assert.Equal(t, filepath.Join(dir, "repos", "toolbox"), settings.Repos["spinetoolbox"])
		assert.Equal(t, "/abs/engine", settings.Repos["spine_engine"])
		assert.Equal(t, "master", settings.DefaultBranch)
		assert.Equal(t, map[string]string{
			"spinetoolbox": "master",
			"spine_items":  "master",
			"spine_engine": "release-0.9",
		}, settings.Branches)
		assert.True(t, settings.DependencyGraph.IsCircular("spinetoolbox"))
		assert.False(t, settings.DependencyGraph.IsCircular("spine_engine"))
	})

	t.Run("should read a YAML document with keys at the root", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeSettings(t, ".conductor.yaml", yamlConfig)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"spine_items", "spinetoolbox"}, settings.Order)
		assert.Equal(t, "main", settings.DefaultBranch)
		assert.Equal(t, "main", settings.Branches["spinetoolbox"])
	})

	t.Run("should return ConfigErr when a pyproject has no tool.conductor section", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeSettings(t, "pyproject.toml", "[project]\nname = \"x\"\n")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.ConfigErr, entities.CodeOf(err))
		assert.Contains(t, err.Error(), "tool.conductor")
	})

	t.Run("should return ConfigErr naming a missing key", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeSettings(t, "conductor.toml", "packagename_regex = \"spine\"\n[repos]\nspine = \".\"\n")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.ConfigErr, entities.CodeOf(err))
		assert.Contains(t, err.Error(), "dependency_graph")
	})

	t.Run("should report every offending section at once", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeSettings(t, "conductor.toml", `packagename_regex = "spine[_a-z]+"
[repos]
spinetoolbox = "a"
toolbox = "b"
[branches]
engine = "main"
[dependency_graph]
spinetoolbox = ["spine_missing"]
toolbox = []
`)

		// when
		_, err := entities.NewSettings(path)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.ConfigErr, entities.CodeOf(err))
		assert.Contains(t, err.Error(), "Unknown package names in 'tool.conductor.repos': toolbox")
		assert.Contains(t, err.Error(), "Unknown package names in 'tool.conductor.branches': engine")
		assert.Contains(t, err.Error(), "Unknown package names in 'tool.conductor.dependency_graph': toolbox")
		assert.Contains(t, err.Error(), "spinetoolbox -> spine_missing")
	})

	t.Run("should return ConfigErr for an invalid name pattern", func(t *testing.T) {
		t.Parallel()

		// given
		path := writeSettings(t, "conductor.toml",
			"packagename_regex = \"spine**\"\n[repos]\n[dependency_graph]\n")

		// when
		_, err := entities.NewSettings(path)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.ConfigErr, entities.CodeOf(err))
	})

	t.Run("should return ConfigErr for an unreadable file", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := entities.NewSettings(filepath.Join(t.TempDir(), "nope.toml"))

		// then
		require.Error(t, err)
		assert.Equal(t, entities.ConfigErr, entities.CodeOf(err))
	})
}

//nolint:paralleltest // t.Setenv cannot run in parallel
func TestNewSettingsExpandsEnvironment(t *testing.T) {
	// given
	t.Setenv("CONDUCTOR_SRC", "/work/src")
	path := writeSettings(t, "conductor.toml", `packagename_regex = "spine"
[repos]
spine = "${CONDUCTOR_SRC}/spine"
[dependency_graph]
spine = []
`)

	// when
	settings, err := entities.NewSettings(path)

	// then
	require.NoError(t, err)
	assert.Equal(t, "/work/src/spine", settings.Repos["spine"])
}

func TestSettingsFilter(t *testing.T) {
	t.Parallel()

	load := func(t *testing.T) *entities.Settings {
		t.Helper()
		settings, err := entities.NewSettings(writeSettings(t, "pyproject.toml", pyprojectConfig))
		require.NoError(t, err)
		return settings
	}

	t.Run("should keep only the named packages", func(t *testing.T) {
		t.Parallel()

		// given
		settings := load(t)

		// when
		filtered, err := settings.Filter([]string{"spine_engine", "spinetoolbox"}, nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"spinetoolbox", "spine_engine"}, filtered.Order)
		assert.Len(t, filtered.Repos, 2)
		assert.Len(t, filtered.DependencyGraph, 3)
		assert.Len(t, settings.Order, 3)
	})

	t.Run("should drop the excluded packages", func(t *testing.T) {
		t.Parallel()

		// given
		settings := load(t)

		// when
		filtered, err := settings.Filter(nil, []string{"spine_items"})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"spinetoolbox", "spine_engine"}, filtered.Order)
		packages := filtered.Packages()
		require.Len(t, packages, 2)
		assert.Equal(t, "release-0.9", packages[1].Branch)
		assert.Equal(t, []string{"spine_items", "spine_engine"}, packages[0].Dependencies)
	})

	t.Run("should return UserInputErr when both filters are given", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := load(t).Filter([]string{"spinetoolbox"}, []string{"spine_items"})

		// then
		require.Error(t, err)
		assert.Equal(t, entities.UserInputErr, entities.CodeOf(err))
	})

	t.Run("should return ConfigErr for an unknown package", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := load(t).Filter([]string{"spine_database"}, nil)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.ConfigErr, entities.CodeOf(err))
	})
}

func TestSettingsNeedsValidation(t *testing.T) {
	t.Parallel()

	// given
	settings, err := entities.NewSettings(writeSettings(t, "pyproject.toml", pyprojectConfig))
	require.NoError(t, err)

	// then
	assert.True(t, settings.NeedsValidation("CHANGELOG.md"))
	assert.True(t, settings.NeedsValidation("docs/CHANGELOG.md"))
	assert.False(t, settings.NeedsValidation("pyproject.toml"))
}
