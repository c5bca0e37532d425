//go:build unit

package terminal_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	"github.com/spine-tools/spine-conductor/internal/infrastructure/repositories/terminal"
)

func TestParseSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		answer string
		want   []int
	}{
		{name: "should select nothing on an empty answer", answer: "\n", want: []int{}},
		{name: "should accept comma separated indices", answer: "0,2\n", want: []int{0, 2}},
		{name: "should accept mixed separators", answer: " 2, 0\t1 \r\n", want: []int{2, 0, 1}},
		{name: "should drop repeated indices", answer: "1 1,1", want: []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			selected, err := terminal.ParseSelection(tt.answer, 3)

			// then
			require.NoError(t, err)
			assert.Equal(t, tt.want, selected)
		})
	}

	t.Run("should return UserInputErr for a non-integer", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := terminal.ParseSelection("0, pyproject.toml", 3)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.UserInputErr, entities.CodeOf(err))
	})

	t.Run("should return UserInputErr for an out of range index", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := terminal.ParseSelection("3", 3)

		// then
		require.Error(t, err)
		assert.Equal(t, entities.UserInputErr, entities.CodeOf(err))
	})
}

func TestOperatorRepositoryChoose(t *testing.T) {
	t.Parallel()

	t.Run("should print the indexed choices and read one answer", func(t *testing.T) {
		t.Parallel()

		// given
		out := &bytes.Buffer{}
		operator := terminal.NewScriptedOperatorRepository(strings.NewReader("1\n0\n"), out)

		// when
		selected, err := operator.Choose(context.Background(), "Select the files", []string{"CHANGELOG.md", "docs/conf.py"})

		// then
		require.NoError(t, err)
		assert.Equal(t, []int{1}, selected)
		assert.Contains(t, out.String(), "Select the files")
		assert.Contains(t, out.String(), "CHANGELOG.md")
		assert.Contains(t, out.String(), "docs/conf.py")
	})

	t.Run("should accept an answer without a trailing newline", func(t *testing.T) {
		t.Parallel()

		// given
		operator := terminal.NewScriptedOperatorRepository(strings.NewReader("0 1"), &bytes.Buffer{})

		// when
		selected, err := operator.Choose(context.Background(), "Select", []string{"a", "b"})

		// then
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, selected)
	})

	t.Run("should return UserInputErr without a terminal", func(t *testing.T) {
		t.Parallel()

		// given
		operator := terminal.NewDetachedOperatorRepository(&bytes.Buffer{})

		// when
		_, err := operator.Choose(context.Background(), "Select", []string{"a"})

		// then
		require.Error(t, err)
		assert.Equal(t, entities.UserInputErr, entities.CodeOf(err))
	})

	t.Run("should stop on a cancelled context", func(t *testing.T) {
		t.Parallel()

		// given
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		operator := terminal.NewScriptedOperatorRepository(strings.NewReader("0\n"), &bytes.Buffer{})

		// when
		_, err := operator.Choose(ctx, "Select", []string{"a"})

		// then
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestResolveEditor(t *testing.T) {
	t.Parallel()

	env := func(values map[string]string) func(string) string {
		return func(key string) string { return values[key] }
	}

	tests := []struct {
		name       string
		env        map[string]string
		coreEditor string
		want       string
	}{
		{
			name:       "should prefer GIT_EDITOR",
			env:        map[string]string{"GIT_EDITOR": "nano", "VISUAL": "code --wait", "EDITOR": "vim"},
			coreEditor: "emacs",
			want:       "nano",
		},
		{
			name:       "should use core.editor before VISUAL",
			env:        map[string]string{"VISUAL": "code --wait", "EDITOR": "vim"},
			coreEditor: "emacs",
			want:       "emacs",
		},
		{
			name: "should use VISUAL before EDITOR",
			env:  map[string]string{"VISUAL": "code --wait", "EDITOR": "vim"},
			want: "code --wait",
		},
		{
			name: "should skip blank values",
			env:  map[string]string{"GIT_EDITOR": "  ", "EDITOR": "vim"},
			want: "vim",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			editor := terminal.ResolveEditor(env(tt.env), tt.coreEditor)

			// then
			assert.Equal(t, tt.want, editor)
		})
	}

	t.Run("should fall back to the platform default", func(t *testing.T) {
		t.Parallel()

		// when
		editor := terminal.ResolveEditor(env(nil), "")

		// then
		if runtime.GOOS == "windows" {
			assert.Equal(t, "notepad", editor)
		} else {
			assert.Equal(t, "vi", editor)
		}
	})
}

func TestOperatorRepositoryEdit(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("editor scripts need a POSIX shell")
	}

	editorEnv := func(editor string) func(string) string {
		return func(key string) string {
			if key == "GIT_EDITOR" {
				return editor
			}
			return ""
		}
	}

	//nolint:paralleltest // exec of a freshly written script races with concurrent forks
	t.Run("should return the text the editor saved", func(t *testing.T) {
		// given
		dir := t.TempDir()
		script := filepath.Join(dir, "editor.sh")
		require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf 'Release 0.8.0\\n\\nBump deps\\n' > \"$1\"\n"), 0o755))
		operator := terminal.NewScriptedOperatorRepository(strings.NewReader(""), &bytes.Buffer{}).
			WithEnvironment(editorEnv(script), "")
		path := filepath.Join(dir, "COMMIT_EDITMSG")

		// when
		edited, err := operator.Edit(context.Background(), path, "Release 0.8.0\n# comment\n")

		// then
		require.NoError(t, err)
		assert.Equal(t, "Release 0.8.0\n\nBump deps\n", edited)
	})

	t.Run("should keep the template when the editor saves nothing", func(t *testing.T) {
		t.Parallel()

		// given
		operator := terminal.NewScriptedOperatorRepository(strings.NewReader(""), &bytes.Buffer{}).
			WithEnvironment(editorEnv("true"), "")
		path := filepath.Join(t.TempDir(), "COMMIT_EDITMSG")

		// when
		edited, err := operator.Edit(context.Background(), path, "Release 0.8.0\n")

		// then
		require.NoError(t, err)
		assert.Equal(t, "Release 0.8.0\n", edited)
	})

	t.Run("should return ErrEditorCancelled when the editor fails", func(t *testing.T) {
		t.Parallel()

		// given
		operator := terminal.NewScriptedOperatorRepository(strings.NewReader(""), &bytes.Buffer{}).
			WithEnvironment(editorEnv("false"), "")
		path := filepath.Join(t.TempDir(), "COMMIT_EDITMSG")

		// when
		_, err := operator.Edit(context.Background(), path, "Release 0.8.0\n")

		// then
		assert.ErrorIs(t, err, entities.ErrEditorCancelled)
	})
}
