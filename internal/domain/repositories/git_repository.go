package repositories

import (
	"context"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
)

// GitRepository abstracts one package's working tree. The release engine
// mutates its index, commits and tags but never creates or deletes it.
type GitRepository interface {
	// Path returns the working tree root.
	Path() string
	// GitDir returns the directory holding the repository metadata.
	GitDir() string

	// ActiveBranch returns the checked-out branch, or an error on a detached HEAD.
	ActiveBranch() (string, error)
	// Tags returns every tag name.
	Tags() ([]string, error)
	// TagExists reports whether name is already a tag.
	TagExists(name string) (bool, error)
	// CommitDistance counts commits reachable from HEAD but not from tag.
	// An empty tag counts every commit; a repository without commits is an error.
	CommitDistance(tag string) (int, error)
	// IsDirty reports modified tracked files; untracked files do not count.
	IsDirty() (bool, error)

	// Status lists changed and untracked files.
	Status() ([]entities.FileStatus, error)
	// StatusText renders Status with the branch header, like `git status -sb`.
	StatusText() (string, error)
	// Stage adds paths to the index.
	Stage(paths ...string) error
	// StagedCount returns the number of index entries differing from HEAD.
	StagedCount() (int, error)
	// Commit records the index with message. Hooks are never run.
	Commit(message string) error
	// CreateTag tags HEAD; it returns entities.ErrTagExists when name is taken.
	CreateTag(name string) error

	// ReadFile reads a file relative to the working tree root.
	ReadFile(name string) ([]byte, error)
	// WriteFile replaces a file relative to the working tree root.
	WriteFile(name string, data []byte) error

	// Remotes lists configured remotes, origin first.
	Remotes() ([]entities.Remote, error)
	// Push sends refspecs to remote.
	Push(ctx context.Context, remote string, refspecs ...string) error
}

// GitRepositoryFactory opens repositories by path.
type GitRepositoryFactory interface {
	Open(path string) (GitRepository, error)
}
