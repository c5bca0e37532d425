package entities

import "fmt"

// FileStatus is one line of a short status listing: X is the index state, Y the
// worktree state, using git's porcelain letters.
type FileStatus struct {
	Path     string
	Staging  byte
	Worktree byte
}

// String renders the status the way `git status --short` does.
func (f FileStatus) String() string {
	return fmt.Sprintf("%c%c %s", f.Staging, f.Worktree, f.Path)
}

// IsModifiedInWorktree reports unstaged changes, untracked files included.
func (f FileStatus) IsModifiedInWorktree() bool {
	return f.Worktree != ' '
}

// Remote is a configured git remote.
type Remote struct {
	Name string
	URL  string
}
