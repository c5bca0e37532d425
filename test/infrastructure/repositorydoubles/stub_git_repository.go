//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	"github.com/spine-tools/spine-conductor/internal/domain/repositories"
)

// PushCall records one Push invocation.
type PushCall struct {
	Remote   string
	Refspecs []string
}

// StubGitRepository implements repositories.GitRepository in memory. Writing a
// file marks it modified, staging moves it to the index and committing clears
// the index, which is enough to drive the release engine end to end.
type StubGitRepository struct {
	// --- identity ---
	RepoPath string

	// --- ActiveBranch ---
	Branch    string
	BranchErr error

	// --- Tags / TagExists / CreateTag ---
	TagList      []string
	TagsErr      error
	CreatedTags  []string
	CreateTagErr error

	// --- CommitDistance / IsDirty ---
	Distance    int
	DistanceErr error
	Dirty       bool

	// --- Status / Stage / Commit ---
	Files     []entities.FileStatus
	StatusErr error
	Staged    []string
	StageErr  error
	Commits   []string
	CommitErr error

	// --- ReadFile / WriteFile ---
	Contents map[string][]byte
	Writes   map[string]int

	// --- Remotes / Push ---
	RemoteList []entities.Remote
	Pushes     []PushCall
	PushErrs   map[string]error // keyed by refspec prefix, e.g. "refs/tags/"
	TagLookups []string
}

var _ repositories.GitRepository = (*StubGitRepository)(nil)

func (r *StubGitRepository) Path() string   { return r.RepoPath }
func (r *StubGitRepository) GitDir() string { return r.RepoPath + "/.git" }

func (r *StubGitRepository) ActiveBranch() (string, error) {
	return r.Branch, r.BranchErr
}

func (r *StubGitRepository) Tags() ([]string, error) {
	return append([]string(nil), r.TagList...), r.TagsErr
}

func (r *StubGitRepository) TagExists(name string) (bool, error) {
	r.TagLookups = append(r.TagLookups, name)
	for _, tag := range r.TagList {
		if tag == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *StubGitRepository) CommitDistance(_ string) (int, error) {
	return r.Distance, r.DistanceErr
}

func (r *StubGitRepository) IsDirty() (bool, error) { return r.Dirty, nil }

func (r *StubGitRepository) Status() ([]entities.FileStatus, error) {
	if r.StatusErr != nil {
		return nil, r.StatusErr
	}
	files := append([]entities.FileStatus(nil), r.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (r *StubGitRepository) StatusText() (string, error) {
	files, err := r.Status()
	if err != nil {
		return "", err
	}
	lines := []string{"## " + r.Branch}
	for _, file := range files {
		lines = append(lines, file.String())
	}
	return strings.Join(lines, "\n"), nil
}

func (r *StubGitRepository) Stage(paths ...string) error {
	if r.StageErr != nil {
		return r.StageErr
	}
	for _, path := range paths {
		i := r.fileIndex(path)
		if i < 0 {
			return fmt.Errorf("pathspec %q did not match any files", path)
		}
		staging := r.Files[i].Worktree
		if staging == '?' {
			staging = 'A'
		}
		r.Files[i].Staging = staging
		r.Files[i].Worktree = ' '
		r.Staged = append(r.Staged, path)
	}
	return nil
}

func (r *StubGitRepository) StagedCount() (int, error) {
	count := 0
	for _, file := range r.Files {
		if file.Staging != ' ' && file.Staging != '?' {
			count++
		}
	}
	return count, nil
}

func (r *StubGitRepository) Commit(message string) error {
	if r.CommitErr != nil {
		return r.CommitErr
	}
	kept := r.Files[:0]
	for _, file := range r.Files {
		if file.Staging != ' ' && file.Staging != '?' {
			if file.Worktree == ' ' {
				continue
			}
			file.Staging = ' '
		}
		kept = append(kept, file)
	}
	r.Files = kept
	r.Commits = append(r.Commits, message)
	return nil
}

func (r *StubGitRepository) CreateTag(name string) error {
	if r.CreateTagErr != nil {
		return r.CreateTagErr
	}
	if exists, _ := r.TagExists(name); exists {
		return fmt.Errorf("%q: %w", name, entities.ErrTagExists)
	}
	r.TagList = append(r.TagList, name)
	r.CreatedTags = append(r.CreatedTags, name)
	return nil
}

func (r *StubGitRepository) ReadFile(name string) ([]byte, error) {
	data, ok := r.Contents[name]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (r *StubGitRepository) WriteFile(name string, data []byte) error {
	if r.Contents == nil {
		r.Contents = make(map[string][]byte)
	}
	if r.Writes == nil {
		r.Writes = make(map[string]int)
	}
	r.Contents[name] = append([]byte(nil), data...)
	r.Writes[name]++
	if i := r.fileIndex(name); i >= 0 {
		r.Files[i].Worktree = 'M'
	} else {
		r.Files = append(r.Files, entities.FileStatus{Path: name, Staging: ' ', Worktree: 'M'})
	}
	return nil
}

func (r *StubGitRepository) Remotes() ([]entities.Remote, error) {
	return append([]entities.Remote(nil), r.RemoteList...), nil
}

func (r *StubGitRepository) Push(_ context.Context, remote string, refspecs ...string) error {
	r.Pushes = append(r.Pushes, PushCall{Remote: remote, Refspecs: refspecs})
	for prefix, err := range r.PushErrs {
		for _, spec := range refspecs {
			if strings.HasPrefix(spec, prefix) {
				return err
			}
		}
	}
	return nil
}

func (r *StubGitRepository) fileIndex(path string) int {
	for i, file := range r.Files {
		if file.Path == path {
			return i
		}
	}
	return -1
}

// StubGitRepositoryFactory implements repositories.GitRepositoryFactory over a
// fixed set of repositories keyed by path.
type StubGitRepositoryFactory struct {
	Repositories map[string]*StubGitRepository
	OpenErr      error
	Opened       []string
}

var _ repositories.GitRepositoryFactory = (*StubGitRepositoryFactory)(nil)

func (f *StubGitRepositoryFactory) Open(path string) (repositories.GitRepository, error) {
	f.Opened = append(f.Opened, path)
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	repo, ok := f.Repositories[path]
	if !ok {
		return nil, entities.Errorf(entities.ConfigErr, "no repository at %q", path)
	}
	return repo, nil
}
