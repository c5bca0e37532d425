package gogit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	logger "github.com/sirupsen/logrus"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	"github.com/spine-tools/spine-conductor/internal/domain/repositories"
)

const (
	defaultFileMode = 0o644
	originRemote    = "origin"
)

// GitRepository implements repositories.GitRepository on top of go-git. It
// never shells out to git, so commit hooks are never run.
type GitRepository struct {
	path string
	repo *git.Repository
}

var _ repositories.GitRepository = (*GitRepository)(nil)

// NewGitRepository opens the working tree at path.
func NewGitRepository(path string) (repositories.GitRepository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	return &GitRepository{path: path, repo: repo}, nil
}

// Wrap adapts an already opened go-git repository.
func Wrap(path string, repo *git.Repository) *GitRepository {
	return &GitRepository{path: path, repo: repo}
}

func (r *GitRepository) Path() string { return r.path }

func (r *GitRepository) GitDir() string {
	if storage, ok := r.repo.Storer.(*filesystem.Storage); ok {
		return storage.Filesystem().Root()
	}
	return filepath.Join(r.path, git.GitDirName)
}

func (r *GitRepository) ActiveBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash().String()[:7])
	}
	return head.Name().Short(), nil
}

func (r *GitRepository) Tags() ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	var tags []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (r *GitRepository) TagExists(name string) (bool, error) {
	_, err := r.repo.Tag(name)
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up tag %q: %w", name, err)
	}
	return true, nil
}

func (r *GitRepository) CommitDistance(tag string) (int, error) {
	head, err := r.repo.Head()
	if err != nil {
		return 0, fmt.Errorf("repository has no commits: %w", err)
	}

	released := make(map[plumbing.Hash]struct{})
	if tag != "" {
		tagHash, resolveErr := r.repo.ResolveRevision(plumbing.Revision("refs/tags/" + tag))
		if resolveErr != nil {
			return 0, fmt.Errorf("failed to resolve tag %q: %w", tag, resolveErr)
		}
		if collectErr := r.walk(*tagHash, func(c *object.Commit) {
			released[c.Hash] = struct{}{}
		}); collectErr != nil {
			return 0, collectErr
		}
	}

	distance := 0
	err = r.walk(head.Hash(), func(c *object.Commit) {
		if _, ok := released[c.Hash]; !ok {
			distance++
		}
	})
	return distance, err
}

func (r *GitRepository) walk(from plumbing.Hash, visit func(*object.Commit)) error {
	iter, err := r.repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return fmt.Errorf("failed to read history from %s: %w", from, err)
	}
	defer iter.Close()
	return iter.ForEach(func(c *object.Commit) error {
		visit(c)
		return nil
	})
}

func (r *GitRepository) worktreeStatus() (*git.Worktree, git.Status, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read status: %w", err)
	}
	return wt, status, nil
}

func (r *GitRepository) IsDirty() (bool, error) {
	_, status, err := r.worktreeStatus()
	if err != nil {
		return false, err
	}
	for _, file := range status {
		if isTrackedChange(file.Staging) || isTrackedChange(file.Worktree) {
			return true, nil
		}
	}
	return false, nil
}

func isTrackedChange(code git.StatusCode) bool {
	return code != git.Unmodified && code != git.Untracked
}

func (r *GitRepository) Status() ([]entities.FileStatus, error) {
	_, status, err := r.worktreeStatus()
	if err != nil {
		return nil, err
	}
	files := make([]entities.FileStatus, 0, len(status))
	for path, file := range status {
		if file.Staging == git.Unmodified && file.Worktree == git.Unmodified {
			continue
		}
		files = append(files, entities.FileStatus{
			Path:     path,
			Staging:  byte(file.Staging),
			Worktree: byte(file.Worktree),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (r *GitRepository) StatusText() (string, error) {
	branch, err := r.ActiveBranch()
	if err != nil {
		branch = "HEAD (no branch)"
	}
	files, err := r.Status()
	if err != nil {
		return "", err
	}
	lines := []string{"## " + branch}
	for _, file := range files {
		lines = append(lines, file.String())
	}
	return strings.Join(lines, "\n"), nil
}

func (r *GitRepository) Stage(paths ...string) error {
	wt, status, err := r.worktreeStatus()
	if err != nil {
		return err
	}
	for _, path := range paths {
		if file, ok := status[path]; ok && file.Worktree == git.Deleted {
			if _, rmErr := wt.Remove(path); rmErr != nil {
				return fmt.Errorf("failed to stage removal of %q: %w", path, rmErr)
			}
			continue
		}
		if _, addErr := wt.Add(path); addErr != nil {
			return fmt.Errorf("failed to stage %q: %w", path, addErr)
		}
	}
	return nil
}

func (r *GitRepository) StagedCount() (int, error) {
	_, status, err := r.worktreeStatus()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, file := range status {
		if isTrackedChange(file.Staging) {
			count++
		}
	}
	return count, nil
}

func (r *GitRepository) Commit(message string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	hash, err := wt.Commit(message, &git.CommitOptions{})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	logger.Debugf("Committed %s in %s", hash.String()[:7], r.path)
	return nil
}

func (r *GitRepository) CreateTag(name string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if _, err = r.repo.CreateTag(name, head.Hash(), nil); err != nil {
		if errors.Is(err, git.ErrTagExists) {
			return fmt.Errorf("%q: %w", name, entities.ErrTagExists)
		}
		return fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	return nil
}

func (r *GitRepository) ReadFile(name string) ([]byte, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	return util.ReadFile(wt.Filesystem, name)
}

func (r *GitRepository) WriteFile(name string, data []byte) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	mode := os.FileMode(defaultFileMode)
	if info, statErr := wt.Filesystem.Stat(name); statErr == nil {
		mode = info.Mode().Perm()
	}
	return util.WriteFile(wt.Filesystem, name, data, mode)
}

func (r *GitRepository) Remotes() ([]entities.Remote, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("failed to list remotes: %w", err)
	}
	result := make([]entities.Remote, 0, len(remotes))
	for _, remote := range remotes {
		cfg := remote.Config()
		url := ""
		if len(cfg.URLs) > 0 {
			url = cfg.URLs[0]
		}
		result = append(result, entities.Remote{Name: cfg.Name, URL: url})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if (result[i].Name == originRemote) != (result[j].Name == originRemote) {
			return result[i].Name == originRemote
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (r *GitRepository) Push(ctx context.Context, remote string, refspecs ...string) error {
	specs := make([]config.RefSpec, 0, len(refspecs))
	for _, spec := range refspecs {
		refspec := config.RefSpec(spec)
		if err := refspec.Validate(); err != nil {
			return fmt.Errorf("invalid refspec %q: %w", spec, err)
		}
		specs = append(specs, refspec)
	}

	err := r.repo.PushContext(ctx, &git.PushOptions{RemoteName: remote, RefSpecs: specs})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to push %v to %q: %w", refspecs, remote, err)
	}
	return nil
}
