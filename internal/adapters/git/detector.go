// Package git runs the git binary for history, status and index changes, and
// uses go-git for read-only repository discovery and branch listing.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/xvierd/gitlanes/internal/domain"
	"github.com/xvierd/gitlanes/internal/ports"
)

// Detector implements the ports.RepositoryDetector interface using go-git.
type Detector struct{}

// NewDetector creates a new git detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Ensure Detector implements ports.RepositoryDetector.
var _ ports.RepositoryDetector = (*Detector)(nil)

// Detect opens the repository containing workingDir, or the current
// directory when it is empty, and reports its HEAD and local branches.
func (d *Detector) Detect(ctx context.Context, workingDir string) (*domain.RepositoryInfo, error) {
	repo, root, err := openRepository(workingDir)
	if err != nil {
		return nil, err
	}

	info := &domain.RepositoryInfo{Root: root, Name: filepath.Base(root)}
	if remotes, err := repo.Remotes(); err == nil && len(remotes) > 0 {
		if urls := remotes[0].Config().URLs; len(urls) > 0 {
			info.Name = remoteName(urls[0])
		}
	}

	head, err := repo.Head()
	switch {
	case err == nil:
		info.Head = head.Hash().String()
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		} else {
			info.Detached = true
			info.Branch = "HEAD detached"
		}
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		// unborn: HEAD names a branch that has no commits yet
		if ref, refErr := repo.Storer.Reference(plumbing.HEAD); refErr == nil {
			info.Branch = ref.Target().Short()
		}
	default:
		return nil, fmt.Errorf("failed to read HEAD of %s: %w", root, err)
	}

	if info.Branches, err = listBranches(repo, info.Branch); err != nil {
		return nil, err
	}
	return info, nil
}

// openRepository searches dir and its parents for a repository with a
// working tree and returns it with the tree's root.
func openRepository(dir string) (*git.Repository, string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, "", fmt.Errorf("%s: %w", abs, domain.ErrNotGitRepository)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open repository at %s: %w", abs, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		// bare repositories have nothing to stage
		return nil, "", fmt.Errorf("%s: %w", abs, domain.ErrNotGitRepository)
	}
	return repo, wt.Filesystem.Root(), nil
}

func listBranches(repo *git.Repository, current string) ([]domain.Branch, error) {
	iter, err := repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer iter.Close()

	var branches []domain.Branch
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		branches = append(branches, domain.Branch{
			Name:   name,
			Hash:   ref.Hash().String(),
			IsHead: name == current,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// IsAvailable reports whether the current directory is inside a working
// tree.
func (d *Detector) IsAvailable() bool {
	_, _, err := openRepository("")
	return err == nil
}

// GitDir returns the directory holding the repository's refs and index.
// Worktrees point at it through a "gitdir:" file.
func GitDir(root string) string {
	gitPath := filepath.Join(root, ".git")
	info, err := os.Stat(gitPath)
	if err != nil || info.IsDir() {
		return gitPath
	}
	content, err := os.ReadFile(gitPath)
	if err != nil {
		return gitPath
	}
	dir, ok := strings.CutPrefix(strings.TrimSpace(string(content)), "gitdir: ")
	if !ok {
		return gitPath
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return filepath.Clean(dir)
}

// remoteName reduces a remote URL to "owner/name". Local paths are
// returned unchanged.
func remoteName(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	switch {
	case strings.Contains(trimmed, "://"):
		_, trimmed, _ = strings.Cut(trimmed, "://")
	case strings.Contains(trimmed, "@") && strings.Contains(trimmed, ":"):
		// scp-like syntax, user@host:owner/name
		trimmed = strings.Replace(trimmed, ":", "/", 1)
	default:
		return url
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) < 3 {
		return url
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}

// IsValidCommitHash reports whether hash is a hex object name of at least
// seven digits.
func IsValidCommitHash(hash string) bool {
	if len(hash) < 7 || len(hash) > 64 {
		return false
	}
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
