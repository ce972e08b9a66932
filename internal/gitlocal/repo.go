package gitlocal

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Repository is a local working tree, used to link a locally indexed
// project back to its hosting URL.
type Repository struct {
	repo *git.Repository
	path string
}

func OpenRepo(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	repo, err := git.PlainOpen(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", absPath, err)
	}

	return &Repository{
		repo: repo,
		path: absPath,
	}, nil
}

func (r *Repository) Path() string {
	return r.path
}

// RemoteURL returns the first URL of the origin remote, or "" when the
// repository has no origin.
func (r *Repository) RemoteURL() string {
	remote, err := r.repo.Remote("origin")
	if err != nil {
		return ""
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

// Name derives a project name: the last path segment of the origin URL if
// one exists, otherwise the directory name.
func (r *Repository) Name() string {
	if url := r.RemoteURL(); url != "" {
		url = strings.TrimSuffix(url, "/")
		url = strings.TrimSuffix(url, ".git")
		if idx := strings.LastIndexAny(url, "/:"); idx >= 0 {
			return url[idx+1:]
		}
	}
	return filepath.Base(r.path)
}
