package content

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// GitSource shallow-clones a repository and serves its content directory as an FSStore.
type GitSource struct {
	URL    string
	Branch string
	// Subdir is the content directory inside the repository.
	Subdir string
	// Workspace is the clone target. Empty means a fresh temporary directory.
	Workspace string

	cloneDir string
	temp     bool
}

// Open clones the repository and returns the store over its content directory.
func (g *GitSource) Open(ctx context.Context) (*FSStore, error) {
	dir := g.Workspace
	if dir == "" {
		tmp, err := os.MkdirTemp("", "docsnap-git-*")
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create clone workspace").Build()
		}
		dir = tmp
		g.temp = true
	} else if err := os.RemoveAll(dir); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "reset clone workspace").
			WithContext("dir", dir).
			Build()
	}

	opts := &git.CloneOptions{
		URL:          g.URL,
		Depth:        1,
		SingleBranch: true,
		Tags:         git.NoTags,
	}
	if g.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(g.Branch)
	}
	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		g.cleanup(dir)
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "clone content repository").
			Retryable().
			WithContext("url", g.URL).
			WithContext("branch", g.Branch).
			Build()
	}
	g.cloneDir = dir

	return NewFSStore(filepath.Join(dir, filepath.FromSlash(g.Subdir)))
}

// Close removes the clone when it was placed in a temporary directory.
func (g *GitSource) Close() error {
	if g.cloneDir == "" {
		return nil
	}
	dir := g.cloneDir
	g.cloneDir = ""
	if !g.temp {
		return nil
	}
	return os.RemoveAll(dir)
}

func (g *GitSource) cleanup(dir string) {
	if g.temp {
		_ = os.RemoveAll(dir)
	}
}
