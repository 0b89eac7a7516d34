package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grit-vcs/grit/pkg/object"
)

// Repo is an opened repository. Every operation takes its paths from the
// explicit RootDir/GitDir fields; nothing depends on the process working
// directory.
type Repo struct {
	RootDir string
	GitDir  string
	Store   *object.Store
}

// Init creates a new repository at path: .git/objects, .git/refs, and a
// HEAD pointing at refs/heads/main. Returns an error if a .git directory
// already exists.
func Init(path string) (*Repo, error) {
	gitDir := filepath.Join(path, ".git")

	if _, err := os.Stat(gitDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", gitDir)
	}

	dirs := []string{
		filepath.Join(gitDir, "objects"),
		filepath.Join(gitDir, "refs"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	headPath := filepath.Join(gitDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	return &Repo{
		RootDir: path,
		GitDir:  gitDir,
		Store:   object.NewStore(gitDir),
	}, nil
}

// Open searches upward from path for a .git directory and opens the
// repository. Returns an error if no .git directory is found.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gitDir := filepath.Join(cur, ".git")
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			return &Repo{
				RootDir: cur,
				GitDir:  gitDir,
				Store:   object.NewStore(gitDir),
			}, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a git repository (or any parent up to /)")
		}
		cur = parent
	}
}
