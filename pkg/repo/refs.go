package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grit-vcs/grit/pkg/object"
)

// Head reads .git/HEAD. If the content starts with "ref: ", it returns
// the ref path (e.g. "refs/heads/main"). Otherwise the raw content is
// returned as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.GitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if rest, ok := strings.CutPrefix(content, "ref: "); ok {
		return rest, nil
	}
	return content, nil
}

// WriteSymbolicHead points HEAD at the given ref path.
func (r *Repo) WriteSymbolicHead(refName string) error {
	headPath := filepath.Join(r.GitDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: "+refName+"\n"), 0o644); err != nil {
		return fmt.Errorf("write HEAD: %w", err)
	}
	return nil
}

// ResolveRef resolves a ref name to an object hash.
//
// Resolution order:
//  1. "HEAD" reads HEAD; a symbolic HEAD resolves its target ref.
//  2. Names starting with "refs/" read .git/<name>.
//  3. Anything else tries "refs/heads/<name>".
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(head, "refs/") {
			return r.ResolveRef(head)
		}
		return object.Hash(head), nil
	}

	var refPath string
	if strings.HasPrefix(name, "refs/") {
		refPath = filepath.Join(r.GitDir, name)
	} else {
		refPath = filepath.Join(r.GitDir, "refs", "heads", name)
	}

	data, err := os.ReadFile(refPath)
	if err != nil {
		return "", fmt.Errorf("resolve ref %q: %w", name, err)
	}
	return object.Hash(strings.TrimRight(string(data), "\n")), nil
}

// UpdateRef writes a hash to the named ref file under .git/. Parent
// directories are created as needed. A single-actor direct write is
// sufficient here; no lockfile discipline is required.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	refPath := filepath.Join(r.GitDir, name)
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}
	if err := os.WriteFile(refPath, []byte(string(h)+"\n"), 0o644); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	return nil
}
