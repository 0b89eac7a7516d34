package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grit-vcs/grit/pkg/object"
)

// WriteWorkdirTree snapshots the working directory into the object store,
// writing blobs for files and tree objects for directories bottom-up, and
// returns the root tree hash. The .git directory is skipped. Entry order
// inside each tree body is handled by the tree codec, so byte-identical
// directories always produce the same root hash.
func (r *Repo) WriteWorkdirTree() (object.Hash, error) {
	return r.writeTreeDir(r.RootDir)
}

func (r *Repo) writeTreeDir(dir string) (object.Hash, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("write tree: read dir %q: %w", dir, err)
	}

	var entries []object.TreeEntry
	for _, de := range dirents {
		if de.Name() == ".git" {
			continue
		}
		full := filepath.Join(dir, de.Name())

		if de.IsDir() {
			subHash, err := r.writeTreeDir(full)
			if err != nil {
				return "", err
			}
			entries = append(entries, object.TreeEntry{
				Mode: object.TreeModeDir,
				Name: de.Name(),
				OID:  subHash,
			})
			continue
		}

		data, err := os.ReadFile(full)
		if err != nil {
			return "", fmt.Errorf("write tree: read %q: %w", full, err)
		}
		blobHash, err := r.Store.WriteBlob(&object.Blob{Data: data})
		if err != nil {
			return "", fmt.Errorf("write tree: store blob %q: %w", full, err)
		}

		info, err := de.Info()
		if err != nil {
			return "", fmt.Errorf("write tree: stat %q: %w", full, err)
		}
		mode := object.TreeModeFile
		if info.Mode()&0o111 != 0 {
			mode = object.TreeModeExecutable
		}
		entries = append(entries, object.TreeEntry{
			Mode: mode,
			Name: de.Name(),
			OID:  blobHash,
		})
	}

	h, err := r.Store.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		return "", fmt.Errorf("write tree %q: %w", dir, err)
	}
	return h, nil
}
