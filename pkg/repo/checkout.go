package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/grit-vcs/grit/pkg/object"
)

// CheckoutTree materializes the tree object rooted at h into dir:
// directory entries are created and recursed into, file entries are
// written with their blob content and the permission bits carried in the
// low 9 bits of the entry mode. Errors from missing or malformed objects
// propagate from the store and tree codec.
func (r *Repo) CheckoutTree(h object.Hash, dir string) error {
	tree, err := r.Store.ReadTree(h)
	if err != nil {
		return fmt.Errorf("checkout tree %s: %w", h, err)
	}

	for _, entry := range tree.Entries {
		target := filepath.Join(dir, entry.Name)

		if entry.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("checkout: mkdir %q: %w", target, err)
			}
			if err := r.CheckoutTree(entry.OID, target); err != nil {
				return err
			}
			continue
		}

		blob, err := r.Store.ReadBlob(entry.OID)
		if err != nil {
			return fmt.Errorf("checkout: read blob for %q: %w", entry.Name, err)
		}
		if err := os.WriteFile(target, blob.Data, filePermFromMode(entry.Mode)); err != nil {
			return fmt.Errorf("checkout: write %q: %w", target, err)
		}
	}
	return nil
}

// filePermFromMode extracts the permission bits from a tree mode string
// such as "100644". Unparseable modes fall back to 0644.
func filePermFromMode(mode string) fs.FileMode {
	n, err := strconv.ParseUint(mode, 8, 32)
	if err != nil {
		return 0o644
	}
	perm := fs.FileMode(n) & fs.ModePerm
	if perm == 0 {
		return 0o644
	}
	return perm
}
