package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grit-vcs/grit/pkg/object"
)

func writeWorkFile(t *testing.T, root, rel, content string, perm os.FileMode) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), perm); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestWriteWorkdirTreeSingleFile(t *testing.T) {
	r := testRepo(t)
	writeWorkFile(t, r.RootDir, "f.txt", "1", 0o644)

	root, err := r.WriteWorkdirTree()
	if err != nil {
		t.Fatalf("WriteWorkdirTree: %v", err)
	}
	// Fixed expected hash: the tree holding exactly
	// (100644, "f.txt", SHA-1("blob 1\0" + "1")).
	if root != object.Hash("39339b1397e857d983b3c9463c63cbdbbf2be720") {
		t.Errorf("root tree: got %s", root)
	}

	tree, err := r.Store.ReadTree(root)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if len(tree.Entries) != 1 {
		t.Fatalf("entries: got %d, want 1", len(tree.Entries))
	}
	e := tree.Entries[0]
	if e.Mode != "100644" || e.Name != "f.txt" {
		t.Errorf("entry: got %+v", e)
	}
	if e.OID != object.Hash("56a6051ca2b02b04ef92d5150c9ef600403cb1de") {
		t.Errorf("blob OID: got %s", e.OID)
	}
}

func TestWriteWorkdirTreeNested(t *testing.T) {
	r := testRepo(t)
	writeWorkFile(t, r.RootDir, "a.txt", "x", 0o644)
	writeWorkFile(t, r.RootDir, "b.txt", "y", 0o644)
	writeWorkFile(t, r.RootDir, "d/c.txt", "z", 0o644)

	root, err := r.WriteWorkdirTree()
	if err != nil {
		t.Fatalf("WriteWorkdirTree: %v", err)
	}

	tree, err := r.Store.ReadTree(root)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if len(tree.Entries) != 3 {
		t.Fatalf("entries: got %d, want 3", len(tree.Entries))
	}
	// Raw name-byte order: b.txt sorts before d regardless of mode.
	wantNames := []string{"a.txt", "b.txt", "d"}
	for i, want := range wantNames {
		if tree.Entries[i].Name != want {
			t.Errorf("entry %d: got %q, want %q", i, tree.Entries[i].Name, want)
		}
	}
	if !tree.Entries[2].IsDir() {
		t.Error("d should be a subtree entry")
	}

	sub, err := r.Store.ReadTree(tree.Entries[2].OID)
	if err != nil {
		t.Fatalf("ReadTree(sub): %v", err)
	}
	if len(sub.Entries) != 1 || sub.Entries[0].Name != "c.txt" {
		t.Errorf("subtree entries: got %+v", sub.Entries)
	}
}

func TestWriteWorkdirTreeDeterministic(t *testing.T) {
	r1 := testRepo(t)
	r2 := testRepo(t)
	for _, r := range []*Repo{r1, r2} {
		writeWorkFile(t, r.RootDir, "a.txt", "same", 0o644)
		writeWorkFile(t, r.RootDir, "d/b.txt", "same too", 0o644)
	}

	h1, err := r1.WriteWorkdirTree()
	if err != nil {
		t.Fatalf("WriteWorkdirTree: %v", err)
	}
	h2, err := r2.WriteWorkdirTree()
	if err != nil {
		t.Fatalf("WriteWorkdirTree: %v", err)
	}
	if h1 != h2 {
		t.Errorf("identical directories hashed differently: %s vs %s", h1, h2)
	}
}

func TestWriteWorkdirTreeExecutableMode(t *testing.T) {
	r := testRepo(t)
	writeWorkFile(t, r.RootDir, "run.sh", "#!/bin/sh\n", 0o755)

	root, err := r.WriteWorkdirTree()
	if err != nil {
		t.Fatalf("WriteWorkdirTree: %v", err)
	}
	tree, err := r.Store.ReadTree(root)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if tree.Entries[0].Mode != object.TreeModeExecutable {
		t.Errorf("mode: got %s, want %s", tree.Entries[0].Mode, object.TreeModeExecutable)
	}
}

func TestWriteWorkdirTreeSkipsGitDir(t *testing.T) {
	r := testRepo(t)
	writeWorkFile(t, r.RootDir, "f.txt", "1", 0o644)

	root, err := r.WriteWorkdirTree()
	if err != nil {
		t.Fatalf("WriteWorkdirTree: %v", err)
	}
	tree, err := r.Store.ReadTree(root)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	for _, e := range tree.Entries {
		if e.Name == ".git" {
			t.Error("tree includes .git")
		}
	}
}
