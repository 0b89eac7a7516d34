package object

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir())
}

func TestStoreWriteRead(t *testing.T) {
	s := tempStore(t)
	data := []byte("hello world")
	h, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	gotType, gotData, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotType != TypeBlob {
		t.Errorf("Type: got %q, want %q", gotType, TypeBlob)
	}
	if !bytes.Equal(gotData, data) {
		t.Errorf("Data: got %q, want %q", gotData, data)
	}
}

func TestStoreRoundTripAllTypes(t *testing.T) {
	s := tempStore(t)
	for _, objType := range []ObjectType{TypeBlob, TypeTree, TypeCommit} {
		data := []byte("content for " + string(objType))
		h, err := s.Write(objType, data)
		if err != nil {
			t.Fatalf("Write(%s): %v", objType, err)
		}
		gotType, gotData, err := s.Read(h)
		if err != nil {
			t.Fatalf("Read(%s): %v", objType, err)
		}
		if gotType != objType || !bytes.Equal(gotData, data) {
			t.Errorf("round trip %s: got (%q, %q)", objType, gotType, gotData)
		}
	}
}

func TestStoreWriteIdempotent(t *testing.T) {
	s := tempStore(t)
	data := []byte("same content")
	h1, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("first Write: %v", err)
	}
	h2, err := s.Write(TypeBlob, data)
	if err != nil {
		t.Fatalf("second Write: %v", err)
	}
	if h1 != h2 {
		t.Errorf("Write not deterministic: %s != %s", h1, h2)
	}
}

func TestStoreFanOutLayout(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	h, err := s.Write(TypeBlob, []byte("layout"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := filepath.Join(dir, "objects", string(h[:2]), string(h[2:]))
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected loose object at %s: %v", path, err)
	}
}

func TestStoreHas(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("present"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !s.Has(h) {
		t.Error("Has returned false for a stored object")
	}
	if s.Has(Hash("0000000000000000000000000000000000000000")) {
		t.Error("Has returned true for a missing object")
	}
	if s.Has(Hash("not-a-hash")) {
		t.Error("Has returned true for a malformed hash")
	}
}

func TestStoreReadMissing(t *testing.T) {
	s := tempStore(t)
	if _, _, err := s.Read(Hash("0000000000000000000000000000000000000000")); err == nil {
		t.Error("Read of missing object succeeded")
	}
}

func TestStoreReadCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	tests := []struct {
		name string
		raw  []byte // uncompressed envelope written to disk
	}{
		{"no NUL", []byte("blob 5hello")},
		{"no space", []byte("blob5\x00hello")},
		{"bad length", []byte("blob x\x00hello")},
		{"length mismatch", []byte("blob 99\x00hello")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := HashBytes(tt.raw) // any well-formed address
			packed, err := compress(tt.raw)
			if err != nil {
				t.Fatalf("compress: %v", err)
			}
			objDir := filepath.Join(dir, "objects", string(h[:2]))
			if err := os.MkdirAll(objDir, 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			if err := os.WriteFile(filepath.Join(objDir, string(h[2:])), packed, 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}

			_, _, err = s.Read(h)
			if !errors.Is(err, ErrCorruptObject) {
				t.Errorf("Read: got %v, want ErrCorruptObject", err)
			}
		})
	}
}

func TestStoreTypedHelpers(t *testing.T) {
	s := tempStore(t)

	blobHash, err := s.WriteBlob(&Blob{Data: []byte("blob data")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	blob, err := s.ReadBlob(blobHash)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(blob.Data) != "blob data" {
		t.Errorf("blob data: got %q", blob.Data)
	}

	// Reading a blob as a tree is a type mismatch.
	if _, err := s.ReadTree(blobHash); err == nil {
		t.Error("ReadTree accepted a blob object")
	}

	tree := &TreeObj{Entries: []TreeEntry{{Mode: TreeModeFile, Name: "a.txt", OID: blobHash}}}
	treeHash, err := s.WriteTree(tree)
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	gotTree, err := s.ReadTree(treeHash)
	if err != nil {
		t.Fatalf("ReadTree: %v", err)
	}
	if len(gotTree.Entries) != 1 || gotTree.Entries[0].Name != "a.txt" {
		t.Errorf("tree entries: got %+v", gotTree.Entries)
	}

	commit := &CommitObj{
		TreeHash:    treeHash,
		Author:      "Ann Author",
		AuthorEmail: "ann@example.com",
		Timestamp:   1700000000,
		Timezone:    "+0100",
		Message:     "first",
	}
	commitHash, err := s.WriteCommit(commit)
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	gotCommit, err := s.ReadCommit(commitHash)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	if gotCommit.TreeHash != treeHash || gotCommit.Author != "Ann Author" {
		t.Errorf("commit: got %+v", gotCommit)
	}
}
