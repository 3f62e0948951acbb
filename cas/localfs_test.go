package cas

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/ipfs/go-cid"
)

func newStore(t *testing.T) (*LocalFS, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewLocalFS(root)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	return s, root
}

func TestLocalFS_PutGetHas(t *testing.T) {
	s, _ := newStore(t)
	data := []byte("payload bytes under test")

	id, err := s.Put(data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !id.Defined() {
		t.Fatalf("Put returned an undefined CID")
	}
	if !s.Has(id) {
		t.Fatalf("Has reports a stored object missing")
	}

	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("bytes changed through the store")
	}
}

func TestLocalFS_PutIsIdempotent(t *testing.T) {
	s, _ := newStore(t)
	data := []byte("same bytes twice")

	first, err := s.Put(data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	second, err := s.Put(data)
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if first != second {
		t.Fatalf("idempotent put returned different CIDs: %s vs %s", first, second)
	}
}

func TestLocalFS_GetMissing(t *testing.T) {
	s, _ := newStore(t)
	id, err := s.Put([]byte("present"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	other, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	if _, err := other.Get(id); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if other.Has(id) {
		t.Fatalf("Has reports a missing object present")
	}
	if _, err := s.Get(cid.Undef); !errors.Is(err, ErrInvalidCID) {
		t.Fatalf("expected ErrInvalidCID, got %v", err)
	}
}

// storedFile locates the single object file under root.
func storedFile(t *testing.T, root string) string {
	t.Helper()
	var path string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			path = p
		}
		return nil
	})
	if err != nil || path == "" {
		t.Fatalf("object file not found under %s: %v", root, err)
	}
	return path
}

func TestLocalFS_CorruptionDetected(t *testing.T) {
	s, root := newStore(t)
	data := []byte("bytes that will be corrupted")
	id, err := s.Put(data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	path := storedFile(t, root)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := os.WriteFile(path, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := s.Get(id); !errors.Is(err, ErrCIDMismatch) {
		t.Fatalf("expected ErrCIDMismatch, got %v", err)
	}
	// Re-putting the original bytes over a corrupted object is an
	// immutability violation, not a repair.
	if _, err := s.Put(data); !errors.Is(err, ErrImmutable) {
		t.Fatalf("expected ErrImmutable, got %v", err)
	}
}

func TestNewLocalFS_RequiresRoot(t *testing.T) {
	if _, err := NewLocalFS(""); err == nil {
		t.Fatalf("expected empty-root rejection")
	}
}
