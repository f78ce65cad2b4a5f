package fsutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// TempPath returns a unique sibling of final. Writing there and calling
// Publish makes the final path appear all at once.
func TempPath(final string) string {
	dir, base := filepath.Split(final)
	return filepath.Join(dir, "."+base+".tmp-"+uuid.New().String())
}

// Publish moves tmp into place at final.
func Publish(tmp, final string) error {
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", final, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("publishing %s: %w", final, err)
	}
	return nil
}

// WriteAtomic streams r into path through a temporary sibling. Nothing is
// left behind on failure.
func WriteAtomic(path string, r io.Reader, perm os.FileMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	tmp := TempPath(path)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp)
		}
	}()

	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return n, err
	}
	if err := f.Close(); err != nil {
		return n, err
	}
	if err := Publish(tmp, path); err != nil {
		return n, err
	}
	committed = true
	return n, nil
}

// WriteFileAtomic writes data to path through a temporary sibling.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	_, err := WriteAtomic(path, bytes.NewReader(data), perm)
	return err
}

// SameContent reports whether the file at path holds exactly data.
func SameContent(path string, data []byte) bool {
	existing, err := os.ReadFile(path)
	return err == nil && bytes.Equal(existing, data)
}
