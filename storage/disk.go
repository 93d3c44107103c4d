// Package storage persists chat attachments as opaque blobs on local
// disk. Metadata (which message owns which file) lives with the
// message itself; this layer only turns bytes into a stable reference.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

type Disk struct {
	root string
}

func NewDisk(root string) (Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Disk{}, fmt.Errorf("creating attachment dir: %w", err)
	}
	return Disk{root: root}, nil
}

// Save stores the blob under a fresh name and returns the reference
// recorded on the message, "chat_files/{uuid}{ext}". The extension is
// whatever content sniffing decided, not what the client claimed.
func (d Disk) Save(ext string, r io.Reader) (string, error) {
	name := uuid.NewString() + ext
	path := filepath.Join(d.root, name)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return "chat_files/" + name, nil
}

// Open resolves a reference produced by Save.
func (d Disk) Open(ref string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(d.root, filepath.Base(ref)))
}
