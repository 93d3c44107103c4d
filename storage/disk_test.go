package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisk_SaveAndOpen(t *testing.T) {
	req := require.New(t)
	disk, err := NewDisk(t.TempDir())
	req.NoError(err)

	ref, err := disk.Save(".pdf", strings.NewReader("%PDF-1.4 fake resume"))
	req.NoError(err)
	req.True(strings.HasPrefix(ref, "chat_files/"))
	req.True(strings.HasSuffix(ref, ".pdf"))

	f, err := disk.Open(ref)
	req.NoError(err)
	defer f.Close()
	content, err := io.ReadAll(f)
	req.NoError(err)
	req.Equal("%PDF-1.4 fake resume", string(content))
}

func TestDisk_SaveGeneratesUniqueReferences(t *testing.T) {
	req := require.New(t)
	disk, err := NewDisk(t.TempDir())
	req.NoError(err)

	first, err := disk.Save(".png", strings.NewReader("a"))
	req.NoError(err)
	second, err := disk.Save(".png", strings.NewReader("b"))
	req.NoError(err)
	req.NotEqual(first, second)
}

func TestDisk_OpenMissingReference(t *testing.T) {
	req := require.New(t)
	disk, err := NewDisk(t.TempDir())
	req.NoError(err)

	_, err = disk.Open("chat_files/ghost.pdf")
	req.Error(err)
}
