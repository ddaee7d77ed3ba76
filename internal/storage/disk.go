package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Disk stores uploaded files under a fixed directory with random names,
// preserving the original extension. Collisions are not checked; the random
// space makes them negligible.
type Disk struct {
	dir          string
	publicPrefix string
}

// NewDisk creates the uploads directory if needed and returns a Disk rooted
// there. publicPrefix is the URL prefix under which the directory is served.
func NewDisk(dir, publicPrefix string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Disk{dir: dir, publicPrefix: publicPrefix}, nil
}

// Save writes src to a randomly named file and returns its public path.
func (d *Disk) Save(src io.Reader, originalName string) (string, error) {
	id := uuid.New()
	filename := fmt.Sprintf("%x%s", id[:], filepath.Ext(originalName))

	dst, err := os.Create(filepath.Join(d.dir, filename))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return d.publicPrefix + "/" + filename, nil
}
