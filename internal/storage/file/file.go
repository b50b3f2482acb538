package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/DMarby/blobcrop/internal/storage"
)

// Provider implements a file-based image storage, looking up <id><extension> in a directory
type Provider struct {
	path string
}

// New returns a new Provider instance
func New(path string) (*Provider, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, &os.PathError{Op: "open", Path: path, Err: errors.New("not a directory")}
	}

	return &Provider{
		path,
	}, nil
}

// Get returns the image data for an image id
func (p *Provider) Get(ctx context.Context, id string) ([]byte, error) {
	if !storage.ValidID(id) {
		return nil, storage.ErrInvalidID
	}

	for _, extension := range storage.Extensions {
		imageData, err := os.ReadFile(filepath.Join(p.path, id+extension))
		if err == nil {
			return imageData, nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	return nil, storage.ErrNotFound
}
