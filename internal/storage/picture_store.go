// Package storage keeps profile pictures on local disk and issues
// signed, expiring access tokens for downloading them.  Pictures are
// addressed by an opaque filename key; everything else about the blob
// is irrelevant to the rest of the system.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrPictureNotFound is returned when no blob exists under the given
// filename key.
var ErrPictureNotFound = errors.New("picture not found")

// PictureStore saves and retrieves picture blobs by opaque filename.
type PictureStore struct {
	dir string
}

// NewPictureStore creates the upload directory if needed and returns
// a store rooted there.
func NewPictureStore(dir string) (*PictureStore, error) {
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &PictureStore{dir: dir}, nil
}

// Save streams the reader into a file under the upload directory.
// The filename must be an opaque key produced by the caller; path
// separators are rejected to keep writes inside the directory.
func (s *PictureStore) Save(filename string, src io.Reader) error {
	path, err := s.path(filename)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create picture file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		return fmt.Errorf("write picture file: %w", err)
	}
	return nil
}

// Open returns a reader over the stored blob.  The caller must close
// it.  Returns ErrPictureNotFound when the blob does not exist.
func (s *PictureStore) Open(filename string) (io.ReadCloser, error) {
	path, err := s.path(filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPictureNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *PictureStore) path(filename string) (string, error) {
	if filename == "" || strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return "", fmt.Errorf("invalid picture filename %q", filename)
	}
	return filepath.Join(s.dir, filename), nil
}
