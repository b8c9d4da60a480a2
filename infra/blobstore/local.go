package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"inventory/domain"

	"github.com/google/uuid"
)

const maxNameAttempts = 3

// Local keeps photo blobs as flat files in one cache directory.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Local{dir: abs}, nil
}

// Dir is the absolute cache directory.
func (l *Local) Dir() string {
	return l.dir
}

// Save writes r under a fresh uuid name. Content goes to a temp file first and is
// hard-linked into place, so a name that already exists is never overwritten.
func (l *Local) Save(ctx context.Context, r io.Reader, ext string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	ext = CleanExtension(ext)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := uuid.NewString() + ext
		err := os.Link(tmpPath, filepath.Join(l.dir, name))
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("publish blob: %w", err)
		}
	}
	return "", fmt.Errorf("could not allocate a unique blob name")
}

// Open returns domain.ErrBlobNotFound when name does not exist.
func (l *Local) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.path(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Remove deletes name. A missing file is not an error.
func (l *Local) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(l.dir, name), nil
}

// ValidateName rejects anything that is not a single plain file name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("blob name is required")
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return fmt.Errorf("invalid blob name %q", name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("invalid blob name %q", name)
	}
	return nil
}

// CleanExtension lowercases ext and drops it unless it is a short alphanumeric suffix.
func CleanExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" || len(ext) > 8 {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return "." + ext
}
