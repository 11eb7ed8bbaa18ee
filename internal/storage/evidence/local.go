package evidence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/urna-cipa/internal/logger"
)

// LocalStore writes photos into a directory on disk.
type LocalStore struct {
	dir string
	log *log.Logger
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve uploads directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory %s: %w", absDir, err)
	}

	return &LocalStore{
		dir: absDir,
		log: logger.Evidence("local"),
	}, nil
}

// Dir returns the absolute storage directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put writes data to a temporary file, syncs it and renames it into place.
func (s *LocalStore) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write evidence %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to sync evidence %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close evidence %s: %w", key, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, key)); err != nil {
		return "", fmt.Errorf("failed to move evidence %s into place: %w", key, err)
	}

	s.log.Debug("evidence stored", "key", key, "bytes", len(data))
	return key, nil
}

func (s *LocalStore) Get(_ context.Context, ref string) ([]byte, error) {
	if err := validateKey(ref); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence %s: %w", ref, err)
	}
	return data, nil
}

// Delete removes the photo; a missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	if err := validateKey(ref); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, ref)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete evidence %s: %w", ref, err)
	}
	s.log.Debug("evidence deleted", "key", ref)
	return nil
}
