// Package fs stores listing images on the local filesystem under a media root.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"quickhost/internal/app/images"
)

var ErrPathEscapesRoot = errors.New("fs: path escapes media root")

type Store struct {
	root string
}

func New(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("fs: media root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("fs: create media root: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Save(ctx context.Context, rel string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("fs: create folder: %w", err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return fmt.Errorf("fs: write %s: %w", rel, err)
	}
	return nil
}

// Delete removes a file, or a folder once it is empty. A folder that still
// holds entries is kept. Missing paths are not an error.
func (s *Store) Delete(ctx context.Context, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fs: stat %s: %w", rel, err)
	}
	if info.IsDir() {
		entries, err := os.ReadDir(full)
		if err != nil {
			return fmt.Errorf("fs: read %s: %w", rel, err)
		}
		if len(entries) > 0 {
			return nil
		}
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("fs: delete %s: %w", rel, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, rel string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("fs: stat %s: %w", rel, err)
	}
	return true, nil
}

func (s *Store) resolve(rel string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(rel))
	if cleaned == "/" {
		return "", ErrPathEscapesRoot
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

var _ images.BlobStore = (*Store)(nil)
