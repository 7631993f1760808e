package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"inventory-manager/internal/products"
)

const (
	indent   = "    "
	fileMode = 0o644
)

// FileStore keeps the whole inventory as one JSON array in a single file.
type FileStore struct {
	path   string
	logger *slog.Logger
}

func NewFile(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the inventory. A missing file and a file that does not hold a
// JSON array of products both yield an empty inventory.
func (s *FileStore) Load(ctx context.Context) ([]products.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []products.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read inventory %s: %w", s.path, err)
	}

	var inventory []products.Product
	if err := json.Unmarshal(data, &inventory); err != nil {
		s.logger.Warn("inventory file unreadable, using empty inventory",
			"path", s.path,
			"error", err,
		)
		return []products.Product{}, nil
	}
	if inventory == nil {
		inventory = []products.Product{}
	}

	return inventory, nil
}

// Save replaces the file with inventory. The document is written to a
// temporary file next to the target and renamed over it.
func (s *FileStore) Save(ctx context.Context, inventory []products.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if inventory == nil {
		inventory = []products.Product{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(inventory); err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write inventory: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync inventory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close inventory: %w", err)
	}
	if err := os.Chmod(tmpName, fileMode); err != nil {
		cleanup()
		return fmt.Errorf("chmod inventory: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("replace inventory %s: %w", s.path, err)
	}

	return nil
}

// EnsureFile creates an empty inventory file when none exists yet.
func (s *FileStore) EnsureFile(ctx context.Context) error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat inventory %s: %w", s.path, err)
	}
	return s.Save(ctx, []products.Product{})
}

func (s *FileStore) Health() error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
