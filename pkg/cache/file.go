package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
)

type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Load(_ context.Context, key string, v any) error {
	b, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrMiss
		}
		return errors.Wrapf(err, "read %s", s.Path(key))
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "decode %s", s.Path(key))
	}
	return nil
}

func (s *FileStore) Save(_ context.Context, key string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", s.dir)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "json marshal")
	}
	tmp := s.Path(key) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	return os.Rename(tmp, s.Path(key))
}

func (s *FileStore) Close() error { return nil }
