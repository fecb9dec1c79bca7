package storage

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

var _ Store = (*FileStore)(nil)

// FileStore implements Store on top of a single JSON object file in a state
// directory. Every Set/Delete rewrites the file atomically (temp file +
// rename), so a crash leaves either the old or the new snapshot, never a
// torn one.
type FileStore struct {
	path string
	lg   *zap.Logger

	mu     sync.Mutex
	values map[string]string
}

// NewFileStore loads (or initializes) the store file under dir. A missing
// file starts empty; a malformed file is logged and reset to empty rather
// than failing startup.
func NewFileStore(dir string, lg *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create state dir")
	}

	s := &FileStore{
		path:   filepath.Join(dir, "storage.json"),
		lg:     lg,
		values: make(map[string]string),
	}

	raw, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, errors.Wrap(err, "read store file")
	}

	values, err := decodeValues(raw)
	if err != nil {
		lg.Warn("Malformed storage file, resetting to empty",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return s, nil
	}
	s.values = values
	return s, nil
}

// Get returns the value for key and whether it was present.
func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and flushes the snapshot to disk before
// returning.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flush()
}

// Delete removes key and flushes. Deleting an absent key is a no-op that
// still rewrites the file.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.flush()
}

// flush writes the current snapshot atomically. Caller holds mu.
func (s *FileStore) flush() error {
	raw := encodeValues(s.values)

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "storage-*.json")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}

func encodeValues(values map[string]string) []byte {
	var e jx.Encoder
	e.ObjStart()
	for k, v := range values {
		e.FieldStart(k)
		e.Str(v)
	}
	e.ObjEnd()
	return e.Bytes()
}

func decodeValues(raw []byte) (map[string]string, error) {
	values := make(map[string]string)
	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		v, err := d.Str()
		if err != nil {
			return err
		}
		values[key] = v
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode object")
	}
	return values, nil
}
