package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var errCorrupt = errors.New("corrupt session file")

// FileStore keeps the session as a JSON object in a single 0600 file.
type FileStore struct {
	mu     sync.Mutex
	path   string
	log    logrus.FieldLogger
	closed bool
}

// NewFileStore returns a store backed by path. The file is created on first write.
// Reads of a corrupt file fail; writes replace it.
func NewFileStore(path string, log logrus.FieldLogger) *FileStore {
	return &FileStore{path: path, log: log.WithField("component", "session")}
}

func (f *FileStore) Get(_ context.Context, key Key) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", false, ErrClosed
	}
	values, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileStore) Set(_ context.Context, key Key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	values, err := f.readForWrite()
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

func (f *FileStore) Delete(_ context.Context, keys ...Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	values, err := f.readForWrite()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(values, k)
	}
	if len(values) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}
	return f.write(values)
}

func (f *FileStore) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *FileStore) read() (map[Key]string, error) {
	values := make(map[Key]string)
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse session file: %w: %w", errCorrupt, err)
	}
	return values, nil
}

// readForWrite is read, except that a corrupt file counts as empty so the
// next write replaces it.
func (f *FileStore) readForWrite() (map[Key]string, error) {
	values, err := f.read()
	if errors.Is(err, errCorrupt) {
		f.log.WithError(err).WithField("path", f.path).Warn("discarding unreadable session file")
		return make(map[Key]string), nil
	}
	return values, err
}

// write replaces the file atomically: write to .tmp, then rename over it.
func (f *FileStore) write(values map[Key]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
