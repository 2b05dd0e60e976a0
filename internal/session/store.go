// Package session persists the device session (access token, cached employee
// profile, last successful meal authorization) behind a small key-value Store.
package session

import (
	"context"
	"errors"
	"sync"
)

// Key names a persisted session field.
type Key string

const (
	KeyToken    Key = "meal_token"
	KeyUser     Key = "meal_user"
	KeyLastAuth Key = "meal_last_auth"
)

// Keys lists every persisted field. Clear removes all of them together.
var Keys = []Key{KeyToken, KeyUser, KeyLastAuth}

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("session: store closed")

// Store is persistent key-value storage for session fields.
type Store interface {
	Get(ctx context.Context, key Key) (string, bool, error)
	Set(ctx context.Context, key Key, value string) error
	Delete(ctx context.Context, keys ...Key) error
	Close() error
}

// MemoryStore keeps the session in process memory. It backs tests and
// ephemeral kiosks that must forget the device on restart.
type MemoryStore struct {
	mu     sync.Mutex
	values map[Key]string
	closed bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[Key]string)}
}

func (m *MemoryStore) Get(_ context.Context, key Key) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key Key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
