package storage

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Keys del registro de sesión persistido.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

var ErrStorageUnavailable = errors.New("storage unavailable")

// Storage es el almacenamiento durable del cliente (equivalente a localStorage).
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

type memoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryStorage devuelve un Storage en memoria, sin persistencia entre procesos.
func NewMemoryStorage() Storage {
	return &memoryStorage{
		items: make(map[string]string),
	}
}

func (s *memoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok, nil
}

func (s *memoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(key) == "" {
		return nil
	}
	s.items[key] = value
	return nil
}

func (s *memoryStorage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.items, k)
	}
	return nil
}
