// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache mirrors per-project dashboard state into a local durable
// store so a restarted client can show the last known view immediately.
package cache

import (
	"errors"
	"fmt"
	"sync"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/config"
)

// ErrNotFound is returned by Store.Get when no value exists for the key.
var ErrNotFound = errors.New("cache: key not found")

// Store is a string-keyed blob store. Writes are last-writer-wins.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(cfg config.CacheConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewGormStore(cfg.Path)
	case "file":
		return NewFileStore(cfg.Path)
	case "memory", "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Driver)
	}
}

// MemoryStore keeps values in process memory. It is the store used by tests
// and by the CLI when persistence is disabled.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
