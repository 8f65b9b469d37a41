// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/logger"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

// Key prefixes, one entry per project each.
const (
	chatPrefix   = "chat_"
	statusPrefix = "status_"
	filesPrefix  = "files_"
)

func ChatKey(projectID string) string   { return chatPrefix + projectID }
func StatusKey(projectID string) string { return statusPrefix + projectID }
func FilesKey(projectID string) string  { return filesPrefix + projectID }

// Snapshot is everything the cache holds for one project.
type Snapshot struct {
	Chat   []models.ChatMessage
	Status *models.ProjectStatus
	Files  []models.GeneratedFile
}

// Empty reports whether nothing was restored.
func (s Snapshot) Empty() bool {
	return len(s.Chat) == 0 && s.Status == nil && len(s.Files) == 0
}

// SessionCache stores dashboard state per project on top of a Store.
// It is never the system of record; callers overwrite it with live data.
type SessionCache struct {
	store Store
}

func NewSessionCache(store Store) *SessionCache {
	return &SessionCache{store: store}
}

func (c *SessionCache) SaveChat(projectID string, chat []models.ChatMessage) error {
	return c.put(ChatKey(projectID), chat)
}

func (c *SessionCache) SaveStatus(projectID string, status models.ProjectStatus) error {
	return c.put(StatusKey(projectID), status)
}

func (c *SessionCache) SaveFiles(projectID string, files []models.GeneratedFile) error {
	return c.put(FilesKey(projectID), files)
}

// Load reads every entry for projectID. Missing entries are left empty;
// corrupt entries are logged and skipped.
func (c *SessionCache) Load(projectID string) Snapshot {
	var snap Snapshot
	if !c.get(ChatKey(projectID), &snap.Chat) {
		snap.Chat = nil
	}
	var status models.ProjectStatus
	if c.get(StatusKey(projectID), &status) {
		snap.Status = &status
	}
	if !c.get(FilesKey(projectID), &snap.Files) {
		snap.Files = nil
	}
	return snap
}

// Clear drops every entry for projectID.
func (c *SessionCache) Clear(projectID string) error {
	var errs []error
	for _, key := range []string{ChatKey(projectID), StatusKey(projectID), FilesKey(projectID)} {
		if err := c.store.Delete(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *SessionCache) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return c.store.Set(key, data)
}

func (c *SessionCache) get(key string, into any) bool {
	log := logger.GetCacheLogger()
	data, err := c.store.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to read cache entry")
		return false
	}
	if err := json.Unmarshal(data, into); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding corrupt cache entry")
		return false
	}
	return true
}
