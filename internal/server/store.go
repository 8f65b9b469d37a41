// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"errors"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
)

var (
	errProjectNotFound = errors.New("project not found")
	errFileNotFound    = errors.New("file not found")
	errBadPath         = errors.New("access denied")
)

// Project is the simulator's record of one project.
type Project struct {
	ID             string
	Name           string
	Type           string
	Requirements   string
	EnableGitHub   bool
	GenerateTests  bool
	GenerateDevOps bool
	Status         string
	CurrentStep    string
	Completed      bool
	Steps          []string
	Logs           []models.LogEntry
	Files          map[string]string
	FileOrder      []string
	Images         []string
	CreatedAt      time.Time
	LastSaved      time.Time
}

// Store is an in-memory project table.
type Store struct {
	mu       sync.RWMutex
	projects map[string]*Project
	now      func() time.Time
}

// NewStore returns an empty store.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{projects: make(map[string]*Project), now: now}
}

// Create inserts a new project in the created state and returns its id.
func (s *Store) Create(p Project) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	p.Status = "created"
	p.Files = make(map[string]string)
	p.CreatedAt = s.now()
	p.LastSaved = p.CreatedAt
	s.projects[p.ID] = &p
	return p.ID
}

// Get returns a copy of the project.
func (s *Store) Get(id string) (Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return Project{}, errProjectNotFound
	}
	return p.copy(), nil
}

// List returns copies of every project, newest first.
func (s *Store) List() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := lo.MapToSlice(s.projects, func(_ string, p *Project) Project { return p.copy() })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Delete removes the project.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return errProjectNotFound
	}
	delete(s.projects, id)
	return nil
}

// Update runs fn on the live record under the write lock.
func (s *Store) Update(id string, fn func(p *Project)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return errProjectNotFound
	}
	fn(p)
	p.LastSaved = s.now()
	return nil
}

// Count returns the number of projects.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.projects)
}

// ReadFile returns a workspace file.
func (s *Store) ReadFile(id, rel string) (string, error) {
	clean, err := cleanPath(rel)
	if err != nil {
		return "", err
	}
	p, err := s.Get(id)
	if err != nil {
		return "", err
	}
	content, ok := p.Files[clean]
	if !ok {
		return "", errFileNotFound
	}
	return content, nil
}

// WriteFile creates or replaces a workspace file.
func (s *Store) WriteFile(id, rel, content string) (string, error) {
	clean, err := cleanPath(rel)
	if err != nil {
		return "", err
	}
	return clean, s.Update(id, func(p *Project) { p.putFile(clean, content) })
}

func (p *Project) putFile(rel, content string) {
	if _, ok := p.Files[rel]; !ok {
		p.FileOrder = append(p.FileOrder, rel)
	}
	p.Files[rel] = content
}

func (p *Project) reset() {
	p.Status = "created"
	p.CurrentStep = ""
	p.Completed = false
	p.Steps = nil
	p.Logs = nil
	p.Files = make(map[string]string)
	p.FileOrder = nil
}

func (p *Project) copy() Project {
	c := *p
	c.Steps = append([]string(nil), p.Steps...)
	c.Logs = append([]models.LogEntry(nil), p.Logs...)
	c.FileOrder = append([]string(nil), p.FileOrder...)
	c.Images = append([]string(nil), p.Images...)
	c.Files = make(map[string]string, len(p.Files))
	for k, v := range p.Files {
		c.Files[k] = v
	}
	return c
}

// cleanPath rejects absolute paths and anything escaping the workspace.
func cleanPath(rel string) (string, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	if rel == "" || strings.HasPrefix(rel, "/") {
		return "", errBadPath
	}
	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errBadPath
	}
	return clean, nil
}
