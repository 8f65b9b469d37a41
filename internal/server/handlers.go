// Copyright (C) 2026 omhome16
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/models"
	"github.com/omhome16/AI-SOL-AI-Software-Orchestration-Lifecycle/internal/protocol"
)

const (
	serviceName    = "AI-SOL Backend"
	serviceVersion = "2.0.0"
	maxUploadSize  = 32 << 20
)

// Handlers serves the REST surface.
type Handlers struct {
	store  *Store
	engine *Engine
	hub    *Hub
	now    func() time.Time
}

// NewHandlers creates the handler set.
func NewHandlers(store *Store, engine *Engine, hub *Hub, now func() time.Time) *Handlers {
	if now == nil {
		now = time.Now
	}
	return &Handlers{store: store, engine: engine, hub: hub, now: now}
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := getLog()
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeDetail writes the {"detail": ...} error body the real backend uses.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errProjectNotFound):
		writeDetail(w, http.StatusNotFound, "Project not found")
	case errors.Is(err, errFileNotFound):
		writeDetail(w, http.StatusNotFound, "File not found")
	case errors.Is(err, errBadPath):
		writeDetail(w, http.StatusForbidden, "Access denied")
	case errors.Is(err, errAlreadyRunning):
		writeDetail(w, http.StatusConflict, "Workflow already running")
	default:
		writeDetail(w, http.StatusInternalServerError, err.Error())
	}
}

func formBool(r *http.Request, key string) bool {
	v, _ := strconv.ParseBool(r.FormValue(key))
	return v
}

// --- projects ---

// CreateProject handles POST /api/v1/projects/create (multipart).
func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid form: "+err.Error())
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	var images []string
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			images = append(images, path.Base(fh.Filename))
		}
	}

	id := h.store.Create(Project{
		Name:           name,
		Type:           r.FormValue("type"),
		Requirements:   r.FormValue("requirements"),
		EnableGitHub:   formBool(r, "enable_github"),
		GenerateTests:  formBool(r, "generate_tests"),
		GenerateDevOps: formBool(r, "generate_devops"),
		Images:         images,
	})
	log := getLog()
	log.Info().Str("project_id", id).Str("name", name).Int("images", len(images)).Msg("Project created")
	writeJSON(w, http.StatusOK, map[string]string{
		"project_id": id,
		"status":     "created",
		"message":    "Project created. Start the workflow when ready.",
	})
}

type projectSummary struct {
	ProjectID      string           `json:"project_id"`
	ProjectName    string           `json:"project_name"`
	Status         string           `json:"status"`
	CurrentStep    *string          `json:"current_step"`
	StepsCompleted []string         `json:"steps_completed"`
	CreatedAt      models.Timestamp `json:"created_at"`
	LastSaved      models.Timestamp `json:"last_saved"`
}

// currentStep is null in JSON until a stage has started.
func currentStep(p Project) *string {
	if p.CurrentStep == "" {
		return nil
	}
	return &p.CurrentStep
}

// ListProjects handles GET /api/v1/projects.
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	out := lo.Map(h.store.List(), func(p Project, _ int) projectSummary {
		return projectSummary{
			ProjectID:      p.ID,
			ProjectName:    p.Name,
			Status:         p.Status,
			CurrentStep:    currentStep(p),
			StepsCompleted: lo.Ternary(p.Steps == nil, []string{}, p.Steps),
			CreatedAt:      models.At(p.CreatedAt),
			LastSaved:      models.At(p.LastSaved),
		}
	})
	writeJSON(w, http.StatusOK, map[string]any{"projects": out})
}

// GetProject handles GET /api/v1/projects/{id}.
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project_id":      p.ID,
		"name":            p.Name,
		"type":            p.Type,
		"requirements":    p.Requirements,
		"status":          p.Status,
		"current_step":    currentStep(p),
		"completed":       p.Completed,
		"steps_completed": lo.Ternary(p.Steps == nil, []string{}, p.Steps),
		"enable_github":   p.EnableGitHub,
		"generate_tests":  p.GenerateTests,
		"generate_devops": p.GenerateDevOps,
		"images":          p.Images,
		"created_at":      models.At(p.CreatedAt),
		"updated_at":      models.At(p.LastSaved),
	})
}

// DeleteProject handles DELETE /api/v1/projects/{id}.
func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.engine.Stop(id)
	if err := h.store.Delete(id); err != nil {
		writeStoreError(w, err)
		return
	}
	h.hub.CloseProject(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Project deleted"})
}

// StartWorkflow handles POST /api/v1/projects/{id}/start-workflow.
func (h *Handlers) StartWorkflow(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Start(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started", "message": "Workflow started successfully"})
}

// RestartProject handles POST /api/v1/projects/{id}/restart.
func (h *Handlers) RestartProject(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Restart(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restarted", "message": "Workflow restarted"})
}

// ResumeProject handles POST /api/v1/projects/{id}/resume.
func (h *Handlers) ResumeProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.Get(id); err != nil {
		writeStoreError(w, err)
		return
	}
	var body struct {
		UserInput string `json:"user_input"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
	}
	if !h.engine.Resume(id, body.UserInput) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "error", "message": "Workflow is not paused. Please use restart."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resumed", "message": "Workflow resumed"})
}

// GetLogs handles GET /api/v1/projects/{id}/logs.
func (h *Handlers) GetLogs(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": lo.Ternary(p.Logs == nil, []models.LogEntry{}, p.Logs)})
}

// GetStatus handles GET /api/v1/projects/{id}/status. Files are listed as
// bare paths, like the real backend.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          p.Status,
		"current_step":    currentStep(p),
		"completed":       p.Completed,
		"steps_completed": lo.Ternary(p.Steps == nil, []string{}, p.Steps),
		"generated_files": lo.Ternary(p.FileOrder == nil, []string{}, p.FileOrder),
	})
}

// --- chat ---

// Chat handles POST /api/v1/chat. A message containing "approve" releases
// the review gate. Both sides of the exchange are broadcast to viewers.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message   string `json:"message"`
		ProjectID string `json:"project_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	p, err := h.store.Get(body.ProjectID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	h.hub.Broadcast(p.ID, protocol.ChatMessageEnvelope{Role: "user", Content: body.Message, Timestamp: models.At(h.now())})

	var reply struct {
		Message string              `json:"message"`
		Action  string              `json:"action,omitempty"`
		Buttons []models.ChatButton `json:"buttons"`
		Status  string              `json:"status,omitempty"`
	}
	reply.Buttons = []models.ChatButton{}
	switch {
	case strings.Contains(strings.ToLower(body.Message), "approve"):
		if h.engine.Resume(p.ID, body.Message) {
			reply.Message = "Approved. Moving on to the next stage."
			reply.Action = "resume"
			reply.Status = "resumed"
		} else {
			reply.Message = "There is nothing waiting for approval right now."
		}
	case h.engine.Waiting(p.ID):
		reply.Message = "Noted. Reply approve when you are happy with the files."
		reply.Buttons = []models.ChatButton{{Label: "Approve", Action: "approve", Variant: "primary"}}
	case p.Status == "created":
		reply.Message = fmt.Sprintf("Project %s is configured. Start the workflow to begin.", p.Name)
		reply.Action = "start"
	default:
		step := lo.Ternary(p.CurrentStep == "", "the workflow", models.Stage(p.CurrentStep).Title())
		reply.Message = fmt.Sprintf("Got it. I will take that into account while working on %s.", step)
	}

	h.hub.Broadcast(p.ID, protocol.ChatResponseEnvelope{
		Message:   reply.Message,
		Action:    reply.Action,
		Buttons:   reply.Buttons,
		Timestamp: models.At(h.now()),
	})
	writeJSON(w, http.StatusOK, map[string]any{"response": reply})
}

// --- files ---

// ListFiles handles GET /api/v1/projects/{id}/files.
func (h *Handlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": lo.Ternary(p.FileOrder == nil, []string{}, p.FileOrder)})
}

func queryPath(r *http.Request) string {
	q := r.URL.Query()
	if p := q.Get("file_path"); p != "" {
		return p
	}
	return q.Get("path")
}

// GetFileContent handles GET /api/v1/projects/{id}/files/content.
func (h *Handlers) GetFileContent(w http.ResponseWriter, r *http.Request) {
	content, err := h.store.ReadFile(chi.URLParam(r, "id"), queryPath(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

// SaveFileContent handles PUT /api/v1/projects/{id}/files/content.
func (h *Handlers) SaveFileContent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == nil {
		writeDetail(w, http.StatusBadRequest, "content is required")
		return
	}
	rel, err := h.store.WriteFile(chi.URLParam(r, "id"), queryPath(r), *body.Content)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Saved " + rel})
}

// UploadImage handles POST /api/v1/projects/{id}/upload-image and the
// legacy POST /api/v1/upload/image, which carries project_id as a form field.
func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid form: "+err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		id = r.FormValue("project_id")
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeDetail(w, http.StatusBadRequest, "read upload: "+err.Error())
		return
	}

	name := path.Base(hdr.Filename)
	if err := h.store.Update(id, func(p *Project) { p.Images = append(p.Images, name) }); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"filename": name, "path": "uploads/" + name})
}

// --- service ---

// Health handles GET /api/v1/health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"service":        serviceName,
		"version":        serviceVersion,
		"projects_count": h.store.Count(),
	})
}

// Config handles GET /api/v1/config.
func (h *Handlers) Config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"model_provider": "simulator",
		"model_name":     "scripted",
		"features": map[string]bool{
			"web_search":    false,
			"code_analysis": true,
		},
	})
}
