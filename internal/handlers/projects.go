package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"archmarket/internal/access"
	"archmarket/models"
)

// CreateProjectHandler обрабатывает POST /api/projects/new
func (h *Handler) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if !access.CanPostProject(actor) {
		http.Error(w, "Only customers may post projects", http.StatusForbidden)
		return
	}

	// Ограничение размера тела, чтобы избежать DoS
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var project models.Project
	if err := json.Unmarshal(body, &project); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	if err := validateProjectRequest(&project); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Владелец и статус берутся не из тела
	project.CustomerID = actor.ID
	project.CustomerEmail = actor.Email
	project.Status = models.ProjectOpen
	if project.Priority == "" {
		project.Priority = "medium"
	}

	if err := h.Store.CreateProject(r.Context(), &project); err != nil {
		http.Error(w, "Failed to create project", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// validateProjectRequest проверяет обязательные поля
func validateProjectRequest(p *models.Project) error {
	if p.Title == "" || len(p.Title) > 200 {
		return errors.New("title is required and max length 200")
	}
	if p.Description == "" || len(p.Description) > 2000 {
		return errors.New("description is required and max length 2000")
	}
	switch p.Priority {
	case "", "low", "medium", "high", "urgent":
		// ok
	default:
		return errors.New("invalid priority")
	}
	if p.BudgetMin < 0 || p.BudgetMax < 0 {
		return errors.New("budget must not be negative")
	}
	return nil
}

// parseProjectFilter собирает фильтр выборки из query-параметров
func parseProjectFilter(r *http.Request) models.ProjectFilter {
	q := r.URL.Query()
	f := models.ProjectFilter{
		Status:       q.Get("status"),
		ProjectType:  q.Get("type"),
		Location:     q.Get("location"),
		Priority:     q.Get("priority"),
		CustomerName: q.Get("customerName"),
	}
	if v, err := strconv.Atoi(q.Get("budgetMin")); err == nil && v > 0 {
		f.BudgetMin = v
	}
	if v, err := strconv.Atoi(q.Get("budgetMax")); err == nil && v > 0 {
		f.BudgetMax = v
	}
	if v, err := strconv.Atoi(q.Get("areaMin")); err == nil && v > 0 {
		f.AreaMin = v
	}
	if v, err := strconv.Atoi(q.Get("areaMax")); err == nil && v > 0 {
		f.AreaMax = v
	}
	return f
}

// GetProjectsHandler возвращает проекты, видимые вызывающему, с фильтрами
func (h *Handler) GetProjectsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	projects, err := h.Engine.VisibleProjects(r.Context(), actor, parseProjectFilter(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

// GetProjectBidsHandler возвращает ставки проекта с учётом роли
func (h *Handler) GetProjectBidsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	projectID, err := strconv.Atoi(chi.URLParam(r, "projectId"))
	if err != nil || projectID <= 0 {
		http.Error(w, "Invalid projectId", http.StatusBadRequest)
		return
	}

	bids, err := h.Engine.ProjectBids(r.Context(), actor, projectID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bids)
}

// GetProjectCompletionsHandler возвращает историю взаимодействий проекта
func (h *Handler) GetProjectCompletionsHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	projectID, err := strconv.Atoi(chi.URLParam(r, "projectId"))
	if err != nil || projectID <= 0 {
		http.Error(w, "Invalid projectId", http.StatusBadRequest)
		return
	}

	completions, err := h.Engine.ProjectCompletions(r.Context(), actor, projectID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, completions)
}

// CancelProjectHandler возвращает in_progress-проект в open
func (h *Handler) CancelProjectHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	projectID, err := strconv.Atoi(chi.URLParam(r, "projectId"))
	if err != nil || projectID <= 0 {
		http.Error(w, "Invalid projectId", http.StatusBadRequest)
		return
	}

	target, ok := h.fetchProject(w, r, projectID)
	if !ok {
		return
	}
	if !access.CanCancel(actor, target) {
		http.Error(w, "Only the project owner may cancel", http.StatusForbidden)
		return
	}

	project, err := h.Engine.CancelProject(r.Context(), projectID, actor)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// CompleteProjectHandler фиксирует завершение взаимодействия
func (h *Handler) CompleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	projectID, err := strconv.Atoi(chi.URLParam(r, "projectId"))
	if err != nil || projectID <= 0 {
		http.Error(w, "Invalid projectId", http.StatusBadRequest)
		return
	}

	project, ok := h.fetchProject(w, r, projectID)
	if !ok {
		return
	}
	accepted, err := h.Store.GetAcceptedBid(r.Context(), projectID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		accepted = nil
	}
	if !access.CanComplete(actor, project, accepted) {
		http.Error(w, "Only the project owner or the accepted architect may complete", http.StatusForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Тело опционально, но непустое должно быть корректным JSON
	var input struct {
		Notes string `json:"notes"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &input); err != nil {
			http.Error(w, "Invalid JSON format", http.StatusBadRequest)
			return
		}
	}

	pc, err := h.Engine.MarkCompleted(r.Context(), projectID, actor, input.Notes)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pc)
}
