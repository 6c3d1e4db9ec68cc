package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"archmarket/internal/access"
	"archmarket/internal/lifecycle"
	"archmarket/models"
)

// CreateRatingHandler обрабатывает POST /api/ratings/new
func (h *Handler) CreateRatingHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var input struct {
		ProjectID           int    `json:"projectId"`
		Rating              int    `json:"rating"`
		CommunicationRating int    `json:"communicationRating"`
		DesignQualityRating int    `json:"designQualityRating"`
		TimelinessRating    int    `json:"timelinessRating"`
		ValueRating         int    `json:"valueRating"`
		Review              string `json:"review"`
		WouldRecommend      bool   `json:"wouldRecommend"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if input.ProjectID <= 0 {
		http.Error(w, "projectId must be positive", http.StatusBadRequest)
		return
	}

	project, ok := h.fetchProject(w, r, input.ProjectID)
	if !ok {
		return
	}
	if !access.CanRate(actor, project) {
		http.Error(w, "Only the project owner may rate", http.StatusForbidden)
		return
	}

	rating, err := h.Engine.SubmitRating(r.Context(), actor, lifecycle.RatingInput{
		ProjectID:           input.ProjectID,
		Rating:              input.Rating,
		CommunicationRating: input.CommunicationRating,
		DesignQualityRating: input.DesignQualityRating,
		TimelinessRating:    input.TimelinessRating,
		ValueRating:         input.ValueRating,
		Review:              input.Review,
		WouldRecommend:      input.WouldRecommend,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rating)
}

// GetProjectRatingHandler возвращает оценку заказчика по проекту
func (h *Handler) GetProjectRatingHandler(w http.ResponseWriter, r *http.Request) {
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

	rating, err := h.Engine.ProjectRating(r.Context(), projectID, actor)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rating)
}

// GetArchitectRatingsHandler возвращает оценки архитектора и агрегат
func (h *Handler) GetArchitectRatingsHandler(w http.ResponseWriter, r *http.Request) {
	architectID, err := strconv.Atoi(chi.URLParam(r, "architectId"))
	if err != nil || architectID <= 0 {
		http.Error(w, "Invalid architectId", http.StatusBadRequest)
		return
	}

	ratings, err := h.Engine.ArchitectRatings(r.Context(), architectID)
	if err != nil {
		http.Error(w, "Failed to get ratings", http.StatusInternalServerError)
		return
	}
	summary, err := h.Engine.ArchitectSummary(r.Context(), architectID)
	if err != nil {
		http.Error(w, "Failed to get rating summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Ratings []models.Rating       `json:"ratings"`
		Summary *models.RatingSummary `json:"summary"`
	}{Ratings: ratings, Summary: summary})
}
