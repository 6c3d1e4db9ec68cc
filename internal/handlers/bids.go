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
	"archmarket/internal/lifecycle"
)

// CreateBidHandler обрабатывает POST /api/bids/new
func (h *Handler) CreateBidHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if !access.CanBid(actor) {
		http.Error(w, "Only architects may bid", http.StatusForbidden)
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
		BidAmount           int    `json:"bidAmount"`
		EstimatedDuration   string `json:"estimatedDuration"`
		ProposalDescription string `json:"proposalDescription"`
		ExperienceNote      string `json:"experienceNote"`
	}
	if err := json.Unmarshal(body, &input); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}
	if input.ProjectID <= 0 {
		http.Error(w, "projectId must be positive", http.StatusBadRequest)
		return
	}

	bid, err := h.Engine.SubmitBid(r.Context(), actor, lifecycle.SubmitBidInput{
		ProjectID:           input.ProjectID,
		BidAmount:           input.BidAmount,
		EstimatedDuration:   input.EstimatedDuration,
		ProposalDescription: input.ProposalDescription,
		ExperienceNote:      input.ExperienceNote,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bid)
}

// DecideBidHandler обрабатывает решение заказчика по ставке:
// POST /api/bids/{bidId}/decision?decision=accepted|rejected
func (h *Handler) DecideBidHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	bidID, err := strconv.Atoi(chi.URLParam(r, "bidId"))
	if err != nil || bidID <= 0 {
		http.Error(w, "Invalid bidId", http.StatusBadRequest)
		return
	}

	decision := r.URL.Query().Get("decision")
	if decision == "" {
		http.Error(w, "Missing decision parameter", http.StatusBadRequest)
		return
	}

	target, err := h.Store.GetBid(r.Context(), bidID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Bid not found", http.StatusNotFound)
		} else {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}
	project, ok := h.fetchProject(w, r, target.ProjectID)
	if !ok {
		return
	}
	if !access.CanDecide(actor, project) {
		http.Error(w, "Only the project owner may decide bids", http.StatusForbidden)
		return
	}

	bid, err := h.Engine.DecideBid(r.Context(), bidID, actor, decision)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bid)
}

// WithdrawBidHandler — архитектор отзывает свою ставку
func (h *Handler) WithdrawBidHandler(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	bidID, err := strconv.Atoi(chi.URLParam(r, "bidId"))
	if err != nil || bidID <= 0 {
		http.Error(w, "Invalid bidId", http.StatusBadRequest)
		return
	}

	bid, err := h.Engine.WithdrawBid(r.Context(), bidID, actor)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bid)
}
