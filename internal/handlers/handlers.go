package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"archmarket/internal/lifecycle"
	"archmarket/models"
)

// Storage — то, что хендлерам нужно от хранилища помимо движка:
// создание записей и чтения для предикатов доступа.
type Storage interface {
	CreateProject(ctx context.Context, p *models.Project) error
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetProject(ctx context.Context, id int) (*models.Project, error)
	GetBid(ctx context.Context, id int) (*models.Bid, error)
	GetAcceptedBid(ctx context.Context, projectID int) (*models.Bid, error)
}

// Engine — интерфейс движка жизненного цикла для хендлеров.
type Engine interface {
	SubmitBid(ctx context.Context, actor lifecycle.Actor, in lifecycle.SubmitBidInput) (*models.Bid, error)
	DecideBid(ctx context.Context, bidID int, actor lifecycle.Actor, decision string) (*models.Bid, error)
	CancelProject(ctx context.Context, projectID int, actor lifecycle.Actor) (*models.Project, error)
	WithdrawBid(ctx context.Context, bidID int, actor lifecycle.Actor) (*models.Bid, error)
	MarkCompleted(ctx context.Context, projectID int, actor lifecycle.Actor, notes string) (*models.ProjectCompletion, error)
	ProjectCompletions(ctx context.Context, actor lifecycle.Actor, projectID int) ([]models.ProjectCompletion, error)
	SubmitRating(ctx context.Context, actor lifecycle.Actor, in lifecycle.RatingInput) (*models.Rating, error)
	VisibleProjects(ctx context.Context, actor lifecycle.Actor, f models.ProjectFilter) ([]models.ProjectSummary, error)
	ProjectBids(ctx context.Context, actor lifecycle.Actor, projectID int) ([]models.Bid, error)
	ArchitectRatings(ctx context.Context, architectID int) ([]models.Rating, error)
	ProjectRating(ctx context.Context, projectID int, actor lifecycle.Actor) (*models.Rating, error)
	ArchitectSummary(ctx context.Context, architectID int) (*models.RatingSummary, error)
}

// Handler связывает HTTP-слой с движком и хранилищем
type Handler struct {
	Store  Storage
	Engine Engine
}

func NewHandler(store Storage, engine Engine) *Handler {
	return &Handler{Store: store, Engine: engine}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// actorFromRequest собирает предаутентифицированного вызывающего из
// заголовков. Аутентификация — забота внешнего слоя, здесь данным доверяем.
func actorFromRequest(r *http.Request) (lifecycle.Actor, error) {
	id, err := strconv.Atoi(r.Header.Get("X-User-ID"))
	if err != nil || id <= 0 {
		return lifecycle.Actor{}, errors.New("missing or invalid X-User-ID header")
	}
	role := r.Header.Get("X-User-Role")
	if role != models.RoleCustomer && role != models.RoleArchitect {
		return lifecycle.Actor{}, errors.New("missing or invalid X-User-Role header")
	}
	return lifecycle.Actor{
		ID:    id,
		Role:  role,
		Email: r.Header.Get("X-User-Email"),
	}, nil
}

// fetchProject загружает проект для предиката доступа
func (h *Handler) fetchProject(w http.ResponseWriter, r *http.Request, id int) (*models.Project, bool) {
	project, err := h.Store.GetProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Project not found", http.StatusNotFound)
		} else {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return nil, false
	}
	return project, true
}

// writeEngineError транслирует класс ошибки движка в HTTP-статус
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, lifecycle.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, lifecycle.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, lifecycle.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, lifecycle.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
