package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"archmarket/db"
	"archmarket/models"
)

// CreateUserHandler обрабатывает POST /api/users/new — регистрация
// учётной записи. Аутентификация — забота внешнего слоя, здесь только
// сама запись.
func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var user models.User
	if err := json.Unmarshal(body, &user); err != nil {
		http.Error(w, "Invalid JSON format", http.StatusBadRequest)
		return
	}

	if user.Email == "" || user.Name == "" {
		http.Error(w, "email and name are required", http.StatusBadRequest)
		return
	}
	if user.Role != models.RoleCustomer && user.Role != models.RoleArchitect {
		http.Error(w, "role must be customer or architect", http.StatusBadRequest)
		return
	}

	if err := h.Store.CreateUser(r.Context(), &user); err != nil {
		if db.IsUniqueViolation(err) {
			http.Error(w, "Email is already registered", http.StatusConflict)
			return
		}
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// GetUserHandler возвращает пользователя по id
func (h *Handler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
	if err != nil || userID <= 0 {
		http.Error(w, "Invalid userId", http.StatusBadRequest)
		return
	}

	user, err := h.Store.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// FindUserHandler возвращает пользователя по email (?email=)
func (h *Handler) FindUserHandler(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "Missing email parameter", http.StatusBadRequest)
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "User not found", http.StatusNotFound)
		} else {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, user)
}
