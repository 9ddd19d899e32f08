package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"ilm-quiz-service/internal/app"
	"ilm-quiz-service/internal/domain"
)

const defaultLeaderboardSize = 3

// Handler exposes the account, score, and leaderboard endpoints.
type Handler struct {
	accounts   *app.AccountService
	categories []domain.Category
}

func NewHandler(accounts *app.AccountService, categories []domain.Category) *Handler {
	return &Handler{accounts: accounts, categories: categories}
}

// Routes mounts the REST API under /api.
func (h *Handler) Routes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	api.HandleFunc("/users/scores", h.updateScores).Methods(http.MethodPut)
	api.HandleFunc("/users/scores", h.listUsers).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", h.leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/categories", h.listCategories).Methods(http.MethodGet)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type scoresRequest struct {
	UserID string               `json:"userId"`
	Scores []domain.ScoreRecord `json:"scores"`
}

type userResponse struct {
	User domain.PublicAccount `json:"user"`
}

type usersResponse struct {
	Users []domain.PublicAccount `json:"users"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	account, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, userResponse{User: account.Public()})
	case errors.Is(err, domain.ErrUnknownUsername):
		writeError(w, http.StatusNotFound, "no account found with this username, please register")
	case errors.Is(err, domain.ErrBadCredential):
		writeError(w, http.StatusUnauthorized, "incorrect username or password")
	default:
		log.Printf("login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "an error occurred during login")
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	account, err := h.accounts.Register(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, userResponse{User: account.Public()})
	case errors.Is(err, domain.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "this username is already taken")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "username and password are required")
	default:
		log.Printf("register failed: %v", err)
		writeError(w, http.StatusInternalServerError, "an error occurred during registration")
	}
}

func (h *Handler) updateScores(w http.ResponseWriter, r *http.Request) {
	var req scoresRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "user id and scores are required")
		return
	}
	if req.UserID == "" || req.Scores == nil {
		writeError(w, http.StatusBadRequest, "user id and scores are required")
		return
	}

	account, err := h.accounts.ReplaceScores(r.Context(), req.UserID, req.Scores)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, userResponse{User: account.Public()})
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid score record")
	default:
		log.Printf("update scores failed: %v", err)
		writeError(w, http.StatusInternalServerError, "an error occurred while updating scores")
	}
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		log.Printf("list users failed: %v", err)
		writeError(w, http.StatusInternalServerError, "an error occurred while fetching users")
		return
	}
	users := make([]domain.PublicAccount, 0, len(accounts))
	for _, account := range accounts {
		users = append(users, account.Public())
	}
	writeJSON(w, http.StatusOK, usersResponse{Users: users})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	n := defaultLeaderboardSize
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "n must be a non-negative integer")
			return
		}
		n = parsed
	}

	entries, err := h.accounts.Leaderboard(r.Context(), n)
	if err != nil {
		log.Printf("leaderboard failed: %v", err)
		writeError(w, http.StatusInternalServerError, "an error occurred while computing the leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.LeaderboardEntry{"entries": entries})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]domain.Category{"categories": h.categories})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
