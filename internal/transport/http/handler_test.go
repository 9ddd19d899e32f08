package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"ilm-quiz-service/internal/app"
	"ilm-quiz-service/internal/domain"
	filestore "ilm-quiz-service/internal/infra/file"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	store := filestore.NewAccountStore(filepath.Join(t.TempDir(), "users.json"))
	accounts := app.NewAccountService(store, app.AuthOptions{})
	handler := NewHandler(accounts, []domain.Category{{ID: "coran", Name: "Le Coran"}})

	router := mux.NewRouter()
	handler.Routes(router)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterAndLoginFlow(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "amina", "password": "secret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body)
	}
	var created struct {
		User domain.PublicAccount `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if created.User.ID == "" || created.User.Username != "amina" {
		t.Fatalf("unexpected user: %+v", created.User)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("credential")) {
		t.Fatalf("response leaks credential: %s", rec.Body)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "amina", "password": "other",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "amina", "password": "secret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "amina", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad credential: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "nobody", "password": "secret",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown username: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", map[string]string{
		"username": "amina",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %d", rec.Code)
	}
}

func TestUpdateScoresEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "amina", "password": "secret",
	})
	var created struct {
		User domain.PublicAccount `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	scores := []domain.ScoreRecord{{Percentage: 80, Category: "coran", Level: "debutant", Timestamp: 1}}
	rec = doJSON(t, router, http.MethodPut, "/api/users/scores", map[string]any{
		"userId": created.User.ID, "scores": scores,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update scores: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, router, http.MethodPut, "/api/users/scores", map[string]any{
		"userId": "missing", "scores": scores,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, "/api/users/scores", map[string]any{
		"scores": scores,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing user id: expected 400, got %d", rec.Code)
	}
}

func TestListUsersStripsCredentials(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "amina", "password": "secret",
	})
	doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "bilal", "password": "hidden",
	})

	rec := doJSON(t, router, http.MethodGet, "/api/users/scores", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list users: expected 200, got %d", rec.Code)
	}
	var resp struct {
		Users []domain.PublicAccount `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(resp.Users))
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("credential")) {
		t.Fatalf("response leaks credentials: %s", rec.Body)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "amina", "password": "secret",
	})
	var created struct {
		User domain.PublicAccount `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode register response: %v", err)
	}

	scores := []domain.ScoreRecord{
		{Percentage: 90, Category: "coran", Level: "debutant", Timestamp: 1},
		{Percentage: 90, Category: "sira", Level: "avance", Timestamp: 2},
		{Percentage: 80, Category: "fiqh", Level: "all", Timestamp: 3},
		{Percentage: 70, Category: "coran", Level: "all", Timestamp: 4},
	}
	doJSON(t, router, http.MethodPut, "/api/users/scores", map[string]any{
		"userId": created.User.ID, "scores": scores,
	})

	rec = doJSON(t, router, http.MethodGet, "/api/leaderboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard: expected 200, got %d", rec.Code)
	}
	var resp struct {
		Entries []domain.LeaderboardEntry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode leaderboard: %v", err)
	}
	if len(resp.Entries) != 3 {
		t.Fatalf("expected top 3, got %d", len(resp.Entries))
	}
	if resp.Entries[0].Timestamp != 2 || resp.Entries[1].Timestamp != 1 {
		t.Fatalf("tie should rank recent first: %+v", resp.Entries)
	}
	if resp.Entries[2].Percentage != 80 {
		t.Fatalf("expected 80%% third, got %+v", resp.Entries[2])
	}

	rec = doJSON(t, router, http.MethodGet, "/api/leaderboard?n=bad", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad n: expected 400, got %d", rec.Code)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/categories", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("categories: expected 200, got %d", rec.Code)
	}
	var resp struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(resp.Categories) != 1 || resp.Categories[0].ID != "coran" {
		t.Fatalf("unexpected catalog: %+v", resp.Categories)
	}
}
