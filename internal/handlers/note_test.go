package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studymate-backend/internal/middleware"
	"studymate-backend/internal/models"
)

type stubNoteRepo struct {
	created    *models.Note
	lastSearch string
}

func (s *stubNoteRepo) Create(ctx context.Context, n *models.Note) error {
	n.ID = uuid.New()
	s.created = n
	return nil
}

func (s *stubNoteRepo) ListByUser(ctx context.Context, userID, search string) ([]*models.Note, error) {
	s.lastSearch = search
	return []*models.Note{}, nil
}

func (s *stubNoteRepo) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	return pgx.ErrNoRows
}

func TestNoteCreate(t *testing.T) {
	repo := &stubNoteRepo{}
	h := NewNoteHandler(repo)

	req := postJSON("/api/v1/notes", map[string]string{"content": "Krebs cycle steps", "chapterId": "chapter-3"})
	req = req.WithContext(middleware.WithUser(req.Context(), &middleware.UserClaims{UserID: "u1"}))

	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, rr.Code)
	}
	if repo.created.UserID != "u1" || repo.created.Title != "Untitled note" || repo.created.ChapterID != "chapter-3" {
		t.Fatalf("unexpected note %+v", repo.created)
	}
}

func TestNoteList_PassesSearch(t *testing.T) {
	repo := &stubNoteRepo{}
	h := NewNoteHandler(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notes?search=krebs", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), &middleware.UserClaims{UserID: "u1"}))

	rr := httptest.NewRecorder()
	h.List(rr, req)

	var resp map[string]json.RawMessage
	json.NewDecoder(rr.Body).Decode(&resp)
	if rr.Code != http.StatusOK || repo.lastSearch != "krebs" || string(resp["notes"]) != "[]" {
		t.Fatalf("unexpected list response %d %q %s", rr.Code, repo.lastSearch, resp["notes"])
	}
}

func TestNoteDelete_NotFound(t *testing.T) {
	h := NewNoteHandler(&stubNoteRepo{})

	rr := httptest.NewRecorder()
	h.Delete(rr, withUserAndID(httptest.NewRequest(http.MethodDelete, "/", nil), "u1", uuid.New()))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}
