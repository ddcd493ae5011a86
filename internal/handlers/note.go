package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studymate-backend/internal/middleware"
	"studymate-backend/internal/models"
)

type noteRepository interface {
	Create(ctx context.Context, n *models.Note) error
	ListByUser(ctx context.Context, userID, search string) ([]*models.Note, error)
	Delete(ctx context.Context, id uuid.UUID, userID string) error
}

type NoteHandler struct {
	noteRepo noteRepository
}

func NewNoteHandler(noteRepo noteRepository) *NoteHandler {
	return &NoteHandler{noteRepo: noteRepo}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.Note
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		validationFailed(w, r, "content", "Note content is required")
		return
	}

	note := &models.Note{
		UserID:       middleware.GetUserID(r.Context()),
		Title:        strings.TrimSpace(req.Title),
		Content:      req.Content,
		ChatID:       req.ChatID,
		ChatTitle:    req.ChatTitle,
		ChapterID:    req.ChapterID,
		ChapterTitle: req.ChapterTitle,
	}
	if note.Title == "" {
		note.Title = "Untitled note"
	}

	if err := h.noteRepo.Create(r.Context(), note); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save note", r))
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	notes, err := h.noteRepo.ListByUser(r.Context(), middleware.GetUserID(r.Context()), search)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list notes", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": notes})
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.noteRepo.Delete(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Note not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete note", r))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
