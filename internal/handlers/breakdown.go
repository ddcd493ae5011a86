package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studymate-backend/internal/logger"
	"studymate-backend/internal/middleware"
	"studymate-backend/internal/models"
	"studymate-backend/internal/services"
)

const maxTopicRunes = 80

type breakdownRepository interface {
	Create(ctx context.Context, b *models.Breakdown) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Breakdown, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Breakdown, error)
	UpdateChapters(ctx context.Context, id uuid.UUID, chapters []models.Chapter) error
	Delete(ctx context.Context, id uuid.UUID, userID string) error
}

type breakdownPipeline interface {
	Generate(ctx context.Context, syllabus string, numQuestions int) (*services.GenerationReport, error)
	RegenerateQuiz(ctx context.Context, chapter models.Chapter, numQuestions int) ([]models.PracticeQuestion, error)
}

// BreakdownHandler manages a user's saved syllabus breakdowns.
type BreakdownHandler struct {
	breakdownRepo breakdownRepository
	pipeline      breakdownPipeline
	log           *logger.Logger
}

func NewBreakdownHandler(breakdownRepo breakdownRepository, pipeline breakdownPipeline, log *logger.Logger) *BreakdownHandler {
	return &BreakdownHandler{
		breakdownRepo: breakdownRepo,
		pipeline:      pipeline,
		log:           log.With("handler", "breakdown"),
	}
}

// deriveTopic uses the first non-empty syllabus line, shortened.
func deriveTopic(syllabus string) string {
	for _, line := range strings.Split(syllabus, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxTopicRunes {
			line = strings.TrimSpace(string([]rune(line)[:maxTopicRunes])) + "..."
		}
		return line
	}
	return "Untitled syllabus"
}

func (h *BreakdownHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBreakdownRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SyllabusContent) == "" {
		validationFailed(w, r, "syllabusContent", "Syllabus content is required")
		return
	}
	if !validQuestionCount(w, r, req.NumQuestions) {
		return
	}

	user := middleware.GetUser(r.Context())

	report, err := h.pipeline.Generate(r.Context(), req.SyllabusContent, req.NumQuestions)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		topic = deriveTopic(req.SyllabusContent)
	}

	b := &models.Breakdown{
		UserID:          user.UserID,
		UserName:        user.DisplayName(),
		Topic:           topic,
		SyllabusContent: req.SyllabusContent,
		Source:          report.Source,
		Chapters:        report.Chapters,
	}
	if err := h.breakdownRepo.Create(r.Context(), b); err != nil {
		h.log.Error("failed to save breakdown", "user_id", user.UserID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save breakdown", r))
		return
	}

	writeJSON(w, http.StatusCreated, b)
}

func (h *BreakdownHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	breakdowns, err := h.breakdownRepo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list breakdowns", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"breakdowns": breakdowns,
		"limit":      limit,
		"offset":     offset,
	})
}

// owned loads a breakdown and checks that the caller wrote it.
func (h *BreakdownHandler) owned(r *http.Request, id uuid.UUID) (*models.Breakdown, error) {
	b, err := h.breakdownRepo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &services.NotFoundError{Message: "Breakdown not found"}
		}
		return nil, err
	}
	if b.UserID != middleware.GetUserID(r.Context()) {
		return nil, &services.ForbiddenError{Message: "Not your breakdown"}
	}
	return b, nil
}

func (h *BreakdownHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	b, err := h.owned(r, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, b)
}

func (h *BreakdownHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.breakdownRepo.Delete(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Breakdown not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete breakdown", r))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegenerateQuiz replaces the practice questions of one saved chapter,
// matched by id first and then by title.
func (h *BreakdownHandler) RegenerateQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req models.RegenerateBreakdownQuizRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ChapterID == "" && strings.TrimSpace(req.ChapterTitle) == "" {
		validationFailed(w, r, "chapterId", "Chapter id or title is required")
		return
	}
	if !validQuestionCount(w, r, req.NumQuestions) {
		return
	}

	b, err := h.owned(r, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	idx := findChapter(b.Chapters, req.ChapterID, req.ChapterTitle)
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Chapter not found", r))
		return
	}

	questions, err := h.pipeline.RegenerateQuiz(r.Context(), b.Chapters[idx], req.NumQuestions)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	chapters := append([]models.Chapter(nil), b.Chapters...)
	chapters[idx].PracticeQuestions = questions
	if err := h.breakdownRepo.UpdateChapters(r.Context(), b.ID, chapters); err != nil {
		h.log.Error("failed to save regenerated quiz", "breakdown_id", b.ID.String(), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save quiz", r))
		return
	}
	b.Chapters = chapters

	writeJSON(w, http.StatusOK, b)
}

func findChapter(chapters []models.Chapter, id, title string) int {
	if id != "" {
		for i, ch := range chapters {
			if ch.ID == id {
				return i
			}
		}
	}
	title = strings.TrimSpace(title)
	if title != "" {
		for i, ch := range chapters {
			if strings.EqualFold(strings.TrimSpace(ch.Title), title) {
				return i
			}
		}
	}
	return -1
}
