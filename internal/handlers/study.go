package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"studymate-backend/internal/logger"
	"studymate-backend/internal/models"
	"studymate-backend/internal/services"
)

type studyPipeline interface {
	Generate(ctx context.Context, syllabus string, numQuestions int) (*services.GenerationReport, error)
	KnowledgeTree(ctx context.Context, syllabus string) (*models.KnowledgeTreeNode, error)
	RegenerateQuiz(ctx context.Context, chapter models.Chapter, numQuestions int) ([]models.PracticeQuestion, error)
	Explain(ctx context.Context, subtopic, syllabus string) (string, error)
	Suggestions(ctx context.Context, subtopic string) ([]models.YouTubeVideo, error)
}

type chapterTranslator interface {
	TranslateText(ctx context.Context, text, targetLang string) (string, error)
	TranslateChapters(ctx context.Context, chapters []models.Chapter, targetLang string) ([]models.Chapter, error)
}

type syllabusSource interface {
	FromFile(filename string, r io.Reader) (title, text string, err error)
	FromYouTube(ctx context.Context, videoURL string) (title, text string, err error)
}

// StudyHandler serves the stateless generation endpoints used by the study UI.
type StudyHandler struct {
	pipeline   studyPipeline
	translator chapterTranslator
	extractor  syllabusSource
	log        *logger.Logger
}

func NewStudyHandler(pipeline studyPipeline, translator chapterTranslator, extractor syllabusSource, log *logger.Logger) *StudyHandler {
	return &StudyHandler{
		pipeline:   pipeline,
		translator: translator,
		extractor:  extractor,
		log:        log.With("handler", "study"),
	}
}

func (h *StudyHandler) GenerateChapters(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateChaptersRequest
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

	report, err := h.pipeline.Generate(r.Context(), req.SyllabusContent, req.NumQuestions)
	if err != nil {
		h.log.Error("chapter generation failed", "error", err)
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.GenerateChaptersResponse{Chapters: report.Chapters})
}

func (h *StudyHandler) KnowledgeTree(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateChaptersRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SyllabusContent) == "" {
		validationFailed(w, r, "syllabusContent", "Syllabus content is required")
		return
	}

	tree, err := h.pipeline.KnowledgeTree(r.Context(), req.SyllabusContent)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.KnowledgeTreeResponse{KnowledgeTree: tree})
}

func (h *StudyHandler) ExplainSubtopic(w http.ResponseWriter, r *http.Request) {
	var req models.ExplainSubtopicRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SubtopicName) == "" {
		validationFailed(w, r, "subtopicName", "Subtopic name is required")
		return
	}

	explanation, err := h.pipeline.Explain(r.Context(), req.SubtopicName, req.SyllabusContent)
	if err != nil {
		h.log.Error("explain subtopic failed", "subtopic", req.SubtopicName, "error", err)
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"explanation": explanation})
}

func (h *StudyHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" || strings.TrimSpace(req.TargetLang) == "" {
		validationFailed(w, r, "targetLang", "Text and target language are required")
		return
	}

	translated, err := h.translator.TranslateText(r.Context(), req.Text, req.TargetLang)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"translatedText": translated})
}

func (h *StudyHandler) TranslateChapters(w http.ResponseWriter, r *http.Request) {
	var req models.TranslateChaptersRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.TargetLang) == "" {
		validationFailed(w, r, "targetLang", "Target language is required")
		return
	}

	chapters, err := h.translator.TranslateChapters(r.Context(), req.Chapters, req.TargetLang)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"chapters": chapters})
}

type suggestedVideo struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (h *StudyHandler) YouTubeSuggestions(w http.ResponseWriter, r *http.Request) {
	var req models.YouTubeSuggestionsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SubtopicName) == "" {
		validationFailed(w, r, "subtopicName", "Subtopic name is required")
		return
	}

	videos, err := h.pipeline.Suggestions(r.Context(), req.SubtopicName)
	if err != nil {
		h.log.Error("youtube suggestions failed", "subtopic", req.SubtopicName, "error", err)
		handleServiceError(w, r, err)
		return
	}

	out := make([]suggestedVideo, 0, len(videos))
	for _, v := range videos {
		out = append(out, suggestedVideo{Title: v.Title, URL: v.URL})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"videos": out})
}

func (h *StudyHandler) RegenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req models.RegenerateQuizRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !validQuestionCount(w, r, req.NumQuestions) {
		return
	}

	questions, err := h.pipeline.RegenerateQuiz(r.Context(), req.Chapter, req.NumQuestions)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"practiceQuestions": questions})
}

// ExtractSyllabus accepts either a multipart "file" upload or a JSON body with
// a youtubeUrl.
func (h *StudyHandler) ExtractSyllabus(w http.ResponseWriter, r *http.Request) {
	var (
		title, text string
		err         error
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, services.MaxSyllabusFileBytes+1024*1024)
		if perr := r.ParseMultipartForm(services.MaxSyllabusFileBytes); perr != nil {
			validationFailed(w, r, "file", "Upload is too large or malformed")
			return
		}
		file, header, ferr := r.FormFile("file")
		if ferr != nil {
			validationFailed(w, r, "file", "File is required")
			return
		}
		defer file.Close()
		title, text, err = h.extractor.FromFile(header.Filename, file)
	} else {
		var req struct {
			YouTubeURL string `json:"youtubeUrl"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.YouTubeURL) == "" {
			validationFailed(w, r, "youtubeUrl", "A file or YouTube URL is required")
			return
		}
		title, text, err = h.extractor.FromYouTube(r.Context(), req.YouTubeURL)
	}

	if err != nil {
		h.log.Warn("syllabus extraction failed", "error", err)
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SyllabusExtractResponse{Title: title, Text: text})
}
