package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studymate-backend/internal/logger"
	"studymate-backend/internal/models"
	"studymate-backend/internal/services"
)

type stubPipeline struct {
	report    *services.GenerationReport
	tree      *models.KnowledgeTreeNode
	questions []models.PracticeQuestion
	videos    []models.YouTubeVideo
	text      string
	err       error

	lastSyllabus string
	lastCount    int
	lastChapter  models.Chapter
}

func (s *stubPipeline) Generate(ctx context.Context, syllabus string, n int) (*services.GenerationReport, error) {
	s.lastSyllabus, s.lastCount = syllabus, n
	return s.report, s.err
}

func (s *stubPipeline) KnowledgeTree(ctx context.Context, syllabus string) (*models.KnowledgeTreeNode, error) {
	return s.tree, s.err
}

func (s *stubPipeline) RegenerateQuiz(ctx context.Context, ch models.Chapter, n int) ([]models.PracticeQuestion, error) {
	s.lastChapter, s.lastCount = ch, n
	return s.questions, s.err
}

func (s *stubPipeline) Explain(ctx context.Context, subtopic, syllabus string) (string, error) {
	return s.text, s.err
}

func (s *stubPipeline) Suggestions(ctx context.Context, subtopic string) ([]models.YouTubeVideo, error) {
	return s.videos, s.err
}

type stubExtractor struct {
	filename string
	content  string
	url      string
	err      error
}

func (s *stubExtractor) FromFile(filename string, r io.Reader) (string, string, error) {
	data, _ := io.ReadAll(r)
	s.filename, s.content = filename, string(data)
	return "Notes", "file text", s.err
}

func (s *stubExtractor) FromYouTube(ctx context.Context, url string) (string, string, error) {
	s.url = url
	return "Lecture", "caption text", s.err
}

func postJSON(path string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp
}

func newStudyHandler(p *stubPipeline, ex *stubExtractor) *StudyHandler {
	return NewStudyHandler(p, nil, ex, logger.Nop())
}

func TestGenerateChapters_ReturnsChapters(t *testing.T) {
	p := &stubPipeline{report: &services.GenerationReport{
		Chapters: []models.Chapter{{ID: "chapter-1", Title: "Cells"}},
		Source:   services.SourceModel,
	}}
	h := newStudyHandler(p, nil)

	rr := httptest.NewRecorder()
	h.GenerateChapters(rr, postJSON("/generate-knowledge-tree", map[string]interface{}{
		"syllabusContent": "Cell biology",
		"numQuestions":    3,
	}))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp models.GenerateChaptersResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(resp.Chapters) != 1 || resp.Chapters[0].Title != "Cells" {
		t.Fatalf("unexpected chapters %+v", resp.Chapters)
	}
	if p.lastSyllabus != "Cell biology" || p.lastCount != 3 {
		t.Fatalf("expected request passed through, got %q/%d", p.lastSyllabus, p.lastCount)
	}
}

func TestGenerateChapters_MissingKeyIs500WithMessage(t *testing.T) {
	h := newStudyHandler(&stubPipeline{err: &services.ConfigError{Service: "Gemini"}}, nil)

	rr := httptest.NewRecorder()
	h.GenerateChapters(rr, postJSON("/generate-knowledge-tree", map[string]string{"syllabusContent": "x"}))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error != "Gemini API key not set" {
		t.Fatalf("expected config message, got %q", resp.Error)
	}
}

func TestGenerateChapters_EmptySyllabusRejected(t *testing.T) {
	p := &stubPipeline{}
	h := newStudyHandler(p, nil)

	rr := httptest.NewRecorder()
	h.GenerateChapters(rr, postJSON("/generate-knowledge-tree", map[string]string{"syllabusContent": "   "}))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if resp := decodeError(t, rr); resp.Fields["syllabusContent"] == "" {
		t.Fatalf("expected field error, got %+v", resp)
	}
}

func TestGenerateChapters_QuestionCountOutOfRange(t *testing.T) {
	for _, n := range []int{-1, services.MaxQuestionCount + 1, 1 << 40} {
		p := &stubPipeline{}
		h := newStudyHandler(p, nil)

		rr := httptest.NewRecorder()
		h.GenerateChapters(rr, postJSON("/generate-knowledge-tree", map[string]interface{}{
			"syllabusContent": "Cell biology",
			"numQuestions":    n,
		}))

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("n=%d: expected status %d, got %d", n, http.StatusBadRequest, rr.Code)
		}
		if resp := decodeError(t, rr); resp.Code != "VALIDATION_ERROR" || resp.Fields["numQuestions"] == "" {
			t.Fatalf("n=%d: expected numQuestions field error, got %+v", n, resp)
		}
		if p.lastSyllabus != "" {
			t.Fatalf("n=%d: pipeline should not run", n)
		}
	}
}

func TestExplainSubtopic_UpstreamErrorIsGeneric(t *testing.T) {
	upstream := &services.UpstreamError{Service: "Gemini", StatusCode: 503, Err: errors.New("unavailable")}
	h := newStudyHandler(&stubPipeline{err: upstream}, nil)

	rr := httptest.NewRecorder()
	h.ExplainSubtopic(rr, postJSON("/explain-subtopic", map[string]string{"subtopicName": "Mitosis"}))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	resp := decodeError(t, rr)
	if resp.Code != "UPSTREAM_ERROR" || strings.Contains(resp.Error, "unavailable") {
		t.Fatalf("expected generic upstream error, got %+v", resp)
	}
}

func TestExplainSubtopic_Success(t *testing.T) {
	h := newStudyHandler(&stubPipeline{text: "Cells divide."}, nil)

	rr := httptest.NewRecorder()
	h.ExplainSubtopic(rr, postJSON("/explain-subtopic", map[string]string{"subtopicName": "Mitosis"}))

	var resp map[string]string
	json.NewDecoder(rr.Body).Decode(&resp)
	if rr.Code != http.StatusOK || resp["explanation"] != "Cells divide." {
		t.Fatalf("unexpected response %d %v", rr.Code, resp)
	}
}

func TestYouTubeSuggestions_OnlyTitleAndURL(t *testing.T) {
	thumb := "https://i.ytimg.com/vi/abc/default.jpg"
	h := newStudyHandler(&stubPipeline{videos: []models.YouTubeVideo{
		{Title: "Intro", URL: "https://www.youtube.com/watch?v=abc", Thumbnail: &thumb},
	}}, nil)

	rr := httptest.NewRecorder()
	h.YouTubeSuggestions(rr, postJSON("/youtube-suggestions", map[string]string{"subtopicName": "Mitosis"}))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp struct {
		Videos []map[string]interface{} `json:"videos"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Videos) != 1 || resp.Videos[0]["url"] != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("unexpected videos %+v", resp.Videos)
	}
	if _, ok := resp.Videos[0]["thumbnail"]; ok {
		t.Fatalf("expected thumbnail to be omitted")
	}
}

func TestRegenerateQuiz_PassesChapter(t *testing.T) {
	p := &stubPipeline{questions: []models.PracticeQuestion{{Question: "Q1"}}}
	h := newStudyHandler(p, nil)

	rr := httptest.NewRecorder()
	h.RegenerateQuiz(rr, postJSON("/regenerate-quiz", map[string]interface{}{
		"chapter":      map[string]string{"id": "chapter-2", "title": "Genetics"},
		"numQuestions": 4,
	}))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if p.lastChapter.Title != "Genetics" || p.lastCount != 4 {
		t.Fatalf("unexpected pipeline input %+v/%d", p.lastChapter, p.lastCount)
	}
}

func TestExtractSyllabus_YouTubeURL(t *testing.T) {
	ex := &stubExtractor{}
	h := newStudyHandler(&stubPipeline{}, ex)

	rr := httptest.NewRecorder()
	h.ExtractSyllabus(rr, postJSON("/syllabus/extract", map[string]string{"youtubeUrl": "https://youtu.be/dQw4w9WgXcQ"}))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if ex.url != "https://youtu.be/dQw4w9WgXcQ" {
		t.Fatalf("expected url passed to extractor, got %q", ex.url)
	}
	var resp models.SyllabusExtractResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Title != "Lecture" || resp.Text != "caption text" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestExtractSyllabus_MultipartFile(t *testing.T) {
	ex := &stubExtractor{}
	h := newStudyHandler(&stubPipeline{}, ex)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "week1.txt")
	fw.Write([]byte("Week one topics"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/syllabus/extract", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rr := httptest.NewRecorder()
	h.ExtractSyllabus(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if ex.filename != "week1.txt" || ex.content != "Week one topics" {
		t.Fatalf("unexpected extractor input %q %q", ex.filename, ex.content)
	}
}

func TestExtractSyllabus_ValidationErrorFromExtractor(t *testing.T) {
	ex := &stubExtractor{err: &services.ValidationError{Fields: map[string]string{"youtubeUrl": "Invalid YouTube URL"}}}
	h := newStudyHandler(&stubPipeline{}, ex)

	rr := httptest.NewRecorder()
	h.ExtractSyllabus(rr, postJSON("/syllabus/extract", map[string]string{"youtubeUrl": "nope"}))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}
