package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"studymate-backend/internal/models"
)

// GenerationResult is the interpreted shape of one model reply.
// It is either ParsedChapters or RawText.
type GenerationResult interface {
	isGenerationResult()
}

type ParsedChapters struct {
	Chapters []models.Chapter
}

// RawText carries a reply that could not be read as a chapter array.
type RawText struct {
	Text string
}

func (ParsedChapters) isGenerationResult() {}
func (RawText) isGenerationResult()        {}

const (
	fallbackMinSegmentLen = 50
	fallbackMaxChapters   = 10
)

var leadingNumberRe = regexp.MustCompile(`^[0-9]+\.?\s*`)

// ExtractJSONArray returns the text between the first '[' and the last ']'.
// The match is greedy on purpose: two arrays in one reply yield one span that
// usually fails to parse.
func ExtractJSONArray(raw string) (string, bool) {
	return extractSpan(raw, "[", "]")
}

// ExtractJSONObject is the '{' ... '}' counterpart of ExtractJSONArray.
func ExtractJSONObject(raw string) (string, bool) {
	return extractSpan(raw, "{", "}")
}

func extractSpan(raw, open, close string) (string, bool) {
	start := strings.Index(raw, open)
	end := strings.LastIndex(raw, close)
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// ParseGeneration interprets model output. An empty array counts as unusable.
func ParseGeneration(raw string) GenerationResult {
	span, ok := ExtractJSONArray(raw)
	if !ok {
		return RawText{Text: raw}
	}
	var chapters []models.Chapter
	if err := json.Unmarshal([]byte(span), &chapters); err != nil || len(chapters) == 0 {
		return RawText{Text: raw}
	}
	return ParsedChapters{Chapters: chapters}
}

// NormalizeChapters turns a GenerationResult into a usable chapter list.
// Raw replies are replaced by chapters synthesized from the syllabus itself.
func NormalizeChapters(result GenerationResult, syllabus string) (chapters []models.Chapter, fromModel bool) {
	switch r := result.(type) {
	case ParsedChapters:
		return ensureChapterIDs(fillChapterDefaults(r.Chapters)), true
	default:
		return FallbackChapters(syllabus), false
	}
}

// FallbackChapters deterministically builds chapters from blank-line separated
// paragraphs of the syllabus.
func FallbackChapters(syllabus string) []models.Chapter {
	text := strings.ReplaceAll(syllabus, "\r\n", "\n")

	var segments []string
	for _, seg := range strings.Split(text, "\n\n") {
		seg = strings.TrimSpace(seg)
		if utf8.RuneCountInString(seg) < fallbackMinSegmentLen {
			continue
		}
		segments = append(segments, seg)
		if len(segments) == fallbackMaxChapters {
			break
		}
	}

	// Short syllabi still produce one chapter.
	if len(segments) == 0 {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			segments = []string{trimmed}
		}
	}

	chapters := make([]models.Chapter, 0, len(segments))
	for i, seg := range segments {
		title := fallbackTitle(seg, i+1)
		chapters = append(chapters, models.Chapter{
			ID:                    fmt.Sprintf("chapter-%d", i+1),
			Title:                 title,
			Explanation:           seg,
			MostProbableQuestions: fallbackMostProbable(),
			PracticeQuestions:     fallbackPracticeQuestions(title),
			YouTubeQueries:        []models.YouTubeQuery{{Query: title}},
			YouTubeVideos:         []models.YouTubeVideo{},
		})
	}
	return chapters
}

func fallbackTitle(segment string, n int) string {
	firstLine := segment
	if idx := strings.Index(segment, "\n"); idx != -1 {
		firstLine = segment[:idx]
	}
	title := strings.TrimSpace(leadingNumberRe.ReplaceAllString(strings.TrimSpace(firstLine), ""))
	if title == "" {
		return fmt.Sprintf("Chapter %d", n)
	}
	return title
}

func fallbackMostProbable() []models.MostProbableQuestion {
	return []models.MostProbableQuestion{
		{Question: "What is the main concept of this chapter?", Answer: "The main concept is explained in the chapter content above."},
		{Question: "Explain a key example from this chapter.", Answer: "A key example is discussed in the chapter explanation."},
		{Question: "List important points to remember from this chapter.", Answer: "Important points are highlighted throughout the chapter."},
	}
}

func fallbackPracticeQuestions(title string) []models.PracticeQuestion {
	questions := make([]models.PracticeQuestion, 0, 3)
	for i := 1; i <= 3; i++ {
		questions = append(questions, placeholderQuestion(i, title))
	}
	return questions
}

func fillChapterDefaults(chapters []models.Chapter) []models.Chapter {
	for i := range chapters {
		ch := &chapters[i]
		if ch.MostProbableQuestions == nil {
			ch.MostProbableQuestions = []models.MostProbableQuestion{}
		}
		if ch.PracticeQuestions == nil {
			ch.PracticeQuestions = []models.PracticeQuestion{}
		}
		if ch.YouTubeQueries == nil {
			ch.YouTubeQueries = []models.YouTubeQuery{}
		}
		if ch.YouTubeVideos == nil {
			ch.YouTubeVideos = []models.YouTubeVideo{}
		}
	}
	return chapters
}

// ensureChapterIDs reassigns missing or repeated ids so they are unique in the batch.
func ensureChapterIDs(chapters []models.Chapter) []models.Chapter {
	seen := make(map[string]bool, len(chapters))
	for i := range chapters {
		id := strings.TrimSpace(chapters[i].ID)
		if id == "" || seen[id] {
			id = fmt.Sprintf("chapter-%d", i+1)
			for n := i + 1; seen[id]; n++ {
				id = fmt.Sprintf("chapter-%d-%d", i+1, n)
			}
		}
		chapters[i].ID = id
		seen[id] = true
	}
	return chapters
}
