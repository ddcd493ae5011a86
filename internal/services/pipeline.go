package services

import (
	"context"
	"encoding/json"
	"strings"

	"studymate-backend/internal/logger"
	"studymate-backend/internal/models"
)

type Stage int

const (
	StageIdle Stage = iota
	StageBuildingPrompt
	StageAwaitingGeneration
	StageNormalizing
	StageEnforcingQuizCount
	StageEnrichingVideos
	StageComplete
	StageFailed
)

var stageNames = [...]string{
	"idle",
	"building_prompt",
	"awaiting_generation",
	"normalizing",
	"enforcing_quiz_count",
	"enriching_videos",
	"complete",
	"failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

type GenerationReport struct {
	Chapters []models.Chapter
	Source   string
	Stages   []Stage
	// FailReason is set when generation failed and fallback chapters were used.
	FailReason string
}

// credentialChecker is implemented by clients that can report a missing key
// without making a call.
type credentialChecker interface {
	CheckConfigured() error
}

func (s *GeminiService) CheckConfigured() error {
	if s.model == nil {
		return &ConfigError{Service: "Gemini"}
	}
	return nil
}

func (s *YouTubeSearchService) CheckConfigured() error {
	if s.svc == nil {
		return &ConfigError{Service: "YouTube"}
	}
	return nil
}

// ChapterPipeline turns syllabus text into enriched chapters.
type ChapterPipeline struct {
	gen      TextGenerator
	searcher VideoSearcher
	enricher *VideoEnricher
	log      *logger.Logger
}

func NewChapterPipeline(gen TextGenerator, searcher VideoSearcher, log *logger.Logger) *ChapterPipeline {
	return &ChapterPipeline{
		gen:      gen,
		searcher: searcher,
		enricher: NewVideoEnricher(searcher, log),
		log:      log.With("service", "pipeline"),
	}
}

func (p *ChapterPipeline) checkCredentials(includeSearch bool) error {
	deps := []interface{}{p.gen}
	if includeSearch {
		deps = append(deps, p.searcher)
	}
	for _, d := range deps {
		if c, ok := d.(credentialChecker); ok {
			if err := c.CheckConfigured(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Generate runs the whole breakdown. Only a configuration error is returned;
// every other failure degrades to fallback chapters.
func (p *ChapterPipeline) Generate(ctx context.Context, syllabus string, numQuestions int) (*GenerationReport, error) {
	report := &GenerationReport{Stages: []Stage{StageIdle}}
	advance := func(s Stage) { report.Stages = append(report.Stages, s) }

	if err := p.checkCredentials(true); err != nil {
		advance(StageFailed)
		return report, err
	}

	advance(StageBuildingPrompt)
	prompt := BuildChapterPrompt(syllabus, numQuestions)

	advance(StageAwaitingGeneration)
	var result GenerationResult
	raw, err := p.gen.Generate(ctx, prompt)
	switch {
	case err != nil && IsConfigError(err):
		advance(StageFailed)
		return report, err
	case err != nil:
		p.log.Warn("generation failed, using fallback chapters", "error", err)
		advance(StageFailed)
		report.FailReason = err.Error()
		result = RawText{}
	default:
		result = ParseGeneration(raw)
	}

	advance(StageNormalizing)
	chapters, fromModel := NormalizeChapters(result, syllabus)
	report.Source = SourceFallback
	if fromModel {
		report.Source = SourceModel
	}

	advance(StageEnforcingQuizCount)
	chapters = EnforceQuizCount(chapters, numQuestions)

	advance(StageEnrichingVideos)
	chapters = p.enricher.Enrich(ctx, chapters)

	advance(StageComplete)
	report.Chapters = chapters
	p.log.Info("breakdown generated", "chapters", len(chapters), "source", report.Source)
	return report, nil
}

// KnowledgeTree asks for a topic tree. An unusable reply becomes a root node
// with one child per fallback chapter title.
func (p *ChapterPipeline) KnowledgeTree(ctx context.Context, syllabus string) (*models.KnowledgeTreeNode, error) {
	if err := p.checkCredentials(false); err != nil {
		return nil, err
	}

	raw, err := p.gen.Generate(ctx, BuildKnowledgeTreePrompt(syllabus))
	if err != nil {
		if IsConfigError(err) {
			return nil, err
		}
		p.log.Warn("knowledge tree generation failed", "error", err)
	} else if span, ok := ExtractJSONObject(raw); ok {
		var root models.KnowledgeTreeNode
		if json.Unmarshal([]byte(span), &root) == nil && strings.TrimSpace(root.Name) != "" {
			return &root, nil
		}
	}

	root := &models.KnowledgeTreeNode{Name: "Syllabus"}
	for _, ch := range FallbackChapters(syllabus) {
		root.Children = append(root.Children, &models.KnowledgeTreeNode{Name: ch.Title})
	}
	return root, nil
}

// RegenerateQuiz produces a fresh question list of the requested size for one
// chapter. Unusable replies are padded with placeholder questions.
func (p *ChapterPipeline) RegenerateQuiz(ctx context.Context, chapter models.Chapter, numQuestions int) ([]models.PracticeQuestion, error) {
	if err := p.checkCredentials(false); err != nil {
		return nil, err
	}

	var questions []models.PracticeQuestion
	raw, err := p.gen.Generate(ctx, BuildQuizPrompt(chapter, numQuestions))
	if err != nil {
		if IsConfigError(err) {
			return nil, err
		}
		p.log.Warn("quiz regeneration failed", "chapter_id", chapter.ID, "error", err)
	} else if span, ok := ExtractJSONArray(raw); ok {
		if jerr := json.Unmarshal([]byte(span), &questions); jerr != nil {
			questions = nil
		}
	}
	return EnforceQuestionCount(questions, numQuestions, chapter.Title), nil
}

// Explain returns a free-text explanation of one subtopic.
func (p *ChapterPipeline) Explain(ctx context.Context, subtopic, syllabus string) (string, error) {
	out, err := p.gen.Generate(ctx, BuildExplainPrompt(subtopic, syllabus))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Suggestions proxies to the enricher's most-viewed search.
func (p *ChapterPipeline) Suggestions(ctx context.Context, subtopic string) ([]models.YouTubeVideo, error) {
	return p.enricher.Suggestions(ctx, subtopic)
}
