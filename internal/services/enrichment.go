package services

import (
	"context"
	"strconv"
	"strings"

	"studymate-backend/internal/logger"
	"studymate-backend/internal/models"
)

const (
	enrichmentMaxResults  = 1
	enrichmentOrder       = "relevance"
	suggestionsMaxResults = 2
	suggestionsOrder      = "viewCount"
)

type VideoEnricher struct {
	searcher VideoSearcher
	log      *logger.Logger
}

func NewVideoEnricher(searcher VideoSearcher, log *logger.Logger) *VideoEnricher {
	return &VideoEnricher{searcher: searcher, log: log.With("service", "enrichment")}
}

// Enrich attaches at most one video per query, in query order. Failed or
// empty searches are skipped; they never fail the batch.
func (e *VideoEnricher) Enrich(ctx context.Context, chapters []models.Chapter) []models.Chapter {
	for i := range chapters {
		ch := &chapters[i]
		videos := make([]models.YouTubeVideo, 0, len(ch.YouTubeQueries))
		for _, q := range ch.YouTubeQueries {
			query := strings.TrimSpace(q.Query)
			if query == "" {
				continue
			}
			results, err := e.searcher.Search(ctx, query, enrichmentMaxResults, enrichmentOrder)
			if err != nil {
				e.log.Warn("video search failed", "chapter_id", ch.ID, "query", query, "error", err)
				continue
			}
			if len(results) == 0 {
				continue
			}
			v := results[0]
			if q.TimestampSeconds > 0 {
				v.Timestamp = q.TimestampSeconds
				v.URL += "&t=" + strconv.Itoa(q.TimestampSeconds) + "s"
			}
			videos = append(videos, v)
		}
		ch.YouTubeVideos = videos
	}
	return chapters
}

// Suggestions returns the most viewed videos for a subtopic.
func (e *VideoEnricher) Suggestions(ctx context.Context, subtopic string) ([]models.YouTubeVideo, error) {
	return e.searcher.Search(ctx, subtopic, suggestionsMaxResults, suggestionsOrder)
}
