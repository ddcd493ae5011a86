package models

import (
	"time"

	"github.com/google/uuid"
)

// Breakdown is a persisted chapter set. Personal breakdowns have a nil GroupID.
type Breakdown struct {
	ID              uuid.UUID  `json:"id"`
	UserID          string     `json:"userId"`
	UserName        string     `json:"userName"`
	GroupID         *uuid.UUID `json:"groupId,omitempty"`
	CorrelationID   *string    `json:"correlationId,omitempty"`
	Topic           string     `json:"topic"`
	SyllabusContent string     `json:"syllabusContent,omitempty"`
	Source          string     `json:"source"` // "model" | "fallback"
	Chapters        []Chapter  `json:"breakdown"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// BreakdownFeedEntry is one row of a group's reconciled breakdown feed.
type BreakdownFeedEntry struct {
	Breakdown
	Pending bool `json:"pending"`
}

type CreateBreakdownRequest struct {
	SyllabusContent string `json:"syllabusContent"`
	Topic           string `json:"topic"`
	NumQuestions    int    `json:"numQuestions"`
}

type CreateGroupBreakdownRequest struct {
	Topic         string `json:"topic"`
	CorrelationID string `json:"correlationId"`
	NumQuestions  int    `json:"numQuestions"`
}

type RegenerateBreakdownQuizRequest struct {
	ChapterID    string `json:"chapterId"`
	ChapterTitle string `json:"chapterTitle"`
	NumQuestions int    `json:"numQuestions"`
}
