package models

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	ChatID       string    `json:"chatId"`
	ChatTitle    string    `json:"chatTitle"`
	ChapterID    string    `json:"chapterId"`
	ChapterTitle string    `json:"chapterTitle"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SyllabusExtractResponse struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}
