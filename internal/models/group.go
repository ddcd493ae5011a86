package models

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CreatorID      string    `json:"creatorId"`
	Members        []string  `json:"members"`
	PendingInvites []string  `json:"pendingInvites"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

const (
	MessageTypeMessage          = "message"
	MessageTypeGeneratedContent = "generated-content"
)

type GroupMessage struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"groupId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Topic     *string   `json:"topic,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type InviteRequest struct {
	Email string `json:"email"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}
