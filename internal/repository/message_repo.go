package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studymate-backend/internal/models"
)

type GroupMessageRepo struct {
	pool *pgxpool.Pool
}

func NewGroupMessageRepo(pool *pgxpool.Pool) *GroupMessageRepo {
	return &GroupMessageRepo{pool: pool}
}

func (r *GroupMessageRepo) Create(ctx context.Context, m *models.GroupMessage) error {
	m.ID = uuid.New()
	if m.Type == "" {
		m.Type = models.MessageTypeMessage
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO group_messages (id, group_id, user_id, user_name, content, type, topic)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		m.ID, m.GroupID, m.UserID, m.UserName, m.Content, m.Type, m.Topic,
	).Scan(&m.CreatedAt)
}

// ListByGroup returns the most recent limit messages in chronological order.
func (r *GroupMessageRepo) ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]*models.GroupMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, group_id, user_id, user_name, content, type, topic, created_at FROM (
			SELECT * FROM group_messages WHERE group_id = $1 ORDER BY created_at DESC LIMIT $2
		) recent ORDER BY created_at ASC`,
		groupID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*models.GroupMessage{}
	for rows.Next() {
		m := &models.GroupMessage{}
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.UserName, &m.Content, &m.Type, &m.Topic, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
