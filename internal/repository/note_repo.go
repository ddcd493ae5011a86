package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studymate-backend/internal/models"
)

type NoteRepo struct {
	pool *pgxpool.Pool
}

func NewNoteRepo(pool *pgxpool.Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

func (r *NoteRepo) Create(ctx context.Context, n *models.Note) error {
	n.ID = uuid.New()
	return r.pool.QueryRow(ctx,
		`INSERT INTO notes (id, user_id, title, content, chat_id, chat_title, chapter_id, chapter_title)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`,
		n.ID, n.UserID, n.Title, n.Content, n.ChatID, n.ChatTitle, n.ChapterID, n.ChapterTitle,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
}

func (r *NoteRepo) ListByUser(ctx context.Context, userID, search string) ([]*models.Note, error) {
	args := []interface{}{userID}
	where := "WHERE user_id = $1"
	if search != "" {
		args = append(args, "%"+search+"%")
		where += fmt.Sprintf(" AND (title ILIKE $%d OR content ILIKE $%d OR chapter_title ILIKE $%d)", len(args), len(args), len(args))
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, title, content, chat_id, chat_title, chapter_id, chapter_title, created_at, updated_at
		FROM notes `+where+` ORDER BY updated_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []*models.Note{}
	for rows.Next() {
		n := &models.Note{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.ChatID, &n.ChatTitle,
			&n.ChapterID, &n.ChapterTitle, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *NoteRepo) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM notes WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
