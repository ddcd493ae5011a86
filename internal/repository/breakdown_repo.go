package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studymate-backend/internal/models"
)

type BreakdownRepo struct {
	pool *pgxpool.Pool
}

func NewBreakdownRepo(pool *pgxpool.Pool) *BreakdownRepo {
	return &BreakdownRepo{pool: pool}
}

const breakdownColumns = `id, user_id, user_name, group_id, correlation_id, topic, syllabus_content, source, chapters, created_at`

func scanBreakdown(row pgx.Row) (*models.Breakdown, error) {
	b := &models.Breakdown{}
	var chapters []byte
	err := row.Scan(&b.ID, &b.UserID, &b.UserName, &b.GroupID, &b.CorrelationID,
		&b.Topic, &b.SyllabusContent, &b.Source, &chapters, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(chapters, &b.Chapters); err != nil {
		return nil, fmt.Errorf("decode chapters for breakdown %s: %w", b.ID, err)
	}
	return b, nil
}

func (r *BreakdownRepo) Create(ctx context.Context, b *models.Breakdown) error {
	b.ID = uuid.New()
	if b.Chapters == nil {
		b.Chapters = []models.Chapter{}
	}
	chapters, err := json.Marshal(b.Chapters)
	if err != nil {
		return err
	}

	query := `INSERT INTO syllabus_breakdowns (id, user_id, user_name, group_id, correlation_id, topic, syllabus_content, source, chapters)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		b.ID, b.UserID, b.UserName, b.GroupID, b.CorrelationID, b.Topic, b.SyllabusContent, b.Source, chapters,
	).Scan(&b.CreatedAt)
}

func (r *BreakdownRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Breakdown, error) {
	return scanBreakdown(r.pool.QueryRow(ctx,
		"SELECT "+breakdownColumns+" FROM syllabus_breakdowns WHERE id = $1", id))
}

// ListByUser returns personal (non-group) breakdowns, newest first.
func (r *BreakdownRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Breakdown, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+breakdownColumns+` FROM syllabus_breakdowns
		WHERE user_id = $1 AND group_id IS NULL ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectBreakdowns(rows)
}

func (r *BreakdownRepo) ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]*models.Breakdown, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+breakdownColumns+` FROM syllabus_breakdowns
		WHERE group_id = $1 ORDER BY created_at DESC LIMIT $2`,
		groupID, limit)
	if err != nil {
		return nil, err
	}
	return collectBreakdowns(rows)
}

func collectBreakdowns(rows pgx.Rows) ([]*models.Breakdown, error) {
	defer rows.Close()
	breakdowns := []*models.Breakdown{}
	for rows.Next() {
		b, err := scanBreakdown(rows)
		if err != nil {
			return nil, err
		}
		breakdowns = append(breakdowns, b)
	}
	return breakdowns, rows.Err()
}

// FindByCorrelation looks up the group breakdown written for a client correlation id.
func (r *BreakdownRepo) FindByCorrelation(ctx context.Context, groupID uuid.UUID, correlationID string) (*models.Breakdown, error) {
	return scanBreakdown(r.pool.QueryRow(ctx,
		"SELECT "+breakdownColumns+" FROM syllabus_breakdowns WHERE group_id = $1 AND correlation_id = $2",
		groupID, correlationID))
}

func (r *BreakdownRepo) UpdateChapters(ctx context.Context, id uuid.UUID, chapters []models.Chapter) error {
	data, err := json.Marshal(chapters)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, "UPDATE syllabus_breakdowns SET chapters = $1 WHERE id = $2", data, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes a breakdown owned by userID.
func (r *BreakdownRepo) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM syllabus_breakdowns WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
