package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"studymate-backend/internal/models"
)

type GroupRepo struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) *GroupRepo {
	return &GroupRepo{pool: pool}
}

const groupColumns = `id, name, description, creator_id, members, pending_invites, created_at`

func scanGroup(row pgx.Row) (*models.Group, error) {
	g := &models.Group{}
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.CreatorID, &g.Members, &g.PendingInvites, &g.CreatedAt); err != nil {
		return nil, err
	}
	return g, nil
}

// Create stores a new group with its creator as the only member.
func (r *GroupRepo) Create(ctx context.Context, g *models.Group) error {
	g.ID = uuid.New()
	g.Members = []string{g.CreatorID}
	g.PendingInvites = []string{}

	return r.pool.QueryRow(ctx,
		`INSERT INTO study_groups (id, name, description, creator_id, members, pending_invites)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		g.ID, g.Name, g.Description, g.CreatorID, g.Members, g.PendingInvites,
	).Scan(&g.CreatedAt)
}

func (r *GroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	return scanGroup(r.pool.QueryRow(ctx, "SELECT "+groupColumns+" FROM study_groups WHERE id = $1", id))
}

// ListForUser returns groups the user belongs to or has been invited to.
func (r *GroupRepo) ListForUser(ctx context.Context, userID, email string) ([]*models.Group, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+groupColumns+` FROM study_groups
		WHERE $1 = ANY(members) OR ($2 <> '' AND $2 = ANY(pending_invites))
		ORDER BY created_at DESC`,
		userID, strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []*models.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// AddMember adds userID to the group and clears any pending invite for email.
func (r *GroupRepo) AddMember(ctx context.Context, groupID uuid.UUID, userID, email string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE study_groups SET
			members = CASE WHEN $2 = ANY(members) THEN members ELSE array_append(members, $2) END,
			pending_invites = array_remove(pending_invites, $3)
		WHERE id = $1`,
		groupID, userID, strings.ToLower(email))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *GroupRepo) AddInvite(ctx context.Context, groupID uuid.UUID, email string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE study_groups SET pending_invites =
			CASE WHEN $2 = ANY(pending_invites) THEN pending_invites ELSE array_append(pending_invites, $2) END
		WHERE id = $1`,
		groupID, strings.ToLower(email))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
