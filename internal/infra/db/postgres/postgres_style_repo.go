package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/repository"
)

var _ repository.StyleRepository = (*PostgresStyleRepo)(nil)

type PostgresStyleRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresStyleRepo(pool *pgxpool.Pool) *PostgresStyleRepo {
	return &PostgresStyleRepo{pool: pool}
}

// Save upserts by name; on conflict the stored id wins and is written back to s.
func (r *PostgresStyleRepo) Save(ctx context.Context, tx repository.Tx, s *model.Style) error {
	const q = `
INSERT INTO question_set_styles (id, name, description, template_name, is_premium, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT ON CONSTRAINT question_set_styles_name_key DO UPDATE SET
  description = EXCLUDED.description,
  template_name = EXCLUDED.template_name,
  is_premium = EXCLUDED.is_premium
RETURNING id, created_at;`
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	row, err := pickRow(ctx, r.pool, tx, q, s.ID, s.Name, s.Description, s.TemplateName, s.IsPremium, s.CreatedAt)
	if err != nil {
		return err
	}
	return row.Scan(&s.ID, &s.CreatedAt)
}

func (r *PostgresStyleRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Style, error) {
	const q = `SELECT id, name, description, template_name, is_premium, created_at FROM question_set_styles WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var s model.Style
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.TemplateName, &s.IsPremium, &s.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *PostgresStyleRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Style, error) {
	const q = `SELECT id, name, description, template_name, is_premium, created_at FROM question_set_styles ORDER BY is_premium, name;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, fmt.Errorf("list styles: %w", err)
	}
	defer rows.Close()

	var out []*model.Style
	for rows.Next() {
		var s model.Style
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.TemplateName, &s.IsPremium, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
