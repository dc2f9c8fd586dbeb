package postgres

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/repository"
)

var _ repository.QuestionSetRepository = (*PostgresQuestionSetRepo)(nil)

type PostgresQuestionSetRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresQuestionSetRepo(pool *pgxpool.Pool) *PostgresQuestionSetRepo {
	return &PostgresQuestionSetRepo{pool: pool}
}

const (
	shareTokenKey = "question_sets_share_token_key"
	slugKey       = "question_sets_slug_key"

	selectQuestionSet = `
SELECT id, owner_id, style_id, title, description, share_token, slug, created_at
  FROM question_sets`
)

func (r *PostgresQuestionSetRepo) Create(ctx context.Context, tx repository.Tx, qs *model.QuestionSet) error {
	const q = `
INSERT INTO question_sets (id, owner_id, style_id, title, description, share_token, slug, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`
	err := withSavepoint(ctx, r.pool, tx, func(tx repository.Tx) error {
		_, err := execSQL(ctx, r.pool, tx, q,
			qs.ID, qs.OwnerID, qs.StyleID, qs.Title, qs.Description, qs.ShareToken, qs.Slug, qs.CreatedAt)
		return err
	})
	if name, ok := uniqueConstraint(err); ok {
		switch name {
		case shareTokenKey:
			return domain.ErrShareTokenConflict
		case slugKey:
			return domain.ErrSlugConflict
		default:
			return domain.ErrAlreadyExists
		}
	}
	return err
}

func (r *PostgresQuestionSetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.QuestionSet, error) {
	return r.findOne(ctx, tx, selectQuestionSet+" WHERE id = $1;", id)
}

func (r *PostgresQuestionSetRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.QuestionSet, error) {
	return r.findOne(ctx, tx, selectQuestionSet+" WHERE slug = $1;", slug)
}

func (r *PostgresQuestionSetRepo) FindByShareToken(ctx context.Context, tx repository.Tx, token string) (*model.QuestionSet, error) {
	return r.findOne(ctx, tx, selectQuestionSet+" WHERE share_token = $1;", token)
}

func (r *PostgresQuestionSetRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string) ([]*model.QuestionSet, error) {
	rows, err := queryRows(ctx, r.pool, tx, selectQuestionSet+" WHERE owner_id = $1 ORDER BY created_at DESC, id;", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list question sets: %w", err)
	}
	defer rows.Close()

	var out []*model.QuestionSet
	for rows.Next() {
		qs, err := scanQuestionSet(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, qs)
	}
	return out, rows.Err()
}

func (r *PostgresQuestionSetRepo) CountByOwner(ctx context.Context, tx repository.Tx, ownerID string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM question_sets WHERE owner_id = $1;`, ownerID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count question sets: %w", err)
	}
	return n, nil
}

func (r *PostgresQuestionSetRepo) SlugsWithBase(ctx context.Context, tx repository.Tx, base string) ([]string, error) {
	rows, err := queryRows(ctx, r.pool, tx,
		`SELECT slug FROM question_sets WHERE slug = $1 OR slug ~ ('^' || $2 || '-[0-9]+$');`,
		base, regexp.QuoteMeta(base))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan slug: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresQuestionSetRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM question_sets WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresQuestionSetRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg string) (*model.QuestionSet, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	qs, err := scanQuestionSet(row)
	if err != nil {
		return nil, notFound(err)
	}
	return qs, nil
}

func scanQuestionSet(row pgx.Row) (*model.QuestionSet, error) {
	var qs model.QuestionSet
	if err := row.Scan(&qs.ID, &qs.OwnerID, &qs.StyleID, &qs.Title, &qs.Description, &qs.ShareToken, &qs.Slug, &qs.CreatedAt); err != nil {
		return nil, err
	}
	return &qs, nil
}
