package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/repository"
)

var _ repository.QuestionRepository = (*PostgresQuestionRepo)(nil)

type PostgresQuestionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresQuestionRepo(pool *pgxpool.Pool) *PostgresQuestionRepo {
	return &PostgresQuestionRepo{pool: pool}
}

func (r *PostgresQuestionRepo) Save(ctx context.Context, tx repository.Tx, q *model.Question) error {
	const stmt = `
INSERT INTO questions (id, question_set_id, text, sort_order, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET text = EXCLUDED.text, sort_order = EXCLUDED.sort_order;`
	_, err := execSQL(ctx, r.pool, tx, stmt, q.ID, q.QuestionSetID, q.Text, q.Order, q.CreatedAt)
	return err
}

func (r *PostgresQuestionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Question, error) {
	const stmt = `SELECT id, question_set_id, text, sort_order, created_at FROM questions WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, stmt, id)
	if err != nil {
		return nil, err
	}
	var q model.Question
	if err := row.Scan(&q.ID, &q.QuestionSetID, &q.Text, &q.Order, &q.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

func (r *PostgresQuestionRepo) ListBySet(ctx context.Context, tx repository.Tx, setID string) ([]*model.Question, error) {
	const stmt = `
SELECT id, question_set_id, text, sort_order, created_at
  FROM questions
 WHERE question_set_id = $1
 ORDER BY sort_order, created_at, id;`
	rows, err := queryRows(ctx, r.pool, tx, stmt, setID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []*model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionSetID, &q.Text, &q.Order, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

func (r *PostgresQuestionRepo) NextOrder(ctx context.Context, tx repository.Tx, setID string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM questions WHERE question_set_id = $1;`, setID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("next question order: %w", err)
	}
	return n, nil
}

// Delete leaves earlier answers in place; their question_id is nulled by the FK.
func (r *PostgresQuestionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM questions WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
