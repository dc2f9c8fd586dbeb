package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/repository"
)

var _ repository.AccountRepository = (*PostgresAccountRepo)(nil)

type PostgresAccountRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAccountRepo(pool *pgxpool.Pool) *PostgresAccountRepo {
	return &PostgresAccountRepo{pool: pool}
}

// Save upserts the identity row. Plan lives on the usage profile and is not written here.
func (r *PostgresAccountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	const q = `
INSERT INTO accounts (id, username, registered_at)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username;`
	registered := a.RegisteredAt
	if registered.IsZero() {
		registered = time.Now().UTC()
	}
	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.Username, registered)
	return err
}

func (r *PostgresAccountRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	const q = `
SELECT a.id, a.username, a.registered_at, COALESCE(p.plan, 'free')
  FROM accounts a
  LEFT JOIN usage_profiles p ON p.account_id = a.id
 WHERE a.id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var a model.Account
	var plan string
	if err := row.Scan(&a.ID, &a.Username, &a.RegisteredAt, &plan); err != nil {
		return nil, notFound(err)
	}
	a.Plan = model.Plan(plan)
	return &a, nil
}

func (r *PostgresAccountRepo) PopularOwners(ctx context.Context, tx repository.Tx, limit int) ([]*model.OwnerStat, error) {
	const q = `
SELECT a.id, a.username, COUNT(s.id) AS responses
  FROM accounts a
  JOIN question_sets qs ON qs.owner_id = a.id
  JOIN answer_sessions s ON s.question_set_id = qs.id
 GROUP BY a.id, a.username
 ORDER BY responses DESC, a.username ASC
 LIMIT $1;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("popular owners: %w", err)
	}
	defer rows.Close()

	var out []*model.OwnerStat
	for rows.Next() {
		var s model.OwnerStat
		if err := rows.Scan(&s.AccountID, &s.Username, &s.ResponseCount); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
