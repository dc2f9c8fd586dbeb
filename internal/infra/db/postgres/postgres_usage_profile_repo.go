package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/repository"
	"diaryshare/internal/infra/metrics"
)

var _ repository.UsageProfileRepository = (*PostgresUsageProfileRepo)(nil)

type PostgresUsageProfileRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUsageProfileRepo(pool *pgxpool.Pool) *PostgresUsageProfileRepo {
	return &PostgresUsageProfileRepo{pool: pool}
}

const selectProfile = `
SELECT account_id, plan, weekly_answer_count, weekly_reset_date, next_reset_at, updated_at
  FROM usage_profiles
 WHERE account_id = $1`

func (r *PostgresUsageProfileRepo) Create(ctx context.Context, tx repository.Tx, p *model.UsageProfile) (bool, error) {
	const q = `
INSERT INTO usage_profiles (account_id, plan, weekly_answer_count, weekly_reset_date, next_reset_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (account_id) DO NOTHING;`
	tag, err := execSQL(ctx, r.pool, tx, q,
		p.AccountID, string(p.Plan), p.WeeklyAnswerCount, p.WeeklyResetDate, p.NextResetAt, p.UpdatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PostgresUsageProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.UsageProfile) error {
	const q = `
INSERT INTO usage_profiles (account_id, plan, weekly_answer_count, weekly_reset_date, next_reset_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (account_id) DO UPDATE SET
  plan = EXCLUDED.plan,
  weekly_answer_count = EXCLUDED.weekly_answer_count,
  weekly_reset_date = EXCLUDED.weekly_reset_date,
  next_reset_at = EXCLUDED.next_reset_at,
  updated_at = EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.AccountID, string(p.Plan), p.WeeklyAnswerCount, p.WeeklyResetDate, p.NextResetAt, p.UpdatedAt)
	return err
}

func (r *PostgresUsageProfileRepo) FindByAccount(ctx context.Context, tx repository.Tx, accountID string) (*model.UsageProfile, error) {
	return r.find(ctx, tx, selectProfile+";", accountID)
}

func (r *PostgresUsageProfileRepo) LockByAccount(ctx context.Context, tx repository.Tx, accountID string) (*model.UsageProfile, error) {
	if !inTx(tx) {
		return r.find(ctx, tx, selectProfile+";", accountID)
	}
	start := time.Now()
	p, err := r.find(ctx, tx, selectProfile+" FOR UPDATE;", accountID)
	metrics.ObserveProfileLockWait(time.Since(start).Milliseconds())
	return p, err
}

func (r *PostgresUsageProfileRepo) find(ctx context.Context, tx repository.Tx, q, accountID string) (*model.UsageProfile, error) {
	row, err := pickRow(ctx, r.pool, tx, q, accountID)
	if err != nil {
		return nil, err
	}
	var p model.UsageProfile
	var plan string
	if err := row.Scan(&p.AccountID, &plan, &p.WeeklyAnswerCount, &p.WeeklyResetDate, &p.NextResetAt, &p.UpdatedAt); err != nil {
		return nil, notFound(err)
	}
	p.Plan = model.Plan(plan)
	return &p, nil
}

// ResetDue mirrors UsageProfile.MaybeReset for every due row in one statement.
func (r *PostgresUsageProfileRepo) ResetDue(ctx context.Context, tx repository.Tx, now time.Time, period time.Duration) (int, error) {
	if period <= 0 {
		period = model.DefaultResetPeriod
	}
	const q = `
UPDATE usage_profiles
   SET weekly_answer_count = 0,
       weekly_reset_date = $2,
       next_reset_at = $1::timestamptz + make_interval(secs => $3),
       updated_at = $1
 WHERE next_reset_at <= $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, now, model.DateOf(now), period.Seconds())
	if err != nil {
		return 0, fmt.Errorf("reset due profiles: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
