package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/repository"
)

var _ repository.NotificationRepository = (*PostgresNotificationRepo)(nil)

type PostgresNotificationRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresNotificationRepo(pool *pgxpool.Pool) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{pool: pool}
}

const selectNotification = `
SELECT id, user_id, actor_id, type, message, question_set_id, session_id, is_read, created_at
  FROM notifications`

func (r *PostgresNotificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	const q = `
INSERT INTO notifications (id, user_id, actor_id, type, message, question_set_id, session_id, is_read, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET is_read = EXCLUDED.is_read;`
	_, err := execSQL(ctx, r.pool, tx, q,
		n.ID, n.UserID, n.ActorID, string(n.Type), n.Message, n.QuestionSetID, n.SessionID, n.IsRead, n.CreatedAt)
	return err
}

func (r *PostgresNotificationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Notification, error) {
	row, err := pickRow(ctx, r.pool, tx, selectNotification+" WHERE id = $1;", id)
	if err != nil {
		return nil, err
	}
	n, err := scanNotification(row)
	if err != nil {
		return nil, notFound(err)
	}
	return n, nil
}

func (r *PostgresNotificationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Notification, error) {
	rows, err := queryRows(ctx, r.pool, tx,
		selectNotification+" WHERE user_id = $1 ORDER BY created_at DESC, id DESC OFFSET $2 LIMIT $3;",
		userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PostgresNotificationRepo) CountByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	return r.count(ctx, tx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1;`, userID)
}

func (r *PostgresNotificationRepo) CountUnread(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	return r.count(ctx, tx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read;`, userID)
}

func (r *PostgresNotificationRepo) MarkRead(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE notifications SET is_read = TRUE WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresNotificationRepo) MarkAllRead(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read;`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *PostgresNotificationRepo) count(ctx context.Context, tx repository.Tx, q, userID string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

func scanNotification(row pgx.Row) (*model.Notification, error) {
	var n model.Notification
	var typ string
	if err := row.Scan(&n.ID, &n.UserID, &n.ActorID, &typ, &n.Message, &n.QuestionSetID, &n.SessionID, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Type = model.NotificationType(typ)
	return &n, nil
}
