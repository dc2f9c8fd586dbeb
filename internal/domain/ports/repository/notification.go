package repository

import (
	"context"

	"diaryshare/internal/domain/model"
)

// -----------------------------
// Notifications
// -----------------------------

type NotificationRepository interface {
	Save(ctx context.Context, tx Tx, n *model.Notification) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Notification, error)
	// ListByUser returns notifications newest first.
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Notification, error)
	CountByUser(ctx context.Context, tx Tx, userID string) (int, error)
	CountUnread(ctx context.Context, tx Tx, userID string) (int, error)
	MarkRead(ctx context.Context, tx Tx, id string) error
	MarkAllRead(ctx context.Context, tx Tx, userID string) (int, error)
}
