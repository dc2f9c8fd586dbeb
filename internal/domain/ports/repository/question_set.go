package repository

import (
	"context"

	"diaryshare/internal/domain/model"
)

// -----------------------------
// Question sets, questions, styles
// -----------------------------

type QuestionSetRepository interface {
	// Create inserts a new set. A clash on the share token returns domain.ErrShareTokenConflict,
	// a clash on the slug returns domain.ErrSlugConflict.
	Create(ctx context.Context, tx Tx, qs *model.QuestionSet) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.QuestionSet, error)
	FindBySlug(ctx context.Context, tx Tx, slug string) (*model.QuestionSet, error)
	FindByShareToken(ctx context.Context, tx Tx, token string) (*model.QuestionSet, error)
	ListByOwner(ctx context.Context, tx Tx, ownerID string) ([]*model.QuestionSet, error)
	CountByOwner(ctx context.Context, tx Tx, ownerID string) (int, error)
	// SlugsWithBase returns base itself and every base-<suffix> slug in use.
	SlugsWithBase(ctx context.Context, tx Tx, base string) ([]string, error)
	// Delete removes the set; its questions go with it.
	Delete(ctx context.Context, tx Tx, id string) error
}

type QuestionRepository interface {
	Save(ctx context.Context, tx Tx, q *model.Question) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Question, error)
	// ListBySet returns questions ordered by order, then insertion.
	ListBySet(ctx context.Context, tx Tx, setID string) ([]*model.Question, error)
	// NextOrder returns max(order)+1 for the set, or 0 when it is empty.
	NextOrder(ctx context.Context, tx Tx, setID string) (int, error)
	Delete(ctx context.Context, tx Tx, id string) error
}

type StyleRepository interface {
	// Save upserts by name.
	Save(ctx context.Context, tx Tx, s *model.Style) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Style, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Style, error)
}
