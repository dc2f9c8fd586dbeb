package repository

import (
	"context"
	"time"

	"diaryshare/internal/domain/model"
)

// -----------------------------
// Answer sessions and answers
// -----------------------------

type AnswerSessionRepository interface {
	Create(ctx context.Context, tx Tx, s *model.AnswerSession) error
	// AddAnswers inserts answers; a duplicate (session, question) pair returns domain.ErrAlreadyExists.
	AddAnswers(ctx context.Context, tx Tx, answers []*model.Answer) error
	// FindByID loads the session with its answers in question order.
	FindByID(ctx context.Context, tx Tx, id string) (*model.AnswerSession, error)
	// ListBySet returns sessions newest first, with answers.
	ListBySet(ctx context.Context, tx Tx, setID string) ([]*model.AnswerSession, error)
	CountByRespondentSince(ctx context.Context, tx Tx, respondentID string, since time.Time) (int, error)
}
