package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/repository"
)

var _ repository.AnswerSessionRepository = (*PostgresAnswerSessionRepo)(nil)

type PostgresAnswerSessionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAnswerSessionRepo(pool *pgxpool.Pool) *PostgresAnswerSessionRepo {
	return &PostgresAnswerSessionRepo{pool: pool}
}

const (
	sessionQuestionKey = "answers_session_question_key"

	selectSession = `
SELECT s.id, s.respondent_id, s.question_set_id, s.created_at, COALESCE(a.username, '')
  FROM answer_sessions s
  LEFT JOIN accounts a ON a.id = s.respondent_id`

	// Answers whose question was deleted sort after the live ones.
	selectAnswers = `
SELECT an.id, an.session_id, an.question_id, an.question_text, an.answer_text, q.sort_order
  FROM answers an
  LEFT JOIN questions q ON q.id = an.question_id
 WHERE an.session_id = ANY($1)
 ORDER BY an.session_id, q.sort_order NULLS LAST, q.created_at NULLS LAST, an.question_text;`
)

func (r *PostgresAnswerSessionRepo) Create(ctx context.Context, tx repository.Tx, s *model.AnswerSession) error {
	const q = `INSERT INTO answer_sessions (id, respondent_id, question_set_id, created_at) VALUES ($1, $2, $3, $4);`
	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.RespondentID, s.QuestionSetID, s.CreatedAt)
	return err
}

func (r *PostgresAnswerSessionRepo) AddAnswers(ctx context.Context, tx repository.Tx, answers []*model.Answer) error {
	if len(answers) == 0 {
		return nil
	}
	const q = `
INSERT INTO answers (id, session_id, question_id, question_text, answer_text)
VALUES ($1, $2, $3, $4, $5);`
	err := withSavepoint(ctx, r.pool, tx, func(tx repository.Tx) error {
		for _, a := range answers {
			if _, err := execSQL(ctx, r.pool, tx, q, a.ID, a.SessionID, a.QuestionID, a.QuestionText, a.Text); err != nil {
				return err
			}
		}
		return nil
	})
	if name, ok := uniqueConstraint(err); ok && name == sessionQuestionKey {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *PostgresAnswerSessionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AnswerSession, error) {
	row, err := pickRow(ctx, r.pool, tx, selectSession+" WHERE s.id = $1;", id)
	if err != nil {
		return nil, err
	}
	s, err := scanSession(row)
	if err != nil {
		return nil, notFound(err)
	}
	if err := r.attachAnswers(ctx, tx, []*model.AnswerSession{s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PostgresAnswerSessionRepo) ListBySet(ctx context.Context, tx repository.Tx, setID string) ([]*model.AnswerSession, error) {
	rows, err := queryRows(ctx, r.pool, tx, selectSession+" WHERE s.question_set_id = $1 ORDER BY s.created_at DESC, s.id;", setID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []*model.AnswerSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachAnswers(ctx, tx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresAnswerSessionRepo) CountByRespondentSince(ctx context.Context, tx repository.Tx, respondentID string, since time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM answer_sessions WHERE respondent_id = $1 AND created_at >= $2;`
	row, err := pickRow(ctx, r.pool, tx, q, respondentID, since)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func (r *PostgresAnswerSessionRepo) attachAnswers(ctx context.Context, tx repository.Tx, sessions []*model.AnswerSession) error {
	if len(sessions) == 0 {
		return nil
	}
	ids := make([]string, len(sessions))
	byID := make(map[string]*model.AnswerSession, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
		byID[s.ID] = s
	}

	rows, err := queryRows(ctx, r.pool, tx, selectAnswers, ids)
	if err != nil {
		return fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.QuestionText, &a.Text, &a.QuestionOrder); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
		}
		if s, ok := byID[a.SessionID]; ok {
			s.Answers = append(s.Answers, &a)
		}
	}
	return rows.Err()
}

func scanSession(row pgx.Row) (*model.AnswerSession, error) {
	var s model.AnswerSession
	if err := row.Scan(&s.ID, &s.RespondentID, &s.QuestionSetID, &s.CreatedAt, &s.RespondentName); err != nil {
		return nil, err
	}
	return &s, nil
}
