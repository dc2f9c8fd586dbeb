package usecase

import (
	"context"
	"errors"
	"fmt"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/adapter"
	"diaryshare/internal/domain/ports/repository"
	"diaryshare/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ ResponseUseCase = (*responseUC)(nil)

// ResponseNotifier is the fan-out invoked after a submission commits.
type ResponseNotifier interface {
	NotifyResponse(ctx context.Context, set *model.QuestionSet, session *model.AnswerSession) error
}

// SetResponses groups the sessions received by one question set.
type SetResponses struct {
	Set      *model.QuestionSet
	Sessions []*model.AnswerSession
}

type ExportedDocument struct {
	Filename    string
	ContentType string
	Body        []byte
}

type ResponseUseCase interface {
	// Submit records one response to setID. The owner check and the quota check run before
	// anything is written; the session, its answers and the counter increment commit together.
	Submit(ctx context.Context, respondentID, setID string, answers map[string]string) (*model.AnswerSession, error)
	ListResponses(ctx context.Context, ownerID, setID string) ([]*model.AnswerSession, error)
	GetResponse(ctx context.Context, ownerID, sessionID string) (*model.AnswerSession, error)
	ListAllResponses(ctx context.Context, ownerID string) ([]*SetResponses, error)
	ExportResponse(ctx context.Context, ownerID, sessionID string) (*ExportedDocument, error)
}

type responseUC struct {
	sets      repository.QuestionSetRepository
	questions repository.QuestionRepository
	styles    repository.StyleRepository
	sessions  repository.AnswerSessionRepository
	profiles  repository.UsageProfileRepository
	tm        repository.TransactionManager
	notifier  ResponseNotifier
	renderer  adapter.DocumentRenderer

	limits model.Limits
	now    Clock
	log    *zerolog.Logger
}

func NewResponseUseCase(
	sets repository.QuestionSetRepository,
	questions repository.QuestionRepository,
	styles repository.StyleRepository,
	sessions repository.AnswerSessionRepository,
	profiles repository.UsageProfileRepository,
	tm repository.TransactionManager,
	notifier ResponseNotifier,
	renderer adapter.DocumentRenderer,
	limits model.Limits,
	clock Clock,
	logger *zerolog.Logger,
) *responseUC {
	return &responseUC{
		sets:      sets,
		questions: questions,
		styles:    styles,
		sessions:  sessions,
		profiles:  profiles,
		tm:        tm,
		notifier:  notifier,
		renderer:  renderer,
		limits:    limits,
		now:       orSystemClock(clock),
		log:       logger,
	}
}

func (uc *responseUC) Submit(ctx context.Context, respondentID, setID string, answers map[string]string) (*model.AnswerSession, error) {
	defer logging.TraceDuration(uc.log, "ResponseUC.Submit")()

	if respondentID == "" {
		return nil, domain.ErrForbidden
	}
	set, err := uc.sets.FindByID(ctx, repository.NoTX, setID)
	if err != nil {
		return nil, err
	}
	if set.IsOwnedBy(respondentID) {
		return nil, domain.ErrForbidden
	}

	now := uc.now()
	var session *model.AnswerSession
	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := lockFreshProfile(ctx, tx, uc.profiles, respondentID, now, uc.limits)
		if err != nil {
			return err
		}
		used, err := uc.sessions.CountByRespondentSince(ctx, tx, respondentID, model.WeekStart(now))
		if err != nil {
			return err
		}
		if uc.limits.Remaining(p, used) <= 0 {
			return domain.ErrQuotaExceeded
		}

		questions, err := uc.questions.ListBySet(ctx, tx, set.ID)
		if err != nil {
			return err
		}
		s := model.NewAnswerSession(respondentID, set.ID, now)
		if err := uc.sessions.Create(ctx, tx, s); err != nil {
			return err
		}
		s.Answers = model.BuildAnswers(s.ID, questions, answers)
		if len(s.Answers) > 0 {
			if err := uc.sessions.AddAnswers(ctx, tx, s.Answers); err != nil {
				return err
			}
		}

		p.Consume(now)
		if err := uc.profiles.Save(ctx, tx, p); err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrQuotaExceeded) {
			uc.log.Info().Str("account_id", respondentID).Str("question_set_id", set.ID).Msg("submission rejected: weekly quota used up")
		}
		return nil, err
	}

	if uc.notifier != nil {
		if nerr := uc.notifier.NotifyResponse(ctx, set, session); nerr != nil {
			uc.log.Error().Err(nerr).Str("session_id", session.ID).Msg("notification fan-out failed")
		}
	}
	return session, nil
}

func (uc *responseUC) ListResponses(ctx context.Context, ownerID, setID string) ([]*model.AnswerSession, error) {
	defer logging.TraceDuration(uc.log, "ResponseUC.ListResponses")()

	set, err := uc.sets.FindByID(ctx, repository.NoTX, setID)
	if err != nil {
		return nil, err
	}
	if !set.IsOwnedBy(ownerID) {
		return nil, domain.ErrNotFound
	}
	return uc.sessions.ListBySet(ctx, repository.NoTX, setID)
}

func (uc *responseUC) GetResponse(ctx context.Context, ownerID, sessionID string) (*model.AnswerSession, error) {
	defer logging.TraceDuration(uc.log, "ResponseUC.GetResponse")()
	s, _, err := uc.ownedSession(ctx, ownerID, sessionID)
	return s, err
}

// ownedSession loads a session together with its set, hiding both from anybody but the set owner.
func (uc *responseUC) ownedSession(ctx context.Context, ownerID, sessionID string) (*model.AnswerSession, *model.QuestionSet, error) {
	s, err := uc.sessions.FindByID(ctx, repository.NoTX, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if s.QuestionSetID == nil {
		return nil, nil, domain.ErrNotFound
	}
	set, err := uc.sets.FindByID(ctx, repository.NoTX, *s.QuestionSetID)
	if err != nil {
		return nil, nil, err
	}
	if !set.IsOwnedBy(ownerID) {
		return nil, nil, domain.ErrNotFound
	}
	return s, set, nil
}

func (uc *responseUC) ListAllResponses(ctx context.Context, ownerID string) ([]*SetResponses, error) {
	defer logging.TraceDuration(uc.log, "ResponseUC.ListAllResponses")()

	sets, err := uc.sets.ListByOwner(ctx, repository.NoTX, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]*SetResponses, 0, len(sets))
	for _, set := range sets {
		ss, err := uc.sessions.ListBySet(ctx, repository.NoTX, set.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &SetResponses{Set: set, Sessions: ss})
	}
	return out, nil
}

func (uc *responseUC) ExportResponse(ctx context.Context, ownerID, sessionID string) (*ExportedDocument, error) {
	defer logging.TraceDuration(uc.log, "ResponseUC.ExportResponse")()

	if uc.renderer == nil {
		return nil, fmt.Errorf("export: no renderer configured")
	}
	s, set, err := uc.ownedSession(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	resolved := &model.ResolvedResponse{
		SessionID:   s.ID,
		SetTitle:    set.Title,
		Respondent:  s.RespondentName,
		SubmittedAt: s.CreatedAt,
		Pairs:       make([]model.ResolvedPair, 0, len(s.Answers)),
	}
	if resolved.Respondent == "" {
		resolved.Respondent = "anonymous"
	}
	if set.StyleID != nil {
		style, err := uc.styles.FindByID(ctx, repository.NoTX, *set.StyleID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if style != nil {
			resolved.StyleName = style.Name
			resolved.Template = style.TemplateName
		}
	}
	for _, a := range s.Answers {
		resolved.Pairs = append(resolved.Pairs, model.ResolvedPair{Question: a.QuestionText, Answer: a.Text})
	}

	body, err := uc.renderer.Render(ctx, resolved)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	short := s.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return &ExportedDocument{
		Filename:    fmt.Sprintf("%s-%s.%s", set.Slug, short, uc.renderer.FileExtension()),
		ContentType: uc.renderer.ContentType(),
		Body:        body,
	}, nil
}
