package usecase

import (
	"context"
	"errors"
	"strings"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/repository"
	"diaryshare/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

const (
	maxShareTokenAttempts = 3
	maxSlugRaceRetries    = 5
)

// Compile-time check
var _ QuestionSetUseCase = (*questionSetUC)(nil)

type CreateQuestionSetInput struct {
	Title       string
	Description string
	StyleID     *string
}

// QuestionSetUseCase manages diaries and their questions. Every mutation is owner-only.
type QuestionSetUseCase interface {
	Create(ctx context.Context, ownerID string, in CreateQuestionSetInput) (*model.QuestionSet, error)
	ListMine(ctx context.Context, ownerID string) ([]*model.QuestionSet, error)
	// GetBySlug returns the owner's view with questions; other callers get ErrNotFound.
	GetBySlug(ctx context.Context, ownerID, slug string) (*model.QuestionSet, error)
	// SetIDBySlug resolves a slug for any caller; mutations then check ownership and answer ErrForbidden.
	SetIDBySlug(ctx context.Context, slug string) (string, error)
	// GetByShareToken is the public answering view.
	GetByShareToken(ctx context.Context, token string) (*model.QuestionSet, error)
	AddQuestion(ctx context.Context, ownerID, setID, text string) (*model.Question, error)
	EditQuestion(ctx context.Context, ownerID, questionID, text string) (*model.Question, error)
	DeleteQuestion(ctx context.Context, ownerID, questionID string) error
	DeleteQuestionSet(ctx context.Context, ownerID, setID string) error
	ListStyles(ctx context.Context) ([]*model.Style, error)
}

type questionSetUC struct {
	sets      repository.QuestionSetRepository
	questions repository.QuestionRepository
	styles    repository.StyleRepository
	profiles  repository.UsageProfileRepository
	tm        repository.TransactionManager

	limits model.Limits
	now    Clock
	log    *zerolog.Logger
}

func NewQuestionSetUseCase(
	sets repository.QuestionSetRepository,
	questions repository.QuestionRepository,
	styles repository.StyleRepository,
	profiles repository.UsageProfileRepository,
	tm repository.TransactionManager,
	limits model.Limits,
	clock Clock,
	logger *zerolog.Logger,
) *questionSetUC {
	return &questionSetUC{
		sets:      sets,
		questions: questions,
		styles:    styles,
		profiles:  profiles,
		tm:        tm,
		limits:    limits,
		now:       orSystemClock(clock),
		log:       logger,
	}
}

func (uc *questionSetUC) Create(ctx context.Context, ownerID string, in CreateQuestionSetInput) (*model.QuestionSet, error) {
	defer logging.TraceDuration(uc.log, "QuestionSetUC.Create")()

	now := uc.now()
	qs, err := model.NewQuestionSet(ownerID, in.Title, in.Description, in.StyleID, now)
	if err != nil {
		return nil, err
	}

	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// The profile row lock serializes concurrent creates by the same owner.
		p, err := lockFreshProfile(ctx, tx, uc.profiles, ownerID, now, uc.limits)
		if err != nil {
			return err
		}
		owned, err := uc.sets.CountByOwner(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if owned >= uc.limits.CreationLimit(p.Plan) {
			return domain.ErrQuotaExceeded
		}
		if qs.StyleID != nil {
			style, err := uc.styles.FindByID(ctx, tx, *qs.StyleID)
			if err != nil {
				return err
			}
			if style.IsPremium && p.Plan != model.PlanPremium {
				return domain.ErrPremiumStyleRequired
			}
		}
		return uc.insertWithIdentifiers(ctx, tx, qs)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("account_id", ownerID).Str("question_set_id", qs.ID).Str("slug", qs.Slug).Msg("question set created")
	return qs, nil
}

// insertWithIdentifiers assigns the slug and share token and inserts the set.
// The slug takes the next suffix after the highest one in use; losing it to a
// concurrent insert re-reads the suffixes, up to maxSlugRaceRetries times. A share
// token collision draws a fresh token, up to maxShareTokenAttempts times.
func (uc *questionSetUC) insertWithIdentifiers(ctx context.Context, tx repository.Tx, qs *model.QuestionSet) error {
	base := model.BaseSlug(qs.Title)
	n, err := uc.nextSlugSuffix(ctx, tx, base)
	if err != nil {
		return err
	}

	tokenAttempts, slugRetries := 0, 0
	for {
		qs.Slug = model.SlugCandidate(base, n)
		token, err := model.NewShareToken()
		if err != nil {
			return err
		}
		qs.ShareToken = token

		err = uc.sets.Create(ctx, tx, qs)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrShareTokenConflict):
			tokenAttempts++
			uc.log.Warn().Int("attempt", tokenAttempts).Msg("share token collision, regenerating")
			if tokenAttempts >= maxShareTokenAttempts {
				return domain.ErrShareTokenExhausted
			}
		case errors.Is(err, domain.ErrSlugConflict):
			slugRetries++
			if slugRetries > maxSlugRaceRetries {
				return err
			}
			next, err := uc.nextSlugSuffix(ctx, tx, base)
			if err != nil {
				return err
			}
			if next <= n {
				next = n + 1
			}
			n = next
		default:
			return err
		}
	}
}

func (uc *questionSetUC) nextSlugSuffix(ctx context.Context, tx repository.Tx, base string) (int, error) {
	taken, err := uc.sets.SlugsWithBase(ctx, tx, base)
	if err != nil {
		return 0, err
	}
	return model.NextSlugSuffix(base, taken), nil
}

func (uc *questionSetUC) ListMine(ctx context.Context, ownerID string) ([]*model.QuestionSet, error) {
	defer logging.TraceDuration(uc.log, "QuestionSetUC.ListMine")()
	return uc.sets.ListByOwner(ctx, repository.NoTX, ownerID)
}

func (uc *questionSetUC) GetBySlug(ctx context.Context, ownerID, slug string) (*model.QuestionSet, error) {
	defer logging.TraceDuration(uc.log, "QuestionSetUC.GetBySlug")()

	qs, err := uc.sets.FindBySlug(ctx, repository.NoTX, slug)
	if err != nil {
		return nil, err
	}
	if !qs.IsOwnedBy(ownerID) {
		return nil, domain.ErrNotFound
	}
	return uc.withQuestions(ctx, qs)
}

func (uc *questionSetUC) SetIDBySlug(ctx context.Context, slug string) (string, error) {
	qs, err := uc.sets.FindBySlug(ctx, repository.NoTX, slug)
	if err != nil {
		return "", err
	}
	return qs.ID, nil
}

func (uc *questionSetUC) GetByShareToken(ctx context.Context, token string) (*model.QuestionSet, error) {
	defer logging.TraceDuration(uc.log, "QuestionSetUC.GetByShareToken")()

	if strings.TrimSpace(token) == "" {
		return nil, domain.ErrNotFound
	}
	qs, err := uc.sets.FindByShareToken(ctx, repository.NoTX, token)
	if err != nil {
		return nil, err
	}
	return uc.withQuestions(ctx, qs)
}

func (uc *questionSetUC) withQuestions(ctx context.Context, qs *model.QuestionSet) (*model.QuestionSet, error) {
	qq, err := uc.questions.ListBySet(ctx, repository.NoTX, qs.ID)
	if err != nil {
		return nil, err
	}
	model.SortQuestions(qq)
	qs.Questions = qq
	return qs, nil
}

func (uc *questionSetUC) AddQuestion(ctx context.Context, ownerID, setID, text string) (*model.Question, error) {
	defer logging.TraceDuration(uc.log, "QuestionSetUC.AddQuestion")()

	var q *model.Question
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		qs, err := uc.sets.FindByID(ctx, tx, setID)
		if err != nil {
			return err
		}
		if !qs.IsOwnedBy(ownerID) {
			return domain.ErrForbidden
		}
		order, err := uc.questions.NextOrder(ctx, tx, setID)
		if err != nil {
			return err
		}
		nq, err := model.NewQuestion(setID, text, order, uc.now())
		if err != nil {
			return err
		}
		if err := uc.questions.Save(ctx, tx, nq); err != nil {
			return err
		}
		q = nq
		return nil
	})
	return q, err
}

func (uc *questionSetUC) EditQuestion(ctx context.Context, ownerID, questionID, text string) (*model.Question, error) {
	defer logging.TraceDuration(uc.log, "QuestionSetUC.EditQuestion")()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrInvalidArgument
	}
	var q *model.Question
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		found, err := uc.ownedQuestion(ctx, tx, ownerID, questionID)
		if err != nil {
			return err
		}
		found.Text = text
		if err := uc.questions.Save(ctx, tx, found); err != nil {
			return err
		}
		q = found
		return nil
	})
	return q, err
}

func (uc *questionSetUC) DeleteQuestion(ctx context.Context, ownerID, questionID string) error {
	defer logging.TraceDuration(uc.log, "QuestionSetUC.DeleteQuestion")()

	return uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := uc.ownedQuestion(ctx, tx, ownerID, questionID); err != nil {
			return err
		}
		return uc.questions.Delete(ctx, tx, questionID)
	})
}

func (uc *questionSetUC) ownedQuestion(ctx context.Context, tx repository.Tx, ownerID, questionID string) (*model.Question, error) {
	q, err := uc.questions.FindByID(ctx, tx, questionID)
	if err != nil {
		return nil, err
	}
	qs, err := uc.sets.FindByID(ctx, tx, q.QuestionSetID)
	if err != nil {
		return nil, err
	}
	if !qs.IsOwnedBy(ownerID) {
		return nil, domain.ErrForbidden
	}
	return q, nil
}

func (uc *questionSetUC) DeleteQuestionSet(ctx context.Context, ownerID, setID string) error {
	defer logging.TraceDuration(uc.log, "QuestionSetUC.DeleteQuestionSet")()

	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		qs, err := uc.sets.FindByID(ctx, tx, setID)
		if err != nil {
			return err
		}
		if !qs.IsOwnedBy(ownerID) {
			return domain.ErrForbidden
		}
		return uc.sets.Delete(ctx, tx, setID)
	})
	if err == nil {
		uc.log.Info().Str("account_id", ownerID).Str("question_set_id", setID).Msg("question set deleted")
	}
	return err
}

func (uc *questionSetUC) ListStyles(ctx context.Context) ([]*model.Style, error) {
	defer logging.TraceDuration(uc.log, "QuestionSetUC.ListStyles")()
	return uc.styles.ListAll(ctx, repository.NoTX)
}
