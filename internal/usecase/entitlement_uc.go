package usecase

import (
	"context"
	"errors"
	"time"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/repository"
	"diaryshare/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Clock supplies the current time. Use cases never call time.Now directly.
type Clock func() time.Time

func orSystemClock(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

// ProfileSummary is the quota view returned to an account about itself.
type ProfileSummary struct {
	AccountID         string
	Username          string
	Plan              model.Plan
	WeeklyAnswerCount int
	AnswerLimit       int
	RemainingAnswers  int
	SetLimit          int
	SetCount          int
	WeeklyResetDate   time.Time
	NextResetAt       time.Time
}

// EntitlementUseCase owns plan tiers, weekly answer quotas and their lazy reset.
type EntitlementUseCase interface {
	// EnsureAccount registers the account and its usage profile on first sight. Idempotent.
	EnsureAccount(ctx context.Context, id, username string) (*model.Account, error)
	Profile(ctx context.Context, accountID string) (*ProfileSummary, error)
	RemainingAnswers(ctx context.Context, accountID string) (int, error)
	Upgrade(ctx context.Context, accountID string) (*model.UsageProfile, error)
	CreationLimit(plan model.Plan) int
	// ResetDueProfiles sweeps every overdue profile in one statement. Used by the maintenance command.
	ResetDueProfiles(ctx context.Context) (int, error)
}

type entitlementUC struct {
	accounts repository.AccountRepository
	profiles repository.UsageProfileRepository
	sets     repository.QuestionSetRepository
	sessions repository.AnswerSessionRepository
	tm       repository.TransactionManager

	limits model.Limits
	now    Clock
	log    *zerolog.Logger
}

func NewEntitlementUseCase(
	accounts repository.AccountRepository,
	profiles repository.UsageProfileRepository,
	sets repository.QuestionSetRepository,
	sessions repository.AnswerSessionRepository,
	tm repository.TransactionManager,
	limits model.Limits,
	clock Clock,
	logger *zerolog.Logger,
) *entitlementUC {
	return &entitlementUC{
		accounts: accounts,
		profiles: profiles,
		sets:     sets,
		sessions: sessions,
		tm:       tm,
		limits:   limits,
		now:      orSystemClock(clock),
		log:      logger,
	}
}

func (e *entitlementUC) EnsureAccount(ctx context.Context, id, username string) (*model.Account, error) {
	defer logging.TraceDuration(e.log, "EntitlementUC.EnsureAccount")()
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}

	var acc *model.Account
	now := e.now()
	err := e.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		found, err := e.accounts.FindByID(ctx, tx, id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			na, err := model.NewAccount(id, username, now)
			if err != nil {
				return err
			}
			if err := e.accounts.Save(ctx, tx, na); err != nil {
				return err
			}
			found = na
		case err != nil:
			return err
		default:
			if username != "" && found.Username != username {
				found.Username = username
				if err := e.accounts.Save(ctx, tx, found); err != nil {
					return err
				}
			}
		}

		p, err := e.profiles.FindByAccount(ctx, tx, id)
		if errors.Is(err, domain.ErrNotFound) {
			if p, err = model.NewUsageProfile(id, now, e.limits); err != nil {
				return err
			}
			created, err := e.profiles.Create(ctx, tx, p)
			if err != nil {
				return err
			}
			if created {
				e.log.Info().Str("account_id", id).Msg("registered account")
			} else if p, err = e.profiles.FindByAccount(ctx, tx, id); err != nil {
				// a parallel first request registered it; keep its counters
				return err
			}
		} else if err != nil {
			return err
		}
		found.Plan = p.Plan
		acc = found
		return nil
	})
	return acc, err
}

func (e *entitlementUC) Profile(ctx context.Context, accountID string) (*ProfileSummary, error) {
	defer logging.TraceDuration(e.log, "EntitlementUC.Profile")()

	var out *ProfileSummary
	now := e.now()
	err := e.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		acc, err := e.accounts.FindByID(ctx, tx, accountID)
		if err != nil {
			return err
		}
		p, err := lockFreshProfile(ctx, tx, e.profiles, accountID, now, e.limits)
		if err != nil {
			return err
		}
		used, err := e.sessions.CountByRespondentSince(ctx, tx, accountID, model.WeekStart(now))
		if err != nil {
			return err
		}
		owned, err := e.sets.CountByOwner(ctx, tx, accountID)
		if err != nil {
			return err
		}
		out = &ProfileSummary{
			AccountID:         acc.ID,
			Username:          acc.Username,
			Plan:              p.Plan,
			WeeklyAnswerCount: p.WeeklyAnswerCount,
			AnswerLimit:       e.limits.AnswerLimit(p.Plan),
			RemainingAnswers:  e.limits.Remaining(p, used),
			SetLimit:          e.limits.CreationLimit(p.Plan),
			SetCount:          owned,
			WeeklyResetDate:   p.WeeklyResetDate,
			NextResetAt:       p.NextResetAt,
		}
		return nil
	})
	return out, err
}

func (e *entitlementUC) RemainingAnswers(ctx context.Context, accountID string) (int, error) {
	defer logging.TraceDuration(e.log, "EntitlementUC.RemainingAnswers")()

	var left int
	now := e.now()
	err := e.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := lockFreshProfile(ctx, tx, e.profiles, accountID, now, e.limits)
		if err != nil {
			return err
		}
		used, err := e.sessions.CountByRespondentSince(ctx, tx, accountID, model.WeekStart(now))
		if err != nil {
			return err
		}
		left = e.limits.Remaining(p, used)
		return nil
	})
	return left, err
}

func (e *entitlementUC) Upgrade(ctx context.Context, accountID string) (*model.UsageProfile, error) {
	defer logging.TraceDuration(e.log, "EntitlementUC.Upgrade")()

	var out *model.UsageProfile
	now := e.now()
	err := e.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := lockFreshProfile(ctx, tx, e.profiles, accountID, now, e.limits)
		if err != nil {
			return err
		}
		if p.Upgrade(now) {
			if err := e.profiles.Save(ctx, tx, p); err != nil {
				return err
			}
			e.log.Info().Str("account_id", accountID).Msg("account upgraded to premium")
		}
		out = p
		return nil
	})
	return out, err
}

func (e *entitlementUC) CreationLimit(plan model.Plan) int {
	return e.limits.CreationLimit(plan)
}

func (e *entitlementUC) ResetDueProfiles(ctx context.Context) (int, error) {
	defer logging.TraceDuration(e.log, "EntitlementUC.ResetDueProfiles")()
	n, err := e.profiles.ResetDue(ctx, repository.NoTX, e.now(), e.limits.ResetPeriod)
	if err != nil {
		return 0, err
	}
	e.log.Info().Int("profiles", n).Msg("weekly reset sweep finished")
	return n, nil
}

// lockFreshProfile takes the row lock on accountID's profile and applies a due
// weekly reset before anything reads the counters. Callers must pass a live tx.
func lockFreshProfile(ctx context.Context, tx repository.Tx, profiles repository.UsageProfileRepository, accountID string, now time.Time, limits model.Limits) (*model.UsageProfile, error) {
	p, err := profiles.LockByAccount(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if p.MaybeReset(now, limits) {
		if err := profiles.Save(ctx, tx, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}
