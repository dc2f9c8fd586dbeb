package repository

import (
	"context"
	"time"

	"diaryshare/internal/domain/model"
)

// -----------------------------
// Accounts and usage profiles
// -----------------------------

type AccountRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Account) error
	// FindByID returns the account with Plan taken from its usage profile.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Account, error)
	// PopularOwners ranks owners by responses received across all their sets.
	PopularOwners(ctx context.Context, tx Tx, limit int) ([]*model.OwnerStat, error)
}

type UsageProfileRepository interface {
	// Create inserts a fresh profile and reports false, leaving the stored row alone,
	// when the account already has one.
	Create(ctx context.Context, tx Tx, p *model.UsageProfile) (bool, error)
	// Save overwrites every counter; callers hold the LockByAccount row lock.
	Save(ctx context.Context, tx Tx, p *model.UsageProfile) error
	FindByAccount(ctx context.Context, tx Tx, accountID string) (*model.UsageProfile, error)
	// LockByAccount reads the profile with a row lock held until tx ends.
	// Without a tx it behaves like FindByAccount.
	LockByAccount(ctx context.Context, tx Tx, accountID string) (*model.UsageProfile, error)
	// ResetDue applies the weekly reset to every profile whose next reset is at or before now.
	ResetDue(ctx context.Context, tx Tx, now time.Time, period time.Duration) (int, error)
}
