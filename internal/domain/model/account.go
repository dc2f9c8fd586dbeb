package model

import (
	"strings"
	"time"

	"diaryshare/internal/domain"

	"github.com/google/uuid"
)

// Plan is the tier an account is billed on. It drives every limit.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

func (p Plan) Valid() bool { return p == PlanFree || p == PlanPremium }

// Account is the identity supplied by the external identity provider, plus its plan tier.
type Account struct {
	ID           string
	Username     string
	Plan         Plan
	RegisteredAt time.Time
}

func NewAccount(id, username string, now time.Time) (*Account, error) {
	if id == "" {
		id = uuid.NewString()
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Account{
		ID:           id,
		Username:     username,
		Plan:         PlanFree,
		RegisteredAt: now,
	}, nil
}

func (a *Account) IsZero() bool    { return a == nil || a.ID == "" }
func (a *Account) IsPremium() bool { return a != nil && a.Plan == PlanPremium }

// OwnerStat ranks an account by the number of responses its diaries received.
type OwnerStat struct {
	AccountID     string
	Username      string
	ResponseCount int
}
