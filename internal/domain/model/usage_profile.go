package model

import (
	"time"

	"diaryshare/internal/domain"
)

// DefaultResetPeriod is the fixed offset between two weekly quota resets.
const DefaultResetPeriod = 7 * 24 * time.Hour

// Limits holds plan entitlements. The zero value is not usable; start from DefaultLimits.
type Limits struct {
	FreeWeeklyAnswers    int
	PremiumWeeklyAnswers int
	FreeSets             int
	PremiumSets          int
	ResetPeriod          time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		FreeWeeklyAnswers:    5,
		PremiumWeeklyAnswers: 20,
		FreeSets:             1,
		PremiumSets:          3,
		ResetPeriod:          DefaultResetPeriod,
	}
}

// AnswerLimit is the number of responses an account on plan p may submit per week.
func (l Limits) AnswerLimit(p Plan) int {
	if p == PlanPremium {
		return l.PremiumWeeklyAnswers
	}
	return l.FreeWeeklyAnswers
}

// CreationLimit is the number of question sets an account on plan p may own.
func (l Limits) CreationLimit(p Plan) int {
	if p == PlanPremium {
		return l.PremiumSets
	}
	return l.FreeSets
}

func (l Limits) period() time.Duration {
	if l.ResetPeriod <= 0 {
		return DefaultResetPeriod
	}
	return l.ResetPeriod
}

// Remaining computes the answers left this week. usedThisWeek is the number of sessions the
// account submitted since WeekStart(now); the persisted weekly counter is honoured as well so a
// stale session count can never hand out more than the counter allows.
func (l Limits) Remaining(p *UsageProfile, usedThisWeek int) int {
	limit := l.AnswerLimit(p.Plan)
	used := usedThisWeek
	if p.WeeklyAnswerCount > used {
		used = p.WeeklyAnswerCount
	}
	left := limit - used
	if left < 0 {
		return 0
	}
	return left
}

// UsageProfile is the 1:1 companion of an Account holding plan and weekly counters.
type UsageProfile struct {
	AccountID         string
	Plan              Plan
	WeeklyAnswerCount int
	WeeklyResetDate   time.Time
	NextResetAt       time.Time
	UpdatedAt         time.Time
}

func NewUsageProfile(accountID string, now time.Time, l Limits) (*UsageProfile, error) {
	if accountID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &UsageProfile{
		AccountID:       accountID,
		Plan:            PlanFree,
		WeeklyResetDate: DateOf(now),
		NextResetAt:     now.Add(l.period()),
		UpdatedAt:       now,
	}, nil
}

// MaybeReset zeroes the weekly counter once now has reached NextResetAt and
// schedules the next reset one period later. It reports whether anything changed;
// a second call at the same instant is a no-op.
func (p *UsageProfile) MaybeReset(now time.Time, l Limits) bool {
	if now.Before(p.NextResetAt) {
		return false
	}
	p.WeeklyAnswerCount = 0
	p.WeeklyResetDate = DateOf(now)
	p.NextResetAt = now.Add(l.period())
	p.UpdatedAt = now
	return true
}

// Consume records one submitted response.
func (p *UsageProfile) Consume(now time.Time) {
	p.WeeklyAnswerCount++
	p.UpdatedAt = now
}

// Upgrade moves the profile to premium. Counters are left untouched.
func (p *UsageProfile) Upgrade(now time.Time) bool {
	if p.Plan == PlanPremium {
		return false
	}
	p.Plan = PlanPremium
	p.UpdatedAt = now
	return true
}

// WeekStart returns the most recent Monday at midnight in now's location.
func WeekStart(now time.Time) time.Time {
	back := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	return time.Date(y, m, d-back, 0, 0, 0, 0, now.Location())
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
