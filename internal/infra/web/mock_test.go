//go:build !integration

package web

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/usecase"
)

// --- Use-case fakes; unset hooks return zero values ---

type fakeEntitlements struct {
	usecase.EntitlementUseCase
	ensured     []string
	EnsureErr   error
	ProfileFunc func(ctx context.Context, id string) (*usecase.ProfileSummary, error)
	UpgradeFunc func(ctx context.Context, id string) (*model.UsageProfile, error)
	Remaining   int
}

func (f *fakeEntitlements) EnsureAccount(ctx context.Context, id, username string) (*model.Account, error) {
	if f.EnsureErr != nil {
		return nil, f.EnsureErr
	}
	f.ensured = append(f.ensured, id)
	return &model.Account{ID: id, Username: username, Plan: model.PlanFree}, nil
}

func (f *fakeEntitlements) Profile(ctx context.Context, id string) (*usecase.ProfileSummary, error) {
	if f.ProfileFunc != nil {
		return f.ProfileFunc(ctx, id)
	}
	return &usecase.ProfileSummary{AccountID: id, Plan: model.PlanFree, AnswerLimit: 5, RemainingAnswers: 5}, nil
}

func (f *fakeEntitlements) Upgrade(ctx context.Context, id string) (*model.UsageProfile, error) {
	if f.UpgradeFunc != nil {
		return f.UpgradeFunc(ctx, id)
	}
	return &model.UsageProfile{AccountID: id, Plan: model.PlanPremium}, nil
}

func (f *fakeEntitlements) RemainingAnswers(ctx context.Context, id string) (int, error) {
	return f.Remaining, nil
}

type fakeSets struct {
	usecase.QuestionSetUseCase
	bySlug     map[string]*model.QuestionSet
	byToken    map[string]*model.QuestionSet
	CreateFunc func(ctx context.Context, owner string, in usecase.CreateQuestionSetInput) (*model.QuestionSet, error)
	deleted    []string
	added      []string
}

func newFakeSets() *fakeSets {
	return &fakeSets{bySlug: map[string]*model.QuestionSet{}, byToken: map[string]*model.QuestionSet{}}
}

func (f *fakeSets) put(qs *model.QuestionSet) {
	f.bySlug[qs.Slug] = qs
	f.byToken[qs.ShareToken] = qs
}

func (f *fakeSets) Create(ctx context.Context, owner string, in usecase.CreateQuestionSetInput) (*model.QuestionSet, error) {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, owner, in)
	}
	qs, err := model.NewQuestionSet(owner, in.Title, in.Description, in.StyleID, time.Now())
	if err != nil {
		return nil, err
	}
	qs.Slug = model.BaseSlug(in.Title)
	qs.ShareToken, _ = model.NewShareToken()
	f.put(qs)
	return qs, nil
}

func (f *fakeSets) ListMine(ctx context.Context, owner string) ([]*model.QuestionSet, error) {
	var out []*model.QuestionSet
	for _, qs := range f.bySlug {
		if qs.OwnerID == owner {
			out = append(out, qs)
		}
	}
	return out, nil
}

func (f *fakeSets) GetBySlug(ctx context.Context, owner, slug string) (*model.QuestionSet, error) {
	qs, ok := f.bySlug[slug]
	if !ok || !qs.IsOwnedBy(owner) {
		return nil, domain.ErrNotFound
	}
	return qs, nil
}

func (f *fakeSets) SetIDBySlug(ctx context.Context, slug string) (string, error) {
	qs, ok := f.bySlug[slug]
	if !ok {
		return "", domain.ErrNotFound
	}
	return qs.ID, nil
}

func (f *fakeSets) ownerOf(setID string) (string, bool) {
	for _, qs := range f.bySlug {
		if qs.ID == setID {
			return qs.OwnerID, true
		}
	}
	return "", false
}

func (f *fakeSets) GetByShareToken(ctx context.Context, token string) (*model.QuestionSet, error) {
	qs, ok := f.byToken[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return qs, nil
}

func (f *fakeSets) AddQuestion(ctx context.Context, owner, setID, text string) (*model.Question, error) {
	if o, ok := f.ownerOf(setID); !ok || o != owner {
		return nil, domain.ErrForbidden
	}
	f.added = append(f.added, text)
	return model.NewQuestion(setID, text, len(f.added)-1, time.Now())
}

func (f *fakeSets) EditQuestion(ctx context.Context, owner, questionID, text string) (*model.Question, error) {
	if owner != "owner" {
		return nil, domain.ErrForbidden
	}
	return &model.Question{ID: questionID, Text: text}, nil
}

func (f *fakeSets) DeleteQuestionSet(ctx context.Context, owner, setID string) error {
	if o, ok := f.ownerOf(setID); !ok || o != owner {
		return domain.ErrForbidden
	}
	f.deleted = append(f.deleted, setID)
	return nil
}

func (f *fakeSets) ListStyles(ctx context.Context) ([]*model.Style, error) {
	return []*model.Style{{ID: "s1", Name: "Classic", TemplateName: "classic.html"}}, nil
}

type fakeResponses struct {
	usecase.ResponseUseCase
	SubmitFunc func(ctx context.Context, respondent, setID string, answers map[string]string) (*model.AnswerSession, error)
	ExportFunc func(ctx context.Context, owner, sessionID string) (*usecase.ExportedDocument, error)
}

func (f *fakeResponses) Submit(ctx context.Context, respondent, setID string, answers map[string]string) (*model.AnswerSession, error) {
	return f.SubmitFunc(ctx, respondent, setID, answers)
}

func (f *fakeResponses) ExportResponse(ctx context.Context, owner, sessionID string) (*usecase.ExportedDocument, error) {
	return f.ExportFunc(ctx, owner, sessionID)
}

func (f *fakeResponses) ListResponses(ctx context.Context, owner, setID string) ([]*model.AnswerSession, error) {
	return []*model.AnswerSession{{ID: "sess-1", RespondentName: "ravi"}}, nil
}

type fakeNotifications struct {
	usecase.NotificationUseCase
	page    int
	markErr error
}

func (f *fakeNotifications) List(ctx context.Context, user string, page int) (*usecase.NotificationPage, error) {
	f.page = page
	return &usecase.NotificationPage{Page: 1, TotalPages: 1}, nil
}

func (f *fakeNotifications) MarkRead(ctx context.Context, user, id string) error { return f.markErr }

func (f *fakeNotifications) MarkAllRead(ctx context.Context, user string) (int, error) { return 3, nil }

type fakeStats struct {
	usecase.StatsUseCase
}

func (f *fakeStats) PopularOwners(ctx context.Context, limit int) ([]*model.OwnerStat, error) {
	return []*model.OwnerStat{{AccountID: "o1", Username: "olga", ResponseCount: 4}}, nil
}

type fakeThrottle struct {
	allow bool
	err   error
	keys  []string
}

func (f *fakeThrottle) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allow, f.err
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
