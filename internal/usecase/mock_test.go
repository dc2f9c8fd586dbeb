//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/adapter"
	"diaryshare/internal/domain/ports/repository"
	"diaryshare/internal/usecase"
)

// =============================
// Repositories
// =============================

// ---- Mock AccountRepository ----

type MockAccountRepo struct {
	mu   sync.Mutex
	data map[string]*model.Account

	SaveFunc          func(ctx context.Context, tx repository.Tx, a *model.Account) error
	FindByIDFunc      func(ctx context.Context, tx repository.Tx, id string) (*model.Account, error)
	PopularOwnersFunc func(ctx context.Context, tx repository.Tx, limit int) ([]*model.OwnerStat, error)
}

var _ repository.AccountRepository = (*MockAccountRepo)(nil)

func NewMockAccountRepo() *MockAccountRepo {
	return &MockAccountRepo{data: map[string]*model.Account{}}
}

func (r *MockAccountRepo) Save(ctx context.Context, tx repository.Tx, a *model.Account) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, a)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.data[a.ID] = &cp
	return nil
}

func (r *MockAccountRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *MockAccountRepo) PopularOwners(ctx context.Context, tx repository.Tx, limit int) ([]*model.OwnerStat, error) {
	if r.PopularOwnersFunc != nil {
		return r.PopularOwnersFunc(ctx, tx, limit)
	}
	return nil, nil
}

// ---- Mock UsageProfileRepository ----

type MockUsageProfileRepo struct {
	mu    sync.Mutex
	data  map[string]*model.UsageProfile
	Locks int

	SaveFunc     func(ctx context.Context, tx repository.Tx, p *model.UsageProfile) error
	FindFunc     func(ctx context.Context, tx repository.Tx, accountID string) (*model.UsageProfile, error)
	Saves        int
	ResetDueFunc func(ctx context.Context, tx repository.Tx, now time.Time, period time.Duration) (int, error)
}

var _ repository.UsageProfileRepository = (*MockUsageProfileRepo)(nil)

func NewMockUsageProfileRepo() *MockUsageProfileRepo {
	return &MockUsageProfileRepo{data: map[string]*model.UsageProfile{}}
}

func (r *MockUsageProfileRepo) Create(ctx context.Context, tx repository.Tx, p *model.UsageProfile) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[p.AccountID]; ok {
		return false, nil
	}
	cp := *p
	r.data[p.AccountID] = &cp
	return true, nil
}

func (r *MockUsageProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.UsageProfile) error {
	r.mu.Lock()
	r.Saves++
	r.mu.Unlock()
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.data[p.AccountID] = &cp
	return nil
}

func (r *MockUsageProfileRepo) FindByAccount(ctx context.Context, tx repository.Tx, accountID string) (*model.UsageProfile, error) {
	if r.FindFunc != nil {
		return r.FindFunc(ctx, tx, accountID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MockUsageProfileRepo) LockByAccount(ctx context.Context, tx repository.Tx, accountID string) (*model.UsageProfile, error) {
	r.mu.Lock()
	r.Locks++
	r.mu.Unlock()
	return r.FindByAccount(ctx, tx, accountID)
}

func (r *MockUsageProfileRepo) ResetDue(ctx context.Context, tx repository.Tx, now time.Time, period time.Duration) (int, error) {
	if r.ResetDueFunc != nil {
		return r.ResetDueFunc(ctx, tx, now, period)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.data {
		if p.MaybeReset(now, model.Limits{ResetPeriod: period}) {
			n++
		}
	}
	return n, nil
}

// Get returns the stored profile, for assertions.
func (r *MockUsageProfileRepo) Get(accountID string) *model.UsageProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[accountID]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// ---- Mock QuestionSetRepository ----

type MockQuestionSetRepo struct {
	mu   sync.Mutex
	data map[string]*model.QuestionSet

	CreateFunc func(ctx context.Context, tx repository.Tx, qs *model.QuestionSet) error
	Creates    int
}

var _ repository.QuestionSetRepository = (*MockQuestionSetRepo)(nil)

func NewMockQuestionSetRepo() *MockQuestionSetRepo {
	return &MockQuestionSetRepo{data: map[string]*model.QuestionSet{}}
}

func (r *MockQuestionSetRepo) Create(ctx context.Context, tx repository.Tx, qs *model.QuestionSet) error {
	r.mu.Lock()
	r.Creates++
	r.mu.Unlock()
	if r.CreateFunc != nil {
		if err := r.CreateFunc(ctx, tx, qs); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.data {
		if existing.ShareToken == qs.ShareToken {
			return domain.ErrShareTokenConflict
		}
		if existing.Slug == qs.Slug {
			return domain.ErrSlugConflict
		}
	}
	cp := *qs
	cp.Questions = nil
	r.data[qs.ID] = &cp
	return nil
}

func (r *MockQuestionSetRepo) find(match func(*model.QuestionSet) bool) (*model.QuestionSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, qs := range r.data {
		if match(qs) {
			cp := *qs
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockQuestionSetRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.QuestionSet, error) {
	return r.find(func(qs *model.QuestionSet) bool { return qs.ID == id })
}

func (r *MockQuestionSetRepo) FindBySlug(ctx context.Context, tx repository.Tx, slug string) (*model.QuestionSet, error) {
	return r.find(func(qs *model.QuestionSet) bool { return qs.Slug == slug })
}

func (r *MockQuestionSetRepo) FindByShareToken(ctx context.Context, tx repository.Tx, token string) (*model.QuestionSet, error) {
	return r.find(func(qs *model.QuestionSet) bool { return qs.ShareToken == token })
}

func (r *MockQuestionSetRepo) ListByOwner(ctx context.Context, tx repository.Tx, ownerID string) ([]*model.QuestionSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.QuestionSet
	for _, qs := range r.data {
		if qs.OwnerID == ownerID {
			cp := *qs
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MockQuestionSetRepo) CountByOwner(ctx context.Context, tx repository.Tx, ownerID string) (int, error) {
	out, _ := r.ListByOwner(ctx, tx, ownerID)
	return len(out), nil
}

func (r *MockQuestionSetRepo) SlugsWithBase(ctx context.Context, tx repository.Tx, base string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, qs := range r.data {
		if qs.Slug == base || strings.HasPrefix(qs.Slug, base+"-") {
			out = append(out, qs.Slug)
		}
	}
	return out, nil
}

func (r *MockQuestionSetRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// Seed stores qs as-is, bypassing uniqueness checks.
func (r *MockQuestionSetRepo) Seed(qs *model.QuestionSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *qs
	r.data[qs.ID] = &cp
}

// ---- Mock QuestionRepository ----

type MockQuestionRepo struct {
	mu   sync.Mutex
	data map[string]*model.Question
}

var _ repository.QuestionRepository = (*MockQuestionRepo)(nil)

func NewMockQuestionRepo() *MockQuestionRepo {
	return &MockQuestionRepo{data: map[string]*model.Question{}}
}

func (r *MockQuestionRepo) Save(ctx context.Context, tx repository.Tx, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *q
	r.data[q.ID] = &cp
	return nil
}

func (r *MockQuestionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *MockQuestionRepo) ListBySet(ctx context.Context, tx repository.Tx, setID string) ([]*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Question
	for _, q := range r.data {
		if q.QuestionSetID == setID {
			cp := *q
			out = append(out, &cp)
		}
	}
	model.SortQuestions(out)
	return out, nil
}

func (r *MockQuestionRepo) NextOrder(ctx context.Context, tx repository.Tx, setID string) (int, error) {
	qq, _ := r.ListBySet(ctx, tx, setID)
	if len(qq) == 0 {
		return 0, nil
	}
	return qq[len(qq)-1].Order + 1, nil
}

func (r *MockQuestionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

// ---- Mock StyleRepository ----

type MockStyleRepo struct {
	mu   sync.Mutex
	data map[string]*model.Style
}

var _ repository.StyleRepository = (*MockStyleRepo)(nil)

func NewMockStyleRepo() *MockStyleRepo {
	return &MockStyleRepo{data: map[string]*model.Style{}}
}

func (r *MockStyleRepo) Save(ctx context.Context, tx repository.Tx, s *model.Style) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	cp := *s
	r.data[s.ID] = &cp
	return nil
}

func (r *MockStyleRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Style, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MockStyleRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Style, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Style, 0, len(r.data))
	for _, s := range r.data {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ---- Mock AnswerSessionRepository ----

type MockAnswerSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.AnswerSession
	answers  map[string][]*model.Answer

	AddAnswersFunc func(ctx context.Context, tx repository.Tx, answers []*model.Answer) error
}

var _ repository.AnswerSessionRepository = (*MockAnswerSessionRepo)(nil)

func NewMockAnswerSessionRepo() *MockAnswerSessionRepo {
	return &MockAnswerSessionRepo{sessions: map[string]*model.AnswerSession{}, answers: map[string][]*model.Answer{}}
}

func (r *MockAnswerSessionRepo) Create(ctx context.Context, tx repository.Tx, s *model.AnswerSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	cp.Answers = nil
	r.sessions[s.ID] = &cp
	return nil
}

func (r *MockAnswerSessionRepo) AddAnswers(ctx context.Context, tx repository.Tx, answers []*model.Answer) error {
	if r.AddAnswersFunc != nil {
		return r.AddAnswersFunc(ctx, tx, answers)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range answers {
		for _, existing := range r.answers[a.SessionID] {
			if a.QuestionID != nil && existing.QuestionID != nil && *a.QuestionID == *existing.QuestionID {
				return domain.ErrAlreadyExists
			}
		}
		cp := *a
		r.answers[a.SessionID] = append(r.answers[a.SessionID], &cp)
	}
	return nil
}

func (r *MockAnswerSessionRepo) load(s *model.AnswerSession) *model.AnswerSession {
	cp := *s
	cp.Answers = nil
	for _, a := range r.answers[s.ID] {
		ac := *a
		cp.Answers = append(cp.Answers, &ac)
	}
	return &cp
}

func (r *MockAnswerSessionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AnswerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.load(s), nil
}

func (r *MockAnswerSessionRepo) ListBySet(ctx context.Context, tx repository.Tx, setID string) ([]*model.AnswerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AnswerSession
	for _, s := range r.sessions {
		if s.QuestionSetID != nil && *s.QuestionSetID == setID {
			out = append(out, r.load(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MockAnswerSessionRepo) CountByRespondentSince(ctx context.Context, tx repository.Tx, respondentID string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.RespondentID != nil && *s.RespondentID == respondentID && !s.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MockAnswerSessionRepo) SessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *MockAnswerSessionRepo) AnswerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, aa := range r.answers {
		n += len(aa)
	}
	return n
}

// ---- Mock NotificationRepository ----

type MockNotificationRepo struct {
	mu   sync.Mutex
	data map[string]*model.Notification

	SaveFunc func(ctx context.Context, tx repository.Tx, n *model.Notification) error
}

var _ repository.NotificationRepository = (*MockNotificationRepo)(nil)

func NewMockNotificationRepo() *MockNotificationRepo {
	return &MockNotificationRepo{data: map[string]*model.Notification{}}
}

func (r *MockNotificationRepo) Save(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.data[n.ID] = &cp
	return nil
}

func (r *MockNotificationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (r *MockNotificationRepo) byUser(userID string) []*model.Notification {
	var out []*model.Notification
	for _, n := range r.data {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *MockNotificationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.byUser(userID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MockNotificationRepo) CountByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser(userID)), nil
}

func (r *MockNotificationRepo) CountUnread(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, x := range r.byUser(userID) {
		if !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *MockNotificationRepo) MarkRead(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (r *MockNotificationRepo) MarkAllRead(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := 0
	for _, n := range r.data {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			c++
		}
	}
	return c, nil
}

func (r *MockNotificationRepo) All() []*model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Notification, 0, len(r.data))
	for _, n := range r.data {
		cp := *n
		out = append(out, &cp)
	}
	return out
}

// =============================
// Adapters
// =============================

type MockRenderer struct {
	Got        *model.ResolvedResponse
	RenderFunc func(ctx context.Context, r *model.ResolvedResponse) ([]byte, error)
}

var _ adapter.DocumentRenderer = (*MockRenderer)(nil)

func (m *MockRenderer) ContentType() string   { return "text/plain; charset=utf-8" }
func (m *MockRenderer) FileExtension() string { return "txt" }

func (m *MockRenderer) Render(ctx context.Context, r *model.ResolvedResponse) ([]byte, error) {
	m.Got = r
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, r)
	}
	return []byte(r.SetTitle), nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	Calls      int
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Fixture
// =============================

// testClock is a settable clock shared by every use case of a fixture.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type fixture struct {
	accounts  *MockAccountRepo
	profiles  *MockUsageProfileRepo
	sets      *MockQuestionSetRepo
	questions *MockQuestionRepo
	styles    *MockStyleRepo
	sessions  *MockAnswerSessionRepo
	notes     *MockNotificationRepo
	tm        *MockTxManager
	renderer  *MockRenderer
	clock     *testClock
	limits    model.Limits

	entitlements usecase.EntitlementUseCase
	registry     usecase.QuestionSetUseCase
	responses    usecase.ResponseUseCase
	notifier     usecase.NotificationUseCase
}

// fixtureNow is a Wednesday.
var fixtureNow = time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		accounts:  NewMockAccountRepo(),
		profiles:  NewMockUsageProfileRepo(),
		sets:      NewMockQuestionSetRepo(),
		questions: NewMockQuestionRepo(),
		styles:    NewMockStyleRepo(),
		sessions:  NewMockAnswerSessionRepo(),
		notes:     NewMockNotificationRepo(),
		tm:        NewMockTxManager(),
		renderer:  &MockRenderer{},
		clock:     &testClock{t: fixtureNow},
		limits:    model.DefaultLimits(),
	}
	log := newTestLogger()
	f.notifier = usecase.NewNotificationUseCase(f.notes, f.accounts, nil, f.clock.Now, log)
	f.entitlements = usecase.NewEntitlementUseCase(f.accounts, f.profiles, f.sets, f.sessions, f.tm, f.limits, f.clock.Now, log)
	f.registry = usecase.NewQuestionSetUseCase(f.sets, f.questions, f.styles, f.profiles, f.tm, f.limits, f.clock.Now, log)
	f.responses = usecase.NewResponseUseCase(f.sets, f.questions, f.styles, f.sessions, f.profiles, f.tm, f.notifier, f.renderer, f.limits, f.clock.Now, log)
	return f
}

// account registers an account with a fresh profile on the given plan.
func (f *fixture) account(id, username string, plan model.Plan) *model.Account {
	now := f.clock.Now()
	a, _ := model.NewAccount(id, username, now)
	a.Plan = plan
	_ = f.accounts.Save(context.Background(), nil, a)
	p, _ := model.NewUsageProfile(id, now, f.limits)
	p.Plan = plan
	_ = f.profiles.Save(context.Background(), nil, p)
	return a
}

// diary seeds a set owned by ownerID with the given question texts.
func (f *fixture) diary(ownerID, title string, questions ...string) (*model.QuestionSet, []*model.Question) {
	now := f.clock.Now()
	qs, _ := model.NewQuestionSet(ownerID, title, "", nil, now)
	qs.Slug = model.BaseSlug(title) + "-" + qs.ID[:4]
	qs.ShareToken, _ = model.NewShareToken()
	f.sets.Seed(qs)
	var out []*model.Question
	for i, text := range questions {
		q, _ := model.NewQuestion(qs.ID, text, i, now)
		_ = f.questions.Save(context.Background(), nil, q)
		out = append(out, q)
	}
	return qs, out
}
