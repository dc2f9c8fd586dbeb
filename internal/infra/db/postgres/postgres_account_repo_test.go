//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"diaryshare/internal/domain"
	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/repository"
)

func TestPostgresAccountRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresAccountRepo(testPool)
	profiles := NewPostgresUsageProfileRepo(testPool)
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

	t.Run("should save and read back with the profile plan", func(t *testing.T) {
		cleanup(t)
		seedAccount(t, "acc-1", "alice", now)

		got, err := repo.FindByID(ctx, nil, "acc-1")
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if got.Username != "alice" || got.Plan != model.PlanFree {
			t.Errorf("unexpected account %+v", got)
		}

		p, _ := profiles.FindByAccount(ctx, nil, "acc-1")
		p.Upgrade(now)
		if err := profiles.Save(ctx, nil, p); err != nil {
			t.Fatalf("save profile: %v", err)
		}
		got, _ = repo.FindByID(ctx, nil, "acc-1")
		if got.Plan != model.PlanPremium {
			t.Errorf("expected premium plan, got %s", got.Plan)
		}
	})

	t.Run("should update the username on conflict", func(t *testing.T) {
		cleanup(t)
		a := seedAccount(t, "acc-1", "alice", now)
		a.Username = "alice2"
		if err := repo.Save(ctx, nil, a); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, _ := repo.FindByID(ctx, nil, "acc-1")
		if got.Username != "alice2" {
			t.Errorf("expected username alice2, got %s", got.Username)
		}
	})

	t.Run("should not overwrite an existing profile on create", func(t *testing.T) {
		cleanup(t)
		seedAccount(t, "acc-1", "alice", now)
		p, _ := profiles.FindByAccount(ctx, nil, "acc-1")
		p.Consume(now)
		if err := profiles.Save(ctx, nil, p); err != nil {
			t.Fatalf("save profile: %v", err)
		}

		fresh, _ := model.NewUsageProfile("acc-1", now.Add(time.Hour), model.DefaultLimits())
		created, err := profiles.Create(ctx, nil, fresh)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if created {
			t.Error("expected the existing row to win")
		}
		got, _ := profiles.FindByAccount(ctx, nil, "acc-1")
		if got.WeeklyAnswerCount != 1 || !got.NextResetAt.Equal(p.NextResetAt) {
			t.Errorf("stored profile was touched: %+v", got)
		}
	})

	t.Run("should return ErrNotFound for unknown ids", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByID(ctx, nil, "ghost"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should rank owners by responses received", func(t *testing.T) {
		cleanup(t)
		seedAccount(t, "o1", "olga", now)
		seedAccount(t, "o2", "oscar", now)
		seedAccount(t, "r1", "ravi", now)
		s1, _ := seedSet(t, "o1", "One", "one", now)
		s2, _ := seedSet(t, "o2", "Two", "two", now)
		sessions := NewPostgresAnswerSessionRepo(testPool)
		for i := 0; i < 3; i++ {
			_ = sessions.Create(ctx, nil, model.NewAnswerSession("r1", s2.ID, now))
		}
		_ = sessions.Create(ctx, nil, model.NewAnswerSession("r1", s1.ID, now))

		stats, err := repo.PopularOwners(ctx, nil, 5)
		if err != nil {
			t.Fatalf("PopularOwners failed: %v", err)
		}
		if len(stats) != 2 || stats[0].AccountID != "o2" || stats[0].ResponseCount != 3 || stats[1].ResponseCount != 1 {
			t.Errorf("unexpected ranking %+v", stats)
		}
	})
}

func TestPostgresUsageProfileRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgresUsageProfileRepo(testPool)
	tm := NewTxManager(testPool)
	now := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

	t.Run("should lock the row inside a transaction", func(t *testing.T) {
		cleanup(t)
		seedAccount(t, "acc-1", "alice", now)

		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			p, err := repo.LockByAccount(ctx, tx, "acc-1")
			if err != nil {
				return err
			}
			p.Consume(now)
			return repo.Save(ctx, tx, p)
		})
		if err != nil {
			t.Fatalf("WithTx failed: %v", err)
		}
		p, _ := repo.FindByAccount(ctx, nil, "acc-1")
		if p.WeeklyAnswerCount != 1 {
			t.Errorf("expected count 1, got %d", p.WeeklyAnswerCount)
		}
	})

	t.Run("should roll back when the callback fails", func(t *testing.T) {
		cleanup(t)
		seedAccount(t, "acc-1", "alice", now)
		boom := errors.New("boom")

		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			p, _ := repo.LockByAccount(ctx, tx, "acc-1")
			p.Consume(now)
			_ = repo.Save(ctx, tx, p)
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		p, _ := repo.FindByAccount(ctx, nil, "acc-1")
		if p.WeeklyAnswerCount != 0 {
			t.Errorf("expected rollback, count is %d", p.WeeklyAnswerCount)
		}
	})

	t.Run("should reset only due profiles", func(t *testing.T) {
		cleanup(t)
		seedAccount(t, "due", "dora", now.Add(-8*24*time.Hour))
		seedAccount(t, "fresh", "fred", now)
		for _, id := range []string{"due", "fresh"} {
			p, _ := repo.FindByAccount(ctx, nil, id)
			p.WeeklyAnswerCount = 4
			_ = repo.Save(ctx, nil, p)
		}

		n, err := repo.ResetDue(ctx, nil, now, 0)
		if err != nil {
			t.Fatalf("ResetDue failed: %v", err)
		}
		if n != 1 {
			t.Fatalf("expected 1 reset, got %d", n)
		}
		due, _ := repo.FindByAccount(ctx, nil, "due")
		if due.WeeklyAnswerCount != 0 || !due.NextResetAt.Equal(now.Add(model.DefaultResetPeriod)) {
			t.Errorf("unexpected reset profile %+v", due)
		}
		fresh, _ := repo.FindByAccount(ctx, nil, "fresh")
		if fresh.WeeklyAnswerCount != 4 {
			t.Errorf("fresh profile must be untouched, got %d", fresh.WeeklyAnswerCount)
		}

		again, _ := repo.ResetDue(ctx, nil, now, 0)
		if again != 0 {
			t.Errorf("second sweep must be a no-op, reset %d", again)
		}
	})
}
