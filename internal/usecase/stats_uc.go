package usecase

import (
	"context"

	"diaryshare/internal/domain/model"
	"diaryshare/internal/domain/ports/repository"
	"diaryshare/internal/infra/logging"

	"github.com/rs/zerolog"
)

// DefaultLeaderboardSize is how many owners the public leaderboard shows.
const DefaultLeaderboardSize = 5

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	// PopularOwners ranks accounts by responses received across all of their diaries.
	PopularOwners(ctx context.Context, limit int) ([]*model.OwnerStat, error)
}

type statsUC struct {
	accounts repository.AccountRepository
	log      *zerolog.Logger
}

func NewStatsUseCase(accounts repository.AccountRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{accounts: accounts, log: logger}
}

func (s *statsUC) PopularOwners(ctx context.Context, limit int) ([]*model.OwnerStat, error) {
	defer logging.TraceDuration(s.log, "StatsUC.PopularOwners")()
	if limit <= 0 || limit > 100 {
		limit = DefaultLeaderboardSize
	}
	return s.accounts.PopularOwners(ctx, repository.NoTX, limit)
}
