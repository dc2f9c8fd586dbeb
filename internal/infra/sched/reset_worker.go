package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"diaryshare/internal/infra/metrics"
)

const jobResetWeekly = "reset_weekly"

// Resetter is the slice of the entitlement use case the sweep needs.
type Resetter interface {
	ResetDueProfiles(ctx context.Context) (int, error)
}

// ResetWorker runs the weekly quota sweep once, or on an interval until cancelled.
// Requests never depend on it: profiles are also reset lazily on read.
type ResetWorker struct {
	interval time.Duration
	uc       Resetter
	log      *zerolog.Logger
}

func NewResetWorker(interval time.Duration, uc Resetter, logger *zerolog.Logger) *ResetWorker {
	l := logger.With().Str("component", "ResetWorker").Logger()
	return &ResetWorker{
		interval: interval,
		uc:       uc,
		log:      &l,
	}
}

// RunOnce performs a single sweep and returns the number of profiles reset.
func (w *ResetWorker) RunOnce(ctx context.Context) (int, error) {
	n, err := w.uc.ResetDueProfiles(ctx)
	if err != nil {
		metrics.IncMaintenanceRun(jobResetWeekly, "failed")
		w.log.Error().Err(err).Msg("weekly reset failed")
		return 0, err
	}
	metrics.IncMaintenanceRun(jobResetWeekly, "ok")
	metrics.IncProfilesReset(n)
	w.log.Info().Int("count", n).Msg("weekly reset done")
	return n, nil
}

func (w *ResetWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting reset worker")
	if _, err := w.RunOnce(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping reset worker")
			return ctx.Err()
		case <-ticker.C:
			_, _ = w.RunOnce(ctx)
		}
	}
}
