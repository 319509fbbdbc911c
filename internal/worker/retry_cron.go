package worker

// retry_cron.go
// Background goroutine that periodically re-enqueues close-summary jobs for
// closed periods whose summary has not gone out and whose next_summary_retry_at
// is in the past. State lives on the period row, so restarts lose nothing.

import (
	"context"
	"time"

	"tillpoint/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	PeriodRepo repository.PeriodRepository
	Dispatcher *Dispatcher
}

// StartRetryCron launches a background goroutine that ticks every 30s and
// re-enqueues pending close summaries. It respects the context for graceful
// shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	now := time.Now()
	periods, err := cfg.PeriodRepo.ListPendingSummaries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending summaries")
		return
	}

	if len(periods) == 0 {
		return
	}

	log.Info().Int("count", len(periods)).Msg("retry_cron: re-enqueueing pending summaries")

	for i := range periods {
		period := &periods[i]

		// Push the retry window forward before enqueueing so a slow worker
		// doesn't race the next tick into a duplicate job.
		next := now.Add(summaryRetryBackoff(period.SummaryAttempts + 1))
		period.NextSummaryRetryAt = &next
		if err := cfg.PeriodRepo.Update(ctx, period); err != nil {
			log.Error().Err(err).Str("period_id", period.ID.String()).Msg("retry_cron: failed to bump retry window")
			continue
		}

		job := ReportJobPayload{PeriodID: period.ID.String()}
		if err := cfg.Dispatcher.EnqueueReport(ctx, job); err != nil {
			log.Error().Err(err).Str("period_id", period.ID.String()).Msg("retry_cron: failed to enqueue report job")
			continue
		}

		log.Info().
			Str("period_id", period.ID.String()).
			Int("attempts", period.SummaryAttempts).
			Msg("retry_cron: report job re-enqueued")
	}
}
