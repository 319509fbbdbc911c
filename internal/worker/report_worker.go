package worker

// report_worker.go
// Processes close-summary jobs from QueueReport. For each closed period it
// renders the day-sheet PDF and enqueues the delivery email. Delivery state
// lives on the period row (summary_sent / summary_attempts /
// next_summary_retry_at) so a crashed worker loses nothing — the retry cron
// picks the period up again.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tillpoint/internal/infra"
	"tillpoint/internal/model"
	"tillpoint/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxSummaryAttempts is how many delivery attempts a period gets before its
// job is parked in the DLQ for manual inspection.
const MaxSummaryAttempts = 5

// ReportJobPayload is the job envelope sent to QueueReport.
type ReportJobPayload struct {
	PeriodID string `json:"period_id"`
}

// ReportWorker renders and dispatches close summaries.
type ReportWorker struct {
	periodRepo   repository.PeriodRepository
	entryRepo    repository.EntryRepository
	businessRepo repository.BusinessRepository
	dispatcher   *Dispatcher
	rdb          *redis.Client
	storagePath  string
}

func NewReportWorker(
	periodRepo repository.PeriodRepository,
	entryRepo repository.EntryRepository,
	businessRepo repository.BusinessRepository,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	storagePath string,
) *ReportWorker {
	return &ReportWorker{
		periodRepo:   periodRepo,
		entryRepo:    entryRepo,
		businessRepo: businessRepo,
		dispatcher:   dispatcher,
		rdb:          rdb,
		storagePath:  storagePath,
	}
}

// Process handles a single report job:
//  1. Parse ReportJobPayload from the job envelope
//  2. Fetch the closed period, its entries and its business
//  3. Render the day-sheet PDF
//  4. Enqueue the email job and mark the summary delivered
//
// On failure the attempt counter is bumped and next_summary_retry_at is set;
// the retry cron re-enqueues until MaxSummaryAttempts is hit.
func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("report_worker: invalid payload")
		return
	}

	periodID, err := uuid.Parse(payload.PeriodID)
	if err != nil {
		log.Error().Str("period_id", payload.PeriodID).Msg("report_worker: invalid period_id")
		return
	}

	period, err := w.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		log.Error().Err(err).Str("period_id", payload.PeriodID).Msg("report_worker: period not found")
		return
	}
	if period.SummarySent {
		log.Debug().Str("period_id", payload.PeriodID).Msg("report_worker: summary already sent, skipping")
		return
	}
	if period.IsOpen() {
		log.Warn().Str("period_id", payload.PeriodID).Msg("report_worker: period still open, skipping")
		return
	}

	business, err := w.businessRepo.FindByID(ctx, period.BusinessID)
	if err != nil {
		log.Error().Err(err).Str("period_id", payload.PeriodID).Msg("report_worker: business not found")
		return
	}

	entries, err := w.entryRepo.ListByPeriod(ctx, period.ID)
	if err != nil {
		w.recordFailure(ctx, period, raw, fmt.Errorf("list entries: %w", err))
		return
	}

	pdfPath, err := infra.GeneratePeriodSummaryPDF(period, business, entries, w.storagePath)
	if err != nil {
		w.recordFailure(ctx, period, raw, err)
		return
	}

	// No report address configured — nothing to deliver, but the sheet is on
	// disk and the period should not stay in the retry scan.
	if business.ReportEmail == nil || *business.ReportEmail == "" {
		w.markDelivered(ctx, period)
		log.Info().Str("period_id", payload.PeriodID).Str("pdf", pdfPath).
			Msg("report_worker: no report email configured, PDF stored only")
		return
	}

	emailJob := EmailJobPayload{
		ToEmail: *business.ReportEmail,
		Subject: fmt.Sprintf("Daily close summary — %s — %s", business.Name, period.BusinessDate.Format("2006-01-02")),
		Body:    fmt.Sprintf("Attached is the close summary for %s on %s.", business.Name, period.BusinessDate.Format("2006-01-02")),
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		w.recordFailure(ctx, period, raw, fmt.Errorf("enqueue email: %w", err))
		return
	}

	w.markDelivered(ctx, period)
	log.Info().Str("period_id", payload.PeriodID).Str("pdf", pdfPath).
		Str("to", *business.ReportEmail).Msg("report_worker: summary dispatched")
}

func (w *ReportWorker) markDelivered(ctx context.Context, period *model.Period) {
	period.SummarySent = true
	period.NextSummaryRetryAt = nil
	if err := w.periodRepo.Update(ctx, period); err != nil {
		log.Error().Err(err).Str("period_id", period.ID.String()).Msg("report_worker: failed to mark delivered")
	}
}

func (w *ReportWorker) recordFailure(ctx context.Context, period *model.Period, raw json.RawMessage, cause error) {
	period.SummaryAttempts++

	if period.SummaryAttempts >= MaxSummaryAttempts {
		period.NextSummaryRetryAt = nil
		log.Error().Err(cause).
			Str("period_id", period.ID.String()).
			Int("attempts", period.SummaryAttempts).
			Msg("report_worker: max attempts exceeded, moving to DLQ")
		SendToDLQ(ctx, w.rdb, QueueReport, "report", raw,
			fmt.Sprintf("max attempts (%d) exceeded: %v", MaxSummaryAttempts, cause),
			period.SummaryAttempts)
	} else {
		next := time.Now().Add(summaryRetryBackoff(period.SummaryAttempts))
		period.NextSummaryRetryAt = &next
		log.Warn().Err(cause).
			Str("period_id", period.ID.String()).
			Int("attempts", period.SummaryAttempts).
			Time("next_retry_at", next).
			Msg("report_worker: attempt failed, scheduled retry")
	}

	if err := w.periodRepo.Update(ctx, period); err != nil {
		log.Error().Err(err).Str("period_id", period.ID.String()).Msg("report_worker: failed to persist retry state")
	}
}

// summaryRetryBackoff doubles per attempt: 2m, 4m, 8m …
func summaryRetryBackoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return time.Duration(1<<uint(attempts)) * time.Minute
}
