package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tillpoint/internal/apierror"
	"tillpoint/internal/dto"
	"tillpoint/internal/model"
	"tillpoint/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dailyReportCacheTTL = 5 * time.Minute

// ReportService builds the per business+date roll-up for dashboards.
// Derived data only; the redis cache is a read-through convenience.
type ReportService interface {
	Daily(ctx context.Context, businessID uuid.UUID, date time.Time) (*dto.DailyReportResponse, error)
}

type reportService struct {
	periodRepo   repository.PeriodRepository
	entryRepo    repository.EntryRepository
	payoutRepo   repository.PayoutRepository
	businessRepo repository.BusinessRepository
	rdb          *redis.Client
}

func NewReportService(
	periodRepo repository.PeriodRepository,
	entryRepo repository.EntryRepository,
	payoutRepo repository.PayoutRepository,
	businessRepo repository.BusinessRepository,
	rdb *redis.Client,
) ReportService {
	return &reportService{
		periodRepo:   periodRepo,
		entryRepo:    entryRepo,
		payoutRepo:   payoutRepo,
		businessRepo: businessRepo,
		rdb:          rdb,
	}
}

func (s *reportService) Daily(ctx context.Context, businessID uuid.UUID, date time.Time) (*dto.DailyReportResponse, error) {
	cacheKey := "report:daily:" + businessID.String() + ":" + date.Format(dateLayout)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.DailyReportResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return &resp, nil
			}
		}
	}

	business, err := s.businessRepo.FindByID(ctx, businessID)
	if err != nil {
		return nil, apierror.NewNotFound("business not found")
	}

	resp := &dto.DailyReportResponse{
		BusinessID:   businessID.String(),
		BusinessName: business.Name,
		Date:         date.Format(dateLayout),
		TotalPayout:  decimal.Zero,
	}

	period, err := s.periodRepo.FindByBusinessDate(ctx, businessID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil // no period opened for that day
		}
		return nil, err
	}
	resp.Period = toPeriodResponse(period)

	entries, err := s.entryRepo.ListByPeriod(ctx, period.ID)
	if err != nil {
		return nil, err
	}
	resp.EntryCount = len(entries)
	for i := range entries {
		resp.Variances = append(resp.Variances, varianceRow(&entries[i]))
		resp.Anomalies = append(resp.Anomalies, entries[i].Anomalies...)
	}

	totalPayout, err := s.payoutRepo.SumByPeriod(ctx, period.ID)
	if err != nil {
		return nil, err
	}
	resp.TotalPayout = totalPayout

	if s.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = s.rdb.Set(ctx, cacheKey, b, dailyReportCacheTTL).Err()
		}
	}
	return resp, nil
}

func varianceRow(e *model.MachineEntry) dto.ReportVarianceRow {
	row := dto.ReportVarianceRow{
		MachineName:  e.MachineName,
		PhysicalCash: e.PhysicalCash,
		Expected:     e.ExpectedPhysicalCash,
		Difference:   e.Difference,
	}
	switch {
	case e.Difference == nil:
		row.Outcome = OutcomeSkipped
	case e.ExpectedPhysicalCash == nil:
		row.Outcome = OutcomeFirstEntry
	default:
		row.Outcome = outcomeFor(*e.Difference)
	}
	return row
}
