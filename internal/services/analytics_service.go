package services

import (
	"context"
	"encoding/json"
	"log"
	"strconv"

	"tuition-backend/internal/cache"
	"tuition-backend/internal/models"
	"tuition-backend/internal/repositories"
	"tuition-backend/internal/timeutil"
)

// Alerter receives operational alerts (consumed by the monitoring
// dashboard). Optional.
type Alerter interface {
	Alert(severity, alertType, message string)
}

// AnalyticsService computes dashboard aggregates over the fee and payment
// records. Every figure re-derives fee status at query time, so the
// numbers stay correct when a due date passed with no intervening write.
type AnalyticsService struct {
	Fees     repositories.FeeStore
	Payments repositories.PaymentStore

	alerter Alerter
	// overdueAlertThreshold triggers an ops alert when the overdue count
	// reaches it. Zero disables alerting.
	overdueAlertThreshold int
}

func NewAnalyticsService(fees repositories.FeeStore, payments repositories.PaymentStore) *AnalyticsService {
	return &AnalyticsService{Fees: fees, Payments: payments}
}

// SetAlerter wires the ops alert sink and the overdue-count threshold.
func (s *AnalyticsService) SetAlerter(a Alerter, overdueThreshold int) {
	s.alerter = a
	s.overdueAlertThreshold = overdueThreshold
}

// GetSummary aggregates over the fees matching the filter. An unfiltered
// summary is served from cache for a short TTL; any ledger mutation
// invalidates it. An empty record set yields all-zero figures.
func (s *AnalyticsService) GetSummary(ctx context.Context, filter models.FeeFilter) (*models.AnalyticsSummary, error) {
	unfiltered := filter == (models.FeeFilter{})
	if unfiltered {
		if data, ok := cache.GetCached(ctx, cache.AnalyticsSummaryKey); ok {
			var summary models.AnalyticsSummary
			if err := json.Unmarshal(data, &summary); err == nil {
				return &summary, nil
			}
		}
	}

	now := timeutil.Now()
	fees, err := s.Fees.ListAll(ctx, filter, now)
	if err != nil {
		return nil, err
	}

	summary := &models.AnalyticsSummary{}
	for _, fee := range fees {
		summary.TotalRecords++
		summary.TotalFees += fee.Amount
		summary.TotalPaid += fee.PaidAmount
		summary.TotalPending += fee.PendingAmount()

		if models.DeriveStatus(fee, now) == models.FeeStatusOverdue {
			summary.OverdueCount++
			summary.OverdueAmount += fee.PendingAmount()
		}
	}

	monthStart, monthEnd := timeutil.MonthWindow(now)
	payments, err := s.Payments.ListByDateRange(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		summary.MonthlyCollection += p.Amount
		summary.MonthlyTransactions++
	}

	if unfiltered {
		if data, err := json.Marshal(summary); err == nil {
			cache.SetCached(ctx, cache.AnalyticsSummaryKey, data, cache.AnalyticsTTL)
		}
		s.checkOverdueAlert(summary)
	}
	return summary, nil
}

func (s *AnalyticsService) checkOverdueAlert(summary *models.AnalyticsSummary) {
	if s.alerter == nil || s.overdueAlertThreshold <= 0 {
		return
	}
	if summary.OverdueCount >= s.overdueAlertThreshold {
		log.Printf("[Analytics] Overdue fees at %d (threshold %d), raising alert",
			summary.OverdueCount, s.overdueAlertThreshold)
		s.alerter.Alert("warning", "overdue_fees",
			"overdue fee count reached "+strconv.Itoa(summary.OverdueCount))
	}
}
