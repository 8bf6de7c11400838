package services

import (
	"context"
	"testing"

	"tuition-backend/internal/models"
	"tuition-backend/internal/repositories"
	"tuition-backend/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingAlerter struct {
	alerts []string
}

func (c *capturingAlerter) Alert(severity, alertType, message string) {
	c.alerts = append(c.alerts, alertType)
}

func newTestAnalytics() (*LedgerService, *AnalyticsService) {
	store := repositories.NewMemoryStore()
	return NewLedgerService(store.Fees(), store.Payments()),
		NewAnalyticsService(store.Fees(), store.Payments())
}

func TestGetSummary(t *testing.T) {
	ledger, analytics := newTestAnalytics()
	ctx := context.Background()

	// One overdue fee, one partially paid, one fully paid.
	overdue := createTestFee(t, ledger, 1000, timeutil.Now().AddDate(0, 0, -3))
	partial := createTestFee(t, ledger, 2000, tomorrow())
	settled := createTestFee(t, ledger, 3000, tomorrow())

	_, _, err := ledger.ApplyPayment(ctx, partial.ID, &models.ApplyPaymentRequest{
		Amount: 500, Method: models.PaymentMethodCash, PaymentDate: timeutil.Now(),
	})
	require.NoError(t, err)
	_, _, err = ledger.ApplyPayment(ctx, settled.ID, &models.ApplyPaymentRequest{
		Amount: 3000, Method: models.PaymentMethodUPI, PaymentDate: timeutil.Now(),
	})
	require.NoError(t, err)

	summary, err := analytics.GetSummary(ctx, models.FeeFilter{})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalRecords)
	assert.Equal(t, models.Money(6000), summary.TotalFees)
	assert.Equal(t, models.Money(3500), summary.TotalPaid)
	assert.Equal(t, models.Money(2500), summary.TotalPending)
	assert.Equal(t, 1, summary.OverdueCount)
	assert.Equal(t, overdue.Amount, summary.OverdueAmount)
	assert.Equal(t, models.Money(3500), summary.MonthlyCollection)
	assert.Equal(t, 2, summary.MonthlyTransactions)
}

func TestGetSummaryEmptyLedger(t *testing.T) {
	_, analytics := newTestAnalytics()

	summary, err := analytics.GetSummary(context.Background(), models.FeeFilter{})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalRecords)
	assert.True(t, summary.TotalFees.IsZero())
	assert.True(t, summary.TotalPending.IsZero())
	assert.Equal(t, 0, summary.OverdueCount)
	assert.True(t, summary.MonthlyCollection.IsZero())
}

func TestGetSummaryFiltered(t *testing.T) {
	ledger, analytics := newTestAnalytics()
	ctx := context.Background()

	_, err := ledger.CreateFee(ctx, &models.CreateFeeRequest{
		StudentID: "stu-1", Amount: 1000, DueDate: tomorrow(), FeeType: models.FeeTypeTuition,
	})
	require.NoError(t, err)
	_, err = ledger.CreateFee(ctx, &models.CreateFeeRequest{
		StudentID: "stu-2", Amount: 2000, DueDate: tomorrow(), FeeType: models.FeeTypeTuition,
	})
	require.NoError(t, err)

	summary, err := analytics.GetSummary(ctx, models.FeeFilter{StudentID: "stu-2"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalRecords)
	assert.Equal(t, models.Money(2000), summary.TotalFees)
}

func TestOverdueAlert(t *testing.T) {
	ledger, analytics := newTestAnalytics()
	ctx := context.Background()

	alerter := &capturingAlerter{}
	analytics.SetAlerter(alerter, 2)

	createTestFee(t, ledger, 1000, timeutil.Now().AddDate(0, 0, -3))
	createTestFee(t, ledger, 2000, timeutil.Now().AddDate(0, 0, -4))

	_, err := analytics.GetSummary(ctx, models.FeeFilter{})
	require.NoError(t, err)
	assert.Contains(t, alerter.alerts, "overdue_fees")
}
