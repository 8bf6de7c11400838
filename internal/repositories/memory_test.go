package repositories

import (
	"context"
	"testing"
	"time"

	"tuition-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFee(t *testing.T, fees FeeStore, id string, amount models.Money, dueDate time.Time) *models.Fee {
	t.Helper()
	fee := &models.Fee{
		ID:        id,
		StudentID: "stu-" + id,
		FeeType:   models.FeeTypeTuition,
		Amount:    amount,
		DueDate:   dueDate,
	}
	require.NoError(t, fees.Create(context.Background(), fee))
	return fee
}

func TestMemoryStoreVersionGuard(t *testing.T) {
	store := NewMemoryStore()
	fees := store.Fees()
	ctx := context.Background()

	seedFee(t, fees, "f1", 10000, time.Now().AddDate(0, 0, 7))

	// Two callers load the same version; the second write must lose.
	first, err := fees.GetByID(ctx, "f1")
	require.NoError(t, err)
	second, err := fees.GetByID(ctx, "f1")
	require.NoError(t, err)

	first.Discount = 1000
	require.NoError(t, fees.Update(ctx, first))

	second.Discount = 2000
	err = fees.Update(ctx, second)
	require.Error(t, err)
	assert.IsType(t, &models.ConflictError{}, err)

	// The winning write landed; the loser's did not.
	stored, err := fees.GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, models.Money(1000), stored.Discount)
	assert.Equal(t, int64(1), stored.Version)
}

func TestMemoryStoreApplyPayment(t *testing.T) {
	store := NewMemoryStore()
	fees := store.Fees()
	payments := store.Payments()
	ctx := context.Background()

	fee := seedFee(t, fees, "f1", 10000, time.Now().AddDate(0, 0, 7))

	fee.PaidAmount = 4000
	payment := &models.Payment{
		ID:            "p1",
		FeeID:         fee.ID,
		Amount:        4000,
		Method:        models.PaymentMethodCash,
		PaymentDate:   time.Now(),
		ReceiptNumber: "RCP-000001",
		Status:        models.PaymentStatusRecorded,
	}
	require.NoError(t, fees.ApplyPayment(ctx, fee, payment))
	assert.Equal(t, int64(1), fee.Version)

	stored, err := payments.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.Money(4000), stored.Amount)

	byReceipt, err := payments.GetByReceiptNumber(ctx, "RCP-000001")
	require.NoError(t, err)
	assert.Equal(t, "p1", byReceipt.ID)

	loaded, err := fees.GetByID(ctx, fee.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, loaded.PaymentIDs)
}

func TestMemoryStoreStatusFilter(t *testing.T) {
	store := NewMemoryStore()
	fees := store.Fees()
	ctx := context.Background()

	asOf := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	seedFee(t, fees, "past", 10000, time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))
	seedFee(t, fees, "future", 10000, time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC))

	overdue, err := fees.ListAll(ctx, models.FeeFilter{Status: models.FeeStatusOverdue}, asOf)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "past", overdue[0].ID)

	pending, err := fees.ListAll(ctx, models.FeeFilter{Status: models.FeeStatusPending}, asOf)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "future", pending[0].ID)
}

func TestMemoryStoreDateRangeExcludesVoided(t *testing.T) {
	store := NewMemoryStore()
	fees := store.Fees()
	payments := store.Payments()
	ctx := context.Background()

	fee := seedFee(t, fees, "f1", 10000, time.Now().AddDate(0, 0, 7))

	paidAt := time.Date(2026, time.June, 10, 10, 0, 0, 0, time.UTC)
	for _, p := range []*models.Payment{
		{ID: "keep", FeeID: fee.ID, Amount: 1000, PaymentDate: paidAt, ReceiptNumber: "RCP-000001", Status: models.PaymentStatusRecorded},
		{ID: "void", FeeID: fee.ID, Amount: 2000, PaymentDate: paidAt, ReceiptNumber: "RCP-000002", Status: models.PaymentStatusRecorded},
	} {
		loaded, err := fees.GetByID(ctx, fee.ID)
		require.NoError(t, err)
		loaded.PaidAmount = loaded.PaidAmount.Add(p.Amount)
		require.NoError(t, fees.ApplyPayment(ctx, loaded, p))
	}

	loaded, err := fees.GetByID(ctx, fee.ID)
	require.NoError(t, err)
	loaded.PaidAmount = 1000
	voided, err := payments.GetByID(ctx, "void")
	require.NoError(t, err)
	require.NoError(t, fees.VoidPayment(ctx, loaded, voided))

	from := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	inRange, err := payments.ListByDateRange(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, "keep", inRange[0].ID)
}

func TestMemoryStoreReceiptSequence(t *testing.T) {
	store := NewMemoryStore()
	payments := store.Payments()
	ctx := context.Background()

	n1, err := payments.NextReceiptNumber(ctx)
	require.NoError(t, err)
	n2, err := payments.NextReceiptNumber(ctx)
	require.NoError(t, err)

	assert.Equal(t, "RCP-000001", n1)
	assert.Equal(t, "RCP-000002", n2)
}
