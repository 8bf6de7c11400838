package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"tuition-backend/internal/models"
	"tuition-backend/internal/repositories"
	"tuition-backend/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCollectionsCSV(t *testing.T) {
	store := repositories.NewMemoryStore()
	ledger := NewLedgerService(store.Fees(), store.Payments())
	reports := NewReportService(store.Fees(), store.Payments(), "Test Institute")
	ctx := context.Background()

	fee := createTestFee(t, ledger, 10000, tomorrow())
	for _, amount := range []models.Money{4000, 6000} {
		_, _, err := ledger.ApplyPayment(ctx, fee.ID, &models.ApplyPaymentRequest{
			Amount: amount, Method: models.PaymentMethodCash, PaymentDate: timeutil.Now(),
		})
		require.NoError(t, err)
	}

	from, to := timeutil.MonthWindow(timeutil.Now())
	data, err := reports.GenerateCollectionsCSV(ctx, from, to)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)

	// Header, two payments, total row.
	require.Len(t, records, 4)
	assert.Equal(t, "receipt_number", records[0][0])
	assert.Equal(t, "RCP-000001", records[1][0])
	assert.Equal(t, "40.00", records[1][6])
	assert.Equal(t, "RCP-000002", records[2][0])
	assert.Equal(t, "total", records[3][5])
	assert.Equal(t, "100.00", records[3][6])
}

func TestGenerateCollectionsCSVEmptyWindow(t *testing.T) {
	store := repositories.NewMemoryStore()
	reports := NewReportService(store.Fees(), store.Payments(), "Test Institute")

	from, to := timeutil.MonthWindow(timeutil.Now())
	data, err := reports.GenerateCollectionsCSV(context.Background(), from, to)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "0.00", records[1][6])
}

func TestGenerateCollectionsPDF(t *testing.T) {
	store := repositories.NewMemoryStore()
	ledger := NewLedgerService(store.Fees(), store.Payments())
	reports := NewReportService(store.Fees(), store.Payments(), "Test Institute")
	ctx := context.Background()

	fee := createTestFee(t, ledger, 10000, tomorrow())
	_, _, err := ledger.ApplyPayment(ctx, fee.ID, &models.ApplyPaymentRequest{
		Amount: 2500, Method: models.PaymentMethodUPI, PaymentDate: timeutil.Now(),
	})
	require.NoError(t, err)

	from, to := timeutil.MonthWindow(timeutil.Now())
	data, err := reports.GenerateCollectionsPDF(ctx, from, to)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
