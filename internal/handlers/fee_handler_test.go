package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tuition-backend/internal/models"
	"tuition-backend/internal/repositories"
	"tuition-backend/internal/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRouter wires a router over the in-memory store, mirroring the
// production route layout for the fee and payment endpoints.
func newTestRouter() *mux.Router {
	store := repositories.NewMemoryStore()
	ledger := services.NewLedgerService(store.Fees(), store.Payments())
	analytics := services.NewAnalyticsService(store.Fees(), store.Payments())
	receipts := services.NewReceiptService(ledger, "Test Institute")

	feeHandler := NewFeeHandler(ledger)
	paymentHandler := NewPaymentHandler(ledger, receipts)
	analyticsHandler := NewAnalyticsHandler(analytics)

	r := mux.NewRouter()
	r.HandleFunc("/api/fees", feeHandler.ListFees).Methods("GET")
	r.HandleFunc("/api/fees", feeHandler.CreateFee).Methods("POST")
	r.HandleFunc("/api/fees/bulk", feeHandler.CreateFeesBulk).Methods("POST")
	r.HandleFunc("/api/fees/{id}", feeHandler.GetFee).Methods("GET")
	r.HandleFunc("/api/fees/{id}/payments", feeHandler.ListPayments).Methods("GET")
	r.HandleFunc("/api/fees/{id}/payments", feeHandler.ApplyPayment).Methods("POST")
	r.HandleFunc("/api/fees/{id}/discount", feeHandler.ApplyDiscount).Methods("POST")
	r.HandleFunc("/api/payments/{id}/void", paymentHandler.VoidPayment).Methods("POST")
	r.HandleFunc("/api/payments/{id}/receipt.pdf", paymentHandler.DownloadReceipt).Methods("GET")
	r.HandleFunc("/api/analytics/summary", analyticsHandler.GetSummary).Methods("GET")
	return r
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createFeeViaAPI(t *testing.T, router *mux.Router, amount int64) models.Fee {
	t.Helper()
	rec := doJSON(t, router, "POST", "/api/fees", map[string]interface{}{
		"student_id": "stu-1",
		"amount":     amount,
		"due_date":   time.Now().AddDate(0, 0, 7).Format(time.RFC3339),
		"fee_type":   "tuition",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var fee models.Fee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fee))
	return fee
}

func TestCreateFeeEndpoint(t *testing.T) {
	router := newTestRouter()

	t.Run("created fee round-trips", func(t *testing.T) {
		fee := createFeeViaAPI(t, router, 10000)
		assert.NotEmpty(t, fee.ID)
		assert.Equal(t, models.FeeStatusPending, fee.Status)

		rec := doJSON(t, router, "GET", "/api/fees/"+fee.ID, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("validation failure returns field breakdown", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/api/fees", map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var body struct {
			Fields []models.FieldError `json:"fields"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Fields)
	})

	t.Run("unknown fee returns 404", func(t *testing.T) {
		rec := doJSON(t, router, "GET", "/api/fees/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPaymentEndpoints(t *testing.T) {
	router := newTestRouter()
	fee := createFeeViaAPI(t, router, 10000)

	payBody := func(amount int64) map[string]interface{} {
		return map[string]interface{}{
			"amount":       amount,
			"method":       "upi",
			"payment_date": time.Now().Format(time.RFC3339),
		}
	}

	t.Run("payment settles the fee", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/api/fees/"+fee.ID+"/payments", payBody(10000))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Payment models.Payment `json:"payment"`
			Fee     models.Fee     `json:"fee"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, models.FeeStatusPaid, resp.Fee.Status)
		assert.NotEmpty(t, resp.Payment.ReceiptNumber)
	})

	t.Run("overpayment maps to 422", func(t *testing.T) {
		rec := doJSON(t, router, "POST", "/api/fees/"+fee.ID+"/payments", payBody(1))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("void restores the balance", func(t *testing.T) {
		other := createFeeViaAPI(t, router, 5000)
		rec := doJSON(t, router, "POST", "/api/fees/"+other.ID+"/payments", payBody(5000))
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Payment models.Payment `json:"payment"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		rec = doJSON(t, router, "POST", "/api/payments/"+resp.Payment.ID+"/void",
			map[string]interface{}{"reason": "entry error"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var voidResp struct {
			Fee models.Fee `json:"fee"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &voidResp))
		assert.True(t, voidResp.Fee.PaidAmount.IsZero())
	})

	t.Run("receipt pdf downloads", func(t *testing.T) {
		other := createFeeViaAPI(t, router, 5000)
		rec := doJSON(t, router, "POST", "/api/fees/"+other.ID+"/payments", payBody(2500))
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Payment models.Payment `json:"payment"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		rec = doJSON(t, router, "GET", fmt.Sprintf("/api/payments/%s/receipt.pdf", resp.Payment.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	})
}

func TestDiscountEndpoint(t *testing.T) {
	router := newTestRouter()
	fee := createFeeViaAPI(t, router, 10000)

	rec := doJSON(t, router, "POST", "/api/fees/"+fee.ID+"/discount",
		map[string]interface{}{"amount": 2000, "reason": "scholarship"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Fee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, models.Money(2000), updated.Discount)

	// Negative discount is a bad request.
	rec = doJSON(t, router, "POST", "/api/fees/"+fee.ID+"/discount",
		map[string]interface{}{"amount": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkEndpoint(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, "POST", "/api/fees/bulk", map[string]interface{}{
		"student_ids": []string{"s1", "", "s3"},
		"amount":      10000,
		"due_date":    time.Now().AddDate(0, 0, 7).Format(time.RFC3339),
		"fee_type":    "tuition",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.BulkCreateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
}

func TestAnalyticsSummaryEndpoint(t *testing.T) {
	router := newTestRouter()
	createFeeViaAPI(t, router, 10000)

	rec := doJSON(t, router, "GET", "/api/analytics/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary models.AnalyticsSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalRecords)
	assert.Equal(t, models.Money(10000), summary.TotalFees)

	// Bad filter values are rejected, not ignored.
	rec = doJSON(t, router, "GET", "/api/analytics/summary?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
