package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"tuition-backend/internal/cache"
	"tuition-backend/internal/metrics"
	"tuition-backend/internal/models"
	"tuition-backend/internal/repositories"
	"tuition-backend/internal/timeutil"

	"github.com/google/uuid"
)

// conflictRetries bounds the optimistic-concurrency retry loop. A conflict
// that survives this many reloads is surfaced to the caller as
// models.ConflictError.
const conflictRetries = 3

// bulkWorkers is the worker-pool size for bulk fee creation. Each student
// produces an independent record, so items are processed in parallel.
const bulkWorkers = 10

// LedgerService owns fee creation, payment application, discount
// application and payment voiding. It is the single writer path for fee
// and payment records.
type LedgerService struct {
	Fees     repositories.FeeStore
	Payments repositories.PaymentStore
}

func NewLedgerService(fees repositories.FeeStore, payments repositories.PaymentStore) *LedgerService {
	return &LedgerService{Fees: fees, Payments: payments}
}

// CreateFee validates the request (reporting every violated field, not
// just the first) and stores a new fee with zero discount and zero paid
// amount. The due date may be in the past; backdated fees are legitimate.
func (s *LedgerService) CreateFee(ctx context.Context, req *models.CreateFeeRequest) (*models.Fee, error) {
	if verr := req.Validate(); verr != nil {
		return nil, verr
	}

	now := timeutil.Now()
	fee := &models.Fee{
		ID:          uuid.NewString(),
		StudentID:   strings.TrimSpace(req.StudentID),
		CourseID:    req.CourseID,
		BatchID:     req.BatchID,
		FeeType:     req.FeeType,
		Period:      req.Period,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
		Description: req.Description,
		PaymentIDs:  []string{},
	}
	fee.Refresh(now)

	if err := s.Fees.Create(ctx, fee); err != nil {
		return nil, err
	}

	metrics.FeesCreated.Inc()
	cache.InvalidateLedgerCaches(ctx)
	return fee, nil
}

// CreateFeesBulk creates one fee per student with the shared fields.
// Duplicated student ids are collapsed. Items are processed independently:
// one malformed id in a roster of 200 does not block the other 199. The
// result keeps the order of first appearance and reports per-item outcomes
// plus success/failure counts.
func (s *LedgerService) CreateFeesBulk(ctx context.Context, req *models.BulkCreateFeesRequest) (*models.BulkCreateResult, error) {
	if len(req.StudentIDs) == 0 {
		verr := &models.ValidationError{}
		verr.Add("student_ids", "must not be empty")
		return nil, verr
	}

	// Collapse duplicates, keeping first-appearance order.
	seen := make(map[string]bool, len(req.StudentIDs))
	ids := make([]string, 0, len(req.StudentIDs))
	for _, id := range req.StudentIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	items := make([]models.BulkCreateItem, len(ids))

	jobs := make(chan int, len(ids))
	var wg sync.WaitGroup
	workers := bulkWorkers
	if workers > len(ids) {
		workers = len(ids)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				items[i] = s.createBulkItem(ctx, ids[i], req)
			}
		}()
	}
	for i := range ids {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	result := &models.BulkCreateResult{Items: items}
	for _, item := range items {
		if item.Error != nil {
			result.Failed++
		} else {
			result.Succeeded++
		}
	}

	metrics.BulkItemsSucceeded.Add(float64(result.Succeeded))
	metrics.BulkItemsFailed.Add(float64(result.Failed))
	if result.Succeeded > 0 {
		cache.InvalidateLedgerCaches(ctx)
	}
	log.Printf("[Ledger] Bulk fee creation: %d succeeded, %d failed", result.Succeeded, result.Failed)
	return result, nil
}

func (s *LedgerService) createBulkItem(ctx context.Context, studentID string, req *models.BulkCreateFeesRequest) models.BulkCreateItem {
	item := models.BulkCreateItem{StudentID: studentID}

	fee, err := s.CreateFee(ctx, &models.CreateFeeRequest{
		StudentID:   studentID,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
		FeeType:     req.FeeType,
		CourseID:    req.CourseID,
		BatchID:     req.BatchID,
		Period:      req.Period,
		Description: req.Description,
	})
	if err != nil {
		bulkErr := &models.BulkError{Message: err.Error()}
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			bulkErr.Fields = verr.Fields
		}
		item.Error = bulkErr
		return item
	}
	item.Fee = fee
	return item
}

// ApplyPayment records a payment against a fee. The overpayment check and
// the paid-amount increase happen against the same loaded version of the
// fee; the store rejects the write if a concurrent payment got in between,
// and the whole check-and-write is retried on a fresh read.
func (s *LedgerService) ApplyPayment(ctx context.Context, feeID string, req *models.ApplyPaymentRequest) (*models.Payment, *models.Fee, error) {
	if verr := req.Validate(); verr != nil {
		return nil, nil, verr
	}
	if req.Amount <= 0 {
		return nil, nil, &models.InvalidAmountError{Amount: req.Amount}
	}

	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		fee, err := s.Fees.GetByID(ctx, feeID)
		if err != nil {
			return nil, nil, err
		}

		pending := fee.PendingAmount()
		if req.Amount > pending {
			metrics.OverpaymentRejections.Inc()
			return nil, nil, &models.OverpaymentError{FeeID: feeID, Amount: req.Amount, Pending: pending}
		}

		receiptNumber := req.ReceiptNumber
		if receiptNumber == "" {
			receiptNumber, err = s.Payments.NextReceiptNumber(ctx)
			if err != nil {
				return nil, nil, err
			}
		}

		payment := &models.Payment{
			ID:            uuid.NewString(),
			FeeID:         feeID,
			Amount:        req.Amount,
			Method:        req.Method,
			TransactionID: req.TransactionID,
			PaymentDate:   req.PaymentDate,
			Remarks:       req.Remarks,
			ReceiptNumber: receiptNumber,
			Status:        models.PaymentStatusRecorded,
		}

		fee.PaidAmount = fee.PaidAmount.Add(req.Amount)
		fee.Refresh(timeutil.Now())

		err = s.Fees.ApplyPayment(ctx, fee, payment)
		if err == nil {
			fee.PaymentIDs = append(fee.PaymentIDs, payment.ID)
			metrics.PaymentsRecorded.Inc()
			metrics.PaymentAmountTotal.Add(float64(payment.Amount))
			cache.InvalidateLedgerCaches(ctx)
			log.Printf("[Ledger] Payment %s of %s recorded against fee %s (%s)",
				payment.ReceiptNumber, payment.Amount.Rupees(), feeID, fee.Status)
			return payment, fee, nil
		}

		var conflict *models.ConflictError
		if !errors.As(err, &conflict) {
			return nil, nil, err
		}
		lastErr = err
	}
	return nil, nil, lastErr
}

// ApplyDiscount grants a cumulative reduction on a fee. Discounts are never
// reversed by this operation. A fee whose balance already reached zero is
// rejected: there is nothing left to discount.
func (s *LedgerService) ApplyDiscount(ctx context.Context, feeID string, req *models.ApplyDiscountRequest) (*models.Fee, error) {
	if req.Amount <= 0 {
		return nil, &models.InvalidAmountError{Amount: req.Amount}
	}

	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		fee, err := s.Fees.GetByID(ctx, feeID)
		if err != nil {
			return nil, err
		}

		if fee.PendingAmount().IsZero() {
			return nil, &models.AlreadySettledError{FeeID: feeID}
		}
		if fee.Discount+req.Amount+fee.PaidAmount > fee.Amount {
			return nil, &models.DiscountExceedsBalanceError{
				FeeID:    feeID,
				Discount: req.Amount,
				Pending:  fee.PendingAmount(),
			}
		}

		fee.Discount = fee.Discount.Add(req.Amount)
		fee.Refresh(timeutil.Now())

		err = s.Fees.Update(ctx, fee)
		if err == nil {
			cache.InvalidateLedgerCaches(ctx)
			log.Printf("[Ledger] Discount of %s applied to fee %s (reason: %s)",
				req.Amount.Rupees(), feeID, req.Reason)
			return fee, nil
		}

		var conflict *models.ConflictError
		if !errors.As(err, &conflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// VoidPayment reverses a recorded payment. The payment row is never
// deleted; its status flips to voided exactly once and the owning fee's
// paid amount shrinks by the payment amount.
func (s *LedgerService) VoidPayment(ctx context.Context, paymentID string, req *models.VoidPaymentRequest) (*models.Payment, *models.Fee, error) {
	if verr := req.Validate(); verr != nil {
		return nil, nil, verr
	}

	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		payment, err := s.Payments.GetByID(ctx, paymentID)
		if err != nil {
			return nil, nil, err
		}
		if payment.Status == models.PaymentStatusVoided {
			verr := &models.ValidationError{}
			verr.Add("status", "payment is already voided")
			return nil, nil, verr
		}

		fee, err := s.Fees.GetByID(ctx, payment.FeeID)
		if err != nil {
			return nil, nil, err
		}

		fee.PaidAmount, err = fee.PaidAmount.Sub(payment.Amount)
		if err != nil {
			return nil, nil, err
		}
		fee.Refresh(timeutil.Now())

		payment.Status = models.PaymentStatusVoided
		if payment.Remarks != "" {
			payment.Remarks += "; "
		}
		payment.Remarks += "voided: " + req.Reason

		err = s.Fees.VoidPayment(ctx, fee, payment)
		if err == nil {
			cache.InvalidateLedgerCaches(ctx)
			log.Printf("[Ledger] Payment %s voided on fee %s (reason: %s)",
				payment.ReceiptNumber, fee.ID, req.Reason)
			return payment, fee, nil
		}

		var conflict *models.ConflictError
		if !errors.As(err, &conflict) {
			return nil, nil, err
		}
		lastErr = err
	}
	return nil, nil, lastErr
}

// GetFee loads a fee with its status re-derived as of now, so the passage
// of time alone (pending -> overdue) is reflected without any write.
func (s *LedgerService) GetFee(ctx context.Context, id string) (*models.Fee, error) {
	fee, err := s.Fees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fee.Refresh(timeutil.Now())
	return fee, nil
}

// ListFees returns the page matching the filter plus the total match
// count. Status filtering and the returned status fields both use the
// status derived as of now.
func (s *LedgerService) ListFees(ctx context.Context, filter models.FeeFilter) ([]*models.Fee, int, error) {
	now := timeutil.Now()
	fees, total, err := s.Fees.List(ctx, filter, now)
	if err != nil {
		return nil, 0, err
	}
	for _, fee := range fees {
		fee.Refresh(now)
	}
	return fees, total, nil
}

// ListPayments returns the payment history of a fee in application order.
func (s *LedgerService) ListPayments(ctx context.Context, feeID string) ([]*models.Payment, error) {
	if _, err := s.Fees.GetByID(ctx, feeID); err != nil {
		return nil, err
	}
	return s.Payments.ListByFee(ctx, feeID)
}

// GetPayment loads a single payment record.
func (s *LedgerService) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	return s.Payments.GetByID(ctx, id)
}

// GetPaymentByReceipt resolves a payment by its receipt number.
func (s *LedgerService) GetPaymentByReceipt(ctx context.Context, receiptNumber string) (*models.Payment, error) {
	return s.Payments.GetByReceiptNumber(ctx, receiptNumber)
}
