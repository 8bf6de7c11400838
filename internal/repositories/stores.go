package repositories

import (
	"context"
	"time"

	"tuition-backend/internal/models"
)

// FeeStore is the durable record store for fee records. Implementations
// must offer read-your-writes consistency per record and enforce the
// per-record serialization guarantee: every write method is guarded by the
// fee's version counter and fails with models.ConflictError when a
// concurrent writer got there first.
type FeeStore interface {
	Create(ctx context.Context, fee *models.Fee) error
	GetByID(ctx context.Context, id string) (*models.Fee, error)
	// List returns the page selected by filter plus the total match count.
	// Status filtering is applied against the status derived as of asOf,
	// never against a stale stored value.
	List(ctx context.Context, filter models.FeeFilter, asOf time.Time) ([]*models.Fee, int, error)
	// ListAll is List without pagination, for aggregation.
	ListAll(ctx context.Context, filter models.FeeFilter, asOf time.Time) ([]*models.Fee, error)
	// Update persists the fee's mutable fields guarded by fee.Version and
	// bumps the version on success.
	Update(ctx context.Context, fee *models.Fee) error
	// ApplyPayment atomically persists the updated fee (version-guarded)
	// together with the new payment row.
	ApplyPayment(ctx context.Context, fee *models.Fee, payment *models.Payment) error
	// VoidPayment atomically flips the payment to voided and persists the
	// fee's reduced paid amount (version-guarded).
	VoidPayment(ctx context.Context, fee *models.Fee, payment *models.Payment) error
}

// PaymentStore reads payment records. All payment writes go through
// FeeStore so they share the owning fee's transaction boundary.
type PaymentStore interface {
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	ListByFee(ctx context.Context, feeID string) ([]*models.Payment, error)
	GetByReceiptNumber(ctx context.Context, receiptNumber string) (*models.Payment, error)
	// ListByDateRange returns non-voided payments with payment_date in
	// [from, to), for monthly collection figures.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.Payment, error)
	NextReceiptNumber(ctx context.Context) (string, error)
}
