package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tuition-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// NextReceiptNumber pulls from a database sequence, so receipt numbers are
// gapless-enough and allocation is O(1) under concurrent payments.
func (r *PaymentRepository) NextReceiptNumber(ctx context.Context) (string, error) {
	var nextNum int
	err := r.DB.QueryRow(ctx, "SELECT nextval('receipt_number_sequence')").Scan(&nextNum)
	if err != nil {
		return "", fmt.Errorf("failed to get next receipt number: %w", err)
	}
	return fmt.Sprintf("RCP-%06d", nextNum), nil
}

const paymentColumns = `id, fee_id, amount, method, COALESCE(transaction_id, ''), payment_date,
	COALESCE(remarks, ''), receipt_number, status, created_at`

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE id = $1`, paymentColumns)

	payment, err := scanPayment(r.DB.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Kind: "payment", ID: id}
		}
		return nil, err
	}
	return payment, nil
}

func (r *PaymentRepository) ListByFee(ctx context.Context, feeID string) ([]*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE fee_id = $1 ORDER BY created_at, id`, paymentColumns)
	return r.queryPayments(ctx, query, feeID)
}

func (r *PaymentRepository) GetByReceiptNumber(ctx context.Context, receiptNumber string) (*models.Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE receipt_number = $1`, paymentColumns)

	payment, err := scanPayment(r.DB.QueryRow(ctx, query, receiptNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Kind: "payment", ID: receiptNumber}
		}
		return nil, err
	}
	return payment, nil
}

func (r *PaymentRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]*models.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE status = 'recorded' AND payment_date >= $1 AND payment_date < $2
		ORDER BY payment_date
	`, paymentColumns)
	return r.queryPayments(ctx, query, from, to)
}

func (r *PaymentRepository) queryPayments(ctx context.Context, query string, args ...interface{}) ([]*models.Payment, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	payment := &models.Payment{}
	var amount int64

	err := row.Scan(
		&payment.ID,
		&payment.FeeID,
		&amount,
		&payment.Method,
		&payment.TransactionID,
		&payment.PaymentDate,
		&payment.Remarks,
		&payment.ReceiptNumber,
		&payment.Status,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	payment.Amount = models.Money(amount)
	return payment, nil
}
