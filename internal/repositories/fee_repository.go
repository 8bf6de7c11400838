package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tuition-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// derivedStatusSQL computes the lifecycle status from the stored amounts
// and due date, mirroring models.DeriveStatus. Filtering on this expression
// instead of a stored column means a fee whose due date passed overnight is
// already "overdue" on the next read, with no intervening write.
const derivedStatusSQL = `
	CASE
		WHEN amount - discount - paid_amount = 0 THEN 'paid'
		WHEN due_date < $%d::date THEN 'overdue'
		WHEN paid_amount > 0 THEN 'partial'
		ELSE 'pending'
	END`

type FeeRepository struct {
	DB *pgxpool.Pool
}

func NewFeeRepository(db *pgxpool.Pool) *FeeRepository {
	return &FeeRepository{DB: db}
}

func (r *FeeRepository) Create(ctx context.Context, fee *models.Fee) error {
	query := `
		INSERT INTO fees (id, student_id, course_id, batch_id, fee_type, period_month, period_year,
		                  amount, discount, paid_amount, due_date, description, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	var periodMonth, periodYear *int
	if fee.Period != nil {
		m, y := int(fee.Period.Month), fee.Period.Year
		periodMonth, periodYear = &m, &y
	}

	err := r.DB.QueryRow(ctx, query,
		fee.ID,
		fee.StudentID,
		fee.CourseID,
		fee.BatchID,
		fee.FeeType,
		periodMonth,
		periodYear,
		int64(fee.Amount),
		int64(fee.Discount),
		int64(fee.PaidAmount),
		fee.DueDate,
		fee.Description,
		fee.Version,
	).Scan(&fee.CreatedAt, &fee.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create fee: %w", err)
	}
	return nil
}

const feeColumns = `id, student_id, course_id, batch_id, fee_type, period_month, period_year,
	amount, discount, paid_amount, due_date, COALESCE(description, ''), version, created_at, updated_at`

func (r *FeeRepository) GetByID(ctx context.Context, id string) (*models.Fee, error) {
	query := fmt.Sprintf(`SELECT %s FROM fees WHERE id = $1`, feeColumns)

	fee, err := scanFee(r.DB.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &models.NotFoundError{Kind: "fee", ID: id}
		}
		return nil, err
	}

	// Append-only payment ordering follows creation order.
	rows, err := r.DB.Query(ctx, `SELECT id FROM payments WHERE fee_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var pid string
		if err := rows.Scan(&pid); err != nil {
			return nil, err
		}
		fee.PaymentIDs = append(fee.PaymentIDs, pid)
	}
	return fee, rows.Err()
}

func (r *FeeRepository) List(ctx context.Context, filter models.FeeFilter, asOf time.Time) ([]*models.Fee, int, error) {
	where, args := buildFeeFilter(filter, asOf)

	var total int
	countQuery := "SELECT COUNT(*) FROM fees" + where
	if err := r.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := fmt.Sprintf("SELECT %s FROM fees%s ORDER BY due_date DESC, created_at DESC LIMIT %d OFFSET %d",
		feeColumns, where, limit, (page-1)*limit)

	fees, err := r.queryFees(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return fees, total, nil
}

func (r *FeeRepository) ListAll(ctx context.Context, filter models.FeeFilter, asOf time.Time) ([]*models.Fee, error) {
	where, args := buildFeeFilter(filter, asOf)
	query := fmt.Sprintf("SELECT %s FROM fees%s ORDER BY due_date", feeColumns, where)
	return r.queryFees(ctx, query, args...)
}

func (r *FeeRepository) Update(ctx context.Context, fee *models.Fee) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE fees
		SET discount = $1, paid_amount = $2, updated_at = NOW(), version = version + 1
		WHERE id = $3 AND version = $4
	`, int64(fee.Discount), int64(fee.PaidAmount), fee.ID, fee.Version)
	if err != nil {
		return fmt.Errorf("failed to update fee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &models.ConflictError{FeeID: fee.ID}
	}
	fee.Version++
	return nil
}

func (r *FeeRepository) ApplyPayment(ctx context.Context, fee *models.Fee, payment *models.Payment) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin payment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE fees
		SET paid_amount = $1, updated_at = NOW(), version = version + 1
		WHERE id = $2 AND version = $3
	`, int64(fee.PaidAmount), fee.ID, fee.Version)
	if err != nil {
		return fmt.Errorf("failed to update fee balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &models.ConflictError{FeeID: fee.ID}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO payments (id, fee_id, amount, method, transaction_id, payment_date, remarks, receipt_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		payment.ID,
		payment.FeeID,
		int64(payment.Amount),
		payment.Method,
		payment.TransactionID,
		payment.PaymentDate,
		payment.Remarks,
		payment.ReceiptNumber,
		payment.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit payment: %w", err)
	}
	fee.Version++
	return nil
}

func (r *FeeRepository) VoidPayment(ctx context.Context, fee *models.Fee, payment *models.Payment) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin void transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE fees
		SET paid_amount = $1, updated_at = NOW(), version = version + 1
		WHERE id = $2 AND version = $3
	`, int64(fee.PaidAmount), fee.ID, fee.Version)
	if err != nil {
		return fmt.Errorf("failed to update fee balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &models.ConflictError{FeeID: fee.ID}
	}

	// Status flips exactly once; the WHERE clause guards against a
	// concurrent void of the same payment.
	tag, err = tx.Exec(ctx, `
		UPDATE payments SET status = 'voided', remarks = $1
		WHERE id = $2 AND status = 'recorded'
	`, payment.Remarks, payment.ID)
	if err != nil {
		return fmt.Errorf("failed to void payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &models.ConflictError{FeeID: fee.ID}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit void: %w", err)
	}
	fee.Version++
	return nil
}

// buildFeeFilter assembles the WHERE clause shared by List/ListAll and the
// count query. The derived-status expression takes the asOf date as its
// own parameter.
func buildFeeFilter(filter models.FeeFilter, asOf time.Time) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) int {
		args = append(args, v)
		return len(args)
	}

	if filter.StudentID != "" {
		clauses = append(clauses, fmt.Sprintf("student_id = $%d", arg(filter.StudentID)))
	}
	if filter.CourseID != "" {
		clauses = append(clauses, fmt.Sprintf("course_id = $%d", arg(filter.CourseID)))
	}
	if filter.BatchID != "" {
		clauses = append(clauses, fmt.Sprintf("batch_id = $%d", arg(filter.BatchID)))
	}
	if !filter.DueFrom.IsZero() {
		clauses = append(clauses, fmt.Sprintf("due_date >= $%d", arg(filter.DueFrom)))
	}
	if !filter.DueTo.IsZero() {
		clauses = append(clauses, fmt.Sprintf("due_date <= $%d", arg(filter.DueTo)))
	}
	if filter.Status != "" {
		expr := fmt.Sprintf(derivedStatusSQL, arg(asOf))
		clauses = append(clauses, fmt.Sprintf("(%s) = $%d", expr, arg(string(filter.Status))))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *FeeRepository) queryFees(ctx context.Context, query string, args ...interface{}) ([]*models.Fee, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fees []*models.Fee
	for rows.Next() {
		fee, err := scanFee(rows)
		if err != nil {
			return nil, err
		}
		fees = append(fees, fee)
	}
	return fees, rows.Err()
}

func scanFee(row pgx.Row) (*models.Fee, error) {
	fee := &models.Fee{}
	var periodMonth, periodYear *int
	var amount, discount, paid int64

	err := row.Scan(
		&fee.ID,
		&fee.StudentID,
		&fee.CourseID,
		&fee.BatchID,
		&fee.FeeType,
		&periodMonth,
		&periodYear,
		&amount,
		&discount,
		&paid,
		&fee.DueDate,
		&fee.Description,
		&fee.Version,
		&fee.CreatedAt,
		&fee.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	fee.Amount = models.Money(amount)
	fee.Discount = models.Money(discount)
	fee.PaidAmount = models.Money(paid)
	if periodMonth != nil && periodYear != nil {
		fee.Period = &models.FeePeriod{Month: time.Month(*periodMonth), Year: *periodYear}
	}
	return fee, nil
}
