package models

import (
	"strings"
	"time"
)

// FeeType categorizes a billable obligation.
type FeeType string

const (
	FeeTypeAdmission   FeeType = "admission"
	FeeTypeTuition     FeeType = "tuition"
	FeeTypeExamination FeeType = "examination"
	FeeTypeOther       FeeType = "other"
)

// ValidFeeType reports whether t is one of the known fee types.
func ValidFeeType(t FeeType) bool {
	switch t {
	case FeeTypeAdmission, FeeTypeTuition, FeeTypeExamination, FeeTypeOther:
		return true
	}
	return false
}

// FeeStatus is the derived lifecycle state of a fee. It is never stored as
// an independently settable field; it is recomputed from the amounts and
// due date after every mutation and on every read.
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "pending"
	FeeStatusPartial FeeStatus = "partial"
	FeeStatusPaid    FeeStatus = "paid"
	FeeStatusOverdue FeeStatus = "overdue"
)

// ValidFeeStatus reports whether s is a known status (used for filters).
func ValidFeeStatus(s FeeStatus) bool {
	switch s {
	case FeeStatusPending, FeeStatusPartial, FeeStatusPaid, FeeStatusOverdue:
		return true
	}
	return false
}

// FeePeriod is the (month, year) a recurring fee covers.
type FeePeriod struct {
	Month time.Month `json:"month"`
	Year  int        `json:"year"`
}

// Fee represents one billable obligation owed by a student.
type Fee struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"student_id"`
	CourseID    *string    `json:"course_id,omitempty"`
	BatchID     *string    `json:"batch_id,omitempty"`
	FeeType     FeeType    `json:"fee_type"`
	Period      *FeePeriod `json:"period,omitempty"`
	Amount      Money      `json:"amount"`
	Discount    Money      `json:"discount"`
	PaidAmount  Money      `json:"paid_amount"`
	DueDate     time.Time  `json:"due_date"`
	Status      FeeStatus  `json:"status"`
	PaymentIDs  []string   `json:"payment_ids"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Version is the optimistic concurrency counter; bumped on every write.
	Version int64 `json:"-"`
}

// PendingAmount is always derived, never stored, so it cannot drift from
// the amounts it is computed from.
func (f *Fee) PendingAmount() Money {
	pending := f.Amount - f.Discount - f.PaidAmount
	if pending < 0 {
		// Unreachable while the ledger invariant holds.
		return 0
	}
	return pending
}

// DeriveStatus computes the fee's lifecycle state as of a given date.
// Precedence: paid beats everything once the balance reaches zero, even
// past the due date; overdue beats partial and pending whenever the due
// date has passed and a balance remains.
func DeriveStatus(f *Fee, asOf time.Time) FeeStatus {
	pending := f.PendingAmount()
	if pending.IsZero() {
		return FeeStatusPaid
	}
	if dateAfter(asOf, f.DueDate) {
		return FeeStatusOverdue
	}
	if f.PaidAmount > 0 {
		return FeeStatusPartial
	}
	return FeeStatusPending
}

// Refresh recomputes the stored status field from the current amounts.
func (f *Fee) Refresh(asOf time.Time) {
	f.Status = DeriveStatus(f, asOf)
}

// dateAfter compares calendar days, ignoring time of day, so a fee due
// today is not overdue until tomorrow.
func dateAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}

// CreateFeeRequest carries the inputs for creating a single fee.
type CreateFeeRequest struct {
	StudentID   string     `json:"student_id"`
	Amount      Money      `json:"amount"`
	DueDate     time.Time  `json:"due_date"`
	FeeType     FeeType    `json:"fee_type"`
	CourseID    *string    `json:"course_id,omitempty"`
	BatchID     *string    `json:"batch_id,omitempty"`
	Period      *FeePeriod `json:"period,omitempty"`
	Description string     `json:"description,omitempty"`
}

// Validate checks every field and reports all violations together.
// The due date may be in the past: backdated fees are legitimate.
func (r *CreateFeeRequest) Validate() *ValidationError {
	verr := &ValidationError{}
	if strings.TrimSpace(r.StudentID) == "" {
		verr.Add("student_id", "is required")
	}
	if r.Amount <= 0 {
		verr.Add("amount", "must be positive")
	}
	if r.DueDate.IsZero() {
		verr.Add("due_date", "is required")
	}
	if !ValidFeeType(r.FeeType) {
		verr.Add("fee_type", "must be one of admission, tuition, examination, other")
	}
	if r.Period != nil {
		if r.Period.Month < time.January || r.Period.Month > time.December {
			verr.Add("period.month", "must be between 1 and 12")
		}
		if r.Period.Year < 2000 || r.Period.Year > 2100 {
			verr.Add("period.year", "is out of range")
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// BulkCreateFeesRequest creates one fee per student with shared fields.
type BulkCreateFeesRequest struct {
	StudentIDs  []string   `json:"student_ids"`
	Amount      Money      `json:"amount"`
	DueDate     time.Time  `json:"due_date"`
	FeeType     FeeType    `json:"fee_type"`
	CourseID    *string    `json:"course_id,omitempty"`
	BatchID     *string    `json:"batch_id,omitempty"`
	Period      *FeePeriod `json:"period,omitempty"`
	Description string     `json:"description,omitempty"`
}

// BulkCreateItem is the per-student outcome of a bulk creation. Exactly one
// of Fee and Error is set.
type BulkCreateItem struct {
	StudentID string        `json:"student_id"`
	Fee       *Fee          `json:"fee,omitempty"`
	Error     *BulkError    `json:"error,omitempty"`
}

// BulkError is the serializable form of a per-student creation failure.
type BulkError struct {
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// BulkCreateResult aggregates per-student outcomes; the operation as a
// whole succeeds as long as at least one fee was created.
type BulkCreateResult struct {
	Items     []BulkCreateItem `json:"items"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// FeeFilter narrows ListFees and analytics queries. Zero values mean
// "no constraint".
type FeeFilter struct {
	Status    FeeStatus
	StudentID string
	CourseID  string
	BatchID   string
	DueFrom   time.Time
	DueTo     time.Time
	Page      int
	Limit     int
}
