package models

import (
	"strings"
	"time"
)

// PaymentMethod is how funds were received.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodOnline       PaymentMethod = "online"
	PaymentMethodOther        PaymentMethod = "other"
)

// ValidPaymentMethod reports whether m is a known method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodUPI,
		PaymentMethodCheque, PaymentMethodOnline, PaymentMethodOther:
		return true
	}
	return false
}

// PaymentStatus: a payment is never deleted, only voided, preserving the
// audit trail. The voided flag can be set exactly once.
type PaymentStatus string

const (
	PaymentStatusRecorded PaymentStatus = "recorded"
	PaymentStatusVoided   PaymentStatus = "voided"
)

// Payment is an immutable receipt of funds applied against one fee.
// Exclusive ownership: a payment belongs to exactly one fee and is never
// reassigned.
type Payment struct {
	ID            string        `json:"id"`
	FeeID         string        `json:"fee_id"`
	Amount        Money         `json:"amount"`
	Method        PaymentMethod `json:"method"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PaymentDate   time.Time     `json:"payment_date"`
	Remarks       string        `json:"remarks,omitempty"`
	ReceiptNumber string        `json:"receipt_number"`
	Status        PaymentStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ApplyPaymentRequest carries the inputs for recording a payment against
// a fee. Payment date may be backdated for reconciling offline payments.
type ApplyPaymentRequest struct {
	Amount        Money         `json:"amount"`
	Method        PaymentMethod `json:"method"`
	PaymentDate   time.Time     `json:"payment_date"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Remarks       string        `json:"remarks,omitempty"`
	ReceiptNumber string        `json:"receipt_number,omitempty"`
}

// Validate checks the request fields that can be judged without loading
// the fee. Amount positivity is checked by the ledger service so it can
// surface InvalidAmountError distinctly.
func (r *ApplyPaymentRequest) Validate() *ValidationError {
	verr := &ValidationError{}
	if !ValidPaymentMethod(r.Method) {
		verr.Add("method", "must be one of cash, bank_transfer, upi, cheque, online, other")
	}
	if r.PaymentDate.IsZero() {
		verr.Add("payment_date", "is required")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// ApplyDiscountRequest carries the inputs for a cumulative discount.
type ApplyDiscountRequest struct {
	Amount Money  `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

// VoidPaymentRequest reverses a recorded payment. The payment row stays;
// only its status flips and the owning fee's paid amount shrinks.
type VoidPaymentRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Validate requires a reason so every reversal is explained in the audit
// trail.
func (r *VoidPaymentRequest) Validate() *ValidationError {
	verr := &ValidationError{}
	if strings.TrimSpace(r.Reason) == "" {
		verr.Add("reason", "is required")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
