package models

import (
	"fmt"
	"sort"
	"strings"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every violated field of a request, not just the
// first, so the caller can surface all problems at once.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field was violated.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Sorted returns the violated field names in stable order, for logs.
func (e *ValidationError) Sorted() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	sort.Strings(names)
	return names
}

// NotFoundError indicates a referenced fee or payment id does not resolve.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// InvalidAmountError indicates a non-positive amount where a strictly
// positive one is required.
type InvalidAmountError struct {
	Amount Money
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("amount must be positive, got %d", e.Amount)
}

// NegativeAmountError indicates an arithmetic step would produce a negative
// Money value. Treated as a programming invariant violation and always
// surfaced to the caller.
type NegativeAmountError struct {
	Have Money
	Want Money
}

func (e *NegativeAmountError) Error() string {
	return fmt.Sprintf("negative amount: cannot subtract %d from %d", e.Want, e.Have)
}

// OverpaymentError indicates a payment larger than the fee's pending balance.
// The caller must correct the amount and resubmit; there is no automatic
// credit or refund.
type OverpaymentError struct {
	FeeID   string
	Amount  Money
	Pending Money
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %d exceeds pending balance %d on fee %s", e.Amount, e.Pending, e.FeeID)
}

// DiscountExceedsBalanceError indicates a discount that would push
// discount + paidAmount past the fee amount.
type DiscountExceedsBalanceError struct {
	FeeID    string
	Discount Money
	Pending  Money
}

func (e *DiscountExceedsBalanceError) Error() string {
	return fmt.Sprintf("discount of %d exceeds remaining balance %d on fee %s", e.Discount, e.Pending, e.FeeID)
}

// AlreadySettledError indicates a mutation attempted on a fee whose balance
// has already reached zero.
type AlreadySettledError struct {
	FeeID string
}

func (e *AlreadySettledError) Error() string {
	return fmt.Sprintf("fee %s is already settled", e.FeeID)
}

// ConflictError indicates a concurrent mutation lost an optimistic
// concurrency race. The ledger service retries these a bounded number of
// times before surfacing one.
type ConflictError struct {
	FeeID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent update conflict on fee %s", e.FeeID)
}
