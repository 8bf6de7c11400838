package models

import "fmt"

// Money is an amount in paise (integer minor units). All fee and payment
// arithmetic goes through this type so repeated partial payments never
// accumulate floating-point drift.
type Money int64

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return m + other
}

// Sub returns m - other, or NegativeAmountError if the result would be
// negative. A negative Money value is an invariant violation, never clamped.
func (m Money) Sub(other Money) (Money, error) {
	if other > m {
		return 0, &NegativeAmountError{Have: m, Want: other}
	}
	return m - other, nil
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m == 0
}

// Compare returns -1, 0, or 1 as m is less than, equal to, or greater
// than other.
func (m Money) Compare(other Money) int {
	switch {
	case m < other:
		return -1
	case m > other:
		return 1
	default:
		return 0
	}
}

// Rupees formats the amount as rupees with two decimal places, for
// receipts and reports.
func (m Money) Rupees() string {
	return fmt.Sprintf("%d.%02d", m/100, m%100)
}
