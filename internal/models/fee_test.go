package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDeriveStatus(t *testing.T) {
	due := day(2026, time.March, 10)

	tests := []struct {
		name string
		fee  Fee
		asOf time.Time
		want FeeStatus
	}{
		{
			name: "new fee before due date is pending",
			fee:  Fee{Amount: 10000, DueDate: due},
			asOf: day(2026, time.March, 1),
			want: FeeStatusPending,
		},
		{
			name: "partially paid before due date",
			fee:  Fee{Amount: 10000, PaidAmount: 4000, DueDate: due},
			asOf: day(2026, time.March, 1),
			want: FeeStatusPartial,
		},
		{
			name: "fully paid",
			fee:  Fee{Amount: 10000, PaidAmount: 10000, DueDate: due},
			asOf: day(2026, time.March, 1),
			want: FeeStatusPaid,
		},
		{
			name: "paid beats overdue after due date",
			fee:  Fee{Amount: 10000, PaidAmount: 10000, DueDate: due},
			asOf: day(2026, time.April, 1),
			want: FeeStatusPaid,
		},
		{
			name: "overdue beats partial after due date",
			fee:  Fee{Amount: 10000, PaidAmount: 4000, DueDate: due},
			asOf: day(2026, time.April, 1),
			want: FeeStatusOverdue,
		},
		{
			name: "unpaid after due date is overdue",
			fee:  Fee{Amount: 10000, DueDate: due},
			asOf: day(2026, time.April, 1),
			want: FeeStatusOverdue,
		},
		{
			name: "due today is not overdue yet",
			fee:  Fee{Amount: 10000, DueDate: due},
			asOf: due.Add(23 * time.Hour),
			want: FeeStatusPending,
		},
		{
			name: "due yesterday is overdue regardless of time of day",
			fee:  Fee{Amount: 10000, DueDate: due},
			asOf: day(2026, time.March, 11).Add(time.Minute),
			want: FeeStatusOverdue,
		},
		{
			name: "discount settling the balance means paid",
			fee:  Fee{Amount: 10000, Discount: 6000, PaidAmount: 4000, DueDate: due},
			asOf: day(2026, time.April, 1),
			want: FeeStatusPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(&tt.fee, tt.asOf))
		})
	}
}

func TestDeriveStatusIdempotent(t *testing.T) {
	fee := Fee{Amount: 10000, PaidAmount: 4000, DueDate: day(2026, time.March, 10)}
	asOf := day(2026, time.April, 1)

	first := DeriveStatus(&fee, asOf)
	fee.Status = first
	second := DeriveStatus(&fee, asOf)
	assert.Equal(t, first, second)
}

func TestPendingAmount(t *testing.T) {
	fee := Fee{Amount: 10000, Discount: 1000, PaidAmount: 4000}
	assert.Equal(t, Money(5000), fee.PendingAmount())
}

func TestCreateFeeRequestValidate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req := CreateFeeRequest{
			StudentID: "stu-1",
			Amount:    10000,
			DueDate:   day(2026, time.March, 10),
			FeeType:   FeeTypeTuition,
		}
		assert.Nil(t, req.Validate())
	})

	t.Run("all violations reported together", func(t *testing.T) {
		req := CreateFeeRequest{
			StudentID: "  ",
			Amount:    -5,
			FeeType:   "membership",
		}
		verr := req.Validate()
		require.NotNil(t, verr)
		assert.Equal(t, []string{"amount", "due_date", "fee_type", "student_id"}, verr.Sorted())
	})

	t.Run("period bounds", func(t *testing.T) {
		req := CreateFeeRequest{
			StudentID: "stu-1",
			Amount:    10000,
			DueDate:   day(2026, time.March, 10),
			FeeType:   FeeTypeTuition,
			Period:    &FeePeriod{Month: 13, Year: 1990},
		}
		verr := req.Validate()
		require.NotNil(t, verr)
		assert.Equal(t, []string{"period.month", "period.year"}, verr.Sorted())
	})
}
