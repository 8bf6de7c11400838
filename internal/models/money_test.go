package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyArithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		assert.Equal(t, Money(10000), Money(4000).Add(6000))
	})

	t.Run("sub", func(t *testing.T) {
		got, err := Money(10000).Sub(4000)
		require.NoError(t, err)
		assert.Equal(t, Money(6000), got)
	})

	t.Run("sub to exactly zero", func(t *testing.T) {
		got, err := Money(10000).Sub(10000)
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("sub below zero is rejected", func(t *testing.T) {
		_, err := Money(4000).Sub(6000)
		require.Error(t, err)

		negErr, ok := err.(*NegativeAmountError)
		require.True(t, ok)
		assert.Equal(t, Money(4000), negErr.Have)
		assert.Equal(t, Money(6000), negErr.Want)
	})
}

func TestMoneyCompare(t *testing.T) {
	assert.Equal(t, -1, Money(100).Compare(200))
	assert.Equal(t, 0, Money(200).Compare(200))
	assert.Equal(t, 1, Money(300).Compare(200))
}

func TestMoneyRupees(t *testing.T) {
	assert.Equal(t, "100.00", Money(10000).Rupees())
	assert.Equal(t, "0.05", Money(5).Rupees())
	assert.Equal(t, "1234.56", Money(123456).Rupees())
	assert.Equal(t, "0.00", Money(0).Rupees())
}
