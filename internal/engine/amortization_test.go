package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeInstallment(t *testing.T) {
	t.Run("Reference loan rounds to cents", func(t *testing.T) {
		installment, err := ComputeInstallment(100000, 10, 12)

		require.NoError(t, err)
		assert.Equal(t, 8791.59, installment)
	})

	t.Run("Zero interest splits principal evenly", func(t *testing.T) {
		installment, err := ComputeInstallment(120000, 0, 12)

		require.NoError(t, err)
		assert.Equal(t, 120000.0/12, installment)
	})

	t.Run("Monotonic in rate", func(t *testing.T) {
		previous, err := ComputeInstallment(100000, 0, 24)
		require.NoError(t, err)

		for rate := 1.0; rate <= 30; rate++ {
			current, err := ComputeInstallment(100000, rate, 24)
			require.NoError(t, err)
			assert.Greater(t, current, previous, "rate %.0f%%", rate)
			previous = current
		}
	})

	t.Run("Monotonic in principal", func(t *testing.T) {
		previous, err := ComputeInstallment(1000, 14, 36)
		require.NoError(t, err)

		for principal := 2000.0; principal <= 50000; principal += 1000 {
			current, err := ComputeInstallment(principal, 14, 36)
			require.NoError(t, err)
			assert.Greater(t, current, previous, "principal %.0f", principal)
			previous = current
		}
	})

	t.Run("Rejects degenerate inputs", func(t *testing.T) {
		cases := []struct {
			name      string
			principal float64
			rate      float64
			tenure    int
		}{
			{"zero tenure", 100000, 10, 0},
			{"negative tenure", 100000, 10, -3},
			{"negative rate", 100000, -1, 12},
			{"nan rate", 100000, math.NaN(), 12},
			{"infinite principal", math.Inf(1), 10, 12},
			{"negative principal", -5, 10, 12},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				installment, err := ComputeInstallment(tc.principal, tc.rate, tc.tenure)

				assert.ErrorIs(t, err, ErrValidation)
				assert.Zero(t, installment)
			})
		}
	})
}

func TestComputeRemainingBalance(t *testing.T) {
	t.Run("No payments equals full residual obligation", func(t *testing.T) {
		remaining, err := ComputeRemainingBalance(100000, 10, 12, 0, 8791.59, 0)

		require.NoError(t, err)
		// 12 * 8791.59 + 100000 * 0.10 * 12
		assert.Equal(t, 225499.08, remaining)
	})

	t.Run("Payment reduces residual", func(t *testing.T) {
		remaining, err := ComputeRemainingBalance(100000, 10, 12, 4, 8791.59, 10000)

		require.NoError(t, err)
		assert.Equal(t, 140332.72, remaining)
	})

	t.Run("Exact payment clears", func(t *testing.T) {
		remaining, err := ComputeRemainingBalance(100000, 10, 12, 4, 8791.59, 150332.72)

		require.NoError(t, err)
		assert.Zero(t, remaining)
	})

	t.Run("Overpayment goes negative", func(t *testing.T) {
		remaining, err := ComputeRemainingBalance(100000, 10, 12, 4, 8791.59, 150332.73)

		require.NoError(t, err)
		assert.Equal(t, -0.01, remaining)
	})

	t.Run("Rejects invalid tenure and counts", func(t *testing.T) {
		_, err := ComputeRemainingBalance(100000, 10, 0, 0, 8791.59, 0)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = ComputeRemainingBalance(100000, 10, 12, -1, 8791.59, 0)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = ComputeRemainingBalance(100000, 10, 12, 13, 8791.59, 0)
		assert.ErrorIs(t, err, ErrValidation)

		_, err = ComputeRemainingBalance(100000, 10, 12, 0, math.NaN(), 0)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAnnuityInstallment(t *testing.T) {
	emi, err := AnnuityInstallment(100000, 10, 12)
	require.NoError(t, err)
	assert.InDelta(t, 8791.59, emi, 0.005)

	emi, err = AnnuityInstallment(120000, 0, 12)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, emi)

	_, err = AnnuityInstallment(120000, 10, 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApprovedLimit(t *testing.T) {
	assert.Equal(t, 1800000.0, ApprovedLimit(50000))
	assert.Equal(t, 1200000.0, ApprovedLimit(33333))
	assert.Equal(t, 0.0, ApprovedLimit(1000))
}
