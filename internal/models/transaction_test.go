package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransicionesDeTransaccion(t *testing.T) {
	tests := []struct {
		from TransactionStatus
		to   TransactionStatus
		ok   bool
	}{
		{TransactionStatusPending, TransactionStatusApproved, true},
		{TransactionStatusPending, TransactionStatusRejected, true},
		{TransactionStatusApproved, TransactionStatusRejected, false},
		{TransactionStatusApproved, TransactionStatusPending, false},
		{TransactionStatusRejected, TransactionStatusApproved, false},
		{TransactionStatusRejected, TransactionStatusPending, false},
		// Repetir el mismo estado es idempotente
		{TransactionStatusApproved, TransactionStatusApproved, true},
		{TransactionStatusRejected, TransactionStatusRejected, true},
		{TransactionStatusPending, TransactionStatusPending, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to), "%s → %s", tt.from, tt.to)
	}
}

func TestEnsureMutable(t *testing.T) {
	assert.NoError(t, TransactionStatusPending.EnsureMutable())
	assert.ErrorIs(t, TransactionStatusApproved.EnsureMutable(), ErrImmutableApproved)
	assert.ErrorIs(t, TransactionStatusRejected.EnsureMutable(), ErrImmutableRejected)
}

func TestRound8(t *testing.T) {
	assert.Equal(t, 0.1, Round8(0.1))
	assert.Equal(t, 105.0, Round8(100*(1+5.0/100)))
	assert.Equal(t, 0.00000001, Round8(0.000000014))
	assert.Equal(t, 0.00000002, Round8(0.000000015))
	assert.Equal(t, 0.0, Round8(4e-9))
	assert.Equal(t, 4000.0, Round8(2*2000.0))
}

func TestErroresDeInsuficiencia(t *testing.T) {
	fondos := NewInsufficientFunds(3500, 3000)
	assert.Equal(t, 3500.0, fondos.Required)
	assert.Equal(t, 3000.0, fondos.Available)
	assert.Equal(t, 500.0, fondos.Deficit)
	assert.Contains(t, fondos.Error(), "faltan")

	token := NewInsufficientTokenBalance("BTC", 2, 1.5)
	assert.Equal(t, "BTC", token.Ticker)
	assert.Equal(t, 0.5, token.Deficit)

	portafolio := NewInsufficientPortfolioValue(5000, 4200)
	assert.Equal(t, 800.0, portafolio.Deficit)
}
