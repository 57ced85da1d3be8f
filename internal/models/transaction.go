package models

import "time"

// Tipos de transacción soportados.
const (
	TransactionTypeDeposit  = "deposit"
	TransactionTypeWithdraw = "withdraw"
)

// TransactionStatus es el estado de una solicitud de depósito o retiro.
// La máquina de estados es cerrada: pending → approved y pending → rejected
// son las únicas transiciones; approved y rejected son terminales.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "pending"
	TransactionStatusApproved TransactionStatus = "approved"
	TransactionStatusRejected TransactionStatus = "rejected"
)

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusApproved, TransactionStatusRejected:
		return true
	}
	return false
}

// IsFinal indica si el estado es terminal.
func (s TransactionStatus) IsFinal() bool {
	return s == TransactionStatusApproved || s == TransactionStatusRejected
}

// CanTransitionTo valida una transición. Pedir el mismo estado otra vez es un
// no-op exitoso (idempotente); ninguna arista sale de un estado terminal.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	if s == next {
		return true
	}
	return s == TransactionStatusPending && next.IsFinal()
}

// EnsureMutable falla si el registro ya fue finalizado. Es la guarda que usan
// los workflows antes de cualquier edición de campos.
func (s TransactionStatus) EnsureMutable() error {
	switch s {
	case TransactionStatusApproved:
		return ErrImmutableApproved
	case TransactionStatusRejected:
		return ErrImmutableRejected
	}
	return nil
}

// Transaction es una solicitud de depósito o retiro de un activo. Los campos
// PriceAtApproval, UsdValueAtApproval y ApprovedAt son la foto congelada al
// momento de la aprobación y nunca se recalculan.
type Transaction struct {
	ID                 string            `json:"id"`
	UserID             string            `json:"user_id"`
	CryptoName         string            `json:"crypto_name"`
	Ticker             string            `json:"ticker" binding:"required"`
	Amount             float64           `json:"amount" binding:"required,gt=0"`
	Type               string            `json:"type" binding:"required,oneof=deposit withdraw"`
	Status             TransactionStatus `json:"status"`
	Note               string            `json:"note,omitempty"`
	PriceAtApproval    float64           `json:"price_at_approval,omitempty"`
	UsdValueAtApproval float64           `json:"usd_value_at_approval,omitempty"`
	ApprovedBy         string            `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time        `json:"approved_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}
