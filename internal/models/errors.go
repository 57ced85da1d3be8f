package models

import (
	"errors"
	"fmt"
)

// Errores de negocio compartidos por los ledgers, los workflows y los handlers.
var (
	ErrUserNotFound        = errors.New("usuario no encontrado")
	ErrTransactionNotFound = errors.New("transacción no encontrada")
	ErrPlanNotFound        = errors.New("plan de copytrade no encontrado")
	ErrPurchaseNotFound    = errors.New("compra de copytrade no encontrada")
	ErrHoldingNotFound     = errors.New("el usuario no posee esta criptomoneda")

	// Registros finalizados: ningún campo puede modificarse.
	ErrImmutableApproved = errors.New("la transacción ya fue aprobada y no puede modificarse")
	ErrImmutableRejected = errors.New("la transacción ya fue rechazada y no puede modificarse")

	// Guardas de idempotencia.
	ErrAlreadyApproved  = errors.New("la transacción ya fue aprobada")
	ErrAlreadyCompleted = errors.New("la compra ya fue completada")

	// Oráculo de precios.
	ErrPriceNotFound    = errors.New("no se encontraron datos de precio para la criptomoneda")
	ErrPriceUnavailable = errors.New("el servicio de precios no está disponible")
)

// ValidationError indica datos de entrada fuera de rango o incompletos.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validación fallida en %s: %s", e.Field, e.Reason)
}

// InsufficientFundsError indica que el balance en USD del usuario no alcanza.
// Siempre lleva el déficit exacto para que el mensaje sea accionable.
type InsufficientFundsError struct {
	Required  float64
	Available float64
	Deficit   float64
}

func NewInsufficientFunds(required, available float64) *InsufficientFundsError {
	return &InsufficientFundsError{
		Required:  Round8(required),
		Available: Round8(available),
		Deficit:   Round8(required - available),
	}
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("fondos insuficientes: se requieren %.8f USD, disponibles %.8f USD (faltan %.8f USD)",
		e.Required, e.Available, e.Deficit)
}

// InsufficientTokenBalanceError indica que la tenencia de un activo puntual no
// alcanza para el débito solicitado.
type InsufficientTokenBalanceError struct {
	Ticker    string
	Required  float64
	Available float64
	Deficit   float64
}

func NewInsufficientTokenBalance(ticker string, required, available float64) *InsufficientTokenBalanceError {
	return &InsufficientTokenBalanceError{
		Ticker:    ticker,
		Required:  Round8(required),
		Available: Round8(available),
		Deficit:   Round8(required - available),
	}
}

func (e *InsufficientTokenBalanceError) Error() string {
	return fmt.Sprintf("saldo insuficiente de %s: se requieren %.8f, disponibles %.8f (faltan %.8f)",
		e.Ticker, e.Required, e.Available, e.Deficit)
}

// InsufficientPortfolioValueError indica que el valor total del portafolio no
// alcanza para fondear una compra de copytrade.
type InsufficientPortfolioValueError struct {
	Required  float64
	Available float64
	Deficit   float64
}

func NewInsufficientPortfolioValue(required, available float64) *InsufficientPortfolioValueError {
	return &InsufficientPortfolioValueError{
		Required:  Round8(required),
		Available: Round8(available),
		Deficit:   Round8(required - available),
	}
}

func (e *InsufficientPortfolioValueError) Error() string {
	return fmt.Sprintf("valor de portafolio insuficiente: se requieren %.8f USD, disponibles %.8f USD (faltan %.8f USD)",
		e.Required, e.Available, e.Deficit)
}
