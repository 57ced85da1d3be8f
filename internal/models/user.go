package models

import (
	"time"
)

// User es el directorio de identidad. AccountBalance y TotalInvestment son
// propiedad exclusiva de los ledgers: ningún otro componente los escribe.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Password        string    `json:"-"` // El "-" evita que se serialice en JSON
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	KycVerified     bool      `json:"kyc_verified"`
	AccountBalance  float64   `json:"account_balance"`
	TotalInvestment float64   `json:"total_investment"`
	CreatedAt       time.Time `json:"created_at"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
