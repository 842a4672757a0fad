package models

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User owns purchases and creditors.
type User struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Lastname      string           `json:"lastname"`
	Email         string           `json:"email"`
	Username      string           `json:"username"`
	PasswordHash  string           `json:"-"`
	SpendingLimit *decimal.Decimal `json:"spending_limit,omitempty"`
	ReserveFund   *decimal.Decimal `json:"reserve_fund,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// UserInput is used for registering users.
type UserInput struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (u *UserInput) Validate() string {
	if u.Name == "" || u.Lastname == "" {
		return "name and lastname are required"
	}
	if u.Username == "" {
		return "username is required"
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return "email must be a valid address"
	}
	if len(u.Password) < 8 {
		return "password must be at least 8 characters long"
	}
	return ""
}
