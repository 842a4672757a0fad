package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Creditor is a party the owner owes money to: a bank, a payment slip, a
// person, or (type USER) another user of the system.
type Creditor struct {
	ID               uuid.UUID        `json:"id"`
	OwnerID          uuid.UUID        `json:"user_id"`
	Type             CreditorType     `json:"creditor_type"`
	Name             string           `json:"name"`
	DueDay           int              `json:"due_day"` // 1-31, clamped per month
	LimitValue       *decimal.Decimal `json:"limit_value"`
	Enabled          bool             `json:"enabled"`
	UserAsCreditorID *uuid.UUID       `json:"user_as_creditor_id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Basic returns the summary shown next to purchases.
func (c Creditor) Basic() CreditorBasic {
	return CreditorBasic{ID: c.ID, Type: c.Type, Name: c.Name, UserAsCreditorID: c.UserAsCreditorID}
}

// CreditorBasic is the short form of a creditor.
type CreditorBasic struct {
	ID               uuid.UUID    `json:"id"`
	Type             CreditorType `json:"creditor_type"`
	Name             string       `json:"name"`
	UserAsCreditorID *uuid.UUID   `json:"user_as_creditor_id"`
}

// CreditorInput is used for creating creditors.
type CreditorInput struct {
	Type             CreditorType     `json:"creditor_type"`
	Name             string           `json:"name"`
	DueDay           int              `json:"due_day"`
	LimitValue       *decimal.Decimal `json:"limit_value"`
	UserAsCreditorID *uuid.UUID       `json:"user_as_creditor_id"`
}

func (c *CreditorInput) Validate() string {
	if c.Name == "" {
		return "name is required"
	}
	if !c.Type.Valid() {
		return "creditor_type must be one of: USER, BANK, PAYMENT_SLIP, PUBLIC_PERSON"
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return "due_day must be between 1 and 31"
	}
	if c.LimitValue != nil && c.LimitValue.IsNegative() {
		return "limit_value must be non-negative"
	}
	if c.Type != CreditorUser && c.UserAsCreditorID != nil {
		return "a user id should only be provided if the entity is of type USER"
	}
	if c.Type == CreditorUser && c.UserAsCreditorID == nil {
		return "if your entity is of type USER you must provide a user id"
	}
	return ""
}

// CreditorUpdate is a partial update of a creditor.
type CreditorUpdate struct {
	Name       *string          `json:"name"`
	DueDay     *int             `json:"due_day"`
	LimitValue *decimal.Decimal `json:"limit_value"`
}

func (c *CreditorUpdate) Validate() string {
	if c.Name != nil && *c.Name == "" {
		return "name cannot be empty"
	}
	if c.DueDay != nil && (*c.DueDay < 1 || *c.DueDay > 31) {
		return "due_day must be between 1 and 31"
	}
	if c.LimitValue != nil && c.LimitValue.IsNegative() {
		return "limit_value must be non-negative"
	}
	return ""
}
