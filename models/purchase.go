package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Purchase is a tracked expense. A purchase with ParentID set is one
// external-payment split of another purchase.
type Purchase struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      uuid.UUID       `json:"user_id"`
	CreditorID   *uuid.UUID      `json:"creditor_id"`
	PurchaseDate time.Time       `json:"purchase_date"`
	Title        string          `json:"title"`
	Value        decimal.Decimal `json:"value"`
	PaymentType  PaymentType     `json:"payment_type"`
	Installments *int            `json:"installments"`
	PaidStatus   PaidStatus      `json:"paid_status"`
	Enabled      bool            `json:"enabled"`
	ParentID     *uuid.UUID      `json:"invoice_parent_id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// InstallmentCount returns the number of installments, or 0 when the
// purchase is not paid in installments.
func (p Purchase) InstallmentCount() int {
	if p.PaymentType != PaymentInstallment || p.Installments == nil {
		return 0
	}
	return *p.Installments
}

// IsSplit reports whether the purchase is a split of another purchase.
func (p Purchase) IsSplit() bool {
	return p.ParentID != nil
}

// SplitInput describes one external payment of a purchase. ID is set when
// editing an existing split.
type SplitInput struct {
	ID         *uuid.UUID      `json:"id"`
	CreditorID uuid.UUID       `json:"creditor_id"`
	Value      decimal.Decimal `json:"value"`
}

func (s *SplitInput) Validate() string {
	if s.CreditorID == uuid.Nil {
		return "creditor_id is required for every external payment"
	}
	if !s.Value.IsPositive() {
		return "the shared amount for the invoice must be positive"
	}
	return ""
}

// PurchaseInput is used for creating purchases.
type PurchaseInput struct {
	CreditorID       *uuid.UUID      `json:"creditor_id"`
	PurchaseDate     string          `json:"purchase_date"`
	Title            string          `json:"title"`
	Value            decimal.Decimal `json:"value"`
	Installments     *int            `json:"installments"`
	PaymentType      PaymentType     `json:"payment_type"`
	PaidStatus       PaidStatus      `json:"paid_status"`
	ExternalPayments []SplitInput    `json:"external_payments"`
}

func (p *PurchaseInput) Validate() string {
	if p.Title == "" {
		return "title is required"
	}
	if _, err := time.Parse(DateLayout, p.PurchaseDate); err != nil {
		return "purchase_date must be a date formatted as YYYY-MM-DD"
	}
	if !p.Value.IsPositive() {
		return "the purchase value cannot be zero or negative"
	}
	if msg := validateInstallments(p.PaymentType, p.Installments); msg != "" {
		return msg
	}
	if p.PaidStatus == "" {
		p.PaidStatus = StatusPending
	}
	if !p.PaidStatus.Valid() {
		return "paid_status must be one of: PENDING, OVERDUE, PAID"
	}
	for i := range p.ExternalPayments {
		if msg := p.ExternalPayments[i].Validate(); msg != "" {
			return msg
		}
	}
	return ""
}

// Date returns the parsed purchase date. Call Validate first.
func (p *PurchaseInput) Date() time.Time {
	d, _ := time.Parse(DateLayout, p.PurchaseDate)
	return d
}

// PurchaseUpdate is a partial update. A non-nil ExternalPayments replaces the
// full set of splits.
type PurchaseUpdate struct {
	CreditorID       *uuid.UUID       `json:"creditor_id"`
	PurchaseDate     *string          `json:"purchase_date"`
	Title            *string          `json:"title"`
	Value            *decimal.Decimal `json:"value"`
	Installments     *int             `json:"installments"`
	PaymentType      *PaymentType     `json:"payment_type"`
	ExternalPayments []SplitInput     `json:"external_payments"`
}

func (u *PurchaseUpdate) Validate() string {
	if u.Title != nil && *u.Title == "" {
		return "title cannot be empty"
	}
	if u.PurchaseDate != nil {
		if _, err := time.Parse(DateLayout, *u.PurchaseDate); err != nil {
			return "purchase_date must be a date formatted as YYYY-MM-DD"
		}
	}
	if u.Value != nil && !u.Value.IsPositive() {
		return "the purchase value cannot be zero or negative"
	}
	if u.PaymentType != nil && !u.PaymentType.Valid() {
		return "payment_type must be one of: CASH, INSTALLMENT, FIXED"
	}
	if u.Installments != nil && *u.Installments <= 0 {
		return "the number of installments cannot be zero or negative"
	}
	for i := range u.ExternalPayments {
		if msg := u.ExternalPayments[i].Validate(); msg != "" {
			return msg
		}
	}
	return ""
}

// Apply copies the set fields onto p and re-checks the installment invariant.
func (u *PurchaseUpdate) Apply(p *Purchase) string {
	if u.CreditorID != nil {
		id := *u.CreditorID
		p.CreditorID = &id
	}
	if u.PurchaseDate != nil {
		p.PurchaseDate, _ = time.Parse(DateLayout, *u.PurchaseDate)
	}
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Value != nil {
		p.Value = *u.Value
	}
	if u.PaymentType != nil {
		p.PaymentType = *u.PaymentType
		if p.PaymentType != PaymentInstallment {
			p.Installments = nil
		}
	}
	if u.Installments != nil {
		n := *u.Installments
		p.Installments = &n
	}
	return validateInstallments(p.PaymentType, p.Installments)
}

func validateInstallments(t PaymentType, n *int) string {
	if !t.Valid() {
		return "payment_type must be one of: CASH, INSTALLMENT, FIXED"
	}
	if t == PaymentInstallment {
		if n == nil {
			return "if the purchase was made in installments, you must provide the installment amount"
		}
		if *n <= 0 {
			return "the number of installments cannot be zero or negative"
		}
		return ""
	}
	if n != nil {
		return "installments may only be provided for INSTALLMENT purchases"
	}
	return ""
}

// PaidInput lists purchases to mark as paid.
type PaidInput struct {
	IDs []uuid.UUID `json:"ids"`
}

// ExternalPayment is a split as shown on its parent purchase.
type ExternalPayment struct {
	ID       uuid.UUID       `json:"id"`
	Value    decimal.Decimal `json:"value"`
	Creditor CreditorBasic   `json:"responsible_creditor"`
}

// PurchaseView is a top-level purchase with its schedule progress.
type PurchaseView struct {
	Purchase
	InstallmentValue *decimal.Decimal  `json:"installment_value,omitempty"`
	InstallmentsPaid int               `json:"installment_paid"`
	LastPaymentDate  time.Time         `json:"last_payment_date"`
	Creditor         *CreditorBasic    `json:"responsible_creditor"`
	ExternalPayments []ExternalPayment `json:"external_payments"`
}

// Page is a paginated list envelope.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
	Total int `json:"total"`
}
