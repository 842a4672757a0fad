package models

// PaymentType describes how a purchase is paid off.
type PaymentType string

const (
	PaymentCash        PaymentType = "CASH"
	PaymentInstallment PaymentType = "INSTALLMENT"
	PaymentFixed       PaymentType = "FIXED"
)

// PaymentTypes lists every payment type in reporting order.
var PaymentTypes = []PaymentType{PaymentCash, PaymentInstallment, PaymentFixed}

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentCash, PaymentInstallment, PaymentFixed:
		return true
	}
	return false
}

// PaidStatus is the settlement state of a purchase. Transitions only go
// PENDING -> OVERDUE or PENDING -> PAID.
type PaidStatus string

const (
	StatusPending PaidStatus = "PENDING"
	StatusOverdue PaidStatus = "OVERDUE"
	StatusPaid    PaidStatus = "PAID"
)

func (s PaidStatus) Valid() bool {
	switch s {
	case StatusPending, StatusOverdue, StatusPaid:
		return true
	}
	return false
}

// CreditorType is the kind of party a purchase is owed to.
type CreditorType string

const (
	CreditorUser         CreditorType = "USER"
	CreditorBank         CreditorType = "BANK"
	CreditorPaymentSlip  CreditorType = "PAYMENT_SLIP"
	CreditorPublicPerson CreditorType = "PUBLIC_PERSON"
)

func (t CreditorType) Valid() bool {
	switch t {
	case CreditorUser, CreditorBank, CreditorPaymentSlip, CreditorPublicPerson:
		return true
	}
	return false
}
