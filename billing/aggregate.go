package billing

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/models"
	"github.com/shopspring/decimal"
)

// Creditors indexes creditors by id for schedule lookups.
type Creditors map[uuid.UUID]models.Creditor

// NewCreditors indexes list by id.
func NewCreditors(list []models.Creditor) Creditors {
	out := make(Creditors, len(list))
	for _, c := range list {
		out[c.ID] = c
	}
	return out
}

// For returns the creditor responsible for p, or nil.
func (cs Creditors) For(p models.Purchase) *models.Creditor {
	if p.CreditorID == nil {
		return nil
	}
	c, ok := cs[*p.CreditorID]
	if !ok {
		return nil
	}
	return &c
}

// CreditorTotal is one row of the by-creditor report.
type CreditorTotal struct {
	CreditorID       uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	AmountReceivable decimal.Decimal `json:"amount_receivable"`
	AmountPayable    decimal.Decimal `json:"amount_payable"`
	TotalValue       decimal.Decimal `json:"total_value"`
}

// MonthTotal is one row of the by-month report. Month is the first day of
// the month.
type MonthTotal struct {
	Month  time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// DayTotal is one row of the by-week report; DayOfWeek runs 1 (Sunday) to
// 7 (Saturday).
type DayTotal struct {
	DayOfWeek int             `json:"day_of_week"`
	Amount    decimal.Decimal `json:"amount"`
}

// PaymentTypeTotal is one row of the by-payment-type report.
type PaymentTypeTotal struct {
	PaymentType models.PaymentType `json:"payment_type"`
	Amount      decimal.Decimal    `json:"amount"`
}

// outstanding is the base set every report starts from: the owner's
// enabled purchases that are not yet paid.
func outstanding(owner uuid.UUID, p models.Purchase) bool {
	return p.OwnerID == owner && p.Enabled && p.PaidStatus != models.StatusPaid
}

// AggregateByCreditor groups the owner's currently owed purchases by their
// creditor. Top-level purchases add to TotalValue, splits add to
// AmountPayable, and the splits hanging off a purchase add to its
// creditor's AmountReceivable.
func AggregateByCreditor(owner uuid.UUID, purchases []models.Purchase, creditors Creditors, now time.Time) []CreditorTotal {
	children := make(map[uuid.UUID][]models.Purchase)
	for _, p := range purchases {
		if p.Enabled && p.PaidStatus != models.StatusPaid && p.ParentID != nil {
			children[*p.ParentID] = append(children[*p.ParentID], p)
		}
	}

	rows := make(map[uuid.UUID]*CreditorTotal)
	for _, p := range purchases {
		if !outstanding(owner, p) || p.CreditorID == nil {
			continue
		}
		c := creditors.For(p)
		s, err := scheduleAt(p, c, now)
		if err != nil || !currentlyOwed(p, s, now) {
			continue
		}
		row, ok := rows[*p.CreditorID]
		if !ok {
			row = &CreditorTotal{
				CreditorID:       *p.CreditorID,
				AmountReceivable: decimal.Zero,
				AmountPayable:    decimal.Zero,
				TotalValue:       decimal.Zero,
			}
			if c != nil {
				row.Name = c.Name
			}
			rows[*p.CreditorID] = row
		}

		value, idx := periodicValue(p, s, now)
		if p.IsSplit() {
			row.AmountPayable = row.AmountPayable.Add(value)
		} else {
			row.TotalValue = row.TotalValue.Add(value)
		}
		for _, child := range children[p.ID] {
			row.AmountReceivable = row.AmountReceivable.Add(splitValueAt(child, idx))
		}
	}

	out := make([]CreditorTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	slices.SortFunc(out, func(a, b CreditorTotal) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.CreditorID.String(), b.CreditorID.String())
	})
	return out
}

// AggregateByMonth expands every top-level outstanding purchase and sums the
// periods falling due in each month of now's year.
func AggregateByMonth(owner uuid.UUID, purchases []models.Purchase, creditors Creditors, now time.Time) []MonthTotal {
	year := now.Year()
	horizon := EndOfYear(now)
	buckets := make(map[time.Month]decimal.Decimal)
	for _, p := range purchases {
		if !outstanding(owner, p) || p.IsSplit() {
			continue
		}
		s, err := GenerateSchedule(p, creditors.For(p), horizon)
		if err != nil {
			continue
		}
		for _, period := range s.Periods {
			if period.DueDate.Year() != year {
				continue
			}
			m := period.DueDate.Month()
			buckets[m] = buckets[m].Add(period.Amount)
		}
	}

	out := make([]MonthTotal, 0, len(buckets))
	for m := time.January; m <= time.December; m++ {
		if amount, ok := buckets[m]; ok {
			out = append(out, MonthTotal{Month: time.Date(year, m, 1, 0, 0, 0, 0, time.UTC), Amount: amount})
		}
	}
	return out
}

// AggregateByWeek sums the periods of top-level outstanding purchases that
// fall due in the Sunday-to-Saturday week containing now.
func AggregateByWeek(owner uuid.UUID, purchases []models.Purchase, creditors Creditors, now time.Time) []DayTotal {
	start, end := WeekBounds(now)
	var (
		buckets [7]decimal.Decimal
		seen    [7]bool
	)
	for _, p := range purchases {
		if !outstanding(owner, p) || p.IsSplit() {
			continue
		}
		horizon := EndOfYear(p.PurchaseDate)
		if end.After(horizon) {
			horizon = end
		}
		s, err := GenerateSchedule(p, creditors.For(p), horizon)
		if err != nil {
			continue
		}
		for _, period := range s.Periods {
			if period.DueDate.Before(start) || period.DueDate.After(end) {
				continue
			}
			wd := period.DueDate.Weekday()
			buckets[wd] = buckets[wd].Add(period.Amount)
			seen[wd] = true
		}
	}

	var out []DayTotal
	for wd, amount := range buckets {
		if seen[wd] {
			out = append(out, DayTotal{DayOfWeek: wd + 1, Amount: amount})
		}
	}
	return out
}

// AggregateByPaymentType sums what each payment type contributes to the
// current billing cycle.
func AggregateByPaymentType(owner uuid.UUID, purchases []models.Purchase, creditors Creditors, now time.Time) []PaymentTypeTotal {
	buckets := make(map[models.PaymentType]decimal.Decimal)
	for _, p := range purchases {
		if !outstanding(owner, p) || p.IsSplit() {
			continue
		}
		s, err := scheduleAt(p, creditors.For(p), now)
		if err != nil || !currentlyOwed(p, s, now) {
			continue
		}
		value, _ := periodicValue(p, s, now)
		buckets[p.PaymentType] = buckets[p.PaymentType].Add(value)
	}

	var out []PaymentTypeTotal
	for _, t := range models.PaymentTypes {
		if amount, ok := buckets[t]; ok {
			out = append(out, PaymentTypeTotal{PaymentType: t, Amount: amount})
		}
	}
	return out
}
