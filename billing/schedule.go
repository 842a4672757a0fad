package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/satheeshds/invoicehub/models"
	"github.com/shopspring/decimal"
)

// maxPeriods bounds FIXED expansion when a caller passes a far horizon.
const maxPeriods = 1200

// ErrInvalidPurchase is returned when a purchase cannot be expanded into a
// schedule (non-positive value, bad installment count, unknown payment type).
var ErrInvalidPurchase = errors.New("billing: invalid purchase")

// Period is one obligation of a purchase.
type Period struct {
	Index   int             `json:"period_index"`
	DueDate time.Time       `json:"due_date"`
	Amount  decimal.Decimal `json:"amount_due"`
}

// Schedule is the ordered list of periods of one purchase. Anchor is the
// billing-cycle cut-off the first period is measured from.
type Schedule struct {
	Anchor  time.Time `json:"anchor"`
	DueDay  int       `json:"due_day"`
	Periods []Period  `json:"periods"`
}

// CycleAnchor returns the billing-cycle cut-off for a purchase: the due day
// of the purchase month, or of the following month when the purchase was
// made after the cut-off.
func CycleAnchor(purchaseDate time.Time, dueDay int) time.Time {
	d := Date(purchaseDate)
	if d.Day() <= dueDay {
		return DueDateIn(d.Year(), d.Month(), dueDay)
	}
	return DueDateIn(d.Year(), d.Month()+1, dueDay)
}

// DueDay returns the creditor's due day, falling back to the purchase day
// for purchases without a responsible creditor.
func DueDay(p models.Purchase, c *models.Creditor) int {
	if c != nil && c.DueDay > 0 {
		return c.DueDay
	}
	return p.PurchaseDate.Day()
}

// InstallmentAmounts splits value into n amounts. Every installment is the
// value divided by n, truncated to cents; the last one takes the remainder so
// the amounts always sum to value.
func InstallmentAmounts(value decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	base := value.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	out := make([]decimal.Decimal, n)
	for i := 0; i < n-1; i++ {
		out[i] = base
	}
	out[n-1] = value.Sub(base.Mul(decimal.NewFromInt(int64(n - 1))))
	return out
}

// GenerateSchedule expands a purchase into its periods. Period k falls due on
// the creditor's due day k+1 months after the cycle anchor.
//
// CASH yields one period, INSTALLMENT yields exactly Installments periods and
// FIXED yields one period per month up to horizon (December 31 of the
// purchase year when horizon is zero), always including the first one.
func GenerateSchedule(p models.Purchase, c *models.Creditor, horizon time.Time) (Schedule, error) {
	if !p.Value.IsPositive() {
		return Schedule{}, fmt.Errorf("%w: value must be positive", ErrInvalidPurchase)
	}
	dueDay := DueDay(p, c)
	anchor := CycleAnchor(p.PurchaseDate, dueDay)
	s := Schedule{Anchor: anchor, DueDay: dueDay}
	due := func(k int) time.Time {
		return DueDateIn(anchor.Year(), anchor.Month()+time.Month(k+1), dueDay)
	}

	switch p.PaymentType {
	case models.PaymentCash:
		s.Periods = []Period{{Index: 0, DueDate: due(0), Amount: p.Value}}
	case models.PaymentInstallment:
		n := p.InstallmentCount()
		if n <= 0 {
			return Schedule{}, fmt.Errorf("%w: installments must be positive", ErrInvalidPurchase)
		}
		amounts := InstallmentAmounts(p.Value, n)
		s.Periods = make([]Period, n)
		for k := 0; k < n; k++ {
			s.Periods[k] = Period{Index: k, DueDate: due(k), Amount: amounts[k]}
		}
	case models.PaymentFixed:
		if horizon.IsZero() {
			horizon = EndOfYear(p.PurchaseDate)
		}
		horizon = Date(horizon)
		s.Periods = append(s.Periods, Period{Index: 0, DueDate: due(0), Amount: p.Value})
		for k := 1; k < maxPeriods; k++ {
			d := due(k)
			if d.After(horizon) {
				break
			}
			s.Periods = append(s.Periods, Period{Index: k, DueDate: d, Amount: p.Value})
		}
	default:
		return Schedule{}, fmt.Errorf("%w: unknown payment type %q", ErrInvalidPurchase, p.PaymentType)
	}
	return s, nil
}

// Final returns the last period of the schedule.
func (s Schedule) Final() (Period, bool) {
	if len(s.Periods) == 0 {
		return Period{}, false
	}
	return s.Periods[len(s.Periods)-1], true
}

// Total sums every period amount.
func (s Schedule) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Periods {
		total = total.Add(p.Amount)
	}
	return total
}

// Elapsed counts the periods due on or before now.
func (s Schedule) Elapsed(now time.Time) int {
	now = Date(now)
	n := 0
	for _, p := range s.Periods {
		if p.DueDate.After(now) {
			break
		}
		n++
	}
	return n
}

// Active returns the period whose window contains now. The window of period
// k runs from the previous due date (the anchor for k = 0), exclusive, to its
// own due date, inclusive.
func (s Schedule) Active(now time.Time) (Period, bool) {
	now = Date(now)
	start := s.Anchor
	for _, p := range s.Periods {
		if now.After(start) && !now.After(p.DueDate) {
			return p, true
		}
		start = p.DueDate
	}
	return Period{}, false
}
