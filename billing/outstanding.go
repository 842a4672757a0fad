package billing

import (
	"time"

	"github.com/satheeshds/invoicehub/models"
	"github.com/shopspring/decimal"
)

// scheduleAt expands p far enough to judge it at now: FIXED schedules run at
// least to now even when the purchase year has ended.
func scheduleAt(p models.Purchase, c *models.Creditor, now time.Time) (Schedule, error) {
	horizon := time.Time{}
	if p.PaymentType == models.PaymentFixed {
		horizon = EndOfYear(p.PurchaseDate)
		if d := Date(now); d.After(horizon) {
			horizon = d
		}
	}
	return GenerateSchedule(p, c, horizon)
}

// InstallmentsPaid is the number of periods already behind the purchase:
// elapsed periods minus the one currently due, never below zero.
func InstallmentsPaid(p models.Purchase, c *models.Creditor, now time.Time) int {
	s, err := scheduleAt(p, c, now)
	if err != nil {
		return 0
	}
	return max(s.Elapsed(now)-1, 0)
}

// IsOverdue reports whether a purchase is past due at now. PAID purchases
// never are, OVERDUE ones already were, and PENDING ones are once any period
// fell due strictly before now's date.
func IsOverdue(p models.Purchase, c *models.Creditor, now time.Time) bool {
	switch p.PaidStatus {
	case models.StatusPaid:
		return false
	case models.StatusOverdue:
		return true
	}
	s, err := scheduleAt(p, c, now)
	if err != nil || len(s.Periods) == 0 {
		return false
	}
	return s.Periods[0].DueDate.Before(Date(now))
}

// EligibleForSweep reports whether the overdue sweep should flip p to
// OVERDUE: an enabled, top-level, PENDING CASH or INSTALLMENT purchase whose
// final period fell due strictly before now. FIXED purchases have no final
// period and are never swept.
func EligibleForSweep(p models.Purchase, c *models.Creditor, now time.Time) bool {
	if !p.Enabled || p.IsSplit() || p.PaidStatus != models.StatusPending {
		return false
	}
	if p.PaymentType != models.PaymentCash && p.PaymentType != models.PaymentInstallment {
		return false
	}
	s, err := GenerateSchedule(p, c, time.Time{})
	if err != nil {
		return false
	}
	final, ok := s.Final()
	return ok && final.DueDate.Before(Date(now))
}

// CurrentlyOwed reports whether p counts towards what is owed at now.
func CurrentlyOwed(p models.Purchase, c *models.Creditor, now time.Time) bool {
	s, err := scheduleAt(p, c, now)
	if err != nil {
		return false
	}
	return currentlyOwed(p, s, now)
}

func currentlyOwed(p models.Purchase, s Schedule, now time.Time) bool {
	if Date(p.PurchaseDate).After(Date(now)) {
		return false
	}
	if p.PaymentType == models.PaymentFixed {
		return true
	}
	_, ok := s.Active(now)
	return ok
}

// PeriodicValue is what p contributes to a single billing cycle at now: the
// active installment for INSTALLMENT purchases, the full value otherwise.
func PeriodicValue(p models.Purchase, c *models.Creditor, now time.Time) decimal.Decimal {
	s, err := scheduleAt(p, c, now)
	if err != nil {
		return decimal.Zero
	}
	v, _ := periodicValue(p, s, now)
	return v
}

// periodicValue also returns the index of the period used, so splits of p
// can be valued at the same installment.
func periodicValue(p models.Purchase, s Schedule, now time.Time) (decimal.Decimal, int) {
	if p.PaymentType != models.PaymentInstallment || len(s.Periods) == 0 {
		return p.Value, 0
	}
	if active, ok := s.Active(now); ok {
		return active.Amount, active.Index
	}
	return s.Periods[0].Amount, 0
}

// splitValueAt values a split at installment idx of its parent's schedule.
func splitValueAt(child models.Purchase, idx int) decimal.Decimal {
	n := child.InstallmentCount()
	if n == 0 {
		return child.Value
	}
	amounts := InstallmentAmounts(child.Value, n)
	return amounts[min(idx, n-1)]
}
