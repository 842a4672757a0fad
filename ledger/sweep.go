package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/billing"
	"github.com/satheeshds/invoicehub/models"
)

// Overdue is a purchase the sweep moved to OVERDUE. DueDate is the final
// due date it missed.
type Overdue struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	PurchaseDate time.Time `json:"purchase_date"`
	DueDate      time.Time `json:"date"`
}

// SweepOverdue marks as OVERDUE every PENDING top-level CASH or INSTALLMENT
// purchase whose final period fell due before now, together with its
// splits. Each purchase is updated in its own transaction; running the sweep
// again with the same now changes nothing.
func (s *Service) SweepOverdue(ctx context.Context, now time.Time) ([]Overdue, error) {
	candidates, err := s.store.ListSweepCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sweep candidates: %w", err)
	}

	creditors := make(map[uuid.UUID]*models.Creditor)
	out := []Overdue{}
	for _, p := range candidates {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		c, err := s.cachedCreditor(ctx, creditors, p)
		if err != nil {
			return out, err
		}
		if !billing.EligibleForSweep(p, c, now) {
			continue
		}

		swept := false
		err = s.store.WithTx(ctx, func(q Querier) error {
			cur, err := q.LockPurchase(ctx, p.ID)
			if err != nil {
				return err
			}
			if !billing.EligibleForSweep(cur, c, now) {
				return nil
			}
			swept = true
			return s.setStatus(ctx, q, cur, models.StatusOverdue)
		})
		if err != nil {
			return out, fmt.Errorf("sweeping purchase %s: %w", p.ID, err)
		}
		if !swept {
			continue
		}

		sched, _ := billing.GenerateSchedule(p, c, time.Time{})
		final, _ := sched.Final()
		out = append(out, Overdue{ID: p.ID, Title: p.Title, PurchaseDate: p.PurchaseDate, DueDate: final.DueDate})
		s.log.Debug("purchase overdue", "purchase_id", p.ID, "due_date", final.DueDate.Format(models.DateLayout))
	}

	s.log.Info("overdue sweep finished", "checked", len(candidates), "marked", len(out), "date", billing.Date(now).Format(models.DateLayout))
	return out, nil
}

func (s *Service) cachedCreditor(ctx context.Context, cache map[uuid.UUID]*models.Creditor, p models.Purchase) (*models.Creditor, error) {
	if p.CreditorID == nil {
		return nil, nil
	}
	if c, ok := cache[*p.CreditorID]; ok {
		return c, nil
	}
	c, err := purchaseCreditor(ctx, s.store, p)
	if err != nil {
		return nil, err
	}
	cache[*p.CreditorID] = c
	return c, nil
}
