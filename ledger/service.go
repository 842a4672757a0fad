// Package ledger implements the operations behind the API: users, creditors,
// purchases with their external-payment splits, the overdue sweep and the
// analytics reports. Storage is reached only through Store and time only
// through a clock.Clock.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/clock"
	"github.com/satheeshds/invoicehub/models"
)

// Service runs ledger operations against a Store.
type Service struct {
	store Store
	clock clock.Clock
	log   *slog.Logger
}

// NewService returns a Service. A nil logger falls back to slog.Default().
func NewService(store Store, clk clock.Clock, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, clock: clk, log: logger.With("component", "ledger")}
}

// Now returns the service's reference time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

func (s *Service) stamp() time.Time {
	return s.clock.Now().UTC()
}

func pageBounds(page, size int) (int, error) {
	if page < 0 {
		return 0, validation("page must be zero or greater")
	}
	if size <= 0 {
		return 0, validation("size must be greater than zero")
	}
	return page * size, nil
}

func pageCount(total, size int) int {
	return (total + size - 1) / size
}

// ownedCreditor loads a creditor and checks actor owns it.
func ownedCreditor(ctx context.Context, q Querier, actor, id uuid.UUID) (models.Creditor, error) {
	c, err := q.GetCreditor(ctx, id)
	if err != nil {
		return c, lookup(err, "creditor not found")
	}
	if c.OwnerID != actor {
		return c, forbidden("you do not have permission to use this creditor")
	}
	return c, nil
}

// usableCreditor is ownedCreditor for creditors a purchase is about to
// reference, which must also be enabled.
func usableCreditor(ctx context.Context, q Querier, actor, id uuid.UUID) (models.Creditor, error) {
	c, err := q.GetCreditor(ctx, id)
	if err != nil {
		return c, lookup(err, "the creditor provided does not exist")
	}
	if c.OwnerID != actor {
		return c, forbidden("you are not allowed to use this creditor")
	}
	if !c.Enabled {
		return c, inconsistent("unavailable creditor")
	}
	return c, nil
}

// ownedPurchase loads a purchase, locking it when lock is set, and checks
// actor owns it and it is still enabled.
func ownedPurchase(ctx context.Context, q Querier, actor, id uuid.UUID, lock bool) (models.Purchase, error) {
	get := q.GetPurchase
	if lock {
		get = q.LockPurchase
	}
	p, err := get(ctx, id)
	if err != nil {
		return p, lookup(err, "purchase not found")
	}
	if p.OwnerID != actor {
		return p, forbidden("you do not have permission to access this purchase")
	}
	if !p.Enabled {
		return p, inconsistent("purchase is disabled")
	}
	return p, nil
}
