package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/billing"
	"github.com/satheeshds/invoicehub/models"
)

func (s *Service) snapshot(ctx context.Context, owner uuid.UUID) ([]models.Purchase, billing.Creditors, error) {
	purchases, err := s.store.ListPurchases(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	creditors, err := s.store.ListCreditors(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	return purchases, billing.NewCreditors(creditors), nil
}

func orEmpty[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

// ByCreditor reports what owner owes, and is owed, per creditor at now.
func (s *Service) ByCreditor(ctx context.Context, owner uuid.UUID, now time.Time) ([]billing.CreditorTotal, error) {
	purchases, creditors, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return orEmpty(billing.AggregateByCreditor(owner, purchases, creditors, now)), nil
}

// ByMonth reports the amounts falling due in each month of now's year.
func (s *Service) ByMonth(ctx context.Context, owner uuid.UUID, now time.Time) ([]billing.MonthTotal, error) {
	purchases, creditors, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return orEmpty(billing.AggregateByMonth(owner, purchases, creditors, now)), nil
}

// ByWeek reports the amounts falling due on each day of now's week.
func (s *Service) ByWeek(ctx context.Context, owner uuid.UUID, now time.Time) ([]billing.DayTotal, error) {
	purchases, creditors, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return orEmpty(billing.AggregateByWeek(owner, purchases, creditors, now)), nil
}

// ByPaymentType reports the current cycle's amounts per payment type.
func (s *Service) ByPaymentType(ctx context.Context, owner uuid.UUID, now time.Time) ([]billing.PaymentTypeTotal, error) {
	purchases, creditors, err := s.snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return orEmpty(billing.AggregateByPaymentType(owner, purchases, creditors, now)), nil
}
