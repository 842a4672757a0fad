package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/billing"
	"github.com/satheeshds/invoicehub/models"
	"github.com/shopspring/decimal"
)

// CreatePurchase records a purchase for actor together with its external
// payments. Everything is written in one transaction.
func (s *Service) CreatePurchase(ctx context.Context, actor uuid.UUID, in models.PurchaseInput) (models.PurchaseView, error) {
	if msg := in.Validate(); msg != "" {
		return models.PurchaseView{}, validation(msg)
	}

	var p models.Purchase
	err := s.store.WithTx(ctx, func(q Querier) error {
		if in.CreditorID != nil {
			if _, err := usableCreditor(ctx, q, actor, *in.CreditorID); err != nil {
				return err
			}
		}
		creditors, err := resolveSplitCreditors(ctx, q, actor, in.ExternalPayments)
		if err != nil {
			return err
		}
		total := decimal.Zero
		for _, split := range in.ExternalPayments {
			total = total.Add(split.Value)
		}
		if total.GreaterThan(in.Value) {
			return errSplitTotal
		}

		now := s.stamp()
		p = models.Purchase{
			ID:           uuid.New(),
			OwnerID:      actor,
			CreditorID:   in.CreditorID,
			PurchaseDate: in.Date(),
			Title:        in.Title,
			Value:        in.Value,
			PaymentType:  in.PaymentType,
			Installments: in.Installments,
			PaidStatus:   in.PaidStatus,
			Enabled:      true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := q.CreatePurchase(ctx, p); err != nil {
			return err
		}
		for i, split := range in.ExternalPayments {
			if _, err := s.addSplit(ctx, q, p, creditors[i], split.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.PurchaseView{}, err
	}
	s.log.Info("purchase created", "purchase_id", p.ID, "user_id", actor, "payment_type", p.PaymentType, "splits", len(in.ExternalPayments))
	return s.view(ctx, s.store, p)
}

// GetPurchase returns one of actor's purchases with its schedule progress.
func (s *Service) GetPurchase(ctx context.Context, actor, id uuid.UUID) (models.PurchaseView, error) {
	p, err := ownedPurchase(ctx, s.store, actor, id, false)
	if err != nil {
		return models.PurchaseView{}, err
	}
	return s.view(ctx, s.store, p)
}

// ListPurchases returns a page of actor's enabled top-level purchases,
// newest first.
func (s *Service) ListPurchases(ctx context.Context, actor uuid.UUID, page, size int) (models.Page[models.PurchaseView], error) {
	offset, err := pageBounds(page, size)
	if err != nil {
		return models.Page[models.PurchaseView]{}, err
	}
	items, total, err := s.store.PagePurchases(ctx, actor, offset, size)
	if err != nil {
		return models.Page[models.PurchaseView]{}, err
	}
	all, err := s.store.ListCreditors(ctx, actor)
	if err != nil {
		return models.Page[models.PurchaseView]{}, err
	}
	creditors := billing.NewCreditors(all)
	now := s.clock.Now()

	views := make([]models.PurchaseView, 0, len(items))
	for _, p := range items {
		splits, err := s.store.ListSplits(ctx, p.ID)
		if err != nil {
			return models.Page[models.PurchaseView]{}, err
		}
		views = append(views, purchaseView(p, splits, creditors, now))
	}
	return models.Page[models.PurchaseView]{
		Items: views,
		Page:  page,
		Size:  size,
		Pages: pageCount(total, size),
		Total: total,
	}, nil
}

// GetSchedule expands one of actor's purchases into its periods. A zero
// horizon uses the default (December 31 of the purchase year for FIXED).
func (s *Service) GetSchedule(ctx context.Context, actor, id uuid.UUID, horizon time.Time) (billing.Schedule, error) {
	p, err := ownedPurchase(ctx, s.store, actor, id, false)
	if err != nil {
		return billing.Schedule{}, err
	}
	c, err := purchaseCreditor(ctx, s.store, p)
	if err != nil {
		return billing.Schedule{}, err
	}
	sched, err := billing.GenerateSchedule(p, c, horizon)
	if err != nil {
		return billing.Schedule{}, validation(err.Error())
	}
	return sched, nil
}

// UpdatePurchase applies a partial update to a top-level purchase. A
// non-nil ExternalPayments replaces its splits; otherwise the existing
// splits are kept in step with the new purchase fields and must still fit
// inside the new value.
func (s *Service) UpdatePurchase(ctx context.Context, actor, id uuid.UUID, in models.PurchaseUpdate) (models.PurchaseView, error) {
	if msg := in.Validate(); msg != "" {
		return models.PurchaseView{}, validation(msg)
	}

	var p models.Purchase
	err := s.store.WithTx(ctx, func(q Querier) error {
		var err error
		p, err = ownedPurchase(ctx, q, actor, id, true)
		if err != nil {
			return err
		}
		if p.IsSplit() {
			return validation("splits are changed through their parent purchase")
		}
		if in.CreditorID != nil {
			if _, err := usableCreditor(ctx, q, actor, *in.CreditorID); err != nil {
				return err
			}
		}
		if msg := in.Apply(&p); msg != "" {
			return validation(msg)
		}
		p.UpdatedAt = s.stamp()
		if err := q.UpdatePurchase(ctx, p); err != nil {
			return err
		}

		if in.ExternalPayments != nil {
			return s.editSplits(ctx, q, actor, p, in.ExternalPayments)
		}
		splits, err := q.ListSplits(ctx, p.ID)
		if err != nil {
			return err
		}
		if splitTotal(splits).GreaterThan(p.Value) {
			return errSplitTotal
		}
		for _, sp := range splits {
			copyParent(&sp, p)
			sp.UpdatedAt = p.UpdatedAt
			if err := q.UpdatePurchase(ctx, sp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.PurchaseView{}, err
	}
	return s.view(ctx, s.store, p)
}

// DeletePurchase disables a purchase and all of its splits.
func (s *Service) DeletePurchase(ctx context.Context, actor, id uuid.UUID) error {
	return s.store.WithTx(ctx, func(q Querier) error {
		p, err := ownedPurchase(ctx, q, actor, id, true)
		if err != nil {
			return err
		}
		splits, err := q.ListSplits(ctx, p.ID)
		if err != nil {
			return err
		}
		now := s.stamp()
		for _, sp := range splits {
			sp.Enabled = false
			sp.UpdatedAt = now
			if err := q.UpdatePurchase(ctx, sp); err != nil {
				return err
			}
		}
		p.Enabled = false
		p.UpdatedAt = now
		if err := q.UpdatePurchase(ctx, p); err != nil {
			return err
		}
		s.log.Info("purchase deleted", "purchase_id", p.ID, "splits", len(splits))
		return nil
	})
}

// MarkPaid marks the given purchases and their splits as PAID. Either all
// of them change or none does.
func (s *Service) MarkPaid(ctx context.Context, actor uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return validation("ids is required")
	}
	return s.store.WithTx(ctx, func(q Querier) error {
		for _, id := range ids {
			p, err := ownedPurchase(ctx, q, actor, id, true)
			if err != nil {
				return err
			}
			if err := s.setStatus(ctx, q, p, models.StatusPaid); err != nil {
				return err
			}
		}
		return nil
	})
}

// setStatus moves p and its splits to status. Splits already PAID are left
// alone.
func (s *Service) setStatus(ctx context.Context, q Querier, p models.Purchase, status models.PaidStatus) error {
	now := s.stamp()
	splits, err := q.ListSplits(ctx, p.ID)
	if err != nil {
		return err
	}
	for _, sp := range splits {
		if sp.PaidStatus == models.StatusPaid || sp.PaidStatus == status {
			continue
		}
		sp.PaidStatus = status
		sp.UpdatedAt = now
		if err := q.UpdatePurchase(ctx, sp); err != nil {
			return err
		}
	}
	p.PaidStatus = status
	p.UpdatedAt = now
	return q.UpdatePurchase(ctx, p)
}

// purchaseCreditor returns the creditor of p, or nil when it has none.
func purchaseCreditor(ctx context.Context, q Querier, p models.Purchase) (*models.Creditor, error) {
	if p.CreditorID == nil {
		return nil, nil
	}
	c, err := q.GetCreditor(ctx, *p.CreditorID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) view(ctx context.Context, q Querier, p models.Purchase) (models.PurchaseView, error) {
	all, err := q.ListCreditors(ctx, p.OwnerID)
	if err != nil {
		return models.PurchaseView{}, err
	}
	splits, err := q.ListSplits(ctx, p.ID)
	if err != nil {
		return models.PurchaseView{}, err
	}
	return purchaseView(p, splits, billing.NewCreditors(all), s.clock.Now()), nil
}

func purchaseView(p models.Purchase, splits []models.Purchase, creditors billing.Creditors, now time.Time) models.PurchaseView {
	c := creditors.For(p)
	v := models.PurchaseView{
		Purchase:         p,
		InstallmentsPaid: billing.InstallmentsPaid(p, c, now),
		ExternalPayments: []models.ExternalPayment{},
	}
	if c != nil {
		basic := c.Basic()
		v.Creditor = &basic
	}
	if sched, err := billing.GenerateSchedule(p, c, time.Time{}); err == nil {
		if final, ok := sched.Final(); ok {
			v.LastPaymentDate = final.DueDate
		}
		if p.PaymentType == models.PaymentInstallment {
			amount := sched.Periods[0].Amount
			v.InstallmentValue = &amount
		}
	}
	for _, sp := range splits {
		ep := models.ExternalPayment{ID: sp.ID, Value: sp.Value}
		if sc := creditors.For(sp); sc != nil {
			ep.Creditor = sc.Basic()
		}
		v.ExternalPayments = append(v.ExternalPayments, ep)
	}
	return v
}
