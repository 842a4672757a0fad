package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/models"
	"github.com/shopspring/decimal"
)

var errSplitTotal = validation("shared payment cannot be greater than the purchase amount")

// resolveSplitCreditors loads the creditor of every split input. Each must
// be one of actor's enabled creditors and appear only once.
func resolveSplitCreditors(ctx context.Context, q Querier, actor uuid.UUID, in []models.SplitInput) ([]models.Creditor, error) {
	out := make([]models.Creditor, 0, len(in))
	seen := make(map[uuid.UUID]bool, len(in))
	for _, split := range in {
		if seen[split.CreditorID] {
			return nil, validation("creditor duplicated")
		}
		seen[split.CreditorID] = true
		c, err := usableCreditor(ctx, q, actor, split.CreditorID)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func splitTotal(splits []models.Purchase) decimal.Decimal {
	total := decimal.Zero
	for _, sp := range splits {
		total = total.Add(sp.Value)
	}
	return total
}

// copyParent makes child carry the fields every split shares with its
// parent.
func copyParent(child *models.Purchase, parent models.Purchase) {
	child.PurchaseDate = parent.PurchaseDate
	child.Title = parent.Title
	child.PaymentType = parent.PaymentType
	child.Installments = parent.Installments
}

// addSplit writes the child purchase of parent for creditor c and, when c is
// another user, the mirrored creditor and purchase on that user's ledger.
// The caller has already checked the split total.
func (s *Service) addSplit(ctx context.Context, q Querier, parent models.Purchase, c models.Creditor, value decimal.Decimal) (models.Purchase, error) {
	now := s.stamp()
	parentID := parent.ID
	creditorID := c.ID
	child := models.Purchase{
		ID:         uuid.New(),
		OwnerID:    parent.OwnerID,
		CreditorID: &creditorID,
		Value:      value,
		PaidStatus: parent.PaidStatus,
		Enabled:    true,
		ParentID:   &parentID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	copyParent(&child, parent)
	if err := q.CreatePurchase(ctx, child); err != nil {
		return models.Purchase{}, err
	}
	s.log.Info("split recorded", "purchase_id", parent.ID, "split_id", child.ID, "creditor_id", c.ID, "value", value)

	if c.Type != models.CreditorUser || c.UserAsCreditorID == nil {
		return child, nil
	}
	if err := s.mirror(ctx, q, parent, c, child); err != nil {
		return models.Purchase{}, err
	}
	return child, nil
}

// mirror records child as a receivable on the ledger of the user behind c:
// that user gets (or gets back) a USER creditor pointing at the owner, and a
// purchase owed by that creditor.
func (s *Service) mirror(ctx context.Context, q Querier, parent models.Purchase, c models.Creditor, child models.Purchase) error {
	counterpart := *c.UserAsCreditorID
	owner, err := q.GetUser(ctx, parent.OwnerID)
	if err != nil {
		return lookup(err, "purchase owner not found")
	}

	dueDay := c.DueDay
	if parent.CreditorID != nil {
		pc, err := q.GetCreditor(ctx, *parent.CreditorID)
		if err != nil {
			return lookup(err, "the creditor provided does not exist")
		}
		dueDay = pc.DueDay
	}

	now := s.stamp()
	back, err := q.FindUserCreditor(ctx, counterpart, owner.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		ownerID := owner.ID
		back = models.Creditor{
			ID:               uuid.New(),
			OwnerID:          counterpart,
			Type:             models.CreditorUser,
			Name:             owner.Username,
			DueDay:           dueDay,
			Enabled:          true,
			UserAsCreditorID: &ownerID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := q.CreateCreditor(ctx, back); err != nil {
			return err
		}
		s.log.Info("mirror creditor created", "creditor_id", back.ID, "user_id", counterpart)
	case err != nil:
		return err
	case !back.Enabled:
		back.Enabled = true
		back.UpdatedAt = now
		if err := q.UpdateCreditor(ctx, back); err != nil {
			return err
		}
		s.log.Info("mirror creditor re-enabled", "creditor_id", back.ID, "user_id", counterpart)
	}

	backID := back.ID
	mirrored := models.Purchase{
		ID:         uuid.New(),
		OwnerID:    counterpart,
		CreditorID: &backID,
		Value:      child.Value,
		PaidStatus: child.PaidStatus,
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	copyParent(&mirrored, parent)
	if err := q.CreatePurchase(ctx, mirrored); err != nil {
		return err
	}
	s.log.Info("mirror purchase created", "purchase_id", mirrored.ID, "user_id", counterpart, "split_id", child.ID)
	return nil
}

// lockParent locks a purchase that is about to get splits. Splits of splits
// are not allowed.
func lockParent(ctx context.Context, q Querier, actor, id uuid.UUID) (models.Purchase, error) {
	p, err := ownedPurchase(ctx, q, actor, id, true)
	if err != nil {
		return p, err
	}
	if p.IsSplit() {
		return p, validation("a split cannot be split again")
	}
	return p, nil
}

// RecordSplit adds one external payment to an existing purchase. It fails
// when the existing splits plus the new value would exceed the purchase
// value.
func (s *Service) RecordSplit(ctx context.Context, actor, parentID uuid.UUID, in models.SplitInput) (models.Purchase, error) {
	if msg := in.Validate(); msg != "" {
		return models.Purchase{}, validation(msg)
	}
	var out models.Purchase
	err := s.store.WithTx(ctx, func(q Querier) error {
		parent, err := lockParent(ctx, q, actor, parentID)
		if err != nil {
			return err
		}
		c, err := usableCreditor(ctx, q, actor, in.CreditorID)
		if err != nil {
			return err
		}
		existing, err := q.ListSplits(ctx, parent.ID)
		if err != nil {
			return err
		}
		for _, sp := range existing {
			if sp.CreditorID != nil && *sp.CreditorID == c.ID {
				return validation("creditor duplicated")
			}
		}
		if splitTotal(existing).Add(in.Value).GreaterThan(parent.Value) {
			return errSplitTotal
		}
		out, err = s.addSplit(ctx, q, parent, c, in.Value)
		return err
	})
	return out, err
}

// EditSplits replaces the splits of a purchase with in. Inputs carrying an
// id update that split, inputs without one create a new split, and
// existing splits missing from in are disabled. The new total must not
// exceed the purchase value.
func (s *Service) EditSplits(ctx context.Context, actor, parentID uuid.UUID, in []models.SplitInput) (models.PurchaseView, error) {
	for i := range in {
		if msg := in[i].Validate(); msg != "" {
			return models.PurchaseView{}, validation(msg)
		}
	}
	var parent models.Purchase
	err := s.store.WithTx(ctx, func(q Querier) error {
		var err error
		parent, err = lockParent(ctx, q, actor, parentID)
		if err != nil {
			return err
		}
		return s.editSplits(ctx, q, actor, parent, in)
	})
	if err != nil {
		return models.PurchaseView{}, err
	}
	return s.view(ctx, s.store, parent)
}

func (s *Service) editSplits(ctx context.Context, q Querier, actor uuid.UUID, parent models.Purchase, in []models.SplitInput) error {
	creditors, err := resolveSplitCreditors(ctx, q, actor, in)
	if err != nil {
		return err
	}
	existing, err := q.ListSplits(ctx, parent.ID)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]models.Purchase, len(existing))
	for _, sp := range existing {
		byID[sp.ID] = sp
	}

	total := decimal.Zero
	keep := make(map[uuid.UUID]bool, len(in))
	for _, split := range in {
		if split.ID != nil {
			if _, ok := byID[*split.ID]; !ok {
				return notFound("external payment not found")
			}
			keep[*split.ID] = true
		}
		total = total.Add(split.Value)
	}
	if total.GreaterThan(parent.Value) {
		return errSplitTotal
	}

	now := s.stamp()
	for _, sp := range existing {
		if keep[sp.ID] {
			continue
		}
		sp.Enabled = false
		sp.UpdatedAt = now
		if err := q.UpdatePurchase(ctx, sp); err != nil {
			return err
		}
		s.log.Info("split removed", "purchase_id", parent.ID, "split_id", sp.ID)
	}

	for i, split := range in {
		if split.ID == nil {
			if _, err := s.addSplit(ctx, q, parent, creditors[i], split.Value); err != nil {
				return err
			}
			continue
		}
		sp := byID[*split.ID]
		creditorID := creditors[i].ID
		sp.CreditorID = &creditorID
		sp.Value = split.Value
		sp.UpdatedAt = now
		copyParent(&sp, parent)
		if err := q.UpdatePurchase(ctx, sp); err != nil {
			return err
		}
	}
	return nil
}
