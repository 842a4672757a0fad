package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/models"
)

// CreateCreditor adds a creditor for actor. A USER creditor must reference
// another existing user. Creating a creditor that already exists disabled
// re-enables it with the new details instead of duplicating it.
func (s *Service) CreateCreditor(ctx context.Context, actor uuid.UUID, in models.CreditorInput) (models.Creditor, error) {
	if msg := in.Validate(); msg != "" {
		return models.Creditor{}, validation(msg)
	}
	if in.UserAsCreditorID != nil && *in.UserAsCreditorID == actor {
		return models.Creditor{}, validation("you can't reference yourself")
	}

	var out models.Creditor
	err := s.store.WithTx(ctx, func(q Querier) error {
		var (
			existing models.Creditor
			err      error
		)
		if in.UserAsCreditorID != nil {
			if _, err := q.GetUser(ctx, *in.UserAsCreditorID); err != nil {
				return lookup(err, "user used as creditor was not found")
			}
			existing, err = q.FindUserCreditor(ctx, actor, *in.UserAsCreditorID)
		} else {
			existing, err = q.FindCreditorByName(ctx, actor, in.Name)
		}

		now := s.stamp()
		switch {
		case err == nil:
			if existing.Enabled {
				return validation("creditor already exists")
			}
			existing.Name = in.Name
			existing.DueDay = in.DueDay
			existing.LimitValue = in.LimitValue
			existing.Enabled = true
			existing.UpdatedAt = now
			if err := q.UpdateCreditor(ctx, existing); err != nil {
				return err
			}
			s.log.Info("creditor re-enabled", "creditor_id", existing.ID, "user_id", actor)
			out = existing
			return nil
		case !errors.Is(err, ErrNotFound):
			return err
		}

		out = models.Creditor{
			ID:               uuid.New(),
			OwnerID:          actor,
			Type:             in.Type,
			Name:             in.Name,
			DueDay:           in.DueDay,
			LimitValue:       in.LimitValue,
			Enabled:          true,
			UserAsCreditorID: in.UserAsCreditorID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return q.CreateCreditor(ctx, out)
	})
	return out, err
}

// UpdateCreditor applies a partial update to one of actor's creditors.
func (s *Service) UpdateCreditor(ctx context.Context, actor, id uuid.UUID, in models.CreditorUpdate) (models.Creditor, error) {
	if msg := in.Validate(); msg != "" {
		return models.Creditor{}, validation(msg)
	}
	var out models.Creditor
	err := s.store.WithTx(ctx, func(q Querier) error {
		c, err := ownedCreditor(ctx, q, actor, id)
		if err != nil {
			return err
		}
		if !c.Enabled {
			return inconsistent("creditor is disabled")
		}
		if in.Name != nil {
			c.Name = *in.Name
		}
		if in.DueDay != nil {
			c.DueDay = *in.DueDay
		}
		if in.LimitValue != nil {
			limit := *in.LimitValue
			c.LimitValue = &limit
		}
		c.UpdatedAt = s.stamp()
		out = c
		return q.UpdateCreditor(ctx, c)
	})
	return out, err
}

// DeleteCreditor disables one of actor's creditors.
func (s *Service) DeleteCreditor(ctx context.Context, actor, id uuid.UUID) error {
	return s.store.WithTx(ctx, func(q Querier) error {
		c, err := ownedCreditor(ctx, q, actor, id)
		if err != nil {
			return err
		}
		if !c.Enabled {
			return inconsistent("creditor is already disabled")
		}
		c.Enabled = false
		c.UpdatedAt = s.stamp()
		return q.UpdateCreditor(ctx, c)
	})
}

// ListCreditors returns a page of actor's enabled creditors.
func (s *Service) ListCreditors(ctx context.Context, actor uuid.UUID, page, size int) (models.Page[models.Creditor], error) {
	offset, err := pageBounds(page, size)
	if err != nil {
		return models.Page[models.Creditor]{}, err
	}
	items, total, err := s.store.PageCreditors(ctx, actor, offset, size)
	if err != nil {
		return models.Page[models.Creditor]{}, err
	}
	if items == nil {
		items = []models.Creditor{}
	}
	return models.Page[models.Creditor]{
		Items: items,
		Page:  page,
		Size:  size,
		Pages: pageCount(total, size),
		Total: total,
	}, nil
}

// CreditorList returns the short form of all of actor's enabled creditors.
func (s *Service) CreditorList(ctx context.Context, actor uuid.UUID) ([]models.CreditorBasic, error) {
	all, err := s.store.ListCreditors(ctx, actor)
	if err != nil {
		return nil, err
	}
	out := []models.CreditorBasic{}
	for _, c := range all {
		if c.Enabled {
			out = append(out, c.Basic())
		}
	}
	return out, nil
}
