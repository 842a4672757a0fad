package memstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/ledger"
	"github.com/satheeshds/invoicehub/models"
)

// Reads outside a transaction see the last committed snapshot. Writes
// outside a transaction run in one of their own.

func (s *Store) CreateUser(ctx context.Context, u models.User) error {
	return s.write(ctx, func(d *data) error { return d.CreateUser(ctx, u) })
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	return s.snapshot().GetUser(ctx, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.snapshot().GetUserByUsername(ctx, username)
}

func (s *Store) FindUserByLogin(ctx context.Context, username, email string) (models.User, error) {
	return s.snapshot().FindUserByLogin(ctx, username, email)
}

func (s *Store) ListUsers(ctx context.Context, exclude uuid.UUID) ([]models.User, error) {
	return s.snapshot().ListUsers(ctx, exclude)
}

func (s *Store) SearchUsers(ctx context.Context, term string, exclude uuid.UUID) ([]models.User, error) {
	return s.snapshot().SearchUsers(ctx, term, exclude)
}

func (s *Store) CreateCreditor(ctx context.Context, c models.Creditor) error {
	return s.write(ctx, func(d *data) error { return d.CreateCreditor(ctx, c) })
}

func (s *Store) UpdateCreditor(ctx context.Context, c models.Creditor) error {
	return s.write(ctx, func(d *data) error { return d.UpdateCreditor(ctx, c) })
}

func (s *Store) GetCreditor(ctx context.Context, id uuid.UUID) (models.Creditor, error) {
	return s.snapshot().GetCreditor(ctx, id)
}

func (s *Store) FindUserCreditor(ctx context.Context, owner, counterpart uuid.UUID) (models.Creditor, error) {
	return s.snapshot().FindUserCreditor(ctx, owner, counterpart)
}

func (s *Store) FindCreditorByName(ctx context.Context, owner uuid.UUID, name string) (models.Creditor, error) {
	return s.snapshot().FindCreditorByName(ctx, owner, name)
}

func (s *Store) ListCreditors(ctx context.Context, owner uuid.UUID) ([]models.Creditor, error) {
	return s.snapshot().ListCreditors(ctx, owner)
}

func (s *Store) PageCreditors(ctx context.Context, owner uuid.UUID, offset, limit int) ([]models.Creditor, int, error) {
	return s.snapshot().PageCreditors(ctx, owner, offset, limit)
}

func (s *Store) CreatePurchase(ctx context.Context, p models.Purchase) error {
	return s.write(ctx, func(d *data) error { return d.CreatePurchase(ctx, p) })
}

func (s *Store) UpdatePurchase(ctx context.Context, p models.Purchase) error {
	return s.write(ctx, func(d *data) error { return d.UpdatePurchase(ctx, p) })
}

func (s *Store) GetPurchase(ctx context.Context, id uuid.UUID) (models.Purchase, error) {
	return s.snapshot().GetPurchase(ctx, id)
}

func (s *Store) LockPurchase(ctx context.Context, id uuid.UUID) (models.Purchase, error) {
	return s.snapshot().LockPurchase(ctx, id)
}

func (s *Store) ListPurchases(ctx context.Context, owner uuid.UUID) ([]models.Purchase, error) {
	return s.snapshot().ListPurchases(ctx, owner)
}

func (s *Store) PagePurchases(ctx context.Context, owner uuid.UUID, offset, limit int) ([]models.Purchase, int, error) {
	return s.snapshot().PagePurchases(ctx, owner, offset, limit)
}

func (s *Store) ListSplits(ctx context.Context, parent uuid.UUID) ([]models.Purchase, error) {
	return s.snapshot().ListSplits(ctx, parent)
}

func (s *Store) ListSweepCandidates(ctx context.Context) ([]models.Purchase, error) {
	return s.snapshot().ListSweepCandidates(ctx)
}

var _ ledger.Store = (*Store)(nil)
