// Package memstore is an in-memory ledger.Store. Committed data is an
// immutable snapshot; a transaction works on a private copy that replaces
// the snapshot on commit. Transactions run one at a time.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/ledger"
	"github.com/satheeshds/invoicehub/models"
)

type data struct {
	users     map[uuid.UUID]models.User
	creditors map[uuid.UUID]models.Creditor
	purchases map[uuid.UUID]models.Purchase
	// seq keeps purchase insertion order for stable listings.
	seq  map[uuid.UUID]int64
	next int64
}

func (d *data) clone() *data {
	return &data{
		users:     maps.Clone(d.users),
		creditors: maps.Clone(d.creditors),
		purchases: maps.Clone(d.purchases),
		seq:       maps.Clone(d.seq),
		next:      d.next,
	}
}

// Store keeps every record in memory.
type Store struct {
	tx sync.Mutex
	mu sync.RWMutex
	d  *data
}

// New returns an empty Store.
func New() *Store {
	return &Store{d: &data{
		users:     map[uuid.UUID]models.User{},
		creditors: map[uuid.UUID]models.Creditor{},
		purchases: map[uuid.UUID]models.Purchase{},
		seq:       map[uuid.UUID]int64{},
	}}
}

func (s *Store) snapshot() *data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.d
}

// WithTx runs fn on a copy of the data and commits the copy when fn
// returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(q ledger.Querier) error) error {
	s.tx.Lock()
	defer s.tx.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.snapshot().clone()
	if err := fn(work); err != nil {
		return err
	}

	s.mu.Lock()
	s.d = work
	s.mu.Unlock()
	return nil
}

func (s *Store) write(ctx context.Context, fn func(d *data) error) error {
	return s.WithTx(ctx, func(q ledger.Querier) error {
		return fn(q.(*data))
	})
}

func notFound(kind string, id any) error {
	return fmt.Errorf("%s %v: %w", kind, id, ledger.ErrNotFound)
}

// Users

func (d *data) CreateUser(_ context.Context, u models.User) error {
	if _, ok := d.users[u.ID]; ok {
		return fmt.Errorf("user %s already exists", u.ID)
	}
	for _, other := range d.users {
		if other.Username == u.Username || other.Email == u.Email {
			return fmt.Errorf("user %q already exists", u.Username)
		}
	}
	d.users[u.ID] = u
	return nil
}

func (d *data) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return u, notFound("user", id)
	}
	return u, nil
}

func (d *data) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	for _, u := range d.sortedUsers() {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, notFound("user", username)
}

func (d *data) FindUserByLogin(_ context.Context, username, email string) (models.User, error) {
	for _, u := range d.sortedUsers() {
		if u.Username == username || u.Email == email {
			return u, nil
		}
	}
	return models.User{}, notFound("user", username)
}

func (d *data) ListUsers(_ context.Context, exclude uuid.UUID) ([]models.User, error) {
	out := []models.User{}
	for _, u := range d.sortedUsers() {
		if u.ID != exclude {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *data) SearchUsers(_ context.Context, term string, exclude uuid.UUID) ([]models.User, error) {
	term = strings.ToLower(term)
	out := []models.User{}
	for _, u := range d.sortedUsers() {
		if u.ID != exclude && strings.Contains(strings.ToLower(u.Username), term) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *data) sortedUsers() []models.User {
	var out []models.User
	for _, u := range d.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b models.User) int {
		return cmp.Compare(a.Username, b.Username)
	})
	return out
}

// Creditors

func (d *data) CreateCreditor(_ context.Context, c models.Creditor) error {
	if _, ok := d.creditors[c.ID]; ok {
		return fmt.Errorf("creditor %s already exists", c.ID)
	}
	d.creditors[c.ID] = c
	return nil
}

func (d *data) UpdateCreditor(_ context.Context, c models.Creditor) error {
	if _, ok := d.creditors[c.ID]; !ok {
		return notFound("creditor", c.ID)
	}
	d.creditors[c.ID] = c
	return nil
}

func (d *data) GetCreditor(_ context.Context, id uuid.UUID) (models.Creditor, error) {
	c, ok := d.creditors[id]
	if !ok {
		return c, notFound("creditor", id)
	}
	return c, nil
}

func (d *data) FindUserCreditor(_ context.Context, owner, counterpart uuid.UUID) (models.Creditor, error) {
	for _, c := range d.ownedCreditors(owner) {
		if c.UserAsCreditorID != nil && *c.UserAsCreditorID == counterpart {
			return c, nil
		}
	}
	return models.Creditor{}, notFound("creditor for user", counterpart)
}

func (d *data) FindCreditorByName(_ context.Context, owner uuid.UUID, name string) (models.Creditor, error) {
	for _, c := range d.ownedCreditors(owner) {
		if c.Type != models.CreditorUser && c.Name == name {
			return c, nil
		}
	}
	return models.Creditor{}, notFound("creditor", name)
}

func (d *data) ListCreditors(_ context.Context, owner uuid.UUID) ([]models.Creditor, error) {
	return d.ownedCreditors(owner), nil
}

func (d *data) PageCreditors(_ context.Context, owner uuid.UUID, offset, limit int) ([]models.Creditor, int, error) {
	var enabled []models.Creditor
	for _, c := range d.ownedCreditors(owner) {
		if c.Enabled {
			enabled = append(enabled, c)
		}
	}
	return page(enabled, offset, limit), len(enabled), nil
}

func (d *data) ownedCreditors(owner uuid.UUID) []models.Creditor {
	out := []models.Creditor{}
	for _, c := range d.creditors {
		if c.OwnerID == owner {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b models.Creditor) int {
		if n := cmp.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// Purchases

func (d *data) CreatePurchase(_ context.Context, p models.Purchase) error {
	if _, ok := d.purchases[p.ID]; ok {
		return fmt.Errorf("purchase %s already exists", p.ID)
	}
	d.next++
	d.seq[p.ID] = d.next
	d.purchases[p.ID] = p
	return nil
}

func (d *data) UpdatePurchase(_ context.Context, p models.Purchase) error {
	if _, ok := d.purchases[p.ID]; !ok {
		return notFound("purchase", p.ID)
	}
	d.purchases[p.ID] = p
	return nil
}

func (d *data) GetPurchase(_ context.Context, id uuid.UUID) (models.Purchase, error) {
	p, ok := d.purchases[id]
	if !ok {
		return p, notFound("purchase", id)
	}
	return p, nil
}

// LockPurchase is GetPurchase: transactions already run one at a time.
func (d *data) LockPurchase(ctx context.Context, id uuid.UUID) (models.Purchase, error) {
	return d.GetPurchase(ctx, id)
}

func (d *data) ListPurchases(_ context.Context, owner uuid.UUID) ([]models.Purchase, error) {
	return d.filterPurchases(func(p models.Purchase) bool {
		return p.OwnerID == owner && p.Enabled
	}, d.newestFirst), nil
}

func (d *data) PagePurchases(_ context.Context, owner uuid.UUID, offset, limit int) ([]models.Purchase, int, error) {
	all := d.filterPurchases(func(p models.Purchase) bool {
		return p.OwnerID == owner && p.Enabled && !p.IsSplit()
	}, d.newestFirst)
	return page(all, offset, limit), len(all), nil
}

func (d *data) ListSplits(_ context.Context, parent uuid.UUID) ([]models.Purchase, error) {
	return d.filterPurchases(func(p models.Purchase) bool {
		return p.Enabled && p.ParentID != nil && *p.ParentID == parent
	}, d.inserted), nil
}

func (d *data) ListSweepCandidates(_ context.Context) ([]models.Purchase, error) {
	return d.filterPurchases(func(p models.Purchase) bool {
		return p.Enabled && !p.IsSplit() && p.PaidStatus == models.StatusPending &&
			(p.PaymentType == models.PaymentCash || p.PaymentType == models.PaymentInstallment)
	}, d.inserted), nil
}

func (d *data) filterPurchases(keep func(models.Purchase) bool, order func(a, b models.Purchase) int) []models.Purchase {
	out := []models.Purchase{}
	for _, p := range d.purchases {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, order)
	return out
}

func (d *data) inserted(a, b models.Purchase) int {
	return cmp.Compare(d.seq[a.ID], d.seq[b.ID])
}

func (d *data) newestFirst(a, b models.Purchase) int {
	if n := b.PurchaseDate.Compare(a.PurchaseDate); n != 0 {
		return n
	}
	return cmp.Compare(d.seq[b.ID], d.seq[a.ID])
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := min(offset+limit, len(items))
	return slices.Clone(items[offset:end])
}

var _ ledger.Querier = (*data)(nil)
