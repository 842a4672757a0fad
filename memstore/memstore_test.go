package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/ledger"
	"github.com/satheeshds/invoicehub/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPurchase(owner uuid.UUID, date time.Time) models.Purchase {
	return models.Purchase{
		ID:           uuid.New(),
		OwnerID:      owner,
		PurchaseDate: date,
		Title:        "purchase",
		Value:        decimal.NewFromInt(10),
		PaymentType:  models.PaymentCash,
		PaidStatus:   models.StatusPending,
		Enabled:      true,
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := uuid.New()
	p := newPurchase(owner, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(q ledger.Querier) error {
		require.NoError(t, q.CreatePurchase(ctx, p))
		_, err := q.GetPurchase(ctx, p.ID)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetPurchase(ctx, p.ID)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := newPurchase(uuid.New(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, s.WithTx(ctx, func(q ledger.Querier) error {
		return q.CreatePurchase(ctx, p)
	}))
	got, err := s.GetPurchase(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := newPurchase(uuid.New(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.CreatePurchase(ctx, p))

	require.NoError(t, s.WithTx(ctx, func(q ledger.Querier) error {
		changed := p
		changed.Title = "changed"
		require.NoError(t, q.UpdatePurchase(ctx, changed))

		outside, err := s.GetPurchase(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "purchase", outside.Title)
		return nil
	}))

	got, err := s.GetPurchase(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Title)
}

func TestPagePurchasesOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := uuid.New()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	old := newPurchase(owner, day(1))
	mid := newPurchase(owner, day(10))
	recent := newPurchase(owner, day(20))
	split := newPurchase(owner, day(25))
	split.ParentID = &recent.ID
	disabled := newPurchase(owner, day(30))
	disabled.Enabled = false
	for _, p := range []models.Purchase{old, mid, recent, split, disabled, newPurchase(uuid.New(), day(5))} {
		require.NoError(t, s.CreatePurchase(ctx, p))
	}

	items, total, err := s.PagePurchases(ctx, owner, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, recent.ID, items[0].ID)
	assert.Equal(t, mid.ID, items[1].ID)

	items, _, err = s.PagePurchases(ctx, owner, 2, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, old.ID, items[0].ID)

	items, _, err = s.PagePurchases(ctx, owner, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, items)

	splits, err := s.ListSplits(ctx, recent.ID)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Equal(t, split.ID, splits[0].ID)

	all, err := s.ListPurchases(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestUserLookups(t *testing.T) {
	ctx := context.Background()
	s := New()
	alice := models.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	alfred := models.User{ID: uuid.New(), Username: "Alfred", Email: "alfred@example.com"}
	bob := models.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"}
	for _, u := range []models.User{alice, alfred, bob} {
		require.NoError(t, s.CreateUser(ctx, u))
	}

	assert.Error(t, s.CreateUser(ctx, models.User{ID: uuid.New(), Username: "alice", Email: "other@example.com"}))

	got, err := s.FindUserByLogin(ctx, "nobody", "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)

	found, err := s.SearchUsers(ctx, "AL", alice.ID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, alfred.ID, found[0].ID)

	others, err := s.ListUsers(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, others, 2)

	_, err = s.GetUserByUsername(ctx, "carol")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
