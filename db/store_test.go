package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/config"
	"github.com/satheeshds/invoicehub/ledger"
	"github.com/satheeshds/invoicehub/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStores opens every database configured for this run. DuckDB runs
// with TEST_DUCKDB=1, Postgres with TEST_DATABASE_URL.
func testStores(t *testing.T) map[string]*Store {
	t.Helper()
	stores := map[string]*Store{}

	if os.Getenv("TEST_DUCKDB") == "1" {
		cfg := config.DB{Driver: config.DriverDuckDB, Path: filepath.Join(t.TempDir(), "test.duckdb")}
		stores[cfg.Driver] = openStore(t, cfg)
	}
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		cfg := config.DB{Driver: config.DriverPostgres, URL: url}
		stores[cfg.Driver] = openStore(t, cfg)
	}
	if len(stores) == 0 {
		t.Skip("set TEST_DUCKDB=1 or TEST_DATABASE_URL to run database tests")
	}
	return stores
}

func openStore(t *testing.T, cfg config.DB) *Store {
	t.Helper()
	database, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, Migrate(database, cfg.Driver))
	return NewStore(database, cfg.Driver)
}

var stamp = time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC)

func seedUser(t *testing.T, s *Store) models.User {
	t.Helper()
	id := uuid.New()
	u := models.User{
		ID:           id,
		Name:         "Test",
		Lastname:     "User",
		Email:        id.String() + "@example.com",
		Username:     "u" + id.String()[:8],
		PasswordHash: "hash",
		CreatedAt:    stamp,
		UpdatedAt:    stamp,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedCreditor(t *testing.T, s *Store, owner uuid.UUID, name string) models.Creditor {
	t.Helper()
	limit := decimal.RequireFromString("1500.50")
	c := models.Creditor{
		ID:         uuid.New(),
		OwnerID:    owner,
		Type:       models.CreditorBank,
		Name:       name,
		DueDay:     31,
		LimitValue: &limit,
		Enabled:    true,
		CreatedAt:  stamp,
		UpdatedAt:  stamp,
	}
	require.NoError(t, s.CreateCreditor(context.Background(), c))
	return c
}

func seedPurchase(t *testing.T, q ledger.Querier, owner uuid.UUID, creditor, parent *uuid.UUID, date time.Time) models.Purchase {
	t.Helper()
	n := 3
	p := models.Purchase{
		ID:           uuid.New(),
		OwnerID:      owner,
		CreditorID:   creditor,
		PurchaseDate: date,
		Title:        "notebook",
		Value:        decimal.RequireFromString("300.10"),
		PaymentType:  models.PaymentInstallment,
		Installments: &n,
		PaidStatus:   models.StatusPending,
		Enabled:      true,
		ParentID:     parent,
		CreatedAt:    stamp,
		UpdatedAt:    stamp,
	}
	require.NoError(t, q.CreatePurchase(context.Background(), p))
	return p
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, s)

			got, err := s.GetUser(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, u.Username, got.Username)
			assert.Nil(t, got.SpendingLimit)
			assert.True(t, stamp.Equal(got.CreatedAt))

			c := seedCreditor(t, s, u.ID, "Nubank")
			gotC, err := s.GetCreditor(ctx, c.ID)
			require.NoError(t, err)
			require.NotNil(t, gotC.LimitValue)
			assert.True(t, c.LimitValue.Equal(*gotC.LimitValue))
			assert.Equal(t, 31, gotC.DueDay)
			assert.Nil(t, gotC.UserAsCreditorID)

			date := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
			p := seedPurchase(t, s, u.ID, &c.ID, nil, date)
			gotP, err := s.GetPurchase(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, date, gotP.PurchaseDate)
			assert.True(t, p.Value.Equal(gotP.Value))
			require.NotNil(t, gotP.Installments)
			assert.Equal(t, 3, *gotP.Installments)
			require.NotNil(t, gotP.CreditorID)
			assert.Equal(t, c.ID, *gotP.CreditorID)
			assert.Nil(t, gotP.ParentID)

			gotP.PaidStatus = models.StatusOverdue
			gotP.PaymentType = models.PaymentCash
			gotP.Installments = nil
			require.NoError(t, s.UpdatePurchase(ctx, gotP))
			again, err := s.GetPurchase(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusOverdue, again.PaidStatus)
			assert.Nil(t, again.Installments)
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.GetPurchase(ctx, uuid.New())
			assert.ErrorIs(t, err, ledger.ErrNotFound)
			_, err = s.GetCreditor(ctx, uuid.New())
			assert.ErrorIs(t, err, ledger.ErrNotFound)
			_, err = s.GetUserByUsername(ctx, "nobody-"+uuid.NewString())
			assert.ErrorIs(t, err, ledger.ErrNotFound)

			err = s.UpdatePurchase(ctx, models.Purchase{ID: uuid.New(), PaymentType: models.PaymentCash, PaidStatus: models.StatusPending, Value: decimal.NewFromInt(1)})
			assert.ErrorIs(t, err, ledger.ErrNotFound)
		})
	}
}

func TestStoreTransactions(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, s)
			date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

			boom := errors.New("boom")
			var rolledBack uuid.UUID
			err := s.WithTx(ctx, func(q ledger.Querier) error {
				rolledBack = seedPurchase(t, q, u.ID, nil, nil, date).ID
				return boom
			})
			assert.ErrorIs(t, err, boom)
			_, err = s.GetPurchase(ctx, rolledBack)
			assert.ErrorIs(t, err, ledger.ErrNotFound)

			var parent models.Purchase
			require.NoError(t, s.WithTx(ctx, func(q ledger.Querier) error {
				parent = seedPurchase(t, q, u.ID, nil, nil, date)
				locked, err := q.LockPurchase(ctx, parent.ID)
				require.NoError(t, err)
				assert.Equal(t, parent.ID, locked.ID)
				seedPurchase(t, q, u.ID, nil, &parent.ID, date)
				seedPurchase(t, q, u.ID, nil, &parent.ID, date)
				return nil
			}))

			splits, err := s.ListSplits(ctx, parent.ID)
			require.NoError(t, err)
			assert.Len(t, splits, 2)
		})
	}
}

func TestStoreListings(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			u := seedUser(t, s)
			other := seedUser(t, s)
			day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

			old := seedPurchase(t, s, u.ID, nil, nil, day(1))
			recent := seedPurchase(t, s, u.ID, nil, nil, day(20))
			seedPurchase(t, s, u.ID, nil, &recent.ID, day(20))
			seedPurchase(t, s, other.ID, nil, nil, day(5))

			items, total, err := s.PagePurchases(ctx, u.ID, 0, 1)
			require.NoError(t, err)
			assert.Equal(t, 2, total)
			require.Len(t, items, 1)
			assert.Equal(t, recent.ID, items[0].ID)

			items, _, err = s.PagePurchases(ctx, u.ID, 1, 1)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, old.ID, items[0].ID)

			all, err := s.ListPurchases(ctx, u.ID)
			require.NoError(t, err)
			assert.Len(t, all, 3)

			seedCreditor(t, s, u.ID, "b-store")
			seedCreditor(t, s, u.ID, "a-bank")
			creditors, total, err := s.PageCreditors(ctx, u.ID, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, 2, total)
			require.Len(t, creditors, 2)
			assert.Equal(t, "a-bank", creditors[0].Name)

			found, err := s.FindCreditorByName(ctx, u.ID, "b-store")
			require.NoError(t, err)
			assert.Equal(t, "b-store", found.Name)

			users, err := s.SearchUsers(ctx, other.Username[:4], u.ID)
			require.NoError(t, err)
			assert.NotEmpty(t, users)
			for _, got := range users {
				assert.NotEqual(t, u.ID, got.ID)
			}
		})
	}
}
