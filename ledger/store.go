package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/models"
)

// Querier reads and writes ledger records. Lookups of a single record return
// an error wrapping ErrNotFound when it does not exist.
type Querier interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	// FindUserByLogin returns a user whose username or email matches.
	FindUserByLogin(ctx context.Context, username, email string) (models.User, error)
	// ListUsers returns every user except exclude, ordered by username.
	ListUsers(ctx context.Context, exclude uuid.UUID) ([]models.User, error)
	// SearchUsers matches term case-insensitively inside usernames.
	SearchUsers(ctx context.Context, term string, exclude uuid.UUID) ([]models.User, error)

	CreateCreditor(ctx context.Context, c models.Creditor) error
	UpdateCreditor(ctx context.Context, c models.Creditor) error
	GetCreditor(ctx context.Context, id uuid.UUID) (models.Creditor, error)
	// FindUserCreditor returns owner's creditor standing for user counterpart,
	// enabled or not.
	FindUserCreditor(ctx context.Context, owner, counterpart uuid.UUID) (models.Creditor, error)
	// FindCreditorByName returns owner's non-USER creditor called name,
	// enabled or not.
	FindCreditorByName(ctx context.Context, owner uuid.UUID, name string) (models.Creditor, error)
	// ListCreditors returns all of owner's creditors, disabled included,
	// ordered by name.
	ListCreditors(ctx context.Context, owner uuid.UUID) ([]models.Creditor, error)
	// PageCreditors returns a page of owner's enabled creditors and their
	// total count.
	PageCreditors(ctx context.Context, owner uuid.UUID, offset, limit int) ([]models.Creditor, int, error)

	CreatePurchase(ctx context.Context, p models.Purchase) error
	UpdatePurchase(ctx context.Context, p models.Purchase) error
	GetPurchase(ctx context.Context, id uuid.UUID) (models.Purchase, error)
	// LockPurchase loads a purchase and holds a write lock on it until the
	// surrounding transaction ends.
	LockPurchase(ctx context.Context, id uuid.UUID) (models.Purchase, error)
	// ListPurchases returns owner's enabled purchases, splits included.
	ListPurchases(ctx context.Context, owner uuid.UUID) ([]models.Purchase, error)
	// PagePurchases returns a page of owner's enabled top-level purchases,
	// newest purchase date first, and their total count.
	PagePurchases(ctx context.Context, owner uuid.UUID, offset, limit int) ([]models.Purchase, int, error)
	// ListSplits returns the enabled splits of parent in creation order.
	ListSplits(ctx context.Context, parent uuid.UUID) ([]models.Purchase, error)
	// ListSweepCandidates returns every enabled, top-level, PENDING CASH or
	// INSTALLMENT purchase.
	ListSweepCandidates(ctx context.Context) ([]models.Purchase, error)
}

// Store is a Querier that can run a function atomically. fn's writes are
// committed when it returns nil and discarded otherwise.
type Store interface {
	Querier
	WithTx(ctx context.Context, fn func(q Querier) error) error
}
