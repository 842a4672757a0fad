package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/invoicehub/config"
	"github.com/satheeshds/invoicehub/ledger"
	"github.com/satheeshds/invoicehub/models"
	"github.com/shopspring/decimal"
)

// Money columns are read back as text so both drivers scan them into
// decimal.Decimal the same way.
const (
	userColumns = `id, name, lastname, email, username, password_hash,
	CAST(spending_limit AS VARCHAR), CAST(reserve_fund AS VARCHAR), created_at, updated_at`

	creditorColumns = `id, user_id, creditor_type, name, due_day, CAST(limit_value AS VARCHAR),
	enabled, user_as_creditor_id, created_at, updated_at`

	purchaseColumns = `id, user_id, creditor_id, purchase_date, title, CAST(value AS VARCHAR),
	payment_type, installments, paid_status, enabled, invoice_parent_id, created_at, updated_at`

	userSelectQuery     = `SELECT ` + userColumns + ` FROM users`
	creditorSelectQuery = `SELECT ` + creditorColumns + ` FROM creditors`
	purchaseSelectQuery = `SELECT ` + purchaseColumns + ` FROM purchases`

	topLevelPurchases = ` WHERE user_id = $1 AND enabled AND invoice_parent_id IS NULL`
)

type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	conn   conn
	driver string
}

// Store is a ledger.Store backed by Postgres or DuckDB.
type Store struct {
	queries
	db *sql.DB
	// DuckDB is embedded in this process, so its transactions are
	// serialized here instead of with row locks.
	mu sync.Mutex
}

// NewStore wraps an open database. driver is the config.DB driver it was
// opened with.
func NewStore(db *sql.DB, driver string) *Store {
	return &Store{queries: queries{conn: db, driver: driver}, db: db}
}

// WithTx runs fn inside a database transaction, committing when fn returns
// nil and rolling back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(q ledger.Querier) error) error {
	if s.driver == config.DriverDuckDB {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(&queries{conn: tx, driver: s.driver}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func notFound(kind string, key any, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", kind, key, ledger.ErrNotFound)
	}
	return err
}

func affected(res sql.Result, kind string, key any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", kind, key, ledger.ErrNotFound)
	}
	return nil
}

// Parameters are bound as plain strings, integers or nil so both drivers
// convert them the same way.

func nullUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func decimalPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return int64(*n)
}

// Users

func scanUser(scanner interface{ Scan(...any) error }) (models.User, error) {
	var (
		u              models.User
		limit, reserve decimal.NullDecimal
	)
	err := scanner.Scan(&u.ID, &u.Name, &u.Lastname, &u.Email, &u.Username, &u.PasswordHash,
		&limit, &reserve, &u.CreatedAt, &u.UpdatedAt)
	u.SpendingLimit = decimalPtr(limit)
	u.ReserveFund = decimalPtr(reserve)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, err
}

func collectUsers(rows *sql.Rows, err error) ([]models.User, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (q *queries) CreateUser(ctx context.Context, u models.User) error {
	_, err := q.conn.ExecContext(ctx, `INSERT INTO users
		(id, name, lastname, email, username, password_hash, spending_limit, reserve_fund, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID.String(), u.Name, u.Lastname, u.Email, u.Username, u.PasswordHash,
		nullDecimal(u.SpendingLimit), nullDecimal(u.ReserveFund), u.CreatedAt, u.UpdatedAt)
	return err
}

func (q *queries) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	u, err := scanUser(q.conn.QueryRowContext(ctx, userSelectQuery+" WHERE id = $1", id.String()))
	return u, notFound("user", id, err)
}

func (q *queries) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	u, err := scanUser(q.conn.QueryRowContext(ctx, userSelectQuery+" WHERE username = $1", username))
	return u, notFound("user", username, err)
}

func (q *queries) FindUserByLogin(ctx context.Context, username, email string) (models.User, error) {
	u, err := scanUser(q.conn.QueryRowContext(ctx,
		userSelectQuery+" WHERE username = $1 OR email = $2 ORDER BY username LIMIT 1", username, email))
	return u, notFound("user", username, err)
}

func (q *queries) ListUsers(ctx context.Context, exclude uuid.UUID) ([]models.User, error) {
	return collectUsers(q.conn.QueryContext(ctx, userSelectQuery+" WHERE id <> $1 ORDER BY username", exclude.String()))
}

func (q *queries) SearchUsers(ctx context.Context, term string, exclude uuid.UUID) ([]models.User, error) {
	return collectUsers(q.conn.QueryContext(ctx,
		userSelectQuery+" WHERE id <> $1 AND strpos(lower(username), $2) > 0 ORDER BY username",
		exclude.String(), strings.ToLower(term)))
}

// Creditors

func scanCreditor(scanner interface{ Scan(...any) error }) (models.Creditor, error) {
	var (
		c      models.Creditor
		limit  decimal.NullDecimal
		asUser uuid.NullUUID
	)
	err := scanner.Scan(&c.ID, &c.OwnerID, &c.Type, &c.Name, &c.DueDay, &limit,
		&c.Enabled, &asUser, &c.CreatedAt, &c.UpdatedAt)
	c.LimitValue = decimalPtr(limit)
	c.UserAsCreditorID = uuidPtr(asUser)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, err
}

func collectCreditors(rows *sql.Rows, err error) ([]models.Creditor, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	creditors := []models.Creditor{}
	for rows.Next() {
		c, err := scanCreditor(rows)
		if err != nil {
			return nil, err
		}
		creditors = append(creditors, c)
	}
	return creditors, rows.Err()
}

func (q *queries) CreateCreditor(ctx context.Context, c models.Creditor) error {
	_, err := q.conn.ExecContext(ctx, `INSERT INTO creditors
		(id, user_id, creditor_type, name, due_day, limit_value, enabled, user_as_creditor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID.String(), c.OwnerID.String(), string(c.Type), c.Name, c.DueDay, nullDecimal(c.LimitValue),
		c.Enabled, nullUUID(c.UserAsCreditorID), c.CreatedAt, c.UpdatedAt)
	return err
}

func (q *queries) UpdateCreditor(ctx context.Context, c models.Creditor) error {
	res, err := q.conn.ExecContext(ctx, `UPDATE creditors
		SET name = $2, due_day = $3, limit_value = $4, enabled = $5, updated_at = $6
		WHERE id = $1`,
		c.ID.String(), c.Name, c.DueDay, nullDecimal(c.LimitValue), c.Enabled, c.UpdatedAt)
	if err != nil {
		return err
	}
	return affected(res, "creditor", c.ID)
}

func (q *queries) GetCreditor(ctx context.Context, id uuid.UUID) (models.Creditor, error) {
	c, err := scanCreditor(q.conn.QueryRowContext(ctx, creditorSelectQuery+" WHERE id = $1", id.String()))
	return c, notFound("creditor", id, err)
}

func (q *queries) FindUserCreditor(ctx context.Context, owner, counterpart uuid.UUID) (models.Creditor, error) {
	c, err := scanCreditor(q.conn.QueryRowContext(ctx,
		creditorSelectQuery+" WHERE user_id = $1 AND user_as_creditor_id = $2 ORDER BY name, id LIMIT 1",
		owner.String(), counterpart.String()))
	return c, notFound("creditor for user", counterpart, err)
}

func (q *queries) FindCreditorByName(ctx context.Context, owner uuid.UUID, name string) (models.Creditor, error) {
	c, err := scanCreditor(q.conn.QueryRowContext(ctx,
		creditorSelectQuery+" WHERE user_id = $1 AND creditor_type <> 'USER' AND name = $2 ORDER BY name, id LIMIT 1",
		owner.String(), name))
	return c, notFound("creditor", name, err)
}

func (q *queries) ListCreditors(ctx context.Context, owner uuid.UUID) ([]models.Creditor, error) {
	return collectCreditors(q.conn.QueryContext(ctx,
		creditorSelectQuery+" WHERE user_id = $1 ORDER BY name, id", owner.String()))
}

func (q *queries) PageCreditors(ctx context.Context, owner uuid.UUID, offset, limit int) ([]models.Creditor, int, error) {
	var total int
	err := q.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM creditors WHERE user_id = $1 AND enabled", owner.String()).Scan(&total)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectCreditors(q.conn.QueryContext(ctx,
		creditorSelectQuery+" WHERE user_id = $1 AND enabled ORDER BY name, id LIMIT $2 OFFSET $3",
		owner.String(), limit, offset))
	return items, total, err
}

// Purchases

func scanPurchase(scanner interface{ Scan(...any) error }) (models.Purchase, error) {
	var (
		p                models.Purchase
		creditor, parent uuid.NullUUID
		installments     sql.NullInt64
	)
	err := scanner.Scan(&p.ID, &p.OwnerID, &creditor, &p.PurchaseDate, &p.Title, &p.Value,
		&p.PaymentType, &installments, &p.PaidStatus, &p.Enabled, &parent, &p.CreatedAt, &p.UpdatedAt)
	p.CreditorID = uuidPtr(creditor)
	p.ParentID = uuidPtr(parent)
	if installments.Valid {
		n := int(installments.Int64)
		p.Installments = &n
	}
	d := p.PurchaseDate
	p.PurchaseDate = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, err
}

func collectPurchases(rows *sql.Rows, err error) ([]models.Purchase, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := []models.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (q *queries) CreatePurchase(ctx context.Context, p models.Purchase) error {
	_, err := q.conn.ExecContext(ctx, `INSERT INTO purchases
		(id, user_id, creditor_id, purchase_date, title, value, payment_type, installments,
		 paid_status, enabled, invoice_parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID.String(), p.OwnerID.String(), nullUUID(p.CreditorID), p.PurchaseDate.Format(models.DateLayout), p.Title, p.Value.String(),
		string(p.PaymentType), nullInt(p.Installments), string(p.PaidStatus), p.Enabled,
		nullUUID(p.ParentID), p.CreatedAt, p.UpdatedAt)
	return err
}

func (q *queries) UpdatePurchase(ctx context.Context, p models.Purchase) error {
	res, err := q.conn.ExecContext(ctx, `UPDATE purchases
		SET creditor_id = $2, purchase_date = $3, title = $4, value = $5, payment_type = $6,
			installments = $7, paid_status = $8, enabled = $9, updated_at = $10
		WHERE id = $1`,
		p.ID.String(), nullUUID(p.CreditorID), p.PurchaseDate.Format(models.DateLayout), p.Title, p.Value.String(),
		string(p.PaymentType), nullInt(p.Installments), string(p.PaidStatus), p.Enabled, p.UpdatedAt)
	if err != nil {
		return err
	}
	return affected(res, "purchase", p.ID)
}

func (q *queries) GetPurchase(ctx context.Context, id uuid.UUID) (models.Purchase, error) {
	p, err := scanPurchase(q.conn.QueryRowContext(ctx, purchaseSelectQuery+" WHERE id = $1", id.String()))
	return p, notFound("purchase", id, err)
}

// LockPurchase takes a row lock on Postgres. DuckDB transactions already
// run one at a time.
func (q *queries) LockPurchase(ctx context.Context, id uuid.UUID) (models.Purchase, error) {
	query := purchaseSelectQuery + " WHERE id = $1"
	if q.driver == config.DriverPostgres {
		query += " FOR UPDATE"
	}
	p, err := scanPurchase(q.conn.QueryRowContext(ctx, query, id.String()))
	return p, notFound("purchase", id, err)
}

func (q *queries) ListPurchases(ctx context.Context, owner uuid.UUID) ([]models.Purchase, error) {
	return collectPurchases(q.conn.QueryContext(ctx,
		purchaseSelectQuery+" WHERE user_id = $1 AND enabled ORDER BY purchase_date DESC, seq DESC", owner.String()))
}

func (q *queries) PagePurchases(ctx context.Context, owner uuid.UUID, offset, limit int) ([]models.Purchase, int, error) {
	var total int
	if err := q.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM purchases"+topLevelPurchases, owner.String()).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := collectPurchases(q.conn.QueryContext(ctx,
		purchaseSelectQuery+topLevelPurchases+" ORDER BY purchase_date DESC, seq DESC LIMIT $2 OFFSET $3",
		owner.String(), limit, offset))
	return items, total, err
}

func (q *queries) ListSplits(ctx context.Context, parent uuid.UUID) ([]models.Purchase, error) {
	return collectPurchases(q.conn.QueryContext(ctx,
		purchaseSelectQuery+" WHERE invoice_parent_id = $1 AND enabled ORDER BY seq", parent.String()))
}

func (q *queries) ListSweepCandidates(ctx context.Context) ([]models.Purchase, error) {
	return collectPurchases(q.conn.QueryContext(ctx, purchaseSelectQuery+`
		WHERE enabled AND invoice_parent_id IS NULL AND paid_status = 'PENDING'
		AND payment_type IN ('CASH', 'INSTALLMENT')
		ORDER BY seq`))
}

var (
	_ ledger.Store   = (*Store)(nil)
	_ ledger.Querier = (*queries)(nil)
)
