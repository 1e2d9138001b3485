package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	Begin(ctx context.Context) (*sqlx.Tx, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]Package, error)
	GetPackage(ctx context.Context, id uuid.UUID) (*Package, error)
	CreatePackage(ctx context.Context, p *Package) error
	UpdatePackage(ctx context.Context, p *Package) error
	CreateOrder(ctx context.Context, o *Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrderByInvoiceID(ctx context.Context, invoiceID int64) (*Order, error)
	CompleteOrderTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (bool, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, int, error)
}

// OrderRepository persists packages and purchase orders
type OrderRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Begin(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	return tx, nil
}

const packageColumns = `id, name, credits, price_cents, active, sort_order, created_at, updated_at`

func (r *OrderRepository) ListPackages(ctx context.Context, activeOnly bool) ([]Package, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT ` + packageColumns + ` FROM credit_packages`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY sort_order, price_cents`

	packages := make([]Package, 0)
	if err := r.db.SelectContext(ctx2, &packages, query); err != nil {
		return nil, fmt.Errorf("%w: list packages", ErrInternal)
	}

	return packages, nil
}

func (r *OrderRepository) GetPackage(ctx context.Context, id uuid.UUID) (*Package, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p Package
	err := r.db.GetContext(ctx2, &p, `SELECT `+packageColumns+` FROM credit_packages WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("%w: get package", ErrInternal)
	}

	return &p, nil
}

func (r *OrderRepository) CreatePackage(ctx context.Context, p *Package) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO credit_packages (id, name, credits, price_cents, active, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Name, p.Credits, p.PriceCents, p.Active, p.SortOrder)
	if err != nil {
		return fmt.Errorf("%w: insert package", ErrInternal)
	}

	return nil
}

func (r *OrderRepository) UpdatePackage(ctx context.Context, p *Package) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE credit_packages
		SET name = $2, credits = $3, price_cents = $4, active = $5, sort_order = $6, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, p.Credits, p.PriceCents, p.Active, p.SortOrder)
	if err != nil {
		return fmt.Errorf("%w: update package", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrPackageNotFound
	}

	return nil
}

const orderColumns = `
	id, invoice_id, user_id, package_id, package_name, credits, amount_cents,
	status, created_at, updated_at, completed_at`

// CreateOrder inserts the order; invoice_id comes from the DB sequence
func (r *OrderRepository) CreateOrder(ctx context.Context, o *Order) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx2, `
		INSERT INTO credit_orders (id, user_id, package_id, package_name, credits, amount_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING invoice_id
	`, o.ID, o.UserID, o.PackageID, o.PackageName, o.Credits, o.AmountCents, o.Status).Scan(&o.InvoiceID)
	if err != nil {
		return fmt.Errorf("%w: insert order", ErrInternal)
	}

	return nil
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *OrderRepository) GetOrderByInvoiceID(ctx context.Context, invoiceID int64) (*Order, error) {
	return r.getBy(ctx, "invoice_id = $1", invoiceID)
}

func (r *OrderRepository) getBy(ctx context.Context, where string, arg interface{}) (*Order, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var o Order
	err := r.db.GetContext(ctx2, &o, `SELECT `+orderColumns+` FROM credit_orders WHERE `+where, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("%w: get order", ErrInternal)
	}

	return &o, nil
}

// CompleteOrderTx flips a PENDING order to COMPLETED inside the
// caller's transaction. Zero rows means a duplicate callback.
func (r *OrderRepository) CompleteOrderTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE credit_orders
		SET status = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, StatusCompleted, StatusPending)
	if err != nil {
		return false, fmt.Errorf("%w: complete order", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: rows affected", ErrInternal)
	}

	return rows > 0, nil
}

// SetStatus moves a PENDING order to FAILED or CANCELLED
func (r *OrderRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE credit_orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, status, StatusPending)
	if err != nil {
		return fmt.Errorf("%w: set order status", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrNotPending
	}

	return nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Order, int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	orders := make([]Order, 0)
	err := r.db.SelectContext(ctx2, &orders, `
		SELECT `+orderColumns+` FROM credit_orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list orders", ErrInternal)
	}

	var total int
	err = r.db.GetContext(ctx2, &total, `SELECT COUNT(*) FROM credit_orders WHERE user_id = $1`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: count orders", ErrInternal)
	}

	return orders, total, nil
}
