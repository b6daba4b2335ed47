package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads and writes the orders document collection and misc expenses.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListOrders returns every order document. Cross-day settlement needs the full history.
func (r *Repository) ListOrders(ctx context.Context) ([]Order, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("ledger: repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, doc FROM orders ORDER BY created_at NULLS LAST, id`)
	if err != nil {
		return nil, fmt.Errorf("ledger: list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var o Order
		if err := json.Unmarshal(doc, &o); err != nil {
			return nil, fmt.Errorf("ledger: decode order %s: %w", id, err)
		}
		o.ID = id
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder loads a single order document.
func (r *Repository) GetOrder(ctx context.Context, id string) (Order, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM orders WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	var o Order
	if err := json.Unmarshal(doc, &o); err != nil {
		return Order{}, fmt.Errorf("ledger: decode order %s: %w", id, err)
	}
	o.ID = id
	return o, nil
}

// UpsertOrder stores the full order document, replacing any previous version.
func (r *Repository) UpsertOrder(ctx context.Context, o Order) error {
	if o.ID == "" {
		return errors.New("ledger: order id required")
	}
	doc, err := json.Marshal(o)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, created_at = EXCLUDED.created_at, updated_at = NOW()`,
		o.ID, doc, o.Timestamp)
	return err
}

// ListMiscExpenses returns expenses with timestamp in [start, end).
func (r *Repository) ListMiscExpenses(ctx context.Context, start, end time.Time) ([]MiscExpense, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("ledger: repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, purpose, amount, source, settled, cashier_id, cashier_name, created_at
		FROM misc_expenses
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC`, start, end)
	if err != nil {
		return nil, fmt.Errorf("ledger: list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]MiscExpense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

// GetMiscExpense loads a single expense.
func (r *Repository) GetMiscExpense(ctx context.Context, id string) (MiscExpense, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, purpose, amount, source, settled, cashier_id, cashier_name, created_at
		FROM misc_expenses WHERE id = $1`, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MiscExpense{}, ErrExpenseNotFound
		}
		return MiscExpense{}, err
	}
	return e, nil
}

// InsertMiscExpense persists a new expense row.
func (r *Repository) InsertMiscExpense(ctx context.Context, e MiscExpense) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO misc_expenses (id, purpose, amount, source, settled, cashier_id, cashier_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))`,
		e.ID, e.Purpose, e.Amount, string(e.Source), e.Settled, e.CashierID, e.CashierName, e.Timestamp)
	return err
}

// SetExpenseSettled flips the settled flag and returns the updated row.
func (r *Repository) SetExpenseSettled(ctx context.Context, id string, settled bool) (MiscExpense, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE misc_expenses SET settled = $2
		WHERE id = $1
		RETURNING id, purpose, amount, source, settled, cashier_id, cashier_name, created_at`, id, settled)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MiscExpense{}, ErrExpenseNotFound
		}
		return MiscExpense{}, err
	}
	return e, nil
}

// DeleteUnsettledExpense removes an expense only while it is unsettled.
func (r *Repository) DeleteUnsettledExpense(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM misc_expenses WHERE id = $1 AND settled = FALSE`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.GetMiscExpense(ctx, id); err != nil {
		return err
	}
	return ErrExpenseSettled
}

func scanExpense(row pgx.Row) (MiscExpense, error) {
	var e MiscExpense
	var source string
	var createdAt time.Time
	if err := row.Scan(&e.ID, &e.Purpose, &e.Amount, &source, &e.Settled, &e.CashierID, &e.CashierName, &createdAt); err != nil {
		return MiscExpense{}, err
	}
	e.Source = ExpenseSource(source)
	e.Timestamp = &createdAt
	return e, nil
}
