package close

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodzone/foodzone-pos/internal/platform/db"
)

const reportColumns = `id, period, cashier_id, cashier_name, total_sales,
	expected_cash, expected_momo, total_expected_revenue,
	counted_cash, counted_momo, total_counted_revenue,
	cash_discrepancy, momo_discrepancy, total_discrepancy,
	change_owed_for_period, change_owed_set_aside, notes, created_at`

// Repository persists reconciliation reports.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("close: repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, tx)
	})
}

// InsertReport appends a report. The unique period constraint turns a
// concurrent second closeout into ErrDayClosed.
func (r *Repository) InsertReport(ctx context.Context, tx pgx.Tx, rep Report) error {
	_, err := tx.Exec(ctx, `INSERT INTO reconciliation_reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		rep.ID, rep.Period, rep.CashierID, rep.CashierName, rep.TotalSales,
		rep.ExpectedCash, rep.ExpectedMomo, rep.TotalExpectedRevenue,
		rep.CountedCash, rep.CountedMomo, rep.TotalCountedRevenue,
		rep.CashDiscrepancy, rep.MomoDiscrepancy, rep.TotalDiscrepancy,
		rep.ChangeOwedForPeriod, rep.ChangeOwedSetAside, rep.Notes, rep.Timestamp)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDayClosed
		}
		return err
	}
	return nil
}

// MarkChangeSetAside records on each order whether its change owed was
// reserved out of the period's cash.
func (r *Repository) MarkChangeSetAside(ctx context.Context, tx pgx.Tx, orderIDs []string, setAside bool, period string, at time.Time) error {
	if len(orderIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE orders
		SET doc = doc || jsonb_build_object(
				'changeSetAside', $2::boolean,
				'changeSetAsidePeriod', $3::text,
				'changeSetAsideAt', to_jsonb($4::timestamptz)),
			updated_at = NOW()
		WHERE id = ANY($1)`, orderIDs, setAside, period, at)
	return err
}

// FindByPeriod loads the report filed for a period.
func (r *Repository) FindByPeriod(ctx context.Context, period string) (Report, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reconciliation_reports WHERE period = $1`, period)
	return scanReportRow(row)
}

// GetReport loads a report by id.
func (r *Repository) GetReport(ctx context.Context, id string) (Report, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reconciliation_reports WHERE id = $1`, id)
	return scanReportRow(row)
}

// ListReports returns reports newest first.
func (r *Repository) ListReports(ctx context.Context, limit int) ([]Report, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("close: repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT `+reportColumns+` FROM reconciliation_reports ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reports := make([]Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// IsClosed reports whether a report exists for period.
func (r *Repository) IsClosed(ctx context.Context, period string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reconciliation_reports WHERE period = $1)`, period).Scan(&exists)
	return exists, err
}

// CashDiscrepancies returns the cash discrepancy of every report filed in [start, end).
func (r *Repository) CashDiscrepancies(ctx context.Context, start, end time.Time) ([]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT cash_discrepancy FROM reconciliation_reports WHERE created_at >= $1 AND created_at < $2`, start, end)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[float64])
}

func scanReportRow(row pgx.Row) (Report, error) {
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Report{}, ErrReportNotFound
		}
		return Report{}, err
	}
	return rep, nil
}

func scanReport(row pgx.Row) (Report, error) {
	var rep Report
	err := row.Scan(&rep.ID, &rep.Period, &rep.CashierID, &rep.CashierName, &rep.TotalSales,
		&rep.ExpectedCash, &rep.ExpectedMomo, &rep.TotalExpectedRevenue,
		&rep.CountedCash, &rep.CountedMomo, &rep.TotalCountedRevenue,
		&rep.CashDiscrepancy, &rep.MomoDiscrepancy, &rep.TotalDiscrepancy,
		&rep.ChangeOwedForPeriod, &rep.ChangeOwedSetAside, &rep.Notes, &rep.Timestamp)
	return rep, err
}
