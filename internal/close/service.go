package close

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/foodzone/foodzone-pos/internal/accounting"
	"github.com/foodzone/foodzone-pos/internal/ledger"
	"github.com/foodzone/foodzone-pos/internal/platform/cache"
	"github.com/foodzone/foodzone-pos/internal/shared"
)

const (
	closeoutLockTTL  = 30 * time.Second
	reportsPageLimit = 90
)

// Store persists reports and the change set-aside flags.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
	InsertReport(ctx context.Context, tx pgx.Tx, rep Report) error
	MarkChangeSetAside(ctx context.Context, tx pgx.Tx, orderIDs []string, setAside bool, period string, at time.Time) error
	FindByPeriod(ctx context.Context, period string) (Report, error)
	GetReport(ctx context.Context, id string) (Report, error)
	ListReports(ctx context.Context, limit int) ([]Report, error)
}

// SummarySource computes fresh figures for the current day.
type SummarySource interface {
	Today() ledger.Window
	Snapshot(ctx context.Context, w ledger.Window) ([]ledger.Order, []ledger.MiscExpense, error)
	Assemble(orders []ledger.Order, expenses []ledger.MiscExpense, w ledger.Window, closed bool) accounting.Summary
}

// Locker serialises closeouts for the same day.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Auditor records closeout actions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier announces changes to derived figures.
type Notifier interface {
	Bump(ctx context.Context, feed accounting.Feed) error
}

// Observer receives closeout discrepancies.
type Observer interface {
	ObserveCloseout(cash, momo float64)
}

// Service runs the end-of-day reconciliation.
type Service struct {
	store     Store
	summaries SummarySource
	locker    Locker
	audit     Auditor
	notifier  Notifier
	observer  Observer
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// Deps bundles the optional collaborators of the Service.
type Deps struct {
	Locker   Locker
	Audit    Auditor
	Notifier Notifier
	Observer Observer
	Logger   *slog.Logger
}

// NewService constructs a Service instance.
func NewService(store Store, summaries SummarySource, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		summaries: summaries,
		locker:    deps.Locker,
		audit:     deps.Audit,
		notifier:  deps.Notifier,
		observer:  deps.Observer,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Status reports whether today has been closed out.
func (s *Service) Status(ctx context.Context) (Status, error) {
	period := s.summaries.Today().Label()
	rep, err := s.store.FindByPeriod(ctx, period)
	switch {
	case errors.Is(err, ErrReportNotFound):
		return Status{Period: period, State: DayStateOpen}, nil
	case err != nil:
		return Status{}, err
	}
	return Status{Period: period, State: DayStateClosed, Report: &rep}, nil
}

// Closeout files today's report. A day can be closed exactly once.
func (s *Service) Closeout(ctx context.Context, in CloseoutInput) (Report, error) {
	if err := s.validate.Struct(in); err != nil {
		return Report{}, fmt.Errorf("close: %w: %v", shared.ErrValidation, err)
	}
	countedCash, countedMomo, err := Counted(in)
	if err != nil {
		return Report{}, err
	}

	day := s.summaries.Today()
	period := day.Label()

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, shared.CloseoutLockKey(period), closeoutLockTTL)
		if err != nil {
			if errors.Is(err, cache.ErrLocked) {
				return Report{}, ErrCloseoutInProgress
			}
			return Report{}, err
		}
		defer release()
	}

	status, err := s.Status(ctx)
	if err != nil {
		return Report{}, err
	}
	if status.State == DayStateClosed {
		return Report{}, ErrDayClosed
	}

	orders, expenses, err := s.summaries.Snapshot(ctx, day)
	if err != nil {
		return Report{}, err
	}
	summary := s.summaries.Assemble(orders, expenses, day, false)
	stats, exp := summary.Stats, summary.Expectation

	available := countedCash
	if in.SetAsideChange {
		available -= stats.ChangeOwedForPeriod
	}
	disc := Reconcile(exp, available, countedMomo)

	now := s.now().UTC()
	rep := Report{
		ID:                   uuid.NewString(),
		Period:               period,
		CashierID:            in.CashierID,
		CashierName:          in.CashierName,
		TotalSales:           stats.TotalSales,
		ExpectedCash:         exp.ExpectedCash,
		ExpectedMomo:         exp.ExpectedMomo,
		TotalExpectedRevenue: exp.Total(),
		CountedCash:          shared.RoundCedi(countedCash),
		CountedMomo:          shared.RoundCedi(countedMomo),
		TotalCountedRevenue:  shared.RoundCedi(countedCash + countedMomo),
		CashDiscrepancy:      disc.Cash,
		MomoDiscrepancy:      disc.Momo,
		TotalDiscrepancy:     disc.Total,
		ChangeOwedForPeriod:  stats.ChangeOwedForPeriod,
		ChangeOwedSetAside:   in.SetAsideChange,
		Notes:                in.Notes,
		Timestamp:            now,
	}

	changeOrders := ordersOwingChange(stats.Orders)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.store.InsertReport(ctx, tx, rep); err != nil {
			return err
		}
		return s.store.MarkChangeSetAside(ctx, tx, changeOrders, in.SetAsideChange, period, now)
	})
	if err != nil {
		return Report{}, err
	}

	s.afterCloseout(ctx, rep, len(changeOrders))
	return rep, nil
}

func (s *Service) afterCloseout(ctx context.Context, rep Report, changeOrders int) {
	s.logger.Info("day closed",
		slog.String("period", rep.Period),
		slog.String("cashier", rep.CashierName),
		slog.Float64("cash_discrepancy", rep.CashDiscrepancy),
		slog.Float64("momo_discrepancy", rep.MomoDiscrepancy),
		slog.Int("change_orders", changeOrders))
	if s.observer != nil {
		s.observer.ObserveCloseout(rep.CashDiscrepancy, rep.MomoDiscrepancy)
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			Actor:    rep.CashierID,
			Action:   "closeout",
			Entity:   "reconciliation_report",
			EntityID: rep.ID,
			Meta: map[string]any{
				"period":            rep.Period,
				"total_discrepancy": rep.TotalDiscrepancy,
				"set_aside":         rep.ChangeOwedSetAside,
			},
			At: rep.Timestamp,
		})
		if err != nil {
			s.logger.Warn("audit closeout", slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		for _, feed := range []accounting.Feed{accounting.FeedReports, accounting.FeedOrders} {
			if err := s.notifier.Bump(ctx, feed); err != nil {
				s.logger.Warn("notify closeout", slog.String("feed", string(feed)), slog.Any("error", err))
			}
		}
	}
}

// ListReports returns reports newest first.
func (s *Service) ListReports(ctx context.Context) ([]Report, error) {
	return s.store.ListReports(ctx, reportsPageLimit)
}

// GetReport loads a single report.
func (s *Service) GetReport(ctx context.Context, id string) (Report, error) {
	return s.store.GetReport(ctx, id)
}

func ordersOwingChange(orders []ledger.Order) []string {
	ids := make([]string, 0)
	for _, o := range orders {
		if o.ID != "" && o.BalanceDue < 0 {
			ids = append(ids, o.ID)
		}
	}
	return ids
}
