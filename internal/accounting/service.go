package accounting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/foodzone/foodzone-pos/internal/ledger"
)

// Store yields the raw collections the aggregator folds.
type Store interface {
	ListOrders(ctx context.Context) ([]ledger.Order, error)
	ListMiscExpenses(ctx context.Context, start, end time.Time) ([]ledger.MiscExpense, error)
}

// ReportIndex answers questions about filed reconciliation reports.
type ReportIndex interface {
	IsClosed(ctx context.Context, period string) (bool, error)
	CashDiscrepancies(ctx context.Context, start, end time.Time) ([]float64, error)
}

// Observer receives recompute timings.
type Observer interface {
	ObserveRecompute(duration time.Duration, skipped int)
}

// Service loads snapshots and runs the aggregation for arbitrary windows.
type Service struct {
	store    Store
	reports  ReportIndex
	cache    *Cache
	loc      *time.Location
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
	group    singleflight.Group
}

// NewService wires the dependencies. reports and cache may be nil.
func NewService(store Store, reports ReportIndex, cache *Cache, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		reports: reports,
		cache:   cache,
		loc:     loc,
		logger:  logger,
		now:     time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithObserver attaches recompute instrumentation.
func (s *Service) WithObserver(o Observer) {
	s.observer = o
}

// Location returns the business timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Today returns the window of the current business day.
func (s *Service) Today() ledger.Window {
	return ledger.Day(s.now(), s.loc)
}

// ParseDay resolves a YYYY-MM-DD value to its window; empty means today.
func (s *Service) ParseDay(value string) (ledger.Window, error) {
	if value == "" {
		return s.Today(), nil
	}
	return ledger.ParseDay(value, s.loc)
}

// Snapshot loads both feeds for w concurrently.
func (s *Service) Snapshot(ctx context.Context, w ledger.Window) ([]ledger.Order, []ledger.MiscExpense, error) {
	var (
		orders   []ledger.Order
		expenses []ledger.MiscExpense
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = s.store.ListOrders(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListMiscExpenses(gctx, w.Start, w.End)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return orders, expenses, nil
}

// Compute runs the aggregation over an already loaded snapshot.
func (s *Service) Compute(orders []ledger.Order, expenses []ledger.MiscExpense, w ledger.Window) Stats {
	start := time.Now()
	stats := Recompute(orders, expenses, w)
	if s.observer != nil {
		s.observer.ObserveRecompute(time.Since(start), stats.SkippedOrders)
	}
	if stats.SkippedOrders > 0 {
		s.logger.Debug("orders without timestamp skipped", slog.String("period", stats.Period), slog.Int("count", stats.SkippedOrders))
	}
	return stats
}

// Summary returns stats and expectation for the day window w.
func (s *Service) Summary(ctx context.Context, w ledger.Window) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, keySummary(w.Label())...)
	if err != nil {
		s.logger.Warn("summary cache unavailable", slog.Any("error", err))
		return s.computeSummary(ctx, w)
	}
	var out Summary
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		v, err, _ := s.group.Do(key, func() (any, error) {
			return s.computeSummary(ctx, w)
		})
		return v, err
	})
	return out, err
}

func (s *Service) computeSummary(ctx context.Context, w ledger.Window) (Summary, error) {
	orders, expenses, err := s.Snapshot(ctx, w)
	if err != nil {
		return Summary{}, err
	}
	closed, err := s.isClosed(ctx, w.Label())
	if err != nil {
		return Summary{}, err
	}
	return s.Assemble(orders, expenses, w, closed), nil
}

// Assemble builds a Summary from a loaded snapshot.
func (s *Service) Assemble(orders []ledger.Order, expenses []ledger.MiscExpense, w ledger.Window, closed bool) Summary {
	stats := s.Compute(orders, expenses, w)
	return Summary{
		Stats:       stats,
		Expectation: Expect(stats),
		Closed:      closed,
		ComputedAt:  s.now().UTC(),
	}
}

// Activity returns per order attribution detail for the day window w.
func (s *Service) Activity(ctx context.Context, w ledger.Window) ([]ActivityDetail, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return Activity(orders, w), nil
}

// BusinessData answers the range query for YYYY-MM-DD dates, end day inclusive.
func (s *Service) BusinessData(ctx context.Context, start, end string) (BusinessData, error) {
	w, err := ledger.ParseRange(start, end, s.loc)
	if err != nil {
		return BusinessData{}, err
	}
	key, err := s.cache.BuildKey(ctx, keyRange(start, end)...)
	if err != nil {
		return BusinessData{}, err
	}
	var out BusinessData
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		orders, expenses, err := s.Snapshot(ctx, w)
		if err != nil {
			return nil, err
		}
		var discrepancies []float64
		if s.reports != nil {
			discrepancies, err = s.reports.CashDiscrepancies(ctx, w.Start, w.End)
			if err != nil {
				return nil, err
			}
		}
		return BuildBusinessData(s.Compute(orders, expenses, w), start, end, discrepancies), nil
	})
	return out, err
}

func (s *Service) isClosed(ctx context.Context, period string) (bool, error) {
	if s.reports == nil {
		return false, nil
	}
	return s.reports.IsClosed(ctx, period)
}
