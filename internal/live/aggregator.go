package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/foodzone/foodzone-pos/internal/accounting"
	"github.com/foodzone/foodzone-pos/internal/ledger"
)

const defaultRefresh = time.Minute

// Calculator is the slice of the accounting service the aggregator needs.
type Calculator interface {
	Today() ledger.Window
	Assemble(orders []ledger.Order, expenses []ledger.MiscExpense, w ledger.Window, closed bool) accounting.Summary
}

// ClosedChecker reports whether a day has been closed out.
type ClosedChecker interface {
	IsClosed(ctx context.Context, period string) (bool, error)
}

// Aggregator keeps a recomputed summary of the current day. Every change
// notification reloads the affected feed and recomputes in full.
type Aggregator struct {
	store   accounting.Store
	calc    Calculator
	closed  ClosedChecker
	sub     Subscriber
	logger  *slog.Logger
	refresh time.Duration

	mu       sync.RWMutex
	latest   accounting.Summary
	ready    bool
	err      error
	watchers []chan accounting.Summary

	// owned by the Run goroutine
	orders      []ledger.Order
	expenses    []ledger.MiscExpense
	isClosed    bool
	haveOrders  bool
	haveExpense bool
	day         ledger.Window
}

// NewAggregator wires the feeds. closed may be nil.
func NewAggregator(store accounting.Store, calc Calculator, closed ClosedChecker, sub Subscriber, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		store:   store,
		calc:    calc,
		closed:  closed,
		sub:     sub,
		logger:  logger,
		refresh: defaultRefresh,
	}
}

// WithRefresh sets how often the aggregator checks for a day rollover.
func (a *Aggregator) WithRefresh(d time.Duration) {
	if d > 0 {
		a.refresh = d
	}
}

// Latest returns the last good summary. ok is false until both feeds loaded.
func (a *Aggregator) Latest() (accounting.Summary, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest, a.ready
}

// Err returns the most recent feed failure, cleared by the next good load.
func (a *Aggregator) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

// Watch returns a channel receiving each new summary. It is closed when Run returns.
func (a *Aggregator) Watch() <-chan accounting.Summary {
	ch := make(chan accounting.Summary, 1)
	a.mu.Lock()
	a.watchers = append(a.watchers, ch)
	a.mu.Unlock()
	return ch
}

// Run loads both feeds and follows change notifications until ctx is done.
func (a *Aggregator) Run(ctx context.Context) error {
	defer a.closeWatchers()

	changes, err := a.sub.Subscribe(ctx)
	if err != nil {
		return err
	}

	a.day = a.calc.Today()
	a.reload(ctx, accounting.FeedOrders, accounting.FeedExpenses, accounting.FeedReports)

	ticker := time.NewTicker(a.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case feed, ok := <-changes:
			if !ok {
				return ctx.Err()
			}
			a.reload(ctx, feed)
		case <-ticker.C:
			if today := a.calc.Today(); today.Label() != a.day.Label() {
				a.day = today
				a.reload(ctx, accounting.FeedExpenses, accounting.FeedReports)
			}
		}
	}
}

func (a *Aggregator) reload(ctx context.Context, feeds ...accounting.Feed) {
	var (
		orders   []ledger.Order
		expenses []ledger.MiscExpense
		closed   bool
		want     = map[accounting.Feed]bool{}
	)
	for _, f := range feeds {
		want[f] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	if want[accounting.FeedOrders] {
		g.Go(func() error {
			var err error
			orders, err = a.store.ListOrders(gctx)
			return err
		})
	}
	if want[accounting.FeedExpenses] {
		g.Go(func() error {
			var err error
			expenses, err = a.store.ListMiscExpenses(gctx, a.day.Start, a.day.End)
			return err
		})
	}
	if want[accounting.FeedReports] && a.closed != nil {
		g.Go(func() error {
			var err error
			closed, err = a.closed.IsClosed(gctx, a.day.Label())
			return err
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return
		}
		a.logger.Error("live feed reload failed", slog.Any("error", err))
		a.mu.Lock()
		a.err = err
		a.mu.Unlock()
		return
	}

	if want[accounting.FeedOrders] {
		a.orders, a.haveOrders = orders, true
	}
	if want[accounting.FeedExpenses] {
		a.expenses, a.haveExpense = expenses, true
	}
	if want[accounting.FeedReports] {
		a.isClosed = closed
	}
	if !a.haveOrders || !a.haveExpense {
		return
	}
	a.publish(a.calc.Assemble(a.orders, a.expenses, a.day, a.isClosed))
}

func (a *Aggregator) publish(s accounting.Summary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.latest, a.ready, a.err = s, true, nil
	for _, ch := range a.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (a *Aggregator) closeWatchers() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ch := range a.watchers {
		close(ch)
	}
	a.watchers = nil
}
