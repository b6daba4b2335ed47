package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/foodzone/foodzone-pos/cmd/foodzone/cli"
	"github.com/foodzone/foodzone-pos/internal/accounting"
	accountinghttp "github.com/foodzone/foodzone-pos/internal/accounting/http"
	"github.com/foodzone/foodzone-pos/internal/app"
	"github.com/foodzone/foodzone-pos/internal/close"
	closehttp "github.com/foodzone/foodzone-pos/internal/close/http"
	"github.com/foodzone/foodzone-pos/internal/expenses"
	"github.com/foodzone/foodzone-pos/internal/ledger"
	ledgerhttp "github.com/foodzone/foodzone-pos/internal/ledger/http"
	"github.com/foodzone/foodzone-pos/internal/live"
	"github.com/foodzone/foodzone-pos/internal/observability"
	"github.com/foodzone/foodzone-pos/internal/platform/cache"
	"github.com/foodzone/foodzone-pos/internal/platform/db"
	"github.com/foodzone/foodzone-pos/internal/rewards"
	"github.com/foodzone/foodzone-pos/internal/shared"
	"github.com/foodzone/foodzone-pos/jobs"
	"github.com/foodzone/foodzone-pos/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 {
		os.Exit(runCommand(ctx, cfg, logger, os.Args[1], os.Args[2:]))
	}
	if err := serve(ctx, stop, cfg, logger); err != nil {
		logger.Error("serve", slog.Any("error", err))
		os.Exit(1)
	}
}

// runtime holds the shared backing services.
type runtime struct {
	pool        *pgxpool.Pool
	redis       *redis.Client
	ledgerRepo  *ledger.Repository
	closeRepo   *close.Repository
	summaryMemo *accounting.Cache
	accounting  *accounting.Service
}

func connect(ctx context.Context, cfg *app.Config, logger *slog.Logger) (*runtime, error) {
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, err
	}
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// The summary cache degrades to direct computation without redis.
		logger.Warn("redis unavailable", slog.Any("error", err))
		redisClient = nil
	}
	rt := &runtime{
		pool:       pool,
		redis:      redisClient,
		ledgerRepo: ledger.NewRepository(pool),
		closeRepo:  close.NewRepository(pool),
	}
	rt.summaryMemo = accounting.NewCache(redisClient, cfg.SummaryCacheTTL)
	rt.accounting = accounting.NewService(rt.ledgerRepo, rt.closeRepo, rt.summaryMemo, cfg.Location(), logger)
	return rt, nil
}

func (rt *runtime) Close(logger *slog.Logger) {
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}
	rt.pool.Close()
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	rt, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close(logger)

	metrics := observability.NewMetrics()
	rt.accounting.WithObserver(metrics)
	auditLogger := shared.NewAuditLogger(rt.pool)

	var liveSource accountinghttp.LiveSource
	if rt.redis != nil {
		aggregator := live.NewAggregator(rt.ledgerRepo, rt.accounting, rt.closeRepo, live.NewRedisSubscriber(rt.redis), logger)
		go func() {
			if err := aggregator.Run(ctx); err != nil {
				logger.Error("live aggregator", slog.Any("error", err))
			}
		}()
		liveSource = aggregator
	}

	closeService := close.NewService(rt.closeRepo, rt.accounting, close.Deps{
		Locker:   cache.NewLocker(rt.redis),
		Audit:    auditLogger,
		Notifier: rt.summaryMemo,
		Observer: metrics,
		Logger:   logger,
	})
	expenseService := expenses.NewService(rt.ledgerRepo, auditLogger, rt.summaryMemo, cfg.Location(), logger)
	expenseService.WithIdempotency(shared.NewIdempotencyStore(rt.pool))
	reportClient := report.NewClient(cfg.GotenbergURL)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AccountingHandler: accountinghttp.NewHandler(logger, rt.accounting, liveSource),
		CloseHandler:      closehttp.NewHandler(logger, closeService, reportClient),
		ExpensesHandler:   expenses.NewHandler(logger, expenseService),
		OrdersHandler:     ledgerhttp.NewHandler(logger, rt.ledgerRepo, rt.summaryMemo),
		RewardsHandler:    rewards.NewHandler(logger, rewards.NewRepository(rt.pool)),
		ReportHandler:     report.NewHandler(reportClient, logger),
		JobHandler:        jobs.NewHandler(inspector, logger),
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("timezone", cfg.Location().String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, name string, args []string) int {
	switch name {
	case "summary", "range":
		rt, err := connect(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			return 1
		}
		defer rt.Close(logger)
		reports, err := cli.NewReportCLI(rt.accounting)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			return 1
		}
		fs := flag.NewFlagSet(name, flag.ContinueOnError)
		date := fs.String("date", "", "business day YYYY-MM-DD (default today)")
		start := fs.String("start", "", "first day YYYY-MM-DD")
		end := fs.String("end", "", "last day YYYY-MM-DD, inclusive")
		asJSON := fs.Bool("json", false, "print JSON")
		if err := fs.Parse(args); err != nil {
			return 2
		}
		if name == "summary" {
			return reports.SummaryCommand(ctx, cli.SummaryOptions{Date: *date, JSONOutput: *asJSON})
		}
		return reports.RangeCommand(ctx, cli.RangeOptions{Start: *start, End: *end, JSONOutput: *asJSON})
	case "jobs":
		return runJobs(ctx, cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (expected summary, range or jobs)\n", name)
		return 2
	}
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	date := fs.String("date", "", "business day for the snapshot job")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	helper, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
		return 1
	}
	defer func() { _ = helper.Close() }()

	switch fs.Arg(0) {
	case "trigger":
		info, err := helper.Trigger(ctx, fs.Arg(1), *date)
		if errors.Is(err, cli.ErrAlreadyQueued) {
			fmt.Fprintf(os.Stderr, "jobs: snapshot for %s was already triggered\n", *date)
			return 1
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
			return 1
		}
		fmt.Printf("enqueued %s (%s) on %s\n", info.Type, info.ID, info.Queue)
	case "stats":
		stats, err := helper.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
			return 1
		}
		helper.PrintStats(stats)
	case "scheduled":
		infos, err := helper.ListScheduled(ctx, 20)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
			return 1
		}
		for _, info := range infos {
			fmt.Printf("%s %s next=%s\n", info.ID, info.Type, info.NextProcessAt.Format(time.RFC3339))
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: foodzone jobs [--date YYYY-MM-DD] trigger <job> | stats | scheduled")
		return 2
	}
	return 0
}
