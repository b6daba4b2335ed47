package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/foodzone/foodzone-pos/internal/accounting"
	"github.com/foodzone/foodzone-pos/internal/ledger"
	"github.com/foodzone/foodzone-pos/internal/shared"
)

// Summaries is the accounting surface used by the reporting commands.
type Summaries interface {
	ParseDay(value string) (ledger.Window, error)
	Summary(ctx context.Context, w ledger.Window) (accounting.Summary, error)
	BusinessData(ctx context.Context, start, end string) (accounting.BusinessData, error)
}

// ReportCLI prints daily summaries and range reports from the terminal.
type ReportCLI struct {
	summaries Summaries
}

// NewReportCLI constructs the helper.
func NewReportCLI(summaries Summaries) (*ReportCLI, error) {
	if summaries == nil {
		return nil, errors.New("report cli: accounting service required")
	}
	return &ReportCLI{summaries: summaries}, nil
}

// SummaryOptions defines the flags of the summary command.
type SummaryOptions struct {
	Date       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// SummaryCommand prints the stats and expected drawer balances of one day.
func (c *ReportCLI) SummaryCommand(ctx context.Context, opts SummaryOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	w, err := c.summaries.ParseDay(strings.TrimSpace(opts.Date))
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "summary: invalid --date %q (expected YYYY-MM-DD)\n", opts.Date)
		return 1
	}
	summary, err := c.summaries.Summary(ctx, w)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "summary: %v\n", err)
		return 1
	}
	if opts.JSONOutput {
		summary.Stats.Orders = nil
		summary.Stats.ActivityOrders = nil
		if err := json.NewEncoder(opts.Stdout).Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "summary: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	renderSummaryHuman(opts.Stdout, summary)
	return 0
}

func renderSummaryHuman(out io.Writer, s accounting.Summary) {
	st := s.Stats
	state := "OPEN"
	if s.Closed {
		state = "CLOSED"
	}
	_, _ = fmt.Fprintf(out, "Business day %s (%s)\n", st.Period, state)
	_, _ = fmt.Fprintf(out, "  Orders created:        %d (%d with activity)\n", len(st.Orders), len(st.ActivityOrders))
	_, _ = fmt.Fprintf(out, "  Total sales:           %s\n", shared.FormatCedi(st.TotalSales))
	_, _ = fmt.Fprintf(out, "  Cash sales:            %s\n", shared.FormatCedi(st.CashSales))
	_, _ = fmt.Fprintf(out, "  Momo sales:            %s\n", shared.FormatCedi(st.MomoSales))
	_, _ = fmt.Fprintf(out, "  Collected from before: %s cash, %s momo\n", shared.FormatCedi(st.SettledUnpaidCash), shared.FormatCedi(st.SettledUnpaidMomo))
	_, _ = fmt.Fprintf(out, "  Unpaid today:          %s\n", shared.FormatCedi(st.TodayUnpaidOrdersValue))
	_, _ = fmt.Fprintf(out, "  Change owed:           %s\n", shared.FormatCedi(st.ChangeOwedForPeriod))
	_, _ = fmt.Fprintf(out, "  Misc expenses:         %s cash, %s momo\n", shared.FormatCedi(st.MiscCashExpenses), shared.FormatCedi(st.MiscMomoExpenses))
	_, _ = fmt.Fprintf(out, "  Net revenue:           %s\n", shared.FormatCedi(st.NetRevenue))
	_, _ = fmt.Fprintf(out, "Expected cash %s, expected momo %s\n",
		shared.FormatCedi(s.Expectation.ExpectedCash), shared.FormatCedi(s.Expectation.ExpectedMomo))
	if st.SkippedOrders > 0 {
		_, _ = fmt.Fprintf(out, "%d order(s) skipped: missing creation timestamp\n", st.SkippedOrders)
	}
}

// RangeOptions defines the flags of the range command.
type RangeOptions struct {
	Start      string
	End        string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// RangeCommand prints business data across an inclusive date range.
func (c *ReportCLI) RangeCommand(ctx context.Context, opts RangeOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if strings.TrimSpace(opts.Start) == "" || strings.TrimSpace(opts.End) == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "range: --start and --end are required")
		return 1
	}
	data, err := c.summaries.BusinessData(ctx, strings.TrimSpace(opts.Start), strings.TrimSpace(opts.End))
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "range: %v\n", err)
		return 1
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(data); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "range: encode json: %v\n", err)
			return 1
		}
		return 0
	}
	_, _ = fmt.Fprintf(opts.Stdout, "Business data %s to %s\n", data.Start, data.End)
	_, _ = fmt.Fprintf(opts.Stdout, "  Orders:           %d\n", data.TotalOrders)
	_, _ = fmt.Fprintf(opts.Stdout, "  Total sales:      %s\n", shared.FormatCedi(data.TotalSales))
	_, _ = fmt.Fprintf(opts.Stdout, "  Net sales:        %s\n", shared.FormatCedi(data.NetSales))
	_, _ = fmt.Fprintf(opts.Stdout, "  Cash / momo:      %s / %s\n", shared.FormatCedi(data.CashSales), shared.FormatCedi(data.MomoSales))
	_, _ = fmt.Fprintf(opts.Stdout, "  Misc expenses:    %s\n", shared.FormatCedi(data.MiscExpenses))
	_, _ = fmt.Fprintf(opts.Stdout, "  Cash discrepancy: %s\n", shared.FormatCedi(data.CashDiscrepancy))
	if len(data.ItemPerformance) > 0 {
		_, _ = fmt.Fprintln(opts.Stdout, "Top items:")
		for i, item := range data.ItemPerformance {
			if i == 5 {
				break
			}
			_, _ = fmt.Fprintf(opts.Stdout, " - %s x%d (%s)\n", item.Name, item.Count, shared.FormatCedi(item.TotalValue))
		}
	}
	return 0
}
