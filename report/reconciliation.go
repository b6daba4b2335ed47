package report

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodzone/foodzone-pos/internal/close"
	"github.com/foodzone/foodzone-pos/internal/platform/httpx"
	"github.com/foodzone/foodzone-pos/internal/shared"
)

var reconciliationTemplate = template.Must(template.New("reconciliation").Funcs(template.FuncMap{
	"cedi": shared.FormatCedi,
	"status": func(v float64) string {
		switch {
		case v > 0.009:
			return "Over"
		case v < -0.009:
			return "Short"
		default:
			return "Balanced"
		}
	},
}).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Reconciliation {{.Period}}</title>
<style>
body{font-family:sans-serif;font-size:12px;margin:32px}
table{border-collapse:collapse;width:100%;margin-top:16px}
td,th{border:1px solid #ccc;padding:6px;text-align:right}
th:first-child,td:first-child{text-align:left}
</style></head><body>
<h1>End of Day Reconciliation</h1>
<p>Period {{.Period}} &middot; Cashier {{.CashierName}} &middot; Filed {{.Timestamp.Format "2006-01-02 15:04"}}</p>
<table>
<tr><th></th><th>Expected</th><th>Counted</th><th>Discrepancy</th><th>Status</th></tr>
<tr><td>Cash</td><td>{{cedi .ExpectedCash}}</td><td>{{cedi .CountedCash}}</td><td>{{cedi .CashDiscrepancy}}</td><td>{{status .CashDiscrepancy}}</td></tr>
<tr><td>Mobile money</td><td>{{cedi .ExpectedMomo}}</td><td>{{cedi .CountedMomo}}</td><td>{{cedi .MomoDiscrepancy}}</td><td>{{status .MomoDiscrepancy}}</td></tr>
<tr><td>Total</td><td>{{cedi .TotalExpectedRevenue}}</td><td>{{cedi .TotalCountedRevenue}}</td><td>{{cedi .TotalDiscrepancy}}</td><td>{{status .TotalDiscrepancy}}</td></tr>
</table>
<p>Total sales {{cedi .TotalSales}}. Change owed {{cedi .ChangeOwedForPeriod}}{{if .ChangeOwedSetAside}} (set aside from cash){{end}}.</p>
{{if .Notes}}<h2>Notes</h2><p>{{.Notes}}</p>{{end}}
</body></html>`))

// ReconciliationHTML renders the printable report body.
func ReconciliationHTML(rep close.Report) (string, error) {
	var buf bytes.Buffer
	if err := reconciliationTemplate.Execute(&buf, rep); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderReconciliation converts a filed report into a PDF document.
func (c *Client) RenderReconciliation(ctx context.Context, rep close.Report) ([]byte, error) {
	html, err := ReconciliationHTML(rep)
	if err != nil {
		return nil, err
	}
	page := A4
	page.Filename = "reconciliation-" + rep.Period
	return c.RenderHTML(ctx, html, page)
}

// Handler manages report endpoints.
type Handler struct {
	client *Client
	logger *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, logger *slog.Logger) *Handler {
	return &Handler{client: client, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/report/ping", h.ping)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "PDF renderer unavailable", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
