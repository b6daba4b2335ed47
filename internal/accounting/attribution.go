package accounting

import (
	"math"
	"time"

	"github.com/foodzone/foodzone-pos/internal/ledger"
)

// changeSettlementFloor ignores rounding noise on change payouts.
const changeSettlementFloor = 0.01

// PaymentEvent is one payment that landed inside the query window.
type PaymentEvent struct {
	Amount float64       `json:"amount"`
	Bucket ledger.Bucket `json:"bucket"`
	At     *time.Time    `json:"at,omitempty"`
	// Settlement marks a payment against an order created before the window.
	Settlement bool `json:"settlement"`
	// Inferred marks a legacy payment whose amount or method was reconstructed.
	Inferred bool `json:"inferred"`
}

// Attribution is the contribution of a single order to the window's buckets.
type Attribution struct {
	NetPayable float64 `json:"netPayable"`

	// CashSales and MomoSales are capped sales for orders created in the window.
	CashSales float64 `json:"cashSales"`
	MomoSales float64 `json:"momoSales"`

	// Settled* are collections on orders created before the window.
	SettledCash  float64 `json:"settledCash"`
	SettledMomo  float64 `json:"settledMomo"`
	SettledTotal float64 `json:"settledTotal"`

	ChangeGiven        float64 `json:"changeGiven"`
	ChangeFromSales    float64 `json:"changeFromSales"`
	ChangeFromSetAside float64 `json:"changeFromSetAside"`

	HasActivity bool           `json:"hasActivity"`
	Events      []PaymentEvent `json:"events,omitempty"`
}

// Attribute computes how one annotated order contributes to the window.
func Attribute(e ledger.Entry, w ledger.Window) Attribution {
	o := e.Order
	a := Attribution{NetPayable: o.NetPayable(), HasActivity: e.HasActivity}

	if o.HasPaymentHistory() {
		attributeHistory(&a, e, w)
	} else {
		attributeLegacy(&a, e, w)
	}

	if !e.InWindow && w.Contains(o.LastChangeSettlementAt) && o.LastChangeSettlementAmount > changeSettlementFloor {
		amount := o.LastChangeSettlementAmount
		a.ChangeGiven = amount
		if o.ChangeSetAside {
			a.ChangeFromSetAside = amount
		} else {
			a.ChangeFromSales = amount
		}
	}
	return a
}

func attributeHistory(a *Attribution, e ledger.Entry, w ledger.Window) {
	var cashPaid, momoPaid float64
	for _, p := range e.Order.PaymentHistory {
		if !w.Contains(p.Timestamp) {
			continue
		}
		bucket := p.Method.Bucket()
		if bucket == ledger.BucketNone {
			continue
		}
		a.Events = append(a.Events, PaymentEvent{
			Amount:     p.Amount,
			Bucket:     bucket,
			At:         p.Timestamp,
			Settlement: !e.InWindow,
		})
		switch bucket {
		case ledger.BucketCash:
			cashPaid += p.Amount
		case ledger.BucketMomo:
			momoPaid += p.Amount
		}
	}
	if e.InWindow {
		a.CashSales, a.MomoSales = capSales(a.NetPayable, cashPaid, momoPaid)
		return
	}
	a.SettledCash = cashPaid
	a.SettledMomo = momoPaid
	a.SettledTotal = cashPaid + momoPaid
}

func attributeLegacy(a *Attribution, e ledger.Entry, w ledger.Window) {
	o := e.Order
	paidAt := o.LegacyPaymentTime()
	if !w.Contains(paidAt) {
		return
	}
	// A breakdown on an order created in the window is its own sales split,
	// whether or not the last payment amount was recorded.
	if e.InWindow && o.PaymentBreakdown != nil {
		a.CashSales, a.MomoSales = capSales(a.NetPayable, o.PaymentBreakdown.Cash, o.PaymentBreakdown.Momo)
		appendSalesEvents(a, paidAt)
		return
	}

	// amountPaid is cumulative across the order's life; only the last
	// payment is known to belong to this window.
	amount := o.LastPaymentAmount
	if amount <= 0 {
		return
	}

	if e.InWindow {
		// No breakdown: credit the last payment to paymentMethod's drawer
		// rather than dropping the sale.
		switch o.PaymentMethod.Bucket() {
		case ledger.BucketCash:
			a.CashSales, a.MomoSales = capSales(a.NetPayable, amount, 0)
		case ledger.BucketMomo:
			a.CashSales, a.MomoSales = capSales(a.NetPayable, 0, amount)
		}
		appendSalesEvents(a, paidAt)
		return
	}

	a.SettledTotal = amount
	bucket, inferred, ok := ledger.InferLegacyBucket(o, amount)
	if ok {
		switch bucket {
		case ledger.BucketCash:
			a.SettledCash = amount
		case ledger.BucketMomo:
			a.SettledMomo = amount
		}
	}
	a.Events = append(a.Events, PaymentEvent{
		Amount:     amount,
		Bucket:     bucket,
		At:         paidAt,
		Settlement: true,
		Inferred:   inferred || !ok,
	})
}

func appendSalesEvents(a *Attribution, at *time.Time) {
	if a.CashSales > 0 {
		a.Events = append(a.Events, PaymentEvent{Amount: a.CashSales, Bucket: ledger.BucketCash, At: at, Inferred: true})
	}
	if a.MomoSales > 0 {
		a.Events = append(a.Events, PaymentEvent{Amount: a.MomoSales, Bucket: ledger.BucketMomo, At: at, Inferred: true})
	}
}

// capSales limits an order's combined sales contribution to its net payable.
// Momo is applied first: overpayment is handed back as cash change, so any
// excess belongs to the cash side.
func capSales(netPayable, cashPaid, momoPaid float64) (cash, momo float64) {
	remaining := math.Max(0, netPayable)
	momo = clamp(momoPaid, remaining)
	cash = clamp(cashPaid, remaining-momo)
	return cash, momo
}

func clamp(v, limit float64) float64 {
	if v <= 0 || limit <= 0 {
		return 0
	}
	return math.Min(v, limit)
}
