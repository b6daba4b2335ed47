package accounting

import (
	"errors"
	"time"

	"github.com/foodzone/foodzone-pos/internal/ledger"
)

// ErrFeedUnavailable is returned when the order or expense snapshot cannot be loaded.
var ErrFeedUnavailable = errors.New("accounting: snapshot unavailable")

// ItemStat aggregates item performance for completed orders.
type ItemStat struct {
	Count      int     `json:"count"`
	TotalValue float64 `json:"totalValue"`
}

// Stats is the folded accounting picture of a window.
type Stats struct {
	Period string `json:"period"`

	TotalSales     float64             `json:"totalSales"`
	TotalItemsSold int                 `json:"totalItemsSold"`
	ItemStats      map[string]ItemStat `json:"itemStats"`

	CashSales float64 `json:"cashSales"`
	MomoSales float64 `json:"momoSales"`

	TodayUnpaidOrdersValue    float64 `json:"todayUnpaidOrdersValue"`
	PreviousUnpaidOrdersValue float64 `json:"previousUnpaidOrdersValue"`
	AllTimeUnpaidOrdersValue  float64 `json:"allTimeUnpaidOrdersValue"`

	TotalPardonedAmount float64 `json:"totalPardonedAmount"`
	TotalRewardDiscount float64 `json:"totalRewardDiscount"`
	ChangeOwedForPeriod float64 `json:"changeOwedForPeriod"`

	SettledUnpaidCash        float64 `json:"settledUnpaidCash"`
	SettledUnpaidMomo        float64 `json:"settledUnpaidMomo"`
	SettledUnpaidOrdersValue float64 `json:"settledUnpaidOrdersValue"`

	PreviousDaysChangeGiven             float64 `json:"previousDaysChangeGiven"`
	PreviousDaysChangeGivenFromSales    float64 `json:"previousDaysChangeGivenFromSales"`
	PreviousDaysChangeGivenFromSetAside float64 `json:"previousDaysChangeGivenFromSetAside"`

	MiscCashExpenses float64 `json:"miscCashExpenses"`
	MiscMomoExpenses float64 `json:"miscMomoExpenses"`

	NetRevenue float64 `json:"netRevenue"`

	Orders         []ledger.Order `json:"orders"`
	ActivityOrders []ledger.Order `json:"activityOrders"`

	// SkippedOrders counts orders dropped for lacking a creation timestamp.
	SkippedOrders int `json:"skippedOrders"`
}

// Expectation is the cash and momo balance a physical count should match.
type Expectation struct {
	ExpectedCash float64 `json:"expectedCash"`
	ExpectedMomo float64 `json:"expectedMomo"`
}

// Total returns the combined expected balance.
func (e Expectation) Total() float64 {
	return round2(e.ExpectedCash + e.ExpectedMomo)
}

// Summary bundles stats with the derived expectation for one window.
type Summary struct {
	Stats       Stats       `json:"stats"`
	Expectation Expectation `json:"expectation"`
	Closed      bool        `json:"closed"`
	ComputedAt  time.Time   `json:"computedAt"`
}

// ActivityDetail pairs an activity order with its attribution in the window.
type ActivityDetail struct {
	Order       ledger.Order `json:"order"`
	InWindow    bool         `json:"inWindow"`
	Attribution Attribution  `json:"attribution"`
}

// ItemPerformance is one row of the range query item ranking.
type ItemPerformance struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"totalValue"`
}

// BusinessData is the range query result shared with external assistants.
type BusinessData struct {
	Start           string            `json:"startDate"`
	End             string            `json:"endDate"`
	TotalSales      float64           `json:"totalSales"`
	NetSales        float64           `json:"netSales"`
	TotalOrders     int               `json:"totalOrders"`
	ItemPerformance []ItemPerformance `json:"itemPerformance"`
	CashDiscrepancy float64           `json:"cashDiscrepancy"`
	CashSales       float64           `json:"cashSales"`
	MomoSales       float64           `json:"momoSales"`
	MiscExpenses    float64           `json:"miscExpenses"`
	ChangeOwed      float64           `json:"changeOwed"`
}
