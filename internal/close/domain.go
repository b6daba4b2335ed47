package close

import (
	"fmt"
	"time"

	"github.com/foodzone/foodzone-pos/internal/shared"
)

// DayState is the closeout state of a calendar day.
type DayState string

const (
	DayStateOpen   DayState = "OPEN"
	DayStateClosed DayState = "CLOSED"
)

// Report is the immutable end-of-day reconciliation snapshot.
type Report struct {
	ID          string `json:"id"`
	Period      string `json:"period"`
	CashierID   string `json:"cashierId"`
	CashierName string `json:"cashierName"`

	TotalSales           float64 `json:"totalSales"`
	ExpectedCash         float64 `json:"expectedCash"`
	ExpectedMomo         float64 `json:"expectedMomo"`
	TotalExpectedRevenue float64 `json:"totalExpectedRevenue"`
	CountedCash          float64 `json:"countedCash"`
	CountedMomo          float64 `json:"countedMomo"`
	TotalCountedRevenue  float64 `json:"totalCountedRevenue"`

	CashDiscrepancy  float64 `json:"cashDiscrepancy"`
	MomoDiscrepancy  float64 `json:"momoDiscrepancy"`
	TotalDiscrepancy float64 `json:"totalDiscrepancy"`

	ChangeOwedForPeriod float64 `json:"changeOwedForPeriod"`
	ChangeOwedSetAside  bool    `json:"changeOwedSetAside"`

	Notes     string    `json:"notes"`
	Timestamp time.Time `json:"timestamp"`
}

// Balanced reports whether both drawers matched within a pesewa.
func (r Report) Balanced() bool {
	return isZero(r.CashDiscrepancy) && isZero(r.MomoDiscrepancy)
}

// Status describes whether today's closeout has happened.
type Status struct {
	Period string   `json:"period"`
	State  DayState `json:"state"`
	Report *Report  `json:"report,omitempty"`
}

// CloseoutInput is the physical count submitted at end of day. Either the
// raw totals or the itemised count may be given; raw totals win.
type CloseoutInput struct {
	CashierID   string `json:"cashierId" validate:"required,max=64"`
	CashierName string `json:"cashierName" validate:"required,max=120"`

	CountedCash *float64 `json:"countedCash" validate:"omitempty,gte=0"`
	CountedMomo *float64 `json:"countedMomo" validate:"omitempty,gte=0"`

	Denominations    map[int]int `json:"denominations" validate:"omitempty,dive,gte=0"`
	MomoTransactions []float64   `json:"momoTransactions"`

	// SetAsideChange deducts the day's change owed from counted cash and
	// records it against the orders that generated it.
	SetAsideChange bool   `json:"setAsideChange"`
	Notes          string `json:"notes" validate:"max=2000"`
}

// ErrDayClosed is returned when a report already exists for the day.
var ErrDayClosed = fmt.Errorf("close: day already closed: %w", shared.ErrConflict)

// ErrReportNotFound indicates the report could not be loaded.
var ErrReportNotFound = fmt.Errorf("close: report %w", shared.ErrNotFound)

// ErrCloseoutInProgress indicates another closeout holds the day's lock.
var ErrCloseoutInProgress = fmt.Errorf("close: closeout already in progress: %w", shared.ErrConflict)

// ErrUnknownDenomination is returned for notes or coins outside the cedi set.
var ErrUnknownDenomination = fmt.Errorf("close: unknown denomination: %w", shared.ErrValidation)
