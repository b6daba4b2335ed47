package ledger

import (
	"fmt"
	"time"

	"github.com/foodzone/foodzone-pos/internal/shared"
)

// OrderStatus tracks the kitchen lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusPreparing OrderStatus = "Preparing"
	OrderStatusReady     OrderStatus = "Ready"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// PaymentStatus is derived from amounts paid against the net payable.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "Unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "Partially Paid"
	PaymentStatusPaid          PaymentStatus = "Paid"
)

// IsOutstanding reports whether the customer still owes money on the order.
func (s PaymentStatus) IsOutstanding() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPartiallyPaid
}

// Item is a single order line.
type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Category string  `json:"category,omitempty"`
}

// Payment is one entry of an order's structured payment history.
type Payment struct {
	Amount    float64    `json:"amount"`
	Method    Method     `json:"method"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Breakdown is the legacy cash/momo split recorded before payment history existed.
type Breakdown struct {
	Cash float64 `json:"cash"`
	Momo float64 `json:"momo"`
}

// Order is one customer transaction as stored in the orders collection.
type Order struct {
	ID           string      `json:"id"`
	SimplifiedID string      `json:"simplifiedId"`
	Tag          string      `json:"tag,omitempty"`
	OrderType    string      `json:"orderType,omitempty"`
	Items        []Item      `json:"items"`
	Status       OrderStatus `json:"status"`

	Total          float64 `json:"total"`
	RewardDiscount float64 `json:"rewardDiscount,omitempty"`
	PardonedAmount float64 `json:"pardonedAmount,omitempty"`

	PaymentStatus PaymentStatus `json:"paymentStatus"`
	AmountPaid    float64       `json:"amountPaid"`
	BalanceDue    float64       `json:"balanceDue"`
	ChangeGiven   float64       `json:"changeGiven,omitempty"`

	// PaymentHistory is authoritative when non-nil, even if empty.
	PaymentHistory []Payment `json:"paymentHistory"`

	PaymentMethod        Method     `json:"paymentMethod,omitempty"`
	PaymentBreakdown     *Breakdown `json:"paymentBreakdown,omitempty"`
	LastPaymentAmount    float64    `json:"lastPaymentAmount,omitempty"`
	LastPaymentTimestamp *time.Time `json:"lastPaymentTimestamp,omitempty"`

	ChangeSetAside             bool       `json:"changeSetAside,omitempty"`
	ChangeSetAsidePeriod       string     `json:"changeSetAsidePeriod,omitempty"`
	ChangeSetAsideAt           *time.Time `json:"changeSetAsideAt,omitempty"`
	LastChangeSettlementAmount float64    `json:"lastChangeSettlementAmount,omitempty"`
	LastChangeSettlementAt     *time.Time `json:"lastChangeSettlementAt,omitempty"`

	CashierID   string     `json:"cashierId,omitempty"`
	CashierName string     `json:"cashierName,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

// NetPayable is the total minus any reward discount.
func (o Order) NetPayable() float64 {
	return o.Total - o.RewardDiscount
}

// HasPaymentHistory reports whether the order carries structured payment entries.
func (o Order) HasPaymentHistory() bool {
	return o.PaymentHistory != nil
}

// LegacyPaymentTime returns the single payment instant of a legacy order,
// falling back to creation time.
func (o Order) LegacyPaymentTime() *time.Time {
	if o.LastPaymentTimestamp != nil {
		return o.LastPaymentTimestamp
	}
	return o.Timestamp
}

// ExpenseSource identifies the drawer a misc expense was paid from.
type ExpenseSource string

const (
	ExpenseSourceCash ExpenseSource = "cash"
	ExpenseSourceMomo ExpenseSource = "momo"
)

// MiscExpense is an ad-hoc outflow not tied to an order.
type MiscExpense struct {
	ID          string        `json:"id"`
	Purpose     string        `json:"purpose"`
	Amount      float64       `json:"amount"`
	Source      ExpenseSource `json:"source"`
	Settled     bool          `json:"settled"`
	CashierID   string        `json:"cashierId,omitempty"`
	CashierName string        `json:"cashierName,omitempty"`
	Timestamp   *time.Time    `json:"timestamp,omitempty"`
}

// ErrOrderNotFound indicates the order document does not exist.
var ErrOrderNotFound = fmt.Errorf("ledger: order %w", shared.ErrNotFound)

// ErrExpenseNotFound indicates the expense row does not exist.
var ErrExpenseNotFound = fmt.Errorf("ledger: expense %w", shared.ErrNotFound)

// ErrExpenseSettled is returned when deleting an expense that was already settled.
var ErrExpenseSettled = fmt.Errorf("ledger: settled expense cannot be deleted: %w", shared.ErrConflict)
