package accounting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodzone/foodzone-pos/internal/ledger"
)

var (
	day1 = ledger.Day(time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC), time.UTC)
	day2 = ledger.Day(time.Date(2024, time.May, 2, 12, 0, 0, 0, time.UTC), time.UTC)
)

func ts(day, hour int) *time.Time {
	t := time.Date(2024, time.May, day, hour, 0, 0, 0, time.UTC)
	return &t
}

func pay(amount float64, method ledger.Method, at *time.Time) ledger.Payment {
	return ledger.Payment{Amount: amount, Method: method, Timestamp: at}
}

func TestCapKeepsContributionWithinNetPayable(t *testing.T) {
	histories := [][]ledger.Payment{
		{pay(80, ledger.MethodCash, ts(2, 9)), pay(80, ledger.MethodMomo, ts(2, 10))},
		{pay(500, ledger.MethodCard, ts(2, 9))},
		{pay(40, ledger.MethodCash, ts(2, 9)), pay(40, ledger.MethodCash, ts(2, 10)), pay(40, ledger.MethodMomo, ts(2, 11))},
		{pay(10, ledger.MethodMomo, ts(2, 9))},
	}
	for _, h := range histories {
		o := ledger.Order{ID: "o", Total: 100, RewardDiscount: 20, Timestamp: ts(2, 8), PaymentHistory: h}
		entries, _ := ledger.Read([]ledger.Order{o}, day2)
		a := Attribute(entries[0], day2)
		assert.LessOrEqual(t, a.CashSales+a.MomoSales, 80.0)
		assert.GreaterOrEqual(t, a.CashSales, 0.0)
		assert.GreaterOrEqual(t, a.MomoSales, 0.0)
	}
}

func TestOverpaymentCapsCashSide(t *testing.T) {
	o := ledger.Order{
		ID: "o", Total: 100, Timestamp: ts(2, 8), Status: ledger.OrderStatusCompleted,
		PaymentHistory: []ledger.Payment{pay(50, ledger.MethodMomo, ts(2, 9)), pay(100, ledger.MethodCash, ts(2, 9))},
	}
	stats := Recompute([]ledger.Order{o}, nil, day2)
	assert.Equal(t, 50.0, stats.MomoSales)
	assert.Equal(t, 50.0, stats.CashSales)
}

func TestCrossDayPaymentIsSettlementNotSales(t *testing.T) {
	o := ledger.Order{
		ID: "o", Total: 80, Timestamp: ts(1, 9), Status: ledger.OrderStatusCompleted,
		PaymentStatus: ledger.PaymentStatusPaid,
		PaymentHistory: []ledger.Payment{
			pay(50, ledger.MethodCash, ts(1, 9)),
			pay(30, ledger.MethodMomo, ts(2, 10)),
		},
	}
	stats := Recompute([]ledger.Order{o}, nil, day2)

	assert.Equal(t, 30.0, stats.SettledUnpaidMomo)
	assert.Equal(t, 0.0, stats.SettledUnpaidCash)
	assert.Equal(t, 30.0, stats.SettledUnpaidOrdersValue)
	assert.Equal(t, 0.0, stats.CashSales)
	assert.Equal(t, 0.0, stats.MomoSales)
	assert.Equal(t, 0.0, stats.TotalSales)
	assert.Empty(t, stats.Orders)
	require.Len(t, stats.ActivityOrders, 1)

	first := Recompute([]ledger.Order{o}, nil, day1)
	assert.Equal(t, 50.0, first.CashSales)
	assert.Equal(t, 0.0, first.SettledUnpaidOrdersValue)
}

func TestChangeFundingSeparation(t *testing.T) {
	base := ledger.Order{
		ID: "aside", Total: 30, AmountPaid: 50, BalanceDue: -20, Timestamp: ts(1, 9),
		PaymentStatus:              ledger.PaymentStatusPaid,
		PaymentHistory:             []ledger.Payment{pay(50, ledger.MethodCash, ts(1, 9))},
		ChangeSetAside:             true,
		LastChangeSettlementAmount: 20,
		LastChangeSettlementAt:     ts(2, 11),
	}
	fromSales := base
	fromSales.ID = "sales"
	fromSales.ChangeSetAside = false

	sale := ledger.Order{
		ID: "today", Total: 200, Timestamp: ts(2, 9), Status: ledger.OrderStatusCompleted,
		PaymentHistory: []ledger.Payment{pay(200, ledger.MethodCash, ts(2, 9))},
	}

	baseline := Expect(Recompute([]ledger.Order{sale}, nil, day2))

	withAside := Recompute([]ledger.Order{sale, base}, nil, day2)
	assert.Equal(t, 20.0, withAside.PreviousDaysChangeGivenFromSetAside)
	assert.Equal(t, 0.0, withAside.PreviousDaysChangeGivenFromSales)
	assert.Equal(t, baseline.ExpectedCash, Expect(withAside).ExpectedCash)

	withSales := Recompute([]ledger.Order{sale, fromSales}, nil, day2)
	assert.Equal(t, 20.0, withSales.PreviousDaysChangeGivenFromSales)
	assert.Equal(t, 20.0, withSales.PreviousDaysChangeGiven)
	assert.Equal(t, baseline.ExpectedCash-20, Expect(withSales).ExpectedCash)

	// Change paid on the order's own day is not a prior-day settlement.
	sameDay := Recompute([]ledger.Order{base}, nil, day1)
	assert.Equal(t, 0.0, sameDay.PreviousDaysChangeGiven)
	assert.Equal(t, 20.0, sameDay.ChangeOwedForPeriod)
}

func TestChangeSettlementIgnoresRoundingNoise(t *testing.T) {
	o := ledger.Order{
		ID: "o", Total: 10, Timestamp: ts(1, 9),
		LastChangeSettlementAmount: 0.01,
		LastChangeSettlementAt:     ts(2, 9),
	}
	stats := Recompute([]ledger.Order{o}, nil, day2)
	assert.Equal(t, 0.0, stats.PreviousDaysChangeGiven)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	orders := fixtureOrders()
	expenses := []ledger.MiscExpense{
		{ID: "e1", Amount: 12.5, Source: ledger.ExpenseSourceCash, Timestamp: ts(2, 12)},
		{ID: "e2", Amount: 7.25, Source: ledger.ExpenseSourceMomo, Timestamp: ts(2, 13)},
	}
	first := Recompute(orders, expenses, day2)
	second := Recompute(orders, expenses, day2)
	assert.Equal(t, first, second)
	assert.Equal(t, Expect(first), Expect(second))
}

func TestLegacySettlementUsesLastPaymentAmount(t *testing.T) {
	o := ledger.Order{
		ID: "legacy", Total: 40, AmountPaid: 40, BalanceDue: 0, Timestamp: ts(1, 9),
		Status:               ledger.OrderStatusCompleted,
		PaymentStatus:        ledger.PaymentStatusPaid,
		PaymentMethod:        ledger.MethodCash,
		LastPaymentAmount:    40,
		LastPaymentTimestamp: ts(2, 10),
	}
	stats := Recompute([]ledger.Order{o}, nil, day2)
	assert.Equal(t, 40.0, stats.SettledUnpaidCash)
	assert.Equal(t, 40.0, stats.SettledUnpaidOrdersValue)
	assert.Equal(t, 0.0, stats.CashSales)
	require.Len(t, stats.ActivityOrders, 1)
}

func TestLegacyWithoutAmountRecordsActivityOnly(t *testing.T) {
	o := ledger.Order{
		ID: "legacy", Total: 40, AmountPaid: 40, Timestamp: ts(1, 9),
		PaymentMethod:        ledger.MethodCash,
		LastPaymentTimestamp: ts(2, 10),
	}
	stats := Recompute([]ledger.Order{o}, nil, day2)
	assert.Equal(t, 0.0, stats.SettledUnpaidOrdersValue)
	assert.Len(t, stats.ActivityOrders, 1)
}

func TestLegacySplitSettlementInfersMethod(t *testing.T) {
	o := ledger.Order{
		ID: "split", Total: 50, Timestamp: ts(1, 9),
		PaymentMethod:        ledger.MethodSplit,
		PaymentBreakdown:     &ledger.Breakdown{Cash: 30, Momo: 20},
		LastPaymentAmount:    20,
		LastPaymentTimestamp: ts(2, 10),
	}
	stats := Recompute([]ledger.Order{o}, nil, day2)
	assert.Equal(t, 20.0, stats.SettledUnpaidMomo)
	assert.Equal(t, 20.0, stats.SettledUnpaidOrdersValue)

	o.LastPaymentAmount = 45
	stats = Recompute([]ledger.Order{o}, nil, day2)
	assert.Equal(t, 0.0, stats.SettledUnpaidCash+stats.SettledUnpaidMomo)
	assert.Equal(t, 45.0, stats.SettledUnpaidOrdersValue)
}

func TestLegacyTodayOrderUsesBreakdown(t *testing.T) {
	o := ledger.Order{
		ID: "split", Total: 50, Timestamp: ts(2, 9), Status: ledger.OrderStatusCompleted,
		PaymentMethod:     ledger.MethodSplit,
		PaymentBreakdown:  &ledger.Breakdown{Cash: 30, Momo: 20},
		LastPaymentAmount: 50,
	}
	stats := Recompute([]ledger.Order{o}, nil, day2)
	assert.Equal(t, 30.0, stats.CashSales)
	assert.Equal(t, 20.0, stats.MomoSales)
}

func TestLegacyTodayBreakdownWithoutLastPaymentAmount(t *testing.T) {
	o := ledger.Order{
		ID: "split", Total: 50, Timestamp: ts(2, 9), Status: ledger.OrderStatusCompleted,
		PaymentMethod:    ledger.MethodSplit,
		PaymentBreakdown: &ledger.Breakdown{Cash: 30, Momo: 20},
	}
	stats := Recompute([]ledger.Order{o}, nil, day2)
	assert.Equal(t, 30.0, stats.CashSales)
	assert.Equal(t, 20.0, stats.MomoSales)
	assert.Equal(t, 50.0, stats.TotalSales)

	exp := Expect(stats)
	assert.Equal(t, 30.0, exp.ExpectedCash)
	assert.Equal(t, 20.0, exp.ExpectedMomo)
}

func TestLegacyBreakdownCountsAcrossRange(t *testing.T) {
	w, err := ledger.ParseRange("2024-05-01", "2024-05-02", time.UTC)
	require.NoError(t, err)
	o := ledger.Order{
		ID: "cash", Total: 50, Timestamp: ts(1, 9), Status: ledger.OrderStatusCompleted,
		PaymentMethod:    ledger.MethodCash,
		PaymentBreakdown: &ledger.Breakdown{Cash: 50},
	}
	data := BuildBusinessData(Recompute([]ledger.Order{o}, nil, w), "2024-05-01", "2024-05-02", nil)
	assert.Equal(t, 50.0, data.CashSales)
	assert.Equal(t, 50.0, data.TotalSales)
	assert.Equal(t, 50.0, data.NetSales)
}

func TestRewardDiscountIsNotSubtractedTwice(t *testing.T) {
	o := ledger.Order{
		ID: "reward", Total: 100, RewardDiscount: 20, Timestamp: ts(2, 9),
		Status:         ledger.OrderStatusCompleted,
		PaymentStatus:  ledger.PaymentStatusPaid,
		PaymentHistory: []ledger.Payment{pay(80, ledger.MethodCash, ts(2, 9))},
	}
	stats := Recompute([]ledger.Order{o}, nil, day2)
	assert.Equal(t, 80.0, stats.CashSales)
	assert.Equal(t, 80.0, stats.TotalSales)
	assert.Equal(t, 20.0, stats.TotalRewardDiscount)
	assert.Equal(t, 80.0, stats.NetRevenue)
}

func TestUnpaidBuckets(t *testing.T) {
	orders := []ledger.Order{
		{ID: "old-unpaid", Total: 60, BalanceDue: 60, Timestamp: ts(1, 9), PaymentStatus: ledger.PaymentStatusUnpaid},
		{ID: "old-partial", Total: 60, BalanceDue: 25, Timestamp: ts(1, 10), PaymentStatus: ledger.PaymentStatusPartiallyPaid},
		{ID: "old-paid", Total: 60, BalanceDue: 0, Timestamp: ts(1, 11), PaymentStatus: ledger.PaymentStatusPaid},
		{ID: "today-unpaid", Total: 30, BalanceDue: 30, Timestamp: ts(2, 9), PaymentStatus: ledger.PaymentStatusUnpaid, PardonedAmount: 5},
		{ID: "today-change", Total: 30, BalanceDue: -4.5, Timestamp: ts(2, 10), PaymentStatus: ledger.PaymentStatusPaid},
		{ID: "no-timestamp", Total: 99, BalanceDue: 99, PaymentStatus: ledger.PaymentStatusUnpaid},
	}
	stats := Recompute(orders, nil, day2)
	assert.Equal(t, 85.0, stats.PreviousUnpaidOrdersValue)
	assert.Equal(t, 30.0, stats.TodayUnpaidOrdersValue)
	assert.Equal(t, 115.0, stats.AllTimeUnpaidOrdersValue)
	assert.Equal(t, 4.5, stats.ChangeOwedForPeriod)
	assert.Equal(t, 5.0, stats.TotalPardonedAmount)
	assert.Equal(t, 1, stats.SkippedOrders)
	assert.Len(t, stats.Orders, 2)
}

func TestItemStatsCountCompletedOrdersOnly(t *testing.T) {
	orders := []ledger.Order{
		{ID: "a", Total: 25, Status: ledger.OrderStatusCompleted, Timestamp: ts(2, 9), Items: []ledger.Item{{Name: "Jollof", Price: 10, Quantity: 2}, {Name: "Water", Price: 5, Quantity: 1}}},
		{ID: "b", Total: 10, Status: ledger.OrderStatusPending, Timestamp: ts(2, 10), Items: []ledger.Item{{Name: "Jollof", Price: 10, Quantity: 1}}},
	}
	stats := Recompute(orders, nil, day2)
	assert.Equal(t, 3, stats.TotalItemsSold)
	assert.Equal(t, ItemStat{Count: 2, TotalValue: 20}, stats.ItemStats["Jollof"])
	assert.Equal(t, 25.0, stats.TotalSales)
}

func TestExpensesReduceNetRevenueAndExpectation(t *testing.T) {
	orders := []ledger.Order{{
		ID: "a", Total: 100, Status: ledger.OrderStatusCompleted, Timestamp: ts(2, 9),
		PaymentHistory: []ledger.Payment{pay(60, ledger.MethodCash, ts(2, 9)), pay(40, ledger.MethodMomo, ts(2, 9))},
	}}
	expenses := []ledger.MiscExpense{
		{ID: "e1", Amount: 10, Source: ledger.ExpenseSourceCash, Timestamp: ts(2, 12)},
		{ID: "e2", Amount: 5, Source: ledger.ExpenseSourceMomo, Timestamp: ts(2, 13)},
		{ID: "e3", Amount: 99, Source: ledger.ExpenseSourceCash, Timestamp: ts(1, 13)},
	}
	stats := Recompute(orders, expenses, day2)
	assert.Equal(t, 10.0, stats.MiscCashExpenses)
	assert.Equal(t, 5.0, stats.MiscMomoExpenses)
	assert.Equal(t, 85.0, stats.NetRevenue)

	exp := Expect(stats)
	assert.Equal(t, 50.0, exp.ExpectedCash)
	assert.Equal(t, 35.0, exp.ExpectedMomo)
	assert.Equal(t, 85.0, exp.Total())
}

func TestActivityFlagsSettlements(t *testing.T) {
	details := Activity(fixtureOrders(), day2)
	require.Len(t, details, 3)
	byID := map[string]ActivityDetail{}
	for _, d := range details {
		byID[d.Order.ID] = d
	}
	settled := byID["old-split"].Attribution
	require.Len(t, settled.Events, 1)
	assert.True(t, settled.Events[0].Settlement)
	assert.True(t, settled.Events[0].Inferred)
	assert.Equal(t, ledger.BucketCash, settled.Events[0].Bucket)

	assert.True(t, byID["today"].InWindow)
	assert.False(t, byID["today"].Attribution.Events[0].Settlement)
}

func TestBuildBusinessDataSortsItems(t *testing.T) {
	stats := Stats{
		TotalSales: 120, NetRevenue: 130, CashSales: 70, MomoSales: 50,
		MiscCashExpenses: 15, MiscMomoExpenses: 5, ChangeOwedForPeriod: 2,
		Orders: make([]ledger.Order, 4),
		ItemStats: map[string]ItemStat{
			"Water":  {Count: 1, TotalValue: 5},
			"Jollof": {Count: 7, TotalValue: 70},
			"Banku":  {Count: 7, TotalValue: 45},
		},
	}
	data := BuildBusinessData(stats, "2024-05-01", "2024-05-02", []float64{-20, 5.5})
	require.Len(t, data.ItemPerformance, 3)
	assert.Equal(t, "Banku", data.ItemPerformance[0].Name)
	assert.Equal(t, "Jollof", data.ItemPerformance[1].Name)
	assert.Equal(t, "Water", data.ItemPerformance[2].Name)
	assert.Equal(t, -14.5, data.CashDiscrepancy)
	assert.Equal(t, 100.0, data.NetSales)
	assert.Equal(t, 20.0, data.MiscExpenses)
	assert.Equal(t, 4, data.TotalOrders)
	assert.Equal(t, 2.0, data.ChangeOwed)
}

func fixtureOrders() []ledger.Order {
	return []ledger.Order{
		{
			ID: "today", Total: 45, Timestamp: ts(2, 9), Status: ledger.OrderStatusCompleted,
			PaymentStatus:  ledger.PaymentStatusPaid,
			Items:          []ledger.Item{{Name: "Waakye", Price: 15, Quantity: 3}},
			PaymentHistory: []ledger.Payment{pay(45, ledger.MethodCash, ts(2, 9))},
		},
		{
			ID: "old-split", Total: 50, Timestamp: ts(1, 9), PaymentStatus: ledger.PaymentStatusPaid,
			PaymentMethod:        ledger.MethodSplit,
			PaymentBreakdown:     &ledger.Breakdown{Cash: 30, Momo: 20},
			LastPaymentAmount:    30,
			LastPaymentTimestamp: ts(2, 11),
		},
		{
			ID: "old-history", Total: 70, BalanceDue: 20, Timestamp: ts(1, 9), PaymentStatus: ledger.PaymentStatusPartiallyPaid,
			PaymentHistory: []ledger.Payment{pay(30, ledger.MethodMomo, ts(1, 9)), pay(20, ledger.MethodCard, ts(2, 14))},
		},
		{ID: "idle", Total: 10, Timestamp: ts(1, 8), PaymentStatus: ledger.PaymentStatusPaid, PaymentHistory: []ledger.Payment{}},
	}
}
