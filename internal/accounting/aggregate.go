package accounting

import (
	"math"

	"github.com/foodzone/foodzone-pos/internal/ledger"
)

// Recompute folds the full order collection and the expenses of the window
// into Stats. It has no side effects; identical inputs give identical output.
func Recompute(orders []ledger.Order, expenses []ledger.MiscExpense, w ledger.Window) Stats {
	entries, skipped := ledger.Read(orders, w)
	stats := Stats{
		Period:         w.Label(),
		ItemStats:      make(map[string]ItemStat),
		Orders:         make([]ledger.Order, 0),
		ActivityOrders: make([]ledger.Order, 0),
		SkippedOrders:  skipped,
	}

	for _, e := range entries {
		o := e.Order
		if e.Earlier && o.PaymentStatus.IsOutstanding() && o.BalanceDue > 0 {
			stats.PreviousUnpaidOrdersValue += o.BalanceDue
		}
		if e.InWindow {
			foldWindowOrder(&stats, o)
		}

		a := Attribute(e, w)
		stats.CashSales += a.CashSales
		stats.MomoSales += a.MomoSales
		stats.SettledUnpaidCash += a.SettledCash
		stats.SettledUnpaidMomo += a.SettledMomo
		stats.SettledUnpaidOrdersValue += a.SettledTotal
		stats.PreviousDaysChangeGiven += a.ChangeGiven
		stats.PreviousDaysChangeGivenFromSales += a.ChangeFromSales
		stats.PreviousDaysChangeGivenFromSetAside += a.ChangeFromSetAside

		if e.InWindow || e.HasActivity {
			stats.ActivityOrders = append(stats.ActivityOrders, o)
		}
	}

	for _, exp := range ledger.ExpensesIn(expenses, w) {
		if exp.Source == ledger.ExpenseSourceCash {
			stats.MiscCashExpenses += exp.Amount
		} else {
			stats.MiscMomoExpenses += exp.Amount
		}
	}

	stats.AllTimeUnpaidOrdersValue = stats.PreviousUnpaidOrdersValue + stats.TodayUnpaidOrdersValue
	// Reward discounts are already out of the per-order sales figures.
	stats.NetRevenue = stats.CashSales + stats.MomoSales + stats.SettledUnpaidOrdersValue -
		(stats.MiscCashExpenses + stats.MiscMomoExpenses)

	roundStats(&stats)
	return stats
}

func foldWindowOrder(stats *Stats, o ledger.Order) {
	stats.Orders = append(stats.Orders, o)

	if o.Status == ledger.OrderStatusCompleted {
		stats.TotalSales += o.NetPayable()
		for _, item := range o.Items {
			stats.TotalItemsSold += item.Quantity
			s := stats.ItemStats[item.Name]
			s.Count += item.Quantity
			s.TotalValue += float64(item.Quantity) * item.Price
			stats.ItemStats[item.Name] = s
		}
	}
	if o.BalanceDue > 0 {
		stats.TodayUnpaidOrdersValue += o.BalanceDue
	}
	// A negative balance is change owed to the customer, never clamped away.
	if o.BalanceDue < 0 {
		stats.ChangeOwedForPeriod += math.Abs(o.BalanceDue)
	}
	stats.TotalPardonedAmount += o.PardonedAmount
	stats.TotalRewardDiscount += o.RewardDiscount
}

// Activity returns the attribution detail for every activity order of w.
func Activity(orders []ledger.Order, w ledger.Window) []ActivityDetail {
	entries, _ := ledger.Read(orders, w)
	out := make([]ActivityDetail, 0)
	for _, e := range entries {
		if !e.InWindow && !e.HasActivity {
			continue
		}
		out = append(out, ActivityDetail{
			Order:       e.Order,
			InWindow:    e.InWindow,
			Attribution: Attribute(e, w),
		})
	}
	return out
}

func roundStats(s *Stats) {
	for _, v := range []*float64{
		&s.TotalSales, &s.CashSales, &s.MomoSales,
		&s.TodayUnpaidOrdersValue, &s.PreviousUnpaidOrdersValue, &s.AllTimeUnpaidOrdersValue,
		&s.TotalPardonedAmount, &s.TotalRewardDiscount, &s.ChangeOwedForPeriod,
		&s.SettledUnpaidCash, &s.SettledUnpaidMomo, &s.SettledUnpaidOrdersValue,
		&s.PreviousDaysChangeGiven, &s.PreviousDaysChangeGivenFromSales, &s.PreviousDaysChangeGivenFromSetAside,
		&s.MiscCashExpenses, &s.MiscMomoExpenses, &s.NetRevenue,
	} {
		*v = round2(*v)
	}
	for name, item := range s.ItemStats {
		item.TotalValue = round2(item.TotalValue)
		s.ItemStats[name] = item
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
