package accounting

import (
	"sort"
)

// BuildBusinessData shapes range statistics into the assistant-facing result.
// cashDiscrepancies are the cash discrepancies of reports filed in the range.
// NetSales covers sales made in the range only; collections on older orders
// are left out.
func BuildBusinessData(s Stats, start, end string, cashDiscrepancies []float64) BusinessData {
	items := make([]ItemPerformance, 0, len(s.ItemStats))
	for name, stat := range s.ItemStats {
		items = append(items, ItemPerformance{Name: name, Count: stat.Count, TotalValue: stat.TotalValue})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Name < items[j].Name
	})

	misc := s.MiscCashExpenses + s.MiscMomoExpenses

	var discrepancy float64
	for _, d := range cashDiscrepancies {
		discrepancy += d
	}

	return BusinessData{
		Start:           start,
		End:             end,
		TotalSales:      s.TotalSales,
		NetSales:        round2(s.CashSales + s.MomoSales - misc),
		TotalOrders:     len(s.Orders),
		ItemPerformance: items,
		CashDiscrepancy: round2(discrepancy),
		CashSales:       s.CashSales,
		MomoSales:       s.MomoSales,
		MiscExpenses:    round2(misc),
		ChangeOwed:      s.ChangeOwedForPeriod,
	}
}
