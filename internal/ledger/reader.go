package ledger

// Entry is an order annotated for a query window.
type Entry struct {
	Order Order
	// InWindow is true when the order was created inside the window.
	InWindow bool
	// Earlier is true when the order was created before the window.
	Earlier bool
	// HasActivity is true when any payment event, structured or inferred,
	// falls inside the window regardless of creation day.
	HasActivity bool
}

// Read annotates every order against w. Orders without a creation timestamp
// cannot be bucketed and are dropped; the number dropped is returned.
func Read(orders []Order, w Window) (entries []Entry, skipped int) {
	entries = make([]Entry, 0, len(orders))
	for _, o := range orders {
		if o.Timestamp == nil {
			skipped++
			continue
		}
		entries = append(entries, Entry{
			Order:       o,
			InWindow:    w.Contains(o.Timestamp),
			Earlier:     w.Precedes(*o.Timestamp),
			HasActivity: hasActivity(o, w),
		})
	}
	return entries, skipped
}

func hasActivity(o Order, w Window) bool {
	if o.HasPaymentHistory() {
		for _, p := range o.PaymentHistory {
			if w.Contains(p.Timestamp) {
				return true
			}
		}
		return false
	}
	return w.Contains(o.LegacyPaymentTime())
}

// ExpensesIn keeps the expenses whose timestamp falls inside w.
func ExpensesIn(expenses []MiscExpense, w Window) []MiscExpense {
	out := make([]MiscExpense, 0, len(expenses))
	for _, e := range expenses {
		if w.Contains(e.Timestamp) {
			out = append(out, e)
		}
	}
	return out
}
