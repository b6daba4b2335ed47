package accounting

// Expect derives the balances a physical count should match. Change is
// always paid out in cash, and only the part funded from the day's sales
// reduces the cash expectation.
func Expect(s Stats) Expectation {
	return Expectation{
		ExpectedCash: round2(s.CashSales + s.SettledUnpaidCash - s.MiscCashExpenses - s.PreviousDaysChangeGivenFromSales),
		ExpectedMomo: round2(s.MomoSales + s.SettledUnpaidMomo - s.MiscMomoExpenses),
	}
}
