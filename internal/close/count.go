package close

import (
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/foodzone/foodzone-pos/internal/accounting"
)

// Denominations are the cedi notes and coins accepted in a cash count.
var Denominations = []int{200, 100, 50, 20, 10, 5, 2, 1}

var pesewa = decimal.NewFromFloat(0.01)

// TallyCash totals a denomination count.
func TallyCash(counts map[int]int) (decimal.Decimal, error) {
	total := decimal.Zero
	for denom, qty := range counts {
		if !slices.Contains(Denominations, denom) {
			return decimal.Zero, fmt.Errorf("%w: %d", ErrUnknownDenomination, denom)
		}
		if qty <= 0 {
			continue
		}
		total = total.Add(decimal.NewFromInt(int64(denom)).Mul(decimal.NewFromInt(int64(qty))))
	}
	return total, nil
}

// TallyMomo totals individual momo or card receipts, ignoring non-positive entries.
func TallyMomo(amounts []float64) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		if a > 0 {
			total = total.Add(decimal.NewFromFloat(a))
		}
	}
	return total
}

// Counted resolves the physical count from the input.
func Counted(in CloseoutInput) (cash, momo float64, err error) {
	if in.CountedCash != nil {
		cash = *in.CountedCash
	} else {
		tally, err := TallyCash(in.Denominations)
		if err != nil {
			return 0, 0, err
		}
		cash = tally.InexactFloat64()
	}
	if in.CountedMomo != nil {
		momo = *in.CountedMomo
	} else {
		momo = TallyMomo(in.MomoTransactions).InexactFloat64()
	}
	return cash, momo, nil
}

// Discrepancy holds counted minus expected per drawer.
type Discrepancy struct {
	Cash  float64
	Momo  float64
	Total float64
}

// Reconcile compares counted balances with the expectation. availableCash
// is the counted cash after any change set aside has been removed.
func Reconcile(exp accounting.Expectation, availableCash, countedMomo float64) Discrepancy {
	cash := decimal.NewFromFloat(availableCash).Sub(decimal.NewFromFloat(exp.ExpectedCash)).Round(2)
	momo := decimal.NewFromFloat(countedMomo).Sub(decimal.NewFromFloat(exp.ExpectedMomo)).Round(2)
	return Discrepancy{
		Cash:  cash.InexactFloat64(),
		Momo:  momo.InexactFloat64(),
		Total: cash.Add(momo).InexactFloat64(),
	}
}

func isZero(v float64) bool {
	return decimal.NewFromFloat(math.Abs(v)).LessThan(pesewa)
}
