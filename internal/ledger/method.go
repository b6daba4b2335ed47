package ledger

import (
	"encoding/json"
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// Method is the loosely typed payment method string found on order documents.
type Method string

const (
	MethodCash   Method = "cash"
	MethodMomo   Method = "momo"
	MethodCard   Method = "card"
	MethodSplit  Method = "split"
	MethodUnpaid Method = "Unpaid"
)

// ParseMethod normalises free-form method strings such as "Cash" or " MOMO ".
// Unknown values are kept verbatim so they can still be reported.
func ParseMethod(raw string) Method {
	folded := cases.Fold().String(strings.TrimSpace(raw))
	switch folded {
	case "cash":
		return MethodCash
	case "momo", "mobile money", "mobile-money":
		return MethodMomo
	case "card":
		return MethodCard
	case "split":
		return MethodSplit
	case "unpaid", "":
		return MethodUnpaid
	default:
		return Method(raw)
	}
}

// UnmarshalJSON accepts any casing of the known methods.
func (m *Method) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ParseMethod(raw)
	return nil
}

// Bucket is the drawer a payment lands in. Card collapses into momo.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketCash
	BucketMomo
)

func (b Bucket) String() string {
	switch b {
	case BucketCash:
		return "cash"
	case BucketMomo:
		return "momo"
	default:
		return "none"
	}
}

// MarshalJSON renders the bucket by name.
func (b Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// Bucket maps a method to its drawer; split and unpaid have none.
func (m Method) Bucket() Bucket {
	switch m {
	case MethodCash:
		return BucketCash
	case MethodMomo, MethodCard:
		return BucketMomo
	default:
		return BucketNone
	}
}

// MoneyEpsilon is the tolerance for comparing currency amounts.
const MoneyEpsilon = 0.01

// AmountsEqual compares two currency amounts within MoneyEpsilon.
func AmountsEqual(a, b float64) bool {
	return math.Abs(a-b) < MoneyEpsilon
}

// InferLegacyBucket decides which drawer received a legacy payment of amount.
// The explicit method wins. For split or unknown methods the breakdown is
// compared against the amount: a payment equal to one component while the
// other component is non-zero is assumed to be that component. This is a
// best-effort reconstruction; ok is false when nothing matches.
func InferLegacyBucket(o Order, amount float64) (bucket Bucket, inferred bool, ok bool) {
	if b := o.PaymentMethod.Bucket(); b != BucketNone {
		return b, false, true
	}
	if o.PaymentBreakdown == nil {
		return BucketNone, false, false
	}
	cash, momo := o.PaymentBreakdown.Cash, o.PaymentBreakdown.Momo
	switch {
	case AmountsEqual(cash, amount) && momo > 0:
		return BucketCash, true, true
	case AmountsEqual(momo, amount) && cash > 0:
		return BucketMomo, true, true
	default:
		return BucketNone, false, false
	}
}
