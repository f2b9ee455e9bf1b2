package decimal

import (
	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// BalanceTolerance is the largest voucher imbalance tolerated before a
// finding is raised
var BalanceTolerance = decimal.RequireFromString("0.01")

// FromInt creates decimal from int
func FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// FromString parses decimal from string
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// MustFromString parses decimal from string, panics on error
func MustFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Signed applies the ledger sign convention: a deemed-positive entry
// carries the negated nominal amount.
func Signed(nominal decimal.Decimal, deemedPositive bool) decimal.Decimal {
	if deemedPositive {
		return nominal.Neg()
	}
	return nominal
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// IsPositive returns true if decimal is greater than zero
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}

// WithinTolerance reports whether |d| <= tol
func WithinTolerance(d, tol decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(tol)
}

// Format renders an amount the way it is written into voucher XML:
// exact digits, no exponent, no trailing zeros ("50", "-4.5").
func Format(d decimal.Decimal) string {
	return d.String()
}

// Round2 rounds to paise
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
