// Package money implements CostAmount, a non-negative USD amount with
// fixed six-decimal-place precision. There is no suitable decimal library
// in the retrieved dependency set that is actually exercised anywhere in
// the corpus (shopspring/decimal shows up only as an unused transitive
// dependency of an unrelated repo), so amounts are stored as integer
// "micro-dollars" (1 unit = $0.000001) rather than pulling in a decimal
// package purely to wrap math/big ourselves.
package money

import "math"

const microsPerDollar = 1_000_000

// Amount is an immutable, non-negative monetary value with six-decimal
// precision. The zero value is Zero.
type Amount struct {
	micros int64
}

// Zero is the additive identity.
var Zero = Amount{}

// FromDollars constructs an Amount from a float64 dollar value, rounding
// half-to-even to the nearest micro-dollar (six decimal places). Negative
// inputs are clamped to Zero: CostAmount is never negative.
func FromDollars(dollars float64) Amount {
	if dollars <= 0 || math.IsNaN(dollars) {
		return Zero
	}
	scaled := dollars * microsPerDollar
	return Amount{micros: int64(math.RoundToEven(scaled))}
}

// FromMicros constructs an Amount directly from an integer micro-dollar
// count. Negative values are clamped to Zero.
func FromMicros(micros int64) Amount {
	if micros < 0 {
		return Zero
	}
	return Amount{micros: micros}
}

// Dollars returns the plain float64 dollar value, for JSON serialization.
func (a Amount) Dollars() float64 {
	return float64(a.micros) / microsPerDollar
}

// Micros returns the underlying integer micro-dollar count.
func (a Amount) Micros() int64 {
	return a.micros
}

// Add returns the sum of two amounts. Addition of two non-negative
// amounts is always non-negative, so Add is closed over Amount.
func (a Amount) Add(b Amount) Amount {
	return Amount{micros: a.micros + b.micros}
}

// IsZero reports whether the amount is exactly Zero.
func (a Amount) IsZero() bool {
	return a.micros == 0
}

// String renders the amount as a fixed six-decimal-place USD string.
func (a Amount) String() string {
	whole := a.micros / microsPerDollar
	frac := a.micros % microsPerDollar
	return formatFixed(whole, frac)
}

func formatFixed(whole, frac int64) string {
	const digits = "0123456789"
	buf := make([]byte, 0, 16)
	buf = appendInt(buf, whole)
	buf = append(buf, '.')
	// frac is always in [0, microsPerDollar), zero-pad to six digits.
	div := int64(100000)
	for div > 0 {
		buf = append(buf, digits[(frac/div)%10])
		div /= 10
	}
	return string(buf)
}

func appendInt(buf []byte, n int64) []byte {
	if n == 0 {
		return append(buf, '0')
	}
	start := len(buf)
	for n > 0 {
		buf = append(buf, byte('0'+n%10))
		n /= 10
	}
	// reverse the digits we just appended
	for i, j := start, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}
