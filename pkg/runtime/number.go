package runtime

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// DefaultDivisionScale is the number of fractional digits kept by division.
const DefaultDivisionScale = 20

// MaxDivisionScale bounds the scale an interpreter may be configured with.
const MaxDivisionScale = 100

// ValidateDivisionScale reports whether scale is an accepted division scale.
func ValidateDivisionScale(scale int) error {
	if scale < 0 || scale > MaxDivisionScale {
		return fmt.Errorf("division scale must be between 0 and %d, got %d", MaxDivisionScale, scale)
	}
	return nil
}

// ParseNumber converts decimal text to a number value.
func ParseNumber(text string) (*Value, error) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", text)
	}
	return NewNumber(d), nil
}

// normalizeNumber strips trailing fractional zeros so equal numbers share one
// representation.
func normalizeNumber(d decimal.Decimal) decimal.Decimal {
	if d.Exponent() >= 0 {
		return d
	}
	return decimal.RequireFromString(d.String())
}

// Divide keeps scale fractional digits, rounding half away from zero.
func Divide(a, b decimal.Decimal, scale int32) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, fmt.Errorf("Division by zero")
	}
	return a.DivRound(b, scale), nil
}

// Power raises base to exp. Whole exponents are computed exactly, fractional
// ones go through float64 and are rounded to scale.
func Power(base, exp decimal.Decimal, scale int32) (decimal.Decimal, error) {
	if exp.IsInteger() {
		n := exp.IntPart()
		negative := n < 0
		if negative {
			n = -n
		}
		result := decimal.NewFromInt(1)
		factor := base
		for n > 0 {
			if n&1 == 1 {
				result = result.Mul(factor)
			}
			factor = factor.Mul(factor)
			n >>= 1
		}
		if negative {
			return Divide(decimal.NewFromInt(1), result, scale)
		}
		return result, nil
	}
	b, _ := base.Float64()
	e, _ := exp.Float64()
	f := math.Pow(b, e)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%s to the power of %s is not a real number", base.String(), exp.String())
	}
	return decimal.NewFromFloat(f).Round(scale), nil
}

// Factorial computes n! for whole non-negative n.
func Factorial(n decimal.Decimal) (decimal.Decimal, error) {
	if !n.IsInteger() || n.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("factorial requires a non-negative whole number, got %s", n.String())
	}
	k := n.IntPart()
	if k < 2 {
		return decimal.NewFromInt(1), nil
	}
	out := new(big.Int).MulRange(1, k)
	return decimal.NewFromBigInt(out, 0), nil
}

// WholeNumber returns the integer form of a whole number.
func WholeNumber(d decimal.Decimal) (*big.Int, error) {
	if !d.IsInteger() {
		return nil, fmt.Errorf("%s is not a whole number", d.String())
	}
	return d.BigInt(), nil
}

// FromBigInt converts an integer back to a number value.
func FromBigInt(b *big.Int) *Value {
	return NewNumber(decimal.NewFromBigInt(b, 0))
}
