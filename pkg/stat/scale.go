package stat

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Scale is a fixed-point convention: the integer x stands for the real value x / factor.
// The stage itself never converts scales; Scale is for callers preparing inputs, in
// particular the precomputed bound_sq.
type Scale struct {
	factor decimal.Decimal
}

// NewScale parses a positive decimal factor such as "1", "1000" or "0.5"
func NewScale(factor string) (Scale, error) {
	f, err := decimal.NewFromString(factor)
	if err != nil {
		return Scale{}, fmt.Errorf("invalid scale %q: %w", factor, err)
	}
	if !f.IsPositive() {
		return Scale{}, fmt.Errorf("scale %q must be positive", factor)
	}
	return Scale{factor: f}, nil
}

// ScaleFromFracBits returns the binary scale 2^frac
func ScaleFromFracBits(frac uint) Scale {
	return Scale{factor: decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), frac), 0)}
}

// Factor returns the scale factor
func (s Scale) Factor() decimal.Decimal {
	return s.factor
}

// Squared returns the scale of a product of two values in scale s
func (s Scale) Squared() Scale {
	return Scale{factor: s.factor.Mul(s.factor)}
}

// Encode converts a decimal string to the fixed-point integer, truncating toward zero
func (s Scale) Encode(value string) (int64, error) {
	v, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", value, err)
	}
	b := v.Mul(s.factor).Truncate(0).BigInt()
	if !b.IsInt64() {
		return 0, fmt.Errorf("value %s does not fit 64 bits at scale %s", value, s.factor)
	}
	return b.Int64(), nil
}

// Decode converts a fixed-point integer back to its exact decimal value
func (s Scale) Decode(x int64) decimal.Decimal {
	return decimal.NewFromInt(x).Div(s.factor)
}

// BoundSq squares bound exactly and encodes it at scale s, truncating toward zero.  The
// caller chooses s to match the scale the stage compares bound_sq against.  The result must
// fit the value width of w.
func (s Scale) BoundSq(bound string, w Widths) (uint64, error) {
	b, err := decimal.NewFromString(bound)
	if err != nil {
		return 0, fmt.Errorf("invalid bound %q: %w", bound, err)
	}
	sq := b.Mul(b).Mul(s.factor).Truncate(0)
	limit := decimal.NewFromBigInt(new(big.Int).SetUint64(w.MaxBoundSq()), 0)
	if sq.GreaterThan(limit) {
		return 0, WidthError{Msg: fmt.Sprintf("bound %s squares to %s at scale %s, wider than %d bits", bound, sq, s.factor, w.Value)}
	}
	return sq.BigInt().Uint64(), nil
}

func (s Scale) String() string {
	return s.factor.String()
}
