package stat

import (
	"math/big"
	"math/bits"
)

// mask returns a word with the low w bits set
func mask(w uint) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<w - 1
}

// signExtend treats the low w bits of v as a two's-complement number
func signExtend(v int64, w uint) int64 {
	if w >= 64 {
		return v
	}
	shift := 64 - w
	return (v << shift) >> shift
}

// quotient divides a non-negative dividend by d != 0.  Truncation is floor for unsigned
// operands; rounding is half away from zero.
func quotient(x, d uint64, round bool) uint64 {
	q, r := x/d, x%d
	if round && r >= d-r {
		q++
	}
	return q
}

// narrow reduces v to w bits, either keeping the low bits or clamping
func narrow(v uint64, w uint, mode Mode) uint64 {
	m := mask(w)
	if mode == Truncate {
		return v & m
	}
	if v > m {
		return m
	}
	return v
}

// Uint128 is an unsigned 128 bit product
type Uint128 struct {
	Hi, Lo uint64
}

// mul128 returns the exact product of a and b
func mul128(a, b uint64) Uint128 {
	hi, lo := bits.Mul64(a, b)
	return Uint128{Hi: hi, Lo: lo}
}

// Less reports whether u < v
func (u Uint128) Less(v uint64) bool {
	return u.Hi == 0 && u.Lo < v
}

// IsZero reports whether u == 0
func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// Big returns u as a big.Int, for display
func (u Uint128) Big() *big.Int {
	b := new(big.Int).SetUint64(u.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(u.Lo))
}

func (u Uint128) String() string {
	return u.Big().String()
}
