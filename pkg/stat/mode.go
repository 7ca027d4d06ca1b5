package stat

import "fmt"

// Mode selects how the two narrowing points (e_x2 and m2 down to the value width) behave.
// Round additionally changes the two divisions.
type Mode int

const (
	// Truncate keeps the low value-width bits of each narrowed quantity and truncates both
	// divisions toward zero.  This is the reference behavior and the default.
	Truncate Mode = iota
	// Saturate clamps each narrowed quantity to the largest value-width number.  Divisions
	// still truncate toward zero.
	Saturate
	// Round changes the divisions, not the narrowing: mean = cum_val / n and e_x2 = cum_sq / n
	// round half away from zero instead of truncating.  The narrowing points then clamp
	// exactly as in Saturate.
	Round
)

var modeNames = map[Mode]string{
	Truncate: "truncate",
	Saturate: "saturate",
	Round:    "round",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode returns the mode named s
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return Truncate, fmt.Errorf("unknown narrowing mode %q, expected truncate, saturate or round", s)
}
