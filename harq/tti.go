package harq

import "fmt"

// DefaultTtiModulus is the wrap horizon used by NewTtiPoint. It matches the
// LTE/NR frame/subframe counter: a 10-bit frame number (1024 frames) times
// 10 subframes, i.e. 10240.
const DefaultTtiModulus = 10240

// TtiPoint is a monotonically advancing slot index with modular arithmetic
// over a wrap horizon. Ordering and equality are defined on a sliding
// half-window: two points that are more than modulus/2 apart cannot be
// compared meaningfully, since either could be "ahead" depending on how
// much time has actually elapsed.
type TtiPoint struct {
	val     uint32
	modulus uint32
}

// NewTtiPoint creates a TtiPoint using DefaultTtiModulus.
func NewTtiPoint(val uint32) TtiPoint {
	return NewTtiPointMod(val, DefaultTtiModulus)
}

// NewTtiPointMod creates a TtiPoint with an explicit wrap modulus. The
// modulus must be at least 10240; smaller horizons make the half-window
// comparisons in After/AtOrAfter ambiguous for realistic feedback delays.
func NewTtiPointMod(val, modulus uint32) TtiPoint {
	if modulus < DefaultTtiModulus {
		panic(fmt.Sprintf("tti modulus must be >= %d, got %d", DefaultTtiModulus, modulus))
	}

	return TtiPoint{val: val % modulus, modulus: modulus}
}

// ToUint returns the raw slot index, in [0, modulus).
func (t TtiPoint) ToUint() uint32 {
	return t.val
}

// Modulus returns the wrap horizon this point was constructed with.
func (t TtiPoint) Modulus() uint32 {
	return t.modulus
}

// Add returns the point n slots later, wrapping at the modulus. n is
// expected to be small relative to the modulus (feedback delays, process
// bank sizes); the spec never advances a TtiPoint by more than a few tens
// of slots at a time.
func (t TtiPoint) Add(n uint32) TtiPoint {
	mod := t.mod()
	return TtiPoint{val: (t.val + n) % mod, modulus: t.modulus}
}

// Sub returns the signed difference t-other, wrap-aware, in the sliding
// half-window [-modulus/2, modulus/2).
func (t TtiPoint) Sub(other TtiPoint) int32 {
	t.mustMatchModulus(other)

	mod := t.mod()
	diff := int64(t.val) - int64(other.val)
	half := int64(mod) / 2

	if diff >= half {
		diff -= int64(mod)
	} else if diff < -half {
		diff += int64(mod)
	}

	return int32(diff)
}

// mod returns the effective wrap modulus, treating the zero value (an
// unconstructed TtiPoint, e.g. a fresh HarqProcess's tti field) as
// DefaultTtiModulus rather than a degenerate mod-0 space.
func (t TtiPoint) mod() uint32 {
	if t.modulus == 0 {
		return DefaultTtiModulus
	}

	return t.modulus
}

// Equal reports whether the two points refer to the same slot.
func (t TtiPoint) Equal(other TtiPoint) bool {
	t.mustMatchModulus(other)

	return t.val == other.val
}

// After reports whether t is strictly later than other within the sliding
// half-window.
func (t TtiPoint) After(other TtiPoint) bool {
	return t.Sub(other) > 0
}

// AtOrAfter reports whether t is later than or equal to other.
func (t TtiPoint) AtOrAfter(other TtiPoint) bool {
	return t.Sub(other) >= 0
}

// String implements fmt.Stringer for use in logs and hook details.
func (t TtiPoint) String() string {
	return fmt.Sprintf("tti(%d)", t.val)
}

func (t TtiPoint) mustMatchModulus(other TtiPoint) {
	if t.mod() != other.mod() {
		panic(fmt.Sprintf("tti modulus mismatch: %d vs %d", t.mod(), other.mod()))
	}
}
