package throttle

import "math/bits"

// mul128 and div128 back the budget calculation's u128 intermediate
// (ported from the original Rust implementation's u128 arithmetic) so that
// totalWallNs*percent never overflows a 64-bit product before dividing by
// 100.
func mul128(a, b uint64) (hi, lo uint64) {
	return bits.Mul64(a, b)
}

func div128(hi, lo, y uint64) (q, r uint64) {
	return bits.Div64(hi, lo, y)
}
