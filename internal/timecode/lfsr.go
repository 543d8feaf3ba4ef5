package timecode

import "math/bits"

// parity returns the XOR-reduction of the bits of v: 1 if an odd number of
// bits are set, 0 otherwise. Ported from lfsr() in timecoder.c, which sums
// the masked bits one at a time; bits.OnesCount32 is the idiomatic Go
// equivalent of that loop.
func parity(v uint32) uint32 {
	return uint32(bits.OnesCount32(v) & 1)
}

// fwd advances an LFSR state one step in the forward direction. New bits
// enter at the MSB; the state is shifted right by one.
//
// Ported from fwd() in timecoder.c.
func fwd(current uint32, def *Def) uint32 {
	l := parity(current & (def.Taps | 1))
	return (current >> 1) | (l << (def.Bits - 1))
}

// rev advances an LFSR state one step in the reverse direction. New bits
// enter at the LSB; the state is shifted left by one and masked to B bits.
//
// Ported from rev() in timecoder.c.
func rev(current uint32, def *Def) uint32 {
	l := parity(current & ((def.Taps >> 1) | (1 << (def.Bits - 1))))
	return ((current << 1) & def.mask()) | l
}
