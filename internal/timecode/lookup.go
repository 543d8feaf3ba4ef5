package timecode

// unknownCycle is the sentinel stored in the lookup table for LFSR states
// that are never reached by the chosen variant's seed/taps pair.
const unknownCycle int32 = -1

// Handle owns a built Def, including its populated lookup table. It is
// immutable once returned by BuildLookup and may be shared read-only by any
// number of Decoders; there is no reference counting because Go's garbage
// collector frees the table once the last Decoder referencing it is gone.
//
// Ported from the global def pointer and timecode_def_t.lookup in
// timecoder.c, generalized to avoid a process-wide active variant: each
// caller gets its own handle, so several variants can be decoded
// concurrently.
type Handle struct {
	def *Def
}

// BuildLookup locates the named variant in the registry and builds its
// LFSR-state -> cycle-index lookup table. The table is sized to exactly
// 2^B entries with an explicit mask on read, tighter than the original
// C allocation's 2^(B+1) headroom (see DESIGN.md) without changing
// behavior.
//
// Ported from timecoder_build_lookup() in timecoder.c.
func BuildLookup(name string) (*Handle, error) {
	found := lookupDef(name)
	if found == nil {
		return nil, ErrUnknownVariant
	}

	def := *found // copy: each Handle owns its own Def + lookup table

	if fwd(rev(def.Seed, &def), &def) != def.Seed {
		// Verify the reverse LFSR is the exact inverse of the forward
		// LFSR at the seed before walking the cycle at all.
		return nil, ErrLFSRWrapped
	}

	table := make([]int32, 1<<def.Bits)
	for i := range table {
		table[i] = unknownCycle
	}

	current := def.Seed
	for n := uint32(0); n < def.Length; n++ {
		if table[current] != unknownCycle {
			return nil, ErrLFSRWrapped
		}
		table[current] = int32(n)

		last := current
		current = fwd(current, &def)
		if rev(current, &def) != last {
			return nil, ErrLFSRWrapped
		}
	}

	def.lookup = table
	return &Handle{def: &def}, nil
}

// FreeLookup drops the handle's reference to its lookup table. Go's
// garbage collector reclaims the backing array once no Decoder still holds
// this Handle; FreeLookup exists to make teardown explicit at call sites
// that mirror the C API, and to let a caller release memory before that
// collection would otherwise happen.
func FreeLookup(h *Handle) {
	if h == nil {
		return
	}
	h.def.lookup = nil
}

// Lookup returns the cycle index stored for the given B-bit LFSR state, or
// 0 and false if that state is not reachable from the variant's seed.
func (h *Handle) Lookup(state uint32) (int32, bool) {
	v := h.def.lookup[state&h.def.mask()]
	if v == unknownCycle {
		return 0, false
	}
	return v, true
}

// Safe returns the variant's last "safe" cycle index.
func (h *Handle) Safe() uint32 { return h.def.Safe }

// Resolution returns the variant's wave cycles per second at nominal speed.
func (h *Handle) Resolution() uint32 { return uint32(h.def.Resolution) }

// Bits returns the variant's LFSR bit width, B.
func (h *Handle) Bits() uint { return h.def.Bits }

// Polarity returns the variant's wave polarity.
func (h *Handle) Polarity() Polarity { return h.def.Polarity }

// Seed returns the variant's LFSR seed value (the state at timecode zero).
func (h *Handle) Seed() uint32 { return h.def.Seed }

// Name returns the variant's registry name.
func (h *Handle) Name() string { return h.def.Name }
