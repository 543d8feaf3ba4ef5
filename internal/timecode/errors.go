package timecode

import "errors"

// Sentinel errors raised by the lookup builder. There are exactly three
// failure conditions in the core, so a table of error codes (as FAAD2-style
// codecs use) would be needless indirection.
var (
	// ErrUnknownVariant is returned when BuildLookup is asked for a name
	// that is not in the variant registry.
	ErrUnknownVariant = errors.New("timecode: unknown variant")

	// ErrLFSRWrapped is returned when a variant's configured length
	// exceeds the cycle actually produced by its taps and seed, or when
	// the reverse LFSR is not the exact inverse of the forward LFSR at
	// the seed.
	ErrLFSRWrapped = errors.New("timecode: lfsr wrapped before reaching configured length")

	// ErrOutOfMemory is returned if the lookup or monitor allocation
	// fails. The Go port allocates with make(), which panics rather than
	// returning an error on exhaustion, but the sentinel is retained so
	// callers written against the documented interface can still match
	// on it.
	ErrOutOfMemory = errors.New("timecode: allocation failed")
)
