package timecode

import (
	"math"

	"github.com/google/uuid"
)

// Position is the result of a successful GetPosition call: a resolved
// cycle index and the time elapsed, in seconds, since the bitstream last
// validated to that index.
type Position struct {
	Cycle            int32
	SecondsSinceRead float32
}

// Decoder holds all per-stream state for a single timecoded-vinyl decode.
// It is single-owner and not safe for concurrent use from multiple
// goroutines; callers that share a Decoder across goroutines must
// serialize externally.
//
// Ported from struct timecoder_t in timecoder.h/timecoder.c.
type Decoder struct {
	// ID is a random identifier assigned by each Init call. It plays no
	// part in the decode algorithm itself, and no other package in this
	// repository reads it: cmd/tcdecode labels metrics and MQTT events
	// with its own session string.
	ID uuid.UUID

	handle *Handle

	left, right, mono channel

	forwards bool

	halfPeak, wavePeak float64
	refLevel           float64 // -1 means uninitialized
	signalLevel        float64

	crossings   int // signed; negative while playing in reverse
	pitchTicker int
	waveTicker  int // samples since the last wave crossing; feeds pitchTicker on reset

	bitstream uint32
	timecode  uint32

	validCounter   int
	timecodeTicker int

	rate uint32

	zeroAlpha, signalAlpha float64

	monitor        []byte
	monitorSize    int
	monitorCounter int

	// OnBit, if non-nil, is invoked synchronously once per emitted bit,
	// immediately after the bit is computed and before the
	// bitstream/timecode update. It must not block: it runs on the
	// Submit hot path. See internal/bitlog for the canonical consumer.
	OnBit func(bit bool)
}

// NewDecoder allocates a Decoder bound to the given lookup handle. The
// handle may be shared by any number of decoders; it is never mutated
// after BuildLookup returns.
func NewDecoder(handle *Handle) *Decoder {
	d := &Decoder{handle: handle}
	d.Init()
	return d
}

// Init resets a Decoder to its just-constructed state.
//
// Ported from timecoder_init() in timecoder.c.
func (d *Decoder) Init() {
	d.ID = uuid.New()

	d.forwards = true
	d.rate = 0

	d.halfPeak = 0
	d.wavePeak = 0
	d.refLevel = -1
	d.signalLevel = 0

	d.mono.reset()
	d.left.reset()
	d.right.reset()

	d.crossings = 0
	d.pitchTicker = 0
	d.waveTicker = 0

	d.bitstream = 0
	d.timecode = 0
	d.validCounter = 0
	d.timecodeTicker = 0
}

// Clear releases resources held by the decoder (currently only the
// monitor grid).
//
// Ported from timecoder_clear() in timecoder.c.
func (d *Decoder) Clear() {
	d.MonitorClear()
}

// MonitorInit allocates a size*size byte grid that Submit updates with one
// pixel per input sample, and that an external transport
// (internal/monitorstream) may read via MonitorSnapshot. The core never
// serializes or renders this grid itself.
//
// Ported from timecoder_monitor_init() in timecoder.c.
func (d *Decoder) MonitorInit(size int) {
	d.monitorSize = size
	d.monitor = make([]byte, size*size)
	d.monitorCounter = 0
}

// MonitorClear frees the monitor grid.
//
// Ported from timecoder_monitor_clear() in timecoder.c.
func (d *Decoder) MonitorClear() {
	d.monitor = nil
	d.monitorSize = 0
}

// MonitorSnapshot returns a defensive copy of the current monitor grid, or
// nil if no monitor was initialized. Intended for consumption by
// internal/monitorstream; the core performs no serialization of its own.
func (d *Decoder) MonitorSnapshot() []byte {
	if d.monitor == nil {
		return nil
	}
	out := make([]byte, len(d.monitor))
	copy(out, d.monitor)
	return out
}

// setSampleRate recomputes the one-pole filter coefficients for the given
// sample rate. Called once per Submit: a per-block rate change is a
// deliberate, supported contract.
//
// Ported from set_sample_rate() in timecoder.c.
func (d *Decoder) setSampleRate(rate uint32) {
	d.rate = rate
	dt := 1.0 / float64(rate)
	d.zeroAlpha = dt / (zeroRC + dt)
	d.signalAlpha = dt / (signalRC + dt)
}

// Submit decodes a block of interleaved 16-bit stereo PCM. pcm must have
// length 2*samples (L,R interleaved). Complexity is O(samples); Submit
// never allocates.
//
// Ported from timecoder_submit() in timecoder.c.
func (d *Decoder) Submit(pcm []int16, samples int, rate uint32) {
	d.setSampleRate(rate)

	mask := d.handle.def.mask()
	monitorCentre := d.monitorSize / 2

	offset := 0
	for s := 0; s < samples; s++ {
		left := float64(pcm[offset])
		right := float64(pcm[offset+1])

		d.left.detectCrossing(left, d.zeroAlpha)
		d.right.detectCrossing(right, d.zeroAlpha)

		g := left + right
		swapped := d.mono.detectCrossing(g, d.zeroAlpha)

		if swapped {
			halfCycle := d.mono.positive == (boolXOR(d.handle.def.Polarity == PolarityPositive, d.forwards))

			if halfCycle {
				// Entering the second half of a wave cycle.
				d.halfPeak = d.wavePeak
			} else {
				// Completed a full wave cycle: decide the bit.
				bit := d.wavePeak+d.halfPeak > d.refLevel

				if d.OnBit != nil {
					d.OnBit(bit)
				}

				b := uint32(0)
				if bit {
					b = 1
				}

				// d.bitstream is always in the order it is physically
				// placed on the medium, regardless of direction.
				if d.forwards {
					d.timecode = fwd(d.timecode, d.handle.def)
					d.bitstream = (d.bitstream >> 1) | (b << (d.handle.def.Bits - 1))
				} else {
					d.timecode = rev(d.timecode, d.handle.def)
					d.bitstream = ((d.bitstream << 1) & mask) | b
				}

				if d.timecode == d.bitstream {
					d.validCounter++
				} else {
					d.timecode = d.bitstream
					d.validCounter = 0
				}

				d.timecodeTicker = 0

				if d.refLevel == -1 {
					d.refLevel = d.halfPeak + d.wavePeak
				} else {
					d.refLevel = (d.refLevel*(refPeaksAvg-1) + d.halfPeak + d.wavePeak) / refPeaksAvg
				}
			}

			// Direction from the phase difference between channels:
			// the channel whose crossingTicker is larger crossed
			// earlier and therefore leads. Strictly-greater ties to
			// reverse, matching timecoder.c's else branch exactly.
			d.forwards = d.left.crossingTicker > d.right.crossingTicker

			if d.forwards {
				d.crossings++
			} else {
				d.crossings--
			}

			// waveTicker holds the sample count accumulated since the
			// last crossing; mono.crossingTicker has already been
			// reset to 0 by detectCrossing above, so it must be read
			// here, before this sample's own increment below.
			d.pitchTicker += d.waveTicker
			d.waveTicker = 0
			d.wavePeak = 0
		}

		d.waveTicker++
		d.timecodeTicker++

		m := math.Abs(g - d.mono.zero)
		if m > d.wavePeak {
			d.wavePeak = m
		}

		d.signalLevel += d.signalAlpha * (m - d.signalLevel)

		if d.monitor != nil {
			d.monitorCounter++
			if d.monitorCounter%monitorDecayEvery == 0 {
				for p := range d.monitor {
					if d.monitor[p] != 0 {
						d.monitor[p] = byte(int(d.monitor[p]) * 7 / 8)
					}
				}
			}

			if d.refLevel > 0 {
				v := left / d.refLevel
				w := right / d.refLevel

				x := monitorCentre + int(v*float64(d.monitorSize))
				y := monitorCentre + int(w*float64(d.monitorSize))

				if x > 0 && x < d.monitorSize && y > 0 && y < d.monitorSize {
					d.monitor[y*d.monitorSize+x] = 0xff
				}
			}
		}

		offset += 2
	}
}

// boolXOR is the bool-valued XOR used by the half/full cycle test in
// Submit: def.Polarity == PolarityPositive XOR d.forwards.
func boolXOR(a, b bool) bool {
	return a != b
}

// GetPitch returns the fractional playback speed relative to nominal
// (1.0 = nominal, negative = reverse), and resets the crossing/tick
// accumulators. Returns false if no crossings have been seen since the
// last call. GetPitch has a single-reader contract: concurrent calls on
// the same Decoder are undefined.
//
// Ported from timecoder_get_pitch() in timecoder.c.
func (d *Decoder) GetPitch() (float32, bool) {
	if d.crossings == 0 {
		return 0, false
	}

	pitch := float64(d.rate) * float64(d.crossings) /
		float64(d.pitchTicker) / (float64(d.handle.def.Resolution) * 2)

	d.crossings = 0
	d.pitchTicker = 0

	return float32(pitch), true
}

// GetPosition returns the decoder's currently-resolved absolute position,
// or false if the bitstream has not yet validated past VALID_BITS
// consecutive matches, or resolves to an unreachable LFSR state.
//
// Ported from timecoder_get_position() in timecoder.c.
func (d *Decoder) GetPosition() (Position, bool) {
	if d.validCounter <= validBits {
		return Position{}, false
	}

	cycle, ok := d.handle.Lookup(d.bitstream)
	if !ok {
		return Position{}, false
	}

	return Position{
		Cycle:            cycle,
		SecondsSinceRead: float32(d.timecodeTicker) / float32(d.rate),
	}, true
}

// GetAlive reports whether a timecode signal is currently present on the
// input, based on a rolling average of the rectified mono signal.
//
// Ported from timecoder_get_alive() in timecoder.c.
func (d *Decoder) GetAlive() bool {
	return d.signalLevel >= signalThreshold
}

// ValidCounter returns the number of consecutive bits read that matched
// the LFSR prediction (stepped with fwd or rev according to the playback
// direction), for external reporting (metrics,
// logging); it plays no part in the decode algorithm itself beyond what
// GetPosition already checks against VALID_BITS.
func (d *Decoder) ValidCounter() int {
	return d.validCounter
}

// GetSafe returns the last "safe" cycle index of the decoder's bound
// variant: positions beyond it fall on the record label and are
// meaningless.
func (d *Decoder) GetSafe() uint32 {
	return d.handle.Safe()
}

// GetResolution returns the wave cycles per second, at nominal speed, of
// the decoder's bound variant.
func (d *Decoder) GetResolution() uint32 {
	return d.handle.Resolution()
}
