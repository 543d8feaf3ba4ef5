package timecode

import "testing"

func TestBuildLookupUnknownVariant(t *testing.T) {
	_, err := BuildLookup("does_not_exist")
	if err != ErrUnknownVariant {
		t.Fatalf("err = %v, want ErrUnknownVariant", err)
	}
}

func TestBuildLookupCoverage(t *testing.T) {
	h, err := BuildLookup("serato_2a")
	if err != nil {
		t.Fatalf("BuildLookup: %v", err)
	}

	seen := make(map[int32]bool, h.def.Length)
	var nonNegative int
	for state := uint32(0); state < uint32(1)<<h.Bits(); state++ {
		cycle, ok := h.Lookup(state)
		if !ok {
			continue
		}
		nonNegative++
		if cycle < 0 || uint32(cycle) >= h.def.Length {
			t.Fatalf("state %#x resolved to out-of-range cycle %d", state, cycle)
		}
		if seen[cycle] {
			t.Fatalf("cycle %d reached from more than one state", cycle)
		}
		seen[cycle] = true
	}

	if uint32(nonNegative) != h.def.Length {
		t.Fatalf("got %d populated entries, want %d", nonNegative, h.def.Length)
	}
	for n := int32(0); n < int32(h.def.Length); n++ {
		if !seen[n] {
			t.Fatalf("cycle %d never reached", n)
		}
	}
}

func TestBuildLookupForwardChainMatchesStoredOrder(t *testing.T) {
	h, err := BuildLookup("traktor_a")
	if err != nil {
		t.Fatalf("BuildLookup: %v", err)
	}

	current := h.Seed()
	for pos := uint32(0); pos < h.def.Length-1; pos++ {
		cycle, ok := h.Lookup(current)
		if !ok || uint32(cycle) != pos {
			t.Fatalf("state %#x at step %d resolved to (%d, %v), want %d", current, pos, cycle, ok, pos)
		}
		current = fwd(current, h.def)
	}
}

func TestAllRegistryVariantsBuild(t *testing.T) {
	for _, def := range registry {
		if _, err := BuildLookup(def.Name); err != nil {
			t.Errorf("%s: BuildLookup failed: %v", def.Name, err)
		}
	}
}

func TestFreeLookupClearsTable(t *testing.T) {
	h, err := BuildLookup("serato_cd")
	if err != nil {
		t.Fatalf("BuildLookup: %v", err)
	}
	FreeLookup(h)
	if h.def.lookup != nil {
		t.Fatalf("lookup table still populated after FreeLookup")
	}
}
