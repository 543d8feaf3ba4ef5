package timecode

import "testing"

func TestLFSRInversion(t *testing.T) {
	for _, def := range registry {
		def := def
		t.Run(def.Name, func(t *testing.T) {
			current := def.Seed
			for i := 0; i < 1000; i++ {
				next := fwd(current, &def)
				if got := rev(next, &def); got != current {
					t.Fatalf("rev(fwd(%#x)) = %#x, want %#x", current, got, current)
				}
				if got := fwd(rev(current, &def), &def); got != current {
					t.Fatalf("fwd(rev(%#x)) = %#x, want %#x", current, got, current)
				}
				current = next
			}
		})
	}
}

func TestLFSRStaysWithinBitWidth(t *testing.T) {
	for _, def := range registry {
		def := def
		current := def.Seed
		mask := def.mask()
		for i := 0; i < 1000; i++ {
			current = fwd(current, &def)
			if current&^mask != 0 {
				t.Fatalf("%s: fwd produced bits above B: %#x", def.Name, current)
			}
		}
	}
}

func TestParity(t *testing.T) {
	cases := []struct {
		v    uint32
		want uint32
	}{
		{0, 0},
		{1, 1},
		{3, 0},
		{0x7, 1},
		{0xf, 0},
	}
	for _, c := range cases {
		if got := parity(c.v); got != c.want {
			t.Errorf("parity(%#x) = %d, want %d", c.v, got, c.want)
		}
	}
}
