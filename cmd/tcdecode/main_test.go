package main

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// synthesizePCM writes a short stereo quadrature tone to path as raw
// interleaved little-endian 16-bit PCM, strong enough to register as a
// live signal and produce crossings for a pitch reading.
func synthesizePCM(t *testing.T, path string, rate float64, cycles int) {
	t.Helper()

	const freq = 1000.0
	const amplitude = 20000.0

	total := int(float64(cycles) * rate / freq)
	buf := make([]byte, 0, total*4)
	for i := 0; i < total; i++ {
		time := float64(i) / rate
		w := 2 * math.Pi * freq * time
		left := int16(amplitude * math.Sin(w))
		right := int16(amplitude * math.Cos(w))

		sample := make([]byte, 4)
		binary.LittleEndian.PutUint16(sample[0:], uint16(left))
		binary.LittleEndian.PutUint16(sample[2:], uint16(right))
		buf = append(buf, sample...)
	}

	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestRunSmoke(t *testing.T) {
	dir := t.TempDir()

	pcmPath := filepath.Join(dir, "tone.pcm")
	synthesizePCM(t, pcmPath, 48000, 200)

	configPath := filepath.Join(dir, "config.yaml")
	configBody := "variant: serato_2a\nsample_rate: 48000\n"
	if err := os.WriteFile(configPath, []byte(configBody), 0644); err != nil {
		t.Fatalf("WriteFile config: %v", err)
	}

	stdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	os.Stdout = w

	runErr := run(configPath, pcmPath, "smoke-test")

	w.Close()
	os.Stdout = stdout

	var captured bytes.Buffer
	io.Copy(&captured, r)

	if runErr != nil {
		t.Fatalf("run: %v", runErr)
	}

	output := captured.String()
	if !strings.Contains(output, "pitch=") && !strings.Contains(output, "cycle=") {
		t.Fatalf("run produced no position or pitch line, got: %q", output)
	}
}
