// Command tclive captures stereo audio from the default input device and
// feeds it straight into a timecode decoder, printing resolved positions
// and pitch readings as they become available.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gordonklaus/portaudio"
	"github.com/spf13/pflag"

	"github.com/vinylcue/timecoder/internal/config"
	"github.com/vinylcue/timecoder/internal/timecode"
)

func main() {
	configFile := pflag.StringP("config", "c", "config.yaml", "Path to the YAML settings file")
	bufferFrames := pflag.IntP("buffer", "b", 1024, "Capture buffer size, in stereo sample-frames")
	pflag.Parse()

	if err := run(*configFile, *bufferFrames); err != nil {
		fmt.Fprintf(os.Stderr, "tclive: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile string, bufferFrames int) error {
	settings, err := config.Load(configFile)
	if err != nil {
		return err
	}

	handle, err := timecode.BuildLookup(settings.Variant)
	if err != nil {
		return fmt.Errorf("building lookup table for %q: %w", settings.Variant, err)
	}
	defer timecode.FreeLookup(handle)

	decoder := timecode.NewDecoder(handle)
	if settings.Monitor.Enabled {
		decoder.MonitorInit(settings.Monitor.Size)
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	callback := func(in []int16) {
		decoder.Submit(in, bufferFrames, settings.SampleRate)

		if pos, ok := decoder.GetPosition(); ok {
			fmt.Printf("cycle=%d seconds_since_read=%.3f\n", pos.Cycle, pos.SecondsSinceRead)
		}
		if pitch, ok := decoder.GetPitch(); ok {
			fmt.Printf("pitch=%.4f\n", pitch)
		}
	}

	stream, err := portaudio.OpenDefaultStream(
		2, // stereo input
		0, // no output
		float64(settings.SampleRate),
		bufferFrames,
		callback,
	)
	if err != nil {
		return fmt.Errorf("opening capture stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting capture stream: %w", err)
	}
	defer stream.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	return nil
}
