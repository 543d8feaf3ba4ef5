// Command tcdecode reads interleaved 16-bit stereo PCM from a file (or
// stdin) and decodes a timecoded-vinyl control signal from it, printing
// resolved positions and pitch readings to stdout as they become
// available.
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/vinylcue/timecoder/internal/bitlog"
	"github.com/vinylcue/timecoder/internal/config"
	"github.com/vinylcue/timecoder/internal/monitorstream"
	"github.com/vinylcue/timecoder/internal/telemetry"
	"github.com/vinylcue/timecoder/internal/timecode"
)

const framesPerRead = 4096 // stereo sample-frames per read

func main() {
	var (
		configFile = pflag.StringP("config", "c", "config.yaml", "Path to the YAML settings file")
		inputFile  = pflag.StringP("input", "i", "-", "Raw interleaved 16-bit stereo PCM file ('-' for stdin)")
		session    = pflag.String("session", "default", "Session label attached to exported metrics and MQTT events")
	)
	pflag.Parse()

	if err := run(*configFile, *inputFile, *session); err != nil {
		fmt.Fprintf(os.Stderr, "tcdecode: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, inputFile, session string) error {
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

	var sink *bitlog.Sink
	if settings.Bitlog.Enabled {
		sink, err = bitlog.Open(settings.Bitlog.Path)
		if err != nil {
			return err
		}
		defer sink.Close()
		decoder.OnBit = sink.Observe
	}

	if settings.Monitor.Enabled {
		decoder.MonitorInit(settings.Monitor.Size)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var metrics *telemetry.Metrics
	if settings.Metrics.Enabled {
		metrics = telemetry.NewMetrics()
		go serveMetrics(ctx, settings.Metrics.Addr)
	}

	var publisher *telemetry.Publisher
	if settings.MQTT.Enabled {
		publisher, err = telemetry.NewPublisher(settings.MQTT.Broker, settings.MQTT.Topic)
		if err != nil {
			return err
		}
		defer publisher.Close()
	}

	// The monitor server snapshots the grid from its own goroutine while
	// the read loop below calls Submit; mu keeps the two apart.
	var mu sync.Mutex

	if settings.Monitor.Enabled {
		monServer := monitorstream.NewServer(settings.Monitor.Addr, func() []byte {
			mu.Lock()
			defer mu.Unlock()
			return decoder.MonitorSnapshot()
		})
		go func() {
			if err := monServer.Run(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "tcdecode: monitor server: %v\n", err)
			}
		}()
	}

	fin, err := openInput(inputFile)
	if err != nil {
		return err
	}
	defer fin.Close()

	frame := make([]byte, framesPerRead*2*2) // stereo, 2 bytes/sample
	pcm := make([]int16, framesPerRead*2)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := io.ReadFull(fin, frame)
		if n == 0 && (err == io.EOF || err == io.ErrUnexpectedEOF) {
			return nil
		}

		samples := n / 4 // stereo sample-frames actually read
		for i := 0; i < samples*2; i++ {
			pcm[i] = int16(binary.LittleEndian.Uint16(frame[i*2:]))
		}

		mu.Lock()
		decoder.Submit(pcm[:samples*2], samples, settings.SampleRate)
		mu.Unlock()
		report(decoder, metrics, publisher, session)

		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
	}
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "tcdecode: metrics server: %v\n", err)
	}
}

func openInput(path string) (*os.File, error) {
	if path == "-" {
		return os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input %s: %w", path, err)
	}
	return f, nil
}

func report(d *timecode.Decoder, metrics *telemetry.Metrics, publisher *telemetry.Publisher, session string) {
	alive := d.GetAlive()

	pos, posOK := d.GetPosition()
	pitch, pitchOK := d.GetPitch()

	if posOK {
		fmt.Printf("cycle=%d seconds_since_read=%.3f\n", pos.Cycle, pos.SecondsSinceRead)
	}
	if pitchOK {
		fmt.Printf("pitch=%.4f\n", pitch)
	}

	if metrics != nil {
		var posSamples *int64
		var pitchPtr *float32
		if posOK {
			v := int64(pos.Cycle)
			posSamples = &v
		}
		if pitchOK {
			pitchPtr = &pitch
		}
		metrics.Observe(session, posSamples, pitchPtr, alive, d.ValidCounter())
	}

	if publisher != nil && (posOK || pitchOK) {
		ev := telemetry.Event{Timestamp: time.Now().Unix(), Alive: alive}
		if posOK {
			v := int64(pos.Cycle)
			ev.PositionSamples = &v
			ev.SecondsSinceRead = &pos.SecondsSinceRead
		}
		if pitchOK {
			ev.Pitch = &pitch
		}
		publisher.Publish(ev)
	}
}
