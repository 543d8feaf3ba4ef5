// Package bitlog records every bit a Decoder emits to a gzip-compressed
// side file, for offline inspection of a decode session long after the
// audio itself is gone.
package bitlog

import (
	"bufio"
	"fmt"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Sink implements the Decoder.OnBit observer contract: one call per
// emitted bit, written as a single '1' or '0' byte with no separator,
// gzip-compressed on the fly so a multi-hour session stays small on disk.
type Sink struct {
	file   *os.File
	buf    *bufio.Writer
	gz     *gzip.Writer
	closed bool
}

// Open creates (or truncates) the bitlog file at path and returns a Sink
// ready to receive Observe calls.
func Open(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("bitlog: creating %s: %w", path, err)
	}

	gz, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("bitlog: %w", err)
	}

	return &Sink{
		file: f,
		buf:  bufio.NewWriter(gz),
		gz:   gz,
	}, nil
}

// Observe records a single bit. It is meant to be assigned directly to a
// Decoder's OnBit field.
func (s *Sink) Observe(bit bool) {
	if bit {
		s.buf.WriteByte('1')
	} else {
		s.buf.WriteByte('0')
	}
}

// Close flushes the buffered writer, finishes the gzip stream, and closes
// the underlying file. It is safe to call more than once.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.buf.Flush(); err != nil {
		s.gz.Close()
		s.file.Close()
		return fmt.Errorf("bitlog: flushing: %w", err)
	}
	if err := s.gz.Close(); err != nil {
		s.file.Close()
		return fmt.Errorf("bitlog: closing gzip stream: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("bitlog: closing file: %w", err)
	}
	return nil
}
