package seriallog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Sink is a destination for timestamped records.
type Sink interface {
	io.Writer
	Flush() error
	Close() error
}

// SinkConfig selects the sink variant.
//
//	LogFile  Silent  variant
//	""       false   console
//	""       true    discard
//	path     true    file (truncated)
//	path     false   file and console
type SinkConfig struct {
	LogFile string
	Silent  bool
	// Console defaults to os.Stdout.
	Console io.Writer
}

// NewSink opens the sink described by cfg.
func NewSink(cfg SinkConfig) (Sink, error) {
	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}
	switch {
	case cfg.LogFile == "" && cfg.Silent:
		return Discard, nil
	case cfg.LogFile == "":
		return newWriterSink(console, nil), nil
	}
	f, err := os.Create(cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	file := newWriterSink(f, f)
	if cfg.Silent {
		return file, nil
	}
	return &teeSink{file: file, console: newWriterSink(console, nil)}, nil
}

// Discard accepts and drops every write.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Write(p []byte) (int, error) { return len(p), nil }
func (discardSink) Flush() error                { return nil }
func (discardSink) Close() error                { return nil }

// writerSink buffers writes to an underlying writer. closer is nil for the
// console, which the sink does not own.
type writerSink struct {
	w      *bufio.Writer
	closer io.Closer
}

func newWriterSink(w io.Writer, closer io.Closer) *writerSink {
	return &writerSink{w: bufio.NewWriter(w), closer: closer}
}

func (s *writerSink) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s *writerSink) Flush() error                { return s.w.Flush() }

func (s *writerSink) Close() error {
	err := s.w.Flush()
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
	}
	return err
}

// teeSink writes the same bytes to a file and the console.
type teeSink struct {
	file, console *writerSink
}

func (s *teeSink) Write(p []byte) (int, error) {
	if _, err := s.file.Write(p); err != nil {
		return 0, err
	}
	return s.console.Write(p)
}

func (s *teeSink) Flush() error {
	return errors.Join(s.file.Flush(), s.console.Flush())
}

func (s *teeSink) Close() error {
	return errors.Join(s.file.Close(), s.console.Close())
}

// TimestampedSink prefixes each record with a timestamp and ": " and writes
// the result to a Sink in a single call.
type TimestampedSink struct {
	out   Sink
	clock Clock
	line  []byte
}

// NewTimestampedSink wraps out.
func NewTimestampedSink(out Sink, clock Clock) *TimestampedSink {
	return &TimestampedSink{out: out, clock: clock}
}

// Emit writes one record. A clock failure is returned unchanged and nothing
// is written: an unlabeled record is worse than a stopped logger.
func (s *TimestampedSink) Emit(record []byte) error {
	if s.out == Discard {
		return nil
	}
	ts, err := s.clock.Timestamp()
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	s.line = append(s.line[:0], ts...)
	s.line = append(s.line, ": "...)
	s.line = append(s.line, record...)
	if _, err := s.out.Write(s.line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Flush pushes buffered records to their destination.
func (s *TimestampedSink) Flush() error { return s.out.Flush() }

// Close flushes and releases the underlying sink.
func (s *TimestampedSink) Close() error { return s.out.Close() }
