package seriallog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// BridgeConfig holds the settings of the polling loop.
type BridgeConfig struct {
	// BufferSize is the reassembly capacity. It should exceed the largest
	// burst the device writes without a newline.
	BufferSize int
	// WindowsLineEnding terminates operator lines with "\r\n" instead of "\n".
	WindowsLineEnding bool
	Encoding          Encoding
	// Hex logs each device read as one record of hex digits instead of
	// reassembling lines.
	Hex bool
	// SubstituteNul replaces NUL bytes from the device with NulPlaceholder.
	SubstituteNul  bool
	NulPlaceholder byte
	Logger         *slog.Logger
}

// Bridge is the main loop. Each Tick forwards at most one operator line to
// the device and performs one bounded device read, emitting every record it
// completes.
type Bridge struct {
	port    Port
	relay   *Relay
	reasm   *Reassembler
	decoder *Decoder
	sink    *TimestampedSink
	log     *slog.Logger

	terminator []byte
	hex        bool
	scratch    []byte
	out        []byte
}

// NewBridge wires port, operator input and sink together and starts the input
// relay. A nil input disables the relay. The bridge owns the relay and stops
// it when Run returns; the port and the sink stay owned by the caller.
func NewBridge(port Port, input io.Reader, sink *TimestampedSink, cfg BridgeConfig) (*Bridge, error) {
	if port == nil {
		return nil, errors.New("bridge: nil port")
	}
	if sink == nil {
		return nil, errors.New("bridge: nil sink")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var opts []ReassemblerOption
	if cfg.SubstituteNul {
		opts = append(opts, WithNulPlaceholder(cfg.NulPlaceholder))
	}
	reasm, err := NewReassembler(cfg.BufferSize, opts...)
	if err != nil {
		return nil, err
	}
	decoder, err := NewDecoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		port:       port,
		reasm:      reasm,
		decoder:    decoder,
		sink:       sink,
		log:        logger,
		terminator: []byte("\n"),
		hex:        cfg.Hex,
	}
	if cfg.WindowsLineEnding {
		b.terminator = []byte("\r\n")
	}
	if b.hex || b.decoder != nil {
		b.scratch = make([]byte, cfg.BufferSize)
	}
	if input != nil {
		b.relay = StartRelay(input, WithRelayLogger(logger))
	}
	return b, nil
}

// Tick runs one iteration of the loop. Timeouts and interrupted reads count
// as empty reads; every other error is fatal.
func (b *Bridge) Tick() error {
	if err := b.forwardInput(); err != nil {
		return err
	}

	n, err := b.readDevice()
	if err != nil {
		return err
	}

	if b.hex {
		if n == 0 {
			return nil
		}
		if err := b.sink.Emit(fmt.Appendf(b.out[:0], "%X\n", b.scratch[:n])); err != nil {
			return err
		}
		return b.sink.Flush()
	}

	if err := b.reasm.Drain(b.sink.Emit); err != nil {
		return err
	}
	return b.sink.Flush()
}

// Run ticks until ctx is cancelled or a fatal error occurs. On cancellation
// the unterminated remainder, if any, is emitted as a final record; a
// sequence the decoder still holds back ends that record as U+FFFD. The input
// relay is asked to stop on every exit path.
func (b *Bridge) Run(ctx context.Context) error {
	defer b.stopRelay()

	for {
		select {
		case <-ctx.Done():
			return b.shutdown()
		default:
		}
		if err := b.Tick(); err != nil {
			if ferr := b.sink.Flush(); ferr != nil {
				b.log.Warn("flush after fatal error failed", "error", ferr)
			}
			return err
		}
	}
}

func (b *Bridge) forwardInput() error {
	if b.relay == nil {
		return nil
	}
	line, ok, err := b.relay.TryTake()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	b.out = append(append(b.out[:0], line...), b.terminator...)
	if _, err := b.port.Write(b.out); err != nil {
		return fmt.Errorf("write to device: %w", err)
	}
	return nil
}

// readDevice performs one bounded read. In line mode without decoding the
// bytes land directly in the reassembly buffer.
func (b *Bridge) readDevice() (int, error) {
	var buf []byte
	switch {
	case b.hex:
		buf = b.scratch
	case b.decoder != nil:
		// Decoding can triple the size (one invalid byte becomes U+FFFD).
		size := max(1, len(b.reasm.Tail())/3)
		buf = b.scratch[:min(size, len(b.scratch))]
	default:
		buf = b.reasm.Tail()
		if len(buf) == 0 {
			return 0, b.reasm.Compact()
		}
	}

	n, err := b.port.Read(buf)
	if err != nil {
		if !IsTransient(err) {
			return 0, fmt.Errorf("read from device: %w", err)
		}
		b.log.Debug("device read returned no data", "error", err)
		n = 0
	}
	if b.hex {
		return n, nil
	}

	if b.decoder == nil {
		return n, b.reasm.Commit(n)
	}
	if n == 0 {
		return 0, nil
	}
	text, err := b.decoder.Decode(buf[:n])
	if err != nil {
		return 0, err
	}
	return n, b.reasm.Ingest(text)
}

func (b *Bridge) shutdown() error {
	rest := b.reasm.Flush()
	if b.decoder != nil {
		tail, err := b.decoder.Finish()
		if err != nil {
			return err
		}
		rest = append(rest, tail...)
	}
	if len(rest) > 0 {
		if err := b.sink.Emit(append(rest, '\n')); err != nil {
			return err
		}
	}
	return b.sink.Flush()
}

func (b *Bridge) stopRelay() {
	if b.relay == nil {
		return
	}
	// The relay logs a failed stop request itself; it is never fatal.
	_ = b.relay.Close()
}
