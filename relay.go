package seriallog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

const defaultRelayBacklog = 64

// Relay captures operator input on a goroutine of its own and hands complete
// lines to the polling loop without ever blocking it.
//
// The reader goroutine owns the input. Lines move to the consumer by value
// through a channel; nothing else is shared. The goroutine checks for a stop
// request between reads, but a read that is already blocked (no keystroke
// arriving) cannot be interrupted, so Close never waits for the goroutine.
// The process may exit with it still parked in its last read.
type Relay struct {
	lines chan []byte
	stop  chan struct{}
	done  chan struct{}
	err   error // written before done is closed

	stopOnce sync.Once
	log      *slog.Logger
}

// RelayOption configures a Relay.
type RelayOption func(*relayOptions)

type relayOptions struct {
	backlog int
	log     *slog.Logger
}

// WithRelayBacklog sets how many completed lines may wait for the consumer.
func WithRelayBacklog(n int) RelayOption {
	return func(o *relayOptions) {
		if n > 0 {
			o.backlog = n
		}
	}
}

// WithRelayLogger sets the logger used for shutdown diagnostics.
func WithRelayLogger(l *slog.Logger) RelayOption {
	return func(o *relayOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// StartRelay starts reading lines from in.
func StartRelay(in io.Reader, opts ...RelayOption) *Relay {
	o := relayOptions{backlog: defaultRelayBacklog, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Relay{
		lines: make(chan []byte, o.backlog),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		log:   o.log,
	}
	go r.read(bufio.NewReader(in))
	return r
}

func (r *Relay) read(in *bufio.Reader) {
	defer close(r.done)
	defer close(r.lines)

	for {
		select {
		case <-r.stop:
			return
		default:
		}

		raw, err := in.ReadBytes('\n')
		if len(raw) > 0 {
			line, cerr := ownedLine(raw)
			if cerr != nil {
				r.err = cerr
				return
			}
			select {
			case r.lines <- line:
			case <-r.stop:
				return
			}
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			r.err = fmt.Errorf("%w: %w", ErrRelayDisconnected, err)
			return
		}
	}
}

// ownedLine strips the line terminator and rejects embedded NUL bytes, which
// cannot be represented in the line handed to the device.
func ownedLine(raw []byte) ([]byte, error) {
	line := bytes.TrimSuffix(raw, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if bytes.IndexByte(line, 0) >= 0 {
		return nil, fmt.Errorf("%w: %w", ErrRelayDisconnected, ErrNulInInput)
	}
	return line, nil
}

// TryTake returns the next completed line if one is waiting. It never blocks.
// Once the reader goroutine has failed, TryTake returns its error; the relay
// cannot be restarted. After a clean end of input it keeps returning false.
func (r *Relay) TryTake() ([]byte, bool, error) {
	select {
	case line, ok := <-r.lines:
		if !ok {
			return nil, false, r.err
		}
		return line, true, nil
	default:
		return nil, false, nil
	}
}

// Close asks the reader goroutine to stop and returns at once. Closing a
// relay whose goroutine has already returned yields ErrRelayExited, which
// callers should only log.
func (r *Relay) Close() error {
	var err error
	r.stopOnce.Do(func() {
		select {
		case <-r.done:
			err = ErrRelayExited
		default:
		}
		close(r.stop)
	})
	if err != nil {
		r.log.Warn("input relay stop request not delivered", "error", err)
	} else {
		r.log.Debug("input relay stop requested")
	}
	return err
}

// Done is closed when the reader goroutine has returned.
func (r *Relay) Done() <-chan struct{} { return r.done }
