package seriallog

import (
	"errors"
	"os"
	"syscall"
)

// Transient conditions. A read that fails with one of these is treated as a
// zero-byte read and retried on the next tick.
var (
	ErrTimeout     = errors.New("read timeout")
	ErrInterrupted = errors.New("read interrupted")
)

// Fatal conditions. Each of these stops the bridge.
var (
	ErrOverflow          = errors.New("line buffer overflow: no newline within buffer capacity")
	ErrRelayDisconnected = errors.New("input relay disconnected")
	ErrNulInInput        = errors.New("input line contains a NUL byte")
	ErrPortClosed        = errors.New("serial port closed")
	ErrClock             = errors.New("cannot determine local time offset")
	ErrPortNotFound      = errors.New("serial port not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// ErrRelayExited is reported when a shutdown request reaches a relay whose
// reader goroutine has already returned. It is a diagnostic, never fatal.
var ErrRelayExited = errors.New("input relay already exited")

// IsTransient reports whether err is a timeout or an interrupted call that
// should be retried rather than propagated.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrInterrupted) ||
		errors.Is(err, syscall.EINTR) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
