package seriallog

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Clock produces the timestamp prefixed to every record.
type Clock interface {
	Timestamp() (string, error)
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() (string, error)

// Timestamp calls f.
func (f ClockFunc) Timestamp() (string, error) { return f() }

// LocalClock formats the current time with a Go layout in a fixed zone.
type LocalClock struct {
	layout string
	loc    *time.Location
	now    func() time.Time
}

// NewLocalClock returns a clock for zone, which is "Local" (or empty) for the
// process time zone, or an IANA name such as "Europe/Berlin".
//
// For the process zone the TZ variable is checked up front: Go silently falls
// back to UTC when TZ names an unknown zone, which would stamp every record
// with the wrong offset.
func NewLocalClock(layout, zone string) (*LocalClock, error) {
	if layout == "" {
		layout = DefaultTimestampFormat
	}
	var loc *time.Location
	switch zone {
	case "", "Local", "local":
		if tz, ok := os.LookupEnv("TZ"); ok && tz != "" {
			if err := checkZone(strings.TrimPrefix(tz, ":")); err != nil {
				return nil, fmt.Errorf("%w: TZ=%q: %v", ErrClock, tz, err)
			}
		}
		loc = time.Local
	default:
		l, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrClock, err)
		}
		loc = l
	}
	return &LocalClock{layout: layout, loc: loc, now: time.Now}, nil
}

// Timestamp returns the current time formatted with the clock's layout.
func (c *LocalClock) Timestamp() (string, error) {
	if c.loc == nil {
		return "", ErrClock
	}
	return c.now().In(c.loc).Format(c.layout), nil
}

func checkZone(tz string) error {
	if strings.HasPrefix(tz, "/") {
		_, err := os.Stat(tz)
		return err
	}
	_, err := time.LoadLocation(tz)
	return err
}
