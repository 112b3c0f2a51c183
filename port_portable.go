package seriallog

import (
	"errors"
	"fmt"
	"log/slog"

	"go.bug.st/serial"
)

// portablePort adapts a go.bug.st/serial port. A read that times out returns
// (0, nil), which the bridge treats as an empty tick.
type portablePort struct {
	serial.Port
}

func openPortable(cfg PortConfig) (Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	switch cfg.Parity {
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	}
	if cfg.StopBits == TwoStopBits {
		mode.StopBits = serial.TwoStopBits
	}
	if cfg.FlowControl != FlowNone {
		slog.Warn("flow control is not supported by the portable backend, continuing without it",
			"device", cfg.Device, "flow_control", cfg.FlowControl)
	}

	p, err := serial.Open(cfg.Device, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial %s: %w", cfg.Device, err)
	}
	if cfg.ReadTimeout > 0 {
		if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to set read timeout: %w", err)
		}
	}
	if err := p.SetDTR(true); err != nil {
		slog.Debug("cannot assert DTR", "device", cfg.Device, "error", err)
	}
	if err := p.SetRTS(true); err != nil {
		slog.Debug("cannot assert RTS", "device", cfg.Device, "error", err)
	}
	return &portablePort{Port: p}, nil
}

func (p *portablePort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if err != nil {
		var perr *serial.PortError
		if errors.As(err, &perr) && perr.Code() == serial.PortClosed {
			return n, fmt.Errorf("%w: %w", ErrPortClosed, err)
		}
		return n, fmt.Errorf("read: %w", err)
	}
	return n, nil
}
