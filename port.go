package seriallog

import (
	"fmt"
	"io"
	"time"
)

// Port is the device the bridge reads from and writes to.
//
// Read blocks for at most the configured read timeout. A read that times out
// returns either (0, nil) or an error for which IsTransient is true; every
// other error means the device is gone.
type Port interface {
	io.Reader
	io.Writer
	io.Closer
}

// PortConfig holds the settings used to open a device.
type PortConfig struct {
	Device      string
	BaudRate    int
	DataBits    int
	Parity      Parity
	StopBits    StopBits
	FlowControl FlowControl
	// ReadTimeout bounds each Read. Zero blocks until data arrives.
	ReadTimeout time.Duration
	Backend     Backend
}

// OpenPort opens cfg.Device with the selected backend.
func OpenPort(cfg PortConfig) (Port, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("%w: empty device path", ErrInvalidConfig)
	}
	if cfg.DataBits == 0 {
		cfg.DataBits = DefaultDataBits
	}
	if cfg.StopBits == 0 {
		cfg.StopBits = OneStopBit
	}
	switch cfg.Backend {
	case BackendNative:
		return openNative(cfg)
	case BackendPortable:
		return openPortable(cfg)
	case BackendAuto, "":
		if nativeSupported {
			return openNative(cfg)
		}
		return openPortable(cfg)
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
}
