package seriallog

import (
	"fmt"
	"strings"
	"time"
)

// Defaults match the values the logger has always shipped with.
const (
	DefaultBaudRate        = 115_200
	DefaultFlowControl     = "s"
	DefaultDataBits        = 8
	DefaultParity          = "n"
	DefaultStopBits        = 1
	DefaultReadTimeout     = time.Second
	DefaultBufferSize      = 100_000
	DefaultTimestampFormat = "2006-01-02 15:04:05.000000000 -07:00"
	DefaultTimezone        = "Local"
)

// Parity selects the parity checking mode of the serial line.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// FlowControl selects how the serial line throttles the sender.
type FlowControl int

const (
	FlowNone FlowControl = iota
	FlowSoftware
	FlowHardware
)

func (f FlowControl) String() string {
	switch f {
	case FlowNone:
		return "none"
	case FlowSoftware:
		return "software"
	case FlowHardware:
		return "hardware"
	}
	return fmt.Sprintf("FlowControl(%d)", int(f))
}

// StopBits is the number of stop bits per character.
type StopBits int

const (
	OneStopBit  StopBits = 1
	TwoStopBits StopBits = 2
)

// Backend names the implementation used to talk to the device.
type Backend string

const (
	// BackendAuto picks BackendNative where it exists and BackendPortable elsewhere.
	BackendAuto Backend = "auto"
	// BackendNative drives the tty directly through termios (Linux only).
	BackendNative Backend = "native"
	// BackendPortable uses go.bug.st/serial.
	BackendPortable Backend = "portable"
)

// Config is the complete, flat configuration of a logging session. Field tags
// are the flag, environment and config-file keys.
type Config struct {
	Device            string        `mapstructure:"port"`
	BaudRate          int           `mapstructure:"baud"`
	FlowControl       string        `mapstructure:"flow-control"`
	DataBits          int           `mapstructure:"data-bits"`
	Parity            string        `mapstructure:"parity"`
	StopBits          int           `mapstructure:"stop-bits"`
	Timeout           time.Duration `mapstructure:"timeout"`
	BufferSize        int           `mapstructure:"buffer-size"`
	WindowsLineEnding bool          `mapstructure:"windows-line-ending"`
	LogFile           string        `mapstructure:"log"`
	Silent            bool          `mapstructure:"silent"`
	Encoding          string        `mapstructure:"encoding"`
	Hex               bool          `mapstructure:"hex"`
	NulPlaceholder    string        `mapstructure:"nul-placeholder"`
	TimestampFormat   string        `mapstructure:"timestamp-format"`
	Timezone          string        `mapstructure:"timezone"`
	Backend           string        `mapstructure:"backend"`
	NoInput           bool          `mapstructure:"no-input"`
}

// DefaultConfig returns a Config with every optional field at its default.
func DefaultConfig() Config {
	return Config{
		BaudRate:        DefaultBaudRate,
		FlowControl:     DefaultFlowControl,
		DataBits:        DefaultDataBits,
		Parity:          DefaultParity,
		StopBits:        DefaultStopBits,
		Timeout:         DefaultReadTimeout,
		BufferSize:      DefaultBufferSize,
		Encoding:        string(EncodingRaw),
		TimestampFormat: DefaultTimestampFormat,
		Timezone:        DefaultTimezone,
		Backend:         string(BackendAuto),
	}
}

// Validate checks every field independently. Encoding, line ending and sink
// selection are orthogonal; no combination of them is rejected.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Device) == "" {
		return invalid("port", "a serial port name or path is required")
	}
	if c.BaudRate <= 0 {
		return invalid("baud", "must be positive, got %d", c.BaudRate)
	}
	if _, err := ParseFlowControl(c.FlowControl); err != nil {
		return err
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return invalid("data-bits", "accepted values are 5, 6, 7, 8, got %d", c.DataBits)
	}
	if _, err := ParseParity(c.Parity); err != nil {
		return err
	}
	if _, err := ParseStopBits(c.StopBits); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return invalid("timeout", "must be positive, got %s", c.Timeout)
	}
	if c.BufferSize <= 0 {
		return invalid("buffer-size", "must be positive, got %d", c.BufferSize)
	}
	if _, err := ParseEncoding(c.Encoding); err != nil {
		return err
	}
	if len(c.NulPlaceholder) > 1 {
		return invalid("nul-placeholder", "must be a single byte, got %q", c.NulPlaceholder)
	}
	if c.TimestampFormat == "" {
		return invalid("timestamp-format", "must not be empty")
	}
	if _, err := ParseBackend(c.Backend); err != nil {
		return err
	}
	return nil
}

// PortConfig extracts the device settings. Call Validate first.
func (c Config) PortConfig() (PortConfig, error) {
	flow, err := ParseFlowControl(c.FlowControl)
	if err != nil {
		return PortConfig{}, err
	}
	parity, err := ParseParity(c.Parity)
	if err != nil {
		return PortConfig{}, err
	}
	stop, err := ParseStopBits(c.StopBits)
	if err != nil {
		return PortConfig{}, err
	}
	backend, err := ParseBackend(c.Backend)
	if err != nil {
		return PortConfig{}, err
	}
	return PortConfig{
		Device:      c.Device,
		BaudRate:    c.BaudRate,
		DataBits:    c.DataBits,
		Parity:      parity,
		StopBits:    stop,
		FlowControl: flow,
		ReadTimeout: c.Timeout,
		Backend:     backend,
	}, nil
}

// BridgeConfig extracts the reassembly and relay settings.
func (c Config) BridgeConfig() (BridgeConfig, error) {
	enc, err := ParseEncoding(c.Encoding)
	if err != nil {
		return BridgeConfig{}, err
	}
	bc := BridgeConfig{
		BufferSize:        c.BufferSize,
		WindowsLineEnding: c.WindowsLineEnding,
		Encoding:          enc,
		Hex:               c.Hex,
	}
	if c.NulPlaceholder != "" {
		bc.NulPlaceholder = c.NulPlaceholder[0]
		bc.SubstituteNul = true
	}
	return bc, nil
}

// SinkConfig extracts the output selection.
func (c Config) SinkConfig() SinkConfig {
	return SinkConfig{LogFile: c.LogFile, Silent: c.Silent}
}

// ParseFlowControl accepts n, s or h.
func ParseFlowControl(s string) (FlowControl, error) {
	switch s {
	case "n":
		return FlowNone, nil
	case "s":
		return FlowSoftware, nil
	case "h":
		return FlowHardware, nil
	}
	return 0, invalid("flow-control", "accepted values are n, s, h, got %q", s)
}

// ParseParity accepts n, o or e.
func ParseParity(s string) (Parity, error) {
	switch s {
	case "n":
		return ParityNone, nil
	case "o":
		return ParityOdd, nil
	case "e":
		return ParityEven, nil
	}
	return 0, invalid("parity", "accepted values are n, o, e, got %q", s)
}

// ParseStopBits accepts 1 or 2.
func ParseStopBits(n int) (StopBits, error) {
	switch n {
	case 1:
		return OneStopBit, nil
	case 2:
		return TwoStopBits, nil
	}
	return 0, invalid("stop-bits", "accepted values are 1, 2, got %d", n)
}

// ParseEncoding accepts raw, utf8, utf16le or utf16be.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(s)); e {
	case EncodingRaw, EncodingUTF8, EncodingUTF16LE, EncodingUTF16BE:
		return e, nil
	case "":
		return EncodingRaw, nil
	}
	return "", invalid("encoding", "accepted values are raw, utf8, utf16le, utf16be, got %q", s)
}

// ParseBackend accepts auto, native or portable.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(s)); b {
	case BackendAuto, BackendNative, BackendPortable:
		return b, nil
	case "":
		return BackendAuto, nil
	}
	return "", invalid("backend", "accepted values are auto, native, portable, got %q", s)
}

func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: --%s: %s", ErrInvalidConfig, key, fmt.Sprintf(format, args...))
}
