package seriallog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	c := DefaultConfig()
	c.Device = "/dev/ttyUSB0"
	return c
}

func TestConfig_DefaultsValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	_, err := validConfig().PortConfig()
	require.NoError(t, err)
	_, err = validConfig().BridgeConfig()
	require.NoError(t, err)
}

func TestConfig_RejectsInvalidValues(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Device = "  " }},
		{"zero baud", func(c *Config) { c.BaudRate = 0 }},
		{"flow control", func(c *Config) { c.FlowControl = "x" }},
		{"data bits", func(c *Config) { c.DataBits = 9 }},
		{"parity", func(c *Config) { c.Parity = "m" }},
		{"stop bits", func(c *Config) { c.StopBits = 3 }},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }},
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }},
		{"encoding", func(c *Config) { c.Encoding = "latin1" }},
		{"placeholder", func(c *Config) { c.NulPlaceholder = "ab" }},
		{"timestamp format", func(c *Config) { c.TimestampFormat = "" }},
		{"backend", func(c *Config) { c.Backend = "serialport" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)
			require.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_ErrorNamesFlag(t *testing.T) {
	c := validConfig()
	c.Parity = "m"
	require.ErrorContains(t, c.Validate(), "--parity")
}

func TestConfig_PortConfig(t *testing.T) {
	c := validConfig()
	c.BaudRate = 9600
	c.FlowControl = "h"
	c.DataBits = 7
	c.Parity = "e"
	c.StopBits = 2
	c.Timeout = 250 * time.Millisecond
	c.Backend = "Portable"

	pc, err := c.PortConfig()
	require.NoError(t, err)
	require.Equal(t, PortConfig{
		Device:      "/dev/ttyUSB0",
		BaudRate:    9600,
		DataBits:    7,
		Parity:      ParityEven,
		StopBits:    TwoStopBits,
		FlowControl: FlowHardware,
		ReadTimeout: 250 * time.Millisecond,
		Backend:     BackendPortable,
	}, pc)
}

func TestConfig_BridgeConfig(t *testing.T) {
	c := validConfig()
	bc, err := c.BridgeConfig()
	require.NoError(t, err)
	require.False(t, bc.SubstituteNul)
	require.Equal(t, EncodingRaw, bc.Encoding)
	require.Equal(t, DefaultBufferSize, bc.BufferSize)

	c.NulPlaceholder = "."
	c.Encoding = "UTF16LE"
	c.WindowsLineEnding = true
	c.Hex = true
	bc, err = c.BridgeConfig()
	require.NoError(t, err)
	require.True(t, bc.SubstituteNul)
	require.Equal(t, byte('.'), bc.NulPlaceholder)
	require.Equal(t, EncodingUTF16LE, bc.Encoding)
	require.True(t, bc.WindowsLineEnding)
	require.True(t, bc.Hex)
}

func TestConfig_OutputCombinationsAreValid(t *testing.T) {
	for _, enc := range []string{"raw", "utf8", "utf16le", "utf16be"} {
		for _, windows := range []bool{false, true} {
			for _, log := range []string{"", "out.log"} {
				for _, silent := range []bool{false, true} {
					c := validConfig()
					c.Encoding = enc
					c.WindowsLineEnding = windows
					c.LogFile = log
					c.Silent = silent
					require.NoError(t, c.Validate(), "encoding=%s windows=%t log=%q silent=%t", enc, windows, log, silent)
					require.Equal(t, SinkConfig{LogFile: log, Silent: silent}, c.SinkConfig())
				}
			}
		}
	}
}

func TestFlowControl_String(t *testing.T) {
	require.Equal(t, "none", FlowNone.String())
	require.Equal(t, "software", FlowSoftware.String())
	require.Equal(t, "hardware", FlowHardware.String())
	require.Equal(t, "FlowControl(7)", FlowControl(7).String())
}
