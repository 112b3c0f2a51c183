package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	seriallog "github.com/luhtfiimanal/go-serial-logger"
)

func TestWritePorts(t *testing.T) {
	var out bytes.Buffer
	writePorts(&out, []seriallog.PortInfo{
		{SerialNumber: "A6008isP", Path: "/dev/ttyACM0"},
		{SerialNumber: "FT4X91", Path: "/dev/ttyUSB1"},
	})
	require.Equal(t, "A6008isP @ /dev/ttyACM0\nFT4X91 @ /dev/ttyUSB1\n", out.String())

	out.Reset()
	writePorts(&out, nil)
	require.Empty(t, out.String())
}
