package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	seriallog "github.com/luhtfiimanal/go-serial-logger"
)

const envPrefix = "SERIAL_LOGGER"

// registerFlags declares every session flag with its default.
func registerFlags(fs *pflag.FlagSet) {
	d := seriallog.DefaultConfig()

	fs.String("port", "", "Serial port path or USB serial number, used instead of the positional argument")
	fs.IntP("baud", "b", d.BaudRate, "Baud rate")
	fs.String("flow-control", d.FlowControl, "Flow control, n: None, s: Software, h: Hardware")
	fs.Int("data-bits", d.DataBits, "Data bits [5,6,7,8]")
	fs.String("parity", d.Parity, "Parity, n: None, o: Odd, e: Even")
	fs.Int("stop-bits", d.StopBits, "Stop bits [1,2]")
	fs.DurationP("timeout", "t", d.Timeout, "How long one device read waits for data")
	fs.IntP("buffer-size", "s", d.BufferSize, "Line buffer size; should exceed the largest burst the device sends without a newline")
	fs.BoolP("windows-line-ending", "w", false, "Terminate lines sent to the device with \\r\\n instead of \\n")
	fs.StringP("log", "l", "", "Path of a log file (truncated on start)")
	fs.Bool("silent", false, "Do not print records to stdout")
	fs.String("encoding", d.Encoding, "Device text encoding [raw,utf8,utf16le,utf16be]")
	fs.Bool("hex", false, "Log every read as hex instead of reassembling lines")
	fs.String("nul-placeholder", "", "Replace NUL bytes from the device with this character")
	fs.String("timestamp-format", d.TimestampFormat, "Go time layout of the record timestamp")
	fs.String("timezone", d.Timezone, "Time zone of the record timestamp (Local or an IANA name)")
	fs.String("backend", d.Backend, "Serial backend [auto,native,portable]")
	fs.Bool("no-input", false, "Do not forward stdin to the device")
}

// loadConfig layers flags over environment variables over the config file
// over defaults. The positional device argument fills --port when unset.
func loadConfig(fs *pflag.FlagSet, args []string, configPath string) (seriallog.Config, error) {
	var cfg seriallog.Config

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return cfg, err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Device == "" && len(args) > 0 {
		cfg.Device = args[0]
	}
	return cfg, cfg.Validate()
}
