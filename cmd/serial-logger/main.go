package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	seriallog "github.com/luhtfiimanal/go-serial-logger"
)

var (
	configPath string
	printPorts bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "serial-logger [flags] SERIAL_PORT",
	Short: "Log timestamped lines from a serial port and forward typed lines to it",
	Long: `serial-logger reads newline-terminated lines from a serial device, prefixes each
with a local timestamp and prints it to stdout, a log file, or both. Lines typed
on stdin are sent to the device.

SERIAL_PORT is a device path such as /dev/ttyUSB0 or the serial number of a USB
serial adapter as listed by --print.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verbose)

		if printPorts {
			ports, err := seriallog.AvailablePorts()
			if err != nil {
				return err
			}
			writePorts(cmd.OutOrStdout(), ports)
			return nil
		}

		cfg, err := loadConfig(cmd.Flags(), args, configPath)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML config file with the same keys as the flags")
	rootCmd.Flags().BoolVar(&printPorts, "print", false, "Print all available serial ports and exit")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics at debug level")
	registerFlags(rootCmd.Flags())
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// writePorts prints one "SERIAL @ PATH" line per port.
func writePorts(w io.Writer, ports []seriallog.PortInfo) {
	for _, p := range ports {
		fmt.Fprintln(w, p)
	}
}

func run(ctx context.Context, cfg seriallog.Config) error {
	path, err := seriallog.ResolveDevice(cfg.Device)
	if err != nil {
		return err
	}
	portCfg, err := cfg.PortConfig()
	if err != nil {
		return err
	}
	portCfg.Device = path
	bridgeCfg, err := cfg.BridgeConfig()
	if err != nil {
		return err
	}

	clock, err := seriallog.NewLocalClock(cfg.TimestampFormat, cfg.Timezone)
	if err != nil {
		return err
	}

	port, err := seriallog.OpenPort(portCfg)
	if err != nil {
		return err
	}
	defer port.Close()

	out, err := seriallog.NewSink(cfg.SinkConfig())
	if err != nil {
		return err
	}
	sink := seriallog.NewTimestampedSink(out, clock)
	defer func() {
		if err := sink.Close(); err != nil {
			slog.Warn("closing output failed", "error", err)
		}
	}()

	var input io.Reader
	if !cfg.NoInput {
		input = os.Stdin
	}
	bridge, err := seriallog.NewBridge(port, input, sink, bridgeCfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Receiving data on %s at %d baud\n", cfg.Device, cfg.BaudRate)
	if input != nil && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "Type a line and press Enter to send it to the device")
	}
	slog.Debug("session started", "device", path, "backend", portCfg.Backend,
		"encoding", bridgeCfg.Encoding, "hex", bridgeCfg.Hex, "buffer_size", bridgeCfg.BufferSize)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return bridge.Run(ctx)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
