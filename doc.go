// Package seriallog bridges a serial device and an operator at a terminal.
//
// Bytes arriving from the device are reassembled into newline-terminated
// records regardless of how reads fragment them, stamped with the local time
// and written to the console, a log file, both, or nowhere. Lines the operator
// types are forwarded to the device with a configurable line terminator.
//
// Features:
//   - Fixed-capacity reassembly buffer; '\r' becomes a space, '\n' ends a record
//   - Overflow (no newline within the buffer) is reported, never truncated
//   - Optional lossy UTF-8 / UTF-16 decoding and a hex dump mode
//   - Operator input captured on its own goroutine, polled without blocking
//   - Native Linux termios backend (killable, self-pipe) and a portable backend
//     built on go.bug.st/serial
//   - PTY-based tests for reliability
//
// Example usage:
//
//	port, err := seriallog.OpenPort(seriallog.PortConfig{
//	    Device:      "/dev/ttyUSB0",
//	    BaudRate:    115200,
//	    ReadTimeout: time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	clock, err := seriallog.NewLocalClock(seriallog.DefaultTimestampFormat, "Local")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := seriallog.NewSink(seriallog.SinkConfig{LogFile: "device.log"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sink := seriallog.NewTimestampedSink(out, clock)
//	defer sink.Close()
//
//	bridge, err := seriallog.NewBridge(port, os.Stdin, sink, seriallog.BridgeConfig{
//	    BufferSize: seriallog.DefaultBufferSize,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := bridge.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package seriallog
