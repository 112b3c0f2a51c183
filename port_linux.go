//go:build linux

package seriallog

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

const nativeSupported = true

// nativePort provides low-latency, killable access to a Linux tty through
// raw termios. Each Read polls the device together with a self-pipe, so Close
// from another goroutine unblocks a pending Read.
type nativePort struct {
	fd        int
	file      *os.File
	done      chan struct{}
	closeOnce sync.Once
	timeoutMs int
	pipeR     int // self-pipe read fd
	pipeW     int // self-pipe write fd
}

func openNative(cfg PortConfig) (Port, error) {
	baud, err := baudToUnix(cfg.BaudRate)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0666)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	fail := func(err error) (Port, error) {
		unix.Close(fd)
		return nil, err
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fail(fmt.Errorf("get termios: %w", err))
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB | unix.CRTSCTS
	termios.Cflag |= unix.CREAD | unix.CLOCAL | dataBitsToUnix(cfg.DataBits)

	switch cfg.Parity {
	case ParityOdd:
		termios.Cflag |= unix.PARENB | unix.PARODD
	case ParityEven:
		termios.Cflag |= unix.PARENB
	}
	if cfg.StopBits == TwoStopBits {
		termios.Cflag |= unix.CSTOPB
	}
	switch cfg.FlowControl {
	case FlowSoftware:
		termios.Iflag |= unix.IXON | unix.IXOFF
	case FlowHardware:
		termios.Cflag |= unix.CRTSCTS
	}

	// Baud rate
	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baud
	termios.Ispeed = baud
	termios.Ospeed = baud

	// Return from read as soon as one byte is available; the timeout is
	// enforced by poll.
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fail(fmt.Errorf("set termios: %w", err))
	}

	// Turn back into blocking mode now that config is done
	if err := unix.SetNonblock(fd, false); err != nil {
		return fail(fmt.Errorf("set blocking: %w", err))
	}

	// Assert DTR and RTS. Pseudo-terminals reject modem control requests.
	if err := unix.IoctlSetPointerInt(fd, unix.TIOCMBIS, unix.TIOCM_DTR|unix.TIOCM_RTS); err != nil &&
		!errors.Is(err, unix.ENOTTY) && !errors.Is(err, unix.EINVAL) {
		return fail(fmt.Errorf("set DTR/RTS: %w", err))
	}

	// Create self-pipe for killability
	pipeFds := make([]int, 2)
	if err := unix.Pipe2(pipeFds, unix.O_CLOEXEC); err != nil {
		return fail(fmt.Errorf("pipe: %w", err))
	}

	timeoutMs := -1
	if cfg.ReadTimeout > 0 {
		timeoutMs = int(cfg.ReadTimeout.Milliseconds())
		if timeoutMs == 0 {
			timeoutMs = 1
		}
	}

	return &nativePort{
		fd:        fd,
		file:      os.NewFile(uintptr(fd), cfg.Device),
		done:      make(chan struct{}),
		timeoutMs: timeoutMs,
		pipeR:     pipeFds[0],
		pipeW:     pipeFds[1],
	}, nil
}

// Read waits up to the read timeout for data. It returns ErrTimeout when
// nothing arrived, and ErrPortClosed once Close has been called.
func (p *nativePort) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	select {
	case <-p.done:
		return 0, ErrPortClosed
	default:
	}

	// Use poll to wait for data or kill signal
	pfd := []unix.PollFd{
		{Fd: int32(p.fd), Events: unix.POLLIN},
		{Fd: int32(p.pipeR), Events: unix.POLLIN},
	}
	n, err := unix.Poll(pfd, p.timeoutMs)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, fmt.Errorf("%w: %w", ErrInterrupted, err)
		}
		return 0, fmt.Errorf("poll: %w", err)
	}
	if n == 0 {
		return 0, ErrTimeout
	}
	// Check killability
	select {
	case <-p.done:
		return 0, ErrPortClosed
	default:
	}
	if pfd[1].Revents&unix.POLLIN != 0 {
		return 0, ErrPortClosed
	}
	if pfd[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
		return 0, ErrTimeout
	}
	n, err = p.file.Read(b)
	if err != nil {
		return n, fmt.Errorf("read: %w", err)
	}
	return n, nil
}

func (p *nativePort) Write(b []byte) (int, error) {
	n, err := p.file.Write(b)
	if err != nil {
		return n, fmt.Errorf("write: %w", err)
	}
	return n, nil
}

// Close closes the port and unblocks any pending Read.
// Safe to call multiple times; subsequent calls are no-ops.
func (p *nativePort) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		// Wake up poll using self-pipe
		unix.Write(p.pipeW, []byte{1})
		err = p.file.Close()
		unix.Close(p.pipeR)
		unix.Close(p.pipeW)
	})
	return err
}

func dataBitsToUnix(bits int) uint32 {
	switch bits {
	case 5:
		return unix.CS5
	case 6:
		return unix.CS6
	case 7:
		return unix.CS7
	default:
		return unix.CS8
	}
}

func baudToUnix(baud int) (uint32, error) {
	switch baud {
	case 1200:
		return unix.B1200, nil
	case 2400:
		return unix.B2400, nil
	case 4800:
		return unix.B4800, nil
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 921600:
		return unix.B921600, nil
	case 1000000:
		return unix.B1000000, nil
	case 2000000:
		return unix.B2000000, nil
	case 3000000:
		return unix.B3000000, nil
	case 4000000:
		return unix.B4000000, nil
	default:
		return 0, fmt.Errorf("%w: baud rate %d not supported by the native backend", ErrInvalidConfig, baud)
	}
}
