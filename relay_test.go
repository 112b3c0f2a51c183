package seriallog

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// takeN polls TryTake until n lines arrived or the relay failed.
func takeN(t *testing.T, r *Relay, n int) ([]string, error) {
	t.Helper()
	var got []string
	deadline := time.After(2 * time.Second)
	for len(got) < n {
		line, ok, err := r.TryTake()
		if err != nil {
			return got, err
		}
		if ok {
			got = append(got, string(line))
			continue
		}
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for %d lines, got %q", n, got)
		case <-time.After(time.Millisecond):
		}
	}
	return got, nil
}

func TestRelay_ForwardsLinesInOrder(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	r := StartRelay(pr)
	t.Cleanup(func() { r.Close() })

	// Nothing typed yet: TryTake must not block.
	line, ok, err := r.TryTake()
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, line)

	_, err = pw.Write([]byte("one\ntwo\r\n\nthree\n"))
	require.NoError(t, err)

	got, err := takeN(t, r, 4)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two", "", "three"}, got)

	_, ok, err = r.TryTake()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRelay_NulByteDisconnects(t *testing.T) {
	r := StartRelay(strings.NewReader("ok\nbad\x00line\nnever\n"))
	t.Cleanup(func() { r.Close() })

	got, err := takeN(t, r, 3)
	require.Equal(t, []string{"ok"}, got)
	require.ErrorIs(t, err, ErrRelayDisconnected)
	require.ErrorIs(t, err, ErrNulInInput)

	// The relay cannot recover.
	_, _, err = r.TryTake()
	require.ErrorIs(t, err, ErrRelayDisconnected)
}

func TestRelay_ReadErrorDisconnects(t *testing.T) {
	pr, pw := io.Pipe()
	r := StartRelay(pr)
	t.Cleanup(func() { r.Close() })

	boom := errors.New("terminal gone")
	require.NoError(t, pw.CloseWithError(boom))

	_, err := takeN(t, r, 1)
	require.ErrorIs(t, err, ErrRelayDisconnected)
	require.ErrorIs(t, err, boom)
}

func TestRelay_EndOfInput(t *testing.T) {
	r := StartRelay(strings.NewReader("first\nlast"))

	got, err := takeN(t, r, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "last"}, got)

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("relay did not finish at end of input")
	}

	_, ok, err := r.TryTake()
	require.NoError(t, err)
	require.False(t, ok)

	// The goroutine is gone, so the stop request cannot be delivered.
	require.ErrorIs(t, r.Close(), ErrRelayExited)
}

func TestRelay_CloseDoesNotWaitForBlockedRead(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	r := StartRelay(pr)

	closed := make(chan error, 1)
	go func() { closed <- r.Close() }()

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Close blocked on a pending input read")
	}

	// Still parked in its read.
	select {
	case <-r.Done():
		t.Fatal("relay exited without input")
	default:
	}

	// Once the read completes the goroutine observes the stop request.
	go pw.Write([]byte("late\n"))
	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("relay did not stop after its read completed")
	}

	require.NoError(t, r.Close())
}
