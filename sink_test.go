package seriallog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingSink keeps every Write call separately.
type recordingSink struct {
	writes  []string
	flushes int
	closed  bool
	err     error
}

func (s *recordingSink) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.writes = append(s.writes, string(p))
	return len(p), nil
}

func (s *recordingSink) Flush() error { s.flushes++; return nil }
func (s *recordingSink) Close() error { s.closed = true; return nil }

func fixedClock(ts string) Clock {
	return ClockFunc(func() (string, error) { return ts, nil })
}

func TestTimestampedSink_SingleWritePerRecord(t *testing.T) {
	out := &recordingSink{}
	s := NewTimestampedSink(out, fixedClock("2024-01-02 03:04:05"))

	require.NoError(t, s.Emit([]byte("hello\n")))
	require.NoError(t, s.Emit([]byte("\n")))

	require.Equal(t, []string{
		"2024-01-02 03:04:05: hello\n",
		"2024-01-02 03:04:05: \n",
	}, out.writes)
}

func TestTimestampedSink_ClockFailureIsFatal(t *testing.T) {
	out := &recordingSink{}
	s := NewTimestampedSink(out, ClockFunc(func() (string, error) { return "", ErrClock }))

	err := s.Emit([]byte("hello\n"))
	require.ErrorIs(t, err, ErrClock)
	require.Empty(t, out.writes)
}

func TestTimestampedSink_WriteFailure(t *testing.T) {
	boom := errors.New("disk full")
	s := NewTimestampedSink(&recordingSink{err: boom}, fixedClock("T"))
	require.ErrorIs(t, s.Emit([]byte("x\n")), boom)
}

func TestTimestampedSink_DiscardSkipsClock(t *testing.T) {
	called := false
	s := NewTimestampedSink(Discard, ClockFunc(func() (string, error) {
		called = true
		return "", ErrClock
	}))

	require.NoError(t, s.Emit([]byte("dropped\n")))
	require.NoError(t, s.Flush())
	require.False(t, called)
}

func TestNewSink_Variants(t *testing.T) {
	const line = "T: record\n"

	t.Run("console", func(t *testing.T) {
		var console bytes.Buffer
		s, err := NewSink(SinkConfig{Console: &console})
		require.NoError(t, err)
		_, err = s.Write([]byte(line))
		require.NoError(t, err)
		require.NoError(t, s.Flush())
		require.Equal(t, line, console.String())
		require.NoError(t, s.Close())
	})

	t.Run("discard", func(t *testing.T) {
		var console bytes.Buffer
		s, err := NewSink(SinkConfig{Silent: true, Console: &console})
		require.NoError(t, err)
		require.Equal(t, Discard, s)
		n, err := s.Write([]byte(line))
		require.NoError(t, err)
		require.Equal(t, len(line), n)
		require.Empty(t, console.String())
	})

	t.Run("file", func(t *testing.T) {
		var console bytes.Buffer
		path := filepath.Join(t.TempDir(), "device.log")
		s, err := NewSink(SinkConfig{LogFile: path, Silent: true, Console: &console})
		require.NoError(t, err)
		_, err = s.Write([]byte(line))
		require.NoError(t, err)
		require.NoError(t, s.Close())

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, line, string(got))
		require.Empty(t, console.String())
	})

	t.Run("both", func(t *testing.T) {
		var console bytes.Buffer
		path := filepath.Join(t.TempDir(), "device.log")
		s, err := NewSink(SinkConfig{LogFile: path, Console: &console})
		require.NoError(t, err)
		_, err = s.Write([]byte(line))
		require.NoError(t, err)
		require.NoError(t, s.Close())

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, line, string(got))
		require.Equal(t, line, console.String())
	})
}

func TestNewSink_TruncatesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.log")
	require.NoError(t, os.WriteFile(path, []byte("previous session\n"), 0o644))

	s, err := NewSink(SinkConfig{LogFile: path, Silent: true})
	require.NoError(t, err)
	_, err = s.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new\n", string(got))
}

func TestNewSink_BadPath(t *testing.T) {
	_, err := NewSink(SinkConfig{LogFile: filepath.Join(t.TempDir(), "missing", "device.log")})
	require.Error(t, err)
}
