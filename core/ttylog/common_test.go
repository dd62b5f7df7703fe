package ttylog

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/josephlewis42/sish/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entryCollector struct {
	entries []*Entry
}

func (c *entryCollector) sink(e *Entry) error {
	c.entries = append(c.entries, e)
	return nil
}

func TestRecorder(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	collector := &entryCollector{}

	rec := NewRecorder(core.NewVIOAdapter(nil, stdout, stderr), collector.sink)

	buf := []byte("out")
	_, err := rec.Stdout().Write(buf)
	require.NoError(t, err)
	// Callers may reuse their buffers.
	copy(buf, "xxx")

	_, err = rec.Stderr().Write([]byte("err"))
	require.NoError(t, err)
	rec.RecordInput("echo hi")
	require.NoError(t, rec.Close())

	assert.Equal(t, "out", stdout.String())
	assert.Equal(t, "err", stderr.String())

	require.Len(t, collector.entries, 4)
	assert.Equal(t, FDStdout, collector.entries[0].FD)
	assert.Equal(t, "out", string(collector.entries[0].Data))
	assert.Equal(t, FDStderr, collector.entries[1].FD)
	assert.Equal(t, FDStdin, collector.entries[2].FD)
	assert.Equal(t, "echo hi\n", string(collector.entries[2].Data))
	assert.True(t, collector.entries[3].Close)

	for i := 1; i < len(collector.entries); i++ {
		assert.LessOrEqual(t, collector.entries[i-1].TimestampMicros, collector.entries[i].TimestampMicros)
	}
}

func TestRecorder_passesStdin(t *testing.T) {
	vio := core.NewOSIO()
	rec := NewRecorder(vio, (&entryCollector{}).sink)

	assert.Same(t, vio.Stdin(), rec.Stdin())
}

func TestNewClientOutput(t *testing.T) {
	cases := map[string]struct {
		echoInput bool
		want      string
	}{
		"output-only": {false, "hi\r\noops\r\n"},
		"with-input":  {true, "echo hi\nhi\r\noops\r\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			out := &bytes.Buffer{}
			sink := NewClientOutput(out, tc.echoInput)
			for _, entry := range sampleSession() {
				require.NoError(t, sink(entry))
			}

			assert.Equal(t, tc.want, out.String())
		})
	}
}

func TestNewCRLFAdapter(t *testing.T) {
	collector := &entryCollector{}
	sink := NewCRLFAdapter(collector.sink)

	require.NoError(t, sink(&Entry{Data: []byte("a\nb\r\nc")}))
	assert.Equal(t, "a\r\nb\r\nc", string(collector.entries[0].Data))
}

func TestNewRealTimePlayback(t *testing.T) {
	collector := &entryCollector{}
	sink := NewRealTimePlayback(10*time.Millisecond, collector.sink)

	start := time.Now()
	for _, entry := range sampleSession() {
		require.NoError(t, sink(entry))
	}

	// Two seconds of recording are capped at 10ms per entry.
	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, collector.entries, len(sampleSession()))
}

type sliceSource struct {
	entries []*Entry
}

func (s *sliceSource) Next() (*Entry, error) {
	if len(s.entries) == 0 {
		return nil, errEndOfSlice
	}
	e := s.entries[0]
	s.entries = s.entries[1:]
	return e, nil
}

var errEndOfSlice = errors.New("end of slice")

func TestReplay_errors(t *testing.T) {
	err := Replay(&sliceSource{}, (&entryCollector{}).sink)
	assert.ErrorIs(t, err, errEndOfSlice)

	sinkErr := errors.New("sink failed")
	calls := 0
	err = Replay(&sliceSource{entries: sampleSession()}, func(*Entry) error {
		calls++
		return sinkErr
	})
	assert.ErrorIs(t, err, sinkErr)
	assert.Equal(t, 1, calls)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatAsciicast, FormatForPath("session.cast"))
	assert.Equal(t, FormatAsciicast, FormatForPath("session"))
	assert.Equal(t, FormatUML, FormatForPath("/tmp/session.uml"))
	assert.Equal(t, FormatUML, FormatForPath("kippo.log"))
}

func TestNewLogSink_roundTrip(t *testing.T) {
	for _, format := range []Format{FormatAsciicast, FormatUML} {
		recording := &bytes.Buffer{}
		sink := NewLogSink(format, recording)
		require.NoError(t, sink(&Entry{TimestampMicros: sessionStartMicros, FD: FDStdout, Data: []byte("line\n")}))

		out := &bytes.Buffer{}
		require.NoError(t, Replay(NewLogSource(format, recording), NewClientOutput(out, false)))

		if format == FormatAsciicast {
			assert.Equal(t, "line\r\n", out.String())
		} else {
			assert.Equal(t, "line\n", out.String())
		}
	}
}
