package ttylog

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionStartMicros = 1600000000 * 1000000

func sampleSession() []*Entry {
	return []*Entry{
		{TimestampMicros: sessionStartMicros, FD: FDStdin, Data: []byte("echo hi\n")},
		{TimestampMicros: sessionStartMicros + 500000, FD: FDStdout, Data: []byte("hi\r\n")},
		{TimestampMicros: sessionStartMicros + 1250000, FD: FDStderr, Data: []byte("oops\r\n")},
		{TimestampMicros: sessionStartMicros + 2000000, FD: FDStdout, Close: true},
	}
}

func TestTimeConversions(t *testing.T) {
	cases := map[string]struct {
		microseconds int64
		seconds      float64
	}{
		"precision": {
			microseconds: 1,
			seconds:      1e-6,
		},
		"negative": {
			microseconds: -631119539e6,
			seconds:      -631119539,
		},
		"positive": {
			microseconds: 631119539e6,
			seconds:      631119539,
		},
		"bigprecise": {
			microseconds: 123456789987654,
			seconds:      123456789.987654,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			s2m := secondsToMicroseconds(tc.seconds)
			m2s := microsecondsToSeconds(tc.microseconds)

			// Only allow delta to be to the NS
			assert.InDelta(t, m2s, tc.seconds, float64(time.Nanosecond)/float64(time.Second))
			assert.Equal(t, s2m, tc.microseconds)
		})
	}
}

func TestAsciicastLogSink(t *testing.T) {
	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	out := &bytes.Buffer{}
	sink := NewAsciicastLogSink(out)
	for _, entry := range sampleSession() {
		require.NoError(t, sink(entry))
	}

	g.Assert(t, "session", out.Bytes())
}

func TestAsciicastLogSource(t *testing.T) {
	recording := &bytes.Buffer{}
	sink := NewAsciicastLogSink(recording)
	for _, entry := range sampleSession() {
		require.NoError(t, sink(entry))
	}

	var got []*Entry
	require.NoError(t, Replay(NewAsciicastLogSource(recording), func(e *Entry) error {
		got = append(got, e)
		return nil
	}))

	// Times are relative to the first entry, stderr becomes stdout and close
	// markers aren't kept.
	assert.Equal(t, []*Entry{
		{TimestampMicros: 0, FD: FDStdin, Data: []byte("echo hi\n")},
		{TimestampMicros: 500000, FD: FDStdout, Data: []byte("hi\r\n")},
		{TimestampMicros: 1250000, FD: FDStdout, Data: []byte("oops\r\n")},
	}, got)
}

func TestAsciicastLogSource_skips(t *testing.T) {
	recording := strings.Join([]string{
		`{"version": 2}`,
		``,
		`[0.1, "m", "marker"]`,
		`[0.2, "o", "kept"]`,
		``,
	}, "\n")

	src := NewAsciicastLogSource(strings.NewReader(recording))
	entry, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "kept", string(entry.Data))

	_, err = src.Next()
	assert.Equal(t, io.EOF, err)
}

func TestAsciicastLogSource_malformed(t *testing.T) {
	cases := map[string]string{
		"not-json":    "garbage\n",
		"short":       `[0.1, "o"]` + "\n",
		"wrong-types": `["0.1", "o", 3]` + "\n",
	}

	for tn, line := range cases {
		t.Run(tn, func(t *testing.T) {
			src := NewAsciicastLogSource(strings.NewReader("{}\n" + line))
			_, err := src.Next()
			assert.Error(t, err)
			assert.NotEqual(t, io.EOF, err)
		})
	}
}
