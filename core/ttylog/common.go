package ttylog

import (
	"io"
	"log"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/josephlewis42/sish/core"
)

var (
	crlf = regexp.MustCompile(`\r?\n`)
)

// FD identifies the stream an entry was seen on.
type FD int

const (
	FDStdin  FD = 0
	FDStdout FD = 1
	FDStderr FD = 2
)

// Entry is a single recorded event.
type Entry struct {
	TimestampMicros int64
	FD              FD
	Data            []byte
	// Close marks the end of the stream, Data is empty.
	Close bool
}

// LogSink receives log events.
type LogSink func(e *Entry) error

// LogSource adapts log readers.
type LogSource interface {
	// Next fetches the next available log entry. It returns io.EOF if the source
	// has no more log entries.
	Next() (*Entry, error)
}

// Format is an on-disk recording format.
type Format int

const (
	FormatAsciicast Format = iota
	FormatUML
)

// FormatForPath picks the recording format from a file name, asciicast
// unless the extension says otherwise.
func FormatForPath(name string) Format {
	switch strings.TrimPrefix(filepath.Ext(name), ".") {
	case UMLFileExt, "log":
		return FormatUML
	default:
		return FormatAsciicast
	}
}

// NewLogSink creates a sink that writes the format to w.
func NewLogSink(format Format, w io.Writer) LogSink {
	if format == FormatUML {
		return NewUMLLogSink(w)
	}
	// Terminal players don't translate bare newlines.
	return NewCRLFAdapter(NewAsciicastLogSink(w))
}

// NewLogSource creates a source that reads the format from r.
func NewLogSource(format Format, r io.Reader) LogSource {
	if format == FormatUML {
		return NewUMLLogSource(r)
	}
	return NewAsciicastLogSource(r)
}

// NewRealTimePlayback plays back the results in real-time.
// If maxSleep > 0, it's used as the maximum duration to pause.
func NewRealTimePlayback(maxSleep time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTimeMicros int64

	return func(entry *Entry) error {
		once.Do(func() {
			prevTimeMicros = entry.TimestampMicros
		})

		delta := entry.TimestampMicros - prevTimeMicros
		prevTimeMicros = entry.TimestampMicros

		if maxSleep > 0 {
			sleepDuration := time.Duration(delta) * time.Microsecond
			if sleepDuration > maxSleep {
				sleepDuration = maxSleep
			}
			time.Sleep(sleepDuration)
		}

		return next(entry)
	}
}

// NewCRLFAdapter rewrites bare \n to \r\n so the cursor returns to the start
// of the line on raw terminals.
func NewCRLFAdapter(next LogSink) LogSink {
	return func(entry *Entry) error {
		if !entry.Close {
			entry.Data = crlf.ReplaceAll(entry.Data, []byte("\r\n"))
		}

		return next(entry)
	}
}

// NewClientOutput writes stdout and stderr to the given writer, if echoInput
// is set input is written as well.
func NewClientOutput(w io.Writer, echoInput bool) LogSink {
	return func(entry *Entry) error {
		if entry.Close || (entry.FD == FDStdin && !echoInput) {
			return nil
		}

		_, err := w.Write(entry.Data)
		return err
	}
}

// Replay reads a stream of events to a callback.
func Replay(recording LogSource, callback LogSink) error {
	for {
		entry, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(entry); err != nil {
			return err
		}
	}
}

// Recorder wraps a VIO and sends everything written to stdout and stderr to
// a LogSink. Stdin passes through untouched so child processes keep the real
// descriptor, lines the shell reads are recorded with RecordInput.
type Recorder struct {
	*core.VIOAdapter
	mutex  sync.Mutex
	output LogSink
}

var _ core.VIO = (*Recorder)(nil)

func (r *Recorder) record(fd FD, data []byte, isClose bool) {
	entry := &Entry{
		TimestampMicros: time.Now().UnixMicro(),
		FD:              fd,
		Data:            append([]byte(nil), data...),
		Close:           isClose,
	}

	r.mutex.Lock()
	err := r.output(entry)
	r.mutex.Unlock()
	if err != nil {
		log.Print(err)
	}
}

// RecordInput logs a line read by the shell.
func (r *Recorder) RecordInput(line string) {
	r.record(FDStdin, []byte(line+"\n"), false)
}

// Close marks the end of the session.
func (r *Recorder) Close() error {
	r.record(FDStdout, nil, true)
	return nil
}

type recorderWriter struct {
	r       *Recorder
	mockFd  FD
	wrapped io.Writer
}

var _ io.Writer = (*recorderWriter)(nil)

func (rw *recorderWriter) Write(p []byte) (int, error) {
	amount, err := rw.wrapped.Write(p)
	if amount > 0 {
		rw.r.record(rw.mockFd, p[:amount], false)
	}
	return amount, err
}

// NewRecorder creates a recorder that forwards all output events to output.
func NewRecorder(toWrap core.VIO, output LogSink) *Recorder {
	recorder := &Recorder{
		output: output,
	}

	recorder.VIOAdapter = core.NewVIOAdapter(
		toWrap.Stdin(),
		&recorderWriter{mockFd: FDStdout, r: recorder, wrapped: toWrap.Stdout()},
		&recorderWriter{mockFd: FDStderr, r: recorder, wrapped: toWrap.Stderr()},
	)

	return recorder
}
