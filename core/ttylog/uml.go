package ttylog

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"
)

// UMLFileExt is the file extension used for user-mode-linux recordings.
const UMLFileExt = "uml"

type umlOp int32

const (
	opOpen  umlOp = 1
	opClose umlOp = 2
	opWrite umlOp = 3
	opExec  umlOp = 4
)

type umlDir int32

const (
	dirRead  umlDir = 1
	dirWrite umlDir = 2
)

// umlHeader precedes Size bytes of data in the log.
type umlHeader struct {
	Operation    int32  // Maps into umlOp.
	Tty          uint32 // Always 0.
	Size         int32
	Direction    int32 // Maps into umlDir.
	Seconds      uint32
	Microseconds uint32
}

func writeUMLEvent(out io.Writer, timestamp time.Time, fd FD, op umlOp, data []byte) error {
	direction := dirWrite
	if fd == FDStdin {
		direction = dirRead
	}

	header := umlHeader{
		Operation:    int32(op),
		Size:         int32(len(data)),
		Direction:    int32(direction),
		Seconds:      uint32(timestamp.Unix()),
		Microseconds: uint32(timestamp.Nanosecond() / int(time.Microsecond)),
	}
	if err := binary.Write(out, binary.LittleEndian, &header); err != nil {
		return err
	}

	if len(data) > 0 {
		if _, err := out.Write(data); err != nil {
			return err
		}
	}

	return nil
}

// NewUMLLogSink creates a LogSink compatible with the user-mode-linux TTY
// log, which Kippo style tools also read.
func NewUMLLogSink(w io.Writer) LogSink {
	return func(entry *Entry) error {
		timestamp := time.UnixMicro(entry.TimestampMicros)
		if entry.Close {
			return writeUMLEvent(w, timestamp, entry.FD, opClose, nil)
		}
		return writeUMLEvent(w, timestamp, entry.FD, opWrite, entry.Data)
	}
}

// UMLLogSource parses log events from a user-mode-linux formatted file.
type UMLLogSource struct {
	r io.Reader
}

var _ LogSource = (*UMLLogSource)(nil)

// NewUMLLogSource reads log events from a user-mode-linux formatted file.
func NewUMLLogSource(r io.Reader) *UMLLogSource {
	return &UMLLogSource{r: r}
}

// Next gets the next log entry, it returns io.EOF if there are no more.
func (src *UMLLogSource) Next() (*Entry, error) {
	var header umlHeader

	for {
		if err := binary.Read(src.r, binary.LittleEndian, &header); err != nil {
			return nil, io.EOF
		}
		buf := &bytes.Buffer{}
		if _, err := io.CopyN(buf, src.r, int64(header.Size)); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}

		logTime := int64(header.Seconds)*int64(time.Second/time.Microsecond) + int64(header.Microseconds)

		// UML doesn't distinguish between stdout and stderr.
		fd := FDStdout
		if umlDir(header.Direction) == dirRead {
			fd = FDStdin
		}

		switch umlOp(header.Operation) {
		case opClose:
			return &Entry{TimestampMicros: logTime, FD: fd, Close: true}, nil
		case opWrite:
			return &Entry{TimestampMicros: logTime, FD: fd, Data: buf.Bytes()}, nil
		case opOpen, opExec:
			fallthrough
		default:
			// Skip non-I/O operations
			continue
		}
	}
}
