package cmd

import (
	"io"
	"os"
	"sync"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/sish/core"
	"github.com/josephlewis42/sish/core/config"
	"github.com/josephlewis42/sish/core/ttylog"
	"golang.org/x/term"
)

// inputGate hands terminal input to the line editor only while a prompt is
// active. It reads one byte at a time and closes itself after a line ending,
// so keystrokes typed while a program runs go to that program.
type inputGate struct {
	r    io.Reader
	mu   sync.Mutex
	cond *sync.Cond
	open bool
}

func newInputGate(r io.Reader) *inputGate {
	g := &inputGate{r: r}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Open lets the next read through.
func (g *inputGate) Open() {
	g.mu.Lock()
	g.open = true
	g.mu.Unlock()
	g.cond.Broadcast()
}

func (g *inputGate) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	g.mu.Lock()
	for !g.open {
		g.cond.Wait()
	}
	g.mu.Unlock()

	n, err := g.r.Read(p[:1])
	if n == 1 && (p[0] == '\r' || p[0] == '\n') {
		g.mu.Lock()
		g.open = false
		g.mu.Unlock()
	}
	return n, err
}

// readlineReader is an interactive line editor, history -c also clears its
// recall list.
type readlineReader struct {
	*readline.Instance
	gate *inputGate
}

var _ core.LineReader = (*readlineReader)(nil)
var _ core.HistoryResetter = (*readlineReader)(nil)

func (r *readlineReader) Readline() (string, error) {
	r.gate.Open()
	return r.Instance.Readline()
}

func (r *readlineReader) ResetHistory() {
	r.Operation.ResetHistory()
}

// streamReader reads lines from a non-interactive input one byte at a time,
// so input after the current line is left for the programs it starts.
type streamReader struct {
	r io.Reader
}

var _ core.LineReader = (*streamReader)(nil)

func (*streamReader) SetPrompt(string) {}

func (s *streamReader) Readline() (string, error) {
	var (
		line []byte
		b    [1]byte
	)

	for {
		n, err := s.r.Read(b[:])
		if n == 1 {
			if b[0] == '\n' {
				return string(line), nil
			}
			line = append(line, b[0])
		}

		switch {
		case err == io.EOF && len(line) > 0:
			// Final line without a terminator.
			return string(line), nil
		case err != nil:
			return "", err
		}
	}
}

// recordingReader copies every line read into a session recording.
type recordingReader struct {
	core.LineReader
	recorder *ttylog.Recorder
}

func (r *recordingReader) Readline() (string, error) {
	line, err := r.LineReader.Readline()
	if err == nil {
		r.recorder.RecordInput(line)
	}
	return line, err
}

func (r *recordingReader) ResetHistory() {
	if resetter, ok := r.LineReader.(core.HistoryResetter); ok {
		resetter.ResetHistory()
	}
}

func isTerminal(r io.Reader) (*os.File, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return nil, false
	}
	return f, term.IsTerminal(int(f.Fd()))
}

// newLineReader picks an editor for terminals and a plain reader for
// everything else.
func newLineReader(cfg *config.Configuration, stdin io.Reader, vio core.VIO) (core.LineReader, func(), error) {
	f, interactive := isTerminal(stdin)
	if !interactive {
		return &streamReader{r: stdin}, func() {}, nil
	}

	gate := newInputGate(f)
	rl, err := readline.NewEx(&readline.Config{
		Stdin:        readline.NewCancelableStdin(gate),
		Stdout:       vio.Stdout(),
		Stderr:       vio.Stderr(),
		HistoryLimit: cfg.HistorySize,
	})
	if err != nil {
		return nil, nil, err
	}

	return &readlineReader{Instance: rl, gate: gate}, func() { rl.Close() }, nil
}
