package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/sish/core/config"
	"github.com/josephlewis42/sish/core/history"
	"github.com/josephlewis42/sish/core/logger"
	"github.com/josephlewis42/sish/core/shell"
)

// ExitCommand is the line that ends the shell.
const ExitCommand = "exit"

// LineReader supplies raw input lines, readline.Instance satisfies it.
type LineReader interface {
	SetPrompt(prompt string)
	Readline() (string, error)
}

// HistoryResetter is implemented by line readers that keep their own recall
// history, history -c clears it along with the shell's.
type HistoryResetter interface {
	ResetHistory()
}

type Shell struct {
	VirtualIO VIO
	Reader    LineReader
	History   *history.Buffer
	Limits    shell.Limits
	Prompt    string
	// Timeout bounds the run time of one line, zero disables it.
	Timeout time.Duration

	events *logger.SessionLogger
}

// NewShell creates a shell configured by cfg. A nil events logger drops
// every event.
func NewShell(cfg *config.Configuration, vio VIO, reader LineReader, events *logger.SessionLogger) *Shell {
	if events == nil {
		events = logger.NewNopLogger().Sessionless()
	}

	return &Shell{
		VirtualIO: vio,
		Reader:    reader,
		History:   history.New(cfg.HistorySize),
		Limits:    cfg.Limits(),
		Prompt:    cfg.Prompt,
		Timeout:   cfg.CommandTimeout(),
		events:    events,
	}
}

// IsExit is true if the line asks the shell to quit.
func IsExit(line string) bool {
	return shell.TrimTerminator(line) == ExitCommand
}

// Run reads and executes lines until exit is typed or the input ends.
func (s *Shell) Run() int {
	for {
		s.Reader.SetPrompt(s.Prompt)
		line, err := s.Reader.Readline()

		switch {
		case err == io.EOF:
			return 0 // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue

		case err != nil:
			log.Printf("Error readline: %v", err)
			return 1

		case IsExit(line):
			return 0

		default:
			s.Execute(context.Background(), line)
		}
	}
}

// Execute records the line in the history and runs it.
func (s *Shell) Execute(ctx context.Context, line string) {
	line = shell.TrimTerminator(line)
	s.History.Append(line)

	pipeline, err := s.parse(line)
	if err != nil {
		return
	}
	s.record(&logger.CommandEvent{Line: line, Stages: stagesToStrings(pipeline)})

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	if pipeline.IsPiped() {
		s.runPipeline(ctx, pipeline)
		return
	}

	result := s.dispatch(pipeline[0])
	switch result.Kind {
	case ResultRunExternal:
		s.runExternal(ctx, result.Pipeline[0])
	case ResultRunPipeline:
		s.runPipeline(ctx, result.Pipeline)
	}
}

// parse splits a line into a pipeline, reporting any problem to the user.
func (s *Shell) parse(line string) (shell.Pipeline, error) {
	pipeline, err := shell.Parse(line, s.Limits)
	switch {
	case errors.Is(err, shell.ErrEmpty):
		// Nothing to do.
	case err != nil:
		fmt.Fprintf(s.VirtualIO.Stderr(), "Error: %v\n", err)
		s.record(&logger.ParseErrorEvent{Line: line, Error: err.Error()})
	}
	return pipeline, err
}

func (s *Shell) record(event logger.LogType) {
	if err := s.events.Record(event); err != nil {
		log.Printf("recording event: %v", err)
	}
}

func stagesToStrings(pipeline shell.Pipeline) [][]string {
	out := make([][]string, 0, len(pipeline))
	for _, stage := range pipeline {
		out = append(out, []string(stage))
	}
	return out
}
