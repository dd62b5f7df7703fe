package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/josephlewis42/sish/core/logger"
	"github.com/josephlewis42/sish/core/shell"
)

// command builds the process for a stage, programs are found through PATH.
func (s *Shell) command(ctx context.Context, stage shell.Stage) *exec.Cmd {
	cmd := exec.CommandContext(ctx, stage.Program(), stage.Args()...)
	cmd.Stderr = s.VirtualIO.Stderr()
	return cmd
}

func (s *Shell) reportStartFailure(stage shell.Stage, err error) {
	w := s.VirtualIO.Stderr()
	if errors.Is(err, exec.ErrNotFound) {
		fmt.Fprintf(w, "%s: command not found\n", stage.Program())
	} else {
		fmt.Fprintf(w, "%s: %v\n", stage.Program(), err)
	}

	s.record(&logger.ExecFailureEvent{Command: stage, Error: err.Error()})
}

// wait blocks until the stage's process exits. The exit status is only
// logged.
func (s *Shell) wait(ctx context.Context, stage shell.Stage, cmd *exec.Cmd) {
	err := cmd.Wait()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		s.record(&logger.ExitEvent{Command: stage, ExitCode: 0})
	case errors.As(err, &exitErr):
		if ctxErr := ctx.Err(); ctxErr != nil {
			fmt.Fprintf(s.VirtualIO.Stderr(), "%s: %v\n", stage.Program(), ctxErr)
		}
		s.record(&logger.ExitEvent{Command: stage, ExitCode: exitErr.ExitCode()})
	default:
		fmt.Fprintf(s.VirtualIO.Stderr(), "%s: %v\n", stage.Program(), err)
		s.record(&logger.ExecFailureEvent{Command: stage, Error: err.Error()})
	}
}

// runExternal runs a single program with the shell's own streams.
func (s *Shell) runExternal(ctx context.Context, stage shell.Stage) {
	cmd := s.command(ctx, stage)
	cmd.Stdin = s.VirtualIO.Stdin()
	cmd.Stdout = s.VirtualIO.Stdout()

	if err := cmd.Start(); err != nil {
		s.reportStartFailure(stage, err)
		return
	}
	s.wait(ctx, stage, cmd)
}

type startedStage struct {
	stage shell.Stage
	cmd   *exec.Cmd
}

// runPipeline starts one process per stage, connecting each stage's output to
// the next stage's input, then waits for all of them.
//
// The shell closes its copy of every pipe end as soon as the child that needs
// it has started (or failed to), so readers always see EOF once their writer
// exits.
func (s *Shell) runPipeline(ctx context.Context, pipeline shell.Pipeline) {
	var (
		started  []startedStage
		prevRead *os.File
	)
	defer func() {
		if prevRead != nil {
			prevRead.Close()
		}
	}()

	last := len(pipeline) - 1
	for i, stage := range pipeline {
		cmd := s.command(ctx, stage)
		if i == 0 {
			cmd.Stdin = s.VirtualIO.Stdin()
		} else {
			cmd.Stdin = prevRead
		}

		var nextRead, write *os.File
		if i < last {
			r, w, err := os.Pipe()
			if err != nil {
				fmt.Fprintf(s.VirtualIO.Stderr(), "Pipe error: %v\n", err)
				break
			}
			nextRead, write = r, w
			cmd.Stdout = write
		} else {
			cmd.Stdout = s.VirtualIO.Stdout()
		}

		if err := cmd.Start(); err != nil {
			s.reportStartFailure(stage, err)
		} else {
			started = append(started, startedStage{stage: stage, cmd: cmd})
		}

		if prevRead != nil {
			prevRead.Close()
		}
		if write != nil {
			write.Close()
		}
		prevRead = nextRead
	}

	for _, st := range started {
		s.wait(ctx, st.stage, st.cmd)
	}
}
