package core

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/josephlewis42/sish/core/logger"
	"github.com/josephlewis42/sish/core/shell"
	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

// Action is what a builtin asks the shell to do once it returns.
type Action struct {
	Status int

	// Rerun holds a command line that replaces the one being executed, it's
	// only used if HasRerun is set.
	Rerun    string
	HasRerun bool
}

func done(status int) Action {
	return Action{Status: status}
}

func rerun(line string) Action {
	return Action{Rerun: line, HasRerun: true}
}

type ShellBuiltin interface {
	Main(s *Shell, args []string) Action
}

type ShellBuiltinFunc func(s *Shell, args []string) Action

func (f ShellBuiltinFunc) Main(s *Shell, args []string) Action {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// ListBuiltins returns the sorted names of the registered builtins.
func ListBuiltins() []string {
	var out []string
	for name := range AllBuiltins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type ResultKind int

const (
	// ResultDone means the line was fully handled by builtins.
	ResultDone ResultKind = iota
	// ResultRunExternal means the single stage in Pipeline runs as a program.
	ResultRunExternal
	// ResultRunPipeline means Pipeline replaces the line being executed.
	ResultRunPipeline
)

// Result is the outcome of dispatching a single stage.
type Result struct {
	Kind     ResultKind
	Pipeline shell.Pipeline
	Status   int
}

// dispatch runs builtins until the stage resolves to something that needs
// new processes. History expansions loop here rather than recursing.
func (s *Shell) dispatch(stage shell.Stage) Result {
	for expansions := 0; ; expansions++ {
		builtin, ok := AllBuiltins[stage.Program()]
		if !ok {
			return Result{Kind: ResultRunExternal, Pipeline: shell.Pipeline{stage}}
		}

		action := builtin.Main(s, stage)
		if !action.HasRerun {
			return Result{Kind: ResultDone, Status: action.Status}
		}

		// Every visible entry has been expanded at least once, so the chain
		// is a cycle.
		if expansions >= s.History.Cap() {
			fmt.Fprintln(s.VirtualIO.Stderr(), "history: expansion loop")
			return Result{Kind: ResultDone, Status: 1}
		}

		pipeline, err := s.parse(action.Rerun)
		if err != nil {
			return Result{Kind: ResultDone, Status: 1}
		}
		if pipeline.IsPiped() {
			return Result{Kind: ResultRunPipeline, Pipeline: pipeline}
		}
		stage = pipeline[0]
	}
}

// Cd is the cd shell builtin
func Cd(s *Shell, args []string) Action {
	w := s.VirtualIO.Stderr()
	if len(args) < 2 {
		fmt.Fprintln(w, "Error: No path specified")
		return done(1)
	}

	path := args[1]
	if err := os.Chdir(path); err != nil {
		fmt.Fprintf(w, "%s: No such file or directory\n", path)
		s.record(&logger.ChdirEvent{Path: path, Error: err.Error()})
		return done(1)
	}

	s.record(&logger.ChdirEvent{Path: path})
	return done(0)
}

func isDigits(arg string) bool {
	if arg == "" {
		return false
	}
	for _, r := range arg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// History is the history shell builtin, it lists, clears or re-executes
// entries.
func History(s *Shell, args []string) Action {
	stdout := s.VirtualIO.Stdout()
	stderr := s.VirtualIO.Stderr()

	switch {
	case len(args) == 1:
		for _, entry := range s.History.List() {
			fmt.Fprintf(stdout, "%d %s\n", entry.Index, entry.Line)
		}
		return done(0)
	case len(args) > 2:
		fmt.Fprintln(stderr, "Error: Too many arguments")
		return done(1)
	}

	if arg := args[1]; isDigits(arg) {
		offset, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(stderr, "Invalid offset")
			return done(1)
		}

		line, err := s.History.Resolve(offset)
		if err != nil {
			fmt.Fprintln(stderr, "Invalid offset")
			return done(1)
		}

		s.record(&logger.RerunEvent{Offset: offset, Line: line})
		return rerun(line)
	}

	opts := getopt.New()
	clearAll := opts.Bool('c', "clear the history by deleting all entries")
	if err := opts.Getopt(args, nil); err != nil || !*clearAll || opts.NArgs() > 0 {
		fmt.Fprintln(stderr, "Invalid argument")
		return done(1)
	}

	s.History.Clear()
	if resetter, ok := s.Reader.(HistoryResetter); ok {
		resetter.ResetHistory()
	}
	return done(0)
}

func init() {
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["history"] = ShellBuiltinFunc(History)
}
