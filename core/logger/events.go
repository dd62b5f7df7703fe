package logger

// LogEntry is a single event in the log. Exactly one of the event fields is
// set, GetLogType returns it.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	Command     *CommandEvent     `json:"command,omitempty"`
	Rerun       *RerunEvent       `json:"rerun,omitempty"`
	ParseError  *ParseErrorEvent  `json:"parse_error,omitempty"`
	ExecFailure *ExecFailureEvent `json:"exec_failure,omitempty"`
	Exit        *ExitEvent        `json:"exit,omitempty"`
	Chdir       *ChdirEvent       `json:"chdir,omitempty"`
}

// LogType is implemented by every event that can be recorded.
type LogType interface {
	attach(le *LogEntry)
}

// GetLogType returns the event held by the entry or nil if there is none.
func (le *LogEntry) GetLogType() LogType {
	switch {
	case le.Command != nil:
		return le.Command
	case le.Rerun != nil:
		return le.Rerun
	case le.ParseError != nil:
		return le.ParseError
	case le.ExecFailure != nil:
		return le.ExecFailure
	case le.Exit != nil:
		return le.Exit
	case le.Chdir != nil:
		return le.Chdir
	}
	return nil
}

// CommandEvent is logged for every line accepted by the shell.
type CommandEvent struct {
	Line   string     `json:"line"`
	Stages [][]string `json:"stages,omitempty"`
}

func (e *CommandEvent) attach(le *LogEntry) { le.Command = e }

// RerunEvent is logged when a history entry is executed again.
type RerunEvent struct {
	Offset int    `json:"offset"`
	Line   string `json:"line"`
}

func (e *RerunEvent) attach(le *LogEntry) { le.Rerun = e }

// ParseErrorEvent is logged when a line can't be split into stages.
type ParseErrorEvent struct {
	Line  string `json:"line"`
	Error string `json:"error"`
}

func (e *ParseErrorEvent) attach(le *LogEntry) { le.ParseError = e }

// ExecFailureEvent is logged when a program couldn't be started.
type ExecFailureEvent struct {
	Command []string `json:"command"`
	Error   string   `json:"error"`
}

func (e *ExecFailureEvent) attach(le *LogEntry) { le.ExecFailure = e }

// ExitEvent is logged when a started program terminates.
type ExitEvent struct {
	Command  []string `json:"command"`
	ExitCode int      `json:"exit_code"`
}

func (e *ExitEvent) attach(le *LogEntry) { le.Exit = e }

// ChdirEvent is logged when cd runs.
type ChdirEvent struct {
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

func (e *ChdirEvent) attach(le *LogEntry) { le.Chdir = e }
