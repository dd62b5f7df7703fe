package logger

import (
	"encoding/json"
	"sort"
)

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int `json:"log_entries"`
	InvalidEntries int `json:"invalid_log_entries,omitempty"`

	Sessions    StrCounter        `json:"sessions"`
	Command     CommandReport     `json:"command_report"`
	Rerun       RerunReport       `json:"rerun_report"`
	ParseError  ParseErrorReport  `json:"parse_error_report"`
	ExecFailure ExecFailureReport `json:"exec_failure_report"`
	Exit        ExitReport        `json:"exit_report"`
	Chdir       ChdirReport       `json:"chdir_report"`
}

// Update folds a single entry into the report.
func (r *Report) Update(le *LogEntry) {
	r.LogEntries++
	if le.SessionID != "" {
		r.Sessions.Increment(le.SessionID)
	}

	switch event := le.GetLogType().(type) {
	case *CommandEvent:
		r.Command.update(event)
	case *RerunEvent:
		r.Rerun.update(event)
	case *ParseErrorEvent:
		r.ParseError.update(event)
	case *ExecFailureEvent:
		r.ExecFailure.update(event)
	case *ExitEvent:
		r.Exit.update(event)
	case *ChdirEvent:
		r.Chdir.update(event)
	default:
		r.InvalidEntries++
	}
}

type CommandReport struct {
	Count int `json:"count"`
	// Number of lines with more than one stage.
	Pipelines int `json:"pipelines"`
	// Program names across all stages.
	ProgramNames StrCounter `json:"program_names"`
}

func (r *CommandReport) update(e *CommandEvent) {
	r.Count++
	if len(e.Stages) > 1 {
		r.Pipelines++
	}
	for _, stage := range e.Stages {
		if len(stage) > 0 {
			r.ProgramNames.Increment(stage[0])
		}
	}
}

type RerunReport struct {
	Count int        `json:"count"`
	Lines StrCounter `json:"lines"`
}

func (r *RerunReport) update(e *RerunEvent) {
	r.Count++
	r.Lines.Increment(e.Line)
}

type ParseErrorReport struct {
	Errors StrCounter `json:"errors"`
}

func (r *ParseErrorReport) update(e *ParseErrorEvent) {
	r.Errors.Increment(e.Error)
}

type ExecFailureReport struct {
	Failures *PathCounter `json:"failures"`
}

func (r *ExecFailureReport) update(e *ExecFailureEvent) {
	if r.Failures == nil {
		r.Failures = NewPathCounter("command", "error")
	}
	if len(e.Command) > 0 {
		r.Failures.Increment(e.Command[0], e.Error)
	}
}

type ExitReport struct {
	ExitCodes *PathCounter `json:"exit_codes"`
}

func (r *ExitReport) update(e *ExitEvent) {
	if r.ExitCodes == nil {
		r.ExitCodes = NewPathCounter("command", "exit_code")
	}
	if len(e.Command) > 0 {
		code, _ := json.Marshal(e.ExitCode)
		r.ExitCodes.Increment(e.Command[0], string(code))
	}
}

type ChdirReport struct {
	Paths  StrCounter `json:"paths"`
	Failed int        `json:"failed"`
}

func (r *ChdirReport) update(e *ChdirEvent) {
	r.Paths.Increment(e.Path)
	if e.Error != "" {
		r.Failed++
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns how many times the key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implements a custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts tuples of strings.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Count returns how many times the tuple was seen.
func (ctr *PathCounter) Count(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implements a custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
