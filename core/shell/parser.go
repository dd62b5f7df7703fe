// Package shell turns raw command lines into pipelines of argument vectors.
//
// The grammar is small: a line is split into stages on the pipe
// character and every stage is split into words on ASCII whitespace. There
// is no quoting, escaping, redirection or variable expansion.
package shell

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// PipeSeparator separates the stages of a pipeline.
	PipeSeparator = "|"

	DefaultMaxStages = 100
	DefaultMaxArgs   = 1000
)

var (
	// ErrEmpty is returned when a line holds no command at all. Callers
	// should silently move on to the next line.
	ErrEmpty = errors.New("no command")
	// ErrTooManyStages is returned when a line has more stages than allowed.
	ErrTooManyStages = errors.New("too many commands")
	// ErrNoArguments is returned when a stage holds nothing but whitespace.
	ErrNoArguments = errors.New("could not parse arguments")
	// ErrTooManyArguments is returned when a stage has more words than allowed.
	ErrTooManyArguments = errors.New("too many arguments")
)

// Stage is a single program invocation, element 0 is the program name.
type Stage []string

// Program returns the name of the program the stage runs.
func (s Stage) Program() string {
	return s[0]
}

// Args returns the arguments after the program name.
func (s Stage) Args() []string {
	return s[1:]
}

// Pipeline is one or more stages whose output feeds the next stage's input.
type Pipeline []Stage

// IsPiped is true if the pipeline connects more than one process.
func (p Pipeline) IsPiped() bool {
	return len(p) > 1
}

// Limits bounds the size of parsed lines.
type Limits struct {
	MaxStages int
	MaxArgs   int
}

// DefaultLimits returns the stock limits.
func DefaultLimits() Limits {
	return Limits{
		MaxStages: DefaultMaxStages,
		MaxArgs:   DefaultMaxArgs,
	}
}

// TrimTerminator removes a single trailing line terminator.
func TrimTerminator(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// SplitPipeline splits a raw line into the text of each stage.
//
// Zero-length segments are dropped so consecutive separators collapse. If no
// segment is left ErrEmpty is returned.
func SplitPipeline(raw string, maxStages int) ([]string, error) {
	raw = TrimTerminator(raw)

	var stages []string
	for _, segment := range strings.Split(raw, PipeSeparator) {
		if segment == "" {
			continue
		}
		stages = append(stages, segment)
	}

	switch {
	case len(stages) == 0:
		return nil, ErrEmpty
	case len(stages) > maxStages:
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyStages, len(stages), maxStages)
	}

	return stages, nil
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// SplitArguments splits the text of one stage into its argument vector.
func SplitArguments(stage string, maxArgs int) (Stage, error) {
	tokens := strings.FieldsFunc(stage, isSpace)

	switch {
	case len(tokens) == 0:
		return nil, ErrNoArguments
	case len(tokens) > maxArgs:
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyArguments, len(tokens), maxArgs)
	}

	return Stage(tokens), nil
}

// Parse splits a raw line into a pipeline, the first error wins.
func Parse(raw string, limits Limits) (Pipeline, error) {
	segments, err := SplitPipeline(raw, limits.MaxStages)
	if err != nil {
		return nil, err
	}

	pipeline := make(Pipeline, 0, len(segments))
	for _, segment := range segments {
		stage, err := SplitArguments(segment, limits.MaxArgs)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, stage)
	}

	return pipeline, nil
}
