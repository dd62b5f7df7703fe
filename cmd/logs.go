package cmd

import (
	"os"
	"time"

	"github.com/josephlewis42/sish/core/ttylog"
	"github.com/spf13/cobra"
)

var (
	fixLineEndings bool
	showInput      bool
	idleTimeLimit  time.Duration
)

var logsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"log"},
	Short:   "Explore recorded sessions.",
}

// playCommand replays a recording at its original speed
var playCommand = &cobra.Command{
	Use:   "play FILE",
	Short: "Replay a recorded session in the terminal.",
	Long:  `Plays a recorded session back to the current terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()
		source := ttylog.NewLogSource(ttylog.FormatForPath(args[0]), fd)

		sink := ttylog.NewClientOutput(cmd.OutOrStdout(), showInput)
		sink = ttylog.NewRealTimePlayback(idleTimeLimit, sink)
		return ttylog.Replay(source, applyMiddleware(sink))
	},
}

// catCommand prints a recording without pauses
var catCommand = &cobra.Command{
	Use:   "cat FILE",
	Short: "Print full output of a recorded session.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		source := ttylog.NewLogSource(ttylog.FormatForPath(args[0]), fd)
		sink := ttylog.NewClientOutput(cmd.OutOrStdout(), showInput)

		return ttylog.Replay(source, applyMiddleware(sink))
	},
}

// asciicastCmd converts a recording to the asciicast format
var asciicastCmd = &cobra.Command{
	Use:   "asciicast INPUT.uml > OUTPUT.cast",
	Short: "Convert a recording to asciicast (asciinema) format.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		source := ttylog.NewLogSource(ttylog.FormatForPath(args[0]), fd)
		sink := ttylog.NewAsciicastLogSink(cmd.OutOrStdout())

		return ttylog.Replay(source, applyMiddleware(sink))
	},
}

func applyMiddleware(sink ttylog.LogSink) ttylog.LogSink {
	if fixLineEndings {
		sink = ttylog.NewCRLFAdapter(sink)
	}

	return sink
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(playCommand)
	logsCmd.AddCommand(asciicastCmd)
	logsCmd.AddCommand(catCommand)

	for _, cmd := range []*cobra.Command{playCommand, asciicastCmd, catCommand} {
		cmd.Flags().BoolVar(&fixLineEndings, "fix-crlf", false, "Rewrite bare newlines as CRLF.")
	}

	for _, cmd := range []*cobra.Command{playCommand, catCommand} {
		cmd.Flags().BoolVar(&showInput, "input", false, "Also print the lines typed into the shell.")
	}

	// cat doesn't allow idle time
	for _, cmd := range []*cobra.Command{playCommand} {
		cmd.Flags().DurationVarP(&idleTimeLimit, "idle-time-limit", "i", 3*time.Second, "Maximum time output can be idle. (e.g. 3s, 2m, 100ms)")
	}
}
