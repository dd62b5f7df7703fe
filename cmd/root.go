package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/josephlewis42/sish/core"
	"github.com/josephlewis42/sish/core/config"
	"github.com/josephlewis42/sish/core/logger"
	"github.com/josephlewis42/sish/core/ttylog"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	commandLine string
	recordPath  string
)

func newLogger(cmd *cobra.Command) *log.Logger {
	return log.New(cmd.ErrOrStderr(), "[sish] ", 0)
}

// openEventLog returns the configured event logger and a function to release
// it.
func openEventLog(cfg *config.Configuration) (*logger.Logger, func(), error) {
	if !cfg.EventLog {
		return logger.NewNopLogger(), func() {}, nil
	}

	fd, err := cfg.OpenAppLog()
	if err != nil {
		return nil, nil, err
	}
	return logger.NewJsonLinesLogRecorder(fd), func() { fd.Close() }, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sish",
	Short: "A small shell with pipelines and history.",
	Long: `sish reads command lines, runs builtins in process and everything else
as child processes connected by pipes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.LoadOrDefault(cfgPath, newLogger(cmd))
		if err != nil {
			return err
		}

		events, closeEvents, err := openEventLog(cfg)
		if err != nil {
			return err
		}
		defer closeEvents()
		session := events.NewSession()

		var vio core.VIO = core.NewVIOAdapter(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())

		var recorder *ttylog.Recorder
		if recordPath != "" {
			fd, err := os.Create(recordPath)
			if err != nil {
				return err
			}
			defer fd.Close()

			recorder = ttylog.NewRecorder(vio, ttylog.NewLogSink(ttylog.FormatForPath(recordPath), fd))
			defer recorder.Close()
			vio = recorder
		}

		if cmd.Flags().Changed("command") {
			if core.IsExit(commandLine) {
				return nil
			}
			sh := core.NewShell(cfg, vio, nil, session)
			if recorder != nil {
				recorder.RecordInput(commandLine)
			}
			sh.Execute(context.Background(), commandLine)
			return nil
		}

		return runInteractive(cfg, cmd.InOrStdin(), vio, recorder, session)
	},
}

func runInteractive(cfg *config.Configuration, stdin io.Reader, vio core.VIO, recorder *ttylog.Recorder, session *logger.SessionLogger) error {
	reader, closeReader, err := newLineReader(cfg, stdin, vio)
	if err != nil {
		return err
	}
	defer closeReader()

	_, interactive := isTerminal(stdin)
	if recorder != nil {
		reader = &recordingReader{LineReader: reader, recorder: recorder}
	}

	sh := core.NewShell(cfg, vio, reader, session)
	switch {
	case !interactive:
		sh.Prompt = ""
	case cfg.ColorPrompt:
		sh.Prompt = color.New(color.FgGreen, color.Bold).Sprint(cfg.Prompt)
	}

	if status := sh.Run(); status != 0 {
		return fmt.Errorf("shell exited with status %d", status)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultDir(), "configuration directory")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "execute a single command line and exit")
	rootCmd.Flags().StringVar(&recordPath, "record", "", "record the session to a file (.cast for asciicast, .uml for user-mode-linux)")
}
