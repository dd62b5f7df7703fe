package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/sish/core/history"
	"github.com/josephlewis42/sish/core/logger"
	"github.com/josephlewis42/sish/core/shell"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListBuiltins(t *testing.T) {
	assert.Equal(t, []string{"cd", "history"}, ListBuiltins())
	for _, name := range ListBuiltins() {
		assert.NotNil(t, AllBuiltins[name], name)
	}
}

func TestHistory_list(t *testing.T) {
	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	cases := map[string]struct {
		capacity int
		lines    []string
	}{
		"fresh":   {100, []string{"echo one", "echo two | cat", "cd /tmp"}},
		"wrapped": {3, []string{"a", "b", "c", "d", "e"}},
		"empty":   {100, nil},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t, "")
			ts.History = history.New(tc.capacity)
			for _, line := range tc.lines {
				ts.History.Append(line)
			}

			ts.exec("history")

			assert.Empty(t, ts.stderr.String())
			g.Assert(t, tn, ts.stdout.Bytes())
		})
	}
}

func TestHistory_rerun(t *testing.T) {
	t.Run("pipeline", func(t *testing.T) {
		ts := newTestShell(t, "")
		ts.History.Append("echo a | tr a b")

		ts.exec("history 0")

		assert.Equal(t, "b\n", ts.stdout.String())
		assert.Empty(t, ts.stderr.String())
	})

	t.Run("chain", func(t *testing.T) {
		ts := newTestShell(t, "")
		ts.History.Append("echo one")
		ts.History.Append("history 0")

		ts.exec("history 1")

		assert.Equal(t, "one\n", ts.stdout.String())
	})

	t.Run("builtin", func(t *testing.T) {
		ts := newTestShell(t, "")
		ts.History.Append("cd")

		ts.exec("history 0")

		assert.Equal(t, "Error: No path specified\n", ts.stderr.String())
	})

	t.Run("loop", func(t *testing.T) {
		ts := newTestShell(t, "")
		ts.History.Append("history 1")
		ts.History.Append("history 0")

		ts.exec("history 0")

		assert.Empty(t, ts.stdout.String())
		assert.Equal(t, "history: expansion loop\n", ts.stderr.String())
	})

	t.Run("unparseable", func(t *testing.T) {
		ts := newTestShell(t, "")
		ts.History.Append("a | | b")

		ts.exec("history 0")

		assert.Equal(t, "Error: could not parse arguments\n", ts.stderr.String())
	})

	t.Run("records", func(t *testing.T) {
		ts := newTestShell(t, "")
		ts.History.Append("echo x")

		ts.exec("history 0")

		assert.Contains(t, ts.loggedEvents(t), &logger.RerunEvent{Offset: 0, Line: "echo x"})
	})

	t.Run("wrapped", func(t *testing.T) {
		ts := newTestShell(t, "")
		for i := 1; i <= 150; i++ {
			ts.History.Append("echo old")
		}
		ts.History.Append("echo newest")

		ts.exec("history 98")

		assert.Equal(t, "newest\n", ts.stdout.String())
	})
}

func TestHistory_errors(t *testing.T) {
	cases := map[string]struct {
		line   string
		stderr string
	}{
		"out-of-range":  {"history 5", "Invalid offset\n"},
		"overflow":      {"history 99999999999999999999999", "Invalid offset\n"},
		"word":          {"history abc", "Invalid argument\n"},
		"unknown-flag":  {"history -x", "Invalid argument\n"},
		"mixed-flags":   {"history -cx", "Invalid argument\n"},
		"negative":      {"history -1", "Invalid argument\n"},
		"two-offsets":   {"history 1 2", "Error: Too many arguments\n"},
		"flag-and-more": {"history -c extra", "Error: Too many arguments\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t, "")
			ts.History.Append("echo a")

			ts.exec(tc.line)

			assert.Equal(t, tc.stderr, ts.stderr.String())
			assert.Empty(t, ts.stdout.String())
			assert.Equal(t, 0, ts.reader.resets)
		})
	}
}

func TestHistory_clear(t *testing.T) {
	ts := newTestShell(t, "")
	ts.exec("echo a", "echo b")
	ts.reset()

	ts.exec("history -c")

	assert.Equal(t, 0, ts.History.Len())
	assert.Equal(t, 1, ts.reader.resets)
	assert.Empty(t, ts.stderr.String())

	// Listing straight after a clear shows nothing.
	result := ts.dispatch(shell.Stage{"history"})
	assert.Equal(t, ResultDone, result.Kind)
	assert.Empty(t, ts.stdout.String())

	// Lines run through Execute are remembered first.
	ts.exec("history")
	assert.Equal(t, "0 history\n", ts.stdout.String())
}

func TestDispatch(t *testing.T) {
	ts := newTestShell(t, "")
	ts.History.Append("echo a | cat")
	ts.History.Append("echo single")

	result := ts.dispatch(shell.Stage{"echo", "x"})
	assert.Equal(t, Result{Kind: ResultRunExternal, Pipeline: shell.Pipeline{{"echo", "x"}}}, result)

	result = ts.dispatch(shell.Stage{"history", "0"})
	assert.Equal(t, Result{Kind: ResultRunPipeline, Pipeline: shell.Pipeline{{"echo", "a"}, {"cat"}}}, result)

	result = ts.dispatch(shell.Stage{"history", "1"})
	assert.Equal(t, Result{Kind: ResultRunExternal, Pipeline: shell.Pipeline{{"echo", "single"}}}, result)

	result = ts.dispatch(shell.Stage{"history", "9"})
	assert.Equal(t, Result{Kind: ResultDone, Status: 1}, result)
}

func TestCd(t *testing.T) {
	testChdir(t, t.TempDir())
	start, err := os.Getwd()
	require.NoError(t, err)

	ts := newTestShell(t, "")

	ts.exec("cd /definitely/not/a/dir")
	assert.Equal(t, "/definitely/not/a/dir: No such file or directory\n", ts.stderr.String())
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, start, wd)

	ts.reset()
	ts.exec("cd ..")
	assert.Empty(t, ts.stderr.String())
	wd, err = os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(start), wd)

	ts.reset()
	ts.exec("cd")
	assert.Equal(t, "Error: No path specified\n", ts.stderr.String())

	events := ts.loggedEvents(t)
	assert.Contains(t, events, &logger.ChdirEvent{Path: ".."})
}

func TestBuiltins_notInPipelines(t *testing.T) {
	testChdir(t, t.TempDir())
	start, err := os.Getwd()
	require.NoError(t, err)

	ts := newTestShell(t, "")
	ts.exec("cd / | cat")

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, start, wd)

	ts.reset()
	ts.History.Append("echo remembered")
	ts.exec("history | cat")
	assert.NotContains(t, ts.stdout.String(), "remembered")
}

// testChdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func testChdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
