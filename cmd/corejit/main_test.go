package main

import (
	"bytes"
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runMain mirrors the teacher's own cmd/wazero test helper: it swaps
// os.Args and resets the global flag.CommandLine so each test case
// parses its own flag set instead of accumulating redefinitions.
func runMain(t *testing.T, args []string) (int, string, string) {
	t.Helper()
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = append([]string{"corejit"}, args...)

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	stdOut := &bytes.Buffer{}
	stdErr := &bytes.Buffer{}
	code := doMain(stdOut, stdErr)
	return code, stdOut.String(), stdErr.String()
}

func TestScenariosRunCleanly(t *testing.T) {
	code, out, errOut := runMain(t, nil)
	require.Equal(t, 0, code, "stderr: %s", errOut)
	for _, sc := range scenarios() {
		assert.Contains(t, out, sc.name)
	}
}

func TestScenarioListFlag(t *testing.T) {
	code, out, _ := runMain(t, []string{"-list"})
	require.Equal(t, 0, code)
	for _, sc := range scenarios() {
		assert.Contains(t, out, sc.name)
	}
}

func TestSingleScenarioSelection(t *testing.T) {
	want := fibonacciScenario().name
	code, out, errOut := runMain(t, []string{"-scenario", want})
	require.Equal(t, 0, code, "stderr: %s", errOut)
	assert.Contains(t, out, want)

	other := closureCounterScenario().name
	assert.NotContains(t, out, other)
}

func TestHelpFlag(t *testing.T) {
	code, _, errOut := runMain(t, []string{"-h"})
	require.Equal(t, 0, code)
	assert.Contains(t, errOut, "corejit:")
}
