package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/joshuapare/buddykit/heap/trace"
)

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe.
	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	return string(<-done), fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}

// resetFlags restores every command global to its default.
func resetFlags() {
	verbose = false
	quiet = false
	jsonOut = false
	noColor = true
	configName = "cacheline"
	policyName = ""

	simArena = "256KiB"
	simOps = 500
	simSeed = 1
	simMaxSize = trace.DefaultGenerateOptions.MaxSize
	simFreeRatio = trace.DefaultGenerateOptions.FreeRatio
	simAlignedRatio = trace.DefaultGenerateOptions.AlignedRatio
	simNoDrain = false
	simRecord = ""
	simRelease = false

	replayArena = "256KiB"
	replayCodec = "auto"

	stressArena = "64KiB"
	stressWorkers = 4
	stressParallel = 2

	classesCapacity = "4KiB"

	mapArena = "64KiB"
	mapWidth = 32
	mapRows = 4

	watchArena = "64KiB"
}
