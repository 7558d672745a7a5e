package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/assockit/internal/config"
	"github.com/joshuapare/assockit/internal/logging"
	"github.com/joshuapare/assockit/registry"
)

const regHeader = "Windows Registry Editor Version 5.00\n\n"

// testFixture is a small machine: a .pdf with a UserChoice, a registered
// editor app and a URL scheme.
const testFixture = `[HKEY_CLASSES_ROOT\.pdf]
@="Adobe"

[HKEY_CLASSES_ROOT\Adobe\shell\open\command]
@="\"C:\\Adobe\\acro.exe\" \"%1\""

[HKEY_CLASSES_ROOT\Sumatra\shell\open\command]
@="\"C:\\Sumatra\\sumatra.exe\" \"%1\""

[HKEY_CURRENT_USER\Software\Microsoft\Windows\CurrentVersion\Explorer\FileExts\.pdf\UserChoice]
"Progid"="Sumatra"

[HKEY_CURRENT_USER\Software\RegisteredApplications]
"Editor"="Software\\Editor\\Capabilities"

[HKEY_CURRENT_USER\Software\Editor]
@="Editor Pro"

[HKEY_CURRENT_USER\Software\Editor\Capabilities\FileAssociations]
".txt"="Editor.txt"

[HKEY_CURRENT_USER\Software\Editor\shell\edit\command]
@="C:\\Editor\\editor.exe \"%1\""

[HKEY_CLASSES_ROOT\Editor.txt\shell\open\command]
@="C:\\Editor\\editor.exe \"%1\""

[HKEY_CLASSES_ROOT\myapp]
"URL Protocol"=""

[HKEY_CLASSES_ROOT\myapp\shell\open\command]
@="\"C:\\My App\\myapp.exe\" \"%1\""
`

// setupTest points the commands at an in-memory registry loaded from reg,
// resets the global flags and returns a command carrying a context.
func setupTest(t *testing.T, reg, format string) *cobra.Command {
	t.Helper()
	m := registry.NewMemory()
	require.NoError(t, m.LoadReg([]byte(regHeader+reg)))

	testRegistry = m
	dryRun = nil
	quiet, verbosity, jsonOut = false, 0, false
	launchURIs, launchDryRun, launchCommand = false, false, ""
	treeVerbs, defaultNeedsURIs, appsPackagedOnly = false, false, false
	dumpFormat, cmdlineURIs, configFormat = "", false, config.FormatYAML
	watchCount = 0
	color.NoColor = true
	logger = logging.ForTest(t)

	vp = config.New()
	cfg = &config.Config{
		Source: config.SourceReg,
		Output: config.Output{Format: format},
		Log:    config.Log{Format: config.FormatText},
	}
	t.Cleanup(func() { testRegistry = nil })

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return buf.String(), fnErr
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

// assertNotContains checks that output doesn't contain unwanted strings
func assertNotContains(t *testing.T, output string, unwanted []string) {
	t.Helper()
	for _, dont := range unwanted {
		if strings.Contains(output, dont) {
			t.Errorf("output contains unwanted string %q\nGot: %s", dont, output)
		}
	}
}
