package main

import (
	"errors"
	"testing"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/assockit/appinfo"
	"github.com/joshuapare/assockit/internal/config"
	"github.com/joshuapare/assockit/pkg/types"
)

func TestLaunchCommand(t *testing.T) {
	tests := []struct {
		name        string
		command     string
		uris        bool
		args        []string
		format      string
		wantErr     error
		wantContain []string
	}{
		{
			name:        "registered app on a file",
			args:        []string{`C:\Adobe\acro.exe`, `C:\a b.pdf`},
			format:      config.FormatText,
			wantContain: []string{`spawn C:/Adobe/acro.exe "C:/a b.pdf"`},
		},
		{
			name:    "command line, one spawn per target",
			command: `C:\tools\view.exe %1`,
			args:    []string{"x.png", "y.png"},
			format:  config.FormatText,
			wantContain: []string{
				"spawn C:/tools/view.exe x.png",
				"spawn C:/tools/view.exe y.png",
			},
		},
		{
			name:        "URIs",
			uris:        true,
			args:        []string{`c:\my app\myapp.exe`, "myapp:go"},
			format:      config.FormatText,
			wantContain: []string{`spawn "C:/My App/myapp.exe" myapp:go`},
		},
		{
			name:        "JSON",
			args:        []string{`C:\Adobe\acro.exe`, `C:\x.pdf`},
			format:      config.FormatJSON,
			wantContain: []string{`"kind": "spawn"`, `"C:/x.pdf"`},
		},
		{
			name:    "unknown app",
			args:    []string{"missing.exe", "a.txt"},
			format:  config.FormatText,
			wantErr: types.ErrNotFound,
		},
		{
			name:    "blank command line",
			command: "   ",
			args:    []string{"a.txt"},
			format:  config.FormatText,
			wantErr: types.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := setupTest(t, testFixture, tt.format)
			launchDryRun, launchCommand, launchURIs = true, tt.command, tt.uris

			output, err := captureOutput(t, func() error { return runLaunch(cmd, tt.args) })
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, dryRun, "dry run records instead of spawning")
			if tt.format == config.FormatJSON {
				assertJSON(t, output)
			}
			assertContains(t, output, tt.wantContain)
		})
	}
}

func TestPickCommand(t *testing.T) {
	orig := pickApp
	t.Cleanup(func() { pickApp = orig })

	t.Run("launches the pick", func(t *testing.T) {
		cmd := setupTest(t, testFixture, config.FormatText)
		launchDryRun = true
		var offered []string
		pickApp = func(apps []*appinfo.AppInfo) (int, error) {
			for _, a := range apps {
				offered = append(offered, a.ID())
			}
			return 1, nil
		}

		output, err := captureOutput(t, func() error { return runPick(cmd, ".pdf", []string{`C:\doc.pdf`}) })
		require.NoError(t, err)
		assert.Equal(t, []string{`C:\Sumatra\sumatra.exe`, `C:\Adobe\acro.exe`}, offered)
		assertContains(t, output, []string{"spawn C:/Adobe/acro.exe C:/doc.pdf"})
	})

	t.Run("scheme targets are URIs", func(t *testing.T) {
		cmd := setupTest(t, testFixture, config.FormatText)
		launchDryRun = true
		pickApp = func([]*appinfo.AppInfo) (int, error) { return 0, nil }

		output, err := captureOutput(t, func() error { return runPick(cmd, "myapp", []string{"myapp:x"}) })
		require.NoError(t, err)
		assertContains(t, output, []string{`"C:/My App/myapp.exe" myapp:x`})
	})

	t.Run("abort is not an error", func(t *testing.T) {
		cmd := setupTest(t, testFixture, config.FormatText)
		launchDryRun = true
		pickApp = func([]*appinfo.AppInfo) (int, error) { return 0, fuzzyfinder.ErrAbort }

		output, err := captureOutput(t, func() error { return runPick(cmd, ".pdf", nil) })
		require.NoError(t, err)
		assert.Empty(t, output)
	})

	t.Run("finder failure", func(t *testing.T) {
		cmd := setupTest(t, testFixture, config.FormatText)
		pickApp = func([]*appinfo.AppInfo) (int, error) { return 0, errors.New("no tty") }

		_, err := captureOutput(t, func() error { return runPick(cmd, ".pdf", nil) })
		require.ErrorContains(t, err, "no tty")
	})

	t.Run("nothing to pick", func(t *testing.T) {
		cmd := setupTest(t, testFixture, config.FormatText)
		_, err := captureOutput(t, func() error { return runPick(cmd, ".none", nil) })
		require.ErrorIs(t, err, types.ErrNotFound)
	})
}
