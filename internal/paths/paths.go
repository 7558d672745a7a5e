// Package paths resolves the per-user locations assocctl reads and
// writes.
package paths

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName names the per-user directories.
const AppName = "assocctl"

// ConfigHome is the XDG config home: ~/.config on Linux, %LOCALAPPDATA%
// on Windows.
func ConfigHome() string { return xdg.ConfigHome }

// ConfigDir is where assocctl looks for config.yaml after the working
// directory.
func ConfigDir() string { return filepath.Join(xdg.ConfigHome, AppName) }

// StateDir holds log files.
func StateDir() string { return filepath.Join(xdg.StateHome, AppName) }

// LogFile returns the default --log-file location.
func LogFile() string { return filepath.Join(StateDir(), AppName+".log") }

// ManifestRoot is the default directory of installed package manifests.
// On Windows this is %ProgramFiles%\WindowsApps.
func ManifestRoot() string { return defaultManifestRoot() }
