//go:build !windows

package paths

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Offline hives usually come with a copy of the manifests next to them;
// there is no system location to default to.
func defaultManifestRoot() string { return filepath.Join(xdg.DataHome, AppName, "WindowsApps") }
