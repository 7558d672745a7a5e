//go:build windows

package paths

import (
	"os"
	"path/filepath"
)

func defaultManifestRoot() string {
	pf := os.Getenv("ProgramFiles")
	if pf == "" {
		pf = `C:\Program Files`
	}
	return filepath.Join(pf, "WindowsApps")
}
