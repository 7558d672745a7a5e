// Package packaged enumerates installed packaged (UWP) apps together with
// the file types and protocols their manifests declare, and resolves the
// "@{...}" indirect strings such apps use for their names.
package packaged

import (
	"context"
	"strings"
)

// DefaultVerb is used for a file-type group that declares no verbs.
const DefaultVerb = "open"

// ExtGroup is one file-type association: every verb applies to every
// extension.
type ExtGroup struct {
	Verbs      []string
	Extensions []string // dot-prefixed
}

// Package is one application inside an installed package.
type Package struct {
	FullName      string
	Name          string
	AUMID         string
	ShowInAppList bool
	ExtGroups     []ExtGroup
	Protocols     []string
}

// Enumerator walks installed packaged apps. fn returns false to stop.
type Enumerator interface {
	Enumerate(ctx context.Context, fn func(Package) bool) error
}

// Static enumerates a fixed list.
type Static []Package

// Enumerate implements Enumerator.
func (s Static) Enumerate(ctx context.Context, fn func(Package) bool) error {
	for _, p := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(p) {
			return nil
		}
	}
	return nil
}

// FamilyName derives the package family name from a full package name:
//
//	Microsoft.WindowsCalculator_10.2103.8.0_x64__8wekyb3d8bbwe
//	-> Microsoft.WindowsCalculator_8wekyb3d8bbwe
func FamilyName(fullName string) string {
	parts := strings.Split(fullName, "_")
	if len(parts) < 2 {
		return fullName
	}
	return parts[0] + "_" + parts[len(parts)-1]
}

// AUMID joins a family name and an application id.
func AUMID(family, appID string) string { return family + "!" + appID }
