package registry

import (
	"strings"

	"github.com/joshuapare/assockit/internal/ustr"
	"github.com/joshuapare/assockit/pkg/types"
)

// Root is a predefined top-level key.
type Root string

const (
	ClassesRoot   Root = "HKEY_CLASSES_ROOT"
	CurrentUser   Root = "HKEY_CURRENT_USER"
	LocalMachine  Root = "HKEY_LOCAL_MACHINE"
	Users         Root = "HKEY_USERS"
	CurrentConfig Root = "HKEY_CURRENT_CONFIG"
)

// Roots lists every root in display order.
var Roots = []Root{ClassesRoot, CurrentUser, LocalMachine, Users, CurrentConfig}

var rootAliases = map[string]Root{
	"hkey_classes_root":   ClassesRoot,
	"hkcr":                ClassesRoot,
	"hkey_current_user":   CurrentUser,
	"hkcu":                CurrentUser,
	"hkey_local_machine":  LocalMachine,
	"hklm":                LocalMachine,
	"hkey_users":          Users,
	"hku":                 Users,
	"hkey_current_config": CurrentConfig,
	"hkcc":                CurrentConfig,
}

// SplitPath splits a key path into its root and the components below it.
// Empty components are dropped, so "HKCU\\Software\\" and
// "HKEY_CURRENT_USER\Software" are the same key.
func SplitPath(path string) (Root, []string, error) {
	var parts []string
	for p := range strings.SplitSeq(path, `\`) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "", nil, &types.Error{Kind: types.ErrKindInvalidArgument, Msg: "registry: empty key path"}
	}
	root, ok := rootAliases[strings.ToLower(parts[0])]
	if !ok {
		return "", nil, &types.Error{Kind: types.ErrKindInvalidArgument, Msg: "registry: unknown root in " + path}
	}
	return root, parts[1:], nil
}

// Clean returns path with its root spelled out and separators normalized.
func Clean(path string) (string, error) {
	root, parts, err := SplitPath(path)
	if err != nil {
		return "", err
	}
	return Join(string(root), parts...), nil
}

// Join appends components to a key path with backslashes.
func Join(base string, parts ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, `\`))
	for _, p := range parts {
		p = strings.Trim(p, `\`)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\\')
		}
		b.WriteString(p)
	}
	return b.String()
}

// foldedPath is the comparison form of a cleaned path.
func foldedPath(path string) string { return ustr.Fold(path) }

// under reports whether p lies strictly below base. Both are folded.
func under(p, base string) bool {
	return len(p) > len(base) && strings.HasPrefix(p, base) && p[len(base)] == '\\'
}

// parentOf returns the path of p's parent, or "" for a root.
func parentOf(p string) string {
	i := strings.LastIndexByte(p, '\\')
	if i < 0 {
		return ""
	}
	return p[:i]
}
