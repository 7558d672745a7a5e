// Package registry is the read side of the Windows registry as the
// association scanner sees it: keys opened by path, restartable
// enumeration of subkeys and values, string reads with environment
// expansion, and change notification.
//
// Three backends implement it. Memory is an editable in-process tree used
// by tests and .reg files. Hives mounts offline REGF files. Live talks to
// the running system and exists only on Windows.
package registry

import (
	"iter"

	"github.com/joshuapare/assockit/pkg/types"
)

// Registry opens keys and watches them for changes.
type Registry interface {
	// Open returns the key at path, or false when it is absent or
	// cannot be read.
	Open(path string) (Key, bool)
	// Watch calls fn after changes matching ev under path. A recursive
	// watch covers the whole subtree. fn runs on a backend goroutine and
	// must not block; bursts of changes may be coalesced into one call.
	Watch(path string, recursive bool, ev types.Events, fn func()) (Watch, error)
}

// Key is an open registry key.
type Key interface {
	Path() string
	Subkeys() iter.Seq[string]
	Values() iter.Seq[Value]
	// ReadString returns a string value, expanding %VAR% placeholders
	// when it is stored as an expand-string.
	ReadString(name string) (string, bool)
	// ReadMUIString resolves an indirect "@dll,-id" string for the
	// current locale, falling back to ReadString.
	ReadMUIString(name string) (string, bool)
	HasValue(name string) bool
	OpenSubkey(rel string) (Key, bool)
	Close() error
}

// Watch is an active change subscription.
type Watch interface {
	Close() error
}

// Kind is the coarse value type the scanner cares about.
type Kind int

const (
	KindOther Kind = iota
	KindString
	KindExpandString
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindExpandString:
		return "expand-string"
	default:
		return "other"
	}
}

// KindOf maps a registry type to its Kind.
func KindOf(t types.RegType) Kind {
	switch t {
	case types.REG_SZ:
		return KindString
	case types.REG_EXPAND_SZ:
		return KindExpandString
	default:
		return KindOther
	}
}

// Value is one named value with its raw data.
type Value struct {
	Name string
	Kind Kind
	Type types.RegType
	Data []byte
}
