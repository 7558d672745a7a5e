package assoc

import (
	"maps"
	"slices"

	"github.com/joshuapare/assockit/internal/ustr"
)

// Binding is what a URL scheme and a file extension have in common: a set
// of handlers and at most one chosen handler out of that set.
type Binding struct {
	Name   string
	Folded string

	// Chosen is the user's or the system's preferred handler. It is always
	// a member of Handlers.
	Chosen   *Handler
	Handlers map[string]*Handler
}

func newBinding(name string) Binding {
	return Binding{Name: name, Folded: ustr.Fold(name), Handlers: map[string]*Handler{}}
}

// Attach adds h to the handler set. A user choice always becomes the
// chosen handler; any other handler only fills an empty slot.
func (b *Binding) Attach(h *Handler, userChoice bool) {
	b.Handlers[h.Folded] = h
	if userChoice || b.Chosen == nil {
		b.Chosen = h
	}
}

// SortedHandlers returns the handler set ordered by folded id.
func (b *Binding) SortedHandlers() []*Handler {
	out := make([]*Handler, 0, len(b.Handlers))
	for _, k := range SortedKeys(b.Handlers) {
		out = append(out, b.Handlers[k])
	}
	return out
}

// Schema is one URI scheme, e.g. "http".
type Schema struct{ Binding }

// Extension is one dot-prefixed file extension, e.g. ".pdf".
type Extension struct{ Binding }

// Handler is a ProgID (or packaged app) that can open things.
type Handler struct {
	ID     string
	Folded string

	// KeyPath is the class key the handler was read from. Empty for
	// handlers synthesized from a package.
	KeyPath string
	Icon    string
	Verbs   []*Verb

	// AUMID is set iff the handler is backed by a packaged app. All verbs
	// of such a handler are packaged.
	AUMID string
}

// Packaged reports whether h is backed by a packaged app.
func (h *Handler) Packaged() bool { return h.AUMID != "" }

// AddVerb appends v, or puts it first when preferred. It is a no-op when
// h already has a verb of that name.
func (h *Handler) AddVerb(v *Verb, preferred bool) bool {
	if LookupVerb(h.Verbs, v.Name) != nil {
		return false
	}
	h.Verbs = insertVerb(h.Verbs, v, preferred)
	return true
}

// FirstVerb returns the verb a launch would use, or nil.
func (h *Handler) FirstVerb() *Verb {
	if h == nil || len(h.Verbs) == 0 {
		return nil
	}
	return h.Verbs[0]
}

// App is an application that can be launched.
//
// Canonical is the registry path of a capable app, the executable name of
// an HKCR\Applications entry, the AUMID of a packaged app, or the
// executable path of a fake app.
type App struct {
	Canonical string
	Folded    string

	PrettyName    string
	LocalizedName string
	Description   string
	Icon          string
	Verbs         []*Verb

	SupportedURLs map[string]*Handler
	SupportedExts map[string]*Handler

	NoOpenWith   bool
	UserSpecific bool
	DefaultApp   bool
	Packaged     bool
}

// NewApp returns an empty app record for canonical.
func NewApp(canonical string) *App {
	return &App{
		Canonical:     canonical,
		Folded:        ustr.Fold(canonical),
		SupportedURLs: map[string]*Handler{},
		SupportedExts: map[string]*Handler{},
	}
}

// AddVerb adds a command verb. An existing verb of the same name makes
// this a no-op unless invent is set, in which case a "<name> (<n>)" name
// is made up, provided no verb of the app already runs the same command.
// It returns the new verb, or nil when nothing was added.
func (a *App) AddVerb(name, display, command string, preferred, invent bool) *Verb {
	if LookupVerb(a.Verbs, name) != nil {
		if !invent {
			return nil
		}
		for _, v := range a.Verbs {
			if ustr.EqualFold(v.Command, command) {
				return nil
			}
		}
		var ok bool
		if name, display, ok = inventVerbName(a.Verbs, name, display); !ok {
			return nil
		}
	}
	v := NewVerb(name, display, command, a)
	a.Verbs = insertVerb(a.Verbs, v, preferred)
	return v
}

// AddPackagedVerb appends an activation verb unless one of that name
// exists.
func (a *App) AddPackagedVerb(name, display string) *Verb {
	if LookupVerb(a.Verbs, name) != nil {
		return nil
	}
	v := NewPackagedVerb(name, display, a)
	a.Verbs = append(a.Verbs, v)
	return v
}

// SortedKeys returns the keys of m in byte order. Scans iterate maps
// through it so results do not depend on map order.
func SortedKeys[M ~map[string]V, V any](m M) []string {
	return slices.Sorted(maps.Keys(m))
}
