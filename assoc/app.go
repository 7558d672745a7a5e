package assoc

import "github.com/joshuapare/assockit/internal/ustr"

const unnamed = "Unnamed"

// FirstVerb returns the verb a launch falls back to, or nil.
func (a *App) FirstVerb() *Verb {
	if a == nil || len(a.Verbs) == 0 {
		return nil
	}
	return a.Verbs[0]
}

// ID is the canonical id, or the first verb's executable name for apps
// made up from a bare command line.
func (a *App) ID() string {
	if a.Canonical != "" {
		return a.Canonical
	}
	if v := a.FirstVerb(); v != nil {
		return v.ExecutableBasename
	}
	return ""
}

// Name is the English name, falling back to the canonical id.
func (a *App) Name() string {
	switch {
	case a.PrettyName != "":
		return a.PrettyName
	case a.Canonical != "":
		return a.Canonical
	}
	return unnamed
}

// DisplayName prefers the localized name.
func (a *App) DisplayName() string {
	if a.LocalizedName != "" {
		return a.LocalizedName
	}
	return a.Name()
}

// SomeName is the best human-readable name for messages.
func (a *App) SomeName() string {
	switch {
	case a.LocalizedName != "":
		return a.LocalizedName
	case a.PrettyName != "":
		return a.PrettyName
	}
	return a.Canonical
}

// Executable is the first verb's executable. Packaged apps have none.
func (a *App) Executable() string {
	if v := a.FirstVerb(); v != nil && !a.Packaged {
		return v.Executable
	}
	return ""
}

// Commandline is the first verb's command. Packaged apps have none.
func (a *App) Commandline() string {
	if v := a.FirstVerb(); v != nil && !a.Packaged {
		return v.Command
	}
	return ""
}

// SupportsURIs reports whether a handles any scheme other than file.
func (a *App) SupportsURIs() bool {
	n := len(a.SupportedURLs)
	if _, ok := a.SupportedURLs["file"]; ok {
		n--
	}
	return n > 0
}

// SupportsFiles reports whether a handles any extension.
func (a *App) SupportsFiles() bool { return len(a.SupportedExts) > 0 }

// SupportedTypes lists the folded extensions a handles, sorted.
func (a *App) SupportedTypes() []string { return SortedKeys(a.SupportedExts) }

// Equal reports whether a and b are the same application: the same
// record, the same canonical id, or, for apps without one, the same first
// executable.
func Equal(a, b *App) bool {
	if a == nil || b == nil || a == b {
		return a == b
	}
	if a.Folded != "" && b.Folded != "" {
		return a.Folded == b.Folded
	}
	va, vb := a.FirstVerb(), b.FirstVerb()
	if va != nil && vb != nil && va.ExecutableFolded != "" && vb.ExecutableFolded != "" {
		return va.ExecutableFolded == vb.ExecutableFolded
	}
	return false
}

// EqualID reports whether id names a (case-insensitively).
func (a *App) EqualID(id string) bool {
	return ustr.EqualFold(a.ID(), id)
}
