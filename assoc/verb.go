package assoc

import (
	"fmt"

	"github.com/joshuapare/assockit/internal/cmdline"
	"github.com/joshuapare/assockit/internal/ustr"
)

// MaxInventedVerbs bounds the "<name> (<n>)" counter used when two verbs
// with the same name but different commands land on one app.
const MaxInventedVerbs = 255

// DefaultVerb is the verb sorted first after a handler's own default.
const DefaultVerb = "open"

// Verb is a named action on a handler or an app.
//
// Packaged verbs carry no command; they are started through package
// activation. Every other verb has a command and the executable extracted
// from it.
type Verb struct {
	Name        string
	DisplayName string
	Packaged    bool

	// Command is the registered command line. For rundll32 command lines
	// the comma after the DLL name has already been replaced by a space.
	Command            string
	Executable         string // the DLL when run through rundll32
	ExecutableFolded   string
	ExecutableBasename string
	FoldedBasename     string
	DLLFunction        string
	Launcher           string // program actually started, e.g. rundll32.exe
	LauncherBasename   string

	// App is the application that owns this verb, nil until linked.
	App *App
}

// NewVerb builds a command verb and extracts its executable.
func NewVerb(name, display, command string, app *App) *Verb {
	exe := cmdline.ExtractExecutable(command)
	if exe.DLLFunction != "" {
		command = cmdline.FixupRundll32(command)
	}
	return &Verb{
		Name:               name,
		DisplayName:        display,
		Command:            command,
		Executable:         exe.Path,
		ExecutableFolded:   exe.Folded,
		ExecutableBasename: exe.Basename,
		FoldedBasename:     exe.FoldedBasename,
		DLLFunction:        exe.DLLFunction,
		Launcher:           exe.Launcher,
		LauncherBasename:   exe.LauncherBasename,
		App:                app,
	}
}

// NewPackagedVerb builds a verb that is invoked through activation.
func NewPackagedVerb(name, display string, app *App) *Verb {
	return &Verb{Name: name, DisplayName: display, Packaged: true, App: app}
}

// LookupVerb returns the verb called name (case-insensitive), or nil.
func LookupVerb(verbs []*Verb, name string) *Verb {
	folded := ustr.Fold(name)
	for _, v := range verbs {
		if ustr.Fold(v.Name) == folded {
			return v
		}
	}
	return nil
}

func insertVerb(verbs []*Verb, v *Verb, preferred bool) []*Verb {
	if !preferred {
		return append(verbs, v)
	}
	verbs = append(verbs, nil)
	copy(verbs[1:], verbs)
	verbs[0] = v
	return verbs
}

// inventVerbName finds the first free "<name> (<n>)" with n in hex below
// MaxInventedVerbs. The display name, if any, gets the same suffix.
func inventVerbName(verbs []*Verb, name, display string) (string, string, bool) {
	for n := 0; n < MaxInventedVerbs; n++ {
		candidate := fmt.Sprintf("%s (%x)", name, n)
		if LookupVerb(verbs, candidate) != nil {
			continue
		}
		if display != "" {
			display = fmt.Sprintf("%s (%x)", display, n)
		}
		return candidate, display, true
	}
	return "", "", false
}
