package appinfo

import (
	"slices"

	"github.com/joshuapare/assockit/assoc"
)

// AppInfo is an app as seen through one handler. The handler is nil for
// apps listed without a type or scheme.
type AppInfo struct {
	app     *assoc.App
	handler *assoc.Handler
}

func newInfo(app *assoc.App, h *assoc.Handler) *AppInfo {
	return &AppInfo{app: app, handler: h}
}

// App returns the underlying app record.
func (i *AppInfo) App() *assoc.App { return i.app }

// Handler returns the handler the app was found through, or nil.
func (i *AppInfo) Handler() *assoc.Handler { return i.handler }

// ID returns the canonical name, or the executable basename for apps made
// from a command line.
func (i *AppInfo) ID() string { return i.app.ID() }

func (i *AppInfo) Name() string        { return i.app.Name() }
func (i *AppInfo) DisplayName() string { return i.app.DisplayName() }
func (i *AppInfo) Description() string { return i.app.Description }

// Executable is empty for packaged apps.
func (i *AppInfo) Executable() string { return i.app.Executable() }

// Commandline is empty for packaged apps.
func (i *AppInfo) Commandline() string { return i.app.Commandline() }

// Icon is the icon location as registered, e.g. "app.exe,0".
func (i *AppInfo) Icon() string { return i.app.Icon }

func (i *AppInfo) SupportsURIs() bool       { return i.app.SupportsURIs() }
func (i *AppInfo) SupportsFiles() bool      { return i.app.SupportsFiles() }
func (i *AppInfo) SupportedTypes() []string { return i.app.SupportedTypes() }
func (i *AppInfo) Packaged() bool           { return i.app.Packaged }

// Verbs lists the app's verbs, preferred first.
func (i *AppInfo) Verbs() []*assoc.Verb { return slices.Clone(i.app.Verbs) }

// Equal reports whether i and o describe the same application.
func (i *AppInfo) Equal(o *AppInfo) bool {
	if i == nil || o == nil {
		return i == o
	}
	return assoc.Equal(i.app, o.app)
}
