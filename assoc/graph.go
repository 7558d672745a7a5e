package assoc

import "github.com/joshuapare/assockit/internal/ustr"

// Graph is one complete scan result.
type Graph struct {
	Schemas    map[string]*Schema
	Extensions map[string]*Extension
	Handlers   map[string]*Handler

	// AppsByID holds capable and packaged apps, AppsByExe the
	// HKCR\Applications entries, FakeApps the apps made up for handlers
	// whose executable no registered app runs.
	AppsByID  map[string]*App
	AppsByExe map[string]*App
	FakeApps  map[string]*App
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Schemas:    map[string]*Schema{},
		Extensions: map[string]*Extension{},
		Handlers:   map[string]*Handler{},
		AppsByID:   map[string]*App{},
		AppsByExe:  map[string]*App{},
		FakeApps:   map[string]*App{},
	}
}

// Schema looks up a URI scheme by any casing of its name.
func (g *Graph) Schema(name string) *Schema { return g.Schemas[ustr.Fold(name)] }

// Extension looks up a file extension by any casing of its name.
func (g *Graph) Extension(name string) *Extension { return g.Extensions[ustr.Fold(name)] }

// Handler looks up a handler by id.
func (g *Graph) Handler(id string) *Handler { return g.Handlers[ustr.Fold(id)] }

// App looks up an app by canonical id in AppsByID, AppsByExe, then
// FakeApps.
func (g *Graph) App(id string) *App {
	f := ustr.Fold(id)
	for _, m := range []map[string]*App{g.AppsByID, g.AppsByExe, g.FakeApps} {
		if a := m[f]; a != nil {
			return a
		}
	}
	return nil
}

// EnsureSchema returns the schema for name, creating it if needed.
func (g *Graph) EnsureSchema(name string) *Schema {
	f := ustr.Fold(name)
	if s := g.Schemas[f]; s != nil {
		return s
	}
	s := &Schema{newBinding(name)}
	g.Schemas[f] = s
	return s
}

// EnsureExtension returns the extension for name, creating it if needed.
func (g *Graph) EnsureExtension(name string) *Extension {
	f := ustr.Fold(name)
	if e := g.Extensions[f]; e != nil {
		return e
	}
	e := &Extension{newBinding(name)}
	g.Extensions[f] = e
	return e
}

// EnsureHandler returns the handler for id. A new handler takes keyPath,
// icon, and aumid; an existing one is returned unchanged.
func (g *Graph) EnsureHandler(id, keyPath, icon, aumid string) *Handler {
	f := ustr.Fold(id)
	if h := g.Handlers[f]; h != nil {
		return h
	}
	h := &Handler{ID: id, Folded: f, KeyPath: keyPath, Icon: icon, AUMID: aumid}
	g.Handlers[f] = h
	return h
}

// EnsureApp returns the app for canonical in m. The flags only apply to a
// newly created record.
func EnsureApp(m map[string]*App, canonical string, userSpecific, defaultApp, packaged bool) *App {
	f := ustr.Fold(canonical)
	if a := m[f]; a != nil {
		return a
	}
	a := NewApp(canonical)
	a.UserSpecific = userSpecific
	a.DefaultApp = defaultApp
	a.Packaged = packaged
	m[f] = a
	return a
}

// AllApps returns every app in AppsByID ordered by folded id.
func (g *Graph) AllApps() []*App {
	out := make([]*App, 0, len(g.AppsByID))
	for _, k := range SortedKeys(g.AppsByID) {
		out = append(out, g.AppsByID[k])
	}
	return out
}

// Stats counts the records in each map.
type Stats struct {
	Schemas    int `json:"schemas" yaml:"schemas" toml:"schemas"`
	Extensions int `json:"extensions" yaml:"extensions" toml:"extensions"`
	Handlers   int `json:"handlers" yaml:"handlers" toml:"handlers"`
	AppsByID   int `json:"apps_by_id" yaml:"apps_by_id" toml:"apps_by_id"`
	AppsByExe  int `json:"apps_by_exe" yaml:"apps_by_exe" toml:"apps_by_exe"`
	FakeApps   int `json:"fake_apps" yaml:"fake_apps" toml:"fake_apps"`
}

// Stats returns the record counts of g.
func (g *Graph) Stats() Stats {
	return Stats{
		Schemas:    len(g.Schemas),
		Extensions: len(g.Extensions),
		Handlers:   len(g.Handlers),
		AppsByID:   len(g.AppsByID),
		AppsByExe:  len(g.AppsByExe),
		FakeApps:   len(g.FakeApps),
	}
}
