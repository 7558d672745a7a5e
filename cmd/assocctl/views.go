package main

import (
	"github.com/joshuapare/assockit/assoc"
)

// Serializable views of the association graph. Tags cover every output
// format.

type verbView struct {
	Name        string `json:"name" yaml:"name" toml:"name"`
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty" toml:"display_name,omitempty"`
	Command     string `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty"`
	Executable  string `json:"executable,omitempty" yaml:"executable,omitempty" toml:"executable,omitempty"`
	DLLFunction string `json:"dll_function,omitempty" yaml:"dll_function,omitempty" toml:"dll_function,omitempty"`
	Packaged    bool   `json:"packaged,omitempty" yaml:"packaged,omitempty" toml:"packaged,omitempty"`
	App         string `json:"app,omitempty" yaml:"app,omitempty" toml:"app,omitempty"`
}

type appView struct {
	ID               string     `json:"id" yaml:"id" toml:"id"`
	Name             string     `json:"name" yaml:"name" toml:"name"`
	DisplayName      string     `json:"display_name" yaml:"display_name" toml:"display_name"`
	Description      string     `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Executable       string     `json:"executable,omitempty" yaml:"executable,omitempty" toml:"executable,omitempty"`
	Commandline      string     `json:"commandline,omitempty" yaml:"commandline,omitempty" toml:"commandline,omitempty"`
	Icon             string     `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty"`
	Packaged         bool       `json:"packaged" yaml:"packaged" toml:"packaged"`
	UserSpecific     bool       `json:"user_specific,omitempty" yaml:"user_specific,omitempty" toml:"user_specific,omitempty"`
	NoOpenWith       bool       `json:"no_open_with,omitempty" yaml:"no_open_with,omitempty" toml:"no_open_with,omitempty"`
	SupportsURIs     bool       `json:"supports_uris" yaml:"supports_uris" toml:"supports_uris"`
	SupportsFiles    bool       `json:"supports_files" yaml:"supports_files" toml:"supports_files"`
	SupportedTypes   []string   `json:"supported_types,omitempty" yaml:"supported_types,omitempty" toml:"supported_types,omitempty"`
	SupportedSchemes []string   `json:"supported_schemes,omitempty" yaml:"supported_schemes,omitempty" toml:"supported_schemes,omitempty"`
	Verbs            []verbView `json:"verbs,omitempty" yaml:"verbs,omitempty" toml:"verbs,omitempty"`
}

type handlerView struct {
	ID    string     `json:"id" yaml:"id" toml:"id"`
	Key   string     `json:"key,omitempty" yaml:"key,omitempty" toml:"key,omitempty"`
	Icon  string     `json:"icon,omitempty" yaml:"icon,omitempty" toml:"icon,omitempty"`
	AUMID string     `json:"aumid,omitempty" yaml:"aumid,omitempty" toml:"aumid,omitempty"`
	Verbs []verbView `json:"verbs,omitempty" yaml:"verbs,omitempty" toml:"verbs,omitempty"`
}

type bindingView struct {
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Chosen   string   `json:"chosen,omitempty" yaml:"chosen,omitempty" toml:"chosen,omitempty"`
	Handlers []string `json:"handlers" yaml:"handlers" toml:"handlers"`
}

type graphView struct {
	Stats      assoc.Stats   `json:"stats" yaml:"stats" toml:"stats"`
	Extensions []bindingView `json:"extensions" yaml:"extensions" toml:"extensions"`
	Schemes    []bindingView `json:"schemes" yaml:"schemes" toml:"schemes"`
	Handlers   []handlerView `json:"handlers" yaml:"handlers" toml:"handlers"`
	Apps       []appView     `json:"apps" yaml:"apps" toml:"apps"`
	ExeApps    []appView     `json:"exe_apps" yaml:"exe_apps" toml:"exe_apps"`
	FakeApps   []appView     `json:"fake_apps" yaml:"fake_apps" toml:"fake_apps"`
}

func viewVerbs(vs []*assoc.Verb) []verbView {
	out := make([]verbView, 0, len(vs))
	for _, v := range vs {
		vv := verbView{
			Name:        v.Name,
			DisplayName: v.DisplayName,
			Command:     v.Command,
			Executable:  v.Executable,
			DLLFunction: v.DLLFunction,
			Packaged:    v.Packaged,
		}
		if v.App != nil {
			vv.App = v.App.ID()
		}
		out = append(out, vv)
	}
	return out
}

func viewApp(a *assoc.App) appView {
	return appView{
		ID:               a.ID(),
		Name:             a.Name(),
		DisplayName:      a.DisplayName(),
		Description:      a.Description,
		Executable:       a.Executable(),
		Commandline:      a.Commandline(),
		Icon:             a.Icon,
		Packaged:         a.Packaged,
		UserSpecific:     a.UserSpecific,
		NoOpenWith:       a.NoOpenWith,
		SupportsURIs:     a.SupportsURIs(),
		SupportsFiles:    a.SupportsFiles(),
		SupportedTypes:   a.SupportedTypes(),
		SupportedSchemes: assoc.SortedKeys(a.SupportedURLs),
		Verbs:            viewVerbs(a.Verbs),
	}
}

func viewBinding(b *assoc.Binding) bindingView {
	v := bindingView{Name: b.Name, Handlers: []string{}}
	if b.Chosen != nil {
		v.Chosen = b.Chosen.ID
	}
	for _, h := range b.SortedHandlers() {
		v.Handlers = append(v.Handlers, h.ID)
	}
	return v
}

func viewApps(m map[string]*assoc.App) []appView {
	out := make([]appView, 0, len(m))
	for _, k := range assoc.SortedKeys(m) {
		out = append(out, viewApp(m[k]))
	}
	return out
}

func viewGraph(g *assoc.Graph) graphView {
	v := graphView{
		Stats:    g.Stats(),
		Apps:     viewApps(g.AppsByID),
		ExeApps:  viewApps(g.AppsByExe),
		FakeApps: viewApps(g.FakeApps),
	}
	for _, k := range assoc.SortedKeys(g.Extensions) {
		v.Extensions = append(v.Extensions, viewBinding(&g.Extensions[k].Binding))
	}
	for _, k := range assoc.SortedKeys(g.Schemas) {
		v.Schemes = append(v.Schemes, viewBinding(&g.Schemas[k].Binding))
	}
	for _, k := range assoc.SortedKeys(g.Handlers) {
		h := g.Handlers[k]
		v.Handlers = append(v.Handlers, handlerView{
			ID: h.ID, Key: h.KeyPath, Icon: h.Icon, AUMID: h.AUMID, Verbs: viewVerbs(h.Verbs),
		})
	}
	return v
}
