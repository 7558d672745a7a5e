package scan

import (
	"github.com/joshuapare/assockit/assoc"
)

// linkUnregisteredApps gives unowned handler verbs an owner among the
// registered apps. A capable app owns a verb when one of its own verbs
// runs the same executable, compared by folded path or, for equal
// basenames, by file identity. Failing that, an HKCR\Applications entry
// named after the executable owns it.
func (p *pass) linkUnregisteredApps() {
	capable := sortedApps(p.g.AppsByID)
	exeKeys := assoc.SortedKeys(p.g.AppsByExe)

	for _, hk := range assoc.SortedKeys(p.g.Handlers) {
		h := p.g.Handlers[hk]
		if h.Packaged() {
			continue
		}
		for _, v := range h.Verbs {
			if v.App != nil {
				continue
			}
			v.App = p.registeredOwner(v, capable)
			if v.App != nil {
				continue
			}
			base := foldedBasename(v.ExecutableFolded)
			for _, k := range exeKeys {
				if app := p.g.AppsByExe[k]; !app.Packaged && k == base {
					v.App = app
					break
				}
			}
		}
	}
}

func (p *pass) registeredOwner(v *assoc.Verb, apps []*assoc.App) *assoc.App {
	base := foldedBasename(v.ExecutableFolded)
	for _, app := range apps {
		if app.Packaged {
			continue
		}
		for _, av := range app.Verbs {
			if av.Packaged {
				continue
			}
			if av.ExecutableFolded == v.ExecutableFolded {
				return app
			}
			if foldedBasename(av.ExecutableFolded) == base && p.sameFile(v.Executable, av.Executable) {
				return app
			}
		}
	}
	return nil
}

// linkFakeApps makes up one app per executable for handler verbs nobody
// owns, so every non-packaged handler verb ends up with an app. Verbs of
// the same name from different handlers get "<name> (<n>)" names on the
// fake app.
func (p *pass) linkFakeApps() {
	for _, k := range assoc.SortedKeys(p.g.Extensions) {
		e := p.g.Extensions[k]
		for _, h := range e.SortedHandlers() {
			p.linkFake(h, e.Folded, false)
		}
	}
	for _, k := range assoc.SortedKeys(p.g.Schemas) {
		s := p.g.Schemas[k]
		for _, h := range s.SortedHandlers() {
			p.linkFake(h, s.Folded, true)
		}
	}
}

func (p *pass) linkFake(h *assoc.Handler, folded string, schema bool) {
	if h.Packaged() {
		return
	}
	for _, v := range h.Verbs {
		if v.App != nil {
			continue
		}
		app := assoc.EnsureApp(p.g.FakeApps, v.Executable, false, false, false)
		v.App = app
		app.AddVerb(v.Name, v.DisplayName, v.Command, true, true)
		if schema {
			app.SupportedURLs[folded] = h
		} else {
			app.SupportedExts[folded] = h
		}
	}
}

func sortedApps(m map[string]*assoc.App) []*assoc.App {
	out := make([]*assoc.App, 0, len(m))
	for _, k := range assoc.SortedKeys(m) {
		out = append(out, m[k])
	}
	return out
}
