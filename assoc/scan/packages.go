package scan

import (
	"strings"

	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/assoc/packaged"
	"github.com/joshuapare/assockit/internal/ustr"
	"github.com/joshuapare/assockit/registry"
)

func (p *pass) readPackages() {
	if p.packages == nil {
		return
	}
	err := p.packages.Enumerate(p.ctx, func(pkg packaged.Package) bool {
		p.addPackage(pkg)
		return !p.cancelled()
	})
	if err != nil {
		p.log.Debug("package enumeration failed", "error", err)
	}
}

// addPackage files a packaged app and the extensions and schemes it
// declares. An existing packaged handler for the same AUMID is reused;
// otherwise one keyed by the AUMID is created. A package never replaces a
// chosen handler.
func (p *pass) addPackage(pkg packaged.Package) {
	if pkg.AUMID == "" {
		return
	}
	app := assoc.EnsureApp(p.g.AppsByID, pkg.AUMID, true, false, true)

	considered := 0
	for _, grp := range pkg.ExtGroups {
		for _, ext := range grp.Extensions {
			considered++
			e := p.g.EnsureExtension(ext)
			h := p.packagedHandler(&e.Binding, pkg.AUMID)
			for _, verb := range grp.Verbs {
				h.AddVerb(assoc.NewPackagedVerb(verb, "", app), false)
			}
			app.SupportedExts[e.Folded] = h
		}
	}
	pileVerbs(app, app.SupportedExts)
	if considered > 0 && len(app.Verbs) == 0 {
		p.log.Warn("packaged app declares extensions but no verbs", "aumid", pkg.AUMID)
	}

	for _, proto := range pkg.Protocols {
		s := p.g.EnsureSchema(proto)
		h := p.packagedHandler(&s.Binding, pkg.AUMID)
		h.AddVerb(assoc.NewPackagedVerb(assoc.DefaultVerb, "", app), true)
		app.SupportedURLs[s.Folded] = h
	}
	pileVerbs(app, app.SupportedURLs)
}

func (p *pass) packagedHandler(b *assoc.Binding, aumid string) *assoc.Handler {
	for _, k := range assoc.SortedKeys(b.Handlers) {
		if h := b.Handlers[k]; h.Packaged() && ustr.EqualFold(h.AUMID, aumid) {
			return h
		}
	}
	h := p.g.EnsureHandler(aumid, "", "", aumid)
	b.Handlers[h.Folded] = h
	if b.Chosen == nil {
		b.Chosen = h
	}
	return h
}

// pileVerbs copies the verbs of every handler into app and gives unowned
// packaged handler verbs to app.
func pileVerbs(app *assoc.App, handlers map[string]*assoc.Handler) {
	for _, k := range assoc.SortedKeys(handlers) {
		for _, v := range handlers[k].Verbs {
			app.AddPackagedVerb(v.Name, v.DisplayName)
			if v.App == nil && v.Packaged {
				v.App = app
			}
		}
	}
}

// readPackagedMetadata fills in the name and description of packaged
// apps from the Application keys met while resolving ProgIDs. Resource
// URIs are not resolved; "@" strings go through the indirect loader and
// are left empty when it fails.
func (p *pass) readPackagedMetadata() {
	for _, path := range p.packagedKeyOrder {
		app := p.g.AppsByID[ustr.Fold(p.packagedKeys[path])]
		if app == nil || !app.Packaged {
			continue
		}
		key, ok := p.reg.Open(path)
		if !ok {
			continue
		}
		p.readIndirect(key, valueApplicationDesc, &app.Description)
		p.readIndirect(key, valueApplicationName, &app.LocalizedName)
		key.Close()
	}
}

func (p *pass) readIndirect(key registry.Key, name string, dst *string) {
	if *dst != "" {
		return
	}
	raw, ok := key.ReadString(name)
	if !ok || raw == "" || strings.HasPrefix(raw, packaged.MSResourcePrefix) {
		return
	}
	s, ok := packaged.Resolve(p.loader, raw)
	if !ok {
		p.log.Debug("indirect string not resolved", "key", name, "value", raw)
		return
	}
	*dst = s
}
