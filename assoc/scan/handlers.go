package scan

import (
	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/registry"
)

// binding names the extension or URL scheme a handler is attached to.
type binding struct {
	name   string
	schema bool
}

func extensionBinding(name string) binding { return binding{name: name} }
func schemaBinding(name string) binding    { return binding{name: name, schema: true} }

// resolveProgID opens the class key for progID and decides which id the
// handler is filed under.
//
// A ProgID with an Application\AppUserModelID is a packaged app and keeps
// its own id; the Application key is remembered for the metadata phase.
// Otherwise a default value naming another class key is followed once,
// and that key becomes the handler.
func (p *pass) resolveProgID(progID string) (id string, key registry.Key, aumid string, ok bool) {
	key, ok = p.reg.Open(registry.Join(ClassesRoot, progID))
	if !ok {
		return "", nil, "", false
	}
	if appKey, ok := key.OpenSubkey(applicationKey); ok {
		aumid, _ = appKey.ReadString(valueAUMID)
		if aumid != "" {
			p.rememberPackagedKey(appKey.Path(), aumid)
		}
		appKey.Close()
	}
	if aumid == "" {
		if proxy, _ := key.ReadString(""); proxy != "" {
			if proxyKey, ok := p.reg.Open(registry.Join(ClassesRoot, proxy)); ok {
				key.Close()
				return proxy, proxyKey, "", true
			}
		}
	}
	return progID, key, aumid, true
}

func (p *pass) rememberPackagedKey(path, aumid string) {
	if _, seen := p.packagedKeys[path]; !seen {
		p.packagedKeyOrder = append(p.packagedKeyOrder, path)
	}
	p.packagedKeys[path] = aumid
}

// attach files the handler for progID under b. Nothing is created when
// the handler has no verbs. When app is set, its verbs are read as the
// app's and the handler is recorded among the app's supported types.
func (p *pass) attach(progID string, b binding, app *assoc.App, userChoice bool) {
	id, key, aumid, ok := p.resolveProgID(progID)
	if !ok {
		return
	}
	defer key.Close()

	isPackaged := aumid != ""
	verbs, preferred, ok := shellVerbs(key, "", shellKey, &isPackaged)
	if !ok {
		return
	}
	if !isPackaged {
		aumid = ""
	}

	var (
		target    *assoc.Binding
		supported map[string]*assoc.Handler
	)
	if b.schema {
		target = &p.g.EnsureSchema(b.name).Binding
		if app != nil {
			supported = app.SupportedURLs
		}
	} else {
		target = &p.g.EnsureExtension(b.name).Binding
		if app != nil {
			supported = app.SupportedExts
		}
	}

	h := p.g.Handler(id)
	if h == nil {
		h = p.g.EnsureHandler(id, key.Path(), readDefaultIcon(key), aumid)
	}
	target.Attach(h, userChoice)
	if supported != nil {
		supported[target.Folded] = h
	}

	if h.Packaged() {
		p.readPackagedVerbs(key, verbs, preferred, h, app)
		return
	}
	p.readCommands(key, verbs, preferred, true, func(name, display, command string, pref bool) {
		h.AddVerb(assoc.NewVerb(name, display, command, app), pref)
	})
}
