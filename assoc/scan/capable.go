package scan

import (
	"strings"

	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/registry"
)

// capableApps are registry paths of apps with a Capabilities key, grouped
// the way they are read back.
type capableApps struct {
	priority []string
	user     []string
	system   []string
}

func (p *pass) collectCapableApps() capableApps {
	var c capableApps
	p.collectClients(SystemClients, &c.system, &c.priority)
	p.collectClients(UserClients, &c.user, &c.priority)
	p.collectRegistered(UserRegisteredApps, userRoot, &c.user)
	p.collectRegistered(SystemRegisteredApps, systemRoot, &c.system)
	return c
}

// collectClients walks <root>\<client type>\<client>. A client declaring
// file or URL associations is capable; the one named by its client type's
// default value goes to the priority list.
func (p *pass) collectClients(path string, capable, priority *[]string) {
	clients, ok := p.reg.Open(path)
	if !ok {
		return
	}
	defer clients.Close()

	for typeName := range clients.Subkeys() {
		clientType, ok := clients.OpenSubkey(typeName)
		if !ok {
			continue
		}
		def, _ := clientType.ReadString("")
		for name := range clientType.Subkeys() {
			client, ok := clientType.OpenSubkey(name)
			if !ok {
				continue
			}
			if hasSubkey(client, capableFileAssociations) || hasSubkey(client, capableURLAssociations) {
				if def != "" && def == name {
					*priority = append(*priority, client.Path())
				} else {
					*capable = append(*capable, client.Path())
				}
			}
			client.Close()
		}
		clientType.Close()
	}
}

// collectRegistered reads RegisteredApplications, whose values point at
// Capabilities keys relative to root. The app is the parent of that key.
func (p *pass) collectRegistered(path, root string, capable *[]string) {
	reg, ok := p.reg.Open(path)
	if !ok {
		return
	}
	defer reg.Close()

	stringValues(reg, false, func(name, location string) {
		if location == "" {
			return
		}
		caps, ok := p.reg.Open(registry.Join(root, location))
		if !ok {
			p.log.Debug("registered application not found", "name", name, "location", location)
			return
		}
		capsPath := caps.Path()
		caps.Close()
		i := strings.LastIndexByte(capsPath, '\\')
		if i <= 0 {
			return
		}
		*capable = append(*capable, capsPath[:i])
	})
}

func (p *pass) readCapableApps(c capableApps) {
	for _, path := range c.priority {
		p.readCapableApp(path, true, true)
	}
	for _, path := range c.user {
		p.readCapableApp(path, true, false)
	}
	for _, path := range c.system {
		p.readCapableApp(path, false, false)
	}
}

// readCapableApp reads one app with a Capabilities key. Its verbs come
// from the app key's Shell, or failing that from Capabilities\Shell; an
// app with neither is skipped.
func (p *pass) readCapableApp(path string, userSpecific, defaultApp bool) {
	if p.cancelled() {
		return
	}
	appKey, ok := p.reg.Open(path)
	if !ok {
		return
	}
	defer appKey.Close()
	caps, ok := appKey.OpenSubkey(capabilities)
	if !ok {
		return
	}
	defer caps.Close()

	verbRoot := appKey
	verbs, preferred, ok := shellVerbs(appKey, "", shellKey, nil)
	if !ok {
		verbRoot = caps
		verbs, preferred, ok = shellVerbs(caps, "", shellKey, nil)
	}
	if !ok {
		p.log.Debug("capable app has no verbs", "key", path)
		return
	}

	app := assoc.EnsureApp(p.g.AppsByID, path, userSpecific, defaultApp, false)
	p.readCommands(verbRoot, verbs, preferred, false, func(name, display, command string, pref bool) {
		app.AddVerb(name, display, command, pref, false)
	})

	if app.PrettyName == "" {
		app.PrettyName, _ = appKey.ReadString("")
	}
	if app.LocalizedName == "" {
		app.LocalizedName, _ = caps.ReadMUIString(valueLocalizedString)
	}
	if app.Description == "" {
		app.Description, _ = caps.ReadMUIString(valueApplicationDesc)
	}
	if app.Icon == "" {
		app.Icon = readDefaultIcon(appKey)
	}
	if app.Icon == "" {
		app.Icon, _ = caps.ReadString(valueApplicationIcon)
	}
	if app.LocalizedName == "" {
		app.LocalizedName, _ = caps.ReadMUIString(valueApplicationName)
	}

	if assocs, ok := caps.OpenSubkey(fileAssociationsKey); ok {
		stringValues(assocs, false, func(ext, progID string) {
			if isExtension(ext) && progID != "" {
				p.attach(progID, extensionBinding(ext), app, false)
			}
		})
		assocs.Close()
	}
	if assocs, ok := caps.OpenSubkey(urlAssociationsKey); ok {
		stringValues(assocs, true, func(scheme, progID string) {
			if scheme != "" && progID != "" {
				p.attach(progID, schemaBinding(scheme), app, false)
			}
		})
		assocs.Close()
	}
}
