package scan

import (
	"unicode"
	"unicode/utf8"

	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/registry"
)

// readURLChoices reads the per-user scheme choices.
func (p *pass) readURLChoices() {
	root, ok := p.reg.Open(URLAssociations)
	if !ok {
		return
	}
	defer root.Close()

	for scheme := range root.Subkeys() {
		if p.cancelled() {
			return
		}
		if progID := readUserChoice(root, scheme); progID != "" {
			p.attach(progID, schemaBinding(scheme), nil, true)
		}
	}
}

// readFileExts reads the per-user extension choices and the extra
// handlers listed under each extension's OpenWithProgids.
func (p *pass) readFileExts() {
	root, ok := p.reg.Open(FileExts)
	if !ok {
		return
	}
	defer root.Close()

	for ext := range root.Subkeys() {
		if p.cancelled() {
			return
		}
		if !isExtension(ext) {
			continue
		}
		if progID := readUserChoice(root, ext); progID != "" {
			p.attach(progID, extensionBinding(ext), nil, true)
		}
		p.readOpenWithProgids(root, ext)
	}
}

func readUserChoice(root registry.Key, name string) string {
	choice, ok := root.OpenSubkey(registry.Join(name, userChoice))
	if !ok {
		return ""
	}
	defer choice.Close()
	progID, _ := choice.ReadString(valueProgid)
	return progID
}

// readOpenWithProgids attaches every ProgID named by a value of
// root\ext\OpenWithProgids.
func (p *pass) readOpenWithProgids(root registry.Key, ext string) {
	progIDs, ok := root.OpenSubkey(registry.Join(ext, openWithProgids))
	if !ok {
		return
	}
	defer progIDs.Close()
	for v := range progIDs.Values() {
		if v.Name != "" {
			p.attach(v.Name, extensionBinding(ext), nil, false)
		}
	}
}

// readExeApps reads HKCR\Applications, where apps are known only by their
// executable name.
func (p *pass) readExeApps() {
	root, ok := p.reg.Open(Applications)
	if !ok {
		return
	}
	defer root.Close()

	for exe := range root.Subkeys() {
		if p.cancelled() {
			return
		}
		key, ok := root.OpenSubkey(exe)
		if !ok {
			continue
		}
		p.readExeApp(key, exe)
		key.Close()
	}
}

func (p *pass) readExeApp(key registry.Key, exe string) {
	verbs, preferred, ok := shellVerbs(key, "", shellKey, nil)
	if !ok {
		return
	}
	app := assoc.EnsureApp(p.g.AppsByExe, exe, false, false, false)
	p.readCommands(key, verbs, preferred, true, func(name, display, command string, pref bool) {
		app.AddVerb(name, display, command, pref, false)
	})

	app.NoOpenWith = key.HasValue(valueNoOpenWith)
	if app.LocalizedName == "" {
		app.LocalizedName, _ = key.ReadMUIString(valueFriendlyAppName)
	}
	if app.Icon == "" {
		app.Icon = readDefaultIcon(key)
	}

	types, ok := key.OpenSubkey(supportedTypesKey)
	if !ok {
		return
	}
	defer types.Close()
	for v := range types.Values() {
		if isExtension(v.Name) {
			p.attach(v.Name, extensionBinding(v.Name), app, false)
		}
	}
}

// readClasses walks the immediate subkeys of the class root. Dotted names
// are extensions; purely alphabetic names with a "URL Protocol" value are
// URL schemes.
func (p *pass) readClasses() {
	root, ok := p.reg.Open(ClassesRoot)
	if !ok {
		return
	}
	defer root.Close()

	for name := range root.Subkeys() {
		if p.cancelled() {
			return
		}
		if utf8.RuneCountInString(name) <= 1 {
			continue
		}
		if name[0] == '.' {
			p.attach(name, extensionBinding(name), nil, false)
			p.readOpenWithProgids(root, name)
			continue
		}
		if !isAlpha(name) {
			continue
		}
		key, ok := root.OpenSubkey(name)
		if !ok {
			continue
		}
		isProtocol := isStringValue(key, valueURLProtocol)
		key.Close()
		if isProtocol {
			p.attach(name, schemaBinding(name), nil, false)
		}
	}
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
