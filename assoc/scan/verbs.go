package scan

import (
	"slices"
	"strings"

	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/internal/cmdline"
	"github.com/joshuapare/assockit/internal/ustr"
	"github.com/joshuapare/assockit/registry"
)

// regVerb is a verb found under a Shell key. shellPath is relative to the
// key the enumeration started from and ends in the verb's own key.
type regVerb struct {
	name      string
	shellPath string
}

// shellVerbs lists the verbs under root\shellPrefix, flattening
// "Subcommands" groups into "group\verb" names.
//
// When packaged points at true, every verb must carry an
// ActivatableClassId; the first one that does not flips it to false and
// the verbs are read as ordinary commands. Groups are not descended into
// for packaged handlers.
//
// At the top level the verbs are sorted with the Shell key's default verb
// first, then "open", then the rest by folded name, and preferred is the
// default verb if it exists.
func shellVerbs(root registry.Key, namePrefix, shellPrefix string, packaged *bool) (verbs []regVerb, preferred string, ok bool) {
	shell, ok := root.OpenSubkey(shellPrefix)
	if !ok {
		return nil, "", false
	}
	defer shell.Close()

	isPackaged := packaged != nil && *packaged
	for name := range shell.Subkeys() {
		sub, ok := shell.OpenSubkey(name)
		if !ok {
			continue
		}
		if !isPackaged && isStringValue(sub, valueSubcommands) {
			nested, _, ok := shellVerbs(root, namePrefix+name+`\`, shellPrefix+`\`+name+`\`+shellKey, nil)
			if ok {
				sub.Close()
				verbs = append(verbs, nested...)
				continue
			}
		}
		if isPackaged && !sub.HasValue(valueActivatableClassID) {
			isPackaged = false
			*packaged = false
		}
		sub.Close()
		verbs = append(verbs, regVerb{name: namePrefix + name, shellPath: shellPrefix + `\` + name})
	}
	if len(verbs) == 0 {
		return nil, "", false
	}
	if namePrefix != "" {
		return verbs, "", true
	}

	def, _ := shell.ReadString("")
	slices.SortStableFunc(verbs, func(a, b regVerb) int { return compareVerbs(a.name, b.name, def) })
	if def != "" {
		for _, v := range verbs {
			if ustr.EqualFold(v.name, def) {
				preferred = v.name
				break
			}
		}
	}
	return verbs, preferred, true
}

func compareVerbs(a, b, def string) int {
	if def != "" {
		ad, bd := ustr.EqualFold(a, def), ustr.EqualFold(b, def)
		switch {
		case ad && !bd:
			return -1
		case bd && !ad:
			return 1
		}
	}
	ao, bo := ustr.EqualFold(a, assoc.DefaultVerb), ustr.EqualFold(b, assoc.DefaultVerb)
	switch {
	case ao && !bo:
		return -1
	case bo && !ao:
		return 1
	}
	return strings.Compare(ustr.Fold(a), ustr.Fold(b))
}

func isStringValue(key registry.Key, name string) bool {
	for v := range key.Values() {
		if ustr.EqualFold(v.Name, name) {
			return v.Kind == registry.KindString
		}
	}
	return false
}

func isPreferred(i int, name, preferred string, autoPreferFirst bool) bool {
	if preferred != "" {
		return ustr.EqualFold(name, preferred)
	}
	return autoPreferFirst && i == 0
}

// addCommandFunc receives one verb with a usable command line.
type addCommandFunc func(name, display, command string, preferred bool)

// readCommands resolves each verb's command line and display name and
// hands it to add. Verbs without a command, or whose command names no
// executable, are dropped. With autoPreferFirst and no default verb, the
// first verb is preferred.
func (p *pass) readCommands(root registry.Key, verbs []regVerb, preferred string, autoPreferFirst bool, add addCommandFunc) {
	for i, v := range verbs {
		verbKey, ok := root.OpenSubkey(v.shellPath)
		if !ok {
			continue
		}
		command, ok := readVerbCommand(verbKey)
		if !ok {
			verbKey.Close()
			p.log.Debug("verb has no command", "key", verbKey.Path())
			continue
		}
		if cmdline.ExtractExecutable(command).Path == "" {
			verbKey.Close()
			p.log.Debug("verb command names no executable", "key", verbKey.Path(), "command", command)
			continue
		}
		display := verbDisplayName(verbKey)
		verbKey.Close()
		add(v.name, display, command, isPreferred(i, v.name, preferred, autoPreferFirst))
	}
}

func readVerbCommand(verbKey registry.Key) (string, bool) {
	cmd, ok := verbKey.OpenSubkey(commandKey)
	if !ok {
		return "", false
	}
	defer cmd.Close()
	s, ok := cmd.ReadString("")
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

func verbDisplayName(verbKey registry.Key) string {
	if s, ok := verbKey.ReadMUIString(valueMUIVerb); ok && s != "" {
		return s
	}
	s, _ := verbKey.ReadString("")
	return s
}

// readPackagedVerbs adds the verbs of a packaged handler. Each must name
// a non-empty ActivatableClassId.
func (p *pass) readPackagedVerbs(root registry.Key, verbs []regVerb, preferred string, h *assoc.Handler, app *assoc.App) {
	for i, v := range verbs {
		verbKey, ok := root.OpenSubkey(v.shellPath)
		if !ok {
			continue
		}
		class, _ := verbKey.ReadString(valueActivatableClassID)
		verbKey.Close()
		if class == "" {
			continue
		}
		h.AddVerb(assoc.NewPackagedVerb(v.name, "", app), isPreferred(i, v.name, preferred, true))
	}
}
