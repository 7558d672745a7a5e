package scan

import (
	"github.com/joshuapare/assockit/internal/ustr"
	"github.com/joshuapare/assockit/registry"
)

// Registry locations read by the scanner.
const (
	ClassesRoot          = `HKEY_CLASSES_ROOT`
	Applications         = `HKEY_CLASSES_ROOT\Applications`
	UserClients          = `HKEY_CURRENT_USER\Software\Clients`
	SystemClients        = `HKEY_LOCAL_MACHINE\Software\Clients`
	UserRegisteredApps   = `HKEY_CURRENT_USER\Software\RegisteredApplications`
	SystemRegisteredApps = `HKEY_LOCAL_MACHINE\Software\RegisteredApplications`
	URLAssociations      = `HKEY_CURRENT_USER\Software\Microsoft\Windows\Shell\Associations\UrlAssociations`
	FileExts             = `HKEY_CURRENT_USER\Software\Microsoft\Windows\CurrentVersion\Explorer\FileExts`
)

const (
	userRoot   = `HKEY_CURRENT_USER`
	systemRoot = `HKEY_LOCAL_MACHINE`

	userChoice              = "UserChoice"
	openWithProgids         = "OpenWithProgids"
	capabilities            = "Capabilities"
	shellKey                = "Shell"
	commandKey              = "command"
	defaultIconKey          = "DefaultIcon"
	applicationKey          = "Application"
	supportedTypesKey       = "SupportedTypes"
	fileAssociationsKey     = "FileAssociations"
	urlAssociationsKey      = "URLAssociations"
	capableFileAssociations = `Capabilities\FileAssociations`
	capableURLAssociations  = `Capabilities\UrlAssociations`

	valueProgid             = "Progid"
	valueAUMID              = "AppUserModelID"
	valueSubcommands        = "Subcommands"
	valueActivatableClassID = "ActivatableClassId"
	valueMUIVerb            = "MUIVerb"
	valueURLProtocol        = "URL Protocol"
	valueLocalizedString    = "LocalizedString"
	valueApplicationName    = "ApplicationName"
	valueApplicationDesc    = "ApplicationDescription"
	valueApplicationIcon    = "ApplicationIcon"
	valueFriendlyAppName    = "FriendlyAppName"
	valueNoOpenWith         = "NoOpenWith"
)

// WatchedRoot is one registry subtree whose changes invalidate a graph.
type WatchedRoot struct {
	Path      string
	Recursive bool
}

// WatchedRoots are the subtrees the scanner depends on. The
// RegisteredApplications keys only matter for their values and the class
// root only for its immediate subkeys, so those watches are shallow.
var WatchedRoots = []WatchedRoot{
	{URLAssociations, true},
	{FileExts, true},
	{UserClients, true},
	{SystemClients, true},
	{UserRegisteredApps, false},
	{SystemRegisteredApps, false},
	{Applications, true},
	{ClassesRoot, false},
}

// readDefaultIcon returns the default value of key\DefaultIcon.
func readDefaultIcon(key registry.Key) string {
	icon, ok := key.OpenSubkey(defaultIconKey)
	if !ok {
		return ""
	}
	defer icon.Close()
	s, _ := icon.ReadString("")
	return s
}

// stringValues yields the name and text of every string-kind value of
// key, expand-strings included when allowExpand is set.
func stringValues(key registry.Key, allowExpand bool, fn func(name, data string)) {
	for v := range key.Values() {
		switch v.Kind {
		case registry.KindString:
		case registry.KindExpandString:
			if !allowExpand {
				continue
			}
		default:
			continue
		}
		data, ok := key.ReadString(v.Name)
		if !ok {
			continue
		}
		fn(v.Name, data)
	}
}

func hasSubkey(key registry.Key, rel string) bool {
	k, ok := key.OpenSubkey(rel)
	if ok {
		k.Close()
	}
	return ok
}

func isExtension(name string) bool { return len(name) > 1 && name[0] == '.' }

func foldedBasename(folded string) string { return ustr.Basename(folded) }
