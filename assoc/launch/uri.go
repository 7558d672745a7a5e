package launch

import (
	"net/url"
	"strings"

	"github.com/joshuapare/assockit/internal/ustr"
)

// FileURI returns the file: URI of a Windows path. UNC paths keep their
// server as the URI host.
//
//	C:\a b.txt        -> file:///C:/a%20b.txt
//	\\srv\share\x.txt -> file://srv/share/x.txt
func FileURI(path string) string {
	p := strings.ReplaceAll(path, `\`, "/")
	if rest, ok := strings.CutPrefix(p, "//"); ok {
		host, tail, _ := strings.Cut(rest, "/")
		return (&url.URL{Scheme: "file", Host: host, Path: "/" + tail}).String()
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// PathFromURI returns the Windows path of a file: URI. It reports false for
// other schemes and for URIs that do not parse.
func PathFromURI(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil || !ustr.EqualFold(u.Scheme, "file") {
		return "", false
	}
	p := u.Path
	if p == "" {
		p = u.Opaque
	}
	if u.Host != "" && !ustr.EqualFold(u.Host, "localhost") {
		return `\\` + u.Host + strings.ReplaceAll(p, "/", `\`), true
	}
	if len(p) >= 3 && p[0] == '/' && isDriveLetter(p[1]) && p[2] == ':' {
		p = p[1:]
	}
	return strings.ReplaceAll(p, "/", `\`), true
}

func isDriveLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
