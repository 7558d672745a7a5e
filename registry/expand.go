package registry

import (
	"os"
	"strings"
)

// ExpandEnv replaces %NAME% placeholders using lookup. Unknown names and
// a lone % are left as written, the way ExpandEnvironmentStrings does.
func ExpandEnv(s string, lookup func(string) (string, bool)) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if strings.IndexByte(s, '%') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '%' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := strings.IndexByte(s[i+1:], '%')
		if j < 0 {
			b.WriteString(s[i:])
			break
		}
		j += i + 1
		if name := s[i+1 : j]; name != "" {
			if v, ok := lookup(name); ok {
				b.WriteString(v)
				i = j + 1
				continue
			}
		}
		b.WriteString(s[i:j])
		i = j
	}
	return b.String()
}
