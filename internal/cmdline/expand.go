package cmdline

import (
	"os"
	"strings"
)

// Target is one thing handed to a launched program. A file target may also
// carry its URI and a URI target may also carry a local path; macros pick
// whichever form they need.
type Target struct {
	File string
	URI  string
}

// Env supplies the values of the non-positional macros.
type Env struct {
	LocalizedName string                 // %c
	Getwd         func() (string, error) // %w, os.Getwd when nil
}

// Expand substitutes the %-macros of a shell-verb command line and returns
// the expanded line plus the targets it did not consume.
//
//	%f %u     next target's path / URI, shell-quoted
//	%F %U     all remaining targets, space-separated
//	%* %~     all targets / all from the third, unquoted
//	%0 %1 %l %d  first target, unquoted
//	%2 .. %9  n-th target; consumes all
//	%c        localized app name, shell-quoted
//	%w        working directory
//	%%        literal %
//	%s %h %i %v and deprecated %m %n %N %D expand to nothing
//
// When targets were given and no macro consumed any, " %f" is implied.
func Expand(command string, targets []Target, env Env) (string, []Target) {
	var b strings.Builder
	b.Grow(len(command) + 32)

	objs := targets
	consumed := false
	for i := 0; i < len(command); i++ {
		c := command[i]
		if c != '%' || i+1 >= len(command) || command[i+1] >= 0x80 {
			b.WriteByte(c)
			continue
		}
		if expandMacro(command[i+1], &b, env, &objs) {
			consumed = true
		}
		i++
	}

	if !consumed && len(targets) > 0 && len(objs) == len(targets) {
		b.WriteByte(' ')
		expandMacro('f', &b, env, &objs)
	}
	return b.String(), objs
}

func expandMacro(m byte, b *strings.Builder, env Env, objs *[]Target) bool {
	o := *objs
	switch m {
	case '*', '~':
		if len(o) == 0 {
			return false
		}
		start := 0
		if m == '~' {
			start = 2
		}
		for k := start; k < len(o); k++ {
			if s, ok := expandSingle(m, o[k]); ok {
				if k != 0 {
					b.WriteByte(' ')
				}
				b.WriteString(s)
			}
		}
		*objs = nil
		return true
	case '0', '1', 'l', 'd':
		if len(o) == 0 {
			return false
		}
		if s, ok := expandSingle(m, o[0]); ok {
			b.WriteString(s)
		}
		*objs = o[1:]
		return true
	case '2', '3', '4', '5', '6', '7', '8', '9':
		if len(o) == 0 {
			return false
		}
		if n := int(m - '0'); n < len(o) {
			if s, ok := expandSingle(m, o[n]); ok {
				b.WriteByte(' ')
				b.WriteString(s)
			}
		}
		*objs = nil
		return true
	case 'u', 'f':
		if len(o) == 0 {
			return false
		}
		if s, ok := expandSingle(m, o[0]); ok {
			b.WriteString(s)
		}
		*objs = o[1:]
		return true
	case 'U', 'F':
		used := false
		for len(o) > 0 {
			s, ok := expandSingle(m, o[0])
			if ok {
				b.WriteString(s)
			}
			o = o[1:]
			used = true
			if len(o) > 0 && ok {
				b.WriteByte(' ')
			}
		}
		*objs = o
		return used
	case 'w':
		getwd := env.Getwd
		if getwd == nil {
			getwd = os.Getwd
		}
		if wd, err := getwd(); err == nil {
			b.WriteString(wd)
		}
	case 'c':
		if env.LocalizedName != "" {
			b.WriteString(Quote(env.LocalizedName))
		}
	case '%':
		b.WriteByte('%')
	}
	// s h i v, the deprecated m n N D, and unknown letters expand to nothing.
	return false
}

func expandSingle(m byte, t Target) (string, bool) {
	switch m {
	case '*', '~', '0', '1', 'l', 'd', '2', '3', '4', '5', '6', '7', '8', '9':
		if t.URI != "" {
			return t.URI, true
		}
		if t.File != "" {
			return t.File, true
		}
	case 'u', 'U':
		if t.URI != "" {
			return Quote(t.URI), true
		}
	case 'f', 'F':
		if t.File != "" {
			return Quote(t.File), true
		}
	}
	return "", false
}

// Quote wraps s in single quotes for the argv parser. Embedded single
// quotes are closed, emitted inside double quotes, and reopened, so the
// result never contains a backslash.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
