package packaged

import (
	"strings"
	"unicode/utf16"

	"github.com/joshuapare/assockit/pkg/types"
)

// MaxIndirectSize caps the buffer, in UTF-16 code units, handed to an
// IndirectLoader.
const MaxIndirectSize = 8192

// MSResourcePrefix marks strings no loader can resolve.
const MSResourcePrefix = "ms-resource:"

// IndirectLoader resolves "@{...}" and "@file,-id" strings. size is the
// buffer size in UTF-16 code units including the terminating NUL; a result
// of size-1 units may have been truncated.
type IndirectLoader interface {
	Load(ref string, size int) (string, error)
}

// MapLoader resolves from a fixed table.
type MapLoader map[string]string

// Load implements IndirectLoader.
func (m MapLoader) Load(ref string, size int) (string, error) {
	s, ok := m[ref]
	if !ok {
		return "", &types.Error{Kind: types.ErrKindNotFound, Msg: "packaged: no indirect string " + ref}
	}
	u := utf16.Encode([]rune(s))
	if size > 0 && len(u) > size-1 {
		u = u[:size-1]
	}
	return string(utf16.Decode(u)), nil
}

// Resolve returns s unchanged unless it starts with '@', in which case it
// is loaded through l with a buffer that doubles until the result fits or
// MaxIndirectSize is reached. ok is false when the load fails.
func Resolve(l IndirectLoader, s string) (string, bool) {
	if !strings.HasPrefix(s, "@") {
		return s, true
	}
	if l == nil {
		return "", false
	}
	size := len(utf16.Encode([]rune(s))) + 1
	for {
		out, err := l.Load(s, size)
		if err != nil {
			return "", false
		}
		if len(utf16.Encode([]rune(out))) < size-1 || size >= MaxIndirectSize {
			return out, true
		}
		size = min(size*2, MaxIndirectSize)
	}
}
