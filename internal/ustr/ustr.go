// Package ustr holds the UTF-16 and case-folding helpers shared by the
// registry backends, the command-line parser, and the association scanner.
//
// Identifiers used as map keys are folded with Unicode case folding
// (golang.org/x/text/cases), never locale casing, so matching is stable
// across machines.
package ustr

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/cases"

	"github.com/joshuapare/assockit/pkg/types"
)

const (
	surrHighStart = 0xD800
	surrHighEnd   = 0xDBFF
	surrLowStart  = 0xDC00
	surrLowEnd    = 0xDFFF
)

// Fold returns the Unicode case-folded form of s.
func Fold(s string) string {
	// A Caser keeps state, so one is built per call.
	return cases.Fold().String(s)
}

// EqualFold reports whether a and b are equal under Unicode case folding.
func EqualFold(a, b string) bool {
	if a == b {
		return true
	}
	return Fold(a) == Fold(b)
}

// Len returns the number of code units before the first NUL.
func Len(u []uint16) int {
	for i, c := range u {
		if c == 0 {
			return i
		}
	}
	return len(u)
}

// Dup returns a NUL-trimmed copy of u.
func Dup(u []uint16) []uint16 {
	n := Len(u)
	out := make([]uint16, n)
	copy(out, u[:n])
	return out
}

// FindChar returns the index of the first c in u, or -1.
func FindChar(u []uint16, c uint16) int {
	for i, x := range u[:Len(u)] {
		if x == c {
			return i
		}
	}
	return -1
}

// Basename returns the part of s after the last '/' or '\'. If s has no
// separator, s itself is returned.
func Basename(s string) string {
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Valid reports whether u is well-formed UTF-16 (every surrogate paired).
func Valid(u []uint16) bool {
	for i := 0; i < len(u); i++ {
		c := u[i]
		switch {
		case c >= surrHighStart && c <= surrHighEnd:
			if i+1 >= len(u) || u[i+1] < surrLowStart || u[i+1] > surrLowEnd {
				return false
			}
			i++
		case c >= surrLowStart && c <= surrLowEnd:
			return false
		}
	}
	return true
}

// FromUTF16 converts u (up to its first NUL) to UTF-8 and returns the
// string together with its folded form.
func FromUTF16(u []uint16) (utf8, folded string, err error) {
	u = u[:Len(u)]
	if !Valid(u) {
		return "", "", types.ErrEncoding
	}
	s := string(utf16.Decode(u))
	return s, Fold(s), nil
}

// ToUTF16 encodes s as UTF-16 without a terminator.
func ToUTF16(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// DecodeRegString decodes little-endian UTF-16 registry data, stopping at
// the first NUL. A trailing odd byte is ignored.
func DecodeRegString(b []byte) (string, error) {
	if len(b)%2 == 1 {
		b = b[:len(b)-1]
	}
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	s, _, err := FromUTF16(u)
	return s, err
}

// EncodeRegString encodes s as NUL-terminated little-endian UTF-16, the
// layout REG_SZ and REG_EXPAND_SZ data uses on disk.
func EncodeRegString(s string) []byte {
	u := ToUTF16(s)
	out := make([]byte, (len(u)+1)*2)
	for i, c := range u {
		binary.LittleEndian.PutUint16(out[i*2:], c)
	}
	return out
}
