package regtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/assockit/pkg/types"
)

// parseHex decodes hex:aa,bb and hex(n):aa,bb payloads. The type number
// in hex(n) is hexadecimal, so hex(b) is REG_QWORD.
func parseHex(payload string) (types.RegType, []byte, error) {
	colon := strings.IndexByte(payload, ':')
	if colon < 0 {
		return 0, nil, fmt.Errorf("hex data %q: missing colon", payload)
	}
	typ := types.REG_BINARY
	if prefix := payload[:colon]; prefix != hexPrefix {
		if !strings.HasPrefix(prefix, hexPrefix+"(") || !strings.HasSuffix(prefix, ")") {
			return 0, nil, fmt.Errorf("hex data %q: bad type prefix", payload)
		}
		n, err := strconv.ParseUint(prefix[len(hexPrefix)+1:len(prefix)-1], 16, 32)
		if err != nil {
			return 0, nil, fmt.Errorf("hex data %q: bad type: %w", payload, err)
		}
		typ = types.RegType(n)
	}
	data, err := parseHexBytes(payload[colon+1:])
	if err != nil {
		return 0, nil, err
	}
	return typ, data, nil
}

// parseHexBytes reads comma-separated bytes. Whitespace is ignored and a
// single digit is padded with a leading zero.
func parseHexBytes(s string) ([]byte, error) {
	out := make([]byte, 0, len(s)/3+1)
	for part := range strings.SplitSeq(s, ",") {
		part = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
				return -1
			}
			return r
		}, part)
		if part == "" {
			continue
		}
		if len(part) > 2 {
			return nil, fmt.Errorf("invalid hex byte %q", part)
		}
		b, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte %q", part)
		}
		out = append(out, byte(b))
	}
	return out, nil
}

// unescape undoes the \\ and \" escapes of quoted .reg strings.
func unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '\\' || s[i+1] == '"') {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// findClosingQuote returns the index of the quote closing the string that
// opens at s[0], skipping quotes preceded by an odd number of backslashes.
func findClosingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		if s[i] != '"' {
			continue
		}
		n := 0
		for j := i - 1; j > 0 && s[j] == '\\'; j-- {
			n++
		}
		if n%2 == 0 {
			return i
		}
	}
	return -1
}
