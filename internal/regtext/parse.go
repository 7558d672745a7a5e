package regtext

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/joshuapare/assockit/pkg/types"
)

// Parse converts .reg text into operations in file order. Keys named in a
// section header are created even when the section has no values.
//
//	Windows Registry Editor Version 5.00
//
//	[HKEY_CURRENT_USER\Software\Classes\.txt]
//	@="txtfile"
//	"Content Type"="text/plain"
//	"Flags"=dword:00000001
//	"Cmd"=hex(2):25,00,31,00,00,00
//
//	[-HKEY_CURRENT_USER\Software\Old]
func Parse(data []byte) ([]Op, error) {
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	lines, err := logicalLines(text)
	if err != nil {
		return nil, err
	}

	var (
		ops        []Op
		current    string
		seenHeader bool
	)
	for _, ln := range lines {
		trim := strings.TrimSpace(ln.text)
		if trim == "" || strings.HasPrefix(trim, commentPrefix) {
			continue
		}
		if !seenHeader {
			if trim != Header5 && trim != Header4 {
				return nil, formatErr(ln.num, "missing header, got %q", trim)
			}
			seenHeader = true
			continue
		}
		if strings.HasPrefix(trim, keyOpenBracket) {
			if !strings.HasSuffix(trim, keyCloseBracket) {
				return nil, formatErr(ln.num, "malformed section %q", trim)
			}
			section := trim[1 : len(trim)-1]
			if strings.HasPrefix(section, deleteKeyPrefix) {
				ops = append(ops, DeleteKey{Path: strings.TrimSpace(section[1:])})
				current = ""
				continue
			}
			current = section
			ops = append(ops, CreateKey{Path: current})
			continue
		}
		if current == "" {
			return nil, formatErr(ln.num, "value outside a key section: %q", trim)
		}
		op, err := parseValueLine(current, trim)
		if err != nil {
			return nil, formatErr(ln.num, "%v", err)
		}
		ops = append(ops, op)
	}
	if !seenHeader {
		return nil, formatErr(0, "missing header")
	}
	return ops, nil
}

type line struct {
	num  int
	text string
}

// logicalLines joins lines ending in a backslash with the line after them.
func logicalLines(text string) ([]line, error) {
	var out []line
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var (
		pending strings.Builder
		start   int
		open    bool
	)
	n := 0
	for sc.Scan() {
		n++
		s := strings.TrimRight(sc.Text(), "\r")
		if open {
			s = strings.TrimLeft(s, " \t")
		} else {
			start = n
		}
		trimmed := strings.TrimRight(s, " \t")
		if strings.HasSuffix(trimmed, continuation) && isHexContinuation(pending.String()+trimmed) {
			pending.WriteString(trimmed[:len(trimmed)-1])
			open = true
			continue
		}
		pending.WriteString(s)
		out = append(out, line{num: start, text: pending.String()})
		pending.Reset()
		open = false
	}
	if err := sc.Err(); err != nil {
		return nil, &types.Error{Kind: types.ErrKindFormat, Msg: "regtext: read", Err: err}
	}
	if open {
		out = append(out, line{num: start, text: pending.String()})
	}
	return out, nil
}

// isHexContinuation reports whether a trailing backslash on s continues a
// hex payload. A backslash at the end of a quoted string is data.
func isHexContinuation(s string) bool {
	eq := valueSeparator(strings.TrimSpace(s))
	if eq < 0 {
		return false
	}
	payload := strings.TrimSpace(strings.TrimSpace(s)[eq+1:])
	return strings.HasPrefix(payload, hexPrefix)
}

// valueSeparator returns the index of the '=' after the value name.
func valueSeparator(s string) int {
	if strings.HasPrefix(s, defaultValuePrefix) {
		if len(s) > 1 && s[1] == '=' {
			return 1
		}
		return -1
	}
	if !strings.HasPrefix(s, quote) {
		return -1
	}
	end := findClosingQuote(s)
	if end < 0 || end+1 >= len(s) || s[end+1] != '=' {
		return -1
	}
	return end + 1
}

func parseValueLine(path, s string) (Op, error) {
	eq := valueSeparator(s)
	if eq < 0 {
		return nil, fmt.Errorf("malformed value line %q", s)
	}
	name := ""
	if !strings.HasPrefix(s, defaultValuePrefix) {
		name = unescape(s[1 : eq-1])
	}
	payload := strings.TrimSpace(s[eq+1:])

	switch {
	case payload == deleteValueToken:
		return DeleteValue{Path: path, Name: name}, nil
	case strings.HasPrefix(payload, quote):
		if len(payload) < 2 || findClosingQuote(payload) != len(payload)-1 {
			return nil, fmt.Errorf("unterminated string %q", payload)
		}
		data, err := encodeString(unescape(payload[1 : len(payload)-1]))
		if err != nil {
			return nil, err
		}
		return SetValue{Path: path, Name: name, Type: types.REG_SZ, Data: data}, nil
	case strings.HasPrefix(payload, dwordPrefix):
		digits := payload[len(dwordPrefix):]
		if len(digits) != dwordHexLength {
			return nil, fmt.Errorf("invalid dword %q", payload)
		}
		n, err := strconv.ParseUint(digits, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid dword %q: %w", payload, err)
		}
		data := make([]byte, 4)
		binary.LittleEndian.PutUint32(data, uint32(n))
		return SetValue{Path: path, Name: name, Type: types.REG_DWORD, Data: data}, nil
	case strings.HasPrefix(payload, hexPrefix):
		typ, data, err := parseHex(payload)
		if err != nil {
			return nil, err
		}
		return SetValue{Path: path, Name: name, Type: typ, Data: data}, nil
	}
	return nil, fmt.Errorf("unsupported value %q", payload)
}

func formatErr(num int, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if num > 0 {
		msg = fmt.Sprintf("line %d: %s", num, msg)
	}
	return &types.Error{Kind: types.ErrKindFormat, Msg: "regtext: " + msg}
}
