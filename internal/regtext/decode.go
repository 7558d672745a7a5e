package regtext

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/joshuapare/assockit/pkg/types"
)

var (
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// decodeText turns raw file bytes into UTF-8. A BOM selects the encoding.
// Without one, a REGEDIT4 file is Windows-1252 and anything else is UTF-8.
func decodeText(data []byte) (string, error) {
	hasBOM := bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) || bytes.HasPrefix(data, bomUTF8)
	if !hasBOM && bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte(Header4)) {
		out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
		if err != nil {
			return "", &types.Error{Kind: types.ErrKindEncoding, Msg: "regtext: decode ANSI", Err: err}
		}
		return string(out), nil
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", &types.Error{Kind: types.ErrKindEncoding, Msg: "regtext: decode", Err: err}
	}
	return string(out), nil
}

// encodeString returns s as NUL-terminated UTF-16LE.
func encodeString(s string) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder(), []byte(s))
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindEncoding, Msg: "regtext: encode string", Err: err}
	}
	return append(out, 0, 0), nil
}
