package regf

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/assockit/internal/buf"
	"github.com/joshuapare/assockit/internal/ustr"
	"github.com/joshuapare/assockit/pkg/types"
)

// Key is one nk record.
//
//	Offset  Size  Field
//	0x00    2     'n' 'k'
//	0x02    2     Flags (0x20 => compressed name)
//	0x14    4     Number of subkeys
//	0x1C    4     Offset to subkey list
//	0x24    4     Number of values
//	0x28    4     Offset to value list
//	0x48    2     Name length in bytes
//	0x4C    n     Name
type Key struct {
	h           *Hive
	name        string
	subkeyCount uint32
	subkeyList  uint32
	valueCount  uint32
	valueList   uint32
}

func (h *Hive) key(off uint32) (Key, error) {
	b, err := h.cell(off)
	if err != nil {
		return Key{}, fmt.Errorf("nk: %w", err)
	}
	if len(b) < nkNameOffset || string(b[:2]) != sigNK {
		return Key{}, fmt.Errorf("nk 0x%x: bad record: %w", off, types.ErrCorrupt)
	}
	nameLen := int(buf.U16(b, nkNameLenOffset))
	if nkNameOffset+nameLen > len(b) {
		return Key{}, fmt.Errorf("nk 0x%x: name overruns cell: %w", off, types.ErrCorrupt)
	}
	name, err := decodeName(b[nkNameOffset:nkNameOffset+nameLen], buf.U16(b, nkFlagsOffset)&NKFlagCompressedName != 0)
	if err != nil {
		return Key{}, fmt.Errorf("nk 0x%x name: %w", off, err)
	}
	return Key{
		h:           h,
		name:        name,
		subkeyCount: buf.U32(b, nkSubkeyCountOffset),
		subkeyList:  buf.U32(b, nkSubkeyListOffset),
		valueCount:  buf.U32(b, nkValueCountOffset),
		valueList:   buf.U32(b, nkValueListOffset),
	}, nil
}

// Name returns the key name.
func (k Key) Name() string { return k.name }

// Subkeys decodes the key's subkey list. lf, lh, and li lists are read
// directly; an ri list is followed one level to its leaf lists.
func (k Key) Subkeys() ([]Key, error) {
	if k.subkeyCount == 0 || k.subkeyList == invalidOffset {
		return nil, nil
	}
	offs, err := k.h.subkeyOffsets(k.subkeyList, true)
	if err != nil {
		return nil, err
	}
	out := make([]Key, 0, len(offs))
	for _, off := range offs {
		sub, err := k.h.key(off)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// Subkey finds a direct child by case-insensitive name.
func (k Key) Subkey(name string) (Key, bool, error) {
	subs, err := k.Subkeys()
	if err != nil {
		return Key{}, false, err
	}
	for _, s := range subs {
		if ustr.EqualFold(s.name, name) {
			return s, true, nil
		}
	}
	return Key{}, false, nil
}

// Walk calls fn for k and every descendant, depth first, with the path
// of each key relative to k. Returning false from fn skips that key's
// children.
func (k Key) Walk(fn func(path string, key Key) bool) error {
	return k.walk("", 0, fn)
}

func (k Key) walk(path string, depth int, fn func(string, Key) bool) error {
	if depth > maxDepth {
		return fmt.Errorf("nk %q: nesting too deep: %w", path, types.ErrCorrupt)
	}
	if !fn(path, k) {
		return nil
	}
	subs, err := k.Subkeys()
	if err != nil {
		return err
	}
	for _, s := range subs {
		child := s.name
		if path != "" {
			child = path + `\` + s.name
		}
		if err := s.walk(child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hive) subkeyOffsets(off uint32, allowIndirect bool) ([]uint32, error) {
	b, err := h.cell(off)
	if err != nil {
		return nil, fmt.Errorf("subkey list: %w", err)
	}
	if len(b) < listEntries {
		return nil, fmt.Errorf("subkey list 0x%x: %w", off, types.ErrCorrupt)
	}
	count := int(buf.U16(b, listCountOffset))
	sig := string(b[:2])

	entry := liEntrySize
	switch sig {
	case sigLF, sigLH:
		entry = lfEntrySize
	case sigLI:
	case sigRI:
		if !allowIndirect {
			return nil, fmt.Errorf("subkey list 0x%x: nested ri: %w", off, types.ErrCorrupt)
		}
	default:
		return nil, fmt.Errorf("subkey list 0x%x: unknown signature %q: %w", off, sig, types.ErrCorrupt)
	}
	entries, err := buf.List(b, listEntries, count, entry)
	if err != nil {
		return nil, fmt.Errorf("subkey list 0x%x: %w: %w", off, err, types.ErrCorrupt)
	}

	var out []uint32
	for i := range count {
		ref := buf.U32(entries, i*entry)
		if sig != sigRI {
			out = append(out, ref)
			continue
		}
		leaf, err := h.subkeyOffsets(ref, false)
		if err != nil {
			return nil, err
		}
		out = append(out, leaf...)
	}
	return out, nil
}

var win1252 = charmap.Windows1252

// decodeName decodes a key or value name. Compressed names are
// Windows-1252; the rest are UTF-16LE.
func decodeName(b []byte, compressed bool) (string, error) {
	if !compressed {
		return ustr.DecodeRegString(b)
	}
	out, err := win1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", &types.Error{Kind: types.ErrKindEncoding, Msg: "regf: name", Err: err}
	}
	return string(out), nil
}
