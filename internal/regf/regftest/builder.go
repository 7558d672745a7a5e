// Package regftest builds small synthetic REGF images for tests.
package regftest

import (
	"encoding/binary"

	"github.com/joshuapare/assockit/internal/ustr"
	"github.com/joshuapare/assockit/pkg/types"
)

// List selects the subkey list layout written for a key.
type List int

const (
	ListLH List = iota
	ListLF
	ListLI
	ListRI // ri over two li leaves
)

// Key describes one key of the image.
type Key struct {
	Name    string
	List    List
	Values  []Value
	Subkeys []*Key
}

// Value describes one value.
type Value struct {
	Name string
	Type types.RegType
	Data []byte
}

// Add appends a child and returns it.
func (k *Key) Add(name string) *Key {
	c := &Key{Name: name}
	k.Subkeys = append(k.Subkeys, c)
	return c
}

// Child returns the direct child named name, creating it when missing.
func (k *Key) Child(name string) *Key {
	for _, s := range k.Subkeys {
		if s.Name == name {
			return s
		}
	}
	return k.Add(name)
}

// Path walks a backslash-separated path below k, creating keys as needed.
func (k *Key) Path(parts ...string) *Key {
	cur := k
	for _, p := range parts {
		cur = cur.Child(p)
	}
	return cur
}

// String adds a REG_SZ value.
func (k *Key) String(name, s string) *Key {
	return k.Raw(name, types.REG_SZ, ustr.EncodeRegString(s))
}

// ExpandString adds a REG_EXPAND_SZ value.
func (k *Key) ExpandString(name, s string) *Key {
	return k.Raw(name, types.REG_EXPAND_SZ, ustr.EncodeRegString(s))
}

// DWord adds a REG_DWORD value.
func (k *Key) DWord(name string, v uint32) *Key {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return k.Raw(name, types.REG_DWORD, b)
}

// Raw adds a value with arbitrary type and data.
func (k *Key) Raw(name string, t types.RegType, data []byte) *Key {
	k.Values = append(k.Values, Value{Name: name, Type: t, Data: data})
	return k
}

const (
	headerSize = 0x1000
	hbinHeader = 0x20
	chunk      = 16344
)

type builder struct {
	bin []byte // hbin contents, offsets are relative to its start
}

// Build lays out root and everything below it in a single hbin.
func Build(root *Key) []byte {
	b := &builder{bin: make([]byte, hbinHeader)}
	rootOff := b.key(root, true)

	size := (len(b.bin) + 4 + 0xFFF) &^ 0xFFF
	if free := size - len(b.bin); free > 0 {
		cell := make([]byte, free)
		binary.LittleEndian.PutUint32(cell, uint32(free))
		b.bin = append(b.bin, cell...)
	}
	copy(b.bin, "hbin")
	binary.LittleEndian.PutUint32(b.bin[0x08:], uint32(size))

	out := make([]byte, headerSize, headerSize+size)
	copy(out, "regf")
	binary.LittleEndian.PutUint32(out[0x04:], 1)
	binary.LittleEndian.PutUint32(out[0x08:], 1)
	binary.LittleEndian.PutUint32(out[0x14:], 1)
	binary.LittleEndian.PutUint32(out[0x18:], 5)
	binary.LittleEndian.PutUint32(out[0x20:], 1)
	binary.LittleEndian.PutUint32(out[0x24:], rootOff)
	binary.LittleEndian.PutUint32(out[0x28:], uint32(size))
	binary.LittleEndian.PutUint32(out[0x2C:], 1)
	var sum uint32
	for i := 0; i < 0x1FC; i += 4 {
		sum ^= binary.LittleEndian.Uint32(out[i:])
	}
	binary.LittleEndian.PutUint32(out[0x1FC:], sum)
	return append(out, b.bin...)
}

// alloc appends an allocated cell holding payload and returns its offset.
func (b *builder) alloc(payload []byte) uint32 {
	off := uint32(len(b.bin))
	size := (len(payload) + 4 + 7) &^ 7
	cell := make([]byte, size)
	binary.LittleEndian.PutUint32(cell, uint32(-int32(size)))
	copy(cell[4:], payload)
	b.bin = append(b.bin, cell...)
	return off
}

func (b *builder) key(k *Key, root bool) uint32 {
	valueList := uint32(0xFFFFFFFF)
	if len(k.Values) > 0 {
		list := make([]byte, 4*len(k.Values))
		for i, v := range k.Values {
			binary.LittleEndian.PutUint32(list[i*4:], b.value(v))
		}
		valueList = b.alloc(list)
	}

	subkeyList := uint32(0xFFFFFFFF)
	if len(k.Subkeys) > 0 {
		offs := make([]uint32, len(k.Subkeys))
		for i, s := range k.Subkeys {
			offs[i] = b.key(s, false)
		}
		subkeyList = b.list(k.List, offs)
	}

	name, compressed := encodeName(k.Name)
	nk := make([]byte, 0x4C+len(name))
	copy(nk, "nk")
	flags := uint16(0)
	if compressed {
		flags |= 0x20
	}
	if root {
		flags |= 0x04 | 0x08
	}
	binary.LittleEndian.PutUint16(nk[0x02:], flags)
	binary.LittleEndian.PutUint32(nk[0x14:], uint32(len(k.Subkeys)))
	binary.LittleEndian.PutUint32(nk[0x1C:], subkeyList)
	binary.LittleEndian.PutUint32(nk[0x20:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(nk[0x24:], uint32(len(k.Values)))
	binary.LittleEndian.PutUint32(nk[0x28:], valueList)
	binary.LittleEndian.PutUint32(nk[0x2C:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(nk[0x30:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint16(nk[0x48:], uint16(len(name)))
	copy(nk[0x4C:], name)
	return b.alloc(nk)
}

func (b *builder) list(kind List, offs []uint32) uint32 {
	switch kind {
	case ListLI:
		return b.leaf("li", 4, offs)
	case ListRI:
		half := (len(offs) + 1) / 2
		leaves := []uint32{b.leaf("li", 4, offs[:half])}
		if half < len(offs) {
			leaves = append(leaves, b.leaf("li", 4, offs[half:]))
		}
		return b.leaf("ri", 4, leaves)
	case ListLF:
		return b.leaf("lf", 8, offs)
	default:
		return b.leaf("lh", 8, offs)
	}
}

func (b *builder) leaf(sig string, entry int, offs []uint32) uint32 {
	buf := make([]byte, 4+entry*len(offs))
	copy(buf, sig)
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(offs)))
	for i, o := range offs {
		binary.LittleEndian.PutUint32(buf[4+i*entry:], o)
	}
	return b.alloc(buf)
}

func (b *builder) value(v Value) uint32 {
	name, compressed := encodeName(v.Name)
	vk := make([]byte, 0x14+len(name))
	copy(vk, "vk")
	binary.LittleEndian.PutUint16(vk[0x02:], uint16(len(name)))
	n := len(v.Data)
	switch {
	case n <= 4:
		binary.LittleEndian.PutUint32(vk[0x04:], uint32(n)|0x80000000)
		copy(vk[0x08:0x0C], v.Data)
	case n > chunk:
		binary.LittleEndian.PutUint32(vk[0x04:], uint32(n))
		binary.LittleEndian.PutUint32(vk[0x08:], b.bigData(v.Data))
	default:
		binary.LittleEndian.PutUint32(vk[0x04:], uint32(n))
		binary.LittleEndian.PutUint32(vk[0x08:], b.alloc(v.Data))
	}
	binary.LittleEndian.PutUint32(vk[0x0C:], uint32(v.Type))
	if compressed {
		binary.LittleEndian.PutUint16(vk[0x10:], 0x01)
	}
	copy(vk[0x14:], name)
	return b.alloc(vk)
}

func (b *builder) bigData(data []byte) uint32 {
	var segs []uint32
	for len(data) > 0 {
		n := min(len(data), chunk)
		segs = append(segs, b.alloc(data[:n]))
		data = data[n:]
	}
	list := make([]byte, 4*len(segs))
	for i, s := range segs {
		binary.LittleEndian.PutUint32(list[i*4:], s)
	}
	listOff := b.alloc(list)
	db := make([]byte, 12)
	copy(db, "db")
	binary.LittleEndian.PutUint16(db[2:], uint16(len(segs)))
	binary.LittleEndian.PutUint32(db[4:], listOff)
	return b.alloc(db)
}

// encodeName stores ASCII names compressed and everything else as UTF-16LE.
func encodeName(s string) ([]byte, bool) {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return []byte(s), true
	}
	enc := ustr.EncodeRegString(s)
	return enc[:len(enc)-2], false
}
