package regf

import (
	"fmt"

	"github.com/joshuapare/assockit/internal/buf"
	"github.com/joshuapare/assockit/pkg/types"
)

// Value is a decoded vk record with its data resolved.
type Value struct {
	Name string
	Type types.RegType
	Data []byte
}

// Values decodes every value of the key in list order.
func (k Key) Values() ([]Value, error) {
	if k.valueCount == 0 || k.valueList == invalidOffset {
		return nil, nil
	}
	list, err := k.h.cell(k.valueList)
	if err != nil {
		return nil, fmt.Errorf("value list: %w", err)
	}
	n := int(k.valueCount)
	if _, err := buf.List(list, 0, n, 4); err != nil {
		return nil, fmt.Errorf("value list: %w: %w", err, types.ErrCorrupt)
	}
	out := make([]Value, 0, n)
	for i := range n {
		v, err := k.h.value(buf.U32(list, i*4))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// value decodes a vk cell.
//
//	Offset  Size  Field
//	0x00    2     'v' 'k'
//	0x02    2     Name length (0 => default value)
//	0x04    4     Data length (high bit => data stored inline)
//	0x08    4     Data offset, or the data itself when inline
//	0x0C    4     Type
//	0x10    2     Flags (0x01 => compressed name)
//	0x14    n     Name
func (h *Hive) value(off uint32) (Value, error) {
	b, err := h.cell(off)
	if err != nil {
		return Value{}, fmt.Errorf("vk: %w", err)
	}
	if len(b) < vkNameOffset || string(b[:2]) != sigVK {
		return Value{}, fmt.Errorf("vk 0x%x: bad record: %w", off, types.ErrCorrupt)
	}
	nameLen := int(buf.U16(b, vkNameLenOffset))
	if vkNameOffset+nameLen > len(b) {
		return Value{}, fmt.Errorf("vk 0x%x: name overruns cell: %w", off, types.ErrCorrupt)
	}
	name, err := decodeName(b[vkNameOffset:vkNameOffset+nameLen], buf.U16(b, vkFlagsOffset)&VKFlagASCIIName != 0)
	if err != nil {
		return Value{}, fmt.Errorf("vk 0x%x name: %w", off, err)
	}
	data, err := h.valueData(b, buf.U32(b, vkDataLenOffset), buf.U32(b, vkDataOffOffset))
	if err != nil {
		return Value{}, fmt.Errorf("vk %q: %w", name, err)
	}
	return Value{Name: name, Type: types.RegType(buf.U32(b, vkTypeOffset)), Data: data}, nil
}

func (h *Hive) valueData(vk []byte, length, off uint32) ([]byte, error) {
	if length&VKDataInline != 0 {
		n := int(length &^ VKDataInline)
		if n > 4 {
			return nil, fmt.Errorf("inline data of %d bytes: %w", n, types.ErrCorrupt)
		}
		return vk[vkDataOffOffset : vkDataOffOffset+n], nil
	}
	if length == 0 {
		return nil, nil
	}
	b, err := h.cell(off)
	if err != nil {
		return nil, err
	}
	if length > DBChunkSize && len(b) >= 2 && string(b[:2]) == sigDB {
		return h.bigData(b, int(length))
	}
	if int(length) > len(b) {
		return nil, fmt.Errorf("data of %d bytes in %d byte cell: %w", length, len(b), types.ErrCorrupt)
	}
	return b[:length], nil
}

// bigData joins the segments of a db record.
//
//	Offset  Size  Field
//	0x00    2     'd' 'b'
//	0x02    2     Number of segments
//	0x04    4     Offset of the segment list cell
func (h *Hive) bigData(db []byte, length int) ([]byte, error) {
	if len(db) < dbListOffset+4 {
		return nil, fmt.Errorf("db: %w", types.ErrCorrupt)
	}
	count := int(buf.U16(db, dbCountOffset))
	list, err := h.cell(buf.U32(db, dbListOffset))
	if err != nil {
		return nil, fmt.Errorf("db list: %w", err)
	}
	if _, err := buf.List(list, 0, count, 4); err != nil {
		return nil, fmt.Errorf("db list: %w: %w", err, types.ErrCorrupt)
	}
	out := make([]byte, 0, length)
	for i := 0; i < count && len(out) < length; i++ {
		seg, err := h.cell(buf.U32(list, i*4))
		if err != nil {
			return nil, fmt.Errorf("db segment %d: %w", i, err)
		}
		take := min(len(seg), DBChunkSize, length-len(out))
		out = append(out, seg[:take]...)
	}
	if len(out) != length {
		return nil, fmt.Errorf("db: got %d of %d bytes: %w", len(out), length, types.ErrCorrupt)
	}
	return out, nil
}
