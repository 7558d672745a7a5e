// Package regf decodes Windows registry hive files (REGF) for read-only
// traversal. Only the structures needed to walk keys and read values are
// interpreted; security descriptors, class names, and transaction logs are
// ignored.
package regf

import (
	"bytes"
	"fmt"

	"github.com/joshuapare/assockit/internal/buf"
	"github.com/joshuapare/assockit/pkg/types"
)

// Header carries the base block fields the decoder uses.
//
//	Offset  Size  Description
//	------  ----  ---------------------------------------------
//	 0x000   4    'r' 'e' 'g' 'f'
//	 0x014   4    Major version
//	 0x018   4    Minor version
//	 0x024   4    Root cell offset (relative to the first hbin)
//	 0x028   4    Total size of hbin data
type Header struct {
	MajorVersion   uint32
	MinorVersion   uint32
	RootCellOffset uint32
	DataSize       uint32
}

// Hive is a decoded hive image held in memory.
type Hive struct {
	data   []byte
	header Header
}

// Parse validates the base block and first hbin of b. The slice is
// retained; callers must not modify it afterwards.
func Parse(b []byte) (*Hive, error) {
	if len(b) < HeaderSize || !bytes.Equal(b[:4], sigREGF) {
		return nil, types.ErrNotHive
	}
	h := Header{
		MajorVersion:   buf.U32(b, headerMajorOffset),
		MinorVersion:   buf.U32(b, headerMinorOffset),
		RootCellOffset: buf.U32(b, headerRootCellOffset),
		DataSize:       buf.U32(b, headerDataSizeOffset),
	}
	if h.MajorVersion != 1 {
		return nil, &types.Error{Kind: types.ErrKindFormat, Msg: fmt.Sprintf("regf: unsupported version %d.%d", h.MajorVersion, h.MinorVersion)}
	}
	if len(b) < HeaderSize+4 || !bytes.Equal(b[HeaderSize:HeaderSize+4], sigHBIN) {
		return nil, fmt.Errorf("regf: first hbin: %w", types.ErrCorrupt)
	}
	return &Hive{data: b, header: h}, nil
}

// Header returns the decoded base block.
func (h *Hive) Header() Header { return h.header }

// Root returns the hive's root key.
func (h *Hive) Root() (Key, error) {
	return h.key(h.header.RootCellOffset)
}

// cell returns the payload of the allocated cell at off. Cell sizes are
// stored negated while the cell is in use.
func (h *Hive) cell(off uint32) ([]byte, error) {
	if off == invalidOffset {
		return nil, fmt.Errorf("cell: invalid offset: %w", types.ErrCorrupt)
	}
	abs := HeaderSize + int(off)
	if _, ok := buf.Slice(h.data, abs, cellHeaderSize); !ok {
		return nil, fmt.Errorf("cell 0x%x: out of range: %w", off, types.ErrCorrupt)
	}
	raw := buf.I32(h.data, abs)
	if raw >= 0 {
		return nil, fmt.Errorf("cell 0x%x: not allocated: %w", off, types.ErrCorrupt)
	}
	size := int(-raw)
	payload, ok := buf.Slice(h.data, abs+cellHeaderSize, size-cellHeaderSize)
	if size < cellHeaderSize || !ok {
		return nil, fmt.Errorf("cell 0x%x: bad size %d: %w", off, size, types.ErrCorrupt)
	}
	return payload, nil
}

