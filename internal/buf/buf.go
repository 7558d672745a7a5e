// Package buf reads little-endian fields out of hive cells without
// panicking on truncated input.
package buf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// U16 reads the little-endian uint16 at off. Out-of-range reads return 0.
func U16(b []byte, off int) uint16 {
	if s, ok := Slice(b, off, 2); ok {
		return binary.LittleEndian.Uint16(s)
	}
	return 0
}

// U32 reads the little-endian uint32 at off. Out-of-range reads return 0.
func U32(b []byte, off int) uint32 {
	if s, ok := Slice(b, off, 4); ok {
		return binary.LittleEndian.Uint32(s)
	}
	return 0
}

// I32 reads the little-endian int32 at off. Cell sizes use it.
func I32(b []byte, off int) int32 { return int32(U32(b, off)) }

// Slice returns b[off:off+n] if it fits.
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) || n > math.MaxInt-off {
		return nil, false
	}
	if off+n > len(b) {
		return nil, false
	}
	return b[off : off+n], true
}

// List checks that count entries of size bytes fit in b from off and
// returns that region.
func List(b []byte, off, count, size int) ([]byte, error) {
	if count < 0 || size < 0 {
		return nil, fmt.Errorf("list: negative count %d or size %d", count, size)
	}
	if size > 0 && count > math.MaxInt/size {
		return nil, fmt.Errorf("list: %d entries of %d bytes overflow", count, size)
	}
	s, ok := Slice(b, off, count*size)
	if !ok {
		return nil, fmt.Errorf("list: %d entries of %d bytes at %d exceed %d", count, size, off, len(b))
	}
	return s, nil
}
