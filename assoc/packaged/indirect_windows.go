//go:build windows

package packaged

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/joshuapare/assockit/pkg/types"
)

var (
	shlwapi                  = windows.NewLazySystemDLL("shlwapi.dll")
	procSHLoadIndirectString = shlwapi.NewProc("SHLoadIndirectString")
)

// SystemLoader resolves indirect strings with SHLoadIndirectString.
type SystemLoader struct{}

// Load implements IndirectLoader.
func (SystemLoader) Load(ref string, size int) (string, error) {
	if err := procSHLoadIndirectString.Find(); err != nil {
		return "", &types.Error{Kind: types.ErrKindUnsupported, Msg: "packaged: SHLoadIndirectString unavailable", Err: err}
	}
	src, err := windows.UTF16PtrFromString(ref)
	if err != nil {
		return "", &types.Error{Kind: types.ErrKindEncoding, Msg: "packaged: bad indirect string", Err: err}
	}
	buf := make([]uint16, size)
	hr, _, _ := procSHLoadIndirectString.Call(
		uintptr(unsafe.Pointer(src)),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(size),
		0,
	)
	if int32(hr) < 0 {
		return "", &types.Error{Kind: types.ErrKindNotFound, Msg: fmt.Sprintf("packaged: SHLoadIndirectString(%s): 0x%x", ref, uint32(hr))}
	}
	return windows.UTF16ToString(buf), nil
}
