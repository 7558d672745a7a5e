//go:build windows

package launch

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/joshuapare/assockit/pkg/types"
)

var (
	ole32                                = windows.NewLazySystemDLL("ole32.dll")
	procCoCreateInstance                 = ole32.NewProc("CoCreateInstance")
	shell32                              = windows.NewLazySystemDLL("shell32.dll")
	procSHParseDisplayName               = shell32.NewProc("SHParseDisplayName")
	procSHCreateShellItemArrayFromIDList = shell32.NewProc("SHCreateShellItemArrayFromIDLists")

	clsidApplicationActivationManager = windows.GUID{
		Data1: 0x45ba127d, Data2: 0x10a8, Data3: 0x46ea,
		Data4: [8]byte{0x8a, 0xb7, 0x56, 0xea, 0x90, 0x78, 0x94, 0x3c},
	}
	iidIApplicationActivationManager = windows.GUID{
		Data1: 0x2e941141, Data2: 0x7f97, Data3: 0x4756,
		Data4: [8]byte{0xba, 0x1d, 0x9d, 0xec, 0xde, 0x89, 0x4a, 0x3d},
	}
)

const (
	clsctxInprocServer = 0x1
	aoNone             = 0

	// IApplicationActivationManager vtable slots after IUnknown.
	vtblRelease             = 2
	vtblActivateApplication = 3
	vtblActivateForFile     = 4
	vtblActivateForProtocol = 5
)

// SystemActivator activates packaged apps through
// IApplicationActivationManager.
type SystemActivator struct{}

// Activate implements Activator.
func (SystemActivator) Activate(aumid string) (uint32, error) {
	return withManager(aumid, nil, func(mgr, id, _ uintptr, pid *uint32) uintptr {
		return comCall(mgr, vtblActivateApplication, id, 0, aoNone, uintptr(unsafe.Pointer(pid)))
	})
}

// ActivateForFile implements Activator.
func (SystemActivator) ActivateForFile(aumid string, items []string, verb string) (uint32, error) {
	v, err := windows.UTF16PtrFromString(verb)
	if err != nil {
		return 0, &types.Error{Kind: types.ErrKindEncoding, Msg: "launch: bad verb", Err: err}
	}
	return withManager(aumid, items, func(mgr, id, arr uintptr, pid *uint32) uintptr {
		return comCall(mgr, vtblActivateForFile, id, arr, uintptr(unsafe.Pointer(v)), uintptr(unsafe.Pointer(pid)))
	})
}

// ActivateForProtocol implements Activator.
func (SystemActivator) ActivateForProtocol(aumid string, items []string) (uint32, error) {
	return withManager(aumid, items, func(mgr, id, arr uintptr, pid *uint32) uintptr {
		return comCall(mgr, vtblActivateForProtocol, id, arr, uintptr(unsafe.Pointer(pid)))
	})
}

type activateFunc func(mgr, aumid, items uintptr, pid *uint32) uintptr

// withManager runs fn against a fresh activation manager on a locked,
// COM-initialized thread. The shell item array, if any, lives in the same
// apartment.
func withManager(aumid string, items []string, fn activateFunc) (uint32, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := windows.CoInitializeEx(0, windows.COINIT_APARTMENTTHREADED); err == nil || err == syscall.Errno(1) {
		defer windows.CoUninitialize()
	}

	id, err := windows.UTF16PtrFromString(aumid)
	if err != nil {
		return 0, &types.Error{Kind: types.ErrKindEncoding, Msg: "launch: bad AUMID", Err: err}
	}

	var mgr uintptr
	hr, _, _ := procCoCreateInstance.Call(
		uintptr(unsafe.Pointer(&clsidApplicationActivationManager)),
		0,
		clsctxInprocServer,
		uintptr(unsafe.Pointer(&iidIApplicationActivationManager)),
		uintptr(unsafe.Pointer(&mgr)),
	)
	if Failed(hr) {
		return 0, fmt.Errorf("failed to create ApplicationActivationManager: %w", HResult(hr))
	}
	defer comCall(mgr, vtblRelease)

	var arr uintptr
	if len(items) > 0 {
		if arr, err = itemArray(items); err != nil {
			return 0, err
		}
		defer comCall(arr, vtblRelease)
	}

	var pid uint32
	if hr := fn(mgr, uintptr(unsafe.Pointer(id)), arr, &pid); Failed(hr) {
		return 0, HResult(hr)
	}
	return pid, nil
}

// itemArray parses every item into an ID list and wraps them in an
// IShellItemArray.
func itemArray(items []string) (uintptr, error) {
	pidls := make([]uintptr, 0, len(items))
	defer func() {
		for _, p := range pidls {
			windows.CoTaskMemFree(unsafe.Pointer(p))
		}
	}()
	for _, it := range items {
		s, err := windows.UTF16PtrFromString(it)
		if err != nil {
			return 0, &types.Error{Kind: types.ErrKindInvalidArgument, Msg: "launch: bad item " + it, Err: err}
		}
		var pidl uintptr
		hr, _, _ := procSHParseDisplayName.Call(uintptr(unsafe.Pointer(s)), 0, uintptr(unsafe.Pointer(&pidl)), 0, 0)
		if Failed(hr) {
			return 0, fmt.Errorf("file or URI %q cannot be parsed by SHParseDisplayName: %w", it, HResult(hr))
		}
		pidls = append(pidls, pidl)
	}
	var arr uintptr
	hr, _, _ := procSHCreateShellItemArrayFromIDList.Call(uintptr(len(pidls)), uintptr(unsafe.Pointer(&pidls[0])), uintptr(unsafe.Pointer(&arr)))
	if Failed(hr) {
		return 0, fmt.Errorf("SHCreateShellItemArrayFromIDLists: %w", HResult(hr))
	}
	return arr, nil
}

// comCall invokes vtable slot n of the COM object obj.
func comCall(obj uintptr, n int, args ...uintptr) uintptr {
	vtbl := *(*unsafe.Pointer)(unsafe.Pointer(obj))
	fn := *(*uintptr)(unsafe.Add(vtbl, uintptr(n)*unsafe.Sizeof(uintptr(0))))
	r, _, _ := syscall.SyscallN(fn, append([]uintptr{obj}, args...)...)
	return r
}
