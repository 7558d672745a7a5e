package launch

import "fmt"

// Activator starts packaged apps by AUMID. Items are file paths or URIs;
// the activator turns them into a shell item array.
type Activator interface {
	Activate(aumid string) (pid uint32, err error)
	ActivateForFile(aumid string, items []string, verb string) (pid uint32, err error)
	ActivateForProtocol(aumid string, items []string) (pid uint32, err error)
}

// HResult is a failed COM status code.
type HResult uint32

// EFail is the generic COM failure.
const EFail HResult = 0x80004005

func (h HResult) Error() string { return fmt.Sprintf("HRESULT 0x%08x", uint32(h)) }

// Failed reports whether a raw status is a failure.
func Failed(hr uintptr) bool { return int32(uint32(hr)) < 0 }
