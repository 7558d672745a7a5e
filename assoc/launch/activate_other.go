//go:build !windows

package launch

import "github.com/joshuapare/assockit/pkg/types"

// SystemActivator is the platform activator. Packaged apps only exist on
// Windows.
type SystemActivator struct{}

var errNoActivation = &types.Error{Kind: types.ErrKindUnsupported, Msg: "launch: packaged apps need Windows"}

// Activate implements Activator.
func (SystemActivator) Activate(string) (uint32, error) { return 0, errNoActivation }

// ActivateForFile implements Activator.
func (SystemActivator) ActivateForFile(string, []string, string) (uint32, error) {
	return 0, errNoActivation
}

// ActivateForProtocol implements Activator.
func (SystemActivator) ActivateForProtocol(string, []string) (uint32, error) {
	return 0, errNoActivation
}
