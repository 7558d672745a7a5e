//go:build !windows

package packaged

import "github.com/joshuapare/assockit/pkg/types"

// SystemLoader resolves indirect strings with the platform loader, which
// only exists on Windows.
type SystemLoader struct{}

// Load implements IndirectLoader.
func (SystemLoader) Load(ref string, size int) (string, error) {
	return "", &types.Error{Kind: types.ErrKindUnsupported, Msg: "packaged: indirect strings need Windows"}
}
