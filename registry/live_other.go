//go:build !windows

package registry

import "github.com/joshuapare/assockit/pkg/types"

// Live is the registry of the running system. It is only available on
// Windows.
type Live struct{}

var _ Registry = (*Live)(nil)

var errNoLive = &types.Error{Kind: types.ErrKindUnsupported, Msg: "registry: live registry requires Windows"}

// OpenLive fails on this platform.
func OpenLive() (*Live, error) { return nil, errNoLive }

// Open implements Registry.
func (*Live) Open(string) (Key, bool) { return nil, false }

// Watch implements Registry.
func (*Live) Watch(string, bool, types.Events, func()) (Watch, error) { return nil, errNoLive }
