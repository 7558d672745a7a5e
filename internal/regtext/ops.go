// Package regtext parses regedit .reg exports into a list of operations.
// Tests and the reg-file source seed the in-memory registry with them.
package regtext

import "github.com/joshuapare/assockit/pkg/types"

// Op is one change described by a .reg file.
type Op interface{ isOp() }

// CreateKey creates Path and any missing parents.
type CreateKey struct{ Path string }

// DeleteKey removes Path and its subtree.
type DeleteKey struct{ Path string }

// SetValue stores Data under Name ("" is the default value) of Path.
type SetValue struct {
	Path string
	Name string
	Type types.RegType
	Data []byte
}

// DeleteValue removes Name from Path.
type DeleteValue struct {
	Path string
	Name string
}

func (CreateKey) isOp()   {}
func (DeleteKey) isOp()   {}
func (SetValue) isOp()    {}
func (DeleteValue) isOp() {}
