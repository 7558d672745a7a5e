package registry

import (
	"encoding/binary"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/joshuapare/assockit/internal/regtext"
	"github.com/joshuapare/assockit/internal/ustr"
	"github.com/joshuapare/assockit/pkg/types"
)

// node is one key of an in-memory tree. Children and values keep their
// insertion order; lookups go through the folded-name indexes.
type node struct {
	name     string
	kids     map[string]*node
	kidOrder []string
	vals     map[string]Value
	valOrder []string
}

func newNode(name string) *node {
	return &node{name: name, kids: map[string]*node{}, vals: map[string]Value{}}
}

func (n *node) child(name string) *node { return n.kids[ustr.Fold(name)] }

func (n *node) addChild(c *node) {
	f := ustr.Fold(c.name)
	if _, ok := n.kids[f]; !ok {
		n.kidOrder = append(n.kidOrder, f)
	}
	n.kids[f] = c
}

func (n *node) removeChild(name string) bool {
	f := ustr.Fold(name)
	if _, ok := n.kids[f]; !ok {
		return false
	}
	delete(n.kids, f)
	n.kidOrder = slices.DeleteFunc(n.kidOrder, func(s string) bool { return s == f })
	return true
}

func (n *node) setValue(v Value) {
	f := ustr.Fold(v.Name)
	if _, ok := n.vals[f]; !ok {
		n.valOrder = append(n.valOrder, f)
	}
	n.vals[f] = v
}

func (n *node) removeValue(name string) bool {
	f := ustr.Fold(name)
	if _, ok := n.vals[f]; !ok {
		return false
	}
	delete(n.vals, f)
	n.valOrder = slices.DeleteFunc(n.valOrder, func(s string) bool { return s == f })
	return true
}

// clone deep-copies the subtree. Value data is shared; it is never
// mutated in place.
func (n *node) clone() *node {
	c := newNode(n.name)
	for _, f := range n.kidOrder {
		c.addChild(n.kids[f].clone())
	}
	for _, f := range n.valOrder {
		c.setValue(n.vals[f])
	}
	return c
}

// overlay merges src into n: src values replace n's and src children are
// merged recursively.
func (n *node) overlay(src *node) {
	for _, f := range src.valOrder {
		n.setValue(src.vals[f])
	}
	for _, f := range src.kidOrder {
		sc := src.kids[f]
		if dc, ok := n.kids[f]; ok {
			dc.overlay(sc)
			continue
		}
		n.addChild(sc.clone())
	}
}

// Memory is an editable registry held in memory. Every root exists and
// starts empty. Mutations notify matching watches asynchronously.
type Memory struct {
	mu       sync.RWMutex
	roots    map[Root]*node
	indirect map[string]string
	watches  watchSet

	// Environment resolves %VAR% in expand-strings. os.LookupEnv is used
	// when nil.
	Environment func(name string) (string, bool)
}

var _ Registry = (*Memory)(nil)

// NewMemory returns an empty registry.
func NewMemory() *Memory {
	m := &Memory{roots: map[Root]*node{}, indirect: map[string]string{}}
	for _, r := range Roots {
		m.roots[r] = newNode(string(r))
	}
	return m
}

// find walks to path. The caller holds mu.
func (m *Memory) find(root Root, parts []string) *node {
	n := m.roots[root]
	for _, p := range parts {
		if n = n.child(p); n == nil {
			return nil
		}
	}
	return n
}

// Open implements Registry.
func (m *Memory) Open(path string) (Key, bool) {
	root, parts, err := SplitPath(path)
	if err != nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.find(root, parts)
	if n == nil {
		return nil, false
	}
	return &memKey{m: m, path: Join(string(root), parts...), n: n}, true
}

// CreateKey creates path and any missing parents.
func (m *Memory) CreateKey(path string) error {
	root, parts, err := SplitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	created := m.ensure(root, parts)
	m.mu.Unlock()
	for _, p := range created {
		m.watches.notify(p, types.EventName, false)
	}
	return nil
}

// ensure creates missing keys and returns the folded paths it created.
// The caller holds mu.
func (m *Memory) ensure(root Root, parts []string) []string {
	var created []string
	n := m.roots[root]
	cur := string(root)
	for _, p := range parts {
		cur = Join(cur, p)
		c := n.child(p)
		if c == nil {
			c = newNode(p)
			n.addChild(c)
			created = append(created, foldedPath(cur))
		}
		n = c
	}
	return created
}

// DeleteKey removes path and everything below it. Deleting a missing key
// is not an error; roots cannot be deleted.
func (m *Memory) DeleteKey(path string) error {
	root, parts, err := SplitPath(path)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return &types.Error{Kind: types.ErrKindInvalidArgument, Msg: "registry: cannot delete root " + string(root)}
	}
	m.mu.Lock()
	parent := m.find(root, parts[:len(parts)-1])
	removed := parent != nil && parent.removeChild(parts[len(parts)-1])
	m.mu.Unlock()
	if removed {
		m.watches.notify(foldedPath(Join(string(root), parts...)), types.EventName, true)
	}
	return nil
}

// SetValue stores a value, creating the key when needed.
func (m *Memory) SetValue(path, name string, t types.RegType, data []byte) error {
	root, parts, err := SplitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	created := m.ensure(root, parts)
	m.find(root, parts).setValue(Value{Name: name, Kind: KindOf(t), Type: t, Data: slices.Clone(data)})
	m.mu.Unlock()
	for _, p := range created {
		m.watches.notify(p, types.EventName, false)
	}
	m.watches.notify(foldedPath(Join(string(root), parts...)), types.EventValues, false)
	return nil
}

// SetString stores a REG_SZ value.
func (m *Memory) SetString(path, name, s string) error {
	return m.SetValue(path, name, types.REG_SZ, ustr.EncodeRegString(s))
}

// SetExpandString stores a REG_EXPAND_SZ value.
func (m *Memory) SetExpandString(path, name, s string) error {
	return m.SetValue(path, name, types.REG_EXPAND_SZ, ustr.EncodeRegString(s))
}

// SetDWord stores a REG_DWORD value.
func (m *Memory) SetDWord(path, name string, v uint32) error {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return m.SetValue(path, name, types.REG_DWORD, b)
}

// DeleteValue removes a value. Missing keys and values are ignored.
func (m *Memory) DeleteValue(path, name string) error {
	root, parts, err := SplitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	n := m.find(root, parts)
	removed := n != nil && n.removeValue(name)
	m.mu.Unlock()
	if removed {
		m.watches.notify(foldedPath(Join(string(root), parts...)), types.EventValues, false)
	}
	return nil
}

// SetIndirectString registers the text an "@dll,-id" reference resolves
// to in ReadMUIString.
func (m *Memory) SetIndirectString(ref, text string) {
	m.mu.Lock()
	m.indirect[ustr.Fold(ref)] = text
	m.mu.Unlock()
}

// LoadReg applies the operations of a .reg file.
func (m *Memory) LoadReg(data []byte) error {
	ops, err := regtext.Parse(data)
	if err != nil {
		return err
	}
	for _, op := range ops {
		switch op := op.(type) {
		case regtext.CreateKey:
			err = m.CreateKey(op.Path)
		case regtext.DeleteKey:
			err = m.DeleteKey(op.Path)
		case regtext.SetValue:
			err = m.SetValue(op.Path, op.Name, op.Type, op.Data)
		case regtext.DeleteValue:
			err = m.DeleteValue(op.Path, op.Name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// graft replaces the subtree at path with n, renamed to the last path
// component, and notifies every watch in or above it.
func (m *Memory) graft(path string, n *node) error {
	root, parts, err := SplitPath(path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if len(parts) == 0 {
		n.name = string(root)
		m.roots[root] = n
	} else {
		m.ensure(root, parts[:len(parts)-1])
		n.name = parts[len(parts)-1]
		m.find(root, parts[:len(parts)-1]).addChild(n)
	}
	m.mu.Unlock()
	m.watches.notify(foldedPath(Join(string(root), parts...)), types.EventName|types.EventValues, true)
	return nil
}

// subtree returns a copy of the subtree at path, or nil.
func (m *Memory) subtree(path string) *node {
	root, parts, err := SplitPath(path)
	if err != nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n := m.find(root, parts); n != nil {
		return n.clone()
	}
	return nil
}

// Watch implements Registry. The key must exist. A zero ev watches
// everything.
func (m *Memory) Watch(path string, recursive bool, ev types.Events, fn func()) (Watch, error) {
	clean, err := Clean(path)
	if err != nil {
		return nil, err
	}
	if _, ok := m.Open(clean); !ok {
		return nil, &types.Error{Kind: types.ErrKindNotFound, Msg: "registry: watch " + clean}
	}
	if ev == 0 {
		ev = types.EventsAll
	}
	return m.watches.add(foldedPath(clean), recursive, ev, fn), nil
}

// memKey is a handle on a node. It keeps working after the node is
// deleted and then sees the detached subtree.
type memKey struct {
	m    *Memory
	path string
	n    *node
}

func (k *memKey) Path() string { return k.path }

func (k *memKey) Subkeys() iter.Seq[string] {
	return func(yield func(string) bool) {
		k.m.mu.RLock()
		names := make([]string, 0, len(k.n.kidOrder))
		for _, f := range k.n.kidOrder {
			names = append(names, k.n.kids[f].name)
		}
		k.m.mu.RUnlock()
		for _, name := range names {
			if !yield(name) {
				return
			}
		}
	}
}

func (k *memKey) Values() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		k.m.mu.RLock()
		vals := make([]Value, 0, len(k.n.valOrder))
		for _, f := range k.n.valOrder {
			vals = append(vals, k.n.vals[f])
		}
		k.m.mu.RUnlock()
		for _, v := range vals {
			if !yield(v) {
				return
			}
		}
	}
}

func (k *memKey) value(name string) (Value, bool) {
	k.m.mu.RLock()
	defer k.m.mu.RUnlock()
	v, ok := k.n.vals[ustr.Fold(name)]
	return v, ok
}

func (k *memKey) ReadString(name string) (string, bool) {
	v, ok := k.value(name)
	if !ok {
		return "", false
	}
	return decodeString(v, k.m.Environment)
}

func (k *memKey) ReadMUIString(name string) (string, bool) {
	s, ok := k.ReadString(name)
	if !ok || !strings.HasPrefix(s, "@") {
		return s, ok
	}
	k.m.mu.RLock()
	text, found := k.m.indirect[ustr.Fold(s)]
	k.m.mu.RUnlock()
	if found {
		return text, true
	}
	return s, true
}

func (k *memKey) HasValue(name string) bool {
	_, ok := k.value(name)
	return ok
}

func (k *memKey) OpenSubkey(rel string) (Key, bool) {
	return k.m.Open(Join(k.path, rel))
}

func (k *memKey) Close() error { return nil }

// decodeString turns string-kind value data into text.
func decodeString(v Value, env func(string) (string, bool)) (string, bool) {
	if v.Kind == KindOther {
		return "", false
	}
	s, err := ustr.DecodeRegString(v.Data)
	if err != nil {
		return "", false
	}
	if v.Kind == KindExpandString {
		s = ExpandEnv(s, env)
	}
	return s, true
}
