//go:build windows

package registry

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"sync"

	"golang.org/x/sys/windows"
	winreg "golang.org/x/sys/windows/registry"

	"github.com/joshuapare/assockit/pkg/types"
)

const liveAccess = winreg.QUERY_VALUE | winreg.ENUMERATE_SUB_KEYS

var liveRoots = map[Root]winreg.Key{
	ClassesRoot:   winreg.CLASSES_ROOT,
	CurrentUser:   winreg.CURRENT_USER,
	LocalMachine:  winreg.LOCAL_MACHINE,
	Users:         winreg.USERS,
	CurrentConfig: winreg.CURRENT_CONFIG,
}

// Live is the registry of the running system.
type Live struct {
	log *slog.Logger
}

var _ Registry = (*Live)(nil)

// OpenLive returns the system registry.
func OpenLive() (*Live, error) {
	return &Live{log: slog.Default()}, nil
}

func openLive(path string, access uint32) (winreg.Key, string, error) {
	root, parts, err := SplitPath(path)
	if err != nil {
		return 0, "", err
	}
	rel := Join("", parts...)
	k, err := winreg.OpenKey(liveRoots[root], rel, access)
	if err != nil {
		return 0, "", err
	}
	return k, Join(string(root), parts...), nil
}

// Open implements Registry.
func (l *Live) Open(path string) (Key, bool) {
	k, clean, err := openLive(path, liveAccess)
	if err != nil {
		return nil, false
	}
	return &liveKey{k: k, path: clean}, true
}

// Watch implements Registry. Each watch holds its own key handle and
// event; the wait loop re-arms RegNotifyChangeKeyValue after every
// signal since a notification fires only once.
func (l *Live) Watch(path string, recursive bool, ev types.Events, fn func()) (Watch, error) {
	k, _, err := openLive(path, winreg.NOTIFY)
	if err != nil {
		return nil, &types.Error{Kind: types.ErrKindNotFound, Msg: "registry: watch " + path, Err: err}
	}
	filter := notifyFilter(ev)
	event, err := windows.CreateEvent(nil, 0, 0, nil)
	if err != nil {
		k.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	stop, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		k.Close()
		windows.CloseHandle(event)
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := windows.RegNotifyChangeKeyValue(windows.Handle(k), recursive, filter, event, true); err != nil {
		k.Close()
		windows.CloseHandle(event)
		windows.CloseHandle(stop)
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w := &liveWatch{stop: stop, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		defer k.Close()
		defer windows.CloseHandle(event)
		for {
			r, err := windows.WaitForMultipleObjects([]windows.Handle{event, stop}, false, windows.INFINITE)
			if err != nil {
				l.log.Warn("registry watch failed", "path", path, "error", err)
				return
			}
			if r != windows.WAIT_OBJECT_0 {
				return
			}
			if err := windows.RegNotifyChangeKeyValue(windows.Handle(k), recursive, filter, event, true); err != nil {
				// The key was deleted; nothing left to watch.
				l.log.Debug("registry watch ended", "path", path, "error", err)
				fn()
				return
			}
			fn()
		}
	}()
	return w, nil
}

func notifyFilter(ev types.Events) uint32 {
	if ev == 0 {
		ev = types.EventsAll
	}
	var f uint32
	if ev&types.EventName != 0 {
		f |= windows.REG_NOTIFY_CHANGE_NAME
	}
	if ev&types.EventAttributes != 0 {
		f |= windows.REG_NOTIFY_CHANGE_ATTRIBUTES
	}
	if ev&types.EventValues != 0 {
		f |= windows.REG_NOTIFY_CHANGE_LAST_SET
	}
	if ev&types.EventSecurity != 0 {
		f |= windows.REG_NOTIFY_CHANGE_SECURITY
	}
	return f
}

type liveWatch struct {
	once sync.Once
	stop windows.Handle
	done chan struct{}
}

func (w *liveWatch) Close() error {
	var err error
	w.once.Do(func() {
		err = windows.SetEvent(w.stop)
		<-w.done
		windows.CloseHandle(w.stop)
	})
	return err
}

type liveKey struct {
	k    winreg.Key
	path string
}

func (k *liveKey) Path() string { return k.path }

func (k *liveKey) Subkeys() iter.Seq[string] {
	return func(yield func(string) bool) {
		names, err := k.k.ReadSubKeyNames(0)
		if err != nil && !errors.Is(err, io.EOF) {
			return
		}
		for _, n := range names {
			if !yield(n) {
				return
			}
		}
	}
}

func (k *liveKey) Values() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		names, err := k.k.ReadValueNames(0)
		if err != nil && !errors.Is(err, io.EOF) {
			return
		}
		for _, n := range names {
			v, ok := k.raw(n)
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

func (k *liveKey) raw(name string) (Value, bool) {
	size, typ, err := k.k.GetValue(name, nil)
	if err != nil {
		return Value{}, false
	}
	buf := make([]byte, size)
	if size > 0 {
		if _, _, err := k.k.GetValue(name, buf); err != nil {
			return Value{}, false
		}
	}
	t := types.RegType(typ)
	return Value{Name: name, Kind: KindOf(t), Type: t, Data: buf}, true
}

func (k *liveKey) ReadString(name string) (string, bool) {
	s, typ, err := k.k.GetStringValue(name)
	if err != nil {
		return "", false
	}
	if typ == winreg.EXPAND_SZ {
		if exp, err := winreg.ExpandString(s); err == nil {
			s = exp
		}
	}
	return s, true
}

func (k *liveKey) ReadMUIString(name string) (string, bool) {
	if s, err := k.k.GetMUIStringValue(name); err == nil {
		return s, true
	}
	return k.ReadString(name)
}

func (k *liveKey) HasValue(name string) bool {
	_, _, err := k.k.GetValue(name, nil)
	return err == nil || errors.Is(err, winreg.ErrShortBuffer)
}

func (k *liveKey) OpenSubkey(rel string) (Key, bool) {
	sub, err := winreg.OpenKey(k.k, rel, liveAccess)
	if err != nil {
		return nil, false
	}
	return &liveKey{k: sub, path: Join(k.path, rel)}, true
}

func (k *liveKey) Close() error { return k.k.Close() }
