package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/joshuapare/assockit/internal/regf"
	"github.com/joshuapare/assockit/pkg/types"
)

// Mount points of the offline hives.
const (
	SoftwareMount = `HKEY_LOCAL_MACHINE\Software`
	NTUserMount   = `HKEY_CURRENT_USER`
	UsrClassMount = `HKEY_CURRENT_USER\Software\Classes`

	machineClasses = `HKEY_LOCAL_MACHINE\Software\Classes`
)

// HiveSet names the hive files to mount. Empty entries are skipped.
type HiveSet struct {
	Software string // SOFTWARE
	NTUser   string // NTUSER.DAT
	UsrClass string // UsrClass.dat
}

// HiveOption configures OpenHives.
type HiveOption func(*Hives)

// WithFs reads hive files through fs instead of the OS.
func WithFs(fs afero.Fs) HiveOption { return func(h *Hives) { h.fs = fs } }

// WithHiveLogger sets the logger used for reload failures.
func WithHiveLogger(l *slog.Logger) HiveOption { return func(h *Hives) { h.log = l } }

// Hives is a read-only registry assembled from offline hive files.
// HKEY_CLASSES_ROOT is the merge of the user's classes over the
// machine's, rebuilt whenever either side reloads.
//
// Hive files are decoded whole into memory. Watching starts an fsnotify
// watcher on the hives' directories; a write to a hive file reloads it
// and fires the watches on and around its mount point.
type Hives struct {
	mem    *Memory
	fs     afero.Fs
	log    *slog.Logger
	mounts map[string]string // cleaned file path -> mount point

	watchOnce sync.Once
	watchErr  error
	watcher   *fsnotify.Watcher
	done      chan struct{}
	reloadMu  sync.Mutex
}

var _ Registry = (*Hives)(nil)

// OpenHives decodes the hives in set and mounts them.
func OpenHives(set HiveSet, opts ...HiveOption) (*Hives, error) {
	h := &Hives{
		mem:    NewMemory(),
		fs:     afero.NewOsFs(),
		log:    slog.Default(),
		mounts: map[string]string{},
		done:   make(chan struct{}),
	}
	for _, o := range opts {
		o(h)
	}
	// NTUSER first so a separate UsrClass replaces its Classes subtree.
	for _, m := range []struct{ file, mount string }{
		{set.Software, SoftwareMount},
		{set.NTUser, NTUserMount},
		{set.UsrClass, UsrClassMount},
	} {
		if m.file == "" {
			continue
		}
		if err := h.load(m.file, m.mount); err != nil {
			return nil, err
		}
		h.mounts[filepath.Clean(m.file)] = m.mount
	}
	if len(h.mounts) == 0 {
		return nil, &types.Error{Kind: types.ErrKindInvalidArgument, Msg: "registry: no hive files given"}
	}
	return h, h.mergeClasses()
}

func (h *Hives) load(file, mount string) error {
	data, err := afero.ReadFile(h.fs, file)
	if err != nil {
		return fmt.Errorf("read hive %s: %w", file, err)
	}
	hive, err := regf.Parse(data)
	if err != nil {
		return fmt.Errorf("hive %s: %w", file, err)
	}
	root, err := hive.Root()
	if err != nil {
		return fmt.Errorf("hive %s: %w", file, err)
	}
	n, err := nodeFromHive(root, 0)
	if err != nil {
		return fmt.Errorf("hive %s: %w", file, err)
	}
	return h.mem.graft(mount, n)
}

// mergeClasses rebuilds HKEY_CLASSES_ROOT.
func (h *Hives) mergeClasses() error {
	merged := newNode(string(ClassesRoot))
	if m := h.mem.subtree(machineClasses); m != nil {
		merged.overlay(m)
	}
	if u := h.mem.subtree(UsrClassMount); u != nil {
		merged.overlay(u)
	}
	return h.mem.graft(string(ClassesRoot), merged)
}

func nodeFromHive(k regf.Key, depth int) (*node, error) {
	if depth > 512 {
		return nil, fmt.Errorf("key %q nested too deep: %w", k.Name(), types.ErrCorrupt)
	}
	n := newNode(k.Name())
	vals, err := k.Values()
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		n.setValue(Value{Name: v.Name, Kind: KindOf(v.Type), Type: v.Type, Data: v.Data})
	}
	subs, err := k.Subkeys()
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		c, err := nodeFromHive(s, depth+1)
		if err != nil {
			return nil, err
		}
		n.addChild(c)
	}
	return n, nil
}

// Open implements Registry.
func (h *Hives) Open(path string) (Key, bool) { return h.mem.Open(path) }

// Watch implements Registry.
func (h *Hives) Watch(path string, recursive bool, ev types.Events, fn func()) (Watch, error) {
	h.watchOnce.Do(func() { h.watchErr = h.startWatcher() })
	if h.watchErr != nil {
		return nil, h.watchErr
	}
	return h.mem.Watch(path, recursive, ev, fn)
}

// Reload re-reads the hive mounted from file.
func (h *Hives) Reload(file string) error {
	mount, ok := h.mounts[filepath.Clean(file)]
	if !ok {
		return &types.Error{Kind: types.ErrKindNotFound, Msg: "registry: no hive mounted from " + file}
	}
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	if err := h.load(file, mount); err != nil {
		return err
	}
	if mount == NTUserMount {
		// The user hive carries its own Software\Classes; put UsrClass back.
		for f, m := range h.mounts {
			if m == UsrClassMount {
				if err := h.load(f, m); err != nil {
					return err
				}
			}
		}
	}
	return h.mergeClasses()
}

func (h *Hives) startWatcher() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("hive watcher: %w", err)
	}
	dirs := map[string]bool{}
	for file := range h.mounts {
		dir := filepath.Dir(file)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		// Watch the directory so hives replaced by rename are still seen.
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	h.watcher = w
	go h.watchLoop(w)
	return nil
}

func (h *Hives) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case <-h.done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			file := filepath.Clean(ev.Name)
			if _, ok := h.mounts[file]; !ok {
				continue
			}
			if err := h.Reload(file); err != nil {
				// A half-written hive fails to parse; the next write retries.
				h.log.Warn("hive reload failed", "file", file, "error", err)
				continue
			}
			h.log.Debug("hive reloaded", "file", file)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.log.Warn("hive watcher error", "error", err)
		}
	}
}

// Close stops the file watcher.
func (h *Hives) Close() error {
	select {
	case <-h.done:
		return nil
	default:
		close(h.done)
	}
	if h.watcher != nil {
		if err := h.watcher.Close(); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
			return err
		}
	}
	return nil
}
