// Package launch starts an app with files or URIs.
//
// Command-line apps are started by expanding the %-macros of their first
// verb into an argv, once per batch of targets the command line consumes.
// Packaged apps are started through package activation.
package launch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/internal/cmdline"
	"github.com/joshuapare/assockit/internal/ustr"
	"github.com/joshuapare/assockit/pkg/types"
	"github.com/joshuapare/assockit/registry"
)

// AppPaths is the registry key whose <exe>\Path value is put in front of
// PATH for the launched program.
const AppPaths = `HKEY_LOCAL_MACHINE\SOFTWARE\Microsoft\Windows\CurrentVersion\App Paths`

const pathListSeparator = ";"

// Target is one file or URI handed to a program.
type Target = cmdline.Target

// Context supplies the child environment and hears about started
// processes.
type Context interface {
	Environ() []string
	Launched(app *assoc.App, pid int32)
}

// DefaultContext passes the caller's environment unless Env is set.
type DefaultContext struct {
	Env        []string
	OnLaunched func(app *assoc.App, pid int32)
}

// Environ implements Context.
func (c DefaultContext) Environ() []string {
	if c.Env != nil {
		return c.Env
	}
	return os.Environ()
}

// Launched implements Context.
func (c DefaultContext) Launched(app *assoc.App, pid int32) {
	if c.OnLaunched != nil {
		c.OnLaunched(app, pid)
	}
}

// Launcher starts apps.
type Launcher struct {
	spawner   Spawner
	activator Activator
	appPaths  registry.Registry
	getwd     func() (string, error)
	log       *slog.Logger
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithSpawner replaces the process spawner.
func WithSpawner(s Spawner) Option { return func(l *Launcher) { l.spawner = s } }

// WithActivator replaces the packaged-app activator.
func WithActivator(a Activator) Option { return func(l *Launcher) { l.activator = a } }

// WithAppPaths sets the registry App Paths entries are read from. Without
// one, PATH is passed through unchanged.
func WithAppPaths(reg registry.Registry) Option { return func(l *Launcher) { l.appPaths = reg } }

// WithGetwd replaces os.Getwd for the %w macro.
func WithGetwd(fn func() (string, error)) Option { return func(l *Launcher) { l.getwd = fn } }

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option { return func(l *Launcher) { l.log = log } }

// New returns a Launcher that spawns real processes and uses the system
// activator.
func New(opts ...Option) *Launcher {
	l := &Launcher{
		spawner:   ExecSpawner{},
		activator: SystemActivator{},
		getwd:     os.Getwd,
		log:       slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LaunchFiles starts app on files. h, when set, is the handler app was
// picked through; its first verb wins over the app's own. Files also carry
// a file: URI when the app takes URIs.
func (l *Launcher) LaunchFiles(ctx context.Context, app *assoc.App, h *assoc.Handler, files []string, lc Context) error {
	if app.Packaged {
		items := make([]string, len(files))
		for i, f := range files {
			items[i] = ItemPath(f)
		}
		return l.activate(app, items, true)
	}
	withURI := app.SupportsURIs()
	targets := make([]Target, len(files))
	for i, f := range files {
		targets[i] = Target{File: f}
		if withURI {
			targets[i].URI = FileURI(f)
		}
	}
	return l.run(ctx, app, h, targets, lc)
}

// LaunchURIs starts app on uris. file: URIs also carry their local path
// when the app takes files.
func (l *Launcher) LaunchURIs(ctx context.Context, app *assoc.App, h *assoc.Handler, uris []string, lc Context) error {
	if app.Packaged {
		return l.activate(app, uris, false)
	}
	withFile := app.SupportsFiles()
	targets := make([]Target, len(uris))
	for i, u := range uris {
		targets[i] = Target{URI: u}
		if withFile {
			targets[i].File, _ = PathFromURI(u)
		}
	}
	return l.run(ctx, app, h, targets, lc)
}

// Verb returns the verb a launch of app through h uses.
func Verb(app *assoc.App, h *assoc.Handler) (*assoc.Verb, error) {
	if !app.Packaged && h != nil && len(h.Verbs) > 0 {
		return h.Verbs[0], nil
	}
	if len(app.Verbs) > 0 {
		return app.Verbs[0], nil
	}
	if app.Packaged || h == nil {
		return nil, &types.Error{Kind: types.ErrKindNoVerbs,
			Msg: fmt.Sprintf("The app ‘%s’ in the application object has no verbs", app.SomeName())}
	}
	return nil, &types.Error{Kind: types.ErrKindNoVerbs,
		Msg: fmt.Sprintf("The app ‘%s’ and the handler ‘%s’ in the application object have no verbs", app.SomeName(), h.Folded)}
}

func (l *Launcher) activate(app *assoc.App, items []string, forFiles bool) error {
	verb, err := Verb(app, nil)
	if err != nil {
		return err
	}
	aumid := app.Canonical

	var pid uint32
	switch {
	case len(items) == 0:
		pid, err = l.activator.Activate(aumid)
	case forFiles:
		pid, err = l.activator.ActivateForFile(aumid, items, verb.Name)
	default:
		pid, err = l.activator.ActivateForProtocol(aumid, items)
	}
	if err != nil {
		if errors.Is(err, types.ErrUnsupported) {
			return err
		}
		var hr HResult
		code := uint32(EFail)
		if errors.As(err, &hr) {
			code = uint32(hr)
		}
		return &types.Error{Kind: types.ErrKindActivationFailed,
			Msg: fmt.Sprintf("The app %s failed to launch: 0x%x", app.SomeName(), code), Err: err}
	}
	l.log.Debug("activated packaged app", "aumid", aumid, "items", len(items), "pid", pid)
	return nil
}

func (l *Launcher) run(ctx context.Context, app *assoc.App, h *assoc.Handler, targets []Target, lc Context) error {
	verb, err := Verb(app, h)
	if err != nil {
		return err
	}
	if verb.Packaged || verb.Command == "" {
		return &types.Error{Kind: types.ErrKindNoVerbs,
			Msg: fmt.Sprintf("The app ‘%s’ has no command to run", app.SomeName())}
	}
	if lc == nil {
		lc = DefaultContext{}
	}
	env := l.environ(lc.Environ(), verb.ExecutableBasename)

	command := verb.Command
	if verb.DLLFunction != "" {
		command = cmdline.FixupRundll32(command)
	}
	expandEnv := cmdline.Env{LocalizedName: app.LocalizedName, Getwd: l.getwd}

	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "launch")
		}
		expanded, rest := cmdline.Expand(command, targets, expandEnv)
		argv, err := cmdline.Argv(expanded)
		if err != nil {
			return err
		}
		pid, err := l.spawner.Spawn(argv, env)
		if err != nil {
			return &types.Error{Kind: types.ErrKindLaunchFailed,
				Msg: fmt.Sprintf("failed to start %s", argv[0]), Err: err}
		}
		l.log.Debug("launched", "app", app.SomeName(), "argv", argv, "pid", pid)
		lc.Launched(app, int32(pid))

		if len(rest) == 0 {
			return nil
		}
		if len(rest) >= len(targets) {
			l.log.Debug("command line consumed no targets", "command", command, "left", len(rest))
			return nil
		}
		targets = rest
	}
}

// environ returns env with the App Paths directory of exe in front of
// PATH.
func (l *Launcher) environ(env []string, exe string) []string {
	dir := l.appPath(exe)
	if dir == "" {
		return env
	}
	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		if len(kv) >= 5 && ustr.EqualFold(kv[:5], "PATH=") && !found {
			found = true
			if old := kv[5:]; old != "" {
				kv = "PATH=" + dir + pathListSeparator + old
			} else {
				kv = "PATH=" + dir
			}
		}
		out = append(out, kv)
	}
	if !found {
		out = append([]string{"PATH=" + dir}, out...)
	}
	return out
}

func (l *Launcher) appPath(exe string) string {
	if l.appPaths == nil || exe == "" {
		return ""
	}
	key, ok := l.appPaths.Open(registry.Join(AppPaths, exe))
	if !ok {
		return ""
	}
	defer key.Close()
	dir, _ := key.ReadString("Path")
	return dir
}

// ItemPath normalizes a file path for activation, which rejects forward
// slashes and doubled backslashes.
func ItemPath(path string) string {
	path = strings.ReplaceAll(path, "/", `\`)
	for strings.Contains(path, `\\`) {
		path = strings.ReplaceAll(path, `\\`, `\`)
	}
	return path
}
