// Package appinfo answers "which app opens this?" for file extensions and
// URI schemes, and launches the answer.
//
// A Service keeps an association graph that is rebuilt in the background
// whenever the watched parts of the registry change. Queries wait for a
// pending rebuild so they never see a graph older than the last change.
//
// Basic usage:
//
//	reg, err := registry.OpenLive()
//	if err != nil {
//		return err
//	}
//	svc := appinfo.New(reg)
//	defer svc.Close()
//
//	if app := svc.DefaultForType(".txt", false); app != nil {
//		err = svc.Launch(ctx, app, []string{`C:\notes.txt`}, nil)
//	}
package appinfo

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/assoc/index"
	"github.com/joshuapare/assockit/assoc/launch"
	"github.com/joshuapare/assockit/assoc/packaged"
	"github.com/joshuapare/assockit/assoc/scan"
	"github.com/joshuapare/assockit/internal/ustr"
	"github.com/joshuapare/assockit/pkg/types"
	"github.com/joshuapare/assockit/registry"
)

type settings struct {
	log    *slog.Logger
	scan   []scan.Option
	index  []index.Option
	launch []launch.Option
}

// Option configures a Service.
type Option func(*settings)

// WithLogger sets the logger of the scanner, the index and the launcher.
func WithLogger(l *slog.Logger) Option { return func(s *settings) { s.log = l } }

// WithPackages sets where packaged apps come from.
func WithPackages(e packaged.Enumerator) Option {
	return WithScanOptions(scan.WithPackages(e))
}

// WithIndirectStrings sets the loader for "@{...}" resource strings.
func WithIndirectStrings(l packaged.IndirectLoader) Option {
	return WithScanOptions(scan.WithIndirectStrings(l))
}

// WithScanOptions passes options to the scanner.
func WithScanOptions(opts ...scan.Option) Option {
	return func(s *settings) { s.scan = append(s.scan, opts...) }
}

// WithIndexOptions passes options to the index.
func WithIndexOptions(opts ...index.Option) Option {
	return func(s *settings) { s.index = append(s.index, opts...) }
}

// WithLaunchOptions passes options to the launcher. App Paths are read
// from the service's registry unless overridden here.
func WithLaunchOptions(opts ...launch.Option) Option {
	return func(s *settings) { s.launch = append(s.launch, opts...) }
}

// Service is the query and launch front end over one registry.
type Service struct {
	index    *index.Index
	launcher *launch.Launcher
	log      *slog.Logger
}

// New returns a Service over reg. Nothing is read until the first query.
func New(reg registry.Registry, opts ...Option) *Service {
	st := &settings{log: slog.Default()}
	for _, o := range opts {
		o(st)
	}
	scanner := scan.New(reg, append([]scan.Option{scan.WithLogger(st.log)}, st.scan...)...)
	return &Service{
		index: index.New(reg, scanner, append([]index.Option{index.WithLogger(st.log)}, st.index...)...),
		launcher: launch.New(append([]launch.Option{
			launch.WithLogger(st.log),
			launch.WithAppPaths(reg),
		}, st.launch...)...),
		log: st.log,
	}
}

// Start begins watching and building ahead of the first query.
func (s *Service) Start(ctx context.Context) error { return s.index.Start(ctx) }

// Graph returns the current association graph, waiting for pending
// changes.
func (s *Service) Graph() *assoc.Graph { return s.index.Ensure(true) }

// Index exposes the background index, e.g. to subscribe to rebuilds.
func (s *Service) Index() *index.Index { return s.index }

// Close stops watching the registry.
func (s *Service) Close() error { return s.index.Close() }

// DefaultForURIScheme returns the app that opens scheme, or nil. The file
// scheme has no default app.
func (s *Service) DefaultForURIScheme(scheme string) *AppInfo {
	folded := ustr.Fold(scheme)
	if folded == "" || folded == "file" {
		return nil
	}
	sch := s.Graph().Schemas[folded]
	if sch == nil {
		return nil
	}
	if app := firstApp(sch.Chosen); app != nil {
		return newInfo(app, sch.Chosen)
	}
	return nil
}

// DefaultForType returns the app that opens files with extension ext, or
// nil. When the chosen handler's app does not qualify, the first other
// handler whose app does is used.
func (s *Service) DefaultForType(ext string, mustSupportURIs bool) *AppInfo {
	e := s.Graph().Extension(ext)
	if e == nil {
		return nil
	}
	ok := func(a *assoc.App) bool { return a != nil && (!mustSupportURIs || a.SupportsURIs()) }
	if app := firstApp(e.Chosen); ok(app) {
		return newInfo(app, e.Chosen)
	}
	for _, h := range e.SortedHandlers() {
		if app := firstApp(h); ok(app) {
			return newInfo(app, h)
		}
	}
	return nil
}

// All returns every registered app, ordered by id.
func (s *Service) All() []*AppInfo {
	apps := s.Graph().AllApps()
	out := make([]*AppInfo, len(apps))
	for i, a := range apps {
		out[i] = newInfo(a, nil)
	}
	return out
}

// AllForType returns every app that can open ext, the default first. Each
// app appears once.
func (s *Service) AllForType(ext string) []*AppInfo {
	e := s.Graph().Extension(ext)
	if e == nil {
		return nil
	}
	return allFor(&e.Binding)
}

// AllForURIScheme returns every app that can open scheme, the default
// first.
func (s *Service) AllForURIScheme(scheme string) []*AppInfo {
	if ustr.Fold(scheme) == "file" {
		return nil
	}
	sch := s.Graph().Schema(scheme)
	if sch == nil {
		return nil
	}
	return allFor(&sch.Binding)
}

// Lookup returns the app registered under id (canonical name, or
// executable name for HKCR\Applications entries), or nil.
func (s *Service) Lookup(id string) *AppInfo {
	if app := s.Graph().App(id); app != nil {
		return newInfo(app, nil)
	}
	return nil
}

func allFor(b *assoc.Binding) []*AppInfo {
	seen := map[*assoc.App]bool{}
	var out []*AppInfo
	if app := firstApp(b.Chosen); app != nil {
		seen[app] = true
		out = append(out, newInfo(app, b.Chosen))
	}
	for _, h := range b.SortedHandlers() {
		for _, v := range h.Verbs {
			if v.App == nil || seen[v.App] {
				continue
			}
			seen[v.App] = true
			out = append(out, newInfo(v.App, h))
		}
	}
	return out
}

// Launch opens files with info. A nil lc passes the caller's environment.
func (s *Service) Launch(ctx context.Context, info *AppInfo, files []string, lc launch.Context) error {
	return s.launcher.LaunchFiles(ctx, info.app, info.handler, files, lc)
}

// LaunchURIs opens uris with info.
func (s *Service) LaunchURIs(ctx context.Context, info *AppInfo, uris []string, lc launch.Context) error {
	return s.launcher.LaunchURIs(ctx, info.app, info.handler, uris, lc)
}

// CreateFromCommandline makes an app from a bare command line. name, when
// not empty, becomes its canonical id. The registry is not consulted.
func (s *Service) CreateFromCommandline(commandline, name string) (*AppInfo, error) {
	if strings.TrimSpace(commandline) == "" {
		return nil, &types.Error{Kind: types.ErrKindInvalidArgument, Msg: "empty command line"}
	}
	app := assoc.NewApp(name)
	app.AddVerb(assoc.DefaultVerb, assoc.DefaultVerb, commandline, true, false)
	s.log.Debug("app from command line", "name", name, "executable", app.Executable())
	return newInfo(app, nil), nil
}

func firstApp(h *assoc.Handler) *assoc.App {
	if v := h.FirstVerb(); v != nil {
		return v.App
	}
	return nil
}
