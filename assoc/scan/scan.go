// Package scan builds an association graph from the registry.
//
// A scan runs a fixed sequence of phases, each reading one part of the
// registry and adding to the graph under construction:
//
//  1. collect capable apps (Software\Clients, RegisteredApplications)
//  2. read capable apps: priority, then per-user, then machine-wide
//  3. URL scheme user choices
//  4. per-user file extension choices (Explorer\FileExts)
//  5. executable-only apps (HKCR\Applications)
//  6. the class root: extensions and URL protocols
//  7. link handler verbs to registered apps running the same executable
//  8. make up fake apps for handler verbs that are still unowned
//  9. packaged apps from the package enumerator
//  10. names and descriptions of packaged apps seen in phases 2-6
//
// Malformed registry data is skipped. A scan only fails when its context
// is cancelled.
package scan

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/assoc/packaged"
	"github.com/joshuapare/assockit/registry"
)

// Scanner reads associations from a registry.
type Scanner struct {
	reg      registry.Registry
	packages packaged.Enumerator
	loader   packaged.IndirectLoader
	sameFile func(a, b string) bool
	log      *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithPackages sets the packaged-app enumerator. Without one, phase 9 is
// skipped.
func WithPackages(e packaged.Enumerator) Option { return func(s *Scanner) { s.packages = e } }

// WithIndirectStrings sets the loader for "@{...}" packaged-app strings.
func WithIndirectStrings(l packaged.IndirectLoader) Option {
	return func(s *Scanner) { s.loader = l }
}

// WithSameFile replaces the file identity check used when two
// executables share a basename but not a path.
func WithSameFile(fn func(a, b string) bool) Option { return func(s *Scanner) { s.sameFile = fn } }

// WithLogger sets the logger. Phase timings are logged at debug level.
func WithLogger(l *slog.Logger) Option { return func(s *Scanner) { s.log = l } }

// New returns a Scanner over reg.
func New(reg registry.Registry, opts ...Option) *Scanner {
	s := &Scanner{reg: reg, sameFile: statSameFile, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func statSameFile(a, b string) bool {
	fa, err := os.Stat(a)
	if err != nil {
		return false
	}
	fb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(fa, fb)
}

// pass is the state of one scan.
type pass struct {
	*Scanner
	ctx context.Context
	g   *assoc.Graph

	// packagedKeys maps the "Application" subkey of a packaged ProgID to
	// its AUMID. It only lives for the duration of the scan.
	packagedKeys     map[string]string
	packagedKeyOrder []string
}

// Scan reads the registry and returns a complete graph.
func (s *Scanner) Scan(ctx context.Context) (*assoc.Graph, error) {
	p := &pass{
		Scanner:      s,
		ctx:          ctx,
		g:            assoc.NewGraph(),
		packagedKeys: map[string]string{},
	}

	var capable capableApps
	phases := []struct {
		name string
		run  func()
	}{
		{"collect capable apps", func() { capable = p.collectCapableApps() }},
		{"read capable apps", func() { p.readCapableApps(capable) }},
		{"read URL associations", p.readURLChoices},
		{"read extension associations", p.readFileExts},
		{"read executable-only apps", p.readExeApps},
		{"read classes", p.readClasses},
		{"link unregistered apps", p.linkUnregisteredApps},
		{"link fake apps", p.linkFakeApps},
		{"read packaged apps", p.readPackages},
		{"read packaged app metadata", p.readPackagedMetadata},
	}

	start := time.Now()
	for _, ph := range phases {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "scan: %s", ph.name)
		}
		t := time.Now()
		ph.run()
		s.log.Debug("scan phase", "phase", ph.name, "took", time.Since(t))
	}
	s.log.Debug("scan complete", "took", time.Since(start),
		"schemas", len(p.g.Schemas), "extensions", len(p.g.Extensions),
		"handlers", len(p.g.Handlers), "apps", len(p.g.AppsByID),
		"exe_apps", len(p.g.AppsByExe), "fake_apps", len(p.g.FakeApps))
	return p.g, nil
}

func (p *pass) cancelled() bool { return p.ctx.Err() != nil }
