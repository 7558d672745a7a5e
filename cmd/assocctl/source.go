package main

import (
	"os"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/assockit/appinfo"
	"github.com/joshuapare/assockit/assoc/launch"
	"github.com/joshuapare/assockit/assoc/packaged"
	"github.com/joshuapare/assockit/internal/config"
	"github.com/joshuapare/assockit/registry"
)

// testRegistry replaces the configured source in tests.
var testRegistry registry.Registry

// dryRun records launches instead of starting anything when set.
var dryRun *launch.Recorder

func openRegistry(c *config.Config) (registry.Registry, func(), error) {
	nop := func() {}
	if testRegistry != nil {
		return testRegistry, nop, nil
	}
	switch c.Source {
	case config.SourceReg:
		m := registry.NewMemory()
		for _, f := range c.RegFiles {
			data, err := os.ReadFile(f)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "read %s", f)
			}
			if err := m.LoadReg(data); err != nil {
				return nil, nil, errors.Wrapf(err, "load %s", f)
			}
			logger.Debug("loaded reg file", "file", f)
		}
		return m, nop, nil
	case config.SourceHive:
		h, err := registry.OpenHives(registry.HiveSet{
			Software: c.Hives.Software,
			NTUser:   c.Hives.NTUser,
			UsrClass: c.Hives.UsrClass,
		}, registry.WithHiveLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return h, func() { _ = h.Close() }, nil
	default:
		l, err := registry.OpenLive()
		if err != nil {
			return nil, nil, errors.WithHint(err, "use --reg FILE or --software/--ntuser/--usrclass HIVE off Windows")
		}
		return l, nop, nil
	}
}

func serviceOptions(reg registry.Registry) []appinfo.Option {
	opts := []appinfo.Option{appinfo.WithLogger(logger)}
	if cfg.Packages.Enabled {
		var ro []packaged.RepositoryOption
		ro = append(ro, packaged.WithLogger(logger))
		if cfg.Packages.ManifestRoot != "" {
			ro = append(ro, packaged.WithManifestRoot(cfg.Packages.ManifestRoot))
		}
		opts = append(opts,
			appinfo.WithPackages(packaged.NewRepository(reg, ro...)),
			appinfo.WithIndirectStrings(indirectLoader(reg)))
	}
	if cfg.Launch.DryRun {
		dryRun = &launch.Recorder{}
		opts = append(opts, appinfo.WithLaunchOptions(launch.WithSpawner(dryRun), launch.WithActivator(dryRun)))
	}
	return opts
}

// indirectLoader resolves "@{...}" strings with the system only when
// reading the live registry. Offline sources leave them unresolved.
func indirectLoader(reg registry.Registry) packaged.IndirectLoader {
	if _, live := reg.(*registry.Live); live {
		return packaged.SystemLoader{}
	}
	return packaged.MapLoader{}
}
