// Package config loads assocctl settings with viper.
//
// Settings come from, in rising precedence: built-in defaults, a
// config.yaml in the working directory or the user config directory, and
// ASSOCCTL_* environment variables. Command-line flags are applied by the
// CLI on top of the result.
package config

import (
	"os"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/joshuapare/assockit/internal/paths"
)

// Registry sources.
const (
	SourceLive = "live" // the running system's registry
	SourceReg  = "reg"  // .reg exports loaded into memory
	SourceHive = "hive" // offline hive files
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Config is the effective configuration.
type Config struct {
	Source   string   `mapstructure:"source" json:"source" yaml:"source" toml:"source"`
	RegFiles []string `mapstructure:"reg_files" json:"reg_files" yaml:"reg_files" toml:"reg_files"`
	Hives    Hives    `mapstructure:"hives" json:"hives" yaml:"hives" toml:"hives"`
	Packages Packages `mapstructure:"packages" json:"packages" yaml:"packages" toml:"packages"`
	Launch   Launch   `mapstructure:"launch" json:"launch" yaml:"launch" toml:"launch"`
	Output   Output   `mapstructure:"output" json:"output" yaml:"output" toml:"output"`
	Log      Log      `mapstructure:"log" json:"log" yaml:"log" toml:"log"`
}

// Hives names offline hive files for SourceHive.
type Hives struct {
	Software string `mapstructure:"software" json:"software" yaml:"software" toml:"software"`
	NTUser   string `mapstructure:"ntuser" json:"ntuser" yaml:"ntuser" toml:"ntuser"`
	UsrClass string `mapstructure:"usrclass" json:"usrclass" yaml:"usrclass" toml:"usrclass"`
}

// Packages controls packaged-app discovery.
type Packages struct {
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`
	// ManifestRoot, when set, holds <full name>\AppxManifest.xml for every
	// package instead of the registered install folders.
	ManifestRoot string `mapstructure:"manifest_root" json:"manifest_root" yaml:"manifest_root" toml:"manifest_root"`
}

// Launch controls process creation.
type Launch struct {
	DryRun bool `mapstructure:"dry_run" json:"dry_run" yaml:"dry_run" toml:"dry_run"`
}

// Output controls command output.
type Output struct {
	Format string `mapstructure:"format" json:"format" yaml:"format" toml:"format"`
}

// Log controls diagnostics.
type Log struct {
	Format string `mapstructure:"format" json:"format" yaml:"format" toml:"format"`
	File   string `mapstructure:"file" json:"file" yaml:"file" toml:"file"`
}

// New returns a viper instance with assocctl's search paths, environment
// binding and defaults.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(paths.ConfigDir())

	v.SetEnvPrefix("ASSOCCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", SourceLive)
	v.SetDefault("reg_files", []string{})
	v.SetDefault("hives.software", "")
	v.SetDefault("hives.ntuser", "")
	v.SetDefault("hives.usrclass", "")
	v.SetDefault("packages.enabled", true)
	v.SetDefault("packages.manifest_root", "")
	v.SetDefault("launch.dry_run", false)
	v.SetDefault("output.format", FormatText)
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	return v
}

// Load reads the config file at path, or searches the default locations
// when path is empty. A missing file is only an error when path was given.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		switch {
		case missing && path == "":
		case missing:
			return nil, errors.Wrapf(err, "config file not found at %s", path)
		default:
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated settings and that the chosen source has its
// inputs.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceLive:
	case SourceReg:
		if len(c.RegFiles) == 0 {
			return errors.New("config: source \"reg\" needs at least one reg_files entry")
		}
	case SourceHive:
		if c.Hives == (Hives{}) {
			return errors.New("config: source \"hive\" needs at least one hive file")
		}
	default:
		return errors.Newf("config: unknown source %q (want live, reg or hive)", c.Source)
	}
	if !slices.Contains([]string{FormatText, FormatJSON, FormatYAML, FormatTOML}, c.Output.Format) {
		return errors.Newf("config: unknown output format %q", c.Output.Format)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.Newf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}
