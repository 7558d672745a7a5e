package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/assockit/appinfo"
	"github.com/joshuapare/assockit/internal/config"
	"github.com/joshuapare/assockit/internal/logging"
	"github.com/joshuapare/assockit/internal/paths"
	"github.com/joshuapare/assockit/pkg/types"
)

var (
	// Global flags
	verbosity  int
	quiet      bool
	jsonOut    bool
	noColor    bool
	logFormat  string
	logFile    string
	configPath string
	sourceFlag string
	regFlags   []string
	softwareFl string
	ntuserFl   string
	usrclassFl string
	manifests  string
)

// cfg is the effective configuration after flags are applied.
var cfg *config.Config

// vp is the viper instance behind cfg.
var vp *viper.Viper

var logger = slog.Default()

var rootCmd = &cobra.Command{
	Use:   "assocctl",
	Short: "Inspect and use Windows file and URL associations",
	Long: `assocctl reads the Windows registry (the live one, .reg exports, or
offline hive files) and answers which applications open which file types
and URL schemes. It can list and describe apps, show the association graph,
and launch an app on files or URIs.`,
	Example: `  assocctl default .pdf
  assocctl types .txt --json
  assocctl --source hive --software SOFTWARE --usrclass UsrClass.dat apps
  assocctl launch notepad.exe C:\notes.txt --dry-run`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}
		return setupLogging(cmd)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v, -vv)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	pf.BoolVar(&jsonOut, "json", false, "Output in JSON format")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text, json")
	pf.StringVar(&logFile, "log-file", "", "Also write logs to this file as JSON")
	pf.StringVar(&configPath, "config", "", "Config file (default: ./config.yaml or "+
		filepath.Join(paths.ConfigDir(), "config.yaml")+")")
	pf.StringVar(&sourceFlag, "source", "", "Registry source: live, reg, hive")
	pf.StringSliceVar(&regFlags, "reg", nil, ".reg file to load (repeatable; implies --source reg)")
	pf.StringVar(&softwareFl, "software", "", "SOFTWARE hive file (implies --source hive)")
	pf.StringVar(&ntuserFl, "ntuser", "", "NTUSER.DAT hive file (implies --source hive)")
	pf.StringVar(&usrclassFl, "usrclass", "", "UsrClass.dat hive file (implies --source hive)")
	pf.StringVar(&manifests, "manifests", "", "Directory holding <package>/AppxManifest.xml")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("assocctl {{.Version}}\n")
}

// loadConfig reads the config file and lays the global flags over it.
func loadConfig(cmd *cobra.Command) error {
	vp = config.New()
	c, err := config.Load(vp, configPath)
	if err != nil {
		return errors.WithHint(err, "check the file passed to --config or fix config.yaml")
	}

	switch {
	case len(regFlags) > 0:
		c.Source, c.RegFiles = config.SourceReg, regFlags
	case softwareFl != "" || ntuserFl != "" || usrclassFl != "":
		c.Source = config.SourceHive
		c.Hives = config.Hives{Software: softwareFl, NTUser: ntuserFl, UsrClass: usrclassFl}
	}
	if sourceFlag != "" {
		c.Source = sourceFlag
	}
	if manifests != "" {
		c.Packages.ManifestRoot = manifests
	}
	if jsonOut {
		c.Output.Format = config.FormatJSON
	}
	if logFormat != "" {
		c.Log.Format = logFormat
	}
	if logFile != "" {
		c.Log.File = logFile
	}
	if err := c.Validate(); err != nil {
		return errors.WithHint(err, "see 'assocctl --help' for the source flags")
	}
	cfg = c
	return nil
}

func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.New("cannot use --quiet and --verbose together")
	}
	if noColor {
		color.NoColor = true
	}
	lc := logging.Config{
		Level:   logging.LevelFor(verbosity, quiet),
		Format:  logging.Format(cfg.Log.Format),
		Output:  cmd.ErrOrStderr(),
		NoColor: noColor,
	}
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o700); err != nil {
			return errors.Wrap(err, "create log directory")
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}
		lc.File = f
	}
	logger = logging.New(lc)
	slog.SetDefault(logger)
	return nil
}

// Exit codes.
const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitNotFound = 3
	exitLaunch   = 4
	exitPlatform = 5
)

func exitCode(err error) int {
	var te *types.Error
	if !errors.As(err, &te) {
		return exitFailure
	}
	switch te.Kind {
	case types.ErrKindInvalidArgument:
		return exitUsage
	case types.ErrKindNotFound:
		return exitNotFound
	case types.ErrKindNoVerbs, types.ErrKindLaunchFailed, types.ErrKindActivationFailed:
		return exitLaunch
	case types.ErrKindUnsupported:
		return exitPlatform
	}
	return exitFailure
}

func usageError(format string, args ...any) error {
	return &types.Error{Kind: types.ErrKindInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func execute() int {
	ctx, stop := signalContext()
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	printError("%v\n", err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	return exitCode(err)
}

// openService opens the configured registry and returns a service over it
// plus a func releasing both.
func openService(ctx context.Context) (*appinfo.Service, func(), error) {
	reg, closeReg, err := openRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := appinfo.New(reg, serviceOptions(reg)...)
	return svc, func() {
		if err := svc.Close(); err != nil {
			logger.Debug("closing service", "error", err)
		}
		closeReg()
	}, nil
}

// Helper functions for output

func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, color.RedString("Error: ")+format, args...)
}

func printVerbose(format string, args ...any) {
	if verbosity > 0 && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// heading prints a bold line.
func heading(format string, args ...any) {
	printInfo("%s\n", color.New(color.Bold).Sprintf(format, args...))
}

// structured reports whether the output format is a data format rather
// than text.
func structured() bool { return cfg != nil && cfg.Output.Format != config.FormatText }

// printStructured writes v in the configured data format.
func printStructured(v any) error { return encode(os.Stdout, cfg.Output.Format, v) }

func encode(w io.Writer, format string, v any) error {
	switch format {
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case config.FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(v)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
