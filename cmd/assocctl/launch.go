package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/joshuapare/assockit/appinfo"
	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/assoc/launch"
	"github.com/joshuapare/assockit/pkg/types"
)

var (
	launchURIs    bool
	launchDryRun  bool
	launchCommand string
)

func init() {
	l := newLaunchCmd()
	l.Flags().BoolVar(&launchURIs, "uri", false, "Treat targets as URIs")
	l.Flags().BoolVar(&launchDryRun, "dry-run", false, "Print what would be started instead of starting it")
	l.Flags().StringVar(&launchCommand, "command", "", "Launch this command line instead of a registered app")

	p := newPickCmd()
	p.Flags().BoolVar(&launchDryRun, "dry-run", false, "Print what would be started instead of starting it")
	rootCmd.AddCommand(l, p)
}

func newLaunchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "launch <app-id> [targets...]",
		Short: "Start an application on files or URIs",
		Long: `The launch command starts an application the way Windows would: the
command line of its preferred verb is expanded once per batch of targets,
and packaged apps are activated.

Example:
  assocctl launch notepad.exe C:\notes.txt
  assocctl launch --uri firefox.exe https://example.com
  assocctl launch --command "C:\tools\view.exe \"%1\"" a.png b.png --dry-run`,
		Args: func(cmd *cobra.Command, args []string) error {
			if launchCommand != "" {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, args)
		},
	}
}

func runLaunch(cmd *cobra.Command, args []string) error {
	if launchDryRun {
		cfg.Launch.DryRun = true
	}
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	var info *appinfo.AppInfo
	if launchCommand != "" {
		if info, err = svc.CreateFromCommandline(launchCommand, ""); err != nil {
			return err
		}
	} else {
		id := args[0]
		args = args[1:]
		if info = svc.Lookup(id); info == nil {
			return errors.WithHint(&types.Error{Kind: types.ErrKindNotFound, Msg: "no app " + id},
				`"assocctl apps" lists registered apps; --command runs a command line`)
		}
	}
	return start(cmd.Context(), svc, info, args, launchURIs)
}

func start(ctx context.Context, svc *appinfo.Service, info *appinfo.AppInfo, targets []string, uris bool) error {
	lc := launch.DefaultContext{OnLaunched: func(app *assoc.App, pid int32) {
		printVerbose("started %s (pid %d)\n", app.SomeName(), pid)
	}}
	var err error
	if uris {
		err = svc.LaunchURIs(ctx, info, targets, lc)
	} else {
		err = svc.Launch(ctx, info, targets, lc)
	}
	if err != nil {
		return err
	}
	if dryRun != nil {
		return printCalls(dryRun.Calls())
	}
	return nil
}

type callView struct {
	Kind  string   `json:"kind" yaml:"kind" toml:"kind"`
	Argv  []string `json:"argv,omitempty" yaml:"argv,omitempty" toml:"argv,omitempty"`
	AUMID string   `json:"aumid,omitempty" yaml:"aumid,omitempty" toml:"aumid,omitempty"`
	Verb  string   `json:"verb,omitempty" yaml:"verb,omitempty" toml:"verb,omitempty"`
	Items []string `json:"items,omitempty" yaml:"items,omitempty" toml:"items,omitempty"`
}

func printCalls(calls []launch.Call) error {
	if structured() {
		views := make([]callView, len(calls))
		for i, c := range calls {
			views[i] = callView{Kind: c.Kind, Argv: c.Argv, AUMID: c.AUMID, Verb: c.Verb, Items: c.Items}
		}
		return printStructured(map[string]any{"calls": views})
	}
	for _, c := range calls {
		switch c.Kind {
		case "spawn":
			printInfo("spawn %s\n", joinArgv(c.Argv))
		case "activate-for-file":
			printInfo("activate %s verb=%s items=%s\n", c.AUMID, c.Verb, strings.Join(c.Items, ", "))
		default:
			printInfo("%s %s %s\n", c.Kind, c.AUMID, strings.Join(c.Items, ", "))
		}
	}
	return nil
}

// joinArgv joins argv for display, quoting arguments with blanks or quotes.
func joinArgv(argv []string) string {
	out := make([]string, len(argv))
	for i, a := range argv {
		if strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		out[i] = a
	}
	return strings.Join(out, " ")
}

// pickApp lets the user choose among apps. Tests replace it.
var pickApp = func(apps []*appinfo.AppInfo) (int, error) {
	return fuzzyfinder.Find(apps,
		func(i int) string { return apps[i].DisplayName() },
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i < 0 {
				return ""
			}
			a := apps[i]
			return fmt.Sprintf("ID: %s\nExecutable: %s\nCommand: %s\n\n%s",
				a.ID(), a.Executable(), a.Commandline(), a.Description())
		}))
}

func newPickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick <.ext|scheme> [targets...]",
		Short: "Choose an app for a type interactively and launch it",
		Long: `The pick command shows the apps registered for a file extension or URL
scheme in a fuzzy finder and launches the chosen one on the targets.

Example:
  assocctl pick .txt C:\notes.txt
  assocctl pick https https://example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPick(cmd, args[0], args[1:])
		},
	}
}

func runPick(cmd *cobra.Command, what string, targets []string) error {
	if launchDryRun {
		cfg.Launch.DryRun = true
	}
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	list := candidates(svc, what)
	if len(list) == 0 {
		return &types.Error{Kind: types.ErrKindNotFound, Msg: "no apps for " + what}
	}
	i, err := pickApp(list)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "pick")
	}
	printVerbose("picked %s\n", list[i].ID())
	return start(cmd.Context(), svc, list[i], targets, !isExtension(what))
}
