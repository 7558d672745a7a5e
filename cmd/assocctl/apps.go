package main

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/joshuapare/assockit/appinfo"
	"github.com/joshuapare/assockit/pkg/types"
)

var appsPackagedOnly bool

func init() {
	apps := newAppsCmd()
	apps.Flags().BoolVar(&appsPackagedOnly, "packaged", false, "Only list packaged apps")
	rootCmd.AddCommand(apps, newShowCmd())
}

func newAppsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List registered applications",
		Long: `The apps command lists every application registered with Windows:
capable apps from RegisteredApplications and Clients, HKCR\Applications
entries, and packaged apps.

Example:
  assocctl apps
  assocctl apps --packaged --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApps(cmd)
		},
	}
}

func runApps(cmd *cobra.Command) error {
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	var list []*appinfo.AppInfo
	for _, a := range svc.All() {
		if appsPackagedOnly && !a.Packaged() {
			continue
		}
		list = append(list, a)
	}
	printVerbose("%d apps\n", len(list))

	if structured() {
		views := make([]appView, len(list))
		for i, a := range list {
			views[i] = viewApp(a.App())
		}
		return printStructured(map[string]any{"apps": views, "count": len(views)})
	}
	for _, a := range list {
		printInfo("%s\n", appLine(a))
	}
	return nil
}

// appLine is "<id>  <display name>", with a marker for packaged apps.
func appLine(a *appinfo.AppInfo) string {
	line := a.ID()
	if dn := a.DisplayName(); dn != "" && dn != a.ID() {
		line += "  " + color.CyanString(dn)
	}
	if a.Packaged() {
		line += color.HiBlackString("  [packaged]")
	}
	return line
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <app-id>",
		Short: "Describe one application",
		Long: `The show command prints everything known about an application: its
names, executable, icon, supported types and schemes, and verbs.
The id is the canonical name listed by "assocctl apps", or an executable
name such as notepad.exe.

Example:
  assocctl show notepad.exe
  assocctl show "Microsoft.WindowsNotepad_8wekyb3d8bbwe!App" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0])
		},
	}
}

func runShow(cmd *cobra.Command, id string) error {
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	info := svc.Lookup(id)
	if info == nil {
		return &types.Error{Kind: types.ErrKindNotFound, Msg: "no app " + id}
	}
	v := viewApp(info.App())
	if structured() {
		return printStructured(v)
	}

	heading("%s", v.DisplayName)
	field := func(name, val string) {
		if val != "" {
			printInfo("  %-14s %s\n", name+":", val)
		}
	}
	field("ID", v.ID)
	field("Name", v.Name)
	field("Description", v.Description)
	field("Executable", v.Executable)
	field("Command line", v.Commandline)
	field("Icon", v.Icon)
	if v.Packaged {
		field("Packaged", "yes")
	}
	field("Types", strings.Join(v.SupportedTypes, " "))
	field("Schemes", strings.Join(v.SupportedSchemes, " "))
	if len(v.Verbs) > 0 {
		printInfo("  Verbs:\n")
		for _, vb := range v.Verbs {
			if vb.Command != "" {
				printInfo("    %-12s %s\n", vb.Name, vb.Command)
			} else {
				printInfo("    %s\n", vb.Name)
			}
		}
	}
	return nil
}
