package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/assockit/appinfo"
	"github.com/joshuapare/assockit/pkg/types"
)

var defaultNeedsURIs bool

func init() {
	def := newDefaultCmd()
	def.Flags().BoolVar(&defaultNeedsURIs, "uris", false, "Only consider apps that take URIs (extensions only)")
	rootCmd.AddCommand(def, newTypesCmd())
}

func isExtension(s string) bool { return strings.HasPrefix(s, ".") }

func newDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default <.ext|scheme>",
		Short: "Show the app that opens a file type or URL scheme",
		Long: `The default command prints the application Windows would use for a
file extension (starting with ".") or a URL scheme.

Example:
  assocctl default .pdf
  assocctl default https --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDefault(cmd, args[0])
		},
	}
}

func runDefault(cmd *cobra.Command, what string) error {
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	var info *appinfo.AppInfo
	if isExtension(what) {
		info = svc.DefaultForType(what, defaultNeedsURIs)
	} else {
		info = svc.DefaultForURIScheme(what)
	}
	if info == nil {
		return &types.Error{Kind: types.ErrKindNotFound, Msg: "no default app for " + what}
	}

	if structured() {
		out := map[string]any{"for": what, "app": viewApp(info.App())}
		if h := info.Handler(); h != nil {
			out["handler"] = h.ID
		}
		return printStructured(out)
	}
	printInfo("%s\n", appLine(info))
	if h := info.Handler(); h != nil {
		printVerbose("  via %s\n", h.ID)
	}
	return nil
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types <.ext|scheme>",
		Short: "List every app that can open a file type or URL scheme",
		Long: `The types command lists the applications registered for a file extension
or URL scheme. The default app comes first.

Example:
  assocctl types .txt
  assocctl types mailto --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(cmd, args[0])
		},
	}
}

func candidates(svc *appinfo.Service, what string) []*appinfo.AppInfo {
	if isExtension(what) {
		return svc.AllForType(what)
	}
	return svc.AllForURIScheme(what)
}

func runTypes(cmd *cobra.Command, what string) error {
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	list := candidates(svc, what)
	var def *appinfo.AppInfo
	if isExtension(what) {
		def = svc.DefaultForType(what, false)
	} else {
		def = svc.DefaultForURIScheme(what)
	}
	if structured() {
		views := make([]map[string]any, len(list))
		for i, a := range list {
			views[i] = map[string]any{"app": viewApp(a.App()), "handler": a.Handler().ID, "default": a.Equal(def)}
		}
		return printStructured(map[string]any{"for": what, "apps": views})
	}
	if len(list) == 0 {
		printInfo("No apps for %s\n", what)
		return nil
	}
	for _, a := range list {
		mark := " "
		if a.Equal(def) {
			mark = "*"
		}
		printInfo("%s %s\n", mark, appLine(a))
	}
	return nil
}
