package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/pkg/types"
)

var treeVerbs bool

func init() {
	cmd := newTreeCmd()
	cmd.Flags().BoolVar(&treeVerbs, "verbs", false, "Show each handler's verbs and commands")
	rootCmd.AddCommand(cmd)
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [.ext|scheme...]",
		Short: "Display the association graph as a tree",
		Long: `The tree command shows extensions and schemes with their handlers and the
apps those handlers lead to. The chosen handler is marked with "*".
Without arguments every extension and scheme is shown.

Example:
  assocctl tree .txt .pdf
  assocctl tree https --verbs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, args)
		},
	}
}

func runTree(cmd *cobra.Command, args []string) error {
	svc, done, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer done()
	g := svc.Graph()

	var bindings []*assoc.Binding
	if len(args) == 0 {
		for _, k := range assoc.SortedKeys(g.Extensions) {
			bindings = append(bindings, &g.Extensions[k].Binding)
		}
		for _, k := range assoc.SortedKeys(g.Schemas) {
			bindings = append(bindings, &g.Schemas[k].Binding)
		}
	}
	for _, a := range args {
		var b *assoc.Binding
		if isExtension(a) {
			if e := g.Extension(a); e != nil {
				b = &e.Binding
			}
		} else if s := g.Schema(a); s != nil {
			b = &s.Binding
		}
		if b == nil {
			return &types.Error{Kind: types.ErrKindNotFound, Msg: "nothing registered for " + a}
		}
		bindings = append(bindings, b)
	}

	tree := treeprint.NewWithRoot(fmt.Sprintf("%d extensions, %d schemes", len(g.Extensions), len(g.Schemas)))
	for _, b := range bindings {
		addBinding(tree, b)
	}
	printInfo("%s", tree.String())
	return nil
}

func addBinding(tree treeprint.Tree, b *assoc.Binding) {
	br := tree.AddBranch(b.Name)
	for _, h := range b.SortedHandlers() {
		label := h.ID
		if h == b.Chosen {
			label = "* " + label
		}
		if h.Packaged() {
			label += " [" + h.AUMID + "]"
		}
		hb := br.AddBranch(label)
		if fv := h.FirstVerb(); fv != nil && fv.App != nil {
			hb.AddMetaNode("app", fv.App.ID())
		}
		if !treeVerbs {
			continue
		}
		for _, v := range h.Verbs {
			if v.Command != "" {
				hb.AddMetaNode(v.Name, v.Command)
			} else {
				hb.AddNode(v.Name)
			}
		}
	}
}
