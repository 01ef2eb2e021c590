package main

import (
	"flag"
	"sort"

	"github.com/depgraph/depgraph/core"
)

const graphShortHelp = `Build and print the dependency graph`
const graphLongHelp = `
Resolves the recipe's transitive dependency graph and prints every node and
edge. Nodes are listed as references, each followed by its package id;
edges as "from -> to" pairs, public edges plain and private edges marked
"(private)".
`

type graphCommand struct {
	options optionFlag
}

func (cmd *graphCommand) Name() string      { return "graph" }
func (cmd *graphCommand) Args() string      { return "<project.toml>" }
func (cmd *graphCommand) ShortHelp() string { return graphShortHelp }
func (cmd *graphCommand) LongHelp() string  { return graphLongHelp }

func (cmd *graphCommand) Register(fs *flag.FlagSet) {
	fs.Var(&cmd.options, "o", "set an option (name=value or pkg:name=value), repeatable")
}

func (cmd *graphCommand) Run(ctx *Ctx, args []string) error {
	if len(args) != 1 {
		return errArgs
	}

	g, err := buildGraph(ctx, args[0], cmd.options.values)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(g.Nodes))
	byName := map[string]string{}
	for _, n := range g.Nodes {
		names = append(names, n.String())
		byName[n.String()] = n.Info.PackageID()
	}
	sort.Strings(names)
	for _, name := range names {
		ctx.Out.Logf("%s %s\n", name, byName[name])
	}

	edges := make([]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		line := e.From.String() + " -> " + e.To.String()
		if e.Visibility == core.Private {
			line += " (private)"
		}
		edges = append(edges, line)
	}
	sort.Strings(edges)
	for _, e := range edges {
		ctx.Out.Logln(e)
	}

	return nil
}
