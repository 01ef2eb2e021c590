package main

import "flag"

const idShortHelp = `Print the root recipe's package id`
const idLongHelp = `
Resolves the recipe's transitive dependency graph and prints the root node's
package id followed by its full info record: the reduced [settings],
[options] and [requires] views the id is hashed from, then the [full_*]
views, with [full_requires] carrying one "ref:package_id" line per
transitive dependency, lexicographically sorted.
`

type idCommand struct {
	options optionFlag
}

func (cmd *idCommand) Name() string      { return "id" }
func (cmd *idCommand) Args() string      { return "<project.toml>" }
func (cmd *idCommand) ShortHelp() string { return idShortHelp }
func (cmd *idCommand) LongHelp() string  { return idLongHelp }

func (cmd *idCommand) Register(fs *flag.FlagSet) {
	fs.Var(&cmd.options, "o", "set an option (name=value or pkg:name=value), repeatable")
}

func (cmd *idCommand) Run(ctx *Ctx, args []string) error {
	if len(args) != 1 {
		return errArgs
	}

	g, err := buildGraph(ctx, args[0], cmd.options.values)
	if err != nil {
		return err
	}

	root := g.Root
	ctx.Out.Logln(root.Info.PackageID())
	ctx.Out.Logln()
	ctx.Out.Logf("%s", root.Info.Serialize())

	return nil
}
