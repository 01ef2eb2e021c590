package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/termie/go-shutil"

	"github.com/depgraph/depgraph/internal/settings"
)

const initShortHelp = `Scaffold a new project`
const initLongHelp = `
Creates dir (the current directory if omitted) with a starter project.toml,
a starter recipe.yml with no requirements, a copy of the default settings
schema, and an empty
store/ directory for dependency recipes.
`

const projectTemplate = `name = "myproject"
version = "1.0"
store = "store"

[settings]
os = "Linux"
compiler = "gcc"

[options]
`

const recipeTemplate = `name: myproject
version: "1.0"
settings: [os, compiler, build_type, arch]
requires: []
`

type initCommand struct{}

func (cmd *initCommand) Name() string      { return "init" }
func (cmd *initCommand) Args() string      { return "[dir]" }
func (cmd *initCommand) ShortHelp() string { return initShortHelp }
func (cmd *initCommand) LongHelp() string  { return initLongHelp }
func (cmd *initCommand) Register(fs *flag.FlagSet) {}

func (cmd *initCommand) Run(ctx *Ctx, args []string) error {
	if len(args) > 1 {
		return errArgs
	}

	dir := ctx.WorkingDir
	if len(args) == 1 {
		dir = args[0]
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(ctx.WorkingDir, dir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, "store"), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "project.toml"), []byte(projectTemplate), 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "recipe.yml"), []byte(recipeTemplate), 0o644); err != nil {
		return err
	}

	// Stage the embedded default settings schema to a temp file so it can be
	// placed with shutil.CopyFile.
	staged, err := os.CreateTemp("", "depgraph-settings-*.yml")
	if err != nil {
		return err
	}
	defer os.Remove(staged.Name())
	if _, err := staged.Write(settings.DefaultYAML()); err != nil {
		staged.Close()
		return err
	}
	if err := staged.Close(); err != nil {
		return err
	}

	if err := shutil.CopyFile(staged.Name(), filepath.Join(dir, "settings.yml"), true); err != nil {
		return err
	}

	ctx.Out.Logf("initialized project in %s\n", dir)
	return nil
}
