package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/depgraph/depgraph/core"
	"github.com/depgraph/depgraph/internal/project"
	"github.com/depgraph/depgraph/internal/recipe"
	"github.com/depgraph/depgraph/internal/settings"
	"github.com/depgraph/depgraph/internal/store"
)

const rootRecipeFileName = "recipe.yml"

// buildGraph loads the project.toml at projectPath plus its sibling
// recipe.yml, opens the local store it points at, and runs the resolver.
// extraOptions (e.g. -o flags) are applied before the project file's own
// [options] table, so they win any tri-state conflict.
func buildGraph(ctx *Ctx, projectPath string, extraOptions []core.KV) (*core.Graph, error) {
	if !filepath.IsAbs(projectPath) {
		projectPath = filepath.Join(ctx.WorkingDir, projectPath)
	}

	proj, err := project.Load(projectPath)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(projectPath)

	recipeText, err := os.ReadFile(filepath.Join(dir, rootRecipeFileName))
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filepath.Join(dir, rootRecipeFileName))
	}
	rootRecipe, err := recipe.New().Load(recipeText, false)
	if err != nil {
		return nil, err
	}

	rootSettings, err := settings.Default()
	if err != nil {
		return nil, err
	}
	for _, kv := range proj.SettingsKV() {
		if err := rootSettings.Set(kv.Key, kv.Value); err != nil {
			return nil, errors.Wrapf(err, "%s: initial settings", projectPath)
		}
	}

	storeDir := proj.Store
	if !filepath.IsAbs(storeDir) {
		storeDir = filepath.Join(dir, storeDir)
	}
	st, err := store.Open(storeDir)
	if err != nil {
		return nil, err
	}

	cliOptions := append(append([]core.KV{}, extraOptions...), proj.OptionsKV()...)

	builder := core.NewBuilder(st, ctx.Err)
	return builder.Build(rootRecipe, rootSettings, cliOptions)
}
