// Package project reads the project.toml file describing a root recipe:
// its name/version, initial settings values, initial
// scoped option assignments, and the local store directory to resolve
// requirements against.
package project

import (
	"os"
	"sort"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/depgraph/depgraph/core"
)

// rawFile mirrors registry_config.go's rawConfig/rawRegistry split: an
// exported toml.Unmarshal target kept private to this package, converted
// into the public File type below.
type rawFile struct {
	Name     string            `toml:"name"`
	Version  string            `toml:"version"`
	User     string            `toml:"user"`
	Channel  string            `toml:"channel"`
	Store    string            `toml:"store"`
	Settings map[string]string `toml:"settings"`
	Options  map[string]string `toml:"options"`
}

// File is a parsed project.toml.
type File struct {
	Name    string
	Version string
	User    string
	Channel string

	// Store is the directory internal/store.Open scans for dependency
	// recipes, resolved relative to the project.toml's own directory.
	Store string

	// Settings are initial settings values to apply to the root recipe
	// before expansion, keyed by dotted path (e.g. "compiler.version").
	Settings map[string]string

	// Options are initial option assignments, keyed the same way CLI -o
	// flags would be (possibly scoped, "pkg:opt").
	Options map[string]string
}

// Load reads and parses path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	raw := rawFile{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parsing %s as TOML", path)
	}

	if raw.Name == "" {
		return nil, errors.Errorf("%s: missing required field \"name\"", path)
	}
	if raw.Version == "" {
		return nil, errors.Errorf("%s: missing required field \"version\"", path)
	}
	if raw.Store == "" {
		raw.Store = "store"
	}

	return &File{
		Name:     raw.Name,
		Version:  raw.Version,
		User:     raw.User,
		Channel:  raw.Channel,
		Store:    raw.Store,
		Settings: raw.Settings,
		Options:  raw.Options,
	}, nil
}

// SettingsKV returns the project's initial settings assignments as ordered
// KV pairs (lexicographic by path, for deterministic application order).
func (f *File) SettingsKV() []core.KV {
	return sortedKV(f.Settings)
}

// OptionsKV returns the project's initial option assignments the same way.
func (f *File) OptionsKV() []core.KV {
	return sortedKV(f.Options)
}

func sortedKV(m map[string]string) []core.KV {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]core.KV, 0, len(keys))
	for _, k := range keys {
		out = append(out, core.KV{Key: k, Value: m[k]})
	}
	return out
}
