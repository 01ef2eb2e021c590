// Package settings carries the default settings schema document:
// os/arch/compiler/build_type and their sub-settings.
package settings

import (
	_ "embed"

	"github.com/depgraph/depgraph/core"
)

//go:embed default.yml
var defaultYAML []byte

// Default returns a fresh core.Settings tree built from the embedded default
// schema document. Every call gets its own instance since Settings.Set
// mutates in place.
func Default() (*core.Settings, error) {
	return core.NewSettings(defaultYAML)
}

// DefaultYAML returns the embedded schema document bytes, e.g. for `depgraph
// init` to copy into a new project directory.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultYAML))
	copy(out, defaultYAML)
	return out
}
