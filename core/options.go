package core

import (
	"fmt"
	"sort"
	"strings"
)

// Options is a single package's resolved option values, plus any scoped
// assignments it declares for its own dependencies (e.g. a default_options
// entry like "Say:zip=True"). The owning package's values are validated
// against its declared schema; scoped entries addressed to other packages
// are opaque strings here — they're validated later, against the target
// package's own schema, when that package's node applies them via Set.
type Options struct {
	owner  string // this package's own reference string, for conflict messages
	schema map[string][]string
	order  []string

	values    map[string]string
	writer    map[string]string // option name -> identifier of who assigned it, for conflict diagnostics
	defaulted map[string]bool   // values seeded from the recipe's own default_options; any real writer replaces them silently

	foreign       map[string]map[string]string // target package -> option -> value
	foreignWriter map[string]map[string]string // target package -> option -> writer
}

// NewOptions builds an Options set for a package declaring the given option
// schema (name -> allowed values), in declaration order. owner is this
// package's own reference string, used to attribute conflict diagnostics.
func NewOptions(owner string, schema map[string][]string, order []string) *Options {
	return &Options{
		owner:         owner,
		schema:        schema,
		order:         order,
		values:        map[string]string{},
		writer:        map[string]string{},
		defaulted:     map[string]bool{},
		foreign:       map[string]map[string]string{},
		foreignWriter: map[string]map[string]string{},
	}
}

// ParseScoped splits "pkg:opt" into (pkg, opt, true), or returns
// ("", name, false) for an unscoped name.
func ParseScoped(name string) (pkg, opt string, scoped bool) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:], true
	}
	return "", name, false
}

// Set assigns value to name, which may be scoped ("pkg:opt") to address a
// foreign package or unscoped to address this package's own schema. writer
// identifies the assigner (typically a Reference.String()) for conflict
// diagnostics. Per the tri-state rule: the first
// assignment wins; a repeat assignment of the same value is a no-op; a
// repeat assignment of a different value yields a non-nil *OptionConflict
// and the original value is kept — this is never an error.
func (o *Options) Set(name, value, writer string) (*OptionConflict, error) {
	pkg, opt, scoped := ParseScoped(name)
	if scoped {
		return o.setForeign(pkg, opt, value, writer), nil
	}
	return o.setOwn(opt, value, writer)
}

func (o *Options) setOwn(opt, value, writer string) (*OptionConflict, error) {
	allowed, ok := o.schema[opt]
	if !ok {
		return nil, &ValidationError{Field: opt, Allowed: o.topLevelNames()}
	}
	found := false
	for _, v := range allowed {
		if v == value {
			found = true
			break
		}
	}
	if !found {
		return nil, &ValidationError{Field: opt, Value: value, Allowed: allowed}
	}
	existing, assigned := o.values[opt]
	if !assigned || o.defaulted[opt] {
		// A recipe's own default is the lowest-precedence assignment: the
		// first real writer replaces it without a conflict.
		o.values[opt] = value
		o.writer[opt] = writer
		delete(o.defaulted, opt)
		return nil, nil
	}
	if existing == value {
		return nil, nil
	}
	return &OptionConflict{
		Writer:    writer,
		Owner:     o.owner,
		Option:    opt,
		Attempted: value,
		Kept:      existing,
		FirstBy:   o.writer[opt],
	}, nil
}

func (o *Options) setForeign(pkg, opt, value, writer string) *OptionConflict {
	if o.foreign[pkg] == nil {
		o.foreign[pkg] = map[string]string{}
		o.foreignWriter[pkg] = map[string]string{}
	}
	existing, ok := o.foreign[pkg][opt]
	if !ok {
		o.foreign[pkg][opt] = value
		o.foreignWriter[pkg][opt] = writer
		return nil
	}
	if existing == value {
		return nil
	}
	return &OptionConflict{
		Writer:    writer,
		Owner:     pkg,
		Option:    opt,
		Attempted: value,
		Kept:      existing,
		FirstBy:   o.foreignWriter[pkg][opt],
	}
}

// SetDefault seeds opt with the recipe's own default value. It validates
// against the declared schema like Set, but never wins against an assignment
// already made by a real writer (e.g. a CLI flag applied before the recipe's
// defaults), and a later real writer replaces it without a conflict.
func (o *Options) SetDefault(opt, value string) error {
	allowed, ok := o.schema[opt]
	if !ok {
		return &ValidationError{Field: opt, Allowed: o.topLevelNames()}
	}
	found := false
	for _, v := range allowed {
		if v == value {
			found = true
			break
		}
	}
	if !found {
		return &ValidationError{Field: opt, Value: value, Allowed: allowed}
	}
	if _, assigned := o.values[opt]; assigned && !o.defaulted[opt] {
		return nil
	}
	o.values[opt] = value
	o.writer[opt] = o.owner
	o.defaulted[opt] = true
	return nil
}

// Clear removes all of this package's own option assignments, leaving
// scoped foreign-package options intact.
func (o *Options) Clear() {
	o.values = map[string]string{}
	o.writer = map[string]string{}
	o.defaulted = map[string]bool{}
}

// Get returns this package's own assigned value for opt, if any.
func (o *Options) Get(opt string) (string, bool) {
	v, ok := o.values[opt]
	return v, ok
}

// ForeignScopedFor returns the scoped option assignments this Options
// carries for a downstream package named pkgName — e.g. a parent's
// default_options entry "Say:zip=True" surfaces here when pkgName=="Say".
// The caller applies each as an inherited Set on the child's own Options.
func (o *Options) ForeignScopedFor(pkgName string) map[string]string {
	if m, ok := o.foreign[pkgName]; ok {
		out := make(map[string]string, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}
	return nil
}

func (o *Options) topLevelNames() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// OwnDump serialises only this package's own options, in declaration
// order, as "name=value" lines joined by "\n". This is the reduced view
// used for identity hashing.
func (o *Options) OwnDump() string {
	var lines []string
	for _, name := range o.order {
		if v, ok := o.values[name]; ok {
			lines = append(lines, fmt.Sprintf("%s=%s", name, v))
		}
	}
	return strings.Join(lines, "\n")
}

// Dump serialises the full view: this package's own options in declaration
// order, then foreign scoped options grouped per target package, both
// target package and option name in lexicographic order for determinism.
func (o *Options) Dump() string {
	lines := []string{}
	if own := o.OwnDump(); own != "" {
		lines = append(lines, own)
	}

	pkgs := make([]string, 0, len(o.foreign))
	for pkg := range o.foreign {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)
	for _, pkg := range pkgs {
		opts := o.foreign[pkg]
		names := make([]string, 0, len(opts))
		for n := range opts {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			lines = append(lines, fmt.Sprintf("%s:%s=%s", pkg, n, opts[n]))
		}
	}
	return strings.Join(lines, "\n")
}

// Clone returns a deep copy suitable for independent per-node mutation; the
// schema is shared (read-only after load).
func (o *Options) Clone() *Options {
	c := &Options{
		owner:         o.owner,
		schema:        o.schema,
		order:         append([]string(nil), o.order...),
		values:        make(map[string]string, len(o.values)),
		writer:        make(map[string]string, len(o.writer)),
		defaulted:     make(map[string]bool, len(o.defaulted)),
		foreign:       make(map[string]map[string]string, len(o.foreign)),
		foreignWriter: make(map[string]map[string]string, len(o.foreignWriter)),
	}
	for k, v := range o.values {
		c.values[k] = v
	}
	for k, v := range o.writer {
		c.writer[k] = v
	}
	for k, v := range o.defaulted {
		c.defaulted[k] = v
	}
	for pkg, m := range o.foreign {
		cm := make(map[string]string, len(m))
		for k, v := range m {
			cm[k] = v
		}
		c.foreign[pkg] = cm
	}
	for pkg, m := range o.foreignWriter {
		cm := make(map[string]string, len(m))
		for k, v := range m {
			cm[k] = v
		}
		c.foreignWriter[pkg] = cm
	}
	return c
}
