package core

import (
	"fmt"
	"sort"
	"strings"
)

// FullRequireEntry is one line of a node's FullRequires view: a transitive
// dependency's reference and its already-computed package id.
type FullRequireEntry struct {
	Ref       Reference
	PackageID string
}

// requireEntry is one line of a node's reduced Requires view.
type requireEntry struct {
	Name    string
	Version string
}

func (e requireEntry) String() string {
	return e.Name + "/" + e.Version
}

// Info is the derived record a node owns after Pass 2:
// a Full* view (the literal configuration applied to the node) and a
// reduced view (the identity-shaping subset used for hashing). A recipe's
// ConanInfo hook may mutate only the reduced view, and only through the
// closed set of methods below — it cannot reach the node's live
// Settings/Options/Requirements directly, so there is no way to perform an
// unsupported mutation.
type Info struct {
	node *Node

	fullSettings *Settings
	fullOptions  *Options
	fullRequires []FullRequireEntry

	settings *Settings
	options  *Options
	requires []requireEntry
}

// newInfo is called by the builder's Pass 2 once a node's Full* view and
// initial reduced view have been computed.
func newInfo(node *Node, fullSettings *Settings, fullOptions *Options, fullRequires []FullRequireEntry, requires []requireEntry) *Info {
	return &Info{
		node:         node,
		fullSettings: fullSettings,
		fullOptions:  fullOptions,
		fullRequires: fullRequires,
		settings:     fullSettings.Clone(),
		options:      fullOptions.Clone(),
		requires:     requires,
	}
}

// SetSetting overwrites a value in the reduced settings view, used by a
// ConanInfo hook to erase irrelevant variance (e.g. a compiler minor
// version that doesn't affect ABI compatibility).
func (i *Info) SetSetting(path, value string) error {
	return i.settings.Set(path, value)
}

// SetOption overwrites this package's own value in the reduced options
// view.
func (i *Info) SetOption(name, value string, writer string) error {
	conflict, err := i.options.setOwn(name, value, writer)
	if err != nil {
		return err
	}
	if conflict != nil {
		// The value carried over from Pass 1 is replaced, not kept.
		i.options.values[name] = value
		i.options.writer[name] = writer
	}
	return nil
}

// UseMinorVersion replaces the reduced requires entry for pkgName with the
// `.Minor()` derived form of the dependency's full version (e.g. "1.2.3"
// becomes "1.2.Z"). Returns a *ValidationError if pkgName has no requires
// entry.
func (i *Info) UseMinorVersion(pkgName string) error {
	dep, err := i.depRef(pkgName)
	if err != nil {
		return err
	}
	return i.setRequireVersion(pkgName, dep.Minor())
}

// UseMajorVersion is UseMinorVersion's `.Major()` counterpart.
func (i *Info) UseMajorVersion(pkgName string) error {
	dep, err := i.depRef(pkgName)
	if err != nil {
		return err
	}
	return i.setRequireVersion(pkgName, dep.Major())
}

// SetRequireName overwrites the reduced requires entry's displayed name for
// pkgName (e.g. to a recipe-declared "full name" distinct from its package
// name).
func (i *Info) SetRequireName(pkgName, name string) error {
	for idx, e := range i.requires {
		if e.Name == pkgName {
			i.requires[idx].Name = name
			return nil
		}
	}
	return &ValidationError{Ref: i.node.String(), Field: "requires." + pkgName}
}

// AddRequire appends one synthetic requires entry not backed by an actual
// graph edge. Used by hooks that want the package id to reflect a
// dependency that isn't materialised as a node (e.g. a build-only tool
// version).
func (i *Info) AddRequire(name, version string) {
	i.requires = append(i.requires, requireEntry{Name: name, Version: version})
}

func (i *Info) setRequireVersion(pkgName, version string) error {
	for idx, e := range i.requires {
		if e.Name == pkgName {
			i.requires[idx].Version = version
			return nil
		}
	}
	return &ValidationError{Ref: i.node.String(), Field: "requires." + pkgName}
}

func (i *Info) depRef(pkgName string) (Reference, error) {
	for _, child := range append(append([]*Node{}, i.node.Public...), i.node.Private...) {
		if child.Ref != nil && child.Ref.Name == pkgName {
			return *child.Ref, nil
		}
	}
	return Reference{}, &ValidationError{Ref: i.node.String(), Field: "requires." + pkgName}
}

// SettingsDump, OptionsDump and RequiresDump are the reduced-view dumps fed
// to PackageID.
func (i *Info) SettingsDump() string { return i.settings.Dump() }
func (i *Info) OptionsDump() string  { return i.options.OwnDump() }

func (i *Info) RequiresDump() string {
	lines := make([]string, len(i.requires))
	for idx, e := range i.requires {
		lines[idx] = e.String()
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// FullSettingsDump, FullOptionsDump and FullRequiresDump are the Full* view
// dumps, carried in the serialised record but not fed to the hash.
func (i *Info) FullSettingsDump() string { return i.fullSettings.Dump() }
func (i *Info) FullOptionsDump() string  { return i.fullOptions.Dump() }

func (i *Info) FullRequiresDump() string {
	lines := make([]string, len(i.fullRequires))
	for idx, e := range i.fullRequires {
		lines[idx] = fmt.Sprintf("%s:%s", e.Ref.String(), e.PackageID)
	}
	return strings.Join(lines, "\n")
}

// Serialize renders the record in the persisted text form consumed
// downstream: the reduced views first, then the Full*
// views, each under a bracketed section header. Empty sections keep their
// header so a parser can rely on all six being present.
func (i *Info) Serialize() string {
	sections := []struct{ name, body string }{
		{"settings", i.SettingsDump()},
		{"options", i.OptionsDump()},
		{"requires", i.RequiresDump()},
		{"full_settings", i.FullSettingsDump()},
		{"full_options", i.FullOptionsDump()},
		{"full_requires", i.FullRequiresDump()},
	}
	var out []string
	for _, s := range sections {
		if s.body == "" {
			out = append(out, "["+s.name+"]")
			continue
		}
		out = append(out, "["+s.name+"]\n"+s.body)
	}
	return strings.Join(out, "\n\n") + "\n"
}

// PackageID computes this node's package id from the current reduced view.
// A ConanInfo hook must run before this is called for its mutations to take
// effect; the builder enforces that ordering.
func (i *Info) PackageID() string {
	return PackageID(i.SettingsDump(), i.OptionsDump(), i.RequiresDump())
}
