package core

import (
	"fmt"
	"sort"
)

// LoadError reports a malformed recipe file: zero or more than one recipe
// class declared in it. ref is "root" for the entry recipe.
type LoadError struct {
	Ref    string
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Ref, e.Reason)
}

// ValidationError reports an unknown or disallowed settings/options value.
type ValidationError struct {
	Ref     string
	Field   string
	Value   string
	Allowed []string
}

func (e *ValidationError) Error() string {
	allowed := append([]string(nil), e.Allowed...)
	sort.Strings(allowed)
	if e.Value == "" {
		return fmt.Sprintf("%s: undefined field %q, allowed: %v", e.Ref, e.Field, allowed)
	}
	return fmt.Sprintf("%s: bad value %q for %q, allowed: %v", e.Ref, e.Value, e.Field, allowed)
}

// MissingRequirementError reports a reference the retriever could not find.
type MissingRequirementError struct {
	Ref    string
	Parent string
}

func (e *MissingRequirementError) Error() string {
	return fmt.Sprintf("%s: requirement %s not found", e.Parent, e.Ref)
}

// CycleError reports a reference reached recursively during expansion.
type CycleError struct {
	Ref  string
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s (path: %v)", e.Ref, e.Path)
}

// VersionConflict is a non-fatal diagnostic: two incompatible references
// were seen for the same package name and the first binding was kept.
type VersionConflict struct {
	Parent string
	New    string
	Old    string
}

func (c *VersionConflict) String() string {
	return fmt.Sprintf(
		"Conflict in %s\n    Requirement %s conflicts with already defined %s\n    Keeping %s\n    To change it, override it in your base requirements",
		c.Parent, c.New, c.Old, c.Old,
	)
}

// OptionConflict is a non-fatal diagnostic: two different downstream
// writers assigned different values to the same foreign option.
type OptionConflict struct {
	Writer    string
	Owner     string
	Option    string
	Attempted string
	Kept      string
	FirstBy   string
}

func (c *OptionConflict) String() string {
	return fmt.Sprintf(
		"%s tried to change %s option %s to %s but it was already assigned to %s by %s",
		c.Writer, c.Owner, c.Option, c.Attempted, c.Kept, c.FirstBy,
	)
}

// OverrideNotice is an informational diagnostic: an override flag actually
// replaced a transitive binding.
type OverrideNotice struct {
	Parent string
	Old    string
	New    string
}

func (c *OverrideNotice) String() string {
	return fmt.Sprintf("%s requirement %s overriden by your conanfile to %s", c.Parent, c.Old, c.New)
}
