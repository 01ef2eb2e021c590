package core

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
)

// A Reference is, more or less, the name of a recipe. It is the fully
// qualified package coordinate `name/version@user/channel`.
//
// References are immutable once parsed. Two References compare equal iff
// every field matches; their total order is the lexical order of the tuple
// (Name, Version, User, Channel), which is what makes dumps that sort a list
// of References reproducible across runs.
//
// Aliasing a bare string as the wire form would lose the parsed Version, so
// Reference instead carries a *semver.Version alongside the original literal:
// Major()/Minor() need real integer accessors, but the literal has to survive
// round-trip (e.g. "0.1" must not become "0.1.0" when re-serialised).
type Reference struct {
	Name    string
	User    string
	Channel string

	version    string
	semVersion *semver.Version
}

// ParseReference parses "name/version@user/channel". Embedded whitespace or
// any empty field is rejected.
func ParseReference(s string) (Reference, error) {
	atParts := strings.SplitN(s, "@", 2)
	if len(atParts) != 2 {
		return Reference{}, errors.Errorf("malformed reference %q: missing '@user/channel'", s)
	}

	nameVersion := strings.SplitN(atParts[0], "/", 2)
	if len(nameVersion) != 2 {
		return Reference{}, errors.Errorf("malformed reference %q: missing '/version'", s)
	}

	userChannel := strings.SplitN(atParts[1], "/", 2)
	if len(userChannel) != 2 {
		return Reference{}, errors.Errorf("malformed reference %q: missing '/channel'", s)
	}

	ref := Reference{
		Name:    nameVersion[0],
		User:    userChannel[0],
		Channel: userChannel[1],
	}
	if err := ref.setVersion(nameVersion[1]); err != nil {
		return Reference{}, errors.Wrapf(err, "malformed reference %q", s)
	}

	for _, field := range []string{ref.Name, ref.version, ref.User, ref.Channel} {
		if field == "" {
			return Reference{}, errors.Errorf("malformed reference %q: empty field", s)
		}
		if strings.ContainsAny(field, " \t\n") {
			return Reference{}, errors.Errorf("malformed reference %q: field %q contains whitespace", s, field)
		}
	}

	return ref, nil
}

// NewReference builds a Reference from discrete fields, validating the
// version the same way ParseReference does.
func NewReference(name, version, user, channel string) (Reference, error) {
	return ParseReference(fmt.Sprintf("%s/%s@%s/%s", name, version, user, channel))
}

func (r *Reference) setVersion(v string) error {
	sv, err := semver.NewVersion(v)
	if err != nil {
		return errors.Wrapf(err, "invalid version %q", v)
	}
	r.version = v
	r.semVersion = sv
	return nil
}

// String renders the canonical "name/version@user/channel" form.
func (r Reference) String() string {
	return fmt.Sprintf("%s/%s@%s/%s", r.Name, r.version, r.User, r.Channel)
}

// Version returns the literal version string, exactly as parsed.
func (r Reference) Version() string { return r.version }

// Major replaces the minor and patch segments with the literal tokens Y/Z:
// "1.2.3" -> "1.Y.Z". Semver() returns this form for stable (>= 1) versions,
// and that is what a node's reduced `requires` view shows for public,
// non-pinned dependencies.
func (r Reference) Major() string {
	return fmt.Sprintf("%d.Y.Z", r.semVersion.Major())
}

// Minor replaces only the patch segment: "1.2.3" -> "1.2.Z".
func (r Reference) Minor() string {
	return fmt.Sprintf("%d.%d.Z", r.semVersion.Major(), r.semVersion.Minor())
}

// Patch is the full, literal version string.
func (r Reference) Patch() string {
	return r.version
}

// Semver is the compatibility-scoped form used for public dependencies in a
// node's reduced requires view: Major() for stable (>= 1) versions, and the
// full version for 0.x releases, which promise no compatibility between
// minors.
func (r Reference) Semver() string {
	if r.semVersion.Major() == 0 {
		return r.version
	}
	return r.Major()
}

// Equal compares every field.
func (r Reference) Equal(o Reference) bool {
	return r.Name == o.Name && r.version == o.version && r.User == o.User && r.Channel == o.Channel
}

// Less imposes the total order used for deterministic serialisation: tuple
// order over (Name, Version, User, Channel).
func (r Reference) Less(o Reference) bool {
	if r.Name != o.Name {
		return r.Name < o.Name
	}
	if r.version != o.version {
		return r.version < o.version
	}
	if r.User != o.User {
		return r.User < o.User
	}
	return r.Channel < o.Channel
}
