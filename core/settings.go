package core

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// settingsNode is one level of the settings schema tree: either a leaf
// (Values populated, Children nil) or an interior node (Children populated,
// Values nil) whose own allowed values are the keys of Children — assigning
// one of them selects that variant's sub-settings (e.g. compiler=gcc makes
// compiler.version resolve against the gcc mapping).
type settingsNode struct {
	Values   []string
	Children map[string]*settingsNode
	Order    []string // Children keys in schema declaration order
}

func (n *settingsNode) isLeaf() bool {
	return n.Children == nil
}

// allowed returns the set of values Set() may assign at this node: the enum
// for a leaf, or the child-key set for an interior node.
func (n *settingsNode) allowed() []string {
	if n.isLeaf() {
		return n.Values
	}
	keys := make([]string, len(n.Order))
	copy(keys, n.Order)
	return keys
}

// Settings is a typed, hierarchical, constrained configuration tree loaded
// from a YAML schema document. It tracks both the
// schema (what fields/values are legal) and the assigned values (what has
// actually been Set so far).
type Settings struct {
	schema map[string]*settingsNode
	// order is the schema's declaration order, preserved for Dump/Fields.
	order []string
	// values holds the assigned leaf path -> value, e.g. "compiler.version" -> "9".
	values map[string]string
	// removed top-level fields are pruned from both schema and order.
}

// NewSettings parses a YAML settings schema document: a nested mapping of
// enumerations, where a mapping value declares a variant with sub-settings.
func NewSettings(schemaYAML []byte) (*Settings, error) {
	var raw yaml.Node
	if err := yaml.Unmarshal(schemaYAML, &raw); err != nil {
		return nil, &LoadError{Ref: "root", Reason: fmt.Sprintf("invalid settings schema: %v", err)}
	}
	if len(raw.Content) == 0 {
		return &Settings{schema: map[string]*settingsNode{}, values: map[string]string{}}, nil
	}

	root := raw.Content[0]
	schema, order, err := parseSchemaMapping(root)
	if err != nil {
		return nil, err
	}

	return &Settings{schema: schema, order: order, values: map[string]string{}}, nil
}

func parseSchemaMapping(n *yaml.Node) (map[string]*settingsNode, []string, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nil, &LoadError{Ref: "root", Reason: "settings schema: expected a mapping"}
	}
	schema := map[string]*settingsNode{}
	var order []string
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		val := n.Content[i+1]
		node, err := parseSchemaNode(val)
		if err != nil {
			return nil, nil, err
		}
		schema[key] = node
		order = append(order, key)
	}
	return schema, order, nil
}

func parseSchemaNode(n *yaml.Node) (*settingsNode, error) {
	switch n.Kind {
	case yaml.SequenceNode:
		values := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			values = append(values, c.Value)
		}
		return &settingsNode{Values: values}, nil
	case yaml.MappingNode:
		children, order, err := parseSchemaMapping(n)
		if err != nil {
			return nil, err
		}
		return &settingsNode{Children: children, Order: order}, nil
	default:
		return nil, &LoadError{Ref: "root", Reason: "settings schema: leaf must be a sequence"}
	}
}

// Remove deletes a top-level field, or (with two arguments worth of calls)
// narrows an enum by removing one of its elements. Removing a field makes a
// later Set on it fail with an "undefined field" ValidationError; removing
// an enum element narrows the set of values Set will subsequently accept.
func (s *Settings) Remove(path ...string) error {
	if len(path) == 0 {
		return nil
	}
	if len(path) == 1 {
		field := path[0]
		if _, ok := s.schema[field]; !ok {
			return &ValidationError{Ref: "root", Field: field, Allowed: s.topLevelFields()}
		}
		delete(s.schema, field)
		for i, f := range s.order {
			if f == field {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		s.pruneValuesUnder(field)
		return nil
	}

	// Remove an enum element: Remove("os", "Linux"). The schema node is
	// replaced rather than narrowed in place: clones and restrictions share
	// node pointers, and one recipe pruning its own enum must not narrow
	// every other node's.
	field, elem := path[0], path[1]
	node, ok := s.schema[field]
	if !ok {
		return &ValidationError{Ref: "root", Field: field, Allowed: s.topLevelFields()}
	}
	if !node.isLeaf() {
		return &ValidationError{Ref: "root", Field: field, Value: elem, Allowed: node.allowed()}
	}
	for i, v := range node.Values {
		if v == elem {
			narrowed := make([]string, 0, len(node.Values)-1)
			narrowed = append(narrowed, node.Values[:i]...)
			narrowed = append(narrowed, node.Values[i+1:]...)
			s.schema[field] = &settingsNode{Values: narrowed}
			return nil
		}
	}
	return &ValidationError{Ref: "root", Field: field, Value: elem, Allowed: node.Values}
}

func (s *Settings) pruneValuesUnder(field string) {
	prefix := field + "."
	for k := range s.values {
		if k == field || strings.HasPrefix(k, prefix) {
			delete(s.values, k)
		}
	}
}

func (s *Settings) topLevelFields() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Set assigns value at the dotted path. Assigning an interior field selects
// one of its variants (Set("compiler", "gcc")); a subfield path then resolves
// through the selected variant (Set("compiler.version", "9") validates
// against the gcc mapping). Assigning a subfield before its parent variant is
// chosen is an error, as is an unknown field or a disallowed value.
func (s *Settings) Set(path, value string) error {
	segments := strings.Split(path, ".")
	cur, ok := s.schema[segments[0]]
	if !ok {
		return &ValidationError{Ref: "root", Field: segments[0], Allowed: s.topLevelFields()}
	}
	prefix := segments[0]
	for _, seg := range segments[1:] {
		if cur.isLeaf() {
			return &ValidationError{Ref: "root", Field: path, Allowed: cur.allowed()}
		}
		chosen, assigned := s.values[prefix]
		if !assigned {
			return &ValidationError{Ref: "root", Field: path, Allowed: cur.allowed()}
		}
		variant := cur.Children[chosen]
		if variant == nil || variant.isLeaf() {
			return &ValidationError{Ref: "root", Field: path, Allowed: cur.allowed()}
		}
		child, ok := variant.Children[seg]
		if !ok {
			return &ValidationError{Ref: "root", Field: path, Allowed: variant.allowed()}
		}
		cur = child
		prefix = prefix + "." + seg
	}
	for _, allowed := range cur.allowed() {
		if allowed == value {
			if old, ok := s.values[path]; ok && old != value && !cur.isLeaf() {
				// Re-choosing a variant invalidates its subfield values.
				s.pruneValuesUnder(path)
			}
			s.values[path] = value
			return nil
		}
	}
	return &ValidationError{Ref: "root", Field: path, Value: value, Allowed: cur.allowed()}
}

// Get returns the assigned value at path, if any.
func (s *Settings) Get(path string) (string, bool) {
	v, ok := s.values[path]
	return v, ok
}

// Fields returns the ordered list of declared top-level keys, post-pruning.
func (s *Settings) Fields() []string {
	return s.topLevelFields()
}

// Dump serialises only the assigned fields, in schema order, as "key=value"
// lines joined by "\n".
func (s *Settings) Dump() string {
	var lines []string
	for _, path := range s.assignedInSchemaOrder() {
		lines = append(lines, fmt.Sprintf("%s=%s", path, s.values[path]))
	}
	return strings.Join(lines, "\n")
}

// assignedInSchemaOrder walks the schema in declaration order and returns
// every assigned dotted path encountered: an interior field's own value
// first, then the subfields of its chosen variant.
func (s *Settings) assignedInSchemaOrder() []string {
	var out []string
	var walk func(prefix string, node *settingsNode)
	walk = func(prefix string, node *settingsNode) {
		chosen, ok := s.values[prefix]
		if !ok {
			return
		}
		out = append(out, prefix)
		if node.isLeaf() {
			return
		}
		variant := node.Children[chosen]
		if variant == nil || variant.isLeaf() {
			return
		}
		for _, k := range variant.Order {
			walk(prefix+"."+k, variant.Children[k])
		}
	}
	for _, field := range s.order {
		walk(field, s.schema[field])
	}
	return out
}

// RestrictTo returns a clone whose schema and assigned values are pruned to
// only the given top-level keys — this is how a node inherits settings from
// its parent while dropping the fields its own recipe never declared.
func (s *Settings) RestrictTo(keys []string) *Settings {
	keep := make(map[string]bool, len(keys))
	for _, k := range keys {
		keep[k] = true
	}

	schema := make(map[string]*settingsNode, len(keep))
	var order []string
	for _, k := range s.order {
		if keep[k] {
			schema[k] = s.schema[k]
			order = append(order, k)
		}
	}
	values := make(map[string]string, len(s.values))
	for k, v := range s.values {
		top := strings.SplitN(k, ".", 2)[0]
		if keep[top] {
			values[k] = v
		}
	}
	return &Settings{schema: schema, order: order, values: values}
}

// Clone returns a deep-enough copy for propagating settings down the graph:
// the schema structure is shared (it's read-only after load) but values and
// order are copied so each node can diverge independently.
func (s *Settings) Clone() *Settings {
	schema := make(map[string]*settingsNode, len(s.schema))
	for k, v := range s.schema {
		schema[k] = v
	}
	order := make([]string, len(s.order))
	copy(order, s.order)
	values := make(map[string]string, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return &Settings{schema: schema, order: order, values: values}
}
