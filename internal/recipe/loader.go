// Package recipe implements core.Loader over a declarative recipe format:
// YAML data plus a tiny boolean expression DSL for conditional
// requirements, rather than an embedded scripting runtime.
package recipe

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/depgraph/depgraph/core"
)

// Loader implements core.Loader by parsing a recipe.yml document.
type Loader struct{}

// New returns a Loader. It holds no state; every Load call is independent.
func New() *Loader { return &Loader{} }

// rawFields is decoded directly off the document's mapping node for every
// field whose shape doesn't need order preserved beyond what yaml.v3's
// struct decoding already gives a slice.
type rawFields struct {
	Name           string              `yaml:"name"`
	Version        string              `yaml:"version"`
	Settings       []string            `yaml:"settings"`
	DefaultOptions defaultOptionsField `yaml:"default_options"`
	Requires       []rawRequirement    `yaml:"requires"`
}

// Load parses text as a single recipe document. consumer is true when this
// recipe is being loaded as someone else's dependency rather than as the
// root project recipe; the declarative format does not
// currently vary behavior on it, but the parameter is part of the core.Loader
// contract so callers can't tell the two cases apart by signature alone.
func (l *Loader) Load(text []byte, consumer bool) (*core.Recipe, error) {
	_ = consumer

	dec := yaml.NewDecoder(bytes.NewReader(text))
	var docs []yaml.Node
	for {
		var n yaml.Node
		err := dec.Decode(&n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &core.LoadError{Ref: "root", Reason: fmt.Sprintf("invalid recipe: %v", err)}
		}
		docs = append(docs, n)
	}

	if len(docs) == 0 {
		return nil, &core.LoadError{Ref: "root", Reason: "no recipe declared in file"}
	}
	if len(docs) > 1 {
		return nil, &core.LoadError{Ref: "root", Reason: "more than one recipe declared in file"}
	}

	return decode(&docs[0])
}

func decode(doc *yaml.Node) (*core.Recipe, error) {
	if len(doc.Content) == 0 {
		return nil, &core.LoadError{Ref: "root", Reason: "no recipe declared in file"}
	}
	body := doc.Content[0]
	if body.Kind != yaml.MappingNode {
		return nil, &core.LoadError{Ref: "root", Reason: "recipe must be a mapping"}
	}

	var raw rawFields
	if err := body.Decode(&raw); err != nil {
		return nil, &core.LoadError{Ref: "root", Reason: fmt.Sprintf("invalid recipe: %v", err)}
	}

	ref := raw.Name
	if ref == "" {
		ref = "root"
	}

	optSchema, optOrder, err := parseOptionsNode(findChild(body, "options"))
	if err != nil {
		return nil, &core.LoadError{Ref: ref, Reason: err.Error()}
	}

	requires := make([]core.RequirementDecl, 0, len(raw.Requires))
	for _, r := range raw.Requires {
		decl, err := r.toDecl()
		if err != nil {
			return nil, &core.LoadError{Ref: ref, Reason: err.Error()}
		}
		requires = append(requires, decl)
	}

	return &core.Recipe{
		Name:           raw.Name,
		SettingsKeys:   raw.Settings,
		OptionsOrder:   optOrder,
		OptionsSchema:  optSchema,
		DefaultOptions: []core.KV(raw.DefaultOptions),
		Requires:       requires,
	}, nil
}

// findChild returns the value node paired with key in a mapping node, or nil
// if absent. Used for fields (like "options") whose declaration order must
// survive into core.Recipe.OptionsOrder, which a plain struct-tagged map
// field would lose.
func findChild(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func parseOptionsNode(n *yaml.Node) (map[string][]string, []string, error) {
	if n == nil {
		return nil, nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("options: expected a mapping of option name to allowed values")
	}
	schema := map[string][]string{}
	var order []string
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		val := n.Content[i+1]
		if val.Kind != yaml.SequenceNode {
			return nil, nil, fmt.Errorf("options.%s: expected a list of allowed values", name)
		}
		values := make([]string, 0, len(val.Content))
		for _, c := range val.Content {
			values = append(values, c.Value)
		}
		schema[name] = values
		order = append(order, name)
	}
	return schema, order, nil
}
