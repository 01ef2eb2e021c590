package recipe

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/depgraph/depgraph/core"
)

// rawRequirement is one entry of a recipe's requires: list. It accepts a
// bare scalar ("Say/0.1@diego/testing", a plain public requirement) or a
// mapping carrying visibility/override/condition fields.
type rawRequirement struct {
	Ref      string `yaml:"ref"`
	Private  bool   `yaml:"private"`
	Override bool   `yaml:"override"`
	If       string `yaml:"if"`
}

func (r *rawRequirement) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.Ref = value.Value
		return nil
	}
	type plain rawRequirement
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = rawRequirement(p)
	return nil
}

// toDecl resolves the raw YAML entry into a core.RequirementDecl, compiling
// its "if:" guard (if any) into a Cond closure.
func (r rawRequirement) toDecl() (core.RequirementDecl, error) {
	ref, err := core.ParseReference(r.Ref)
	if err != nil {
		return core.RequirementDecl{}, fmt.Errorf("requires: %v", err)
	}

	decl := core.RequirementDecl{
		Ref:      ref,
		Override: r.Override,
	}
	if r.Private {
		decl.Visibility = core.Private
	}
	if r.If != "" {
		cond, err := compileCondition(r.If)
		if err != nil {
			return core.RequirementDecl{}, fmt.Errorf("requires %s: %v", r.Ref, err)
		}
		decl.Cond = cond
	}
	return decl, nil
}
