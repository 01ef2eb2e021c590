package recipe

import (
	"testing"

	"github.com/depgraph/depgraph/core"
)

func optionsWith(t *testing.T, kv map[string]string) *core.Options {
	t.Helper()
	schema := map[string][]string{}
	var order []string
	for k := range kv {
		schema[k] = []string{"True", "False", "Linux", "Android"}
		order = append(order, k)
	}
	opts := core.NewOptions("pkg", schema, order)
	for k, v := range kv {
		if _, err := opts.Set(k, v, "root"); err != nil {
			t.Fatalf("Set(%s=%s): %v", k, v, err)
		}
	}
	return opts
}

func TestCompileConditionEquality(t *testing.T) {
	cond, err := compileCondition("zip == True")
	if err != nil {
		t.Fatalf("compileCondition: %v", err)
	}
	if !cond(optionsWith(t, map[string]string{"zip": "True"})) {
		t.Fatal("expected true when zip == True")
	}
	if cond(optionsWith(t, map[string]string{"zip": "False"})) {
		t.Fatal("expected false when zip == False")
	}
}

func TestCompileConditionInequality(t *testing.T) {
	cond, err := compileCondition("zip != True")
	if err != nil {
		t.Fatalf("compileCondition: %v", err)
	}
	if cond(optionsWith(t, map[string]string{"zip": "True"})) {
		t.Fatal("expected false when zip == True for a != comparison")
	}
}

func TestCompileConditionAnd(t *testing.T) {
	cond, err := compileCondition("zip == True and shared == False")
	if err != nil {
		t.Fatalf("compileCondition: %v", err)
	}
	if !cond(optionsWith(t, map[string]string{"zip": "True", "shared": "False"})) {
		t.Fatal("expected true when both clauses hold")
	}
	if cond(optionsWith(t, map[string]string{"zip": "True", "shared": "True"})) {
		t.Fatal("expected false when one clause fails")
	}
}

func TestCompileConditionOr(t *testing.T) {
	cond, err := compileCondition("os == Linux or os == Android")
	if err != nil {
		t.Fatalf("compileCondition: %v", err)
	}
	if !cond(optionsWith(t, map[string]string{"os": "Linux"})) {
		t.Fatal("expected true for os == Linux")
	}
	if !cond(optionsWith(t, map[string]string{"os": "Android"})) {
		t.Fatal("expected true for os == Android")
	}
	if cond(optionsWith(t, map[string]string{"os": "True"})) {
		t.Fatal("expected false for a non-matching os")
	}
}

func TestCompileConditionRejectsMalformedExpressions(t *testing.T) {
	cases := []string{
		"",
		"zip",
		"zip ==",
		"zip === True",
		"zip == True and",
		"zip == True extra",
	}
	for _, expr := range cases {
		if _, err := compileCondition(expr); err == nil {
			t.Errorf("compileCondition(%q): expected an error", expr)
		}
	}
}
