package recipe

import (
	"strings"
	"testing"

	"github.com/depgraph/depgraph/core"
)

func TestLoadMinimalRecipe(t *testing.T) {
	text := []byte(`
name: Say
version: "0.1"
settings: [os, compiler]
`)
	r, err := New().Load(text, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Name != "Say" {
		t.Fatalf("Name = %q, want Say", r.Name)
	}
	if len(r.SettingsKeys) != 2 || r.SettingsKeys[0] != "os" || r.SettingsKeys[1] != "compiler" {
		t.Fatalf("SettingsKeys = %v", r.SettingsKeys)
	}
}

func TestLoadRejectsZeroOrMultipleDocuments(t *testing.T) {
	if _, err := New().Load([]byte(""), false); err == nil {
		t.Fatal("expected an error loading an empty document")
	} else if _, ok := err.(*core.LoadError); !ok {
		t.Fatalf("expected *core.LoadError, got %T", err)
	}

	multi := []byte("name: A\n---\nname: B\n")
	if _, err := New().Load(multi, false); err == nil {
		t.Fatal("expected an error loading more than one document")
	} else if _, ok := err.(*core.LoadError); !ok {
		t.Fatalf("expected *core.LoadError, got %T", err)
	}
}

func TestLoadRequiresBareScalarShorthand(t *testing.T) {
	text := []byte(`
name: Hello
requires:
  - Say/0.1@diego/testing
`)
	r, err := New().Load(text, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(r.Requires) != 1 {
		t.Fatalf("len(Requires) = %d, want 1", len(r.Requires))
	}
	decl := r.Requires[0]
	if decl.Ref.Name != "Say" || decl.Visibility != core.Public || decl.Override {
		t.Fatalf("unexpected decl: %+v", decl)
	}
}

func TestLoadRequiresMappingForm(t *testing.T) {
	text := []byte(`
name: Bye
requires:
  - ref: Say/0.2@diego/testing
    private: true
    override: true
    if: "zip == True"
`)
	r, err := New().Load(text, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	decl := r.Requires[0]
	if decl.Ref.Name != "Say" || decl.Visibility != core.Private || !decl.Override {
		t.Fatalf("unexpected decl: %+v", decl)
	}
	if decl.Cond == nil {
		t.Fatal("expected a compiled condition for the if: guard")
	}

	schema := map[string][]string{"zip": {"True", "False"}}
	opts := core.NewOptions("Say/0.2@diego/testing", schema, []string{"zip"})
	if _, err := opts.Set("zip", "True", "root"); err != nil {
		t.Fatal(err)
	}
	if !decl.Cond(opts) {
		t.Fatal("condition should evaluate true when zip == True")
	}
}

func TestLoadOptionsPreservesDeclarationOrder(t *testing.T) {
	text := []byte(`
name: Say
options:
  shared: ["True", "False"]
  zip: ["True", "False"]
`)
	r, err := New().Load(text, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if strings.Join(r.OptionsOrder, ",") != "shared,zip" {
		t.Fatalf("OptionsOrder = %v, want [shared zip]", r.OptionsOrder)
	}
}

func TestLoadDefaultOptionsMappingForm(t *testing.T) {
	text := []byte(`
name: Say
default_options:
  shared: "False"
  zip: "True"
`)
	r, err := New().Load(text, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(r.DefaultOptions) != 2 {
		t.Fatalf("len(DefaultOptions) = %d, want 2", len(r.DefaultOptions))
	}
}

func TestLoadDefaultOptionsScalarForm(t *testing.T) {
	text := []byte("name: Say\ndefault_options: |\n  shared=False\n  zip=True\n")
	r, err := New().Load(text, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := map[string]string{"shared": "False", "zip": "True"}
	if len(r.DefaultOptions) != 2 {
		t.Fatalf("len(DefaultOptions) = %d, want 2", len(r.DefaultOptions))
	}
	for _, kv := range r.DefaultOptions {
		if want[kv.Key] != kv.Value {
			t.Fatalf("unexpected default option %s=%s", kv.Key, kv.Value)
		}
	}
}

func TestLoadDefaultOptionsSequenceForm(t *testing.T) {
	text := []byte(`
name: Say
default_options:
  - [shared, "False"]
  - [zip, "True"]
`)
	r, err := New().Load(text, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(r.DefaultOptions) != 2 || r.DefaultOptions[0].Key != "shared" || r.DefaultOptions[1].Key != "zip" {
		t.Fatalf("DefaultOptions = %+v", r.DefaultOptions)
	}
}
