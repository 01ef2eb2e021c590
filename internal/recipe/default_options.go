package recipe

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/depgraph/depgraph/core"
)

// defaultOptionsField accepts three equivalent syntaxes for default_options:
// a mapping, a newline-delimited "k=v" block scalar, and a sequence of
// [k, v] pairs, so a recipe author can use whichever reads best.
type defaultOptionsField []core.KV

func (d *defaultOptionsField) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			*d = append(*d, core.KV{Key: value.Content[i].Value, Value: value.Content[i+1].Value})
		}
		return nil
	case yaml.ScalarNode:
		for _, line := range strings.Split(strings.TrimSpace(value.Value), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("malformed default_options line %q", line)
			}
			*d = append(*d, core.KV{Key: strings.TrimSpace(parts[0]), Value: strings.TrimSpace(parts[1])})
		}
		return nil
	case yaml.SequenceNode:
		for _, item := range value.Content {
			if item.Kind != yaml.SequenceNode || len(item.Content) != 2 {
				return fmt.Errorf("default_options: expected a [key, value] pair")
			}
			*d = append(*d, core.KV{Key: item.Content[0].Value, Value: item.Content[1].Value})
		}
		return nil
	default:
		return fmt.Errorf("default_options: unsupported encoding")
	}
}
