package main

import (
	"fmt"
	"strings"

	"github.com/depgraph/depgraph/core"
)

// optionFlag accumulates repeated `-o name=value` / `-o pkg:opt=value` flags
// into ordered core.KV pairs, preserving command-line order.
type optionFlag struct {
	values []core.KV
}

func (f *optionFlag) String() string {
	if f == nil {
		return ""
	}
	parts := make([]string, len(f.values))
	for i, kv := range f.values {
		parts[i] = kv.Key + "=" + kv.Value
	}
	return strings.Join(parts, ",")
}

func (f *optionFlag) Set(s string) error {
	parts := strings.SplitN(s, "=", 2)
	if len(parts) != 2 || parts[0] == "" {
		return fmt.Errorf("malformed -o value %q, expected name=value", s)
	}
	f.values = append(f.values, core.KV{Key: parts[0], Value: parts[1]})
	return nil
}
