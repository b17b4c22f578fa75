package materials

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// DefaultFallback is the flat color given to materials without a rule.
var DefaultFallback = ColorFromHex(0x228B22)

var ErrEmptyTable = errors.New("rule table has no rules")

// Table maps exact material names to rules and texture keys to file names.
type Table struct {
	Fallback Color             `yaml:"fallback"`
	Textures map[string]string `yaml:"textures"`
	Rules    map[string]Rule   `yaml:"rules"`
}

// DefaultTable returns a fresh copy of the embedded table.
func DefaultTable() *Table {
	t, err := ParseTable(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("embedded rule table: %v", err))
	}
	return t
}

// LoadTable reads a table from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// ParseTable decodes a YAML table. Duplicate material names and unknown
// fields are errors.
func ParseTable(data []byte) (*Table, error) {
	t := &Table{Fallback: DefaultFallback}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(t); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyTable
		}
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(t.Rules) == 0 {
		return nil, ErrEmptyTable
	}
	if t.Textures == nil {
		t.Textures = map[string]string{}
	}
	return t, nil
}

// Lookup finds the rule for an exact material name.
func (t *Table) Lookup(name string) (Rule, bool) {
	r, ok := t.Rules[name]
	return r, ok
}

// TextureFile returns the catalog file name for key.
func (t *Table) TextureFile(key string) (string, bool) {
	f, ok := t.Textures[key]
	return f, ok
}

// ReferencedKeys lists, sorted, every texture key some rule uses.
func (t *Table) ReferencedKeys() []string {
	seen := map[string]struct{}{}
	for _, r := range t.Rules {
		for _, key := range r.TextureKeys() {
			seen[key] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// UnknownKeys lists referenced texture keys missing from the catalog.
func (t *Table) UnknownKeys() []string {
	var unknown []string
	for _, key := range t.ReferencedKeys() {
		if _, ok := t.Textures[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	return unknown
}

// Names returns the rule names in sorted order.
func (t *Table) Names() []string {
	set := make(map[string]struct{}, len(t.Rules))
	for name := range t.Rules {
		set[name] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
