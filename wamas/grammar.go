package wamas

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed grammars/*.toml
var builtinFS embed.FS

const (
	datetimeLayout = "20060102150405"
	dateLayout     = "20060102"
	boolTrue       = "J"
	boolFalse      = "N"
)

// Field describes one fixed-width field of a record
type Field struct {
	Name string `toml:"name" yaml:"name"`
	Type Type   `toml:"type" yaml:"type"`
	// Length is the fixed width of the field, in characters
	Length int `toml:"length" yaml:"length"`
	// Decimals is the number of implied decimal places of a float field
	Decimals int `toml:"decimals" yaml:"decimals"`
	// Key is the name of the business value used for this field
	Key string `toml:"key" yaml:"key"`
	// DefaultFunc names a function, registered with the Encoder, which
	// produces the value when Key is not set or has no value
	DefaultFunc string `toml:"default_func" yaml:"default_func"`
	// Default is the literal value used when there is no other source
	Default *string `toml:"default" yaml:"default"`
}

// Grammar is an ordered list of fields making up one record type
type Grammar struct {
	Name   string  `toml:"name" yaml:"name"`
	Fields []Field `toml:"fields" yaml:"fields"`
}

// Width returns the length of a record of this grammar
func (g *Grammar) Width() int {
	var width int
	for _, f := range g.Fields {
		width += f.Length
	}
	return width
}

// Field returns the field with the given name, or nil
func (g *Grammar) Field(name string) *Field {
	for ind := range g.Fields {
		if g.Fields[ind].Name == name {
			return &g.Fields[ind]
		}
	}
	return nil
}

// Validate checks that field names are unique, and that each field's
// length suits its type
func (g *Grammar) Validate() error {
	var errs []error
	if g.Name == "" {
		errs = append(errs, fmt.Errorf("%w: missing name", ErrInvalidGrammar))
	}
	if len(g.Fields) == 0 {
		errs = append(errs, fmt.Errorf("%w: no fields", ErrInvalidGrammar))
	}
	seen := map[string]bool{}
	for _, f := range g.Fields {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("%w: field without name", ErrInvalidGrammar))
			continue
		}
		if seen[f.Name] {
			errs = append(
				errs,
				fmt.Errorf("%w: duplicate field '%s'", ErrInvalidGrammar, f.Name),
			)
		}
		seen[f.Name] = true
		if f.Length <= 0 {
			errs = append(
				errs,
				fmt.Errorf("%w: field '%s' has length %d", ErrInvalidGrammar, f.Name, f.Length),
			)
		}
		if f.Decimals < 0 || (f.Decimals > 0 && f.Type != Float) {
			errs = append(
				errs,
				fmt.Errorf("%w: field '%s' has %d decimals", ErrInvalidGrammar, f.Name, f.Decimals),
			)
		}
		switch f.Type {
		case Datetime:
			if f.Length != len(datetimeLayout) && f.Length != len(dateLayout) {
				errs = append(
					errs,
					fmt.Errorf("%w: datetime field '%s' has length %d", ErrInvalidGrammar, f.Name, f.Length),
				)
			}
		case Bool:
			if f.Length != 1 {
				errs = append(
					errs,
					fmt.Errorf("%w: bool field '%s' has length %d", ErrInvalidGrammar, f.Name, f.Length),
				)
			}
		}
	}
	return errors.Join(errs...)
}

// LoadGrammar reads a grammar from TOML
func LoadGrammar(data []byte) (*Grammar, error) {
	g := &Grammar{}
	if err := toml.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGrammar, err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadGrammarYAML reads a grammar from YAML
func LoadGrammarYAML(data []byte) (*Grammar, error) {
	g := &Grammar{}
	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGrammar, err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// LoadGrammarFile reads a grammar from a .toml, .yaml or .yml file
func LoadGrammarFile(fsys fs.FS, name string) (*Grammar, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return LoadGrammarYAML(data)
	default:
		return LoadGrammar(data)
	}
}

var builtinGrammars = sync.OnceValues(func() (map[string]*Grammar, error) {
	entries, err := fs.ReadDir(builtinFS, "grammars")
	if err != nil {
		return nil, err
	}
	grammars := make(map[string]*Grammar, len(entries))
	for _, entry := range entries {
		g, err := LoadGrammarFile(builtinFS, path.Join("grammars", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		grammars[g.Name] = g
	}
	return grammars, nil
})

// Builtin returns the embedded grammar with the given name, ex: ARTE
func Builtin(name string) (*Grammar, error) {
	grammars, err := builtinGrammars()
	if err != nil {
		return nil, err
	}
	g, ok := grammars[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownGrammar, name)
	}
	return g, nil
}

// Builtins returns the names of the embedded grammars
func Builtins() []string {
	grammars, err := builtinGrammars()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(grammars))
	for name := range grammars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
