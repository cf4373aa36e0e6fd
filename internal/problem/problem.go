// Package problem reads CSP problem files.
//
// A problem file is YAML:
//
//	name: sum
//	highlight: false
//	variables:
//	  - name: x
//	    range: [0, 3]
//	  - name: y
//	    type: int
//	    namespace: right
//	    values: [0, 1, 2, 3]
//	constraints:
//	  - kind: fd
//	    vars: [x, y]
//	    relation: x + y == 3
//	    label: sum
//	    negate: false
//
// Finite-domain relations are Starlark expressions over the constraint
// variables, evaluated once per candidate tuple. Symbolic relations use the
// expression language of smt.Parse.
package problem

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gokancsp/pkg/csp"
)

// File is a decoded problem file.
type File struct {
	Name        string       `yaml:"name"`
	Highlight   bool         `yaml:"highlight"`
	Variables   []Variable   `yaml:"variables" validate:"required,min=1,dive"`
	Constraints []Constraint `yaml:"constraints" validate:"required,min=1,dive"`
}

// Variable declares a variable and its initial domain. Exactly one of
// Values and Range is set.
type Variable struct {
	Name      string  `yaml:"name" validate:"required"`
	Type      string  `yaml:"type" validate:"omitempty,oneof=int integer string str"`
	Namespace string  `yaml:"namespace"`
	Values    []any   `yaml:"values" validate:"required_without=Range,excluded_with=Range"`
	Range     []int64 `yaml:"range" validate:"omitempty,len=2"`
}

// Constraint declares one relation.
type Constraint struct {
	Kind     string   `yaml:"kind" validate:"required,oneof=fd symbolic"`
	Vars     []string `yaml:"vars" validate:"required,min=1,dive,required"`
	Relation string   `yaml:"relation" validate:"required"`
	Label    string   `yaml:"label"`
	Negate   bool     `yaml:"negate"`
}

// ErrInvalid wraps structural problems in a problem file.
var ErrInvalid = errors.New("invalid problem file")

var validate = validator.New()

// Load reads and validates the problem file at path. A file without a name
// is named after its base name.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// Parse decodes and validates a problem file.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalid)
		}
		return nil, fmt.Errorf("decode problem: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks field constraints and cross references.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s fails %q", ErrInvalid, fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	declared := make(map[string]bool, len(f.Variables))
	for _, v := range f.Variables {
		if declared[v.Name] {
			return fmt.Errorf("%w: variable %q declared twice", ErrInvalid, v.Name)
		}
		declared[v.Name] = true
	}
	for i, c := range f.Constraints {
		for _, v := range c.Vars {
			if !declared[v] {
				return fmt.Errorf("%w: constraint %d uses undeclared variable %q", ErrInvalid, i, v)
			}
		}
	}
	return nil
}

// Build constructs the CSP and sets every declared domain. Constraints
// marked negate are negated before returning.
func (f *File) Build(caps csp.Capabilities, opts ...csp.Option) (*csp.CSP, error) {
	vars := make(map[string]Variable, len(f.Variables))
	for _, v := range f.Variables {
		vars[v.Name] = v
	}

	constraints := make([]csp.Constraint, 0, len(f.Constraints))
	for i, decl := range f.Constraints {
		c, err := decl.build(vars)
		if err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		constraints = append(constraints, c)
	}

	p, err := csp.New(caps, constraints, append([]csp.Option{csp.WithHighlight(f.Highlight)}, opts...)...)
	if err != nil {
		return nil, err
	}
	for _, v := range f.Variables {
		d, err := v.domain()
		if err != nil {
			return nil, err
		}
		if err := p.SetVarDomain(v.Name, d); err != nil {
			return nil, err
		}
	}
	for i, decl := range f.Constraints {
		if decl.Negate {
			if err := p.NegateConstraint(i); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func (c Constraint) build(vars map[string]Variable) (csp.Constraint, error) {
	namespaces := map[string]string{}
	types := map[string]csp.VarType{}
	for _, name := range c.Vars {
		v := vars[name]
		if v.Namespace != "" {
			namespaces[name] = v.Namespace
		}
		t, err := csp.ParseVarType(v.Type)
		if err != nil {
			return nil, err
		}
		if t != csp.TypeUnset {
			types[name] = t
		}
	}
	opts := []csp.ConstraintOption{csp.WithNamespaces(namespaces), csp.WithTypes(types)}

	switch c.Kind {
	case csp.KindSymbolic.String():
		sc, err := csp.NewSymbolicConstraint(c.Relation, c.Vars, opts...)
		if err != nil {
			return nil, err
		}
		return sc, nil
	default:
		rel, err := compileRelation(c.Relation, c.Vars)
		if err != nil {
			return nil, err
		}
		fc, err := csp.NewCheckedConstraint(rel, c.Vars, opts...)
		if err != nil {
			return nil, err
		}
		label := c.Label
		if label == "" {
			label = c.Relation
		}
		return fc.WithLabel(label), nil
	}
}

func (v Variable) domain() (csp.Domain, error) {
	if len(v.Range) == 2 {
		return csp.Range(v.Range[0], v.Range[1]), nil
	}
	t, err := csp.ParseVarType(v.Type)
	if err != nil {
		return csp.Domain{}, err
	}
	values := make([]csp.Value, 0, len(v.Values))
	for _, raw := range v.Values {
		switch x := raw.(type) {
		case int:
			if t == csp.TypeString {
				values = append(values, csp.Str(fmt.Sprint(x)))
			} else {
				values = append(values, csp.Int(int64(x)))
			}
		case string:
			values = append(values, csp.Str(x))
		default:
			return csp.Domain{}, fmt.Errorf("%w: variable %q has value %v of type %T", ErrInvalid, v.Name, raw, raw)
		}
	}
	return csp.Set(values...), nil
}
