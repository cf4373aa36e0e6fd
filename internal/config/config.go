// Package config loads the cspgen configuration file.
//
// A configuration is YAML. Missing fields take the values of Default and the
// merged result is validated before use:
//
//	solver:
//	  heuristic: domdeg     # dom | domdeg | deg | lex
//	  value_order: asc      # asc | desc | random
//	  seed: 42
//	symbolic:
//	  max_domain: 65536
//	  max_tuples: 1048576
//	logging:
//	  level: info           # debug | info | warn | error
//	  format: auto          # auto | console | json
//	metrics:
//	  enabled: true
//	workers: 4
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gitrdm/gokancsp/pkg/csp"
	"github.com/gitrdm/gokancsp/pkg/fd"
	"github.com/gitrdm/gokancsp/pkg/smt"
)

// Config is the top-level configuration.
type Config struct {
	Solver   SolverConfig   `yaml:"solver"`
	Symbolic SymbolicConfig `yaml:"symbolic"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Workers  int            `yaml:"workers" validate:"min=1,max=1024"`
}

// SolverConfig tunes the finite-domain search.
type SolverConfig struct {
	Heuristic  string `yaml:"heuristic" validate:"oneof=dom domdeg deg lex"`
	ValueOrder string `yaml:"value_order" validate:"oneof=asc desc random"`
	Seed       uint64 `yaml:"seed"`
}

// SymbolicConfig bounds the grounding of symbolic constraints.
type SymbolicConfig struct {
	MaxDomain int `yaml:"max_domain" validate:"min=1"`
	MaxTuples int `yaml:"max_tuples" validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=auto console json"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the built-in configuration.
func Default() Config {
	smtCfg := smt.DefaultConfig()
	return Config{
		Solver: SolverConfig{
			Heuristic:  fd.HeuristicDomDeg.String(),
			ValueOrder: fd.ValueOrderAsc.String(),
		},
		Symbolic: SymbolicConfig{
			MaxDomain: smtCfg.MaxDomain,
			MaxTuples: smtCfg.MaxTuples,
		},
		Logging: LoggingConfig{Level: "info", Format: "auto"},
		Workers: runtime.NumCPU(),
	}
}

// Load reads the file at path. An empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	cfg, err := Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys are
// rejected.
func Parse(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks every field constraint.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s fails %q (value %v)", ErrInvalid, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// FiniteDomain converts the solver section.
func (c Config) FiniteDomain() (fd.Config, error) {
	h, err := fd.ParseVariableHeuristic(c.Solver.Heuristic)
	if err != nil {
		return fd.Config{}, err
	}
	o, err := fd.ParseValueOrder(c.Solver.ValueOrder)
	if err != nil {
		return fd.Config{}, err
	}
	return fd.Config{VariableHeuristic: h, ValueOrder: o, Seed: c.Solver.Seed}, nil
}

// Capabilities builds the solver capabilities described by c.
func (c Config) Capabilities() (csp.Capabilities, error) {
	fdCfg, err := c.FiniteDomain()
	if err != nil {
		return csp.Capabilities{}, err
	}
	smtCfg := smt.Config{MaxDomain: c.Symbolic.MaxDomain, MaxTuples: c.Symbolic.MaxTuples}
	return csp.NewCapabilities(fdCfg, smtCfg), nil
}
