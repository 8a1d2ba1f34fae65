// Package config loads the optional JSON run-configuration file: the
// flags that are awkward as pure CLI switches (stop_on_verdict, verbose,
// debug, lenient_causality, max_formula_nodes). It validates the parsed
// document against an embedded JSON Schema via jsonschema/v5, the same
// library and compile-then-validate shape as the teacher's
// core/types/validation.go Validator.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/aledsdavies/pbtlwatch/pkgs/dlnf"
)

// schemaDoc is the embedded JSON Schema every config file is validated
// against before being unmarshaled into Config.
const schemaDoc = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"stop_on_verdict": {"type": "boolean"},
		"verbose": {"type": "boolean"},
		"debug": {"type": "boolean"},
		"lenient_causality": {"type": "boolean"},
		"max_formula_nodes": {"type": "integer", "minimum": 1}
	}
}`

const schemaURL = "mem://pbtlwatch/config.schema.json"

// Config is the optional run configuration. Zero value means "no
// override" for every field; the CLI layer fills in defaults and then
// applies config values, before CLI flags (which always win) are applied
// last.
type Config struct {
	StopOnVerdict    *bool `json:"stop_on_verdict,omitempty"`
	Verbose          *bool `json:"verbose,omitempty"`
	Debug            *bool `json:"debug,omitempty"`
	LenientCausality *bool `json:"lenient_causality,omitempty"`
	MaxFormulaNodes  *int  `json:"max_formula_nodes,omitempty"`
}

// Load reads, schema-validates, and parses a run-configuration document
// from r.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader([]byte(schemaDoc))); err != nil {
		return nil, fmt.Errorf("config: compile schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("config: compile schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("config: schema validation failed: %w", err)
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}

// MaxFormulaNodesOr returns the configured formula-size guard, or
// dlnf.DefaultMaxNodes when unset — spec.md §9's configurable bound
// against the DLNF transformer's exponential-blowup risk.
func (c *Config) MaxFormulaNodesOr() int {
	if c == nil || c.MaxFormulaNodes == nil {
		return dlnf.DefaultMaxNodes
	}
	return *c.MaxFormulaNodes
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// StopOnVerdictOr returns the configured stop_on_verdict value, or def
// when unset.
func (c *Config) StopOnVerdictOr(def bool) bool {
	if c == nil {
		return def
	}
	return boolOr(c.StopOnVerdict, def)
}

// VerboseOr returns the configured verbose value, or def when unset.
func (c *Config) VerboseOr(def bool) bool {
	if c == nil {
		return def
	}
	return boolOr(c.Verbose, def)
}

// DebugOr returns the configured debug value, or def when unset.
func (c *Config) DebugOr(def bool) bool {
	if c == nil {
		return def
	}
	return boolOr(c.Debug, def)
}

// LenientCausalityOr returns the configured lenient_causality value, or
// def when unset.
func (c *Config) LenientCausalityOr(def bool) bool {
	if c == nil {
		return def
	}
	return boolOr(c.LenientCausality, def)
}
