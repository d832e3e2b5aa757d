// Package schema validates output records against the linguistic annotation
// JSON schema.
package schema

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/santhosh-tekuri/jsonschema/v5"

	// Enables compiling schemas referenced by http(s) URI.
	_ "github.com/santhosh-tekuri/jsonschema/v5/httploader"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Validator checks serialized output records against a compiled schema.
// The schema document is fetched and compiled once per run; construction is
// explicit so offline runs can point at a pre-fetched local file instead of
// the hosted URI.
type Validator struct {
	schema   *jsonschema.Schema
	location string
}

// New compiles the schema at location, which may be an http(s) URI or a
// local file path.
func New(location string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiled, err := compiler.Compile(location)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", location, err)
	}
	return &Validator{schema: compiled, location: location}, nil
}

// ValidateLine validates one serialized output record. Any failure is fatal
// to the run; the caller aborts with a validation exit status.
func (v *Validator) ValidateLine(line []byte) error {
	var doc any
	if err := json.Unmarshal(line, &doc); err != nil {
		return fmt.Errorf("parse output record for validation: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation against %s failed: %w", v.location, err)
	}
	return nil
}
