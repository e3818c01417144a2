// Package validation checks decoded documents against JSON schemas.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator validates documents against one compiled JSON schema.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles schema, registered under name.
func NewSchemaValidator(name string, schema []byte) (*SchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource %s: %w", name, err)
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", name, err)
	}
	return &SchemaValidator{schema: sch}, nil
}

// Validate checks doc, which may be any value that marshals to JSON.
// The returned error lists every violation with its instance location.
func (v *SchemaValidator) Validate(doc any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to prepare validation object: %w", err)
	}
	var obj any
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("failed to prepare validation object: %w", err)
	}

	if err := v.schema.Validate(obj); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &Error{Violations: violations(ve)}
		}
		return err
	}
	return nil
}

// Violation is a single schema failure.
type Violation struct {
	// Location is the JSON pointer of the offending value ("" for the root).
	Location string
	Message  string
}

// Error reports schema violations.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	if len(e.Violations) == 0 {
		return "document does not match schema"
	}
	first := e.Violations[0]
	msg := first.Message
	if first.Location != "" {
		msg = first.Location + ": " + msg
	}
	if n := len(e.Violations) - 1; n > 0 {
		msg = fmt.Sprintf("%s (and %d more)", msg, n)
	}
	return msg
}

// violations collects the leaf causes of ve, which carry the specific messages.
func violations(ve *jsonschema.ValidationError) []Violation {
	if len(ve.Causes) == 0 {
		return []Violation{{Location: ve.InstanceLocation, Message: ve.Message}}
	}
	var out []Violation
	for _, c := range ve.Causes {
		out = append(out, violations(c)...)
	}
	return out
}
