package dispatch

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// MissingParameterError reports the first required parameter absent from a
// call's arguments. Its message is part of the dispatch contract and is
// surfaced verbatim in failure envelopes.
type MissingParameterError struct {
	Field string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("Required parameter '%s' missing", e.Field)
}

// ValidateArguments checks that every field the schema marks required is
// present in args. Fields are checked in the schema's declared order, so
// the reported field is deterministic.
//
// Deep type checking is intentionally out of scope here; presence of
// required fields is the dispatch-level contract and handlers coerce their
// own argument types.
func ValidateArguments(schema *jsonschema.Schema, args map[string]any) error {
	if schema == nil {
		return nil
	}

	for _, field := range schema.Required {
		if _, present := args[field]; !present {
			return &MissingParameterError{Field: field}
		}
	}

	return nil
}
