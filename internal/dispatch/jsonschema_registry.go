package dispatch

import (
	"bytes"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSONSchemaRegistry decorates Registry with a check that a tool's own
// declared argument schema is well-formed at registration time. This is
// not argument validation at call time — the dispatcher passes arguments
// through to the tool untouched — it only catches a tool author shipping a
// broken schema before it ever reaches the agent loop.
type JSONSchemaRegistry struct {
	*Registry
	schemas map[string]*jsonschema.Schema
}

// NewJSONSchemaRegistry wraps an empty Registry with schema bookkeeping.
func NewJSONSchemaRegistry() *JSONSchemaRegistry {
	return &JSONSchemaRegistry{
		Registry: NewRegistry(),
		schemas:  make(map[string]*jsonschema.Schema),
	}
}

// RegisterWithSchema registers tool and compiles its declared JSON Schema,
// returning an error if the schema itself is invalid.
func (r *JSONSchemaRegistry) RegisterWithSchema(tool Tool, schemaJSON []byte) error {
	compiler := jsonschema.NewCompiler()
	resourceName := tool.Name() + ".json"
	if err := compiler.AddResource(resourceName, bytes.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("add schema resource for %s: %w", tool.Name(), err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", tool.Name(), err)
	}

	r.schemas[tool.Name()] = schema
	r.Register(tool)
	return nil
}

// Schema returns the compiled schema for a tool, if one was registered with
// RegisterWithSchema.
func (r *JSONSchemaRegistry) Schema(name string) (*jsonschema.Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}
