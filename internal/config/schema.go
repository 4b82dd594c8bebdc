package config

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	schemaOnce sync.Once
	schemaJSON []byte
	schemaErr  error

	compiledOnce   sync.Once
	compiledSchema *validator.Schema
	compiledErr    error
)

// JSONSchema describes ProviderType as a string enum. The empty string is
// allowed because newly added providers start without a type.
func (ProviderType) JSONSchema() *jsonschema.Schema {
	enum := []any{""}
	for _, t := range ProviderTypes {
		enum = append(enum, string(t))
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

// JSONSchema describes ChannelType as a string enum.
func (ChannelType) JSONSchema() *jsonschema.Schema {
	enum := make([]any, 0, len(ChannelTypes))
	for _, t := range ChannelTypes {
		enum = append(enum, string(t))
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

// JSONSchema returns the JSON Schema for Document.
func JSONSchema() ([]byte, error) {
	schemaOnce.Do(func() {
		r := &jsonschema.Reflector{
			FieldNameTag:               "json",
			Anonymous:                  true,
			RequiredFromJSONSchemaTags: true,
		}
		schema := r.Reflect(&Document{})
		schemaJSON, schemaErr = json.MarshalIndent(schema, "", "  ")
	})
	return schemaJSON, schemaErr
}

// ValidateSchema checks doc against the generated JSON Schema. It catches
// enum and range violations before the reference checks in Validate run.
func ValidateSchema(doc *Document) error {
	compiledOnce.Do(func() {
		raw, err := JSONSchema()
		if err != nil {
			compiledErr = err
			return
		}
		compiledSchema, compiledErr = validator.CompileString("config.schema.json", string(raw))
	})
	if compiledErr != nil {
		return fmt.Errorf("compile configuration schema: %w", compiledErr)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return fmt.Errorf("decode configuration: %w", err)
	}
	if err := compiledSchema.Validate(decoded); err != nil {
		return fmt.Errorf("configuration does not match schema: %w", err)
	}
	return nil
}
