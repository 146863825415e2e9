package timeline

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/timeline.schema.json
var documentSchemaJSON []byte

const documentSchemaURL = "timeline.schema.json"

var (
	documentSchema     *jsonschema.Schema
	documentSchemaErr  error
	documentSchemaOnce sync.Once
)

func compiledSchema() (*jsonschema.Schema, error) {
	documentSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(documentSchemaURL, bytes.NewReader(documentSchemaJSON)); err != nil {
			documentSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		documentSchema, documentSchemaErr = compiler.Compile(documentSchemaURL)
		if documentSchemaErr != nil {
			documentSchemaErr = fmt.Errorf("compile schema: %w", documentSchemaErr)
		}
	})
	return documentSchema, documentSchemaErr
}

// ValidateDocument checks a written JSON document against the embedded
// document schema.
func ValidateDocument(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse timeline document: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("timeline document does not match schema: %w", err)
	}
	return nil
}
