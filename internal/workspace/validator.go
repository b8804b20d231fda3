package workspace

import (
	"embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/xbuild.v1.schema.json
var schemaFS embed.FS

// validateSchema checks the raw YAML document against the embedded
// JSON Schema before it is decoded into a Config.
func validateSchema(data []byte) error {
	schemaBytes, err := schemaFS.ReadFile("schemas/xbuild.v1.schema.json")
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	jsonDoc, err := asJSON(data)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(jsonDoc),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msg := ""
		for _, desc := range result.Errors() {
			msg += fmt.Sprintf("\n  - %s", desc.String())
		}
		return fmt.Errorf("schema validation failed:%s", msg)
	}

	return nil
}
