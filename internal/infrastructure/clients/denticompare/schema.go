package denticompare

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// comparisonSchema describes the compare endpoint response the comparison
// view can render.
const comparisonSchema = `{
  "type": "object",
  "required": ["treatment_name", "comparisons"],
  "properties": {
    "treatment_name": {"type": "string"},
    "comparisons": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["clinic", "treatment", "is_best_value"],
        "properties": {
          "clinic": {
            "type": "object",
            "required": ["clinic_id", "name"],
            "properties": {
              "clinic_id": {"type": "string"},
              "name": {"type": "string"},
              "rating": {"type": "number"}
            }
          },
          "treatment": {
            "type": "object",
            "required": ["price"],
            "properties": {
              "price": {"type": "number"},
              "duration_days": {"type": "integer"},
              "warranty_months": {"type": "integer"},
              "process_steps": {"type": "array", "items": {"type": "string"}},
              "includes": {"type": "array", "items": {"type": "string"}}
            }
          },
          "is_best_value": {"type": "boolean"}
        }
      }
    }
  }
}`

var comparisonSchemaLoader = gojsonschema.NewStringLoader(comparisonSchema)

func validateComparison(payload []byte) error {
	result, err := gojsonschema.Validate(comparisonSchemaLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("comparison validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
