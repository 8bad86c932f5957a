package recovery

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildElementSchema compiles the per-item validation schema. The topic and
// cohort enums come from the controlled vocabulary so the model cannot
// invent taxonomy entries.
func buildElementSchema(topics, cohorts []string, yearMin, yearMax int) (*jsonschema.Schema, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("topic vocabulary is empty")
	}
	if len(cohorts) == 0 {
		return nil, fmt.Errorf("cohort vocabulary is empty")
	}

	doc := map[string]any{
		"type": "object",
		"required": []string{
			"question", "option_a", "option_b", "option_c", "option_d",
			"option_e", "correct_answer", "topics", "cohort",
		},
		"properties": map[string]any{
			"question": map[string]any{"type": "string", "minLength": 10},
			"option_a": map[string]any{"type": "string", "minLength": 1},
			"option_b": map[string]any{"type": "string", "minLength": 1},
			"option_c": map[string]any{"type": "string", "minLength": 1},
			"option_d": map[string]any{"type": "string", "minLength": 1},
			"option_e": map[string]any{"type": "string", "minLength": 1},
			"correct_answer": map[string]any{
				"enum": []any{"A", "B", "C", "D", "E"},
			},
			"topics": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"enum": toAnySlice(topics)},
			},
			// Year 0 means the page gave no usable year signal.
			"year": map[string]any{
				"anyOf": []any{
					map[string]any{"const": 0},
					map[string]any{
						"type":    "integer",
						"minimum": yearMin,
						"maximum": yearMax,
					},
				},
			},
			"cohort": map[string]any{"enum": toAnySlice(cohorts)},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
			"explanation": map[string]any{"type": "string"},
		},
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize element schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("element.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to load element schema: %w", err)
	}
	schema, err := compiler.Compile("element.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile element schema: %w", err)
	}
	return schema, nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
