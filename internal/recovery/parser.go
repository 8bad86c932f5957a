// Package recovery turns unreliable model output into validated candidate
// records. The parser never fails: any input it cannot salvage degrades to
// an empty result with a diagnostic log line.
package recovery

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pastq-dev/pastq/internal/records"
)

const previewLen = 120

// Parser recovers candidate records from raw model responses.
type Parser struct {
	schema *jsonschema.Schema
	logger *slog.Logger
}

// NewParser builds a parser whose element validation is bound to the given
// controlled vocabulary and year bounds.
func NewParser(topics, cohorts []string, yearMin, yearMax int, logger *slog.Logger) (*Parser, error) {
	schema, err := buildElementSchema(topics, cohorts, yearMin, yearMax)
	if err != nil {
		return nil, err
	}
	return &Parser{schema: schema, logger: logger}, nil
}

// Parse extracts zero or more candidates from raw model output.
// Malformed input yields an empty slice, never an error.
func (p *Parser) Parse(raw string) []*records.Candidate {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	elements := p.recoverArray(raw)
	if elements == nil {
		p.logger.Warn("no parseable JSON array in model response",
			"length", len(raw),
			"head", preview(raw, false),
			"tail", preview(raw, true))
		return nil
	}

	candidates := make([]*records.Candidate, 0, len(elements))
	dropped := 0
	for _, elem := range elements {
		c, ok := p.validateElement(elem)
		if !ok {
			dropped++
			continue
		}
		candidates = append(candidates, c)
	}
	if dropped > 0 {
		p.logger.Info("dropped invalid candidates", "dropped", dropped, "kept", len(candidates))
	}
	return candidates
}

// recoverArray tries bracket slicing with cumulative repairs first, then
// falls back to regex extraction strategies. Returns nil when everything
// fails (distinct from a valid empty array).
func (p *Parser) recoverArray(raw string) []any {
	if sliced := sliceArray(raw); sliced != "" {
		if elems, ok := parseWithRepairs(sliced); ok {
			return elems
		}
	}

	for _, candidate := range extractionStrategies(raw) {
		if elems, ok := parseWithRepairs(candidate); ok {
			return elems
		}
	}
	return nil
}

// parseWithRepairs parses the candidate text, applying each repair in order
// and reparsing after every step. First successful parse wins.
func parseWithRepairs(text string) ([]any, bool) {
	if elems, ok := parseArray(text); ok {
		return elems, true
	}
	for _, repair := range repairs {
		text = repair(text)
		if elems, ok := parseArray(text); ok {
			return elems, true
		}
	}
	return nil, false
}

func parseArray(text string) ([]any, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	var elems []any
	if err := json.Unmarshal([]byte(text), &elems); err != nil {
		return nil, false
	}
	return elems, true
}

// validateElement normalizes, schema-validates, and decodes one array
// element. Invalid elements are dropped, not repaired further.
func (p *Parser) validateElement(elem any) (*records.Candidate, bool) {
	obj, ok := elem.(map[string]any)
	if !ok {
		return nil, false
	}
	normalizeElement(obj)

	if err := p.schema.Validate(obj); err != nil {
		return nil, false
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, false
	}
	var c records.Candidate
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, false
	}
	if c.Confidence == 0 {
		// The model omitted its confidence; treat as middling rather than
		// letting a zero lose every merge comparison.
		c.Confidence = 0.5
	}
	return &c, true
}

// normalizeElement applies tolerant cleanups before validation: trimmed
// strings and an upper-cased answer letter.
func normalizeElement(obj map[string]any) {
	for k, v := range obj {
		if s, ok := v.(string); ok {
			obj[k] = strings.TrimSpace(s)
		}
	}
	if s, ok := obj["correct_answer"].(string); ok {
		obj["correct_answer"] = strings.ToUpper(strings.TrimSpace(s))
	}
}

// preview returns a bounded excerpt so diagnostics never log full payloads.
func preview(s string, tail bool) string {
	if len(s) <= previewLen {
		return s
	}
	if tail {
		return s[len(s)-previewLen:]
	}
	return s[:previewLen]
}
