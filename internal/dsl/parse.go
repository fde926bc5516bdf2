package dsl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CritiqueResponse is the model's judgment of a rendered draft. Render is
// kept raw so the orchestrator can parse and validate it as a new candidate.
type CritiqueResponse struct {
	IsFinal         bool            `json:"is_final"`
	RejectionReason *string         `json:"rejection_reason"`
	Render          json.RawMessage `json:"render"`
}

// Reason returns the rejection reason or "".
func (c *CritiqueResponse) Reason() string {
	if c.RejectionReason == nil {
		return ""
	}
	return *c.RejectionReason
}

// ExtractJSON returns the text from the first '{' to the last '}'. Code fences
// and commentary around the object are dropped.
func ExtractJSON(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return "", &ParseError{Raw: raw, Err: ErrNoJSONObject}
	}
	return raw[start : end+1], nil
}

// ParseRender extracts, structurally checks and decodes a render envelope.
// The result is not validated; call Validate before rasterizing.
func ParseRender(raw string) (*RenderEnvelope, error) {
	body, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	set, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	if err := checkSchema(set.render, body); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	var env RenderEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return &env, nil
}

// ParseCritique extracts and decodes a critique response. The embedded render
// is structurally checked but left raw.
func ParseCritique(raw string) (*CritiqueResponse, error) {
	body, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}
	set, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	if err := checkSchema(set.critique, body); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	var resp CritiqueResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	if len(resp.Render) == 0 || bytes.Equal(bytes.TrimSpace(resp.Render), []byte("null")) {
		return nil, &ParseError{Raw: raw, Err: ErrMissingRender}
	}
	return &resp, nil
}

func checkSchema(s *jsonschema.Schema, body string) error {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
