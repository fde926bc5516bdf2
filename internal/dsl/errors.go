package dsl

import (
	"errors"
	"fmt"
)

var (
	ErrNoJSONObject   = errors.New("no JSON object found")
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingRender  = errors.New("critique response has no render")
)

// rawSnippetLimit bounds how much of the offending text a ParseError prints.
const rawSnippetLimit = 200

// ParseError reports model output that could not be turned into a protocol
// document. Raw keeps the full offending text.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	snippet := e.Raw
	if len(snippet) > rawSnippetLimit {
		snippet = snippet[:rawSnippetLimit] + "..."
	}
	return fmt.Sprintf("parse error: %v (raw: %q)", e.Err, snippet)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError names the first rule an envelope violates. Index is the
// offending command position, or -1 for envelope-level rules.
type ValidationError struct {
	Index int
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return "validation error: " + e.Msg
	}
	return fmt.Sprintf("validation error: commands[%d]: %s", e.Index, e.Msg)
}
