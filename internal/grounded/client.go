// Package grounded sends instructions to a search-grounded generative model
// and returns either raw text or schema-shaped JSON plus the citation URLs
// the service attached to its answer.
package grounded

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Mode selects how the response body is interpreted.
type Mode string

const (
	ModeFreeform   Mode = "freeform"
	ModeStructured Mode = "structured"
)

// Shape is the requested output shape of a query.
type Shape struct {
	Mode   Mode
	Schema *Schema
}

// Freeform requests plain text.
func Freeform() Shape {
	return Shape{Mode: ModeFreeform}
}

// Structured requests JSON matching schema.
func Structured(schema *Schema) Shape {
	return Shape{Mode: ModeStructured, Schema: schema}
}

// Result is a successful query response.
type Result struct {
	// Text is the raw response body.
	Text string
	// Data holds the validated JSON body in structured mode.
	Data json.RawMessage
	// Citations are grounding URLs, de-duplicated in order of appearance.
	Citations []string
}

// Decode unmarshals the structured body into v.
func (r *Result) Decode(v interface{}) error {
	if r == nil || len(r.Data) == 0 {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}

// Client is the single choke point for calls to the AI service.
type Client interface {
	Query(ctx context.Context, instruction string, shape Shape) (*Result, error)
}

var (
	ErrEmptyInstruction = errors.New("instruction is required")
	ErrEmptyResponse    = errors.New("empty response")
	ErrSchemaMismatch   = errors.New("response does not match schema")
)

// GroundedQueryError is returned for every failed query. Callers decide the
// fallback; no partial result is ever returned alongside it.
type GroundedQueryError struct {
	Mode Mode
	Err  error
}

func (e *GroundedQueryError) Error() string {
	return fmt.Sprintf("grounded query (%s): %v", e.Mode, e.Err)
}

func (e *GroundedQueryError) Unwrap() error {
	return e.Err
}

func queryError(mode Mode, err error) *GroundedQueryError {
	var gqe *GroundedQueryError
	if errors.As(err, &gqe) {
		return gqe
	}
	return &GroundedQueryError{Mode: mode, Err: err}
}

// parseBody turns a response body into a Result according to shape.
func parseBody(text string, shape Shape, citations []string) (*Result, error) {
	result := &Result{Text: text, Citations: citations}
	if shape.Mode != ModeStructured {
		return result, nil
	}

	body := stripFence(text)
	if body == "" {
		return nil, ErrEmptyResponse
	}
	if shape.Schema != nil {
		if err := shape.Schema.conform([]byte(body)); err != nil {
			return nil, err
		}
	} else if !json.Valid([]byte(body)) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrSchemaMismatch)
	}

	result.Data = json.RawMessage(body)
	return result, nil
}

// stripFence removes a markdown code fence the model sometimes wraps JSON in.
func stripFence(text string) string {
	body := strings.TrimSpace(text)
	if !strings.HasPrefix(body, "```") {
		return body
	}

	body = strings.TrimPrefix(body, "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

// MergeURLs concatenates URL lists, dropping blanks and duplicates while
// keeping the order of first appearance.
func MergeURLs(lists ...[]string) []string {
	seen := make(map[string]bool)
	merged := make([]string, 0)
	for _, list := range lists {
		for _, u := range list {
			u = strings.TrimSpace(u)
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			merged = append(merged, u)
		}
	}
	return merged
}

func isSchemaError(err error) bool {
	return errors.Is(err, ErrSchemaMismatch) || errors.Is(err, ErrEmptyResponse)
}
