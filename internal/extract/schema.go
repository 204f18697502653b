// Package extract turns free-form model output into validated, typed Go
// values. A Schema is derived from the target struct; decoding walks a
// fallback chain so imperfect model output still yields a usable value
// whenever one can be recovered.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// ParseError reports model output that could not be decoded into the target
// type by any step of the fallback chain.
type ParseError struct {
	Raw string // model output, truncated for logging
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing model output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

const rawSnippetLimit = 500

func newParseError(raw string, err error) *ParseError {
	if len(raw) > rawSnippetLimit {
		raw = raw[:rawSnippetLimit]
	}
	return &ParseError{Raw: raw, Err: err}
}

// Degradable is implemented by target types that can absorb raw model text
// when no valid JSON can be recovered. Degrade reports whether the fill
// succeeded; implement it on a pointer receiver.
type Degradable interface {
	Degrade(raw string) bool
}

// Schema pairs the JSON schema derived from T with its resolved form for
// validation. Build once, reuse for every extraction of that type.
type Schema[T any] struct {
	schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
	text     string
}

// SchemaFor derives a Schema from T's struct tags. Fields without omitempty
// become required.
func SchemaFor[T any]() (*Schema[T], error) {
	s, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("deriving schema: %w", err)
	}
	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolving schema: %w", err)
	}
	text, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}
	return &Schema[T]{schema: s, resolved: resolved, text: string(text)}, nil
}

// JSON returns the schema as a JSON string, suitable for embedding in a
// prompt.
func (s *Schema[T]) JSON() string { return s.text }

// Decode runs the fallback chain on raw model output:
//
//  1. strict: parse raw as JSON and validate against the schema
//  2. fenced: strip a markdown code fence and retry
//  3. span: parse the outermost brace span, tolerating type mismatches
//  4. degrade: let the target absorb the raw text if it implements
//     Degradable
//
// The bool result reports a degraded value: one recovered by the span step
// that does not pass schema validation, or one absorbed by Degrade. When
// every step fails the error is a *ParseError.
func (s *Schema[T]) Decode(raw string) (T, bool, error) {
	var zero T

	if v, err := s.decodeStrict(raw); err == nil {
		return v, false, nil
	}
	if fenced, ok := unfence(raw); ok {
		if v, err := s.decodeStrict(fenced); err == nil {
			return v, false, nil
		}
	}
	v, degraded, err := s.decodeSpan(raw)
	if err == nil {
		return v, degraded, nil
	}

	if d, ok := any(&zero).(Degradable); ok && d.Degrade(raw) {
		return zero, true, nil
	}
	return zero, false, newParseError(raw, err)
}

// decodeStrict parses text as JSON and validates it against the schema.
func (s *Schema[T]) decodeStrict(text string) (T, error) {
	var v T
	text = strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return v, err
	}

	var instance any
	if err := json.Unmarshal([]byte(text), &instance); err != nil {
		return v, err
	}
	if err := s.resolved.Validate(instance); err != nil {
		return v, fmt.Errorf("schema validation: %w", err)
	}
	return v, nil
}

// decodeSpan parses the outermost {...} span leniently: fields with
// mismatched types are dropped rather than failing the whole parse. The bool
// result marks values that do not pass schema validation, so partial
// recoveries stay distinguishable from healthy ones.
func (s *Schema[T]) decodeSpan(raw string) (T, bool, error) {
	var v T
	span, ok := braceSpan(raw)
	if !ok {
		return v, false, errors.New("no JSON object found")
	}

	if err := json.Unmarshal([]byte(span), &v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return v, false, err
		}
		// Unmarshal fills the fields it could decode before reporting the
		// first mismatch; accept the partial value as degraded.
		return v, true, nil
	}
	return v, !s.validates(span), nil
}

// validates reports whether text satisfies the schema.
func (s *Schema[T]) validates(text string) bool {
	var instance any
	if err := json.Unmarshal([]byte(text), &instance); err != nil {
		return false
	}
	return s.resolved.Validate(instance) == nil
}

// unfence extracts the body of the first markdown code fence, with or
// without a language tag.
func unfence(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}
	rest := raw[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the language tag line ("json", "JSON" or empty).
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// braceSpan returns the text between the first '{' and the last '}'.
func braceSpan(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
