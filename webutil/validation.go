package webutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	maxBodyBytes       = 1 << 20
	msgValidationError = "Validation failed"
	rootField          = "(root)"
)

// ValidationError carries per-field messages for a rejected request body.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Schema is a compiled JSON Schema for a request body.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// MustCompileSchema compiles raw or panics. Schemas are embedded, so a failure is a
// programming error caught at startup.
func MustCompileSchema(name string, raw []byte) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid JSON schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

// Validate checks a JSON document against the schema, returning *ValidationError
// when it does not conform.
func (s *Schema) Validate(doc []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate against %s: %w", s.name, err)
	}
	if result.Valid() {
		return nil
	}

	fields := make(map[string]string, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		// "required" errors are reported against the parent object.
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = joinField(field, prop)
			}
		}
		if _, exists := fields[field]; !exists {
			fields[field] = desc.Description()
		}
	}
	return &ValidationError{Fields: fields}
}

func joinField(parent, prop string) string {
	if parent == "" || parent == rootField {
		return prop
	}
	return parent + "." + prop
}

// ReadBody reads the whole request body. Bodies over 1 MiB are a 413, never
// silently truncated.
func ReadBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, ErrBadRequest("Invalid request body").Wrap(err)
	}
	if len(body) > maxBodyBytes {
		return nil, NewHTTPError(http.StatusRequestEntityTooLarge, "Request body too large")
	}
	return body, nil
}

// DecodeJSON reads the request body, validates it against schema and decodes it into dst.
// Malformed JSON is a 400 HTTPError; schema violations are a *ValidationError.
func DecodeJSON(r *http.Request, schema *Schema, dst any) error {
	body, err := ReadBody(r)
	if err != nil {
		return err
	}
	if !json.Valid(body) {
		return ErrBadRequest("Malformed JSON body")
	}

	if schema != nil {
		if err := schema.Validate(body); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return NewValidationError(typeErr.Field, "invalid type, expected "+typeErr.Type.String())
		}
		return ErrBadRequest("Invalid request body").Wrap(err)
	}
	return nil
}
