// Package schema declares the shape of structured stage outputs and validates
// raw JSON against those declarations before it is decoded into Go types.
package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Kind is the JSON type of a declared field.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

// Field describes one property of an object schema.
type Field struct {
	Name        string
	Kind        Kind
	Description string
	// Items is the element kind when Kind is KindArray.
	Items Kind
	// Object is the nested declaration when Kind is KindObject.
	Object  *Schema
	Minimum *float64
	Maximum *float64
}

// Schema is a named object declaration. All declared fields are required;
// properties not declared are allowed and ignored on decode.
type Schema struct {
	Name   string
	Fields []Field

	once       sync.Once
	compiled   *gojsonschema.Schema
	compileErr error
}

func New(name string, fields ...Field) *Schema {
	return &Schema{Name: name, Fields: fields}
}

func String(name, description string) Field {
	return Field{Name: name, Kind: KindString, Description: description}
}

func Strings(name, description string) Field {
	return Field{Name: name, Kind: KindArray, Items: KindString, Description: description}
}

// Number declares a number bounded to [min, max].
func Number(name, description string, min, max float64) Field {
	return Field{Name: name, Kind: KindNumber, Description: description, Minimum: &min, Maximum: &max}
}

// NonNegative declares a number with a lower bound of zero and no upper bound.
func NonNegative(name, description string) Field {
	zero := 0.0
	return Field{Name: name, Kind: KindNumber, Description: description, Minimum: &zero}
}

// Count declares a non-negative integer.
func Count(name, description string) Field {
	zero := 0.0
	return Field{Name: name, Kind: KindInteger, Description: description, Minimum: &zero}
}

func Object(name, description string, nested *Schema) Field {
	return Field{Name: name, Kind: KindObject, Description: description, Object: nested}
}

// Document renders the declaration as a JSON Schema document.
func (s *Schema) Document() map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		properties[f.Name] = f.document()
		required = append(required, f.Name)
	}
	return map[string]any{
		"type":       string(KindObject),
		"properties": properties,
		"required":   required,
	}
}

func (f Field) document() map[string]any {
	if f.Kind == KindObject && f.Object != nil {
		doc := f.Object.Document()
		if f.Description != "" {
			doc["description"] = f.Description
		}
		return doc
	}

	doc := map[string]any{"type": string(f.Kind)}
	if f.Description != "" {
		doc["description"] = f.Description
	}
	if f.Kind == KindArray {
		items := f.Items
		if items == "" {
			items = KindString
		}
		doc["items"] = map[string]any{"type": string(items)}
	}
	if f.Minimum != nil {
		doc["minimum"] = *f.Minimum
	}
	if f.Maximum != nil {
		doc["maximum"] = *f.Maximum
	}
	return doc
}

func (s *Schema) compile() (*gojsonschema.Schema, error) {
	s.once.Do(func() {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(s.Document()))
		if err != nil {
			s.compileErr = &LoadError{Schema: s.Name, Cause: err}
			return
		}
		s.compiled = compiled
	})
	return s.compiled, s.compileErr
}

// Validate checks raw JSON against the declaration. It returns a
// *TypeMismatchError when the value does not conform and a *LoadError when
// the declaration itself cannot be compiled.
func (s *Schema) Validate(raw []byte) error {
	compiled, err := s.compile()
	if err != nil {
		return err
	}

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &TypeMismatchError{
			Schema: s.Name,
			Fields: []FieldError{{Field: rootField, Message: fmt.Sprintf("not a JSON document: %v", err)}},
		}
	}
	if result.Valid() {
		return nil
	}

	mismatch := &TypeMismatchError{
		Schema: s.Name,
		Fields: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = rootField
		}
		mismatch.Fields = append(mismatch.Fields, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	sort.SliceStable(mismatch.Fields, func(i, j int) bool {
		return mismatch.Fields[i].Field < mismatch.Fields[j].Field
	})
	return mismatch
}

// Decode validates raw against s and decodes it into T. Markdown code fences
// around the JSON are tolerated.
func Decode[T any](s *Schema, raw []byte) (T, error) {
	var out T
	cleaned := []byte(CleanJSON(string(raw)))

	if err := s.Validate(cleaned); err != nil {
		return out, err
	}
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return out, &TypeMismatchError{
			Schema: s.Name,
			Fields: []FieldError{{Field: rootField, Message: err.Error()}},
		}
	}
	return out, nil
}

// CleanJSON strips markdown code fences and any prose surrounding the
// outermost JSON object.
func CleanJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(raw)

	if !strings.HasPrefix(raw, "{") {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start != -1 && end > start {
			raw = raw[start : end+1]
		}
	}
	return raw
}
