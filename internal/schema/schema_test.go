package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string   `json:"name"`
	Score  float64  `json:"score"`
	Count  int      `json:"count"`
	Tags   []string `json:"tags"`
	Nested struct {
		Value float64 `json:"value"`
	} `json:"nested"`
}

func sampleSchema() *Schema {
	return New("sample",
		String("name", "display name"),
		Number("score", "bounded score", 0, 4),
		Count("count", "how many"),
		Strings("tags", "free tags"),
		Object("nested", "nested object", New("nested", Number("value", "", 0, 1))),
	)
}

func TestDecode_Valid(t *testing.T) {
	raw := []byte(`{"name":"a","score":3.5,"count":2,"tags":["x","y"],"nested":{"value":0.5},"extra":true}`)

	got, err := Decode[sample](sampleSchema(), raw)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
	assert.Equal(t, 3.5, got.Score)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, []string{"x", "y"}, got.Tags)
	assert.Equal(t, 0.5, got.Nested.Value)
}

func TestDecode_CodeFence(t *testing.T) {
	raw := []byte("```json\n{\"name\":\"a\",\"score\":1,\"count\":0,\"tags\":[],\"nested\":{\"value\":0}}\n```")

	got, err := Decode[sample](sampleSchema(), raw)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
}

func TestDecode_Mismatch(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"missing required", `{"score":1,"count":0,"tags":[],"nested":{"value":0}}`, "(root)"},
		{"above maximum", `{"name":"a","score":4.5,"count":0,"tags":[],"nested":{"value":0}}`, "score"},
		{"below minimum", `{"name":"a","score":-1,"count":0,"tags":[],"nested":{"value":0}}`, "score"},
		{"not an integer", `{"name":"a","score":1,"count":1.5,"tags":[],"nested":{"value":0}}`, "count"},
		{"wrong element type", `{"name":"a","score":1,"count":0,"tags":["x",2],"nested":{"value":0}}`, "tags.1"},
		{"sequence is null", `{"name":"a","score":1,"count":0,"tags":null,"nested":{"value":0}}`, "tags"},
		{"nested bound", `{"name":"a","score":1,"count":0,"tags":[],"nested":{"value":2}}`, "nested.value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode[sample](sampleSchema(), []byte(tt.raw))
			require.Error(t, err)

			var mismatch *TypeMismatchError
			require.True(t, errors.As(err, &mismatch), "expected TypeMismatchError, got %T", err)
			assert.Equal(t, "sample", mismatch.Schema)

			fields := make([]string, 0, len(mismatch.Fields))
			for _, f := range mismatch.Fields {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestDecode_NotJSON(t *testing.T) {
	_, err := Decode[sample](sampleSchema(), []byte("I could not score this resume."))
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "(root)", mismatch.Fields[0].Field)
}

func TestDocument(t *testing.T) {
	doc := sampleSchema().Document()

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, []string{"name", "score", "count", "tags", "nested"}, doc["required"])

	props := doc["properties"].(map[string]any)
	score := props["score"].(map[string]any)
	assert.Equal(t, 0.0, score["minimum"])
	assert.Equal(t, 4.0, score["maximum"])

	tags := props["tags"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string"}, tags["items"])

	nested := props["nested"].(map[string]any)
	assert.Equal(t, "object", nested["type"])
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSON("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, CleanJSON("Here you go: {\"a\":1} hope it helps"))
	assert.Equal(t, `{"a":1}`, CleanJSON("  {\"a\":1}  "))
	assert.Equal(t, "no json", CleanJSON("no json"))
}
