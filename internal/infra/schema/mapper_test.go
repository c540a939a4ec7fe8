package schema

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcpbridge/internal/domain"
)

func searchSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "search query"},
			"limit": map[string]any{"type": "integer", "description": "max results"},
			"score": map[string]any{"type": "number"},
			"exact": map[string]any{"type": "boolean"},
			"tags":  map[string]any{"type": "array"},
			"opts":  map[string]any{"type": "object"},
		},
		"required": []any{"query", "limit"},
	}
}

func TestDescriptors(t *testing.T) {
	got := Descriptors(searchSchema())
	want := []domain.ParamDescriptor{
		{Name: "exact", Type: domain.ParamBool},
		{Name: "limit", Type: domain.ParamInt, Description: "max results (required)", Required: true},
		{Name: "opts", Type: domain.ParamString},
		{Name: "query", Type: domain.ParamString, Description: "search query (required)", Required: true},
		{Name: "score", Type: domain.ParamFloat},
		{Name: "tags", Type: domain.ParamString},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("descriptors mismatch (-want +got):\n%s", diff)
	}
}

func TestDescriptors_RequiredMarkerVisible(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"count": map[string]any{"type": "integer"},
		},
		"required": []any{"count"},
	}
	got := Descriptors(schema)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ParamInt, got[0].Type)
	assert.True(t, got[0].Required)
	assert.Contains(t, got[0].Description, RequiredMarker)
}

func TestDescriptors_RawJSONSchema(t *testing.T) {
	raw := json.RawMessage(`{
		"type": "object",
		"properties": {"name": {"type": "string", "description": "who"}},
		"required": ["name"]
	}`)
	got := Descriptors(raw)
	require.Len(t, got, 1)
	assert.Equal(t, "name", got[0].Name)
	assert.Equal(t, domain.ParamString, got[0].Type)
	assert.Equal(t, "who (required)", got[0].Description)
}

func TestDescriptors_EmptyInputs(t *testing.T) {
	assert.Nil(t, Descriptors(nil))
	assert.Nil(t, Descriptors(map[string]any{"type": "object"}))
	assert.Nil(t, Descriptors("not json"))
}

func TestCoerce(t *testing.T) {
	schema := searchSchema()
	tests := []struct {
		name string
		args map[string]any
		want map[string]any
	}{
		{
			name: "integer from string",
			args: map[string]any{"limit": "7"},
			want: map[string]any{"limit": int64(7)},
		},
		{
			name: "integer parse failure passes through",
			args: map[string]any{"limit": "abc"},
			want: map[string]any{"limit": "abc"},
		},
		{
			name: "integer from json float",
			args: map[string]any{"limit": float64(5)},
			want: map[string]any{"limit": int64(5)},
		},
		{
			name: "float from string",
			args: map[string]any{"score": "0.25"},
			want: map[string]any{"score": 0.25},
		},
		{
			name: "bool truthy strings",
			args: map[string]any{"exact": "YES"},
			want: map[string]any{"exact": true},
		},
		{
			name: "bool falsy anything else",
			args: map[string]any{"exact": "nope"},
			want: map[string]any{"exact": false},
		},
		{
			name: "bool passthrough",
			args: map[string]any{"exact": true},
			want: map[string]any{"exact": true},
		},
		{
			name: "array from json text",
			args: map[string]any{"tags": `["a","b"]`},
			want: map[string]any{"tags": []any{"a", "b"}},
		},
		{
			name: "array text parse failure passes through",
			args: map[string]any{"tags": "not json"},
			want: map[string]any{"tags": "not json"},
		},
		{
			name: "object already structured",
			args: map[string]any{"opts": map[string]any{"k": "v"}},
			want: map[string]any{"opts": map[string]any{"k": "v"}},
		},
		{
			name: "unknown name passes through",
			args: map[string]any{"mystery": "value"},
			want: map[string]any{"mystery": "value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coerce(schema, tt.args)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("coerce mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCoerce_NoSchema(t *testing.T) {
	got := Coerce(nil, map[string]any{"a": "1"})
	assert.Equal(t, map[string]any{"a": "1"}, got)
}

func TestCoerce_TruthySet(t *testing.T) {
	schema := map[string]any{
		"properties": map[string]any{"flag": map[string]any{"type": "boolean"}},
	}
	for _, v := range []string{"1", "true", "TRUE", "yes", "y", "on", "On"} {
		got := Coerce(schema, map[string]any{"flag": v})
		assert.Equal(t, true, got["flag"], "value %q", v)
	}
	for _, v := range []string{"0", "false", "off", "no", ""} {
		got := Coerce(schema, map[string]any{"flag": v})
		assert.Equal(t, false, got["flag"], "value %q", v)
	}
}
