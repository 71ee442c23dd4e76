package jsonx

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDynamicJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    map[string]any
		wantErr bool
	}{
		{
			name: "struct",
			input: struct {
				Name string `json:"name"`
				Age  int    `json:"age"`
			}{Name: "test", Age: 30},
			want: map[string]any{"name": "test", "age": float64(30)},
		},
		{
			name:  "nested raw message",
			input: map[string]any{"schema": json.RawMessage(`{"type":"object"}`)},
			want:  map[string]any{"schema": map[string]any{"type": "object"}},
		},
		{
			name:    "array is not an object",
			input:   []int{1, 2},
			wantErr: true,
		},
		{
			name:    "null pointer",
			input:   (*struct{})(nil),
			wantErr: true,
		},
		{
			name:    "unencodable",
			input:   make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToDynamicJSON(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndent(t *testing.T) {
	got, err := Indent(struct {
		URL  string          `json:"url"`
		Body json.RawMessage `json:"body"`
	}{URL: "https://example.test", Body: json.RawMessage(`{"a":[1,2]}`)})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"url\": \"https://example.test\",\n  \"body\": {\n    \"a\": [\n      1,\n      2\n    ]\n  }\n}", string(got))
}
