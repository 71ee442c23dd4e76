package jsonx

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// ToDynamicJSON converts val to a generic JSON object by encoding it and decoding the
// result into a map. Values that do not encode to a JSON object are rejected.
func ToDynamicJSON(val any) (map[string]any, error) {
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return nil, fmt.Errorf("%T does not encode to a JSON object", val)
	}
	result := make(map[string]any)
	if err = json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Indent encodes val as JSON indented with two spaces. Raw messages nested in val are
// re-indented as well.
func Indent(val any) ([]byte, error) {
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
