package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexString decodes a JSON string, number or boolean into its textual form.
// Providers are inconsistent about quoting codes such as "00" and 0.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// String returns the underlying value
func (f FlexString) String() string {
	return string(f)
}

// FlexBool decodes a JSON boolean or a boolean-looking string. Values that do
// not parse as a boolean decode as false.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = false
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	if strings.TrimSpace(raw) == "" {
		*f = false
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	*f = FlexBool(err == nil && v)
	return nil
}

// Stringify renders a decoded JSON value the way it should appear in a signed string
// or a query parameter. nil renders as the empty string.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// DecodeMap converts a loosely typed map into a typed raw response struct
func DecodeMap(source map[string]any, target any) error {
	data, err := json.Marshal(source)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

// FlattenJSON marshals v and merges extra into the resulting object.
// Keys in extra win over fields of v.
func FlattenJSON(v any, extra map[string]any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	for k, val := range extra {
		body[k] = val
	}
	return json.Marshal(body)
}
