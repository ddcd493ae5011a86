package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Model replies are loosely typed: ids arrive as numbers, options mix numbers
// and strings, lists arrive as scalars. The decoders below accept all of that
// instead of rejecting the whole reply.

// flexString decodes a JSON string, number or boolean as text. Objects,
// arrays and null decode to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case '{', '[', 'n':
		*f = ""
	default:
		*f = flexString(data)
	}
	return nil
}

// flexNumber decodes a JSON number or a numeric string. Anything else is nil.
type flexNumber struct {
	value *float64
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	n.value = nil
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		n.value = &v
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		n.value = &v
	}
	return nil
}

// lenientList decodes a JSON array element by element and drops elements that
// fail to decode. A missing or null value yields nil; any other non-array
// value yields an empty list.
func lenientList[T any](data json.RawMessage) []T {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return []T{}
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func lenientStrings(data json.RawMessage) []string {
	flex := lenientList[flexString](data)
	if flex == nil {
		return nil
	}
	out := make([]string, len(flex))
	for i, s := range flex {
		out[i] = string(s)
	}
	return out
}
