package apiclient

import (
	"bytes"
	"encoding/json"
)

// decodeList accepts the list shapes the backend has used over time:
// a bare array, an object holding the array under one of keys, or a single
// object, which is wrapped into a one-element list. The result is never nil.
func decodeList[T any](raw []byte, keys ...string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	if trimmed[0] == '[' {
		var out []T
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		if out == nil {
			out = []T{}
		}
		return out, nil
	}

	if len(keys) > 0 {
		var env map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		for _, k := range keys {
			if v, ok := env[k]; ok {
				return decodeList[T](v)
			}
		}
	}

	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}

// decodeWrapped decodes either {key: T} or a bare T.
func decodeWrapped[T any](raw []byte, key string) (T, error) {
	var out T

	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return out, err
	}
	if v, ok := env[key]; ok {
		if tv := bytes.TrimSpace(v); len(tv) > 0 && tv[0] == '{' {
			err := json.Unmarshal(tv, &out)
			return out, err
		}
	}

	err := json.Unmarshal(raw, &out)
	return out, err
}

