package jsonrpcinterface

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	errParamsNotObject = errors.New("params must be a JSON object")
	nullParams         = []byte("null")
)

// decodeParams strictly decodes params into a value of type T. Missing or
// null params are treated as an empty object. Fields of T without
// omitempty are required, unknown fields are rejected.
func decodeParams[T any](params json.RawMessage) (T, error) {
	var req T

	raw := bytes.TrimSpace(params)
	if len(raw) == 0 || bytes.Equal(raw, nullParams) {
		raw = []byte("{}")
	}
	if raw[0] != '{' {
		return req, errParamsNotObject
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return req, err
	}
	if missing := missingFields(reflect.TypeOf(req), fields); len(missing) > 0 {
		return req, fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

func missingFields(t reflect.Type, fields map[string]json.RawMessage) []string {
	if t.Kind() != reflect.Struct {
		return nil
	}

	missing := make([]string, 0)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || strings.Contains(opts, "omitempty") {
			continue
		}
		if name == "" {
			name = f.Name
		}
		value, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(value), nullParams) {
			missing = append(missing, name)
		}
	}
	return missing
}
