package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

var reservedFields = map[string]struct{}{
	"id":        {},
	"ownerId":   {},
	"ownerKind": {},
	"createdAt": {},
	"updatedAt": {},
}

// Encode converts a model with json tags into a field map. Times become
// RFC3339 strings; reserved record keys are dropped.
func Encode(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	for k := range reservedFields {
		delete(fields, k)
	}
	return fields, nil
}

// Decode fills out from a field map as returned by any backend.
func Decode(fields map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			timestampToTimeHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}
	if err := dec.Decode(fields); err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}
	return nil
}

// DecodeRecord decodes rec.Fields plus the record metadata into out, so models
// may carry id, ownerId, ownerKind, createdAt and updatedAt json fields.
func DecodeRecord(rec Record, out any) error {
	fields := make(map[string]any, len(rec.Fields)+5)
	for k, v := range rec.Fields {
		fields[k] = v
	}
	fields["id"] = rec.ID
	fields["ownerId"] = rec.OwnerID
	fields["ownerKind"] = rec.OwnerKind
	fields["createdAt"] = rec.CreatedAt
	fields["updatedAt"] = rec.UpdatedAt
	return Decode(fields, out)
}

// timestampToTimeHook passes native time values through untouched.
func timestampToTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	if t, ok := data.(time.Time); ok {
		return t, nil
	}
	if t, ok := data.(*time.Time); ok && t != nil {
		return *t, nil
	}
	return data, nil
}

// cloneFields deep-copies JSON-like values.
func cloneFields(in map[string]any) map[string]any {
	if in == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
