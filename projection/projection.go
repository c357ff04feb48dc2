package projection

import (
	"bytes"
	"encoding/json"

	"github.com/buger/jsonparser"
	"github.com/jrsteele09/netop-connector/records"
	"github.com/jrsteele09/netop-connector/upsert"
	"github.com/pkg/errors"
)

// Separator joins a parent key to its child keys.
const Separator = "__"

// knownChildren are the nested objects whose fields are always projected,
// as null when the object or the field is absent.
var knownChildren = map[string][]string{
	"address":               records.AddressKeys,
	"additional_properties": {"property_type"},
}

// Outcome flattens an upsert outcome into record__<field> keys plus action.
// A record decoded from the partner projects its whole body, including fields
// the records types do not name.
func Outcome[T any](o *upsert.Outcome[T]) (map[string]any, error) {
	if o == nil {
		return nil, errors.New("[projection Outcome] nil outcome")
	}
	out, err := Flatten("record", o.Record)
	if err != nil {
		return nil, err
	}
	out["action"] = string(o.Action)
	return out, nil
}

// Records flattens each item of a search result.
func Records[T any](items []T) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		flat, err := Flatten("", item)
		if err != nil {
			return nil, err
		}
		out = append(out, flat)
	}
	return out, nil
}

// Flatten encodes v as JSON and returns its leaves keyed by their path, joined
// with Separator and rooted at prefix. Arrays are leaves. Numbers are kept as
// json.Number so ids keep their exact text.
func Flatten(prefix string, v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "[projection Flatten] encoding")
	}
	out := map[string]any{}
	if err := flattenValue(out, prefix, "", data, valueType(data)); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenValue(out map[string]any, path, key string, value []byte, dataType jsonparser.ValueType) error {
	switch dataType {
	case jsonparser.Object:
		children := knownChildren[key]
		for _, child := range children {
			out[join(path, child)] = nil
		}
		empty := true
		err := jsonparser.ObjectEach(value, func(k, v []byte, t jsonparser.ValueType, _ int) error {
			empty = false
			childKey, err := jsonparser.ParseString(k)
			if err != nil {
				return err
			}
			return flattenValue(out, join(path, childKey), childKey, v, t)
		})
		if err != nil {
			return errors.Wrapf(err, "[projection Flatten] walking %q", path)
		}
		if empty && len(children) == 0 && path != "" {
			out[path] = nil
		}
		return nil
	case jsonparser.Null:
		for _, child := range knownChildren[key] {
			out[join(path, child)] = nil
		}
		if len(knownChildren[key]) == 0 {
			out[path] = nil
		}
		return nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return errors.Wrapf(err, "[projection Flatten] decoding %q", path)
		}
		out[path] = s
	case jsonparser.Number:
		out[path] = json.Number(value)
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		if err != nil {
			return errors.Wrapf(err, "[projection Flatten] decoding %q", path)
		}
		out[path] = b
	case jsonparser.Array:
		var items []any
		decoder := json.NewDecoder(bytes.NewReader(value))
		decoder.UseNumber()
		if err := decoder.Decode(&items); err != nil {
			return errors.Wrapf(err, "[projection Flatten] decoding %q", path)
		}
		out[path] = items
	default:
		return errors.Errorf("[projection Flatten] unsupported value at %q", path)
	}
	return nil
}

func valueType(data []byte) jsonparser.ValueType {
	_, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return jsonparser.Unknown
	}
	return dataType
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + Separator + key
}
