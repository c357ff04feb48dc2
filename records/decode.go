package records

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// timeLayouts are the timestamp forms accepted for createdAt, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// fields is a record body split into its top-level values. Each accessor reads
// one value leniently: a value of an unexpected type reads as unset and never
// fails the record.
type fields map[string]json.RawMessage

func objectFields(data []byte) (fields, error) {
	f := fields{}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "[records] decoding body")
	}
	if f == nil {
		return nil, errors.New("[records] body is not an object")
	}
	return f, nil
}

// text returns a string value, or a number's literal digits.
func (f fields) text(key string) string {
	value, dataType, _, err := jsonparser.Get(f[key])
	if err != nil {
		return ""
	}
	switch dataType {
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return ""
		}
		return s
	case jsonparser.Number:
		return string(value)
	}
	return ""
}

func (f fields) optionalText(key string) *string {
	value, dataType, _, err := jsonparser.Get(f[key])
	if err != nil || dataType != jsonparser.String {
		return nil
	}
	s, err := jsonparser.ParseString(value)
	if err != nil {
		return nil
	}
	return &s
}

// integer accepts a number or a numeric string.
func (f fields) integer(key string) int64 {
	n, _ := strconv.ParseInt(f.text(key), 10, 64)
	return n
}

func (f fields) optionalInteger(key string) *int64 {
	n, err := strconv.ParseInt(f.text(key), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func (f fields) timestamp(key string) *time.Time {
	s := f.text(key)
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	log.Debug().Str("field", key).Str("value", s).Msg("unrecognised timestamp")
	return nil
}

// strings returns the string items of an array value.
func (f fields) strings(key string) []string {
	var items []any
	if err := json.Unmarshal(f[key], &items); err != nil || items == nil {
		return nil
	}
	return lo.FilterMap(items, func(item any, _ int) (string, bool) {
		s, ok := item.(string)
		return s, ok
	})
}

// decode unmarshals one value into dst, leaving dst as far as it got when the
// value does not fit.
func (f fields) decode(key string, dst any) {
	raw, ok := f[key]
	if !ok {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Debug().Str("field", key).Err(err).Msg("ignoring unreadable record field")
	}
}

// UnmarshalJSON reads an organization body without rejecting values of an
// unexpected type, and keeps the body in Raw.
func (o *Organization) UnmarshalJSON(data []byte) error {
	f, err := objectFields(data)
	if err != nil {
		return err
	}
	*o = Organization{
		ID:           f.integer("id"),
		Name:         f.text("name"),
		ParentOrg:    f.optionalInteger("parentOrg"),
		SourceSystem: f.text("source_system"),
		Tags:         f.strings("tags"),
		Hierarchy:    f.text("hierarchy"),
		ExternalID:   f.text("externalId"),
		Raw:          append(json.RawMessage(nil), data...),
	}
	f.decode("settings", &o.Settings)
	f.decode("address", &o.Address)
	f.decode("additional_properties", &o.AdditionalProperties)
	f.decode("tenants", &o.Tenants)
	return nil
}

// MarshalJSON returns Raw when the organization was decoded from the partner.
func (o Organization) MarshalJSON() ([]byte, error) {
	if len(o.Raw) > 0 {
		return o.Raw, nil
	}
	type plain Organization
	return json.Marshal(plain(o))
}

// UnmarshalJSON reads a tenant body the way Organization does.
func (t *Tenant) UnmarshalJSON(data []byte) error {
	f, err := objectFields(data)
	if err != nil {
		return err
	}
	*t = Tenant{
		ID:               f.integer("id"),
		Organization:     f.integer("organization"),
		Name:             f.text("name"),
		ExternalID:       f.text("externalId"),
		LineOfBusiness:   f.optionalText("lineOfBusiness"),
		Priority:         f.optionalText("priority"),
		ExternalSystemID: f.text("externalSystemId"),
		SourceSystem:     f.text("sourceSystem"),
		CreatedAt:        f.timestamp("createdAt"),
		Raw:              append(json.RawMessage(nil), data...),
	}
	f.decode("additionalProperties", &t.AdditionalProperties)
	return nil
}

func (t Tenant) MarshalJSON() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	type plain Tenant
	return json.Marshal(plain(t))
}
