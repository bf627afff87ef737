// Package schema validates form definitions: form metadata plus an ordered
// list of typed fields.
package schema

import (
	"bytes"
	"encoding/json"

	"formflow/internal/apperrors"
)

// FieldType is the persisted field-type tag. The set is fixed.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldEmail       FieldType = "email"
	FieldNumber      FieldType = "number"
	FieldTextarea    FieldType = "textarea"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multi-select"
	FieldDate        FieldType = "date"
	FieldSwitch      FieldType = "switch"
)

// fieldKind carries the per-type constraint applied after the common
// id/type/label checks.
type fieldKind struct {
	check func(f rawField) error
}

var fieldKinds = map[FieldType]fieldKind{
	FieldText:        {},
	FieldEmail:       {},
	FieldNumber:      {},
	FieldTextarea:    {},
	FieldSelect:      {check: requireOptionArray},
	FieldMultiSelect: {check: requireOptionArray},
	FieldDate:        {},
	FieldSwitch:      {},
}

// FieldTypes lists the enumeration in wire order.
var FieldTypes = []FieldType{
	FieldText, FieldEmail, FieldNumber, FieldTextarea,
	FieldSelect, FieldMultiSelect, FieldDate, FieldSwitch,
}

// Valid reports whether t belongs to the fixed enumeration.
func (t FieldType) Valid() bool {
	_, ok := fieldKinds[t]
	return ok
}

// HasOptions reports whether fields of this type carry defaultOptions.
func (t FieldType) HasOptions() bool {
	return t == FieldSelect || t == FieldMultiSelect
}

// FieldDefinition is the typed view of one stored field. Clients may send
// more properties; those survive in the stored JSON but are not modelled here.
type FieldDefinition struct {
	ID                 string    `json:"id"`
	Type               FieldType `json:"type"`
	Label              string    `json:"label"`
	Required           bool      `json:"required,omitempty"`
	Description        string    `json:"description,omitempty"`
	Category           string    `json:"category,omitempty"`
	DefaultLabel       string    `json:"defaultLabel,omitempty"`
	DefaultPlaceholder string    `json:"defaultPlaceholder,omitempty"`
	DefaultOptions     []string  `json:"defaultOptions,omitempty"`
}

// MarshalJSON always writes defaultOptions for select-like types, as an
// empty array when there are no options.
func (f FieldDefinition) MarshalJSON() ([]byte, error) {
	type plain FieldDefinition
	out := struct {
		plain
		DefaultOptions *[]string `json:"defaultOptions,omitempty"`
	}{plain: plain(f)}

	opts := f.DefaultOptions
	if f.Type.HasOptions() && opts == nil {
		opts = []string{}
	}
	if f.Type.HasOptions() || len(opts) > 0 {
		out.DefaultOptions = &opts
	}
	return json.Marshal(out)
}

// rawField keeps defaultOptions undecoded so "absent", "null" and "not an
// array" can be told apart.
type rawField struct {
	ID             string          `json:"id"`
	Type           FieldType       `json:"type"`
	Label          string          `json:"label"`
	DefaultOptions json.RawMessage `json:"defaultOptions"`
}

func requireOptionArray(f rawField) error {
	if !isJSONArray(f.DefaultOptions) {
		return apperrors.Validation("Field %s of type %s requires defaultOptions array", f.ID, f.Type)
	}
	return nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// Requirement is the part of a stored field a submission is checked
// against.
type Requirement struct {
	ID       string
	Label    string
	Required bool
}

// ParseRequirements reads id, label and required from a stored field list
// and ignores every other property. A field is required only when
// "required" is the JSON literal true.
func ParseRequirements(raw []byte) ([]Requirement, error) {
	var items []struct {
		ID       string          `json:"id"`
		Label    string          `json:"label"`
		Required json.RawMessage `json:"required"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	out := make([]Requirement, 0, len(items))
	for _, it := range items {
		out = append(out, Requirement{
			ID:       it.ID,
			Label:    it.Label,
			Required: bytes.Equal(bytes.TrimSpace(it.Required), []byte("true")),
		})
	}
	return out, nil
}

// ParseFields decodes a field list into typed definitions without
// re-running schema checks. Option values must be strings; use
// ParseRequirements for stored forms.
func ParseFields(raw []byte) ([]FieldDefinition, error) {
	var fields []FieldDefinition
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
