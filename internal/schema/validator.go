package schema

import (
	"bytes"
	"encoding/json"

	"formflow/internal/apperrors"
)

// FormDetails is the form metadata block of a save request.
type FormDetails struct {
	InternalTitle string `json:"internalTitle"`
	PublicTitle   string `json:"publicTitle,omitempty"`
	Description   string `json:"description,omitempty"`
	Slug          string `json:"slug,omitempty"`
	IsPublished   *bool  `json:"isPublished,omitempty"`
}

// FormPayload is the body of a form save request. FormFields stays raw so
// the stored list is exactly what the client sent.
type FormPayload struct {
	FormID      string          `json:"formId"`
	FormDetails *FormDetails    `json:"formDetails"`
	FormFields  json.RawMessage `json:"formFields"`
}

// ParsePayload decodes a request body. A body that is not a JSON object
// fails with a validation error.
func ParsePayload(body []byte) (*FormPayload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, apperrors.Validation("Invalid payload")
	}
	var p FormPayload
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, apperrors.Validation("Invalid payload")
	}
	return &p, nil
}

// Validate checks p and returns the first violated rule. It has no side
// effects.
func Validate(p *FormPayload) error {
	if p == nil {
		return apperrors.Validation("Invalid payload")
	}
	if p.FormDetails == nil || p.FormDetails.InternalTitle == "" {
		return apperrors.Validation("formDetails.internalTitle is required")
	}
	if !isJSONArray(p.FormFields) {
		return apperrors.Validation("formFields must be an array")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(p.FormFields, &items); err != nil {
		return apperrors.Validation("formFields must be an array")
	}
	for _, item := range items {
		if err := validateField(item); err != nil {
			return err
		}
	}
	return nil
}

func validateField(item json.RawMessage) error {
	var f rawField
	if err := json.Unmarshal(item, &f); err != nil || f.ID == "" || f.Type == "" || f.Label == "" {
		return apperrors.Validation("Each field must have id, type and label")
	}
	kind, ok := fieldKinds[f.Type]
	if !ok {
		return apperrors.Validation("Invalid field type: %s", f.Type)
	}
	if kind.check != nil {
		return kind.check(f)
	}
	return nil
}

// Fields decodes the validated field list into typed definitions.
func (p *FormPayload) Fields() ([]FieldDefinition, error) {
	return ParseFields(p.FormFields)
}
