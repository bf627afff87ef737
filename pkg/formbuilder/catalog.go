package formbuilder

import "formflow/internal/schema"

// Preset describes how a freshly added field of one type starts out.
type Preset struct {
	Type               schema.FieldType
	Label              string
	Description        string
	Category           string
	DefaultLabel       string
	DefaultPlaceholder string
	DefaultOptions     []string
}

// Presets lists the palette in display order.
var Presets = []Preset{
	{Type: schema.FieldText, Label: "Text Input", Description: "A single line for short text responses.", Category: "input", DefaultLabel: "Text Field", DefaultPlaceholder: "Enter text"},
	{Type: schema.FieldEmail, Label: "Email", Description: "Collect a valid email address.", Category: "input", DefaultLabel: "Email Field", DefaultPlaceholder: "Enter email address"},
	{Type: schema.FieldNumber, Label: "Number", Description: "Input for numeric values.", Category: "input", DefaultLabel: "Number Field", DefaultPlaceholder: "Enter number"},
	{Type: schema.FieldTextarea, Label: "Textarea", Description: "A multi-line field for longer text.", Category: "input", DefaultLabel: "Textarea Field", DefaultPlaceholder: "Enter text"},
	{Type: schema.FieldDate, Label: "Date", Description: "Pick a date from a calendar.", Category: "input", DefaultLabel: "Date Field"},
	{Type: schema.FieldSelect, Label: "Select Dropdown", Description: "Dropdown to choose one option.", Category: "selection", DefaultLabel: "Select Field", DefaultOptions: []string{"Option 1", "Option 2"}},
	{Type: schema.FieldMultiSelect, Label: "Multi-Select", Description: "Choose multiple options from a list.", Category: "selection", DefaultLabel: "Multi-Select Field", DefaultOptions: []string{"Option 1", "Option 2", "Option 3"}},
	{Type: schema.FieldSwitch, Label: "Switch", Description: "A toggle switch for yes/no or on/off.", Category: "selection", DefaultLabel: "Switch Field"},
}

// PresetFor returns the preset of t.
func PresetFor(t schema.FieldType) (Preset, bool) {
	for _, p := range Presets {
		if p.Type == t {
			return p, true
		}
	}
	return Preset{}, false
}

// Field returns a field definition initialised from the preset. The id is
// left empty; Builder.AddField assigns it.
func (p Preset) Field() schema.FieldDefinition {
	var opts []string
	if len(p.DefaultOptions) > 0 {
		opts = append([]string(nil), p.DefaultOptions...)
	}
	return schema.FieldDefinition{
		Type:               p.Type,
		Label:              p.DefaultLabel,
		Description:        p.Description,
		Category:           p.Category,
		DefaultLabel:       p.DefaultLabel,
		DefaultPlaceholder: p.DefaultPlaceholder,
		DefaultOptions:     opts,
	}
}
