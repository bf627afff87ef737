// Package formbuilder holds the editing state of a form under construction
// and turns it into a save payload.
package formbuilder

import (
	"encoding/json"
	"fmt"
	"sync"

	"formflow/internal/schema"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrNoDetails is returned by Payload before SetDetails was called.
var ErrNoDetails = errors.New("form details are not set")

// Builder is the editing state of one form. It is safe for concurrent use.
type Builder struct {
	mu       sync.Mutex
	formID   string
	details  *schema.FormDetails
	fields   []schema.FieldDefinition
	selected string
}

// New returns an empty builder for formID.
func New(formID string) *Builder {
	return &Builder{formID: formID}
}

// FormID returns the id the form will be saved under.
func (b *Builder) FormID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.formID
}

// SetFormID changes the id the form will be saved under.
func (b *Builder) SetFormID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.formID = id
}

// SetDetails replaces the form metadata.
func (b *Builder) SetDetails(d schema.FormDetails) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.details = &d
}

// Details returns a copy of the metadata and whether it was set.
func (b *Builder) Details() (schema.FormDetails, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.details == nil {
		return schema.FormDetails{}, false
	}
	return *b.details, true
}

// SetPublished sets the published flag. No-op before SetDetails.
func (b *Builder) SetPublished(published bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.details != nil {
		b.details.IsPublished = &published
	}
}

// UpdateTitle sets the internal title. No-op before SetDetails.
func (b *Builder) UpdateTitle(title string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.details != nil {
		b.details.InternalTitle = title
	}
}

// UpdateDescription sets the description. No-op before SetDetails.
func (b *Builder) UpdateDescription(description string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.details != nil {
		b.details.Description = description
	}
}

// AddField appends f with a fresh "<type>-<uuid>" id, selects it and
// returns the id.
func (b *Builder) AddField(f schema.FieldDefinition) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	f.ID = fmt.Sprintf("%s-%s", f.Type, uuid.NewString())
	b.fields = append(b.fields, f)
	b.selected = f.ID
	return f.ID
}

// UpdateField applies fn to the field with the given id. The id itself
// cannot be changed. It reports whether the field exists.
func (b *Builder) UpdateField(id string, fn func(f *schema.FieldDefinition)) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.fields {
		if b.fields[i].ID == id {
			fn(&b.fields[i])
			b.fields[i].ID = id
			return true
		}
	}
	return false
}

// RemoveField drops the field with the given id, clearing the selection
// when it pointed at that field.
func (b *Builder) RemoveField(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.fields {
		if b.fields[i].ID == id {
			b.fields = append(b.fields[:i], b.fields[i+1:]...)
			if b.selected == id {
				b.selected = ""
			}
			return true
		}
	}
	return false
}

// ReorderFields moves the field at start to end.
func (b *Builder) ReorderFields(start, end int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.fields)
	if start < 0 || start >= n || end < 0 || end >= n {
		return errors.Errorf("reorder %d -> %d out of range for %d fields", start, end, n)
	}
	moved := b.fields[start]
	rest := append(append([]schema.FieldDefinition{}, b.fields[:start]...), b.fields[start+1:]...)
	out := make([]schema.FieldDefinition, 0, n)
	out = append(out, rest[:end]...)
	out = append(out, moved)
	out = append(out, rest[end:]...)
	b.fields = out
	return nil
}

// Select marks the field with the given id as selected. An empty id clears
// the selection.
func (b *Builder) Select(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selected = id
}

// SelectedField returns the selected field, if any.
func (b *Builder) SelectedField() (schema.FieldDefinition, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, f := range b.fields {
		if f.ID == b.selected {
			return f, true
		}
	}
	return schema.FieldDefinition{}, false
}

// Fields returns a copy of the ordered field list.
func (b *Builder) Fields() []schema.FieldDefinition {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]schema.FieldDefinition(nil), b.fields...)
}

// Clear resets everything, including the form id.
func (b *Builder) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.formID = ""
	b.details = nil
	b.fields = nil
	b.selected = ""
}

// Payload builds the save request and validates it the same way the
// server does.
func (b *Builder) Payload() (*schema.FormPayload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.details == nil {
		return nil, ErrNoDetails
	}

	fields := b.fields
	if fields == nil {
		fields = []schema.FieldDefinition{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, errors.Wrap(err, "encode fields")
	}

	details := *b.details
	p := &schema.FormPayload{
		FormID:      b.formID,
		FormDetails: &details,
		FormFields:  raw,
	}
	if err := schema.Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}
