package model

// FieldType names the input kind of a field. The set is open: values outside
// the built-in constants are carried through unchanged so renderers can decide
// how to present them.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeTel      FieldType = "tel"
	FieldTypeDate     FieldType = "date"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
)

// Known reports whether the type is one of the built-in field kinds.
func (t FieldType) Known() bool {
	switch t {
	case FieldTypeText, FieldTypeEmail, FieldTypeTel, FieldTypeDate,
		FieldTypeTextarea, FieldTypeSelect, FieldTypeCheckbox:
		return true
	default:
		return false
	}
}

// HasOptions reports whether the field kind consumes Options.
func (t FieldType) HasOptions() bool {
	return t == FieldTypeSelect || t == FieldTypeCheckbox
}

// Field models a single form input. Struct tags follow the persisted JSON
// shape so forms can be stored and replayed verbatim.
type Field struct {
	ID          string    `json:"id" yaml:"id"`
	Type        FieldType `json:"type" yaml:"type"`
	Label       string    `json:"label" yaml:"label"`
	Name        string    `json:"name" yaml:"name"`
	Placeholder string    `json:"placeholder" yaml:"placeholder"`
	Required    bool      `json:"required" yaml:"required"`
	Options     []Option  `json:"options" yaml:"options"`
	Locked      bool      `json:"locked,omitempty" yaml:"locked,omitempty"`
	// Value holds the current input (string or bool). Merging ignores it.
	Value any `json:"value,omitempty" yaml:"value,omitempty"`
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.Options != nil {
		out.Options = append([]Option{}, f.Options...)
	}
	return out
}

// Form is an identified, ordered sequence of fields.
type Form struct {
	ID     string  `json:"id" yaml:"id"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Clone returns a deep copy of the form.
func (f Form) Clone() Form {
	return Form{ID: f.ID, Fields: CloneFields(f.Fields)}
}

// Locked returns the protected fields in form order.
func (f Form) Locked() []Field {
	locked, _ := Partition(f.Fields)
	return locked
}

// Editable returns the non-locked fields in form order.
func (f Form) Editable() []Field {
	_, editable := Partition(f.Fields)
	return editable
}

// Field looks up a field by id.
func (f Form) Field(id string) (Field, bool) {
	for _, field := range f.Fields {
		if field.ID == id {
			return field, true
		}
	}
	return Field{}, false
}
