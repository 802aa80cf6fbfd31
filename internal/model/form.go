package model

// FieldKind is the closed set of supported form field types. Each kind carries
// only the schema data relevant to its validation: option kinds use Options,
// text kinds use MinLength/MaxLength/Pattern, and the rest validate by format.
type FieldKind string

const (
	FieldText     FieldKind = "TEXT"
	FieldTextarea FieldKind = "TEXTAREA"
	FieldEmail    FieldKind = "EMAIL"
	FieldPhone    FieldKind = "PHONE"
	FieldNumber   FieldKind = "NUMBER"
	FieldDate     FieldKind = "DATE"
	FieldSelect   FieldKind = "SELECT"
	FieldRadio    FieldKind = "RADIO"
	FieldCheckbox FieldKind = "CHECKBOX"
)

// HasOptions reports whether the kind constrains responses to an option set.
func (k FieldKind) HasOptions() bool {
	return k == FieldSelect || k == FieldRadio || k == FieldCheckbox
}

// Valid reports whether the kind is a member of the supported set.
func (k FieldKind) Valid() bool {
	switch k {
	case FieldText, FieldTextarea, FieldEmail, FieldPhone, FieldNumber,
		FieldDate, FieldSelect, FieldRadio, FieldCheckbox:
		return true
	}
	return false
}

// FormField is one field of an event's dynamic registration form.
type FormField struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Kind      FieldKind `json:"kind"`
	Label     string    `json:"label"`
	Required  bool      `json:"required"`
	Options   []string  `json:"options,omitempty"`
	MinLength *int      `json:"min_length,omitempty"`
	MaxLength *int      `json:"max_length,omitempty"`
	Pattern   string    `json:"pattern,omitempty"`
	Position  int       `json:"position"`
}

// HasOption reports whether value is a member of the field's option set.
func (f *FormField) HasOption(value string) bool {
	for _, o := range f.Options {
		if o == value {
			return true
		}
	}
	return false
}

// CreateFormFieldRequest is the payload for adding a field to an event's form.
type CreateFormFieldRequest struct {
	Kind      FieldKind `json:"kind"`
	Label     string    `json:"label"`
	Required  bool      `json:"required"`
	Options   []string  `json:"options,omitempty"`
	MinLength *int      `json:"min_length,omitempty"`
	MaxLength *int      `json:"max_length,omitempty"`
	Pattern   string    `json:"pattern,omitempty"`
	Position  int       `json:"position"`
}

// FormResponse is a persisted answer to one form field.
type FormResponse struct {
	RegistrationID string `json:"registration_id"`
	FieldID        string `json:"field_id"`
	Value          string `json:"value"`
}
