package model

// FieldKind is the inferred widget category for a model input column.
type FieldKind string

const (
	// FieldKindNumeric renders a free numeric input.
	FieldKindNumeric FieldKind = "numeric"
	// FieldKindEnumerated renders a choice between fixed numeric codes.
	FieldKindEnumerated FieldKind = "enumerated"
)

// EnumOption pairs the value sent to the backend with its display label. The
// value is always a number encoded as a string, except for the leading
// placeholder option which carries the empty string.
type EnumOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Field is the presentation contract for a single column. Placeholder only
// applies to numeric fields and Options only to enumerated ones.
type Field struct {
	Name        string       `json:"name"`
	Label       string       `json:"label"`
	Kind        FieldKind    `json:"kind"`
	Placeholder string       `json:"placeholder,omitempty"`
	Options     []EnumOption `json:"options,omitempty"`
	Group       string       `json:"group,omitempty"`
}

// Numeric reports whether the field takes free numeric input.
func (f Field) Numeric() bool {
	return f.Kind != FieldKindEnumerated
}

// OptionLabel resolves the display label for a stored option value.
func (f Field) OptionLabel(value string) (string, bool) {
	for _, opt := range f.Options {
		if opt.Value == value {
			return opt.Label, true
		}
	}
	return "", false
}

// FormModel is the inferred form for a trained model, one Field per input
// column in the order the backend declared them.
type FormModel struct {
	ExperimentID   string  `json:"experimentId"`
	ExperimentName string  `json:"experimentName,omitempty"`
	Target         string  `json:"target,omitempty"`
	Fields         []Field `json:"fields"`
}

// Columns returns the column names in form order.
func (m FormModel) Columns() []string {
	out := make([]string, 0, len(m.Fields))
	for _, field := range m.Fields {
		out = append(out, field.Name)
	}
	return out
}

// Field looks up a field by column name.
func (m FormModel) Field(name string) (Field, bool) {
	for _, field := range m.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}
