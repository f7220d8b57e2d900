package model

import "strings"

// PlaceholderOption is the leading "no selection" entry of every enumerated
// field.
var PlaceholderOption = EnumOption{Value: "", Label: "Seleccionar"}

// DefaultPlaceholder is used for numeric fields that match no placeholder
// rule.
const DefaultPlaceholder = "0"

// KeywordGroup maps column names containing any of Keywords to a field kind.
// Options lists the enumerated choices without the placeholder entry.
type KeywordGroup struct {
	Name     string       `json:"name" yaml:"name"`
	Keywords []string     `json:"keywords" yaml:"keywords"`
	Kind     FieldKind    `json:"kind" yaml:"kind"`
	Options  []EnumOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// Matches reports whether the lower-cased column name contains one of the
// group keywords.
func (g KeywordGroup) Matches(lowered string) bool {
	return containsAny(lowered, g.Keywords)
}

// PlaceholderRule suggests an example value for numeric columns.
type PlaceholderRule struct {
	Keywords []string `json:"keywords" yaml:"keywords"`
	Value    string   `json:"value" yaml:"value"`
}

// DefaultKeywordGroups returns the built-in table. Order matters: the first
// matching group wins, and the numeric groups are consulted before the
// enumerated ones, so "zona_precio" is numeric.
func DefaultKeywordGroups() []KeywordGroup {
	binary := []EnumOption{{Value: "0", Label: "No"}, {Value: "1", Label: "Sí"}}
	return []KeywordGroup{
		{Name: "price", Kind: FieldKindNumeric, Keywords: []string{"precio", "costo", "valor"}},
		{Name: "area", Kind: FieldKindNumeric, Keywords: []string{"area", "m2", "superficie"}},
		{Name: "rooms", Kind: FieldKindNumeric, Keywords: []string{"habitacion", "cuarto", "dormitorio"}},
		{Name: "bathrooms", Kind: FieldKindNumeric, Keywords: []string{"bano", "baño"}},
		{Name: "year", Kind: FieldKindNumeric, Keywords: []string{"ano", "año", "fecha"}},
		{Name: "distance", Kind: FieldKindNumeric, Keywords: []string{"distancia", "km"}},
		{Name: "floor", Kind: FieldKindNumeric, Keywords: []string{"piso", "planta"}},
		{
			Name:     "binary",
			Kind:     FieldKindEnumerated,
			Keywords: []string{"garaje", "ascensor", "balcon", "calefaccion", "aire"},
			Options:  binary,
		},
		{
			Name:     "condition",
			Kind:     FieldKindEnumerated,
			Keywords: []string{"estado", "conservacion", "calidad"},
			Options: []EnumOption{
				{Value: "1", Label: "Malo"},
				{Value: "2", Label: "Regular"},
				{Value: "3", Label: "Bueno"},
				{Value: "4", Label: "Excelente"},
			},
		},
		{
			Name:     "orientation",
			Kind:     FieldKindEnumerated,
			Keywords: []string{"orientacion"},
			Options: []EnumOption{
				{Value: "1", Label: "Norte"},
				{Value: "2", Label: "Sur"},
				{Value: "3", Label: "Este"},
				{Value: "4", Label: "Oeste"},
			},
		},
		{
			Name:     "zone",
			Kind:     FieldKindEnumerated,
			Keywords: []string{"zona", "region", "distrito"},
			Options: []EnumOption{
				{Value: "1", Label: "Centro"},
				{Value: "2", Label: "Residencial Alta"},
				{Value: "3", Label: "Residencial Media"},
				{Value: "4", Label: "Periférica"},
				{Value: "5", Label: "Rural"},
			},
		},
	}
}

// DefaultPlaceholderRules returns the built-in numeric placeholders, first
// match wins.
func DefaultPlaceholderRules() []PlaceholderRule {
	return []PlaceholderRule{
		{Keywords: []string{"precio"}, Value: "150000"},
		{Keywords: []string{"area", "m2"}, Value: "100"},
		{Keywords: []string{"habitacion"}, Value: "3"},
		{Keywords: []string{"bano"}, Value: "2"},
		{Keywords: []string{"ano", "año"}, Value: "2015"},
		{Keywords: []string{"distancia"}, Value: "5.5"},
		{Keywords: []string{"piso"}, Value: "3"},
		{Keywords: []string{"planta"}, Value: "5"},
	}
}

// Inferrer applies a keyword table to bare column names.
type Inferrer struct {
	groups       []KeywordGroup
	placeholders []PlaceholderRule
	labeler      func(string) string
}

// NewInferrer builds an Inferrer from opts, falling back to the defaults for
// any empty table.
func NewInferrer(opts Options) *Inferrer {
	defaults := defaultOptions()
	if opts.Labeler == nil {
		opts.Labeler = defaults.Labeler
	}
	if len(opts.Keywords) == 0 {
		opts.Keywords = defaults.Keywords
	}
	if len(opts.Placeholders) == 0 {
		opts.Placeholders = defaults.Placeholders
	}
	return &Inferrer{
		groups:       opts.Keywords,
		placeholders: opts.Placeholders,
		labeler:      opts.Labeler,
	}
}

var defaultInferrer = NewInferrer(Options{})

// InferField infers the field for column using the built-in table.
func InferField(column string) Field {
	return defaultInferrer.Infer(column)
}

// Infer maps a column name to a Field. Names matching no group become
// numeric fields, so every column always gets a usable control.
func (i *Inferrer) Infer(column string) Field {
	lowered := strings.ToLower(column)
	field := Field{
		Name:  column,
		Label: i.labeler(column),
		Kind:  FieldKindNumeric,
	}

	for _, group := range i.groups {
		if !group.Matches(lowered) {
			continue
		}
		field.Group = group.Name
		if group.Kind == FieldKindEnumerated {
			field.Kind = FieldKindEnumerated
			field.Options = make([]EnumOption, 0, len(group.Options)+1)
			field.Options = append(field.Options, PlaceholderOption)
			field.Options = append(field.Options, group.Options...)
		}
		break
	}

	if field.Kind == FieldKindNumeric {
		field.Placeholder = i.placeholder(lowered)
	}
	return field
}

func (i *Inferrer) placeholder(lowered string) string {
	for _, rule := range i.placeholders {
		if containsAny(lowered, rule.Keywords) {
			return rule.Value
		}
	}
	return DefaultPlaceholder
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
