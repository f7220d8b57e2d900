package model

import internalmodel "github.com/goliatone/go-tasador/internal/model"

// FieldKind re-exports the internal FieldKind enumeration.
type FieldKind = internalmodel.FieldKind

const (
	FieldKindNumeric    = internalmodel.FieldKindNumeric
	FieldKindEnumerated = internalmodel.FieldKindEnumerated
)

type EnumOption = internalmodel.EnumOption
type Field = internalmodel.Field
type FormModel = internalmodel.FormModel
type KeywordGroup = internalmodel.KeywordGroup
type PlaceholderRule = internalmodel.PlaceholderRule

// PlaceholderOption is the leading "no selection" entry of enumerated fields.
var PlaceholderOption = internalmodel.PlaceholderOption

// InferField maps a bare column name to a Field using the built-in keyword
// table.
func InferField(column string) Field {
	return internalmodel.InferField(column)
}

// FormatLabel converts a column name into its display label.
func FormatLabel(column string) string {
	return internalmodel.FormatLabel(column)
}

// DefaultKeywordGroups returns a copy of the built-in keyword table.
func DefaultKeywordGroups() []KeywordGroup {
	return internalmodel.DefaultKeywordGroups()
}

// DefaultPlaceholderRules returns a copy of the built-in placeholder table.
func DefaultPlaceholderRules() []PlaceholderRule {
	return internalmodel.DefaultPlaceholderRules()
}
