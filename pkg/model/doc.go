// Package model defines the typed form model inferred for a trained
// prediction model. The backend only exposes bare input column names, so each
// column is classified by keyword matching into a numeric input (with an
// example placeholder) or an enumerated choice whose stored values are
// numeric codes. Builders reside in internal/model but return the types
// defined here.
package model
