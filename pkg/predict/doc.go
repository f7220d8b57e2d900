// Package predict manages the prediction form for a selected model: one raw
// string value per input column, a completeness check before submission,
// numeric coercion of every value, and the submission itself. A generation
// counter discards responses that arrive after the selection changed.
package predict
