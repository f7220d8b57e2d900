// Package report renders a prediction result for people: a plain text
// summary for terminals and a standalone HTML page.
//
// Rendering goes through the pongo2 template engine with locale-aware number
// helpers. Strings that come from the backend are sanitized before they reach
// the HTML output, and badge colours come from a go-theme manifest.
package report
