// Package template defines the renderer-agnostic template contract used to
// turn prediction results into text or HTML.
package template
