package template

import (
	"io"
)

// TemplateRenderer is the engine contract report writers depend on. The
// go-template adapter in the gotemplate subpackage implements it.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}
