package report

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-tasador/pkg/render/template"
	"github.com/goliatone/go-tasador/pkg/render/template/gotemplate"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// Format selects the report output.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// ParseFormat accepts "text" (or "txt") and "html".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("report: unsupported format %q", s)
	}
}

// TemplatesFS exposes the embedded report templates so callers can start
// custom templates from them.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		panic(fmt.Sprintf("report: embedded templates: %v", err))
	}
	return sub
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithEngine swaps the template engine. Templates named "report.txt" and
// "report.html" must be resolvable by it.
func WithEngine(engine template.TemplateRenderer) Option {
	return func(r *Renderer) {
		if engine != nil {
			r.engine = engine
		}
	}
}

// WithTemplateDir loads report templates from dir before the embedded ones,
// so a "report.txt.tpl" or "report.html.tpl" placed there replaces the
// built-in layout.
func WithTemplateDir(dir string) Option {
	return func(r *Renderer) {
		r.templateDir = strings.TrimSpace(dir)
	}
}

// WithThemeSelector resolves palettes through selector instead of the
// built-in manifest.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(r *Renderer) {
		if selector != nil {
			r.selector = selector
		}
	}
}

// WithTheme picks the theme and variant used for HTML output.
func WithTheme(name, variant string) Option {
	return func(r *Renderer) {
		r.themeName = strings.TrimSpace(name)
		r.variant = strings.TrimSpace(variant)
	}
}

// Renderer turns prediction results into reports.
type Renderer struct {
	engine      template.TemplateRenderer
	templateDir string
	selector    theme.ThemeSelector
	themeName   string
	variant     string
}

// New builds a renderer backed by the embedded templates and the default
// theme.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}

	if r.engine == nil {
		engine, err := gotemplate.New(
			gotemplate.WithOverrideDir(r.templateDir),
			gotemplate.WithFS(TemplatesFS()),
		)
		if err != nil {
			return nil, fmt.Errorf("report: create template engine: %w", err)
		}
		r.engine = engine
	}
	if r.selector == nil {
		themes, err := NewThemes()
		if err != nil {
			return nil, err
		}
		r.selector = themes
	}
	if _, err := r.selector.Select(r.themeName, r.variant); err != nil {
		return nil, err
	}
	return r, nil
}

// Render writes the report for in in the requested format. The output is
// returned and copied to every writer in out.
func (r *Renderer) Render(format Format, in Input, out ...io.Writer) (string, error) {
	if r == nil || r.engine == nil {
		return "", errors.New("report: renderer is not initialised")
	}
	if in.Result == nil {
		return "", errors.New("report: prediction result is required")
	}

	view := NewView(in)
	selection, err := r.selector.Select(r.themeName, r.variant)
	if err != nil {
		return "", err
	}
	view.Theme = selection.Theme
	view.Variant = selection.Variant
	view.Palette = Palette(selection)

	var name string
	switch format {
	case FormatText, "":
		name = "report.txt"
	case FormatHTML:
		name = "report.html"
		view = sanitizeView(view)
	default:
		return "", fmt.Errorf("report: unsupported format %q", format)
	}

	rendered, err := r.engine.RenderTemplate(name, view, out...)
	if err != nil {
		return "", fmt.Errorf("report: render %s: %w", format, err)
	}
	return rendered, nil
}
