package gotemplate

import (
	"fmt"
	"io/fs"
	"strings"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"
	"golang.org/x/text/language"

	"github.com/goliatone/go-tasador/pkg/render/template"
)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	templates   fs.FS
	overrideDir string
	locale      language.Tag
}

// WithFS loads templates from files.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithOverrideDir loads templates from dir first. Names missing there fall
// back to the fs.FS given with WithFS.
func WithOverrideDir(dir string) Option {
	return func(cfg *config) {
		cfg.overrideDir = strings.TrimSpace(dir)
	}
}

// WithLocale picks the locale used by the number helpers.
func WithLocale(tag language.Tag) Option {
	return func(cfg *config) {
		cfg.locale = tag
	}
}

// Engine is a go-template renderer preloaded with the number helpers and
// the padright filter.
type Engine struct {
	*gotemplatepkg.Engine
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds the engine. At least one of WithFS or WithOverrideDir is
// required.
func New(options ...Option) (*Engine, error) {
	cfg := config{locale: DefaultLocale}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	funcs := NewNumberFormatter(cfg.locale).Funcs()
	funcs["padright"] = filterPadRight

	renderOpts := []gotemplatepkg.Option{gotemplatepkg.WithTemplateFunc(funcs)}
	if cfg.overrideDir != "" {
		renderOpts = append(renderOpts, gotemplatepkg.WithBaseDir(cfg.overrideDir))
	}
	if cfg.templates != nil {
		renderOpts = append(renderOpts, gotemplatepkg.WithFS(cfg.templates))
	}

	engine, err := gotemplatepkg.NewRenderer(renderOpts...)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: %w", err)
	}
	return &Engine{Engine: engine}, nil
}

// filterPadRight pads the input with spaces up to param runes:
//
//	{{ input.label|padright:24 }}
func filterPadRight(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	text := in.String()
	width := param.Integer()
	if n := utf8.RuneCountInString(text); n < width {
		text += strings.Repeat(" ", width-n)
	}
	return pongo2.AsValue(text), nil
}
