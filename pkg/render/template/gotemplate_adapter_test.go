package template_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"golang.org/x/text/language"

	"github.com/goliatone/go-tasador/pkg/render/template/gotemplate"
	"github.com/goliatone/go-tasador/pkg/testsupport"
)

var templatesFS = fstest.MapFS{
	"hello.tpl":   {Data: []byte("Hola {{ name }}!")},
	"precio.tpl":  {Data: []byte("{{ money(precio) }} | {{ amount(valor) }} | {{ fixed(roi, 2) }}%")},
	"columns.tpl": {Data: []byte("[{{ label|padright:8 }}]")},
	"zona.tpl":    {Data: []byte("{{ zona|trim }}")},
}

func TestGoTemplateEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ana"}, w)
	})

	if want := "Hola Ana!"; result != want || written != want {
		t.Fatalf("render mismatch: result %q written %q want %q", result, written, want)
	}
}

func TestGoTemplateEngine_NumberHelpers(t *testing.T) {
	engine := newEngine(t)

	result, err := engine.RenderTemplate("precio", map[string]any{
		"precio": 245678.5,
		"valor":  346556,
		"roi":    4.9967,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "$245.678,50 | 346.556 | 5.00%"; result != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, result)
	}
}

func TestGoTemplateEngine_LocaleOption(t *testing.T) {
	engine, err := gotemplate.New(gotemplate.WithFS(templatesFS), gotemplate.WithLocale(language.AmericanEnglish))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	result, err := engine.RenderTemplate("precio", map[string]any{"precio": 245678.5, "valor": 1, "roi": 1})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "$245,678.50 | 1 | 1.00%"; result != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, result)
	}
}

func TestGoTemplateEngine_Filters(t *testing.T) {
	engine := newEngine(t)

	padded, err := engine.RenderTemplate("columns", map[string]any{"label": "Zona"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if padded != "[Zona    ]" {
		t.Fatalf("unexpected padding %q", padded)
	}

	trimmed, err := engine.RenderTemplate("zona", map[string]any{"zona": "  Centro "})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if trimmed != "Centro" {
		t.Fatalf("unexpected trim %q", trimmed)
	}
}

func TestGoTemplateEngine_OverrideDirTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hello.tpl"), []byte("Buenas, {{ name }}"), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	engine, err := gotemplate.New(gotemplate.WithOverrideDir(dir), gotemplate.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	greeting, err := engine.RenderTemplate("hello", map[string]any{"name": "Ana"})
	if err != nil {
		t.Fatalf("render override: %v", err)
	}
	if greeting != "Buenas, Ana" {
		t.Fatalf("expected override template, got %q", greeting)
	}

	padded, err := engine.RenderTemplate("columns", map[string]any{"label": "Zona"})
	if err != nil {
		t.Fatalf("render fallback: %v", err)
	}
	if padded != "[Zona    ]" {
		t.Fatalf("expected embedded fallback, got %q", padded)
	}
}

func TestGoTemplateEngine_MissingOverrideDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-dir")
	if _, err := gotemplate.New(gotemplate.WithOverrideDir(missing), gotemplate.WithFS(templatesFS)); err == nil {
		t.Fatalf("expected error for missing override dir")
	}
}

func TestGoTemplateEngine_RequiresSource(t *testing.T) {
	if _, err := gotemplate.New(); err == nil {
		t.Fatalf("expected error without override dir or fs")
	}
}

func newEngine(t *testing.T) *gotemplate.Engine {
	t.Helper()

	engine, err := gotemplate.New(gotemplate.WithFS(templatesFS))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
