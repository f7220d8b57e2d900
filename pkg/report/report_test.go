package report_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-tasador/pkg/api"
	"github.com/goliatone/go-tasador/pkg/model"
	"github.com/goliatone/go-tasador/pkg/report"
	"github.com/goliatone/go-tasador/pkg/testsupport"
)

func sampleInput(t *testing.T) report.Input {
	t.Helper()
	form, err := model.NewBuilder().Build(testsupport.SampleExperiments()[0])
	if err != nil {
		t.Fatalf("build form: %v", err)
	}
	return report.Input{
		Form:   form,
		Values: map[string]string{"precio_m2": "2000", "zona": "1", "garaje": "1"},
		Result: testsupport.SampleResult(t),
	}
}

func TestRenderer_Text(t *testing.T) {
	renderer, err := report.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	out, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return renderer.Render(report.FormatText, sampleInput(t), w)
	})
	if out != written {
		t.Fatalf("writer output differs from returned output")
	}

	for _, want := range []string{
		"Precio estimado          $245.678,50",
		"Confianza                87.5%",
		"Tiempo de venta          30 - 60 días",
		"Nivel de demanda         Alta [success]",
		"En 10 años             $346.556",
		"ROI anual              5.00%",
		"Recuperación           25 años",
		"Riesgo                   Bajo [success]",
		"− Neutral",
		"Tendencia                En Alza: El precio tiende a incrementar en esta zona",
		"Precio M2",
		"Centro",
		"Sí",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("text report missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "&") {
		t.Fatalf("text report must not be HTML escaped\n%s", out)
	}
}

func TestRenderer_HTMLSanitizesBackendStrings(t *testing.T) {
	renderer, err := report.New(report.WithTheme("", "dark"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	in := sampleInput(t)
	in.Result.RiesgoInversion.FactoresRiesgo = []api.RiskFactor{
		{Factor: `<script>alert("x")</script>Zona inundable`, Impacto: "negativo"},
	}
	in.Result.RentabilidadAlquiler.AnosRecuperacion = 999

	out, err := renderer.Render(report.FormatHTML, in)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if strings.Contains(out, "<script>") {
		t.Fatalf("html report contains unsanitized markup\n%s", out)
	}
	for _, want := range []string{
		"Zona inundable",
		"✗ Negativo",
		"N/A",
		"$245.678,50",
		`data-variant="dark"`,
		"--background: #0f172a;",
		`class="badge badge-success">En Alza`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("html report missing %q", want)
		}
	}
}

func TestRenderer_RejectsUnknownTheme(t *testing.T) {
	if _, err := report.New(report.WithTheme("corporativo", "")); err == nil {
		t.Fatalf("expected error for unknown theme")
	}
	if _, err := report.New(report.WithTheme("", "sepia")); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}

func TestRenderer_RequiresResult(t *testing.T) {
	renderer, err := report.New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if _, err := renderer.Render(report.FormatText, report.Input{}); err == nil {
		t.Fatalf("expected error without result")
	}
}

func TestThemes_CustomManifest(t *testing.T) {
	manifest := &theme.Manifest{
		Name:    "agencia",
		Version: "1.0.0",
		Tokens:  map[string]string{"accent": "#123456", "success": "#00aa00"},
		Variants: map[string]theme.Variant{
			"alto-contraste": {Tokens: map[string]string{"accent": "#000000"}},
		},
	}
	themes, err := report.NewThemes(manifest)
	if err != nil {
		t.Fatalf("themes: %v", err)
	}
	if err := themes.Register(manifest); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}

	selection, err := themes.Select("agencia", "alto-contraste")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	palette := report.Palette(selection)
	if palette["accent"] != "#000000" || palette["success"] != "#00aa00" {
		t.Fatalf("unexpected palette %+v", palette)
	}

	renderer, err := report.New(report.WithThemeSelector(themes), report.WithTheme("agencia", "alto-contraste"))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := renderer.Render(report.FormatHTML, sampleInput(t))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "--accent: #000000;") {
		t.Fatalf("expected variant token in html output")
	}
}

func TestRenderer_TemplateDirOverride(t *testing.T) {
	dir := t.TempDir()
	custom := "Informe {{ experiment_id }}: {{ money(result.precio_predicho) }}"
	if err := os.WriteFile(filepath.Join(dir, "report.txt.tpl"), []byte(custom), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	renderer, err := report.New(report.WithTemplateDir(dir))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	in := sampleInput(t)
	text, err := renderer.Render(report.FormatText, in)
	if err != nil {
		t.Fatalf("render text: %v", err)
	}
	if want := "Informe " + in.Form.ExperimentID + ": $245.678,50"; text != want {
		t.Fatalf("unexpected override output\nwant: %q\n got: %q", want, text)
	}

	html, err := renderer.Render(report.FormatHTML, in)
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if !strings.Contains(html, "<html") {
		t.Fatalf("expected embedded html template as fallback")
	}
}

func TestRenderer_MissingTemplateDir(t *testing.T) {
	if _, err := report.New(report.WithTemplateDir(filepath.Join(t.TempDir(), "missing"))); err == nil {
		t.Fatalf("expected error for missing template dir")
	}
}

func TestThemes_SelectResolvesVersions(t *testing.T) {
	older := &theme.Manifest{Name: "agencia", Version: "1.0.0", Tokens: map[string]string{"accent": "#111111"}}
	newer := &theme.Manifest{Name: "agencia", Version: "1.2.0", Tokens: map[string]string{"accent": "#222222"}}
	themes, err := report.NewThemes(older, newer)
	if err != nil {
		t.Fatalf("themes: %v", err)
	}

	latest, err := themes.Select("agencia", "")
	if err != nil {
		t.Fatalf("select latest: %v", err)
	}
	if got := report.Palette(latest)["accent"]; got != "#222222" {
		t.Fatalf("expected latest version palette, got %q", got)
	}

	pinned, err := themes.Select("agencia", "", theme.WithVersion("1.0.0"))
	if err != nil {
		t.Fatalf("select pinned: %v", err)
	}
	if got := report.Palette(pinned)["accent"]; got != "#111111" {
		t.Fatalf("expected pinned version palette, got %q", got)
	}

	if _, err := themes.Select(report.DefaultTheme, ""); err == nil {
		t.Fatalf("expected default theme to be missing when custom manifests are given")
	}
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]report.Format{"": report.FormatText, "TXT": report.FormatText, "html": report.FormatHTML} {
		got, err := report.ParseFormat(input)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := report.ParseFormat("pdf"); err == nil {
		t.Fatalf("expected error for pdf")
	}
}
