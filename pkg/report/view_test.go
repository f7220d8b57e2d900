package report

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tasador/pkg/api"
	"github.com/goliatone/go-tasador/pkg/model"
)

func TestTrendBadge(t *testing.T) {
	cases := map[string]string{"subida": "En Alza", "bajada": "En Baja", "estable": "Estable", "": "Estable"}
	for trend, want := range cases {
		if got := TrendBadge(trend).Label; got != want {
			t.Fatalf("TrendBadge(%q) = %q, want %q", trend, got, want)
		}
	}
}

func TestDemandAndRiskTones(t *testing.T) {
	demand := map[string]string{"Alta": ToneSuccess, "Media-Alta": ToneInfo, "Media": ToneWarning, "Baja": ToneError}
	for level, want := range demand {
		if got := DemandBadge(level).Tone; got != want {
			t.Fatalf("DemandBadge(%q) tone = %q, want %q", level, got, want)
		}
	}
	if RiskTone("info") != ToneInfo || RiskTone("danger") != ToneError {
		t.Fatalf("unexpected risk tone mapping")
	}
}

func TestPayback(t *testing.T) {
	cases := map[float64]string{25: "25 años", 12.5: "12.5 años", 998.9: "998.9 años", 999: "N/A", 1500: "N/A"}
	for years, want := range cases {
		if got := Payback(years); got != want {
			t.Fatalf("Payback(%v) = %q, want %q", years, got, want)
		}
	}
}

func TestNewView_UsesOptionLabelsForEnumeratedInputs(t *testing.T) {
	form, err := model.NewBuilder().Build(api.Experiment{
		ID:              "exp",
		ColumnasEntrada: []string{"area", "zona"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	view := NewView(Input{
		Form:   form,
		Values: map[string]string{"area": "100", "zona": "5"},
		Result: &api.PredictionResult{},
	})

	want := []InputRow{
		{Column: "area", Label: "Area", Value: "100"},
		{Column: "zona", Label: "Zona", Value: "Rural"},
	}
	if diff := cmp.Diff(want, view.Inputs); diff != "" {
		t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
	}
	if view.Model != "exp" {
		t.Fatalf("expected model name to fall back to id, got %q", view.Model)
	}
}

func TestSanitizeView(t *testing.T) {
	view := sanitizeView(View{
		Model:  "<b>Casas</b>",
		Inputs: []InputRow{{Column: "zona", Label: "Zona", Value: `<img src=x onerror=alert(1)>Centro`}},
	})
	if view.Model != "Casas" {
		t.Fatalf("unexpected model %q", view.Model)
	}
	if view.Inputs[0].Value != "Centro" {
		t.Fatalf("unexpected value %q", view.Inputs[0].Value)
	}
}
