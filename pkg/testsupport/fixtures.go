package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/goliatone/go-tasador/pkg/api"
)

// SampleExperiments returns a mix of completed and in-progress experiments.
// exp-casas and exp-basico are completed; exp-pendiente is still training.
func SampleExperiments() []api.Experiment {
	return []api.Experiment{
		{
			ID:              "exp-casas",
			Nombre:          "Casas Madrid",
			Estado:          api.EstadoCompletado,
			FechaCreacion:   "2025-05-02T10:00:00",
			ColumnasEntrada: []string{"precio_m2", "zona", "garaje"},
			ColumnaObjetivo: "precio",
			Metricas:        json.RawMessage(`{"r2_score":0.912,"mse":0.08,"mse_entrenamiento":null}`),
			MetricasPorEpoca: []api.EpochMetrics{
				{Epoca: 1, PerdidaEntrenamiento: 0.4, PerdidaValidacion: 0.45},
				{Epoca: 2, PerdidaEntrenamiento: 0.2, PerdidaValidacion: 0.25},
			},
			ImportanciaFeatures: []api.FeatureImportance{
				{Feature: "precio_m2", Importancia: 0.62},
				{Feature: "zona", Importancia: 0.25},
				{Feature: "garaje", Importancia: 0.13},
			},
		},
		{
			ID:              "exp-pendiente",
			Nombre:          "Pisos Valencia",
			Estado:          "entrenando",
			ColumnasEntrada: []string{"area_total", "num_banos"},
		},
		{
			ID:              "exp-basico",
			Nombre:          "Modelo Basico",
			Estado:          api.EstadoCompletado,
			FechaCreacion:   "2025-04-20T08:30:00",
			ColumnasEntrada: []string{"area", "habitaciones"},
			ColumnaObjetivo: "precio",
		},
	}
}

// SampleDatasets returns one raw dataset, ds-1, matching the pages of
// SamplePreviewPages(25, 10).
func SampleDatasets() []api.Dataset {
	return []api.Dataset{{
		ID:          "ds-1",
		Nombre:      "casas.csv",
		ArchivoURL:  "https://storage.example.com/casas.csv",
		Filas:       25,
		Columnas:    3,
		FechaSubida: "2025-04-01T09:00:00",
		UsuarioID:   "usuario-1",
	}}
}

// SampleResultJSON is a representative /api/prediccion response body.
const SampleResultJSON = `{
  "precio_predicho": 245678.5,
  "tiempo_vida_estimado": 60,
  "tendencia_precio": "subida",
  "confianza": 87.5,
  "factores_importantes": [
    {"nombre": "precio_m2", "impacto": 0.62},
    {"nombre": "zona", "impacto": 0.25}
  ],
  "tiempo_venta": {"dias_minimo": 30, "dias_maximo": 60, "nivel_demanda": "Alta", "score_demanda": 82},
  "revalorizacion": {
    "tasa_anual": 3.5,
    "valor_1_ano": 254277, "incremento_1_ano": 8599,
    "valor_3_anos": 272391, "incremento_3_anos": 26713,
    "valor_5_anos": 291795, "incremento_5_anos": 46117,
    "valor_10_anos": 346556, "incremento_10_anos": 100878
  },
  "rentabilidad_alquiler": {
    "ingreso_mensual": 1023, "ingreso_anual": 12276, "roi_anual": 4.9967,
    "gastos_anuales": 2456, "ingreso_neto_anual": 9820, "anos_recuperacion": 25
  },
  "riesgo_inversion": {
    "score_riesgo": 35, "nivel_riesgo": "Bajo", "color_riesgo": "success",
    "factores_riesgo": [{"factor": "Zona consolidada", "impacto": "bajo"}]
  },
  "costos_mantenimiento": {"costo_anual": 2456, "costo_mensual": 204, "porcentaje_valor": 1.0}
}`

// SampleResult decodes SampleResultJSON.
func SampleResult(t *testing.T) *api.PredictionResult {
	t.Helper()

	result := &api.PredictionResult{}
	if err := json.Unmarshal([]byte(SampleResultJSON), result); err != nil {
		t.Fatalf("decode sample result: %v", err)
	}
	result.Raw = json.RawMessage(SampleResultJSON)
	return result
}

// SamplePreviewPages builds a dataset preview split into pages of pageSize
// rows out of total rows.
func SamplePreviewPages(total, pageSize int) []api.PreviewPage {
	if pageSize < 1 {
		pageSize = 1
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		pages = 1
	}
	out := make([]api.PreviewPage, 0, pages)
	for p := 1; p <= pages; p++ {
		page := api.PreviewPage{PaginaActual: p, TotalPaginas: pages, TotalFilas: total}
		for i := (p - 1) * pageSize; i < p*pageSize && i < total; i++ {
			zona := "Centro"
			if i%2 == 1 {
				zona = "Rural"
			}
			var garaje any = float64(i % 2)
			if i%5 == 4 {
				garaje = api.NullCell
			}
			page.Rows = append(page.Rows, api.Row{
				"id":     float64(i + 1),
				"zona":   zona,
				"garaje": garaje,
			})
		}
		out = append(out, page)
	}
	return out
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents. Tests can assert
// the renderer returns and writes the same payload without duplicating buffer
// setup.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
