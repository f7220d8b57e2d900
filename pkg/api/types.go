package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// EstadoCompletado marks experiments whose model finished training and can
// serve predictions.
const EstadoCompletado = "completado"

// Experiment describes a trained (or training) model as returned by
// GET /api/experimentos.
type Experiment struct {
	ID              string          `json:"id"`
	Nombre          string          `json:"nombre"`
	Estado          string          `json:"estado"`
	DatasetID       string          `json:"dataset_id,omitempty"`
	FechaCreacion   string          `json:"fecha_creacion,omitempty"`
	ColumnasEntrada []string        `json:"columnas_entrada"`
	ColumnaObjetivo string          `json:"columna_objetivo,omitempty"`
	Configuracion   json.RawMessage `json:"configuracion,omitempty"`
	Metricas        json.RawMessage `json:"metricas,omitempty"`

	MetricasPorEpoca    []EpochMetrics      `json:"metricas_por_epoca,omitempty"`
	ImportanciaFeatures []FeatureImportance `json:"importancia_features,omitempty"`
}

// EpochMetrics is the loss recorded after one training epoch.
type EpochMetrics struct {
	Epoca                  int      `json:"epoca"`
	PerdidaEntrenamiento   float64  `json:"perdida_entrenamiento"`
	PerdidaValidacion      float64  `json:"perdida_validacion"`
	PrecisionEntrenamiento *float64 `json:"precision_entrenamiento,omitempty"`
	PrecisionValidacion    *float64 `json:"precision_validacion,omitempty"`
	Tiempo                 *float64 `json:"tiempo,omitempty"`
}

// FeatureImportance is the permutation importance of one input column.
type FeatureImportance struct {
	Feature     string  `json:"feature"`
	Importancia float64 `json:"importancia"`
}

// UnmarshalJSON accepts the JSON-encoded strings the backend returns for
// freshly inserted experiments as well as decoded values. Auxiliary fields
// that fail to parse are left empty.
func (e *Experiment) UnmarshalJSON(data []byte) error {
	type plain Experiment
	var wire struct {
		plain
		ColumnasEntrada     json.RawMessage `json:"columnas_entrada"`
		Configuracion       json.RawMessage `json:"configuracion"`
		Metricas            json.RawMessage `json:"metricas"`
		MetricasPorEpoca    json.RawMessage `json:"metricas_por_epoca"`
		ImportanciaFeatures json.RawMessage `json:"importancia_features"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*e = Experiment(wire.plain)
	e.Configuracion = unwrapEncoded(wire.Configuracion)
	e.Metricas = unwrapEncoded(wire.Metricas)
	if err := decodeEncoded(wire.ColumnasEntrada, &e.ColumnasEntrada); err != nil {
		e.ColumnasEntrada = []string{}
	}
	if err := decodeEncoded(wire.MetricasPorEpoca, &e.MetricasPorEpoca); err != nil {
		e.MetricasPorEpoca = nil
	}
	if err := decodeEncoded(wire.ImportanciaFeatures, &e.ImportanciaFeatures); err != nil {
		e.ImportanciaFeatures = nil
	}
	return nil
}

// Metrics decodes the final metric map. Metrics the backend stored as null
// are dropped.
func (e Experiment) Metrics() (map[string]float64, error) {
	out := map[string]float64{}
	if len(e.Metricas) == 0 {
		return out, nil
	}
	var raw map[string]*float64
	if err := json.Unmarshal(e.Metricas, &raw); err != nil {
		return nil, fmt.Errorf("api: decode metrics of %s: %w", e.ID, err)
	}
	for key, value := range raw {
		if value != nil {
			out[key] = *value
		}
	}
	return out, nil
}

// Classification reports whether the metrics describe a classifier, which
// the backend signals by reporting precision.
func (e Experiment) Classification() bool {
	metrics, err := e.Metrics()
	if err != nil {
		return false
	}
	_, ok := metrics["precision"]
	return ok
}

// Score is the headline quality in percent: precision for classifiers and
// R² for regressors.
func (e Experiment) Score() (float64, bool) {
	metrics, err := e.Metrics()
	if err != nil {
		return 0, false
	}
	if precision, ok := metrics["precision"]; ok {
		return precision * 100, true
	}
	if r2, ok := metrics["r2_score"]; ok {
		return r2 * 100, true
	}
	return 0, false
}

// unwrapEncoded returns raw, or the JSON held inside raw when raw is a
// string. Empty and null values come back nil.
func unwrapEncoded(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] != '"' {
		return raw
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil
	}
	inner = strings.TrimSpace(inner)
	if inner == "" || inner == "null" {
		return nil
	}
	return json.RawMessage(inner)
}

func decodeEncoded(raw json.RawMessage, out any) error {
	unwrapped := unwrapEncoded(raw)
	if unwrapped == nil {
		return nil
	}
	return json.Unmarshal(unwrapped, out)
}

// Completed reports whether the experiment can serve predictions.
func (e Experiment) Completed() bool {
	return e.Estado == EstadoCompletado
}

// CompletedOnly filters the list down to experiments that finished training,
// preserving the backend ordering (newest first).
func CompletedOnly(experiments []Experiment) []Experiment {
	out := make([]Experiment, 0, len(experiments))
	for _, exp := range experiments {
		if exp.Completed() {
			out = append(out, exp)
		}
	}
	return out
}

// PredictionRequest is the body of POST /api/prediccion.
type PredictionRequest struct {
	ExperimentID string             `json:"experimento_id"`
	Data         map[string]float64 `json:"datos"`
}

// MarshalJSON encodes non-finite values as null. Values that failed numeric
// coercion are forwarded rather than rejected; the backend decides whether
// they are acceptable.
func (r PredictionRequest) MarshalJSON() ([]byte, error) {
	datos := make(map[string]any, len(r.Data))
	for key, value := range r.Data {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			datos[key] = nil
			continue
		}
		datos[key] = value
	}
	return json.Marshal(struct {
		ExperimentID string         `json:"experimento_id"`
		Data         map[string]any `json:"datos"`
	}{
		ExperimentID: r.ExperimentID,
		Data:         datos,
	})
}

// ImportantFactor is a feature with its relative weight in the estimate.
type ImportantFactor struct {
	Nombre  string  `json:"nombre"`
	Impacto float64 `json:"impacto"`
}

// SaleTime estimates how long the property stays on the market.
type SaleTime struct {
	DiasMinimo   float64 `json:"dias_minimo"`
	DiasMaximo   float64 `json:"dias_maximo"`
	NivelDemanda string  `json:"nivel_demanda"`
	ScoreDemanda float64 `json:"score_demanda"`
}

// Revaluation projects the property value over time.
type Revaluation struct {
	TasaAnual        float64 `json:"tasa_anual"`
	Valor1Ano        float64 `json:"valor_1_ano"`
	Incremento1Ano   float64 `json:"incremento_1_ano"`
	Valor3Anos       float64 `json:"valor_3_anos"`
	Incremento3Anos  float64 `json:"incremento_3_anos"`
	Valor5Anos       float64 `json:"valor_5_anos"`
	Incremento5Anos  float64 `json:"incremento_5_anos"`
	Valor10Anos      float64 `json:"valor_10_anos"`
	Incremento10Anos float64 `json:"incremento_10_anos"`
}

// RentalYield summarises the rental return of the property.
type RentalYield struct {
	IngresoMensual   float64 `json:"ingreso_mensual"`
	IngresoAnual     float64 `json:"ingreso_anual"`
	RoiAnual         float64 `json:"roi_anual"`
	GastosAnuales    float64 `json:"gastos_anuales"`
	IngresoNetoAnual float64 `json:"ingreso_neto_anual"`
	AnosRecuperacion float64 `json:"anos_recuperacion"`
}

// RiskFactor is a single qualitative investment risk.
type RiskFactor struct {
	Factor  string `json:"factor"`
	Impacto string `json:"impacto"`
}

// InvestmentRisk scores the investment risk of the property.
type InvestmentRisk struct {
	ScoreRiesgo    float64      `json:"score_riesgo"`
	NivelRiesgo    string       `json:"nivel_riesgo"`
	ColorRiesgo    string       `json:"color_riesgo"`
	FactoresRiesgo []RiskFactor `json:"factores_riesgo"`
}

// MaintenanceCost estimates the upkeep of the property.
type MaintenanceCost struct {
	CostoAnual      float64 `json:"costo_anual"`
	CostoMensual    float64 `json:"costo_mensual"`
	PorcentajeValor float64 `json:"porcentaje_valor"`
}

// PredictionResult is computed entirely by the backend; the client only
// displays it. Raw keeps the verbatim payload so fields the client does not
// model are not lost.
type PredictionResult struct {
	PrecioPredicho       float64           `json:"precio_predicho"`
	TiempoVidaEstimado   float64           `json:"tiempo_vida_estimado"`
	TendenciaPrecio      string            `json:"tendencia_precio"`
	Confianza            float64           `json:"confianza"`
	FactoresImportantes  []ImportantFactor `json:"factores_importantes"`
	TiempoVenta          SaleTime          `json:"tiempo_venta"`
	Revalorizacion       Revaluation       `json:"revalorizacion"`
	RentabilidadAlquiler RentalYield       `json:"rentabilidad_alquiler"`
	RiesgoInversion      InvestmentRisk    `json:"riesgo_inversion"`
	CostosMantenimiento  MaintenanceCost   `json:"costos_mantenimiento"`

	Raw json.RawMessage `json:"-"`
}

// Dataset describes an uploaded CSV registered with the backend.
type Dataset struct {
	ID                string `json:"id"`
	Nombre            string `json:"nombre"`
	ArchivoURL        string `json:"archivo_url"`
	Filas             int    `json:"filas"`
	Columnas          int    `json:"columnas"`
	FechaSubida       string `json:"fecha_subida"`
	UsuarioID         string `json:"usuario_id"`
	EsLimpio          bool   `json:"es_limpio,omitempty"`
	DatasetOriginalID string `json:"dataset_original_id,omitempty"`
}

// NullCell is the literal the backend substitutes for missing values in
// preview rows.
const NullCell = "[NULL]"

// Row is a single preview record keyed by column name.
type Row map[string]any

// PreviewPage is one server-side page of a dataset preview.
type PreviewPage struct {
	Rows         []Row  `json:"datos"`
	PaginaActual int    `json:"pagina_actual"`
	TotalPaginas int    `json:"total_paginas"`
	TotalFilas   int    `json:"total_filas"`
	Error        string `json:"error,omitempty"`
}

// Columns returns the sorted union of column names present in the page.
func (p PreviewPage) Columns() []string {
	seen := make(map[string]struct{})
	for _, row := range p.Rows {
		for key := range row {
			seen[key] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// ColumnStat holds per-column statistics for a dataset. Numeric aggregates are
// nil for non-numeric columns.
type ColumnStat struct {
	Nombre        string   `json:"nombre"`
	Tipo          string   `json:"tipo"`
	ValoresNulos  int      `json:"valores_nulos"`
	ValoresUnicos int      `json:"valores_unicos"`
	Promedio      *float64 `json:"promedio,omitempty"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	Desviacion    *float64 `json:"desviacion,omitempty"`
}
