package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-tasador/pkg/api"
)

// Backend is an in-process fake of the prediction backend. Handlers answer
// from the configured fixtures and record every call so tests can assert how
// many requests reached the network.
type Backend struct {
	Server *httptest.Server

	mu              sync.Mutex
	experiments     []api.Experiment
	datasets        []api.Dataset
	pages           map[string][]api.PreviewPage
	columns         map[string][]api.ColumnStat
	predictStatus   int
	predictBody     string
	predictRequests []api.PredictionRequest
	calls           map[string]int
	requestIDs      []string
	onPredict       func()
	trainRequests   []api.TrainingConfig
	cleanRequests   []api.CleaningOptions
}

// TrainedMetrics are the metrics the fake backend reports for every
// training run.
var TrainedMetrics = map[string]any{
	"mse":               0.125,
	"mse_validacion":    0.125,
	"mse_entrenamiento": nil,
	"perdida_final":     0.125,
	"r2_score":          0.875,
}

// NewBackend starts a fake backend that is closed when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		experiments:   SampleExperiments(),
		pages:         make(map[string][]api.PreviewPage),
		columns:       make(map[string][]api.ColumnStat),
		predictStatus: http.StatusOK,
		predictBody:   SampleResultJSON,
		calls:         make(map[string]int),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the server root.
func (b *Backend) URL() string {
	return b.Server.URL
}

// SetExperiments replaces the experiment fixtures.
func (b *Backend) SetExperiments(experiments []api.Experiment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.experiments = experiments
}

// SetDatasets replaces the dataset fixtures.
func (b *Backend) SetDatasets(datasets []api.Dataset) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.datasets = datasets
}

// SetPreview registers preview pages for a dataset.
func (b *Backend) SetPreview(datasetID string, pages []api.PreviewPage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages[datasetID] = pages
}

// SetColumns registers column statistics for a dataset.
func (b *Backend) SetColumns(datasetID string, columns []api.ColumnStat) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.columns[datasetID] = columns
}

// SetPredictResponse configures the status and raw body returned by
// POST /api/prediccion.
func (b *Backend) SetPredictResponse(status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.predictStatus = status
	b.predictBody = body
}

// OnPredict registers a hook that runs before the prediction response is
// written. Tests use it to interleave state changes with an in-flight call.
func (b *Backend) OnPredict(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onPredict = fn
}

// Calls reports how many requests hit the given "METHOD /path".
func (b *Backend) Calls(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

// PredictRequests returns the decoded prediction bodies received so far.
func (b *Backend) PredictRequests() []api.PredictionRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.PredictionRequest(nil), b.predictRequests...)
}

// TrainRequests returns the decoded training bodies received so far.
func (b *Backend) TrainRequests() []api.TrainingConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.TrainingConfig(nil), b.trainRequests...)
}

// CleanRequests returns the decoded cleaning bodies received so far.
func (b *Backend) CleanRequests() []api.CleaningOptions {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.CleaningOptions(nil), b.cleanRequests...)
}

// Experiments returns the experiments the backend currently holds.
func (b *Backend) Experiments() []api.Experiment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.Experiment(nil), b.experiments...)
}

// RequestIDs returns every X-Request-ID header observed.
func (b *Backend) RequestIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requestIDs...)
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.calls[r.Method+" "+r.URL.Path]++
	b.requestIDs = append(b.requestIDs, r.Header.Get(api.RequestIDHeader))
	b.mu.Unlock()

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodGet && path == "/api/experimentos":
		b.mu.Lock()
		experiments := b.experiments
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, experiments)

	case r.Method == http.MethodGet && strings.HasPrefix(path, "/api/experimentos/"):
		id := strings.TrimPrefix(path, "/api/experimentos/")
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, exp := range b.experiments {
			if exp.ID == id {
				writeJSON(w, http.StatusOK, exp)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Experimento no encontrado"})

	case r.Method == http.MethodDelete && strings.HasPrefix(path, "/api/experimentos/"):
		b.serveDelete(w, strings.TrimPrefix(path, "/api/experimentos/"))

	case r.Method == http.MethodPost && path == "/api/entrenamientos":
		b.serveTrain(w, r)

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/limpiar"):
		b.serveClean(w, r, datasetID(path, "/limpiar"))

	case r.Method == http.MethodPost && path == "/api/prediccion":
		b.servePredict(w, r)

	case r.Method == http.MethodGet && path == "/api/datasets":
		b.mu.Lock()
		datasets := b.datasets
		b.mu.Unlock()
		if datasets == nil {
			datasets = []api.Dataset{}
		}
		writeJSON(w, http.StatusOK, datasets)

	case r.Method == http.MethodGet && strings.HasSuffix(path, "/vista-previa"):
		id := datasetID(path, "/vista-previa")
		b.servePreview(w, r, id)

	case r.Method == http.MethodGet && strings.HasSuffix(path, "/columnas"):
		id := datasetID(path, "/columnas")
		b.mu.Lock()
		cols, ok := b.columns[id]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "dataset desconocido"})
			return
		}
		writeJSON(w, http.StatusOK, cols)

	default:
		http.NotFound(w, r)
	}
}

func (b *Backend) servePredict(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ExperimentID string              `json:"experimento_id"`
		Data         map[string]*float64 `json:"datos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ExperimentID == "" || payload.Data == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Faltan datos requeridos (experimento_id, datos)"})
		return
	}

	req := api.PredictionRequest{ExperimentID: payload.ExperimentID, Data: make(map[string]float64, len(payload.Data))}
	for key, value := range payload.Data {
		if value == nil {
			continue
		}
		req.Data[key] = *value
	}

	b.mu.Lock()
	b.predictRequests = append(b.predictRequests, req)
	status, body, hook := b.predictStatus, b.predictBody, b.onPredict
	b.mu.Unlock()

	if hook != nil {
		hook()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (b *Backend) serveDelete(w http.ResponseWriter, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, exp := range b.experiments {
		if exp.ID == id {
			b.experiments = append(b.experiments[:i:i], b.experiments[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Experimento eliminado"})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "No se encontró el experimento para eliminar"})
}

// serveTrain answers like the backend does after inserting the experiment:
// list and object columns come back as JSON-encoded strings.
func (b *Backend) serveTrain(w http.ResponseWriter, r *http.Request) {
	var cfg api.TrainingConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No se recibió ninguna configuración"})
		return
	}

	b.mu.Lock()
	b.trainRequests = append(b.trainRequests, cfg)
	id := fmt.Sprintf("exp-entrenado-%d", len(b.trainRequests))
	b.mu.Unlock()

	for _, column := range cfg.ColumnasEntrada {
		if column == cfg.ColumnaObjetivo {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "La columna objetivo no puede estar incluida en las columnas de entrada.",
			})
			return
		}
	}

	encode := func(v any) string {
		data, _ := json.Marshal(v)
		return string(data)
	}
	importance := make([]api.FeatureImportance, len(cfg.ColumnasEntrada))
	for i, column := range cfg.ColumnasEntrada {
		importance[i] = api.FeatureImportance{Feature: column, Importancia: 1 / float64(i+1)}
	}
	epochs := []api.EpochMetrics{
		{Epoca: 1, PerdidaEntrenamiento: 0.5, PerdidaValidacion: 0.6},
		{Epoca: 2, PerdidaEntrenamiento: 0.25, PerdidaValidacion: 0.3},
	}
	payload := map[string]any{
		"id":                   id,
		"nombre":               "Experimento_" + cfg.DatasetID,
		"dataset_id":           cfg.DatasetID,
		"estado":               api.EstadoCompletado,
		"fecha_creacion":       "2024-05-02T10:00:00",
		"configuracion":        encode(cfg),
		"columnas_entrada":     encode(cfg.ColumnasEntrada),
		"columna_objetivo":     cfg.ColumnaObjetivo,
		"metricas":             encode(TrainedMetrics),
		"metricas_por_epoca":   encode(epochs),
		"importancia_features": encode(importance),
	}
	raw, _ := json.Marshal(payload)

	var created api.Experiment
	if err := json.Unmarshal(raw, &created); err == nil {
		b.mu.Lock()
		b.experiments = append([]api.Experiment{created}, b.experiments...)
		b.mu.Unlock()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(raw)
}

// serveClean counts rows holding null cells in the registered preview pages
// and drops them when asked to.
func (b *Backend) serveClean(w http.ResponseWriter, r *http.Request, id string) {
	var opts api.CleaningOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanRequests = append(b.cleanRequests, opts)

	var original *api.Dataset
	for i := range b.datasets {
		if b.datasets[i].ID == id {
			original = &b.datasets[i]
			break
		}
	}
	if original == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "No se encontró el dataset original con ID " + id,
		})
		return
	}

	total, nullRows, nullCells := 0, 0, 0
	perColumn := map[string]int{}
	for _, page := range b.pages[id] {
		for _, row := range page.Rows {
			total++
			hasNull := false
			for column, value := range row {
				if value == api.NullCell || value == nil {
					hasNull = true
					nullCells++
					perColumn[column]++
				}
			}
			if hasNull {
				nullRows++
			}
		}
	}

	removed, removedCells := 0, 0
	if opts.EliminarNulos {
		removed, removedCells = nullRows, nullCells
		perColumn = map[string]int{}
	}
	kept := total - removed
	percent := 0.0
	if total > 0 {
		percent = float64(removed) / float64(total) * 100
	}

	cleaned := api.Dataset{
		ID:                id + "-limpio",
		Nombre:            original.Nombre + " (Limpio)",
		Filas:             kept,
		Columnas:          original.Columnas,
		UsuarioID:         original.UsuarioID,
		EsLimpio:          true,
		DatasetOriginalID: id,
	}
	b.datasets = append(b.datasets, cleaned)

	writeJSON(w, http.StatusOK, api.CleaningResult{
		Mensaje:          "Limpieza completada exitosamente.",
		DatasetLimpioID:  cleaned.ID,
		FilasResultantes: kept,
		ArchivoURL:       "https://storage.example.com/limpios/" + cleaned.ID + ".csv",
		Estadisticas: api.CleaningStats{
			FilasOriginales:           total,
			FilasLimpias:              kept,
			FilasEliminadas:           removed,
			PorcentajeDatosEliminados: percent,
			NulosPorColumna:           perColumn,
			TotalNulos:                nullCells - removedCells,
			NulosEliminados:           removedCells,
		},
	})
}

func (b *Backend) servePreview(w http.ResponseWriter, r *http.Request, id string) {
	b.mu.Lock()
	pages, ok := b.pages[id]
	b.mu.Unlock()
	if !ok || len(pages) == 0 {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"datos": []any{}, "pagina_actual": 1, "total_paginas": 1, "total_filas": 0,
			"error": "dataset desconocido",
		})
		return
	}
	page, err := strconv.Atoi(r.URL.Query().Get("pagina"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > len(pages) {
		page = len(pages)
	}
	writeJSON(w, http.StatusOK, pages[page-1])
}

func datasetID(path, suffix string) string {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(path, "/api/datasets/"), suffix)
	return strings.Trim(trimmed, "/")
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
