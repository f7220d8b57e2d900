package api

import (
	"fmt"
	"strings"
)

// Model types accepted by POST /api/entrenamientos.
const (
	TipoRegresion   = "regresion"
	TipoRedNeuronal = "red_neuronal"
)

// Messages for training requests rejected before they are sent.
const (
	MsgDatasetRequired      = "Debe seleccionar un dataset"
	MsgInputColumnsRequired = "Debe seleccionar al menos una columna de entrada"
	MsgTargetRequired       = "Debe seleccionar una columna objetivo"
	MsgTargetInInputs       = "La columna objetivo no puede estar en las columnas de entrada"
)

// TrainingConfig is the body of POST /api/entrenamientos.
type TrainingConfig struct {
	DatasetID       string   `json:"dataset_id"`
	ColumnasEntrada []string `json:"columnas_entrada"`
	ColumnaObjetivo string   `json:"columna_objetivo"`
	TipoModelo      string   `json:"tipo_modelo"`
	TasaAprendizaje float64  `json:"tasa_aprendizaje"`
	Epocas          int      `json:"epocas"`
	TamanoLote      int      `json:"tamano_lote"`
	ValidacionSplit float64  `json:"validacion_split"`
}

// DefaultTrainingConfig returns the hyperparameters used when the caller
// only picks the dataset and columns.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		TipoModelo:      TipoRegresion,
		TasaAprendizaje: 0.001,
		Epocas:          100,
		TamanoLote:      32,
		ValidacionSplit: 0.2,
	}
}

// Validate runs the checks that must pass before a training request is
// issued.
func (c TrainingConfig) Validate() error {
	if strings.TrimSpace(c.DatasetID) == "" {
		return &RequestError{Message: MsgDatasetRequired}
	}
	if len(c.ColumnasEntrada) == 0 {
		return &RequestError{Message: MsgInputColumnsRequired}
	}
	if strings.TrimSpace(c.ColumnaObjetivo) == "" {
		return &RequestError{Message: MsgTargetRequired}
	}
	for _, column := range c.ColumnasEntrada {
		if column == c.ColumnaObjetivo {
			return &RequestError{Message: MsgTargetInInputs}
		}
	}
	switch c.TipoModelo {
	case TipoRegresion, TipoRedNeuronal:
	default:
		return &RequestError{Message: fmt.Sprintf("Tipo de modelo desconocido: %q", c.TipoModelo)}
	}
	if c.TasaAprendizaje <= 0 {
		return &RequestError{Message: "La tasa de aprendizaje debe ser positiva"}
	}
	if c.Epocas < 1 || c.TamanoLote < 1 {
		return &RequestError{Message: "Las épocas y el tamaño de lote deben ser al menos 1"}
	}
	if c.ValidacionSplit <= 0 || c.ValidacionSplit >= 1 {
		return &RequestError{Message: "La fracción de validación debe estar entre 0 y 1"}
	}
	return nil
}

// CleaningOptions is the body of POST /api/datasets/{id}/limpiar. Each flag
// enables one cleaning step.
type CleaningOptions struct {
	EliminarNulos        bool `json:"eliminar_nulos"`
	EliminarDuplicados   bool `json:"eliminar_duplicados"`
	Normalizar           bool `json:"normalizar"`
	CodificarCategoricas bool `json:"codificar_categoricas"`
	DetectarOutliers     bool `json:"detectar_outliers"`
}

// CleaningStats summarises what a cleaning run removed.
type CleaningStats struct {
	FilasOriginales           int            `json:"filas_originales"`
	FilasLimpias              int            `json:"filas_limpias"`
	FilasEliminadas           int            `json:"filas_eliminadas"`
	PorcentajeDatosEliminados float64        `json:"porcentaje_datos_eliminados"`
	NulosPorColumna           map[string]int `json:"nulos_por_columna,omitempty"`
	TotalNulos                int            `json:"total_nulos"`
	DuplicadosDetectados      int            `json:"duplicados_detectados"`
	ColumnasEliminadas        []string       `json:"columnas_eliminadas,omitempty"`
	NulosEliminados           int            `json:"nulos_eliminados"`
	DuplicadosEliminados      int            `json:"duplicados_eliminados"`
}

// CleaningResult describes the cleaned dataset the backend registered.
type CleaningResult struct {
	Mensaje          string        `json:"mensaje"`
	DatasetLimpioID  string        `json:"dataset_limpio_id"`
	FilasResultantes int           `json:"filas_resultantes"`
	ArchivoURL       string        `json:"archivo_url"`
	Estadisticas     CleaningStats `json:"estadisticas"`
}
