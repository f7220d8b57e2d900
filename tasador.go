// Package tasador is the top-level entry point for the property price
// prediction client. It re-exports the orchestrator so callers can start with
// a single import.
package tasador

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-tasador/pkg/api"
	"github.com/goliatone/go-tasador/pkg/model"
	"github.com/goliatone/go-tasador/pkg/orchestrator"
	"github.com/goliatone/go-tasador/pkg/report"
)

// Experiment describes a trained (or training) model.
type Experiment = api.Experiment

// PredictionResult is the backend answer to a prediction request.
type PredictionResult = api.PredictionResult

// FormModel is the inferred input form of a model.
type FormModel = model.FormModel

// Request describes a one-shot prediction.
type Request = orchestrator.Request

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Predict submits values for a model against the backend at baseURL and
// returns the result. It is the simplest entry point for callers that only
// need the numbers.
func Predict(ctx context.Context, baseURL, experimentID string, values map[string]string, options ...orchestrator.Option) (*PredictionResult, error) {
	orch := orchestrator.New(append([]orchestrator.Option{orchestrator.WithBaseURL(baseURL)}, options...)...)
	_, result, err := orch.Predict(ctx, Request{ExperimentID: experimentID, Values: values})
	return result, err
}

// InferForm builds the form for a list of column names without contacting the
// backend.
func InferForm(experimentID string, columns []string) (FormModel, error) {
	return model.NewBuilder().Build(api.Experiment{
		ID:              experimentID,
		Estado:          api.EstadoCompletado,
		ColumnasEntrada: columns,
	})
}

// EmbeddedTemplates exposes the built-in report templates so callers can
// reuse or extend them.
func EmbeddedTemplates() fs.FS {
	return report.TemplatesFS()
}
