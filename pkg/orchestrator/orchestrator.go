package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/goliatone/go-tasador/pkg/api"
	"github.com/goliatone/go-tasador/pkg/model"
	"github.com/goliatone/go-tasador/pkg/predict"
	"github.com/goliatone/go-tasador/pkg/preview"
	"github.com/goliatone/go-tasador/pkg/report"
	"github.com/goliatone/go-tasador/pkg/schema"
)

// ErrModelNotReady is returned when a model exists but has not finished
// training.
var ErrModelNotReady = errors.New("orchestrator: model is not trained")

// Backend is the subset of the API client the orchestrator drives.
// *api.Client satisfies it.
type Backend interface {
	predict.ExperimentSource
	predict.Predictor
	preview.PageSource
	Experiment(ctx context.Context, id string) (api.Experiment, error)
	Datasets(ctx context.Context) ([]api.Dataset, error)
	Columns(ctx context.Context, datasetID string) ([]api.ColumnStat, error)
	Train(ctx context.Context, cfg api.TrainingConfig) (api.Experiment, error)
	CleanDataset(ctx context.Context, datasetID string, opts api.CleaningOptions) (api.CleaningResult, error)
	DeleteExperiment(ctx context.Context, id string) error
}

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithBackend injects a backend client, bypassing WithBaseURL and the
// transport options.
func WithBackend(backend Backend) Option {
	return func(o *Orchestrator) {
		o.backend = backend
	}
}

// WithBaseURL sets the backend root used when no Backend is injected.
func WithBaseURL(baseURL string) Option {
	return func(o *Orchestrator) {
		o.baseURL = baseURL
	}
}

// WithTimeout bounds each backend request.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.clientOptions = append(o.clientOptions, api.WithTimeout(timeout))
	}
}

// WithJobTimeout bounds training and cleaning requests.
func WithJobTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.clientOptions = append(o.clientOptions, api.WithJobTimeout(timeout))
	}
}

// WithRateLimit throttles outbound requests.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(o *Orchestrator) {
		o.clientOptions = append(o.clientOptions, api.WithRateLimit(perSecond, burst))
	}
}

// WithModelBuilder injects a custom form model builder.
func WithModelBuilder(builder model.Builder) Option {
	return func(o *Orchestrator) {
		o.builder = builder
	}
}

// WithUIDecorators registers decorators that run against every form model
// after it is built, including the forms a Session selects.
func WithUIDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		if len(decorators) == 0 {
			return
		}
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithReportRenderer injects the renderer used by Report.
func WithReportRenderer(renderer *report.Renderer) Option {
	return func(o *Orchestrator) {
		o.reports = renderer
	}
}

// WithReportTheme picks the theme used by the default report renderer.
func WithReportTheme(name, variant string) Option {
	return func(o *Orchestrator) {
		o.themeName = name
		o.themeVariant = variant
	}
}

// WithReportTemplates loads report templates from dir ahead of the
// embedded ones.
func WithReportTemplates(dir string) Option {
	return func(o *Orchestrator) {
		o.templateDir = dir
	}
}

// WithPreviewCache shares a page cache between paginators. Pass nil to
// disable caching.
func WithPreviewCache(cache *preview.Cache) Option {
	return func(o *Orchestrator) {
		o.cache = cache
		o.cacheSpecified = true
	}
}

// WithLogger attaches a structured logger that is handed down to every
// component the orchestrator creates.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the client-side flow: list models, infer a form,
// submit predictions, page through datasets and render reports. Missing
// dependencies are initialised with the built-in implementations.
type Orchestrator struct {
	backend        Backend
	baseURL        string
	clientOptions  []api.Option
	builder        model.Builder
	decorators     []model.Decorator
	reports        *report.Renderer
	themeName      string
	themeVariant   string
	templateDir    string
	cache          *preview.Cache
	cacheSpecified bool
	logger         *zap.Logger
	initialiseErr  error
}

// New constructs an Orchestrator applying any provided options. Construction
// errors (bad base URL, unknown theme) surface from the first call that needs
// the failing component.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		baseURL: api.DefaultBaseURL,
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Err reports the first construction error, if any.
func (o *Orchestrator) Err() error {
	return o.initialiseErr
}

// Backend exposes the client in use.
func (o *Orchestrator) Backend() Backend {
	return o.backend
}

// Models lists the models that can serve predictions.
func (o *Orchestrator) Models(ctx context.Context) ([]api.Experiment, error) {
	if err := o.ready(ctx); err != nil {
		return nil, err
	}
	list, err := o.backend.CompletedExperiments(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: list models: %w", err)
	}
	return list, nil
}

// Datasets lists the datasets known to the backend.
func (o *Orchestrator) Datasets(ctx context.Context) ([]api.Dataset, error) {
	if err := o.ready(ctx); err != nil {
		return nil, err
	}
	list, err := o.backend.Datasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: list datasets: %w", err)
	}
	return list, nil
}

// Columns returns per-column statistics for a dataset.
func (o *Orchestrator) Columns(ctx context.Context, datasetID string) ([]api.ColumnStat, error) {
	if err := o.ready(ctx); err != nil {
		return nil, err
	}
	stats, err := o.backend.Columns(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: dataset columns: %w", err)
	}
	return stats, nil
}

// Train starts a training run on a dataset and waits for the backend to
// finish it.
func (o *Orchestrator) Train(ctx context.Context, cfg api.TrainingConfig) (api.Experiment, error) {
	if err := o.ready(ctx); err != nil {
		return api.Experiment{}, err
	}
	o.logger.Info("training started",
		zap.String("dataset_id", cfg.DatasetID),
		zap.String("model_type", cfg.TipoModelo),
		zap.Int("inputs", len(cfg.ColumnasEntrada)),
	)
	exp, err := o.backend.Train(ctx, cfg)
	if err != nil {
		return api.Experiment{}, fmt.Errorf("orchestrator: train: %w", err)
	}
	o.logger.Info("training finished",
		zap.String("experiment_id", exp.ID),
		zap.String("estado", exp.Estado),
	)
	return exp, nil
}

// Clean applies cleaning steps to a dataset. The backend registers the
// cleaned copy as a new dataset.
func (o *Orchestrator) Clean(ctx context.Context, datasetID string, opts api.CleaningOptions) (api.CleaningResult, error) {
	if err := o.ready(ctx); err != nil {
		return api.CleaningResult{}, err
	}
	result, err := o.backend.CleanDataset(ctx, datasetID, opts)
	if err != nil {
		return api.CleaningResult{}, fmt.Errorf("orchestrator: clean dataset: %w", err)
	}
	o.logger.Info("dataset cleaned",
		zap.String("dataset_id", datasetID),
		zap.String("cleaned_id", result.DatasetLimpioID),
		zap.Int("rows", result.FilasResultantes),
	)
	return result, nil
}

// Results fetches an experiment with its metrics, whatever its state.
func (o *Orchestrator) Results(ctx context.Context, experimentID string) (api.Experiment, error) {
	if err := o.ready(ctx); err != nil {
		return api.Experiment{}, err
	}
	exp, err := o.backend.Experiment(ctx, experimentID)
	if err != nil {
		return api.Experiment{}, fmt.Errorf("orchestrator: load results %q: %w", experimentID, err)
	}
	return exp, nil
}

// DeleteModel removes an experiment and its trained model.
func (o *Orchestrator) DeleteModel(ctx context.Context, experimentID string) error {
	if err := o.ready(ctx); err != nil {
		return err
	}
	if err := o.backend.DeleteExperiment(ctx, experimentID); err != nil {
		return fmt.Errorf("orchestrator: delete model %q: %w", experimentID, err)
	}
	o.logger.Info("model deleted", zap.String("experiment_id", experimentID))
	return nil
}

// Form fetches a trained model and infers its input form.
func (o *Orchestrator) Form(ctx context.Context, experimentID string) (model.FormModel, error) {
	if err := o.ready(ctx); err != nil {
		return model.FormModel{}, err
	}
	if experimentID == "" {
		return model.FormModel{}, errors.New("orchestrator: model id is required")
	}

	exp, err := o.backend.Experiment(ctx, experimentID)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("orchestrator: load model %q: %w", experimentID, err)
	}
	if !exp.Completed() {
		return model.FormModel{}, fmt.Errorf("%w: %q is %s", ErrModelNotReady, experimentID, exp.Estado)
	}

	form, err := o.FormBuilder().Build(exp)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("orchestrator: build form model: %w", err)
	}
	return form, nil
}

// Schema describes the prediction request of a model as an OpenAPI document.
func (o *Orchestrator) Schema(ctx context.Context, experimentID string) (*openapi3.T, error) {
	form, err := o.Form(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	doc, err := schema.Document(form)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build schema: %w", err)
	}
	return doc, nil
}

// FormBuilder returns the builder with the registered decorators applied.
func (o *Orchestrator) FormBuilder() model.Builder {
	if len(o.decorators) == 0 {
		return o.builder
	}
	return decoratedBuilder{base: o.builder, decorators: o.decorators}
}

// NewSession starts a prediction session bound to the backend. Extra options
// are applied after the orchestrator defaults.
func (o *Orchestrator) NewSession(options ...predict.Option) *predict.Session {
	base := []predict.Option{
		predict.WithBuilder(o.FormBuilder()),
		predict.WithLogger(o.logger.Named("predict")),
	}
	return predict.NewSession(o.backend, o.backend, append(base, options...)...)
}

// Request describes a one-shot prediction.
type Request struct {
	// ExperimentID selects the trained model.
	ExperimentID string

	// Values holds raw input per column. Every column of the model must be
	// present and non-empty.
	Values map[string]string
}

// Predict selects the model, fills the form and submits it. The returned
// session holds the final state, including validation or backend errors.
func (o *Orchestrator) Predict(ctx context.Context, req Request) (*predict.Session, *api.PredictionResult, error) {
	if err := o.ready(ctx); err != nil {
		return nil, nil, err
	}
	session := o.NewSession()
	if err := session.SelectModel(ctx, req.ExperimentID); err != nil {
		return session, nil, err
	}
	if err := session.SetFields(req.Values); err != nil {
		return session, nil, err
	}
	result, err := session.Submit(ctx)
	if err != nil {
		return session, nil, err
	}
	return session, result, nil
}

// Paginator opens a paged preview of a dataset that shares the orchestrator
// page cache.
func (o *Orchestrator) Paginator(datasetID string) (*preview.Paginator, error) {
	if err := o.initialiseErr; err != nil {
		return nil, err
	}
	return preview.NewPaginator(o.backend, datasetID,
		preview.WithCache(o.cache),
		preview.WithLogger(o.logger.Named("preview")),
	)
}

// Report renders the result held by a session.
func (o *Orchestrator) Report(format report.Format, session *predict.Session, out ...io.Writer) (string, error) {
	if err := o.initialiseErr; err != nil {
		return "", err
	}
	if session == nil {
		return "", errors.New("orchestrator: session is required")
	}
	form, ok := session.Form()
	if !ok {
		return "", predict.ErrNoModel
	}
	output, err := o.reports.Render(format, report.Input{
		Form:   form,
		Values: session.Values(),
		Result: session.Result(),
	}, out...)
	if err != nil {
		return "", fmt.Errorf("orchestrator: render report: %w", err)
	}
	return output, nil
}

func (o *Orchestrator) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.initialiseErr
}

func (o *Orchestrator) applyDefaults() {
	if o.builder == nil {
		o.builder = model.NewBuilder()
	}
	if o.backend == nil {
		options := append([]api.Option{api.WithLogger(o.logger.Named("api"))}, o.clientOptions...)
		client, err := api.New(o.baseURL, options...)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: api client: %w", err)
			return
		}
		o.backend = client
	}
	if o.reports == nil {
		renderer, err := report.New(
			report.WithTheme(o.themeName, o.themeVariant),
			report.WithTemplateDir(o.templateDir),
		)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: report renderer: %w", err)
			return
		}
		o.reports = renderer
	}
	if o.cache == nil && !o.cacheSpecified {
		cache, err := preview.NewCache(preview.DefaultCacheSize)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: preview cache: %w", err)
			return
		}
		o.cache = cache
	}
}

type decoratedBuilder struct {
	base       model.Builder
	decorators []model.Decorator
}

func (b decoratedBuilder) Build(exp api.Experiment) (model.FormModel, error) {
	form, err := b.base.Build(exp)
	if err != nil {
		return model.FormModel{}, err
	}
	for _, decorator := range b.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&form); err != nil {
			return model.FormModel{}, fmt.Errorf("decorate form: %w", err)
		}
	}
	return form, nil
}
