package predict

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-tasador/pkg/api"
	"github.com/goliatone/go-tasador/pkg/model"
)

// ExperimentSource lists the models that can serve predictions.
type ExperimentSource interface {
	CompletedExperiments(ctx context.Context) ([]api.Experiment, error)
}

// Predictor submits a prediction request. *api.Client satisfies it.
type Predictor interface {
	Predict(ctx context.Context, req api.PredictionRequest) (*api.PredictionResult, error)
}

// Phase describes where the session is in the form lifecycle.
type Phase string

const (
	PhaseNoModel    Phase = "no-model"
	PhaseEmpty      Phase = "empty"
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
	PhaseResult     Phase = "result"
	PhaseError      Phase = "error"
)

// Option configures a Session.
type Option func(*Session)

// WithBuilder overrides the form builder (for example to apply a custom
// keyword table).
func WithBuilder(builder model.Builder) Option {
	return func(s *Session) {
		if builder != nil {
			s.builder = builder
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExperiments seeds the experiment list so SelectModel does not need to
// fetch it.
func WithExperiments(experiments []api.Experiment) Option {
	return func(s *Session) {
		s.experiments = api.CompletedOnly(experiments)
		s.loaded = true
	}
}

// Session holds the form state for one selected model at a time. Methods are
// safe to call from multiple goroutines; network calls run without holding
// the lock.
type Session struct {
	source    ExperimentSource
	predictor Predictor
	builder   model.Builder
	logger    *zap.Logger

	mu          sync.Mutex
	experiments []api.Experiment
	loaded      bool
	form        model.FormModel
	selected    bool
	values      FormState
	result      *api.PredictionResult
	err         error
	submitting  bool
	generation  uint64
}

// NewSession wires a session to its experiment source and predictor.
func NewSession(source ExperimentSource, predictor Predictor, options ...Option) *Session {
	s := &Session{
		source:    source,
		predictor: predictor,
		builder:   model.NewBuilder(),
		logger:    zap.NewNop(),
		values:    FormState{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// LoadExperiments fetches the completed experiments and caches them for
// subsequent selections.
func (s *Session) LoadExperiments(ctx context.Context) ([]api.Experiment, error) {
	if s.source == nil {
		return nil, errors.New("predict: experiment source is not configured")
	}
	list, err := s.source.CompletedExperiments(ctx)
	if err != nil {
		s.logger.Warn("load experiments failed", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.experiments = list
	s.loaded = true
	s.mu.Unlock()

	return append([]api.Experiment(nil), list...), nil
}

// Experiments returns the cached experiment list, loading it on first use.
func (s *Session) Experiments(ctx context.Context) ([]api.Experiment, error) {
	s.mu.Lock()
	if s.loaded {
		out := append([]api.Experiment(nil), s.experiments...)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()
	return s.LoadExperiments(ctx)
}

// SelectModel switches the form to the given model: one empty value per
// input column, previous result and error cleared. Selecting starts a new
// generation, so in-flight work for the previous selection is discarded.
func (s *Session) SelectModel(ctx context.Context, experimentID string) error {
	experimentID = strings.TrimSpace(experimentID)
	if experimentID == "" {
		return ErrNoModel
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	list, err := s.Experiments(ctx)
	if err != nil {
		return err
	}

	var (
		exp   api.Experiment
		found bool
	)
	for _, candidate := range list {
		if candidate.ID == experimentID {
			exp, found = candidate, true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownModel, experimentID)
	}

	form, err := s.builder.Build(exp)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return ErrStale
	}
	s.form = form
	s.selected = true
	s.values = emptyState(form)
	s.result = nil
	s.err = nil

	s.logger.Debug("model selected",
		zap.String("experiment_id", form.ExperimentID),
		zap.Int("fields", len(form.Fields)),
	)
	return nil
}

// SetField stores the raw value for a column. Values are not validated until
// submission.
func (s *Session) SetField(column, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.selected {
		return ErrNoModel
	}
	if _, ok := s.values[column]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, column)
	}
	s.values[column] = raw
	return nil
}

// SetFields applies several values at once. Nothing is written when any
// column is unknown.
func (s *Session) SetFields(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.selected {
		return ErrNoModel
	}
	for column := range values {
		if _, ok := s.values[column]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, column)
		}
	}
	for column, raw := range values {
		s.values[column] = raw
	}
	return nil
}

// Submit validates completeness, coerces the values and sends the request.
// Validation failures never reach the network. Transport failures are
// reported as *api.TransportError and leave the result unset.
func (s *Session) Submit(ctx context.Context) (*api.PredictionResult, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitting
	}
	s.result = nil
	s.err = nil

	if !s.selected {
		verr := &ValidationError{Message: MsgModelRequired}
		s.err = verr
		s.mu.Unlock()
		return nil, verr
	}
	if empty := s.values.EmptyFields(s.form.Columns()); len(empty) > 0 {
		verr := &ValidationError{Message: MsgAllFieldsRequired, Fields: empty}
		s.err = verr
		s.mu.Unlock()
		return nil, verr
	}
	if s.predictor == nil {
		s.mu.Unlock()
		return nil, errors.New("predict: predictor is not configured")
	}

	req := BuildRequest(s.form.ExperimentID, s.values)
	gen := s.generation
	s.submitting = true
	s.mu.Unlock()

	result, err := s.predictor.Predict(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false

	if gen != s.generation {
		s.logger.Debug("discarding stale prediction response", zap.String("experiment_id", req.ExperimentID))
		return nil, ErrStale
	}
	if err != nil {
		terr := asTransportError(err)
		s.err = terr
		s.logger.Warn("prediction failed",
			zap.String("experiment_id", req.ExperimentID),
			zap.String("message", terr.Message),
			zap.Error(err),
		)
		return nil, terr
	}

	s.result = result
	s.err = nil
	return result, nil
}

// Reset clears every value of the current model along with the result and
// error. Column metadata is kept; any in-flight response is discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.values = emptyState(s.form)
	s.result = nil
	s.err = nil
}

// Form returns the inferred form of the selected model.
func (s *Session) Form() (model.FormModel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form, s.selected
}

// Values returns a copy of the current form state.
func (s *Session) Values() FormState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Clone()
}

// Result returns the last successful prediction, if any.
func (s *Session) Result() *api.PredictionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Err returns the error of the last submission, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Phase reports the lifecycle phase of the session.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.selected:
		return PhaseNoModel
	case s.submitting:
		return PhaseSubmitting
	case s.err != nil:
		return PhaseError
	case s.result != nil:
		return PhaseResult
	}
	for _, v := range s.values {
		if v != "" {
			return PhaseEditing
		}
	}
	return PhaseEmpty
}

func emptyState(form model.FormModel) FormState {
	state := make(FormState, len(form.Fields))
	for _, field := range form.Fields {
		state[field.Name] = ""
	}
	return state
}

func asTransportError(err error) *api.TransportError {
	var terr *api.TransportError
	if errors.As(err, &terr) {
		return terr
	}
	return &api.TransportError{Op: "predict", Message: api.MsgPredictionFailed, Err: err}
}
