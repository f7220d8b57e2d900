package predict_test

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tasador/pkg/api"
	"github.com/goliatone/go-tasador/pkg/predict"
	"github.com/goliatone/go-tasador/pkg/testsupport"
)

type staticSource struct {
	experiments []api.Experiment
	calls       int
}

func (s *staticSource) CompletedExperiments(context.Context) ([]api.Experiment, error) {
	s.calls++
	return api.CompletedOnly(s.experiments), nil
}

type spyPredictor struct {
	mu       sync.Mutex
	calls    int
	requests []api.PredictionRequest
	result   *api.PredictionResult
	err      error
	before   func()
}

func (p *spyPredictor) Predict(_ context.Context, req api.PredictionRequest) (*api.PredictionResult, error) {
	p.mu.Lock()
	p.calls++
	p.requests = append(p.requests, req)
	hook := p.before
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func newSession(t *testing.T, predictor predict.Predictor) (*predict.Session, *staticSource) {
	t.Helper()
	source := &staticSource{experiments: testsupport.SampleExperiments()}
	return predict.NewSession(source, predictor), source
}

func keys(state predict.FormState) []string {
	out := make([]string, 0, len(state))
	for k := range state {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestSession_SelectModelResetsStateToModelColumns(t *testing.T) {
	session, source := newSession(t, &spyPredictor{})
	ctx := context.Background()

	if err := session.SelectModel(ctx, "exp-casas"); err != nil {
		t.Fatalf("select A: %v", err)
	}
	if err := session.SetField("zona", "2"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	if err := session.SelectModel(ctx, "exp-basico"); err != nil {
		t.Fatalf("select B: %v", err)
	}

	values := session.Values()
	if diff := cmp.Diff([]string{"area", "habitaciones"}, keys(values)); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	for column, value := range values {
		if value != "" {
			t.Fatalf("expected %s to be empty, got %q", column, value)
		}
	}
	if source.calls != 1 {
		t.Fatalf("expected experiment list to be fetched once, got %d", source.calls)
	}
	if session.Phase() != predict.PhaseEmpty {
		t.Fatalf("unexpected phase %s", session.Phase())
	}
}

func TestSession_SelectModelRejectsUnknownOrIncomplete(t *testing.T) {
	session, _ := newSession(t, &spyPredictor{})

	if err := session.SelectModel(context.Background(), "exp-pendiente"); !errors.Is(err, predict.ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel for training experiment, got %v", err)
	}
	if err := session.SelectModel(context.Background(), " "); !errors.Is(err, predict.ErrNoModel) {
		t.Fatalf("expected ErrNoModel, got %v", err)
	}
	if session.Phase() != predict.PhaseNoModel {
		t.Fatalf("unexpected phase %s", session.Phase())
	}
}

func TestSession_SetFieldRejectsUnknownColumns(t *testing.T) {
	session, _ := newSession(t, &spyPredictor{})

	if err := session.SetField("area", "1"); !errors.Is(err, predict.ErrNoModel) {
		t.Fatalf("expected ErrNoModel, got %v", err)
	}
	if err := session.SelectModel(context.Background(), "exp-basico"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := session.SetField("sotano", "1"); !errors.Is(err, predict.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	err := session.SetFields(map[string]string{"area": "90", "sotano": "1"})
	if !errors.Is(err, predict.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if session.Values()["area"] != "" {
		t.Fatalf("partial SetFields must not write values")
	}
}

func TestSession_SubmitWithEmptyFieldMakesNoNetworkCall(t *testing.T) {
	predictor := &spyPredictor{result: &api.PredictionResult{}}
	session, _ := newSession(t, predictor)
	ctx := context.Background()

	if err := session.SelectModel(ctx, "exp-casas"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := session.SetFields(map[string]string{"precio_m2": "2000", "zona": "1"}); err != nil {
		t.Fatalf("set fields: %v", err)
	}

	_, err := session.Submit(ctx)
	var verr *predict.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Message != predict.MsgAllFieldsRequired {
		t.Fatalf("unexpected message %q", verr.Message)
	}
	if diff := cmp.Diff([]string{"garaje"}, verr.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if predictor.calls != 0 {
		t.Fatalf("expected zero transport calls, got %d", predictor.calls)
	}
	if session.Phase() != predict.PhaseError || predict.DisplayMessage(session.Err()) != predict.MsgAllFieldsRequired {
		t.Fatalf("expected error phase with validation message, got %s / %v", session.Phase(), session.Err())
	}
}

func TestSession_SubmitWithoutModel(t *testing.T) {
	predictor := &spyPredictor{}
	session, _ := newSession(t, predictor)

	_, err := session.Submit(context.Background())
	var verr *predict.ValidationError
	if !errors.As(err, &verr) || verr.Message != predict.MsgModelRequired {
		t.Fatalf("expected model-required validation error, got %v", err)
	}
	if predictor.calls != 0 {
		t.Fatalf("expected zero transport calls, got %d", predictor.calls)
	}
}

func TestSession_SubmitScenario(t *testing.T) {
	backend := testsupport.NewBackend(t)
	client, err := api.New(backend.URL())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	session := predict.NewSession(client, client)
	ctx := context.Background()

	if err := session.SelectModel(ctx, "exp-casas"); err != nil {
		t.Fatalf("select: %v", err)
	}
	form, ok := session.Form()
	if !ok || len(form.Fields) != 3 {
		t.Fatalf("unexpected form %+v", form)
	}
	if err := session.SetFields(map[string]string{"precio_m2": "2000", "zona": "1", "garaje": "1"}); err != nil {
		t.Fatalf("set fields: %v", err)
	}
	if session.Phase() != predict.PhaseEditing {
		t.Fatalf("unexpected phase %s", session.Phase())
	}

	result, err := session.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.PrecioPredicho != 245678.5 || session.Result() != result {
		t.Fatalf("unexpected result %+v", result)
	}
	if session.Phase() != predict.PhaseResult || session.Err() != nil {
		t.Fatalf("unexpected phase %s / %v", session.Phase(), session.Err())
	}

	requests := backend.PredictRequests()
	want := []api.PredictionRequest{{
		ExperimentID: "exp-casas",
		Data:         map[string]float64{"precio_m2": 2000, "zona": 1, "garaje": 1},
	}}
	if diff := cmp.Diff(want, requests); diff != "" {
		t.Fatalf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_SubmitSurfacesBackendError(t *testing.T) {
	backend := testsupport.NewBackend(t)
	backend.SetPredictResponse(http.StatusNotFound, `{"error": "No se pudieron cargar los archivos del modelo"}`)
	client, err := api.New(backend.URL())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	session := predict.NewSession(client, client)
	ctx := context.Background()

	if err := session.SelectModel(ctx, "exp-basico"); err != nil {
		t.Fatalf("select: %v", err)
	}
	_ = session.SetFields(map[string]string{"area": "100", "habitaciones": "3"})

	_, err = session.Submit(ctx)
	var terr *api.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if got := predict.DisplayMessage(err); got != "No se pudieron cargar los archivos del modelo" {
		t.Fatalf("unexpected display message %q", got)
	}
	if session.Result() != nil {
		t.Fatalf("result must stay unset after failure")
	}

	// The form stays editable and resubmittable.
	backend.SetPredictResponse(http.StatusOK, testsupport.SampleResultJSON)
	if _, err := session.Submit(ctx); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if session.Err() != nil || session.Result() == nil {
		t.Fatalf("expected success after resubmit")
	}
}

func TestSession_NonTransportErrorsGetFallbackMessage(t *testing.T) {
	predictor := &spyPredictor{err: errors.New("socket closed")}
	session, _ := newSession(t, predictor)
	ctx := context.Background()

	_ = session.SelectModel(ctx, "exp-basico")
	_ = session.SetFields(map[string]string{"area": "100", "habitaciones": "3"})

	_, err := session.Submit(ctx)
	if got := predict.DisplayMessage(err); got != api.MsgPredictionFailed {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestSession_DiscardsResponseAfterSelectionChanged(t *testing.T) {
	predictor := &spyPredictor{result: &api.PredictionResult{PrecioPredicho: 1}}
	session, _ := newSession(t, predictor)
	ctx := context.Background()

	_ = session.SelectModel(ctx, "exp-basico")
	_ = session.SetFields(map[string]string{"area": "100", "habitaciones": "3"})

	predictor.before = func() {
		if err := session.SelectModel(ctx, "exp-casas"); err != nil {
			t.Errorf("reselect: %v", err)
		}
	}

	_, err := session.Submit(ctx)
	if !errors.Is(err, predict.ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	if session.Result() != nil {
		t.Fatalf("stale result must not be stored")
	}
	form, _ := session.Form()
	if form.ExperimentID != "exp-casas" {
		t.Fatalf("expected new selection to remain, got %q", form.ExperimentID)
	}
}

func TestSession_RejectsConcurrentSubmit(t *testing.T) {
	predictor := &spyPredictor{result: &api.PredictionResult{}}
	session, _ := newSession(t, predictor)
	ctx := context.Background()

	_ = session.SelectModel(ctx, "exp-basico")
	_ = session.SetFields(map[string]string{"area": "100", "habitaciones": "3"})

	var nested error
	predictor.before = func() {
		if session.Phase() != predict.PhaseSubmitting {
			t.Errorf("expected submitting phase, got %s", session.Phase())
		}
		_, nested = session.Submit(ctx)
	}
	if _, err := session.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !errors.Is(nested, predict.ErrSubmitting) {
		t.Fatalf("expected ErrSubmitting, got %v", nested)
	}
	if predictor.calls != 1 {
		t.Fatalf("expected a single transport call, got %d", predictor.calls)
	}
}

func TestSession_ResetClearsValuesResultAndError(t *testing.T) {
	predictor := &spyPredictor{result: &api.PredictionResult{PrecioPredicho: 10}}
	session, source := newSession(t, predictor)
	ctx := context.Background()

	_ = session.SelectModel(ctx, "exp-basico")
	_ = session.SetFields(map[string]string{"area": "100", "habitaciones": "3"})
	if _, err := session.Submit(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	session.Reset()

	if diff := cmp.Diff(predict.FormState{"area": "", "habitaciones": ""}, session.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if session.Result() != nil || session.Err() != nil {
		t.Fatalf("expected result and error cleared")
	}
	if session.Phase() != predict.PhaseEmpty {
		t.Fatalf("unexpected phase %s", session.Phase())
	}
	if source.calls != 1 {
		t.Fatalf("reset must not refetch metadata, got %d fetches", source.calls)
	}
}

func TestSession_WithExperimentsSkipsFetch(t *testing.T) {
	session := predict.NewSession(nil, &spyPredictor{}, predict.WithExperiments(testsupport.SampleExperiments()))
	if err := session.SelectModel(context.Background(), "exp-casas"); err != nil {
		t.Fatalf("select: %v", err)
	}
	list, err := session.Experiments(context.Background())
	if err != nil {
		t.Fatalf("experiments: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected only completed experiments, got %d", len(list))
	}
}
