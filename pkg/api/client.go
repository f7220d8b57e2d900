package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds requests when no explicit timeout is configured.
const DefaultTimeout = 30 * time.Second

// DefaultJobTimeout bounds training and cleaning requests, which the backend
// answers only once the job has finished.
const DefaultJobTimeout = 15 * time.Minute

// DefaultBaseURL is where the backend listens in development.
const DefaultBaseURL = "http://localhost:5000"

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of a failed response is read for the message.
const maxErrorBody = 64 << 10

// Client talks to the prediction backend. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	http       *http.Client
	timeout    time.Duration
	jobTimeout time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
	requestID  func() string
}

// New constructs a Client rooted at baseURL (for example
// "http://localhost:5000"). Endpoint paths are appended to it.
func New(baseURL string, options ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errors.New("api: base url is required")
	}
	base, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: unsupported scheme %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, errors.New("api: base url has no host")
	}
	base.Path = strings.TrimRight(base.Path, "/")

	c := &Client{
		base:       base,
		http:       &http.Client{},
		timeout:    DefaultTimeout,
		jobTimeout: DefaultJobTimeout,
		logger:     zap.NewNop(),
		requestID:  func() string { return uuid.NewString() },
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// BaseURL reports the configured backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Experiments lists every experiment, newest first.
func (c *Client) Experiments(ctx context.Context) ([]Experiment, error) {
	var out []Experiment
	if err := c.do(ctx, "list experiments", http.MethodGet, "/api/experimentos", nil, nil, MsgModelsUnavailable, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CompletedExperiments lists the experiments that can serve predictions.
func (c *Client) CompletedExperiments(ctx context.Context) ([]Experiment, error) {
	all, err := c.Experiments(ctx)
	if err != nil {
		return nil, err
	}
	return CompletedOnly(all), nil
}

// Experiment fetches a single experiment by id.
func (c *Client) Experiment(ctx context.Context, id string) (Experiment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Experiment{}, errors.New("api: experiment id is required")
	}
	var out Experiment
	path := "/api/experimentos/" + url.PathEscape(id)
	if err := c.do(ctx, "get experiment", http.MethodGet, path, nil, nil, MsgModelsUnavailable, &out); err != nil {
		return Experiment{}, err
	}
	return out, nil
}

// Predict submits the feature vector and returns the backend's analysis.
func (c *Client) Predict(ctx context.Context, req PredictionRequest) (*PredictionResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Op: "predict", Message: MsgPredictionFailed, Err: err}
	}
	var raw json.RawMessage
	if err := c.do(ctx, "predict", http.MethodPost, "/api/prediccion", nil, body, MsgPredictionFailed, &raw); err != nil {
		return nil, err
	}
	result := &PredictionResult{}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, &TransportError{Op: "predict", Message: MsgPredictionFailed, Err: fmt.Errorf("decode result: %w", err)}
	}
	result.Raw = raw
	return result, nil
}

// Datasets lists the registered datasets.
func (c *Client) Datasets(ctx context.Context) ([]Dataset, error) {
	var out []Dataset
	if err := c.do(ctx, "list datasets", http.MethodGet, "/api/datasets", nil, nil, MsgDatasetsFailed, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Preview fetches one page of a dataset preview. Pages are 1-based; the
// backend clamps out-of-range pages and reports the page it served.
func (c *Client) Preview(ctx context.Context, datasetID string, page int) (PreviewPage, error) {
	datasetID = strings.TrimSpace(datasetID)
	if datasetID == "" {
		return PreviewPage{}, errors.New("api: dataset id is required")
	}
	if page < 1 {
		page = 1
	}
	query := url.Values{"pagina": []string{strconv.Itoa(page)}}
	path := "/api/datasets/" + url.PathEscape(datasetID) + "/vista-previa"
	var out PreviewPage
	if err := c.do(ctx, "preview dataset", http.MethodGet, path, query, nil, MsgPreviewFailed, &out); err != nil {
		return PreviewPage{}, err
	}
	if out.PaginaActual < 1 {
		out.PaginaActual = 1
	}
	if out.TotalPaginas < 1 {
		out.TotalPaginas = 1
	}
	return out, nil
}

// Columns fetches per-column statistics for a dataset.
func (c *Client) Columns(ctx context.Context, datasetID string) ([]ColumnStat, error) {
	datasetID = strings.TrimSpace(datasetID)
	if datasetID == "" {
		return nil, errors.New("api: dataset id is required")
	}
	var out []ColumnStat
	path := "/api/datasets/" + url.PathEscape(datasetID) + "/columnas"
	if err := c.do(ctx, "dataset columns", http.MethodGet, path, nil, nil, MsgColumnsFailed, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteExperiment removes an experiment and its model. A missing experiment
// yields an error matching ErrNotFound.
func (c *Client) DeleteExperiment(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("api: experiment id is required")
	}
	path := "/api/experimentos/" + url.PathEscape(id)
	return c.do(ctx, "delete experiment", http.MethodDelete, path, nil, nil, MsgDeleteFailed, nil)
}

// Train validates cfg and starts a training run. The backend answers once
// training has finished, so the request is bounded by the job timeout rather
// than the per-request one. The returned experiment carries the final state
// and metrics.
func (c *Client) Train(ctx context.Context, cfg TrainingConfig) (Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return Experiment{}, err
	}
	body, err := json.Marshal(cfg)
	if err != nil {
		return Experiment{}, &TransportError{Op: "train", Message: MsgTrainingFailed, Err: err}
	}
	var out Experiment
	if err := c.send(ctx, c.jobTimeout, "train", http.MethodPost, "/api/entrenamientos", nil, body, MsgTrainingFailed, &out); err != nil {
		return Experiment{}, err
	}
	return out, nil
}

// CleanDataset applies the selected cleaning steps. The backend stores the
// result as a new dataset and reports its id.
func (c *Client) CleanDataset(ctx context.Context, datasetID string, opts CleaningOptions) (CleaningResult, error) {
	datasetID = strings.TrimSpace(datasetID)
	if datasetID == "" {
		return CleaningResult{}, &RequestError{Message: MsgDatasetRequired}
	}
	body, err := json.Marshal(opts)
	if err != nil {
		return CleaningResult{}, &TransportError{Op: "clean dataset", Message: MsgCleaningFailed, Err: err}
	}
	var out CleaningResult
	path := "/api/datasets/" + url.PathEscape(datasetID) + "/limpiar"
	if err := c.send(ctx, c.jobTimeout, "clean dataset", http.MethodPost, path, nil, body, MsgCleaningFailed, &out); err != nil {
		return CleaningResult{}, err
	}
	return out, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body []byte, fallback string, out any) error {
	return c.send(ctx, c.timeout, op, method, path, query, body, fallback, out)
}

func (c *Client) send(ctx context.Context, timeout time.Duration, op, method, path string, query url.Values, body []byte, fallback string, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(reqCtx); err != nil {
			return &TransportError{Op: op, Message: fallback, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.endpoint(path, query), reader)
	if err != nil {
		return &TransportError{Op: op, Message: fallback, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := c.requestID()
	req.Header.Set(RequestIDHeader, requestID)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return &TransportError{Op: op, Message: fallback, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	c.logger.Debug("request completed",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    backendMessage(resp.Body, fallback),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Message: fallback, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func backendMessage(body io.Reader, fallback string) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return fallback
	}
	var payload errorBody
	if err := json.Unmarshal(data, &payload); err != nil {
		return fallback
	}
	if msg := strings.TrimSpace(payload.Error); msg != "" {
		return msg
	}
	return fallback
}
