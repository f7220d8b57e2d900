package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-tasador/pkg/api"
)

var (
	// ErrPageOutOfRange is returned when a page outside [1, Total] is
	// requested. No request is issued.
	ErrPageOutOfRange = errors.New("preview: page out of range")
	// ErrStale is returned when a newer load superseded this one.
	ErrStale = errors.New("preview: superseded by a newer load")
)

// PageSource fetches one preview page. *api.Client satisfies it.
type PageSource interface {
	Preview(ctx context.Context, datasetID string, page int) (api.PreviewPage, error)
}

// State is a snapshot of the paginator.
type State struct {
	Current   int
	Total     int
	TotalRows int
	Loading   bool
}

// Option configures a Paginator.
type Option func(*Paginator)

// WithCache shares a page cache between paginators.
func WithCache(cache *Cache) Option {
	return func(p *Paginator) {
		if cache != nil {
			p.cache = cache
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Paginator) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Paginator walks the preview pages of one dataset.
type Paginator struct {
	source    PageSource
	datasetID string
	cache     *Cache
	logger    *zap.Logger

	mu         sync.Mutex
	state      State
	loaded     bool
	generation uint64
}

// NewPaginator creates a paginator for datasetID. Without WithCache a
// private cache of DefaultCacheSize pages is used.
func NewPaginator(source PageSource, datasetID string, options ...Option) (*Paginator, error) {
	if source == nil {
		return nil, errors.New("preview: page source is required")
	}
	datasetID = strings.TrimSpace(datasetID)
	if datasetID == "" {
		return nil, errors.New("preview: dataset id is required")
	}

	p := &Paginator{
		source:    source,
		datasetID: datasetID,
		logger:    zap.NewNop(),
		state:     State{Current: 1, Total: 1},
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	if p.cache == nil {
		cache, err := NewCache(DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}
	return p, nil
}

// DatasetID returns the dataset being paged.
func (p *Paginator) DatasetID() string {
	return p.datasetID
}

// State returns a snapshot of the current position and totals.
func (p *Paginator) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Load fetches page and moves the paginator there. Before the first load
// only pages below 1 are rejected; afterwards the bound is the total
// reported by the backend.
func (p *Paginator) Load(ctx context.Context, page int) (api.PreviewPage, error) {
	p.mu.Lock()
	if page < 1 || (p.loaded && page > p.state.Total) {
		total := p.state.Total
		p.mu.Unlock()
		return api.PreviewPage{}, fmt.Errorf("%w: %d not in [1, %d]", ErrPageOutOfRange, page, total)
	}

	if cached, ok := p.cache.Get(p.datasetID, page); ok {
		p.generation++
		p.apply(cached, page)
		p.mu.Unlock()
		p.logger.Debug("preview page served from cache",
			zap.String("dataset_id", p.datasetID),
			zap.Int("page", page),
		)
		return cached, nil
	}

	p.generation++
	gen := p.generation
	p.state.Loading = true
	p.mu.Unlock()

	result, err := p.source.Preview(ctx, p.datasetID, page)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return api.PreviewPage{}, ErrStale
	}
	p.state.Loading = false
	if err != nil {
		p.logger.Warn("preview load failed",
			zap.String("dataset_id", p.datasetID),
			zap.Int("page", page),
			zap.Error(err),
		)
		return api.PreviewPage{}, fmt.Errorf("preview: load page %d: %w", page, err)
	}

	p.apply(result, page)
	p.cache.Add(p.datasetID, p.state.Current, result)
	return result, nil
}

// First loads page 1.
func (p *Paginator) First(ctx context.Context) (api.PreviewPage, error) {
	return p.Load(ctx, 1)
}

// Prev loads the page before the current one.
func (p *Paginator) Prev(ctx context.Context) (api.PreviewPage, error) {
	return p.Load(ctx, p.State().Current-1)
}

// Next loads the page after the current one.
func (p *Paginator) Next(ctx context.Context) (api.PreviewPage, error) {
	return p.Load(ctx, p.State().Current+1)
}

// Last loads the final page.
func (p *Paginator) Last(ctx context.Context) (api.PreviewPage, error) {
	return p.Load(ctx, p.State().Total)
}

// CanPrev reports whether a previous page exists.
func (p *Paginator) CanPrev() bool {
	s := p.State()
	return !s.Loading && s.Current > 1
}

// CanNext reports whether a following page exists.
func (p *Paginator) CanNext() bool {
	s := p.State()
	return !s.Loading && s.Current < s.Total
}

// Invalidate forgets cached pages for this dataset, for example after the
// dataset was cleaned.
func (p *Paginator) Invalidate() {
	p.cache.Purge(p.datasetID)
}

// apply copies the backend's view of the position. Missing values fall back
// to the requested page and a single page, as the backend omits them on
// empty datasets. Callers hold p.mu.
func (p *Paginator) apply(page api.PreviewPage, requested int) {
	current := page.PaginaActual
	if current < 1 {
		current = requested
	}
	total := page.TotalPaginas
	if total < 1 {
		total = 1
	}
	p.state = State{
		Current:   current,
		Total:     total,
		TotalRows: page.TotalFilas,
	}
	p.loaded = true
}
