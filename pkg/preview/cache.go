package preview

import (
	"fmt"
	"maps"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/goliatone/go-tasador/pkg/api"
)

// DefaultCacheSize bounds the number of pages kept in memory.
const DefaultCacheSize = 32

type pageKey struct {
	dataset string
	page    int
}

// Cache stores fetched preview pages keyed by dataset and page number. A
// single Cache can back several paginators.
type Cache struct {
	pages *lru.Cache[pageKey, api.PreviewPage]
}

// NewCache builds a cache holding at most size pages.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	pages, err := lru.New[pageKey, api.PreviewPage](size)
	if err != nil {
		return nil, fmt.Errorf("preview: create cache: %w", err)
	}
	return &Cache{pages: pages}, nil
}

// Get returns a copy of the cached page, if present.
func (c *Cache) Get(dataset string, page int) (api.PreviewPage, bool) {
	if c == nil {
		return api.PreviewPage{}, false
	}
	cached, ok := c.pages.Get(pageKey{dataset: dataset, page: page})
	if !ok {
		return api.PreviewPage{}, false
	}
	return clonePage(cached), true
}

// Add stores a copy of the page. Later changes to value's rows do not
// reach the cache.
func (c *Cache) Add(dataset string, page int, value api.PreviewPage) {
	if c == nil {
		return
	}
	c.pages.Add(pageKey{dataset: dataset, page: page}, clonePage(value))
}

// Purge drops every page of the dataset.
func (c *Cache) Purge(dataset string) {
	if c == nil {
		return
	}
	for _, key := range c.pages.Keys() {
		if key.dataset == dataset {
			c.pages.Remove(key)
		}
	}
}

// Len reports how many pages are cached.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.pages.Len()
}

func clonePage(page api.PreviewPage) api.PreviewPage {
	if page.Rows == nil {
		return page
	}
	rows := make([]api.Row, len(page.Rows))
	for i, row := range page.Rows {
		rows[i] = maps.Clone(row)
	}
	page.Rows = rows
	return page
}
