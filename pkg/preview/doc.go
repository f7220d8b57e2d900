// Package preview pages through a dataset's tabular preview.
//
// A Paginator tracks the current page and the totals reported by the backend,
// serving repeated visits from a bounded LRU cache. Filter narrows a loaded
// page to the rows where any cell contains a query, ignoring case.
package preview
