// Package api is the REST client for the property price-prediction backend.
// It covers the endpoints the prediction form and the dataset preview consume:
// experiment listing, prediction submission, dataset listing, paginated
// previews, and per-column statistics. Failures surface as *TransportError so
// callers can display the backend's own message when one was returned.
package api
