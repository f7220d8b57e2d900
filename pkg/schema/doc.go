// Package schema describes the prediction request of a model as an OpenAPI
// 3 document, so external tools can validate payloads or generate clients
// for one trained model.
package schema
