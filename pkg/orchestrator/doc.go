// Package orchestrator wires the API client, form builder, prediction session,
// preview paginator and report renderer behind a single entry point so the CLI
// and library callers share one set of defaults.
package orchestrator
