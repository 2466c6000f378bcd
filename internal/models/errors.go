package models

import "errors"

// Error taxonomy crossing the orchestrator boundary. Every upstream failure
// is wrapped into one of these before it reaches the API layer.
var (
	// ErrDomainNotConfigured means the request named a domain with no
	// registered index or persona. Caller error, surfaced as 400.
	ErrDomainNotConfigured = errors.New("domain not configured")

	// ErrRetrievalUnavailable means the embedding call or the vector index
	// lookup failed. Surfaced as 502, safe to retry with backoff.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationFailed means the completion call errored or timed out.
	// Surfaced as 502 (504 when caused by a deadline).
	ErrGenerationFailed = errors.New("generation failed")
)
