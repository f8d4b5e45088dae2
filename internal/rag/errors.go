package rag

import "errors"

// Sentinel errors for the query pipeline, checkable with errors.Is().
//
// Only ErrEmptyQuery and ErrInvalidViewType are caller-input errors; the
// rest are internal conditions the orchestrator degrades around.
var (
	// ErrEmptyQuery indicates a blank query. Rejected at the boundary.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrInvalidViewType indicates a view_type outside {provider, patient}.
	ErrInvalidViewType = errors.New("invalid view type")

	// ErrGenerationTimeout indicates the generator exhausted its request
	// timeout.
	ErrGenerationTimeout = errors.New("answer generation timed out")

	// ErrGenerationFailure indicates the generator failed after bounded
	// retries.
	ErrGenerationFailure = errors.New("answer generation failed")
)
