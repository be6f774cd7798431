package models

import "fmt"

// ParseError means the upstream parser could not turn the raw text into a
// usable trip query. Fatal to a run.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "query parse failed: " + e.Reason
}

// CombinationLimitError is returned when the Cartesian expansion of a trip
// query would exceed the configured ceiling. Raised before any provider
// call is made, and carries the exact count that would have been generated.
type CombinationLimitError struct {
	Count int
	Limit int
}

func (e *CombinationLimitError) Error() string {
	return fmt.Sprintf("query expands to %d search combinations, above the limit of %d", e.Count, e.Limit)
}

// ProviderError is a transport, auth, or quota failure reported by the
// flight-data provider for a single search request. Collected per request
// by the orchestrator; never aborts the batch.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code == "" {
		return "provider error: " + e.Message
	}
	return "provider error (" + e.Code + "): " + e.Message
}

func NewProviderError(code, message string) *ProviderError {
	return &ProviderError{Code: code, Message: message}
}
