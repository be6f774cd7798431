package models

// SearchMetadata summarizes one pipeline run for callers: how many
// provider requests were planned, how many were served from cache, how
// many failed, and what survived filtering.
type SearchMetadata struct {
	RunID             string   `json:"run_id"`
	Combinations      int      `json:"combinations"`
	RequestsAttempted int      `json:"requests_attempted"`
	CacheHits         int      `json:"cache_hits"`
	ProviderCalls     int      `json:"provider_calls"`
	RequestsFailed    int      `json:"requests_failed"`
	FailedRequests    []string `json:"failed_requests,omitempty"`
	MonthlyUsage      int      `json:"monthly_usage"`
	MonthlyLimit      int      `json:"monthly_limit"`
	TotalResults      int      `json:"total_results"`
	SearchTimeMs      int64    `json:"search_time_ms"`
}

type SearchResponse struct {
	Query    TripQuery      `json:"query"`
	Metadata SearchMetadata `json:"metadata"`
	Results  []RankedResult `json:"results"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
