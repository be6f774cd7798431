// Package pipeline wires the full run: parse, expand, fetch, filter,
// rank. Both the CLI and the HTTP surface drive this one path.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dharmasatrya/flightagent/internal/expand"
	"github.com/dharmasatrya/flightagent/internal/fetch"
	"github.com/dharmasatrya/flightagent/internal/filter"
	"github.com/dharmasatrya/flightagent/internal/models"
	"github.com/dharmasatrya/flightagent/internal/parser"
)

type Pipeline struct {
	Parser          parser.Parser
	Orchestrator    *fetch.Orchestrator
	MaxCombinations int
	MonthlyLimit    int
}

// Outcome is one completed run. An empty Results slice with a nil error
// means no flights matched, which is a valid terminal state.
type Outcome struct {
	Query    models.TripQuery
	Results  []models.RankedResult
	Metadata models.SearchMetadata
}

// Run executes the pipeline for one raw query text. Parse failures and
// combination-limit overruns abort the run; individual provider failures
// degrade to partial results recorded in the metadata.
func (p *Pipeline) Run(ctx context.Context, rawText string) (*Outcome, error) {
	started := time.Now()

	query, err := p.Parser.Parse(ctx, rawText)
	if err != nil {
		return nil, err
	}
	log.Printf("pipeline: parsed query: %s", query.Summary)

	requests, err := expand.Expand(query, p.MaxCombinations)
	if err != nil {
		return nil, err
	}
	combinations := len(requests)
	log.Printf("pipeline: %d search combination(s) planned", combinations)

	if extras := expand.AirlineSupplements(query, requests); len(extras) > 0 {
		log.Printf("pipeline: %d targeted airline search(es) added", len(extras))
		requests = append(requests, extras...)
	}

	fetched, err := p.Orchestrator.FetchAll(ctx, requests)
	if err != nil {
		return nil, err
	}

	results, err := filter.Process(fetched.Responses, query)
	if err != nil {
		return nil, err
	}

	metadata := models.SearchMetadata{
		RunID:             uuid.NewString(),
		Combinations:      combinations,
		RequestsAttempted: fetched.Stats.Attempted,
		CacheHits:         fetched.Stats.CacheHits,
		ProviderCalls:     fetched.Stats.ProviderCalls,
		RequestsFailed:    len(fetched.Failures),
		MonthlyUsage:      fetched.Stats.MonthlyUsage,
		MonthlyLimit:      p.MonthlyLimit,
		TotalResults:      len(results),
		SearchTimeMs:      time.Since(started).Milliseconds(),
	}
	for _, f := range fetched.Failures {
		metadata.FailedRequests = append(metadata.FailedRequests, f.Request.Route()+": "+f.Reason)
	}

	return &Outcome{Query: query, Results: results, Metadata: metadata}, nil
}
