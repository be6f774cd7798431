// Package provider defines the flight-data collaborator: the external
// service that answers one concrete search request with a list of raw
// itineraries.
package provider

import (
	"context"
	"time"

	"github.com/dharmasatrya/flightagent/internal/models"
)

// Response is the normalized payload for one search request. It is what
// the response cache stores and what the filter engine consumes. Calls is
// the number of upstream HTTP calls it took to assemble the response;
// round-trip searches make follow-up calls for return-leg details, and
// each one counts against the monthly quota.
type Response struct {
	RequestKey  string             `json:"request_key"`
	Itineraries []models.Itinerary `json:"itineraries"`
	FetchedAt   time.Time          `json:"fetched_at"`
	Calls       int                `json:"calls"`
}

type Provider interface {
	Name() string
	Search(ctx context.Context, req models.SearchRequest) (Response, error)
}
