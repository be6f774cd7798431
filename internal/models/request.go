package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

const dateLayout = "2006-01-02"

// SearchRequest is one fully concrete provider query: a single airport
// pair and a single date pair. No sets or ranges remain at this level.
// IncludeAirlines pins the provider search to the given carrier codes; it
// is only set on the targeted supplementary requests that keep preferred
// airlines from being paginated out of the main response.
type SearchRequest struct {
	Origin          string     `json:"origin"`
	Destination     string     `json:"destination"`
	DepartureDate   time.Time  `json:"departure_date"`
	ReturnDate      *time.Time `json:"return_date,omitempty"`
	Passengers      Passengers `json:"passengers"`
	IncludeAirlines []string   `json:"include_airlines,omitempty"`
}

// Key returns the content hash that identifies this request for caching.
// It is computed over a canonical fixed-field encoding, so two requests
// with the same concrete fields always share a key.
func (r SearchRequest) Key() string {
	canonical := struct {
		Origin          string   `json:"origin"`
		Destination     string   `json:"destination"`
		DepartureDate   string   `json:"departure_date"`
		ReturnDate      string   `json:"return_date"`
		Adults          int      `json:"adults"`
		ChildAges       []int    `json:"child_ages"`
		IncludeAirlines []string `json:"include_airlines"`
	}{
		Origin:          r.Origin,
		Destination:     r.Destination,
		DepartureDate:   r.DepartureDate.Format(dateLayout),
		Adults:          r.Passengers.Adults,
		ChildAges:       r.Passengers.ChildAges,
		IncludeAirlines: r.IncludeAirlines,
	}
	if r.ReturnDate != nil {
		canonical.ReturnDate = r.ReturnDate.Format(dateLayout)
	}

	data, _ := json.Marshal(canonical)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Route is a human-readable label for logs and diagnostics.
func (r SearchRequest) Route() string {
	s := r.Origin + "->" + r.Destination + " " + r.DepartureDate.Format(dateLayout)
	if r.ReturnDate != nil {
		s += " / " + r.ReturnDate.Format(dateLayout)
	}
	return s
}

// RoundTrip reports whether the request carries a return date.
func (r SearchRequest) RoundTrip() bool {
	return r.ReturnDate != nil
}
