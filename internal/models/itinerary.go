package models

import (
	"strconv"
	"strings"
	"time"
)

type Airline struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Endpoint struct {
	Airport string    `json:"airport"`
	Time    time.Time `json:"time"`
}

type Leg struct {
	Airline      Airline  `json:"airline"`
	FlightNumber string   `json:"flight_number"`
	Departure    Endpoint `json:"departure"`
	Arrival      Endpoint `json:"arrival"`
	Airplane     string   `json:"airplane,omitempty"`
}

type Layover struct {
	Airport   string `json:"airport"`
	Minutes   int    `json:"duration_minutes"`
	Overnight bool   `json:"overnight,omitempty"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Itinerary is one flight offering as returned by the provider for a
// single search request. Round trips carry both outbound and return legs;
// one-way itineraries leave the return slices empty. RequestKey tags the
// search request that produced the record.
type Itinerary struct {
	Outbound        []Leg     `json:"outbound"`
	Return          []Leg     `json:"return,omitempty"`
	Layovers        []Layover `json:"layovers,omitempty"`
	ReturnLayovers  []Layover `json:"return_layovers,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           Price     `json:"price"`
	EmissionsKg     *float64  `json:"emissions_kg,omitempty"`
	BookingToken    string    `json:"booking_token,omitempty"`
	RequestKey      string    `json:"request_key"`
}

// Stops counts layovers on the outbound leg chain.
func (it Itinerary) Stops() int {
	if len(it.Outbound) == 0 {
		return 0
	}
	return len(it.Outbound) - 1
}

// ReturnStops counts layovers on the return leg chain, or 0 for one-way.
func (it Itinerary) ReturnStops() int {
	if len(it.Return) == 0 {
		return 0
	}
	return len(it.Return) - 1
}

// Departs returns the departure time of the first outbound leg.
func (it Itinerary) Departs() time.Time {
	if len(it.Outbound) == 0 {
		return time.Time{}
	}
	return it.Outbound[0].Departure.Time
}

// Arrives returns the arrival time of the last outbound leg.
func (it Itinerary) Arrives() time.Time {
	if len(it.Outbound) == 0 {
		return time.Time{}
	}
	return it.Outbound[len(it.Outbound)-1].Arrival.Time
}

// FlightNumbers joins the flight numbers of all legs, outbound then
// return, into a single stable string. Used for deduplication and export.
func (it Itinerary) FlightNumbers() string {
	var nums []string
	for _, leg := range it.Outbound {
		nums = append(nums, leg.FlightNumber)
	}
	for _, leg := range it.Return {
		nums = append(nums, leg.FlightNumber)
	}
	return strings.Join(nums, " / ")
}

// DedupKey identifies an itinerary across overlapping search requests:
// same flight numbers, same dates, same price means the same offering.
func (it Itinerary) DedupKey() string {
	var b strings.Builder
	b.WriteString(it.FlightNumbers())
	b.WriteByte('|')
	for _, leg := range it.Outbound {
		b.WriteString(leg.Departure.Time.Format(dateLayout))
		b.WriteByte(',')
	}
	for _, leg := range it.Return {
		b.WriteString(leg.Departure.Time.Format(dateLayout))
		b.WriteByte(',')
	}
	b.WriteByte('|')
	b.WriteString(it.Price.Currency)
	b.WriteString(formatAmount(it.Price.Amount))
	return b.String()
}

// Airlines lists the distinct airline names across all legs, in leg order.
func (it Itinerary) Airlines() []string {
	seen := make(map[string]bool)
	var names []string
	for _, leg := range append(append([]Leg{}, it.Outbound...), it.Return...) {
		if leg.Airline.Name != "" && !seen[leg.Airline.Name] {
			seen[leg.Airline.Name] = true
			names = append(names, leg.Airline.Name)
		}
	}
	return names
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// RankedResult is an itinerary with its assigned sort position. The
// exporter consumes only this form.
type RankedResult struct {
	Itinerary
	SortKey float64 `json:"sort_key"`
	Rank    int     `json:"rank"`
}
