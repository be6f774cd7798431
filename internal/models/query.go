package models

import (
	"time"
)

type TripType string

const (
	TripRoundTrip TripType = "round_trip"
	TripOneWay    TripType = "one_way"
)

type SortPreference string

const (
	SortPrice         SortPreference = "price"
	SortDuration      SortPreference = "duration"
	SortDepartureTime SortPreference = "departure_time"
	SortArrivalTime   SortPreference = "arrival_time"
	SortEmissions     SortPreference = "emissions"
	SortBestValue     SortPreference = "best_value"
)

// TimeWindow restricts flights to an hour-of-day band, inclusive on both
// ends. Hours are 0-23.
type TimeWindow struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

func (w TimeWindow) Contains(t time.Time) bool {
	h := t.Hour()
	return h >= w.StartHour && h <= w.EndHour
}

// DateRange is an inclusive span of calendar dates. The optional windows
// constrain departure/arrival time of day; they are applied after fetching,
// never during date enumeration.
type DateRange struct {
	Start           time.Time   `json:"start"`
	End             time.Time   `json:"end"`
	DepartureWindow *TimeWindow `json:"departure_window,omitempty"`
	ArrivalWindow   *TimeWindow `json:"arrival_window,omitempty"`
}

// Days returns every calendar date in the range, in order.
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// LegRule holds per-leg airline constraints. Include and Exclude are
// mutually exclusive: Google Flights rejects queries carrying both, so we
// enforce the same rule at validation time.
type LegRule struct {
	IncludeAirlines []string `json:"include_airlines,omitempty"`
	ExcludeAirlines []string `json:"exclude_airlines,omitempty"`
}

type Passengers struct {
	Adults    int   `json:"adults"`
	ChildAges []int `json:"child_ages,omitempty"`
}

// TripQuery is the validated, structured form of a free-text travel
// request. It is treated as immutable once Validate has passed.
type TripQuery struct {
	Origins      []string   `json:"origins"`
	Destinations []string   `json:"destinations"`
	TripType     TripType   `json:"trip_type"`
	Departure    DateRange  `json:"departure"`
	Return       *DateRange `json:"return,omitempty"`
	Passengers   Passengers `json:"passengers"`

	OutboundRule LegRule `json:"outbound_rule"`
	ReturnRule   LegRule `json:"return_rule"`

	MaxStops          *int           `json:"max_stops,omitempty"`
	ExcludedLayovers  []string       `json:"excluded_layovers,omitempty"`
	MaxLayoverMinutes *int           `json:"max_layover_minutes,omitempty"`
	MaxPrice          *float64       `json:"max_price,omitempty"`
	SortBy            SortPreference `json:"sort_by"`
	Summary           string         `json:"summary,omitempty"`
}

func (q *TripQuery) Validate() error {
	if q.TripType == "" {
		q.TripType = TripRoundTrip
	}
	if q.SortBy == "" {
		q.SortBy = SortPrice
	}
	if q.Passengers.Adults <= 0 {
		q.Passengers.Adults = 1
	}
	if len(q.Origins) == 0 {
		return ErrNoOrigins
	}
	if len(q.Destinations) == 0 {
		return ErrNoDestinations
	}
	if q.Departure.Start.IsZero() || q.Departure.End.IsZero() {
		return ErrNoDepartureDates
	}
	if q.Departure.End.Before(q.Departure.Start) {
		return ErrInvertedDateRange
	}
	if q.TripType == TripRoundTrip {
		if q.Return == nil {
			return ErrNoReturnDates
		}
		if q.Return.End.Before(q.Return.Start) {
			return ErrInvertedDateRange
		}
	}
	for _, age := range q.Passengers.ChildAges {
		if age < 0 {
			return ErrNegativeChildAge
		}
	}
	if len(q.OutboundRule.IncludeAirlines) > 0 && len(q.OutboundRule.ExcludeAirlines) > 0 {
		return ErrConflictingAirlineRule
	}
	if len(q.ReturnRule.IncludeAirlines) > 0 && len(q.ReturnRule.ExcludeAirlines) > 0 {
		return ErrConflictingAirlineRule
	}
	return nil
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrNoOrigins              ValidationError = "at least one origin airport is required"
	ErrNoDestinations         ValidationError = "at least one destination airport is required"
	ErrNoDepartureDates       ValidationError = "departure date range is required"
	ErrNoReturnDates          ValidationError = "return date range is required for round trips"
	ErrInvertedDateRange      ValidationError = "date range end precedes its start"
	ErrNegativeChildAge       ValidationError = "child ages must be non-negative"
	ErrConflictingAirlineRule ValidationError = "include and exclude airline sets cannot both be set on one leg"
)
