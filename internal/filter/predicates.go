package filter

import (
	"fmt"
	"strings"

	"github.com/dharmasatrya/flightagent/internal/models"
)

// Predicate decides whether one itinerary survives a pipeline stage. A
// false result carries the reason it was rejected, so stages can be
// exercised and diagnosed independently before composition.
type Predicate func(models.Itinerary) (bool, string)

// TimeWindows enforces the query's hour-of-day bounds. The provider is
// queried per calendar date, so this stage is the only place the windows
// take effect. Legs with unparseable (zero) times pass unconstrained.
func TimeWindows(q models.TripQuery) Predicate {
	return func(it models.Itinerary) (bool, string) {
		if w := q.Departure.DepartureWindow; w != nil {
			if t := it.Departs(); !t.IsZero() && !w.Contains(t) {
				return false, fmt.Sprintf("departs %02d:00 outside window %d-%d", t.Hour(), w.StartHour, w.EndHour)
			}
		}
		if w := q.Departure.ArrivalWindow; w != nil {
			if t := it.Arrives(); !t.IsZero() && !w.Contains(t) {
				return false, fmt.Sprintf("arrives %02d:00 outside window %d-%d", t.Hour(), w.StartHour, w.EndHour)
			}
		}
		if q.Return == nil || len(it.Return) == 0 {
			return true, ""
		}
		if w := q.Return.DepartureWindow; w != nil {
			if t := it.Return[0].Departure.Time; !t.IsZero() && !w.Contains(t) {
				return false, fmt.Sprintf("return departs %02d:00 outside window %d-%d", t.Hour(), w.StartHour, w.EndHour)
			}
		}
		if w := q.Return.ArrivalWindow; w != nil {
			if t := it.Return[len(it.Return)-1].Arrival.Time; !t.IsZero() && !w.Contains(t) {
				return false, fmt.Sprintf("return arrives %02d:00 outside window %d-%d", t.Hour(), w.StartHour, w.EndHour)
			}
		}
		return true, ""
	}
}

// Airlines enforces the per-leg include/exclude sets. Include keeps an
// itinerary when at least one leg's airline is in the set; exclude drops
// it when any leg's airline is. Matching is case-insensitive against both
// the 2-char code and the full name.
func Airlines(q models.TripQuery) Predicate {
	return func(it models.Itinerary) (bool, string) {
		if ok, reason := checkLegRule(it.Outbound, q.OutboundRule, "outbound"); !ok {
			return false, reason
		}
		if len(it.Return) > 0 {
			if ok, reason := checkLegRule(it.Return, q.ReturnRule, "return"); !ok {
				return false, reason
			}
		}
		return true, ""
	}
}

func checkLegRule(legs []models.Leg, rule models.LegRule, label string) (bool, string) {
	if len(legs) == 0 {
		return true, ""
	}
	if len(rule.IncludeAirlines) > 0 {
		found := false
		for _, leg := range legs {
			if airlineIn(leg.Airline, rule.IncludeAirlines) {
				found = true
				break
			}
		}
		if !found {
			return false, label + " leg has no airline from the include set"
		}
	}
	for _, leg := range legs {
		if airlineIn(leg.Airline, rule.ExcludeAirlines) {
			return false, label + " leg operated by excluded airline " + leg.Airline.Name
		}
	}
	return true, ""
}

func airlineIn(a models.Airline, set []string) bool {
	for _, want := range set {
		if strings.EqualFold(a.Code, want) || strings.EqualFold(a.Name, want) {
			return true
		}
	}
	return false
}

// Stops enforces max stops per leg chain, excluded layover airports, and
// the single-layover duration ceiling.
func Stops(q models.TripQuery) Predicate {
	return func(it models.Itinerary) (bool, string) {
		if q.MaxStops != nil {
			if it.Stops() > *q.MaxStops {
				return false, fmt.Sprintf("outbound has %d stops, max %d", it.Stops(), *q.MaxStops)
			}
			if len(it.Return) > 0 && it.ReturnStops() > *q.MaxStops {
				return false, fmt.Sprintf("return has %d stops, max %d", it.ReturnStops(), *q.MaxStops)
			}
		}

		if ok, reason := checkLayovers(q, it.Layovers); !ok {
			return false, reason
		}
		if ok, reason := checkLayovers(q, it.ReturnLayovers); !ok {
			return false, reason
		}
		return true, ""
	}
}

func checkLayovers(q models.TripQuery, layovers []models.Layover) (bool, string) {
	for _, l := range layovers {
		for _, excluded := range q.ExcludedLayovers {
			if strings.EqualFold(l.Airport, excluded) {
				return false, "layover at excluded airport " + l.Airport
			}
		}
		if q.MaxLayoverMinutes != nil && l.Minutes > *q.MaxLayoverMinutes {
			return false, fmt.Sprintf("layover at %s is %dm, max %dm", l.Airport, l.Minutes, *q.MaxLayoverMinutes)
		}
	}
	return true, ""
}

// PriceCeiling drops itineraries above the query's price cap.
func PriceCeiling(q models.TripQuery) Predicate {
	return func(it models.Itinerary) (bool, string) {
		if q.MaxPrice != nil && it.Price.Amount > *q.MaxPrice {
			return false, fmt.Sprintf("price %.0f above ceiling %.0f", it.Price.Amount, *q.MaxPrice)
		}
		return true, ""
	}
}
