// Package expand turns a validated trip query into the concrete search
// requests the provider will be asked to run.
package expand

import (
	"strings"
	"time"

	"github.com/dharmasatrya/flightagent/internal/models"
)

// airlineCodes maps common carrier names to the IATA codes the provider's
// include_airlines parameter accepts. Unknown names fall back to their
// first two letters uppercased.
var airlineCodes = map[string]string{
	"spirit":          "NK",
	"frontier":        "F9",
	"southwest":       "WN",
	"allegiant":       "G4",
	"sun country":     "SY",
	"breeze":          "MX",
	"avelo":           "XP",
	"jetblue":         "B6",
	"alaska":          "AS",
	"hawaiian":        "HA",
	"united":          "UA",
	"american":        "AA",
	"delta":           "DL",
	"british airways": "BA",
	"lufthansa":       "LH",
}

// Count returns the number of search requests Expand would produce for
// the query: origins x destinations x departure dates x return dates
// (1 for one-way). It never materializes the requests.
func Count(q models.TripQuery) int {
	departureDays := len(q.Departure.Days())
	returnDays := 1
	if q.TripType == models.TripRoundTrip && q.Return != nil {
		returnDays = len(q.Return.Days())
	}
	return len(q.Origins) * len(q.Destinations) * departureDays * returnDays
}

// Expand produces the full Cartesian product of the query's airport and
// date axes, origin outermost and return date innermost, so the order is
// deterministic and reproducible. If the product exceeds maxCombinations
// it fails with a CombinationLimitError carrying the exact count, before
// building anything.
//
// Time-of-day windows on the date ranges do not reduce enumeration: the
// provider is queried per calendar date and the windows are enforced by
// the filter engine after fetching.
func Expand(q models.TripQuery, maxCombinations int) ([]models.SearchRequest, error) {
	total := Count(q)
	if maxCombinations > 0 && total > maxCombinations {
		return nil, &models.CombinationLimitError{Count: total, Limit: maxCombinations}
	}

	departureDays := q.Departure.Days()

	var returnDays []*time.Time
	if q.TripType == models.TripRoundTrip && q.Return != nil {
		for _, d := range q.Return.Days() {
			d := d
			returnDays = append(returnDays, &d)
		}
	} else {
		returnDays = []*time.Time{nil}
	}

	requests := make([]models.SearchRequest, 0, total)
	for _, origin := range q.Origins {
		for _, destination := range q.Destinations {
			for _, depart := range departureDays {
				for _, ret := range returnDays {
					requests = append(requests, models.SearchRequest{
						Origin:        origin,
						Destination:   destination,
						DepartureDate: depart,
						ReturnDate:    ret,
						Passengers:    q.Passengers,
					})
				}
			}
		}
	}

	return requests, nil
}

// AirlineSupplements derives one extra request per expanded round-trip
// request with the query's preferred airlines pinned. The provider
// paginates large result sets, so a preferred airline's flights can be
// absent from the main response; the targeted search captures them anyway,
// and deduplication later collapses any overlap. Queries without an
// include rule get none, and the supplements never count against the
// combination ceiling the base requests already passed.
func AirlineSupplements(q models.TripQuery, base []models.SearchRequest) []models.SearchRequest {
	if q.TripType != models.TripRoundTrip {
		return nil
	}
	codes := preferredCodes(q)
	if len(codes) == 0 {
		return nil
	}

	supplements := make([]models.SearchRequest, 0, len(base))
	for _, req := range base {
		if !req.RoundTrip() {
			continue
		}
		req.IncludeAirlines = codes
		supplements = append(supplements, req)
	}
	return supplements
}

func preferredCodes(q models.TripQuery) []string {
	var codes []string
	seen := make(map[string]bool)

	add := func(names []string) {
		for _, name := range names {
			code, ok := airlineCodes[strings.ToLower(name)]
			if !ok {
				code = strings.ToUpper(name)
				if len(code) > 2 {
					code = code[:2]
				}
			}
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}
	add(q.OutboundRule.IncludeAirlines)
	add(q.ReturnRule.IncludeAirlines)
	return codes
}
