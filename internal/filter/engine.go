// Package filter consolidates raw provider responses into a single
// filtered, deduplicated, and totally ordered result list.
package filter

import (
	"log"
	"sort"

	"github.com/dharmasatrya/flightagent/internal/models"
	"github.com/dharmasatrya/flightagent/internal/provider"
	"github.com/dharmasatrya/flightagent/internal/ranking"
)

// Process runs the full post-fetch pipeline: flatten, filter stages,
// dedup, then a stable sort by the query's preference. An empty survivor
// set is a valid "no matching flights" outcome and returns ([], nil); a
// malformed query is the distinct error case.
func Process(responses []provider.Response, q models.TripQuery) ([]models.RankedResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	flat := flatten(responses)
	survivors := applyStages(flat, []Predicate{
		TimeWindows(q),
		Airlines(q),
		Stops(q),
		PriceCeiling(q),
	})
	survivors = dedupe(survivors)

	return rank(survivors, q.SortBy), nil
}

// flatten unions all itineraries across responses, preserving response
// order and within-response order so later stages stay deterministic.
// Records missing a request tag inherit their response's.
func flatten(responses []provider.Response) []models.Itinerary {
	var flat []models.Itinerary
	for _, resp := range responses {
		for _, it := range resp.Itineraries {
			if it.RequestKey == "" {
				it.RequestKey = resp.RequestKey
			}
			flat = append(flat, it)
		}
	}
	return flat
}

func applyStages(itineraries []models.Itinerary, stages []Predicate) []models.Itinerary {
	survivors := itineraries
	for _, stage := range stages {
		kept := make([]models.Itinerary, 0, len(survivors))
		for _, it := range survivors {
			ok, reason := stage(it)
			if !ok {
				log.Printf("filter: dropped %s: %s", it.FlightNumbers(), reason)
				continue
			}
			kept = append(kept, it)
		}
		survivors = kept
	}
	return survivors
}

// dedupe collapses itineraries retrieved from overlapping search requests:
// same flight numbers, dates, and price means the same offering. First
// seen wins, keeping its original request tag.
func dedupe(itineraries []models.Itinerary) []models.Itinerary {
	seen := make(map[string]bool, len(itineraries))
	out := make([]models.Itinerary, 0, len(itineraries))
	for _, it := range itineraries {
		key := it.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

// rank stable-sorts by the selected comparator so ties keep flatten
// order, then assigns 1-based rank indexes.
func rank(itineraries []models.Itinerary, pref models.SortPreference) []models.RankedResult {
	keys := sortKeys(itineraries, pref)

	results := make([]models.RankedResult, len(itineraries))
	for i, it := range itineraries {
		results[i] = models.RankedResult{Itinerary: it, SortKey: keys[i]}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SortKey < results[j].SortKey
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// sortKeys computes the numeric sort key for every itinerary under the
// given preference. The preference set is closed; unknown values fall
// back to price.
func sortKeys(itineraries []models.Itinerary, pref models.SortPreference) []float64 {
	if pref == models.SortBestValue {
		return ranking.Scores(itineraries)
	}

	keyFn, ok := comparators[pref]
	if !ok {
		keyFn = comparators[models.SortPrice]
	}

	keys := make([]float64, len(itineraries))
	for i, it := range itineraries {
		keys[i] = keyFn(it)
	}
	return keys
}

var comparators = map[models.SortPreference]func(models.Itinerary) float64{
	models.SortPrice: func(it models.Itinerary) float64 {
		return it.Price.Amount
	},
	models.SortDuration: func(it models.Itinerary) float64 {
		return float64(it.DurationMinutes)
	},
	models.SortDepartureTime: func(it models.Itinerary) float64 {
		return float64(it.Departs().Unix())
	},
	models.SortArrivalTime: func(it models.Itinerary) float64 {
		return float64(it.Arrives().Unix())
	},
	models.SortEmissions: func(it models.Itinerary) float64 {
		if it.EmissionsKg == nil {
			// Unreported emissions sort last.
			return float64(1 << 30)
		}
		return *it.EmissionsKg
	},
}
