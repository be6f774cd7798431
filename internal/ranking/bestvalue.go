// Package ranking computes the composite best-value score used when the
// sort preference weighs price, duration, and stops together rather than
// any single field.
package ranking

import (
	"math"

	"github.com/dharmasatrya/flightagent/internal/models"
)

const (
	PriceWeight    = 0.5
	DurationWeight = 0.3
	StopsWeight    = 0.2
)

// Scores returns one score per itinerary, aligned by index. Lower is
// better. Price and duration are normalized against the batch maximum so
// scores are comparable only within one result set.
func Scores(itineraries []models.Itinerary) []float64 {
	maxPrice, maxDuration := batchMaxima(itineraries)

	scores := make([]float64, len(itineraries))
	for i, it := range itineraries {
		scores[i] = bestValue(it, maxPrice, maxDuration)
	}
	return scores
}

func bestValue(it models.Itinerary, maxPrice, maxDuration float64) float64 {
	priceScore := 0.0
	if maxPrice > 0 {
		priceScore = (it.Price.Amount / maxPrice) * 100
	}

	durationScore := 0.0
	if maxDuration > 0 {
		durationScore = (float64(it.DurationMinutes) / maxDuration) * 100
	}

	stopsScore := float64(it.Stops()+it.ReturnStops()) * 15
	score := (priceScore * PriceWeight) + (durationScore * DurationWeight) + (stopsScore * StopsWeight)

	return math.Round(score*100) / 100
}

func batchMaxima(itineraries []models.Itinerary) (maxPrice, maxDuration float64) {
	for _, it := range itineraries {
		if it.Price.Amount > maxPrice {
			maxPrice = it.Price.Amount
		}
		if d := float64(it.DurationMinutes); d > maxDuration {
			maxDuration = d
		}
	}
	return maxPrice, maxDuration
}
