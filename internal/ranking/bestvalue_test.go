package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightagent/internal/models"
)

func flight(price float64, minutes, stops int) models.Itinerary {
	legs := make([]models.Leg, stops+1)
	return models.Itinerary{
		Outbound:        legs,
		DurationMinutes: minutes,
		Price:           models.Price{Amount: price, Currency: "USD"},
	}
}

func TestScores_CheapFastNonstopWins(t *testing.T) {
	its := []models.Itinerary{
		flight(100, 180, 0),
		flight(300, 180, 0),
		flight(100, 420, 2),
	}

	scores := Scores(its)
	require.Len(t, scores, 3)
	assert.Less(t, scores[0], scores[1], "cheaper flight scores better")
	assert.Less(t, scores[0], scores[2], "faster nonstop scores better")
}

func TestScores_EmptyInput(t *testing.T) {
	assert.Empty(t, Scores(nil))
}

func TestScores_ZeroMaximaDoNotDivide(t *testing.T) {
	its := []models.Itinerary{flight(0, 0, 0)}
	scores := Scores(its)
	require.Len(t, scores, 1)
	assert.Equal(t, 0.0, scores[0])
}
