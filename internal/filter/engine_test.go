package filter

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightagent/internal/models"
	"github.com/dharmasatrya/flightagent/internal/provider"
)

type itOpt func(*models.Itinerary)

func withAirline(code, name string) itOpt {
	return func(it *models.Itinerary) {
		for i := range it.Outbound {
			it.Outbound[i].Airline = models.Airline{Code: code, Name: name}
		}
	}
}

func withLayover(airport string, minutes int) itOpt {
	return func(it *models.Itinerary) {
		it.Layovers = append(it.Layovers, models.Layover{Airport: airport, Minutes: minutes})
		second := it.Outbound[0]
		second.FlightNumber = it.Outbound[0].FlightNumber + "B"
		it.Outbound = append(it.Outbound, second)
	}
}

func withDeparture(hour int) itOpt {
	return func(it *models.Itinerary) {
		it.Outbound[0].Departure.Time = time.Date(2026, 3, 10, hour, 0, 0, 0, time.UTC)
	}
}

func itinerary(t *testing.T, flightNumber string, price float64, opts ...itOpt) models.Itinerary {
	t.Helper()
	it := models.Itinerary{
		Outbound: []models.Leg{{
			Airline:      models.Airline{Code: "UA", Name: "United"},
			FlightNumber: flightNumber,
			Departure:    models.Endpoint{Airport: "AUS", Time: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
			Arrival:      models.Endpoint{Airport: "LAX", Time: time.Date(2026, 3, 10, 11, 30, 0, 0, time.UTC)},
		}},
		DurationMinutes: 150,
		Price:           models.Price{Amount: price, Currency: "USD"},
	}
	for _, opt := range opts {
		opt(&it)
	}
	return it
}

func oneWayQuery(t *testing.T) models.TripQuery {
	t.Helper()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return models.TripQuery{
		Origins:      []string{"AUS"},
		Destinations: []string{"LAX"},
		TripType:     models.TripOneWay,
		Departure:    models.DateRange{Start: day, End: day},
		Passengers:   models.Passengers{Adults: 1},
		SortBy:       models.SortPrice,
	}
}

func responseOf(its ...models.Itinerary) provider.Response {
	return provider.Response{RequestKey: "req-1", Itineraries: its}
}

func TestProcess_EliminationScenario(t *testing.T) {
	// 10 records: 3 on an excluded airline, 2 with a layover at an
	// excluded airport, a 400 price ceiling removing 1 more. 4 survive,
	// ascending by price.
	its := []models.Itinerary{
		itinerary(t, "UA 100", 350),
		itinerary(t, "NK 200", 120, withAirline("NK", "Spirit")),
		itinerary(t, "UA 101", 280),
		itinerary(t, "NK 201", 130, withAirline("NK", "Spirit")),
		itinerary(t, "UA 102", 410, withLayover("ORD", 90)),
		itinerary(t, "UA 103", 390, withLayover("ORD", 75)),
		itinerary(t, "NK 202", 140, withAirline("NK", "Spirit")),
		itinerary(t, "UA 104", 450),
		itinerary(t, "UA 105", 220),
		itinerary(t, "UA 106", 310),
	}

	ceiling := 400.0
	q := oneWayQuery(t)
	q.OutboundRule.ExcludeAirlines = []string{"NK"}
	q.ExcludedLayovers = []string{"ORD"}
	q.MaxPrice = &ceiling

	results, err := Process([]provider.Response{responseOf(its...)}, q)
	require.NoError(t, err)
	require.Len(t, results, 4)

	prices := make([]float64, len(results))
	for i, r := range results {
		prices[i] = r.Price.Amount
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []float64{220, 280, 310, 350}, prices)
}

func TestProcess_Deduplicates(t *testing.T) {
	a := itinerary(t, "UA 100", 350)
	a.RequestKey = "req-a"
	b := itinerary(t, "UA 100", 350)
	b.RequestKey = "req-b"

	results, err := Process([]provider.Response{
		{RequestKey: "req-a", Itineraries: []models.Itinerary{a}},
		{RequestKey: "req-b", Itineraries: []models.Itinerary{b}},
	}, oneWayQuery(t))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "req-a", results[0].RequestKey, "first-seen request tag wins")
}

func TestProcess_DifferentPriceIsNotADuplicate(t *testing.T) {
	a := itinerary(t, "UA 100", 350)
	b := itinerary(t, "UA 100", 340)

	results, err := Process([]provider.Response{responseOf(a, b)}, oneWayQuery(t))
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestProcess_Idempotent(t *testing.T) {
	responses := []provider.Response{responseOf(
		itinerary(t, "UA 100", 350),
		itinerary(t, "UA 101", 220),
		itinerary(t, "UA 102", 220),
		itinerary(t, "UA 103", 310),
	)}
	q := oneWayQuery(t)

	first, err := Process(responses, q)
	require.NoError(t, err)
	second, err := Process(responses, q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProcess_StableTieBreakByFlattenOrder(t *testing.T) {
	a := itinerary(t, "UA 100", 220)
	b := itinerary(t, "UA 101", 220)

	results, err := Process([]provider.Response{responseOf(a, b)}, oneWayQuery(t))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "UA 100", results[0].FlightNumbers())
	assert.Equal(t, "UA 101", results[1].FlightNumbers())
}

func TestProcess_EmptySurvivorSetIsNotAnError(t *testing.T) {
	ceiling := 50.0
	q := oneWayQuery(t)
	q.MaxPrice = &ceiling

	results, err := Process([]provider.Response{responseOf(itinerary(t, "UA 100", 350))}, q)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProcess_MalformedQueryIsAnError(t *testing.T) {
	q := oneWayQuery(t)
	q.Origins = nil

	_, err := Process([]provider.Response{responseOf(itinerary(t, "UA 100", 350))}, q)
	assert.Error(t, err)
}

func TestProcess_SortPreferences(t *testing.T) {
	early := itinerary(t, "UA 100", 400, withDeparture(6))
	late := itinerary(t, "UA 101", 100, withDeparture(20))

	t.Run("price", func(t *testing.T) {
		q := oneWayQuery(t)
		results, err := Process([]provider.Response{responseOf(early, late)}, q)
		require.NoError(t, err)
		assert.Equal(t, "UA 101", results[0].FlightNumbers())
	})

	t.Run("departure time", func(t *testing.T) {
		q := oneWayQuery(t)
		q.SortBy = models.SortDepartureTime
		results, err := Process([]provider.Response{responseOf(early, late)}, q)
		require.NoError(t, err)
		assert.Equal(t, "UA 100", results[0].FlightNumbers())
	})

	t.Run("emissions missing sorts last", func(t *testing.T) {
		kg := 90.0
		green := itinerary(t, "UA 102", 500)
		green.EmissionsKg = &kg

		q := oneWayQuery(t)
		q.SortBy = models.SortEmissions
		results, err := Process([]provider.Response{responseOf(early, green)}, q)
		require.NoError(t, err)
		assert.Equal(t, "UA 102", results[0].FlightNumbers())
	})
}

func TestTimeWindows(t *testing.T) {
	q := oneWayQuery(t)
	q.Departure.DepartureWindow = &models.TimeWindow{StartHour: 18, EndHour: 23}
	pred := TimeWindows(q)

	evening := itinerary(t, "UA 100", 100, withDeparture(19))
	ok, _ := pred(evening)
	assert.True(t, ok)

	morning := itinerary(t, "UA 101", 100, withDeparture(8))
	ok, reason := pred(morning)
	assert.False(t, ok)
	assert.Contains(t, reason, "outside window")

	// Unparsed times pass unconstrained.
	blank := itinerary(t, "UA 102", 100)
	blank.Outbound[0].Departure.Time = time.Time{}
	ok, _ = pred(blank)
	assert.True(t, ok)
}

func TestAirlines_IncludeKeepsMatchingLeg(t *testing.T) {
	q := oneWayQuery(t)
	q.OutboundRule.IncludeAirlines = []string{"F9"}
	pred := Airlines(q)

	frontier := itinerary(t, "F9 100", 100, withAirline("F9", "Frontier"))
	ok, _ := pred(frontier)
	assert.True(t, ok)

	// Name matching works too.
	byName := itinerary(t, "F9 101", 100, withAirline("F9", "Frontier"))
	q2 := oneWayQuery(t)
	q2.OutboundRule.IncludeAirlines = []string{"frontier"}
	ok, _ = Airlines(q2)(byName)
	assert.True(t, ok)

	united := itinerary(t, "UA 100", 100)
	ok, reason := pred(united)
	assert.False(t, ok)
	assert.Contains(t, reason, "include set")
}

func TestStops(t *testing.T) {
	maxStops := 0
	maxLayover := 60

	t.Run("max stops", func(t *testing.T) {
		q := oneWayQuery(t)
		q.MaxStops = &maxStops
		ok, _ := Stops(q)(itinerary(t, "UA 100", 100))
		assert.True(t, ok)
		ok, _ = Stops(q)(itinerary(t, "UA 101", 100, withLayover("DEN", 45)))
		assert.False(t, ok)
	})

	t.Run("layover duration ceiling", func(t *testing.T) {
		q := oneWayQuery(t)
		q.MaxLayoverMinutes = &maxLayover
		ok, _ := Stops(q)(itinerary(t, "UA 100", 100, withLayover("DEN", 45)))
		assert.True(t, ok)
		ok, reason := Stops(q)(itinerary(t, "UA 101", 100, withLayover("DEN", 95)))
		assert.False(t, ok)
		assert.Contains(t, reason, "DEN")
	})
}

func TestFlatten_TagsInheritedFromResponse(t *testing.T) {
	untagged := itinerary(t, "UA 100", 100)
	untagged.RequestKey = ""

	flat := flatten([]provider.Response{{RequestKey: "req-9", Itineraries: []models.Itinerary{untagged}}})
	require.Len(t, flat, 1)
	assert.Equal(t, "req-9", flat[0].RequestKey)
}

func TestProcess_ManyRecordsDeterministic(t *testing.T) {
	var its []models.Itinerary
	for i := 0; i < 25; i++ {
		its = append(its, itinerary(t, fmt.Sprintf("UA %d", 100+i), float64(100+(i*7)%90)))
	}

	q := oneWayQuery(t)
	first, err := Process([]provider.Response{responseOf(its...)}, q)
	require.NoError(t, err)
	second, err := Process([]provider.Response{responseOf(its...)}, q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
