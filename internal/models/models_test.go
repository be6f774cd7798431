package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func validQuery() TripQuery {
	return TripQuery{
		Origins:      []string{"SFO"},
		Destinations: []string{"JFK"},
		TripType:     TripRoundTrip,
		Departure:    DateRange{Start: day("2026-05-01"), End: day("2026-05-03")},
		Return:       &DateRange{Start: day("2026-05-10"), End: day("2026-05-10")},
		Passengers:   Passengers{Adults: 1},
	}
}

func TestTripQuery_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		q := validQuery()
		require.NoError(t, q.Validate())
		assert.Equal(t, SortPrice, q.SortBy, "defaults applied")
	})

	t.Run("empty airport sets", func(t *testing.T) {
		q := validQuery()
		q.Origins = nil
		assert.ErrorIs(t, q.Validate(), ErrNoOrigins)

		q = validQuery()
		q.Destinations = []string{}
		assert.ErrorIs(t, q.Validate(), ErrNoDestinations)
	})

	t.Run("inverted range", func(t *testing.T) {
		q := validQuery()
		q.Departure = DateRange{Start: day("2026-05-03"), End: day("2026-05-01")}
		assert.ErrorIs(t, q.Validate(), ErrInvertedDateRange)
	})

	t.Run("round trip requires return dates", func(t *testing.T) {
		q := validQuery()
		q.Return = nil
		assert.ErrorIs(t, q.Validate(), ErrNoReturnDates)
	})

	t.Run("negative child age", func(t *testing.T) {
		q := validQuery()
		q.Passengers.ChildAges = []int{7, -1}
		assert.ErrorIs(t, q.Validate(), ErrNegativeChildAge)
	})

	t.Run("conflicting airline rule", func(t *testing.T) {
		q := validQuery()
		q.OutboundRule = LegRule{IncludeAirlines: []string{"F9"}, ExcludeAirlines: []string{"NK"}}
		assert.ErrorIs(t, q.Validate(), ErrConflictingAirlineRule)
	})
}

func TestDateRange_Days(t *testing.T) {
	r := DateRange{Start: day("2026-05-01"), End: day("2026-05-03")}
	days := r.Days()
	require.Len(t, days, 3)
	assert.Equal(t, day("2026-05-01"), days[0])
	assert.Equal(t, day("2026-05-03"), days[2])

	single := DateRange{Start: day("2026-05-01"), End: day("2026-05-01")}
	assert.Len(t, single.Days(), 1)
}

func TestSearchRequest_Key(t *testing.T) {
	ret := day("2026-05-10")
	a := SearchRequest{
		Origin:        "SFO",
		Destination:   "JFK",
		DepartureDate: day("2026-05-01"),
		ReturnDate:    &ret,
		Passengers:    Passengers{Adults: 2},
	}

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, a.Key(), a.Key())

		ret2 := day("2026-05-10")
		b := a
		b.ReturnDate = &ret2
		assert.Equal(t, a.Key(), b.Key(), "equal fields through distinct pointers share a key")
	})

	t.Run("field changes change the key", func(t *testing.T) {
		b := a
		b.Destination = "EWR"
		assert.NotEqual(t, a.Key(), b.Key())

		c := a
		c.ReturnDate = nil
		assert.NotEqual(t, a.Key(), c.Key())

		d := a
		d.Passengers = Passengers{Adults: 1}
		assert.NotEqual(t, a.Key(), d.Key())

		e := a
		e.IncludeAirlines = []string{"NK"}
		assert.NotEqual(t, a.Key(), e.Key(), "pinned airlines cache separately")
	})
}

func TestItinerary_DedupKey(t *testing.T) {
	base := Itinerary{
		Outbound: []Leg{{
			FlightNumber: "UA 100",
			Departure:    Endpoint{Airport: "SFO", Time: day("2026-05-01")},
			Arrival:      Endpoint{Airport: "JFK", Time: day("2026-05-01")},
		}},
		Price: Price{Amount: 320, Currency: "USD"},
	}

	same := base
	same.RequestKey = "another-request"
	assert.Equal(t, base.DedupKey(), same.DedupKey(), "request tag is not part of identity")

	differentDate := base
	differentDate.Outbound = []Leg{{
		FlightNumber: "UA 100",
		Departure:    Endpoint{Airport: "SFO", Time: day("2026-05-02")},
		Arrival:      Endpoint{Airport: "JFK", Time: day("2026-05-02")},
	}}
	assert.NotEqual(t, base.DedupKey(), differentDate.DedupKey())

	differentPrice := base
	differentPrice.Price.Amount = 310
	assert.NotEqual(t, base.DedupKey(), differentPrice.DedupKey())
}

func TestTimeWindow_Contains(t *testing.T) {
	w := TimeWindow{StartHour: 18, EndHour: 23}
	assert.True(t, w.Contains(time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2026, 5, 1, 23, 59, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 5, 1, 17, 59, 0, 0, time.UTC)))
}
