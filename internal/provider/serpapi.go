package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dharmasatrya/flightagent/internal/models"
)

const (
	serpEndpoint   = "https://serpapi.com/search.json"
	serpTimeLayout = "2006-01-02 15:04"
	serpDateLayout = "2006-01-02"

	// Return-leg details cost one extra call per outbound option, so only
	// the top groups of a round-trip response are enriched.
	maxReturnLookups = 5
)

// Metro/SITA codes the Google Flights engine rejects, mapped to the
// individual IATA codes it accepts.
var metroExpansion = map[string]string{
	"WAS": "DCA,IAD,BWI",
	"NYC": "JFK,EWR,LGA",
	"CHI": "ORD,MDW",
	"YTO": "YYZ,YTZ",
	"BJS": "PEK,PKX",
}

// SerpAPI queries the Google Flights engine through serpapi.com.
type SerpAPI struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewSerpAPI(apiKey string) *SerpAPI {
	return &SerpAPI{
		apiKey:   apiKey,
		endpoint: serpEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *SerpAPI) Name() string {
	return "serpapi"
}

func (p *SerpAPI) Search(ctx context.Context, req models.SearchRequest) (Response, error) {
	params := p.buildParams(req)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Response{}, models.NewProviderError("request", err.Error())
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return Response{}, models.NewProviderError("transport", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, models.NewProviderError("transport", err.Error())
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return Response{}, models.NewProviderError("auth", fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(body)))
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return Response{}, models.NewProviderError("quota", "provider rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, models.NewProviderError(fmt.Sprintf("http_%d", resp.StatusCode), truncate(body))
	}

	var raw serpResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return Response{}, models.NewProviderError("decode", err.Error())
	}
	if raw.Error != "" {
		code := "api_error"
		if strings.Contains(strings.ToLower(raw.Error), "invalid api key") {
			code = "auth"
		}
		return Response{}, models.NewProviderError(code, raw.Error)
	}

	key := req.Key()
	groups := append(raw.BestFlights, raw.OtherFlights...)

	calls := 1
	if req.RoundTrip() {
		calls += p.enrichReturnLegs(ctx, params, groups)
	}

	itineraries := make([]models.Itinerary, 0, len(groups))
	for _, g := range groups {
		if it, ok := g.toItinerary(key); ok {
			itineraries = append(itineraries, it)
		}
	}

	return Response{
		RequestKey:  key,
		Itineraries: itineraries,
		FetchedAt:   time.Now().UTC(),
		Calls:       calls,
	}, nil
}

// enrichReturnLegs attaches return-flight details to the top outbound
// groups of a round-trip response, one departure_token follow-up call per
// group. It returns the number of follow-ups that produced data; a failed
// lookup leaves its group outbound-only rather than failing the search.
func (p *SerpAPI) enrichReturnLegs(ctx context.Context, params url.Values, groups []serpGroup) int {
	limit := maxReturnLookups
	if len(groups) < limit {
		limit = len(groups)
	}

	calls := 0
	for i := 0; i < limit; i++ {
		if groups[i].DepartureToken == "" {
			continue
		}
		ret, ok := p.lookupReturnGroup(ctx, params, groups[i].DepartureToken)
		if !ok {
			continue
		}
		calls++
		groups[i].ReturnFlights = ret.Flights
		groups[i].ReturnLayovers = ret.Layovers
		groups[i].ReturnTotalDuration = ret.TotalDuration
		if groups[i].BookingToken == "" {
			groups[i].BookingToken = ret.BookingToken
		}
	}
	return calls
}

// lookupReturnGroup re-runs the search with a departure_token pinned to
// one outbound option and returns the first return group on offer.
func (p *SerpAPI) lookupReturnGroup(ctx context.Context, base url.Values, token string) (serpGroup, bool) {
	params := url.Values{}
	for k, v := range base {
		params[k] = v
	}
	params.Set("departure_token", token)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return serpGroup{}, false
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return serpGroup{}, false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return serpGroup{}, false
	}

	var raw serpResponse
	if err := json.Unmarshal(body, &raw); err != nil || raw.Error != "" {
		return serpGroup{}, false
	}
	groups := append(raw.BestFlights, raw.OtherFlights...)
	if len(groups) == 0 {
		return serpGroup{}, false
	}
	return groups[0], true
}

func (p *SerpAPI) buildParams(req models.SearchRequest) url.Values {
	params := url.Values{}
	params.Set("engine", "google_flights")
	params.Set("api_key", p.apiKey)
	params.Set("departure_id", expandAirport(req.Origin))
	params.Set("arrival_id", expandAirport(req.Destination))
	params.Set("outbound_date", req.DepartureDate.Format(serpDateLayout))
	params.Set("adults", fmt.Sprintf("%d", req.Passengers.Adults))
	params.Set("children", fmt.Sprintf("%d", len(req.Passengers.ChildAges)))
	params.Set("currency", "USD")
	params.Set("hl", "en")
	params.Set("deep_search", "true")

	if req.ReturnDate != nil {
		params.Set("type", "1")
		params.Set("return_date", req.ReturnDate.Format(serpDateLayout))
	} else {
		params.Set("type", "2")
	}

	if len(req.IncludeAirlines) > 0 {
		params.Set("include_airlines", strings.Join(req.IncludeAirlines, ","))
	}

	return params
}

func expandAirport(code string) string {
	if expanded, ok := metroExpansion[strings.ToUpper(code)]; ok {
		return expanded
	}
	return code
}

func truncate(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200]
	}
	return s
}

// Wire types for the Google Flights engine payload. Only the fields the
// pipeline consumes are decoded.

type serpResponse struct {
	Error        string      `json:"error"`
	BestFlights  []serpGroup `json:"best_flights"`
	OtherFlights []serpGroup `json:"other_flights"`
}

type serpGroup struct {
	Flights         []serpSegment  `json:"flights"`
	Layovers        []serpLayover  `json:"layovers"`
	TotalDuration   int            `json:"total_duration"`
	Price           float64        `json:"price"`
	CarbonEmissions *serpEmissions `json:"carbon_emissions"`
	DepartureToken  string         `json:"departure_token"`
	BookingToken    string         `json:"booking_token"`

	// Attached by enrichReturnLegs; never present on an initial response.
	ReturnFlights       []serpSegment `json:"return_flights"`
	ReturnLayovers      []serpLayover `json:"return_layovers"`
	ReturnTotalDuration int           `json:"return_total_duration"`
}

type serpSegment struct {
	Airline          string      `json:"airline"`
	FlightNumber     string      `json:"flight_number"`
	Airplane         string      `json:"airplane"`
	DepartureAirport serpAirport `json:"departure_airport"`
	ArrivalAirport   serpAirport `json:"arrival_airport"`
}

type serpAirport struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Time string `json:"time"`
}

type serpLayover struct {
	ID        string `json:"id"`
	Duration  int    `json:"duration"`
	Overnight bool   `json:"overnight"`
}

type serpEmissions struct {
	ThisFlight *float64 `json:"this_flight"`
}

func (g serpGroup) toItinerary(requestKey string) (models.Itinerary, bool) {
	if len(g.Flights) == 0 {
		return models.Itinerary{}, false
	}

	it := models.Itinerary{
		Outbound:        convertSegments(g.Flights),
		Return:          convertSegments(g.ReturnFlights),
		Layovers:        convertLayovers(g.Layovers),
		ReturnLayovers:  convertLayovers(g.ReturnLayovers),
		DurationMinutes: g.TotalDuration + g.ReturnTotalDuration,
		Price:           models.Price{Amount: g.Price, Currency: "USD"},
		BookingToken:    g.BookingToken,
		RequestKey:      requestKey,
	}
	if it.BookingToken == "" {
		it.BookingToken = g.DepartureToken
	}
	if g.CarbonEmissions != nil && g.CarbonEmissions.ThisFlight != nil {
		kg := *g.CarbonEmissions.ThisFlight / 1000
		it.EmissionsKg = &kg
	}
	return it, true
}

func convertSegments(segments []serpSegment) []models.Leg {
	if len(segments) == 0 {
		return nil
	}
	legs := make([]models.Leg, 0, len(segments))
	for _, s := range segments {
		legs = append(legs, models.Leg{
			Airline:      models.Airline{Code: airlineCode(s.FlightNumber), Name: s.Airline},
			FlightNumber: s.FlightNumber,
			Airplane:     s.Airplane,
			Departure: models.Endpoint{
				Airport: s.DepartureAirport.ID,
				Time:    parseLocalTime(s.DepartureAirport.Time),
			},
			Arrival: models.Endpoint{
				Airport: s.ArrivalAirport.ID,
				Time:    parseLocalTime(s.ArrivalAirport.Time),
			},
		})
	}
	return legs
}

func convertLayovers(layovers []serpLayover) []models.Layover {
	if len(layovers) == 0 {
		return nil
	}
	out := make([]models.Layover, 0, len(layovers))
	for _, l := range layovers {
		out = append(out, models.Layover{
			Airport:   l.ID,
			Minutes:   l.Duration,
			Overnight: l.Overnight,
		})
	}
	return out
}

// airlineCode pulls the 2-char carrier prefix from a flight number like
// "F9 1234".
func airlineCode(flightNumber string) string {
	if i := strings.IndexByte(flightNumber, ' '); i > 0 {
		return flightNumber[:i]
	}
	return ""
}

// parseLocalTime handles the handful of local-time layouts the engine
// emits. A zero time is returned for unparseable values; the filter
// engine treats those as unconstrained.
func parseLocalTime(s string) time.Time {
	layouts := []string{
		serpTimeLayout,
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02T15:04",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
