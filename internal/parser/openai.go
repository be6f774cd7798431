package parser

import (
	"context"
	"encoding/json"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dharmasatrya/flightagent/internal/models"
)

const systemPrompt = `You are a flight search assistant. Convert the user's free-text travel
request into a single JSON object with this shape:

{
  "origins": ["IATA", ...],
  "destinations": ["IATA", ...],
  "trip_type": "round_trip" | "one_way",
  "departure": {"start": "YYYY-MM-DD", "end": "YYYY-MM-DD",
                "departure_window": {"start_hour": 0-23, "end_hour": 0-23} | null,
                "arrival_window": {...} | null},
  "return": { same shape } | null,
  "adults": N, "child_ages": [..],
  "outbound_include_airlines": [..], "outbound_exclude_airlines": [..],
  "return_include_airlines": [..], "return_exclude_airlines": [..],
  "max_stops": N | null, "excluded_layovers": [..],
  "max_layover_minutes": N | null, "max_price": N | null,
  "sort_by": "price" | "duration" | "departure_time" | "arrival_time" | "emissions" | "best_value",
  "summary": "short human-readable summary"
}

Rules:
- Use individual IATA codes; expand metro areas (NYC -> JFK,EWR,LGA;
  DC -> DCA,IAD,BWI; Chicago -> ORD,MDW; SF Bay -> SFO,OAK,SJC).
- A single travel date is a range with start == end.
- "morning" means hours 6-12, "afternoon" 12-18, "evening" 18-23.
- Never set include and exclude airlines on the same leg.
- Default: round_trip, 1 adult, sort_by price.
Respond with JSON only.`

// OpenAIParser turns raw text into a trip query with a chat completion
// constrained to JSON output.
type OpenAIParser struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

func NewOpenAIParser(apiKey, model string) *OpenAIParser {
	return &OpenAIParser{
		client: openai.NewClient(apiKey),
		model:  model,
		now:    time.Now,
	}
}

func (p *OpenAIParser) Parse(ctx context.Context, rawText string) (models.TripQuery, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt + "\n\nToday's date: " + p.now().Format("2006-01-02")},
			{Role: openai.ChatMessageRoleUser, Content: rawText},
		},
	})
	if err != nil {
		return models.TripQuery{}, &models.ParseError{Reason: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return models.TripQuery{}, &models.ParseError{Reason: "model returned no choices"}
	}

	var wire wireQuery
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &wire); err != nil {
		return models.TripQuery{}, &models.ParseError{Reason: "model output is not valid JSON: " + err.Error()}
	}

	query, err := wire.toQuery()
	if err != nil {
		return models.TripQuery{}, err
	}
	if err := query.Validate(); err != nil {
		return models.TripQuery{}, &models.ParseError{Reason: err.Error()}
	}
	return query, nil
}

// Wire shape of the model's JSON output. Dates stay strings here so a
// malformed date surfaces as a ParseError instead of a decode panic.

type wireWindow struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

type wireRange struct {
	Start           string      `json:"start"`
	End             string      `json:"end"`
	DepartureWindow *wireWindow `json:"departure_window"`
	ArrivalWindow   *wireWindow `json:"arrival_window"`
}

type wireQuery struct {
	Origins                 []string   `json:"origins"`
	Destinations            []string   `json:"destinations"`
	TripType                string     `json:"trip_type"`
	Departure               *wireRange `json:"departure"`
	Return                  *wireRange `json:"return"`
	Adults                  int        `json:"adults"`
	ChildAges               []int      `json:"child_ages"`
	OutboundIncludeAirlines []string   `json:"outbound_include_airlines"`
	OutboundExcludeAirlines []string   `json:"outbound_exclude_airlines"`
	ReturnIncludeAirlines   []string   `json:"return_include_airlines"`
	ReturnExcludeAirlines   []string   `json:"return_exclude_airlines"`
	MaxStops                *int       `json:"max_stops"`
	ExcludedLayovers        []string   `json:"excluded_layovers"`
	MaxLayoverMinutes       *int       `json:"max_layover_minutes"`
	MaxPrice                *float64   `json:"max_price"`
	SortBy                  string     `json:"sort_by"`
	Summary                 string     `json:"summary"`
}

func (w wireQuery) toQuery() (models.TripQuery, error) {
	if w.Departure == nil {
		return models.TripQuery{}, &models.ParseError{Reason: "missing departure date range"}
	}

	departure, err := w.Departure.toRange()
	if err != nil {
		return models.TripQuery{}, err
	}

	q := models.TripQuery{
		Origins:      w.Origins,
		Destinations: w.Destinations,
		TripType:     models.TripType(w.TripType),
		Departure:    departure,
		Passengers:   models.Passengers{Adults: w.Adults, ChildAges: w.ChildAges},
		OutboundRule: models.LegRule{
			IncludeAirlines: w.OutboundIncludeAirlines,
			ExcludeAirlines: w.OutboundExcludeAirlines,
		},
		ReturnRule: models.LegRule{
			IncludeAirlines: w.ReturnIncludeAirlines,
			ExcludeAirlines: w.ReturnExcludeAirlines,
		},
		MaxStops:          w.MaxStops,
		ExcludedLayovers:  w.ExcludedLayovers,
		MaxLayoverMinutes: w.MaxLayoverMinutes,
		MaxPrice:          w.MaxPrice,
		SortBy:            models.SortPreference(w.SortBy),
		Summary:           w.Summary,
	}

	if w.Return != nil {
		ret, err := w.Return.toRange()
		if err != nil {
			return models.TripQuery{}, err
		}
		q.Return = &ret
	}
	return q, nil
}

func (r wireRange) toRange() (models.DateRange, error) {
	start, err := time.Parse("2006-01-02", r.Start)
	if err != nil {
		return models.DateRange{}, &models.ParseError{Reason: "bad date " + r.Start}
	}
	end, err := time.Parse("2006-01-02", r.End)
	if err != nil {
		return models.DateRange{}, &models.ParseError{Reason: "bad date " + r.End}
	}

	out := models.DateRange{Start: start, End: end}
	if r.DepartureWindow != nil {
		out.DepartureWindow = &models.TimeWindow{StartHour: r.DepartureWindow.StartHour, EndHour: r.DepartureWindow.EndHour}
	}
	if r.ArrivalWindow != nil {
		out.ArrivalWindow = &models.TimeWindow{StartHour: r.ArrivalWindow.StartHour, EndHour: r.ArrivalWindow.EndHour}
	}
	return out, nil
}
