// Package export writes the ranked result list to a spreadsheet. It
// consumes the filter engine's output verbatim and applies no filtering
// of its own.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dharmasatrya/flightagent/internal/models"
	"github.com/dharmasatrya/flightagent/pkg/currency"
)

const sheetName = "Flights"

var headers = []string{
	"Rank", "Origin", "Destination", "Airlines", "Flight Numbers",
	"Departs", "Arrives", "Return Departs", "Return Arrives",
	"Stops", "Return Stops", "Layovers", "Return Layovers",
	"Duration", "Price", "Emissions (kg)", "Search Tag",
}

type ExcelExporter struct {
	OutputDir string
}

// Export writes one row per ranked result plus a title and header row,
// and returns the path of the created workbook.
func (e *ExcelExporter) Export(results []models.RankedResult, meta models.SearchMetadata, title string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return "", err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return "", err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return "", err
	}

	f.SetCellValue(sheetName, "A1", title)
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("%d results, %d searched (%d cached), run %s",
		meta.TotalResults, meta.RequestsAttempted, meta.CacheHits, meta.RunID))

	const headerRow = 4
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, headerRow)
		f.SetCellValue(sheetName, cell, h)
	}
	first, _ := excelize.CoordinatesToCellName(1, headerRow)
	last, _ := excelize.CoordinatesToCellName(len(headers), headerRow)
	f.SetCellStyle(sheetName, first, last, headerStyle)

	for i, r := range results {
		row := headerRow + 1 + i
		setRow(f, row, r)
	}

	f.SetColWidth(sheetName, "B", "E", 16)
	f.SetColWidth(sheetName, "F", "I", 18)
	f.SetColWidth(sheetName, "L", "M", 24)

	path := filepath.Join(e.OutputDir, fmt.Sprintf("flights_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func setRow(f *excelize.File, row int, r models.RankedResult) {
	values := []interface{}{
		r.Rank,
		legAirport(r.Outbound, true),
		legAirport(r.Outbound, false),
		strings.Join(r.Airlines(), ", "),
		r.FlightNumbers(),
		formatTime(r.Departs()),
		formatTime(r.Arrives()),
		returnTime(r.Itinerary, true),
		returnTime(r.Itinerary, false),
		r.Stops(),
		r.ReturnStops(),
		formatLayovers(r.Layovers),
		formatLayovers(r.ReturnLayovers),
		formatDuration(r.DurationMinutes),
		currency.Format(r.Price.Currency, r.Price.Amount),
		emissions(r.EmissionsKg),
		shortTag(r.RequestKey),
	}
	for col, v := range values {
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		f.SetCellValue(sheetName, cell, v)
	}
}

func legAirport(legs []models.Leg, departure bool) string {
	if len(legs) == 0 {
		return ""
	}
	if departure {
		return legs[0].Departure.Airport
	}
	return legs[len(legs)-1].Arrival.Airport
}

func returnTime(it models.Itinerary, departure bool) string {
	if len(it.Return) == 0 {
		return ""
	}
	if departure {
		return formatTime(it.Return[0].Departure.Time)
	}
	return formatTime(it.Return[len(it.Return)-1].Arrival.Time)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func formatLayovers(layovers []models.Layover) string {
	parts := make([]string, 0, len(layovers))
	for _, l := range layovers {
		part := fmt.Sprintf("%s at %s", formatDuration(l.Minutes), l.Airport)
		if l.Overnight {
			part += " (overnight)"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}

func formatDuration(minutes int) string {
	h, m := minutes/60, minutes%60
	return fmt.Sprintf("%dh %02dm", h, m)
}

func emissions(kg *float64) interface{} {
	if kg == nil {
		return ""
	}
	return *kg
}

func shortTag(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
