package providers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/i474232898/crop-advisor/internal/report"
)

// OpenMeteoArchive implements report.PrecipitationProvider for the Open-Meteo
// historical archive.
type OpenMeteoArchive struct {
	ep *endpoint
}

func NewOpenMeteoArchive(client *http.Client) *OpenMeteoArchive {
	return &OpenMeteoArchive{
		ep: newEndpoint("openmeteo-archive", "https://archive-api.open-meteo.com/v1/archive", client),
	}
}

func (p *OpenMeteoArchive) Name() string {
	return p.ep.name
}

// Precipitation sums the non-null daily precipitation_sum values of the span.
func (p *OpenMeteoArchive) Precipitation(ctx context.Context, c report.Coordinates, span report.DateSpan) (float64, bool) {
	values := url.Values{}
	values.Set("latitude", formatCoord(c.Lat))
	values.Set("longitude", formatCoord(c.Lon))
	values.Set("start_date", span.Start.Format("2006-01-02"))
	values.Set("end_date", span.End.Format("2006-01-02"))
	values.Set("daily", "precipitation_sum")
	values.Set("timezone", "auto")

	var payload struct {
		Daily *struct {
			PrecipitationSum []*float64 `json:"precipitation_sum"`
		} `json:"daily"`
	}
	if err := p.ep.getJSON(ctx, values, nil, &payload); err != nil {
		return 0, false
	}
	if payload.Daily == nil {
		return 0, false
	}
	return sumPresent(payload.Daily.PrecipitationSum)
}

// sumPresent adds the non-null entries; ok is false when there are none.
func sumPresent(values []*float64) (float64, bool) {
	var total float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		total += *v
		n++
	}
	return total, n > 0
}
