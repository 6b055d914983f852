package providers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/i474232898/crop-advisor/internal/report"
)

const meteostatHost = "meteostat.p.rapidapi.com"

// Meteostat implements report.PrecipitationProvider for the Meteostat point
// daily API served through RapidAPI.
type Meteostat struct {
	apiKey string
	ep     *endpoint
}

func NewMeteostat(client *http.Client, apiKey string) *Meteostat {
	return &Meteostat{
		apiKey: apiKey,
		ep:     newEndpoint("meteostat", "https://"+meteostatHost+"/point/daily", client),
	}
}

func (p *Meteostat) Name() string {
	return p.ep.name
}

// Precipitation sums the station-interpolated daily prcp values of the span. Unlike a
// plain column sum, a series whose prcp values are all null reports no data, not 0.
func (p *Meteostat) Precipitation(ctx context.Context, c report.Coordinates, span report.DateSpan) (float64, bool) {
	if p.apiKey == "" {
		return 0, false
	}

	values := url.Values{}
	values.Set("lat", formatCoord(c.Lat))
	values.Set("lon", formatCoord(c.Lon))
	values.Set("start", span.Start.Format("2006-01-02"))
	values.Set("end", span.End.Format("2006-01-02"))

	header := http.Header{}
	header.Set("x-rapidapi-key", p.apiKey)
	header.Set("x-rapidapi-host", meteostatHost)

	var payload struct {
		Data []struct {
			Date string   `json:"date"`
			Prcp *float64 `json:"prcp"`
		} `json:"data"`
	}
	if err := p.ep.getJSON(ctx, values, header, &payload); err != nil {
		return 0, false
	}

	prcp := make([]*float64, 0, len(payload.Data))
	for _, d := range payload.Data {
		prcp = append(prcp, d.Prcp)
	}
	return sumPresent(prcp)
}
