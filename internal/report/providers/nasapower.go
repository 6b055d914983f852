package providers

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"github.com/i474232898/crop-advisor/internal/report"
)

// NASAPower implements report.ClimateProvider for the NASA POWER daily point API.
type NASAPower struct {
	ep *endpoint
}

func NewNASAPower(client *http.Client) *NASAPower {
	return &NASAPower{
		ep: newEndpoint("nasa-power", "https://power.larc.nasa.gov/api/temporal/daily/point", client),
	}
}

func (p *NASAPower) Name() string {
	return p.ep.name
}

// DailyClimate returns the T2M and PRECTOT series in date order. Fill values are
// passed through untouched.
func (p *NASAPower) DailyClimate(ctx context.Context, c report.Coordinates, span report.DateSpan) (report.DailyClimate, bool) {
	values := url.Values{}
	values.Set("parameters", "T2M,PRECTOT")
	values.Set("community", "RE")
	values.Set("longitude", formatCoord(c.Lon))
	values.Set("latitude", formatCoord(c.Lat))
	values.Set("start", span.Start.Format("20060102"))
	values.Set("end", span.End.Format("20060102"))
	values.Set("format", "JSON")

	var payload struct {
		Properties *struct {
			Parameter *struct {
				T2M     map[string]float64 `json:"T2M"`
				PRECTOT map[string]float64 `json:"PRECTOT"`
			} `json:"parameter"`
		} `json:"properties"`
	}
	if err := p.ep.getJSON(ctx, values, nil, &payload); err != nil {
		return report.DailyClimate{}, false
	}
	if payload.Properties == nil || payload.Properties.Parameter == nil {
		return report.DailyClimate{}, false
	}

	param := payload.Properties.Parameter
	return report.DailyClimate{
		Temperature:   byDate(param.T2M),
		Precipitation: byDate(param.PRECTOT),
	}, true
}

// byDate flattens a YYYYMMDD-keyed series.
func byDate(series map[string]float64) []float64 {
	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]float64, 0, len(keys))
	for _, k := range keys {
		out = append(out, series[k])
	}
	return out
}
