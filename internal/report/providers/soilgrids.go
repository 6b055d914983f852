package providers

import (
	"context"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/crop-advisor/internal/report"
)

// SoilDepth is the layer every property is read at.
const SoilDepth = "0-5cm"

// SoilProperties are queried in this order and reported as fields with these keys.
var SoilProperties = []string{"phh2o", "soc", "clay", "silt", "sand", "cec", "cfvo"}

// SoilGrids implements report.SoilProvider for the ISRIC SoilGrids v2 properties API.
type SoilGrids struct {
	ep *endpoint
}

func NewSoilGrids(client *http.Client) *SoilGrids {
	return &SoilGrids{
		ep: newEndpoint("soilgrids", "https://rest.isric.org/soilgrids/v2.0/properties/query", client),
	}
}

func (p *SoilGrids) Name() string {
	return p.ep.name
}

// Properties queries each soil property separately. A property that cannot be read
// is reported as NoData; ok is false only when no query got an answer at all.
func (p *SoilGrids) Properties(ctx context.Context, c report.Coordinates) ([]report.Field, bool) {
	type result struct {
		value    report.Value
		answered bool
	}
	results := make([]result, len(SoilProperties))

	g, gctx := errgroup.WithContext(ctx)
	for i, prop := range SoilProperties {
		i, prop := i, prop
		g.Go(func() error {
			v, answered := p.property(gctx, c, prop)
			results[i] = result{value: v, answered: answered}
			return nil
		})
	}
	_ = g.Wait()

	fields := make([]report.Field, 0, len(SoilProperties))
	var answered bool
	for i, prop := range SoilProperties {
		answered = answered || results[i].answered
		fields = append(fields, report.Field{Key: prop, Value: results[i].value})
	}
	if !answered {
		return nil, false
	}
	return fields, true
}

// property returns the mean of one property at SoilDepth in conventional units.
func (p *SoilGrids) property(ctx context.Context, c report.Coordinates, prop string) (report.Value, bool) {
	values := url.Values{}
	values.Set("lat", formatCoord(c.Lat))
	values.Set("lon", formatCoord(c.Lon))
	values.Set("property", prop)
	values.Set("depth", SoilDepth)
	values.Set("value", "mean")

	var payload struct {
		Properties struct {
			Layers []struct {
				Name        string `json:"name"`
				UnitMeasure struct {
					DFactor float64 `json:"d_factor"`
				} `json:"unit_measure"`
				Depths []struct {
					Label  string `json:"label"`
					Values struct {
						Mean *float64 `json:"mean"`
					} `json:"values"`
				} `json:"depths"`
			} `json:"layers"`
		} `json:"properties"`
	}
	if err := p.ep.getJSON(ctx, values, nil, &payload); err != nil {
		return report.NoData, false
	}

	for _, layer := range payload.Properties.Layers {
		if layer.Name != prop {
			continue
		}
		for _, d := range layer.Depths {
			if d.Label != SoilDepth || d.Values.Mean == nil {
				continue
			}
			mean := *d.Values.Mean
			if layer.UnitMeasure.DFactor > 0 {
				mean /= layer.UnitMeasure.DFactor
			}
			return report.Number(mean), true
		}
	}
	return report.NoData, true
}
