package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/crop-advisor/internal/report"
)

// OpenTopoData implements report.TerrainProvider using the SRTM 90m dataset.
type OpenTopoData struct {
	ep *endpoint
}

func NewOpenTopoData(client *http.Client) *OpenTopoData {
	return &OpenTopoData{
		ep: newEndpoint("opentopodata", "https://api.opentopodata.org/v1/srtm90m", client),
	}
}

func (p *OpenTopoData) Name() string {
	return p.ep.name
}

// Elevation returns the first result's elevation; a null elevation is NoData.
func (p *OpenTopoData) Elevation(ctx context.Context, c report.Coordinates) (report.Value, bool) {
	values := url.Values{}
	values.Set("locations", fmt.Sprintf("%s,%s", formatCoord(c.Lat), formatCoord(c.Lon)))

	var payload struct {
		Results []struct {
			Elevation *float64 `json:"elevation"`
		} `json:"results"`
	}
	if err := p.ep.getJSON(ctx, values, nil, &payload); err != nil {
		return report.NoData, false
	}
	if len(payload.Results) == 0 {
		return report.NoData, false
	}
	return report.OptionalNumber(payload.Results[0].Elevation), true
}
