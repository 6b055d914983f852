package providers

import (
	"context"
	"log"
	"net/http"
	"net/url"

	"github.com/i474232898/crop-advisor/internal/report"
)

// OpenWeather implements report.WeatherProvider for OpenWeatherMap current conditions.
type OpenWeather struct {
	apiKey string
	ep     *endpoint
}

func NewOpenWeather(client *http.Client, apiKey string) *OpenWeather {
	return &OpenWeather{
		apiKey: apiKey,
		ep:     newEndpoint("openweathermap", "https://api.openweathermap.org/data/2.5/weather", client),
	}
}

func (p *OpenWeather) Name() string {
	return p.ep.name
}

func (p *OpenWeather) Current(ctx context.Context, c report.Coordinates) (report.CurrentWeather, bool) {
	if p.apiKey == "" {
		log.Printf("DEBUG: %s: api key is not configured", p.ep.name)
		return report.CurrentWeather{}, false
	}

	values := url.Values{}
	values.Set("lat", formatCoord(c.Lat))
	values.Set("lon", formatCoord(c.Lon))
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")

	var payload struct {
		Name *string `json:"name"`
		Main *struct {
			Temp     *float64 `json:"temp"`
			Humidity *float64 `json:"humidity"`
			Pressure *float64 `json:"pressure"`
		} `json:"main"`
	}
	if err := p.ep.getJSON(ctx, values, nil, &payload); err != nil {
		return report.CurrentWeather{}, false
	}
	if payload.Main == nil {
		return report.CurrentWeather{}, false
	}

	location := "Unknown"
	if payload.Name != nil {
		location = *payload.Name
	}
	return report.CurrentWeather{
		Location:    location,
		Temperature: report.OptionalNumber(payload.Main.Temp),
		Humidity:    report.OptionalNumber(payload.Main.Humidity),
		Pressure:    report.OptionalNumber(payload.Main.Pressure),
	}, true
}
