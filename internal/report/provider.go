package report

import "context"

// Every provider returns (value, ok). ok == false is the "no data" marker: transport,
// status and decoding failures never cross the provider boundary.

// DailyClimate holds the raw daily series of the primary climate source, fill values included.
type DailyClimate struct {
	Temperature   []float64
	Precipitation []float64
}

// ClimateProvider is the primary climate source.
type ClimateProvider interface {
	Name() string
	DailyClimate(ctx context.Context, c Coordinates, span DateSpan) (DailyClimate, bool)
}

// PrecipitationProvider is a fallback source for a span's total precipitation.
type PrecipitationProvider interface {
	Name() string
	Precipitation(ctx context.Context, c Coordinates, span DateSpan) (float64, bool)
}

// CurrentWeather is a weather observation; each measurement may be NoData.
type CurrentWeather struct {
	Location    string
	Temperature Value
	Humidity    Value
	Pressure    Value
}

// WeatherProvider abstracts a current-conditions source.
type WeatherProvider interface {
	Name() string
	Current(ctx context.Context, c Coordinates) (CurrentWeather, bool)
}

// SoilProvider returns one field per soil property; each property resolves on its own.
type SoilProvider interface {
	Name() string
	Properties(ctx context.Context, c Coordinates) ([]Field, bool)
}

// TerrainProvider returns the ground elevation in meters, which may itself be NoData.
type TerrainProvider interface {
	Name() string
	Elevation(ctx context.Context, c Coordinates) (Value, bool)
}
