package report

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/i474232898/crop-advisor/internal/metrics"
)

// Assembler merges climate, weather, soil and terrain results into one Report.
// Nil collaborators yield their section's failure marker.
type Assembler struct {
	climate *Reconciler
	weather WeatherProvider
	soil    SoilProvider
	terrain TerrainProvider
}

// NewAssembler creates a new Assembler.
func NewAssembler(climate *Reconciler, weather WeatherProvider, soil SoilProvider, terrain TerrainProvider) *Assembler {
	return &Assembler{
		climate: climate,
		weather: weather,
		soil:    soil,
		terrain: terrain,
	}
}

// Assemble queries every source and places each outcome under its fixed section.
// Sources are queried concurrently.
func (a *Assembler) Assemble(ctx context.Context, c Coordinates, w Window) Report {
	var climate, weather, soil, elevation Section

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		climate = a.climateSection(gctx, c, w)
		return nil
	})
	g.Go(func() error {
		weather = a.weatherSection(gctx, c)
		return nil
	})
	g.Go(func() error {
		soil = a.soilSection(gctx, c)
		return nil
	})
	g.Go(func() error {
		elevation = a.elevationSection(gctx, c)
		return nil
	})
	// Sections never fail; errors collapse into markers.
	_ = g.Wait()

	metrics.ReportsAssembledTotal.Inc()
	return Report{Sections: []Section{climate, weather, soil, elevation}}
}

func (a *Assembler) climateSection(ctx context.Context, c Coordinates, w Window) Section {
	if a.climate == nil {
		return ScalarSection(SectionClimate, Text(MarkerNoClimate))
	}
	climate, err := a.climate.Resolve(ctx, c, w)
	if err != nil {
		log.Printf("INFO: climate unavailable for %s: %v", c, err)
		return ScalarSection(SectionClimate, Text(err.Error()))
	}
	return FieldSection(SectionClimate,
		Field{Key: FieldDateRange, Value: Text(climate.Span.String())},
		Field{Key: FieldAvgTemperature, Value: climate.AvgTemperature},
		Field{Key: FieldTotalPrecipitation, Value: climate.TotalPrecipitation},
	)
}

func (a *Assembler) weatherSection(ctx context.Context, c Coordinates) Section {
	if a.weather == nil {
		return ScalarSection(SectionWeather, Text(MarkerNoWeather))
	}
	cur, ok := a.weather.Current(ctx, c)
	if !ok {
		return ScalarSection(SectionWeather, Text(MarkerNoWeather))
	}
	return FieldSection(SectionWeather,
		Field{Key: FieldLocation, Value: Text(cur.Location)},
		Field{Key: FieldTemperature, Value: cur.Temperature},
		Field{Key: FieldHumidity, Value: cur.Humidity},
		Field{Key: FieldPressure, Value: cur.Pressure},
	)
}

func (a *Assembler) soilSection(ctx context.Context, c Coordinates) Section {
	if a.soil == nil {
		return ScalarSection(SectionSoil, Text(MarkerNoSoil))
	}
	fields, ok := a.soil.Properties(ctx, c)
	if !ok || len(fields) == 0 {
		return ScalarSection(SectionSoil, Text(MarkerNoSoil))
	}
	return FieldSection(SectionSoil, fields...)
}

func (a *Assembler) elevationSection(ctx context.Context, c Coordinates) Section {
	if a.terrain == nil {
		return ScalarSection(SectionElevation, Text(MarkerNoElevation))
	}
	elev, ok := a.terrain.Elevation(ctx, c)
	if !ok {
		return ScalarSection(SectionElevation, Text(MarkerNoElevation))
	}
	return FieldSection(SectionElevation, Field{Key: FieldElevation, Value: elev})
}
