package geo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/crop-advisor/internal/report"
)

var (
	// ErrNotConfigured is returned when no geocoding key was provided.
	ErrNotConfigured = errors.New("geocoder api key is not configured")
	// ErrEmptyQuery is returned when the city is blank.
	ErrEmptyQuery = errors.New("city is required")
	// ErrNotFound is returned when the address does not resolve.
	ErrNotFound = errors.New("location not found")
)

// Resolver turns a city and country into coordinates.
type Resolver struct {
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// NewResolver configures the geocoder with apiKey. It returns nil when apiKey is empty.
func NewResolver(apiKey string) *Resolver {
	if apiKey == "" {
		return nil
	}
	geocoder.ApiKey = apiKey
	return &Resolver{lookup: geocoder.Geocoding}
}

// Resolve geocodes city/country. The underlying client takes no context, so the
// lookup runs in its own goroutine and ctx only bounds the wait.
func (r *Resolver) Resolve(ctx context.Context, city, country string) (report.Coordinates, error) {
	if r == nil || r.lookup == nil {
		return report.Coordinates{}, ErrNotConfigured
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return report.Coordinates{}, ErrEmptyQuery
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)
	go func() {
		loc, err := r.lookup(geocoder.Address{City: city, Country: strings.TrimSpace(country)})
		done <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return report.Coordinates{}, ctx.Err()
	case res := <-done:
		if res.err != nil {
			log.Printf("ERROR: geocoder: lookup %s,%s failed: %v", city, country, res.err)
			return report.Coordinates{}, fmt.Errorf("%w: %s, %s", ErrNotFound, city, country)
		}
		c := report.Coordinates{Lat: res.loc.Latitude, Lon: res.loc.Longitude}
		log.Printf("DEBUG: geocoder: %s,%s resolved to %s", city, country, c)
		return c, nil
	}
}
