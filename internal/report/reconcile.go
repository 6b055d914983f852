package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/i474232898/crop-advisor/internal/metrics"
)

// ClimateFillValue is the primary climate source's documented "no reading" value.
const ClimateFillValue = -999.0

// DefaultMaxYearsBack is how many years the reconciler searches by default.
const DefaultMaxYearsBack = 5

var (
	// ErrFutureWindow is returned for windows after the current month.
	ErrFutureWindow = errors.New("input month/year is in the future; provide a month up to the current month")
	// ErrNoClimateData is matched by *NoClimateDataError.
	ErrNoClimateData = errors.New("no climate data")
)

// NoClimateDataError reports an exhausted lookback.
type NoClimateDataError struct {
	Month     time.Month
	YearsBack int
	Year      int
}

func (e *NoClimateDataError) Error() string {
	return fmt.Sprintf("no climate data for month %d in past %d years from %d", int(e.Month), e.YearsBack, e.Year)
}

func (e *NoClimateDataError) Is(target error) bool {
	return target == ErrNoClimateData
}

// PrecipitationFallback is one row of the precipitation fallback policy.
// FullMonth queries the whole calendar month instead of the primary's span.
type PrecipitationFallback struct {
	Provider  PrecipitationProvider
	FullMonth bool
}

// Climate is a resolved month: the span actually queried and both aggregates,
// either of which may still be NoData.
type Climate struct {
	Span               DateSpan
	AvgTemperature     Value
	TotalPrecipitation Value
}

// Reconciler resolves a month's climate from the primary source, walking back
// one year at a time and filling precipitation from the fallback policy.
type Reconciler struct {
	primary      ClimateProvider
	fallbacks    []PrecipitationFallback
	maxYearsBack int
	now          func() time.Time
}

// NewReconciler creates a Reconciler. A non-positive maxYearsBack uses DefaultMaxYearsBack.
func NewReconciler(primary ClimateProvider, fallbacks []PrecipitationFallback, maxYearsBack int) *Reconciler {
	if maxYearsBack <= 0 {
		maxYearsBack = DefaultMaxYearsBack
	}
	return &Reconciler{
		primary:      primary,
		fallbacks:    fallbacks,
		maxYearsBack: maxYearsBack,
		now:          time.Now,
	}
}

// WithClock replaces the reconciler's notion of "now".
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Resolve returns the most recent year's climate for the window's month. It stops at
// the first year that yields either aggregate, preferring recency over completeness.
func (r *Reconciler) Resolve(ctx context.Context, c Coordinates, w Window) (Climate, error) {
	now := r.now()
	if w.InFuture(now) {
		return Climate{}, ErrFutureWindow
	}

	for attempt := 0; attempt < r.maxYearsBack; attempt++ {
		year := w.Year - attempt
		span := w.Span(year, now)

		log.Printf("DEBUG: climate: fetching %s for %s from %s", span, c, r.primary.Name())
		daily, ok := r.primary.DailyClimate(ctx, c, span)
		if !ok {
			continue
		}

		avg := meanValid(daily.Temperature)
		total := sumValid(daily.Precipitation)
		if total.IsNoData() {
			total = r.fallbackPrecipitation(ctx, c, span, w.Month, year)
		}

		if !avg.IsNoData() || !total.IsNoData() {
			metrics.ClimateLookbackYears.Observe(float64(attempt + 1))
			return Climate{Span: span, AvgTemperature: avg, TotalPrecipitation: total}, nil
		}
	}

	metrics.ClimateLookbackYears.Observe(float64(r.maxYearsBack))
	return Climate{}, &NoClimateDataError{Month: w.Month, YearsBack: r.maxYearsBack, Year: w.Year}
}

// fallbackPrecipitation walks the policy in order and returns the first result.
func (r *Reconciler) fallbackPrecipitation(ctx context.Context, c Coordinates, span DateSpan, month time.Month, year int) Value {
	for _, fb := range r.fallbacks {
		s := span
		if fb.FullMonth {
			s = MonthSpan(month, year)
		}
		log.Printf("INFO: climate: precipitation missing; trying %s for %s", fb.Provider.Name(), s)
		total, ok := fb.Provider.Precipitation(ctx, c, s)
		metrics.RecordPrecipitationFallback(fb.Provider.Name(), ok)
		if ok {
			return Number(total)
		}
	}
	return NoData
}

func meanValid(values []float64) Value {
	var sum float64
	var n int
	for _, v := range values {
		if v == ClimateFillValue {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return NoData
	}
	return Number(sum / float64(n))
}

func sumValid(values []float64) Value {
	var sum float64
	var n int
	for _, v := range values {
		if v == ClimateFillValue {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return NoData
	}
	return Number(sum)
}
