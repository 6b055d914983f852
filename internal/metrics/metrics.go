package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Provider metrics
var (
	// ProviderRequestsTotal counts outbound provider queries by outcome.
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crop_advisor_provider_requests_total",
			Help: "Total number of outbound provider queries",
		},
		[]string{"provider", "status"},
	)

	// ProviderRequestDuration tracks provider query latency.
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crop_advisor_provider_request_duration_seconds",
			Help:    "Duration of outbound provider queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// PrecipitationFallbacksTotal counts fallback precipitation lookups.
	PrecipitationFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crop_advisor_precipitation_fallbacks_total",
			Help: "Precipitation fallback lookups by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// ClimateLookbackYears tracks how many years the climate search needed.
	ClimateLookbackYears = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crop_advisor_climate_lookback_years",
			Help:    "Years queried before climate data was found or the search gave up",
			Buckets: []float64{1, 2, 3, 4, 5, 10},
		},
	)
)

// Pipeline metrics
var (
	// ReportsAssembledTotal counts assembled location reports.
	ReportsAssembledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crop_advisor_reports_assembled_total",
			Help: "Total number of location reports assembled",
		},
	)

	// RecommendationsTotal counts recommendation requests by mode and outcome.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crop_advisor_recommendations_total",
			Help: "Total number of crop recommendations",
		},
		[]string{"mode", "status"},
	)

	// AppStartTime records when the application started
	AppStartTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crop_advisor_app_start_time_seconds",
			Help: "Unix timestamp of when the application started",
		},
	)
)

func init() {
	AppStartTime.SetToCurrentTime()
}

// RecordProviderFetch records one provider query.
func RecordProviderFetch(provider string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordPrecipitationFallback records one fallback lookup.
func RecordPrecipitationFallback(provider string, ok bool) {
	outcome := "hit"
	if !ok {
		outcome = "miss"
	}
	PrecipitationFallbacksTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordRecommendation records a recommendation request.
func RecordRecommendation(mode string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RecommendationsTotal.WithLabelValues(mode, status).Inc()
}
