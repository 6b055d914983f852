package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordProviderFetch(t *testing.T) {
	before := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("test-provider", "error"))

	RecordProviderFetch("test-provider", 20*time.Millisecond, errors.New("boom"))
	RecordProviderFetch("test-provider", 10*time.Millisecond, nil)

	if got := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("test-provider", "error")); got != before+1 {
		t.Errorf("expected error count %v, got %v", before+1, got)
	}
	if got := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("test-provider", "success")); got < 1 {
		t.Errorf("expected at least one success, got %v", got)
	}
}

func TestRecordPrecipitationFallback(t *testing.T) {
	RecordPrecipitationFallback("station", false)
	RecordPrecipitationFallback("station", true)
	RecordPrecipitationFallback("station", true)

	if got := testutil.ToFloat64(PrecipitationFallbacksTotal.WithLabelValues("station", "hit")); got != 2 {
		t.Errorf("expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(PrecipitationFallbacksTotal.WithLabelValues("station", "miss")); got != 1 {
		t.Errorf("expected 1 miss, got %v", got)
	}
}

func TestRecordRecommendation(t *testing.T) {
	RecordRecommendation("manual", nil)
	RecordRecommendation("manual", errors.New("missing sensors"))

	if got := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("manual", "success")); got != 1 {
		t.Errorf("expected 1 success, got %v", got)
	}
	if got := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("manual", "error")); got != 1 {
		t.Errorf("expected 1 error, got %v", got)
	}
}
