package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/crop-advisor/internal/report"
)

var (
	berlin = report.Coordinates{Lat: 52.52, Lon: 13.405}
	june23 = report.MonthSpan(time.June, 2023)
)

// newServer serves body for every request and records the last query it saw.
func newServer(t *testing.T, status int, body string, seen *http.Request) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = *r.Clone(context.Background())
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func pointAt(ep *endpoint, srv *httptest.Server) {
	ep.baseURL = srv.URL
	ep.httpCfg.Client = srv.Client()
}

func TestNASAPowerDailyClimate(t *testing.T) {
	var seen http.Request
	srv := newServer(t, http.StatusOK, `{
		"properties": {"parameter": {
			"T2M": {"20230602": 18.5, "20230601": 17.0, "20230603": -999},
			"PRECTOT": {"20230601": 1.2, "20230602": 0, "20230603": 3.4}
		}}
	}`, &seen)

	p := NewNASAPower(nil)
	pointAt(p.ep, srv)

	got, ok := p.DailyClimate(context.Background(), berlin, june23)
	if !ok {
		t.Fatal("expected data")
	}
	if len(got.Temperature) != 3 || got.Temperature[0] != 17.0 || got.Temperature[2] != report.ClimateFillValue {
		t.Errorf("unexpected temperature series %v", got.Temperature)
	}
	if len(got.Precipitation) != 3 {
		t.Errorf("unexpected precipitation series %v", got.Precipitation)
	}

	q := seen.URL.Query()
	if q.Get("parameters") != "T2M,PRECTOT" || q.Get("start") != "20230601" || q.Get("end") != "20230630" {
		t.Errorf("unexpected query %v", q)
	}
}

func TestNASAPowerMissingParameterBlock(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"messages": ["bad request"]}`, nil)
	p := NewNASAPower(nil)
	pointAt(p.ep, srv)

	if _, ok := p.DailyClimate(context.Background(), berlin, june23); ok {
		t.Error("expected no data")
	}
}

func TestNASAPowerServerError(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, `oops`, nil)
	p := NewNASAPower(nil)
	pointAt(p.ep, srv)

	if _, ok := p.DailyClimate(context.Background(), berlin, june23); ok {
		t.Error("expected no data")
	}
}

func TestOpenMeteoArchivePrecipitation(t *testing.T) {
	var seen http.Request
	srv := newServer(t, http.StatusOK, `{"daily": {"precipitation_sum": [1.5, null, 2.5]}}`, &seen)
	p := NewOpenMeteoArchive(nil)
	pointAt(p.ep, srv)

	got, ok := p.Precipitation(context.Background(), berlin, june23)
	if !ok || got != 4 {
		t.Errorf("expected (4, true), got (%v, %v)", got, ok)
	}
	if seen.URL.Query().Get("start_date") != "2023-06-01" {
		t.Errorf("unexpected start_date %q", seen.URL.Query().Get("start_date"))
	}
}

func TestOpenMeteoArchiveAllNull(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"daily": {"precipitation_sum": [null, null]}}`, nil)
	p := NewOpenMeteoArchive(nil)
	pointAt(p.ep, srv)

	if _, ok := p.Precipitation(context.Background(), berlin, june23); ok {
		t.Error("expected no data")
	}
}

func TestMeteostatPrecipitation(t *testing.T) {
	var seen http.Request
	srv := newServer(t, http.StatusOK, `{"data": [
		{"date": "2023-06-01", "prcp": 0.4},
		{"date": "2023-06-02", "prcp": null},
		{"date": "2023-06-03", "prcp": 1.6}
	]}`, &seen)
	p := NewMeteostat(nil, "secret")
	pointAt(p.ep, srv)

	got, ok := p.Precipitation(context.Background(), berlin, june23)
	if !ok || got != 2 {
		t.Errorf("expected (2, true), got (%v, %v)", got, ok)
	}
	if seen.Header.Get("x-rapidapi-key") != "secret" {
		t.Errorf("expected api key header, got %q", seen.Header.Get("x-rapidapi-key"))
	}
}

func TestMeteostatAllNullIsNoData(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"data": [
		{"date": "2023-06-01", "prcp": null},
		{"date": "2023-06-02", "prcp": null}
	]}`, nil)
	p := NewMeteostat(nil, "secret")
	pointAt(p.ep, srv)

	if _, ok := p.Precipitation(context.Background(), berlin, june23); ok {
		t.Error("expected no data for an all-null series")
	}
}

func TestMeteostatWithoutKeyMakesNoCall(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	p := NewMeteostat(nil, "")
	pointAt(p.ep, srv)

	if _, ok := p.Precipitation(context.Background(), berlin, june23); ok {
		t.Error("expected no data")
	}
	if calls != 0 {
		t.Errorf("expected no requests, got %d", calls)
	}
}

func TestOpenWeatherCurrent(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"name": "Berlin", "main": {"temp": 21.3, "humidity": 64}}`, nil)
	p := NewOpenWeather(nil, "key")
	pointAt(p.ep, srv)

	got, ok := p.Current(context.Background(), berlin)
	if !ok {
		t.Fatal("expected data")
	}
	if got.Location != "Berlin" {
		t.Errorf("unexpected location %q", got.Location)
	}
	if f, _ := got.Temperature.Float(); f != 21.3 {
		t.Errorf("unexpected temperature %v", got.Temperature)
	}
	if !got.Pressure.IsNoData() {
		t.Errorf("expected missing pressure to be NoData, got %v", got.Pressure)
	}
}

func TestOpenWeatherRequiresMain(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"cod": "400", "message": "wrong latitude"}`, nil)
	p := NewOpenWeather(nil, "key")
	pointAt(p.ep, srv)

	if _, ok := p.Current(context.Background(), berlin); ok {
		t.Error("expected no data")
	}
}

func TestOpenWeatherDefaultsLocation(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"main": {"temp": 1, "humidity": 2, "pressure": 1000}}`, nil)
	p := NewOpenWeather(nil, "key")
	pointAt(p.ep, srv)

	got, ok := p.Current(context.Background(), berlin)
	if !ok || got.Location != "Unknown" {
		t.Errorf("expected Unknown location, got %q (%v)", got.Location, ok)
	}
}

func TestSoilGridsProperties(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prop := r.URL.Query().Get("property")
		switch prop {
		case "phh2o":
			_, _ = w.Write([]byte(`{"properties": {"layers": [{
				"name": "phh2o",
				"unit_measure": {"d_factor": 10},
				"depths": [{"label": "0-5cm", "values": {"mean": 65}}]
			}]}}`))
		case "soc":
			_, _ = w.Write([]byte(`{"properties": {"layers": [{
				"name": "soc",
				"unit_measure": {"d_factor": 10},
				"depths": [{"label": "0-5cm", "values": {"mean": null}}]
			}]}}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	p := NewSoilGrids(nil)
	pointAt(p.ep, srv)

	fields, ok := p.Properties(context.Background(), berlin)
	if !ok {
		t.Fatal("expected data")
	}
	if len(fields) != len(SoilProperties) {
		t.Fatalf("expected %d fields, got %d", len(SoilProperties), len(fields))
	}
	for i, f := range fields {
		if f.Key != SoilProperties[i] {
			t.Errorf("field %d: expected key %q, got %q", i, SoilProperties[i], f.Key)
		}
	}
	if v, _ := fields[0].Value.Float(); v != 6.5 {
		t.Errorf("expected pH 6.5, got %v", fields[0].Value)
	}
	for _, f := range fields[1:] {
		if !f.Value.IsNoData() {
			t.Errorf("%s: expected NoData, got %v", f.Key, f.Value)
		}
	}
}

func TestSoilGridsNoAnswers(t *testing.T) {
	srv := newServer(t, http.StatusServiceUnavailable, ``, nil)
	p := NewSoilGrids(nil)
	pointAt(p.ep, srv)

	if _, ok := p.Properties(context.Background(), berlin); ok {
		t.Error("expected no data")
	}
}

func TestOpenTopoDataElevation(t *testing.T) {
	var seen http.Request
	srv := newServer(t, http.StatusOK, `{"results": [{"elevation": 34.5}], "status": "OK"}`, &seen)
	p := NewOpenTopoData(nil)
	pointAt(p.ep, srv)

	got, ok := p.Elevation(context.Background(), berlin)
	if !ok {
		t.Fatal("expected data")
	}
	if f, _ := got.Float(); f != 34.5 {
		t.Errorf("unexpected elevation %v", got)
	}
	if !strings.HasPrefix(seen.URL.Query().Get("locations"), "52.52") {
		t.Errorf("unexpected locations %q", seen.URL.Query().Get("locations"))
	}
}

func TestOpenTopoDataNullAndEmpty(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"results": [{"elevation": null}]}`, nil)
	p := NewOpenTopoData(nil)
	pointAt(p.ep, srv)

	got, ok := p.Elevation(context.Background(), berlin)
	if !ok || !got.IsNoData() {
		t.Errorf("expected (NoData, true), got (%v, %v)", got, ok)
	}

	empty := newServer(t, http.StatusOK, `{"results": []}`, nil)
	pointAt(p.ep, empty)
	if _, ok := p.Elevation(context.Background(), berlin); ok {
		t.Error("expected no data for empty results")
	}
}

func TestDoRequestWithResilienceRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"results": [{"elevation": 1}]}`))
	}))
	defer srv.Close()

	p := NewOpenTopoData(nil)
	pointAt(p.ep, srv)
	p.ep.httpCfg.Backoff = BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

	if _, ok := p.Elevation(context.Background(), berlin); !ok {
		t.Fatal("expected success after retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDefaultBackoffMakesOneAttempt(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenTopoData(nil)
	pointAt(p.ep, srv)

	if _, ok := p.Elevation(context.Background(), berlin); ok {
		t.Error("expected no data")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
