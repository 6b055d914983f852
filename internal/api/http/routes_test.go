package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/crop-advisor/internal/advisor"
	"github.com/i474232898/crop-advisor/internal/crop"
	"github.com/i474232898/crop-advisor/internal/report"
	"github.com/i474232898/crop-advisor/internal/store"
)

// fixedAssembler returns a report matching the tomato reference row.
type fixedAssembler struct{}

func (fixedAssembler) Assemble(context.Context, report.Coordinates, report.Window) report.Report {
	var r report.Report
	r.Set(report.FieldSection(report.SectionClimate,
		report.Field{Key: report.FieldDateRange, Value: report.Text("20240101 to 20240131")},
		report.Field{Key: report.FieldAvgTemperature, Value: report.Number(25)},
		report.Field{Key: report.FieldTotalPrecipitation, Value: report.Number(100)},
	))
	r.Set(report.FieldSection(report.SectionWeather,
		report.Field{Key: report.FieldLocation, Value: report.Text("Testville")},
		report.Field{Key: report.FieldTemperature, Value: report.Number(25)},
		report.Field{Key: report.FieldHumidity, Value: report.Number(80)},
		report.Field{Key: report.FieldPressure, Value: report.Number(1013)},
	))
	r.Set(report.ScalarSection(report.SectionSoil, report.Text(report.MarkerNoSoil)))
	r.Set(report.FieldSection(report.SectionElevation,
		report.Field{Key: report.FieldElevation, Value: report.NoData},
	))
	return r
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})

	ds := crop.NewDataset(
		[]string{"label", "Temperature", "Humidity", "pH", "Rainfall"},
		[][]string{
			{"tomato", "25", "80", "6.5", "100"},
			{"tomato", "25", "80", "6.5", "100"},
			{"rice", "30", "85", "6.0", "200"},
		},
	)
	svc := advisor.NewService(fixedAssembler{}, store.NewMemoryStore(10, time.Hour), ds, advisor.DefaultScoring(), nil)
	RegisterRoutes(app, svc, nil)
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}
	return resp, body
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func TestSensorDataValidation(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"no location", "/api/v1/sensor-data", http.StatusBadRequest},
		{"bad latitude", "/api/v1/sensor-data?lat=abc&lon=1", http.StatusBadRequest},
		{"latitude out of range", "/api/v1/sensor-data?lat=95&lon=1", http.StatusBadRequest},
		{"bad month", "/api/v1/sensor-data?lat=1&lon=1&month=13", http.StatusBadRequest},
		{"future window", "/api/v1/sensor-data?lat=1&lon=1&month=1&year=2999", http.StatusBadRequest},
		{"city without geocoder", "/api/v1/sensor-data?city=Paris&country=FR", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if resp.StatusCode != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestSensorData(t *testing.T) {
	app := newTestApp(t)

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/sensor-data?lat=10&lon=20&month=1&year=2024", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	missing, _ := body["missing"].([]interface{})
	if len(missing) != 1 || missing[0] != "pH" {
		t.Errorf("expected pH to be missing, got %v", body["missing"])
	}
	sensors := body["sensors"].(map[string]interface{})
	if sensors["T"] != 25.0 {
		t.Errorf("unexpected sensors %v", sensors)
	}
}

func TestRecommendations(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		body string
		want int
		crop string
	}{
		{
			name: "manual",
			body: `{"sensors": {"T": 25, "H": 80, "P": 1013, "T_avg": 25, "AP": 100, "pH": 6.5}}`,
			want: http.StatusOK,
			crop: "tomato",
		},
		{
			name: "location filled from body",
			body: `{"lat": 10, "lon": 20, "month": 1, "year": 2024, "sensors": {"pH": 6.0}}`,
			want: http.StatusOK,
			crop: "tomato",
		},
		{
			name: "selective",
			body: `{"sensors": {"T": 25, "H": 80, "P": 1013, "T_avg": 25, "AP": 100, "pH": 6.5}, "selected_plants": ["rice"]}`,
			want: http.StatusOK,
			crop: "rice",
		},
		{
			name: "missing sensors",
			body: `{"sensors": {"T": 25}}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "location still missing pH",
			body: `{"lat": 10, "lon": 20, "month": 1, "year": 2024}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "out of range",
			body: `{"sensors": {"T": 25, "H": 150, "P": 1013, "T_avg": 25, "AP": 100, "pH": 6.5}}`,
			want: http.StatusBadRequest,
		},
		{
			name: "unknown plants",
			body: `{"sensors": {"T": 25, "H": 80, "P": 1013, "T_avg": 25, "AP": 100, "pH": 6.5}, "selected_plants": ["cactus"]}`,
			want: http.StatusUnprocessableEntity,
		},
		{
			name: "malformed",
			body: `{"sensors": `,
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, app, postJSON("/api/v1/recommendations", tt.body))
			if resp.StatusCode != tt.want {
				t.Fatalf("expected status %d, got %d (%v)", tt.want, resp.StatusCode, body)
			}
			if tt.crop != "" && body["crop"] != tt.crop {
				t.Errorf("expected crop %q, got %v", tt.crop, body["crop"])
			}
		})
	}
}

func TestMissingSensorsAreListed(t *testing.T) {
	app := newTestApp(t)

	_, body := do(t, app, postJSON("/api/v1/recommendations", `{"sensors": {"T": 25, "H": 80}}`))
	msg, _ := body["message"].(string)
	for _, key := range []string{"P", "T_avg", "AP", "pH"} {
		if !strings.Contains(msg, key) {
			t.Errorf("expected %q in message %q", key, msg)
		}
	}
}

func TestLatestAndExport(t *testing.T) {
	app := newTestApp(t)

	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/reports/latest?lat=10&lon=20", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d before any survey, got %d", http.StatusNotFound, resp.StatusCode)
	}

	do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/sensor-data?lat=10&lon=20&month=1&year=2024", nil))

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/reports/latest?lat=10&lon=20", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	rep := body["report"].(map[string]interface{})
	if rep[report.SectionSoil] != report.MarkerNoSoil {
		t.Errorf("unexpected soil section %v", rep[report.SectionSoil])
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/reports/export?lat=10&lon=20", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), "text/csv") {
		t.Errorf("unexpected content type %q", resp.Header.Get(fiber.HeaderContentType))
	}
	raw, _ := io.ReadAll(resp.Body)
	csv := string(raw)
	if !strings.HasPrefix(csv, "Section,Key,Value\n") {
		t.Errorf("missing CSV header: %q", csv)
	}
	if !strings.Contains(csv, "Elevation Data,Elevation (meters),\n") {
		t.Errorf("expected empty cell for missing elevation: %q", csv)
	}

	back, err := report.ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := report.ExtractSensors(back).Get(crop.SensorAP); !ok || v != 100 {
		t.Errorf("expected AP 100 after re-reading the export, got %v (%v)", v, ok)
	}
}

func TestReportHistory(t *testing.T) {
	app := newTestApp(t)
	from := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	to := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	target := "/api/v1/reports/history?lat=10&lon=20&from=" + from + "&to=" + to

	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, target, nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d before any survey, got %d", http.StatusNotFound, resp.StatusCode)
	}

	do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/sensor-data?lat=10&lon=20&month=1&year=2024", nil))
	do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/sensor-data?lat=10&lon=20&month=2&year=2024", nil))

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, target, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%v)", http.StatusOK, resp.StatusCode, body)
	}
	snapshots, _ := body["snapshots"].([]interface{})
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}

	tests := []struct {
		name   string
		target string
	}{
		{"missing range", "/api/v1/reports/history?lat=10&lon=20"},
		{"bad time", "/api/v1/reports/history?lat=10&lon=20&from=yesterday&to=" + to},
		{"inverted range", "/api/v1/reports/history?lat=10&lon=20&from=" + to + "&to=0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
			}
		})
	}
}

func TestLatestRequiresCoordinates(t *testing.T) {
	app := newTestApp(t)
	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/reports/latest?lat=10", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestCrops(t *testing.T) {
	app := newTestApp(t)

	resp, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/crops", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if body["total"] != 3.0 {
		t.Errorf("expected total 3, got %v", body["total"])
	}
	crops := body["crops"].([]interface{})
	first := crops[0].(map[string]interface{})
	if first["crop"] != "tomato" || first["count"] != 2.0 {
		t.Errorf("unexpected first entry %v", first)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "crop_advisor_app_start_time_seconds") {
		t.Error("expected application metrics in the exposition")
	}
}
