package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/crop-advisor/internal/advisor"
	"github.com/i474232898/crop-advisor/internal/crop"
	"github.com/i474232898/crop-advisor/internal/geo"
	"github.com/i474232898/crop-advisor/internal/report"
	"github.com/i474232898/crop-advisor/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. resolver may be nil, in
// which case only coordinates are accepted.
func RegisterRoutes(app *fiber.App, service *advisor.Service, resolver *geo.Resolver) {
	h := &handlers{service: service, resolver: resolver, now: time.Now}

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")
	v1.Get("/sensor-data", h.sensorData)
	v1.Post("/recommendations", h.recommend)
	v1.Get("/reports/latest", h.latestReport)
	v1.Get("/reports/export", h.exportReport)
	v1.Get("/reports/history", h.reportHistory)
	v1.Get("/crops", h.crops)
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

type handlers struct {
	service  *advisor.Service
	resolver *geo.Resolver
	now      func() time.Time
}

func (h *handlers) sensorData(c *fiber.Ctx) error {
	var q surveyQuery
	if err := q.bind(c, h.now()); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	coords, err := h.locate(c, q.Location)
	if err != nil {
		return err
	}

	snapshot, err := h.service.Survey(c.UserContext(), coords, q.window())
	if err != nil {
		return toHTTPError(err)
	}

	missing := snapshot.Sensors.Missing()
	if missing == nil {
		missing = []string{}
	}
	return c.JSON(fiber.Map{
		"snapshot": snapshot,
		"sensors":  snapshot.Sensors,
		"missing":  missing,
	})
}

func (h *handlers) recommend(c *fiber.Ctx) error {
	var body recommendBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if err := validate.Struct(body); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	req := advisor.RecommendRequest{
		Sensors:        body.Sensors,
		SelectedPlants: body.SelectedPlants,
	}
	if body.locationQuery.given() {
		coords, err := h.locate(c, body.locationQuery)
		if err != nil {
			return err
		}
		req.Coordinates = &coords
		req.Window = body.window(h.now())
	}

	res, err := h.service.Recommend(c.UserContext(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(res)
}

func (h *handlers) latestReport(c *fiber.Ctx) error {
	coords, err := parseCoordinates(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	snapshot, err := h.service.GetLatest(coords)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(snapshot)
}

func (h *handlers) exportReport(c *fiber.Ctx) error {
	coords, err := parseCoordinates(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	snapshot, err := h.service.GetLatest(coords)
	if err != nil {
		return toHTTPError(err)
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, snapshot.Report); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to export report")
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="location_data_report.csv"`)
	return c.Send(buf.Bytes())
}

func (h *handlers) reportHistory(c *fiber.Ctx) error {
	var q historyQuery
	if err := q.bind(c); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	snapshots, err := h.service.GetRange(q.Coordinates, q.From, q.To)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no survey history for requested range")
		}
		return toHTTPError(err)
	}

	return c.JSON(fiber.Map{
		"coordinates": q.Coordinates,
		"from":        q.From,
		"to":          q.To,
		"snapshots":   snapshots,
	})
}

func (h *handlers) crops(c *fiber.Ctx) error {
	counts, err := h.service.CropCounts()
	if err != nil {
		return toHTTPError(err)
	}

	type cropCount struct {
		Crop  string `json:"crop"`
		Count int    `json:"count"`
	}
	list := make([]cropCount, 0, len(counts))
	total := 0
	for name, n := range counts {
		list = append(list, cropCount{Crop: name, Count: n})
		total += n
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Crop < list[j].Crop
	})

	return c.JSON(fiber.Map{
		"total": total,
		"crops": list,
	})
}

// locate returns the query's coordinates, geocoding city/country when no
// coordinates were given.
func (h *handlers) locate(c *fiber.Ctx, q locationQuery) (report.Coordinates, error) {
	if q.Lat != nil && q.Lon != nil {
		return report.Coordinates{Lat: *q.Lat, Lon: *q.Lon}, nil
	}
	if q.City == "" {
		return report.Coordinates{}, fiber.NewError(fiber.StatusBadRequest, "lat and lon, or city, are required")
	}
	coords, err := h.resolver.Resolve(c.UserContext(), q.City, q.Country)
	if err != nil {
		return report.Coordinates{}, toHTTPError(err)
	}
	return coords, nil
}

// toHTTPError maps domain errors onto status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, report.ErrFutureWindow),
		errors.Is(err, advisor.ErrInvalidSensors),
		errors.Is(err, geo.ErrEmptyQuery):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, crop.ErrMissingSensor),
		errors.Is(err, crop.ErrNoLabelColumn),
		errors.Is(err, crop.ErrMissingColumn),
		errors.Is(err, crop.ErrNoMatchingCrops),
		errors.Is(err, crop.ErrNoCrops):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no survey data for requested location")
	case errors.Is(err, geo.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, geo.ErrNotConfigured), errors.Is(err, advisor.ErrNoDataset):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// locationQuery identifies a location by coordinates or by city/country.
type locationQuery struct {
	Lat     *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon     *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
	City    string   `json:"city"`
	Country string   `json:"country"`
}

func (l locationQuery) given() bool {
	return l.Lat != nil || l.Lon != nil || l.City != ""
}

// windowQuery selects the month; zero fields default to the current month.
type windowQuery struct {
	Month int `json:"month" validate:"omitempty,min=1,max=12"`
	Year  int `json:"year" validate:"omitempty,min=1"`
}

func (w windowQuery) window(now time.Time) report.Window {
	win := report.WindowAt(now)
	if w.Month != 0 {
		win.Month = time.Month(w.Month)
	}
	if w.Year != 0 {
		win.Year = w.Year
	}
	return win
}

// surveyQuery holds query parameters for the sensor-data endpoint.
type surveyQuery struct {
	Location locationQuery
	Window   windowQuery
	now      time.Time
}

func (q *surveyQuery) bind(c *fiber.Ctx, now time.Time) error {
	q.now = now
	var err error
	if q.Location.Lat, err = optionalFloat(c, "lat"); err != nil {
		return err
	}
	if q.Location.Lon, err = optionalFloat(c, "lon"); err != nil {
		return err
	}
	q.Location.City = c.Query("city")
	q.Location.Country = c.Query("country")

	if q.Window.Month, err = optionalInt(c, "month"); err != nil {
		return err
	}
	if q.Window.Year, err = optionalInt(c, "year"); err != nil {
		return err
	}
	return nil
}

func (q surveyQuery) window() report.Window {
	return q.Window.window(q.now)
}

// recommendBody is the JSON body of the recommendation endpoint.
type recommendBody struct {
	locationQuery
	windowQuery
	Sensors        crop.SensorVector `json:"sensors"`
	SelectedPlants []string          `json:"selected_plants" validate:"dive,required"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Coordinates report.Coordinates
	From        time.Time `validate:"required"`
	To          time.Time `validate:"required,gtefield=From"`
}

func (q *historyQuery) bind(c *fiber.Ctx) error {
	coords, err := parseCoordinates(c)
	if err != nil {
		return err
	}
	q.Coordinates = coords

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}
	if q.From, err = parseTime(fromStr); err != nil {
		return err
	}
	if q.To, err = parseTime(toStr); err != nil {
		return err
	}
	return nil
}

// parseTime accepts RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use RFC3339 or Unix seconds", s)
	}
	return time.Unix(sec, 0).UTC(), nil
}

func parseCoordinates(c *fiber.Ctx) (report.Coordinates, error) {
	lat, err := optionalFloat(c, "lat")
	if err != nil {
		return report.Coordinates{}, err
	}
	lon, err := optionalFloat(c, "lon")
	if err != nil {
		return report.Coordinates{}, err
	}
	if lat == nil || lon == nil {
		return report.Coordinates{}, errors.New("lat and lon query parameters are required")
	}
	q := locationQuery{Lat: lat, Lon: lon}
	if err := validate.Struct(q); err != nil {
		return report.Coordinates{}, err
	}
	return report.Coordinates{Lat: *lat, Lon: *lon}, nil
}

func optionalFloat(c *fiber.Ctx, key string) (*float64, error) {
	s := c.Query(key)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", key, s)
	}
	return &v, nil
}

func optionalInt(c *fiber.Ctx, key string) (int, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return v, nil
}
