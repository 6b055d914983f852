package report

import (
	"fmt"
	"strconv"
	"time"
)

// Coordinates is a geographic point in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Key returns a canonical string key for indexing this point in stores.
func (c Coordinates) Key() string {
	return strconv.FormatFloat(c.Lat, 'f', 4, 64) + "," + strconv.FormatFloat(c.Lon, 'f', 4, 64)
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", c.Lat, c.Lon)
}

// Window is the calendar month a survey is requested for.
type Window struct {
	Month time.Month `json:"month"`
	Year  int        `json:"year"`
}

// WindowAt returns the window containing t.
func WindowAt(t time.Time) Window {
	return Window{Month: t.Month(), Year: t.Year()}
}

// InFuture reports whether the window starts after the month containing now.
func (w Window) InFuture(now time.Time) bool {
	return w.Year > now.Year() || (w.Year == now.Year() && w.Month > now.Month())
}

// IsCurrent reports whether the window is the month containing now.
func (w Window) IsCurrent(now time.Time) bool {
	return w.Year == now.Year() && w.Month == now.Month()
}

// Span returns the day range of the window's month in the given year. When the
// window is the current month the range stops at today's day of month.
func (w Window) Span(year int, now time.Time) DateSpan {
	last := daysIn(w.Month, year)
	if w.IsCurrent(now) && now.Day() < last {
		last = now.Day()
	}
	return DateSpan{
		Start: time.Date(year, w.Month, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, w.Month, last, 0, 0, 0, 0, time.UTC),
	}
}

// MonthSpan returns the full calendar month.
func MonthSpan(month time.Month, year int) DateSpan {
	return DateSpan{
		Start: time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, month, daysIn(month, year), 0, 0, 0, 0, time.UTC),
	}
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateSpan is an inclusive range of whole days.
type DateSpan struct {
	Start time.Time
	End   time.Time
}

// String renders the span as "YYYYMMDD to YYYYMMDD".
func (s DateSpan) String() string {
	return s.Start.Format("20060102") + " to " + s.End.Format("20060102")
}
