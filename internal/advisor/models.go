package advisor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/crop-advisor/internal/crop"
	"github.com/i474232898/crop-advisor/internal/report"
)

// Site is a named location surveyed on a schedule.
type Site struct {
	Name        string             `json:"name"`
	Coordinates report.Coordinates `json:"coordinates"`
}

// Snapshot is one assembled report for a location and month, with the sensor
// vector extracted from it.
type Snapshot struct {
	ID          uuid.UUID          `json:"id"`
	Coordinates report.Coordinates `json:"coordinates"`
	Window      report.Window      `json:"window"`
	Report      report.Report      `json:"report"`
	Sensors     crop.SensorVector  `json:"sensors"`
	FetchedAt   time.Time          `json:"fetchedAt"` // always UTC
}

// Scoring bundles the fitness parameters with the accepted label columns.
type Scoring struct {
	Params       crop.Params `yaml:",inline"`
	LabelColumns []string    `yaml:"label_columns"`
}

// DefaultScoring returns the stock parameters and label columns.
func DefaultScoring() Scoring {
	return Scoring{
		Params:       crop.DefaultParams(),
		LabelColumns: crop.DefaultLabelColumns,
	}
}

// Assembler produces the report for a location and month.
type Assembler interface {
	Assemble(ctx context.Context, c report.Coordinates, w report.Window) report.Report
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveSnapshot(c report.Coordinates, snapshot Snapshot)
	GetLatest(c report.Coordinates) (Snapshot, error)
	GetRange(c report.Coordinates, from, to time.Time) ([]Snapshot, error)
}

// Sink receives every new snapshot, e.g. a message stream.
type Sink interface {
	Publish(ctx context.Context, snapshot Snapshot) error
}
