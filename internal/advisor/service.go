package advisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/crop-advisor/internal/crop"
	"github.com/i474232898/crop-advisor/internal/metrics"
	"github.com/i474232898/crop-advisor/internal/report"
)

var (
	// ErrNoDataset is returned when recommendations are requested without reference data.
	ErrNoDataset = errors.New("crop dataset not loaded")
	// ErrInvalidSensors wraps sensor values outside the accepted ranges.
	ErrInvalidSensors = errors.New("invalid sensor values")
)

// Recommendation modes, also used as metric labels.
const (
	ModeManual   = "manual"
	ModeLocation = "location"
)

// RecommendRequest asks for the best crop. With Coordinates the report for Window is
// assembled and its sensors take precedence; Sensors fill whatever is still absent.
// A non-empty SelectedPlants restricts scoring to those crops.
type RecommendRequest struct {
	Coordinates    *report.Coordinates
	Window         report.Window
	Sensors        crop.SensorVector
	SelectedPlants []string
}

// RecommendResult is the chosen crop, the sensors it was scored with, and the
// snapshot they came from when a location was given.
type RecommendResult struct {
	crop.Recommendation
	Mode     string            `json:"mode"`
	Sensors  crop.SensorVector `json:"sensors"`
	Snapshot *Snapshot         `json:"snapshot,omitempty"`
}

// Service orchestrates report assembly, snapshot persistence and crop scoring.
type Service struct {
	assembler Assembler
	store     Store
	sink      Sink
	dataset   *crop.Dataset
	scoring   Scoring
	now       func() time.Time
}

// NewService creates a new Service. dataset and sink may be nil.
func NewService(assembler Assembler, store Store, dataset *crop.Dataset, scoring Scoring, sink Sink) *Service {
	return &Service{
		assembler: assembler,
		store:     store,
		sink:      sink,
		dataset:   dataset,
		scoring:   scoring,
		now:       time.Now,
	}
}

// Survey assembles the report for a location and month, stores it and hands it to
// the sink. Sink failures are logged and do not fail the survey.
func (s *Service) Survey(ctx context.Context, c report.Coordinates, w report.Window) (Snapshot, error) {
	now := s.now()
	if w.InFuture(now) {
		return Snapshot{}, report.ErrFutureWindow
	}
	if s.assembler == nil {
		return Snapshot{}, fmt.Errorf("no report assembler configured")
	}

	log.Printf("DEBUG: Survey called for %s, %s %d", c, w.Month, w.Year)
	r := s.assembler.Assemble(ctx, c, w)

	snapshot := Snapshot{
		ID:          uuid.New(),
		Coordinates: c,
		Window:      w,
		Report:      r,
		Sensors:     report.ExtractSensors(r),
		FetchedAt:   now.UTC(),
	}
	if missing := snapshot.Sensors.Missing(); len(missing) > 0 {
		log.Printf("INFO: survey for %s is missing sensors %v", c, missing)
	}

	s.store.SaveSnapshot(c, snapshot)

	if s.sink != nil {
		if err := s.sink.Publish(ctx, snapshot); err != nil {
			log.Printf("ERROR: publish snapshot %s for %s: %v", snapshot.ID, c, err)
		}
	}
	return snapshot, nil
}

// Recommend scores the reference crops against the request's sensors.
func (s *Service) Recommend(ctx context.Context, req RecommendRequest) (RecommendResult, error) {
	mode := ModeManual
	if req.Coordinates != nil {
		mode = ModeLocation
	}
	res, err := s.recommend(ctx, req, mode)
	metrics.RecordRecommendation(mode, err)
	return res, err
}

func (s *Service) recommend(ctx context.Context, req RecommendRequest, mode string) (RecommendResult, error) {
	if s.dataset == nil {
		return RecommendResult{}, ErrNoDataset
	}

	res := RecommendResult{Mode: mode, Sensors: req.Sensors}
	if req.Coordinates != nil {
		snapshot, err := s.Survey(ctx, *req.Coordinates, req.Window)
		if err != nil {
			return RecommendResult{}, fmt.Errorf("survey %s: %w", req.Coordinates, err)
		}
		res.Snapshot = &snapshot
		res.Sensors = snapshot.Sensors.Fill(req.Sensors)
	}

	if err := res.Sensors.Validate(); err != nil {
		return RecommendResult{}, fmt.Errorf("%w: %v", ErrInvalidSensors, err)
	}

	ds := s.dataset
	if len(req.SelectedPlants) > 0 {
		filtered, err := ds.Filter(req.SelectedPlants, s.scoring.LabelColumns)
		if err != nil {
			return RecommendResult{}, err
		}
		ds = filtered
	}

	optimal, err := crop.BuildOptimal(ds, s.scoring.LabelColumns)
	if err != nil {
		return RecommendResult{}, fmt.Errorf("build reference conditions: %w", err)
	}

	rec, err := crop.Recommend(res.Sensors, optimal, s.scoring.Params)
	if err != nil {
		return RecommendResult{}, err
	}
	log.Printf("INFO: recommended %s (score %.4f) in %s mode", rec.Crop, rec.Score, mode)

	res.Recommendation = rec
	return res, nil
}

// CropCounts returns the number of reference rows per crop.
func (s *Service) CropCounts() (map[string]int, error) {
	if s.dataset == nil {
		return nil, ErrNoDataset
	}
	return s.dataset.Counts(s.scoring.LabelColumns)
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(c report.Coordinates) (Snapshot, error) {
	return s.store.GetLatest(c)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(c report.Coordinates, from, to time.Time) ([]Snapshot, error) {
	return s.store.GetRange(c, from, to)
}
