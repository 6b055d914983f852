package crop

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Sensor keys, in scoring order.
const (
	SensorT    = "T"
	SensorH    = "H"
	SensorP    = "P"
	SensorTAvg = "T_avg"
	SensorAP   = "AP"
	SensorPH   = "pH"
)

// SensorKeys lists the six variables the scorer needs.
var SensorKeys = []string{SensorT, SensorH, SensorP, SensorTAvg, SensorAP, SensorPH}

// ErrMissingSensor is matched by *MissingSensorError.
var ErrMissingSensor = errors.New("missing sensor value")

// MissingSensorError names the sensor fields that were absent at scoring time.
type MissingSensorError struct {
	Fields []string
}

func (e *MissingSensorError) Error() string {
	return "missing sensor values: " + strings.Join(e.Fields, ", ")
}

func (e *MissingSensorError) Is(target error) bool {
	return target == ErrMissingSensor
}

// SensorVector is the six-variable environmental snapshot. A nil field is absent.
// Units: T and T_avg in °C, H in %, P in hPa, AP in mm over the month, pH unitless.
// The validate tags hold the accepted ranges for manually supplied values.
type SensorVector struct {
	T    *float64 `json:"T" validate:"omitempty,gte=-50,lte=60"`
	H    *float64 `json:"H" validate:"omitempty,gte=0,lte=100"`
	P    *float64 `json:"P" validate:"omitempty,gte=900,lte=1100"`
	TAvg *float64 `json:"T_avg" validate:"omitempty,gte=-50,lte=60"`
	AP   *float64 `json:"AP" validate:"omitempty,gte=0,lte=1000"`
	PH   *float64 `json:"pH" validate:"omitempty,gte=0,lte=14"`
}

// NewSensorVector returns a vector with every field present.
func NewSensorVector(t, h, p, tAvg, ap, ph float64) SensorVector {
	return SensorVector{T: &t, H: &h, P: &p, TAvg: &tAvg, AP: &ap, PH: &ph}
}

func (s *SensorVector) fields() [6]**float64 {
	return [6]**float64{&s.T, &s.H, &s.P, &s.TAvg, &s.AP, &s.PH}
}

// Get returns the value stored under one of SensorKeys.
func (s SensorVector) Get(key string) (float64, bool) {
	for i, f := range s.fields() {
		if SensorKeys[i] == key && *f != nil {
			return **f, true
		}
	}
	return 0, false
}

// Set stores v under one of SensorKeys; unknown keys are ignored.
func (s *SensorVector) Set(key string, v float64) {
	for i, f := range s.fields() {
		if SensorKeys[i] == key {
			val := v
			*f = &val
			return
		}
	}
}

// Fill returns a copy of s where every absent field is taken from fallback.
func (s SensorVector) Fill(fallback SensorVector) SensorVector {
	out := s
	dst := out.fields()
	src := fallback.fields()
	for i := range dst {
		if *dst[i] == nil && *src[i] != nil {
			v := **src[i]
			*dst[i] = &v
		}
	}
	return out
}

// Missing lists the keys of absent fields, in SensorKeys order.
func (s SensorVector) Missing() []string {
	var missing []string
	for i, f := range s.fields() {
		if *f == nil {
			missing = append(missing, SensorKeys[i])
		}
	}
	return missing
}

// Complete reports whether all six fields are present.
func (s SensorVector) Complete() bool {
	return len(s.Missing()) == 0
}

// Validate checks present fields against the accepted input ranges.
func (s SensorVector) Validate() error {
	return validate.Struct(s)
}

// values returns the vector as plain numbers, or a *MissingSensorError.
func (s SensorVector) values() (Vars, error) {
	if missing := s.Missing(); len(missing) > 0 {
		return Vars{}, &MissingSensorError{Fields: missing}
	}
	return Vars{T: *s.T, H: *s.H, P: *s.P, TAvg: *s.TAvg, AP: *s.AP, PH: *s.PH}, nil
}
