package report

import (
	"bytes"
	"encoding/json"
)

// Section names, in report order.
const (
	SectionClimate   = "Climate Data"
	SectionWeather   = "Weather Data"
	SectionSoil      = "Soil Data (Depth 0-5cm)"
	SectionElevation = "Elevation Data"
)

// Field keys.
const (
	FieldDateRange          = "Date Range"
	FieldAvgTemperature     = "Average Temperature (T2M)"
	FieldTotalPrecipitation = "Total Precipitation (PRECTOT)"

	FieldLocation    = "Location"
	FieldTemperature = "Temperature"
	FieldHumidity    = "Humidity"
	FieldPressure    = "Pressure"

	FieldSoilPH = "phh2o"

	FieldElevation = "Elevation (meters)"
)

// Section-level failure markers.
const (
	MarkerNoClimate   = "No climate data retrieved."
	MarkerNoWeather   = "No weather data retrieved."
	MarkerNoSoil      = "No soil data retrieved."
	MarkerNoElevation = "No elevation data retrieved."
)

// Field is one key/value pair of a section.
type Field struct {
	Key   string
	Value Value
}

// Section is either an ordered list of fields or a single scalar marker.
type Section struct {
	Name   string
	Fields []Field
	Scalar Value
	scalar bool
}

// FieldSection builds a section holding fields.
func FieldSection(name string, fields ...Field) Section {
	return Section{Name: name, Fields: fields}
}

// ScalarSection builds a section holding a single value in place of fields.
func ScalarSection(name string, v Value) Section {
	return Section{Name: name, Scalar: v, scalar: true}
}

// IsScalar reports whether the section is a scalar marker.
func (s Section) IsScalar() bool {
	return s.scalar
}

// Field looks up a field by key. Scalar sections have no fields.
func (s Section) Field(key string) (Value, bool) {
	for _, f := range s.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return NoData, false
}

// Report is an ordered set of independent sections.
type Report struct {
	Sections []Section
}

// Section returns the named section.
func (r Report) Section(name string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Set replaces the section with the same name or appends it.
func (r *Report) Set(s Section) {
	for i := range r.Sections {
		if r.Sections[i].Name == s.Name {
			r.Sections[i] = s
			return
		}
	}
	r.Sections = append(r.Sections, s)
}

// MarshalJSON renders sections and fields as JSON objects in report order.
func (r Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range r.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, s.Name); err != nil {
			return nil, err
		}
		if s.IsScalar() {
			b, err := json.Marshal(s.Scalar)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
			continue
		}
		buf.WriteByte('{')
		for j, f := range s.Fields {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, f.Key); err != nil {
				return nil, err
			}
			b, err := json.Marshal(f.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, key string) error {
	b, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(b)
	buf.WriteByte(':')
	return nil
}
