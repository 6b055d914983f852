package report

import "github.com/i474232898/crop-advisor/internal/crop"

// sensorSources maps each sensor key to the (section, field) it is read from.
var sensorSources = []struct {
	sensor  string
	section string
	field   string
}{
	{crop.SensorT, SectionWeather, FieldTemperature},
	{crop.SensorH, SectionWeather, FieldHumidity},
	{crop.SensorP, SectionWeather, FieldPressure},
	{crop.SensorTAvg, SectionClimate, FieldAvgTemperature},
	{crop.SensorAP, SectionClimate, FieldTotalPrecipitation},
	{crop.SensorPH, SectionSoil, FieldSoilPH},
}

// ExtractSensors projects a report onto the sensor vector. A sensor is absent when its
// section is missing or a scalar marker, its field is missing, or the value does not
// parse as a number.
func ExtractSensors(r Report) crop.SensorVector {
	var s crop.SensorVector
	for _, src := range sensorSources {
		sec, ok := r.Section(src.section)
		if !ok || sec.IsScalar() {
			continue
		}
		v, ok := sec.Field(src.field)
		if !ok {
			continue
		}
		if f, ok := v.Float(); ok {
			s.Set(src.sensor, f)
		}
	}
	return s
}
