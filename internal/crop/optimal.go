package crop

import (
	"fmt"
	"strconv"
	"strings"
)

// Numeric reference columns.
const (
	ColumnTemperature = "Temperature"
	ColumnHumidity    = "Humidity"
	ColumnPH          = "pH"
	ColumnRainfall    = "Rainfall"
)

// Optimal is a crop's reference environmental point: the mean of its reference rows.
type Optimal struct {
	Temperature float64 `json:"T_opt"`
	Humidity    float64 `json:"H_opt"`
	PH          float64 `json:"pH_opt"`
	Rainfall    float64 `json:"AP_opt"`
}

type accumulator struct {
	sum   [4]float64
	count [4]int
}

// BuildOptimal groups the dataset by crop label and averages the four numeric
// columns per group. Rows without a label are dropped. Empty cells are skipped; any
// other unparseable cell is an error.
func BuildOptimal(ds *Dataset, labelColumns []string) (map[string]Optimal, error) {
	labelCol, err := ds.LabelColumn(labelColumns)
	if err != nil {
		return nil, err
	}

	columns := [4]string{ColumnTemperature, ColumnHumidity, ColumnPH, ColumnRainfall}
	for _, c := range columns {
		if _, ok := ds.index[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	groups := make(map[string]*accumulator)
	for i := 0; i < ds.Len(); i++ {
		label := ds.label(i, labelCol)
		if label == "" {
			continue
		}
		acc, ok := groups[label]
		if !ok {
			acc = &accumulator{}
			groups[label] = acc
		}
		for j, c := range columns {
			raw := strings.TrimSpace(ds.Cell(i, c))
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				// +2: header row and 1-based numbering
				return nil, fmt.Errorf("row %d column %s: invalid number %q", i+2, c, raw)
			}
			acc.sum[j] += v
			acc.count[j]++
		}
	}

	optimal := make(map[string]Optimal, len(groups))
	for label, acc := range groups {
		var mean [4]float64
		for j := range mean {
			if acc.count[j] == 0 {
				return nil, fmt.Errorf("crop %q has no values for column %s", label, columns[j])
			}
			mean[j] = acc.sum[j] / float64(acc.count[j])
		}
		optimal[label] = Optimal{
			Temperature: mean[0],
			Humidity:    mean[1],
			PH:          mean[2],
			Rainfall:    mean[3],
		}
	}
	return optimal, nil
}
