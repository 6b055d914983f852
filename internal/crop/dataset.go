package crop

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrNoLabelColumn is returned when none of the candidate label columns exist.
	ErrNoLabelColumn = errors.New("no suitable label column")
	// ErrMissingColumn is returned when a required numeric column is absent.
	ErrMissingColumn = errors.New("missing dataset column")
	// ErrEmptyDataset is returned when no rows could be loaded.
	ErrEmptyDataset = errors.New("no crop data found")
	// ErrNoMatchingCrops is returned when a label filter leaves no rows.
	ErrNoMatchingCrops = errors.New("no matching crop data for the selected plants")
)

// DefaultLabelColumns are the accepted crop-label column names, in priority order.
var DefaultLabelColumns = []string{"label", "crop", "common_name", "plant_name"}

// Dataset is a table of reference rows keyed by column name.
type Dataset struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// NewDataset builds a dataset from a header and rows. Short rows read as empty cells.
func NewDataset(header []string, rows [][]string) *Dataset {
	d := &Dataset{index: make(map[string]int, len(header))}
	for _, h := range header {
		d.addColumn(h)
	}
	d.rows = rows
	return d
}

func (d *Dataset) addColumn(name string) int {
	name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	if i, ok := d.index[name]; ok {
		return i
	}
	d.index[name] = len(d.header)
	d.header = append(d.header, name)
	return len(d.header) - 1
}

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.header...)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Cell returns the raw text at row i, column name.
func (d *Dataset) Cell(i int, column string) string {
	c, ok := d.index[column]
	if !ok || i < 0 || i >= len(d.rows) || c >= len(d.rows[i]) {
		return ""
	}
	return d.rows[i][c]
}

// LabelColumn resolves the first candidate column present in the dataset.
func (d *Dataset) LabelColumn(candidates []string) (string, error) {
	for _, c := range candidates {
		if _, ok := d.index[c]; ok {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: none of %v in %v", ErrNoLabelColumn, candidates, d.header)
}

// label returns the trimmed label of row i. Rows with a blank label belong to no crop.
func (d *Dataset) label(i int, column string) string {
	return strings.TrimSpace(d.Cell(i, column))
}

// Labels returns the distinct crop labels, sorted.
func (d *Dataset) Labels(candidates []string) ([]string, error) {
	counts, err := d.Counts(candidates)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels, nil
}

// Counts returns the number of rows per crop label.
func (d *Dataset) Counts(candidates []string) (map[string]int, error) {
	col, err := d.LabelColumn(candidates)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for i := range d.rows {
		if l := d.label(i, col); l != "" {
			counts[l]++
		}
	}
	return counts, nil
}

// Filter keeps only rows whose label is one of labels. Blank labels never match.
func (d *Dataset) Filter(labels []string, candidates []string) (*Dataset, error) {
	col, err := d.LabelColumn(candidates)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(labels))
	for _, l := range labels {
		if l = strings.TrimSpace(l); l != "" {
			keep[l] = true
		}
	}

	out := &Dataset{header: d.Columns(), index: make(map[string]int, len(d.index))}
	for k, v := range d.index {
		out.index[k] = v
	}
	for i, row := range d.rows {
		if keep[d.label(i, col)] {
			out.rows = append(out.rows, row)
		}
	}
	if len(out.rows) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoMatchingCrops, labels)
	}
	return out, nil
}

// Append concatenates other onto d. Columns are unioned; cells a row lacks stay empty.
func (d *Dataset) Append(other *Dataset) {
	mapping := make([]int, len(other.header))
	for i, h := range other.header {
		mapping[i] = d.addColumn(h)
	}
	for _, row := range other.rows {
		out := make([]string, len(d.header))
		for i, cell := range row {
			if i < len(mapping) {
				out[mapping[i]] = cell
			}
		}
		d.rows = append(d.rows, out)
	}
}

// LoadCSV reads a dataset with a header row.
func LoadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return NewDataset(nil, nil), nil
	}
	return NewDataset(records[0], records[1:]), nil
}

// LoadFiles reads and concatenates CSV files, skipping empty ones.
func LoadFiles(paths ...string) (*Dataset, error) {
	combined := NewDataset(nil, nil)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		ds, err := LoadCSV(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if ds.Len() == 0 {
			continue
		}
		combined.Append(ds)
	}
	if combined.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	return combined, nil
}

// LoadDir reads every *.csv file in dir.
func LoadDir(dir string) (*Dataset, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no csv files in %s", ErrEmptyDataset, dir)
	}
	sort.Strings(paths)
	return LoadFiles(paths...)
}
