package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var csvHeader = []string{"Section", "Key", "Value"}

// WriteCSV writes the report as Section,Key,Value rows. Scalar sections have an empty
// key; NoData becomes an empty cell.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range r.Sections {
		if s.IsScalar() {
			if err := cw.Write([]string{s.Name, "", s.Scalar.String()}); err != nil {
				return err
			}
			continue
		}
		for _, f := range s.Fields {
			if err := cw.Write([]string{s.Name, f.Key, f.Value.String()}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reconstructs a report written by WriteCSV. Every value comes back as text;
// empty cells come back as NoData.
func ReadCSV(r io.Reader) (Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Report{}, nil
	}
	if err != nil {
		return Report{}, fmt.Errorf("read report header: %w", err)
	}
	if header[0] != csvHeader[0] {
		return Report{}, fmt.Errorf("unexpected report header %v", header)
	}

	var out Report
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Report{}, fmt.Errorf("read report row: %w", err)
		}

		name, key, raw := row[0], row[1], row[2]
		v := NoData
		if raw != "" {
			v = Text(raw)
		}

		if key == "" {
			out.Set(ScalarSection(name, v))
			continue
		}
		sec, ok := out.Section(name)
		if !ok || sec.IsScalar() {
			sec = FieldSection(name)
		}
		sec.Fields = append(sec.Fields, Field{Key: key, Value: v})
		out.Set(sec)
	}
	return out, nil
}
