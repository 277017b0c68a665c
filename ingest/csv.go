// Package ingest reads sample tables of the form "name,v1,...,vD" into rows.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/pkg/errors"
)

// ReadRows parses a headerless CSV table. Blank lines, including lines of
// only spaces, are skipped. Every other line must have as many fields as the
// first, a non-empty name and finite numbers.
func ReadRows(r io.Reader) ([]model.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows []model.Row
	cols := -1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv")
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		line, _ := cr.FieldPos(0)

		if cols < 0 {
			cols = len(record)
		}
		if len(record) != cols {
			return nil, errors.NewValueError("ReadRows",
				fmt.Sprintf("line %d: inconsistent column count (expected %d, got %d)", line, cols, len(record)))
		}

		name := strings.TrimSpace(record[0])
		if name == "" {
			return nil, errors.NewValueError("ReadRows", fmt.Sprintf("line %d: empty sample name", line))
		}

		vector := make([]float64, len(record)-1)
		for j, field := range record[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.NewValueError("ReadRows", fmt.Sprintf("line %d: non-numeric value %q", line, field))
			}
			vector[j] = v
		}
		rows = append(rows, model.Row{Name: name, Vector: vector})
	}

	if len(rows) == 0 {
		return nil, errors.NewModelError("ReadRows", "no rows found", errors.ErrEmptyData)
	}
	return rows, nil
}

// ReadRowsFile reads the table stored at path.
func ReadRowsFile(path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return rows, nil
}

// ReadDataset parses the source and target tables and validates them as a
// dataset.
func ReadDataset(source, target io.Reader) (*model.Dataset, error) {
	src, err := ReadRows(source)
	if err != nil {
		return nil, errors.Wrap(err, "source")
	}
	tgt, err := ReadRows(target)
	if err != nil {
		return nil, errors.Wrap(err, "target")
	}
	return model.NewDataset(src, tgt)
}

// LoadDataset is ReadDataset over two files.
func LoadDataset(sourcePath, targetPath string) (*model.Dataset, error) {
	src, err := ReadRowsFile(sourcePath)
	if err != nil {
		return nil, err
	}
	tgt, err := ReadRowsFile(targetPath)
	if err != nil {
		return nil, err
	}
	return model.NewDataset(src, tgt)
}
