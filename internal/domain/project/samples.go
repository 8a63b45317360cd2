package project

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const utf8BOM = "\ufeff"

// ParseSamplesCSV reads a CSV with a header row into sample records. Column
// names are used verbatim; cell values are typed as number, boolean, null
// (empty cell) or string.
func ParseSamplesCSV(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no columns to parse from file", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	columns := headerColumns(header)

	samples := []Sample{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		if isBlankRow(row) {
			continue
		}
		if len(row) > len(columns) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: expected %d fields, saw %d", ErrInvalidCSV, line, len(columns), len(row))
		}

		sample := make(Sample, len(columns))
		for i, col := range columns {
			sample[i] = Field{Key: col}
			if i < len(row) {
				sample[i].Value = cellValue(row[i])
			}
		}
		samples = append(samples, sample)
	}

	return samples, nil
}

// headerColumns names blank columns "Unnamed: <i>" and suffixes repeats with .1, .2, ...
func headerColumns(header []string) []string {
	columns := make([]string, len(header))
	used := make(map[string]bool, len(header))
	repeats := make(map[string]int)
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		column := name
		for used[column] {
			repeats[name]++
			column = fmt.Sprintf("%s.%d", name, repeats[name])
		}
		used[column] = true
		columns[i] = column
	}
	return columns
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	// JSON validity keeps spellings like "007", "+1" or "1." as strings.
	if _, err := strconv.ParseFloat(trimmed, 64); err == nil && json.Valid([]byte(trimmed)) {
		return json.Number(trimmed)
	}
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}
