package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ProjectRecord is one parsed project row. Expected columns: title,
// description, student_username (may be empty for unassigned topics).
type ProjectRecord struct {
	Line            int
	Title           string
	Description     string
	StudentUsername string
}

// ParseProjects reads the projects CSV (header row required).
func ParseProjects(r io.Reader) ([]ProjectRecord, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var (
		records []ProjectRecord
		rowErrs []RowError
		line    = 1
	)
	for {
		line++
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if len(row) < 2 {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("expected at least 2 columns, got %d", len(row))})
			continue
		}
		rec := ProjectRecord{
			Line:        line,
			Title:       strings.TrimSpace(row[0]),
			Description: strings.TrimSpace(row[1]),
		}
		if len(row) > 2 {
			rec.StudentUsername = strings.TrimSpace(row[2])
		}
		if rec.Title == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("title is required")})
			continue
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}
