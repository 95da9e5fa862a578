package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// MilestoneRecord is one parsed milestone row. Expected columns: title,
// deadline (YYYY-MM-DD, may be empty), note.
type MilestoneRecord struct {
	Line     int
	Title    string
	Deadline *time.Time
	Note     string
}

// ParseMilestones reads a per-project milestones CSV (header row required).
func ParseMilestones(r io.Reader) ([]MilestoneRecord, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var (
		records []MilestoneRecord
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
		if len(row) < 1 || strings.TrimSpace(row[0]) == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("title is required")})
			continue
		}
		rec := MilestoneRecord{Line: line, Title: strings.TrimSpace(row[0])}
		if len(row) > 1 && strings.TrimSpace(row[1]) != "" {
			d, err := time.Parse("2006-01-02", strings.TrimSpace(row[1]))
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Err: fmt.Errorf("bad deadline %q", row[1])})
				continue
			}
			rec.Deadline = &d
		}
		if len(row) > 2 {
			rec.Note = strings.TrimSpace(row[2])
		}
		records = append(records, rec)
	}
	return records, rowErrs, nil
}
