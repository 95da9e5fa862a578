package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

type Workbook struct {
	File *excelize.File
}

// NewWorkbook builds an xlsx file from sheet specs, with the default
// header styling on every sheet.
func NewWorkbook(sheets []SheetSpec) (*Workbook, error) {
	f := excelize.NewFile()

	for i, s := range sheets {
		name := s.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("new sheet: %w", err)
			}
		}
		for col, h := range s.Header {
			cell := fmt.Sprintf("%s1", colName(col+1))
			if err := f.SetCellStr(name, cell, h); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellStr(name, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}
		if err := ApplyDefaultExcelFormatting(f, name); err != nil {
			return nil, fmt.Errorf("format sheet %s: %w", name, err)
		}
	}
	return &Workbook{File: f}, nil
}

func (w *Workbook) WriteTo(dst io.Writer) (int64, error) {
	return w.File.WriteTo(dst)
}

// ProjectRow is one fully resolved project line for the overview export.
type ProjectRow struct {
	ID             int64
	Title          string
	Status         string
	Student        string
	Class          string
	Leader         string
	Opponent       string
	LeaderPoints   *int
	OpponentPoints *int
}

var projectsHeader = []string{
	"ID", "Název", "Stav", "Student", "Třída", "Vedoucí", "Oponent",
	"Body vedoucí", "Body oponent", "Celkem",
}

// ProjectsSheet lays the overview out one row per project; missing people
// and unsubmitted evaluations stay blank.
func ProjectsSheet(title string, rows []ProjectRow) SheetSpec {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		total := ""
		if r.LeaderPoints != nil && r.OpponentPoints != nil {
			total = strconv.Itoa(*r.LeaderPoints + *r.OpponentPoints)
		}
		out = append(out, []string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			r.Status,
			r.Student,
			r.Class,
			r.Leader,
			r.Opponent,
			pointsCell(r.LeaderPoints),
			pointsCell(r.OpponentPoints),
			total,
		})
	}
	return SheetSpec{Title: title, Header: projectsHeader, Rows: out}
}

func pointsCell(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
