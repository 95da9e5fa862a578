package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

func TestProjectsSheet_Totals(t *testing.T) {
	lp, op := 38, 27
	rows := []ProjectRow{
		{ID: 1, Title: "Robotická ruka", Status: "finished", Student: "Jan Novák", LeaderPoints: &lp, OpponentPoints: &op},
		{ID: 2, Title: "Meteostanice", Status: "approved", LeaderPoints: &lp},
	}
	spec := ProjectsSheet("Projekty", rows)

	if len(spec.Rows) != 2 {
		t.Fatalf("rows = %d", len(spec.Rows))
	}
	if got := spec.Rows[0][len(spec.Rows[0])-1]; got != "65" {
		t.Fatalf("total = %q, want 65", got)
	}
	// total stays blank while one evaluation is missing
	if got := spec.Rows[1][len(spec.Rows[1])-1]; got != "" {
		t.Fatalf("partial total = %q, want empty", got)
	}
	if got := spec.Rows[1][8]; got != "" {
		t.Fatalf("missing opponent points = %q, want empty", got)
	}
}

func TestConsultationSheet(t *testing.T) {
	loc := time.UTC
	checks := []models.ControlCheck{
		{Date: time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC), Content: "Úvodní konzultace"},
		{Date: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), Content: "Konzultace #2", Evaluation: "proběhla"},
	}
	spec := ConsultationSheet("Robotická ruka", checks, loc)

	if spec.Title != "Robotická ruka" {
		t.Fatalf("title = %q", spec.Title)
	}
	if spec.Rows[0][0] != "15.11.2025" {
		t.Fatalf("date = %q", spec.Rows[0][0])
	}
	if spec.Rows[1][2] != "proběhla" {
		t.Fatalf("evaluation = %q", spec.Rows[1][2])
	}

	// xlsx caps sheet names at 31 characters
	long := strings.Repeat("á", 40)
	spec = ConsultationSheet(long, nil, loc)
	if n := len([]rune(spec.Title)); n > 31 {
		t.Fatalf("sheet title length = %d", n)
	}
}

func TestNewWorkbook(t *testing.T) {
	wb, err := NewWorkbook([]SheetSpec{
		{Title: "Projekty", Header: []string{"ID", "Název"}, Rows: [][]string{{"1", "Robotická ruka"}}},
		{Title: "Konzultace", Header: []string{"Datum"}, Rows: nil},
	})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := wb.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty workbook output")
	}

	got, err := wb.File.GetCellValue("Projekty", "B2")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Robotická ruka" {
		t.Fatalf("cell B2 = %q", got)
	}
}

func TestWriteCredentialsCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCredentialsCSV(&buf, []Credential{
		{Username: "novak", Name: "Jan Novák", Password: "abc123XYZ789"},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "username,name,password\n") {
		t.Fatalf("header missing: %q", out)
	}
	if !strings.Contains(out, "novak,Jan Novák,abc123XYZ789") {
		t.Fatalf("row missing: %q", out)
	}
}

func TestBuildFilenames(t *testing.T) {
	if got := BuildProjectsFilename("2025/2026"); strings.ContainsAny(got, `/\:*?"<>|`) {
		t.Fatalf("unsanitized filename %q", got)
	}
	if got := BuildConsultationFilename(`Projekt: "X"`); strings.ContainsAny(got, `/\:*?"<>|`) {
		t.Fatalf("unsanitized filename %q", got)
	}
}
