package export

import (
	"time"

	"github.com/MasterPumpkin/evidence-mp/internal/models"
)

// ConsultationSheet lays one project's control checks out chronologically,
// one row per check.
func ConsultationSheet(projectTitle string, checks []models.ControlCheck, loc *time.Location) SheetSpec {
	rows := make([][]string, 0, len(checks))
	for _, c := range checks {
		rows = append(rows, []string{
			c.Date.In(loc).Format("02.01.2006"),
			c.Content,
			c.Evaluation,
		})
	}
	title := sanitizeFileName(cleanName(projectTitle))
	if r := []rune(title); len(r) > 31 {
		// sheet names are capped by the xlsx format
		title = string(r[:31])
	}
	return SheetSpec{
		Title:  title,
		Header: []string{"Datum", "Obsah konzultace", "Hodnocení"},
		Rows:   rows,
	}
}
