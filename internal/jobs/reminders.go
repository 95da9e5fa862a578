package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MasterPumpkin/evidence-mp/internal/db"
	"github.com/MasterPumpkin/evidence-mp/internal/notify"
)

// ControlCheckReminders pings the notify channel about consultations
// happening tomorrow. Runs daily; a day with nothing due sends nothing.
func ControlCheckReminders(store *db.Store, n notify.Notifier, loc *time.Location) Job {
	return func(ctx context.Context) error {
		tomorrow := time.Now().In(loc).AddDate(0, 0, 1)
		due, err := store.ControlChecksDueOn(ctx, tomorrow)
		if err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Konzultace %s:\n", tomorrow.Format("02.01.2006"))
		for _, d := range due {
			fmt.Fprintf(&b, "- %s: %s\n", d.ProjectTitle, d.Check.Content)
		}
		return n.Notify(b.String())
	}
}

// PendingApprovalReminders nudges teachers while student projects sit
// without a leader.
func PendingApprovalReminders(store *db.Store, n notify.Notifier) Job {
	return func(ctx context.Context) error {
		pending, err := store.CountPendingApproval(ctx)
		if err != nil {
			return err
		}
		if pending == 0 {
			return nil
		}
		return n.Notify(fmt.Sprintf("Projektů čekajících na schválení: %d", pending))
	}
}
