package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/MasterPumpkin/evidence-mp/internal/db"
	"github.com/MasterPumpkin/evidence-mp/internal/metrics"
)

// RefreshStats keeps the workload gauges and the DB ping histogram warm.
func RefreshStats(store *db.Store, database *sql.DB) Job {
	return func(ctx context.Context) error {
		t0 := time.Now()
		if err := database.PingContext(ctx); err != nil {
			return err
		}
		metrics.ObserveDBPing(time.Since(t0))

		pending, err := store.CountPendingApproval(ctx)
		if err != nil {
			return err
		}
		metrics.PendingApprovals.Set(float64(pending))

		overdue, err := store.CountOverdueMilestones(ctx, time.Now())
		if err != nil {
			return err
		}
		metrics.OverdueMilestones.Set(float64(overdue))
		return nil
	}
}
