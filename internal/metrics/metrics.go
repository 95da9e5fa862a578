package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Operations counts every command against the core, labelled by the
	// operation name and its outcome (ok, denied, invalid, conflict, error).
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evidence", Name: "operations_total", Help: "Core operations by outcome",
	}, []string{"op", "outcome"})

	PointsRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "evidence", Name: "points_rejections_total", Help: "Evaluations rejected for exceeding scheme maxima",
	})

	PendingApprovals = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "evidence", Name: "pending_approvals", Help: "Projects waiting for a leader",
	})
	OverdueMilestones = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "evidence", Name: "overdue_milestones", Help: "Milestones past deadline and not done",
	})

	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "evidence", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(Operations, PointsRejections, PendingApprovals, OverdueMilestones, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }
