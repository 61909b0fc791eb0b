package simulation

import (
	"fmt"
	"time"

	"github.com/sentryline/spc-cusum-engine/pkg/manager"
	"github.com/sentryline/spc-cusum-engine/pkg/spc"
)

// RunSummary reports the outcome of replaying a synthetic sample stream
// through a Manager, analogous to the teacher's SimulationMetrics but
// trimmed to the fields this detection engine actually produces.
type RunSummary struct {
	SamplesIngested int
	AlertsFired     int
	PushesExecuted  int
	LastSnapshot    spc.Snapshot
}

// Runner drives a Generator's output sample-by-sample through a Manager,
// grounded on the teacher's SimulationRunner orchestration loop but
// stripped of the autoscaler/queue machinery that loop coordinated.
type Runner struct {
	mgr *manager.Manager
	gen *Generator
}

func NewRunner(mgr *manager.Manager, gen *Generator) *Runner {
	return &Runner{mgr: mgr, gen: gen}
}

// Run ingests every sample the Generator produces and returns a summary.
func (r *Runner) Run() (RunSummary, error) {
	samples := r.gen.Run()
	var summary RunSummary

	for _, s := range samples {
		res, err := r.mgr.Ingest(manager.IngestInput{
			Item:       s.Item,
			Context:    s.Context,
			Value:      s.Value,
			Throughput: s.Throughput,
			Timestamp:  s.Time.Format(time.RFC3339),
			Tags:       s.Tags,
		})
		if err != nil {
			return summary, fmt.Errorf("simulation: ingest at %s failed: %w", s.Time, err)
		}
		summary.SamplesIngested++
		if res.Alert {
			summary.AlertsFired++
		}
		if res.ShouldPush {
			summary.PushesExecuted++
		}
		summary.LastSnapshot = res.Snapshot
	}
	return summary, nil
}
