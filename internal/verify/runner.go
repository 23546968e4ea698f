// Package verify drives the full verification run: every value the
// router declares goes through the simulator, and a set of registered
// structural checks asserts coverage, correctness, and mutual
// exclusivity of the outcomes.
package verify

import (
	"time"

	"github.com/google/uuid"

	"github.com/bholykov/pdstage/internal/metrics"
	"github.com/bholykov/pdstage/internal/selector"
	"github.com/bholykov/pdstage/internal/topology"
)

// Report is the outcome of one verification run.
type Report struct {
	RunID      string    `json:"run_id"`
	Patch      string    `json:"patch"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Values     []int     `json:"values"`
	Findings   []Finding `json:"findings,omitempty"`
	Passed     bool      `json:"passed"`
}

// Run executes every check in reg against the resolved state and
// collects the findings into a Report. A report with no findings passes.
func Run(reg *Registry, patchPath string, topo *topology.Topology, sim *selector.Simulator) *Report {
	start := time.Now()
	ctx := &Context{Topo: topo, Sim: sim}

	rep := &Report{
		RunID:     uuid.New().String(),
		Patch:     patchPath,
		StartedAt: start,
		Values:    topo.Values(),
	}
	for _, c := range reg.Checks() {
		rep.Findings = append(rep.Findings, c.Run(ctx)...)
	}
	rep.Passed = len(rep.Findings) == 0
	rep.DurationMs = time.Since(start).Milliseconds()

	status := "pass"
	if !rep.Passed {
		status = "fail"
	}
	metrics.VerificationsTotal.WithLabelValues(status).Inc()
	metrics.ValuesResolved.Set(float64(len(topo.Expectations())))
	return rep
}
