// Package checker is the service facade: it owns the parse→resolve→verify
// pipeline, keeps the latest good state behind an atomic pointer, and
// rebuilds it when the patch file changes on disk.
package checker

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bholykov/pdstage/internal/config"
	"github.com/bholykov/pdstage/internal/metrics"
	"github.com/bholykov/pdstage/internal/patch"
	"github.com/bholykov/pdstage/internal/selector"
	"github.com/bholykov/pdstage/internal/topology"
	"github.com/bholykov/pdstage/internal/verify"
)

// state bundles everything derived from one read of the patch file.
// Immutable; Rebuild replaces the whole bundle at once.
type state struct {
	patch  *patch.Patch
	topo   *topology.Topology
	sim    *selector.Simulator
	report *verify.Report
}

// Summary describes the currently loaded patch.
type Summary struct {
	Patch  string `json:"patch"`
	Nodes  int    `json:"nodes"`
	Edges  int    `json:"edges"`
	Values []int  `json:"values"`
}

// Checker builds and serves verification state for one patch file.
type Checker struct {
	mu      sync.Mutex // serializes Rebuild and SwapConfig
	conf    atomic.Pointer[config.CheckConfig]
	current atomic.Pointer[state]
	reg     *verify.Registry
}

// New constructs a Checker and performs the initial build. Construction
// is fail-fast: a malformed or structurally invalid patch is an error,
// not a degraded state.
func New(conf *config.CheckConfig) (*Checker, error) {
	c := &Checker{reg: verify.DefaultRegistry()}
	c.conf.Store(conf)
	st, err := c.build()
	if err != nil {
		metrics.RebuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RebuildsTotal.WithLabelValues("ok").Inc()
	c.current.Store(st)
	return c, nil
}

func (c *Checker) build() (*state, error) {
	conf := c.conf.Load()
	start := time.Now()

	p, err := patch.Load(conf.Patch.Path)
	if err != nil {
		return nil, err
	}
	topo, err := topology.Resolve(p, conf.Patch.Kinds())
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", conf.Patch.Path, err)
	}
	metrics.PatchBuildDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)

	sim := selector.New(topo)
	return &state{
		patch:  p,
		topo:   topo,
		sim:    sim,
		report: verify.Run(c.reg, conf.Patch.Path, topo, sim),
	}, nil
}

// Rebuild re-reads the patch file and atomically swaps in the new state.
// On failure the previous state stays live and the error is returned.
func (c *Checker) Rebuild() (*verify.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, err := c.build()
	if err != nil {
		metrics.RebuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RebuildsTotal.WithLabelValues("ok").Inc()
	c.current.Store(st)
	return st.report, nil
}

// SwapConfig installs a new configuration and rebuilds against it.
// Used by config hot-reload; on failure the old config is restored.
func (c *Checker) SwapConfig(conf *config.CheckConfig) (*verify.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.conf.Load()
	c.conf.Store(conf)
	st, err := c.build()
	if err != nil {
		c.conf.Store(old)
		metrics.RebuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RebuildsTotal.WithLabelValues("ok").Inc()
	c.current.Store(st)
	return st.report, nil
}

// Watch starts a background goroutine that re-verifies when the patch
// file is written. Call the returned stop function to clean up.
func (c *Checker) Watch() (stop func(), err error) {
	path := c.conf.Load().Patch.Path
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("patch watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("patch watcher add %s: %w", path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					rep, err := c.Rebuild()
					if err != nil {
						slog.Warn("patch re-verify skipped, keeping last good state", "path", path, "err", err)
						continue
					}
					slog.Info("patch re-verified", "path", path, "run_id", rep.RunID, "passed", rep.Passed)
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Simulate answers a selection query against the current state.
func (c *Checker) Simulate(value int) (*selector.Selection, error) {
	sel, err := c.current.Load().sim.Simulate(value)
	if err != nil {
		metrics.SimulationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SimulationsTotal.WithLabelValues("ok").Inc()
	return sel, nil
}

// Report returns the latest verification report.
func (c *Checker) Report() *verify.Report {
	return c.current.Load().report
}

// Summary returns counts describing the currently loaded patch.
func (c *Checker) Summary() Summary {
	st := c.current.Load()
	return Summary{
		Patch:  c.conf.Load().Patch.Path,
		Nodes:  st.topo.NodeCount(),
		Edges:  st.topo.EdgeCount(),
		Values: st.topo.Values(),
	}
}
