package checker_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bholykov/pdstage/internal/checker"
	"github.com/bholykov/pdstage/internal/config"
	"github.com/bholykov/pdstage/internal/selector"
	"github.com/bholykov/pdstage/internal/topology"
)

const smallPatch = `#X obj 10 10 route 0 1;
#X obj 10 60 sine-source~;
#X obj 90 60 saw-source~;
#X obj 10 140 selector~ 2;
#X obj 10 200 outlet~;
#X connect 0 0 3 0;
#X connect 0 0 1 0;
#X connect 0 1 3 0;
#X connect 0 1 2 0;
#X connect 1 0 3 1;
#X connect 2 0 3 2;
#X connect 3 0 4 0;
`

// brokenPatch removes the selector→outlet~ edge.
const brokenPatch = `#X obj 10 10 route 0;
#X obj 10 60 sine-source~;
#X obj 10 140 selector~ 1;
#X obj 10 200 outlet~;
#X connect 0 0 2 0;
#X connect 0 0 1 0;
#X connect 1 0 2 1;
`

func newConf(t *testing.T, patchText string) *config.CheckConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patch.pd")
	if err := os.WriteFile(path, []byte(patchText), 0o644); err != nil {
		t.Fatalf("write patch: %v", err)
	}
	cfg := &config.CheckConfig{Version: "v1", Patch: config.PatchConf{Path: path}}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestNewVerifies(t *testing.T) {
	chk, err := checker.New(newConf(t, smallPatch))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rep := chk.Report()
	if !rep.Passed {
		t.Fatalf("report failed: %+v", rep.Findings)
	}
	if len(rep.Values) != 2 {
		t.Errorf("values = %v", rep.Values)
	}

	sum := chk.Summary()
	if sum.Nodes != 5 || sum.Edges != 7 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestNewFailFast(t *testing.T) {
	_, err := checker.New(newConf(t, brokenPatch))
	if !errors.Is(err, topology.ErrSinkUnreachable) {
		t.Fatalf("err = %v, want ErrSinkUnreachable", err)
	}
}

func TestSimulate(t *testing.T) {
	chk, err := checker.New(newConf(t, smallPatch))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sel, err := chk.Simulate(1)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if sel.ActiveBranch != "saw-source~" || sel.OutputLabel != "saw-source~::signal" {
		t.Errorf("selection = %+v", sel)
	}

	if _, err := chk.Simulate(42); !errors.Is(err, selector.ErrUnknownValue) {
		t.Fatalf("err = %v, want ErrUnknownValue", err)
	}
}

func TestRebuildSwapsState(t *testing.T) {
	conf := newConf(t, smallPatch)
	chk, err := checker.New(conf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	firstRun := chk.Report().RunID

	// Swap the two branch kinds on disk and rebuild.
	swapped := `#X obj 10 10 route 0 1;
#X obj 10 60 saw-source~;
#X obj 90 60 sine-source~;
#X obj 10 140 selector~ 2;
#X obj 10 200 outlet~;
#X connect 0 0 3 0;
#X connect 0 0 1 0;
#X connect 0 1 3 0;
#X connect 0 1 2 0;
#X connect 1 0 3 1;
#X connect 2 0 3 2;
#X connect 3 0 4 0;
`
	if err := os.WriteFile(conf.Patch.Path, []byte(swapped), 0o644); err != nil {
		t.Fatalf("rewrite patch: %v", err)
	}
	rep, err := chk.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if rep.RunID == firstRun {
		t.Error("rebuild did not produce a fresh run")
	}

	sel, err := chk.Simulate(0)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if sel.ActiveBranch != "saw-source~" {
		t.Errorf("branch after rebuild = %q, want saw-source~", sel.ActiveBranch)
	}
}

func TestRebuildKeepsLastGoodState(t *testing.T) {
	conf := newConf(t, smallPatch)
	chk, err := checker.New(conf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := os.WriteFile(conf.Patch.Path, []byte(brokenPatch), 0o644); err != nil {
		t.Fatalf("rewrite patch: %v", err)
	}
	if _, err := chk.Rebuild(); err == nil {
		t.Fatal("Rebuild accepted a broken patch")
	}

	// Old state must still answer queries.
	sel, err := chk.Simulate(0)
	if err != nil {
		t.Fatalf("Simulate after failed rebuild: %v", err)
	}
	if sel.ActiveBranch != "sine-source~" {
		t.Errorf("branch = %q, want sine-source~", sel.ActiveBranch)
	}
}

// A patch edit that leaves a connection pointing at a nonexistent node
// must surface as a rebuild error, not kill the process.
func TestRebuildSurvivesDanglingEdge(t *testing.T) {
	conf := newConf(t, smallPatch)
	chk, err := checker.New(conf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	dangling := smallPatch + "#X connect 0 0 99 0;\n"
	if err := os.WriteFile(conf.Patch.Path, []byte(dangling), 0o644); err != nil {
		t.Fatalf("rewrite patch: %v", err)
	}
	if _, err := chk.Rebuild(); !errors.Is(err, topology.ErrDanglingEdge) {
		t.Fatalf("err = %v, want ErrDanglingEdge", err)
	}

	if _, err := chk.Simulate(0); err != nil {
		t.Fatalf("Simulate after failed rebuild: %v", err)
	}
}

func TestSwapConfig(t *testing.T) {
	conf := newConf(t, smallPatch)
	chk, err := checker.New(conf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Point the new config at a patch with different node kinds.
	alt := `#X obj 10 10 demux 0;
#X obj 10 60 a-source~;
#X obj 10 140 mux~ 1;
#X obj 10 200 dac~;
#X connect 0 0 2 0;
#X connect 0 0 1 0;
#X connect 1 0 2 1;
#X connect 2 0 3 0;
`
	altPath := filepath.Join(t.TempDir(), "alt.pd")
	if err := os.WriteFile(altPath, []byte(alt), 0o644); err != nil {
		t.Fatalf("write patch: %v", err)
	}
	altConf := &config.CheckConfig{
		Version: "v2",
		Patch:   config.PatchConf{Path: altPath, Router: "demux", Selector: "mux~", Sink: "dac~"},
	}
	config.ApplyDefaults(altConf)

	rep, err := chk.SwapConfig(altConf)
	if err != nil {
		t.Fatalf("SwapConfig: %v", err)
	}
	if !rep.Passed {
		t.Fatalf("report failed: %+v", rep.Findings)
	}
	sel, err := chk.Simulate(0)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if sel.ActiveBranch != "a-source~" {
		t.Errorf("branch = %q, want a-source~", sel.ActiveBranch)
	}
}

func TestSwapConfigRestoresOnFailure(t *testing.T) {
	conf := newConf(t, smallPatch)
	chk, err := checker.New(conf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bad := &config.CheckConfig{Version: "v2", Patch: config.PatchConf{Path: "no-such.pd"}}
	config.ApplyDefaults(bad)
	if _, err := chk.SwapConfig(bad); err == nil {
		t.Fatal("SwapConfig accepted a missing patch")
	}

	if got := chk.Summary().Patch; got != conf.Patch.Path {
		t.Errorf("config after failed swap points at %q", got)
	}
}
