// Package selector answers "what happens if this control value arrives"
// queries against a resolved topology. No signal runs anywhere; the
// answer is read off the precomputed expectations.
package selector

import (
	"errors"
	"fmt"

	"github.com/bholykov/pdstage/internal/topology"
)

var (
	// ErrUnknownValue marks a query for a value the router never declared.
	ErrUnknownValue = errors.New("unknown selector value")
	// ErrInconsistent marks a derivation bug: the expectation's port is
	// not in the control-port set. Bad input cannot produce this.
	ErrInconsistent = errors.New("inconsistent routing derivation")
)

// Selection is the simulated outcome of sending one control value into
// the patch's control inlet.
type Selection struct {
	ControlMessage int    `json:"control_message"`
	ActiveBranch   string `json:"active_branch"`
	OutputLabel    string `json:"output_label"`
}

// Simulator is a stateless query surface over an immutable topology.
// Safe for concurrent use.
type Simulator struct {
	topo *topology.Topology
}

func New(topo *topology.Topology) *Simulator {
	return &Simulator{topo: topo}
}

// Simulate looks up the expectation for value and re-validates that the
// router outlet it resolves to actually updates the selector control.
func (s *Simulator) Simulate(value int) (*Selection, error) {
	exp, ok := s.topo.Expectation(value)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownValue, value)
	}
	if !s.topo.HasControlPort(exp.Port) {
		return nil, fmt.Errorf("%w: router outlet %d does not update the selector control", ErrInconsistent, exp.Port)
	}
	return &Selection{
		ControlMessage: value,
		ActiveBranch:   exp.BranchKind,
		OutputLabel:    exp.OutputLabel,
	}, nil
}
