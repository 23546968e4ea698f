// Package topology resolves a parsed patch into the derived routing maps
// the selector checks need: which router outlet serves which value, which
// branch each outlet feeds, and which branch feeds each selector signal
// inlet. All derivation happens once in Resolve; the resulting Topology
// is a read-only query surface.
package topology

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bholykov/pdstage/internal/patch"
)

var (
	// ErrLookup marks a required node kind that is missing or ambiguous.
	ErrLookup = errors.New("node lookup")
	// ErrSinkUnreachable marks a selector whose output never reaches the sink.
	ErrSinkUnreachable = errors.New("selector does not reach sink")
	// ErrUnresolved marks router values with no consistent branch wiring.
	ErrUnresolved = errors.New("unresolved router values")
	// ErrDanglingEdge marks an edge endpoint that names no parsed node.
	ErrDanglingEdge = errors.New("edge references nonexistent node")
)

// Kinds names the three node kinds the resolver must find exactly once each.
type Kinds struct {
	Router   string
	Selector string
	Sink     string
}

// DefaultKinds matches the stock source-generator patch.
func DefaultKinds() Kinds {
	return Kinds{Router: "route", Selector: "selector~", Sink: "outlet~"}
}

// Expectation is the precomputed ground truth for one router value: the
// branch it must activate and the output label that branch produces.
type Expectation struct {
	Value       int    `json:"value"`
	Port        int    `json:"port"`
	BranchNode  int    `json:"branch_node"`
	BranchKind  string `json:"branch_kind"`
	OutputLabel string `json:"output_label"`
}

// Topology holds the derived maps. Immutable after Resolve.
type Topology struct {
	p        *patch.Patch
	router   int
	selector int
	sink     int

	values        []int            // router args, declared order
	branches      map[int]int      // router outlet → branch node (last write wins)
	signalSources map[int]int      // selector inlet-1 → source node
	controlPorts  map[int]struct{} // router outlets feeding selector inlet 0
	outletTargets []int            // nodes fed by the selector, file order
	expectations  map[int]Expectation
}

// Resolve builds the derived maps from p and validates the structural
// invariants: unique router/selector/sink, sink reachable from the
// selector, and a consistent branch for every declared value.
func Resolve(p *patch.Patch, kinds Kinds) (*Topology, error) {
	t := &Topology{
		p:             p,
		branches:      make(map[int]int),
		signalSources: make(map[int]int),
		controlPorts:  make(map[int]struct{}),
		expectations:  make(map[int]Expectation),
	}

	var err error
	if t.router, err = findUnique(p, kinds.Router); err != nil {
		return nil, err
	}
	if t.selector, err = findUnique(p, kinds.Selector); err != nil {
		return nil, err
	}
	if t.sink, err = findUnique(p, kinds.Sink); err != nil {
		return nil, err
	}

	if err := t.validateEdges(); err != nil {
		return nil, err
	}

	for _, arg := range p.Nodes[t.router].Args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("router %d: argument %q is not an integer: %w", t.router, arg, err)
		}
		t.values = append(t.values, v)
	}

	t.classifyEdges()

	if !t.selectorReachesSink() {
		return nil, fmt.Errorf("%w: %s output never feeds %s (node %d)",
			ErrSinkUnreachable, kinds.Selector, kinds.Sink, t.sink)
	}

	if err := t.deriveExpectations(); err != nil {
		return nil, err
	}
	return t, nil
}

// validateEdges enforces the referential integrity the parser defers:
// every edge endpoint must name a parsed node. Without this, later map
// derivation would index the node slice with untrusted values.
func (t *Topology) validateEdges() error {
	for i, e := range t.p.Edges {
		if _, ok := t.p.Node(e.SrcNode); !ok {
			return fmt.Errorf("%w: edge %d source %d (patch has %d nodes)",
				ErrDanglingEdge, i, e.SrcNode, len(t.p.Nodes))
		}
		if _, ok := t.p.Node(e.DstNode); !ok {
			return fmt.Errorf("%w: edge %d destination %d (patch has %d nodes)",
				ErrDanglingEdge, i, e.DstNode, len(t.p.Nodes))
		}
	}
	return nil
}

// classifyEdges runs the single classification pass over all edges. An
// edge can land in the branch map and the signal-source map at once (it
// would have to leave the router and enter a selector signal inlet), but
// the predicates keyed on the same relation never overlap.
func (t *Topology) classifyEdges() {
	for _, e := range t.p.Edges {
		switch {
		case isControlFeed(e, t.router, t.selector):
			t.controlPorts[e.SrcPort] = struct{}{}
		case isBranchFeed(e, t.router, t.selector):
			t.branches[e.SrcPort] = e.DstNode
		}
		if isSignalFeed(e, t.selector) {
			t.signalSources[e.DstPort-1] = e.SrcNode
		}
		if isSelectorOut(e, t.selector) {
			t.outletTargets = append(t.outletTargets, e.DstNode)
		}
	}
}

func (t *Topology) selectorReachesSink() bool {
	for _, n := range t.outletTargets {
		if n == t.sink {
			return true
		}
	}
	return false
}

// deriveExpectations materializes one Expectation per declared value by
// cross-checking the router branch against the selector signal source on
// the same port. Any value that cannot be reconciled fails the whole
// patch; the error lists every such value.
func (t *Topology) deriveExpectations() error {
	for port, value := range t.values {
		branch, ok := t.branches[port]
		if !ok {
			continue
		}
		if src, ok := t.signalSources[port]; !ok || src != branch {
			continue
		}
		kind := t.p.Nodes[branch].Kind
		t.expectations[value] = Expectation{
			Value:       value,
			Port:        port,
			BranchNode:  branch,
			BranchKind:  kind,
			OutputLabel: kind + "::signal",
		}
	}

	var missing []int
	for _, v := range t.values {
		if _, ok := t.expectations[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		sort.Ints(missing)
		return fmt.Errorf("%w: %s", ErrUnresolved, joinInts(missing))
	}
	return nil
}

// findUnique scans p for nodes of the given kind and returns the single
// match, or an error naming every matching index otherwise.
func findUnique(p *patch.Patch, kind string) (int, error) {
	var matches []int
	for _, n := range p.Nodes {
		if n.Kind == kind {
			matches = append(matches, n.Index)
		}
	}
	if len(matches) != 1 {
		return 0, fmt.Errorf("%w: want exactly one %q node, found %d at %v",
			ErrLookup, kind, len(matches), matches)
	}
	return matches[0], nil
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

// Values returns the router's declared values in parameter order.
func (t *Topology) Values() []int {
	out := make([]int, len(t.values))
	copy(out, t.values)
	return out
}

// Expectation returns the derived expectation for value.
func (t *Topology) Expectation(value int) (Expectation, bool) {
	e, ok := t.expectations[value]
	return e, ok
}

// Expectations returns all derived expectations keyed by value.
func (t *Topology) Expectations() map[int]Expectation {
	out := make(map[int]Expectation, len(t.expectations))
	for k, v := range t.expectations {
		out[k] = v
	}
	return out
}

// HasControlPort reports whether the given router outlet feeds the
// selector's control inlet.
func (t *Topology) HasControlPort(port int) bool {
	_, ok := t.controlPorts[port]
	return ok
}

func (t *Topology) RouterIndex() int   { return t.router }
func (t *Topology) SelectorIndex() int { return t.selector }
func (t *Topology) SinkIndex() int     { return t.sink }
func (t *Topology) NodeCount() int     { return len(t.p.Nodes) }
func (t *Topology) EdgeCount() int     { return len(t.p.Edges) }
