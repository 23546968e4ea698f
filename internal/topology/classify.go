package topology

import "github.com/bholykov/pdstage/internal/patch"

// Edge classification predicates. Each derived relation in Resolve is
// fed by exactly one of these; keeping them as standalone functions
// keeps the classification auditable and lets new roles slot in later.

// isControlFeed reports whether e carries the router's control message
// into the selector's control inlet (inlet 0).
func isControlFeed(e patch.Edge, router, selector int) bool {
	return e.SrcNode == router && e.DstNode == selector && e.DstPort == 0
}

// isBranchFeed reports whether e routes a value out of the router into a
// branch subpatch. Edges into the selector's control inlet are excluded;
// they are control feeds, not branches.
func isBranchFeed(e patch.Edge, router, selector int) bool {
	return e.SrcNode == router && !isControlFeed(e, router, selector)
}

// isSignalFeed reports whether e carries a branch's signal into one of
// the selector's signal inlets. Inlet 0 is reserved for control, so the
// signal inlet index is DstPort-1 (never negative under this predicate).
func isSignalFeed(e patch.Edge, selector int) bool {
	return e.DstNode == selector && e.DstPort > 0
}

// isSelectorOut reports whether e leaves the selector.
func isSelectorOut(e patch.Edge, selector int) bool {
	return e.SrcNode == selector
}
