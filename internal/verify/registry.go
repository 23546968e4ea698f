package verify

import (
	"fmt"
	"sync"

	"github.com/bholykov/pdstage/internal/selector"
	"github.com/bholykov/pdstage/internal/topology"
)

// Context carries the resolved state every check runs against.
type Context struct {
	Topo *topology.Topology
	Sim  *selector.Simulator
}

// Finding is one failed assertion from a check.
type Finding struct {
	Check  string `json:"check"`
	Value  *int   `json:"value,omitempty"` // nil for patch-wide findings
	Detail string `json:"detail"`
}

// Check is the interface all structural checks satisfy.
type Check interface {
	// Name returns the string key this check is registered under.
	Name() string
	// Run inspects the resolved state and returns zero or more findings.
	Run(ctx *Context) []Finding
}

// Registry maps check names to their implementations.
// Safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]Check
	order  []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]Check)}
}

// Register adds a check. Panics on duplicate name to surface
// misconfiguration early.
func (r *Registry) Register(c Check) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.checks[c.Name()]; exists {
		panic(fmt.Sprintf("check registry: duplicate name %q", c.Name()))
	}
	r.checks[c.Name()] = c
	r.order = append(r.order, c.Name())
}

// Checks returns all registered checks in registration order.
func (r *Registry) Checks() []Check {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Check, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.checks[name])
	}
	return out
}

// DefaultRegistry returns a registry with the three stock checks.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(DomainCoverage{})
	r.Register(LabelMatch{})
	r.Register(LabelExclusivity{})
	return r
}
