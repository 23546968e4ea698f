package patch

// Node is an object declared in a Pure Data patch.
// Index is assigned in order of appearance and is the only key other
// structures use to refer to it.
type Node struct {
	Index int      `json:"index"`
	Kind  string   `json:"kind"`
	Args  []string `json:"args,omitempty"` // verbatim tokens; numeric parsing is the consumer's job
}

// Edge is a directed connection from an outlet of one node to an inlet
// of another, by node index.
type Edge struct {
	SrcNode int `json:"src_node"`
	SrcPort int `json:"src_port"`
	DstNode int `json:"dst_node"`
	DstPort int `json:"dst_port"`
}

// Patch holds the parsed object and connection lists in file order.
// It is immutable once returned by Parse.
type Patch struct {
	Nodes []Node
	Edges []Edge
}

// Node returns the node at index (false if out of range).
func (p *Patch) Node(index int) (Node, bool) {
	if index < 0 || index >= len(p.Nodes) {
		return Node{}, false
	}
	return p.Nodes[index], true
}
