// Package patch parses the line-oriented Pure Data text format into
// typed node and edge lists. Only object and connection declarations are
// of interest; canvas geometry, messages, and comments are skipped.
package patch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	objectPrefix  = "#X obj "
	connectPrefix = "#X connect "
)

// ErrMalformed marks lines that carry a recognized prefix but not the
// expected token shape. Matched with errors.Is.
var ErrMalformed = errors.New("malformed patch line")

// Load reads and parses the patch file at path.
func Load(path string) (*Patch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open patch %s: %w", path, err)
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", path, err)
	}
	return p, nil
}

// Parse scans r line by line and returns the patch's nodes and edges in
// file order. Referential integrity of edge endpoints is not checked
// here; the topology resolver owns that.
func Parse(r io.Reader) (*Patch, error) {
	p := &Patch{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, objectPrefix):
			if err := p.addObject(line); err != nil {
				return nil, err
			}
		case strings.HasPrefix(line, connectPrefix):
			if err := p.addConnection(line); err != nil {
				return nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read patch: %w", err)
	}
	return p, nil
}

// addObject parses "#X obj <x> <y> <kind> <args...>;". The two leading
// fields are canvas coordinates and are discarded.
func (p *Patch) addObject(line string) error {
	body := strings.TrimRight(line[len(objectPrefix):], ";")
	tokens := strings.Fields(body)
	if len(tokens) < 3 {
		return fmt.Errorf("%w: object line %q has %d fields, want at least 3", ErrMalformed, line, len(tokens))
	}
	p.Nodes = append(p.Nodes, Node{
		Index: len(p.Nodes),
		Kind:  tokens[2],
		Args:  tokens[3:],
	})
	return nil
}

// addConnection parses "#X connect <src> <outlet> <dst> <inlet>;".
func (p *Patch) addConnection(line string) error {
	body := strings.TrimRight(line[len(connectPrefix):], ";")
	tokens := strings.Fields(body)
	if len(tokens) != 4 {
		return fmt.Errorf("%w: connection line %q has %d fields, want 4", ErrMalformed, line, len(tokens))
	}
	ints := make([]int, 4)
	for i, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return fmt.Errorf("%w: connection line %q field %q is not an integer", ErrMalformed, line, tok)
		}
		ints[i] = n
	}
	p.Edges = append(p.Edges, Edge{
		SrcNode: ints[0],
		SrcPort: ints[1],
		DstNode: ints[2],
		DstPort: ints[3],
	})
	return nil
}
