package motion

import "github.com/Faultbox/studiomdl/internal/project"

// Graph is the node transition matrix. Links[i*Size+j] is the node to move
// to next when travelling from node i+1 to node j+1, or 0 for no route.
type Graph struct {
	Size  int
	Links []byte
}

// Next returns the next node on the route from one node to another. Nodes
// are numbered from 1.
func (g *Graph) Next(from, to int) int {
	if from < 1 || to < 1 || from > g.Size || to > g.Size {
		return 0
	}
	return int(g.Links[(from-1)*g.Size+to-1])
}

func (g *Graph) set(from, to, via int) {
	g.Links[(from-1)*g.Size+to-1] = byte(via)
}

// Transitions builds the graph from each sequence's entry and exit nodes.
// Direct links come first, then multi-stage routes are added until no
// route changes.
func Transitions(seqs []*project.Sequence) *Graph {
	g := &Graph{}
	for _, seq := range seqs {
		g.Size = max(g.Size, seq.EntryNode, seq.ExitNode)
	}
	g.Links = make([]byte, g.Size*g.Size)

	for _, seq := range seqs {
		entry, exit := seq.EntryNode, seq.ExitNode
		if entry == exit || entry < 1 || exit < 1 {
			continue
		}
		g.set(entry, exit, exit)
		if seq.NodeFlags&1 != 0 {
			g.set(exit, entry, entry)
		}
	}

	for changed := true; changed; {
		changed = false
		for i := 1; i <= g.Size; i++ {
			for j := 1; j <= g.Size; j++ {
				for k := 1; k <= g.Size; k++ {
					if g.Next(i, j) == 0 && g.Next(i, k) > 0 && g.Next(g.Next(i, k), j) > 0 {
						g.set(i, j, g.Next(i, k))
						changed = true
					}
				}
			}
		}
	}
	return g
}
