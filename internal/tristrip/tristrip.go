// Package tristrip converts a triangle soup into strip and fan draw commands.
package tristrip

import (
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/studio"
)

const (
	typeStrip = iota
	typeFan
)

// builder holds the scratch state of one mesh.
type builder struct {
	tris [][3]project.TriVert
	used []int

	// neighbor[t][e] is the triangle across edge (e, e+1) of t, and edge[t][e]
	// the matching start corner in that triangle.
	neighbor [][3]int
	edge     [][3]int

	stripTris  []int
	stripVerts []int
}

// Build returns the command stream for tris: per run a length (negative for a
// fan) followed by vertex, normal, s and t of each run vertex, terminated by
// a single 0.
func Build(tris [][3]project.TriVert) []int16 {
	b := &builder{
		tris:       tris,
		used:       make([]int, len(tris)),
		neighbor:   make([][3]int, len(tris)),
		edge:       make([][3]int, len(tris)),
		stripTris:  make([]int, 0, studio.MaxStripLength),
		stripVerts: make([]int, 0, studio.MaxStripLength),
	}
	b.findNeighbors()
	return b.commands()
}

func (b *builder) findNeighbors() {
	for i := range b.tris {
		b.neighbor[i] = [3]int{-1, -1, -1}
	}
	for i := range b.tris {
		for k := 0; k < 3; k++ {
			if b.used[i]&(1<<k) == 0 {
				b.findNeighbor(i, k)
			}
		}
	}
}

// findNeighbor links edge v of triangle t with the first later triangle that
// holds the same corners in reverse order.
func (b *builder) findNeighbor(t, v int) {
	m1 := b.tris[t][(v+1)%3]
	m2 := b.tris[t][v]
	for j := t + 1; j < len(b.tris); j++ {
		if b.used[j] == 7 {
			continue
		}
		for k := 0; k < 3; k++ {
			if b.tris[j][k] != m1 || b.tris[j][(k+1)%3] != m2 {
				continue
			}
			b.neighbor[t][v], b.edge[t][v] = j, k
			b.neighbor[j][k], b.edge[j][k] = t, v
			b.used[t] |= 1 << v
			b.used[j] |= 1 << k
			return
		}
	}
}

// walk follows neighbors from a start corner and returns the run length. A
// strip alternates its exit edge; a fan always pivots on the first vertex.
// Triangles on the run are marked with 2 until clearTemp.
func (b *builder) walk(typ, t, v int) int {
	b.used[t] = 2
	b.stripTris = append(b.stripTris[:0], t, t, t)
	b.stripVerts = append(b.stripVerts[:0], v%3, (v+1)%3, (v+2)%3)

	for len(b.stripTris) < studio.MaxStripLength {
		e := (v + 2) % 3
		if typ == typeStrip && len(b.stripTris)&1 == 1 {
			e = (v + 1) % 3
		}
		j, k := b.neighbor[t][e], b.edge[t][e]
		if j == -1 || b.used[j] != 0 {
			break
		}
		b.stripVerts = append(b.stripVerts, (k+2)%3)
		b.stripTris = append(b.stripTris, j)
		b.used[j] = 2
		t, v = j, k
	}

	for i := range b.used {
		if b.used[i] == 2 {
			b.used[i] = 0
		}
	}
	return len(b.stripTris)
}

func (b *builder) commands() []int16 {
	n := len(b.tris)
	peak := make([]int, n)
	for i := range b.used {
		b.used[i] = 0
		peak[i] = n
	}

	bestTris := make([]int, 0, studio.MaxStripLength)
	bestVerts := make([]int, 0, studio.MaxStripLength)
	var cmds []int16
	maxLen := 9999

	for i := 0; i < n; {
		if b.used[i] != 0 {
			i++
			continue
		}

		bestLen, bestType := 0, typeStrip
		for k := i; k < n && bestLen < studio.MaxStripLength; k++ {
			if b.used[k] != 0 || peak[k] <= bestLen {
				continue
			}
			localPeak := 0
			for typ := typeStrip; typ <= typeFan; typ++ {
				for v := 0; v < 3; v++ {
					l := b.walk(typ, k, v)
					if l > bestLen {
						bestType, bestLen = typ, l
						bestTris = append(bestTris[:0], b.stripTris...)
						bestVerts = append(bestVerts[:0], b.stripVerts...)
					}
					localPeak = max(localPeak, l)
				}
			}
			peak[k] = localPeak
			if localPeak == maxLen {
				break
			}
		}
		maxLen = bestLen

		for _, t := range bestTris {
			b.used[t] = 1
		}
		if bestType == typeFan {
			cmds = append(cmds, int16(-bestLen))
		} else {
			cmds = append(cmds, int16(bestLen))
		}
		for j, t := range bestTris {
			tv := b.tris[t][bestVerts[j]]
			cmds = append(cmds, int16(tv.Vert), int16(tv.Norm), int16(tv.S), int16(tv.T))
		}
	}
	return append(cmds, 0)
}
