package motion

import (
	"github.com/Faultbox/studiomdl/internal/bones"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/math"
)

// Bounds sets each sequence's bounding box by posing every vertex of every
// model through every frame of every blend. Tracks must already be in
// master bone order.
func Bounds(p *project.Project, t *bones.Table) {
	models := p.Models()
	pos := make([]math.Vec3, len(t.Bones))
	rot := make([]math.Vec3, len(t.Bones))

	for _, seq := range p.Sequences {
		lo := math.Vec3{9999, 9999, 9999}
		hi := math.Vec3{-9999, -9999, -9999}
		found := false

		for _, a := range seq.Blends {
			for f := 0; f < seq.NumFrames; f++ {
				for k := range t.Bones {
					pos[k], rot[k] = a.Pos[k][f], a.Rot[k][f]
				}
				pose := t.Pose(pos, rot)
				for _, m := range models {
					for _, v := range m.Verts {
						w := pose[v.Bone].Transform(v.Org)
						lo = math.Min(lo, w)
						hi = math.Max(hi, w)
						found = true
					}
				}
			}
		}
		if found {
			seq.BBMin, seq.BBMax = lo, hi
		}
	}
}
