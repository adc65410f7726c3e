package bones

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/studiomdl/internal/diag"
	"github.com/Faultbox/studiomdl/internal/logger"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/math"
	"github.com/Faultbox/studiomdl/pkg/studio"
)

const noGroup = -9999

// Unify builds the master bone table from every sub-model, then remaps
// geometry, sequence tracks, controllers, attachments and hitboxes onto it.
//
// Parent conflicts and unresolved names are collected and returned together.
func Unify(p *project.Project) (*Table, error) {
	t := &Table{}
	models := p.Models()

	applyRenames(p, models)
	markReferenced(p, models)

	var errs diag.List
	boneMaps := make([][]int, len(models))
	for i, m := range models {
		if m.Blank {
			continue
		}
		bm, err := t.merge(m, &errs)
		if err != nil {
			return nil, err
		}
		boneMaps[i] = bm
	}

	seqMaps := make([][][]int, len(p.Sequences))
	for i, seq := range p.Sequences {
		seqMaps[i] = make([][]int, len(seq.Blends))
		for j, a := range seq.Blends {
			seqMaps[i][j] = t.mapSequence(seq, a, &errs)
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	for i, m := range models {
		remapGeometry(m, boneMaps[i])
	}

	t.link(p, &errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	t.assignGroups(p)
	if len(t.Hitboxes) == 0 {
		t.autoHitboxes(models)
	}

	for i, seq := range p.Sequences {
		for j, a := range seq.Blends {
			t.relink(a, invert(seqMaps[i][j], len(t.Bones)))
		}
	}

	logger.Info("bones unified",
		zap.Int("bones", len(t.Bones)),
		zap.Int("hitboxes", len(t.Hitboxes)),
		zap.Int("controllers", len(t.Controllers)),
		zap.Int("attachments", len(t.Attachments)))
	return t, nil
}

func applyRenames(p *project.Project, models []*project.Model) {
	if len(p.Renames) == 0 {
		return
	}
	for _, m := range models {
		for i := range m.Nodes {
			m.Nodes[i].Name = p.RenameBone(m.Nodes[i].Name)
		}
	}
	for _, seq := range p.Sequences {
		for _, a := range seq.Blends {
			for i := range a.Nodes {
				a.Nodes[i].Name = p.RenameBone(a.Nodes[i].Name)
			}
		}
	}
}

// markReferenced flags bones used by vertices or named by a link command,
// then every ancestor of a flagged bone.
func markReferenced(p *project.Project, models []*project.Model) {
	var named []string
	for _, c := range p.Controllers {
		named = append(named, c.Bone)
	}
	for _, a := range p.Attachments {
		named = append(named, a.Bone)
	}
	for _, h := range p.Hitboxes {
		named = append(named, h.Bone)
	}

	for _, m := range models {
		m.BoneRef = make([]bool, len(m.Nodes))
		for i, n := range m.Nodes {
			if p.Options.KeepAllBones {
				m.BoneRef[i] = true
				continue
			}
			for _, name := range named {
				if equalName(p, n.Name, name) {
					m.BoneRef[i] = true
				}
			}
		}
		for _, v := range m.Verts {
			m.BoneRef[v.Bone] = true
		}
		for i := len(m.Nodes) - 1; i >= 0; i-- {
			if m.BoneRef[i] && m.Nodes[i].Parent >= 0 {
				m.BoneRef[m.Nodes[i].Parent] = true
			}
		}
	}
}

func equalName(p *project.Project, node, name string) bool {
	return strings.EqualFold(node, name) || strings.EqualFold(node, p.RenameBone(name))
}

func nodeParentName(nodes []project.Node, i int) string {
	if p := nodes[i].Parent; p >= 0 {
		return nodes[p].Name
	}
	return rootName
}

// merge adds the referenced bones of m to the table and returns the map
// from its nodes to master bones (-1 for unreferenced nodes).
func (t *Table) merge(m *project.Model, errs *diag.List) ([]int, error) {
	bm := make([]int, len(m.Nodes))
	for j, n := range m.Nodes {
		bm[j] = -1
		if !m.BoneRef[j] {
			continue
		}
		k := t.Find(n.Name)
		if k == -1 {
			if len(t.Bones) >= studio.MaxBones-1 {
				return nil, diag.Capacity("too many bones (max %d)", studio.MaxBones-1)
			}
			parent := -1
			if n.Parent >= 0 {
				parent = bm[n.Parent]
			}
			t.Bones = append(t.Bones, Bone{
				Name:   n.Name,
				Parent: parent,
				Pos:    m.Skeleton[j].Pos,
				Rot:    m.Skeleton[j].Rot,
				Source: m.Name,
			})
			bm[j] = len(t.Bones) - 1
			continue
		}

		if want, got := t.ParentName(k), nodeParentName(m.Nodes, j); !strings.EqualFold(want, got) {
			errs.Add(diag.Link("illegal parent bone replacement in model %q: %q has parent %q, model %q has %q",
				m.Name, n.Name, got, t.Bones[k].Source, want))
		}
		bm[j] = k
	}
	return bm, nil
}

// mapSequence maps the nodes of one blend onto the table. Nodes the table
// lacks map to -1 and are dropped.
func (t *Table) mapSequence(seq *project.Sequence, a *project.Animation, errs *diag.List) []int {
	bm := make([]int, len(a.Nodes))
	for j, n := range a.Nodes {
		k := t.Find(n.Name)
		bm[j] = k
		if k == -1 {
			continue
		}
		if want, got := t.ParentName(k), nodeParentName(a.Nodes, j); !strings.EqualFold(want, got) {
			errs.Add(diag.Link("illegal parent bone replacement in sequence %q: %q has parent %q, reference %q has %q",
				seq.Name, n.Name, got, t.Bones[k].Source, want))
		}
	}
	return bm
}

// invert turns a node->bone map into bone->node, -1 where absent.
func invert(bm []int, n int) []int {
	im := make([]int, n)
	for i := range im {
		im[i] = -1
	}
	for j, k := range bm {
		if k >= 0 && im[k] == -1 {
			im[k] = j
		}
	}
	return im
}

func remapGeometry(m *project.Model, bm []int) {
	for i := range m.Verts {
		m.Verts[i].Bone = bm[m.Verts[i].Bone]
	}
	for i := range m.Norms {
		m.Norms[i].Bone = bm[m.Norms[i].Bone]
	}
}

func (t *Table) lookup(p *project.Project, name string) int {
	if k := t.Find(name); k >= 0 {
		return k
	}
	return t.Find(p.RenameBone(name))
}

func (t *Table) link(p *project.Project, errs *diag.List) {
	for _, c := range p.Controllers {
		k := t.lookup(p, c.Bone)
		if k == -1 {
			errs.Add(diag.Link("unknown bone controller link %q", c.Bone))
			continue
		}
		t.Controllers = append(t.Controllers, Controller{Index: c.Index, Bone: k, Type: c.Type, Start: c.Start, End: c.End})
	}
	for _, a := range p.Attachments {
		k := t.lookup(p, a.Bone)
		if k == -1 {
			errs.Add(diag.Link("unknown attachment link %q", a.Bone))
			continue
		}
		t.Attachments = append(t.Attachments, Attachment{Index: a.Index, Bone: k, Org: a.Org})
	}
	for _, h := range p.Hitboxes {
		k := t.lookup(p, h.Bone)
		if k == -1 {
			errs.Add(diag.Link("cannot find bone %q for bbox", h.Bone))
			continue
		}
		t.Hitboxes = append(t.Hitboxes, Hitbox{Bone: k, Group: h.Group, Min: h.Min, Max: h.Max})
	}
	for _, g := range p.HitGroups {
		if t.lookup(p, g.Bone) == -1 {
			errs.Add(diag.Link("cannot find bone %q for hitgroup %d", g.Bone, g.Group))
		}
	}
}

// assignGroups sets hit groups from $hgroup; other bones inherit from
// their parent, roots default to 0.
func (t *Table) assignGroups(p *project.Project) {
	for k := range t.Bones {
		t.Bones[k].Group = noGroup
	}
	for _, g := range p.HitGroups {
		t.Bones[t.lookup(p, g.Bone)].Group = g.Group
	}
	for k := range t.Bones {
		if t.Bones[k].Group != noGroup {
			continue
		}
		if parent := t.Bones[k].Parent; parent >= 0 {
			t.Bones[k].Group = t.Bones[parent].Group
		} else {
			t.Bones[k].Group = 0
		}
	}
}

// autoHitboxes derives one box per bone from the zero box, its vertices and
// the bind positions of its children. Degenerate boxes are skipped.
func (t *Table) autoHitboxes(models []*project.Model) {
	mins := make([]math.Vec3, len(t.Bones))
	maxs := make([]math.Vec3, len(t.Bones))
	for _, m := range models {
		for _, v := range m.Verts {
			mins[v.Bone] = math.Min(mins[v.Bone], v.Org)
			maxs[v.Bone] = math.Max(maxs[v.Bone], v.Org)
		}
	}
	for _, b := range t.Bones {
		if b.Parent >= 0 {
			mins[b.Parent] = math.Min(mins[b.Parent], b.Pos)
			maxs[b.Parent] = math.Max(maxs[b.Parent], b.Pos)
		}
	}
	for k, b := range t.Bones {
		if mins[k][0] < maxs[k][0]-1 && mins[k][1] < maxs[k][1]-1 && mins[k][2] < maxs[k][2]-1 {
			t.Hitboxes = append(t.Hitboxes, Hitbox{Bone: k, Group: b.Group, Min: mins[k], Max: maxs[k]})
		}
	}
}

// relink rewrites an animation's tracks to master bone order. Bones the
// source lacks hold their default pose.
func (t *Table) relink(a *project.Animation, im []int) {
	n := a.NumFrames()
	pos := make([][]math.Vec3, len(t.Bones))
	rot := make([][]math.Vec3, len(t.Bones))
	for k, b := range t.Bones {
		pos[k] = make([]math.Vec3, n)
		rot[k] = make([]math.Vec3, n)
		j := im[k]
		for f := 0; f < n; f++ {
			if j == -1 {
				pos[k][f], rot[k][f] = b.Pos, b.Rot
			} else {
				pos[k][f], rot[k][f] = a.Pos[j][f], a.Rot[j][f]
			}
		}
	}
	a.Pos, a.Rot = pos, rot
}
