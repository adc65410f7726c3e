package bones

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Faultbox/studiomdl/internal/diag"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/math"
)

// chain builds a model whose nodes form the given parent list, with one
// vertex on every node.
func chain(name string, names []string, parents []int) *project.Model {
	m := &project.Model{Name: name, Scale: 1}
	for i, n := range names {
		m.Nodes = append(m.Nodes, project.Node{Name: n, Parent: parents[i]})
		m.Skeleton = append(m.Skeleton, project.BonePose{Pos: math.Vec3{0, 0, float32(i)}})
		m.Verts = append(m.Verts, project.Vertex{Bone: i, Org: math.Vec3{float32(i), 0, 0}})
	}
	return m
}

func withModels(models ...*project.Model) *project.Project {
	p := project.New()
	for _, m := range models {
		p.BodyParts = append(p.BodyParts, &project.BodyPart{Name: m.Name, Models: []*project.Model{m}})
	}
	return p
}

func TestUnifyMerge(t *testing.T) {
	body := chain("body", []string{"root", "Spine", "Head"}, []int{-1, 0, 1})
	arms := chain("arms", []string{"root", "Spine", "Arm"}, []int{-1, 0, 1})
	p := withModels(body, arms)

	tbl, err := Unify(p)
	if err != nil {
		t.Fatalf("Unify() error = %v", err)
	}

	want := []string{"root", "Spine", "Head", "Arm"}
	if len(tbl.Bones) != len(want) {
		t.Fatalf("bones = %d, want %d", len(tbl.Bones), len(want))
	}
	seen := map[string]bool{}
	for i, b := range tbl.Bones {
		if b.Name != want[i] {
			t.Errorf("bone %d = %q, want %q", i, b.Name, want[i])
		}
		if seen[strings.ToLower(b.Name)] {
			t.Errorf("duplicate bone %q", b.Name)
		}
		seen[strings.ToLower(b.Name)] = true
		if b.Parent >= i {
			t.Errorf("bone %q parent %d not before index %d", b.Name, b.Parent, i)
		}
	}
	if tbl.Bones[3].Parent != 1 || tbl.Bones[3].Source != "arms" {
		t.Errorf("Arm = %+v", tbl.Bones[3])
	}
	// Vertex bones now index the master table.
	if arms.Verts[2].Bone != 3 {
		t.Errorf("arm vertex bone = %d, want 3", arms.Verts[2].Bone)
	}
}

func TestUnifyParentConflict(t *testing.T) {
	body := chain("body", []string{"root", "Spine", "Head"}, []int{-1, 0, 1})
	head := chain("head2", []string{"root", "Neck", "Head"}, []int{-1, 0, 1})
	_, err := Unify(withModels(body, head))
	if !diag.IsKind(err, diag.KindLink) {
		t.Fatalf("error = %v, want link error", err)
	}
	for _, want := range []string{"head2", "body", "Head", "Neck", "Spine"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestUnifyRootConflict(t *testing.T) {
	a := chain("a", []string{"pelvis", "Head"}, []int{-1, 0})
	b := chain("b", []string{"Head"}, []int{-1})
	_, err := Unify(withModels(a, b))
	if err == nil || !strings.Contains(err.Error(), rootName) {
		t.Fatalf("error = %v, want mention of %s", err, rootName)
	}
}

func TestUnifyUnreferenced(t *testing.T) {
	m := chain("body", []string{"root", "Spine", "Tail"}, []int{-1, 0, 0})
	m.Verts = []project.Vertex{{Bone: 1}}

	tbl, err := Unify(withModels(m))
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Bones) != 2 || tbl.Find("Tail") != -1 {
		t.Errorf("bones = %+v, want root and Spine only", tbl.Bones)
	}

	m2 := chain("body", []string{"root", "Spine", "Tail"}, []int{-1, 0, 0})
	m2.Verts = []project.Vertex{{Bone: 1}}
	p := withModels(m2)
	p.Options.KeepAllBones = true
	tbl, err = Unify(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Bones) != 3 {
		t.Errorf("keep-all bones = %d, want 3", len(tbl.Bones))
	}
}

func TestUnifyLinks(t *testing.T) {
	m := chain("body", []string{"root", "Spine", "Head"}, []int{-1, 0, 1})
	p := withModels(m)
	p.Controllers = []project.Controller{{Index: 0, Bone: "head", Type: 0x8}}
	p.Attachments = []project.Attachment{{Index: 0, Bone: "Spine", Org: math.Vec3{1, 2, 3}}}
	p.HitGroups = []project.HitGroup{{Group: 1, Bone: "Spine"}}

	tbl, err := Unify(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Controllers) != 1 || tbl.Controllers[0].Bone != 2 {
		t.Errorf("controllers = %+v", tbl.Controllers)
	}
	if len(tbl.Attachments) != 1 || tbl.Attachments[0].Bone != 1 {
		t.Errorf("attachments = %+v", tbl.Attachments)
	}
	groups := []int{0, 1, 1}
	for i, g := range groups {
		if tbl.Bones[i].Group != g {
			t.Errorf("bone %d group = %d, want %d", i, tbl.Bones[i].Group, g)
		}
	}
}

func TestUnifyUnknownLinks(t *testing.T) {
	m := chain("body", []string{"root"}, []int{-1})
	p := withModels(m)
	p.Controllers = []project.Controller{{Bone: "Jaw"}}
	p.Attachments = []project.Attachment{{Bone: "Gun"}}

	_, err := Unify(p)
	if !diag.IsKind(err, diag.KindLink) {
		t.Fatalf("error = %v, want link error", err)
	}
	if !strings.Contains(err.Error(), "Jaw") || !strings.Contains(err.Error(), "Gun") {
		t.Errorf("error %q should report both links", err)
	}
}

func TestUnifyTooManyBones(t *testing.T) {
	var names []string
	var parents []int
	for i := 0; i < 200; i++ {
		names = append(names, fmt.Sprintf("b%d", i))
		parents = append(parents, i-1)
	}
	_, err := Unify(withModels(chain("big", names, parents)))
	if !diag.IsKind(err, diag.KindLink) || !strings.Contains(err.Error(), "too many bones") {
		t.Errorf("error = %v, want bone capacity error", err)
	}
}

func TestAutoHitboxes(t *testing.T) {
	m := &project.Model{
		Name:     "body",
		Nodes:    []project.Node{{Name: "root", Parent: -1}, {Name: "leaf", Parent: 0}},
		Skeleton: []project.BonePose{{}, {Pos: math.Vec3{0, 0, 10}}},
		Verts: []project.Vertex{
			{Bone: 0, Org: math.Vec3{-5, -5, -5}},
			{Bone: 0, Org: math.Vec3{5, 5, 0}},
			{Bone: 1, Org: math.Vec3{0.5, 0, 0}},
		},
	}
	tbl, err := Unify(withModels(m))
	if err != nil {
		t.Fatal(err)
	}
	// The leaf box is degenerate. The root box reaches the child at z=10.
	if len(tbl.Hitboxes) != 1 {
		t.Fatalf("hitboxes = %+v, want 1", tbl.Hitboxes)
	}
	hb := tbl.Hitboxes[0]
	if hb.Bone != 0 || hb.Min != (math.Vec3{-5, -5, -5}) || hb.Max != (math.Vec3{5, 5, 10}) {
		t.Errorf("hitbox = %+v", hb)
	}
}

func TestUnifyRelink(t *testing.T) {
	m := chain("body", []string{"root", "Spine", "Head"}, []int{-1, 0, 1})
	p := withModels(m)
	// The sequence lacks Spine and Head and carries an extra bone that is dropped.
	a := &project.Animation{
		StartFrame: 0,
		EndFrame:   1,
		Nodes:      []project.Node{{Name: "root", Parent: -1}, {Name: "Extra", Parent: 0}},
		Pos:        [][]math.Vec3{{{1, 0, 0}, {2, 0, 0}}, {{9, 9, 9}, {9, 9, 9}}},
		Rot:        [][]math.Vec3{{{}, {}}, {{}, {}}},
	}
	p.Sequences = []*project.Sequence{{Name: "idle", Blends: []*project.Animation{a}}}

	tbl, err := Unify(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Pos) != len(tbl.Bones) {
		t.Fatalf("tracks = %d, want %d", len(a.Pos), len(tbl.Bones))
	}
	if a.Pos[0][1] != (math.Vec3{2, 0, 0}) {
		t.Errorf("root frame 1 = %v", a.Pos[0][1])
	}
	if a.Pos[1][0] != tbl.Bones[1].Pos || a.Pos[1][1] != tbl.Bones[1].Pos {
		t.Errorf("missing bone track = %v, want default %v", a.Pos[1], tbl.Bones[1].Pos)
	}
}

func TestUnifySequenceConflict(t *testing.T) {
	m := chain("body", []string{"root", "Spine"}, []int{-1, 0})
	p := withModels(m)
	a := &project.Animation{
		EndFrame: 0,
		Nodes:    []project.Node{{Name: "Spine", Parent: -1}},
		Pos:      [][]math.Vec3{{{}}},
		Rot:      [][]math.Vec3{{{}}},
	}
	p.Sequences = []*project.Sequence{{Name: "bad", Blends: []*project.Animation{a}}}
	_, err := Unify(p)
	if !diag.IsKind(err, diag.KindLink) || !strings.Contains(err.Error(), "bad") {
		t.Errorf("error = %v, want link error naming sequence", err)
	}
}

func TestUnifyRename(t *testing.T) {
	a := chain("a", []string{"Bip01", "Bip01 Head"}, []int{-1, 0})
	b := chain("b", []string{"root", "Head"}, []int{-1, 0})
	p := withModels(a, b)
	p.Renames = []project.Rename{{From: "Bip01", To: "root"}, {From: "Bip01 Head", To: "Head"}}
	tbl, err := Unify(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.Bones) != 2 || tbl.Bones[1].Name != "Head" {
		t.Errorf("bones = %+v", tbl.Bones)
	}
}
