package qc

import (
	"path/filepath"
	"testing"

	"github.com/chewxy/math32"

	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/math"
	"github.com/Faultbox/studiomdl/pkg/studio"
)

const fullScript = `// test model
$modelname "out/test"
$cd src
$cdtexture tex
$scale 2
$origin 1 2 3 90
$eyeposition 0 0 40
$bbox -1 -1 -1 1 1 1
$flags 4
$gamma 2.2
$mirrorbone "Bip01 L Arm"
$renamebone "Bip01" "Root"
$body body ref
$bodygroup heads
{
	studio "head1" reverse
	blank
	studio head2 scale 3
}
$controller mouth Jaw ZR 0 30
$controller 0 Head XR -180 180
$attachment 0 Gun 1 2 3 X
$hgroup 1 Head
$hbox 1 Head -1 -2 -3 1 2 3
$texturegroup skins
{
	{ a.bmp b.bmp }
	{ c.bmp d.bmp }
}
$texrendermode glass.bmp additive
$sequence idle idle loop fps 15 ACT_IDLE 1
$sequencegroup extra
$sequence walk {
	walk1 walk2
	frame 5 20
	blend XR -45 45
	LX
	rtransition 1 2
	{ event 1001 10 "step" }
	event 5 12
}
$cliptotextures
`

func parse(t *testing.T, script string) *project.Project {
	t.Helper()
	p, err := Parse(filepath.Join("models", "test.qc"), []byte(script), project.Options{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestParseGlobals(t *testing.T) {
	p := parse(t, fullScript)

	if p.OutName != "out/test.mdl" {
		t.Errorf("OutName = %q", p.OutName)
	}
	if want := filepath.Join("models", "src"); p.CDDir != want {
		t.Errorf("CDDir = %q, want %q", p.CDDir, want)
	}
	if len(p.TextureDirs) != 1 || p.TextureDirs[0] != filepath.Join("models", "tex") {
		t.Errorf("TextureDirs = %q", p.TextureDirs)
	}
	if p.Scale != 2 || p.Gamma != 2.2 || p.Flags != 4 {
		t.Errorf("scale/gamma/flags = %v %v %v", p.Scale, p.Gamma, p.Flags)
	}
	if p.Adjust != (math.Vec3{1, 2, 3}) {
		t.Errorf("Adjust = %v", p.Adjust)
	}
	if math32.Abs(p.ZRotation-math.Pi) > 1e-5 {
		t.Errorf("ZRotation = %v, want pi", p.ZRotation)
	}
	if p.EyePosition != (math.Vec3{0, 0, 40}) || p.BBoxMax != (math.Vec3{1, 1, 1}) {
		t.Errorf("eye/bbox = %v %v", p.EyePosition, p.BBoxMax)
	}
	if len(p.Mirrored) != 1 || p.Mirrored[0] != "Bip01 L Arm" {
		t.Errorf("Mirrored = %q", p.Mirrored)
	}
	if p.RenameBone("bip01") != "Root" {
		t.Errorf("rename not registered: %+v", p.Renames)
	}
}

func TestParseBodies(t *testing.T) {
	p := parse(t, fullScript)
	if len(p.BodyParts) != 2 {
		t.Fatalf("body parts = %d, want 2", len(p.BodyParts))
	}
	body, heads := p.BodyParts[0], p.BodyParts[1]
	if body.Base != 1 || heads.Base != 1 {
		t.Errorf("bases = %d %d, want 1 1", body.Base, heads.Base)
	}
	if want := filepath.Join("models", "src", "ref.smd"); body.Models[0].Path != want {
		t.Errorf("body path = %q, want %q", body.Models[0].Path, want)
	}
	if body.Models[0].Scale != 2 || body.Models[0].Adjust != (math.Vec3{1, 2, 3}) {
		t.Errorf("body model scale/adjust = %v %v", body.Models[0].Scale, body.Models[0].Adjust)
	}
	if len(heads.Models) != 3 {
		t.Fatalf("head models = %d, want 3", len(heads.Models))
	}
	if !heads.Models[0].Reverse || !heads.Models[1].Blank || heads.Models[2].Scale != 3 {
		t.Errorf("head options = %+v %+v %+v", heads.Models[0], heads.Models[1], heads.Models[2])
	}
}

func TestBodyPartBase(t *testing.T) {
	p := parse(t, `$modelname m
$bodygroup a
{
	studio a1
	studio a2
	studio a3
}
$bodygroup b
{
	studio b1
	blank
}
$body c c1
`)
	want := []int{1, 3, 6}
	for i, bp := range p.BodyParts {
		if bp.Base != want[i] {
			t.Errorf("body part %d base = %d, want %d", i, bp.Base, want[i])
		}
	}
}

func TestParseLinks(t *testing.T) {
	p := parse(t, fullScript)
	if len(p.Controllers) != 2 {
		t.Fatalf("controllers = %d", len(p.Controllers))
	}
	mouth, head := p.Controllers[0], p.Controllers[1]
	if mouth.Index != 4 || mouth.Bone != "Jaw" || mouth.Type != studio.ZR || mouth.End != 30 {
		t.Errorf("mouth = %+v", mouth)
	}
	if head.Type != studio.XR|studio.RLoop {
		t.Errorf("full-turn controller type = %#x, want XR|RLOOP", head.Type)
	}
	if len(p.Attachments) != 1 || p.Attachments[0].Org != (math.Vec3{2, 4, 6}) {
		t.Errorf("attachments = %+v", p.Attachments)
	}
	if len(p.HitGroups) != 1 || p.HitGroups[0].Group != 1 {
		t.Errorf("hit groups = %+v", p.HitGroups)
	}
	if len(p.Hitboxes) != 1 || p.Hitboxes[0].Min != (math.Vec3{-1, -2, -3}) {
		t.Errorf("hitboxes = %+v", p.Hitboxes)
	}
	if len(p.TextureGroups) != 1 || len(p.TextureGroups[0].Layers) != 2 || p.TextureGroups[0].Layers[1][1] != "d.bmp" {
		t.Errorf("texture groups = %+v", p.TextureGroups)
	}
	if len(p.RenderModes) != 1 || p.RenderModes[0].Flags != studio.TextureAdditive {
		t.Errorf("render modes = %+v", p.RenderModes)
	}
}

func TestParseSequences(t *testing.T) {
	p := parse(t, fullScript)
	if len(p.Sequences) != 2 || len(p.SeqGroups) != 2 {
		t.Fatalf("sequences = %d groups = %d", len(p.Sequences), len(p.SeqGroups))
	}

	idle := p.Sequences[0]
	if idle.Flags&studio.Looping == 0 || idle.FPS != 15 || idle.Activity != 1 || idle.ActWeight != 1 {
		t.Errorf("idle = %+v", idle)
	}
	if idle.Group != 0 || len(idle.Blends) != 1 || idle.Blends[0].EndFrame != studio.MaxAnimations-1 {
		t.Errorf("idle group/blends = %d %+v", idle.Group, idle.Blends)
	}
	if want := filepath.Join("models", "src", "idle.smd"); idle.Blends[0].Path != want {
		t.Errorf("idle path = %q, want %q", idle.Blends[0].Path, want)
	}

	walk := p.Sequences[1]
	if walk.Group != 1 || len(walk.Blends) != 2 {
		t.Fatalf("walk group/blends = %d %d", walk.Group, len(walk.Blends))
	}
	if walk.StartFrame != 5 || walk.EndFrame != 20 || walk.Blends[1].StartFrame != 5 {
		t.Errorf("walk frames = %d..%d", walk.StartFrame, walk.EndFrame)
	}
	if walk.BlendType[0] != studio.XR || walk.BlendStart[0] != -45 || walk.BlendEnd[0] != 45 {
		t.Errorf("walk blend = %v %v %v", walk.BlendType, walk.BlendStart, walk.BlendEnd)
	}
	if walk.MotionType != studio.LX {
		t.Errorf("walk motion = %#x", walk.MotionType)
	}
	if walk.EntryNode != 1 || walk.ExitNode != 2 || walk.NodeFlags != 1 {
		t.Errorf("walk nodes = %d %d %d", walk.EntryNode, walk.ExitNode, walk.NodeFlags)
	}
	if len(walk.Events) != 2 || walk.Events[0].Event != 1001 || walk.Events[0].Options != "step" || walk.Events[1].Frame != 12 {
		t.Errorf("walk events = %+v", walk.Events)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"unknown command", "$modelname m\n$bogus 1\n"},
		{"missing modelname", "$scale 1\n"},
		{"no source", "$modelname m\n$sequence idle loop\n"},
		{"unbalanced", "$modelname m\n$sequence idle {\n idle\n"},
		{"bad number", "$modelname m\n$scale big\n"},
		{"controller type", "$modelname m\n$controller 0 Head Q 0 1\n"},
		{"incomplete line", "$modelname m\n$origin 1 2\n$scale 1\n"},
		{"too many blends", "$modelname m\n$sequence s a b c\n"},
		{"ragged texture group", "$modelname m\n$texturegroup g\n{\n{ a b }\n{ c }\n}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse("bad.qc", []byte(tt.script), project.Options{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
