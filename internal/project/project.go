// Package project holds the model description assembled from a QC script and
// its source files. A Project is owned by one compile run and is filled in
// stage by stage: the script parser creates it, the importers attach
// geometry and animation, and the unifier rewrites bone references in place.
package project

import (
	"strings"

	"github.com/chewxy/math32"

	"github.com/Faultbox/studiomdl/pkg/math"
)

// Defaults.
const (
	DefaultGamma = 1.8
	DefaultFPS   = 30
	// DefaultNormalBlend is the normal merge angle in degrees.
	DefaultNormalBlend = 2.0
)

// Rename maps a source bone name to the name used in the output.
type Rename struct {
	From string
	To   string
}

// HitGroup assigns a hit group to a named bone.
type HitGroup struct {
	Group int
	Bone  string
}

// Controller is a $controller entry.
type Controller struct {
	Index int
	Bone  string
	Type  int
	Start float32
	End   float32
}

// Attachment is an $attachment entry. Org is already scaled.
type Attachment struct {
	Index int
	Bone  string
	Org   math.Vec3
}

// Hitbox is an $hbox entry.
type Hitbox struct {
	Group int
	Bone  string
	Min   math.Vec3
	Max   math.Vec3
}

// TextureGroup is a $texturegroup: Layers[skin][slot] are texture names.
// Layer 0 lists the textures used by the meshes, later layers their replacements.
type TextureGroup struct {
	Name   string
	Layers [][]string
}

// RenderMode is a $texrendermode override.
type RenderMode struct {
	Texture string
	Flags   int
}

// SeqGroup is a sequence group. Group 0 lives in the main file.
type SeqGroup struct {
	Label string
	Name  string
}

// BodyPart is a named slot with one or more interchangeable sub-models.
type BodyPart struct {
	Name   string
	Models []*Model
	Base   int
}

// Options are per-run compile switches.
type Options struct {
	FlipTriangles bool
	KeepAllBones  bool
	// NormalBlend is the cosine of the merge angle for normals.
	NormalBlend float32
}

// Project is the mutable compile descriptor.
type Project struct {
	OutName     string
	CDDir       string
	TextureDirs []string

	Scale     float32
	Adjust    math.Vec3
	ZRotation float32
	Gamma     float32

	EyePosition math.Vec3
	BBoxMin     math.Vec3
	BBoxMax     math.Vec3
	CBoxMin     math.Vec3
	CBoxMax     math.Vec3
	Flags       int

	Mirrored    []string
	Renames     []Rename
	HitGroups   []HitGroup
	Controllers []Controller
	Attachments []Attachment
	Hitboxes    []Hitbox

	Textures      []*Texture
	TextureGroups []TextureGroup
	RenderModes   []RenderMode

	BodyParts []*BodyPart
	Sequences []*Sequence
	SeqGroups []SeqGroup

	Options Options
}

// New returns a project with script defaults applied.
func New() *Project {
	return &Project{
		Scale:     1,
		ZRotation: math.Pi / 2,
		Gamma:     DefaultGamma,
		SeqGroups: []SeqGroup{{Label: "default"}},
		Options: Options{
			NormalBlend: NormalBlendCos(DefaultNormalBlend),
		},
	}
}

// NormalBlendCos converts a merge angle in degrees to the cosine threshold.
func NormalBlendCos(degrees float32) float32 {
	return math32.Cos(math.Deg2Rad(degrees))
}

// RenameBone applies the first matching rename rule.
func (p *Project) RenameBone(name string) string {
	for _, r := range p.Renames {
		if strings.EqualFold(r.From, name) {
			return r.To
		}
	}
	return name
}

// IsMirrored reports whether a bone was named by $mirrorbone.
func (p *Project) IsMirrored(name string) bool {
	for _, m := range p.Mirrored {
		if strings.EqualFold(m, name) {
			return true
		}
	}
	return false
}

// LookupTexture returns the index of a texture by name, adding it if new.
func (p *Project) LookupTexture(name string) int {
	for i, t := range p.Textures {
		if strings.EqualFold(t.Name, name) {
			return i
		}
	}
	p.Textures = append(p.Textures, &Texture{Name: name, Parent: -1})
	return len(p.Textures) - 1
}

// FindTexture returns the index of an existing texture or -1.
func (p *Project) FindTexture(name string) int {
	for i, t := range p.Textures {
		if strings.EqualFold(t.Name, name) {
			return i
		}
	}
	return -1
}

// Models returns every sub-model in body part order.
func (p *Project) Models() []*Model {
	var out []*Model
	for _, bp := range p.BodyParts {
		out = append(out, bp.Models...)
	}
	return out
}
