// Package bones merges the skeletons of every sub-model and sequence into a
// single master bone table and rewrites all bone references against it.
package bones

import (
	"strings"

	"github.com/Faultbox/studiomdl/pkg/math"
)

// rootName names the missing parent of a root bone in diagnostics.
const rootName = "ROOT"

// Bone is one master bone. Pos and Rot are the default (bind) pose.
type Bone struct {
	Name   string
	Parent int
	Pos    math.Vec3
	Rot    math.Vec3
	Flags  int
	Group  int

	// Source names the sub-model that introduced the bone.
	Source string
}

// Controller is a bone controller linked to its bone.
type Controller struct {
	Index int
	Bone  int
	Type  int
	Start float32
	End   float32
}

// Attachment is an attachment point linked to its bone.
type Attachment struct {
	Index int
	Bone  int
	Org   math.Vec3
}

// Hitbox is an intersection box in the space of its bone.
type Hitbox struct {
	Bone  int
	Group int
	Min   math.Vec3
	Max   math.Vec3
}

// Table is the unified skeleton. It is read-only once Unify returns.
type Table struct {
	Bones       []Bone
	Controllers []Controller
	Attachments []Attachment
	Hitboxes    []Hitbox
}

// Find returns the index of a bone by case-insensitive name, or -1.
func (t *Table) Find(name string) int {
	for i, b := range t.Bones {
		if strings.EqualFold(b.Name, name) {
			return i
		}
	}
	return -1
}

// Parents returns the parent index of every bone.
func (t *Table) Parents() []int {
	parents := make([]int, len(t.Bones))
	for i, b := range t.Bones {
		parents[i] = b.Parent
	}
	return parents
}

// ParentName returns the name of a bone's parent, or ROOT.
func (t *Table) ParentName(i int) string {
	if p := t.Bones[i].Parent; p >= 0 {
		return t.Bones[p].Name
	}
	return rootName
}

// Pose returns the world transform of every bone for the given local poses.
func (t *Table) Pose(pos, rot []math.Vec3) []math.Mat34 {
	local := make([]math.Mat34, len(t.Bones))
	for i := range t.Bones {
		local[i] = math.PoseMatrix(rot[i], pos[i])
	}
	return math.Chain(t.Parents(), local)
}
