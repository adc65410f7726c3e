package project

import "github.com/Faultbox/studiomdl/pkg/math"

// Event is an animation event fired at a frame.
type Event struct {
	Event   int
	Frame   int
	Type    int
	Options string
}

// Pivot is a foot pivot used by the engine's ground alignment.
type Pivot struct {
	Index int
	Org   math.Vec3
	Start int
	End   int
}

// Animation is one blend of a sequence, imported from a source file.
// Pos and Rot are indexed [bone][frame]. Before unification bones are the
// source nodes; afterwards they are master bones.
type Animation struct {
	Name       string
	Path       string
	StartFrame int
	EndFrame   int

	Nodes []Node
	Pos   [][]math.Vec3
	Rot   [][]math.Vec3
}

// NumFrames returns the number of imported frames.
func (a *Animation) NumFrames() int {
	return a.EndFrame - a.StartFrame + 1
}

// Sequence is a named animation with playback and event metadata.
type Sequence struct {
	Name string

	// Import parameters.
	Adjust    math.Vec3
	Scale     float32
	ZRotation float32

	StartFrame  int
	EndFrame    int
	NumFrames   int
	FrameOffset int

	FPS       float32
	Flags     int
	Activity  int
	ActWeight int

	MotionType     int
	MotionBone     int
	LinearMovement math.Vec3

	Events []Event
	Pivots []Pivot

	Blends     []*Animation
	BlendType  [2]int
	BlendStart [2]float32
	BlendEnd   [2]float32

	BBMin math.Vec3
	BBMax math.Vec3

	EntryNode int
	ExitNode  int
	NodeFlags int

	Group int
}
