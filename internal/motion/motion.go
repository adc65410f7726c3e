// Package motion prepares imported sequences for compression: it settles
// frame counts and loops, removes root motion, builds the transition graph
// and computes per-sequence bounds.
package motion

import (
	"go.uber.org/zap"

	"github.com/Faultbox/studiomdl/internal/diag"
	"github.com/Faultbox/studiomdl/internal/logger"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/math"
	"github.com/Faultbox/studiomdl/pkg/studio"
)

// Optimize sets each sequence's frame count from its first blend, closes
// looping sequences and clamps events into the imported range.
//
// Every blend must carry at least as many frames as the first. Out of range
// events are clamped and reported together once all sequences are done.
func Optimize(p *project.Project) error {
	var errs diag.List
	for _, seq := range p.Sequences {
		if len(seq.Blends) == 0 {
			continue
		}
		first := seq.Blends[0]
		n := first.NumFrames()
		seq.NumFrames = n
		seq.FrameOffset = first.StartFrame

		for _, a := range seq.Blends[1:] {
			if a.NumFrames() < n {
				errs.Add(diag.Malformed(a.Path, 0, "sequence %q: blend has %d frames, want %d", seq.Name, a.NumFrames(), n))
			}
		}

		if seq.Flags&studio.Looping != 0 && n > 1 {
			for _, a := range seq.Blends {
				closeLoop(a, n, seq.MotionType)
			}
		}

		for i := range seq.Events {
			ev := &seq.Events[i]
			switch {
			case ev.Frame < first.StartFrame:
				errs.Add(diag.Malformed(first.Path, 0, "sequence %q: event %d at frame %d before first frame %d",
					seq.Name, ev.Event, ev.Frame, first.StartFrame))
				ev.Frame = first.StartFrame
			case ev.Frame > first.EndFrame:
				errs.Add(diag.Malformed(first.Path, 0, "sequence %q: event %d at frame %d after last frame %d",
					seq.Name, ev.Event, ev.Frame, first.EndFrame))
				ev.Frame = first.EndFrame
			}
		}
	}
	return errs.Err()
}

// closeLoop copies frame 0 onto the last frame. Position axes that carry
// linear motion keep their travelled value.
func closeLoop(a *project.Animation, n, motion int) {
	last := n - 1
	for k := range a.Pos {
		if len(a.Pos[k]) < n {
			continue
		}
		for axis, flags := range linearFlags {
			if motion&flags == 0 {
				a.Pos[k][last][axis] = a.Pos[k][0][axis]
			}
		}
		a.Rot[k][last] = a.Rot[k][0]
	}
}

var (
	linearFlags   = [3]int{studio.LX | studio.X, studio.LY | studio.Y, studio.LZ | studio.Z}
	rotationFlags = [3]int{studio.XR, studio.YR, studio.ZR}
)

// Extract removes the linear root motion requested by each sequence's motion
// flags and stores it as the sequence's linear movement. Root rotation axes
// flagged XR, YR or ZR are frozen to the first frame.
//
// It runs on source-ordered tracks, before bone unification.
func Extract(p *project.Project) {
	for _, seq := range p.Sequences {
		n := seq.NumFrames
		if n <= 1 || len(seq.Blends) == 0 {
			continue
		}
		ref := seq.Blends[0]
		for k, node := range ref.Nodes {
			if node.Parent != -1 {
				continue
			}
			var delta math.Vec3
			for axis, flags := range linearFlags {
				if seq.MotionType&flags != 0 {
					delta[axis] = ref.Pos[k][n-1][axis] - ref.Pos[k][0][axis]
				}
			}
			for _, a := range seq.Blends {
				j := rootTrack(a, node.Name, k)
				if j < 0 {
					continue
				}
				removeMotion(a.Pos[j], delta, n)
				freezeRotation(a.Rot[j], seq.MotionType, n)
			}
			seq.LinearMovement = delta
		}
		if seq.LinearMovement != (math.Vec3{}) {
			logger.Debug("extracted motion",
				zap.String("sequence", seq.Name),
				zap.Float32("x", seq.LinearMovement[0]),
				zap.Float32("y", seq.LinearMovement[1]),
				zap.Float32("z", seq.LinearMovement[2]))
		}
	}
}

// rootTrack finds the track of a root node in a blend, preferring the
// reference index when the names agree.
func rootTrack(a *project.Animation, name string, k int) int {
	if k < len(a.Nodes) && a.Nodes[k].Name == name {
		return k
	}
	for j, n := range a.Nodes {
		if n.Parent == -1 && n.Name == name {
			return j
		}
	}
	return -1
}

func removeMotion(pos []math.Vec3, delta math.Vec3, n int) {
	if delta == (math.Vec3{}) {
		return
	}
	for j := 0; j < n && j < len(pos); j++ {
		pos[j] = pos[j].Sub(delta.Mul(float32(j) / float32(n-1)))
	}
}

// freezeRotation holds every rotation axis whose XR, YR or ZR flag is set in
// motion at its frame 0 value. Unflagged axes keep their keys.
func freezeRotation(rot []math.Vec3, motion, n int) {
	for axis, flag := range rotationFlags {
		if motion&flag == 0 {
			continue
		}
		for j := 1; j < n && j < len(rot); j++ {
			rot[j][axis] = rot[0][axis]
		}
	}
}
