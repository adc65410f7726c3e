package smd

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/studiomdl/internal/diag"
	"github.com/Faultbox/studiomdl/internal/logger"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/math"
	"github.com/Faultbox/studiomdl/pkg/studio"
)

// LoadAnimation imports the frames of an animation source that fall inside
// [a.StartFrame, a.EndFrame]. Afterwards StartFrame and EndFrame hold the
// range actually found and frame 0 of the tracks is StartFrame.
//
// Root bones get the sequence origin subtracted and are rotated about Z;
// positions of mirrored bones are negated, then everything is scaled.
func LoadAnimation(p *project.Project, seq *project.Sequence, a *project.Animation, path string) error {
	s, err := readFile(path)
	if err != nil {
		return err
	}
	f, err := parse(s, p, false)
	if err != nil {
		return err
	}

	start, end := -1, -1
	for _, fr := range f.frames {
		if fr.time < a.StartFrame || fr.time > a.EndFrame {
			continue
		}
		if start == -1 || fr.time < start {
			start = fr.time
		}
		if end == -1 || fr.time > end {
			end = fr.time
		}
	}
	if start == -1 {
		return diag.Malformed(path, 0, "no frames in range %d..%d", a.StartFrame, a.EndFrame)
	}
	numFrames := end - start + 1
	if numFrames > studio.MaxAnimations {
		return diag.Capacity("%s: too many frames %d (max %d)", path, numFrames, studio.MaxAnimations)
	}

	a.Nodes = f.nodes
	a.StartFrame = start
	a.EndFrame = end
	a.Pos = make([][]math.Vec3, len(f.nodes))
	a.Rot = make([][]math.Vec3, len(f.nodes))
	filled := make([][]bool, len(f.nodes))
	for i := range f.nodes {
		a.Pos[i] = make([]math.Vec3, numFrames)
		a.Rot[i] = make([]math.Vec3, numFrames)
		filled[i] = make([]bool, numFrames)
	}

	sz, cz := math32.Sincos(seq.ZRotation)
	for _, fr := range f.frames {
		if fr.time < start || fr.time > end {
			continue
		}
		t := fr.time - start
		for i, node := range f.nodes {
			if !fr.seen[i] {
				continue
			}
			pos, rot := fr.poses[i].Pos, fr.poses[i].Rot
			if node.Parent == -1 {
				pos = pos.Sub(seq.Adjust)
				pos = math.Vec3{cz*pos[0] - sz*pos[1], sz*pos[0] + cz*pos[1], pos[2]}
				rot[2] += seq.ZRotation
			}
			if node.Mirrored {
				pos = math.Negate(pos)
			}
			a.Pos[i][t] = pos.Mul(seq.Scale)
			a.Rot[i][t] = math.WrapAngles(rot)
			filled[i][t] = true
		}
	}

	// Frames a source skips hold the previous pose.
	for i := range f.nodes {
		for t := 1; t < numFrames; t++ {
			if !filled[i][t] {
				a.Pos[i][t] = a.Pos[i][t-1]
				a.Rot[i][t] = a.Rot[i][t-1]
			}
		}
	}

	logger.Debug("animation loaded",
		zap.String("file", path),
		zap.String("sequence", seq.Name),
		zap.Int("nodes", len(a.Nodes)),
		zap.Int("start", start),
		zap.Int("end", end))
	return nil
}
