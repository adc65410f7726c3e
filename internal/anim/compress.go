package anim

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/studiomdl/internal/bones"
	"github.com/Faultbox/studiomdl/internal/diag"
	"github.com/Faultbox/studiomdl/internal/logger"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/math"
)

// Channel order of the six degrees of freedom of a bone.
const (
	PosX = iota
	PosY
	PosZ
	RotX
	RotY
	RotZ
	NumChannels
)

const (
	posWindow     = 128
	rotWindow     = math.Pi / 8
	fallbackScale = 1.0 / 32
)

// Channels holds the six encoded streams of one bone.
type Channels [NumChannels]Stream

// Result is the compressed animation data of a whole project.
type Result struct {
	// Scales maps quantized values back to units, per bone and channel.
	Scales [][NumChannels]float32
	// Anims is indexed [sequence][blend][bone].
	Anims [][][]Channels
}

// deviation returns a bone's offset from its default pose on channel k at
// frame f. Rotations are wrapped into [-pi, pi).
func deviation(a *project.Animation, b bones.Bone, bone, k, f int) float32 {
	if k < RotX {
		return a.Pos[bone][f][k] - b.Pos[k]
	}
	return math.WrapAngle(a.Rot[bone][f][k-RotX] - b.Rot[k-RotX])
}

// Scales computes the quantization scale of every bone channel from the
// largest deviation seen over all sequences, blends and frames.
func Scales(p *project.Project, t *bones.Table) [][NumChannels]float32 {
	scales := make([][NumChannels]float32, len(t.Bones))
	for j, b := range t.Bones {
		for k := 0; k < NumChannels; k++ {
			var lo, hi float32 = -posWindow, posWindow
			if k >= RotX {
				lo, hi = -rotWindow, rotWindow
			}
			for _, seq := range p.Sequences {
				for _, a := range seq.Blends {
					for f := 0; f < seq.NumFrames; f++ {
						v := deviation(a, b, j, k, f)
						lo, hi = math32.Min(lo, v), math32.Max(hi, v)
					}
				}
			}
			switch {
			case lo >= hi:
				scales[j][k] = fallbackScale
			case -lo > hi:
				scales[j][k] = lo / -32768
			default:
				scales[j][k] = hi / 32767
			}
		}
	}
	return scales
}

// Quantize converts a deviation to a stream sample, saturating at the
// int16 range.
func Quantize(v, scale float32) int16 {
	q := v / scale
	switch {
	case q >= 32767:
		return 32767
	case q <= -32768:
		return -32768
	}
	return int16(q)
}

// Compress quantizes and encodes every channel of every bone of every blend.
// Tracks must be in master bone order.
func Compress(p *project.Project, t *bones.Table) (*Result, error) {
	r := &Result{Scales: Scales(p, t)}
	r.Anims = make([][][]Channels, len(p.Sequences))

	values := make([]int16, 0, 64)
	streams, empty := 0, 0
	for i, seq := range p.Sequences {
		if seq.NumFrames < 1 {
			return nil, diag.Malformed("", 0, "sequence %q has no animation frames", seq.Name)
		}
		r.Anims[i] = make([][]Channels, len(seq.Blends))
		for q, a := range seq.Blends {
			chans := make([]Channels, len(t.Bones))
			for j, b := range t.Bones {
				for k := 0; k < NumChannels; k++ {
					values = values[:0]
					for f := 0; f < seq.NumFrames; f++ {
						values = append(values, Quantize(deviation(a, b, j, k, f), r.Scales[j][k]))
					}
					chans[j][k] = Encode(values)
					streams++
					if chans[j][k] == nil {
						empty++
					}
				}
			}
			r.Anims[i][q] = chans
		}
	}

	logger.Debug("animations compressed",
		zap.Int("sequences", len(p.Sequences)),
		zap.Int("channels", streams),
		zap.Int("static", empty))
	return r, nil
}
