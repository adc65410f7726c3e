package qc

import (
	"strings"

	"github.com/Faultbox/studiomdl/internal/diag"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/studio"
)

// allFrames is the default frame range of a sequence source.
const allFrames = studio.MaxAnimations - 1

func cmdSequence(ps *parser) error {
	if len(ps.p.Sequences) >= studio.MaxSequences {
		return diag.Capacity("too many sequences (max %d)", studio.MaxSequences)
	}
	name, err := ps.word()
	if err != nil {
		return err
	}
	seq := &project.Sequence{
		Name:       name,
		Adjust:     ps.p.Adjust,
		Scale:      ps.p.Scale,
		ZRotation:  ps.p.ZRotation,
		StartFrame: 0,
		EndFrame:   allFrames,
		FPS:        project.DefaultFPS,
		Group:      len(ps.p.SeqGroups) - 1,
	}
	var files []string

	depth := 0
	for {
		var tok string
		if depth > 0 {
			if tok, err = ps.s.Next(true); err != nil {
				return err
			}
		} else {
			if !ps.s.More() {
				break
			}
			if tok, err = ps.word(); err != nil {
				return err
			}
		}

		switch lower := strings.ToLower(tok); {
		case tok == "{":
			depth++
		case tok == "}":
			depth--
			if depth < 0 {
				return ps.s.Errorf("unbalanced braces in sequence %q", name)
			}
		case lower == "event":
			if err := ps.eventOption(seq); err != nil {
				return err
			}
		case lower == "pivot":
			if err := ps.pivotOption(seq); err != nil {
				return err
			}
		case lower == "fps":
			if seq.FPS, err = ps.number(); err != nil {
				return err
			}
		case lower == "origin":
			if seq.Adjust, err = ps.vec3(); err != nil {
				return err
			}
		case lower == "rotate":
			rot, err := ps.number()
			if err != nil {
				return err
			}
			seq.ZRotation = zRotation(rot)
		case lower == "scale":
			if seq.Scale, err = ps.number(); err != nil {
				return err
			}
		case lower == "loop":
			seq.Flags |= studio.Looping
		case lower == "frame":
			if seq.StartFrame, err = ps.integer(); err != nil {
				return err
			}
			if seq.EndFrame, err = ps.integer(); err != nil {
				return err
			}
			if seq.EndFrame < seq.StartFrame {
				return ps.s.Errorf("sequence %q: end frame %d before start %d", name, seq.EndFrame, seq.StartFrame)
			}
		case lower == "blend":
			i := 0
			if seq.BlendType[0] != 0 {
				i = 1
			}
			typ, err := ps.word()
			if err != nil {
				return err
			}
			flag, ok := studio.LookupMotion(typ)
			if !ok {
				return ps.s.Errorf("unknown blend type %q", typ)
			}
			seq.BlendType[i] = flag
			if seq.BlendStart[i], err = ps.number(); err != nil {
				return err
			}
			if seq.BlendEnd[i], err = ps.number(); err != nil {
				return err
			}
		case lower == "node":
			n, err := ps.integer()
			if err != nil {
				return err
			}
			seq.EntryNode, seq.ExitNode = n, n
		case lower == "transition", lower == "rtransition":
			if seq.EntryNode, err = ps.integer(); err != nil {
				return err
			}
			if seq.ExitNode, err = ps.integer(); err != nil {
				return err
			}
			if lower == "rtransition" {
				seq.NodeFlags |= 1
			}
		case lower == "animation":
			file, err := ps.word()
			if err != nil {
				return err
			}
			files = append(files, file)
		default:
			if act, ok := studio.LookupActivity(tok); ok {
				seq.Activity = act
				if seq.ActWeight, err = ps.integer(); err != nil {
					return err
				}
			} else if flag, ok := studio.LookupMotion(tok); ok {
				seq.MotionType |= flag
			} else {
				files = append(files, tok)
			}
		}
	}
	if depth != 0 {
		return ps.s.Errorf("unbalanced braces in sequence %q", name)
	}
	if len(files) == 0 {
		return ps.s.Errorf("sequence %q has no animation source", name)
	}
	if len(files) > studio.MaxBlends {
		return diag.Capacity("sequence %q: too many blends %d (max %d)", name, len(files), studio.MaxBlends)
	}
	for _, f := range files {
		seq.Blends = append(seq.Blends, &project.Animation{
			Name:       f,
			Path:       ps.sourcePath(f),
			StartFrame: seq.StartFrame,
			EndFrame:   seq.EndFrame,
		})
	}
	ps.p.Sequences = append(ps.p.Sequences, seq)
	return nil
}

func (ps *parser) eventOption(seq *project.Sequence) error {
	if len(seq.Events) >= studio.MaxEvents {
		return diag.Capacity("sequence %q: too many events (max %d)", seq.Name, studio.MaxEvents)
	}
	var ev project.Event
	var err error
	if ev.Event, err = ps.integer(); err != nil {
		return err
	}
	if ev.Frame, err = ps.integer(); err != nil {
		return err
	}
	if ps.s.More() {
		opt, err := ps.word()
		if err != nil {
			return err
		}
		if opt == "}" {
			ps.s.Unget()
		} else {
			ev.Options = opt
		}
	}
	seq.Events = append(seq.Events, ev)
	return nil
}

func (ps *parser) pivotOption(seq *project.Sequence) error {
	if len(seq.Pivots) >= studio.MaxPivots {
		return diag.Capacity("sequence %q: too many pivots (max %d)", seq.Name, studio.MaxPivots)
	}
	var pv project.Pivot
	var err error
	if pv.Index, err = ps.integer(); err != nil {
		return err
	}
	if pv.Start, err = ps.integer(); err != nil {
		return err
	}
	if pv.End, err = ps.integer(); err != nil {
		return err
	}
	seq.Pivots = append(seq.Pivots, pv)
	return nil
}
