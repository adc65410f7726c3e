// Package smd imports skeletal mesh and animation sources in the text SMD
// format: a node list, one or more skeleton frames and optional triangles.
package smd

import (
	"errors"
	"os"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/internal/tokenizer"
	"github.com/Faultbox/studiomdl/pkg/math"
	"github.com/Faultbox/studiomdl/pkg/studio"
)

// ErrUnsupportedVersion is returned for a header other than "version 1".
var ErrUnsupportedVersion = errors.New("unsupported smd version")

// frame is one skeleton sample. seen marks the nodes it lists.
type frame struct {
	time  int
	poses []project.BonePose
	seen  []bool
}

// file is a parsed SMD source before any transforms are applied.
type file struct {
	nodes     []project.Node
	frames    []frame
	triangles []triangle
}

type corner struct {
	bone   int
	pos    math.Vec3
	normal math.Vec3
	u, v   float32
}

type triangle struct {
	material string
	line     int
	corners  [3]corner
}

func readFile(path string) (*tokenizer.Scanner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "reading %s", path)
	}
	return tokenizer.New(path, data)
}

// parse reads every section of an SMD source. Triangles are only kept when
// wantTriangles is set.
func parse(s *tokenizer.Scanner, p *project.Project, wantTriangles bool) (*file, error) {
	f := &file{}
	for !s.Done() {
		cmd, err := s.Next(true)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(cmd) {
		case "version":
			v, err := nextInt(s)
			if err != nil {
				return nil, err
			}
			if v != 1 {
				return nil, pkgerrors.Wrapf(ErrUnsupportedVersion, "%s:%d: version %d", s.File(), s.Line(), v)
			}
		case "nodes":
			if err := parseNodes(s, p, f); err != nil {
				return nil, err
			}
		case "skeleton":
			if err := parseSkeleton(s, f); err != nil {
				return nil, err
			}
		case "triangles":
			if err := parseTriangles(s, f, wantTriangles); err != nil {
				return nil, err
			}
		default:
			return nil, s.Errorf("unknown section %q", cmd)
		}
	}
	if len(f.nodes) == 0 {
		return nil, s.Errorf("no nodes")
	}
	return f, nil
}

func parseNodes(s *tokenizer.Scanner, p *project.Project, f *file) error {
	s.SkipLine()
	for {
		tok, err := s.Next(true)
		if err != nil {
			return err
		}
		if strings.EqualFold(tok, "end") {
			return nil
		}
		index, err := atoi(s, tok)
		if err != nil {
			return err
		}
		name, err := s.Next(false)
		if err != nil {
			return err
		}
		parent, err := nextInt(s)
		if err != nil {
			return err
		}
		s.SkipLine()

		if index != len(f.nodes) {
			return s.Errorf("node %d out of order, expected %d", index, len(f.nodes))
		}
		if len(f.nodes) >= studio.MaxSrcBones {
			return s.Errorf("too many nodes (max %d)", studio.MaxSrcBones)
		}
		if parent < -1 || parent >= index {
			return s.Errorf("node %d %q has invalid parent %d", index, name, parent)
		}
		n := project.Node{Name: name, Parent: parent, Mirrored: p.IsMirrored(name)}
		if !n.Mirrored && parent != -1 {
			n.Mirrored = f.nodes[parent].Mirrored
		}
		f.nodes = append(f.nodes, n)
	}
}

func parseSkeleton(s *tokenizer.Scanner, f *file) error {
	s.SkipLine()
	var cur *frame
	for {
		tok, err := s.Next(true)
		if err != nil {
			return err
		}
		switch {
		case strings.EqualFold(tok, "end"):
			return nil
		case strings.EqualFold(tok, "time"):
			t, err := nextInt(s)
			if err != nil {
				return err
			}
			f.frames = append(f.frames, frame{
				time:  t,
				poses: make([]project.BonePose, len(f.nodes)),
				seen:  make([]bool, len(f.nodes)),
			})
			cur = &f.frames[len(f.frames)-1]
		default:
			index, err := atoi(s, tok)
			if err != nil {
				return err
			}
			vals, err := floats(s, 6)
			if err != nil {
				return err
			}
			s.SkipLine()
			if cur == nil {
				return s.Errorf("bone data before time")
			}
			if index < 0 || index >= len(f.nodes) {
				return s.Errorf("unknown node %d", index)
			}
			cur.poses[index] = project.BonePose{
				Pos: math.Vec3{vals[0], vals[1], vals[2]},
				Rot: math.Vec3{vals[3], vals[4], vals[5]},
			}
			cur.seen[index] = true
		}
	}
}

func parseTriangles(s *tokenizer.Scanner, f *file, keep bool) error {
	s.SkipLine()
	for {
		material, err := s.Next(true)
		if err != nil {
			return err
		}
		if strings.EqualFold(material, "end") {
			return nil
		}
		line := s.Line()
		s.SkipLine()

		var tri triangle
		tri.material = material
		tri.line = line
		for j := 0; j < 3; j++ {
			tok, err := s.Next(true)
			if err != nil {
				return err
			}
			bone, err := atoi(s, tok)
			if err != nil {
				return err
			}
			vals, err := floats(s, 8)
			if err != nil {
				return err
			}
			s.SkipLine()
			if bone < 0 || bone >= len(f.nodes) {
				return s.Errorf("unknown bone %d", bone)
			}
			tri.corners[j] = corner{
				bone:   bone,
				pos:    math.Vec3{vals[0], vals[1], vals[2]},
				normal: math.Vec3{vals[3], vals[4], vals[5]},
				u:      vals[6],
				v:      vals[7],
			}
		}
		if keep {
			f.triangles = append(f.triangles, tri)
		}
	}
}

func nextInt(s *tokenizer.Scanner) (int, error) {
	tok, err := s.Next(false)
	if err != nil {
		return 0, err
	}
	return atoi(s, tok)
}

func atoi(s *tokenizer.Scanner, tok string) (int, error) {
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, s.Errorf("expected integer, got %q", tok)
	}
	return v, nil
}

func floats(s *tokenizer.Scanner, n int) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		tok, err := s.Next(false)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, s.Errorf("expected number, got %q", tok)
		}
		out[i] = float32(v)
	}
	return out, nil
}
