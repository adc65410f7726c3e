// Package qc parses QC compile scripts into a project description.
//
// Commands start with '$' and take whitespace-separated arguments on the
// same line; block arguments in braces may span lines.
package qc

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/studiomdl/internal/logger"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/internal/tokenizer"
	"github.com/Faultbox/studiomdl/pkg/math"
)

type parser struct {
	s   *tokenizer.Scanner
	p   *project.Project
	dir string
}

type command func(*parser) error

var commands map[string]command

func init() {
	commands = map[string]command{
		"$modelname":     cmdModelName,
		"$cd":            cmdCD,
		"$cdtexture":     cmdCDTexture,
		"$scale":         cmdScale,
		"$rotate":        cmdRotate,
		"$origin":        cmdOrigin,
		"$eyeposition":   cmdEyePosition,
		"$bbox":          cmdBBox,
		"$cbox":          cmdCBox,
		"$flags":         cmdFlags,
		"$gamma":         cmdGamma,
		"$mirrorbone":    cmdMirrorBone,
		"$renamebone":    cmdRenameBone,
		"$body":          cmdBody,
		"$bodygroup":     cmdBodyGroup,
		"$sequence":      cmdSequence,
		"$sequencegroup": cmdSequenceGroup,
		"$controller":    cmdController,
		"$attachment":    cmdAttachment,
		"$hgroup":        cmdHitGroup,
		"$hbox":          cmdHitbox,
		"$texturegroup":  cmdTextureGroup,
		"$texrendermode": cmdTexRenderMode,
		// Accepted for compatibility, no effect.
		"$cliptotextures":   cmdIgnored,
		"$externaltextures": cmdIgnored,
		"$pivot":            cmdIgnored,
		"$root":             cmdIgnored,
	}
}

// ParseFile reads and parses a QC script. Relative source paths resolve
// against the script's directory.
func ParseFile(path string, opts project.Options) (*project.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "reading %s", path)
	}
	return Parse(path, data, opts)
}

// Parse parses script data. name is used for diagnostics and to locate
// relative source files.
func Parse(name string, data []byte, opts project.Options) (*project.Project, error) {
	s, err := tokenizer.New(name, data)
	if err != nil {
		return nil, err
	}
	ps := &parser{
		s:   s,
		p:   project.New(),
		dir: filepath.Dir(name),
	}
	ps.p.Options = opts
	ps.p.CDDir = ps.dir

	for !s.Done() {
		tok, err := s.Next(true)
		if err != nil {
			return nil, err
		}
		cmd, ok := commands[strings.ToLower(tok)]
		if !ok {
			return nil, s.Errorf("bad command %q", tok)
		}
		if err := cmd(ps); err != nil {
			return nil, err
		}
	}

	if ps.p.OutName == "" {
		return nil, s.Errorf("missing $modelname")
	}
	logger.Debug("script parsed",
		zap.String("script", name),
		zap.Int("bodyparts", len(ps.p.BodyParts)),
		zap.Int("sequences", len(ps.p.Sequences)))
	return ps.p, nil
}

// resolve joins a relative name onto base.
func resolve(base, name string) string {
	if filepath.IsAbs(name) || base == "" {
		return filepath.Clean(name)
	}
	return filepath.Join(base, name)
}

// sourcePath returns the SMD path for a source name under $cd.
func (ps *parser) sourcePath(name string) string {
	if filepath.Ext(name) == "" {
		name += ".smd"
	}
	return resolve(ps.p.CDDir, name)
}

func (ps *parser) word() (string, error) {
	return ps.s.Next(false)
}

func (ps *parser) integer() (int, error) {
	tok, err := ps.s.Next(false)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		// Scripts often write integers as floats.
		f, ferr := strconv.ParseFloat(tok, 64)
		if ferr != nil {
			return 0, ps.s.Errorf("expected integer, got %q", tok)
		}
		v = int(f)
	}
	return v, nil
}

func (ps *parser) number() (float32, error) {
	tok, err := ps.s.Next(false)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, ps.s.Errorf("expected number, got %q", tok)
	}
	return float32(v), nil
}

func (ps *parser) vec3() (math.Vec3, error) {
	var v math.Vec3
	for i := range v {
		f, err := ps.number()
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

// expect consumes the next token, crossing lines, and checks it.
func (ps *parser) expect(want string) error {
	tok, err := ps.s.Next(true)
	if err != nil {
		return err
	}
	if tok != want {
		return ps.s.Errorf("expected %q, got %q", want, tok)
	}
	return nil
}

// zRotation converts a script rotation in degrees to the stored yaw.
func zRotation(deg float32) float32 {
	return math.Deg2Rad(deg + 90)
}
