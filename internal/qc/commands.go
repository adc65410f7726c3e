package qc

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/studiomdl/internal/diag"
	"github.com/Faultbox/studiomdl/internal/logger"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/studio"
)

func cmdModelName(ps *parser) error {
	name, err := ps.word()
	if err != nil {
		return err
	}
	ps.p.OutName = strings.TrimSuffix(name, filepath.Ext(name)) + ".mdl"
	return nil
}

func cmdCD(ps *parser) error {
	dir, err := ps.word()
	if err != nil {
		return err
	}
	ps.p.CDDir = resolve(ps.dir, dir)
	return nil
}

func cmdCDTexture(ps *parser) error {
	for ps.s.More() {
		dir, err := ps.word()
		if err != nil {
			return err
		}
		ps.p.TextureDirs = append(ps.p.TextureDirs, resolve(ps.dir, dir))
	}
	return nil
}

func cmdScale(ps *parser) error {
	v, err := ps.number()
	if err != nil {
		return err
	}
	ps.p.Scale = v
	return nil
}

func cmdRotate(ps *parser) error {
	v, err := ps.number()
	if err != nil {
		return err
	}
	ps.p.ZRotation = zRotation(v)
	return nil
}

func cmdOrigin(ps *parser) error {
	v, err := ps.vec3()
	if err != nil {
		return err
	}
	ps.p.Adjust = v
	if ps.s.More() {
		rot, err := ps.number()
		if err != nil {
			return err
		}
		ps.p.ZRotation = zRotation(rot)
	}
	return nil
}

func cmdEyePosition(ps *parser) error {
	v, err := ps.vec3()
	if err != nil {
		return err
	}
	ps.p.EyePosition = v
	return nil
}

func cmdBBox(ps *parser) error {
	var err error
	if ps.p.BBoxMin, err = ps.vec3(); err != nil {
		return err
	}
	ps.p.BBoxMax, err = ps.vec3()
	return err
}

func cmdCBox(ps *parser) error {
	var err error
	if ps.p.CBoxMin, err = ps.vec3(); err != nil {
		return err
	}
	ps.p.CBoxMax, err = ps.vec3()
	return err
}

func cmdFlags(ps *parser) error {
	v, err := ps.integer()
	if err != nil {
		return err
	}
	ps.p.Flags = v
	return nil
}

func cmdGamma(ps *parser) error {
	v, err := ps.number()
	if err != nil {
		return err
	}
	ps.p.Gamma = v
	return nil
}

func cmdMirrorBone(ps *parser) error {
	name, err := ps.word()
	if err != nil {
		return err
	}
	ps.p.Mirrored = append(ps.p.Mirrored, name)
	return nil
}

func cmdRenameBone(ps *parser) error {
	from, err := ps.word()
	if err != nil {
		return err
	}
	to, err := ps.word()
	if err != nil {
		return err
	}
	ps.p.Renames = append(ps.p.Renames, project.Rename{From: from, To: to})
	return nil
}

func (ps *parser) addBodyPart(name string) (*project.BodyPart, error) {
	if len(ps.p.BodyParts) >= studio.MaxBodyParts {
		return nil, diag.Capacity("too many body parts (max %d)", studio.MaxBodyParts)
	}
	bp := &project.BodyPart{Name: name, Base: 1}
	if n := len(ps.p.BodyParts); n > 0 {
		prev := ps.p.BodyParts[n-1]
		bp.Base = prev.Base * len(prev.Models)
	}
	ps.p.BodyParts = append(ps.p.BodyParts, bp)
	return bp, nil
}

func addModel(bp *project.BodyPart, m *project.Model) error {
	if len(bp.Models) >= studio.MaxModels {
		return diag.Capacity("body part %q: too many models (max %d)", bp.Name, studio.MaxModels)
	}
	bp.Models = append(bp.Models, m)
	return nil
}

// studioOption parses "file [reverse] [scale s]" into a new sub-model.
func (ps *parser) studioOption() (*project.Model, error) {
	name, err := ps.word()
	if err != nil {
		return nil, err
	}
	m := &project.Model{
		Name:   name,
		Path:   ps.sourcePath(name),
		Scale:  ps.p.Scale,
		Adjust: ps.p.Adjust,
	}
	for ps.s.More() {
		opt, err := ps.word()
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(opt) {
		case "reverse":
			m.Reverse = true
		case "scale":
			if m.Scale, err = ps.number(); err != nil {
				return nil, err
			}
		default:
			return nil, ps.s.Errorf("unknown studio option %q", opt)
		}
	}
	return m, nil
}

func cmdBody(ps *parser) error {
	name, err := ps.word()
	if err != nil {
		return err
	}
	bp, err := ps.addBodyPart(name)
	if err != nil {
		return err
	}
	m, err := ps.studioOption()
	if err != nil {
		return err
	}
	return addModel(bp, m)
}

func cmdBodyGroup(ps *parser) error {
	name, err := ps.word()
	if err != nil {
		return err
	}
	bp, err := ps.addBodyPart(name)
	if err != nil {
		return err
	}
	if err := ps.expect("{"); err != nil {
		return err
	}
	for {
		tok, err := ps.s.Next(true)
		if err != nil {
			return err
		}
		switch strings.ToLower(tok) {
		case "}":
			if len(bp.Models) == 0 {
				return ps.s.Errorf("body group %q is empty", name)
			}
			return nil
		case "studio":
			m, err := ps.studioOption()
			if err != nil {
				return err
			}
			if err := addModel(bp, m); err != nil {
				return err
			}
		case "blank":
			if err := addModel(bp, &project.Model{Name: "blank", Blank: true, Scale: 1}); err != nil {
				return err
			}
		default:
			return ps.s.Errorf("unknown body group option %q", tok)
		}
	}
}

func cmdSequenceGroup(ps *parser) error {
	label, err := ps.word()
	if err != nil {
		return err
	}
	ps.p.SeqGroups = append(ps.p.SeqGroups, project.SeqGroup{Label: label})
	return nil
}

func cmdController(ps *parser) error {
	tok, err := ps.word()
	if err != nil {
		return err
	}
	var c project.Controller
	if strings.EqualFold(tok, "mouth") {
		c.Index = 4
	} else {
		ps.s.Unget()
		if c.Index, err = ps.integer(); err != nil {
			return err
		}
	}
	if c.Index < 0 || c.Index >= studio.MaxControllers {
		return ps.s.Errorf("controller index %d out of range", c.Index)
	}
	if c.Bone, err = ps.word(); err != nil {
		return err
	}
	typ, err := ps.word()
	if err != nil {
		return err
	}
	flag, ok := studio.LookupMotion(typ)
	if !ok {
		return ps.s.Errorf("unknown controller type %q", typ)
	}
	c.Type = flag
	if c.Start, err = ps.number(); err != nil {
		return err
	}
	if c.End, err = ps.number(); err != nil {
		return err
	}
	// A rotation covering a whole turn wraps around.
	if c.Type&(studio.XR|studio.YR|studio.ZR) != 0 {
		if (int(c.Start)+360)%360 == (int(c.End)+360)%360 {
			c.Type |= studio.RLoop
		}
	}
	ps.p.Controllers = append(ps.p.Controllers, c)
	return nil
}

func cmdAttachment(ps *parser) error {
	var a project.Attachment
	var err error
	if a.Index, err = ps.integer(); err != nil {
		return err
	}
	if a.Bone, err = ps.word(); err != nil {
		return err
	}
	org, err := ps.vec3()
	if err != nil {
		return err
	}
	a.Org = org.Mul(ps.p.Scale)
	ps.s.SkipLine()
	ps.p.Attachments = append(ps.p.Attachments, a)
	return nil
}

func cmdHitGroup(ps *parser) error {
	var h project.HitGroup
	var err error
	if h.Group, err = ps.integer(); err != nil {
		return err
	}
	if h.Bone, err = ps.word(); err != nil {
		return err
	}
	ps.p.HitGroups = append(ps.p.HitGroups, h)
	return nil
}

func cmdHitbox(ps *parser) error {
	var h project.Hitbox
	var err error
	if h.Group, err = ps.integer(); err != nil {
		return err
	}
	if h.Bone, err = ps.word(); err != nil {
		return err
	}
	if h.Min, err = ps.vec3(); err != nil {
		return err
	}
	if h.Max, err = ps.vec3(); err != nil {
		return err
	}
	ps.p.Hitboxes = append(ps.p.Hitboxes, h)
	return nil
}

func cmdTextureGroup(ps *parser) error {
	name, err := ps.word()
	if err != nil {
		return err
	}
	g := project.TextureGroup{Name: name}
	if err := ps.expect("{"); err != nil {
		return err
	}
	for {
		tok, err := ps.s.Next(true)
		if err != nil {
			return err
		}
		if tok == "}" {
			break
		}
		if tok != "{" {
			return ps.s.Errorf("expected \"{\" in texture group, got %q", tok)
		}
		var layer []string
		for {
			tex, err := ps.s.Next(true)
			if err != nil {
				return err
			}
			if tex == "}" {
				break
			}
			layer = append(layer, tex)
		}
		if len(g.Layers) > 0 && len(layer) != len(g.Layers[0]) {
			return ps.s.Errorf("texture group %q: layer has %d textures, want %d", name, len(layer), len(g.Layers[0]))
		}
		g.Layers = append(g.Layers, layer)
	}
	if len(g.Layers) == 0 {
		return ps.s.Errorf("texture group %q is empty", name)
	}
	if len(g.Layers) > studio.MaxSkins {
		return diag.Capacity("texture group %q: too many skins (max %d)", name, studio.MaxSkins)
	}
	ps.p.TextureGroups = append(ps.p.TextureGroups, g)
	return nil
}

func cmdTexRenderMode(ps *parser) error {
	tex, err := ps.word()
	if err != nil {
		return err
	}
	mode, err := ps.word()
	if err != nil {
		return err
	}
	var flags int
	switch strings.ToLower(mode) {
	case "additive":
		flags = studio.TextureAdditive
	case "masked":
		flags = studio.TextureMasked
	case "fullbright":
		flags = studio.TextureFullBright
	case "flatshade":
		flags = studio.TextureFlatShade
	default:
		return ps.s.Errorf("unknown render mode %q", mode)
	}
	ps.p.RenderModes = append(ps.p.RenderModes, project.RenderMode{Texture: tex, Flags: flags})
	return nil
}

func cmdIgnored(ps *parser) error {
	logger.Warn("ignoring unsupported command",
		zap.String("file", ps.s.File()),
		zap.Int("line", ps.s.Line()))
	ps.s.SkipLine()
	return nil
}
