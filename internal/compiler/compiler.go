// Package compiler drives one compilation from a QC script to the written
// model files.
package compiler

import (
	"path/filepath"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/studiomdl/internal/anim"
	"github.com/Faultbox/studiomdl/internal/bones"
	"github.com/Faultbox/studiomdl/internal/config"
	"github.com/Faultbox/studiomdl/internal/logger"
	"github.com/Faultbox/studiomdl/internal/motion"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/internal/qc"
	"github.com/Faultbox/studiomdl/internal/skin"
	"github.com/Faultbox/studiomdl/internal/smd"
	"github.com/Faultbox/studiomdl/internal/writer"
)

// Context owns the state of one compilation. Stages fill it in order; the
// bone table is read-only once built.
type Context struct {
	Config *config.Config

	Project *project.Project
	Bones   *bones.Table
	Graph   *motion.Graph
	Skins   *skin.Result
	Anims   *anim.Result
	Output  *writer.Output

	// OutPath is where the model file is written.
	OutPath string
}

// New returns a context for cfg.
func New(cfg *config.Config) *Context {
	return &Context{Config: cfg}
}

type stage struct {
	name string
	run  func() error
}

// Run compiles script. Files are written only when every stage succeeds.
func (c *Context) Run(script string) error {
	stages := []stage{
		{"parse", func() error { return c.parse(script) }},
		{"import", c.importSources},
		{"optimize", func() error { return motion.Optimize(c.Project) }},
		{"motion", c.extractMotion},
		{"bones", c.unify},
		{"skins", c.skins},
		{"compress", c.compress},
		{"serialize", c.serialize},
		{"write", func() error { return writer.WriteFiles(c.OutPath, c.Output) }},
	}
	for _, st := range stages {
		start := time.Now()
		if err := st.run(); err != nil {
			return pkgerrors.WithMessage(err, st.name)
		}
		logger.Debug("stage done", zap.String("stage", st.name), zap.Duration("took", time.Since(start)))
	}
	return nil
}

func (c *Context) options() project.Options {
	cc := c.Config.Compiler
	return project.Options{
		FlipTriangles: cc.FlipTriangles,
		KeepAllBones:  cc.KeepAllBones,
		NormalBlend:   project.NormalBlendCos(cc.NormalBlendAngle),
	}
}

func (c *Context) parse(script string) error {
	p, err := qc.ParseFile(script, c.options())
	if err != nil {
		return err
	}
	c.Project = p
	c.OutPath = p.OutName
	if dir := c.Config.Compiler.OutputDir; dir != "" {
		c.OutPath = filepath.Join(dir, filepath.Base(p.OutName))
	}
	if c.Config.Compiler.DumpProject {
		logger.Debug("project", zap.String("dump", Dump(p)))
	}
	return nil
}

func (c *Context) importSources() error {
	p := c.Project
	for _, m := range p.Models() {
		if m.Blank {
			continue
		}
		if err := smd.LoadModel(p, m, m.Path); err != nil {
			return err
		}
		logger.Info("model imported",
			zap.String("model", m.Name),
			zap.Int("nodes", len(m.Nodes)),
			zap.Int("verts", len(m.Verts)),
			zap.Int("triangles", m.NumTriangles()))
	}
	for _, seq := range p.Sequences {
		for _, a := range seq.Blends {
			if err := smd.LoadAnimation(p, seq, a, a.Path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Context) extractMotion() error {
	motion.Extract(c.Project)
	c.Graph = motion.Transitions(c.Project.Sequences)
	return nil
}

func (c *Context) unify() error {
	t, err := bones.Unify(c.Project)
	if err != nil {
		return err
	}
	c.Bones = t
	motion.Bounds(c.Project, t)
	return nil
}

func (c *Context) skins() error {
	r, err := skin.Process(c.Project)
	if err != nil {
		return err
	}
	c.Skins = r
	for _, m := range c.Project.Models() {
		m.SortNormals()
	}
	return nil
}

func (c *Context) compress() error {
	r, err := anim.Compress(c.Project, c.Bones)
	if err != nil {
		return err
	}
	c.Anims = r
	return nil
}

func (c *Context) serialize() error {
	out, err := writer.Serialize(&writer.Input{
		Project: c.Project,
		Bones:   c.Bones,
		Anims:   c.Anims,
		Skins:   c.Skins,
		Graph:   c.Graph,
	}, c.Config.Compiler.BufferSize)
	if err != nil {
		return err
	}
	c.Output = out
	return nil
}
