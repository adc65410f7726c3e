// Package skin loads the textures named by the meshes, maps texture
// coordinates to pixels, crops each skin to its used region and builds the
// skin family table.
package skin

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/studiomdl/internal/diag"
	"github.com/Faultbox/studiomdl/internal/logger"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/studio"
)

// chromeSize is the chrome region recorded for the skin table.
const chromeSize = 64

// Result holds the skin family table: Families[f][i] is the texture drawn
// for skin reference i in family f.
type Result struct {
	Families [][]int16
}

// Process runs the skin stage over every model of p.
func Process(p *project.Project) (*Result, error) {
	if err := linkGroups(p); err != nil {
		return nil, err
	}
	if len(p.Textures) > studio.MaxSkins {
		return nil, diag.Capacity("too many textures %d (max %d)", len(p.Textures), studio.MaxSkins)
	}
	applyRenderModes(p)

	for _, tex := range p.Textures {
		if err := load(p, tex); err != nil {
			return nil, err
		}
	}

	models := p.Models()
	for _, m := range models {
		for _, mesh := range m.Meshes {
			coordRanges(mesh, p.Textures[mesh.SkinRef])
		}
	}
	for _, tex := range p.Textures {
		if tex.MaxS < tex.MinS {
			inheritRegion(p, tex)
		}
		if err := resize(tex); err != nil {
			return nil, err
		}
	}
	for _, m := range models {
		for _, mesh := range m.Meshes {
			tex := p.Textures[mesh.SkinRef]
			for t := range mesh.Triangles {
				for j := range mesh.Triangles[t] {
					mesh.Triangles[t][j].S -= tex.Left
					mesh.Triangles[t][j].T -= tex.Top
				}
			}
		}
	}

	r := &Result{Families: families(p)}
	logger.Info("skins built",
		zap.Int("textures", len(p.Textures)),
		zap.Int("families", len(r.Families)))
	return r, nil
}

// linkGroups makes every replacement texture of the first texture group a
// child of the texture it replaces.
func linkGroups(p *project.Project) error {
	if len(p.TextureGroups) == 0 {
		return nil
	}
	if len(p.TextureGroups) > 1 {
		logger.Warn("only the first texture group is used", zap.Int("groups", len(p.TextureGroups)))
	}
	g := p.TextureGroups[0]
	var errs diag.List
	for j, name := range g.Layers[0] {
		base := p.FindTexture(name)
		if base == -1 {
			errs.Add(diag.Link("texture group %q: unknown texture %q", g.Name, name))
			continue
		}
		for _, layer := range g.Layers[1:] {
			k := p.LookupTexture(layer[j])
			if k != base {
				p.Textures[k].Parent = base
			}
		}
	}
	return errs.Err()
}

func applyRenderModes(p *project.Project) {
	for _, rm := range p.RenderModes {
		i := p.FindTexture(rm.Texture)
		if i == -1 {
			logger.Warn("render mode for unknown texture", zap.String("texture", rm.Texture))
			continue
		}
		p.Textures[i].Flags |= rm.Flags
	}
}

func findFile(p *project.Project, name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	dirs := p.TextureDirs
	if len(dirs) == 0 {
		dirs = []string{p.CDDir}
	}
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", diag.Link("cannot find texture %q in %s", name, strings.Join(dirs, ", "))
}

func load(p *project.Project, tex *project.Texture) error {
	if !strings.EqualFold(filepath.Ext(tex.Name), ".bmp") {
		return diag.Malformed(tex.Name, 0, "unknown graphics type")
	}
	path, err := findFile(p, tex.Name)
	if err != nil {
		return err
	}
	img, err := LoadBMP(path)
	if err != nil {
		return err
	}
	tex.SrcWidth, tex.SrcHeight = img.Width, img.Height
	tex.SrcPixels = img.Pixels
	tex.SrcPalette = Gamma(img.Palette, p.Gamma)
	if strings.Contains(strings.ToLower(tex.Name), "chrome") {
		tex.Flags |= studio.TextureFlatShade | studio.TextureChrome
	}
	tex.MinS, tex.MinT = 1<<30, 1<<30
	tex.MaxS, tex.MaxT = -1<<30, -1<<30

	logger.Debug("texture loaded",
		zap.String("texture", tex.Name),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height))
	return nil
}

// Gamma returns a copy of pal corrected from the 1.8 authoring gamma to g.
func Gamma(pal []byte, g float32) []byte {
	out := make([]byte, len(pal))
	for i, c := range pal {
		f := math32.Pow(float32(c)/255, g/project.DefaultGamma)*255 + 0.5
		out[i] = byte(math32.Min(math32.Max(f, 0), 255))
	}
	return out
}

// coordRanges converts a mesh's UVs to source pixels and grows the
// texture's used region.
func coordRanges(mesh *project.Mesh, tex *project.Texture) {
	if tex.Flags&studio.TextureChrome != 0 {
		for t := range mesh.Triangles {
			for j := range mesh.Triangles[t] {
				mesh.Triangles[t][j].S, mesh.Triangles[t][j].T = 0, 0
			}
		}
		tex.MinS, tex.MaxS = 0, chromeSize-1
		tex.MinT, tex.MaxT = 0, chromeSize-1
		return
	}
	w, h := float32(tex.SrcWidth-1), float32(tex.SrcHeight-1)
	for t := range mesh.Triangles {
		for j := range mesh.Triangles[t] {
			tv := &mesh.Triangles[t][j]
			tv.S = int(math32.Floor(tv.U*w + 0.5))
			tv.T = int(math32.Floor((1-tv.V)*h + 0.5))
			tex.MinS, tex.MaxS = min(tex.MinS, tv.S), max(tex.MaxS, tv.S)
			tex.MinT, tex.MaxT = min(tex.MinT, tv.T), max(tex.MaxT, tv.T)
		}
	}
}

// inheritRegion gives an unreferenced texture the region of its parent, or
// the whole image when it has none.
func inheritRegion(p *project.Project, tex *project.Texture) {
	switch {
	case tex.Flags&studio.TextureChrome != 0:
		tex.MinS, tex.MaxS = 0, chromeSize-1
		tex.MinT, tex.MaxT = 0, chromeSize-1
	case tex.Parent >= 0:
		parent := p.Textures[tex.Parent]
		tex.MinS, tex.MaxS = parent.MinS, parent.MaxS
		tex.MinT, tex.MaxT = parent.MinT, parent.MaxT
	default:
		tex.MinS, tex.MaxS = 0, tex.SrcWidth-1
		tex.MinT, tex.MaxT = 0, tex.SrcHeight-1
	}
}

// resize crops the source image to the used region, padding the width to a
// multiple of 4. Coordinates outside the image wrap around.
func resize(tex *project.Texture) error {
	if tex.Flags&studio.TextureChrome != 0 {
		tex.Left, tex.Top = 0, 0
		tex.Width = (tex.SrcWidth + 3) &^ 3
		tex.Height = tex.SrcHeight
	} else {
		tex.Left, tex.Top = tex.MinS, tex.MinT
		tex.Width = (tex.MaxS - tex.MinS + 1 + 3) &^ 3
		tex.Height = tex.MaxT - tex.MinT + 1
	}
	if tex.Width*tex.Height > studio.MaxTextureBytes {
		return diag.Limit("texture %q too large: %dx%d", tex.Name, tex.Width, tex.Height)
	}

	tex.Pixels = make([]byte, tex.Width*tex.Height)
	for y := 0; y < tex.Height; y++ {
		sy := wrap(y+tex.Top, tex.SrcHeight)
		for x := 0; x < tex.Width; x++ {
			sx := wrap(x+tex.Left, tex.SrcWidth)
			tex.Pixels[y*tex.Width+x] = tex.SrcPixels[sy*tex.SrcWidth+sx]
		}
	}
	tex.Palette = tex.SrcPalette

	if tex.Width != tex.SrcWidth || tex.Height != tex.SrcHeight {
		logger.Debug("texture cropped",
			zap.String("texture", tex.Name),
			zap.Int("width", tex.Width),
			zap.Int("height", tex.Height))
	}
	return nil
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

func families(p *project.Project) [][]int16 {
	n := 1
	var g *project.TextureGroup
	if len(p.TextureGroups) > 0 {
		g = &p.TextureGroups[0]
		n = len(g.Layers)
	}
	out := make([][]int16, n)
	for f := range out {
		out[f] = make([]int16, len(p.Textures))
		for i := range out[f] {
			out[f][i] = int16(i)
		}
	}
	if g == nil {
		return out
	}
	for f, layer := range g.Layers {
		for j, name := range layer {
			base := p.FindTexture(g.Layers[0][j])
			out[f][base] = int16(p.FindTexture(name))
		}
	}
	return out
}
