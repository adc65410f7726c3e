package skin

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/studiomdl/internal/diag"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/studio"
)

// writeBMP writes a w*h paletted bitmap whose pixel (x, y) is y*w+x.
func writeBMP(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	pal := make(color.Palette, 256)
	for i := range pal {
		pal[i] = color.RGBA{byte(i), byte(255 - i), 0x10, 0xff}
	}
	img := image.NewPaletted(image.Rect(0, 0, w, h), pal)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetColorIndex(x, y, uint8(y*w+x))
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := bmp.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// textured returns a project with one model holding one triangle on the
// named texture with the given UVs.
func textured(dir, name string, uv [3][2]float32) *project.Project {
	p := project.New()
	p.TextureDirs = []string{dir}
	m := &project.Model{Name: "body"}
	ref := p.LookupTexture(name)
	p.Textures[ref].Used = true
	mesh := m.LookupMesh(ref)
	var tri [3]project.TriVert
	for j := range tri {
		tri[j] = project.TriVert{Vert: j, U: uv[j][0], V: uv[j][1]}
	}
	mesh.Triangles = append(mesh.Triangles, tri)
	p.BodyParts = []*project.BodyPart{{Name: "body", Models: []*project.Model{m}}}
	return p
}

func TestLoadBMP(t *testing.T) {
	dir := t.TempDir()
	writeBMP(t, dir, "skin.bmp", 6, 3)
	img, err := LoadBMP(filepath.Join(dir, "skin.bmp"))
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 6 || img.Height != 3 || len(img.Palette) != studio.PaletteSize {
		t.Fatalf("image = %dx%d palette %d", img.Width, img.Height, len(img.Palette))
	}
	for i, px := range img.Pixels {
		if int(px) != i {
			t.Errorf("pixel %d = %d", i, px)
		}
	}
	if img.Palette[3*7] != 7 || img.Palette[3*7+1] != 248 {
		t.Errorf("palette entry 7 = %v", img.Palette[21:24])
	}
}

func TestLoadBMPNotPaletted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rgb.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if _, err := LoadBMP(path); err == nil {
		t.Error("LoadBMP() should reject true-colour bitmaps")
	}
}

func TestProcessFullRegion(t *testing.T) {
	dir := t.TempDir()
	writeBMP(t, dir, "skin.bmp", 8, 4)
	p := textured(dir, "skin.bmp", [3][2]float32{{0, 1}, {1, 1}, {0, 0}})

	r, err := Process(p)
	if err != nil {
		t.Fatal(err)
	}
	tex := p.Textures[0]
	if tex.Width != 8 || tex.Height != 4 || tex.Left != 0 || tex.Top != 0 {
		t.Errorf("texture = %dx%d at %d,%d", tex.Width, tex.Height, tex.Left, tex.Top)
	}
	for i, px := range tex.Pixels {
		if int(px) != i {
			t.Fatalf("pixel %d = %d", i, px)
		}
	}
	tri := p.BodyParts[0].Models[0].Meshes[0].Triangles[0]
	want := [3][2]int{{0, 0}, {7, 0}, {0, 3}}
	for j, w := range want {
		if tri[j].S != w[0] || tri[j].T != w[1] {
			t.Errorf("corner %d = %d,%d, want %v", j, tri[j].S, tri[j].T, w)
		}
	}
	if len(r.Families) != 1 || len(r.Families[0]) != 1 || r.Families[0][0] != 0 {
		t.Errorf("families = %v", r.Families)
	}
}

func TestProcessCrop(t *testing.T) {
	dir := t.TempDir()
	writeBMP(t, dir, "skin.bmp", 8, 4)
	p := textured(dir, "skin.bmp", [3][2]float32{{0.5, 1}, {1, 1}, {1, 0.5}})

	if _, err := Process(p); err != nil {
		t.Fatal(err)
	}
	tex := p.Textures[0]
	// s spans 4..7, t spans 0..2 (0.5*3 rounds to 2).
	if tex.Left != 4 || tex.Width != 4 || tex.Top != 0 || tex.Height != 3 {
		t.Fatalf("region = %d+%d, %d+%d", tex.Left, tex.Width, tex.Top, tex.Height)
	}
	for y := 0; y < tex.Height; y++ {
		for x := 0; x < tex.Width; x++ {
			if got, want := tex.Pixels[y*4+x], byte(y*8+x+4); got != want {
				t.Errorf("pixel %d,%d = %d, want %d", x, y, got, want)
			}
		}
	}
	tri := p.BodyParts[0].Models[0].Meshes[0].Triangles[0]
	if tri[0].S != 0 || tri[1].S != 3 || tri[2].T != 2 {
		t.Errorf("coords not rebased: %+v", tri)
	}
}

func TestProcessTextureGroup(t *testing.T) {
	dir := t.TempDir()
	writeBMP(t, dir, "a.bmp", 8, 4)
	writeBMP(t, dir, "b.bmp", 8, 4)
	p := textured(dir, "a.bmp", [3][2]float32{{0.5, 1}, {1, 1}, {1, 0.5}})
	p.TextureGroups = []project.TextureGroup{{Name: "skins", Layers: [][]string{{"a.bmp"}, {"b.bmp"}}}}
	p.RenderModes = []project.RenderMode{{Texture: "b.bmp", Flags: studio.TextureMasked}}

	r, err := Process(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Textures) != 2 {
		t.Fatalf("textures = %d, want 2", len(p.Textures))
	}
	a, b := p.Textures[0], p.Textures[1]
	if b.Parent != 0 || b.Left != a.Left || b.Width != a.Width || b.Height != a.Height {
		t.Errorf("replacement region = %+v, want parent's", b)
	}
	if b.Flags&studio.TextureMasked == 0 {
		t.Errorf("render mode not applied: flags %#x", b.Flags)
	}
	want := [][]int16{{0, 1}, {1, 1}}
	if len(r.Families) != 2 {
		t.Fatalf("families = %v", r.Families)
	}
	for f := range want {
		for i := range want[f] {
			if r.Families[f][i] != want[f][i] {
				t.Errorf("families = %v, want %v", r.Families, want)
			}
		}
	}
}

func TestProcessChrome(t *testing.T) {
	dir := t.TempDir()
	writeBMP(t, dir, "chrome_visor.bmp", 6, 4)
	p := textured(dir, "chrome_visor.bmp", [3][2]float32{{0.2, 0.3}, {0.4, 0.5}, {0.6, 0.7}})
	if _, err := Process(p); err != nil {
		t.Fatal(err)
	}
	tex := p.Textures[0]
	if tex.Flags&(studio.TextureChrome|studio.TextureFlatShade) != studio.TextureChrome|studio.TextureFlatShade {
		t.Errorf("flags = %#x", tex.Flags)
	}
	if tex.Width != 8 || tex.Height != 4 {
		t.Errorf("chrome size = %dx%d, want 8x4", tex.Width, tex.Height)
	}
	for _, tv := range p.BodyParts[0].Models[0].Meshes[0].Triangles[0] {
		if tv.S != 0 || tv.T != 0 {
			t.Errorf("chrome corner = %d,%d, want 0,0", tv.S, tv.T)
		}
	}
}

func TestProcessErrors(t *testing.T) {
	dir := t.TempDir()
	uv := [3][2]float32{{0, 0}, {1, 0}, {0, 1}}
	tests := []struct {
		name string
		tex  string
		kind diag.Kind
	}{
		{"missing", "nothere.bmp", diag.KindLink},
		{"not bmp", "skin.tga", diag.KindMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Process(textured(dir, tt.tex, uv))
			if !diag.IsKind(err, tt.kind) {
				t.Errorf("error = %v, want %v", err, tt.kind)
			}
		})
	}

	p := textured(dir, "a.bmp", uv)
	p.TextureGroups = []project.TextureGroup{{Name: "g", Layers: [][]string{{"zzz.bmp"}, {"a.bmp"}}}}
	if _, err := Process(p); !diag.IsKind(err, diag.KindLink) {
		t.Errorf("unknown group texture: error = %v", err)
	}
}

func TestGamma(t *testing.T) {
	pal := []byte{0, 64, 128, 255}
	if got := Gamma(pal, project.DefaultGamma); string(got) != string(pal) {
		t.Errorf("Gamma(1.8) = %v, want identity", got)
	}
	got := Gamma(pal, 3.6)
	want := []byte{0, 16, 64, 255}
	for i := range want {
		if d := int(got[i]) - int(want[i]); d < -1 || d > 1 {
			t.Errorf("Gamma(3.6)[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
