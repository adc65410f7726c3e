package project

// Texture is a skin used by one or more meshes.
type Texture struct {
	Name   string
	Flags  int
	Parent int

	SrcWidth   int
	SrcHeight  int
	SrcPixels  []byte
	SrcPalette []byte

	// Skin region within the source image, in pixels.
	MinS, MaxS int
	MinT, MaxT int
	Left, Top  int

	Width   int
	Height  int
	Pixels  []byte
	Palette []byte

	// Used is set once a mesh references the texture.
	Used bool
}
