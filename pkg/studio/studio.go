// Package studio defines the on-disk layout of compiled studio models (.mdl)
// and their companion sequence-group files.
//
// All structures are little-endian and packed; their sizes match the engine's
// reader exactly, so they can be written with encoding/binary directly.
package studio

// File identification.
const (
	ModelMagic    = "IDST"
	SequenceMagic = "IDSQ"
	Version       = 10
)

// Compile limits.
const (
	MaxTriangles   = 20000
	MaxVerts       = 2048
	MaxSequences   = 256
	MaxSkins       = 100
	MaxSrcBones    = 512
	MaxBones       = 128
	MaxModels      = 32
	MaxBodyParts   = 32
	MaxGroups      = 16
	MaxAnimations  = 512
	MaxMeshes      = 256
	MaxEvents      = 1024
	MaxPivots      = 256
	MaxControllers = 8
	MaxBlends      = 2

	// MaxStripLength caps the vertex count of one strip or fan command.
	MaxStripLength = 127
	// MaxTextureBytes caps width*height plus the palette of one skin.
	MaxTextureBytes = 640 * 480
	// PaletteSize is 256 RGB entries.
	PaletteSize = 768
)

// Texture flags.
const (
	TextureFlatShade  = 0x0001
	TextureChrome     = 0x0002
	TextureFullBright = 0x0004
	TextureAdditive   = 0x0020
	TextureMasked     = 0x0040
)

// Motion and controller type flags.
const (
	X     = 0x0001
	Y     = 0x0002
	Z     = 0x0004
	XR    = 0x0008
	YR    = 0x0010
	ZR    = 0x0020
	LX    = 0x0040
	LY    = 0x0080
	LZ    = 0x0100
	AX    = 0x0200
	AY    = 0x0400
	AZ    = 0x0800
	AXR   = 0x1000
	AYR   = 0x2000
	AZR   = 0x4000
	Types = 0x7FFF
	RLoop = 0x8000
)

// Sequence flags.
const (
	Looping = 0x0001
)

// Header is studiohdr_t.
type Header struct {
	ID      [4]byte
	Version int32
	Name    [64]byte
	Length  int32

	EyePosition [3]float32
	Min         [3]float32
	Max         [3]float32
	BBMin       [3]float32
	BBMax       [3]float32

	Flags int32

	NumBones  int32
	BoneIndex int32

	NumBoneControllers  int32
	BoneControllerIndex int32

	NumHitboxes int32
	HitboxIndex int32

	NumSeq   int32
	SeqIndex int32

	NumSeqGroups  int32
	SeqGroupIndex int32

	NumTextures      int32
	TextureIndex     int32
	TextureDataIndex int32

	NumSkinRef      int32
	NumSkinFamilies int32
	SkinIndex       int32

	NumBodyParts  int32
	BodyPartIndex int32

	NumAttachments  int32
	AttachmentIndex int32

	SoundTable      int32
	SoundIndex      int32
	SoundGroups     int32
	SoundGroupIndex int32

	NumTransitions  int32
	TransitionIndex int32
}

// SeqHeader is the light header of a sequence-group file.
type SeqHeader struct {
	ID      [4]byte
	Version int32
	Name    [64]byte
	Length  int32
}

// Bone is mstudiobone_t.
type Bone struct {
	Name           [32]byte
	Parent         int32
	Flags          int32
	BoneController [6]int32
	Value          [6]float32
	Scale          [6]float32
}

// BoneController is mstudiobonecontroller_t.
type BoneController struct {
	Bone  int32
	Type  int32
	Start float32
	End   float32
	Rest  int32
	Index int32
}

// BBox is an intersection box (mstudiobbox_t).
type BBox struct {
	Bone  int32
	Group int32
	BBMin [3]float32
	BBMax [3]float32
}

// SeqGroup is mstudioseqgroup_t. Cache and Data are runtime slots.
type SeqGroup struct {
	Label [32]byte
	Name  [64]byte
	Cache int32
	Data  int32
}

// SeqDesc is mstudioseqdesc_t.
type SeqDesc struct {
	Label [32]byte

	FPS   float32
	Flags int32

	Activity  int32
	ActWeight int32

	NumEvents  int32
	EventIndex int32

	NumFrames int32

	NumPivots  int32
	PivotIndex int32

	MotionType     int32
	MotionBone     int32
	LinearMovement [3]float32

	AutomovePosIndex   int32
	AutomoveAngleIndex int32

	BBMin [3]float32
	BBMax [3]float32

	NumBlends int32
	AnimIndex int32

	BlendType   [2]int32
	BlendStart  [2]float32
	BlendEnd    [2]float32
	BlendParent int32

	SeqGroup int32

	EntryNode int32
	ExitNode  int32
	NodeFlags int32

	NextSeq int32
}

// Event is mstudioevent_t.
type Event struct {
	Frame   int32
	Event   int32
	Type    int32
	Options [64]byte
}

// Pivot is mstudiopivot_t.
type Pivot struct {
	Org   [3]float32
	Start int32
	End   int32
}

// Attachment is mstudioattachment_t.
type Attachment struct {
	Name    [32]byte
	Type    int32
	Bone    int32
	Org     [3]float32
	Vectors [3][3]float32
}

// Anim holds per-channel offsets to run-length value streams. Offsets are
// relative to the Anim record itself; zero means the channel has no data.
type Anim struct {
	Offset [6]uint16
}

// BodyPart is mstudiobodyparts_t.
type BodyPart struct {
	Name       [64]byte
	NumModels  int32
	Base       int32
	ModelIndex int32
}

// Texture is mstudiotexture_t.
type Texture struct {
	Name   [64]byte
	Flags  int32
	Width  int32
	Height int32
	Index  int32
}

// Model is mstudiomodel_t.
type Model struct {
	Name [64]byte

	Type           int32
	BoundingRadius float32

	NumMesh   int32
	MeshIndex int32

	NumVerts      int32
	VertInfoIndex int32
	VertIndex     int32

	NumNorms      int32
	NormInfoIndex int32
	NormIndex     int32

	NumGroups  int32
	GroupIndex int32
}

// Mesh is mstudiomesh_t.
type Mesh struct {
	NumTris   int32
	TriIndex  int32
	SkinRef   int32
	NumNorms  int32
	NormIndex int32
}

// Record sizes on disk.
const (
	HeaderSize         = 244
	SeqHeaderSize      = 76
	BoneSize           = 112
	BoneControllerSize = 24
	BBoxSize           = 32
	SeqGroupSize       = 104
	SeqDescSize        = 176
	EventSize          = 76
	PivotSize          = 20
	AttachmentSize     = 88
	AnimSize           = 12
	BodyPartSize       = 76
	TextureSize        = 80
	ModelSize          = 112
	MeshSize           = 20
)
