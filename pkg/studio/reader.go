package studio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/studiomdl/pkg/encoding"
)

// Reader errors.
var (
	ErrInvalidMagic       = errors.New("invalid studio magic: expected 'IDST'")
	ErrUnsupportedVersion = errors.New("unsupported studio version")
	ErrTruncated          = errors.New("truncated studio data")
	ErrBadSection         = errors.New("section out of bounds")
	ErrMisaligned         = errors.New("section not 4-byte aligned")
)

// File is a decoded view of the top-level tables of a model file.
type File struct {
	Header      Header
	Bones       []Bone
	Controllers []BoneController
	Hitboxes    []BBox
	Sequences   []SeqDesc
	SeqGroups   []SeqGroup
	BodyParts   []BodyPart
	Attachments []Attachment
	Textures    []Texture
	SkinRefs    []int16
	Transitions []byte

	data []byte
}

// NameString returns the model name stored in the header.
func (h *Header) NameString() string {
	return encoding.FixedString(h.Name[:])
}

// ParseHeader decodes and checks the main header.
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrTruncated
	}
	if string(data[:4]) != ModelMagic {
		return nil, ErrInvalidMagic
	}
	var h Header
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if int(h.Length) > len(data) {
		return nil, fmt.Errorf("%w: header length %d, have %d", ErrTruncated, h.Length, len(data))
	}
	return &h, nil
}

// Parse decodes a model file from raw bytes.
func Parse(data []byte) (*File, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if err := validateSections(h); err != nil {
		return nil, err
	}
	f := &File{Header: *h, data: data[:h.Length]}

	if f.Bones, err = readArray[Bone](f.data, h.BoneIndex, h.NumBones); err != nil {
		return nil, fmt.Errorf("bones: %w", err)
	}
	if f.Controllers, err = readArray[BoneController](f.data, h.BoneControllerIndex, h.NumBoneControllers); err != nil {
		return nil, fmt.Errorf("bone controllers: %w", err)
	}
	if f.Hitboxes, err = readArray[BBox](f.data, h.HitboxIndex, h.NumHitboxes); err != nil {
		return nil, fmt.Errorf("hitboxes: %w", err)
	}
	if f.Sequences, err = readArray[SeqDesc](f.data, h.SeqIndex, h.NumSeq); err != nil {
		return nil, fmt.Errorf("sequences: %w", err)
	}
	if f.SeqGroups, err = readArray[SeqGroup](f.data, h.SeqGroupIndex, h.NumSeqGroups); err != nil {
		return nil, fmt.Errorf("sequence groups: %w", err)
	}
	if f.BodyParts, err = readArray[BodyPart](f.data, h.BodyPartIndex, h.NumBodyParts); err != nil {
		return nil, fmt.Errorf("body parts: %w", err)
	}
	if f.Attachments, err = readArray[Attachment](f.data, h.AttachmentIndex, h.NumAttachments); err != nil {
		return nil, fmt.Errorf("attachments: %w", err)
	}
	if f.Textures, err = readArray[Texture](f.data, h.TextureIndex, h.NumTextures); err != nil {
		return nil, fmt.Errorf("textures: %w", err)
	}
	if f.SkinRefs, err = readArray[int16](f.data, h.SkinIndex, h.NumSkinRef*h.NumSkinFamilies); err != nil {
		return nil, fmt.Errorf("skin families: %w", err)
	}
	if f.Transitions, err = readArray[byte](f.data, h.TransitionIndex, h.NumTransitions*h.NumTransitions); err != nil {
		return nil, fmt.Errorf("transitions: %w", err)
	}
	return f, nil
}

// ParseFile reads and decodes a model file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks that every header section lies within the file and starts
// on a 4-byte boundary.
func Validate(data []byte) error {
	h, err := ParseHeader(data)
	if err != nil {
		return err
	}
	return validateSections(h)
}

// Models returns the sub-models of body part i.
func (f *File) Models(i int) ([]Model, error) {
	if i < 0 || i >= len(f.BodyParts) {
		return nil, fmt.Errorf("%w: body part %d", ErrBadSection, i)
	}
	bp := f.BodyParts[i]
	return readArray[Model](f.data, bp.ModelIndex, bp.NumModels)
}

// Meshes returns the meshes of a model.
func (f *File) Meshes(m Model) ([]Mesh, error) {
	return readArray[Mesh](f.data, m.MeshIndex, m.NumMesh)
}

// Anims returns the numblends*numbones anim records of sequence i in this file.
// Sequences stored in other sequence-group files are not reachable from here.
func (f *File) Anims(i int) ([]Anim, error) {
	if i < 0 || i >= len(f.Sequences) {
		return nil, fmt.Errorf("%w: sequence %d", ErrBadSection, i)
	}
	s := f.Sequences[i]
	return readArray[Anim](f.data, s.AnimIndex, s.NumBlends*f.Header.NumBones)
}

// Data returns the raw file bytes up to the header length.
func (f *File) Data() []byte {
	return f.data
}

type section struct {
	name   string
	offset int32
	size   int64
}

func validateSections(h *Header) error {
	sections := []section{
		{"bones", h.BoneIndex, int64(h.NumBones) * BoneSize},
		{"bone controllers", h.BoneControllerIndex, int64(h.NumBoneControllers) * BoneControllerSize},
		{"hitboxes", h.HitboxIndex, int64(h.NumHitboxes) * BBoxSize},
		{"sequences", h.SeqIndex, int64(h.NumSeq) * SeqDescSize},
		{"sequence groups", h.SeqGroupIndex, int64(h.NumSeqGroups) * SeqGroupSize},
		{"textures", h.TextureIndex, int64(h.NumTextures) * TextureSize},
		{"skin families", h.SkinIndex, int64(h.NumSkinRef) * int64(h.NumSkinFamilies) * 2},
		{"body parts", h.BodyPartIndex, int64(h.NumBodyParts) * BodyPartSize},
		{"attachments", h.AttachmentIndex, int64(h.NumAttachments) * AttachmentSize},
		{"transitions", h.TransitionIndex, int64(h.NumTransitions) * int64(h.NumTransitions)},
	}
	for _, s := range sections {
		if s.size == 0 {
			continue
		}
		if s.offset < HeaderSize || int64(s.offset)+s.size > int64(h.Length) {
			return fmt.Errorf("%w: %s at %d+%d, length %d", ErrBadSection, s.name, s.offset, s.size, h.Length)
		}
		if s.offset%4 != 0 {
			return fmt.Errorf("%w: %s at %d", ErrMisaligned, s.name, s.offset)
		}
	}
	if h.NumTextures > 0 && (h.TextureDataIndex%4 != 0 || h.TextureDataIndex > h.Length) {
		return fmt.Errorf("%w: texture data at %d", ErrBadSection, h.TextureDataIndex)
	}
	return nil
}

func readArray[T any](data []byte, offset, count int32) ([]T, error) {
	if count <= 0 {
		return nil, nil
	}
	rec := binary.Size(*new(T))
	if rec <= 0 {
		return nil, fmt.Errorf("%w: record has no fixed size", ErrBadSection)
	}
	size := int64(count) * int64(rec)
	if offset < 0 || int64(offset)+size > int64(len(data)) {
		return nil, fmt.Errorf("%w: %d records at %d", ErrBadSection, count, offset)
	}
	out := make([]T, count)
	if err := binary.Read(bytes.NewReader(data[offset:int64(offset)+size]), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return out, nil
}
