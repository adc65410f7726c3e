// Package writer lays out a compiled model into the studio binary format: the
// main model file and one companion file per extra sequence group.
package writer

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/studiomdl/internal/anim"
	"github.com/Faultbox/studiomdl/internal/bones"
	"github.com/Faultbox/studiomdl/internal/diag"
	"github.com/Faultbox/studiomdl/internal/logger"
	"github.com/Faultbox/studiomdl/internal/motion"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/internal/skin"
	"github.com/Faultbox/studiomdl/internal/tristrip"
	"github.com/Faultbox/studiomdl/pkg/encoding"
	"github.com/Faultbox/studiomdl/pkg/studio"
)

// Input is everything the serializer reads. Nothing in it is modified.
type Input struct {
	Project *project.Project
	Bones   *bones.Table
	Anims   *anim.Result
	Skins   *skin.Result
	Graph   *motion.Graph
}

// Output holds the serialized files. Groups[i] is sequence group i+1.
type Output struct {
	Model  []byte
	Groups [][]byte
}

type serializer struct {
	in  *Input
	p   *project.Project
	buf *Buffer
	hdr studio.Header

	// animIndex is the offset of each sequence's anim records within the file
	// of its group.
	animIndex []int
}

// Serialize lays out in into buffers of at most capacity bytes each.
func Serialize(in *Input, capacity int) (*Output, error) {
	s := &serializer{
		in:        in,
		p:         in.Project,
		animIndex: make([]int, len(in.Project.Sequences)),
	}
	out := &Output{}

	for g := 1; g < len(s.p.SeqGroups); g++ {
		data, err := s.groupFile(g, capacity)
		if err != nil {
			return nil, err
		}
		out.Groups = append(out.Groups, data)
	}

	s.buf = NewBuffer(capacity)
	steps := []func() error{
		s.header,
		s.boneInfo,
		func() error { return s.animations(s.buf, 0) },
		s.sequenceInfo,
		s.models,
		s.textures,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	s.hdr.Length = int32(s.buf.Len())
	if err := s.buf.PutAt(0, &s.hdr); err != nil {
		return nil, err
	}
	out.Model = s.buf.Bytes()

	logger.Info("model serialized",
		zap.Int("bytes", len(out.Model)),
		zap.Int("groups", len(out.Groups)))
	return out, nil
}

// GroupName returns the file name of sequence group g for a model path.
func GroupName(modelPath string, g int) string {
	return fmt.Sprintf("%s%02d.mdl", strings.TrimSuffix(modelPath, filepath.Ext(modelPath)), g)
}

func (s *serializer) groupFile(g, capacity int) ([]byte, error) {
	buf := NewBuffer(capacity)
	hdr := studio.SeqHeader{Version: studio.Version}
	copy(hdr.ID[:], studio.SequenceMagic)
	encoding.PutFixedString(hdr.Name[:], encoding.NormalizePath(GroupName(s.p.OutName, g)))
	if _, err := buf.Append(&hdr); err != nil {
		return nil, err
	}
	if err := s.animations(buf, g); err != nil {
		return nil, err
	}
	hdr.Length = int32(buf.Len())
	if err := buf.PutAt(0, &hdr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *serializer) header() error {
	p := s.p
	h := &s.hdr
	copy(h.ID[:], studio.ModelMagic)
	h.Version = studio.Version
	encoding.PutFixedString(h.Name[:], encoding.NormalizePath(p.OutName))
	h.EyePosition = p.EyePosition
	h.Min, h.Max = p.BBoxMin, p.BBoxMax
	h.BBMin, h.BBMax = p.CBoxMin, p.CBoxMax
	h.Flags = int32(p.Flags)
	_, err := s.buf.Reserve(studio.HeaderSize)
	return err
}

// section appends records as one aligned array and returns its offset.
func (s *serializer) section(records any) (int32, error) {
	off, err := s.buf.Append(records)
	if err != nil {
		return 0, err
	}
	return int32(off), s.buf.Align()
}

var controllerSlot = map[int]int{
	studio.X: 0, studio.Y: 1, studio.Z: 2,
	studio.XR: 3, studio.YR: 4, studio.ZR: 5,
}

func (s *serializer) boneInfo() error {
	t := s.in.Bones
	var err error

	out := make([]studio.Bone, len(t.Bones))
	for i, b := range t.Bones {
		ob := &out[i]
		encoding.PutFixedString(ob.Name[:], b.Name)
		ob.Parent = int32(b.Parent)
		ob.Flags = int32(b.Flags)
		for k := range ob.BoneController {
			ob.BoneController[k] = -1
		}
		for k := 0; k < 3; k++ {
			ob.Value[k], ob.Value[k+3] = b.Pos[k], b.Rot[k]
		}
		ob.Scale = s.in.Anims.Scales[i]
	}
	for i, c := range t.Controllers {
		slot, ok := controllerSlot[c.Type&studio.Types]
		if !ok {
			return diag.Link("bone controller %d has no axis type", c.Index)
		}
		out[c.Bone].BoneController[slot] = int32(i)
	}
	s.hdr.NumBones = int32(len(out))
	if s.hdr.BoneIndex, err = s.section(out); err != nil {
		return err
	}

	ctrls := make([]studio.BoneController, len(t.Controllers))
	for i, c := range t.Controllers {
		ctrls[i] = studio.BoneController{
			Bone:  int32(c.Bone),
			Type:  int32(c.Type),
			Start: c.Start,
			End:   c.End,
			Index: int32(c.Index),
		}
	}
	s.hdr.NumBoneControllers = int32(len(ctrls))
	if s.hdr.BoneControllerIndex, err = s.section(ctrls); err != nil {
		return err
	}

	atts := make([]studio.Attachment, len(t.Attachments))
	for i, a := range t.Attachments {
		atts[i] = studio.Attachment{Bone: int32(a.Bone), Org: a.Org}
	}
	s.hdr.NumAttachments = int32(len(atts))
	if s.hdr.AttachmentIndex, err = s.section(atts); err != nil {
		return err
	}

	boxes := make([]studio.BBox, len(t.Hitboxes))
	for i, h := range t.Hitboxes {
		boxes[i] = studio.BBox{Bone: int32(h.Bone), Group: int32(h.Group), BBMin: h.Min, BBMax: h.Max}
	}
	s.hdr.NumHitboxes = int32(len(boxes))
	s.hdr.HitboxIndex, err = s.section(boxes)
	return err
}

// animations writes, for every sequence of group g, its anim records
// followed by their value streams. Stream offsets are relative to the
// record that references them and must fit in 16 bits.
func (s *serializer) animations(buf *Buffer, g int) error {
	numBones := len(s.in.Bones.Bones)
	for i, seq := range s.p.Sequences {
		if seq.Group != g {
			continue
		}
		base, err := buf.Reserve(len(seq.Blends) * numBones * studio.AnimSize)
		if err != nil {
			return err
		}
		if err := buf.Align(); err != nil {
			return err
		}
		s.animIndex[i] = base

		for q := range seq.Blends {
			for j := 0; j < numBones; j++ {
				at := base + (q*numBones+j)*studio.AnimSize
				var rec studio.Anim
				for k, stream := range s.in.Anims.Anims[i][q][j] {
					if stream == nil {
						continue
					}
					rel := buf.Len() - at
					if rel > 0xffff {
						return diag.Limit("sequence %q: animation data exceeds 64K", seq.Name)
					}
					rec.Offset[k] = uint16(rel)
					if _, err := buf.Append(stream.Words()); err != nil {
						return err
					}
				}
				if buf.Len()-at > 0xffff {
					return diag.Limit("sequence %q: animation data exceeds 64K", seq.Name)
				}
				if err := buf.PutAt(at, &rec); err != nil {
					return err
				}
			}
		}
		if err := buf.Align(); err != nil {
			return err
		}
	}
	return nil
}

func (s *serializer) sequenceInfo() error {
	p := s.p
	descs := make([]studio.SeqDesc, len(p.Sequences))
	base, err := s.buf.Reserve(len(descs) * studio.SeqDescSize)
	if err != nil {
		return err
	}
	s.hdr.NumSeq = int32(len(descs))
	s.hdr.SeqIndex = int32(base)

	for i, seq := range p.Sequences {
		d := &descs[i]
		encoding.PutFixedString(d.Label[:], seq.Name)
		d.FPS = seq.FPS
		d.Flags = int32(seq.Flags)
		d.Activity = int32(seq.Activity)
		d.ActWeight = int32(seq.ActWeight)
		d.NumFrames = int32(seq.NumFrames)
		d.MotionType = int32(seq.MotionType)
		d.MotionBone = int32(seq.MotionBone)
		d.LinearMovement = seq.LinearMovement
		d.BBMin, d.BBMax = seq.BBMin, seq.BBMax
		d.NumBlends = int32(len(seq.Blends))
		d.AnimIndex = int32(s.animIndex[i])
		for k := 0; k < 2; k++ {
			d.BlendType[k] = int32(seq.BlendType[k])
			d.BlendStart[k] = seq.BlendStart[k]
			d.BlendEnd[k] = seq.BlendEnd[k]
		}
		d.SeqGroup = int32(seq.Group)
		d.EntryNode = int32(seq.EntryNode)
		d.ExitNode = int32(seq.ExitNode)
		d.NodeFlags = int32(seq.NodeFlags)

		events := make([]studio.Event, len(seq.Events))
		for j, ev := range seq.Events {
			events[j] = studio.Event{
				Frame: int32(ev.Frame - seq.FrameOffset),
				Event: int32(ev.Event),
				Type:  int32(ev.Type),
			}
			encoding.PutFixedString(events[j].Options[:], ev.Options)
		}
		d.NumEvents = int32(len(events))
		if d.EventIndex, err = s.section(events); err != nil {
			return err
		}

		pivots := make([]studio.Pivot, len(seq.Pivots))
		for j, pv := range seq.Pivots {
			pivots[j] = studio.Pivot{
				Org:   pv.Org,
				Start: int32(pv.Start - seq.FrameOffset),
				End:   int32(pv.End - seq.FrameOffset),
			}
		}
		d.NumPivots = int32(len(pivots))
		if d.PivotIndex, err = s.section(pivots); err != nil {
			return err
		}
	}
	if err := s.buf.PutAt(base, descs); err != nil {
		return err
	}

	groups := make([]studio.SeqGroup, len(p.SeqGroups))
	for i, g := range p.SeqGroups {
		encoding.PutFixedString(groups[i].Label[:], g.Label)
		name := g.Name
		if i > 0 {
			name = encoding.NormalizePath(GroupName(p.OutName, i))
		}
		encoding.PutFixedString(groups[i].Name[:], name)
	}
	s.hdr.NumSeqGroups = int32(len(groups))
	if s.hdr.SeqGroupIndex, err = s.section(groups); err != nil {
		return err
	}

	if g := s.in.Graph; g != nil && g.Size > 0 {
		s.hdr.NumTransitions = int32(g.Size)
		if s.hdr.TransitionIndex, err = s.section(g.Links); err != nil {
			return err
		}
	}
	return nil
}

func (s *serializer) models() error {
	p := s.p
	parts := make([]studio.BodyPart, len(p.BodyParts))
	partsAt, err := s.buf.Reserve(len(parts) * studio.BodyPartSize)
	if err != nil {
		return err
	}
	models := p.Models()
	mdls := make([]studio.Model, len(models))
	modelsAt, err := s.buf.Reserve(len(mdls) * studio.ModelSize)
	if err != nil {
		return err
	}
	if err := s.buf.Align(); err != nil {
		return err
	}
	s.hdr.NumBodyParts = int32(len(parts))
	s.hdr.BodyPartIndex = int32(partsAt)

	j := 0
	for i, bp := range p.BodyParts {
		encoding.PutFixedString(parts[i].Name[:], bp.Name)
		parts[i].NumModels = int32(len(bp.Models))
		parts[i].Base = int32(bp.Base)
		parts[i].ModelIndex = int32(modelsAt + j*studio.ModelSize)
		j += len(bp.Models)
	}

	for i, m := range models {
		if err := s.model(m, &mdls[i]); err != nil {
			return err
		}
	}

	if err := s.buf.PutAt(partsAt, parts); err != nil {
		return err
	}
	return s.buf.PutAt(modelsAt, mdls)
}

func (s *serializer) model(m *project.Model, out *studio.Model) error {
	var err error
	encoding.PutFixedString(out.Name[:], m.Name)

	vertBones := make([]byte, len(m.Verts))
	verts := make([][3]float32, len(m.Verts))
	for i, v := range m.Verts {
		vertBones[i], verts[i] = byte(v.Bone), v.Org
	}
	normBones := make([]byte, len(m.Norms))
	norms := make([][3]float32, len(m.Norms))
	for i, n := range m.Norms {
		normBones[i], norms[i] = byte(n.Bone), n.Org
	}

	out.NumVerts = int32(len(verts))
	if out.VertInfoIndex, err = s.section(vertBones); err != nil {
		return err
	}
	out.NumNorms = int32(len(norms))
	if out.NormInfoIndex, err = s.section(normBones); err != nil {
		return err
	}
	if out.VertIndex, err = s.section(verts); err != nil {
		return err
	}
	if out.NormIndex, err = s.section(norms); err != nil {
		return err
	}

	meshes := make([]studio.Mesh, len(m.Meshes))
	meshesAt, err := s.buf.Reserve(len(meshes) * studio.MeshSize)
	if err != nil {
		return err
	}
	if err := s.buf.Align(); err != nil {
		return err
	}
	out.NumMesh = int32(len(meshes))
	out.MeshIndex = int32(meshesAt)

	norm := 0
	for i, mesh := range m.Meshes {
		cmds := tristrip.Build(mesh.Triangles)
		meshes[i] = studio.Mesh{
			NumTris:   int32(len(mesh.Triangles)),
			SkinRef:   int32(mesh.SkinRef),
			NumNorms:  int32(mesh.NumNorms),
			NormIndex: out.NormIndex + int32(norm*12),
		}
		norm += mesh.NumNorms
		if meshes[i].TriIndex, err = s.section(cmds); err != nil {
			return err
		}
		logger.Debug("mesh stripped",
			zap.String("model", m.Name),
			zap.Int("triangles", len(mesh.Triangles)),
			zap.Int("commands", len(cmds)))
	}
	return s.buf.PutAt(meshesAt, meshes)
}

func (s *serializer) textures() error {
	p := s.p
	texs := make([]studio.Texture, len(p.Textures))
	texAt, err := s.buf.Reserve(len(texs) * studio.TextureSize)
	if err != nil {
		return err
	}
	if err := s.buf.Align(); err != nil {
		return err
	}
	s.hdr.NumTextures = int32(len(texs))
	s.hdr.TextureIndex = int32(texAt)

	var refs []int16
	for _, fam := range s.in.Skins.Families {
		refs = append(refs, fam...)
	}
	s.hdr.NumSkinRef = int32(len(p.Textures))
	s.hdr.NumSkinFamilies = int32(len(s.in.Skins.Families))
	if s.hdr.SkinIndex, err = s.section(refs); err != nil {
		return err
	}

	s.hdr.TextureDataIndex = int32(s.buf.Len())
	for i, tex := range p.Textures {
		encoding.PutFixedString(texs[i].Name[:], tex.Name)
		texs[i].Flags = int32(tex.Flags)
		texs[i].Width = int32(tex.Width)
		texs[i].Height = int32(tex.Height)
		off, err := s.buf.Append(tex.Pixels)
		if err != nil {
			return err
		}
		texs[i].Index = int32(off)
		if _, err := s.buf.Append(tex.Palette); err != nil {
			return err
		}
		if err := s.buf.Align(); err != nil {
			return err
		}
	}
	return s.buf.PutAt(texAt, texs)
}
