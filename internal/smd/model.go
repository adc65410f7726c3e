package smd

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/studiomdl/internal/diag"
	"github.com/Faultbox/studiomdl/internal/logger"
	"github.com/Faultbox/studiomdl/internal/project"
	"github.com/Faultbox/studiomdl/pkg/math"
	"github.com/Faultbox/studiomdl/pkg/studio"
)

// vertexTolerance is the per-axis distance under which two positions merge.
const vertexTolerance = 0.001

// LoadModel imports a reference source into m: its skeleton in bind pose
// and its triangles, with vertices and normals moved into bone space and
// deduplicated.
func LoadModel(p *project.Project, m *project.Model, path string) error {
	s, err := readFile(path)
	if err != nil {
		return err
	}
	f, err := parse(s, p, true)
	if err != nil {
		return err
	}
	if len(f.frames) == 0 {
		return diag.Malformed(path, 0, "no skeleton")
	}

	m.Nodes = f.nodes
	m.Skeleton = make([]project.BonePose, len(f.nodes))
	for i, pose := range f.frames[0].poses {
		pos := pose.Pos.Mul(m.Scale)
		if m.Nodes[i].Mirrored {
			pos = math.Negate(pos)
		}
		m.Skeleton[i] = project.BonePose{Pos: pos, Rot: math.WrapAngles(pose.Rot)}
	}
	world := m.BindTransforms()

	// Source winding is reversed unless the body asks otherwise.
	flip := !m.Reverse
	if p.Options.FlipTriangles {
		flip = !flip
	}

	minZ := float32(math32.MaxFloat32)
	for _, tri := range f.triangles {
		skinref := p.LookupTexture(tri.material)
		p.Textures[skinref].Used = true
		mesh := m.LookupMesh(skinref)
		if len(m.Meshes) > studio.MaxMeshes {
			return diag.Capacity("%s: too many meshes (max %d)", path, studio.MaxMeshes)
		}

		var out [3]project.TriVert
		for j := 0; j < 3; j++ {
			src := tri.corners[j]
			if flip {
				src = tri.corners[2-j]
			}
			pos := src.pos.Sub(m.Adjust).Mul(m.Scale)
			minZ = math32.Min(minZ, pos[2])

			xf := world[src.bone]
			vi, err := lookupVertex(m, project.Vertex{Bone: src.bone, Org: xf.ITransform(pos)})
			if err != nil {
				return diag.Capacity("%s:%d: %v", path, tri.line, err)
			}
			normal := math.Normalize(xf.IRotate(src.normal))
			ni, err := lookupNormal(m, project.Normal{Bone: src.bone, SkinRef: skinref, Org: normal}, p.Options.NormalBlend)
			if err != nil {
				return diag.Capacity("%s:%d: %v", path, tri.line, err)
			}
			out[j] = project.TriVert{Vert: vi, Norm: ni, U: src.u, V: src.v}
		}
		mesh.Triangles = append(mesh.Triangles, out)
		if len(mesh.Triangles) > studio.MaxTriangles {
			return diag.Capacity("%s: too many triangles in mesh (max %d)", path, studio.MaxTriangles)
		}
	}

	if len(f.triangles) > 0 && minZ != 0 {
		logger.Warn("lowest vertex is not at z = 0",
			zap.String("file", path),
			zap.Float32("z", minZ))
	}
	logger.Debug("reference loaded",
		zap.String("file", path),
		zap.Int("nodes", len(m.Nodes)),
		zap.Int("verts", len(m.Verts)),
		zap.Int("norms", len(m.Norms)),
		zap.Int("triangles", m.NumTriangles()))
	return nil
}

func lookupVertex(m *project.Model, v project.Vertex) (int, error) {
	for i, o := range m.Verts {
		if o.Bone == v.Bone &&
			math32.Abs(o.Org[0]-v.Org[0]) < vertexTolerance &&
			math32.Abs(o.Org[1]-v.Org[1]) < vertexTolerance &&
			math32.Abs(o.Org[2]-v.Org[2]) < vertexTolerance {
			return i, nil
		}
	}
	if len(m.Verts) >= studio.MaxVerts {
		return 0, diag.Capacity("too many vertices (max %d)", studio.MaxVerts)
	}
	m.Verts = append(m.Verts, v)
	return len(m.Verts) - 1, nil
}

func lookupNormal(m *project.Model, n project.Normal, blend float32) (int, error) {
	for i, o := range m.Norms {
		if o.Bone == n.Bone && o.SkinRef == n.SkinRef && o.Org.Dot(n.Org) >= blend {
			return i, nil
		}
	}
	if len(m.Norms) >= studio.MaxVerts {
		return 0, diag.Capacity("too many normals (max %d)", studio.MaxVerts)
	}
	m.Norms = append(m.Norms, n)
	return len(m.Norms) - 1, nil
}
