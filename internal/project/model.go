package project

import "github.com/Faultbox/studiomdl/pkg/math"

// Node is one entry of a source skeleton.
type Node struct {
	Name     string
	Parent   int
	Mirrored bool
}

// BonePose is a local bone transform: position and Euler rotation in radians.
type BonePose struct {
	Pos math.Vec3
	Rot math.Vec3
}

// Vertex is a deduplicated position in the space of its bone.
type Vertex struct {
	Bone int
	Org  math.Vec3
}

// Normal is a deduplicated normal in the space of its bone.
type Normal struct {
	Bone    int
	SkinRef int
	Org     math.Vec3
}

// TriVert is one triangle corner. S and T are filled in by the skin stage
// from the source UV.
type TriVert struct {
	Vert int
	Norm int
	S    int
	T    int
	U    float32
	V    float32
}

// Mesh groups the triangles of one sub-model that share a texture.
type Mesh struct {
	SkinRef   int
	Triangles [][3]TriVert

	// NumNorms is the number of normals owned by the mesh after SortNormals.
	NumNorms int
}

// Model is a sub-model imported from one reference source file.
type Model struct {
	Name    string
	Path    string
	Blank   bool
	Reverse bool
	Scale   float32
	Adjust  math.Vec3

	Nodes    []Node
	Skeleton []BonePose

	Verts  []Vertex
	Norms  []Normal
	Meshes []*Mesh

	// BoneRef marks bones referenced by geometry or kept explicitly.
	BoneRef []bool
}

// LookupMesh returns the mesh for a texture, creating it if needed.
func (m *Model) LookupMesh(skinref int) *Mesh {
	for _, mesh := range m.Meshes {
		if mesh.SkinRef == skinref {
			return mesh
		}
	}
	mesh := &Mesh{SkinRef: skinref}
	m.Meshes = append(m.Meshes, mesh)
	return mesh
}

// NumTriangles returns the triangle count over all meshes.
func (m *Model) NumTriangles() int {
	n := 0
	for _, mesh := range m.Meshes {
		n += len(mesh.Triangles)
	}
	return n
}

// Parents returns the parent index of every node.
func (m *Model) Parents() []int {
	parents := make([]int, len(m.Nodes))
	for i, n := range m.Nodes {
		parents[i] = n.Parent
	}
	return parents
}

// BindTransforms returns the world transform of every node in the bind pose.
func (m *Model) BindTransforms() []math.Mat34 {
	local := make([]math.Mat34, len(m.Skeleton))
	for i, b := range m.Skeleton {
		local[i] = math.PoseMatrix(b.Rot, b.Pos)
	}
	return math.Chain(m.Parents(), local)
}

// SortNormals reorders the normals so each mesh's normals are contiguous, in
// mesh order, and rewrites triangle normal indices to match. Normals not
// referenced by any mesh are dropped.
func (m *Model) SortNormals() {
	remap := make([]int, len(m.Norms))
	for i := range remap {
		remap[i] = -1
	}
	sorted := make([]Normal, 0, len(m.Norms))
	for _, mesh := range m.Meshes {
		mesh.NumNorms = 0
		for i, n := range m.Norms {
			if n.SkinRef == mesh.SkinRef && remap[i] == -1 {
				remap[i] = len(sorted)
				sorted = append(sorted, n)
				mesh.NumNorms++
			}
		}
		for t := range mesh.Triangles {
			for j := range mesh.Triangles[t] {
				mesh.Triangles[t][j].Norm = remap[mesh.Triangles[t][j].Norm]
			}
		}
	}
	m.Norms = sorted
}
