package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// floats per interleaved vertex: position(3) + uv(2) + normal(3) + color(3)
const vertexStride = 11

type Model struct {
	// HOT DATA - Accessed every frame in render loop and by the ground probe
	Material             *Material  // Material shared with other models of the same asset material
	VAO                  uint32     // Vertex Array Object
	VBO                  uint32     // Vertex Buffer Object
	EBO                  uint32     // Element Buffer Object
	BoundingSphereCenter mgl32.Vec3 // Local space, for culling and ray broad phase
	BoundingSphereRadius float32    // Local space

	// COLD DATA - Initialization only or rarely accessed
	Name            string
	Vertices        []float32 // x,y,z per vertex
	Normals         []float32 // x,y,z per vertex
	TextureCoords   []float32 // u,v per vertex
	Colors          []float32 // r,g,b per vertex, linear; nil when the asset has none
	Indices         []uint32  // triangle list
	InterleavedData []float32
	uploaded        bool
}

// CreateModel builds a model from positions, optional uvs and normals, and a
// triangle index list. Missing normals are generated from the faces.
func CreateModel(name string, positions []mgl32.Vec3, uvs []mgl32.Vec2, normals []mgl32.Vec3, indices []uint32) *Model {
	m := &Model{
		Name:     name,
		Vertices: flattenVec3(positions),
		Indices:  indices,
		Material: NewMaterial(""),
	}
	if len(uvs) == len(positions) {
		m.TextureCoords = make([]float32, 0, len(uvs)*2)
		for _, uv := range uvs {
			m.TextureCoords = append(m.TextureCoords, uv[0], uv[1])
		}
	}
	if len(normals) == len(positions) {
		m.Normals = flattenVec3(normals)
	} else {
		m.RecalculateNormals()
	}
	m.CalculateBoundingSphere()
	m.buildInterleaved()
	return m
}

// SetColors attaches per-vertex colors. They are only shown by materials with
// VertexColors set. A slice of the wrong length clears them.
func (m *Model) SetColors(colors []mgl32.Vec3) {
	if len(colors) != m.VertexCount() {
		m.Colors = nil
	} else {
		m.Colors = flattenVec3(colors)
	}
	m.buildInterleaved()
}

func flattenVec3(vs []mgl32.Vec3) []float32 {
	out := make([]float32, 0, len(vs)*3)
	for _, v := range vs {
		out = append(out, v[0], v[1], v[2])
	}
	return out
}

func (m *Model) VertexCount() int {
	return len(m.Vertices) / 3
}

func (m *Model) Vertex(i uint32) mgl32.Vec3 {
	return mgl32.Vec3{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
}

// RecalculateNormals computes smooth per-vertex normals by accumulating face
// normals.
func (m *Model) RecalculateNormals() {
	normals := make([]mgl32.Vec3, m.VertexCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		v0, v1, v2 := m.Vertex(i0), m.Vertex(i1), m.Vertex(i2)
		face := v1.Sub(v0).Cross(v2.Sub(v0))
		normals[i0] = normals[i0].Add(face)
		normals[i1] = normals[i1].Add(face)
		normals[i2] = normals[i2].Add(face)
	}
	for i, n := range normals {
		if n.LenSqr() > 0 {
			normals[i] = n.Normalize()
		} else {
			normals[i] = mgl32.Vec3{0, 1, 0}
		}
	}
	m.Normals = flattenVec3(normals)
}

// CalculateBoundingSphere fits a centroid sphere around the local vertices.
func (m *Model) CalculateBoundingSphere() {
	n := m.VertexCount()
	if n == 0 {
		m.BoundingSphereCenter = mgl32.Vec3{}
		m.BoundingSphereRadius = 0
		return
	}
	var center mgl32.Vec3
	for i := 0; i < n; i++ {
		center = center.Add(m.Vertex(uint32(i)))
	}
	center = center.Mul(1.0 / float32(n))

	var maxDistanceSq float32
	for i := 0; i < n; i++ {
		if d := m.Vertex(uint32(i)).Sub(center).LenSqr(); d > maxDistanceSq {
			maxDistanceSq = d
		}
	}
	m.BoundingSphereCenter = center
	m.BoundingSphereRadius = float32(math.Sqrt(float64(maxDistanceSq)))
}

func (m *Model) buildInterleaved() {
	n := m.VertexCount()
	m.InterleavedData = make([]float32, 0, n*vertexStride)
	for i := 0; i < n; i++ {
		m.InterleavedData = append(m.InterleavedData, m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2])
		if len(m.TextureCoords) >= (i+1)*2 {
			m.InterleavedData = append(m.InterleavedData, m.TextureCoords[i*2], m.TextureCoords[i*2+1])
		} else {
			m.InterleavedData = append(m.InterleavedData, 0, 0)
		}
		if len(m.Normals) >= (i+1)*3 {
			m.InterleavedData = append(m.InterleavedData, m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2])
		} else {
			m.InterleavedData = append(m.InterleavedData, 0, 1, 0)
		}
		if len(m.Colors) >= (i+1)*3 {
			m.InterleavedData = append(m.InterleavedData, m.Colors[i*3], m.Colors[i*3+1], m.Colors[i*3+2])
		} else {
			m.InterleavedData = append(m.InterleavedData, 1, 1, 1)
		}
	}
}

// WorldBoundingSphere transforms the local sphere by world. The radius is
// scaled by the largest axis scale.
func (m *Model) WorldBoundingSphere(world mgl32.Mat4) (mgl32.Vec3, float32) {
	center := mgl32.TransformCoordinate(m.BoundingSphereCenter, world)
	sx := world.Col(0).Vec3().Len()
	sy := world.Col(1).Vec3().Len()
	sz := world.Col(2).Vec3().Len()
	scale := float32(math.Max(float64(sx), math.Max(float64(sy), float64(sz))))
	return center, m.BoundingSphereRadius * scale
}
