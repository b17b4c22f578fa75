package loader

import (
	"Walkthrough3D/internal/logger"
	"Walkthrough3D/internal/renderer"
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

const DracoExtension = "KHR_draco_mesh_compression"

var (
	ErrUnsupportedExtension = errors.New("unsupported glTF extension")
	ErrNoScene              = errors.New("asset has no scene")
)

// Geometry is decoded triangle data for one primitive.
type Geometry struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Colors    []mgl32.Vec3 // COLOR_0, linear
	Indices   []uint32
}

// PrimitiveDecoder decodes primitives compressed with a glTF extension such
// as Draco.
type PrimitiveDecoder interface {
	Extension() string
	DecodePrimitive(ctx context.Context, doc *gltf.Document, prim *gltf.Primitive) (Geometry, error)
}

// gltfBuilder turns one glTF document into a renderer node tree. Meshes and
// materials are built once per index and shared by every node using them.
type gltfBuilder struct {
	ctx       context.Context
	doc       *gltf.Document
	decoders  map[string]PrimitiveDecoder
	meshes    map[int][]*renderer.Model
	materials map[int]*renderer.Material
	fallback  *renderer.Material
}

// decodeGLTF reads a .gltf or .glb file into a node tree.
func decodeGLTF(ctx context.Context, path string, decoders map[string]PrimitiveDecoder) (*renderer.Node, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	for _, ext := range doc.ExtensionsRequired {
		if _, ok := decoders[ext]; !ok {
			return nil, fmt.Errorf("%s requires %s: %w", path, ext, ErrUnsupportedExtension)
		}
	}

	b := &gltfBuilder{
		ctx:       ctx,
		doc:       doc,
		decoders:  decoders,
		meshes:    map[int][]*renderer.Model{},
		materials: map[int]*renderer.Material{},
	}
	roots, err := b.sceneRoots()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	root := renderer.NewNode("")
	for _, idx := range roots {
		child, err := b.node(idx, map[int]bool{})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		root.Add(child)
	}
	logger.Log.Debug("glTF decoded",
		zap.String("path", path),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("meshes", len(b.meshes)),
		zap.Int("materials", len(b.materials)))
	return root, nil
}

// sceneRoots picks the default scene, the first scene, or every parentless
// node when the file declares no scenes.
func (b *gltfBuilder) sceneRoots() ([]int, error) {
	doc := b.doc
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		if len(doc.Scenes[idx].Nodes) == 0 {
			return nil, ErrNoScene
		}
		return doc.Scenes[idx].Nodes, nil
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	if len(roots) == 0 {
		return nil, ErrNoScene
	}
	return roots, nil
}

func (b *gltfBuilder) node(idx int, path map[int]bool) (*renderer.Node, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node index %d out of range", idx)
	}
	if path[idx] {
		return nil, fmt.Errorf("node %d: cycle in hierarchy", idx)
	}
	path[idx] = true
	defer delete(path, idx)

	src := b.doc.Nodes[idx]
	node := renderer.NewNode(src.Name)
	applyTransform(node, src)

	if src.Mesh != nil {
		models, err := b.mesh(*src.Mesh)
		if err != nil {
			return nil, err
		}
		// One drawable child per primitive; a single primitive stays on the node.
		if len(models) == 1 {
			node.Model = models[0]
		} else {
			for _, m := range models {
				child := renderer.NewNode(m.Name)
				child.Model = m
				node.Add(child)
			}
		}
	}

	for _, c := range src.Children {
		child, err := b.node(c, path)
		if err != nil {
			return nil, err
		}
		node.Add(child)
	}
	return node, nil
}

func applyTransform(node *renderer.Node, src *gltf.Node) {
	m := src.MatrixOrDefault()
	if m != gltf.DefaultMatrix {
		var mat mgl32.Mat4
		for i, v := range m {
			mat[i] = float32(v)
		}
		node.SetMatrix(mat)
		return
	}
	t := src.TranslationOrDefault()
	r := src.RotationOrDefault()
	s := src.ScaleOrDefault()
	node.Position = mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])}
	node.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}.Normalize()
	node.Scale = mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
}

func (b *gltfBuilder) mesh(idx int) ([]*renderer.Model, error) {
	if models, ok := b.meshes[idx]; ok {
		return models, nil
	}
	if idx < 0 || idx >= len(b.doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", idx)
	}
	src := b.doc.Meshes[idx]
	var models []*renderer.Model
	for i, prim := range src.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			logger.Log.Debug("Skipping non-triangle primitive",
				zap.String("mesh", src.Name), zap.Int("primitive", i))
			continue
		}
		geom, err := b.geometry(prim)
		if err != nil {
			return nil, fmt.Errorf("mesh %q primitive %d: %w", src.Name, i, err)
		}
		name := src.Name
		if len(src.Primitives) > 1 {
			name = fmt.Sprintf("%s_%d", src.Name, i)
		}
		model := renderer.CreateModel(name, geom.Positions, geom.UVs, geom.Normals, geom.Indices)
		model.Material = b.material(prim.Material)
		if geom.Colors != nil {
			model.SetColors(geom.Colors)
			// Assets with vertex colors show them unless a rule says otherwise.
			model.Material.VertexColors = true
		}
		models = append(models, model)
	}
	b.meshes[idx] = models
	return models, nil
}

func (b *gltfBuilder) geometry(prim *gltf.Primitive) (Geometry, error) {
	for ext := range prim.Extensions {
		if dec, ok := b.decoders[ext]; ok {
			return dec.DecodePrimitive(b.ctx, b.doc, prim)
		}
		if ext == DracoExtension {
			return Geometry{}, fmt.Errorf("%s: %w", ext, ErrUnsupportedExtension)
		}
	}

	var geom Geometry
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return geom, errors.New("primitive has no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(b.doc, b.doc.Accessors[posIdx], nil)
	if err != nil {
		return geom, fmt.Errorf("read positions: %w", err)
	}
	geom.Positions = make([]mgl32.Vec3, len(positions))
	for i, p := range positions {
		geom.Positions[i] = mgl32.Vec3(p)
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(b.doc, b.doc.Accessors[idx], nil)
		if err != nil {
			return geom, fmt.Errorf("read normals: %w", err)
		}
		geom.Normals = make([]mgl32.Vec3, len(normals))
		for i, n := range normals {
			geom.Normals[i] = mgl32.Vec3(n)
		}
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(b.doc, b.doc.Accessors[idx], nil)
		if err != nil {
			return geom, fmt.Errorf("read uvs: %w", err)
		}
		geom.UVs = make([]mgl32.Vec2, len(uvs))
		for i, uv := range uvs {
			geom.UVs[i] = mgl32.Vec2(uv)
		}
	}

	if idx, ok := prim.Attributes[gltf.COLOR_0]; ok {
		colors, err := modeler.ReadColor(b.doc, b.doc.Accessors[idx], nil)
		if err != nil {
			return geom, fmt.Errorf("read colors: %w", err)
		}
		geom.Colors = make([]mgl32.Vec3, len(colors))
		for i, c := range colors {
			geom.Colors[i] = mgl32.Vec3{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255}
		}
	}

	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(b.doc, b.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return geom, fmt.Errorf("read indices: %w", err)
		}
		geom.Indices = indices
	} else {
		geom.Indices = make([]uint32, len(geom.Positions))
		for i := range geom.Indices {
			geom.Indices[i] = uint32(i)
		}
	}
	for _, i := range geom.Indices {
		if int(i) >= len(geom.Positions) {
			return geom, fmt.Errorf("index %d out of range for %d vertices", i, len(geom.Positions))
		}
	}
	return geom, nil
}

// material maps a glTF material to a shared renderer material. Texture
// references in the file are not loaded; maps come from the rule table.
func (b *gltfBuilder) material(idx *int) *renderer.Material {
	if idx == nil || *idx < 0 || *idx >= len(b.doc.Materials) {
		if b.fallback == nil {
			b.fallback = renderer.NewMaterial("")
		}
		return b.fallback
	}
	if mat, ok := b.materials[*idx]; ok {
		return mat
	}
	src := b.doc.Materials[*idx]
	mat := renderer.NewMaterial(src.Name)
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		c := pbr.BaseColorFactorOrDefault()
		mat.DiffuseColor = mgl32.Vec3{float32(c[0]), float32(c[1]), float32(c[2])}
		mat.Alpha = float32(c[3])
		mat.Metallic = float32(pbr.MetallicFactorOrDefault())
		mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
	}
	e := src.EmissiveFactor
	mat.EmissiveColor = mgl32.Vec3{float32(e[0]), float32(e[1]), float32(e[2])}
	switch src.AlphaMode {
	case gltf.AlphaBlend:
		mat.Transparent = true
	case gltf.AlphaMask:
		mat.AlphaTest = float32(src.AlphaCutoffOrDefault())
	}
	b.materials[*idx] = mat
	return mat
}
