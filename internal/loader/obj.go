package loader

import (
	"Walkthrough3D/internal/logger"
	"Walkthrough3D/internal/renderer"
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type FaceVertex struct {
	VertexIdx   int32
	TexCoordIdx int32
	NormalIdx   int32
}

// objGroup collects the faces drawn with one material, in file order.
type objGroup struct {
	material string
	faces    []FaceVertex
}

// decodeOBJ reads an OBJ file and its MTL library into a node with one
// drawable child per usemtl material.
func decodeOBJ(path string) (*renderer.Node, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parseOBJ(file, func(name string) (map[string]*renderer.Material, error) {
		return LoadMaterials(filepath.Join(filepath.Dir(path), name))
	})
}

func parseOBJ(r io.Reader, mtllib func(string) (map[string]*renderer.Material, error)) (*renderer.Node, error) {
	var vertices []mgl32.Vec3
	var textureCoords []mgl32.Vec2
	var normals []mgl32.Vec3
	modelMaterials := map[string]*renderer.Material{}
	var groups []*objGroup
	byName := map[string]*objGroup{}
	current := ""

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}
		switch parts[0] {
		case "v":
			v, err := parseVec3(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", line, err)
			}
			vertices = append(vertices, v)
		case "vn":
			n, err := parseVec3(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: normal: %w", line, err)
			}
			normals = append(normals, n)
		case "vt":
			uv, err := parseTextureCoordinate(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			textureCoords = append(textureCoords, uv)
		case "f":
			face, err := parseFace(parts[1:], len(vertices), len(textureCoords), len(normals))
			if err != nil {
				return nil, fmt.Errorf("line %d: face: %w", line, err)
			}
			g, ok := byName[current]
			if !ok {
				g = &objGroup{material: current}
				byName[current] = g
				groups = append(groups, g)
			}
			g.faces = append(g.faces, face...)
		case "mtllib":
			if len(parts) < 2 || mtllib == nil {
				continue
			}
			mats, err := mtllib(strings.Join(parts[1:], " "))
			if err != nil {
				// Missing libraries only cost the MTL colors; names still bind.
				logger.Log.Warn("Could not load material library", zap.Error(err))
				continue
			}
			for name, m := range mats {
				modelMaterials[name] = m
			}
		case "usemtl":
			if len(parts) >= 2 {
				current = strings.Join(parts[1:], " ")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	root := renderer.NewNode("")
	for _, g := range groups {
		mat, ok := modelMaterials[g.material]
		if !ok {
			mat = renderer.NewMaterial(g.material)
			modelMaterials[g.material] = mat
		}
		model := buildGroupModel(g, vertices, textureCoords, normals)
		model.Material = mat
		child := renderer.NewNode(g.material)
		child.Model = model
		root.Add(child)
	}
	if len(groups) == 0 {
		return nil, ErrNoScene
	}
	return root, nil
}

// buildGroupModel unifies v/vt/vn triplets into one vertex stream.
func buildGroupModel(g *objGroup, vertices []mgl32.Vec3, uvs []mgl32.Vec2, normals []mgl32.Vec3) *renderer.Model {
	type vertexKey struct{ v, vt, vn int32 }
	seen := map[vertexKey]uint32{}
	var positions []mgl32.Vec3
	var outUVs []mgl32.Vec2
	var outNormals []mgl32.Vec3
	hasUV, hasNormal := true, true
	indices := make([]uint32, 0, len(g.faces))

	for _, fv := range g.faces {
		key := vertexKey{fv.VertexIdx, fv.TexCoordIdx, fv.NormalIdx}
		if idx, ok := seen[key]; ok {
			indices = append(indices, idx)
			continue
		}
		idx := uint32(len(positions))
		seen[key] = idx
		positions = append(positions, vertices[fv.VertexIdx])
		if fv.TexCoordIdx >= 0 {
			outUVs = append(outUVs, uvs[fv.TexCoordIdx])
		} else {
			hasUV = false
			outUVs = append(outUVs, mgl32.Vec2{})
		}
		if fv.NormalIdx >= 0 {
			outNormals = append(outNormals, normals[fv.NormalIdx])
		} else {
			hasNormal = false
		}
		indices = append(indices, idx)
	}
	if !hasUV {
		outUVs = nil
	}
	if !hasNormal {
		outNormals = nil
	}
	return renderer.CreateModel(g.material, positions, outUVs, outNormals, indices)
}

// LoadMaterials loads material properties from a .mtl file.
func LoadMaterials(filename string) (map[string]*renderer.Material, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var currentMaterial *renderer.Material
	materials := make(map[string]*renderer.Material)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				logger.Log.Warn("Malformed material line", zap.String("line", line))
				continue
			}
			name := strings.Join(fields[1:], " ")
			currentMaterial = renderer.NewMaterial(name)
			materials[name] = currentMaterial
			continue
		}
		if currentMaterial == nil {
			continue
		}

		switch fields[0] {
		case "Kd": // Diffuse color
			if len(fields) == 4 {
				currentMaterial.DiffuseColor = parseColor(fields[1:])
			}
		case "Ke": // Emissive color
			if len(fields) == 4 {
				currentMaterial.EmissiveColor = parseColor(fields[1:])
			}
		case "Ns": // Shininess, mapped onto roughness
			if len(fields) == 2 {
				currentMaterial.Roughness = shininessToRoughness(parseFloat(fields[1]))
			}
		case "d": // Dissolve (alpha/opacity)
			if len(fields) == 2 {
				currentMaterial.Alpha = parseFloat(fields[1])
				currentMaterial.Transparent = currentMaterial.Alpha < 1
			}
		case "Tr": // Transparency, inverse of d
			if len(fields) == 2 {
				currentMaterial.Alpha = 1 - parseFloat(fields[1])
				currentMaterial.Transparent = currentMaterial.Alpha < 1
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return materials, nil
}

func shininessToRoughness(ns float32) float32 {
	if ns <= 0 {
		return 1
	}
	return mgl32.Clamp(float32(math.Sqrt(2/(float64(ns)+2))), 0, 1)
}

// parseColor parses RGB color components, defaulting bad values to 0.
func parseColor(fields []string) mgl32.Vec3 {
	var color mgl32.Vec3
	for i, field := range fields[:3] {
		if val, err := strconv.ParseFloat(field, 32); err == nil {
			color[i] = float32(val)
		} else {
			logger.Log.Warn("Error parsing color component", zap.Error(err))
		}
	}
	return color
}

func parseFloat(s string) float32 {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		logger.Log.Warn("Error parsing material value", zap.Error(err))
		return 0
	}
	return float32(f)
}

func parseVec3(parts []string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	if len(parts) < 3 {
		return v, fmt.Errorf("want 3 components, got %d", len(parts))
	}
	for i := 0; i < 3; i++ {
		val, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return v, fmt.Errorf("invalid value %v: %w", parts[i], err)
		}
		v[i] = float32(val)
	}
	return v, nil
}

// for 2D textures; a third w component is ignored
func parseTextureCoordinate(parts []string) (mgl32.Vec2, error) {
	var uv mgl32.Vec2
	if len(parts) < 1 {
		return uv, fmt.Errorf("empty texture coordinate")
	}
	for i := 0; i < 2 && i < len(parts); i++ {
		val, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return uv, fmt.Errorf("invalid texture coordinate value %v: %w", parts[i], err)
		}
		uv[i] = float32(val)
	}
	return uv, nil
}

// resolveIndex converts a 1-based or negative (relative) OBJ index.
func resolveIndex(s string, count int) (int32, error) {
	idx, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid index %v: %w", s, err)
	}
	switch {
	case idx > 0:
		idx--
	case idx < 0:
		idx += int64(count)
	default:
		return 0, fmt.Errorf("index 0 is not valid")
	}
	if idx < 0 || idx >= int64(count) {
		return 0, fmt.Errorf("index %s out of range (%d)", s, count)
	}
	return int32(idx), nil
}

// parseFace parses one face and fan-triangulates polygons.
func parseFace(parts []string, nv, nvt, nvn int) ([]FaceVertex, error) {
	if len(parts) < 3 {
		return nil, fmt.Errorf("need at least 3 vertices, got %d", len(parts))
	}
	face := make([]FaceVertex, 0, len(parts))
	for _, part := range parts {
		vals := strings.Split(part, "/")

		vertexIdx, err := resolveIndex(vals[0], nv)
		if err != nil {
			return nil, err
		}

		var texCoordIdx int32 = -1
		if len(vals) > 1 && vals[1] != "" {
			if texCoordIdx, err = resolveIndex(vals[1], nvt); err != nil {
				return nil, err
			}
		}

		var normalIdx int32 = -1
		if len(vals) > 2 && vals[2] != "" {
			if normalIdx, err = resolveIndex(vals[2], nvn); err != nil {
				return nil, err
			}
		}

		face = append(face, FaceVertex{
			VertexIdx:   vertexIdx,
			TexCoordIdx: texCoordIdx,
			NormalIdx:   normalIdx,
		})
	}

	if len(face) == 3 {
		return face, nil
	}
	triangulated := make([]FaceVertex, 0, (len(face)-2)*3)
	for i := 1; i < len(face)-1; i++ {
		triangulated = append(triangulated, face[0], face[i], face[i+1])
	}
	return triangulated, nil
}
