package loader

import (
	"Walkthrough3D/internal/logger"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

// DracoTool is the name of the Draco command line decoder looked up when no
// explicit path is configured.
const DracoTool = "draco_decoder"

var ErrRemoteDecoder = errors.New("decoder path must be local")

// dracoPrimitive is the KHR_draco_mesh_compression primitive extension.
type dracoPrimitive struct {
	BufferView *int           `json:"bufferView"`
	Attributes map[string]int `json:"attributes"`
}

// DracoDecoder decodes Draco compressed primitives with the draco_decoder
// tool. The compressed buffer view goes in as a .drc file and the mesh comes
// back as OBJ.
type DracoDecoder struct {
	tool string
}

// NewDracoDecoder resolves the decoder tool from path. An empty path looks up
// draco_decoder on PATH, a directory is searched for draco_decoder, anything
// else names the executable itself.
func NewDracoDecoder(path string) (*DracoDecoder, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return nil, fmt.Errorf("%s: %w", path, ErrRemoteDecoder)
	}
	tool := path
	if tool == "" {
		tool = DracoTool
	} else if info, err := os.Stat(tool); err == nil && info.IsDir() {
		tool = filepath.Join(tool, DracoTool)
	}
	resolved, err := exec.LookPath(tool)
	if err != nil {
		return nil, fmt.Errorf("find Draco decoder: %w", err)
	}
	return &DracoDecoder{tool: resolved}, nil
}

func (d *DracoDecoder) Extension() string { return DracoExtension }

func (d *DracoDecoder) Tool() string { return d.tool }

func (d *DracoDecoder) DecodePrimitive(ctx context.Context, doc *gltf.Document, prim *gltf.Primitive) (Geometry, error) {
	ext, err := dracoExtension(prim)
	if err != nil {
		return Geometry{}, err
	}
	if ext.BufferView == nil || *ext.BufferView < 0 || *ext.BufferView >= len(doc.BufferViews) {
		return Geometry{}, errors.New("draco: buffer view out of range")
	}
	data, err := modeler.ReadBufferView(doc, doc.BufferViews[*ext.BufferView])
	if err != nil {
		return Geometry{}, fmt.Errorf("draco: read buffer view: %w", err)
	}

	dir, err := os.MkdirTemp("", "walkthrough-draco-")
	if err != nil {
		return Geometry{}, err
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "mesh.drc")
	out := filepath.Join(dir, "mesh.obj")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return Geometry{}, err
	}
	cmd := exec.CommandContext(ctx, d.tool, "-i", in, "-o", out)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Geometry{}, ctxErr
		}
		return Geometry{}, fmt.Errorf("draco: %s: %w: %s", filepath.Base(d.tool), err, bytes.TrimSpace(output))
	}

	geom, err := readDecodedOBJ(out)
	if err != nil {
		return Geometry{}, fmt.Errorf("draco: %w", err)
	}
	logger.Log.Debug("Draco primitive decoded",
		zap.Int("bytes", len(data)),
		zap.Int("vertices", len(geom.Positions)),
		zap.Int("triangles", len(geom.Indices)/3))
	return geom, nil
}

// dracoExtension reads the extension object, which the glTF decoder keeps as
// raw JSON because no typed extension is registered for it.
func dracoExtension(prim *gltf.Primitive) (dracoPrimitive, error) {
	var ext dracoPrimitive
	raw, ok := prim.Extensions[DracoExtension]
	if !ok {
		return ext, fmt.Errorf("primitive has no %s extension", DracoExtension)
	}
	data, ok := raw.(json.RawMessage)
	if !ok {
		var err error
		if data, err = json.Marshal(raw); err != nil {
			return ext, fmt.Errorf("draco extension: %w", err)
		}
	}
	if err := json.Unmarshal(data, &ext); err != nil {
		return ext, fmt.Errorf("draco extension: %w", err)
	}
	return ext, nil
}

// readDecodedOBJ merges every group of the tool's OBJ output into one
// geometry.
func readDecodedOBJ(path string) (Geometry, error) {
	file, err := os.Open(path)
	if err != nil {
		return Geometry{}, err
	}
	defer file.Close()

	root, err := parseOBJ(file, nil)
	if err != nil {
		return Geometry{}, err
	}
	var geom Geometry
	meshes := root.Meshes()
	hasUV := true
	for _, node := range meshes {
		hasUV = hasUV && node.Model.TextureCoords != nil
	}
	for _, node := range meshes {
		m := node.Model
		base := uint32(len(geom.Positions))
		for i := 0; i < m.VertexCount(); i++ {
			geom.Positions = append(geom.Positions, m.Vertex(uint32(i)))
			geom.Normals = append(geom.Normals, mgl32.Vec3{m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2]})
			if hasUV {
				geom.UVs = append(geom.UVs, mgl32.Vec2{m.TextureCoords[i*2], m.TextureCoords[i*2+1]})
			}
		}
		for _, idx := range m.Indices {
			geom.Indices = append(geom.Indices, base+idx)
		}
	}
	return geom, nil
}
