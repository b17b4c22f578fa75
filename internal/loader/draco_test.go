package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// fakeDracoTool writes a draco_decoder stand-in that checks it was handed the
// compressed bytes and answers with a fixed quad.
func fakeDracoTool(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script decoder stand-in")
	}
	dir := t.TempDir()
	script := `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    -i) in="$2"; shift ;;
    -o) out="$2"; shift ;;
  esac
  shift
done
grep -q DRACO "$in" || { echo "not a draco stream" >&2; exit 3; }
cat > "$out" <<'OBJ'
v 0 0 0
v 4 0 0
v 4 0 4
v 0 0 4
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 1 0
f 1/1/1 2/2/1 3/3/1 4/4/1
OBJ
`
	path := filepath.Join(dir, DracoTool)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

// writeDracoGLB rewrites the triangle asset so its primitive is Draco
// compressed with payload as the compressed stream.
func writeDracoGLB(t *testing.T, dir string, payload []byte) string {
	t.Helper()
	path := writeTriangleGLB(t, dir, DracoExtension)
	doc, err := gltf.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	bv := modeler.WriteBufferView(doc, gltf.TargetNone, payload)
	doc.ExtensionsUsed = []string{DracoExtension}
	doc.Meshes[0].Primitives[0].Extensions = gltf.Extensions{
		DracoExtension: map[string]any{
			"bufferView": bv,
			"attributes": map[string]int{gltf.POSITION: 0, gltf.TEXCOORD_0: 1},
		},
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewDracoDecoderFromDirectory(t *testing.T) {
	dir := fakeDracoTool(t)

	dec, err := NewDracoDecoder(dir)
	if err != nil {
		t.Fatalf("NewDracoDecoder failed: %v", err)
	}
	if dec.Tool() != filepath.Join(dir, DracoTool) {
		t.Errorf("Expected the tool inside %s, got %s", dir, dec.Tool())
	}
	if dec.Extension() != DracoExtension {
		t.Errorf("Expected %s, got %s", DracoExtension, dec.Extension())
	}
}

func TestNewDracoDecoderRejectsURL(t *testing.T) {
	_, err := NewDracoDecoder("https://www.gstatic.com/draco/v1/decoders/")
	if !errors.Is(err, ErrRemoteDecoder) {
		t.Errorf("Expected ErrRemoteDecoder, got %v", err)
	}
}

func TestNewDracoDecoderMissingTool(t *testing.T) {
	if _, err := NewDracoDecoder(t.TempDir()); err == nil {
		t.Error("Expected an error for a directory without the decoder")
	}
}

func TestDracoDecoderDecodesPrimitive(t *testing.T) {
	dec, err := NewDracoDecoder(fakeDracoTool(t))
	if err != nil {
		t.Fatal(err)
	}
	path := writeDracoGLB(t, t.TempDir(), []byte("DRACO\x02\x02"))

	root, err := decodeGLTF(context.Background(), path, map[string]PrimitiveDecoder{DracoExtension: dec})
	if err != nil {
		t.Fatalf("decodeGLTF failed: %v", err)
	}
	model := root.Find("tree").Model
	if model.VertexCount() != 4 {
		t.Fatalf("Expected the decoded quad's 4 vertices, got %d", model.VertexCount())
	}
	if len(model.Indices) != 6 {
		t.Errorf("Expected 2 triangles, got %d indices", len(model.Indices))
	}
	if got := model.Vertex(2); got != (mgl32.Vec3{4, 0, 4}) {
		t.Errorf("Expected vertex (4,0,4), got %v", got)
	}
	if len(model.TextureCoords) != 8 {
		t.Errorf("Expected uvs for 4 vertices, got %d floats", len(model.TextureCoords))
	}
	if model.Material == nil || model.Material.Name != "bark" {
		t.Errorf("Decoded primitive should keep its material, got %+v", model.Material)
	}
}

func TestDracoDecoderReportsToolFailure(t *testing.T) {
	dec, err := NewDracoDecoder(fakeDracoTool(t))
	if err != nil {
		t.Fatal(err)
	}
	path := writeDracoGLB(t, t.TempDir(), []byte("garbage"))

	_, err = decodeGLTF(context.Background(), path, map[string]PrimitiveDecoder{DracoExtension: dec})
	if err == nil {
		t.Fatal("Expected the tool failure to fail the load")
	}
}

func TestDracoExtensionNeedsBufferView(t *testing.T) {
	prim := &gltf.Primitive{Extensions: gltf.Extensions{DracoExtension: map[string]any{}}}
	dec := &DracoDecoder{tool: DracoTool}

	if _, err := dec.DecodePrimitive(context.Background(), gltf.NewDocument(), prim); err == nil {
		t.Error("Expected an error without a buffer view")
	}
}
