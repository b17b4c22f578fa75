package renderer

import (
	"Walkthrough3D/internal/logger"
	"fmt"
	"sort"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

var _ Render = (*OpenGLRenderer)(nil)

type OpenGLRenderer struct {
	// HOT DATA - walked every frame
	meshes      []*Node
	Settings    RenderSettings
	Textures    *TextureManager
	transparent []*Node // scratch list reused across frames

	// COLD DATA
	defaultShader Shader
	overlayShader Shader
	overlay       Overlay
	overlayVAO    uint32
	overlayVBO    uint32
	roots         []*Node
	width, height int32
}

func NewOpenGLRenderer(textures *TextureManager, settings RenderSettings) *OpenGLRenderer {
	if textures == nil {
		textures = NewTextureManager()
	}
	return &OpenGLRenderer{Textures: textures, Settings: settings}
}

func (rend *OpenGLRenderer) Init(width, height int32) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("opengl init: %w", err)
	}

	rend.defaultShader = InitShader()
	if err := rend.defaultShader.Compile(); err != nil {
		return err
	}
	rend.overlayShader = InitOverlayShader()
	if err := rend.overlayShader.Compile(); err != nil {
		return err
	}

	gl.GenVertexArrays(1, &rend.overlayVAO)
	gl.GenBuffers(1, &rend.overlayVBO)
	gl.BindVertexArray(rend.overlayVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, rend.overlayVBO)
	stride := int32(6 * 4)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, stride, gl.PtrOffset(2*4))
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)

	rend.Textures.deleteFn = func(id uint32) { gl.DeleteTextures(1, &id) }
	rend.UpdateViewport(width, height)

	logger.Log.Info("OpenGL render initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.Int32("width", width),
		zap.Int32("height", height))
	return nil
}

// AddNode uploads every mesh under root and starts drawing it.
func (rend *OpenGLRenderer) AddNode(root *Node) {
	if root == nil {
		return
	}
	root.UpdateWorldMatrix()
	meshes := root.Meshes()
	for _, node := range meshes {
		rend.uploadModel(node.Model)
	}
	rend.roots = append(rend.roots, root)
	rend.meshes = append(rend.meshes, meshes...)
	logger.Log.Debug("Scene root added", zap.String("root", root.Name), zap.Int("meshes", len(meshes)))
}

func (rend *OpenGLRenderer) RemoveNode(root *Node) {
	for i, r := range rend.roots {
		if r == root {
			rend.roots = append(rend.roots[:i], rend.roots[i+1:]...)
			break
		}
	}
	rend.meshes = rend.meshes[:0]
	for _, r := range rend.roots {
		rend.meshes = append(rend.meshes, r.Meshes()...)
	}
}

func (rend *OpenGLRenderer) SetOverlay(overlay Overlay) {
	rend.overlay = overlay
}

func (rend *OpenGLRenderer) uploadModel(model *Model) {
	if model.uploaded {
		return
	}
	gl.GenVertexArrays(1, &model.VAO)
	gl.BindVertexArray(model.VAO)

	gl.GenBuffers(1, &model.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, model.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(model.InterleavedData)*4, gl.Ptr(model.InterleavedData), gl.STATIC_DRAW)

	gl.GenBuffers(1, &model.EBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, model.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(model.Indices)*4, gl.Ptr(model.Indices), gl.STATIC_DRAW)

	stride := int32(vertexStride * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)

	gl.VertexAttribPointer(1, 2, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(1)

	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, gl.PtrOffset(5*4))
	gl.EnableVertexAttribArray(2)

	gl.VertexAttribPointer(3, 3, gl.FLOAT, false, stride, gl.PtrOffset(8*4))
	gl.EnableVertexAttribArray(3)

	gl.BindVertexArray(0)
	model.uploaded = true
}

func (rend *OpenGLRenderer) uploadTexture(tex *Texture) {
	if tex == nil || tex.ID != 0 || tex.Image == nil {
		return
	}
	gl.GenTextures(1, &tex.ID)
	gl.BindTexture(gl.TEXTURE_2D, tex.ID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
		int32(tex.Width()), int32(tex.Height()),
		0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(tex.Image.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	rend.Textures.markUploaded()
}

// prepareMaterial uploads the textures a freshly bound material refers to.
func (rend *OpenGLRenderer) prepareMaterial(mat *Material) {
	if !mat.NeedsUpdate {
		return
	}
	for _, slot := range MapSlots() {
		rend.uploadTexture(mat.Map(slot))
	}
	mat.NeedsUpdate = false
}

func (rend *OpenGLRenderer) Render(camera *Camera, light *Light) {
	s := rend.Settings
	gl.ClearColor(s.ClearColor[0], s.ClearColor[1], s.ClearColor[2], 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if s.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthMask(true)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}
	if s.FaceCulling {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
		gl.FrontFace(gl.CCW)
	}
	if s.Wireframe {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	} else {
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}

	var frustum Frustum
	if s.FrustumCulling {
		frustum = camera.CalculateFrustum()
	}

	shader := &rend.defaultShader
	shader.Use()
	u := shader.Uniforms()
	u.SetMat4("viewProjection", camera.GetViewProjection())
	u.SetVec3("viewPos", camera.Position)
	u.SetInt("toneMapping", int32(s.ToneMapping))
	u.SetFloat("exposure", s.Exposure)
	if light != nil {
		u.SetVec3("ambientColor", light.AmbientColor.Mul(light.AmbientIntensity))
		u.SetVec3("lightDirection", light.Direction())
		u.SetVec3("lightColor", light.Color.Mul(light.Intensity))
	}
	for slot, name := range samplerNames {
		u.SetInt(name, int32(slot))
	}

	rend.transparent = rend.transparent[:0]
	for _, node := range rend.meshes {
		model := node.Model
		if s.FrustumCulling {
			center, radius := model.WorldBoundingSphere(node.world)
			if !frustum.IntersectsSphere(center, radius) {
				continue
			}
		}
		if model.Material != nil && model.Material.Transparent {
			rend.transparent = append(rend.transparent, node)
			continue
		}
		rend.drawNode(u, node)
	}

	if len(rend.transparent) > 0 {
		eye := camera.Position
		sort.SliceStable(rend.transparent, func(i, j int) bool {
			ci, _ := rend.transparent[i].Model.WorldBoundingSphere(rend.transparent[i].world)
			cj, _ := rend.transparent[j].Model.WorldBoundingSphere(rend.transparent[j].world)
			return ci.Sub(eye).LenSqr() > cj.Sub(eye).LenSqr()
		})
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
		gl.DepthMask(false)
		for _, node := range rend.transparent {
			rend.drawNode(u, node)
		}
		gl.DepthMask(true)
		gl.Disable(gl.BLEND)
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)

	rend.drawOverlay()
}

func (rend *OpenGLRenderer) drawNode(u *UniformCache, node *Node) {
	model := node.Model
	mat := model.Material
	if mat == nil {
		mat = NewMaterial("default")
		model.Material = mat
	}
	rend.prepareMaterial(mat)

	u.SetMat4("model", node.world)
	u.SetVec2("uvRepeat", mat.Repeat)
	u.SetVec3("diffuseColor", mat.DiffuseColor)
	u.SetVec3("emissiveColor", mat.EmissiveColor)
	u.SetFloat("metallic", mat.Metallic)
	u.SetFloat("roughness", mat.Roughness)
	u.SetFloat("alpha", mat.Alpha)
	u.SetFloat("alphaTest", mat.AlphaTest)
	u.SetBool("vertexColors", mat.VertexColors && model.Colors != nil)

	wrap := int32(gl.CLAMP_TO_EDGE)
	if mat.Wrap == Repeat {
		wrap = gl.REPEAT
	}
	for _, slot := range MapSlots() {
		tex := mat.Map(slot)
		has := tex != nil && tex.ID != 0
		u.SetBool(hasMapNames[slot], has)
		if !has {
			continue
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
		gl.BindTexture(gl.TEXTURE_2D, tex.ID)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	}
	gl.ActiveTexture(gl.TEXTURE0)

	gl.BindVertexArray(model.VAO)
	gl.DrawElements(gl.TRIANGLES, int32(len(model.Indices)), gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

func (rend *OpenGLRenderer) drawOverlay() {
	if rend.overlay == nil {
		return
	}
	positions, colors := rend.overlay.Triangles(int(rend.width), int(rend.height))
	if len(colors) == 0 {
		return
	}
	data := make([]float32, 0, len(colors)*3*6)
	for tri, c := range colors {
		for v := 0; v < 3; v++ {
			i := (tri*3 + v) * 2
			if i+1 >= len(positions) {
				break
			}
			data = append(data, positions[i], positions[i+1], c[0], c[1], c[2], c[3])
		}
	}

	rend.overlayShader.Use()
	rend.overlayShader.Uniforms().SetVec2("viewport", mgl32.Vec2{float32(rend.width), float32(rend.height)})
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.BindVertexArray(rend.overlayVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, rend.overlayVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STREAM_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(data)/6))
	gl.BindVertexArray(0)
	gl.Disable(gl.BLEND)
}

// UpdateViewport updates the OpenGL viewport to match the current framebuffer size
func (rend *OpenGLRenderer) UpdateViewport(width, height int32) {
	rend.width, rend.height = width, height
	gl.Viewport(0, 0, width, height)
}

func (rend *OpenGLRenderer) Cleanup() {
	for _, node := range rend.meshes {
		model := node.Model
		if !model.uploaded {
			continue
		}
		gl.DeleteVertexArrays(1, &model.VAO)
		gl.DeleteBuffers(1, &model.VBO)
		gl.DeleteBuffers(1, &model.EBO)
		model.uploaded = false
	}
	gl.DeleteVertexArrays(1, &rend.overlayVAO)
	gl.DeleteBuffers(1, &rend.overlayVBO)
	rend.Textures.Clear()
	rend.defaultShader.Delete()
	rend.overlayShader.Delete()
	rend.meshes = nil
	rend.roots = nil
}
