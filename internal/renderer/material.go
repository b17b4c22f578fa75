package renderer

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// MapSlot names one texture input of a Material.
type MapSlot int

const (
	ColorMap MapSlot = iota
	NormalMap
	RoughnessMap
	AlphaMap
	EmissiveMap
	mapSlotCount
)

var mapSlotNames = [mapSlotCount]string{"color", "normal", "roughness", "alpha", "emissive"}

func (s MapSlot) String() string {
	if s < 0 || s >= mapSlotCount {
		return "unknown"
	}
	return mapSlotNames[s]
}

// MapSlots lists every slot in sampler-unit order.
func MapSlots() []MapSlot {
	return []MapSlot{ColorMap, NormalMap, RoughnessMap, AlphaMap, EmissiveMap}
}

type WrapMode int

const (
	ClampToEdge WrapMode = iota
	Repeat
)

func (w WrapMode) String() string {
	if w == Repeat {
		return "repeat"
	}
	return "clamp"
}

// Texture is a decoded image shared read-only by every material that uses it.
// ID is zero until the renderer uploads it.
type Texture struct {
	Name  string
	Path  string
	Image *image.RGBA
	ID    uint32
}

func (t *Texture) Width() int {
	if t == nil || t.Image == nil {
		return 0
	}
	return t.Image.Rect.Dx()
}

func (t *Texture) Height() int {
	if t == nil || t.Image == nil {
		return 0
	}
	return t.Image.Rect.Dy()
}

type Material struct {
	// HOT DATA - Accessed every render call for shading calculations
	DiffuseColor  mgl32.Vec3 // Base color, multiplied with the color map
	EmissiveColor mgl32.Vec3
	Metallic      float32 // 0.0 = dielectric, 1.0 = metallic
	Roughness     float32 // 0.0 = mirror, 1.0 = completely rough
	Alpha         float32 // Opacity multiplier
	AlphaTest     float32 // Fragments below this alpha are discarded; 0 disables
	Transparent   bool    // Drawn in the blended pass
	VertexColors  bool
	Wrap          WrapMode
	Repeat        mgl32.Vec2
	maps          [mapSlotCount]*Texture

	// COLD DATA
	Name        string
	NeedsUpdate bool // Set by mutation, cleared by the renderer after applying sampler state
	loaded      *materialValues
}

// materialValues are the scalar properties a material was loaded with.
type materialValues struct {
	diffuse, emissive    mgl32.Vec3
	metallic, roughness  float32
	alpha, alphaTest     float32
	transparent, vcolors bool
}

// NewMaterial returns a white, fully rough, opaque material with no maps.
func NewMaterial(name string) *Material {
	return &Material{
		Name:         name,
		DiffuseColor: mgl32.Vec3{1, 1, 1},
		Metallic:     0,
		Roughness:    1,
		Alpha:        1,
		Wrap:         ClampToEdge,
		Repeat:       mgl32.Vec2{1, 1},
	}
}

// ResetToLoaded restores the scalar properties the material had before it
// was first reset, recording them on the first call. Maps, wrap and repeat are
// left alone.
func (m *Material) ResetToLoaded() {
	if m.loaded == nil {
		m.loaded = &materialValues{
			diffuse:     m.DiffuseColor,
			emissive:    m.EmissiveColor,
			metallic:    m.Metallic,
			roughness:   m.Roughness,
			alpha:       m.Alpha,
			alphaTest:   m.AlphaTest,
			transparent: m.Transparent,
			vcolors:     m.VertexColors,
		}
		return
	}
	v := m.loaded
	m.DiffuseColor = v.diffuse
	m.EmissiveColor = v.emissive
	m.Metallic = v.metallic
	m.Roughness = v.roughness
	m.Alpha = v.alpha
	m.AlphaTest = v.alphaTest
	m.Transparent = v.transparent
	m.VertexColors = v.vcolors
}

func (m *Material) Map(slot MapSlot) *Texture {
	if slot < 0 || slot >= mapSlotCount {
		return nil
	}
	return m.maps[slot]
}

func (m *Material) SetMap(slot MapSlot, tex *Texture) {
	if slot < 0 || slot >= mapSlotCount {
		return
	}
	m.maps[slot] = tex
}

// ClearMaps detaches every texture.
func (m *Material) ClearMaps() {
	m.maps = [mapSlotCount]*Texture{}
}

func (m *Material) HasMaps() bool {
	for _, tex := range m.maps {
		if tex != nil {
			return true
		}
	}
	return false
}
