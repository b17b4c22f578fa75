package materials

import (
	"Walkthrough3D/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
)

// Rule describes how one named material is dressed. Map fields hold texture
// catalog keys; nil optional fields keep the value the asset was loaded with.
type Rule struct {
	ColorMap     string `yaml:"color_map,omitempty"`
	NormalMap    string `yaml:"normal_map,omitempty"`
	RoughnessMap string `yaml:"roughness_map,omitempty"`
	AlphaMap     string `yaml:"alpha_map,omitempty"`
	EmissiveMap  string `yaml:"emissive_map,omitempty"`

	Color        *Color   `yaml:"color,omitempty"`
	Emissive     *Color   `yaml:"emissive,omitempty"`
	Metalness    *float32 `yaml:"metalness,omitempty"`
	Roughness    *float32 `yaml:"roughness,omitempty"`
	Transparent  *bool    `yaml:"transparent,omitempty"`
	AlphaTest    *float32 `yaml:"alpha_test,omitempty"`
	VertexColors *bool    `yaml:"vertex_colors,omitempty"`

	// Repeat marks the textures tileable with the given UV repeat factor.
	Repeat *[2]float32 `yaml:"repeat,omitempty,flow"`
}

// MapKey returns the texture key the rule assigns to slot, or "".
func (r Rule) MapKey(slot renderer.MapSlot) string {
	switch slot {
	case renderer.ColorMap:
		return r.ColorMap
	case renderer.NormalMap:
		return r.NormalMap
	case renderer.RoughnessMap:
		return r.RoughnessMap
	case renderer.AlphaMap:
		return r.AlphaMap
	case renderer.EmissiveMap:
		return r.EmissiveMap
	}
	return ""
}

// TextureKeys lists the non-empty map keys of the rule.
func (r Rule) TextureKeys() []string {
	var keys []string
	for _, slot := range renderer.MapSlots() {
		if key := r.MapKey(slot); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func (r Rule) Tileable() bool {
	return r.Repeat != nil
}

// RepeatFactor returns the UV repeat, (1, 1) for non-tileable rules.
func (r Rule) RepeatFactor() mgl32.Vec2 {
	if r.Repeat == nil {
		return mgl32.Vec2{1, 1}
	}
	return mgl32.Vec2{r.Repeat[0], r.Repeat[1]}
}
