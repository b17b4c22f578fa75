package materials

import (
	"Walkthrough3D/internal/logger"
	"Walkthrough3D/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// TextureSet holds decoded textures by catalog key. It is shared read-only
// once loaded.
type TextureSet map[string]*renderer.Texture

// Get returns the texture for key, nil when the key is empty or missing.
func (s TextureSet) Get(key string) (*renderer.Texture, bool) {
	if key == "" {
		return nil, true
	}
	tex, ok := s[key]
	return tex, ok && tex != nil
}

// Stats summarises one Bind call.
type Stats struct {
	Meshes          int
	Matched         int
	Unmatched       int
	MissingTextures int
}

// Bind dresses every drawable node under root according to table. Each
// material starts from the values it was loaded with, so the result depends
// only on table and textures: rebinding with another table gives the same
// state as binding that table first.
func Bind(root *renderer.Node, table *Table, textures TextureSet) Stats {
	var stats Stats
	if root == nil || table == nil {
		return stats
	}
	warned := map[string]bool{}
	root.Traverse(func(node *renderer.Node) {
		if node.Model == nil || node.Model.Material == nil {
			return
		}
		stats.Meshes++
		mat := node.Model.Material
		rule, ok := table.Lookup(mat.Name)
		if !ok {
			stats.Unmatched++
			applyFallback(mat, table.Fallback)
			logger.Log.Debug("No rule for material, using fallback color",
				zap.String("node", node.Name),
				zap.String("material", mat.Name))
			return
		}
		stats.Matched++
		stats.MissingTextures += applyRule(mat, rule, textures, warned)
	})
	return stats
}

func applyFallback(mat *renderer.Material, fallback Color) {
	mat.ResetToLoaded()
	mat.ClearMaps()
	mat.DiffuseColor = fallback.Linear()
	mat.Wrap = renderer.ClampToEdge
	mat.Repeat = mgl32.Vec2{1, 1}
	mat.NeedsUpdate = true
}

// applyRule returns the number of map slots whose texture was not loaded.
func applyRule(mat *renderer.Material, rule Rule, textures TextureSet, warned map[string]bool) int {
	mat.ResetToLoaded()
	missing := 0
	for _, slot := range renderer.MapSlots() {
		key := rule.MapKey(slot)
		tex, ok := textures.Get(key)
		if !ok {
			missing++
			if !warned[key] {
				warned[key] = true
				logger.Log.Warn("Texture not loaded, binding without it",
					zap.String("material", mat.Name),
					zap.String("slot", slot.String()),
					zap.String("texture", key))
			}
		}
		mat.SetMap(slot, tex)
	}

	if rule.Color != nil {
		mat.DiffuseColor = rule.Color.Linear()
	}
	if rule.Emissive != nil {
		mat.EmissiveColor = rule.Emissive.Linear()
	}
	if rule.Metalness != nil {
		mat.Metallic = *rule.Metalness
	}
	if rule.Roughness != nil {
		mat.Roughness = *rule.Roughness
	}
	if rule.Transparent != nil {
		mat.Transparent = *rule.Transparent
	}
	if rule.AlphaTest != nil {
		mat.AlphaTest = *rule.AlphaTest
	}
	if rule.VertexColors != nil {
		mat.VertexColors = *rule.VertexColors
	}
	if rule.Tileable() {
		mat.Wrap = renderer.Repeat
	} else {
		mat.Wrap = renderer.ClampToEdge
	}
	mat.Repeat = rule.RepeatFactor()
	mat.NeedsUpdate = true
	return missing
}
