package materials

import (
	"Walkthrough3D/internal/renderer"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meshNode(name, material string) *renderer.Node {
	node := renderer.NewNode(name)
	node.Model = renderer.CreateModel(name,
		[]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}}, nil, nil, []uint32{0, 1, 2})
	node.Model.Material = renderer.NewMaterial(material)
	return node
}

func fullTextureSet(table *Table) TextureSet {
	set := TextureSet{}
	for key, file := range table.Textures {
		set[key] = &renderer.Texture{Name: key, Path: file}
	}
	return set
}

func sceneFor(materials ...string) *renderer.Node {
	root := renderer.NewNode("root")
	group := renderer.NewNode("group")
	root.Add(group)
	for _, m := range materials {
		group.Add(meshNode("mesh-"+m, m))
	}
	return root
}

func materialOf(t *testing.T, root *renderer.Node, name string) *renderer.Material {
	t.Helper()
	node := root.Find("mesh-" + name)
	require.NotNil(t, node)
	return node.Model.Material
}

func TestBindMatchedRulesSetExactMaps(t *testing.T) {
	table := DefaultTable()
	textures := fullTextureSet(table)
	root := sceneFor(table.Names()...)

	stats := Bind(root, table, textures)

	assert.Equal(t, len(table.Rules), stats.Matched)
	assert.Equal(t, 0, stats.Unmatched)
	assert.Equal(t, 0, stats.MissingTextures)
	for name, rule := range table.Rules {
		mat := materialOf(t, root, name)
		for _, slot := range renderer.MapSlots() {
			key := rule.MapKey(slot)
			if key == "" {
				assert.Nil(t, mat.Map(slot), "%s %s", name, slot)
				continue
			}
			assert.Same(t, textures[key], mat.Map(slot), "%s %s", name, slot)
		}
		assert.True(t, mat.NeedsUpdate, name)
	}
}

func TestBindAppliesOverrides(t *testing.T) {
	table := DefaultTable()
	root := sceneFor("NewTree_Plane2", "Grama", "Material.011", "Terra")

	Bind(root, table, fullTextureSet(table))

	lemon := materialOf(t, root, "NewTree_Plane2")
	assert.Equal(t, float32(0), lemon.Metallic)
	assert.Equal(t, float32(0), lemon.Roughness)
	assert.Equal(t, float32(0.8), lemon.AlphaTest)
	assert.True(t, lemon.Transparent)
	assert.Equal(t, ColorFromHex(0x072406).Linear(), lemon.EmissiveColor)

	grama := materialOf(t, root, "Grama")
	assert.Equal(t, renderer.Repeat, grama.Wrap)
	assert.Equal(t, mgl32.Vec2{1, -1}, grama.Repeat)
	assert.False(t, grama.VertexColors)
	assert.Equal(t, ColorFromHex(0xe8d2b3).Linear(), grama.DiffuseColor)

	bricks := materialOf(t, root, "Material.011")
	assert.Equal(t, renderer.ClampToEdge, bricks.Wrap)
	assert.Equal(t, mgl32.Vec2{1, 1}, bricks.Repeat)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, bricks.DiffuseColor, "no color in rule keeps the asset color")

	terra := materialOf(t, root, "Terra")
	assert.Equal(t, ColorFromHex(0xcea169).Linear(), terra.DiffuseColor)
	assert.Nil(t, terra.Map(renderer.AlphaMap))
}

func TestBindUnmatchedGetsFallback(t *testing.T) {
	table := DefaultTable()
	root := sceneFor("Material.999")
	mat := materialOf(t, root, "Material.999")
	mat.SetMap(renderer.ColorMap, &renderer.Texture{Name: "embedded"})
	mat.Wrap = renderer.Repeat

	stats := Bind(root, table, fullTextureSet(table))

	assert.Equal(t, 1, stats.Unmatched)
	assert.False(t, mat.HasMaps())
	assert.Equal(t, DefaultFallback.Linear(), mat.DiffuseColor)
	assert.Equal(t, renderer.ClampToEdge, mat.Wrap)
	assert.True(t, mat.NeedsUpdate)
}

func TestBindIsIdempotent(t *testing.T) {
	table := DefaultTable()
	textures := fullTextureSet(table)
	names := append(table.Names(), "unknown", "Material.999")
	root := sceneFor(names...)

	Bind(root, table, textures)
	first := map[string]renderer.Material{}
	for _, n := range names {
		first[n] = *materialOf(t, root, n)
	}

	Bind(root, table, textures)

	for _, n := range names {
		assert.Equal(t, first[n], *materialOf(t, root, n), n)
	}
}

func TestBindMissingTexturesBindNil(t *testing.T) {
	table := DefaultTable()
	textures := fullTextureSet(table)
	delete(textures, "bricksNormal")
	root := sceneFor("Material.011", "Material.011")

	stats := Bind(root, table, textures)

	assert.Equal(t, 2, stats.MissingTextures)
	mat := materialOf(t, root, "Material.011")
	assert.Nil(t, mat.Map(renderer.NormalMap))
	assert.NotNil(t, mat.Map(renderer.ColorMap))
}

func TestBindSharedMaterial(t *testing.T) {
	table := DefaultTable()
	shared := renderer.NewMaterial("bark")
	a, b := meshNode("a", "bark"), meshNode("b", "bark")
	a.Model.Material, b.Model.Material = shared, shared
	root := renderer.NewNode("root")
	root.Add(a, b)

	stats := Bind(root, table, fullTextureSet(table))

	assert.Equal(t, 2, stats.Meshes)
	assert.NotNil(t, shared.Map(renderer.ColorMap))
}

func TestBindSkipsNodesWithoutMaterial(t *testing.T) {
	root := renderer.NewNode("root")
	bare := meshNode("bare", "x")
	bare.Model.Material = nil
	root.Add(bare, renderer.NewNode("empty"))

	stats := Bind(root, DefaultTable(), nil)

	assert.Equal(t, 0, stats.Meshes)
	assert.Equal(t, Stats{}, Bind(nil, DefaultTable(), nil))
}

func TestRebindMatchesFreshBind(t *testing.T) {
	red := ColorFromHex(0xff0000)
	yes := true
	tableA := &Table{
		Fallback: DefaultFallback,
		Rules:    map[string]Rule{"bark": {Color: &red, Transparent: &yes}},
	}
	tableB := &Table{
		Fallback: DefaultFallback,
		Rules:    map[string]Rule{"bark": {}, "other": {}},
	}

	reloaded := sceneFor("bark", "other")
	Bind(reloaded, DefaultTable(), TextureSet{})
	Bind(reloaded, tableA, TextureSet{})
	Bind(reloaded, tableB, TextureSet{})

	fresh := sceneFor("bark", "other")
	Bind(fresh, tableB, TextureSet{})

	for _, name := range []string{"bark", "other"} {
		got, want := materialOf(t, reloaded, name), materialOf(t, fresh, name)
		assert.Equal(t, want.DiffuseColor, got.DiffuseColor, name)
		assert.Equal(t, want.Transparent, got.Transparent, name)
		assert.Equal(t, want.Wrap, got.Wrap, name)
		assert.Equal(t, want.Repeat, got.Repeat, name)
		assert.Equal(t, mgl32.Vec3{1, 1, 1}, got.DiffuseColor, name)
		assert.False(t, got.Transparent, name)
	}
}

func TestRebindKeepsLoadedValues(t *testing.T) {
	root := sceneFor("leaf")
	mat := materialOf(t, root, "leaf")
	mat.DiffuseColor = mgl32.Vec3{0.2, 0.4, 0.6}
	mat.AlphaTest = 0.5
	mat.VertexColors = true

	half := float32(0.5)
	Bind(root, &Table{Fallback: DefaultFallback, Rules: map[string]Rule{
		"leaf": {Roughness: &half, VertexColors: new(bool)},
	}}, TextureSet{})
	assert.Equal(t, float32(0.5), mat.Roughness)
	assert.False(t, mat.VertexColors)

	Bind(root, &Table{Fallback: DefaultFallback, Rules: map[string]Rule{}}, TextureSet{})
	assert.Equal(t, DefaultFallback.Linear(), mat.DiffuseColor)

	Bind(root, &Table{Fallback: DefaultFallback, Rules: map[string]Rule{"leaf": {}}}, TextureSet{})
	assert.Equal(t, mgl32.Vec3{0.2, 0.4, 0.6}, mat.DiffuseColor)
	assert.Equal(t, float32(1), mat.Roughness)
	assert.Equal(t, float32(0.5), mat.AlphaTest)
	assert.True(t, mat.VertexColors)
}
