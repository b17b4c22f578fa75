package renderer

import "github.com/go-gl/mathgl/mgl32"

// Node is one element of a scene graph. Group nodes have a nil Model.
type Node struct {
	// HOT DATA - read by the renderer and the ground probe every frame
	Model    *Model
	world    mgl32.Mat4
	worldInv mgl32.Mat4

	// COLD DATA - local transform, changed at load time
	Position  mgl32.Vec3
	Rotation  mgl32.Quat
	Scale     mgl32.Vec3
	matrix    mgl32.Mat4
	hasMatrix bool

	Name     string
	Parent   *Node
	Children []*Node
}

func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		world:    mgl32.Ident4(),
		worldInv: mgl32.Ident4(),
	}
}

// Add attaches children, detaching them from any previous parent.
func (n *Node) Add(children ...*Node) {
	for _, child := range children {
		if child == nil || child == n {
			continue
		}
		if child.Parent != nil {
			child.Parent.Remove(child)
		}
		child.Parent = n
		n.Children = append(n.Children, child)
	}
}

func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}

func (n *Node) SetPosition(x, y, z float32) {
	n.Position = mgl32.Vec3{x, y, z}
	n.hasMatrix = false
}

func (n *Node) SetScale(x, y, z float32) {
	n.Scale = mgl32.Vec3{x, y, z}
	n.hasMatrix = false
}

// SetRotationY replaces the rotation with a turn of angle radians about +Y.
func (n *Node) SetRotationY(angle float32) {
	n.Rotation = mgl32.QuatRotate(angle, mgl32.Vec3{0, 1, 0})
	n.hasMatrix = false
}

// SetMatrix overrides the TRS fields with an explicit local matrix.
func (n *Node) SetMatrix(m mgl32.Mat4) {
	n.matrix = m
	n.hasMatrix = true
}

// LocalMatrix returns translation * rotation * scale, or the explicit matrix.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	if n.hasMatrix {
		return n.matrix
	}
	scaleMatrix := mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2])
	rotationMatrix := n.Rotation.Mat4()
	translationMatrix := mgl32.Translate3D(n.Position[0], n.Position[1], n.Position[2])
	return translationMatrix.Mul4(rotationMatrix).Mul4(scaleMatrix)
}

// UpdateWorldMatrix recomputes world matrices for n and all descendants.
func (n *Node) UpdateWorldMatrix() {
	parent := mgl32.Ident4()
	if n.Parent != nil {
		parent = n.Parent.world
	}
	n.updateWorld(parent)
}

func (n *Node) updateWorld(parent mgl32.Mat4) {
	n.world = parent.Mul4(n.LocalMatrix())
	n.worldInv = n.world.Inv()
	for _, child := range n.Children {
		child.updateWorld(n.world)
	}
}

func (n *Node) WorldMatrix() mgl32.Mat4 {
	return n.world
}

// Traverse visits n and every descendant depth first.
func (n *Node) Traverse(fn func(*Node)) {
	fn(n)
	for _, child := range n.Children {
		child.Traverse(fn)
	}
}

// Find returns the first node named name in n's subtree.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Meshes returns every drawable node in the subtree.
func (n *Node) Meshes() []*Node {
	var meshes []*Node
	n.Traverse(func(node *Node) {
		if node.Model != nil {
			meshes = append(meshes, node)
		}
	})
	return meshes
}
