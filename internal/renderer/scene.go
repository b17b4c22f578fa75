package renderer

import "sync"

// Scene is the set of live roots the ground probe intersects against. Roots
// are added on the render thread once their asset has been bound.
type Scene struct {
	mu    sync.RWMutex
	roots []*Node
}

func NewScene() *Scene {
	return &Scene{}
}

// Add attaches root and refreshes its world matrices.
func (s *Scene) Add(root *Node) {
	if root == nil {
		return
	}
	root.UpdateWorldMatrix()
	s.mu.Lock()
	s.roots = append(s.roots, root)
	s.mu.Unlock()
}

func (s *Scene) Remove(root *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.roots {
		if r == root {
			s.roots = append(s.roots[:i], s.roots[i+1:]...)
			return
		}
	}
}

// Roots returns a snapshot of the attached roots.
func (s *Scene) Roots() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Node(nil), s.roots...)
}

func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roots)
}

// Raycast returns the nearest intersection across every drawable node of
// every root. Triangles are hit from either side, unlike a front-face-only
// raycast, so ground meshes with inverted winding still catch the ground ray.
func (s *Scene) Raycast(ray Ray) (Hit, bool) {
	var best Hit
	found := false
	for _, root := range s.Roots() {
		root.Traverse(func(node *Node) {
			if node.Model == nil {
				return
			}
			if ok, t, point := RayIntersectNode(ray, node); ok && (!found || t < best.Distance) {
				best = Hit{Point: point, Distance: t, Node: node}
				found = true
			}
		})
	}
	return best, found
}
