package mdl

import (
	"fmt"
	"strings"

	"github.com/Faultbox/auroramdl/pkg/math"
)

// Model is a parsed ascii MDL document.
type Model struct {
	Name           string
	Supermodel     string // "" when the file says null
	AnimationScale float32
	Classification Classification

	// Nodes is in file order, parents before children. Export replays this
	// order; the engine is sensitive to sibling order.
	Nodes      []*Node
	PwkNodes   []*Node
	DwkNodes   []*Node
	Animations []*Animation

	index map[nodeKey]*Node
}

type nodeKey struct {
	parent, name string
}

func keyOf(parent, name string) nodeKey {
	return nodeKey{strings.ToLower(parent), strings.ToLower(name)}
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{
		Name:           name,
		AnimationScale: 1,
		index:          make(map[nodeKey]*Node),
	}
}

// InsertNode appends n to the geometry. Names are only unique among
// siblings, so nodes are keyed by (parent, name); a second node with the
// same key is rejected with ErrDuplicateNode.
func (m *Model) InsertNode(n *Node) error {
	if m.index == nil {
		m.reindex()
	}
	key := keyOf(n.Parent, n.Name)
	if _, exists := m.index[key]; exists {
		return fmt.Errorf("%w: %q under %q", ErrDuplicateNode, n.Name, parentLabel(n.Parent))
	}
	m.index[key] = n
	m.Nodes = append(m.Nodes, n)
	return nil
}

func (m *Model) reindex() {
	m.index = make(map[nodeKey]*Node, len(m.Nodes))
	for _, n := range m.Nodes {
		key := keyOf(n.Parent, n.Name)
		if _, exists := m.index[key]; !exists {
			m.index[key] = n
		}
	}
}

// FindNode looks a node up by parent and name, case-insensitively.
func (m *Model) FindNode(parent, name string) *Node {
	if m.index == nil {
		m.reindex()
	}
	return m.index[keyOf(parent, name)]
}

// NodeByName returns the first node in file order with the given name.
func (m *Model) NodeByName(name string) *Node {
	for _, n := range m.Nodes {
		if strings.EqualFold(n.Name, name) {
			return n
		}
	}
	return nil
}

// Children returns the nodes whose parent is name, in file order.
func (m *Model) Children(name string) []*Node {
	var children []*Node
	for _, n := range m.Nodes {
		if strings.EqualFold(n.Parent, name) {
			children = append(children, n)
		}
	}
	return children
}

// Root returns the first node without a parent.
func (m *Model) Root() *Node {
	for _, n := range m.Nodes {
		if n.Parent == "" {
			return n
		}
	}
	return nil
}

// parentOf resolves n's parent node.
func (m *Model) parentOf(n *Node) *Node {
	if n.Parent == "" {
		return nil
	}
	return m.NodeByName(n.Parent)
}

// WorldMatrix returns the node's model-space transform. A host-supplied
// World matrix wins over the local fields.
func (m *Model) WorldMatrix(n *Node) math.Mat4 {
	seen := make(map[*Node]bool)
	return m.worldMatrix(n, seen)
}

func (m *Model) worldMatrix(n *Node, seen map[*Node]bool) math.Mat4 {
	if n.World != nil {
		return *n.World
	}
	local := n.Local()
	p := m.parentOf(n)
	if p == nil || seen[n] {
		return local
	}
	seen[n] = true
	return m.worldMatrix(p, seen).Mul(local)
}

// LocalTransform derives the transform written on export: relative to the
// parent's world matrix when the host set World, the stored fields
// otherwise.
func (m *Model) LocalTransform(n *Node) (math.Vec3, [4]float32, float32) {
	if n.World == nil {
		return n.Position, n.Orientation, n.Scale
	}
	local := *n.World
	if p := m.parentOf(n); p != nil {
		local = m.WorldMatrix(p).Inverse().Mul(local)
	}
	pos, rot, scale := local.Decompose()
	axis, angle := rot.AxisAngle()
	return pos, [4]float32{axis.X, axis.Y, axis.Z, angle}, scale
}

// Animation returns the animation with the given name.
func (m *Model) Animation(name string) *Animation {
	for _, a := range m.Animations {
		if strings.EqualFold(a.Name, name) {
			return a
		}
	}
	return nil
}

// Validate reports structural inconsistencies as session warnings: parents
// that do not resolve, parent cycles, animation roots that are not model
// nodes and animation lengths shorter than their last keyframe.
func (m *Model) Validate(s *Session) {
	s = session(s)
	roots := 0
	for _, n := range m.Nodes {
		if n.Parent == "" {
			roots++
			continue
		}
		if m.parentOf(n) == nil {
			s.warnf(-1, "node %q: parent %q not found", n.Name, n.Parent)
		}
	}
	if roots > 1 {
		s.warnf(-1, "model %q has %d root nodes", m.Name, roots)
	}
	for _, n := range m.Nodes {
		if m.hasCycle(n) {
			s.warnf(-1, "node %q: parent chain forms a cycle", n.Name)
		}
	}
	for _, a := range m.Animations {
		if a.Root != "" && m.NodeByName(a.Root) == nil {
			s.warnf(-1, "animation %q: animroot %q not found", a.Name, a.Root)
		}
		if last := a.LastKeyTime(); last > a.Length+1e-4 {
			s.warnf(-1, "animation %q: length %.3f shorter than last key at %.3f", a.Name, a.Length, last)
		}
	}
}

func (m *Model) hasCycle(n *Node) bool {
	seen := map[*Node]bool{n: true}
	for p := m.parentOf(n); p != nil; p = m.parentOf(p) {
		if seen[p] {
			return true
		}
		seen[p] = true
	}
	return false
}

func parentLabel(parent string) string {
	if parent == "" {
		return "null"
	}
	return parent
}

// NodeNameOr returns the model's spelling of a node name, or name itself
// when no node matches. Empty names are written as null.
func (m *Model) NodeNameOr(name string) string {
	if name == "" {
		return "null"
	}
	if n := m.NodeByName(name); n != nil {
		return n.Name
	}
	return name
}
