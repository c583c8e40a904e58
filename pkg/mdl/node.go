package mdl

import (
	"strings"

	"github.com/Faultbox/auroramdl/pkg/math"
)

// TextureSlots is the number of texture slots a material can address.
const TextureSlots = 15

// Node is one geometry element. Kind selects which payload pointers are set:
// mesh kinds carry Mesh, Danglymesh adds Dangly, Skinmesh adds Skin, and so
// on. Payloads not belonging to the kind are nil.
type Node struct {
	Kind        NodeKind
	Name        string
	Parent      string     // lower-cased parent name, "" for the root
	Position    math.Vec3  // relative to the parent
	Orientation [4]float32 // axis x, y, z and angle in radians
	Scale       float32
	WireColor   [3]float32
	Index       int // position in the source file

	// World, when set by the host, overrides the local transform fields
	// on export: the local transform is derived from it and the parent's
	// world matrix.
	World *math.Mat4

	Mesh      *Mesh
	Dangly    *Dangly
	Skin      *Skin
	Emitter   *Emitter
	Light     *Light
	Reference *Reference
}

// NewNode returns a node of the given kind with its payloads initialized to
// their defaults.
func NewNode(kind NodeKind, name string) *Node {
	n := &Node{
		Kind:      kind,
		Name:      name,
		Scale:     1,
		WireColor: [3]float32{1, 1, 1},
	}
	if kind.HasMesh() {
		n.Mesh = newMesh()
	}
	switch kind {
	case KindDanglymesh:
		n.Dangly = &Dangly{Period: 1, Tightness: 1, Displacement: 0.5, ConstraintGroup: ConstraintGroup}
	case KindSkinmesh:
		n.Skin = &Skin{}
	case KindEmitter:
		n.Emitter = newEmitter()
	case KindLight:
		n.Light = &Light{Radius: 14, Multiplier: 1, Color: [3]float32{1, 1, 1}}
	case KindReference:
		n.Reference = &Reference{}
	}
	return n
}

// Rotation returns the node's orientation as a quaternion.
func (n *Node) Rotation() math.Quat {
	o := n.Orientation
	return math.QuatFromAxisAngle(math.Vec3{X: o[0], Y: o[1], Z: o[2]}, o[3])
}

// SetRotation stores q as axis-angle orientation.
func (n *Node) SetRotation(q math.Quat) {
	axis, angle := q.AxisAngle()
	n.Orientation = [4]float32{axis.X, axis.Y, axis.Z, angle}
}

// Local returns the node's transform relative to its parent.
func (n *Node) Local() math.Mat4 {
	return math.Compose(n.Position, n.Rotation(), n.Scale)
}

// Material holds the inline material of a mesh node.
type Material struct {
	Ambient     [3]float32
	Diffuse     [3]float32
	Specular    [3]float32
	SelfIllum   [3]float32
	Alpha       float32
	Textures    [TextureSlots]string
	RenderHints []string

	// Name references an external MTR file; Mtr is filled from the session
	// cache when the file could be found.
	Name string
	Mtr  *Mtr
}

// Effective returns the material with the MTR overrides applied.
func (m Material) Effective() Material {
	if m.Mtr == nil {
		return m
	}
	out := m
	for i, tex := range m.Mtr.Textures {
		if tex != "" {
			out.Textures[i] = tex
		}
	}
	if len(m.Mtr.RenderHints) > 0 {
		out.RenderHints = append([]string(nil), m.Mtr.RenderHints...)
	}
	if c, ok := m.Mtr.Colors["diffuse"]; ok && len(c) >= 3 {
		copy(out.Diffuse[:], c)
	}
	if c, ok := m.Mtr.Colors["specular"]; ok && len(c) >= 3 {
		copy(out.Specular[:], c)
	}
	if c, ok := m.Mtr.Colors["selfillumcolor"]; ok && len(c) >= 3 {
		copy(out.SelfIllum[:], c)
	}
	return out
}

// Face is one triangle. UV indexes every exported UV layer; the format
// stores a single set of texture indices per face.
type Face struct {
	Verts       [3]int
	SmoothGroup int
	UV          [3]int
	Material    int
}

// UVLayer is one named set of texture coordinates.
type UVLayer struct {
	Name   string
	Coords []math.Vec2
}

// Edge is an undirected vertex pair with the smaller index first.
type Edge [2]int

// MakeEdge orders a and b.
func MakeEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{a, b}
}

// Mesh is the payload shared by every mesh kind.
type Mesh struct {
	Render           bool
	Shadow           bool
	Beaming          bool
	TileFade         int
	TransparencyHint int
	Shininess        float32
	RotateTexture    bool
	Lightmapped      bool
	InheritColor     bool
	Material         Material

	Verts    []math.Vec3
	Faces    []Face
	UVLayers []UVLayer
	ActiveUV int
	Normals  []math.Vec3
	Tangents [][4]float32
	Colors   [][3]float32

	// VertexGroups holds named per-vertex weights, such as danglymesh
	// constraints.
	VertexGroups map[string][]float32

	// SharpEdges marks edges that split smoothing groups when groups are
	// computed on export.
	SharpEdges map[Edge]bool
}

func newMesh() *Mesh {
	return &Mesh{
		Render:    true,
		Shadow:    true,
		Shininess: 1,
		Material: Material{
			Ambient: [3]float32{1, 1, 1},
			Diffuse: [3]float32{1, 1, 1},
			Alpha:   1,
		},
		VertexGroups: make(map[string][]float32),
	}
}

// UVLayer returns the layer with the given name.
func (m *Mesh) UVLayer(name string) *UVLayer {
	for i := range m.UVLayers {
		if strings.EqualFold(m.UVLayers[i].Name, name) {
			return &m.UVLayers[i]
		}
	}
	return nil
}

// ConstraintGroup is the default vertex group holding danglymesh constraints.
const ConstraintGroup = "constraints"

// Dangly is the danglymesh payload. Constraint weights (0..255) live in the
// mesh vertex group named by ConstraintGroup.
type Dangly struct {
	Period          float32
	Tightness       float32
	Displacement    float32
	ConstraintGroup string
}

// BoneWeight binds a vertex to a bone node.
type BoneWeight struct {
	Bone   string
	Weight float32
}

// Skin is the skinmesh payload: one weight list per vertex.
type Skin struct {
	Weights [][]BoneWeight
}

// Flare is one lens flare element of a light.
type Flare struct {
	Texture    string
	Size       float32
	Position   float32
	ColorShift [3]float32
}

// Light is the light payload.
type Light struct {
	Radius        float32
	Multiplier    float32
	Color         [3]float32
	AmbientOnly   bool
	Dynamic       bool
	AffectDynamic bool
	Shadow        bool
	Negative      bool
	Fading        bool
	Priority      int
	FlareRadius   float32
	LensFlares    bool
	Flares        []Flare
}

// Reference is the payload of a reference node, which attaches another
// model at runtime.
type Reference struct {
	RefModel     string
	Reattachable bool
}
