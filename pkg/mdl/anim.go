package mdl

import (
	"sort"
	"strings"

	"github.com/Faultbox/auroramdl/pkg/math"
)

// Animation is one named keyframe set.
type Animation struct {
	Name      string
	Length    float32
	TransTime float32
	Root      string // animroot, the local origin of the animation
	Events    []Event
	Nodes     []*Animnode
}

// Event is a named marker on the animation timeline.
type Event struct {
	Time float32
	Name string
}

// LastKeyTime returns the time of the latest keyframe over all nodes.
func (a *Animation) LastKeyTime() float32 {
	var last float32
	for _, n := range a.Nodes {
		if t := n.LastKeyTime(); t > last {
			last = t
		}
	}
	return last
}

// Node returns the animnode for a geometry node name.
func (a *Animation) Node(name string) *Animnode {
	for _, n := range a.Nodes {
		if strings.EqualFold(n.Name, name) {
			return n
		}
	}
	return nil
}

// Key is one keyframe sample.
type Key struct {
	Time   float32
	Values []float32
}

// Track is the keyframe list of one property. Bezier tracks carry the
// value followed by the in and out tangents on every key.
type Track struct {
	Bezier bool
	Keys   []Key
}

// Bucket names the property group a track is routed to.
type Bucket int

const (
	BucketObject Bucket = iota
	BucketMaterial
	BucketEmitter
)

// BucketFor returns the group a property name belongs to.
func BucketFor(prop string) Bucket {
	prop = strings.ToLower(prop)
	switch {
	case prop == "alpha":
		return BucketMaterial
	case isAnimatableEmitterProp(prop):
		return BucketEmitter
	default:
		return BucketObject
	}
}

// Animnode holds the keyframes of one node within an Animation.
type Animnode struct {
	Kind   NodeKind
	Name   string
	Parent string

	Object   map[string]*Track // position, orientation, scale, color, radius, selfillumcolor
	Material map[string]*Track // alpha
	Emitter  map[string]*Track // animatable emitter properties

	// Vertex and UV animation sampled at SamplePeriod intervals, stored
	// sample-major: all vertices of sample 0, then sample 1, and so on.
	SamplePeriod float32
	AnimVerts    []math.Vec3
	AnimTVerts   []math.Vec2
}

// NewAnimnode creates an empty animnode.
func NewAnimnode(kind NodeKind, name string) *Animnode {
	return &Animnode{
		Kind:     kind,
		Name:     name,
		Object:   make(map[string]*Track),
		Material: make(map[string]*Track),
		Emitter:  make(map[string]*Track),
	}
}

func (n *Animnode) bucket(b Bucket) map[string]*Track {
	switch b {
	case BucketMaterial:
		return n.Material
	case BucketEmitter:
		return n.Emitter
	default:
		return n.Object
	}
}

// Track returns the track for a property, if any.
func (n *Animnode) Track(prop string) *Track {
	prop = strings.ToLower(prop)
	return n.bucket(BucketFor(prop))[prop]
}

// SetTrack stores a track in the bucket its property belongs to.
func (n *Animnode) SetTrack(prop string, t *Track) {
	prop = strings.ToLower(prop)
	n.bucket(BucketFor(prop))[prop] = t
}

// Empty reports whether the node carries no animation data at all.
func (n *Animnode) Empty() bool {
	return len(n.Object) == 0 && len(n.Material) == 0 && len(n.Emitter) == 0 &&
		len(n.AnimVerts) == 0 && len(n.AnimTVerts) == 0
}

// LastKeyTime returns the time of the node's latest key or sample.
func (n *Animnode) LastKeyTime() float32 {
	var last float32
	for _, b := range []map[string]*Track{n.Object, n.Material, n.Emitter} {
		for _, t := range b {
			for _, k := range t.Keys {
				if k.Time > last {
					last = k.Time
				}
			}
		}
	}
	return last
}

// SampleCount returns the number of vertex-animation samples given the
// mesh's vertex count, or 0 when the data does not divide evenly.
func (n *Animnode) SampleCount(vertexCount int) int {
	if vertexCount <= 0 || len(n.AnimVerts)%vertexCount != 0 {
		return 0
	}
	return len(n.AnimVerts) / vertexCount
}

// PositionAt interpolates the position track at time t.
func (n *Animnode) PositionAt(t float32) (math.Vec3, bool) {
	a, b, f, ok := n.bracket("position", t)
	if !ok {
		return math.Vec3{}, false
	}
	va := [3]float32{a.value(0), a.value(1), a.value(2)}
	vb := [3]float32{b.value(0), b.value(1), b.value(2)}
	return math.V3(math.LerpVec3(va, vb, f)), true
}

// OrientationAt interpolates the orientation track at time t. Keys are
// axis-angle with the angle last.
func (n *Animnode) OrientationAt(t float32) (math.Quat, bool) {
	a, b, f, ok := n.bracket("orientation", t)
	if !ok {
		return math.QuatIdentity(), false
	}
	return a.quat().Slerp(b.quat(), f), true
}

func (k Key) value(i int) float32 {
	if i < len(k.Values) {
		return k.Values[i]
	}
	return 0
}

func (k Key) quat() math.Quat {
	return math.QuatFromAxisAngle(math.Vec3{X: k.value(0), Y: k.value(1), Z: k.value(2)}, k.value(3))
}

// bracket finds the keys around t and the blend factor between them.
func (n *Animnode) bracket(prop string, t float32) (Key, Key, float32, bool) {
	track := n.Track(prop)
	if track == nil || len(track.Keys) == 0 {
		return Key{}, Key{}, 0, false
	}
	keys := track.Keys
	if t <= keys[0].Time {
		return keys[0], keys[0], 0, true
	}
	for i := 1; i < len(keys); i++ {
		if t <= keys[i].Time {
			a, b := keys[i-1], keys[i]
			span := b.Time - a.Time
			if span <= 0 {
				return b, b, 0, true
			}
			return a, b, (t - a.Time) / span, true
		}
	}
	last := keys[len(keys)-1]
	return last, last, 0, true
}

// sortedProps returns the bucket's property names in output order.
func sortedProps(b map[string]*Track) []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
