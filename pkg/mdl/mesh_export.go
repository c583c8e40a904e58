package mdl

import (
	"sort"
	"strings"

	"github.com/Faultbox/auroramdl/pkg/math"
)

const (
	// MaxBoneWeights is the number of bones a vertex may be bound to.
	MaxBoneWeights = 4
	minBoneWeight  = 1e-3
	weightUnits    = 100000

	degenerateUVArea = 1e-9
	uvPatchOffset    = 0.001
)

// exportMesh is a mesh in the shape it is written: faces validated, UV
// layers selected and patched, smoothing groups resolved.
type exportMesh struct {
	verts  []math.Vec3
	faces  []Face
	layers []UVLayer
}

func prepareMesh(n *Node, s *Session) exportMesh {
	m := n.Mesh
	out := exportMesh{verts: m.Verts}
	for i, f := range m.Faces {
		if !indicesInRange(f.Verts[:], len(m.Verts)) {
			s.warnf(-1, "node %q: face %d references a missing vertex, dropped", n.Name, i)
			continue
		}
		out.faces = append(out.faces, f)
	}

	out.layers = selectUVLayers(m, s.Options.UVMode)
	if len(out.layers) > MaxUVLayers {
		s.warnf(-1, "node %q: %d uv layers, writing the first %d", n.Name, len(out.layers), MaxUVLayers)
		out.layers = out.layers[:MaxUVLayers]
	}
	shortest := 0
	if len(out.layers) > 0 {
		shortest = len(out.layers[0].Coords)
		for _, l := range out.layers[1:] {
			shortest = min(shortest, len(l.Coords))
		}
	}
	if shortest == 0 {
		out.layers = nil
		for i := range out.faces {
			out.faces[i].UV = [3]int{}
		}
	} else {
		for i := range out.faces {
			if !indicesInRange(out.faces[i].UV[:], shortest) {
				s.warnf(-1, "node %q: face %d references a missing uv, reset to 0", n.Name, i)
				out.faces[i].UV = [3]int{}
			}
		}
		patchDegenerateUVs(out.faces, out.layers)
		if len(out.layers) == 1 && s.Options.MergeUVs {
			mergeUVs(out.faces, &out.layers[0])
		}
	}

	mode := s.Options.Smoothing
	if n.Kind == KindAabb {
		mode = SmoothSeparate
	}
	applySmoothing(out.faces, m.SharpEdges, mode)
	return out
}

func indicesInRange(idx []int, n int) bool {
	for _, i := range idx {
		if i < 0 || i >= n {
			return false
		}
	}
	return true
}

// selectUVLayers returns copies of the layers to write, in output order.
func selectUVLayers(m *Mesh, mode UVMode) []UVLayer {
	if len(m.UVLayers) == 0 {
		return nil
	}
	active := m.ActiveUV
	if active < 0 || active >= len(m.UVLayers) {
		active = 0
	}
	var picked []UVLayer
	switch mode {
	case UVAlphabetical:
		picked = append(picked, m.UVLayers...)
		sortLayers(picked)
	case UVActiveFirst:
		picked = append(picked, m.UVLayers[active])
		rest := make([]UVLayer, 0, len(m.UVLayers)-1)
		for i, l := range m.UVLayers {
			if i != active {
				rest = append(rest, l)
			}
		}
		sortLayers(rest)
		picked = append(picked, rest...)
	default:
		picked = []UVLayer{m.UVLayers[active]}
	}
	for i := range picked {
		picked[i].Coords = append([]math.Vec2(nil), picked[i].Coords...)
	}
	return picked
}

func sortLayers(layers []UVLayer) {
	sort.SliceStable(layers, func(i, j int) bool {
		return strings.ToLower(layers[i].Name) < strings.ToLower(layers[j].Name)
	})
}

// quantize rounds to the precision values are written with, so decisions
// taken on export hold again when the written file is read back.
func quantize(v math.Vec2) math.Vec2 {
	return math.Vec2{X: ToFloat(formatFloat(v.X)), Y: ToFloat(formatFloat(v.Y))}
}

// patchDegenerateUVs gives zero-area UV triangles of the first layer three
// fresh coordinates spread around the original corner. Every layer gets the
// new entries so face indices stay shared.
func patchDegenerateUVs(faces []Face, layers []UVLayer) {
	base := &layers[0]
	offsets := [3]math.Vec2{{}, {X: uvPatchOffset}, {Y: uvPatchOffset}}
	for i := range faces {
		f := &faces[i]
		a, b, c := quantize(base.Coords[f.UV[0]]), quantize(base.Coords[f.UV[1]]), quantize(base.Coords[f.UV[2]])
		if math.TriangleArea(a, b, c) >= degenerateUVArea {
			continue
		}
		corners := f.UV
		for j := range f.UV {
			f.UV[j] = len(base.Coords)
			for l := range layers {
				uv := layers[l].Coords[corners[j]]
				if l == 0 {
					uv = a.Add(offsets[j])
				}
				layers[l].Coords = append(layers[l].Coords, uv)
			}
		}
	}
}

// mergeUVs collapses coordinates that write identically. New indices are
// assigned in order of first use over the face corners.
func mergeUVs(faces []Face, layer *UVLayer) {
	remap := make(map[string]int)
	var merged []math.Vec2
	for i := range faces {
		for j, old := range faces[i].UV {
			uv := layer.Coords[old]
			key := formatFloat(uv.X) + " " + formatFloat(uv.Y)
			idx, ok := remap[key]
			if !ok {
				idx = len(merged)
				remap[key] = idx
				merged = append(merged, uv)
			}
			faces[i].UV[j] = idx
		}
	}
	layer.Coords = merged
}

func applySmoothing(faces []Face, sharp map[Edge]bool, mode SmoothMode) {
	switch mode {
	case SmoothSeparate:
		for i := range faces {
			faces[i].SmoothGroup = 0
		}
	case SmoothSingle:
		for i := range faces {
			faces[i].SmoothGroup = 1
		}
	case SmoothAuto:
		autoSmooth(faces, sharp)
	}
}

// autoSmooth finds the face regions bounded by sharp edges and colors the
// region adjacency graph greedily so touching regions never share a group.
// Group numbers are bit flags, 1 << color.
func autoSmooth(faces []Face, sharp map[Edge]bool) {
	edgeFaces := make(map[Edge][]int)
	for i, f := range faces {
		for j := 0; j < 3; j++ {
			e := MakeEdge(f.Verts[j], f.Verts[(j+1)%3])
			edgeFaces[e] = append(edgeFaces[e], i)
		}
	}

	region := make([]int, len(faces))
	for i := range region {
		region[i] = -1
	}
	regions := 0
	for start := range faces {
		if region[start] >= 0 {
			continue
		}
		stack := []int{start}
		region[start] = regions
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			f := faces[i]
			for j := 0; j < 3; j++ {
				e := MakeEdge(f.Verts[j], f.Verts[(j+1)%3])
				if sharp[e] {
					continue
				}
				for _, other := range edgeFaces[e] {
					if region[other] < 0 {
						region[other] = regions
						stack = append(stack, other)
					}
				}
			}
		}
		regions++
	}

	// Regions touching at a sharp edge or a shared vertex are adjacent.
	adjacent := make([]map[int]bool, regions)
	for i := range adjacent {
		adjacent[i] = make(map[int]bool)
	}
	vertRegions := make(map[int][]int)
	for i, f := range faces {
		for _, v := range f.Verts {
			vertRegions[v] = append(vertRegions[v], region[i])
		}
	}
	for _, rs := range vertRegions {
		for _, a := range rs {
			for _, b := range rs {
				if a != b {
					adjacent[a][b] = true
				}
			}
		}
	}

	color := make([]int, regions)
	for r := 0; r < regions; r++ {
		used := make(map[int]bool)
		for other := range adjacent[r] {
			if other < r {
				used[color[other]] = true
			}
		}
		c := 0
		for used[c] {
			c++
		}
		// Groups are a 32 bit mask; wrap when the graph needs more colors.
		color[r] = c % 32
	}
	for i := range faces {
		faces[i].SmoothGroup = 1 << color[region[i]]
	}
}

// SkinWeights returns the weights written for one vertex: bones that name a
// model node, strongest first, at most MaxBoneWeights of them, normalized to
// sum to 1. The result is nil when no usable weight is left.
func SkinWeights(weights []BoneWeight, m *Model) []BoneWeight {
	var kept []BoneWeight
	for _, w := range weights {
		if w.Weight <= 0 || m.NodeByName(w.Bone) == nil {
			continue
		}
		kept = append(kept, w)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Weight > kept[j].Weight })
	for len(kept) > 0 && kept[len(kept)-1].Weight < minBoneWeight {
		kept = kept[:len(kept)-1]
	}
	if len(kept) > MaxBoneWeights {
		kept = kept[:MaxBoneWeights]
	}
	var sum float32
	for _, w := range kept {
		sum += w.Weight
	}
	if sum <= 0 {
		return nil
	}
	for i := range kept {
		kept[i].Weight /= sum
	}
	return kept
}

// weightUnitsOf splits weights into integer parts of 1/weightUnits that add
// up to exactly one, so the written values sum to 1.
func weightUnitsOf(weights []BoneWeight) []int {
	units := make([]int, len(weights))
	rest := weightUnits
	for i := 0; i < len(weights)-1; i++ {
		units[i] = int(weights[i].Weight*weightUnits + 0.5)
		rest -= units[i]
	}
	if len(weights) > 0 {
		units[len(weights)-1] = rest
	}
	return units
}
