package mdl

import (
	"fmt"

	"github.com/Faultbox/auroramdl/pkg/math"
)

// MaxAABBDepth caps the recursion of the AABB builder.
const MaxAABBDepth = 256

// AABBFace is one walkmesh triangle fed to the builder.
type AABBFace struct {
	Index    int
	Verts    [3]math.Vec3
	Centroid math.Vec3
}

// AABBNode is one row of the tree: a bounding box and the face index for
// leaves, -1 for internal nodes.
type AABBNode struct {
	Min, Max math.Vec3
	Face     int
}

// AABBFaces builds builder input from a triangle list. Faces referencing
// missing vertices are skipped; Index keeps the position in faces.
func AABBFaces(verts []math.Vec3, faces []Face) []AABBFace {
	out := make([]AABBFace, 0, len(faces))
	for i, f := range faces {
		if !indicesInRange(f.Verts[:], len(verts)) {
			continue
		}
		af := AABBFace{Index: i}
		for j, vi := range f.Verts {
			af.Verts[j] = verts[vi]
		}
		af.Centroid = af.Verts[0].Add(af.Verts[1]).Add(af.Verts[2]).Scale(1.0 / 3)
		out = append(out, af)
	}
	return out
}

// BuildAABB partitions faces into a bounding volume tree, returned in
// pre-order with the root first. Degenerate splits and runaway depth abort
// their branch and are reported as warnings.
func BuildAABB(faces []AABBFace) ([]AABBNode, []string) {
	b := &aabbBuilder{}
	b.build(faces, 0)
	return b.nodes, b.warnings
}

type aabbBuilder struct {
	nodes    []AABBNode
	warnings []string
}

func (b *aabbBuilder) build(faces []AABBFace, depth int) {
	if len(faces) == 0 {
		return
	}
	if depth > MaxAABBDepth {
		b.warnings = append(b.warnings, fmt.Sprintf("aabb: depth limit %d reached with %d faces", MaxAABBDepth, len(faces)))
		return
	}

	bbMin, bbMax := faces[0].Verts[0], faces[0].Verts[0]
	var mean [3]float64
	for _, f := range faces {
		for _, v := range f.Verts {
			bbMin = bbMin.Min(v)
			bbMax = bbMax.Max(v)
		}
		for axis := 0; axis < 3; axis++ {
			mean[axis] += float64(f.Centroid.Axis(axis))
		}
	}
	for axis := range mean {
		mean[axis] /= float64(len(faces))
	}

	if len(faces) == 1 {
		b.nodes = append(b.nodes, AABBNode{Min: bbMin, Max: bbMax, Face: faces[0].Index})
		return
	}
	b.nodes = append(b.nodes, AABBNode{Min: bbMin, Max: bbMax, Face: -1})

	size := bbMax.Sub(bbMin)
	axis := 0
	if size.Y > size.Axis(axis) {
		axis = 1
	}
	if size.Z > size.Axis(axis) {
		axis = 2
	}

	var left, right []AABBFace
	for try := 0; try < 3; try++ {
		left, right = left[:0], right[:0]
		for _, f := range faces {
			// Ties go right
			if float64(f.Centroid.Axis(axis)) >= mean[axis] {
				right = append(right, f)
			} else {
				left = append(left, f)
			}
		}
		if len(left) > 0 && len(right) > 0 {
			break
		}
		axis = (axis + 1) % 3
	}
	if len(left) == 0 || len(right) == 0 {
		b.warnings = append(b.warnings, fmt.Sprintf("aabb: cannot split %d faces with coincident centroids", len(faces)))
		return
	}

	b.build(left, depth+1)
	b.build(right, depth+1)
}
