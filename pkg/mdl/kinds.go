package mdl

import (
	"fmt"
	"strings"
)

// Classification is the model's game category.
type Classification int

const (
	ClassUnknown Classification = iota
	ClassTile
	ClassCharacter
	ClassDoor
	ClassEffect
	ClassGUI
	ClassItem
	ClassOther
)

var classNames = [...]string{"unknown", "tile", "character", "door", "effect", "gui", "item", "other"}

// String returns the keyword written after "classification".
func (c Classification) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return fmt.Sprintf("Classification(%d)", int(c))
	}
	return classNames[c]
}

// ParseClassification maps a keyword to a Classification.
func ParseClassification(s string) (Classification, bool) {
	s = strings.ToLower(s)
	for i, name := range classNames {
		if name == s {
			return Classification(i), true
		}
	}
	return ClassUnknown, false
}

// NodeKind tags the variant of a geometry node.
type NodeKind int

const (
	KindDummy NodeKind = iota
	KindPatch
	KindReference
	KindTrimesh
	KindAnimmesh
	KindDanglymesh
	KindSkinmesh
	KindEmitter
	KindLight
	KindAabb
)

var kindNames = [...]string{"dummy", "patch", "reference", "trimesh", "animmesh", "danglymesh", "skin", "emitter", "light", "aabb"}

// String returns the keyword written after "node".
func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseNodeKind maps a node keyword to its kind. "skinmesh" is accepted as
// an alias of "skin".
func ParseNodeKind(s string) (NodeKind, error) {
	s = strings.ToLower(s)
	if s == "skinmesh" {
		return KindSkinmesh, nil
	}
	for i, name := range kindNames {
		if name == s {
			return NodeKind(i), nil
		}
	}
	return KindDummy, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// HasMesh reports whether nodes of this kind carry a mesh payload.
func (k NodeKind) HasMesh() bool {
	switch k {
	case KindTrimesh, KindAnimmesh, KindDanglymesh, KindSkinmesh, KindAabb:
		return true
	}
	return false
}
