package mdl

import (
	"fmt"
	"strings"
	"time"
)

// UVMode selects which UV layers are exported.
type UVMode int

const (
	UVActive      UVMode = iota // the active layer only
	UVAlphabetical              // all layers sorted by name
	UVActiveFirst               // active layer, then the rest by name
)

// MaxUVLayers is the most UV layers a mesh node can carry.
const MaxUVLayers = 3

// SmoothMode selects how face smoothing groups are written.
type SmoothMode int

const (
	SmoothDirect   SmoothMode = iota // keep each face's stored group
	SmoothSeparate                   // every face 0, flat shaded
	SmoothSingle                     // every face in group 1
	SmoothAuto                       // computed from the mesh's sharp edges
)

var (
	uvModeNames     = []string{"active", "alphabetical", "activefirst"}
	smoothModeNames = []string{"direct", "separate", "single", "auto"}
)

func (m UVMode) String() string     { return enumName(uvModeNames, int(m)) }
func (m SmoothMode) String() string { return enumName(smoothModeNames, int(m)) }

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("mode(%d)", i)
	}
	return names[i]
}

// ParseUVMode maps a configuration keyword to a UVMode.
func ParseUVMode(s string) (UVMode, error) {
	i, err := enumIndex(uvModeNames, s)
	return UVMode(i), err
}

// ParseSmoothMode maps a configuration keyword to a SmoothMode.
func ParseSmoothMode(s string) (SmoothMode, error) {
	i, err := enumIndex(smoothModeNames, s)
	return SmoothMode(i), err
}

func enumIndex(names []string, s string) (int, error) {
	s = strings.ToLower(strings.ReplaceAll(s, "_", ""))
	for i, name := range names {
		if name == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q (want one of %s)", s, strings.Join(names, ", "))
}

// Options controls serialization.
type Options struct {
	// Metadata writes the leading comment block and filedependancy line.
	Metadata bool
	Tool     string
	Version  string
	Source   string
	Now      func() time.Time

	UVMode         UVMode
	MergeUVs       bool
	Smoothing      SmoothMode
	ExportNormals  bool
	ExportTangents bool
	ExportColors   bool

	// DefaultAnimation is written before all other animations.
	DefaultAnimation string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Metadata:         true,
		Tool:             "auroramdl",
		Version:          "1.0",
		Now:              time.Now,
		UVMode:           UVActive,
		Smoothing:        SmoothDirect,
		ExportColors:     true,
		DefaultAnimation: "default",
	}
}
