package mdl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// CompanionWalkmesh returns the extension of the walkmesh file that
// accompanies a model of the given classification: doors use .dwk, other
// non-tile models .pwk. Tiles carry their walkmesh inline and get "".
func CompanionWalkmesh(c Classification) string {
	switch c {
	case ClassTile:
		return ""
	case ClassDoor:
		return ".dwk"
	default:
		return ".pwk"
	}
}

// LoadCompanionWalkmesh reads the walkmesh next to mdlPath into m. A
// missing companion file is not an error.
func LoadCompanionWalkmesh(m *Model, mdlPath string, s *Session) error {
	ext := CompanionWalkmesh(m.Classification)
	if ext == "" {
		return nil
	}
	s = session(s)
	path := strings.TrimSuffix(mdlPath, filepath.Ext(mdlPath)) + ext
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading walkmesh: %w", err)
	}
	nodes, err := ParseWalkmesh(data, s)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if ext == ".dwk" {
		m.DwkNodes = nodes
	} else {
		m.PwkNodes = nodes
	}
	return nil
}

// SerializeWalkmesh writes walkmesh nodes as a .pwk or .dwk file: node blocks
// only, with no model header.
func SerializeWalkmesh(name string, nodes []*Node, s *Session) []string {
	s = session(s)
	m := NewModel(name)
	m.Nodes = nodes
	m.reindex()
	w := &writer{s: s, m: m}
	w.metadata()
	for _, n := range nodes {
		w.node(n)
	}
	return w.lines
}
