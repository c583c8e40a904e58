package mdl

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/auroramdl/pkg/encoding"
)

// IsBinary reports whether data is a compiled model: compiled files start
// with four zero bytes.
func IsBinary(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte{0, 0, 0, 0})
}

type parseState int

const (
	stateStart parseState = iota
	stateHeader
	stateGeometry
	stateAnimations
	stateDone
)

// Parse parses an ascii MDL document. Compiled models are refused with
// ErrBinaryModel. Structural problems abort with a *StructuralError;
// everything else becomes a session warning.
func Parse(data []byte, s *Session) (*Model, error) {
	if IsBinary(data) {
		return nil, ErrBinaryModel
	}
	s = session(s)
	text := encoding.DecodeText(encoding.TrimNullBytes(data))
	return parseLines(Tokenize(text), s)
}

// ParseFile parses an ascii MDL file from disk. The file's base name is used
// as the model name when the newmodel line is missing.
func ParseFile(path string, s *Session) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MDL file: %w", err)
	}
	s = session(s)
	s.DefaultName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(data, s)
}

func parseLines(lines []Line, s *Session) (*Model, error) {
	m := NewModel(s.DefaultName)
	state := stateStart
	geometry := false
	c := newCursor(lines)

	for !c.done() && state != stateDone {
		ln, _ := c.peek()
		label := ln.Label()

		switch state {
		case stateStart:
			if label == "newmodel" {
				c.advance()
				if name := ln.Arg(1); name != "" {
					m.Name = name
				} else {
					s.warnf(ln.Index, "newmodel without a name, using %q", m.Name)
				}
			} else {
				s.warnf(ln.Index, "missing newmodel line, using model name %q", m.Name)
			}
			state = stateHeader

		case stateHeader:
			if label == "node" {
				s.warnf(ln.Index, "node before beginmodelgeom")
				state, geometry = stateGeometry, true
				continue
			}
			c.advance()
			switch label {
			case "setsupermodel":
				if len(ln.Tokens) < 3 {
					s.warnf(ln.Index, "setsupermodel: missing supermodel name")
					continue
				}
				m.Supermodel = Identifier(ln.Tokens[2])
			case "classification":
				class, ok := ParseClassification(ln.Arg(1))
				if !ok {
					s.warnf(ln.Index, "unknown classification %q", ln.Arg(1))
					continue
				}
				m.Classification = class
			case "setanimationscale":
				if !IsNumber(ln.Arg(1)) {
					s.warnf(ln.Index, "setanimationscale: malformed value %q", ln.Arg(1))
					continue
				}
				m.AnimationScale = ToFloat(ln.Arg(1))
			case "filedependancy", "filedependency":
			case "beginmodelgeom":
				state, geometry = stateGeometry, true
			case "donemodel":
				state = stateDone
			default:
				s.warnf(ln.Index, "unknown header keyword %q", ln.Tokens[0])
			}

		case stateGeometry:
			switch label {
			case "node":
				block, err := takeBlock(c, "node", "endnode")
				if err != nil {
					return nil, err
				}
				node, err := parseNode(block, s)
				if err != nil {
					return nil, err
				}
				node.Index = len(m.Nodes)
				if err := m.InsertNode(node); err != nil {
					s.warnf(block[0].Index, "%v", err)
				}
			case "endmodelgeom":
				c.advance()
				state = stateAnimations
			case "newanim":
				s.warnf(ln.Index, "newanim before endmodelgeom")
				state = stateAnimations
			case "donemodel":
				c.advance()
				state = stateDone
			default:
				c.advance()
			}

		case stateAnimations:
			switch label {
			case "newanim":
				block, err := takeBlock(c, "newanim", "doneanim")
				if err != nil {
					return nil, err
				}
				anim, err := parseAnimation(block, s)
				if err != nil {
					return nil, err
				}
				m.Animations = append(m.Animations, anim)
			case "donemodel":
				c.advance()
				state = stateDone
			default:
				c.advance()
			}
		}
	}

	if !geometry {
		s.warnf(-1, "model %q has no geometry section", m.Name)
	} else if state == stateGeometry {
		s.warnf(-1, "model %q: missing endmodelgeom", m.Name)
	}
	return m, nil
}

// takeBlock consumes an open...close block starting at the cursor and
// returns it without the closing line. Another open before the close, or
// running out of input, is a structural error.
func takeBlock(c *cursor, open, close string) ([]Line, error) {
	head, _ := c.advance()
	body := c.takeUntil(labelIs(open, close))
	end, ok := c.peek()
	if !ok {
		return nil, structuralf(head.Index, "%s %q without %s", open, head.Arg(2), close)
	}
	if end.Label() == open {
		return nil, structuralf(end.Index, "%s inside %s %q started on line %d", open, open, head.Arg(2), head.Index+1)
	}
	c.advance()
	block := make([]Line, 0, len(body)+1)
	block = append(block, head)
	return append(block, body...), nil
}

// ParseWalkmesh parses a .pwk or .dwk file: a bare sequence of node blocks
// with no header or animations.
func ParseWalkmesh(data []byte, s *Session) ([]*Node, error) {
	if IsBinary(data) {
		return nil, ErrBinaryModel
	}
	s = session(s)
	lines := Tokenize(encoding.DecodeText(encoding.TrimNullBytes(data)))
	m := NewModel(s.DefaultName)
	c := newCursor(lines)
	for !c.done() {
		ln, _ := c.peek()
		if ln.Label() != "node" {
			c.advance()
			continue
		}
		block, err := takeBlock(c, "node", "endnode")
		if err != nil {
			return nil, err
		}
		node, err := parseNode(block, s)
		if err != nil {
			return nil, err
		}
		node.Index = len(m.Nodes)
		if err := m.InsertNode(node); err != nil {
			s.warnf(block[0].Index, "%v", err)
		}
	}
	return m.Nodes, nil
}
