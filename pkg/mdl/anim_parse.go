package mdl

import (
	"strings"

	"github.com/Faultbox/auroramdl/pkg/math"
)

// parseAnimation parses a "newanim ... doneanim" block (without the
// doneanim line). Lines before the first node form the header.
func parseAnimation(block []Line, s *Session) (*Animation, error) {
	head := block[0]
	anim := &Animation{Name: head.Arg(1)}
	if anim.Name == "" {
		s.warnf(head.Index, "newanim without a name")
	}

	c := newCursor(block[1:])
	for _, ln := range c.takeUntil(labelIs("node")) {
		switch ln.Label() {
		case "length":
			anim.Length = ToFloat(ln.Arg(1))
		case "transtime":
			anim.TransTime = ToFloat(ln.Arg(1))
		case "animroot":
			anim.Root = Identifier(ln.Arg(1))
		case "event":
			if len(ln.Tokens) < 3 {
				s.warnf(ln.Index, "animation %q: event needs a time and a name", anim.Name)
				continue
			}
			anim.Events = append(anim.Events, Event{Time: ToFloat(ln.Tokens[1]), Name: ln.Tokens[2]})
		default:
			s.warnf(ln.Index, "animation %q: unknown keyword %q", anim.Name, ln.Tokens[0])
		}
	}

	for !c.done() {
		ln, _ := c.peek()
		if ln.Label() != "node" {
			c.advance()
			continue
		}
		nodeBlock, err := takeBlock(c, "node", "endnode")
		if err != nil {
			return nil, err
		}
		node, err := parseAnimnode(nodeBlock, anim, s)
		if err != nil {
			return nil, err
		}
		anim.Nodes = append(anim.Nodes, node)
	}
	return anim, nil
}

// parseAnimnode parses one animated node. A bare "<prop> values" line is a
// single key at time 0; an explicit "<prop>key" track of the same property
// wins regardless of order.
func parseAnimnode(block []Line, anim *Animation, s *Session) (*Animnode, error) {
	head := block[0]
	if len(head.Tokens) < 3 {
		return nil, structuralf(head.Index, "node line needs a kind and a name")
	}
	kind, err := ParseNodeKind(head.Tokens[1])
	if err != nil {
		return nil, &StructuralError{Line: head.Index, Msg: err.Error(), Err: ErrUnknownKind}
	}
	n := NewAnimnode(kind, head.Tokens[2])
	bare := make(map[string]*Track)
	var bareOrder []string

	c := newCursor(block[1:])
	for !c.done() {
		ln, _ := c.advance()
		label := ln.Label()
		if IsNumber(label) {
			continue
		}
		switch {
		case label == "parent":
			n.Parent = Identifier(ln.Arg(1))
		case label == "sampleperiod":
			n.SamplePeriod = ToFloat(ln.Arg(1))
		case label == "animverts":
			rows := takeRows(c, ln, s)
			n.AnimVerts = make([]math.Vec3, 0, len(rows))
			for _, r := range rows {
				v := floatArgs(r.Tokens, 3)
				n.AnimVerts = append(n.AnimVerts, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
			}
		case label == "animtverts":
			rows := takeRows(c, ln, s)
			n.AnimTVerts = make([]math.Vec2, 0, len(rows))
			for _, r := range rows {
				v := floatArgs(r.Tokens, 2)
				n.AnimTVerts = append(n.AnimTVerts, math.Vec2{X: v[0], Y: v[1]})
			}
		case strings.HasSuffix(label, "bezierkey"):
			prop := strings.TrimSuffix(label, "bezierkey")
			n.SetTrack(prop, &Track{Bezier: true, Keys: keyRows(takeRows(c, ln, s))})
		case strings.HasSuffix(label, "key") && len(label) > len("key"):
			prop := strings.TrimSuffix(label, "key")
			n.SetTrack(prop, &Track{Keys: keyRows(takeRows(c, ln, s))})
		default:
			if len(ln.Tokens) < 2 || !IsNumber(ln.Tokens[1]) {
				s.warnf(ln.Index, "animation %q, node %q: ignoring %q", anim.Name, n.Name, ln.Tokens[0])
				continue
			}
			if _, dup := bare[label]; !dup {
				bareOrder = append(bareOrder, label)
			}
			values := make([]float32, 0, len(ln.Tokens)-1)
			for _, tok := range ln.Tokens[1:] {
				values = append(values, ToFloat(tok))
			}
			bare[label] = &Track{Keys: []Key{{Time: 0, Values: values}}}
		}
	}
	for _, prop := range bareOrder {
		if n.Track(prop) == nil {
			n.SetTrack(prop, bare[prop])
		}
	}
	return n, nil
}

// takeRows reads the numeric rows of a "label N" table. Without a count,
// rows are read up to the first non-numeric line. A closing endlist is
// consumed.
func takeRows(c *cursor, head Line, s *Session) []Line {
	arg := head.Arg(1)
	count := ToInt(arg)
	if arg == "" {
		count = c.remaining()
	} else if count < 0 {
		s.warnf(head.Index, "%s has a negative row count %d", head.Label(), count)
		count = 0
	}
	rows := make([]Line, 0, min(count, c.remaining()))
	for len(rows) < count {
		ln, ok := c.peek()
		if !ok || !IsNumber(ln.Tokens[0]) {
			break
		}
		c.advance()
		rows = append(rows, ln)
	}
	if arg != "" && len(rows) < count {
		s.warnf(head.Index, "%s declares %d rows, read %d", head.Label(), count, len(rows))
	}
	if ln, ok := c.peek(); ok && ln.Label() == "endlist" {
		c.advance()
	}
	return rows
}

func keyRows(rows []Line) []Key {
	keys := make([]Key, 0, len(rows))
	for _, r := range rows {
		values := make([]float32, 0, len(r.Tokens)-1)
		for _, tok := range r.Tokens[1:] {
			values = append(values, ToFloat(tok))
		}
		keys = append(keys, Key{Time: ToFloat(r.Tokens[0]), Values: values})
	}
	return keys
}
