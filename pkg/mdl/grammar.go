package mdl

import (
	"strconv"
	"strings"

	"github.com/Faultbox/auroramdl/pkg/math"
)

// lineRule handles a single labelled line.
type lineRule func(p *nodeParser, ln Line)

// tableRule handles a "label N" line followed by up to N rows. Numeric
// tables end at the first row whose first token is not a number; text
// tables end at the first row that starts with a known label.
type tableRule struct {
	numeric bool
	begin   func(p *nodeParser, ln Line, count int)
	row     func(p *nodeParser, ln Line)
}

// grammar is the field table of one node kind.
type grammar struct {
	lines  map[string]lineRule
	tables map[string]tableRule
	finish []func(p *nodeParser)
}

func newGrammar() *grammar {
	return &grammar{lines: make(map[string]lineRule), tables: make(map[string]tableRule)}
}

// with returns a grammar holding g's rules overlaid with other's.
func (g *grammar) with(other *grammar) *grammar {
	out := newGrammar()
	for _, src := range []*grammar{g, other} {
		for k, v := range src.lines {
			out.lines[k] = v
		}
		for k, v := range src.tables {
			out.tables[k] = v
		}
		out.finish = append(out.finish, src.finish...)
	}
	return out
}

func (g *grammar) isLabel(label string) bool {
	if label == "endnode" || label == "node" {
		return true
	}
	_, line := g.lines[label]
	_, table := g.tables[label]
	return line || table
}

// nodeParser is the state of one node block parse.
type nodeParser struct {
	s    *Session
	n    *Node
	line int // current source line

	layer  *UVLayer
	flares struct {
		textures  []string
		sizes     []float32
		positions []float32
		shifts    [][3]float32
	}
}

// arg returns token i of ln, warning when it is missing.
func (p *nodeParser) arg(ln Line, i int) (string, bool) {
	if i < len(ln.Tokens) {
		return ln.Tokens[i], true
	}
	p.s.warnf(ln.Index, "node %q: %s: missing value, keeping default", p.n.Name, ln.Label())
	return "", false
}

// vec overwrites dst with as many values as ln provides.
func (p *nodeParser) vec(ln Line, dst []float32) {
	args := ln.Tokens[1:]
	if len(args) < len(dst) {
		p.s.warnf(ln.Index, "node %q: %s: expected %d values, got %d", p.n.Name, ln.Label(), len(dst), len(args))
	}
	for i := 0; i < len(dst) && i < len(args); i++ {
		dst[i] = ToFloat(args[i])
	}
}

func floatRule(get func(n *Node) *float32) lineRule {
	return func(p *nodeParser, ln Line) {
		if v, ok := p.arg(ln, 1); ok {
			*get(p.n) = ToFloat(v)
		}
	}
}

func intRule(get func(n *Node) *int) lineRule {
	return func(p *nodeParser, ln Line) {
		if v, ok := p.arg(ln, 1); ok {
			*get(p.n) = ToInt(v)
		}
	}
}

func boolRule(get func(n *Node) *bool) lineRule {
	return func(p *nodeParser, ln Line) {
		if v, ok := p.arg(ln, 1); ok {
			*get(p.n) = ToBool(v)
		}
	}
}

func vecRule(get func(n *Node) []float32) lineRule {
	return func(p *nodeParser, ln Line) {
		p.vec(ln, get(p.n))
	}
}

func rowInts(ln Line, n int) []int {
	out := make([]int, n)
	for i := 0; i < n && i < len(ln.Tokens); i++ {
		out[i] = ToInt(ln.Tokens[i])
	}
	return out
}

var commonGrammar = func() *grammar {
	g := newGrammar()
	g.lines["parent"] = func(p *nodeParser, ln Line) {
		if v, ok := p.arg(ln, 1); ok {
			p.n.Parent = Identifier(v)
		}
	}
	g.lines["position"] = func(p *nodeParser, ln Line) {
		v := p.n.Position.Array()
		p.vec(ln, v[:])
		p.n.Position = math.V3(v)
	}
	g.lines["orientation"] = vecRule(func(n *Node) []float32 { return n.Orientation[:] })
	g.lines["scale"] = floatRule(func(n *Node) *float32 { return &n.Scale })
	g.lines["wirecolor"] = vecRule(func(n *Node) []float32 { return n.WireColor[:] })
	return g
}()

var meshGrammar = func() *grammar {
	g := newGrammar()
	mesh := func(n *Node) *Mesh { return n.Mesh }
	mat := func(n *Node) *Material { return &n.Mesh.Material }

	g.lines["render"] = boolRule(func(n *Node) *bool { return &mesh(n).Render })
	g.lines["shadow"] = boolRule(func(n *Node) *bool { return &mesh(n).Shadow })
	g.lines["beaming"] = boolRule(func(n *Node) *bool { return &mesh(n).Beaming })
	g.lines["rotatetexture"] = boolRule(func(n *Node) *bool { return &mesh(n).RotateTexture })
	g.lines["lightmapped"] = boolRule(func(n *Node) *bool { return &mesh(n).Lightmapped })
	g.lines["inheritcolor"] = boolRule(func(n *Node) *bool { return &mesh(n).InheritColor })
	g.lines["tilefade"] = intRule(func(n *Node) *int { return &mesh(n).TileFade })
	g.lines["transparencyhint"] = intRule(func(n *Node) *int { return &mesh(n).TransparencyHint })
	g.lines["shininess"] = floatRule(func(n *Node) *float32 { return &mesh(n).Shininess })
	g.lines["alpha"] = floatRule(func(n *Node) *float32 { return &mat(n).Alpha })
	g.lines["ambient"] = vecRule(func(n *Node) []float32 { return mat(n).Ambient[:] })
	g.lines["diffuse"] = vecRule(func(n *Node) []float32 { return mat(n).Diffuse[:] })
	g.lines["specular"] = vecRule(func(n *Node) []float32 { return mat(n).Specular[:] })
	g.lines["selfillumcolor"] = vecRule(func(n *Node) []float32 { return mat(n).SelfIllum[:] })

	texture := func(slot int) lineRule {
		return func(p *nodeParser, ln Line) {
			if v, ok := p.arg(ln, 1); ok {
				mat(p.n).Textures[slot] = Identifier(v)
			}
		}
	}
	g.lines["bitmap"] = texture(0)
	g.lines["bitmap2"] = texture(1)
	for i := 0; i < TextureSlots; i++ {
		g.lines["texture"+strconv.Itoa(i)] = texture(i)
	}
	g.lines["renderhint"] = func(p *nodeParser, ln Line) {
		if v, ok := p.arg(ln, 1); ok {
			mat(p.n).RenderHints = append(mat(p.n).RenderHints, v)
		}
	}
	g.lines["materialname"] = func(p *nodeParser, ln Line) {
		v, ok := p.arg(ln, 1)
		if !ok {
			return
		}
		m := mat(p.n)
		m.Name = Identifier(v)
		if m.Name != "" && p.s.Mtrs != nil {
			m.Mtr = p.s.Mtrs.Get(m.Name, p.s)
		}
	}

	g.tables["verts"] = tableRule{numeric: true, row: func(p *nodeParser, ln Line) {
		v := floatArgs(ln.Tokens, 3)
		mesh(p.n).Verts = append(mesh(p.n).Verts, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
	}}
	g.tables["faces"] = tableRule{numeric: true, row: func(p *nodeParser, ln Line) {
		v := rowInts(ln, 8)
		mesh(p.n).Faces = append(mesh(p.n).Faces, Face{
			Verts:       [3]int{v[0], v[1], v[2]},
			SmoothGroup: v[3],
			UV:          [3]int{v[4], v[5], v[6]},
			Material:    v[7],
		})
	}}
	uvTable := tableRule{
		numeric: true,
		begin: func(p *nodeParser, ln Line, count int) {
			m := mesh(p.n)
			name := ln.Label()
			if l := m.UVLayer(name); l != nil {
				l.Coords = l.Coords[:0]
				p.layer = l
				return
			}
			m.UVLayers = append(m.UVLayers, UVLayer{Name: name, Coords: make([]math.Vec2, 0, count)})
			p.layer = &m.UVLayers[len(m.UVLayers)-1]
		},
		row: func(p *nodeParser, ln Line) {
			v := floatArgs(ln.Tokens, 2)
			p.layer.Coords = append(p.layer.Coords, math.Vec2{X: v[0], Y: v[1]})
		},
	}
	g.tables["tverts"] = uvTable
	for i := 1; i <= 3; i++ {
		g.tables["tverts"+strconv.Itoa(i)] = uvTable
	}
	g.tables["normals"] = tableRule{numeric: true, row: func(p *nodeParser, ln Line) {
		v := floatArgs(ln.Tokens, 3)
		mesh(p.n).Normals = append(mesh(p.n).Normals, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
	}}
	g.tables["tangents"] = tableRule{numeric: true, row: func(p *nodeParser, ln Line) {
		v := floatArgs(ln.Tokens, 4)
		mesh(p.n).Tangents = append(mesh(p.n).Tangents, [4]float32{v[0], v[1], v[2], v[3]})
	}}
	g.tables["colors"] = tableRule{numeric: true, row: func(p *nodeParser, ln Line) {
		v := floatArgs(ln.Tokens, 3)
		mesh(p.n).Colors = append(mesh(p.n).Colors, [3]float32{v[0], v[1], v[2]})
	}}
	return g
}()

var danglyGrammar = func() *grammar {
	g := newGrammar()
	g.lines["period"] = floatRule(func(n *Node) *float32 { return &n.Dangly.Period })
	g.lines["tightness"] = floatRule(func(n *Node) *float32 { return &n.Dangly.Tightness })
	g.lines["displacement"] = floatRule(func(n *Node) *float32 { return &n.Dangly.Displacement })
	g.tables["constraints"] = tableRule{
		numeric: true,
		begin: func(p *nodeParser, ln Line, count int) {
			p.n.Mesh.VertexGroups[p.n.Dangly.ConstraintGroup] = make([]float32, 0, count)
		},
		row: func(p *nodeParser, ln Line) {
			group := p.n.Dangly.ConstraintGroup
			p.n.Mesh.VertexGroups[group] = append(p.n.Mesh.VertexGroups[group], ToFloat(ln.Tokens[0]))
		},
	}
	return g
}()

var skinGrammar = func() *grammar {
	g := newGrammar()
	g.tables["weights"] = tableRule{row: func(p *nodeParser, ln Line) {
		var weights []BoneWeight
		seen := make(map[string]bool)
		for i := 0; i+1 < len(ln.Tokens); i += 2 {
			bone := ln.Tokens[i]
			key := strings.ToLower(bone)
			if seen[key] {
				continue
			}
			seen[key] = true
			weights = append(weights, BoneWeight{Bone: bone, Weight: ToFloat(ln.Tokens[i+1])})
		}
		p.n.Skin.Weights = append(p.n.Skin.Weights, weights)
	}}
	return g
}()

var lightGrammar = func() *grammar {
	g := newGrammar()
	light := func(n *Node) *Light { return n.Light }
	g.lines["radius"] = floatRule(func(n *Node) *float32 { return &light(n).Radius })
	g.lines["multiplier"] = floatRule(func(n *Node) *float32 { return &light(n).Multiplier })
	g.lines["color"] = vecRule(func(n *Node) []float32 { return light(n).Color[:] })
	g.lines["ambientonly"] = boolRule(func(n *Node) *bool { return &light(n).AmbientOnly })
	g.lines["isdynamic"] = boolRule(func(n *Node) *bool { return &light(n).Dynamic })
	g.lines["ndynamictype"] = g.lines["isdynamic"]
	g.lines["affectdynamic"] = boolRule(func(n *Node) *bool { return &light(n).AffectDynamic })
	g.lines["shadow"] = boolRule(func(n *Node) *bool { return &light(n).Shadow })
	g.lines["negativelight"] = boolRule(func(n *Node) *bool { return &light(n).Negative })
	g.lines["fadinglight"] = boolRule(func(n *Node) *bool { return &light(n).Fading })
	g.lines["lightpriority"] = intRule(func(n *Node) *int { return &light(n).Priority })
	g.lines["flareradius"] = floatRule(func(n *Node) *float32 { return &light(n).FlareRadius })
	g.lines["lensflares"] = boolRule(func(n *Node) *bool { return &light(n).LensFlares })

	g.tables["texturenames"] = tableRule{row: func(p *nodeParser, ln Line) {
		p.flares.textures = append(p.flares.textures, Identifier(ln.Tokens[0]))
	}}
	g.tables["flaresizes"] = tableRule{numeric: true, row: func(p *nodeParser, ln Line) {
		p.flares.sizes = append(p.flares.sizes, ToFloat(ln.Tokens[0]))
	}}
	g.tables["flarepositions"] = tableRule{numeric: true, row: func(p *nodeParser, ln Line) {
		p.flares.positions = append(p.flares.positions, ToFloat(ln.Tokens[0]))
	}}
	g.tables["flarecolorshifts"] = tableRule{numeric: true, row: func(p *nodeParser, ln Line) {
		v := floatArgs(ln.Tokens, 3)
		p.flares.shifts = append(p.flares.shifts, [3]float32{v[0], v[1], v[2]})
	}}
	g.finish = append(g.finish, func(p *nodeParser) {
		f := &p.flares
		count := min(len(f.textures), len(f.sizes), len(f.positions), len(f.shifts))
		longest := max(len(f.textures), len(f.sizes), len(f.positions), len(f.shifts))
		if count != longest {
			p.s.warnf(p.line, "light %q: flare lists differ in length, using %d flares", p.n.Name, count)
		}
		for i := 0; i < count; i++ {
			p.n.Light.Flares = append(p.n.Light.Flares, Flare{
				Texture:    f.textures[i],
				Size:       f.sizes[i],
				Position:   f.positions[i],
				ColorShift: f.shifts[i],
			})
		}
	})
	return g
}()

var emitterGrammar = func() *grammar {
	g := newGrammar()
	for _, prop := range emitterProps {
		prop := prop
		g.lines[prop.name] = func(p *nodeParser, ln Line) {
			e := p.n.Emitter
			if prop.kind == propText {
				if v, ok := p.arg(ln, 1); ok {
					if Identifier(v) == "" {
						v = ""
					}
					e.SetText(prop.name, v)
				}
				return
			}
			vals := append([]float32(nil), e.Props[prop.name].Nums...)
			p.vec(ln, vals)
			e.Set(prop.name, vals...)
		}
	}
	g.lines["xsize"] = floatRule(func(n *Node) *float32 { return &n.Emitter.XSize })
	g.lines["ysize"] = floatRule(func(n *Node) *float32 { return &n.Emitter.YSize })
	return g
}()

var referenceGrammar = func() *grammar {
	g := newGrammar()
	g.lines["refmodel"] = func(p *nodeParser, ln Line) {
		if v, ok := p.arg(ln, 1); ok {
			p.n.Reference.RefModel = Identifier(v)
		}
	}
	g.lines["reattachable"] = boolRule(func(n *Node) *bool { return &n.Reference.Reattachable })
	return g
}()

// grammars dispatches node kinds to their field tables.
var grammars = map[NodeKind]*grammar{
	KindDummy:      commonGrammar,
	KindPatch:      commonGrammar,
	KindReference:  commonGrammar.with(referenceGrammar),
	KindTrimesh:    commonGrammar.with(meshGrammar),
	KindAnimmesh:   commonGrammar.with(meshGrammar),
	KindDanglymesh: commonGrammar.with(meshGrammar).with(danglyGrammar),
	KindSkinmesh:   commonGrammar.with(meshGrammar).with(skinGrammar),
	KindEmitter:    commonGrammar.with(emitterGrammar),
	KindLight:      commonGrammar.with(lightGrammar),
	KindAabb:       commonGrammar.with(meshGrammar),
}

// parseNode parses one "node ... endnode" block. block holds the node line
// and the lines up to, not including, endnode.
func parseNode(block []Line, s *Session) (*Node, error) {
	head := block[0]
	if len(head.Tokens) < 3 {
		return nil, structuralf(head.Index, "node line needs a kind and a name")
	}
	kind, err := ParseNodeKind(head.Tokens[1])
	if err != nil {
		return nil, &StructuralError{Line: head.Index, Msg: err.Error(), Err: ErrUnknownKind}
	}
	g := grammars[kind]
	p := &nodeParser{s: s, n: NewNode(kind, head.Tokens[2]), line: head.Index}

	c := newCursor(block[1:])
	for !c.done() {
		ln, _ := c.advance()
		p.line = ln.Index
		label := ln.Label()
		if IsNumber(label) {
			// Stray data rows, such as the aabb tree, are not read back.
			continue
		}
		if rule, ok := g.tables[label]; ok {
			p.readTable(c, g, rule, ln)
			continue
		}
		if rule, ok := g.lines[label]; ok {
			rule(p, ln)
		}
	}
	for _, finish := range g.finish {
		finish(p)
	}
	return p.n, nil
}

// readTable consumes the rows of an inline table.
func (p *nodeParser) readTable(c *cursor, g *grammar, rule tableRule, head Line) {
	count := 0
	if v, ok := p.arg(head, 1); ok {
		count = ToInt(v)
	}
	if count < 0 {
		p.s.warnf(head.Index, "node %q: %s has a negative row count %d", p.n.Name, head.Label(), count)
		count = 0
	}
	if rule.begin != nil {
		rule.begin(p, head, min(count, c.remaining()))
	}
	read := 0
	for read < count {
		ln, ok := c.peek()
		if !ok {
			break
		}
		if rule.numeric && !IsNumber(ln.Tokens[0]) {
			break
		}
		if !rule.numeric && g.isLabel(ln.Label()) {
			break
		}
		c.advance()
		rule.row(p, ln)
		read++
	}
	if read < count {
		p.s.warnf(head.Index, "node %q: %s declares %d rows, read %d", p.n.Name, head.Label(), count, read)
	}
}
