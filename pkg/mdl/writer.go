package mdl

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Faultbox/auroramdl/pkg/encoding"
)

// formatFloat writes a float with five decimals and no negative zero.
func formatFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', 5, 32)
	if s == "-0.00000" {
		return "0.00000"
	}
	return s
}

func formatFloats(vs ...float32) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, " ")
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func nameOrNull(s string) string {
	if s == "" {
		return "null"
	}
	return s
}

type writer struct {
	s     *Session
	m     *Model
	lines []string
}

func (w *writer) add(format string, args ...any) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

// Serialize writes a model as ascii MDL lines. Insufficient data is
// recorded as session warnings; the output is always complete.
func Serialize(m *Model, s *Session) []string {
	s = session(s)
	w := &writer{s: s, m: m}
	w.metadata()
	w.add("newmodel %s", m.Name)
	w.dependency()
	w.add("setsupermodel %s %s", m.Name, nameOrNull(m.Supermodel))
	w.add("classification %s", m.Classification)
	w.add("setanimationscale %s", formatFloat(m.AnimationScale))
	w.add("beginmodelgeom %s", m.Name)
	for _, n := range m.Nodes {
		w.node(n)
	}
	w.add("endmodelgeom %s", m.Name)
	for _, a := range animationOrder(m.Animations, s.Options.DefaultAnimation) {
		w.animation(a)
	}
	w.add("donemodel %s", m.Name)
	return w.lines
}

// Bytes joins serialized lines into file content encoded as Windows-1252.
func Bytes(lines []string) []byte {
	return encoding.UTF8ToWindows1252(strings.Join(lines, "\n") + "\n")
}

// WriteFile serializes m to path.
func WriteFile(path string, m *Model, s *Session) error {
	if err := os.WriteFile(path, Bytes(Serialize(m, s)), 0o644); err != nil {
		return fmt.Errorf("writing MDL file: %w", err)
	}
	return nil
}

func (w *writer) metadata() {
	o := w.s.Options
	if !o.Metadata {
		return
	}
	if o.Source != "" {
		w.add("# Source: %s", o.Source)
	}
	tool := strings.TrimSpace(o.Tool + " " + o.Version)
	if tool != "" {
		w.add("# Exported from %s", tool)
	}
	if o.Now != nil {
		w.add("# Exported on %s", o.Now().Format("2006-01-02 15:04:05"))
	}
}

func (w *writer) dependency() {
	if o := w.s.Options; o.Metadata && o.Source != "" {
		w.add("filedependancy %s", o.Source)
	}
}

// animationOrder puts the default animation first, the rest in model order.
func animationOrder(anims []*Animation, def string) []*Animation {
	out := make([]*Animation, 0, len(anims))
	for _, a := range anims {
		if def != "" && strings.EqualFold(a.Name, def) {
			out = append(out, a)
			break
		}
	}
	for _, a := range anims {
		if len(out) > 0 && a == out[0] {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (w *writer) node(n *Node) {
	w.add("node %s %s", n.Kind, n.Name)
	w.add("  parent %s", w.m.NodeNameOr(n.Parent))
	pos, rot, scale := w.m.LocalTransform(n)
	w.add("  position %s", formatFloats(pos.X, pos.Y, pos.Z))
	w.add("  orientation %s", formatFloats(rot[:]...))
	w.add("  scale %s", formatFloat(scale))
	w.add("  wirecolor %s", formatFloats(n.WireColor[:]...))

	switch n.Kind {
	case KindReference:
		w.add("  refmodel %s", nameOrNull(n.Reference.RefModel))
		w.add("  reattachable %s", formatBool(n.Reference.Reattachable))
	case KindLight:
		w.light(n.Light)
	case KindEmitter:
		w.emitter(n.Emitter)
	}
	if n.Kind.HasMesh() && n.Mesh != nil {
		w.mesh(n)
	}
	w.add("endnode")
}

func (w *writer) light(l *Light) {
	w.add("  radius %s", formatFloat(l.Radius))
	w.add("  multiplier %s", formatFloat(l.Multiplier))
	w.add("  color %s", formatFloats(l.Color[:]...))
	w.add("  ambientonly %s", formatBool(l.AmbientOnly))
	w.add("  isdynamic %s", formatBool(l.Dynamic))
	w.add("  affectdynamic %s", formatBool(l.AffectDynamic))
	w.add("  shadow %s", formatBool(l.Shadow))
	w.add("  negativelight %s", formatBool(l.Negative))
	w.add("  fadinglight %s", formatBool(l.Fading))
	w.add("  lightpriority %d", l.Priority)
	w.add("  flareradius %s", formatFloat(l.FlareRadius))
	w.add("  lensflares %s", formatBool(l.LensFlares))
	if len(l.Flares) == 0 {
		return
	}
	w.add("  texturenames %d", len(l.Flares))
	for _, f := range l.Flares {
		w.add("    %s", nameOrNull(f.Texture))
	}
	w.add("  flaresizes %d", len(l.Flares))
	for _, f := range l.Flares {
		w.add("    %s", formatFloat(f.Size))
	}
	w.add("  flarepositions %d", len(l.Flares))
	for _, f := range l.Flares {
		w.add("    %s", formatFloat(f.Position))
	}
	w.add("  flarecolorshifts %d", len(l.Flares))
	for _, f := range l.Flares {
		w.add("    %s", formatFloats(f.ColorShift[:]...))
	}
}

func (w *writer) emitter(e *Emitter) {
	w.add("  xsize %s", formatFloat(e.XSize))
	w.add("  ysize %s", formatFloat(e.YSize))
	for _, p := range emitterProps {
		v, ok := e.Props[p.name]
		if !ok {
			continue
		}
		switch p.kind {
		case propText:
			w.add("  %s %s", p.name, nameOrNull(v.Text))
		case propInt, propBool:
			w.add("  %s %d", p.name, int(firstOr(v.Nums, 0)))
		default:
			nums := v.Nums
			if len(nums) < p.kind.width() {
				nums = append(append([]float32(nil), nums...), p.def[len(nums):]...)
			}
			w.add("  %s %s", p.name, formatFloats(nums[:p.kind.width()]...))
		}
	}
}

func firstOr(vs []float32, def float32) float32 {
	if len(vs) == 0 {
		return def
	}
	return vs[0]
}

func (w *writer) mesh(n *Node) {
	m := n.Mesh
	mat := m.Material
	w.add("  render %s", formatBool(m.Render))
	w.add("  shadow %s", formatBool(m.Shadow))
	w.add("  beaming %s", formatBool(m.Beaming))
	w.add("  rotatetexture %s", formatBool(m.RotateTexture))
	w.add("  lightmapped %s", formatBool(m.Lightmapped))
	w.add("  inheritcolor %s", formatBool(m.InheritColor))
	w.add("  tilefade %d", m.TileFade)
	w.add("  transparencyhint %d", m.TransparencyHint)
	w.add("  shininess %s", formatFloat(m.Shininess))
	w.add("  ambient %s", formatFloats(mat.Ambient[:]...))
	w.add("  diffuse %s", formatFloats(mat.Diffuse[:]...))
	w.add("  specular %s", formatFloats(mat.Specular[:]...))
	w.add("  selfillumcolor %s", formatFloats(mat.SelfIllum[:]...))
	w.add("  alpha %s", formatFloat(mat.Alpha))
	w.add("  bitmap %s", nameOrNull(mat.Textures[0]))
	for i := 1; i < TextureSlots; i++ {
		if mat.Textures[i] != "" {
			w.add("  texture%d %s", i, mat.Textures[i])
		}
	}
	if mat.Name != "" {
		w.add("  materialname %s", mat.Name)
	}
	for _, hint := range mat.RenderHints {
		w.add("  renderhint %s", hint)
	}

	ex := prepareMesh(n, w.s)
	w.add("  verts %d", len(ex.verts))
	for _, v := range ex.verts {
		w.add("    %s", formatFloats(v.X, v.Y, v.Z))
	}
	w.add("  faces %d", len(ex.faces))
	for _, f := range ex.faces {
		w.add("    %d %d %d %d %d %d %d %d", f.Verts[0], f.Verts[1], f.Verts[2],
			f.SmoothGroup, f.UV[0], f.UV[1], f.UV[2], f.Material)
	}
	for i, l := range ex.layers {
		label := "tverts"
		if i > 0 {
			label += strconv.Itoa(i)
		}
		w.add("  %s %d", label, len(l.Coords))
		for _, uv := range l.Coords {
			w.add("    %s", formatFloats(uv.X, uv.Y, 0))
		}
	}
	w.vertexData(n, len(ex.verts))

	switch n.Kind {
	case KindDanglymesh:
		w.dangly(n, len(ex.verts))
	case KindSkinmesh:
		w.skin(n, len(ex.verts))
	case KindAabb:
		w.aabb(n, ex)
	}
}

func (w *writer) vertexData(n *Node, count int) {
	m, o := n.Mesh, w.s.Options
	if o.ExportNormals && len(m.Normals) > 0 {
		if len(m.Normals) != count {
			w.s.warnf(-1, "node %q: %d normals for %d vertices, not written", n.Name, len(m.Normals), count)
		} else {
			w.add("  normals %d", count)
			for _, v := range m.Normals {
				w.add("    %s", formatFloats(v.X, v.Y, v.Z))
			}
		}
	}
	if o.ExportTangents && len(m.Tangents) > 0 {
		if len(m.Tangents) != count {
			w.s.warnf(-1, "node %q: %d tangents for %d vertices, not written", n.Name, len(m.Tangents), count)
		} else {
			w.add("  tangents %d", count)
			for _, v := range m.Tangents {
				w.add("    %s", formatFloats(v[:]...))
			}
		}
	}
	if o.ExportColors && len(m.Colors) > 0 {
		if len(m.Colors) != count {
			w.s.warnf(-1, "node %q: %d vertex colors for %d vertices, not written", n.Name, len(m.Colors), count)
		} else {
			w.add("  colors %d", count)
			for _, v := range m.Colors {
				w.add("    %s", formatFloats(v[:]...))
			}
		}
	}
}

func (w *writer) dangly(n *Node, count int) {
	d := n.Dangly
	w.add("  period %s", formatFloat(d.Period))
	w.add("  tightness %s", formatFloat(d.Tightness))
	w.add("  displacement %s", formatFloat(d.Displacement))
	group, ok := n.Mesh.VertexGroups[d.ConstraintGroup]
	if !ok {
		w.s.warnf(-1, "node %q: vertex group %q not found, constraints written as 0", n.Name, d.ConstraintGroup)
	} else if len(group) != count {
		w.s.warnf(-1, "node %q: %d constraints for %d vertices", n.Name, len(group), count)
	}
	w.add("  constraints %d", count)
	for i := 0; i < count; i++ {
		var c float32
		if i < len(group) {
			c = group[i]
		}
		w.add("    %s", formatFloat(c))
	}
}

func (w *writer) skin(n *Node, count int) {
	root := w.m.Root()
	w.add("  weights %d", count)
	for i := 0; i < count; i++ {
		var weights []BoneWeight
		if i < len(n.Skin.Weights) {
			weights = SkinWeights(n.Skin.Weights[i], w.m)
		}
		if len(weights) == 0 {
			bone := w.m.Name
			if root != nil {
				bone = root.Name
			}
			w.s.warnf(-1, "node %q: vertex %d has no bone weights, bound to %q", n.Name, i, bone)
			weights = []BoneWeight{{Bone: bone, Weight: 1}}
		}
		units := weightUnitsOf(weights)
		parts := make([]string, 0, 2*len(weights))
		for j, bw := range weights {
			parts = append(parts, w.m.NodeNameOr(bw.Bone), fmt.Sprintf("%d.%05d", units[j]/weightUnits, units[j]%weightUnits))
		}
		w.add("    %s", strings.Join(parts, " "))
	}
}

func (w *writer) aabb(n *Node, ex exportMesh) {
	tree, warnings := BuildAABB(AABBFaces(ex.verts, ex.faces))
	for _, msg := range warnings {
		w.s.warnf(-1, "node %q: %s", n.Name, msg)
	}
	for i, a := range tree {
		row := fmt.Sprintf("%s %d", formatFloats(a.Min.X, a.Min.Y, a.Min.Z, a.Max.X, a.Max.Y, a.Max.Z), a.Face)
		if i == 0 {
			w.add("  aabb %s", row)
		} else {
			w.add("    %s", row)
		}
	}
}

func (w *writer) animation(a *Animation) {
	w.add("newanim %s %s", a.Name, w.m.Name)
	w.add("  length %s", formatFloat(a.Length))
	w.add("  transtime %s", formatFloat(a.TransTime))
	root := a.Root
	if root == "" {
		if r := w.m.Root(); r != nil {
			root = r.Name
		}
	}
	w.add("  animroot %s", w.m.NodeNameOr(root))
	for _, e := range a.Events {
		w.add("  event %s %s", formatFloat(e.Time), e.Name)
	}
	for _, an := range a.Nodes {
		w.animnode(an)
	}
	w.add("doneanim %s %s", a.Name, w.m.Name)
}

func (w *writer) animnode(an *Animnode) {
	w.add("  node %s %s", an.Kind, an.Name)
	w.add("    parent %s", w.m.NodeNameOr(an.Parent))
	for _, bucket := range []map[string]*Track{an.Object, an.Material, an.Emitter} {
		for _, prop := range sortedProps(bucket) {
			t := bucket[prop]
			label := prop + "key"
			if t.Bezier {
				label = prop + "bezierkey"
			}
			w.add("    %s %d", label, len(t.Keys))
			for _, k := range t.Keys {
				w.add("      %s", formatFloats(append([]float32{k.Time}, k.Values...)...))
			}
		}
	}
	if an.SamplePeriod > 0 || len(an.AnimVerts) > 0 || len(an.AnimTVerts) > 0 {
		w.add("    sampleperiod %s", formatFloat(an.SamplePeriod))
	}
	if len(an.AnimVerts) > 0 {
		w.add("    animverts %d", len(an.AnimVerts))
		for _, v := range an.AnimVerts {
			w.add("      %s", formatFloats(v.X, v.Y, v.Z))
		}
	}
	if len(an.AnimTVerts) > 0 {
		w.add("    animtverts %d", len(an.AnimTVerts))
		for _, v := range an.AnimTVerts {
			w.add("      %s", formatFloats(v.X, v.Y, 0))
		}
	}
	w.add("  endnode")
}
