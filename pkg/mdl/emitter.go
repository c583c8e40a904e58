package mdl

import "strings"

type propKind int

const (
	propText propKind = iota
	propFloat
	propInt
	propBool
	propColor
)

// width is the number of values a property carries on its line.
func (k propKind) width() int {
	switch k {
	case propText:
		return 0
	case propColor:
		return 3
	default:
		return 1
	}
}

type emitterProp struct {
	name       string
	kind       propKind
	def        []float32
	text       string
	animatable bool
}

func fprop(name string, def float32, animatable bool) emitterProp {
	return emitterProp{name: name, kind: propFloat, def: []float32{def}, animatable: animatable}
}

func iprop(name string, def float32, animatable bool) emitterProp {
	return emitterProp{name: name, kind: propInt, def: []float32{def}, animatable: animatable}
}

func bprop(name string, def float32) emitterProp {
	return emitterProp{name: name, kind: propBool, def: []float32{def}}
}

func tprop(name, def string) emitterProp {
	return emitterProp{name: name, kind: propText, text: def}
}

func cprop(name string, r, g, b float32) emitterProp {
	return emitterProp{name: name, kind: propColor, def: []float32{r, g, b}, animatable: true}
}

// emitterProps is the emitter grammar in output order.
var emitterProps = []emitterProp{
	tprop("update", "Fountain"),
	tprop("render", "Normal"),
	tprop("blend", "Normal"),
	iprop("spawntype", 0, false),
	tprop("texture", ""),
	tprop("chunkname", ""),
	bprop("twosidedtex", 0),
	bprop("loop", 0),
	iprop("renderorder", 0, false),
	bprop("m_bframeblending", 0),
	tprop("m_sdepthtexturename", ""),
	iprop("xgrid", 1, false),
	iprop("ygrid", 1, false),
	fprop("deadspace", 0, false),
	fprop("blastradius", 0, false),
	fprop("blastlength", 0, false),
	bprop("affectedbywind", 0),
	bprop("m_istinted", 0),
	bprop("bounce", 0),
	bprop("random", 0),
	bprop("inherit", 0),
	bprop("inheritvel", 0),
	bprop("inherit_local", 0),
	bprop("inherit_part", 0),
	bprop("splat", 0),
	bprop("p2p", 0),
	iprop("p2p_sel", 1, false),
	fprop("p2p_bezier2", 0, true),
	fprop("p2p_bezier3", 0, true),
	fprop("combinetime", 0, true),
	fprop("drag", 0, true),
	fprop("grav", 0, true),
	fprop("threshold", 0, true),
	fprop("lightningdelay", 0, true),
	fprop("lightningradius", 0, true),
	fprop("lightningscale", 0, true),
	iprop("lightningsubdiv", 0, true),
	fprop("alphastart", 1, true),
	fprop("alphamid", -1, true),
	fprop("alphaend", 1, true),
	fprop("birthrate", 0, true),
	fprop("bounce_co", 0, true),
	cprop("colorstart", 1, 1, 1),
	cprop("colormid", -1, -1, -1),
	cprop("colorend", 1, 1, 1),
	fprop("percentstart", 0, true),
	fprop("percentmid", 0.5, true),
	fprop("percentend", 1, true),
	fprop("fps", 0, true),
	iprop("framestart", 0, true),
	iprop("frameend", 0, true),
	fprop("lifeexp", 0, true),
	fprop("mass", 0, true),
	fprop("particlerot", 0, true),
	fprop("randvel", 0, true),
	fprop("sizestart", 1, true),
	fprop("sizemid", -1, true),
	fprop("sizeend", 1, true),
	fprop("sizestart_y", 0, true),
	fprop("sizemid_y", -1, true),
	fprop("sizeend_y", 0, true),
	fprop("spread", 0, true),
	fprop("velocity", 0, true),
	fprop("blurlength", 10, true),
	fprop("detonate", 0, true),
	fprop("targetsize", 0, false),
	iprop("numcontrolpts", 0, false),
	fprop("controlptradius", 0, false),
	fprop("controlptdelay", 0, false),
	fprop("tangentspread", 0, false),
	fprop("tangentlength", 0, false),
}

var emitterPropIndex = func() map[string]int {
	idx := make(map[string]int, len(emitterProps))
	for i, p := range emitterProps {
		idx[p.name] = i
	}
	return idx
}()

// isAnimatableEmitterProp reports whether name is an emitter property that
// can carry keyframes; xsize and ysize belong here too.
func isAnimatableEmitterProp(name string) bool {
	if name == "xsize" || name == "ysize" {
		return true
	}
	i, ok := emitterPropIndex[name]
	return ok && emitterProps[i].animatable
}

// EmitterValue is the value of one emitter property. Text properties use
// Text; numeric ones use Nums.
type EmitterValue struct {
	Text string
	Nums []float32
}

// Emitter is the emitter payload: a table of named properties plus the
// footprint of the emitter mesh.
type Emitter struct {
	XSize, YSize float32
	Props        map[string]EmitterValue
}

func newEmitter() *Emitter {
	e := &Emitter{Props: make(map[string]EmitterValue, len(emitterProps))}
	for _, p := range emitterProps {
		v := EmitterValue{Text: p.text}
		if p.def != nil {
			v.Nums = append([]float32(nil), p.def...)
		}
		e.Props[p.name] = v
	}
	return e
}

// Float returns the first value of a numeric property.
func (e *Emitter) Float(name string) float32 {
	v := e.Props[strings.ToLower(name)]
	if len(v.Nums) == 0 {
		return 0
	}
	return v.Nums[0]
}

// Text returns a text property.
func (e *Emitter) Text(name string) string {
	return e.Props[strings.ToLower(name)].Text
}

// Set assigns numeric values to a property.
func (e *Emitter) Set(name string, values ...float32) {
	e.Props[strings.ToLower(name)] = EmitterValue{Nums: values}
}

// SetText assigns a text property.
func (e *Emitter) SetText(name, text string) {
	e.Props[strings.ToLower(name)] = EmitterValue{Text: text}
}

// Canonical integer codes for the enumerated emitter properties. Labels are
// stored as text on the node; the codes are for hosts that need numbers.
var emitterEnums = map[string][]string{
	"update": {"Fountain", "Single", "Explosion", "Lightning"},
	"render": {"Normal", "Linked", "Billboard_to_Local_Z", "Billboard_to_World_Z",
		"Aligned_to_World_Z", "Aligned_to_Particle_Dir", "Motion_Blur"},
	"blend": {"Normal", "Punch-Through", "Lighten"},
}

// EmitterCode maps an enum label of update, render or blend to its code.
func EmitterCode(prop, label string) (int, bool) {
	for i, l := range emitterEnums[strings.ToLower(prop)] {
		if strings.EqualFold(l, label) {
			return i, true
		}
	}
	return 0, false
}

// EmitterLabel is the inverse of EmitterCode.
func EmitterLabel(prop string, code int) (string, bool) {
	labels := emitterEnums[strings.ToLower(prop)]
	if code < 0 || code >= len(labels) {
		return "", false
	}
	return labels[code], true
}
