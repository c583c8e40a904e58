package mdl

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/auroramdl/pkg/encoding"
)

// mtrColors are the MTR keys carrying an r g b [a] color.
var mtrColors = []string{"diffuse", "specular", "roughness", "selfillumcolor"}

// MtrParameter is a typed shader parameter.
type MtrParameter struct {
	Type   string // int or float
	Name   string
	Values []float32
}

// Mtr is an external material file.
type Mtr struct {
	Name        string
	RenderHints []string
	Textures    [TextureSlots]string
	Colors      map[string][]float32
	Parameters  []MtrParameter

	ShaderVS string
	ShaderFS string
	ShaderGS string
}

// ParseMtr parses MTR text. Lines starting with // or # are comments;
// unknown keys are ignored. Malformed parameter lines are skipped and
// reported through s, which may be nil.
func ParseMtr(data []byte, s *Session) *Mtr {
	text := encoding.DecodeText(encoding.TrimNullBytes(data))
	mtr := &Mtr{Colors: make(map[string][]float32)}
	for _, ln := range Tokenize(text) {
		label := ln.Label()
		if strings.HasPrefix(label, "//") {
			continue
		}
		switch {
		case label == "renderhint":
			if v := ln.Arg(1); v != "" {
				mtr.RenderHints = append(mtr.RenderHints, v)
			}
		case label == "customshadervs":
			mtr.ShaderVS = Identifier(ln.Arg(1))
		case label == "customshaderfs":
			mtr.ShaderFS = Identifier(ln.Arg(1))
		case label == "customshadergs":
			mtr.ShaderGS = Identifier(ln.Arg(1))
		case label == "parameter":
			if len(ln.Tokens) < 3 {
				session(s).warnf(-1, "MTR line %d: parameter needs a type and a name", ln.Index+1)
				continue
			}
			p := MtrParameter{Type: strings.ToLower(ln.Tokens[1]), Name: ln.Tokens[2]}
			for _, tok := range ln.Tokens[3:] {
				p.Values = append(p.Values, ToFloat(tok))
			}
			mtr.Parameters = append(mtr.Parameters, p)
		case strings.HasPrefix(label, "texture"):
			slot, err := strconv.Atoi(strings.TrimPrefix(label, "texture"))
			if err != nil || slot < 0 || slot >= TextureSlots {
				continue
			}
			mtr.Textures[slot] = Identifier(ln.Arg(1))
		case isMtrColor(label):
			mtr.Colors[label] = floatArgs(ln.Tokens[1:], min(len(ln.Tokens)-1, 4))
		}
	}
	return mtr
}

func isMtrColor(label string) bool {
	for _, c := range mtrColors {
		if c == label {
			return true
		}
	}
	return false
}

// Lines writes the material back as MTR text.
func (m *Mtr) Lines() []string {
	var lines []string
	if m.Name != "" {
		lines = append(lines, "// "+m.Name)
	}
	for _, hint := range m.RenderHints {
		lines = append(lines, "renderhint "+hint)
	}
	for _, shader := range []struct{ key, name string }{
		{"customshaderVS", m.ShaderVS},
		{"customshaderFS", m.ShaderFS},
		{"customshaderGS", m.ShaderGS},
	} {
		if shader.name != "" {
			lines = append(lines, shader.key+" "+shader.name)
		}
	}
	for i, tex := range m.Textures {
		if tex != "" {
			lines = append(lines, fmt.Sprintf("texture%d %s", i, tex))
		}
	}
	for _, key := range mtrColors {
		if c, ok := m.Colors[key]; ok {
			lines = append(lines, key+" "+formatFloats(c...))
		}
	}
	for _, p := range m.Parameters {
		values := make([]string, len(p.Values))
		for i, v := range p.Values {
			if p.Type == "int" {
				values[i] = strconv.Itoa(int(v))
			} else {
				values[i] = formatFloat(v)
			}
		}
		lines = append(lines, strings.TrimSpace(fmt.Sprintf("parameter %s %s %s", p.Type, p.Name, strings.Join(values, " "))))
	}
	return lines
}

// MaterialMtr builds an MTR carrying the inline material of a mesh.
func MaterialMtr(name string, m Material) *Mtr {
	mtr := &Mtr{
		Name:        name,
		RenderHints: append([]string(nil), m.RenderHints...),
		Textures:    m.Textures,
		Colors: map[string][]float32{
			"diffuse":        m.Diffuse[:],
			"specular":       m.Specular[:],
			"selfillumcolor": m.SelfIllum[:],
		},
	}
	return mtr
}

// MtrCache loads MTR files by name from a list of directories. Misses are
// cached too, so a missing file is looked up and reported once. A cache
// belongs to one session and is not safe for concurrent use.
type MtrCache struct {
	Dirs    []string
	entries map[string]*Mtr
}

// NewMtrCache creates a cache searching dirs in order.
func NewMtrCache(dirs ...string) *MtrCache {
	return &MtrCache{Dirs: dirs, entries: make(map[string]*Mtr)}
}

// Put stores a material under name.
func (c *MtrCache) Put(name string, m *Mtr) {
	if c.entries == nil {
		c.entries = make(map[string]*Mtr)
	}
	c.entries[strings.ToLower(name)] = m
}

// Get returns the named material, loading it on first use. It returns nil
// when no directory holds a readable file; the miss is reported through s.
func (c *MtrCache) Get(name string, s *Session) *Mtr {
	key := strings.ToLower(name)
	if c.entries == nil {
		c.entries = make(map[string]*Mtr)
	}
	if m, ok := c.entries[key]; ok {
		return m
	}
	m, err := c.load(key, s)
	if err != nil {
		session(s).warnf(-1, "material %q: %v", name, err)
	}
	c.entries[key] = m
	return m
}

func (c *MtrCache) load(name string, s *Session) (*Mtr, error) {
	for _, dir := range c.Dirs {
		data, err := os.ReadFile(filepath.Join(dir, name+".mtr"))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading MTR file: %w", err)
		}
		m := ParseMtr(data, s)
		m.Name = name
		return m, nil
	}
	return nil, fmt.Errorf("no %s.mtr in %d search directories", name, len(c.Dirs))
}
