package mdl

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func hasWarning(s *Session, substr string) bool {
	for _, w := range s.Warnings {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func parseSample(t *testing.T) (*Model, *Session) {
	t.Helper()
	s := NewSession(DefaultOptions(), nil)
	m, err := ParseFile(filepath.Join("testdata", "sample.mdl"), s)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	return m, s
}

func TestParse_Sample(t *testing.T) {
	m, s := parseSample(t)

	if m.Name != "test_model" {
		t.Errorf("Name = %q", m.Name)
	}
	if m.Supermodel != "" {
		t.Errorf("Supermodel = %q, want empty", m.Supermodel)
	}
	if m.Classification != ClassCharacter {
		t.Errorf("Classification = %v", m.Classification)
	}
	if len(s.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", s.Warnings)
	}

	want := []string{"test_model", "Body", "Cape", "Skin01", "Lamp", "Sparks"}
	if len(m.Nodes) != len(want) {
		t.Fatalf("got %d nodes, want %d", len(m.Nodes), len(want))
	}
	for i, name := range want {
		if m.Nodes[i].Name != name || m.Nodes[i].Index != i {
			t.Errorf("node %d = %q (index %d), want %q", i, m.Nodes[i].Name, m.Nodes[i].Index, name)
		}
	}

	body := m.FindNode("test_model", "body")
	if body == nil || body.Kind != KindTrimesh {
		t.Fatalf("FindNode(body) = %v", body)
	}
	if len(body.Mesh.Verts) != 4 || len(body.Mesh.Faces) != 2 {
		t.Errorf("body mesh: %d verts, %d faces", len(body.Mesh.Verts), len(body.Mesh.Faces))
	}
	if body.Mesh.Material.Textures[0] != "body_tex" {
		t.Errorf("bitmap = %q", body.Mesh.Material.Textures[0])
	}
	if len(body.Mesh.UVLayers) != 1 || len(body.Mesh.UVLayers[0].Coords) != 4 {
		t.Errorf("uv layers = %v", body.Mesh.UVLayers)
	}
	if body.Orientation[3] != 1.5708 {
		t.Errorf("orientation = %v", body.Orientation)
	}

	cape := m.NodeByName("cape")
	if cape.Parent != "body" || cape.Dangly.Period != 2 {
		t.Errorf("cape parent %q period %v", cape.Parent, cape.Dangly.Period)
	}
	if got := cape.Mesh.VertexGroups[ConstraintGroup]; len(got) != 3 || got[2] != 255 {
		t.Errorf("constraints = %v", got)
	}

	skin := m.NodeByName("skin01")
	if len(skin.Skin.Weights) != 3 || len(skin.Skin.Weights[0]) != 2 {
		t.Errorf("weights = %v", skin.Skin.Weights)
	}

	lamp := m.NodeByName("lamp")
	if len(lamp.Light.Flares) != 2 || lamp.Light.Flares[1].Texture != "fxpa_flare2" {
		t.Errorf("flares = %v", lamp.Light.Flares)
	}

	sparks := m.NodeByName("sparks")
	if sparks.Emitter.Text("update") != "Explosion" || sparks.Emitter.Float("birthrate") != 20 {
		t.Errorf("emitter update %q birthrate %v", sparks.Emitter.Text("update"), sparks.Emitter.Float("birthrate"))
	}
	if sparks.Emitter.XSize != 50 {
		t.Errorf("xsize = %v", sparks.Emitter.XSize)
	}

	if len(m.Animations) != 2 {
		t.Fatalf("got %d animations", len(m.Animations))
	}
	walk := m.Animation("walk")
	if walk.Length != 2 || walk.TransTime != 0.25 || walk.Root != "test_model" {
		t.Errorf("walk header = %+v", walk)
	}
	if len(walk.Events) != 1 || walk.Events[0].Name != "hit" {
		t.Errorf("events = %v", walk.Events)
	}
	if tr := walk.Node("body").Material["alpha"]; tr == nil || len(tr.Keys) != 2 {
		t.Errorf("alpha track = %v", tr)
	}
}

func TestParse_ExplicitKeysWinOverBareValue(t *testing.T) {
	m, _ := parseSample(t)

	pos := m.Animation("walk").Node("body").Track("position")
	if pos == nil || len(pos.Keys) != 2 {
		t.Fatalf("position track = %v, want the two explicit keys", pos)
	}
	if pos.Keys[1].Time != 2 || pos.Keys[1].Values[2] != 1 {
		t.Errorf("second key = %v", pos.Keys[1])
	}

	sparks := m.Animation("default").Node("sparks")
	color := sparks.Emitter["colorstart"]
	if color == nil || len(color.Keys) != 1 || color.Keys[0].Time != 0 || color.Keys[0].Values[1] != 1 {
		t.Errorf("bare colorstart = %v, want one key at time 0", color)
	}
	if sparks.Emitter["birthrate"] == nil {
		t.Error("birthrate track routed outside the emitter bucket")
	}
}

func TestParse_BareValueBeforeOrAfterKeys(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare first", "position 9 9 9\npositionkey 1\n0 1 2 3\n"},
		{"bare last", "positionkey 1\n0 1 2 3\nposition 9 9 9\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "newmodel m\nbeginmodelgeom m\nnode dummy m\nparent null\nendnode\nendmodelgeom m\n" +
				"newanim a m\nlength 1\nnode dummy m\nparent null\n" + tt.body + "endnode\ndoneanim a m\ndonemodel m\n"
			m, err := Parse([]byte(src), nil)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			keys := m.Animations[0].Node("m").Track("position").Keys
			if len(keys) != 1 || keys[0].Values[0] != 1 {
				t.Errorf("keys = %v, want the explicit key", keys)
			}
		})
	}
}

func TestParse_UnderCountTable(t *testing.T) {
	src := "newmodel m\nbeginmodelgeom m\nnode trimesh t\nparent null\nverts 10\n" +
		strings.Repeat("1 2 3\n", 7) + "faces 0\nendnode\nendmodelgeom m\ndonemodel m\n"
	s := NewSession(DefaultOptions(), nil)
	m, err := Parse([]byte(src), s)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := len(m.Nodes[0].Mesh.Verts); got != 7 {
		t.Errorf("got %d verts, want 7", got)
	}
	if !hasWarning(s, "declares 10 rows, read 7") {
		t.Errorf("missing under-count warning, got %v", s.Warnings)
	}
}

func TestParse_StructuralErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantLine int
		wantKind error
	}{
		{
			name:     "nested node",
			src:      "newmodel m\nbeginmodelgeom m\nnode dummy a\nparent null\nnode dummy b\nendnode\nendnode\n",
			wantLine: 4,
		},
		{
			name:     "node without endnode",
			src:      "newmodel m\nbeginmodelgeom m\nnode dummy a\nparent null\n",
			wantLine: 2,
		},
		{
			name:     "unknown kind",
			src:      "newmodel m\nbeginmodelgeom m\nnode widget a\nendnode\n",
			wantLine: 2,
			wantKind: ErrUnknownKind,
		},
		{
			name:     "newanim inside newanim",
			src:      "newmodel m\nbeginmodelgeom m\nendmodelgeom m\nnewanim a m\nlength 1\nnewanim b m\nlength 1\ndoneanim b m\n",
			wantLine: 5,
		},
		{
			name:     "newanim without doneanim",
			src:      "newmodel m\nbeginmodelgeom m\nendmodelgeom m\nnewanim a m\nlength 1\n",
			wantLine: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), nil)
			if !errors.Is(err, ErrStructure) {
				t.Fatalf("Parse() error = %v, want ErrStructure", err)
			}
			var serr *StructuralError
			if !errors.As(err, &serr) {
				t.Fatalf("error %T is not a *StructuralError", err)
			}
			if serr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", serr.Line, tt.wantLine)
			}
			if tt.wantKind != nil && !errors.Is(err, tt.wantKind) {
				t.Errorf("error %v does not wrap %v", err, tt.wantKind)
			}
		})
	}
}

func TestParse_Binary(t *testing.T) {
	_, err := Parse([]byte{0, 0, 0, 0, 12, 0, 0, 0}, nil)
	if !errors.Is(err, ErrBinaryModel) {
		t.Errorf("Parse() error = %v, want ErrBinaryModel", err)
	}
	if IsBinary([]byte("newmodel")) {
		t.Error("ascii text detected as binary")
	}
	if IsBinary([]byte{0, 0}) {
		t.Error("short input detected as binary")
	}
}

func TestParse_Tolerance(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		warning string
	}{
		{"missing newmodel", "beginmodelgeom m\nendmodelgeom m\ndonemodel m\n", "missing newmodel"},
		{"duplicate node", "newmodel m\nbeginmodelgeom m\nnode dummy a\nendnode\nnode dummy A\nendnode\nendmodelgeom m\n", "duplicate node"},
		{"missing value", "newmodel m\nbeginmodelgeom m\nnode dummy a\nscale\nendnode\nendmodelgeom m\n", "missing value"},
		{"short vector", "newmodel m\nbeginmodelgeom m\nnode dummy a\nposition 1 2\nendnode\nendmodelgeom m\n", "expected 3 values"},
		{"no geometry", "newmodel m\ndonemodel m\n", "no geometry"},
		{"bad classification", "newmodel m\nclassification spaceship\nbeginmodelgeom m\nendmodelgeom m\n", "unknown classification"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(DefaultOptions(), nil)
			if _, err := Parse([]byte(tt.src), s); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !hasWarning(s, tt.warning) {
				t.Errorf("warnings %v do not mention %q", s.Warnings, tt.warning)
			}
		})
	}
}

func geomSrc(body string) string {
	return "newmodel m\nbeginmodelgeom m\n" + body + "endmodelgeom m\ndonemodel m\n"
}

func animSrc(body string) string {
	return "newmodel m\nbeginmodelgeom m\nnode dummy a\nparent null\nendnode\nendmodelgeom m\n" +
		"newanim idle m\nlength 1\nnode dummy a\nparent null\n" + body + "endnode\ndoneanim idle m\ndonemodel m\n"
}

func TestParse_RowCounts(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		warning string
	}{
		{"negative tverts", geomSrc("node trimesh a\nparent null\ntverts -1\n0 0 0\nendnode\n"), "negative row count"},
		{"negative verts", geomSrc("node trimesh a\nparent null\nverts -1\nendnode\n"), "negative row count"},
		{"negative constraints", geomSrc("node danglymesh a\nparent null\nconstraints -3\nendnode\n"), "negative row count"},
		{"huge tverts", geomSrc("node trimesh a\nparent null\ntverts 3000000000\n0.5 0.5 0\nendnode\n"), "declares 3000000000 rows, read 1"},
		{"overflowing tverts", geomSrc("node trimesh a\nparent null\ntverts 1e30\nendnode\n"), "row"},
		{"huge constraints", geomSrc("node danglymesh a\nparent null\nconstraints 3000000000\n1\nendnode\n"), "declares 3000000000 rows, read 1"},
		{"negative animverts", animSrc("animverts -2\n0 0 0\n"), "negative row count"},
		{"negative animtverts", animSrc("animtverts -2\n"), "negative row count"},
		{"negative positionkey", animSrc("positionkey -1\n0 1 2 3\n"), "negative row count"},
		{"huge animverts", animSrc("animverts 3000000000\n1 2 3\n"), "declares 3000000000 rows, read 1"},
		{"huge orientationkey", animSrc("orientationkey 1e30\n0 0 0 1 0\n"), "row"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(DefaultOptions(), nil)
			if _, err := Parse([]byte(tt.src), s); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !hasWarning(s, tt.warning) {
				t.Errorf("warnings %v do not mention %q", s.Warnings, tt.warning)
			}
		})
	}
}

func TestParse_KeysWithoutCount(t *testing.T) {
	s := NewSession(DefaultOptions(), nil)
	m, err := Parse([]byte(animSrc("positionkey\n0 1 2 3\n1 4 5 6\nendlist\norientation 0 0 1 0.5\n")), s)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	n := m.Animation("idle").Node("a")
	track := n.Track("position")
	if track == nil || len(track.Keys) != 2 {
		t.Fatalf("position track = %+v, want 2 keys", track)
	}
	if got := track.Keys[1]; got.Time != 1 || got.Values[2] != 6 {
		t.Errorf("second key = %+v", got)
	}
	if n.Track("orientation") == nil {
		t.Error("line after endlist was not parsed")
	}
	if len(s.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", s.Warnings)
	}
}

func TestParse_UnknownFieldsIgnored(t *testing.T) {
	src := "newmodel m\nbeginmodelgeom m\nnode trimesh a\nparent null\nsomethingnew 1 2 3\ncenter 0 0 0\nscale 2\nendnode\nendmodelgeom m\n"
	s := NewSession(DefaultOptions(), nil)
	m, err := Parse([]byte(src), s)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Nodes[0].Scale != 2 {
		t.Errorf("scale = %v, want 2", m.Nodes[0].Scale)
	}
	if len(s.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", s.Warnings)
	}
}

func TestParse_Windows1252(t *testing.T) {
	// 0xE9 is e-acute in Windows-1252 and invalid on its own in UTF-8.
	src := []byte("newmodel m\nbeginmodelgeom m\nnode dummy caf\xe9\nendnode\nendmodelgeom m\n")
	m, err := Parse(src, nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if m.Nodes[0].Name != "café" {
		t.Errorf("name = %q, want café", m.Nodes[0].Name)
	}
}

func TestParseWalkmesh(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "door.dwk"))
	if err != nil {
		t.Fatal(err)
	}
	nodes, err := ParseWalkmesh(data, nil)
	if err != nil {
		t.Fatalf("ParseWalkmesh() error = %v", err)
	}
	if len(nodes) != 2 || nodes[1].Mesh.Faces[0].Material != 1 {
		t.Errorf("nodes = %v", nodes)
	}
}

func TestParseFile_DefaultName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c_orc.mdl")
	if err := os.WriteFile(path, []byte("beginmodelgeom x\nendmodelgeom x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ParseFile(path, nil)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if m.Name != "c_orc" {
		t.Errorf("Name = %q, want c_orc", m.Name)
	}
}
