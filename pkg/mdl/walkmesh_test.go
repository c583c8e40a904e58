package mdl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompanionWalkmesh(t *testing.T) {
	tests := []struct {
		class Classification
		want  string
	}{
		{ClassTile, ""},
		{ClassDoor, ".dwk"},
		{ClassCharacter, ".pwk"},
		{ClassOther, ".pwk"},
		{ClassUnknown, ".pwk"},
	}
	for _, tt := range tests {
		t.Run(tt.class.String(), func(t *testing.T) {
			if got := CompanionWalkmesh(tt.class); got != tt.want {
				t.Errorf("CompanionWalkmesh(%v) = %q, want %q", tt.class, got, tt.want)
			}
		})
	}
}

func TestLoadCompanionWalkmesh(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join("testdata", "door.dwk"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "door01.dwk"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	mdlPath := filepath.Join(dir, "door01.mdl")

	door := NewModel("door01")
	door.Classification = ClassDoor
	if err := LoadCompanionWalkmesh(door, mdlPath, nil); err != nil {
		t.Fatalf("LoadCompanionWalkmesh() error = %v", err)
	}
	if len(door.DwkNodes) != 2 || len(door.PwkNodes) != 0 {
		t.Errorf("dwk %d, pwk %d nodes", len(door.DwkNodes), len(door.PwkNodes))
	}

	// Placeables look for a .pwk that does not exist here.
	plc := NewModel("door01")
	plc.Classification = ClassOther
	if err := LoadCompanionWalkmesh(plc, mdlPath, nil); err != nil {
		t.Errorf("missing companion should not fail: %v", err)
	}
	if len(plc.PwkNodes) != 0 {
		t.Errorf("pwk nodes = %d", len(plc.PwkNodes))
	}
}

func TestSerializeWalkmesh(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "door.dwk"))
	if err != nil {
		t.Fatal(err)
	}
	nodes, err := ParseWalkmesh(data, nil)
	if err != nil {
		t.Fatal(err)
	}

	lines := SerializeWalkmesh("door01", nodes, NewSession(quietOptions(), nil))
	if lines[0] != "node dummy door_wg" {
		t.Errorf("first line = %q, want the first node", lines[0])
	}
	for _, l := range lines {
		if strings.HasPrefix(l, "newmodel") || strings.HasPrefix(l, "beginmodelgeom") {
			t.Errorf("walkmesh carries model header line %q", l)
		}
	}
	// The parent lives in the main model and is written as stored.
	if lines[1] != "  parent door01" {
		t.Errorf("parent line = %q", lines[1])
	}

	back, err := ParseWalkmesh(Bytes(lines), nil)
	if err != nil {
		t.Fatalf("ParseWalkmesh(serialized) error = %v", err)
	}
	if len(back) != 2 || len(back[1].Mesh.Faces) != 1 {
		t.Errorf("round trip nodes = %v", back)
	}
}
