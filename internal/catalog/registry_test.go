package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gravitas-games/stockpile/pkg/models"
)

func TestRegistryResolveByVersion(t *testing.T) {
	reg := Sample()
	def, ok := reg.Resolve("water", 1)
	if !ok || def.Name != "Purified Water" {
		t.Fatalf("expected purified water at version 1, got %+v ok=%v", def, ok)
	}
	if _, ok := reg.Resolve("water", 2); ok {
		t.Fatalf("expected unknown version to miss")
	}
	if _, ok := reg.Resolve("unknown", 0); ok {
		t.Fatalf("expected unknown type to miss")
	}
	if got := reg.Versions("water"); len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("unexpected versions %v", got)
	}
}

func TestRegistryResolveReturnsCopy(t *testing.T) {
	reg := Sample()
	def, _ := reg.Resolve("bandage", 0)
	*def.MaxStack = 1
	again, _ := reg.Resolve("bandage", 0)
	if *again.MaxStack != 20 {
		t.Fatalf("registry state leaked through Resolve: max stack %d", *again.MaxStack)
	}
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()
	zero := 0
	neg := -1.0
	bad := []models.ItemDefinition{
		{},
		{ID: "a", Version: -1},
		{ID: "a", MaxStack: &zero},
		{ID: "a", WeightPerUnit: &neg},
	}
	for i, def := range bad {
		if err := reg.Register(def); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", reg.Len())
	}
}

func TestExportSorted(t *testing.T) {
	out := Sample().Export()
	for i := 1; i < len(out); i++ {
		prev, cur := out[i-1], out[i]
		if prev.ID > cur.ID || (prev.ID == cur.ID && prev.Version >= cur.Version) {
			t.Fatalf("export not sorted at %d: %s@%d then %s@%d", i, prev.ID, prev.Version, cur.ID, cur.Version)
		}
	}
}

func TestParseCatalog(t *testing.T) {
	doc := []byte(`
items:
  - id: bandage
    name: Bandage
    stackable: true
    max_stack: 20
    weight: 0.1
  - id: pistol
    version: 2
    weight: 1.2
`)
	reg, err := Parse(doc)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	bandage, ok := reg.Resolve("bandage", 0)
	if !ok || !bandage.Stackable || bandage.MaxStack == nil || *bandage.MaxStack != 20 {
		t.Fatalf("unexpected bandage definition %+v", bandage)
	}
	pistol, ok := reg.Resolve("pistol", 2)
	if !ok || pistol.Stackable || pistol.MaxStack != nil || *pistol.WeightPerUnit != 1.2 {
		t.Fatalf("unexpected pistol definition %+v", pistol)
	}
}

func TestParseRejectsDuplicatesAndInvalid(t *testing.T) {
	dup := []byte("items:\n  - id: a\n  - id: a\n")
	if _, err := Parse(dup); err == nil {
		t.Fatalf("expected duplicate error")
	}
	invalid := []byte("items:\n  - id: a\n    max_stack: 0\n")
	if _, err := Parse(invalid); err == nil {
		t.Fatalf("expected max_stack error")
	}
	if _, err := Parse([]byte("items: [")); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")
	if err := os.WriteFile(path, []byte("items:\n  - id: scrap\n    stackable: true\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	reg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if _, ok := reg.Resolve("scrap", 0); !ok {
		t.Fatalf("expected scrap to resolve")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestShippedCatalogMatchesSample(t *testing.T) {
	reg, err := Load(filepath.Join("..", "..", "configs", "items.yaml"))
	if err != nil {
		t.Fatalf("failed to load shipped catalog: %v", err)
	}
	sample := Sample().Export()
	shipped := reg.Export()
	if len(shipped) != len(sample) {
		t.Fatalf("expected %d definitions, got %d", len(sample), len(shipped))
	}
	for i := range sample {
		if shipped[i].ID != sample[i].ID || shipped[i].Version != sample[i].Version || shipped[i].Stackable != sample[i].Stackable {
			t.Fatalf("definition %d differs: %+v vs %+v", i, shipped[i], sample[i])
		}
	}
}
