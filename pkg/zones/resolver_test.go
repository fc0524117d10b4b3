package zones

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNameForIndexExactMatch(t *testing.T) {
	r := NewResolver()
	r.indexToName["0123"] = "Thetford"

	name, ok := r.NameForIndex("0123")
	if !ok || name != "Thetford" {
		t.Fatalf("expected Thetford, got %q (ok=%v)", name, ok)
	}
}

func TestNameForIndexSpecialMapTypeFallback(t *testing.T) {
	r := NewResolver()
	name, ok := r.NameForIndex("T4_MAIN@RANDOMDUNGEON@1")
	if !ok || name != "Dungeon" {
		t.Fatalf("expected Dungeon fallback, got %q (ok=%v)", name, ok)
	}
}

func TestNameForIndexUnknownReturnsFalse(t *testing.T) {
	r := NewResolver()
	if _, ok := r.NameForIndex("totally-unknown"); ok {
		t.Errorf("expected no match for an unrecognized index")
	}
}

func TestNameForIndexEmptyReturnsFalse(t *testing.T) {
	r := NewResolver()
	if _, ok := r.NameForIndex(""); ok {
		t.Errorf("expected no match for an empty index")
	}
}

func TestLoadFromFileObjectForm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map_index.json")
	if err := os.WriteFile(path, []byte(`{"42": "Caerleon"}`), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	r := NewResolver()
	if err := r.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	name, ok := r.NameForIndex("42")
	if !ok || name != "Caerleon" {
		t.Fatalf("expected Caerleon, got %q (ok=%v)", name, ok)
	}
}

func TestLoadFromFileListForm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map_index.json")
	content := `[{"index": "7", "name": "Bridgewatch"}, {"other": "skip"}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	r := NewResolver()
	if err := r.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	name, ok := r.NameForIndex("7")
	if !ok || name != "Bridgewatch" {
		t.Fatalf("expected Bridgewatch, got %q (ok=%v)", name, ok)
	}
}
