package items

import "testing"

func newTestDB() *ItemDatabase {
	return &ItemDatabase{
		items:     make(map[string]ItemInfo),
		itemsByID: make(map[int]ItemInfo),
	}
}

func TestRoleForItemsFromCatalogSubCategory(t *testing.T) {
	db := newTestDB()
	db.itemsByID[10] = ItemInfo{UniqueName: "T6_MAIN_HOLYSTAFF"}
	db.items["T6_MAIN_HOLYSTAFF"] = ItemInfo{UniqueName: "T6_MAIN_HOLYSTAFF", SubCategory: "holystaff"}

	r := NewResolver(db)
	role, ok := r.RoleForItems([]int32{10, -1, 0})
	if !ok || role != "heal" {
		t.Fatalf("expected heal role, got %q (ok=%v)", role, ok)
	}
}

func TestRoleForItemsFallsBackToNameHeuristic(t *testing.T) {
	db := newTestDB()
	db.itemsByID[20] = ItemInfo{UniqueName: "T7_2H_DUALAXE"}

	r := NewResolver(db)
	role, ok := r.RoleForItems([]int32{20})
	if !ok || role != "dps" {
		t.Fatalf("expected dps role inferred from AXE token, got %q (ok=%v)", role, ok)
	}
}

func TestRoleForItemsUnknownSubCategory(t *testing.T) {
	db := newTestDB()
	db.itemsByID[30] = ItemInfo{UniqueName: "T4_BAG"}

	r := NewResolver(db)
	if _, ok := r.RoleForItems([]int32{30}); ok {
		t.Errorf("expected no role for a non-weapon item")
	}
}

func TestRoleForItemsSkipsNonPositiveIDs(t *testing.T) {
	r := NewResolver(newTestDB())
	if _, ok := r.RoleForItems([]int32{0, -5}); ok {
		t.Errorf("expected no role when no positive item id is present")
	}
}
