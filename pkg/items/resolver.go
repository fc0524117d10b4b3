package items

import "strings"

// roleBySubCategory maps a weapon's shop subcategory to the loadout role
// it signals, grounded on original_source/domain/item_resolver.py's
// ROLE_BY_SUBCATEGORY table.
var roleBySubCategory = map[string]string{
	"holystaff":   "heal",
	"naturestaff": "heal",
	"mace":        "tank",
	"hammer":      "tank",
	"quarterstaff": "tank",
	"arcanestaff": "tank",
}

// weaponSubCategories are every subcategory item_resolver.py recognizes
// as a weapon, independent of the role it implies: anything in this set
// that isn't a healer/tank weapon signals "dps".
var weaponSubCategories = map[string]struct{}{
	"holystaff": {}, "naturestaff": {}, "mace": {}, "hammer": {},
	"quarterstaff": {}, "arcanestaff": {}, "spear": {}, "sword": {},
	"bow": {}, "crossbow": {}, "firestaff": {}, "froststaff": {},
	"cursestaff": {}, "dagger": {}, "axe": {}, "knuckles": {},
	"shapeshifterstaff": {},
}

// subCategoryPatterns infers a subcategory from a weapon's unique name
// when the item database itself carries none, in priority order.
var subCategoryPatterns = []struct {
	token       string
	subCategory string
}{
	{"HOLYSTAFF", "holystaff"},
	{"NATURESTAFF", "naturestaff"},
	{"ARCANESTAFF", "arcanestaff"},
	{"MACE", "mace"},
	{"HAMMER", "hammer"},
	{"QUARTERSTAFF", "quarterstaff"},
	{"SPEAR", "spear"},
	{"SWORD", "sword"},
	{"BOW", "bow"},
	{"CROSSBOW", "crossbow"},
	{"FIRESTAFF", "firestaff"},
	{"FROSTSTAFF", "froststaff"},
	{"CURSESTAFF", "cursestaff"},
	{"DAGGER", "dagger"},
	{"AXE", "axe"},
	{"KNUCKLES", "knuckles"},
	{"SHAPESHIFTERSTAFF", "shapeshifterstaff"},
}

// Resolver infers a player's combat role (heal, tank, or dps) from the
// mainhand weapon in their observed equipment, backed by an ItemDatabase
// for unique-name/subcategory lookups. Grounded on
// original_source/domain/item_resolver.py's ItemResolver.role_for_items.
type Resolver struct {
	db *ItemDatabase
}

// NewResolver wraps an ItemDatabase with role-inference logic.
func NewResolver(db *ItemDatabase) *Resolver {
	return &Resolver{db: db}
}

// RoleForItems inspects an equipment list (as carried by a name
// registry's equipment fingerprint) and returns the mainhand weapon's
// inferred role, if any could be determined.
func (r *Resolver) RoleForItems(itemIDs []int32) (string, bool) {
	unique, ok := r.mainhandUnique(itemIDs)
	if !ok {
		return "", false
	}

	subcategory := r.subCategoryFor(unique)
	if subcategory == "" {
		return "", false
	}

	if role, ok := roleBySubCategory[subcategory]; ok {
		return role, true
	}
	if _, ok := weaponSubCategories[subcategory]; ok {
		return "dps", true
	}
	return "", false
}

func (r *Resolver) mainhandUnique(itemIDs []int32) (string, bool) {
	for _, id := range itemIDs {
		if id <= 0 {
			continue
		}
		if info, ok := r.db.GetByID(int(id)); ok && info.UniqueName != "" {
			return info.UniqueName, true
		}
	}
	return "", false
}

func (r *Resolver) subCategoryFor(unique string) string {
	if info, ok := r.db.GetByUniqueName(unique); ok && info.SubCategory != "" {
		return info.SubCategory
	}
	return inferSubCategoryFromUnique(unique)
}

func inferSubCategoryFromUnique(unique string) string {
	upper := strings.ToUpper(unique)
	for _, p := range subCategoryPatterns {
		if strings.Contains(upper, p.token) {
			return p.subCategory
		}
	}
	return ""
}
