// Package zones resolves a zone's wire-level map index string to a
// human-readable display name for zone-mode session labels.
package zones

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// specialMapTypes covers index tokens that never carry a friendly name
// in a map index file (procedurally-named dungeons, hideouts, islands),
// grounded verbatim on original_source/domain/map_resolver.py's
// SPECIAL_MAP_TYPES table.
var specialMapTypes = map[string]string{
	"ISLAND":            "Island",
	"HIDEOUT":           "Hideout",
	"RANDOMDUNGEON":     "Dungeon",
	"CORRUPTEDDUNGEON":  "Corrupted Dungeon",
	"HELLCLUSTER":       "Hellgate",
	"MISTSDUNGEON":      "Mists Dungeon",
	"MISTS":             "Mists",
	"HELLDUNGEON":       "Abyssal Depths",
	"EXPEDITION":        "Expedition",
	"ARENA":             "Arena",
}

// Resolver translates a zone's map index string into a display name,
// preferring an exact entry from a loaded index file and otherwise
// falling back to the special-map-type token table.
type Resolver struct {
	mu          sync.RWMutex
	indexToName map[string]string
}

// NewResolver returns an empty Resolver; NameForIndex still works via
// the special-map-type fallback even with nothing loaded.
func NewResolver() *Resolver {
	return &Resolver{indexToName: make(map[string]string)}
}

// LoadFromFile loads a zone-index JSON file, either a flat
// `{"<index>": "<name>", ...}` object or a list of records carrying
// index/name pairs under any of the teacher's ao-bin-dumps-style key
// spellings.
func (r *Resolver) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read map index file: %w", err)
	}

	mapping, err := parseMapIndex(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range mapping {
		r.indexToName[k] = v
	}
	return nil
}

// LoadFromPath tries common map-index file locations under basePath.
func (r *Resolver) LoadFromPath(basePath string) error {
	candidates := []string{
		filepath.Join(basePath, "map_index.json"),
		filepath.Join(basePath, "ao-bin-dumps", "map_index.json"),
		"map_index.json",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return r.LoadFromFile(path)
		}
	}
	return fmt.Errorf("map_index.json not found in any of the expected locations")
}

// NameForIndex resolves a zone's map index string to a display name. An
// empty index, or one this Resolver cannot place, returns ("", false).
func (r *Resolver) NameForIndex(index string) (string, bool) {
	if index == "" {
		return "", false
	}

	r.mu.RLock()
	name, ok := r.indexToName[index]
	r.mu.RUnlock()
	if ok {
		return name, true
	}

	for _, token := range strings.Split(index, "@") {
		if token == "" {
			continue
		}
		if name, ok := specialMapTypes[strings.ToUpper(token)]; ok {
			return name, true
		}
	}
	return "", false
}

func parseMapIndex(data []byte) (map[string]string, error) {
	var asObject map[string]string
	if err := json.Unmarshal(data, &asObject); err == nil {
		return asObject, nil
	}

	var asList []map[string]interface{}
	if err := json.Unmarshal(data, &asList); err != nil {
		return nil, fmt.Errorf("failed to parse map index JSON: %w", err)
	}

	mapping := make(map[string]string, len(asList))
	for _, record := range asList {
		idx := firstString(record, "index", "Index", "@id", "id")
		name := firstString(record, "name", "Name", "@displayname", "displayname")
		if idx != "" && name != "" {
			mapping[idx] = name
		}
	}
	return mapping, nil
}

func firstString(record map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := record[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
