// Package identity resolves Photon entity ids to player names, fusing
// several independent signals the game broadcasts: direct id/name
// bindings, guid/name bindings routed through a party roster, and a
// weaker equipment-fingerprint vote when nothing else is available.
package identity

import (
	"github.com/albiondps/meter/pkg/events"
	"github.com/albiondps/meter/pkg/photon"
	"github.com/albiondps/meter/pkg/protocol16"
)

// EntityID is a zone-scoped entity identifier, reused across zones.
type EntityID = int32

// Registry accumulates id/name and guid/name bindings observed from the
// decoded message stream. It is not safe for concurrent use; callers
// serialize access the same way the rest of the pipeline core does.
type Registry struct {
	names     map[EntityID]string
	guidNames map[protocol16.GUID]string
	idGuids   map[EntityID]protocol16.GUID

	strongNameIDs map[string]map[EntityID]struct{}
	weakNameIDs   map[string]map[EntityID]struct{}
	strongIDNames map[EntityID]string

	itemNames   map[int32]map[string]struct{}
	entityItems map[EntityID][]int32
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		names:         make(map[EntityID]string),
		guidNames:     make(map[protocol16.GUID]string),
		idGuids:       make(map[EntityID]protocol16.GUID),
		strongNameIDs: make(map[string]map[EntityID]struct{}),
		weakNameIDs:   make(map[string]map[EntityID]struct{}),
		strongIDNames: make(map[EntityID]string),
		itemNames:     make(map[int32]map[string]struct{}),
		entityItems:   make(map[EntityID][]int32),
	}
}

// Observe feeds a decoded message into the registry. Only the wire
// event code the name registry cares about has any effect.
func (r *Registry) Observe(msg photon.Message) {
	if msg.Kind != photon.KindEvent || int(msg.Code) != events.NameEventCode {
		return
	}
	r.applyEvent(msg.Params)
}

// Snapshot returns every entity id this registry currently has a name
// for, resolving guid-linked ids that never got a direct binding.
func (r *Registry) Snapshot() map[EntityID]string {
	merged := make(map[EntityID]string, len(r.names))
	for id, name := range r.names {
		merged[id] = name
	}
	for id, guid := range r.idGuids {
		if _, ok := merged[id]; ok {
			continue
		}
		if name, ok := r.guidNames[guid]; ok {
			merged[id] = name
		}
	}
	return merged
}

// Lookup resolves a single entity id to a name, if known.
func (r *Registry) Lookup(id EntityID) (string, bool) {
	if name, ok := r.names[id]; ok {
		return name, true
	}
	guid, ok := r.idGuids[id]
	if !ok {
		return "", false
	}
	name, ok := r.guidNames[guid]
	return name, ok
}

// Record binds id to name with strong confidence.
func (r *Registry) Record(id EntityID, name string) {
	r.storeName(id, name, false)
}

// RecordWeak binds id to name with weak confidence: it never overrides
// an existing strong binding for a different name.
func (r *Registry) RecordWeak(id EntityID, name string) {
	r.storeName(id, name, true)
}

// SnapshotGuidNames returns a copy of the guid-to-name table.
func (r *Registry) SnapshotGuidNames() map[protocol16.GUID]string {
	out := make(map[protocol16.GUID]string, len(r.guidNames))
	for k, v := range r.guidNames {
		out[k] = v
	}
	return out
}

// SnapshotIDGuids returns a copy of the id-to-guid table.
func (r *Registry) SnapshotIDGuids() map[EntityID]protocol16.GUID {
	out := make(map[EntityID]protocol16.GUID, len(r.idGuids))
	for k, v := range r.idGuids {
		out[k] = v
	}
	return out
}

// ItemsFor returns the last known equipped item ids for an entity, or
// nil if none have been observed.
func (r *Registry) ItemsFor(id EntityID) []int32 {
	items := r.entityItems[id]
	if len(items) == 0 {
		return nil
	}
	out := make([]int32, len(items))
	copy(out, items)
	return out
}

func (r *Registry) applyEvent(params protocol16.ParamTable) {
	r.applyPartyRoster(params)
	r.applyGuidLink(params)

	subtype, hasSubtype := paramInt32(params, events.NameSubtypeKey)

	if hasSubtype && subtype == events.NameSubtypeEntityName {
		if name, ok := paramString(params, events.NameSubtypeEntityNameKey); ok && name != "" {
			r.store(params[events.NameSubtypeEntityIDKey], name)
			r.store(params[events.NameSubtypeEntityAltIDKey], name)
		}
	}
	if hasSubtype && subtype == events.NameSubtypeUnitInfo {
		if name, ok := paramString(params, events.NameSubtypeUnitNameKey); ok && name != "" {
			r.store(params[events.NameSubtypeEntityIDKey], name)
		}
	}
	if hasSubtype && subtype == events.NameSubtypeCharacterInfo {
		if name, ok := paramString(params, events.NameSubtypeCharacterNameKey); ok && name != "" {
			entityIDVal := params[events.NameSubtypeEntityIDKey]
			r.store(entityIDVal, name)
			if itemID, ok := paramInt32(params, 1); ok {
				if r.itemNames[itemID] == nil {
					r.itemNames[itemID] = make(map[string]struct{})
				}
				r.itemNames[itemID][name] = struct{}{}
				if entityID, ok := asInt32(entityIDVal); ok {
					r.inferNameFromItems(entityID)
				}
				for targetID, items := range r.entityItems {
					if containsInt32(items, itemID) {
						r.inferNameFromItems(targetID)
					}
				}
			}
		}
	}
	if hasSubtype && subtype == events.NameSubtypeEquipment {
		entityID, idOK := paramInt32(params, events.NameEquipmentEntityIDKey)
		items := paramValues(params[events.NameEquipmentItemListKey])
		if idOK && items != nil {
			var filtered []int32
			for _, v := range items {
				if n, ok := asInt32(v); ok && n > 0 {
					filtered = append(filtered, n)
				}
			}
			if len(filtered) > 0 {
				r.entityItems[entityID] = filtered
				r.inferNameFromItems(entityID)
			}
		}
	}
	if hasSubtype && subtype == events.NameSubtypeIDName {
		r.storeWeak(params[events.NameIDKey], params[events.NameSubtypeNameKey])
	}

	rawID := params[events.NameIDKey]
	rawName := params[events.NameValueKey]
	if idList, nameList := paramValues(rawID), paramValues(rawName); idList != nil && nameList != nil {
		n := len(idList)
		if len(nameList) < n {
			n = len(nameList)
		}
		for i := 0; i < n; i++ {
			r.store(idList[i], nameList[i])
		}
		return
	}
	r.store(rawID, rawName)
}

func (r *Registry) applyGuidLink(params protocol16.ParamTable) {
	guid, guidOK := paramGUID(params, events.NameGuidLinkGuidKey)
	entityID, idOK := paramInt32(params, events.NameGuidLinkEntityIDKey)
	if !guidOK || !idOK {
		return
	}
	r.idGuids[entityID] = guid
}

func (r *Registry) applyPartyRoster(params protocol16.ParamTable) {
	subtype, ok := paramInt32(params, events.PartySubtypeKey)
	if !ok {
		return
	}
	var guidsKey, namesKey byte
	switch subtype {
	case events.NamePartyRosterSubtypeA:
		guidsKey, namesKey = events.NamePartyRosterGuidsKeyA, events.NamePartyRosterNamesKeyA
	case events.NamePartyRosterSubtypeB:
		guidsKey, namesKey = events.NamePartyRosterGuidsKeyB, events.NamePartyRosterNamesKeyB
	default:
		return
	}

	guids := paramValues(params[guidsKey])
	names := paramValues(params[namesKey])
	if guids == nil || names == nil {
		return
	}
	n := len(guids)
	if len(names) < n {
		n = len(names)
	}
	for i := 0; i < n; i++ {
		guid, guidOK := asGUID(guids[i])
		name, nameOK := asString(names[i])
		if guidOK && nameOK && name != "" {
			r.guidNames[guid] = name
		}
	}
}

// store mirrors the registry's overloaded binding rule: (id, name),
// (id, guid) and (guid, name) pairs are all valid depending on which of
// entityID/name carry an int, a GUID, or a string.
func (r *Registry) store(entityID, name protocol16.Value) {
	if id, ok := asInt32(entityID); ok {
		if s, ok := asString(name); ok && s != "" {
			r.storeName(id, s, false)
			return
		}
		if g, ok := asGUID(name); ok {
			r.idGuids[id] = g
		}
		return
	}
	if g, ok := asGUID(entityID); ok {
		if s, ok := asString(name); ok && s != "" {
			r.guidNames[g] = s
		}
	}
}

func (r *Registry) storeWeak(entityID, name protocol16.Value) {
	id, idOK := asInt32(entityID)
	s, nameOK := asString(name)
	if idOK && nameOK && s != "" {
		r.storeName(id, s, true)
	}
}

func (r *Registry) storeName(id EntityID, name string, weak bool) {
	if weak {
		if strong, ok := r.strongIDNames[id]; ok && strong != name {
			return
		}
		if strongIDs := r.strongNameIDs[name]; len(strongIDs) > 0 {
			if _, ok := strongIDs[id]; !ok {
				return
			}
		}
		if r.weakNameIDs[name] == nil {
			r.weakNameIDs[name] = make(map[EntityID]struct{})
		}
		r.weakNameIDs[name][id] = struct{}{}
	} else {
		if r.strongNameIDs[name] == nil {
			r.strongNameIDs[name] = make(map[EntityID]struct{})
		}
		r.strongNameIDs[name][id] = struct{}{}
		r.strongIDNames[id] = name

		if weakIDs := r.weakNameIDs[name]; len(weakIDs) > 0 {
			for weakID := range weakIDs {
				if _, stillStrong := r.strongNameIDs[name][weakID]; stillStrong {
					continue
				}
				if r.names[weakID] == name {
					delete(r.names, weakID)
				}
			}
			for weakID := range weakIDs {
				if _, ok := r.strongNameIDs[name][weakID]; !ok {
					delete(weakIDs, weakID)
				}
			}
		}
	}
	r.names[id] = name
}

func (r *Registry) inferNameFromItems(entityID EntityID) {
	items := r.entityItems[entityID]
	if len(items) == 0 {
		return
	}
	counts := make(map[string]int)
	for _, itemID := range items {
		for name := range r.itemNames[itemID] {
			if name == "" {
				continue
			}
			counts[name]++
		}
	}
	if len(counts) == 0 {
		return
	}
	bestName, bestCount, secondCount := topTwoCounts(counts)
	if bestCount < events.NameEquipmentMinMatches {
		return
	}
	if secondCount > 0 && float64(bestCount)/float64(secondCount) < events.NameEquipmentMinRatio {
		return
	}
	if current, ok := r.strongIDNames[entityID]; ok && current != bestName {
		return
	}
	r.storeName(entityID, bestName, false)
}

func topTwoCounts(counts map[string]int) (bestName string, bestCount, secondCount int) {
	for name, count := range counts {
		switch {
		case count > bestCount:
			secondCount = bestCount
			bestCount = count
			bestName = name
		case count > secondCount:
			secondCount = count
		}
	}
	return
}

func containsInt32(haystack []int32, needle int32) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
