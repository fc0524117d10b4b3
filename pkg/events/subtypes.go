package events

// Name registry wire constants.
//
// The name registry listens on one event code and dispatches on a
// "subtype" parameter nested inside that event's own parameter table.
// These numbers are wire contract, not design choices — they come from
// the game's own event layout and must be reproduced exactly.
const (
	NameEventCode = 1

	NameIDKey    = 0
	NameValueKey = 1

	NameSubtypeKey = 252

	NameSubtypeIDName = 275
	NameSubtypeNameKey = 2

	NameSubtypeEntityName       = 166
	NameSubtypeEntityIDKey      = 0
	NameSubtypeEntityAltIDKey   = 4
	NameSubtypeEntityNameKey    = 5

	NameSubtypeUnitInfo   = 29
	NameSubtypeUnitNameKey = 1

	NameSubtypeCharacterInfo   = 30
	NameSubtypeCharacterNameKey = 5

	NameSubtypeEquipment         = 90
	NameEquipmentEntityIDKey     = 0
	NameEquipmentItemListKey     = 2
	NameEquipmentMinMatches      = 3
	NameEquipmentMinRatio        = 2.0
)

// Party roster subtypes carried inside the same NameEventCode event,
// used by the identity registry to learn guid<->name bindings from
// party-roster broadcasts.
const (
	NamePartyRosterSubtypeA   = 229
	NamePartyRosterGuidsKeyA  = 5
	NamePartyRosterNamesKeyA  = 6

	NamePartyRosterSubtypeB  = 227
	NamePartyRosterGuidsKeyB = 12
	NamePartyRosterNamesKeyB = 13

	NameGuidLinkGuidKey     = 3
	NameGuidLinkEntityIDKey = 1
)

// Party registry wire constants, grounded on original_source's
// party_registry.py.
const (
	PartyEventCode   = 1
	PartySubtypeKey  = 252

	CombatTargetSubtype = 21
	CombatTargetAKey    = 0
	CombatTargetBKey    = 1

	TargetRequestOpcode = 1
	TargetRequestIDKey  = 5
)

// PartySubtypeNameKeys maps a party-roster subtype to the parameter key
// holding that roster's member names.
var PartySubtypeNameKeys = map[int32]byte{
	227: 13,
	229: 6,
}

// PartySubtypeIDKeys maps a party-roster subtype to the parameter key
// holding that roster's member entity ids.
var PartySubtypeIDKeys = map[int32]byte{
	209: 0,
	210: 0,
}

// SelfSubtypeNameKeys maps a "this is you" subtype to the parameter key
// holding the observer's own name.
var SelfSubtypeNameKeys = map[int32]byte{
	228: 1,
	238: 0,
}

// Combat-state event, carried on the same event code as regular combat
// events but identified by its own subtype values.
const (
	CombatStateEventCode   = 1
	CombatStateSubtypeKey  = 252
	CombatStateIDKey       = 0
	CombatStateActiveKey   = 1
	CombatStatePassiveKey  = 2
)

// CombatStateSubtypeValues is the set of subtype values that mark a
// combat-state transition event.
var CombatStateSubtypeValues = map[int32]struct{}{
	257: {},
	274: {},
}
