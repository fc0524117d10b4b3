package identity

import (
	"testing"

	"github.com/albiondps/meter/pkg/events"
	"github.com/albiondps/meter/pkg/photon"
	"github.com/albiondps/meter/pkg/protocol16"
)

func nameEvent(params protocol16.ParamTable) photon.Message {
	return photon.Message{Kind: photon.KindEvent, Code: byte(events.NameEventCode), Params: params}
}

func TestObserveDirectBinding(t *testing.T) {
	r := NewRegistry()
	r.Observe(nameEvent(protocol16.ParamTable{
		events.NameIDKey:    int32(7),
		events.NameValueKey: "Hero",
	}))

	name, ok := r.Lookup(7)
	if !ok || name != "Hero" {
		t.Fatalf("expected Hero, got %q (ok=%v)", name, ok)
	}
}

func TestWeakBindingDoesNotOverrideStrong(t *testing.T) {
	r := NewRegistry()
	r.Record(7, "Hero")
	r.RecordWeak(7, "Impostor")

	name, _ := r.Lookup(7)
	if name != "Hero" {
		t.Errorf("weak binding overrode strong binding: got %q", name)
	}
}

func TestIgnoresOtherEventCodes(t *testing.T) {
	r := NewRegistry()
	r.Observe(photon.Message{
		Kind: photon.KindEvent,
		Code: 99,
		Params: protocol16.ParamTable{
			events.NameIDKey:    int32(7),
			events.NameValueKey: "Hero",
		},
	})
	if _, ok := r.Lookup(7); ok {
		t.Errorf("expected no binding from an unrelated event code")
	}
}

func TestPartyRosterGuidNameThenGuidLink(t *testing.T) {
	r := NewRegistry()

	var guid protocol16.GUID
	for i := range guid {
		guid[i] = byte(i + 1)
	}

	r.Observe(nameEvent(protocol16.ParamTable{
		events.NameSubtypeKey: int16(events.NamePartyRosterSubtypeA),
		events.NamePartyRosterGuidsKeyA: &protocol16.Array{
			ElemType: protocol16.TypeByteArray,
			Items:    []protocol16.Value{guid},
		},
		events.NamePartyRosterNamesKeyA: &protocol16.Array{
			ElemType: protocol16.TypeString,
			Items:    []protocol16.Value{"Hero"},
		},
	}))

	r.Observe(nameEvent(protocol16.ParamTable{
		events.NameGuidLinkGuidKey:     guid,
		events.NameGuidLinkEntityIDKey: int32(42),
	}))

	name, ok := r.Lookup(42)
	if !ok || name != "Hero" {
		t.Fatalf("expected guid-linked lookup to resolve to Hero, got %q (ok=%v)", name, ok)
	}
}

func TestEquipmentFingerprintInfersName(t *testing.T) {
	r := NewRegistry()

	r.Observe(nameEvent(protocol16.ParamTable{
		events.NameSubtypeKey:           int16(events.NameSubtypeEquipment),
		events.NameEquipmentEntityIDKey: int32(99),
		events.NameEquipmentItemListKey: []int32{101, 102, 103},
	}))

	for _, itemID := range []int32{101, 102, 103} {
		r.Observe(nameEvent(protocol16.ParamTable{
			events.NameSubtypeKey:              int16(events.NameSubtypeCharacterInfo),
			events.NameSubtypeEntityIDKey:       int32(500),
			events.NameSubtypeCharacterNameKey:  "Hero",
			1:                                   itemID,
		}))
	}

	name, ok := r.Lookup(99)
	if !ok || name != "Hero" {
		t.Fatalf("expected equipment-fingerprint inference to resolve to Hero, got %q (ok=%v)", name, ok)
	}
}

func TestEquipmentFingerprintBelowThresholdDoesNothing(t *testing.T) {
	r := NewRegistry()

	r.Observe(nameEvent(protocol16.ParamTable{
		events.NameSubtypeKey:           int16(events.NameSubtypeEquipment),
		events.NameEquipmentEntityIDKey: int32(99),
		events.NameEquipmentItemListKey: []int32{101, 102, 103},
	}))

	// Only two matches: below NameEquipmentMinMatches (3).
	for _, itemID := range []int32{101, 102} {
		r.Observe(nameEvent(protocol16.ParamTable{
			events.NameSubtypeKey:             int16(events.NameSubtypeCharacterInfo),
			events.NameSubtypeEntityIDKey:      int32(500),
			events.NameSubtypeCharacterNameKey: "Hero",
			1:                                  itemID,
		}))
	}

	if _, ok := r.Lookup(99); ok {
		t.Errorf("expected no inferred name below the match threshold")
	}
}

func TestItemsFor(t *testing.T) {
	r := NewRegistry()
	r.Observe(nameEvent(protocol16.ParamTable{
		events.NameSubtypeKey:           int16(events.NameSubtypeEquipment),
		events.NameEquipmentEntityIDKey: int32(5),
		events.NameEquipmentItemListKey: []int32{1, 2, 3},
	}))

	items := r.ItemsFor(5)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %v", items)
	}
}
