package combat

import (
	"testing"

	"github.com/albiondps/meter/pkg/photon"
	"github.com/albiondps/meter/pkg/protocol16"
)

func TestMapDamageEvent(t *testing.T) {
	m := NewMapper()
	msg := photon.Message{
		Kind: photon.KindEvent,
		Code: m.EventCode,
		Params: protocol16.ParamTable{
			m.SubtypeKey: int32(3),
			m.SourceKey:  int32(7),
			m.TargetKey:  int32(99),
			m.AmountKey:  float64(120),
		},
	}

	events := m.Map(msg, 1.0)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Kind != KindDamage || ev.SourceID != 7 || ev.TargetID != 99 || ev.Amount != 120 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestMapNegativeDamageBecomesHeal(t *testing.T) {
	m := NewMapper()
	msg := photon.Message{
		Kind: photon.KindEvent,
		Code: m.EventCode,
		Params: protocol16.ParamTable{
			m.SubtypeKey: int32(3),
			m.SourceKey:  int32(7),
			m.TargetKey:  int32(99),
			m.AmountKey:  float64(-50),
		},
	}

	events := m.Map(msg, 1.0)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Kind != KindHeal || events[0].Amount != 50 {
		t.Errorf("expected heal of 50, got %+v", events[0])
	}
}

func TestMapOverkillDropped(t *testing.T) {
	m := NewMapper()
	msg := photon.Message{
		Kind: photon.KindEvent,
		Code: m.EventCode,
		Params: protocol16.ParamTable{
			m.SubtypeKey: int32(3),
			m.SourceKey:  int32(7),
			m.TargetKey:  int32(99),
			m.AmountKey:  float64(1e9),
		},
	}

	if events := m.Map(msg, 1.0); len(events) != 0 {
		t.Errorf("expected overkill damage to be dropped, got %v", events)
	}
}

func TestMapMultiTarget(t *testing.T) {
	m := NewMapper()
	msg := photon.Message{
		Kind: photon.KindEvent,
		Code: m.EventCode,
		Params: protocol16.ParamTable{
			m.SubtypeKey:  int32(5),
			m.SourceKey:   int32(7),
			m.TargetsKey:  []int32{10, 11, 12},
			m.AmountsKey:  &protocol16.Array{ElemType: protocol16.TypeDouble, Items: []protocol16.Value{10.0, 20.0, 30.0}},
		},
	}

	events := m.Map(msg, 2.0)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, target := range []int32{10, 11, 12} {
		if events[i].TargetID != target || events[i].SourceID != 7 {
			t.Errorf("event %d: unexpected %+v", i, events[i])
		}
	}
}

func TestMapUnknownSubtypeIgnored(t *testing.T) {
	m := NewMapper()
	msg := photon.Message{
		Kind: photon.KindEvent,
		Code: m.EventCode,
		Params: protocol16.ParamTable{
			m.SubtypeKey: int32(200),
			m.SourceKey:  int32(7),
		},
	}
	if events := m.Map(msg, 1.0); events != nil {
		t.Errorf("expected nil for unknown subtype, got %v", events)
	}
}
