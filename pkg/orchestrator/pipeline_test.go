package orchestrator

import (
	"net"
	"testing"

	"github.com/albiondps/meter/pkg/capture"
	"github.com/albiondps/meter/pkg/combat"
	"github.com/albiondps/meter/pkg/events"
	"github.com/albiondps/meter/pkg/meter"
	"github.com/albiondps/meter/pkg/photon"
	"github.com/albiondps/meter/pkg/protocol16"
)

func newTestPipeline() *Pipeline {
	return NewPipeline(photon.NewDecoder(photon.NewStats()))
}

func emptyPacket(ts float64) *capture.RawPacket {
	return &capture.RawPacket{
		Timestamp: ts,
		SrcIP:     net.ParseIP("10.0.0.1"),
		DstIP:     net.ParseIP("10.0.0.2"),
		Payload:   []byte{0, 0, 0, 0},
	}
}

func TestDecodeCombatStateParsesActiveFlag(t *testing.T) {
	msg := photon.Message{
		Kind: photon.KindEvent,
		Code: byte(events.CombatStateEventCode),
		Params: protocol16.ParamTable{
			events.CombatStateSubtypeKey: int32(257),
			events.CombatStateIDKey:      int32(7),
			events.CombatStateActiveKey:  true,
		},
	}
	state, ok := decodeCombatState(msg)
	if !ok {
		t.Fatalf("expected combat state to decode")
	}
	if state.entityID != 7 || !state.active || state.passive {
		t.Errorf("unexpected state: %+v", state)
	}
}

func TestDecodeCombatStateIgnoresUnknownSubtype(t *testing.T) {
	msg := photon.Message{
		Kind: photon.KindEvent,
		Code: byte(events.CombatStateEventCode),
		Params: protocol16.ParamTable{
			events.CombatStateSubtypeKey: int32(999),
			events.CombatStateIDKey:      int32(7),
		},
	}
	if _, ok := decodeCombatState(msg); ok {
		t.Errorf("expected unknown subtype to be ignored")
	}
}

func TestDispatchHoldsBackUnallowedEventsThenFlushesOnceResolved(t *testing.T) {
	p := newTestPipeline()

	ev := combat.Event{Timestamp: 0, SourceID: 42, TargetID: 1, Kind: combat.KindDamage, Amount: 100}
	p.dispatchEvent(ev, 0)
	if len(p.pending) != 1 {
		t.Fatalf("expected the event to be held back, got %d pending", len(p.pending))
	}

	p.Party.SeedSelfIDs([]int32{42})
	p.flushOrTrimPending(1)

	if len(p.pending) != 0 {
		t.Errorf("expected the held event to flush once the source is allowed, got %d still pending", len(p.pending))
	}
}

func TestFlushTrimsPendingOlderThanMaxAge(t *testing.T) {
	p := newTestPipeline()
	p.dispatchEvent(combat.Event{Timestamp: 0, SourceID: 7, Kind: combat.KindDamage, Amount: 10}, 0)

	p.flushOrTrimPending(pendingMaxAgeSeconds + 1)

	if len(p.pending) != 0 {
		t.Errorf("expected the stale pending event to be evicted, got %d", len(p.pending))
	}
}

func TestDispatchEventMergesIntoClosedSessionInsteadOfPushingLive(t *testing.T) {
	p := newTestPipeline()
	p.Party.SeedSelfIDs([]int32{42})

	p.Session.SetMode(meter.ModeManual, 0)
	p.Session.ToggleManual(0)
	p.Session.Push(combat.Event{Timestamp: 0, SourceID: 42, TargetID: 1, Kind: combat.KindDamage, Amount: 100})
	p.Session.ToggleManual(2)

	history := p.Session.History(1)
	if len(history) != 1 || history[0].TotalDamage != 100 {
		t.Fatalf("expected one closed session with 100 damage, got %+v", history)
	}

	late := combat.Event{Timestamp: 1, SourceID: 42, TargetID: 1, Kind: combat.KindDamage, Amount: 50}
	p.dispatchEvent(late, 3)

	history = p.Session.History(1)
	if len(history) != 1 || history[0].TotalDamage != 150 {
		t.Fatalf("expected the late event merged into the closed session (150 total), got %+v", history)
	}

	if snap := p.Session.Snapshot(); len(snap.Totals) != 0 {
		t.Errorf("expected the late event not to be pushed into a new live session, got %+v", snap.Totals)
	}
}

func TestFlushOrTrimPendingMergesIntoClosedSessionInsteadOfPushingLive(t *testing.T) {
	p := newTestPipeline()

	p.Session.SetMode(meter.ModeManual, 0)
	p.Session.ToggleManual(0)
	p.Session.Push(combat.Event{Timestamp: 0, SourceID: 42, TargetID: 1, Kind: combat.KindDamage, Amount: 100})
	p.Session.ToggleManual(2)

	late := combat.Event{Timestamp: 1, SourceID: 42, TargetID: 1, Kind: combat.KindDamage, Amount: 50}
	p.pending = append(p.pending, pendingEvent{event: late, addedAt: 3})

	p.Party.SeedSelfIDs([]int32{42})
	p.flushOrTrimPending(3)

	if len(p.pending) != 0 {
		t.Fatalf("expected the pending event to flush, got %d still pending", len(p.pending))
	}

	history := p.Session.History(1)
	if len(history) != 1 || history[0].TotalDamage != 150 {
		t.Fatalf("expected the late event merged into the closed session (150 total), got %+v", history)
	}

	if snap := p.Session.Snapshot(); len(snap.Totals) != 0 {
		t.Errorf("expected the late event not to be pushed into a new live session, got %+v", snap.Totals)
	}
}

func TestStepRespectsSnapshotInterval(t *testing.T) {
	p := newTestPipeline()
	p.SnapshotInterval = 5
	p.Session.Push(combat.Event{Timestamp: 0, SourceID: 1, Kind: combat.KindDamage, Amount: 100})

	snaps := p.Step(emptyPacket(0))
	if len(snaps) != 1 {
		t.Fatalf("expected the first Step to emit a snapshot, got %d", len(snaps))
	}

	if snaps := p.Step(emptyPacket(1)); len(snaps) != 0 {
		t.Errorf("expected no snapshot before the interval elapses, got %d", len(snaps))
	}

	snaps = p.Step(emptyPacket(6))
	if len(snaps) != 1 {
		t.Errorf("expected a snapshot once the interval elapses, got %d", len(snaps))
	}
}
