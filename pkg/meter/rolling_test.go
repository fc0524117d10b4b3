package meter

import (
	"testing"

	"github.com/albiondps/meter/pkg/combat"
)

func TestRollingMeterAccumulatesCumulative(t *testing.T) {
	m := NewRollingMeter(10, nil)
	m.Push(combat.Event{Timestamp: 0, SourceID: 1, Kind: combat.KindDamage, Amount: 100})
	m.Push(combat.Event{Timestamp: 1, SourceID: 1, Kind: combat.KindDamage, Amount: 50})

	snap := m.Snapshot(1)
	got, ok := snap.Totals[1]
	if !ok {
		t.Fatalf("expected totals for source 1")
	}
	if got.Damage != 150 {
		t.Errorf("expected cumulative damage 150, got %v", got.Damage)
	}
	if got.DPS != 15 {
		t.Errorf("expected windowed dps 15 (150/10), got %v", got.DPS)
	}
}

func TestRollingMeterWindowExpiry(t *testing.T) {
	m := NewRollingMeter(10, nil)
	m.Push(combat.Event{Timestamp: 0, SourceID: 1, Kind: combat.KindDamage, Amount: 100})

	snap := m.Snapshot(20)
	got := snap.Totals[1]
	if got.Damage != 100 {
		t.Errorf("cumulative damage should survive window expiry, got %v", got.Damage)
	}
	if got.DPS != 0 {
		t.Errorf("expected windowed dps to drop to 0 once the event ages out, got %v", got.DPS)
	}
}

func TestRollingMeterWindowAgesWithoutNewEvents(t *testing.T) {
	m := NewRollingMeter(5, nil)
	m.Push(combat.Event{Timestamp: 0, SourceID: 1, Kind: combat.KindHeal, Amount: 100})
	m.Touch(3)

	snap := m.Snapshot(3)
	if snap.Totals[1].HPS == 0 {
		t.Errorf("expected non-zero windowed hps while event is still within window")
	}

	m.Touch(10)
	snap = m.Snapshot(10)
	if snap.Totals[1].HPS != 0 {
		t.Errorf("expected windowed hps to reach 0 once the window passed with no new events")
	}
}
