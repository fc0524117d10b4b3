package meter

import (
	"net"
	"testing"

	"github.com/albiondps/meter/pkg/capture"
	"github.com/albiondps/meter/pkg/combat"
)

func TestBattleModeStartsOnFirstEventAndEndsOnIdle(t *testing.T) {
	s := NewSessionMeter()

	s.Push(combat.Event{Timestamp: 0, SourceID: 1, TargetID: 2, Kind: combat.KindDamage, Amount: 100})
	s.Push(combat.Event{Timestamp: 1, SourceID: 1, TargetID: 2, Kind: combat.KindDamage, Amount: 50})

	if len(s.History(0)) != 0 {
		t.Fatalf("session should still be open")
	}

	s.ObservePacket(&capture.RawPacket{Timestamp: 25, SrcIP: net.ParseIP("10.0.0.1"), DstIP: net.ParseIP("10.0.0.2")})

	hist := s.History(0)
	if len(hist) != 1 {
		t.Fatalf("expected one closed session, got %d", len(hist))
	}
	if hist[0].Reason != "idle" {
		t.Errorf("expected idle close reason, got %q", hist[0].Reason)
	}
	if hist[0].TotalDamage != 150 {
		t.Errorf("expected total damage 150, got %v", hist[0].TotalDamage)
	}
}

func TestManualModeOnlyTracksWhileActive(t *testing.T) {
	s := NewSessionMeter(WithMode(ModeManual))

	s.Push(combat.Event{Timestamp: 0, SourceID: 1, Kind: combat.KindDamage, Amount: 100})
	if s.Snapshot().Totals != nil {
		t.Errorf("push before manual start should be dropped")
	}

	s.ToggleManual(1)
	s.Push(combat.Event{Timestamp: 2, SourceID: 1, Kind: combat.KindDamage, Amount: 100})
	s.ToggleManual(3)

	hist := s.History(0)
	if len(hist) != 1 || hist[0].Reason != "manual_stop" {
		t.Fatalf("expected one manual_stop session, got %+v", hist)
	}
	if hist[0].TotalDamage != 100 {
		t.Errorf("expected only the event recorded while active to count, got %v", hist[0].TotalDamage)
	}
}

func TestZoneChangeClosesPreviousSessionWithLabel(t *testing.T) {
	s := NewSessionMeter(WithMode(ModeZone))

	zoneA := &capture.RawPacket{Timestamp: 0, SrcIP: net.ParseIP("10.0.0.1"), DstIP: net.ParseIP("10.0.0.2"), DstPort: zonePortA}
	s.ObservePacket(zoneA)
	s.SetZoneLabel("Thetford")
	s.Push(combat.Event{Timestamp: 1, SourceID: 1, Kind: combat.KindDamage, Amount: 100})

	zoneB := &capture.RawPacket{Timestamp: 2, SrcIP: net.ParseIP("10.0.0.1"), DstIP: net.ParseIP("10.0.0.9"), DstPort: zonePortB}
	s.ObservePacket(zoneB)

	hist := s.History(0)
	if len(hist) != 1 {
		t.Fatalf("expected one closed session on zone change, got %d", len(hist))
	}
	if hist[0].Reason != "zone_change" {
		t.Errorf("expected zone_change reason, got %q", hist[0].Reason)
	}
	if hist[0].Label == nil || *hist[0].Label != "Thetford" {
		t.Errorf("expected label Thetford, got %v", hist[0].Label)
	}
}

func TestHistoryLimitTrimsOldestFirst(t *testing.T) {
	s := NewSessionMeter(WithHistoryLimit(2), WithBattleTimeoutSeconds(1))

	for i := 0; i < 3; i++ {
		base := float64(i) * 10
		s.Push(combat.Event{Timestamp: base, SourceID: 1, Kind: combat.KindDamage, Amount: 10})
		s.ObservePacket(&capture.RawPacket{Timestamp: base + 2, SrcIP: net.ParseIP("10.0.0.1"), DstIP: net.ParseIP("10.0.0.2")})
	}

	hist := s.History(0)
	if len(hist) != 2 {
		t.Fatalf("expected history capped at 2, got %d", len(hist))
	}
}

func TestRefreshHistoryLabelsMergesResolvedNames(t *testing.T) {
	s := NewSessionMeter(WithBattleTimeoutSeconds(1))

	s.Push(combat.Event{Timestamp: 0, SourceID: 42, Kind: combat.KindDamage, Amount: 100})
	s.ObservePacket(&capture.RawPacket{Timestamp: 2, SrcIP: net.ParseIP("10.0.0.1"), DstIP: net.ParseIP("10.0.0.2")})

	s.nameLookup = func(id int32) (string, bool) {
		if id == 42 {
			return "Knighthammer", true
		}
		return "", false
	}

	if !s.RefreshHistoryLabels() {
		t.Fatalf("expected a label change to be reported")
	}
	hist := s.History(0)
	if hist[0].Entries[0].Label != "Knighthammer" {
		t.Errorf("expected relabeled entry, got %q", hist[0].Entries[0].Label)
	}
}

func TestObserveCombatStateEndsSessionAfterGrace(t *testing.T) {
	s := NewSessionMeter()

	s.Push(combat.Event{Timestamp: 0, SourceID: 1, Kind: combat.KindDamage, Amount: 100})
	s.ObserveCombatState(1, true, false, 0)
	s.ObserveCombatState(1, false, false, 1)

	s.ObservePacket(&capture.RawPacket{Timestamp: 1.5, SrcIP: net.ParseIP("10.0.0.1"), DstIP: net.ParseIP("10.0.0.2")})

	hist := s.History(0)
	if len(hist) != 1 || hist[0].Reason != "combat_state" {
		t.Fatalf("expected a combat_state close after the grace period, got %+v", hist)
	}
}
