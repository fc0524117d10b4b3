package meter

import "github.com/albiondps/meter/pkg/combat"

// sample is one combat effect recorded against a source id.
type sample struct {
	timestamp float64
	kind      combat.Kind
	amount    float64
}

// cumulative is a source id's all-session totals, never trimmed.
type cumulative struct {
	damage float64
	heal   float64
}

// RollingMeter aggregates combat.Events per source id over a fixed
// trailing window, alongside an un-windowed running total. There is no
// upstream reference implementation for this type (the Python original
// only imports `albion_dps.meter.aggregate.RollingMeter`, never ships
// it); it is designed directly from the windowed-dps/hps contract that
// SessionMeter exercises: push an event, touch the clock forward without
// one, and snapshot the current window at an arbitrary "now".
type RollingMeter struct {
	windowSeconds         float64
	sessionTimeoutSeconds *float64

	ring       map[int32][]sample
	cumulative map[int32]cumulative
	lastTS     float64
	seen       bool
}

// NewRollingMeter returns a meter windowing over windowSeconds.
// sessionTimeoutSeconds is accepted for parity with the Python
// constructor's keyword but unused here: SessionMeter owns all
// session-lifecycle timing itself and always passes nil.
func NewRollingMeter(windowSeconds float64, sessionTimeoutSeconds *float64) *RollingMeter {
	return &RollingMeter{
		windowSeconds:         windowSeconds,
		sessionTimeoutSeconds: sessionTimeoutSeconds,
		ring:                  make(map[int32][]sample),
		cumulative:            make(map[int32]cumulative),
	}
}

// Touch advances the meter's latest-seen timestamp without recording an
// event. Snapshot does not read it: which events have aged out of the
// window is decided by the now passed to Snapshot.
func (m *RollingMeter) Touch(timestamp float64) {
	if !m.seen || timestamp > m.lastTS {
		m.lastTS = timestamp
		m.seen = true
	}
}

// Push records one combat effect.
func (m *RollingMeter) Push(ev combat.Event) {
	c := m.cumulative[ev.SourceID]
	switch ev.Kind {
	case combat.KindDamage:
		c.damage += ev.Amount
	case combat.KindHeal:
		c.heal += ev.Amount
	}
	m.cumulative[ev.SourceID] = c

	m.ring[ev.SourceID] = append(m.ring[ev.SourceID], sample{
		timestamp: ev.Timestamp,
		kind:      ev.Kind,
		amount:    ev.Amount,
	})
	m.Touch(ev.Timestamp)
}

// Snapshot reports cumulative and windowed per-source totals as of now.
func (m *RollingMeter) Snapshot(now float64) Snapshot {
	totals := make(map[int32]Totals, len(m.cumulative))
	cutoff := now - m.windowSeconds

	for source, entries := range m.ring {
		kept := entries[:0]
		var windowDamage, windowHeal float64
		for _, s := range entries {
			if s.timestamp < cutoff {
				continue
			}
			kept = append(kept, s)
			switch s.kind {
			case combat.KindDamage:
				windowDamage += s.amount
			case combat.KindHeal:
				windowHeal += s.amount
			}
		}
		m.ring[source] = kept

		c := m.cumulative[source]
		dps, hps := 0.0, 0.0
		if m.windowSeconds > 0 {
			dps = windowDamage / m.windowSeconds
			hps = windowHeal / m.windowSeconds
		}
		totals[source] = Totals{Damage: c.damage, Heal: c.heal, DPS: dps, HPS: hps}
	}

	// A source with cumulative damage/heal but no remaining ring
	// entries (everything aged out) still needs a zero-dps/hps row.
	for source, c := range m.cumulative {
		if _, ok := totals[source]; !ok {
			totals[source] = Totals{Damage: c.damage, Heal: c.heal}
		}
	}

	return Snapshot{Timestamp: now, Totals: totals}
}
