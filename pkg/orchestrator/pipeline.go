// Package orchestrator sequences the decode/identity/party/meter stages
// into a single per-packet step, holding combat events back when the
// party registry cannot yet vouch for their source and periodically
// emitting meter snapshots.
package orchestrator

import (
	"github.com/albiondps/meter/pkg/capture"
	"github.com/albiondps/meter/pkg/combat"
	"github.com/albiondps/meter/pkg/events"
	"github.com/albiondps/meter/pkg/identity"
	"github.com/albiondps/meter/pkg/meter"
	"github.com/albiondps/meter/pkg/party"
	"github.com/albiondps/meter/pkg/photon"
)

const (
	pendingMaxAgeSeconds = 120.0
	pendingMaxCount      = 2000
)

// pendingEvent is a combat event held back because the party registry
// could not yet vouch for its source; it is retried on every packet
// until it ages out.
type pendingEvent struct {
	event   combat.Event
	addedAt float64
}

// Pipeline wires a Photon decoder, combat mapper, identity/party
// registries, and a session meter into one sequential step function. It
// holds no goroutines or locks: Step is meant to be called from a single
// reader loop, one packet at a time.
type Pipeline struct {
	Decoder *photon.Decoder
	Mapper  *combat.Mapper
	Names   *identity.Registry
	Party   *party.Registry
	Session *meter.SessionMeter

	// SnapshotInterval is the minimum spacing, in packet timestamp
	// seconds, between emitted snapshots. Zero emits one every Step.
	SnapshotInterval float64

	pending          []pendingEvent
	lastSnapshotTS   float64
	haveLastSnapshot bool
}

// NewPipeline wires the default components together. Callers may mutate
// the returned Pipeline's fields (swap in a configured combat.Mapper or
// session meter, etc.) before the first Step call. Every component field
// must stay non-nil: Step calls each of them unconditionally.
func NewPipeline(decoder *photon.Decoder) *Pipeline {
	return &Pipeline{
		Decoder:          decoder,
		Mapper:           combat.NewMapper(),
		Names:            identity.NewRegistry(),
		Party:            party.NewRegistry(),
		Session:          meter.NewSessionMeter(),
		SnapshotInterval: 1.0,
	}
}

// Step decodes one captured packet, runs it through identity resolution
// and combat-event mapping, advances the session meter, and returns any
// snapshot the packet's timestamp triggered (zero or one element).
func (p *Pipeline) Step(pkt *capture.RawPacket) []meter.Snapshot {
	p.Party.ObservePacket(pkt)
	p.Session.ObservePacket(pkt)

	for _, msg := range p.Decoder.Decode(pkt.Payload) {
		p.Names.Observe(msg)
		p.Party.Observe(msg, pkt)

		p.Party.SyncNames(p.Names)
		p.Party.InferSelfNameFromTargets(p.Names)
		p.Party.SyncIDNames(p.Names)
		p.Party.TryResolveSelfID(p.Names)

		for _, ev := range p.Mapper.Map(msg, pkt.Timestamp) {
			p.dispatchEvent(ev, pkt.Timestamp)
		}

		if state, ok := decodeCombatState(msg); ok && p.Party.Allows(state.entityID, p.Names) {
			p.Session.ObserveCombatState(state.entityID, state.active, state.passive, pkt.Timestamp)
		}
	}

	p.flushOrTrimPending(pkt.Timestamp)
	p.Session.RefreshHistoryLabels()

	return p.maybeSnapshot(pkt.Timestamp)
}

// Finalize flushes any still-pending events and closes the active
// session, matching the stream's end.
func (p *Pipeline) Finalize(timestamp float64) {
	p.flushOrTrimPending(timestamp)
	p.Session.Finalize(timestamp)
}

func (p *Pipeline) dispatchEvent(ev combat.Event, now float64) {
	p.Party.ObserveCombatEvent(ev)
	if p.Party.Allows(ev.SourceID, p.Names) {
		if !p.Session.MergeEventIntoHistory(ev) {
			p.Session.Push(ev)
		}
		return
	}
	if p.Party.Strict && (!p.Party.HasIDs() || p.Party.HasUnresolvedNames()) {
		p.pending = append(p.pending, pendingEvent{event: ev, addedAt: now})
	}
}

// flushOrTrimPending retries every held event against the now-current
// party registry state, keeps what is still blocked, and evicts entries
// that have aged past pendingMaxAgeSeconds or exceed pendingMaxCount
// (oldest first, mirroring a LIFO "keep the most recent N" trim).
func (p *Pipeline) flushOrTrimPending(now float64) {
	if len(p.pending) == 0 {
		return
	}

	kept := p.pending[:0]
	for _, pe := range p.pending {
		if p.Party.Allows(pe.event.SourceID, p.Names) {
			if !p.Session.MergeEventIntoHistory(pe.event) {
				p.Session.Push(pe.event)
			}
			continue
		}
		if now-pe.addedAt > pendingMaxAgeSeconds {
			continue
		}
		kept = append(kept, pe)
	}
	p.pending = kept

	if len(p.pending) > pendingMaxCount {
		p.pending = append([]pendingEvent(nil), p.pending[len(p.pending)-pendingMaxCount:]...)
	}
}

func (p *Pipeline) maybeSnapshot(now float64) []meter.Snapshot {
	if p.haveLastSnapshot && now-p.lastSnapshotTS < p.SnapshotInterval {
		return nil
	}
	p.lastSnapshotTS = now
	p.haveLastSnapshot = true

	snap := p.Session.Snapshot()
	if snap.Totals == nil {
		return nil
	}
	snap.Names = p.Names.Snapshot()
	return []meter.Snapshot{snap}
}

type combatState struct {
	entityID int32
	active   bool
	passive  bool
}

func decodeCombatState(msg photon.Message) (combatState, bool) {
	if msg.Kind != photon.KindEvent || int(msg.Code) != events.CombatStateEventCode {
		return combatState{}, false
	}
	subtype, ok := paramInt32(msg.Params, events.CombatStateSubtypeKey)
	if !ok {
		return combatState{}, false
	}
	if _, ok := events.CombatStateSubtypeValues[subtype]; !ok {
		return combatState{}, false
	}
	id, ok := paramInt32(msg.Params, events.CombatStateIDKey)
	if !ok {
		return combatState{}, false
	}
	return combatState{
		entityID: id,
		active:   paramBool(msg.Params, events.CombatStateActiveKey),
		passive:  paramBool(msg.Params, events.CombatStatePassiveKey),
	}, true
}
