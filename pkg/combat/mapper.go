// Package combat turns decoded Photon messages into combat events: who
// hit or healed whom, and for how much.
package combat

import "github.com/albiondps/meter/pkg/photon"

// Kind distinguishes a damage event from a heal event.
type Kind int

const (
	KindDamage Kind = iota
	KindHeal
)

func (k Kind) String() string {
	if k == KindHeal {
		return "heal"
	}
	return "damage"
}

// Event is one source-to-target combat effect at a point in time.
// Amount is always non-negative; sign only ever distinguishes damage
// from heal via Kind.
type Event struct {
	Timestamp float64
	SourceID  int32
	TargetID  int32
	Kind      Kind
	Amount    float64
}

// Mapper decodes combat effects out of the event subtype(s) multiplexed
// onto a single Photon event code. The exact subtype numbers are wire
// contract the mapper was not able to ground in a canonical capture (see
// DESIGN.md); they are therefore exposed as configuration with sane
// defaults rather than hardcoded, per the policy for unverified wire
// constants.
type Mapper struct {
	EventCode  byte
	SubtypeKey byte

	SourceKey  byte
	TargetKey  byte
	AmountKey  byte
	TargetsKey byte
	AmountsKey byte

	DamageSubtypes      map[int32]struct{}
	HealSubtypes        map[int32]struct{}
	MultiTargetSubtypes map[int32]struct{}

	// ConvertNegativeDamageToHeal treats a negative magnitude on a
	// damage subtype as a heal, matching servers that never bothered
	// with a distinct heal subtype for every effect.
	ConvertNegativeDamageToHeal bool

	// OverkillCap is the largest magnitude treated as plausible.
	OverkillCap float64
	// DropOnOverkill drops the event when the cap is exceeded; when
	// false the amount saturates at OverkillCap instead.
	DropOnOverkill bool
}

// NewMapper returns a Mapper with its default subtype configuration.
func NewMapper() *Mapper {
	return &Mapper{
		EventCode:  1,
		SubtypeKey: 252,

		SourceKey:  0,
		TargetKey:  1,
		AmountKey:  2,
		TargetsKey: 1,
		AmountsKey: 2,

		DamageSubtypes:      map[int32]struct{}{3: {}},
		HealSubtypes:        map[int32]struct{}{4: {}},
		MultiTargetSubtypes: map[int32]struct{}{5: {}},

		ConvertNegativeDamageToHeal: true,
		OverkillCap:                 1e7,
		DropOnOverkill:              true,
	}
}

// Map transforms one decoded message into zero, one, or many Events.
// Unknown event codes, subtypes, or opcodes produce nothing.
func (m *Mapper) Map(msg photon.Message, timestamp float64) []Event {
	if msg.Kind != photon.KindEvent || msg.Code != m.EventCode {
		return nil
	}
	subtype, ok := paramInt32(msg.Params, m.SubtypeKey)
	if !ok {
		return nil
	}
	sourceID, ok := paramInt32(msg.Params, m.SourceKey)
	if !ok {
		return nil
	}

	if _, ok := m.MultiTargetSubtypes[subtype]; ok {
		targets := int32Slice(msg.Params[m.TargetsKey])
		amounts := float64Slice(msg.Params[m.AmountsKey])
		n := len(targets)
		if len(amounts) < n {
			n = len(amounts)
		}
		var out []Event
		for i := 0; i < n; i++ {
			if ev, ok := m.build(timestamp, sourceID, targets[i], amounts[i], KindDamage); ok {
				out = append(out, ev)
			}
		}
		return out
	}

	_, isDamage := m.DamageSubtypes[subtype]
	_, isHeal := m.HealSubtypes[subtype]
	if !isDamage && !isHeal {
		return nil
	}

	targetID, ok := paramInt32(msg.Params, m.TargetKey)
	if !ok {
		return nil
	}
	amount, ok := paramFloat64(msg.Params, m.AmountKey)
	if !ok {
		return nil
	}

	channel := KindDamage
	if isHeal {
		channel = KindHeal
	}
	if ev, ok := m.build(timestamp, sourceID, targetID, amount, channel); ok {
		return []Event{ev}
	}
	return nil
}

// build applies sign/kind resolution and the overkill policy. channel is
// the subtype's nominal kind before any negative-magnitude conversion.
func (m *Mapper) build(timestamp float64, source, target int32, amount float64, channel Kind) (Event, bool) {
	kind := channel
	if amount < 0 {
		if channel == KindDamage {
			if !m.ConvertNegativeDamageToHeal {
				return Event{}, false
			}
			kind = KindHeal
		}
		amount = -amount
	}
	if amount > m.OverkillCap {
		if m.DropOnOverkill {
			return Event{}, false
		}
		amount = m.OverkillCap
	}
	return Event{
		Timestamp: timestamp,
		SourceID:  source,
		TargetID:  target,
		Kind:      kind,
		Amount:    amount,
	}, true
}
