package meter

import (
	"sort"
	"strconv"

	"github.com/albiondps/meter/pkg/capture"
	"github.com/albiondps/meter/pkg/combat"
)

// Mode selects what starts and ends a SessionMeter's sessions.
type Mode string

const (
	ModeBattle Mode = "battle"
	ModeZone   Mode = "zone"
	ModeManual Mode = "manual"
)

const (
	zonePortA = 5056
	zonePortB = 5058

	combatEndGraceSeconds = 0.25
)

func isZonePort(port uint16) bool {
	return port == zonePortA || port == zonePortB
}

type zoneEndpoint struct {
	ip   string
	port uint16
}

func inferZoneKey(pkt *capture.RawPacket) *zoneEndpoint {
	if pkt == nil {
		return nil
	}
	if isZonePort(pkt.SrcPort) {
		return &zoneEndpoint{ip: pkt.SrcIP.String(), port: pkt.SrcPort}
	}
	if isZonePort(pkt.DstPort) {
		return &zoneEndpoint{ip: pkt.DstIP.String(), port: pkt.DstPort}
	}
	return nil
}

// SessionEntry is one label's damage/heal contribution to a closed session.
type SessionEntry struct {
	Label  string
	Damage float64
	Heal   float64
	DPS    float64
	HPS    float64
}

// SessionSummary is a closed session: its window, why it ended, and the
// per-label breakdown of what happened inside it.
type SessionSummary struct {
	Mode        Mode
	StartTS     float64
	EndTS       float64
	Duration    float64
	Label       *string
	Entries     []SessionEntry
	TotalDamage float64
	TotalHeal   float64
	Reason      string
}

// NameLookup resolves a source id to a display name, when known.
type NameLookup func(int32) (string, bool)

// Option configures a SessionMeter at construction time.
type Option func(*SessionMeter)

func WithWindowSeconds(seconds float64) Option {
	return func(s *SessionMeter) { s.WindowSeconds = seconds }
}

func WithBattleTimeoutSeconds(seconds float64) Option {
	return func(s *SessionMeter) { s.BattleTimeoutSeconds = seconds }
}

func WithHistoryLimit(limit int) Option {
	return func(s *SessionMeter) { s.HistoryLimit = limit }
}

func WithMode(mode Mode) Option {
	return func(s *SessionMeter) { s.mode = mode }
}

func WithNameLookup(lookup NameLookup) Option {
	return func(s *SessionMeter) { s.nameLookup = lookup }
}

// SessionMeter groups combat events into discrete sessions (battles,
// zone visits, or manually bracketed windows) and keeps a bounded
// history of closed sessions per mode. Ported from
// albion_dps.meter.session_meter.SessionMeter.
type SessionMeter struct {
	WindowSeconds        float64
	BattleTimeoutSeconds float64
	HistoryLimit         int

	mode       Mode
	nameLookup NameLookup

	history map[Mode][]SessionSummary

	meter        *RollingMeter
	sessionStart float64

	lastEventTS float64
	lastSeenTS  float64
	active      bool

	manualActive bool

	zoneKey   *zoneEndpoint
	zoneLabel string

	combatants  map[int32]struct{}
	seenSources map[int32]struct{}

	combatEndTS      float64
	combatEndTSSet   bool
	lastCombatEventTS float64
	sawCombatState   bool
}

// NewSessionMeter returns a battle-mode SessionMeter with a 10s rolling
// window, a 20s battle timeout, and a 10-entry per-mode history.
func NewSessionMeter(opts ...Option) *SessionMeter {
	s := &SessionMeter{
		WindowSeconds:        10.0,
		BattleTimeoutSeconds: 20.0,
		HistoryLimit:         10,
		mode:                 ModeBattle,
		history: map[Mode][]SessionSummary{
			ModeBattle: nil,
			ModeZone:   nil,
			ModeManual: nil,
		},
		combatants:  make(map[int32]struct{}),
		seenSources: make(map[int32]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.meter = NewRollingMeter(s.WindowSeconds, nil)
	return s
}

// SetMode switches which activity starts and ends sessions, closing the
// current session (reason "mode_change") and clearing combat-state
// bookkeeping that is scoped to the previous mode.
func (s *SessionMeter) SetMode(mode Mode, timestamp float64) {
	if mode == s.mode {
		return
	}
	if s.active {
		s.endSession(timestamp, "mode_change", nil)
	}
	s.mode = mode
	s.manualActive = false
	s.combatants = make(map[int32]struct{})
	s.combatEndTSSet = false
	s.lastCombatEventTS = 0
	s.sawCombatState = false

	if mode == ModeZone && s.zoneKey != nil && !s.active {
		s.startSession(timestamp)
	}
}

// ToggleManual starts or ends a manual-mode session; a no-op outside
// manual mode.
func (s *SessionMeter) ToggleManual(timestamp float64) {
	if s.mode != ModeManual {
		return
	}
	if s.manualActive {
		s.endSession(timestamp, "manual_stop", nil)
		s.manualActive = false
		return
	}
	s.manualActive = true
	if !s.active {
		s.startSession(timestamp)
	}
}

// EndSession force-closes the active session, if any, with reason
// "manual_end".
func (s *SessionMeter) EndSession(timestamp float64) {
	if s.active {
		s.endSession(timestamp, "manual_end", nil)
	}
}

// Finalize closes the active session (if any) at stream end, picking the
// most informative closing reason available.
func (s *SessionMeter) Finalize(timestamp float64) {
	if !s.active {
		return
	}
	if s.combatEndTSSet {
		end := s.lastEventTS
		if s.combatEndTS > end {
			end = s.combatEndTS
		}
		s.endSession(end, "combat_state", nil)
		return
	}
	if s.mode == ModeBattle && timestamp-s.lastCombatEventTS >= s.BattleTimeoutSeconds {
		s.endSession(timestamp, "idle", nil)
		return
	}
	s.endSession(timestamp, "stream_end", nil)
}

// SetZoneLabel records a human-readable label for the zone currently
// being tracked, used by zone-mode session summaries.
func (s *SessionMeter) SetZoneLabel(label string) {
	s.zoneLabel = label
}

// ObservePacket advances clock-driven state: zone-change session
// boundaries, the battle-mode idle timeout, and the combat-end grace
// period. Call for every packet, not just ones carrying combat events.
func (s *SessionMeter) ObservePacket(pkt *capture.RawPacket) {
	if pkt == nil {
		return
	}
	if pkt.Timestamp > s.lastSeenTS {
		s.lastSeenTS = pkt.Timestamp
	}

	if zk := inferZoneKey(pkt); zk != nil {
		switch {
		case s.zoneKey == nil:
			s.zoneKey = zk
			if s.mode == ModeZone && !s.active {
				s.startSession(pkt.Timestamp)
			}
		case *zk != *s.zoneKey:
			if s.mode == ModeZone && s.active {
				previous := s.zoneLabel
				s.endSession(pkt.Timestamp, "zone_change", &previous)
			}
			s.zoneKey = zk
			s.zoneLabel = ""
			if s.mode == ModeZone {
				s.startSession(pkt.Timestamp)
			}
		}
	}

	if s.mode == ModeBattle && s.active {
		lastActivity := s.lastCombatEventTS
		if s.sessionStart > lastActivity {
			lastActivity = s.sessionStart
		}
		if pkt.Timestamp-lastActivity >= s.BattleTimeoutSeconds {
			s.endSession(pkt.Timestamp, "idle", nil)
		}
	}

	if s.mode == ModeBattle && s.active && s.combatEndTSSet {
		if pkt.Timestamp-s.combatEndTS >= combatEndGraceSeconds {
			end := s.combatEndTS
			if s.lastEventTS > end {
				end = s.lastEventTS
			}
			s.endSession(end, "combat_state", nil)
		}
	}

	if s.active {
		s.meter.Touch(pkt.Timestamp)
	}
}

// Push records one combat effect against the active session, starting a
// new session first if none is open (manual mode never auto-starts).
func (s *SessionMeter) Push(ev combat.Event) {
	if s.mode == ModeManual && !s.manualActive {
		return
	}
	if !s.active {
		s.startSession(ev.Timestamp)
	}
	if ev.Timestamp > s.lastEventTS {
		s.lastEventTS = ev.Timestamp
	}
	if ev.Timestamp > s.lastSeenTS {
		s.lastSeenTS = ev.Timestamp
	}
	if s.combatEndTSSet && ev.Timestamp-s.combatEndTS > combatEndGraceSeconds {
		s.combatEndTSSet = false
	}
	s.seenSources[ev.SourceID] = struct{}{}

	if s.sawCombatState {
		if ev.Kind == combat.KindDamage || (ev.Kind == combat.KindHeal && ev.TargetID != ev.SourceID) {
			s.lastCombatEventTS = ev.Timestamp
		}
	} else {
		s.lastCombatEventTS = ev.Timestamp
	}

	s.meter.Push(ev)
}

// ObserveCombatState records an entity's active/passive combat-state
// signal, battle mode only, gating the combat-end grace timer.
func (s *SessionMeter) ObserveCombatState(entityID int32, inActive, inPassive bool, timestamp float64) {
	if s.mode != ModeBattle {
		return
	}
	if _, ok := s.seenSources[entityID]; !ok {
		return
	}
	s.sawCombatState = true
	if inActive || inPassive {
		s.combatants[entityID] = struct{}{}
		s.combatEndTSSet = false
		if !s.active {
			s.startSession(timestamp)
		}
		return
	}
	delete(s.combatants, entityID)
	if len(s.combatants) == 0 {
		s.combatEndTS = timestamp
		s.combatEndTSSet = true
	}
}

// Snapshot reports the active session's current rolling totals, or a
// zero-value Snapshot when no session is open.
func (s *SessionMeter) Snapshot() Snapshot {
	if !s.active {
		return Snapshot{}
	}
	now := s.lastSeenTS
	if now == 0 {
		now = s.lastEventTS
	}
	return s.meter.Snapshot(now)
}

// History returns the current mode's closed sessions, most recent
// first, optionally truncated to limit entries (0 means unbounded).
func (s *SessionMeter) History(limit int) []SessionSummary {
	src := s.history[s.mode]
	out := make([]SessionSummary, len(src))
	for i, v := range src {
		out[len(src)-1-i] = v
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ManualActive reports whether a manual-mode session is currently open.
func (s *SessionMeter) ManualActive() bool { return s.manualActive }

// ZoneLabel returns the label currently tracked for the active zone.
func (s *SessionMeter) ZoneLabel() string { return s.zoneLabel }

// MergeEventIntoHistory folds a late-arriving event into whichever
// closed session's time window contains it, recomputing that session's
// entries in place. Reports whether a match was found.
func (s *SessionMeter) MergeEventIntoHistory(ev combat.Event) bool {
	entries := s.history[s.mode]
	for i := range entries {
		entry := &entries[i]
		if ev.Timestamp < entry.StartTS || ev.Timestamp > entry.EndTS {
			continue
		}
		grouped := make(map[string]*groupTotal, len(entry.Entries)+1)
		for _, e := range entry.Entries {
			grouped[e.Label] = &groupTotal{damage: e.Damage, heal: e.Heal}
		}
		label := s.resolveLabel(ev.SourceID)
		g := grouped[label]
		if g == nil {
			g = &groupTotal{}
			grouped[label] = g
		}
		switch ev.Kind {
		case combat.KindDamage:
			g.damage += ev.Amount
		case combat.KindHeal:
			g.heal += ev.Amount
		}
		entry.Entries = buildEntriesFromGrouped(grouped, entry.Duration)
		entry.TotalDamage, entry.TotalHeal = 0, 0
		for _, e := range entry.Entries {
			entry.TotalDamage += e.Damage
			entry.TotalHeal += e.Heal
		}
		s.history[s.mode] = entries
		return true
	}
	return false
}

// RefreshHistoryLabels re-resolves any still-numeric labels in the
// current mode's history via the configured NameLookup, merging entries
// whose labels newly collide. Reports whether anything changed.
func (s *SessionMeter) RefreshHistoryLabels() bool {
	if s.nameLookup == nil {
		return false
	}
	entries := s.history[s.mode]
	changed := false
	for i := range entries {
		entry := &entries[i]
		grouped := make(map[string]*groupTotal, len(entry.Entries))
		relabeled := false
		for _, e := range entry.Entries {
			label := e.Label
			if id, err := strconv.Atoi(label); err == nil {
				if name, ok := s.nameLookup(int32(id)); ok && name != "" {
					label = name
					relabeled = true
				}
			}
			g := grouped[label]
			if g == nil {
				g = &groupTotal{}
				grouped[label] = g
			}
			g.damage += e.Damage
			g.heal += e.Heal
		}
		if relabeled {
			entry.Entries = buildEntriesFromGrouped(grouped, entry.Duration)
			changed = true
		}
	}
	if changed {
		s.history[s.mode] = entries
	}
	return changed
}

func (s *SessionMeter) resolveLabel(sourceID int32) string {
	if s.nameLookup != nil {
		if name, ok := s.nameLookup(sourceID); ok && name != "" {
			return name
		}
	}
	return strconv.Itoa(int(sourceID))
}

func (s *SessionMeter) startSession(timestamp float64) {
	s.meter = NewRollingMeter(s.WindowSeconds, nil)
	s.sessionStart = timestamp
	s.lastEventTS = timestamp
	s.lastSeenTS = timestamp
	s.active = true
}

func (s *SessionMeter) endSession(timestamp float64, reason string, labelOverride *string) {
	duration := timestamp - s.sessionStart
	if duration < 0 {
		duration = 0
	}
	snap := s.meter.Snapshot(timestamp)
	entries := buildEntries(snap, duration, s.nameLookup)
	if len(entries) == 0 {
		s.active = false
		return
	}

	var label *string
	if s.mode == ModeZone {
		if labelOverride != nil {
			label = labelOverride
		} else if s.zoneLabel != "" {
			l := s.zoneLabel
			label = &l
		}
	}

	var totalDamage, totalHeal float64
	for _, e := range entries {
		totalDamage += e.Damage
		totalHeal += e.Heal
	}

	summary := SessionSummary{
		Mode:        s.mode,
		StartTS:     s.sessionStart,
		EndTS:       timestamp,
		Duration:    duration,
		Label:       label,
		Entries:     entries,
		TotalDamage: totalDamage,
		TotalHeal:   totalHeal,
		Reason:      reason,
	}
	s.appendHistory(summary)
	s.active = false
}

func (s *SessionMeter) appendHistory(summary SessionSummary) {
	h := append(s.history[s.mode], summary)
	if limit := s.HistoryLimit; limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	s.history[s.mode] = h
}

type groupTotal struct {
	damage float64
	heal   float64
}

func buildEntries(snap Snapshot, duration float64, lookup NameLookup) []SessionEntry {
	grouped := make(map[string]*groupTotal, len(snap.Totals))
	for source, totals := range snap.Totals {
		label := strconv.Itoa(int(source))
		if lookup != nil {
			if name, ok := lookup(source); ok && name != "" {
				label = name
			}
		}
		g := grouped[label]
		if g == nil {
			g = &groupTotal{}
			grouped[label] = g
		}
		g.damage += totals.Damage
		g.heal += totals.Heal
	}
	return buildEntriesFromGrouped(grouped, duration)
}

func buildEntriesFromGrouped(grouped map[string]*groupTotal, duration float64) []SessionEntry {
	entries := make([]SessionEntry, 0, len(grouped))
	for label, g := range grouped {
		dps, hps := 0.0, 0.0
		if duration > 0 {
			dps = g.damage / duration
			hps = g.heal / duration
		}
		entries = append(entries, SessionEntry{
			Label:  label,
			Damage: g.damage,
			Heal:   g.heal,
			DPS:    dps,
			HPS:    hps,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Damage > entries[j].Damage })
	return entries
}
