// Package party infers which entity ids belong to "my party" —
// including "me" — from nothing but passively observed traffic: no
// packet on this wire ever announces an observer's own entity id.
package party

import (
	"github.com/albiondps/meter/pkg/capture"
	"github.com/albiondps/meter/pkg/combat"
	"github.com/albiondps/meter/pkg/events"
	"github.com/albiondps/meter/pkg/identity"
	"github.com/albiondps/meter/pkg/photon"
)

const (
	serverPortA = 5055
	serverPortB = 5056
	serverPortC = 5058
	zonePortA   = 5056
	zonePortB   = 5058

	selfIDCandidateTTLSeconds        = 15.0
	selfIDCorrelationWindowSeconds   = 0.75
	selfIDMinScore                  = 1.0
	selfIDMinScoreGap                = 1.0
	targetLinkWindowSeconds          = 2.0
	targetLinkReorderSeconds         = 0.15
	targetSelfNameMinCount           = 5
	targetSelfNameMinRatio           = 2.0
	targetSelfNameWindowSeconds      = 60.0
	targetSelfNameConfirmCount       = 20
	recentBufferCap                  = 500
)

func isServerPort(port uint16) bool {
	return port == serverPortA || port == serverPortB || port == serverPortC
}

func isZonePort(port uint16) bool {
	return port == zonePortA || port == zonePortB
}

type targetSighting struct {
	ts       float64
	entityID int32
}

type targetLink struct {
	ts            float64
	first, second int32
}

type packetFingerprint struct {
	ts                 float64
	srcIP, dstIP       string
	srcPort, dstPort   uint16
	payloadLen         int
}

type zoneKey struct {
	ip   string
	port uint16
}

// Registry tracks party membership and the observer's own entity id.
// It is not safe for concurrent use.
type Registry struct {
	// Strict gates Allows to only ever pass ids the registry has
	// positively identified as self or party members.
	Strict bool

	partyNames            map[string]struct{}
	partyIDs              map[int32]struct{}
	resolvedPartyNames    map[string]struct{}
	partyRosterCandidates map[int32]struct{}
	partyRosterSelfSeen   bool
	combatIDsSeen         map[int32]struct{}
	targetIDs             map[int32]struct{}
	selfIDs               map[int32]struct{}
	primarySelfID         *int32
	selfName              string
	selfNameConfirmed     bool

	recentTargetIDs  []targetSighting
	recentOutboundTS []float64
	targetRequestTS  map[int32]float64

	selfCandidateScores     map[int32]float64
	selfCandidateLastTS     map[int32]float64
	selfCandidateLinkHits   map[int32]int
	selfCandidateCombatHits map[int32]int
	recentTargetLinks       []targetLink

	lastPacketFingerprint *packetFingerprint
	zone                  *zoneKey
}

// NewRegistry creates a Registry. Strict defaults to true, matching the
// conservative default of only ever crediting self/party-confirmed ids.
func NewRegistry() *Registry {
	return &Registry{
		Strict:                  true,
		partyNames:              make(map[string]struct{}),
		partyIDs:                make(map[int32]struct{}),
		resolvedPartyNames:      make(map[string]struct{}),
		partyRosterCandidates:   make(map[int32]struct{}),
		combatIDsSeen:           make(map[int32]struct{}),
		targetIDs:               make(map[int32]struct{}),
		selfIDs:                 make(map[int32]struct{}),
		targetRequestTS:         make(map[int32]float64),
		selfCandidateScores:     make(map[int32]float64),
		selfCandidateLastTS:     make(map[int32]float64),
		selfCandidateLinkHits:   make(map[int32]int),
		selfCandidateCombatHits: make(map[int32]int),
	}
}

// Observe feeds one decoded message, alongside the packet it arrived
// in, into the registry.
func (r *Registry) Observe(msg photon.Message, pkt *capture.RawPacket) {
	if pkt != nil {
		r.observePacketOnce(pkt)
		r.applyTargetRequest(msg, pkt)
	}
	if msg.Kind != photon.KindEvent || int(msg.Code) != events.PartyEventCode {
		return
	}

	subtype, ok := paramInt32(msg.Params, events.PartySubtypeKey)
	if !ok {
		return
	}
	if subtype == events.CombatTargetSubtype {
		r.applyTargetLink(msg.Params, pkt)
		return
	}
	if idKey, ok := events.PartySubtypeIDKeys[subtype]; ok {
		if len(r.partyNames) > 0 {
			return
		}
		if entityID, ok := paramInt32(msg.Params, idKey); ok {
			r.partyRosterCandidates[entityID] = struct{}{}
			if _, seen := r.selfIDs[entityID]; seen {
				r.partyRosterSelfSeen = true
			}
			r.promoteRosterCandidates()
		}
		return
	}

	nameKey, ok := events.PartySubtypeNameKeys[subtype]
	isSelfSubtype := false
	if !ok {
		nameKey, ok = events.SelfSubtypeNameKeys[subtype]
		isSelfSubtype = ok
	}
	if !ok {
		return
	}
	names := coerceNames(msg.Params[nameKey])
	if len(names) == 0 {
		return
	}
	if isSelfSubtype {
		r.SetSelfName(names[0], true)
		return
	}

	for _, name := range names {
		r.partyNames[name] = struct{}{}
	}
	r.resolvedPartyNames = make(map[string]struct{})
	r.partyRosterCandidates = make(map[int32]struct{})
	r.partyRosterSelfSeen = false
	if len(r.selfIDs) > 0 {
		for id := range r.partyIDs {
			if _, ok := r.selfIDs[id]; !ok {
				delete(r.partyIDs, id)
			}
		}
	} else {
		r.partyIDs = make(map[int32]struct{})
	}
}

// ObservePacket updates packet-timing state: zone tracking, outbound
// timestamps, and TTL-based pruning of short-lived correlation state.
func (r *Registry) ObservePacket(pkt *capture.RawPacket) {
	r.updateZoneKey(pkt)
	if isZonePort(pkt.DstPort) && !isServerPort(pkt.SrcPort) {
		r.recentOutboundTS = appendBounded(r.recentOutboundTS, pkt.Timestamp, recentBufferCap)
	}
	r.recentOutboundTS = pruneFloats(r.recentOutboundTS, pkt.Timestamp, selfIDCandidateTTLSeconds)
	r.recentTargetIDs = pruneSightings(r.recentTargetIDs, pkt.Timestamp, targetSelfNameWindowSeconds)
	r.recentTargetLinks = pruneLinks(r.recentTargetLinks, pkt.Timestamp, targetLinkWindowSeconds)
	r.pruneCandidateScores(pkt.Timestamp, true)

	cutoff := pkt.Timestamp - selfIDCandidateTTLSeconds
	for targetID, ts := range r.targetRequestTS {
		if ts < cutoff {
			delete(r.targetRequestTS, targetID)
		}
	}
}

// ObserveCombatEvent correlates a mapped combat event with any
// outstanding target-selection request to score a self-id candidate.
func (r *Registry) ObserveCombatEvent(ev combat.Event) {
	if r.primarySelfID != nil {
		return
	}
	if _, ok := r.targetRequestTS[ev.TargetID]; !ok {
		return
	}
	if !hasOutboundCorrelation(r.recentOutboundTS, ev.Timestamp) {
		return
	}
	r.addSelfCandidateScore(ev.SourceID, ev.Timestamp, 1.0)
	r.selfCandidateCombatHits[ev.SourceID]++
}

// TryResolveSelfID attempts to promote the best-scoring self-id
// candidate to the confirmed primary self id.
func (r *Registry) TryResolveSelfID(nameRegistry *identity.Registry) {
	if r.primarySelfID != nil {
		return
	}
	r.pruneCandidateScores(0, false)
	if len(r.selfCandidateScores) == 0 {
		return
	}

	if nameRegistry != nil && r.selfNameConfirmed && r.selfName != "" {
		var matches []int32
		for entityID := range r.selfCandidateScores {
			if name, ok := nameRegistry.Lookup(entityID); ok && name == r.selfName {
				matches = append(matches, entityID)
			}
		}
		if len(matches) == 1 {
			candidate := matches[0]
			if r.selfCandidateLinkHits[candidate] > 0 && r.selfCandidateCombatHits[candidate] > 0 {
				r.acceptSelfIDCandidate(candidate)
			}
			return
		}
	}

	var bestID int32
	bestScore := -1.0
	for id, score := range r.selfCandidateScores {
		if score > bestScore {
			bestScore = score
			bestID = id
		}
	}
	secondScore := 0.0
	for id, score := range r.selfCandidateScores {
		if id == bestID {
			continue
		}
		if score > secondScore {
			secondScore = score
		}
	}
	if bestScore >= selfIDMinScore && (bestScore-secondScore) >= selfIDMinScoreGap {
		if r.selfCandidateCombatHits[bestID] <= 0 {
			return
		}
		r.acceptSelfIDCandidate(bestID)
	}
}

// SeedNames pre-populates party membership by name, e.g. from a CLI flag.
func (r *Registry) SeedNames(names []string) {
	for _, name := range names {
		if name != "" {
			r.partyNames[name] = struct{}{}
		}
	}
}

// SeedIDs pre-populates party membership by entity id.
func (r *Registry) SeedIDs(ids []int32) {
	for _, id := range ids {
		r.partyIDs[id] = struct{}{}
	}
}

// SeedSelfIDs pre-populates the observer's own entity id(s), e.g. from
// a CLI flag, short-circuiting the inference machinery entirely.
func (r *Registry) SeedSelfIDs(ids []int32) {
	for _, id := range ids {
		r.partyIDs[id] = struct{}{}
		r.selfIDs[id] = struct{}{}
		if r.primarySelfID == nil {
			v := id
			r.primarySelfID = &v
		}
	}
	r.promoteRosterCandidates()
}

// SetSelfName records the observer's own display name. A confirmed
// name always wins; an unconfirmed guess only fills an empty slot.
func (r *Registry) SetSelfName(name string, confirmed bool) {
	if name == "" {
		return
	}
	if confirmed {
		r.selfName = name
		r.selfNameConfirmed = true
		return
	}
	if r.selfNameConfirmed {
		return
	}
	if r.selfName == "" {
		r.selfName = name
	}
}

func (r *Registry) SnapshotNames() map[string]struct{} {
	out := make(map[string]struct{}, len(r.partyNames))
	for k := range r.partyNames {
		out[k] = struct{}{}
	}
	return out
}

func (r *Registry) SnapshotIDs() map[int32]struct{} {
	out := make(map[int32]struct{}, len(r.partyIDs))
	for k := range r.partyIDs {
		out[k] = struct{}{}
	}
	return out
}

func (r *Registry) SnapshotSelfIDs() map[int32]struct{} {
	out := make(map[int32]struct{}, len(r.selfIDs))
	for k := range r.selfIDs {
		out[k] = struct{}{}
	}
	return out
}

// HasIDs reports whether there is any membership to gate against yet.
func (r *Registry) HasIDs() bool {
	if r.Strict {
		return len(r.selfIDs) > 0
	}
	return len(r.partyIDs) > 0
}

// HasUnresolvedNames reports whether any roster name is still waiting
// to be mapped to an entity id.
func (r *Registry) HasUnresolvedNames() bool {
	if len(r.partyNames) == 0 {
		return false
	}
	for name := range r.partyNames {
		if _, ok := r.resolvedPartyNames[name]; !ok {
			return true
		}
	}
	return false
}

// SyncNames maps any roster name that the name registry has resolved
// to an entity id into party membership, as long as that id has been
// seen in combat or is already known to be self.
func (r *Registry) SyncNames(nameRegistry *identity.Registry) {
	if len(r.partyNames) == 0 {
		return
	}
	snapshot := nameRegistry.Snapshot()
	for entityID, name := range snapshot {
		if _, wanted := r.partyNames[name]; !wanted {
			continue
		}
		if entityID <= 0 {
			continue
		}
		_, seenCombat := r.combatIDsSeen[entityID]
		_, isSelf := r.selfIDs[entityID]
		if !seenCombat && !isSelf {
			continue
		}
		r.partyIDs[entityID] = struct{}{}
		r.resolvedPartyNames[name] = struct{}{}
	}
}

// InferSelfNameFromTargets looks at who the observer has recently
// targeted and, if one name dominates, adopts it as a self-name guess
// (or confirms it outright once the evidence is overwhelming).
func (r *Registry) InferSelfNameFromTargets(nameRegistry *identity.Registry) {
	if r.selfNameConfirmed || len(r.recentTargetIDs) == 0 {
		return
	}
	lastTS := r.recentTargetIDs[len(r.recentTargetIDs)-1].ts
	cutoff := lastTS - targetSelfNameWindowSeconds

	counts := make(map[string]int)
	distinctIDs := make(map[string]map[int32]struct{})
	for _, sighting := range r.recentTargetIDs {
		if sighting.ts < cutoff {
			continue
		}
		name, ok := nameRegistry.Lookup(sighting.entityID)
		if !ok || name == "" || name == "SYSTEM" {
			continue
		}
		counts[name]++
		if distinctIDs[name] == nil {
			distinctIDs[name] = make(map[int32]struct{})
		}
		distinctIDs[name][sighting.entityID] = struct{}{}
	}
	if len(counts) == 0 {
		return
	}

	bestName, bestCount, secondCount := topTwoCounts(counts)
	if bestCount < targetSelfNameMinCount {
		return
	}
	if secondCount > 0 && float64(bestCount)/float64(secondCount) < targetSelfNameMinRatio {
		return
	}
	confirm := bestCount >= targetSelfNameConfirmCount || len(distinctIDs[bestName]) >= 2
	if r.selfName != "" && r.selfName != bestName {
		return
	}
	r.SetSelfName(bestName, confirm)
}

// SyncIDNames writes the confirmed self name back into the name
// registry for every known self id, weakly, so other subsystems that
// only know the registry can resolve the observer by name too.
func (r *Registry) SyncIDNames(nameRegistry *identity.Registry) {
	if len(r.selfIDs) == 0 || r.selfName == "" || !r.selfNameConfirmed {
		return
	}
	for entityID := range r.selfIDs {
		if current, ok := nameRegistry.Lookup(entityID); ok && current != r.selfName {
			continue
		}
		nameRegistry.RecordWeak(entityID, r.selfName)
	}
}

// Allows reports whether source_id is allowed to contribute to the
// meter: in strict mode, only self/party ids; otherwise, any id unless
// a party-name roster says otherwise.
func (r *Registry) Allows(sourceID int32, nameRegistry *identity.Registry) bool {
	r.combatIDsSeen[sourceID] = struct{}{}
	if r.Strict {
		if len(r.selfIDs) == 0 {
			return false
		}
		if _, ok := r.partyIDs[sourceID]; ok {
			return true
		}
		_, ok := r.selfIDs[sourceID]
		return ok
	}
	if len(r.partyIDs) > 0 {
		_, ok := r.partyIDs[sourceID]
		return ok
	}
	if len(r.partyNames) == 0 || nameRegistry == nil {
		return true
	}
	name, ok := nameRegistry.Lookup(sourceID)
	if !ok {
		return false
	}
	_, wanted := r.partyNames[name]
	return wanted
}

func (r *Registry) applyTargetRequest(msg photon.Message, pkt *capture.RawPacket) {
	if msg.Kind != photon.KindRequest {
		return
	}
	if !isZonePort(pkt.DstPort) {
		return
	}
	if int(msg.Code) != events.TargetRequestOpcode {
		return
	}
	entityID, ok := paramInt32(msg.Params, events.TargetRequestIDKey)
	if !ok {
		return
	}
	r.targetIDs[entityID] = struct{}{}
	r.recentTargetIDs = appendBounded(r.recentTargetIDs, targetSighting{pkt.Timestamp, entityID}, recentBufferCap)
	r.targetRequestTS[entityID] = pkt.Timestamp
	r.applyTargetLinkHintFromRecentLinks(entityID, pkt.Timestamp)
}

func (r *Registry) applyTargetLink(params map[byte]interface{}, pkt *capture.RawPacket) {
	first, firstOK := paramInt32(params, events.CombatTargetAKey)
	second, secondOK := paramInt32(params, events.CombatTargetBKey)
	if !firstOK || !secondOK {
		return
	}
	ts := 0.0
	if pkt != nil {
		ts = pkt.Timestamp
	}
	r.recentTargetLinks = appendBounded(r.recentTargetLinks, targetLink{ts, first, second}, recentBufferCap)
	if len(r.targetIDs) == 0 {
		return
	}
	r.applyTargetLinkHint(first, second, ts)
}

func (r *Registry) applyTargetLinkHintFromRecentLinks(targetID int32, ts float64) {
	for i := len(r.recentTargetLinks) - 1; i >= 0; i-- {
		link := r.recentTargetLinks[i]
		if (ts - link.ts) > targetLinkWindowSeconds {
			break
		}
		if (ts - link.ts) > targetLinkReorderSeconds {
			continue
		}
		if link.first == targetID && link.second != targetID {
			r.applyTargetLinkHint(link.first, link.second, ts)
		} else if link.second == targetID && link.first != targetID {
			r.applyTargetLinkHint(link.first, link.second, ts)
		}
	}
}

func (r *Registry) applyTargetLinkHint(first, second int32, ts float64) {
	var candidate int32
	_, firstIsTarget := r.targetIDs[first]
	_, secondIsTarget := r.targetIDs[second]
	switch {
	case firstIsTarget && !secondIsTarget:
		candidate = second
	case secondIsTarget && !firstIsTarget:
		candidate = first
	default:
		return
	}
	r.addSelfCandidateScore(candidate, ts, 0.5)
	r.selfCandidateLinkHits[candidate]++
}

func (r *Registry) acceptSelfIDCandidate(candidateID int32) {
	if r.primarySelfID == nil {
		v := candidateID
		r.primarySelfID = &v
	} else if candidateID != *r.primarySelfID {
		return
	}
	r.selfIDs[candidateID] = struct{}{}
	r.partyIDs[candidateID] = struct{}{}
	if _, ok := r.partyRosterCandidates[candidateID]; ok {
		r.partyRosterSelfSeen = true
	}
	r.promoteRosterCandidates()
}

func (r *Registry) promoteRosterCandidates() {
	if len(r.partyRosterCandidates) == 0 {
		return
	}
	if !r.partyRosterSelfSeen && len(r.selfIDs) > 0 {
		for id := range r.partyRosterCandidates {
			if _, ok := r.selfIDs[id]; ok {
				r.partyRosterSelfSeen = true
				break
			}
		}
	}
	if !r.partyRosterSelfSeen {
		return
	}
	for id := range r.partyRosterCandidates {
		r.partyIDs[id] = struct{}{}
	}
}

func (r *Registry) addSelfCandidateScore(candidateID int32, ts, weight float64) {
	r.selfCandidateScores[candidateID] += weight
	r.selfCandidateLastTS[candidateID] = ts
}

// pruneCandidateScores evicts self-id candidates whose last evidence is
// older than the TTL. When useNow is false, "now" is taken as the
// latest observed candidate timestamp (mirrors the Python "now=None"
// fallback used when pruning outside of packet-timed observation).
func (r *Registry) pruneCandidateScores(now float64, useNow bool) {
	if !useNow {
		if len(r.selfCandidateLastTS) == 0 {
			return
		}
		now = 0
		for _, ts := range r.selfCandidateLastTS {
			if ts > now {
				now = ts
			}
		}
	}
	cutoff := now - selfIDCandidateTTLSeconds
	for id, ts := range r.selfCandidateLastTS {
		if ts < cutoff {
			delete(r.selfCandidateLastTS, id)
			delete(r.selfCandidateScores, id)
			delete(r.selfCandidateLinkHits, id)
			delete(r.selfCandidateCombatHits, id)
		}
	}
}

func (r *Registry) observePacketOnce(pkt *capture.RawPacket) {
	fp := packetFingerprint{
		ts:         pkt.Timestamp,
		srcIP:      pkt.SrcIP.String(),
		dstIP:      pkt.DstIP.String(),
		srcPort:    pkt.SrcPort,
		dstPort:    pkt.DstPort,
		payloadLen: len(pkt.Payload),
	}
	if r.lastPacketFingerprint != nil && *r.lastPacketFingerprint == fp {
		return
	}
	r.lastPacketFingerprint = &fp
	r.ObservePacket(pkt)
}

func (r *Registry) updateZoneKey(pkt *capture.RawPacket) {
	key := inferZoneKey(pkt)
	if key == nil {
		return
	}
	if r.zone == nil {
		r.zone = key
		return
	}
	if *r.zone == *key {
		return
	}
	r.zone = key
	r.targetIDs = make(map[int32]struct{})
	r.recentTargetIDs = nil
	r.recentOutboundTS = nil
	r.targetRequestTS = make(map[int32]float64)
	r.selfCandidateScores = make(map[int32]float64)
	r.selfCandidateLastTS = make(map[int32]float64)
	r.selfCandidateLinkHits = make(map[int32]int)
	r.selfCandidateCombatHits = make(map[int32]int)
	for id := range r.selfIDs {
		delete(r.partyIDs, id)
	}
	r.selfIDs = make(map[int32]struct{})
	r.primarySelfID = nil
	r.partyRosterCandidates = make(map[int32]struct{})
	r.partyRosterSelfSeen = false
	r.combatIDsSeen = make(map[int32]struct{})
}

func inferZoneKey(pkt *capture.RawPacket) *zoneKey {
	if isZonePort(pkt.SrcPort) {
		return &zoneKey{pkt.SrcIP.String(), pkt.SrcPort}
	}
	if isZonePort(pkt.DstPort) {
		return &zoneKey{pkt.DstIP.String(), pkt.DstPort}
	}
	return nil
}

func hasOutboundCorrelation(outboundTS []float64, eventTS float64) bool {
	for i := len(outboundTS) - 1; i >= 0; i-- {
		ts := outboundTS[i]
		if ts > eventTS {
			continue
		}
		return (eventTS - ts) <= selfIDCorrelationWindowSeconds
	}
	return false
}

func topTwoCounts(counts map[string]int) (bestName string, bestCount, secondCount int) {
	for name, count := range counts {
		switch {
		case count > bestCount:
			secondCount = bestCount
			bestCount = count
			bestName = name
		case count > secondCount:
			secondCount = count
		}
	}
	return
}

func appendBounded[T any](s []T, v T, max int) []T {
	s = append(s, v)
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return s
}

func pruneFloats(values []float64, now, window float64) []float64 {
	cutoff := now - window
	i := 0
	for i < len(values) && values[i] < cutoff {
		i++
	}
	return values[i:]
}

func pruneSightings(values []targetSighting, now, window float64) []targetSighting {
	cutoff := now - window
	i := 0
	for i < len(values) && values[i].ts < cutoff {
		i++
	}
	return values[i:]
}

func pruneLinks(values []targetLink, now, window float64) []targetLink {
	cutoff := now - window
	i := 0
	for i < len(values) && values[i].ts < cutoff {
		i++
	}
	return values[i:]
}

func coerceNames(v interface{}) []string {
	switch x := v.(type) {
	case string:
		if x == "" {
			return nil
		}
		return []string{x}
	case []string:
		out := make([]string, 0, len(x))
		for _, s := range x {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
