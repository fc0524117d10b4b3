package backend

import (
	"time"

	"github.com/albiondps/meter/pkg/meter"
)

// Option configures the Service using the functional options pattern.
type Option func(*Service)

// WithDevice sets the network device to capture from. Ignored when
// WithReplayFile is also given.
func WithDevice(device string) Option {
	return func(s *Service) { s.device = device }
}

// WithReplayFile replays a previously recorded capture file instead of
// capturing live traffic.
func WithReplayFile(path string) Option {
	return func(s *Service) { s.replayPath = path }
}

// WithBPFFilter sets a custom BPF filter for live packet capture.
func WithBPFFilter(filter string) Option {
	return func(s *Service) { s.bpfFilter = filter }
}

// WithSnapLen sets the live capture snapshot length.
func WithSnapLen(snapLen int32) Option {
	return func(s *Service) { s.snapLen = snapLen }
}

// WithPromiscuous enables promiscuous-mode live capture.
func WithPromiscuous(promisc bool) Option {
	return func(s *Service) { s.promiscuous = promisc }
}

// WithCaptureTimeout sets the live capture read timeout.
func WithCaptureTimeout(timeout time.Duration) Option {
	return func(s *Service) { s.captureTimeout = timeout }
}

// WithRawDumpDir writes every captured payload to its own file under
// dir, for later offline inspection or replay.
func WithRawDumpDir(dir string) Option {
	return func(s *Service) { s.rawDumpDir = dir }
}

// WithItemDatabasePath sets the path to the ao-bin-dumps item database,
// used to resolve a player's loadout role (tank/heal/dps).
func WithItemDatabasePath(path string) Option {
	return func(s *Service) { s.itemDBPath = path }
}

// WithZoneIndexPath sets the path to a map-index file used to resolve
// zone-mode session labels.
func WithZoneIndexPath(path string) Option {
	return func(s *Service) { s.zoneIndexPath = path }
}

// WithMode selects what starts and ends a session: battle, zone, or
// manual.
func WithMode(mode meter.Mode) Option {
	return func(s *Service) { s.mode = mode }
}

// WithWindowSeconds sets the rolling DPS/HPS window.
func WithWindowSeconds(seconds float64) Option {
	return func(s *Service) { s.windowSeconds = seconds }
}

// WithBattleTimeoutSeconds sets how long battle mode waits, idle,
// before closing the active session.
func WithBattleTimeoutSeconds(seconds float64) Option {
	return func(s *Service) { s.battleTimeoutSeconds = seconds }
}

// WithHistoryLimit sets how many closed sessions are kept per mode.
func WithHistoryLimit(limit int) Option {
	return func(s *Service) { s.historyLimit = limit }
}

// WithSelfName seeds the observer's own display name, short-circuiting
// the passive self-identification heuristics.
func WithSelfName(name string) Option {
	return func(s *Service) { s.selfName = name }
}

// WithSelfID seeds the observer's own entity id, short-circuiting the
// passive self-identification heuristics.
func WithSelfID(id int32) Option {
	return func(s *Service) { s.selfIDs = append(s.selfIDs, id) }
}

// WithPartyNames seeds party membership by display name.
func WithPartyNames(names []string) Option {
	return func(s *Service) { s.partyNames = append(s.partyNames, names...) }
}

// WithStrictParty controls whether only self/party-confirmed ids may
// contribute to the meter. Defaults to true.
func WithStrictParty(strict bool) Option {
	return func(s *Service) { s.strictParty = strict; s.strictPartySet = true }
}

// WithSnapshotBufferSize sets the buffer size for the snapshots channel.
func WithSnapshotBufferSize(size int) Option {
	return func(s *Service) { s.snapshotBufferSize = size }
}

// WithEventBufferSize sets the buffer size for the events channel.
func WithEventBufferSize(size int) Option {
	return func(s *Service) { s.eventBufferSize = size }
}

// WithStatsBufferSize sets the buffer size for the stats channel.
func WithStatsBufferSize(size int) Option {
	return func(s *Service) { s.statsBufferSize = size }
}
