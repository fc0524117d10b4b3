// Package backend provides a unified service layer for DPS/HPS meter
// packet capture and event processing. It serves as the backend for
// multiple frontends (TUI, Wails, Web API).
package backend

import (
	"fmt"
	"sync"
	"time"

	"github.com/albiondps/meter/pkg/capture"
	"github.com/albiondps/meter/pkg/items"
	"github.com/albiondps/meter/pkg/meter"
	"github.com/albiondps/meter/pkg/orchestrator"
	"github.com/albiondps/meter/pkg/photon"
	"github.com/albiondps/meter/pkg/zones"
)

const (
	defaultSnapshotBufferSize = 50
	defaultEventBufferSize    = 100
	defaultStatsBufferSize    = 10
)

// Service wires a capture source through the decode/identity/party/
// meter pipeline and exposes the results as channels a frontend reads
// from. It is the sole owner of the pipeline: packets are handed to it
// one at a time under pipelineMu, regardless of how many capture
// goroutines produced them.
type Service struct {
	// Configuration
	device        string
	replayPath    string
	bpfFilter     string
	snapLen       int32
	promiscuous   bool
	captureTimeout time.Duration
	rawDumpDir    string

	itemDBPath    string
	zoneIndexPath string

	mode                 meter.Mode
	windowSeconds        float64
	battleTimeoutSeconds float64
	historyLimit         int

	selfName       string
	selfIDs        []int32
	partyNames     []string
	strictParty    bool
	strictPartySet bool

	snapshotBufferSize int
	eventBufferSize    int
	statsBufferSize    int

	// Internal components
	pipeline  *orchestrator.Pipeline
	stats     *photon.Stats
	itemDB    *items.ItemDatabase
	itemRoles *items.Resolver
	zoneIndex *zones.Resolver
	live      *capture.Live
	stopChan  chan struct{}

	pipelineMu sync.Mutex

	// Public channels (read-only for frontends)
	Snapshots    <-chan meter.Snapshot
	Events       <-chan GameEvent
	Stats        <-chan *photon.Stats
	OnlineStatus <-chan bool

	// Internal writable channels
	snapshotsChan    chan meter.Snapshot
	eventsChan       chan GameEvent
	statsChan        chan *photon.Stats
	onlineStatusChan chan bool

	// State
	running bool
	mu      sync.RWMutex
}

// New creates a new Service with the given options.
func New(opts ...Option) *Service {
	s := &Service{
		mode:                 meter.ModeBattle,
		windowSeconds:        10.0,
		battleTimeoutSeconds: 20.0,
		historyLimit:         10,
		strictParty:          true,
		snapshotBufferSize:   defaultSnapshotBufferSize,
		eventBufferSize:      defaultEventBufferSize,
		statsBufferSize:      defaultStatsBufferSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.snapshotsChan = make(chan meter.Snapshot, s.snapshotBufferSize)
	s.eventsChan = make(chan GameEvent, s.eventBufferSize)
	s.statsChan = make(chan *photon.Stats, s.statsBufferSize)
	s.onlineStatusChan = make(chan bool, 1)
	s.stopChan = make(chan struct{})

	s.Snapshots = s.snapshotsChan
	s.Events = s.eventsChan
	s.Stats = s.statsChan
	s.OnlineStatus = s.onlineStatusChan

	return s
}

// Start builds the pipeline, loads any optional item/zone databases,
// and begins capturing (live or replay, per the configured options).
func (s *Service) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("service already running")
	}
	s.running = true
	s.mu.Unlock()

	s.stats = photon.NewStats()
	decoder := photon.NewDecoder(s.stats)
	s.pipeline = orchestrator.NewPipeline(decoder)

	if s.strictPartySet {
		s.pipeline.Party.Strict = s.strictParty
	}
	if len(s.selfIDs) > 0 {
		s.pipeline.Party.SeedSelfIDs(s.selfIDs)
	}
	if s.selfName != "" {
		s.pipeline.Party.SetSelfName(s.selfName, true)
	}
	if len(s.partyNames) > 0 {
		s.pipeline.Party.SeedNames(s.partyNames)
	}

	s.pipeline.Session = meter.NewSessionMeter(
		meter.WithMode(s.mode),
		meter.WithWindowSeconds(s.windowSeconds),
		meter.WithBattleTimeoutSeconds(s.battleTimeoutSeconds),
		meter.WithHistoryLimit(s.historyLimit),
		meter.WithNameLookup(s.pipeline.Names.Lookup),
	)

	s.loadItemDatabase()
	s.loadZoneIndex()

	if s.replayPath != "" {
		go s.runReplay()
		return nil
	}
	return s.startLive()
}

func (s *Service) startLive() error {
	s.live = capture.NewLive(
		s.handlePacket,
		capture.WithBPFFilter(s.effectiveBPFFilter()),
		capture.WithSnapLen(s.effectiveSnapLen()),
		capture.WithPromiscuous(s.promiscuous),
		capture.WithTimeout(s.effectiveCaptureTimeout()),
		capture.WithRawDumpDir(s.rawDumpDir),
		capture.WithOnlineCallback(s.handleOnlineStatus),
	)

	go s.statsUpdater()

	var err error
	if s.device != "" {
		err = s.live.StartOnDevice(s.device)
	} else {
		err = s.live.Start()
	}
	if err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("failed to start capture: %w", err)
	}
	return nil
}

func (s *Service) runReplay() {
	go s.statsUpdater()

	r := capture.NewReplay(s.replayPath)
	var lastTimestamp float64
	err := r.Run(func(raw capture.RawPacket) {
		lastTimestamp = raw.Timestamp
		s.handlePacket(raw)
	})

	s.pipelineMu.Lock()
	s.pipeline.Finalize(lastTimestamp)
	s.pipelineMu.Unlock()

	msg := "replay finished"
	if err != nil {
		msg = fmt.Sprintf("replay failed: %v", err)
	}
	s.emitEvent(GameEvent{Type: EventTypeInfo, Message: msg, Timestamp: time.Now()})
}

// handlePacket feeds one captured packet through the pipeline. It may
// be called from more than one capture goroutine (one per interface);
// pipelineMu serializes access since the pipeline itself is not safe
// for concurrent use.
func (s *Service) handlePacket(raw capture.RawPacket) {
	s.pipelineMu.Lock()
	before := len(s.pipeline.Session.History(0))
	snaps := s.pipeline.Step(&raw)
	closed := s.pipeline.Session.History(0)
	s.pipelineMu.Unlock()

	for _, snap := range snaps {
		select {
		case s.snapshotsChan <- snap:
		default:
		}
	}

	if newCount := len(closed) - before; newCount > 0 {
		for _, summary := range closed[:newCount] {
			s.emitEvent(GameEvent{
				Type:      EventTypeSessionClosed,
				Message:   fmt.Sprintf("session closed (%s)", summary.Reason),
				Timestamp: time.Now(),
				Data:      SessionClosedData{Summary: summary},
			})
		}
	}
}

func (s *Service) handleOnlineStatus(online bool) {
	select {
	case s.onlineStatusChan <- online:
	default:
	}

	msg := "waiting for game traffic..."
	if online {
		msg = "game traffic detected, capturing..."
	}
	s.emitEvent(GameEvent{Type: EventTypeInfo, Message: msg, Timestamp: time.Now()})
}

func (s *Service) emitEvent(ev GameEvent) {
	select {
	case s.eventsChan <- ev:
	default:
	}
}

// statsUpdater periodically sends decoder stats to the channel.
func (s *Service) statsUpdater() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			select {
			case s.statsChan <- s.stats:
			default:
			}
		}
	}
}

func (s *Service) loadItemDatabase() {
	s.itemDB = items.GetDatabase()
	var err error
	if s.itemDBPath != "" {
		err = s.itemDB.LoadFromFile(s.itemDBPath)
	} else {
		err = s.itemDB.LoadFromPath(".")
	}
	if err == nil {
		s.itemRoles = items.NewResolver(s.itemDB)
	}
}

func (s *Service) loadZoneIndex() {
	s.zoneIndex = zones.NewResolver()
	if s.zoneIndexPath != "" {
		_ = s.zoneIndex.LoadFromFile(s.zoneIndexPath)
	} else {
		_ = s.zoneIndex.LoadFromPath(".")
	}
}

func (s *Service) effectiveBPFFilter() string {
	if s.bpfFilter != "" {
		return s.bpfFilter
	}
	return capture.DefaultBPFFilter
}

func (s *Service) effectiveSnapLen() int32 {
	if s.snapLen != 0 {
		return s.snapLen
	}
	return capture.DefaultSnapLen
}

func (s *Service) effectiveCaptureTimeout() time.Duration {
	if s.captureTimeout != 0 {
		return s.captureTimeout
	}
	return time.Second
}

// SetZoneIndex resolves a zone's wire-level map index (e.g. from a
// manually configured current zone) and, if known, labels the active
// zone-mode session with its display name. No passively observed
// traffic on this wire carries a zone's friendly name, so this is the
// only path that feeds the zone resolver.
func (s *Service) SetZoneIndex(index string) {
	name, ok := s.zoneIndex.NameForIndex(index)
	if !ok {
		return
	}
	s.pipelineMu.Lock()
	s.pipeline.Session.SetZoneLabel(name)
	s.pipelineMu.Unlock()
}

// RoleForEntity resolves an entity's equipped-loadout role
// (tank/heal/dps), if its items and the item database are both known.
func (s *Service) RoleForEntity(entityID int32) (string, bool) {
	if s.itemRoles == nil {
		return "", false
	}
	equipped := s.pipeline.Names.ItemsFor(entityID)
	if equipped == nil {
		return "", false
	}
	return s.itemRoles.RoleForItems(equipped)
}

// SetMode switches what starts and ends a session. A no-op before
// Start() has built the pipeline.
func (s *Service) SetMode(mode meter.Mode, timestamp float64) {
	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()
	if s.pipeline == nil {
		return
	}
	s.pipeline.Session.SetMode(mode, timestamp)
}

// ToggleManual starts or ends a manual-mode session. A no-op before
// Start() has built the pipeline.
func (s *Service) ToggleManual(timestamp float64) {
	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()
	if s.pipeline == nil {
		return
	}
	s.pipeline.Session.ToggleManual(timestamp)
}

// EndSession force-closes the active session, if any. A no-op before
// Start() has built the pipeline.
func (s *Service) EndSession(timestamp float64) {
	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()
	if s.pipeline == nil {
		return
	}
	s.pipeline.Session.EndSession(timestamp)
}

// History returns the current mode's closed sessions, most recent
// first, optionally truncated to limit entries (0 means unbounded).
// Returns nil before Start() has built the pipeline.
func (s *Service) History(limit int) []meter.SessionSummary {
	s.pipelineMu.Lock()
	defer s.pipelineMu.Unlock()
	if s.pipeline == nil {
		return nil
	}
	return s.pipeline.Session.History(limit)
}

// Stop stops the service and closes its channels.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopChan)

	if s.live != nil {
		s.live.Stop()
	}

	close(s.snapshotsChan)
	close(s.eventsChan)
	close(s.statsChan)
	close(s.onlineStatusChan)
}

// IsRunning returns whether the service is currently running.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// IsOnline returns whether game traffic is currently being detected.
// Always false when replaying a capture file.
func (s *Service) IsOnline() bool {
	if s.live == nil {
		return false
	}
	return s.live.IsOnline()
}

// ParserStats returns the current decoder statistics.
func (s *Service) ParserStats() *photon.Stats {
	return s.stats
}
