// Package capture provides live and replay sources of RawPackets: a
// gopacket/pcap BPF-filtered live capture, and a gopacket/pcapgo reader
// over a previously recorded capture file.
package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// DefaultBPFFilter matches the three UDP ports the game's master, game,
// and zone servers use.
const DefaultBPFFilter = "udp and (port 5055 or port 5056 or port 5058)"

const (
	DefaultSnapLen = 65535
	DefaultPromisc = false
)

// PacketHandler receives each captured or replayed packet in order.
type PacketHandler func(RawPacket)

// LiveOption configures a Live capture source.
type LiveOption func(*Live)

func WithBPFFilter(filter string) LiveOption {
	return func(l *Live) { l.BPFFilter = filter }
}

func WithSnapLen(snapLen int32) LiveOption {
	return func(l *Live) { l.SnapLen = snapLen }
}

func WithPromiscuous(promisc bool) LiveOption {
	return func(l *Live) { l.Promiscuous = promisc }
}

func WithTimeout(timeout time.Duration) LiveOption {
	return func(l *Live) { l.Timeout = timeout }
}

// WithRawDumpDir writes every captured payload to its own file under
// dir, for later offline inspection or replay.
func WithRawDumpDir(dir string) LiveOption {
	return func(l *Live) { l.dumpDir = dir }
}

func WithOnlineCallback(cb func(online bool)) LiveOption {
	return func(l *Live) { l.OnlineCallback = cb }
}

// Live captures packets from one or more network interfaces with a BPF
// filter, reporting each one as a RawPacket to a handler. Grounded on
// the teacher's pkg/capture/capture.go, generalized from a hardcoded
// two-port Albion filter to the configurable interface/BPF/snaplen/
// promisc/timeout surface the CLI's `live` subcommand exposes.
type Live struct {
	BPFFilter   string
	SnapLen     int32
	Promiscuous bool
	Timeout     time.Duration

	OnlineCallback func(online bool)

	handler PacketHandler
	dumpDir string

	handles []*pcap.Handle
	running bool
	mu      sync.Mutex
	wg      sync.WaitGroup

	lastPacketTime time.Time
	isOnline       bool
	dumpSeq        uint64
}

// NewLive returns a Live source with the default BPF filter/snaplen/
// promiscuity and a 1 second receive timeout.
func NewLive(handler PacketHandler, opts ...LiveOption) *Live {
	l := &Live{
		BPFFilter:   DefaultBPFFilter,
		SnapLen:     DefaultSnapLen,
		Promiscuous: DefaultPromisc,
		Timeout:     time.Second,
		handler:     handler,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ListDevices returns all available network devices.
func ListDevices() ([]pcap.Interface, error) {
	return pcap.FindAllDevs()
}

// PrintDevices prints all available network devices, for --list-interfaces.
func PrintDevices() error {
	devices, err := ListDevices()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	fmt.Println("Available network devices:")
	for i, device := range devices {
		fmt.Printf("  %d. %s\n", i+1, device.Name)
		if device.Description != "" {
			fmt.Printf("     Description: %s\n", device.Description)
		}
		for _, addr := range device.Addresses {
			if addr.IP.To4() != nil {
				fmt.Printf("     IPv4: %s\n", addr.IP)
			}
		}
	}
	return nil
}

// Start begins capturing on every interface carrying an IPv4 address.
func (l *Live) Start() error {
	devices, err := ListDevices()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	l.mu.Lock()
	l.running = true
	l.mu.Unlock()

	for _, device := range devices {
		for _, addr := range device.Addresses {
			if addr.IP.To4() != nil {
				go l.captureOnDevice(device.Name)
				break
			}
		}
	}

	go l.checkOnlineStatus()
	return nil
}

// StartOnDevice begins capturing on a single named interface.
func (l *Live) StartOnDevice(deviceName string) error {
	l.mu.Lock()
	l.running = true
	l.mu.Unlock()

	go l.captureOnDevice(deviceName)
	go l.checkOnlineStatus()
	return nil
}

func (l *Live) captureOnDevice(deviceName string) {
	handle, err := pcap.OpenLive(deviceName, l.SnapLen, l.Promiscuous, l.Timeout)
	if err != nil {
		fmt.Printf("warning: could not open device %s: %v\n", deviceName, err)
		return
	}

	if err := handle.SetBPFFilter(l.BPFFilter); err != nil {
		fmt.Printf("warning: could not set BPF filter on %s: %v\n", deviceName, err)
		handle.Close()
		return
	}

	l.mu.Lock()
	l.handles = append(l.handles, handle)
	l.mu.Unlock()

	fmt.Printf("listening on %s\n", deviceName)

	l.wg.Add(1)
	defer l.wg.Done()

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range source.Packets() {
		l.mu.Lock()
		running := l.running
		l.mu.Unlock()
		if !running {
			break
		}
		l.processPacket(packet)
	}
}

func (l *Live) processPacket(packet gopacket.Packet) {
	raw, ok := packetToRawPacket(packet)
	if !ok {
		return
	}

	l.mu.Lock()
	l.lastPacketTime = time.Now()
	wasOnline := l.isOnline
	l.isOnline = true
	l.mu.Unlock()
	if !wasOnline && l.OnlineCallback != nil {
		l.OnlineCallback(true)
	}

	if l.dumpDir != "" {
		l.dumpPayload(raw.Payload)
	}
	if l.handler != nil {
		l.handler(raw)
	}
}

func (l *Live) dumpPayload(payload []byte) {
	l.mu.Lock()
	l.dumpSeq++
	seq := l.dumpSeq
	l.mu.Unlock()

	name := filepath.Join(l.dumpDir, fmt.Sprintf("packet-%08d.bin", seq))
	if err := os.WriteFile(name, payload, 0o644); err != nil {
		fmt.Printf("warning: could not write raw dump %s: %v\n", name, err)
	}
}

func (l *Live) checkOnlineStatus() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		if !l.running {
			l.mu.Unlock()
			return
		}
		stale := l.isOnline && time.Since(l.lastPacketTime) > 5*time.Second
		if stale {
			l.isOnline = false
		}
		l.mu.Unlock()

		if stale && l.OnlineCallback != nil {
			l.OnlineCallback(false)
		}
	}
}

// Stop halts all capture goroutines and closes their handles.
func (l *Live) Stop() {
	l.mu.Lock()
	l.running = false
	handles := l.handles
	l.mu.Unlock()

	for _, handle := range handles {
		handle.Close()
	}
	l.wg.Wait()
}

// IsOnline reports whether a packet has been seen in the last 5 seconds.
func (l *Live) IsOnline() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isOnline
}

// packetToRawPacket extracts the IPv4/UDP envelope and payload a
// RawPacket needs, using the packet's own capture timestamp.
func packetToRawPacket(packet gopacket.Packet) (RawPacket, bool) {
	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return RawPacket{}, false
	}
	ip, _ := ipLayer.(*layers.IPv4)

	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return RawPacket{}, false
	}
	udp, _ := udpLayer.(*layers.UDP)

	appLayer := packet.ApplicationLayer()
	if appLayer == nil {
		return RawPacket{}, false
	}
	payload := appLayer.Payload()
	if len(payload) == 0 {
		return RawPacket{}, false
	}

	ts := packet.Metadata().Timestamp
	return RawPacket{
		Timestamp: float64(ts.UnixNano()) / 1e9,
		SrcIP:     ip.SrcIP,
		DstIP:     ip.DstIP,
		SrcPort:   uint16(udp.SrcPort),
		DstPort:   uint16(udp.DstPort),
		Payload:   payload,
	}, true
}
