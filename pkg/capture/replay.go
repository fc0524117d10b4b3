package capture

import (
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
)

// Replay reads a previously recorded capture file and replays its
// packets, in file order, using each packet's own recorded timestamp
// rather than wall-clock time. **(added)**: the teacher's capture
// package is live-only; this is new code grounded on gopacket's own
// pcapgo reader API (the dependency the teacher already vendors),
// required by spec.md's replay path and what makes replay-driven tests
// deterministic.
type Replay struct {
	path string
}

// NewReplay returns a Replay source reading packets from path in order.
func NewReplay(path string) *Replay {
	return &Replay{path: path}
}

// Run reads every packet from the capture file in order and calls
// handler for each one, stopping at EOF or the first read error.
func (r *Replay) Run(handler PacketHandler) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer f.Close()

	reader, err := pcapgo.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read capture file header: %w", err)
	}

	linkType := reader.LinkType()
	for {
		data, captureInfo, err := reader.ReadPacketData()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}

		packet := gopacket.NewPacket(data, linkType, gopacket.Default)
		packet.Metadata().CaptureInfo = captureInfo
		packet.Metadata().Timestamp = captureInfo.Timestamp

		raw, ok := packetToRawPacket(packet)
		if !ok {
			continue
		}
		if handler != nil {
			handler(raw)
		}
	}
}
