package capture

import "net"

// RawPacket is one captured UDP datagram, carrying just enough of the
// IP/UDP envelope for zone tracking and packet de-duplication further
// down the pipeline.
type RawPacket struct {
	Timestamp float64
	SrcIP     net.IP
	DstIP     net.IP
	SrcPort   uint16
	DstPort   uint16
	Payload   []byte
}
