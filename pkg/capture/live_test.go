package capture

import (
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func buildUDPPacket(t *testing.T, srcIP, dstIP string, srcPort, dstPort uint16, payload []byte) gopacket.Packet {
	t.Helper()

	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP(srcIP),
		DstIP:    net.ParseIP(dstIP),
	}
	udp := &layers.UDP{SrcPort: layers.UDPPort(srcPort), DstPort: layers.UDPPort(dstPort)}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("SetNetworkLayerForChecksum: %v", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, ip, udp, gopacket.Payload(payload)); err != nil {
		t.Fatalf("SerializeLayers: %v", err)
	}

	packet := gopacket.NewPacket(buf.Bytes(), layers.LayerTypeIPv4, gopacket.Default)
	packet.Metadata().Timestamp = time.Unix(1700000000, 500000000)
	return packet
}

func TestPacketToRawPacketExtractsEnvelope(t *testing.T) {
	packet := buildUDPPacket(t, "10.0.0.1", "10.0.0.2", 6000, 5056, []byte{1, 2, 3, 4})

	raw, ok := packetToRawPacket(packet)
	if !ok {
		t.Fatalf("expected packet to decode")
	}
	if raw.SrcPort != 6000 || raw.DstPort != 5056 {
		t.Errorf("unexpected ports: src=%d dst=%d", raw.SrcPort, raw.DstPort)
	}
	if !raw.SrcIP.Equal(net.ParseIP("10.0.0.1")) || !raw.DstIP.Equal(net.ParseIP("10.0.0.2")) {
		t.Errorf("unexpected ips: src=%v dst=%v", raw.SrcIP, raw.DstIP)
	}
	if string(raw.Payload) != "\x01\x02\x03\x04" {
		t.Errorf("unexpected payload: %v", raw.Payload)
	}
	if raw.Timestamp != 1700000000.5 {
		t.Errorf("expected timestamp 1700000000.5, got %v", raw.Timestamp)
	}
}

func TestPacketToRawPacketRejectsEmptyPayload(t *testing.T) {
	packet := buildUDPPacket(t, "10.0.0.1", "10.0.0.2", 6000, 5056, nil)
	if _, ok := packetToRawPacket(packet); ok {
		t.Errorf("expected an empty-payload packet to be rejected")
	}
}
