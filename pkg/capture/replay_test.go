package capture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func writeTestCapture(t *testing.T, path string, payloads [][]byte) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create capture file: %v", err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeIPv4); err != nil {
		t.Fatalf("write file header: %v", err)
	}

	for i, payload := range payloads {
		packet := buildUDPPacket(t, "10.0.0.1", "10.0.0.2", 6000, 5056, payload)
		ts := time.Unix(1700000000+int64(i), 0)
		ci := gopacket.CaptureInfo{
			Timestamp:     ts,
			CaptureLength: len(packet.Data()),
			Length:        len(packet.Data()),
		}
		if err := w.WritePacket(ci, packet.Data()); err != nil {
			t.Fatalf("write packet %d: %v", i, err)
		}
	}
}

func TestReplayRunsPacketsInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.pcap")
	writeTestCapture(t, path, [][]byte{{1}, {2}, {3}})

	var seen []float64
	r := NewReplay(path)
	err := r.Run(func(raw RawPacket) {
		seen = append(seen, raw.Timestamp)
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 packets, got %d", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Errorf("expected strictly increasing timestamps, got %v", seen)
		}
	}
}

func TestReplayMissingFile(t *testing.T) {
	r := NewReplay("/nonexistent/capture.pcap")
	if err := r.Run(nil); err == nil {
		t.Errorf("expected an error for a missing capture file")
	}
}
