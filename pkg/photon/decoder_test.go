package photon

import (
	"encoding/binary"
	"testing"

	"github.com/albiondps/meter/pkg/protocol16"
)

// buildPacket assembles a minimal Photon UDP payload carrying a single
// reliable command whose body is (signal byte, message type, commandBody).
func buildPacket(messageType byte, commandBody []byte) []byte {
	body := append([]byte{signalByteReliable, messageType}, commandBody...)

	cmd := make([]byte, commandHeaderLength+len(body))
	cmd[0] = commandTypeSendReliable
	cmd[1] = 0 // channel
	cmd[2] = 0 // flags
	cmd[3] = 0 // reserved
	binary.BigEndian.PutUint32(cmd[4:], uint32(commandHeaderLength+len(body)))
	binary.BigEndian.PutUint32(cmd[8:], 1) // sequence number
	copy(cmd[commandHeaderLength:], body)

	pkt := make([]byte, headerLength+len(cmd))
	binary.BigEndian.PutUint16(pkt[0:], 1) // peerId
	pkt[2] = 0                             // flags
	pkt[3] = 1                             // commandCount
	binary.BigEndian.PutUint32(pkt[4:], 0) // timestamp
	binary.BigEndian.PutUint32(pkt[8:], 0) // challenge
	copy(pkt[headerLength:], cmd)

	return pkt
}

func buildEventBody(eventCode byte, params protocol16.ParamTable) []byte {
	w := protocol16.NewWriter()
	protocol16.EncodeParamTable(w, params)
	return append([]byte{eventCode}, w.Bytes()...)
}

func TestDecodeEventMessage(t *testing.T) {
	params := protocol16.ParamTable{
		0:   int32(7),
		1:   int32(99),
		252: int16(257),
	}
	pkt := buildPacket(messageTypeEventData, buildEventBody(1, params))

	d := NewDecoder(NewStats())
	msgs := d.Decode(pkt)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	msg := msgs[0]
	if msg.Kind != KindEvent || msg.Code != 1 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Params[0] != int32(7) || msg.Params[1] != int32(99) {
		t.Errorf("unexpected params: %+v", msg.Params)
	}
}

func TestDecodeTruncatedPacketYieldsNothing(t *testing.T) {
	d := NewDecoder(nil)
	msgs := d.Decode([]byte{1, 2, 3})
	if len(msgs) != 0 {
		t.Errorf("expected no messages for truncated packet, got %d", len(msgs))
	}
}

func TestDecodeEncryptedPacketSkipped(t *testing.T) {
	pkt := buildPacket(messageTypeEventData, buildEventBody(1, protocol16.ParamTable{}))
	pkt[2] = flagEncrypted // override flags byte

	d := NewDecoder(nil)
	msgs := d.Decode(pkt)
	if len(msgs) != 0 {
		t.Errorf("expected encrypted packet to decode to nothing, got %d", len(msgs))
	}
}

func TestDecodeFragmentedPacketReassembles(t *testing.T) {
	params := protocol16.ParamTable{0: int32(42)}
	full := append([]byte{signalByteReliable, messageTypeEventData}, buildEventBody(9, params)...)

	split := len(full) / 2
	frag1 := fragmentCommand(1, int32(len(full)), 0, full[:split])
	frag2 := fragmentCommand(1, int32(len(full)), split, full[split:])

	pkt := packCommands(frag1, frag2)

	d := NewDecoder(nil)
	msgs := d.Decode(pkt)
	if len(msgs) != 1 {
		t.Fatalf("expected reassembled message, got %d messages", len(msgs))
	}
	if msgs[0].Code != 9 {
		t.Errorf("unexpected event code: %d", msgs[0].Code)
	}
}

func fragmentCommand(startSeq int32, totalLength int32, fragOffset int, data []byte) []byte {
	fragBody := make([]byte, fragmentHeaderLength+len(data))
	binary.BigEndian.PutUint32(fragBody[0:], uint32(startSeq))
	binary.BigEndian.PutUint32(fragBody[4:], 1) // fragment count
	binary.BigEndian.PutUint32(fragBody[8:], 0) // fragment number (unused by decoder)
	binary.BigEndian.PutUint32(fragBody[12:], uint32(totalLength))
	binary.BigEndian.PutUint32(fragBody[16:], uint32(fragOffset))
	copy(fragBody[fragmentHeaderLength:], data)

	cmd := make([]byte, commandHeaderLength+len(fragBody))
	cmd[0] = commandTypeSendFragment
	binary.BigEndian.PutUint32(cmd[4:], uint32(commandHeaderLength+len(fragBody)))
	binary.BigEndian.PutUint32(cmd[8:], uint32(startSeq))
	copy(cmd[commandHeaderLength:], fragBody)
	return cmd
}

func packCommands(cmds ...[]byte) []byte {
	total := 0
	for _, c := range cmds {
		total += len(c)
	}
	pkt := make([]byte, headerLength+total)
	pkt[3] = byte(len(cmds))
	offset := headerLength
	for _, c := range cmds {
		copy(pkt[offset:], c)
		offset += len(c)
	}
	return pkt
}
