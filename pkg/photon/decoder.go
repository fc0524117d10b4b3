package photon

import (
	"encoding/binary"
	"time"

	"github.com/albiondps/meter/pkg/protocol16"
)

const (
	headerLength         = 12
	commandHeaderLength  = 12
	fragmentHeaderLength = 20

	commandTypeDisconnect     = 4
	commandTypeSendReliable   = 6
	commandTypeSendUnreliable = 7
	commandTypeSendFragment   = 8

	messageTypeOperationRequest  = 2
	messageTypeOperationResponse = 3
	messageTypeEventData         = 4
	messageTypeInternalRequest   = 6
	messageTypeInternalResponse  = 7

	flagEncrypted = 1
	flagCRC       = 0xCC

	signalByteReliable   = 243
	signalByteUnreliable = 253

	// FragmentTTL bounds how long an incomplete fragmented packet is kept
	// before it is dropped. Cleanup is opportunistic (run from Decode) so
	// the decoder stays single-threaded.
	FragmentTTL = 30 * time.Second
)

// fragmentedPacket accumulates a packet split across SendFragment commands.
type fragmentedPacket struct {
	totalLength  int32
	payload      []byte
	bytesWritten int
	createdAt    time.Time
}

// Decoder turns RawPacket payloads into Messages. It is not safe for
// concurrent use — the pipeline that owns a Decoder must call Decode from a
// single goroutine, matching the core's single-threaded design.
type Decoder struct {
	debug   bool
	stats   *Stats
	pending map[int32]*fragmentedPacket
}

// NewDecoder creates a Decoder. stats may be nil if no counters are wanted.
func NewDecoder(stats *Stats) *Decoder {
	return &Decoder{
		stats:   stats,
		pending: make(map[int32]*fragmentedPacket),
	}
}

func (d *Decoder) SetDebug(debug bool) { d.debug = debug }

// Decode parses one Photon UDP payload into zero or more Messages. It never
// errors: malformed input yields fewer messages, never a panic or an error
// return, per the decoder's "skip the bad part, keep the rest" contract.
func (d *Decoder) Decode(payload []byte) []Message {
	d.evictExpiredFragments()

	if d.stats != nil {
		d.stats.IncrPacketsReceived()
		d.stats.AddBytesReceived(uint64(len(payload)))
	}

	if len(payload) < headerLength {
		if d.stats != nil {
			d.stats.IncrPacketsMalformed()
		}
		return nil
	}

	offset := 2 // peerId, unused
	flags := payload[offset]
	offset++
	commandCount := payload[offset]
	offset++
	offset += 4 // timestamp, unused
	offset += 4 // challenge, unused

	if flags == flagEncrypted {
		if d.stats != nil {
			d.stats.IncrPacketsEncrypted()
		}
		return nil
	}
	if flags == flagCRC {
		offset += 4
		if d.stats != nil {
			d.stats.IncrPacketsWithCRC()
		}
	}

	var messages []Message
	for i := 0; i < int(commandCount) && offset < len(payload); i++ {
		if offset+commandHeaderLength > len(payload) {
			break
		}

		commandType := payload[offset]
		offset++
		offset++ // channelId
		offset++ // commandFlags
		offset++ // reserved

		commandLength := int(binary.BigEndian.Uint32(payload[offset:]))
		offset += 4
		sequenceNumber := int32(binary.BigEndian.Uint32(payload[offset:]))
		offset += 4

		commandLength -= commandHeaderLength
		if commandLength < 0 || offset+commandLength > len(payload) {
			break
		}

		switch commandType {
		case commandTypeDisconnect:
			if d.stats != nil {
				d.stats.IncrPacketsProcessed()
			}
			return messages

		case commandTypeSendUnreliable:
			if commandLength < 4 {
				offset += commandLength
				continue
			}
			offset += 4
			commandLength -= 4
			messages = append(messages, d.decodeReliable(payload[offset:offset+commandLength])...)
			offset += commandLength

		case commandTypeSendReliable:
			messages = append(messages, d.decodeReliable(payload[offset:offset+commandLength])...)
			offset += commandLength

		case commandTypeSendFragment:
			if msg, ok := d.decodeFragment(payload[offset:offset+commandLength], sequenceNumber); ok {
				messages = append(messages, msg...)
			}
			offset += commandLength

		default:
			offset += commandLength
		}
	}

	if d.stats != nil {
		d.stats.IncrPacketsProcessed()
	}
	return messages
}

func (d *Decoder) decodeReliable(data []byte) []Message {
	if len(data) < 2 {
		return nil
	}

	signal := data[0]
	if signal != signalByteReliable && signal != signalByteUnreliable {
		return nil
	}
	messageType := data[1]
	if messageType > 128 {
		// Encrypted payload; out of scope for a passive observer.
		return nil
	}

	body := data[2:]
	switch messageType {
	case messageTypeOperationRequest, messageTypeInternalRequest:
		if msg, ok := d.decodeRequest(body); ok {
			return []Message{msg}
		}
	case messageTypeOperationResponse, messageTypeInternalResponse:
		if msg, ok := d.decodeResponse(body); ok {
			return []Message{msg}
		}
	case messageTypeEventData:
		if msg, ok := d.decodeEvent(body); ok {
			return []Message{msg}
		}
	}
	return nil
}

func (d *Decoder) decodeFragment(data []byte, sequenceNumber int32) ([]Message, bool) {
	if len(data) < fragmentHeaderLength {
		return nil, false
	}
	if d.stats != nil {
		d.stats.IncrFragmentsReceived()
	}

	startSeq := int32(binary.BigEndian.Uint32(data[0:]))
	totalLength := int32(binary.BigEndian.Uint32(data[12:]))
	fragmentOffset := int(binary.BigEndian.Uint32(data[16:]))
	fragmentLength := len(data) - fragmentHeaderLength

	if fragmentOffset < 0 || fragmentLength < 0 || fragmentOffset+fragmentLength > int(totalLength) {
		return nil, false
	}

	frag, exists := d.pending[startSeq]
	if !exists {
		frag = &fragmentedPacket{
			totalLength: totalLength,
			payload:     make([]byte, totalLength),
			createdAt:   time.Now(),
		}
		d.pending[startSeq] = frag
	}

	copy(frag.payload[fragmentOffset:], data[fragmentHeaderLength:fragmentHeaderLength+fragmentLength])
	frag.bytesWritten += fragmentLength

	if frag.bytesWritten < int(frag.totalLength) {
		return nil, true
	}

	delete(d.pending, startSeq)
	if d.stats != nil {
		d.stats.IncrFragmentsCompleted()
	}
	return d.decodeReliable(frag.payload), true
}

func (d *Decoder) evictExpiredFragments() {
	if len(d.pending) == 0 {
		return
	}
	now := time.Now()
	for seq, frag := range d.pending {
		if now.Sub(frag.createdAt) > FragmentTTL {
			delete(d.pending, seq)
			if d.stats != nil {
				d.stats.IncrFragmentsExpired()
			}
		}
	}
}

func (d *Decoder) decodeRequest(data []byte) (Message, bool) {
	if len(data) < 1 {
		return Message{}, false
	}
	code := data[0]
	r := protocol16.NewReader(data[1:])
	params := protocol16.DecodeParamTable(r)
	if d.stats != nil {
		d.stats.IncrRequestsDecoded()
	}
	return Message{Kind: KindRequest, Code: code, Params: params}, true
}

func (d *Decoder) decodeResponse(data []byte) (Message, bool) {
	if len(data) < 4 {
		return Message{}, false
	}
	code := data[0]
	returnCode := int16(binary.BigEndian.Uint16(data[1:]))

	r := protocol16.NewReader(data[3:])
	debugMessage := ""
	if tag, err := r.ReadByte(); err == nil {
		if tag != 0 && tag != protocol16.TypeNull {
			if v, ok := protocol16.DecodeValue(r, tag).(string); ok {
				debugMessage = v
			}
		}
	}
	params := protocol16.DecodeParamTable(r)
	if d.stats != nil {
		d.stats.IncrResponsesDecoded()
	}
	return Message{
		Kind:         KindResponse,
		Code:         code,
		ReturnCode:   returnCode,
		DebugMessage: debugMessage,
		Params:       params,
	}, true
}

func (d *Decoder) decodeEvent(data []byte) (Message, bool) {
	if len(data) < 1 {
		return Message{}, false
	}
	code := data[0]
	r := protocol16.NewReader(data[1:])
	params := protocol16.DecodeParamTable(r)
	if d.stats != nil {
		d.stats.IncrEventsDecoded()
	}
	return Message{Kind: KindEvent, Code: code, Params: params}, true
}
