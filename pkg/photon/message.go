// Package photon decodes Photon-protocol UDP payloads into structured
// messages, reassembling the command/fragment framing that sits underneath
// Protocol16-encoded operation requests, operation responses, and events.
package photon

import "github.com/albiondps/meter/pkg/protocol16"

// Kind identifies which of the three Photon message shapes a Message is.
type Kind int

const (
	KindEvent Kind = iota
	KindRequest
	KindResponse
)

// Message is one decoded command from a packet's Photon container.
type Message struct {
	Kind Kind

	// Code is the event code (KindEvent) or operation code (KindRequest/KindResponse).
	Code byte

	// ReturnCode and DebugMessage are only meaningful for KindResponse.
	ReturnCode   int16
	DebugMessage string

	Params protocol16.ParamTable
}
