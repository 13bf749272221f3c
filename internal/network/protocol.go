package network

import (
	"encoding/json"
)

// Message is the envelope for everything that crosses the wire, in both
// directions. Type selects the route; Payload stays as raw JSON so each
// handler decodes only the shape it expects.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MaxMessageSize caps a single client frame. Gameplay traffic is tiny, so a
// frame anywhere near this limit means a misbehaving client.
const MaxMessageSize = 8 * 1024
