package server

// ClientMessage is an incoming JSON command from a WebSocket client. Type is one of the
// core command types.
type ClientMessage struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Message is an outgoing JSON message sent to WebSocket clients.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// NewMessage creates a Message for broadcasting to clients.
func NewMessage(msgType string, payload any) Message {
	return Message{Type: msgType, Payload: payload}
}

// Status is the strip snapshot served on /api/status and sent as strip_status.
type Status struct {
	NumLEDs     int    `json:"num_leds"`
	NumSegments int    `json:"num_segments"`
	Brightness  int    `json:"brightness"`
	Pattern     string `json:"pattern"`
	Command     string `json:"command"`
	Status      string `json:"status"`
	Script      string `json:"script"`
	Connected   bool   `json:"ble_connected"`
	RSSI        int16  `json:"ble_rssi"`
	Frames      uint64 `json:"frames"`
}

// CommandResult is the reply to a client command.
type CommandResult struct {
	Type   string `json:"type"`
	Status string `json:"status,omitempty"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}
