// Package protocol defines the observer wire messages. The observer surface
// is read-only: a JSON bootstrap plus a SUBSCRIBE/STATE websocket stream.
package protocol

const Version = "1.0"

const (
	TypeSubscribe = "SUBSCRIBE"
	TypeState     = "STATE"
	TypeError     = "ERROR"
)

// BootstrapResponse describes the world to a connecting observer.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	Tick            uint64      `json:"tick"`
	TickRateHz      int         `json:"tick_rate_hz"`
	DefaultFloorID  string      `json:"default_floor_id"`
	Floors          []FloorInfo `json:"floors"`
}

type FloorInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// SubscribeMsg must be the first frame an observer sends.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// EveryTicks throttles state frames; 0 means every published frame.
	EveryTicks int `json:"every_ticks,omitempty"`
}

// StateFrame is one published view of the registry.
type StateFrame struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Tick            uint64       `json:"tick"`
	Units           int          `json:"units"`
	Ports           int          `json:"ports"`
	Floors          []FloorState `json:"floors"`
}

type FloorState struct {
	ID          string `json:"id"`
	Units       int    `json:"units"`
	Ports       int    `json:"ports"`
	QueuedItems int    `json:"queued_items"`
	PlacedTotal uint64 `json:"placed_total"`
}

type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}
