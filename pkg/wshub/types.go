package wshub

import "marketbeat/internal/market"

// MessageTypeUpdate marks a snapshot push.
const MessageTypeUpdate = "UPDATE"

// Message is the frame pushed to every subscriber, keyed by symbol.
type Message struct {
	Type  string                     `json:"type"`  // Always "UPDATE" for snapshot pushes
	Topic string                     `json:"topic"` // Broadcast topic, e.g. "market://snapshot"
	Data  map[string]market.Snapshot `json:"data"`  // Snapshot per symbol
}
