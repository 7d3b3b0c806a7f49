// Package event defines the inbound event contract produced by the
// conferencing runtime and the family classification used for routing.
package event

import (
	"strings"
	"time"
)

// Envelope is a single inbound event. The MeetingID field of the wire
// contract carries the external room name, not a durable meeting identity;
// resolution to the durable identity happens inside the ingestion pipeline.
type Envelope struct {
	EventID   string         `json:"eventId" binding:"required"`
	Type      string         `json:"type" binding:"required"`
	Payload   map[string]any `json:"payload"`
	Timestamp int64          `json:"timestamp"`
	RoomName  string         `json:"meetingId"`
}

// OccurredAt converts the epoch-millisecond timestamp.
func (e Envelope) OccurredAt() time.Time {
	if e.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.Timestamp).UTC()
}

// Room returns the room reference, preferring an explicit payload roomName
// over the envelope field.
func (e Envelope) Room() string {
	if room := e.String("roomName"); room != "" {
		return room
	}
	return strings.TrimSpace(e.RoomName)
}

// String returns a trimmed string payload field, or "" when absent.
func (e Envelope) String(key string) string {
	if e.Payload == nil {
		return ""
	}
	if v, ok := e.Payload[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Bool returns a bool payload field.
func (e Envelope) Bool(key string) bool {
	if e.Payload == nil {
		return false
	}
	v, _ := e.Payload[key].(bool)
	return v
}

// Int returns an integer payload field. JSON numbers decode as float64.
func (e Envelope) Int(key string) (int64, bool) {
	if e.Payload == nil {
		return 0, false
	}
	switch v := e.Payload[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// Time returns a payload timestamp field, accepting epoch milliseconds or
// RFC3339 strings. Falls back to the zero time when absent or unparsable.
func (e Envelope) Time(key string) time.Time {
	if e.Payload == nil {
		return time.Time{}
	}
	switch v := e.Payload[key].(type) {
	case float64:
		return time.UnixMilli(int64(v)).UTC()
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
