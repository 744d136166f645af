// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventChannelOpened    EventType = "CHANNEL_OPENED"
	EventChannelClosed    EventType = "CHANNEL_CLOSED"
	EventChannelsReset    EventType = "CHANNELS_RESET"
	EventConnectFailed    EventType = "CONNECT_FAILED"
	EventExchangeComplete EventType = "EXCHANGE_COMPLETED"
	EventExchangeFailed   EventType = "EXCHANGE_FAILED"
	EventTimeoutChanged   EventType = "TIMEOUT_CHANGED"
	EventScanCompleted    EventType = "SCAN_COMPLETED"
)

// ChannelEvent represents an event in the system
type ChannelEvent struct {
	ID        uuid.UUID  `json:"id"`
	EventType EventType  `json:"event_type"`
	Channel   int        `json:"channel"`
	Data      JSONObject `json:"data,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	Severity  string     `json:"severity"` // INFO, WARNING, ERROR
}

// NewChannelEvent stamps a new event
func NewChannelEvent(eventType EventType, channel int, severity string, data JSONObject) ChannelEvent {
	return ChannelEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Channel:   channel,
		Data:      data,
		Timestamp: time.Now(),
		Severity:  severity,
	}
}
