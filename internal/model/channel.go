// internal/model/channel.go
package model

import "time"

// ConnectionType represents how a port reaches the controller
type ConnectionType string

const (
	ConnectionTypeSerial ConnectionType = "SERIAL"
	ConnectionTypeUSB    ConnectionType = "USB"
	ConnectionTypeTCP    ConnectionType = "TCP"
)

// ChannelInfo describes an open channel
type ChannelInfo struct {
	Index     int       `json:"index"`
	Port      string    `json:"port"`
	Addr      int       `json:"addr"`
	TimeoutMs int64     `json:"timeout_ms"`
	ErrorCode int       `json:"error_code"`
	LastError string    `json:"last_error,omitempty"`
	OpenedAt  time.Time `json:"opened_at"`
}
