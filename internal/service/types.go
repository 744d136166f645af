// internal/service/types.go
package service

import (
	"github.com/google/uuid"

	"motion-service/internal/model"
)

// OpenChannelRequest represents a channel open request
type OpenChannelRequest struct {
	Port      string `json:"port" binding:"required"`
	Addr      int    `json:"addr"`
	TimeoutMs int    `json:"timeout_ms"`
}

// CommandRequest carries one controller command
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// TimeoutRequest changes a channel timeout
type TimeoutRequest struct {
	TimeoutMs int `json:"timeout_ms" binding:"required,gt=0"`
}

// ExchangeResponse describes a finished exchange
type ExchangeResponse struct {
	ID          uuid.UUID               `json:"id"`
	Channel     int                     `json:"channel"`
	Port        string                  `json:"port,omitempty"`
	Operation   model.ExchangeOperation `json:"operation"`
	Command     string                  `json:"command"`
	Reply       string                  `json:"reply"`
	Values      []string                `json:"values,omitempty"`
	Status      int                     `json:"status"`
	ProbeStatus int                     `json:"probe_status,omitempty"`
	Attempts    int                     `json:"attempts"`
	DurationMs  int64                   `json:"duration_ms"`
	Error       string                  `json:"error,omitempty"`
}
