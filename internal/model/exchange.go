// internal/model/exchange.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// ExchangeOperation names the channel procedure that produced an exchange
type ExchangeOperation string

const (
	ExchangeSendAndReceive ExchangeOperation = "SEND_AND_RECEIVE"
	ExchangeSendOnly       ExchangeOperation = "SEND_ONLY"
)

// Exchange is a journaled command exchange with the controller
type Exchange struct {
	ID         uuid.UUID         `json:"id" db:"id"`
	Channel    int               `json:"channel" db:"channel"`
	Port       string            `json:"port" db:"port"`
	Operation  ExchangeOperation `json:"operation" db:"operation"`
	Command    string            `json:"command" db:"command"`
	Reply      string            `json:"reply" db:"reply"`
	Values     JSONArray         `json:"values,omitempty" db:"reply_values"`
	Status     int               `json:"status" db:"status"`
	Attempts   int               `json:"attempts" db:"attempts"`
	DurationMs int               `json:"duration_ms" db:"duration_ms"`
	Error      *string           `json:"error,omitempty" db:"error_message"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
}

// Succeeded reports whether the controller accepted the command
func (e *Exchange) Succeeded() bool {
	return e.Error == nil && e.Status >= 0
}

// Resent reports whether the command needed more than one attempt
func (e *Exchange) Resent() bool {
	return e.Attempts > 1
}
