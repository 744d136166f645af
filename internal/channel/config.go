// internal/channel/config.go
package channel

import "time"

const (
	// MaxChannels is the number of handle slots in a table
	MaxChannels = 50
	// DefaultTimeout is the per-channel I/O timeout until SetTimeout changes it
	DefaultTimeout = 200 * time.Millisecond
	// MaxRetry bounds the resend loops of SendAndReceive and SendOnly
	MaxRetry = 5
	// MaxMessageSize is the longest command accepted and the reply buffer size
	MaxMessageSize = 256
	// SettleDelay is the pause between a one-way write and the first probe
	SettleDelay = 20 * time.Millisecond
	// ProbeCommand is a harmless query used to drain a confused controller
	ProbeCommand = "FirmwareVersionGet (char *)"
)

// Config holds table limits and the resynchronization policy.
// Zero fields take the defaults, except SettleDelay where zero means no pause.
type Config struct {
	MaxChannels    int           `json:"max_channels"`
	DefaultTimeout time.Duration `json:"default_timeout"`
	MaxRetry       int           `json:"max_retry"`
	MaxMessageSize int           `json:"max_message_size"`
	SettleDelay    time.Duration `json:"settle_delay"`
	ProbeCommand   string        `json:"probe_command"`

	// HonorConnectTimeout makes Connect use the caller's timeout instead of
	// DefaultTimeout when it is positive
	HonorConnectTimeout bool `json:"honor_connect_timeout"`
}

// DefaultConfig returns the limits the XPS driver has always used
func DefaultConfig() Config {
	return Config{
		MaxChannels:    MaxChannels,
		DefaultTimeout: DefaultTimeout,
		MaxRetry:       MaxRetry,
		MaxMessageSize: MaxMessageSize,
		SettleDelay:    SettleDelay,
		ProbeCommand:   ProbeCommand,
	}
}

// withDefaults fills zero fields from DefaultConfig
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxChannels <= 0 {
		c.MaxChannels = def.MaxChannels
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = def.DefaultTimeout
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = def.MaxRetry
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	if c.ProbeCommand == "" {
		c.ProbeCommand = def.ProbeCommand
	}
	return c
}
