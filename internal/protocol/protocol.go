// internal/protocol/protocol.go
package protocol

import (
	"context"
	"errors"
	"sync"
	"time"

	"motion-service/internal/model"
)

// ErrNotOpen is returned by I/O on a closed connection
var ErrNotOpen = errors.New("connection not open")

// DeviceProtocol is a byte transport to the controller. Read and Write
// honor the deadline carried by ctx.
type DeviceProtocol interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Data communication
	Write(ctx context.Context, data []byte) (int, error)
	Read(ctx context.Context, maxBytes int) ([]byte, error)
	Flush() error

	// Protocol information
	GetProtocolType() model.ConnectionType
	Stats() ProtocolStats
}

// ProtocolStats provides protocol-level statistics
type ProtocolStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

// statsRecorder guards ProtocolStats shared by reader and writer paths
type statsRecorder struct {
	mu    sync.Mutex
	stats ProtocolStats
}

func (r *statsRecorder) wrote(n int, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesWritten += int64(n)
	r.stats.OperationCount++
	r.stats.LastActivity = time.Now()
	if r.stats.AverageLatency == 0 {
		r.stats.AverageLatency = latency
	} else {
		r.stats.AverageLatency = (r.stats.AverageLatency + latency) / 2
	}
}

func (r *statsRecorder) read(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesRead += int64(n)
	r.stats.OperationCount++
	r.stats.LastActivity = time.Now()
}

func (r *statsRecorder) failed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.ErrorCount++
}

func (r *statsRecorder) connected(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.IsConnected = v
	if v {
		r.stats.LastActivity = time.Now()
	}
}

func (r *statsRecorder) snapshot() ProtocolStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// remaining returns the time left until ctx's deadline, or fallback
func remaining(ctx context.Context, fallback time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return fallback
	}
	d := time.Until(deadline)
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}
