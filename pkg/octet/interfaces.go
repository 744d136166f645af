// pkg/octet/interfaces.go
package octet

import (
	"context"
	"time"
)

// SyncIO opens synchronous octet links to named ports
type SyncIO interface {
	// Connect attaches to a port and device address and returns a link to it
	Connect(ctx context.Context, port string, addr int) (Link, error)
}

// Link is a connected, synchronous, line-oriented octet stream.
// Implementations enforce the timeout passed to each call.
type Link interface {
	// Write sends data and returns the number of bytes written
	Write(ctx context.Context, data []byte, timeout time.Duration) (int, error)

	// WriteRead discards pending input, sends data and reads one reply of at
	// most maxReply bytes
	WriteRead(ctx context.Context, data []byte, maxReply int, timeout time.Duration) (*Response, error)

	// Disconnect releases the link
	Disconnect() error
}
