// internal/discovery/probe.go
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"motion-service/internal/channel"
	"motion-service/pkg/octet"
)

// ErrNotController is returned when a target answers with something that is
// not a controller reply
var ErrNotController = errors.New("target did not answer like a controller")

// ProbeResult is the outcome of one identification query
type ProbeResult struct {
	Firmware string
	Latency  time.Duration
}

// Probe sends command once and expects a non-negative status followed by
// the firmware string
func Probe(ctx context.Context, link octet.Link, command string, maxReply int, timeout time.Duration) (*ProbeResult, error) {
	start := time.Now()
	resp, err := link.WriteRead(ctx, []byte(command), maxReply, timeout)
	latency := time.Since(start)
	if err != nil {
		return &ProbeResult{Latency: latency}, fmt.Errorf("probe failed: %w", err)
	}

	reply := channel.Reply(resp.Text())
	status := reply.Status()
	if status == channel.StatusUnparsed {
		return &ProbeResult{Latency: latency}, fmt.Errorf("%w: %q", ErrNotController, truncate(string(reply), 32))
	}
	if status < 0 {
		return &ProbeResult{Latency: latency}, fmt.Errorf("controller returned status %d", status)
	}

	return &ProbeResult{
		Firmware: strings.Join(reply.Values(), ","),
		Latency:  latency,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
