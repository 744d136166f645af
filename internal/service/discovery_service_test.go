// internal/service/discovery_service_test.go
package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"motion-service/internal/config"
	"motion-service/internal/discovery"
	"motion-service/internal/model"
	"motion-service/internal/protocol"
)

type fixedScanner struct {
	kind  string
	found []*discovery.DiscoveredController
}

func (s *fixedScanner) Scan(context.Context) ([]*discovery.DiscoveredController, error) {
	return s.found, nil
}

func (s *fixedScanner) GetScannerType() string { return s.kind }

func (s *fixedScanner) IsAvailable() bool { return true }

func TestDiscoveryServiceScan(t *testing.T) {
	assert := assert.New(t)
	events := &recordingPublisher{}

	ds := NewDiscoveryService(events, zap.NewNop(),
		&fixedScanner{kind: "configured", found: []*discovery.DiscoveredController{{Port: "xps1", Reachable: true}}},
		&fixedScanner{kind: "tcp", found: []*discovery.DiscoveredController{{Address: "10.0.0.9:5001"}}},
	)
	assert.Equal([]string{"configured", "tcp"}, ds.AvailableScanners())

	found, err := ds.Scan(context.Background(), "")
	require.NoError(t, err)
	assert.Len(found, 2)

	found, err = ds.Scan(context.Background(), "tcp")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal("tcp", found[0].Scanner)

	_, err = ds.Scan(context.Background(), "usb")
	assert.Error(err)

	require.Len(t, events.events, 2)
	assert.Equal(model.EventScanCompleted, events.events[0].EventType)
	assert.Equal(1, events.events[0].Data["reachable"])
}

func TestDefaultScanners(t *testing.T) {
	cfg := &config.Config{
		Channel:   config.ChannelConfig{ProbeCommand: "FirmwareVersionGet (char *)"},
		Discovery: config.DiscoveryConfig{NetworkRanges: []string{"10.0.0.0/29"}},
	}
	io := protocol.NewSyncIO(config.ProtocolConfig{}, zap.NewNop())

	scanners := DefaultScanners(cfg, io, io, zap.NewNop())
	require.Len(t, scanners, 2)
	assert.Equal(t, "configured", scanners[0].GetScannerType())
	assert.False(t, scanners[0].IsAvailable())
	assert.Equal(t, "tcp", scanners[1].GetScannerType())
	assert.True(t, scanners[1].IsAvailable())
}
