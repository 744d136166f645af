// internal/discovery/configured/scanner_test.go
package configured

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"motion-service/internal/config"
	"motion-service/internal/model"
	"motion-service/pkg/octet"
)

type cannedLink struct {
	reply        string
	err          error
	disconnected bool
}

func (l *cannedLink) Write(_ context.Context, data []byte, _ time.Duration) (int, error) {
	return len(data), nil
}

func (l *cannedLink) WriteRead(_ context.Context, data []byte, _ int, _ time.Duration) (*octet.Response, error) {
	if l.err != nil {
		return nil, l.err
	}
	return &octet.Response{Data: []byte(l.reply), BytesOut: len(data), BytesIn: len(l.reply)}, nil
}

func (l *cannedLink) Disconnect() error {
	l.disconnected = true
	return nil
}

type fakePorts struct {
	endpoints map[string]config.EndpointConfig
	links     map[string]*cannedLink
	addrs     map[string]int
}

func (f *fakePorts) Ports() []string {
	return []string{"lab", "stage", "usb"}
}

func (f *fakePorts) Endpoint(port string) (config.EndpointConfig, bool) {
	ep, ok := f.endpoints[port]
	return ep, ok
}

func (f *fakePorts) Connect(_ context.Context, port string, addr int) (octet.Link, error) {
	f.addrs[port] = addr
	l, ok := f.links[port]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return l, nil
}

func TestConfiguredScanner(t *testing.T) {
	assert := assert.New(t)

	lab := &cannedLink{reply: "0,XPS-Q8 Firmware V1.4"}
	stage := &cannedLink{reply: "-108"}
	ports := &fakePorts{
		endpoints: map[string]config.EndpointConfig{
			"lab":   {Type: config.EndpointTCP, Host: "192.168.0.254"},
			"stage": {Type: config.EndpointSerial, Device: "/dev/ttyUSB0"},
			"usb":   {Type: config.EndpointUSB, VendorID: "104d", ProductID: "3001"},
		},
		links: map[string]*cannedLink{"lab": lab, "stage": stage},
		addrs: map[string]int{},
	}

	scanner := NewScanner(ports, Config{
		ProbeCommand: "FirmwareVersionGet (char *)",
		MaxReply:     256,
		ProbeTimeout: time.Second,
		DefaultAddr:  5001,
	}, zap.NewNop())
	require.True(t, scanner.IsAvailable())

	found, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 3)

	assert.Equal("lab", found[0].Port)
	assert.True(found[0].Reachable)
	assert.Equal("XPS-Q8 Firmware V1.4", found[0].Firmware)
	assert.Equal(model.ConnectionTypeTCP, found[0].ConnectionType)
	assert.Equal("192.168.0.254", found[0].Address)
	assert.Equal(5001, ports.addrs["lab"])

	assert.False(found[1].Reachable)
	assert.Contains(found[1].Error, "-108")
	assert.Equal(model.ConnectionTypeSerial, found[1].ConnectionType)
	assert.Equal(0, ports.addrs["stage"])

	assert.False(found[2].Reachable)
	assert.Equal("104d:3001", found[2].Address)
	assert.Contains(found[2].Error, "refused")

	assert.True(lab.disconnected)
	assert.True(stage.disconnected)
}

func TestConfiguredScannerStopsOnCancel(t *testing.T) {
	ports := &fakePorts{addrs: map[string]int{}}
	scanner := NewScanner(ports, Config{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	found, err := scanner.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, found)
}
