// internal/discovery/configured/scanner.go
package configured

import (
	"context"
	"time"

	"go.uber.org/zap"

	"motion-service/internal/config"
	"motion-service/internal/discovery"
	"motion-service/internal/protocol"
	"motion-service/pkg/octet"
)

// PortSource is the registry of named ports
type PortSource interface {
	Ports() []string
	Endpoint(port string) (config.EndpointConfig, bool)
	Connect(ctx context.Context, port string, addr int) (octet.Link, error)
}

// Config for the configured-port scanner
type Config struct {
	ProbeCommand string
	MaxReply     int
	ProbeTimeout time.Duration
	// DefaultAddr is used for TCP ports without their own port number
	DefaultAddr int
}

// Scanner probes every configured port once
type Scanner struct {
	ports  PortSource
	config Config
	logger *zap.Logger
}

// NewScanner creates a new configured-port scanner
func NewScanner(ports PortSource, config Config, logger *zap.Logger) *Scanner {
	return &Scanner{
		ports:  ports,
		config: config,
		logger: logger.With(zap.String("scanner", "configured")),
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "configured"
}

// IsAvailable reports whether any port is configured
func (s *Scanner) IsAvailable() bool {
	return len(s.ports.Ports()) > 0
}

// Scan reports every configured port, reachable or not
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredController, error) {
	names := s.ports.Ports()
	s.logger.Info("Probing configured ports", zap.Strings("ports", names))

	found := make([]*discovery.DiscoveredController, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		found = append(found, s.probePort(ctx, name))
	}

	return found, nil
}

func (s *Scanner) probePort(ctx context.Context, name string) *discovery.DiscoveredController {
	ep, _ := s.ports.Endpoint(name)
	addr := 0
	if ep.Type == config.EndpointTCP && ep.Port == 0 {
		addr = s.config.DefaultAddr
	}

	result := &discovery.DiscoveredController{
		ConnectionType: protocol.ConnectionTypeOf(ep.Type),
		Port:           name,
		Address:        protocol.EndpointTarget(ep),
		Addr:           addr,
	}

	link, err := s.ports.Connect(ctx, name, addr)
	if err != nil {
		result.Error = err.Error()
		s.logger.Debug("Port unreachable", zap.String("port", name), zap.Error(err))
		return result
	}
	defer func() {
		if err := link.Disconnect(); err != nil {
			s.logger.Warn("Disconnect after probe failed", zap.String("port", name), zap.Error(err))
		}
	}()

	probe, err := discovery.Probe(ctx, link, s.config.ProbeCommand, s.config.MaxReply, s.config.ProbeTimeout)
	result.LatencyMs = probe.Latency.Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Reachable = true
	result.Firmware = probe.Firmware
	s.logger.Info("Controller found", zap.String("port", name), zap.String("firmware", probe.Firmware))
	return result
}
