// internal/discovery/tcp/scanner.go
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sort"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"motion-service/internal/config"
	"motion-service/internal/discovery"
	"motion-service/internal/model"
	"motion-service/pkg/octet"
)

// ErrTooManyHosts is returned when the network ranges expand past MaxHosts
var ErrTooManyHosts = errors.New("network ranges exceed host limit")

// Dialer opens links to endpoints that are not configured ports
type Dialer interface {
	Dial(ctx context.Context, ep config.EndpointConfig, addr int) (octet.Link, error)
}

// Config for TCP scanner
type Config struct {
	NetworkRanges  []string      `json:"network_ranges"`
	Ports          []int         `json:"ports"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	ProbeTimeout   time.Duration `json:"probe_timeout"`
	ScanTimeout    time.Duration `json:"scan_timeout"`
	Concurrency    int           `json:"concurrency"`
	MaxHosts       int           `json:"max_hosts"`
	ProbeCommand   string        `json:"probe_command"`
	MaxReply       int           `json:"max_reply"`
}

// Scanner sweeps network ranges for controllers listening on the command port
type Scanner struct {
	dialer Dialer
	config Config
	logger *zap.Logger
}

// NewScanner creates a new TCP scanner
func NewScanner(dialer Dialer, config Config, logger *zap.Logger) *Scanner {
	if len(config.Ports) == 0 {
		config.Ports = []int{5001}
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 32
	}
	if config.MaxHosts <= 0 {
		config.MaxHosts = 1024
	}

	return &Scanner{
		dialer: dialer,
		config: config,
		logger: logger.With(zap.String("scanner", "tcp")),
	}
}

// GetScannerType returns scanner type
func (s *Scanner) GetScannerType() string {
	return "tcp"
}

// IsAvailable reports whether any network range is configured
func (s *Scanner) IsAvailable() bool {
	return len(s.config.NetworkRanges) > 0
}

// Scan dials every host and port in the configured ranges. Targets that
// refuse the connection are not reported.
func (s *Scanner) Scan(ctx context.Context) ([]*discovery.DiscoveredController, error) {
	hosts, err := ExpandRanges(s.config.NetworkRanges, s.config.MaxHosts)
	if err != nil {
		return nil, err
	}

	if s.config.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ScanTimeout)
		defer cancel()
	}

	s.logger.Info("Starting TCP network scan",
		zap.Strings("ranges", s.config.NetworkRanges),
		zap.Ints("ports", s.config.Ports),
		zap.Int("hosts", len(hosts)),
	)

	var (
		mutex sync.Mutex
		found []*discovery.DiscoveredController
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for _, host := range hosts {
		for _, port := range s.config.Ports {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if c := s.probe(gctx, host, port); c != nil {
					mutex.Lock()
					found = append(found, c)
					mutex.Unlock()
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	sort.Slice(found, func(i, j int) bool { return found[i].Address < found[j].Address })

	s.logger.Info("TCP scan completed", zap.Int("controllers_found", len(found)))
	if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return found, err
	}
	return found, nil
}

// probe returns nil when nothing listens on host:port
func (s *Scanner) probe(ctx context.Context, host netip.Addr, port int) *discovery.DiscoveredController {
	ep := config.EndpointConfig{
		Type:           config.EndpointTCP,
		Host:           host.String(),
		Port:           port,
		ConnectTimeout: s.config.ConnectTimeout,
	}

	link, err := s.dialer.Dial(ctx, ep, 0)
	if err != nil {
		return nil
	}
	defer func() {
		if err := link.Disconnect(); err != nil {
			s.logger.Debug("Disconnect after probe failed", zap.String("host", ep.Host), zap.Error(err))
		}
	}()

	result := &discovery.DiscoveredController{
		ConnectionType: model.ConnectionTypeTCP,
		Address:        net.JoinHostPort(ep.Host, strconv.Itoa(port)),
		Addr:           port,
	}

	probe, err := discovery.Probe(ctx, link, s.config.ProbeCommand, s.config.MaxReply, s.config.ProbeTimeout)
	result.LatencyMs = probe.Latency.Milliseconds()
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Reachable = true
	result.Firmware = probe.Firmware
	s.logger.Info("Controller found", zap.String("address", result.Address), zap.String("firmware", probe.Firmware))
	return result
}

// ExpandRanges lists the host addresses of CIDR ranges or single addresses.
// Network and broadcast addresses of IPv4 prefixes shorter than /31 are skipped.
func ExpandRanges(ranges []string, maxHosts int) ([]netip.Addr, error) {
	var hosts []netip.Addr
	seen := make(map[netip.Addr]bool)

	add := func(a netip.Addr) error {
		if seen[a] {
			return nil
		}
		if maxHosts > 0 && len(hosts) >= maxHosts {
			return fmt.Errorf("%w (%d)", ErrTooManyHosts, maxHosts)
		}
		seen[a] = true
		hosts = append(hosts, a)
		return nil
	}

	for _, r := range ranges {
		if addr, err := netip.ParseAddr(r); err == nil {
			if err := add(addr); err != nil {
				return nil, err
			}
			continue
		}

		prefix, err := netip.ParsePrefix(r)
		if err != nil {
			return nil, fmt.Errorf("invalid network range %q: %w", r, err)
		}
		prefix = prefix.Masked()

		skipEdges := prefix.Addr().Is4() && prefix.Bits() < 31
		first := prefix.Addr()
		for a := first; prefix.Contains(a); a = a.Next() {
			if skipEdges && (a == first || !prefix.Contains(a.Next())) {
				continue
			}
			if err := add(a); err != nil {
				return nil, err
			}
		}
	}

	return hosts, nil
}
