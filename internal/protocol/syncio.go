// internal/protocol/syncio.go
package protocol

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"motion-service/internal/config"
	"motion-service/pkg/octet"
)

// Factory builds the transport for an endpoint
type Factory func(ep config.EndpointConfig, addr int, logger *zap.Logger) (DeviceProtocol, error)

// SyncIO implements octet.SyncIO over a registry of named ports
type SyncIO struct {
	inputEOS  string
	outputEOS string
	factory   Factory
	logger    *zap.Logger

	mutex sync.RWMutex
	ports map[string]config.EndpointConfig
}

// NewSyncIO creates a SyncIO for the configured ports
func NewSyncIO(cfg config.ProtocolConfig, logger *zap.Logger) *SyncIO {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SyncIO{
		inputEOS:  cfg.InputEOS,
		outputEOS: cfg.OutputEOS,
		factory:   CreateProtocol,
		logger:    logger.With(zap.String("component", "octet-io")),
		ports:     make(map[string]config.EndpointConfig, len(cfg.Ports)),
	}
	for name, ep := range cfg.Ports {
		s.ports[strings.ToLower(name)] = ep
	}
	return s
}

// WithFactory replaces the transport factory
func (s *SyncIO) WithFactory(factory Factory) *SyncIO {
	s.factory = factory
	return s
}

// Register adds or replaces a named port
func (s *SyncIO) Register(name string, ep config.EndpointConfig) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.ports[strings.ToLower(name)] = ep
}

// Ports returns the registered port names, sorted
func (s *SyncIO) Ports() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	names := make([]string, 0, len(s.ports))
	for name := range s.ports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Endpoint returns the endpoint registered under port
func (s *SyncIO) Endpoint(port string) (config.EndpointConfig, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	ep, ok := s.ports[strings.ToLower(port)]
	return ep, ok
}

// Connect opens the transport behind port. Port names are case-insensitive.
func (s *SyncIO) Connect(ctx context.Context, port string, addr int) (octet.Link, error) {
	s.mutex.RLock()
	ep, ok := s.ports[strings.ToLower(port)]
	s.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("port %q is not configured", port)
	}

	l, err := s.open(ctx, ep, addr, s.logger.With(zap.String("port", port), zap.Int("addr", addr)))
	if err != nil {
		return nil, fmt.Errorf("failed to open port %q: %w", port, err)
	}
	return l, nil
}

// Dial opens a link to an endpoint that is not registered as a named port
func (s *SyncIO) Dial(ctx context.Context, ep config.EndpointConfig, addr int) (octet.Link, error) {
	return s.open(ctx, ep, addr, s.logger.With(zap.String("endpoint", ep.Type), zap.String("host", ep.Host), zap.Int("addr", addr)))
}

func (s *SyncIO) open(ctx context.Context, ep config.EndpointConfig, addr int, logger *zap.Logger) (*link, error) {
	proto, err := s.factory(ep, addr, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create protocol: %w", err)
	}
	if err := proto.Open(ctx); err != nil {
		return nil, err
	}

	l := &link{
		proto:     proto,
		inputEOS:  []byte(s.inputEOS),
		outputEOS: []byte(s.outputEOS),
		logger:    logger,
	}
	if ep.InputEOS != nil {
		l.inputEOS = []byte(*ep.InputEOS)
	}
	if ep.OutputEOS != nil {
		l.outputEOS = []byte(*ep.OutputEOS)
	}

	l.logger.Debug("Link connected", zap.String("protocol", string(proto.GetProtocolType())))
	return l, nil
}

// link is an octet.Link over one DeviceProtocol
type link struct {
	proto     DeviceProtocol
	inputEOS  []byte
	outputEOS []byte
	logger    *zap.Logger
}

// Write sends data followed by the output terminator
func (l *link) Write(ctx context.Context, data []byte, timeout time.Duration) (int, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	n, err := l.proto.Write(ctx, l.frame(data))
	if n > len(data) {
		n = len(data)
	}
	return n, err
}

// WriteRead discards stale input, sends data and reads until the input
// terminator, maxReply bytes or the timeout. The terminator is stripped.
func (l *link) WriteRead(ctx context.Context, data []byte, maxReply int, timeout time.Duration) (*octet.Response, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	if err := l.proto.Flush(); err != nil {
		return nil, err
	}

	n, err := l.proto.Write(ctx, l.frame(data))
	if n > len(data) {
		n = len(data)
	}
	resp := &octet.Response{BytesOut: n}
	if err != nil {
		return resp, err
	}

	var buffer []byte
	for {
		chunk, err := l.proto.Read(ctx, maxReply-len(buffer))
		buffer = append(buffer, chunk...)
		resp.BytesIn = len(buffer)
		if err != nil {
			resp.Data = buffer
			return resp, err
		}

		if len(l.inputEOS) > 0 {
			if i := bytes.Index(buffer, l.inputEOS); i >= 0 {
				resp.Data = buffer[:i]
				resp.EOM |= octet.EOMEOS
				break
			}
		}
		if len(buffer) >= maxReply {
			resp.Data = buffer
			resp.EOM |= octet.EOMCount
			break
		}
		if len(l.inputEOS) == 0 && len(chunk) > 0 {
			resp.Data = buffer
			resp.EOM |= octet.EOMEnd
			break
		}
	}

	return resp, nil
}

// Disconnect closes the transport
func (l *link) Disconnect() error {
	l.logger.Debug("Link disconnected")
	return l.proto.Close()
}

func (l *link) frame(data []byte) []byte {
	if len(l.outputEOS) == 0 {
		return data
	}
	out := make([]byte, 0, len(data)+len(l.outputEOS))
	out = append(out, data...)
	return append(out, l.outputEOS...)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
