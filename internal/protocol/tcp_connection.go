// internal/protocol/tcp_connection.go
package protocol

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"motion-service/internal/model"
)

// flushWindow bounds how long Flush waits for stale input
const flushWindow = 2 * time.Millisecond

// TCPConnection implements DeviceProtocol for TCP connections
type TCPConnection struct {
	config *TCPConfig
	conn   net.Conn
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  statsRecorder
}

// NewTCPConnection creates a new TCP connection
func NewTCPConnection(config *TCPConfig, logger *zap.Logger) *TCPConnection {
	return &TCPConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "tcp"),
			zap.String("host", config.Host),
			zap.Int("port", config.Port),
		),
	}
}

// Open opens the TCP connection
func (tc *TCPConnection) Open(ctx context.Context) error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.isOpen {
		return nil
	}

	tc.logger.Info("Opening TCP connection", zap.Bool("ssl", tc.config.SSL))

	dialer := &net.Dialer{
		Timeout:   tc.config.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	address := net.JoinHostPort(tc.config.Host, fmt.Sprint(tc.config.Port))

	var conn net.Conn
	var err error
	if tc.config.SSL {
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config:    &tls.Config{ServerName: tc.config.Host},
		}
		conn, err = tlsDialer.DialContext(ctx, "tcp", address)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", address)
	}
	if err != nil {
		tc.logger.Error("Failed to open TCP connection", zap.Error(err))
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		// command/reply traffic is small; do not batch
		_ = tcpConn.SetNoDelay(true)
		if tc.config.KeepAlive {
			_ = tcpConn.SetKeepAlive(true)
			_ = tcpConn.SetKeepAlivePeriod(30 * time.Second)
		}
	}

	tc.conn = conn
	tc.isOpen = true
	tc.stats.connected(true)

	tc.logger.Info("TCP connection opened successfully")
	return nil
}

// Close closes the TCP connection
func (tc *TCPConnection) Close() error {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if !tc.isOpen || tc.conn == nil {
		return nil
	}

	err := tc.conn.Close()
	tc.conn = nil
	tc.isOpen = false
	tc.stats.connected(false)

	if err != nil {
		tc.logger.Error("Failed to close TCP connection", zap.Error(err))
		return fmt.Errorf("failed to close TCP connection: %w", err)
	}

	tc.logger.Info("TCP connection closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (tc *TCPConnection) IsOpen() bool {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()
	return tc.isOpen && tc.conn != nil
}

// Write writes data to the TCP connection
func (tc *TCPConnection) Write(ctx context.Context, data []byte) (int, error) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if !tc.isOpen || tc.conn == nil {
		return 0, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	deadline, _ := ctx.Deadline()
	_ = tc.conn.SetWriteDeadline(deadline)

	startTime := time.Now()
	n, err := tc.conn.Write(data)
	if err != nil {
		tc.stats.failed()
		tc.logger.Error("TCP write failed", zap.Int("written", n), zap.Error(err))
		return n, fmt.Errorf("failed to write to TCP connection: %w", err)
	}

	tc.stats.wrote(n, time.Since(startTime))
	tc.logger.Debug("TCP write completed", zap.Int("bytes", n))
	return n, nil
}

// Read reads up to maxBytes, waiting until data arrives or ctx's deadline passes
func (tc *TCPConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if !tc.isOpen || tc.conn == nil {
		return nil, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deadline, _ := ctx.Deadline()
	_ = tc.conn.SetReadDeadline(deadline)

	buffer := make([]byte, maxBytes)
	n, err := tc.conn.Read(buffer)
	if err != nil {
		tc.stats.failed()
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return buffer[:n], fmt.Errorf("read timed out: %w", context.DeadlineExceeded)
		}
		return buffer[:n], fmt.Errorf("failed to read from TCP connection: %w", err)
	}

	tc.stats.read(n)
	return buffer[:n], nil
}

// Flush discards input that arrived before the next command
func (tc *TCPConnection) Flush() error {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if !tc.isOpen || tc.conn == nil {
		return ErrNotOpen
	}
	defer func() { _ = tc.conn.SetReadDeadline(time.Time{}) }()

	buffer := make([]byte, 512)
	discarded := 0
	for {
		_ = tc.conn.SetReadDeadline(time.Now().Add(flushWindow))
		n, err := tc.conn.Read(buffer)
		discarded += n
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				break
			}
			return fmt.Errorf("failed to flush TCP connection: %w", err)
		}
		if n == 0 {
			break
		}
	}

	if discarded > 0 {
		tc.logger.Debug("Discarded stale input", zap.Int("bytes", discarded))
	}
	return nil
}

// GetProtocolType returns the protocol type
func (tc *TCPConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeTCP
}

// Stats returns a copy of the connection statistics
func (tc *TCPConnection) Stats() ProtocolStats {
	return tc.stats.snapshot()
}
