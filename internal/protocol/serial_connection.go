// internal/protocol/serial_connection.go
package protocol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"motion-service/internal/model"
)

// serialPort is the subset of serial.Port used by SerialConnection
type serialPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// openSerialPort is replaced in tests
var openSerialPort = func(name string, mode *serial.Mode) (serialPort, error) {
	return serial.Open(name, mode)
}

// SerialConnection implements DeviceProtocol for serial connections
type SerialConnection struct {
	config *SerialConfig
	port   serialPort
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  statsRecorder
}

// NewSerialConnection creates a new serial connection
func NewSerialConnection(config *SerialConfig, logger *zap.Logger) *SerialConnection {
	return &SerialConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "serial"),
			zap.String("device", config.Port),
		),
	}
}

// Open opens the serial connection
func (sc *SerialConnection) Open(ctx context.Context) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.isOpen {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sc.logger.Info("Opening serial port", zap.Int("baud_rate", sc.config.BaudRate))

	port, err := openSerialPort(sc.config.Port, serialMode(sc.config))
	if err != nil {
		sc.logger.Error("Failed to open serial port", zap.Error(err))
		return fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.SetReadTimeout(sc.config.Timeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout: %w", err)
	}

	sc.port = port
	sc.isOpen = true
	sc.stats.connected(true)

	sc.logger.Info("Serial port opened successfully")
	return nil
}

// serialMode converts the configuration into a serial.Mode
func serialMode(config *SerialConfig) *serial.Mode {
	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
	}

	switch config.StopBits {
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		mode.StopBits = serial.OneStopBit
	}

	switch config.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	case "mark":
		mode.Parity = serial.MarkParity
	case "space":
		mode.Parity = serial.SpaceParity
	default:
		mode.Parity = serial.NoParity
	}
	return mode
}

// Close closes the serial connection
func (sc *SerialConnection) Close() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return nil
	}

	err := sc.port.Close()
	sc.port = nil
	sc.isOpen = false
	sc.stats.connected(false)

	if err != nil {
		sc.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	sc.logger.Info("Serial port closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (sc *SerialConnection) IsOpen() bool {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.isOpen && sc.port != nil
}

// Write writes data to the serial port
func (sc *SerialConnection) Write(ctx context.Context, data []byte) (int, error) {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if !sc.isOpen || sc.port == nil {
		return 0, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	startTime := time.Now()
	n, err := sc.port.Write(data)
	if err != nil {
		sc.stats.failed()
		sc.logger.Error("Serial write failed", zap.Error(err))
		return n, fmt.Errorf("failed to write to serial port: %w", err)
	}

	sc.stats.wrote(n, time.Since(startTime))
	sc.logger.Debug("Serial write completed", zap.Int("bytes", n))
	return n, nil
}

// Read reads up to maxBytes. The port read timeout follows ctx's deadline;
// a read that returns nothing before it is reported as a timeout.
func (sc *SerialConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if !sc.isOpen || sc.port == nil {
		return nil, ErrNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := sc.port.SetReadTimeout(remaining(ctx, sc.config.Timeout)); err != nil {
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	buffer := make([]byte, maxBytes)
	n, err := sc.port.Read(buffer)
	if err != nil {
		sc.stats.failed()
		return nil, fmt.Errorf("failed to read from serial port: %w", err)
	}
	if n == 0 {
		sc.stats.failed()
		return nil, fmt.Errorf("read timed out: %w", context.DeadlineExceeded)
	}

	sc.stats.read(n)
	return buffer[:n], nil
}

// Flush discards buffered input
func (sc *SerialConnection) Flush() error {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if !sc.isOpen || sc.port == nil {
		return ErrNotOpen
	}
	if err := sc.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("failed to flush serial port: %w", err)
	}
	return nil
}

// GetProtocolType returns the protocol type
func (sc *SerialConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeSerial
}

// Stats returns a copy of the connection statistics
func (sc *SerialConnection) Stats() ProtocolStats {
	return sc.stats.snapshot()
}
