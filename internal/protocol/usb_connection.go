// internal/protocol/usb_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"motion-service/internal/model"
)

// USBConnection implements DeviceProtocol over a pair of bulk endpoints
type USBConnection struct {
	config   *USBConfig
	ctx      *gousb.Context
	device   *gousb.Device
	cfg      *gousb.Config
	intf     *gousb.Interface
	outEndpt *gousb.OutEndpoint
	inEndpt  *gousb.InEndpoint
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
	stats    statsRecorder
}

// NewUSBConnection creates a new USB connection
func NewUSBConnection(config *USBConfig, logger *zap.Logger) *USBConnection {
	return &USBConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "usb"),
			zap.String("vendor_id", config.VendorID),
			zap.String("product_id", config.ProductID),
		),
	}
}

// Open opens the USB connection
func (uc *USBConnection) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.isOpen {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	uc.logger.Info("Opening USB connection",
		zap.Int("interface", uc.config.Interface),
		zap.Int("endpoint", uc.config.Endpoint),
	)

	vendorID, err := parseHexID(uc.config.VendorID)
	if err != nil {
		return fmt.Errorf("invalid vendor ID: %w", err)
	}
	productID, err := parseHexID(uc.config.ProductID)
	if err != nil {
		return fmt.Errorf("invalid product ID: %w", err)
	}

	uc.ctx = gousb.NewContext()

	device, err := uc.findAndOpenDevice(vendorID, productID)
	if err != nil {
		uc.release()
		return fmt.Errorf("failed to find USB device: %w", err)
	}
	uc.device = device

	if err := device.SetAutoDetach(true); err != nil {
		uc.logger.Warn("Failed to enable kernel driver auto-detach", zap.Error(err))
	}

	activeConfig, err := device.ActiveConfigNum()
	if err != nil {
		uc.release()
		return fmt.Errorf("failed to get active configuration: %w", err)
	}
	uc.cfg, err = device.Config(activeConfig)
	if err != nil {
		uc.release()
		return fmt.Errorf("failed to claim configuration %d: %w", activeConfig, err)
	}

	uc.intf, err = uc.cfg.Interface(uc.config.Interface, 0)
	if err != nil {
		uc.release()
		return fmt.Errorf("failed to claim interface %d: %w", uc.config.Interface, err)
	}

	uc.outEndpt, err = uc.intf.OutEndpoint(uc.config.Endpoint)
	if err != nil {
		uc.release()
		return fmt.Errorf("failed to get out endpoint: %w", err)
	}
	uc.inEndpt, err = uc.intf.InEndpoint(uc.config.Endpoint)
	if err != nil {
		uc.release()
		return fmt.Errorf("failed to get in endpoint: %w", err)
	}

	uc.isOpen = true
	uc.stats.connected(true)

	uc.logger.Info("USB connection opened successfully")
	return nil
}

// release frees whatever Open acquired. Caller holds uc.mutex.
func (uc *USBConnection) release() error {
	var err error
	if uc.intf != nil {
		uc.intf.Close()
		uc.intf = nil
	}
	if uc.cfg != nil {
		err = multierr.Append(err, uc.cfg.Close())
		uc.cfg = nil
	}
	if uc.device != nil {
		err = multierr.Append(err, uc.device.Close())
		uc.device = nil
	}
	if uc.ctx != nil {
		err = multierr.Append(err, uc.ctx.Close())
		uc.ctx = nil
	}
	uc.outEndpt = nil
	uc.inEndpt = nil
	return err
}

// Close closes the USB connection
func (uc *USBConnection) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen {
		return nil
	}

	err := uc.release()
	uc.isOpen = false
	uc.stats.connected(false)

	if err != nil {
		uc.logger.Error("Failed to close USB connection", zap.Error(err))
		return fmt.Errorf("failed to close USB connection: %w", err)
	}

	uc.logger.Info("USB connection closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (uc *USBConnection) IsOpen() bool {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.isOpen && uc.device != nil && uc.outEndpt != nil
}

// Write writes data to the out endpoint
func (uc *USBConnection) Write(ctx context.Context, data []byte) (int, error) {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.outEndpt == nil {
		return 0, ErrNotOpen
	}

	startTime := time.Now()
	n, err := uc.outEndpt.WriteContext(ctx, data)
	if err != nil {
		uc.stats.failed()
		uc.logger.Error("USB write failed", zap.Error(err))
		return n, fmt.Errorf("failed to write to USB device: %w", err)
	}

	uc.stats.wrote(n, time.Since(startTime))
	uc.logger.Debug("USB write completed", zap.Int("bytes", n))
	return n, nil
}

// Read reads one transfer from the in endpoint
func (uc *USBConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.inEndpt == nil {
		return nil, ErrNotOpen
	}

	// bulk reads must cover a whole packet
	size := maxBytes
	if packet := uc.inEndpt.Desc.MaxPacketSize; packet > 0 && size%packet != 0 {
		size += packet - size%packet
	}
	buffer := make([]byte, size)

	n, err := uc.inEndpt.ReadContext(ctx, buffer)
	if err != nil {
		uc.stats.failed()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, gousb.ErrorTimeout) || errors.Is(err, gousb.TransferTimedOut) {
			return nil, fmt.Errorf("read timed out: %w", context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("failed to read from USB device: %w", err)
	}
	if n > maxBytes {
		n = maxBytes
	}

	uc.stats.read(n)
	return buffer[:n], nil
}

// Flush is a no-op; bulk endpoints do not buffer unread input on the host
func (uc *USBConnection) Flush() error {
	if !uc.IsOpen() {
		return ErrNotOpen
	}
	return nil
}

// GetProtocolType returns the protocol type
func (uc *USBConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeUSB
}

// Stats returns a copy of the connection statistics
func (uc *USBConnection) Stats() ProtocolStats {
	return uc.stats.snapshot()
}

// parseHexID parses hex ID string (0x1234 or 1234)
func parseHexID(hexStr string) (gousb.ID, error) {
	hexStr = strings.TrimPrefix(strings.ToLower(hexStr), "0x")

	id, err := strconv.ParseUint(hexStr, 16, 16)
	if err != nil {
		return 0, err
	}
	return gousb.ID(id), nil
}

// findAndOpenDevice finds and opens the USB device
func (uc *USBConnection) findAndOpenDevice(vendorID, productID gousb.ID) (*gousb.Device, error) {
	devices, err := uc.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorID && desc.Product == productID
	})
	if err != nil && len(devices) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("USB device not found (VID: %s, PID: %s)", vendorID, productID)
	}

	if len(devices) > 1 {
		for i := 1; i < len(devices); i++ {
			devices[i].Close()
		}
		uc.logger.Warn("Multiple matching USB devices found, using first one")
	}

	return devices[0], nil
}
